package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calyptra/gatepatch/pkg/api"
)

func TestNormalizeHeaderLines(t *testing.T) {
	h := NormalizeHeaderLines([]string{
		"User-Agent: test/1.0",
		"Authorization: Bearer xyz",
		"X-Empty:",
		"no-colon-line",
		"  Padded  : \tvalue with tab",
	})

	assert.Equal(t, "test/1.0", h.Get("User-Agent"))
	assert.Equal(t, "Bearer xyz", h.Get("Authorization"))
	assert.Equal(t, "", h.Get("X-Empty"))
	assert.True(t, h.Has("X-Empty"))
	assert.False(t, h.Has("no-colon-line"))
	assert.Equal(t, "value with tab", h.Get("Padded"))
}

func TestNormalizeHeaderLines_DuplicatesKeepFirstPosition(t *testing.T) {
	h := NormalizeHeaderLines([]string{
		"A: 1",
		"B: 2",
		"a: 3",
	})

	assert.Equal(t, []string{"A", "B"}, h.Keys())
	assert.Equal(t, "3", h.Get("A"))
}

func TestNormalizeForm_PrefersExistingBag(t *testing.T) {
	bag := api.NewHeaders()
	bag.Set("A", "1")

	form := &api.ResolvedRequest{
		Headers:     bag,
		HeaderLines: []string{"B: 2"},
	}
	got := NormalizeForm(form)
	assert.Same(t, bag, got)
	assert.False(t, got.Has("B"))
}

func TestNormalizeForm_ParsesLines(t *testing.T) {
	form := &api.ResolvedRequest{HeaderLines: []string{"A: 1"}}
	got := NormalizeForm(form)
	assert.Equal(t, "1", got.Get("A"))
}
