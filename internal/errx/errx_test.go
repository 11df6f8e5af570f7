package errx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	sentinel := errors.New("read store")
	cause := errors.New("disk I/O error")

	err := Wrap(sentinel, cause)
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "read store: disk I/O error", err.Error())
}

func TestWith(t *testing.T) {
	sentinel := errors.New("hook point missing")

	err := With(sentinel, ": no shard notifications")
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "hook point missing: no shard notifications", err.Error())
}
