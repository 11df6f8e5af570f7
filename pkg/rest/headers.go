package rest

import (
	"strings"

	"github.com/calyptra/gatepatch/pkg/api"
)

// NormalizeForm returns the header bag for a resolved request, whichever
// shape the resolver produced. Bag-form headers are returned as-is;
// line-form headers are parsed. Headers the caller never touches keep
// their name casing and relative order either way.
func NormalizeForm(form *api.ResolvedRequest) *api.Headers {
	if form.Headers != nil {
		return form.Headers
	}
	return NormalizeHeaderLines(form.HeaderLines)
}

// NormalizeHeaderLines parses an ordered list of "Name: value" strings
// into a name-to-value bag. The name is everything before the first
// colon, trimmed; the value keeps everything after it with leading
// whitespace removed. Malformed lines without a colon are dropped. Later
// duplicates overwrite the value but keep the first-seen position.
func NormalizeHeaderLines(lines []string) *api.Headers {
	h := api.NewHeaders()
	for _, line := range lines {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		h.Set(name, strings.TrimLeft(value, " \t"))
	}
	return h
}
