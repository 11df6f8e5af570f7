package patch

import (
	"regexp"
	"strings"
	"sync"
)

const paramOpen = "{:"

// Match reports whether a concrete path structurally matches a route
// template. Templates without a {:name} placeholder match only by exact
// string equality. Templates with placeholders match when the path shares
// the template's literal prefix up to the first placeholder and the
// prefix-plus-wildcard pattern (one or more non-slash characters),
// anchored at the start, matches the path.
//
// The check is satisfied at the first placeholder's boundary: template
// structure after that point is not required to align, so "/users/bot"
// and "/users/42/guilds" both match "/users/{:id}/". Kept for
// compatibility with the observed behavior; do not tighten to
// full-template matching.
func Match(path, template string) bool {
	idx := strings.Index(template, paramOpen)
	if idx < 0 {
		return path == template
	}
	if !strings.HasPrefix(path, template[:idx]) {
		return false
	}
	return compileTemplate(template).MatchString(path)
}

var (
	templateMu    sync.RWMutex
	templateCache = map[string]*regexp.Regexp{}
)

// compileTemplate builds the anchored pattern for a parameterized
// template: the regexp-escaped literal prefix followed by a non-slash
// wildcard. Compiled patterns are cached; the route table is small and
// templates are fixed at configuration time.
func compileTemplate(template string) *regexp.Regexp {
	templateMu.RLock()
	re, ok := templateCache[template]
	templateMu.RUnlock()
	if ok {
		return re
	}

	idx := strings.Index(template, paramOpen)
	re = regexp.MustCompile("^" + regexp.QuoteMeta(template[:idx]) + `[^/]+`)

	templateMu.Lock()
	templateCache[template] = re
	templateMu.Unlock()
	return re
}
