// Package errx provides small helpers for pairing stable sentinel errors
// with their underlying causes. Callers match on the sentinel with
// errors.Is while the cause stays visible in the message chain.
package errx

import "fmt"

// Wrap attaches a cause to a sentinel error. Both remain matchable
// through errors.Is / errors.As.
func Wrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// With appends free-form detail to a sentinel error. The detail string
// should include its own separator (": ...").
func With(sentinel error, detail string) error {
	return fmt.Errorf("%w%s", sentinel, detail)
}
