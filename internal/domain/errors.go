package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when an operation needs an identity and none was presented.
	ErrUnauthorized = errors.New("identity required")
	// ErrUpstream indicates a third-party service (trivia API, OAuth provider) failed or misbehaved.
	ErrUpstream = errors.New("upstream service failure")
	// ErrInternal wraps datastore and other server-side failures.
	ErrInternal = errors.New("internal failure")
	// ErrInvalidState is returned when an OAuth callback state does not match the issued one.
	ErrInvalidState = errors.New("oauth state mismatch")
)

// ValidationError lists every failing field of a payload.
type ValidationError struct {
	Fields map[string][]string
}

// Add records a problem with field.
func (e *ValidationError) Add(field, problem string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], problem)
}

// Empty reports whether no problems were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e when it holds problems and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
