// Package syncerr defines the failures a sync can end with and the context
// attached to them.
package syncerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthentication means the service rejected the API token.
	ErrAuthentication = errors.New("authentication failed")
	// ErrService means the service could not be reached, answered with a
	// non-2xx status, or sent a body that is not valid JSON.
	ErrService = errors.New("service failure")
	// ErrUnsuccessful means the body was well-formed but did not report
	// success.
	ErrUnsuccessful = errors.New("unsuccessful response")
)

// Phase names the step of a sync that failed.
type Phase string

const (
	PhaseFetch  Phase = "fetch"
	PhaseRead   Phase = "read"
	PhaseParse  Phase = "parse"
	PhasePivot  Phase = "pivot"
	PhaseRender Phase = "render"
	PhaseWrite  Phase = "write"
	PhasePush   Phase = "push"
)

// Error annotates an error with the phase it happened in and the
// language/file/key it concerns, when known.
type Error struct {
	Op       string // "pull" or "push"
	Phase    Phase
	Language string
	File     string
	Key      string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Phase))
	if loc := e.location(); loc != "" {
		b.WriteString(": ")
		b.WriteString(loc)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, ": key %q", e.Key)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) location() string {
	switch {
	case e.Language != "" && e.File != "":
		return e.Language + "/" + e.File
	case e.Language != "":
		return e.Language
	default:
		return e.File
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap annotates err with op and phase. A nil err stays nil.
func Wrap(op string, phase Phase, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Phase: phase, Err: err}
}

// Describe returns the report heading for err.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrAuthentication):
		return "Authentication failed"
	case errors.Is(err, ErrService), errors.Is(err, ErrUnsuccessful):
		return "API error"
	default:
		return "Unexpected error"
	}
}

// PhaseOf returns the phase recorded on err, if any.
func PhaseOf(err error) (Phase, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Phase, true
	}
	return "", false
}
