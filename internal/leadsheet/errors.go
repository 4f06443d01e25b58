package leadsheet

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a malformed request: bar or size out of
	// range, blank or reserved section name, invalid time signature or payload.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrReentrantEdit is returned when a listener tries to edit the Store
	// from inside Authorize or Changed.
	ErrReentrantEdit = errors.New("leadsheet edited from inside a change listener")

	// ErrInconsistentEdit is returned by ApplyEvents when an event batch does
	// not match the current state or would break an invariant.
	ErrInconsistentEdit = errors.New("edit does not match leadsheet state")
)

// VetoError is returned when a ChangeListener refuses an event.
// No state was changed.
type VetoError struct {
	Reason string
	Event  Event
}

func (e *VetoError) Error() string {
	return fmt.Sprintf("edit vetoed: %s", e.Reason)
}

// IsVeto reports whether err is, or wraps, a *VetoError.
func IsVeto(err error) bool {
	var ve *VetoError
	return errors.As(err, &ve)
}

// InvariantError describes a broken Store invariant.
//
// Ordinary operations never produce one; if they do the Store panics with it,
// since the collection can no longer be trusted.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("leadsheet invariant %q violated: %s", e.Invariant, e.Detail)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
