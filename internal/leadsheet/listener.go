package leadsheet

import (
	"fmt"
	"reflect"
)

// Verdict is a listener's answer to Authorize.
// The zero value allows the change.
type Verdict struct {
	vetoed bool
	reason string
}

// Allow lets the change proceed.
func Allow() Verdict { return Verdict{} }

// Veto refuses the change; reason is shown to the end user.
func Veto(reason string) Verdict { return Verdict{vetoed: true, reason: reason} }

// Vetoed reports whether the change was refused.
func (v Verdict) Vetoed() bool { return v.vetoed }

// Reason returns the veto explanation.
func (v Verdict) Reason() string { return v.reason }

// ChangeListener observes a Store through the two-phase change protocol.
//
// Authorize is called for every event of an operation before anything is
// mutated; Changed is called for each event after the operation committed.
// Both run on the editing goroutine and may query the Store, but must not
// edit it.
type ChangeListener interface {
	Authorize(ev Event) Verdict
	Changed(ev Event)
}

// AddChangeListener registers l. Registering the same listener twice is a no-op.
//
// Listeners are identified with ==, so l must have a comparable dynamic type,
// usually a pointer. Panics otherwise.
func (s *Store) AddChangeListener(l ChangeListener) {
	if t := reflect.TypeOf(l); t == nil || !t.Comparable() {
		panic(fmt.Sprintf("leadsheet: listener of type %T is not comparable", l))
	}
	for _, x := range s.listeners {
		if x == l {
			return
		}
	}
	s.listeners = append(s.listeners, l)
}

// RemoveChangeListener unregisters l.
func (s *Store) RemoveChangeListener(l ChangeListener) {
	for i, x := range s.listeners {
		if x == l {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}
