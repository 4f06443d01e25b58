// Package undo records leadsheet edits and reverts them.
//
// A Manager listens to one Store. Every committed operation becomes one
// undoable Edit unless the caller brackets several operations with
// BeginEdit/EndEdit, in which case they form a single compound Edit.
// Undo and Redo replay inverse or original events through
// leadsheet.Store.ApplyEvents, so they go through the same authorization
// as any other edit.
package undo

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jjazzboss/JJazzLab-sub029/internal/ids"
	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrEditOpen      = errors.New("a compound edit is already open")
	ErrNoOpenEdit    = errors.New("no compound edit is open")
	ErrClosed        = errors.New("undo manager closed")
)

// Edit is one user-level undoable action.
type Edit struct {
	ID     string
	Name   string
	Events []leadsheet.Event
}

// Manager is the undo/redo sink of a Store.
// Like the Store, it must be used from a single goroutine.
type Manager struct {
	store  *leadsheet.Store
	logger *slog.Logger
	ids    ids.Generator
	limit  int

	undo []Edit
	redo []Edit

	open     *Edit
	lastSeq  int64 // Operation.Seq of the top undo Edit when it was grouped automatically
	applying bool
	closed   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithIDGenerator sets the generator for Edit IDs. The default produces UUIDv7.
func WithIDGenerator(g ids.Generator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// WithLimit bounds the undo history; the oldest Edits are forgotten first.
// Zero means unlimited.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.limit = n
		}
	}
}

// New creates a Manager and registers it on s.
func New(s *leadsheet.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  s,
		logger: slog.Default(),
		ids:    ids.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	s.AddChangeListener(m)
	return m
}

// Authorize never vetoes.
func (m *Manager) Authorize(leadsheet.Event) leadsheet.Verdict {
	return leadsheet.Allow()
}

// Changed records ev.
func (m *Manager) Changed(ev leadsheet.Event) {
	m.RecordInverse(ev)
}

// RecordInverse stores ev so that it can be inverted later. Events produced
// by Undo and Redo themselves are ignored. Any new edit clears the redo
// history.
func (m *Manager) RecordInverse(ev leadsheet.Event) {
	if m.applying || m.closed {
		return
	}
	m.redo = nil

	if m.open != nil {
		m.open.Events = append(m.open.Events, ev)
		return
	}

	op := ev.Operation()
	if n := len(m.undo); n > 0 && m.lastSeq != 0 && m.lastSeq == op.Seq {
		m.undo[n-1].Events = append(m.undo[n-1].Events, ev)
		return
	}
	m.push(Edit{ID: m.ids.Generate(), Name: op.Name, Events: []leadsheet.Event{ev}})
	m.lastSeq = op.Seq
}

// BeginEdit opens a compound Edit named name and returns its ID.
// Compound edits do not nest.
func (m *Manager) BeginEdit(name string) (string, error) {
	if m.closed {
		return "", ErrClosed
	}
	if m.open != nil {
		return "", fmt.Errorf("%w: %q", ErrEditOpen, m.open.Name)
	}
	m.open = &Edit{ID: m.ids.Generate(), Name: name}
	m.logger.Debug("compound edit opened", "id", m.open.ID, "name", name)
	return m.open.ID, nil
}

// EndEdit closes the compound Edit. An Edit without events is discarded.
func (m *Manager) EndEdit() error {
	if m.open == nil {
		return ErrNoOpenEdit
	}
	e := *m.open
	m.open = nil
	m.logger.Debug("compound edit closed", "id", e.ID, "name", e.Name, "events", len(e.Events))
	if len(e.Events) > 0 {
		m.push(e)
		m.lastSeq = 0
	}
	return nil
}

// Undo reverts the most recent Edit.
func (m *Manager) Undo() error {
	if err := m.ready(); err != nil {
		return err
	}
	if len(m.undo) == 0 {
		return ErrNothingToUndo
	}
	e := m.undo[len(m.undo)-1]
	if err := m.apply("Undo "+e.Name, leadsheet.InverseAll(e.Events)); err != nil {
		return fmt.Errorf("undo %q: %w", e.Name, err)
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, e)
	m.lastSeq = 0
	m.logger.Debug("edit undone", "id", e.ID, "name", e.Name)
	return nil
}

// Redo re-applies the most recently undone Edit.
func (m *Manager) Redo() error {
	if err := m.ready(); err != nil {
		return err
	}
	if len(m.redo) == 0 {
		return ErrNothingToRedo
	}
	e := m.redo[len(m.redo)-1]
	if err := m.apply("Redo "+e.Name, e.Events); err != nil {
		return fmt.Errorf("redo %q: %w", e.Name, err)
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, e)
	m.lastSeq = 0
	m.logger.Debug("edit redone", "id", e.ID, "name", e.Name)
	return nil
}

// CanUndo reports whether Undo has something to revert.
func (m *Manager) CanUndo() bool {
	return !m.closed && m.open == nil && len(m.undo) > 0
}

// CanRedo reports whether Redo has something to re-apply.
func (m *Manager) CanRedo() bool {
	return !m.closed && m.open == nil && len(m.redo) > 0
}

// History returns copies of the undo stack (oldest first) and the redo
// stack (next to redo last).
func (m *Manager) History() (undo, redo []Edit) {
	return cloneEdits(m.undo), cloneEdits(m.redo)
}

// Close unregisters the Manager and forgets its history.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.store.RemoveChangeListener(m)
	m.undo, m.redo, m.open = nil, nil, nil
	m.closed = true
}

func (m *Manager) ready() error {
	if m.closed {
		return ErrClosed
	}
	if m.open != nil {
		return fmt.Errorf("%w: %q", ErrEditOpen, m.open.Name)
	}
	return nil
}

func (m *Manager) apply(name string, events []leadsheet.Event) error {
	m.applying = true
	defer func() { m.applying = false }()
	return m.store.ApplyEvents(name, events)
}

func (m *Manager) push(e Edit) {
	m.undo = append(m.undo, e)
	if m.limit > 0 && len(m.undo) > m.limit {
		m.undo = slices.Delete(m.undo, 0, len(m.undo)-m.limit)
	}
}

func cloneEdits(edits []Edit) []Edit {
	out := make([]Edit, len(edits))
	for i, e := range edits {
		e.Events = slices.Clone(e.Events)
		out[i] = e
	}
	return out
}
