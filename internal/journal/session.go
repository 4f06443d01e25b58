package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
)

// timeFormat is fixed-width so timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

func utcNow() string {
	return time.Now().UTC().Format(timeFormat)
}

// Session journals the edits of one Store.
//
// The events of an operation are buffered and written together with the
// operation row in one transaction, when the next operation arrives or on
// Flush or Close. A journaled operation therefore always has all of its
// events. Writes triggered from listener callbacks use context.Background,
// since Store callbacks carry no context.
type Session struct {
	ID string

	j     *Journal
	store *leadsheet.Store

	pending *pendingOp
	err     error
	closed  bool
}

// pendingOp is a committed operation not yet written.
type pendingOp struct {
	op          leadsheet.Operation
	fingerprint string
	events      []leadsheet.Event
}

// Attach starts a session recording the current state of s and registers
// it as a listener. label is free text shown by Sessions.
func (j *Journal) Attach(ctx context.Context, s *leadsheet.Store, label string) (*Session, error) {
	snap, err := encodeSnapshot(s)
	if err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	sess := &Session{ID: j.ids.Generate(), j: j, store: s}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, label, snapshot, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sess.ID, label, string(snap), s.Fingerprint(), j.now())
	if err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}

	s.AddChangeListener(sess)
	j.logger.Debug("journal session started", "session", sess.ID, "label", label)
	return sess, nil
}

// Authorize never vetoes.
func (*Session) Authorize(leadsheet.Event) leadsheet.Verdict {
	return leadsheet.Allow()
}

// Changed buffers ev. The first event of a new operation writes the
// previous one and captures the fingerprint of the committed state.
// After a write failure the session stops recording; see Err.
func (s *Session) Changed(ev leadsheet.Event) {
	if s.closed || s.err != nil {
		return
	}
	op := ev.Operation()
	if s.pending != nil && s.pending.op.Seq != op.Seq {
		if s.Flush(context.Background()) != nil {
			return
		}
	}
	if s.pending == nil {
		s.pending = &pendingOp{op: op, fingerprint: s.store.Fingerprint()}
	}
	s.pending.events = append(s.pending.events, ev)
}

// Flush writes the buffered operation, if any.
func (s *Session) Flush(ctx context.Context) error {
	if s.err != nil || s.pending == nil {
		return s.err
	}
	p := s.pending
	s.pending = nil
	if err := s.write(ctx, p); err != nil {
		s.err = err
		s.j.logger.Error("journal write failed",
			"session", s.ID, "op", p.op.Name, "seq", p.op.Seq, "error", err)
	}
	return s.err
}

func (s *Session) write(ctx context.Context, p *pendingOp) error {
	tx, err := s.j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin operation %d: %w", p.op.Seq, err)
	}
	defer tx.Rollback() // no-op after Commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO operations (session_id, seq, name, fingerprint)
		VALUES (?, ?, ?, ?)
	`, s.ID, p.op.Seq, p.op.Name, p.fingerprint)
	if err != nil {
		return fmt.Errorf("write operation %d: %w", p.op.Seq, err)
	}

	for idx, ev := range p.events {
		typ, body, err := encodeEvent(ev)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (session_id, seq, idx, type, body)
			VALUES (?, ?, ?, ?, ?)
		`, s.ID, p.op.Seq, idx, typ, string(body))
		if err != nil {
			return fmt.Errorf("write event %d.%d: %w", p.op.Seq, idx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit operation %d: %w", p.op.Seq, err)
	}
	return nil
}

// Err returns the first write failure, if any.
func (s *Session) Err() error {
	return s.err
}

// Close writes the buffered operation, unregisters the session and returns
// Err. Calling Close again only returns Err.
func (s *Session) Close() error {
	if !s.closed {
		s.store.RemoveChangeListener(s)
		s.closed = true
		return s.Flush(context.Background())
	}
	return s.err
}
