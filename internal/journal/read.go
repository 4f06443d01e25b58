package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
)

// SessionInfo summarizes a journaled session.
type SessionInfo struct {
	ID          string
	Label       string
	CreatedAt   string
	Operations  int
	Fingerprint string // after the last operation
}

// Operation is one journaled store call.
type Operation struct {
	Seq         int64
	Name        string
	Fingerprint string
	Events      []leadsheet.Event
}

// Sessions lists every session, oldest first.
// Returns an empty slice (not nil) when there are none.
func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.label, s.created_at,
			(SELECT COUNT(*) FROM operations o WHERE o.session_id = s.id),
			COALESCE(
				(SELECT o.fingerprint FROM operations o WHERE o.session_id = s.id ORDER BY o.seq DESC LIMIT 1),
				s.fingerprint)
		FROM sessions s
		ORDER BY s.created_at ASC, s.rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	infos := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.Label, &info.CreatedAt, &info.Operations, &info.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return infos, nil
}

// Operations returns the operations of a session in commit order, each with
// its decoded events.
func (j *Journal) Operations(ctx context.Context, sessionID string) ([]Operation, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT o.seq, o.name, o.fingerprint, e.idx, e.type, e.body
		FROM operations o
		JOIN events e ON e.session_id = o.session_id AND e.seq = o.seq
		WHERE o.session_id = ?
		ORDER BY o.seq ASC, e.idx ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []Operation{}
	for rows.Next() {
		var (
			op        Operation
			idx       int
			typ, body string
		)
		if err := rows.Scan(&op.Seq, &op.Name, &op.Fingerprint, &idx, &typ, &body); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev, err := decodeEvent(typ, []byte(body), j.payloads)
		if err != nil {
			return nil, fmt.Errorf("operation %d event %d: %w", op.Seq, idx, err)
		}
		if n := len(ops); n == 0 || ops[n-1].Seq != op.Seq {
			ops = append(ops, op)
		}
		last := &ops[len(ops)-1]
		last.Events = append(last.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return ops, nil
}

// Mismatch reports a replayed state that differs from the journaled one.
// Seq 0 designates the initial snapshot.
type Mismatch struct {
	Seq  int64
	Name string
	Want string
	Got  string
}

// ReplayResult is the outcome of Replay.
type ReplayResult struct {
	SessionID  string
	Store      *leadsheet.Store
	Operations int
	Mismatches []Mismatch
}

// OK reports whether every fingerprint matched.
func (r *ReplayResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay rebuilds the leadsheet of a session with f and re-applies every
// journaled operation, comparing fingerprints along the way.
// An operation the rebuilt leadsheet rejects is an error.
func (j *Journal) Replay(ctx context.Context, sessionID string, f *leadsheet.Factory) (*ReplayResult, error) {
	var snap, fingerprint string
	err := j.db.QueryRowContext(ctx, `
		SELECT snapshot, fingerprint FROM sessions WHERE id = ?
	`, sessionID).Scan(&snap, &fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	size, items, err := decodeSnapshot([]byte(snap), j.payloads)
	if err != nil {
		return nil, err
	}
	s, err := f.Restore(size, items)
	if err != nil {
		return nil, fmt.Errorf("restore session %q: %w", sessionID, err)
	}

	res := &ReplayResult{SessionID: sessionID, Store: s}
	if got := s.Fingerprint(); got != fingerprint {
		res.Mismatches = append(res.Mismatches, Mismatch{Name: "initial", Want: fingerprint, Got: got})
	}

	ops, err := j.Operations(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.ApplyEvents(op.Name, op.Events); err != nil {
			return nil, fmt.Errorf("replay operation %d (%s): %w", op.Seq, op.Name, err)
		}
		res.Operations++
		if got := s.Fingerprint(); got != op.Fingerprint {
			res.Mismatches = append(res.Mismatches, Mismatch{Seq: op.Seq, Name: op.Name, Want: op.Fingerprint, Got: got})
		}
	}

	j.logger.Debug("journal session replayed",
		"session", sessionID, "operations", res.Operations, "mismatches", len(res.Mismatches))
	return res, nil
}
