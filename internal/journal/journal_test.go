package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjazzboss/JJazzLab-sub029/internal/ids"
	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
	"github.com/jjazzboss/JJazzLab-sub029/internal/testutil"
	"github.com/jjazzboss/JJazzLab-sub029/internal/undo"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"),
		WithLogger(testutil.DiscardLogger()),
		WithIDGenerator(ids.NewSequenceGenerator("session")),
		WithClock(func() string { return "2026-01-02T03:04:05Z" }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 3; i++ {
		j, err := Open(path)
		require.NoError(t, err, "iteration %d", i)

		var version int
		require.NoError(t, j.db.QueryRow("PRAGMA user_version").Scan(&version))
		assert.Equal(t, currentSchemaVersion, version)
		require.NoError(t, j.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	j := openTest(t)

	var mode string
	require.NoError(t, j.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, j.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

// edit runs a few operations covering every event type.
func edit(t *testing.T, s *leadsheet.Store) {
	t.Helper()
	_, ok, err := s.AddItem(leadsheet.NewChord("Cm7", 1, music.Beats(2)))
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = s.AddItem(leadsheet.NewItem(music.At(3, testutil.Beat("1/2")), leadsheet.Annotation{Text: "a tempo"}))
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = s.AddSection(leadsheet.NewSection("B", music.ThreeFour, 2))
	require.NoError(t, err)
	require.True(t, ok)

	chord, _ := s.Item(2)
	ok, err = s.MoveItem(chord.(leadsheet.OrdinaryItem), music.At(2, music.Beats(1)))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.InsertBars(1, 2))
	require.NoError(t, s.DeleteBars(0, 0))
	require.NoError(t, s.SetSize(6))
}

func TestSession_RecordsOperations(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)

	sess, err := j.Attach(context.Background(), s, "demo")
	require.NoError(t, err)
	assert.Equal(t, "session-1", sess.ID)

	edit(t, s)
	require.NoError(t, sess.Close())

	ops, err := j.Operations(context.Background(), sess.ID)
	require.NoError(t, err)
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
		assert.NotEmpty(t, op.Events, op.Name)
	}
	assert.Equal(t, []string{
		"AddItem", "AddItem", "AddSection", "MoveItem", "InsertBars", "DeleteBars", "SetSize",
	}, names)
	assert.Equal(t, s.Fingerprint(), ops[len(ops)-1].Fingerprint)

	infos, err := j.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, SessionInfo{
		ID:          "session-1",
		Label:       "demo",
		CreatedAt:   "2026-01-02T03:04:05Z",
		Operations:  7,
		Fingerprint: s.Fingerprint(),
	}, infos[0])
}

func TestSession_StopsAfterClose(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)

	sess, err := j.Attach(context.Background(), s, "")
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	_, _, err = s.AddItem(leadsheet.NewChord("F", 0, music.Beats(0)))
	require.NoError(t, err)

	ops, err := j.Operations(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestSession_VetoedOperationNotRecorded(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)
	s.AddChangeListener(&testutil.Recorder{VetoReason: "locked"})

	sess, err := j.Attach(context.Background(), s, "")
	require.NoError(t, err)
	defer sess.Close()

	_, _, err = s.AddItem(leadsheet.NewChord("F", 0, music.Beats(0)))
	require.True(t, leadsheet.IsVeto(err))

	ops, err := j.Operations(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestSession_WriteFailure(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)

	sess, err := j.Attach(context.Background(), s, "")
	require.NoError(t, err)
	require.NoError(t, j.db.Close())

	_, ok, err := s.AddItem(leadsheet.NewChord("F", 0, music.Beats(0)))
	require.NoError(t, err, "journal failures never block edits")
	assert.True(t, ok)
	assert.Error(t, sess.Close())
	assert.Error(t, sess.Err())
}

func TestSession_WritesOperationOnNextOrFlush(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)
	ctx := context.Background()

	sess, err := j.Attach(ctx, s, "")
	require.NoError(t, err)
	defer sess.Close()

	_, _, err = s.AddItem(leadsheet.NewChord("F", 0, music.Beats(0)))
	require.NoError(t, err)
	ops, err := j.Operations(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, ops)

	_, _, err = s.AddItem(leadsheet.NewChord("G", 1, music.Beats(0)))
	require.NoError(t, err)
	ops, err = j.Operations(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, int64(1), ops[0].Seq)

	require.NoError(t, sess.Flush(ctx))
	ops, err = j.Operations(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, s.Fingerprint(), ops[1].Fingerprint)
}

func TestSession_FailedOperationLeavesNoPartialRows(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)
	ctx := context.Background()

	sess, err := j.Attach(ctx, s, "")
	require.NoError(t, err)
	_, err = j.db.Exec(`
		CREATE TRIGGER fail_second_event BEFORE INSERT ON events
		WHEN NEW.idx = 1
		BEGIN SELECT RAISE(ABORT, 'disk full'); END
	`)
	require.NoError(t, err)

	_, _, err = s.AddItem(leadsheet.NewChord("F", 5, music.Beats(0)))
	require.NoError(t, err)
	require.NoError(t, s.SetSize(2)) // ItemRemoved + SizeChanged
	assert.Error(t, sess.Close())

	ops, err := j.Operations(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "AddItem", ops[0].Name)

	var rows int
	require.NoError(t, j.db.QueryRow(`SELECT COUNT(*) FROM events WHERE session_id = ?`, sess.ID).Scan(&rows))
	assert.Equal(t, 1, rows)

	res, err := j.Replay(ctx, sess.ID, testutil.NewFactory())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, 1, res.Operations)
}

func TestSessions_Empty(t *testing.T) {
	j := openTest(t)

	infos, err := j.Sessions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, infos)
	assert.Empty(t, infos)
}

func TestReplay_RebuildsLeadsheet(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)
	_, _, err := s.AddItem(leadsheet.NewChord("G7", 0, music.Beats(3)))
	require.NoError(t, err)

	sess, err := j.Attach(context.Background(), s, "")
	require.NoError(t, err)
	edit(t, s)
	require.NoError(t, sess.Close())

	res, err := j.Replay(context.Background(), sess.ID, testutil.NewFactory())
	require.NoError(t, err)
	assert.True(t, res.OK(), "mismatches: %v", res.Mismatches)
	assert.Equal(t, 7, res.Operations)
	assert.True(t, s.Equal(res.Store), "want\n%s\ngot\n%s", s.Dump(), res.Store.Dump())
}

func TestReplay_WithUndoRedo(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)
	m := undo.New(s, undo.WithLogger(testutil.DiscardLogger()))
	defer m.Close()

	sess, err := j.Attach(context.Background(), s, "")
	require.NoError(t, err)

	edit(t, s)
	require.NoError(t, m.Undo())
	require.NoError(t, m.Undo())
	require.NoError(t, m.Redo())
	require.NoError(t, sess.Close())

	res, err := j.Replay(context.Background(), sess.ID, testutil.NewFactory())
	require.NoError(t, err)
	assert.True(t, res.OK(), "mismatches: %v", res.Mismatches)
	assert.Equal(t, 10, res.Operations)
	assert.Equal(t, s.Dump(), res.Store.Dump())
}

func TestReplay_UnknownSession(t *testing.T) {
	j := openTest(t)

	_, err := j.Replay(context.Background(), "nope", testutil.NewFactory())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplay_ReportsMismatch(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)

	sess, err := j.Attach(context.Background(), s, "")
	require.NoError(t, err)
	edit(t, s)
	require.NoError(t, sess.Close())

	_, err = j.db.Exec(`UPDATE operations SET fingerprint = 'bogus' WHERE session_id = ? AND seq = 2`, sess.ID)
	require.NoError(t, err)

	res, err := j.Replay(context.Background(), sess.ID, testutil.NewFactory())
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, int64(2), res.Mismatches[0].Seq)
	assert.Equal(t, "bogus", res.Mismatches[0].Want)
	assert.True(t, s.Equal(res.Store))
}

func TestReplay_InconsistentJournal(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)

	sess, err := j.Attach(context.Background(), s, "")
	require.NoError(t, err)
	edit(t, s)
	require.NoError(t, sess.Close())

	// Drop the first operation: the later ones no longer match.
	_, err = j.db.Exec(`DELETE FROM events WHERE session_id = ? AND seq = 1`, sess.ID)
	require.NoError(t, err)
	_, err = j.db.Exec(`DELETE FROM operations WHERE session_id = ? AND seq = 1`, sess.ID)
	require.NoError(t, err)

	_, err = j.Replay(context.Background(), sess.ID, testutil.NewFactory())
	assert.ErrorIs(t, err, leadsheet.ErrInconsistentEdit)
}

func TestReplay_Cancelled(t *testing.T) {
	j := openTest(t)
	s := testutil.NewStore(t, 8)

	sess, err := j.Attach(context.Background(), s, "")
	require.NoError(t, err)
	edit(t, s)
	require.NoError(t, sess.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = j.Replay(ctx, sess.ID, testutil.NewFactory())
	assert.ErrorIs(t, err, context.Canceled)
}
