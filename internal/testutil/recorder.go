// Package testutil holds test doubles shared by package tests.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
)

// Recorder is a ChangeListener that records every callback and can veto.
type Recorder struct {
	Proposed  []leadsheet.Event
	Committed []leadsheet.Event

	// VetoReason, when set, vetoes every event matched by VetoWhen
	// (or every event when VetoWhen is nil).
	VetoReason string
	VetoWhen   func(leadsheet.Event) bool
}

func (r *Recorder) Authorize(ev leadsheet.Event) leadsheet.Verdict {
	r.Proposed = append(r.Proposed, ev)
	if r.VetoReason != "" && (r.VetoWhen == nil || r.VetoWhen(ev)) {
		return leadsheet.Veto(r.VetoReason)
	}
	return leadsheet.Allow()
}

func (r *Recorder) Changed(ev leadsheet.Event) {
	r.Committed = append(r.Committed, ev)
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.Proposed, r.Committed = nil, nil
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewFactory returns a Factory with default settings and a silent logger.
func NewFactory(opts ...leadsheet.Option) *leadsheet.Factory {
	return leadsheet.NewFactory(append([]leadsheet.Option{leadsheet.WithLogger(DiscardLogger())}, opts...)...)
}

// NewStore returns a leadsheet with a bar-0 Section "A" 4/4 of size bars.
func NewStore(t testing.TB, size int) *leadsheet.Store {
	t.Helper()
	s, err := NewFactory().New("A", music.FourFour, size)
	require.NoError(t, err)
	return s
}

// Beat parses a beat literal such as "3.5" or "7/2", panicking on error.
func Beat(s string) music.Beat {
	return music.MustParseBeat(s)
}
