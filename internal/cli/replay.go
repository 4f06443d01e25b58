package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jjazzboss/JJazzLab-sub029/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session    string             `json:"session"`
	Label      string             `json:"label"`
	Operations int                `json:"operations"`
	Size       int                `json:"size"`
	Items      int                `json:"items"`
	Consistent bool               `json:"consistent"`
	Mismatches []journal.Mismatch `json:"mismatches,omitempty"`
	Dump       string             `json:"dump,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions      []ReplaySessionResult `json:"sessions"`
	TotalSessions int                   `json:"total_sessions"`
	AllConsistent bool                  `json:"all_consistent"`
}

// WriteText prints per-session statistics and every mismatch.
func (r ReplayResult) WriteText(w io.Writer, verbose bool) {
	if r.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return
	}
	for _, s := range r.Sessions {
		fmt.Fprintf(w, "Session: %s (%s)\n", s.Session, s.Label)
		fmt.Fprintf(w, "  Operations: %d\n", s.Operations)
		fmt.Fprintf(w, "  Size: %d bars, %d items\n", s.Size, s.Items)
		if s.Consistent {
			fmt.Fprintln(w, "  Consistent: yes")
		} else {
			fmt.Fprintln(w, "  Consistent: NO")
			for _, m := range s.Mismatches {
				fmt.Fprintf(w, "    #%d %s: want %s, got %s\n", m.Seq, m.Name, m.Want, m.Got)
			}
		}
		if verbose {
			fmt.Fprint(w, s.Dump)
		}
		fmt.Fprintln(w)
	}
	if r.AllConsistent {
		fmt.Fprintf(w, "✓ All %d session(s) replayed consistently\n", r.TotalSessions)
	} else {
		fmt.Fprintln(w, "✗ Replay produced a different leadsheet")
	}
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled sessions and verify fingerprints",
		Long: `Rebuild every journaled session from its initial snapshot, re-apply its
operations in sequence order and compare the leadsheet fingerprint after
each one against the recorded value.

Exit codes:
  0 - All sessions replayed consistently
  1 - A fingerprint differs
  2 - Command error (database not found, unknown session, corrupt journal)

Examples:
  leadsheet replay --db ./edits.db
  leadsheet replay --db ./edits.db --session 0192f7a1-...
  leadsheet replay --db ./edits.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := opts.formatter(cmd)

	// journal.Open would create a missing database.
	if _, err := os.Stat(opts.Database); err != nil {
		return out.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	j, err := journal.Open(opts.Database, journal.WithLogger(opts.logger()))
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer j.Close()

	sessions, err := j.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}
	labels := make(map[string]string, len(sessions))
	targets := make([]string, 0, len(sessions))
	for _, s := range sessions {
		labels[s.ID] = s.Label
		if opts.Session == "" || opts.Session == s.ID {
			targets = append(targets, s.ID)
		}
	}
	if opts.Session != "" && len(targets) == 0 {
		return out.Fail(ExitCommandError, ErrCodeNotFound, "session not found",
			fmt.Errorf("session %q: %w", opts.Session, journal.ErrNotFound))
	}

	f := opts.factory()
	result := ReplayResult{Sessions: make([]ReplaySessionResult, 0, len(targets)), AllConsistent: true}
	for _, id := range targets {
		rr, err := j.Replay(ctx, id, f)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return WrapExitError(ExitCommandError, "replay interrupted", err)
			}
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}
		sr := ReplaySessionResult{
			Session:    id,
			Label:      labels[id],
			Operations: rr.Operations,
			Size:       rr.Store.Size(),
			Items:      rr.Store.Len(),
			Consistent: rr.OK(),
			Mismatches: rr.Mismatches,
			Dump:       rr.Store.Dump(),
		}
		if !sr.Consistent {
			result.AllConsistent = false
		}
		result.Sessions = append(result.Sessions, sr)
	}
	result.TotalSessions = len(result.Sessions)

	if err := out.Success(result); err != nil {
		return err
	}
	if !result.AllConsistent {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}
