package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jjazzboss/JJazzLab-sub029/internal/ids"
	"github.com/jjazzboss/JJazzLab-sub029/internal/journal"
	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
	"github.com/jjazzboss/JJazzLab-sub029/internal/undo"
)

// Option configures a scenario run.
type Option func(*runner)

// WithFactory sets the Factory building the initial leadsheet.
func WithFactory(f *leadsheet.Factory) Option {
	return func(r *runner) {
		r.factory = f
	}
}

// WithLogger sets the logger. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		r.logger = l
	}
}

// WithJournal records the run as a journal session labelled with the
// scenario name.
func WithJournal(j *journal.Journal) Option {
	return func(r *runner) {
		r.journal = j
	}
}

// runner holds the state of one scenario execution.
type runner struct {
	factory *leadsheet.Factory
	logger  *slog.Logger
	journal *journal.Journal

	store   *leadsheet.Store
	undo    *undo.Manager
	gate    *gate
	session *journal.Session
	tap     *tap
}

// gate vetoes every proposed event while reason is set.
type gate struct {
	reason string
}

func (g *gate) Authorize(leadsheet.Event) leadsheet.Verdict {
	if g.reason != "" {
		return leadsheet.Veto(g.reason)
	}
	return leadsheet.Allow()
}

func (*gate) Changed(leadsheet.Event) {}

// tap collects committed events for the trace.
type tap struct {
	events []leadsheet.Event
}

func (*tap) Authorize(leadsheet.Event) leadsheet.Verdict { return leadsheet.Allow() }

func (t *tap) Changed(ev leadsheet.Event) {
	t.events = append(t.events, ev)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Build the initial leadsheet
// 2. Register the undo manager, the veto gate and the trace tap
// 3. Apply every step, checking its expected outcome
// 4. Evaluate assertions (and the undo stress round trips when requested)
//
// The returned error reports a scenario that could not be executed at all;
// failed expectations are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	r := &runner{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		r.factory = leadsheet.NewFactory(leadsheet.WithLogger(r.logger))
	}

	ts := music.FourFour
	if scenario.Leadsheet.TimeSignature != "" {
		var err error
		if ts, err = music.ParseTimeSignature(scenario.Leadsheet.TimeSignature); err != nil {
			return nil, fmt.Errorf("leadsheet: %w", err)
		}
	}
	store, err := r.factory.New(scenario.Leadsheet.Section, ts, scenario.Leadsheet.Size)
	if err != nil {
		return nil, fmt.Errorf("leadsheet: %w", err)
	}
	r.store = store
	r.undo = undo.New(store,
		undo.WithLogger(r.logger),
		undo.WithIDGenerator(ids.NewSequenceGenerator(scenario.Name)))
	defer r.undo.Close()
	r.gate = &gate{}
	r.tap = &tap{}
	store.AddChangeListener(r.gate)
	store.AddChangeListener(r.tap)

	if r.journal != nil {
		r.session, err = r.journal.Attach(context.Background(), store, scenario.Name)
		if err != nil {
			return nil, err
		}
		defer r.session.Close()
	}

	result := NewResult()
	initial := store.Copy()

	for i, step := range scenario.Steps {
		if err := r.executeStep(i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}

	for _, errMsg := range EvaluateAssertions(store, scenario.Assertions) {
		result.AddError(errMsg)
	}
	result.Final = store.Copy()
	if scenario.UndoStress {
		if err := UndoStress(store, r.undo, initial); err != nil {
			result.AddError(err.Error())
		}
	}
	if r.session != nil {
		if err := r.session.Close(); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	return result, nil
}

// executeStep runs one step and records it in the trace.
func (r *runner) executeStep(i int, step Step, result *Result) error {
	r.tap.events = nil
	applied, err := r.apply(step)

	ev := TraceEvent{Step: i + 1, Op: step.Op}
	switch {
	case err == nil && applied:
		ev.Outcome = OutcomeApplied
	case err == nil:
		ev.Outcome = OutcomeRejected
	case leadsheet.IsVeto(err):
		ev.Outcome, ev.Detail = OutcomeVetoed, err.Error()
	case errors.Is(err, leadsheet.ErrInvalidArgument), errors.Is(err, errBadStep):
		ev.Outcome, ev.Detail = OutcomeInvalid, err.Error()
	case isUndoRejection(err):
		ev.Outcome, ev.Detail = OutcomeRejected, err.Error()
	default:
		return err
	}
	for _, e := range r.tap.events {
		ev.Operation = e.Operation()
		ev.Events = append(ev.Events, leadsheet.Describe(e))
	}
	result.Trace = append(result.Trace, ev)

	want := step.Expect
	if want == "" {
		want = OutcomeApplied
	}
	if ev.Outcome != want {
		msg := fmt.Sprintf("step %d (%s): expected %s, got %s", ev.Step, step.Op, want, ev.Outcome)
		if ev.Detail != "" {
			msg += ": " + ev.Detail
		}
		result.AddError(msg)
	}

	r.logger.Debug("scenario step executed",
		"step", ev.Step,
		"op", step.Op,
		"outcome", ev.Outcome,
		"events", len(ev.Events),
	)
	return nil
}

func isUndoRejection(err error) bool {
	return errors.Is(err, undo.ErrNothingToUndo) ||
		errors.Is(err, undo.ErrNothingToRedo) ||
		errors.Is(err, undo.ErrEditOpen) ||
		errors.Is(err, undo.ErrNoOpenEdit)
}

// errBadStep marks step arguments that cannot even be turned into a call.
var errBadStep = errors.New("bad step")

// apply performs the step against the store. Operations returning only an
// error count as applied when they succeed.
func (r *runner) apply(st Step) (bool, error) {
	s := r.store
	switch st.Op {
	case OpAddItem:
		it, err := stepItem(st)
		if err != nil {
			return false, err
		}
		_, ok, err := s.AddItem(it)
		return ok, err

	case OpRemoveItem:
		it, err := stepItem(st)
		if err != nil {
			return false, err
		}
		return s.RemoveItem(it)

	case OpMoveItem:
		it, err := stepItem(st)
		if err != nil {
			return false, err
		}
		to, err := ParsePosition(st.To)
		if err != nil {
			return false, err
		}
		return s.MoveItem(it, to)

	case OpChangeItem:
		it, err := stepItem(st)
		if err != nil {
			return false, err
		}
		p, err := leadsheet.ParsePayload(it.Kind(), st.New)
		if err != nil {
			return false, err
		}
		return s.ChangeItem(it, p)

	case OpAddSection:
		ts, err := stepTimeSignature(st.TimeSignature)
		if err != nil {
			return false, err
		}
		_, ok, err := s.AddSection(leadsheet.NewSection(st.Name, ts, st.Bar))
		return ok, err

	case OpRemoveSection:
		return s.RemoveSection(r.section(st.Section))

	case OpSetSectionName:
		return s.SetSectionName(r.section(st.Section), st.Name)

	case OpSetSectionTimeSignature:
		ts, err := stepTimeSignature(st.TimeSignature)
		if err != nil {
			return false, err
		}
		return s.SetSectionTimeSignature(r.section(st.Section), ts)

	case OpMoveSection:
		return s.MoveSection(r.section(st.Section), st.Bar)

	case OpInsertBars:
		return true, s.InsertBars(st.Bar, st.Count)

	case OpDeleteBars:
		return true, s.DeleteBars(st.From, st.Through)

	case OpSetSize:
		return true, s.SetSize(st.Size)

	case OpBeginEdit:
		_, err := r.undo.BeginEdit(st.Name)
		return true, err

	case OpEndEdit:
		return true, r.undo.EndEdit()

	case OpUndo:
		return true, r.undo.Undo()

	case OpRedo:
		return true, r.undo.Redo()

	case OpVeto:
		r.gate.reason = st.Reason
		return true, nil

	case OpAllow:
		r.gate.reason = ""
		return true, nil
	}
	return false, fmt.Errorf("%w: unknown op %q", errBadStep, st.Op)
}

// section resolves a section by name. An unknown name yields a Section
// snapshot the store does not hold, so the call is rejected by the store.
func (r *runner) section(name string) leadsheet.Section {
	if sec, ok := r.store.SectionByName(name); ok {
		return sec
	}
	return leadsheet.NewSection(name, music.FourFour, 0)
}

func stepItem(st Step) (leadsheet.OrdinaryItem, error) {
	pos, err := ParsePosition(st.At)
	if err != nil {
		return leadsheet.OrdinaryItem{}, err
	}
	var p leadsheet.Payload = leadsheet.ChordSymbol{Name: st.Chord}
	if st.Annotation != "" {
		p = leadsheet.Annotation{Text: st.Annotation}
	}
	return leadsheet.NewItem(pos, p), nil
}

func stepTimeSignature(s string) (music.TimeSignature, error) {
	if s == "" {
		return music.FourFour, nil
	}
	ts, err := music.ParseTimeSignature(s)
	if err != nil {
		return music.TimeSignature{}, fmt.Errorf("%w: %v", errBadStep, err)
	}
	return ts, nil
}

// ParsePosition parses "bar:beat", e.g. "3:2.5" or "0:7/2".
func ParsePosition(s string) (music.Position, error) {
	barText, beatText, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return music.Position{}, fmt.Errorf("%w: position %q is not bar:beat", errBadStep, s)
	}
	bar, err := strconv.Atoi(barText)
	if err != nil {
		return music.Position{}, fmt.Errorf("%w: position %q: bad bar", errBadStep, s)
	}
	beat, err := music.ParseBeat(beatText)
	if err != nil {
		return music.Position{}, fmt.Errorf("%w: position %q: %v", errBadStep, s, err)
	}
	return music.At(bar, beat), nil
}

// UndoStress undoes every edit of m, checks the store equals initial, redoes
// every edit, checks the store is back to its state on entry, and undoes
// everything once more.
func UndoStress(s *leadsheet.Store, m *undo.Manager, initial *leadsheet.Store) error {
	final := s.Copy()
	undoAll := func(round string) error {
		for m.CanUndo() {
			if err := m.Undo(); err != nil {
				return fmt.Errorf("undo stress: %s: %w", round, err)
			}
		}
		if !s.Equal(initial) {
			return fmt.Errorf("undo stress: %s: leadsheet differs from the initial one:\n%s", round, s.Dump())
		}
		return nil
	}

	if err := undoAll("first undo"); err != nil {
		return err
	}
	for m.CanRedo() {
		if err := m.Redo(); err != nil {
			return fmt.Errorf("undo stress: redo: %w", err)
		}
	}
	if !s.Equal(final) {
		return fmt.Errorf("undo stress: redo: leadsheet differs from the final one:\n%s", s.Dump())
	}
	return undoAll("second undo")
}
