package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
)

// AssertionError is returned when an assertion fails.
// It includes the final leadsheet to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Dump     string // Final leadsheet
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Dump != "" {
		fmt.Fprintf(&buf, "\nLeadsheet:\n")
		for _, line := range strings.Split(strings.TrimRight(e.Dump, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against s and returns the
// failure messages.
func EvaluateAssertions(s *leadsheet.Store, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(s, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(s *leadsheet.Store, a Assertion) error {
	switch a.Type {
	case AssertSize:
		return assertSize(s, a)
	case AssertItemCount:
		return assertItemCount(s, a)
	case AssertSectionAt:
		return assertSectionAt(s, a)
	case AssertItemsAtBar:
		return assertItemsAtBar(s, a)
	case AssertDump:
		return assertDump(s, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertSize(s *leadsheet.Store, a Assertion) error {
	if s.Size() != a.Value {
		return &AssertionError{
			Type:     AssertSize,
			Expected: fmt.Sprintf("%d bars", a.Value),
			Actual:   fmt.Sprintf("%d bars", s.Size()),
			Dump:     s.Dump(),
		}
	}
	return nil
}

func assertItemCount(s *leadsheet.Store, a Assertion) error {
	f := leadsheet.AllItems
	what := "items"
	if a.Kind != "" {
		f = leadsheet.OfKind(leadsheet.Kind(a.Kind))
		what = a.Kind + " items"
	}
	if n := len(s.Items(f)); n != a.Value {
		return &AssertionError{
			Type:     AssertItemCount,
			Expected: fmt.Sprintf("%d %s", a.Value, what),
			Actual:   fmt.Sprintf("%d %s", n, what),
			Dump:     s.Dump(),
		}
	}
	return nil
}

// assertSectionAt checks the section governing a bar. Name and
// TimeSignature are each checked only when set.
func assertSectionAt(s *leadsheet.Store, a Assertion) error {
	if a.Bar < 0 || a.Bar >= s.Size() {
		return &AssertionError{
			Type:     AssertSectionAt,
			Expected: fmt.Sprintf("bar %d inside the leadsheet", a.Bar),
			Actual:   fmt.Sprintf("%d bars", s.Size()),
		}
	}
	sec := s.SectionAt(a.Bar)
	if (a.Name != "" && sec.Name != a.Name) ||
		(a.TimeSignature != "" && sec.TimeSignature.String() != a.TimeSignature) {
		return &AssertionError{
			Type:     AssertSectionAt,
			Expected: fmt.Sprintf("bar %d governed by %s", a.Bar, describeSection(a.Name, a.TimeSignature)),
			Actual:   sec.String(),
			Dump:     s.Dump(),
		}
	}
	return nil
}

func describeSection(name, ts string) string {
	switch {
	case name == "":
		return "a " + ts + " section"
	case ts == "":
		return fmt.Sprintf("section %q", name)
	}
	return fmt.Sprintf("section %q %s", name, ts)
}

// assertItemsAtBar compares the ordinary items of a bar, in order, with
// their String form (e.g. `chord "Cm7" @1:3`).
func assertItemsAtBar(s *leadsheet.Store, a Assertion) error {
	var got []string
	if a.Bar >= 0 && a.Bar < s.Size() {
		for _, it := range s.ItemsInBars(a.Bar, a.Bar, leadsheet.OrdinaryOnly) {
			got = append(got, fmt.Sprint(it))
		}
	}
	if !slices.Equal(got, a.Items) {
		return &AssertionError{
			Type:     AssertItemsAtBar,
			Expected: fmt.Sprintf("bar %d holds %q", a.Bar, a.Items),
			Actual:   fmt.Sprintf("%q", got),
			Dump:     s.Dump(),
		}
	}
	return nil
}

func assertDump(s *leadsheet.Store, a Assertion) error {
	want := strings.TrimRight(a.Dump, "\n") + "\n"
	if got := s.Dump(); got != want {
		return &AssertionError{
			Type:     AssertDump,
			Expected: want,
			Actual:   got,
		}
	}
	return nil
}
