package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// FormatTrace renders a result as text: one line per step, its committed
// events indented below it, then the final leadsheet.
//
//	scenario reject_duplicate
//	1 add_item applied (AddItem #1)
//	  added chord "Cm7" @1:3
//	2 add_item rejected
//	final
//	size 8
//	...
func FormatTrace(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", name)
	for _, ev := range result.Trace {
		fmt.Fprintf(&b, "%d %s %s", ev.Step, ev.Op, ev.Outcome)
		if len(ev.Events) > 0 {
			fmt.Fprintf(&b, " (%s #%d)", ev.Operation.Name, ev.Operation.Seq)
		}
		b.WriteByte('\n')
		for _, e := range ev.Events {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	if result.Final != nil {
		b.WriteString("final\n")
		b.WriteString(result.Final.Dump())
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its trace against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, FormatTrace(scenarioName, result))
}
