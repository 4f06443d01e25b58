package harness

import "github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Outcome string `json:"outcome"`

	// Operation is the committed store operation, when there is one.
	Operation leadsheet.Operation `json:"operation"`

	// Events are the committed events in Describe form.
	Events []string `json:"events,omitempty"`

	// Detail is the error text for invalid and vetoed steps.
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every step had its expected outcome, every
	// assertion held and the undo stress check (if requested) succeeded.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors lists every failed expectation, in order.
	Errors []string `json:"errors,omitempty"`

	// Final is a copy of the leadsheet after the last step.
	Final *leadsheet.Store `json:"-"`
}

// NewResult returns an empty passing Result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records a failed expectation.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}
