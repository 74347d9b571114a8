package harness

// Step kinds recorded in the trace.
const (
	StepConvert = "convert"
	StepSwap    = "swap"
	StepQuery   = "query"
	StepClear   = "clear"
)

// CaseOK is the outcome of a step that returned no error.
const CaseOK = "ok"

// TraceEvent records the outcome of one flow step.
type TraceEvent struct {
	Seq       int    `json:"seq"`
	Step      string `json:"step"`
	Input     string `json:"input,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Field     string `json:"field,omitempty"`
	Case      string `json:"case"`
	Display   string `json:"display,omitempty"`
	HistoryID int64  `json:"history_id,omitempty"`
	Count     int    `json:"count,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addTrace appends ev with the next sequence number.
func (r *Result) addTrace(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}
