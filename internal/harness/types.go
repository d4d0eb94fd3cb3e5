package harness

import "github.com/N-Bhageeratha/OLP/internal/domain"

// OutcomeOK is the outcome of a step that returned no error.
const OutcomeOK = "ok"

// TraceEvent records one executed flow step.
type TraceEvent struct {
	Seq     int            `json:"seq"`
	Action  string         `json:"action"`
	Outcome string         `json:"outcome"` // "ok" or a domain error code
	Result  map[string]any `json:"result,omitempty"`
}

// State is a compact view of every collection after the flow.
type State struct {
	Session  string          `json:"session"`
	Users    []UserState     `json:"users"`
	Courses  []CourseState   `json:"courses"`
	Progress []ProgressState `json:"progress"`
}

type UserState struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	Enrolled []string    `json:"enrolled"`
}

type CourseState struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Instructor string   `json:"instructor"`
	Lessons    int      `json:"lessons"`
	Students   []string `json:"students"`
}

type ProgressState struct {
	User      string   `json:"user"`
	Course    string   `json:"course"`
	Completed []string `json:"completed"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause, invariant check and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the store contents after the flow.
	State State `json:"state"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
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

// AddTrace appends a trace event with the next sequence number.
func (r *Result) AddTrace(action, outcome string, result map[string]any) TraceEvent {
	ev := TraceEvent{
		Seq:     len(r.Trace) + 1,
		Action:  action,
		Outcome: outcome,
		Result:  result,
	}
	r.Trace = append(r.Trace, ev)
	return ev
}
