package harness

// StepResult records what one build step produced.
type StepResult struct {
	Name   string `json:"name"`
	SQL    string `json:"sql,omitempty"`
	Params []any  `json:"params,omitempty"`

	// IDs and Count are only filled when the scenario has a schema.
	IDs   []int64 `json:"ids,omitempty"`
	Count *int64  `json:"count,omitempty"`

	// Error is the build error code, or the error text when the error
	// carries no code.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause matched.
	Pass bool `json:"pass"`

	// Steps holds one entry per scenario step, in order.
	Steps []StepResult `json:"steps"`

	// Errors contains failed expectation messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step outcome.
func (r *Result) AddStep(s StepResult) {
	r.Steps = append(r.Steps, s)
}
