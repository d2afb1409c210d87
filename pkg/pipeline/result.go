package pipeline

import "time"

// StepOutcome records what happened to one step during a build.
type StepOutcome struct {
	Step     string        `json:"step"`
	Status   StepStatus    `json:"status"`
	Ran      bool          `json:"ran"`
	Skipped  bool          `json:"skipped,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Err      string        `json:"error,omitempty"`
}

// BuildResult aggregates per-step outcomes for one build invocation, in
// topological order of the selected steps.
type BuildResult struct {
	Outcomes []StepOutcome `json:"outcomes"`

	// Selected is the number of steps chosen to run.
	Selected int `json:"selected"`

	// Failed names the step whose failure halted the build, if any.
	// In-flight steps cancelled by the halt are recorded as failed in
	// Outcomes but are never named here.
	Failed string `json:"failed,omitempty"`
}

// Ok reports whether every selected step completed successfully.
func (r *BuildResult) Ok() bool {
	return r.Failed == ""
}

// ExitCode maps the build result onto the CLI exit-code contract:
// 0 success, 66 command failure, 69 input pattern unmatched at execution.
func (r *BuildResult) ExitCode() int {
	if r.Failed == "" {
		return ExitOK
	}
	for _, o := range r.Outcomes {
		if o.Step == r.Failed && o.ExitCode == ExitOrderViolation {
			return ExitOrderViolation
		}
	}
	return ExitCommandFailed
}

// Outcome returns the outcome for the named step.
func (r *BuildResult) Outcome(step string) (StepOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Step == step {
			return o, true
		}
	}
	return StepOutcome{}, false
}
