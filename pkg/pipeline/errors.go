package pipeline

import (
	"fmt"
	"strings"
)

// DuplicateStepError indicates two declarations share a name.
type DuplicateStepError struct {
	Name string
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("duplicate step name %q", e.Name)
}

// DuplicateOutputError indicates two steps declared pattern-identical output
// glob sets. Fatal before any execution.
type DuplicateOutputError struct {
	StepA, StepB string
}

func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("steps %q and %q declare identical output patterns", e.StepA, e.StepB)
}

// CycleError indicates the declared inputs and outputs form a dependency
// cycle. Fatal before any execution.
type CycleError struct {
	Steps []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic pipeline involving steps: %s", strings.Join(e.Steps, ", "))
}

// UnknownStepError indicates a requested target step does not exist.
type UnknownStepError struct {
	Name string
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("step %q not found in pipeline", e.Name)
}

// Build exit codes surfaced by the cs CLI.
const (
	ExitOK             = 0
	ExitUsage          = 64
	ExitStale          = 65
	ExitCommandFailed  = 66
	ExitSigningError   = 67
	ExitNoIdentity     = 68
	ExitOrderViolation = 69
)

// ExitError carries a process exit code alongside the underlying error so
// the CLI entrypoint can exit with it.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// Exit wraps err with an exit code.
func Exit(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}
