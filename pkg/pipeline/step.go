// Package pipeline builds the dependency graph over declared steps, decides
// which steps are stale, and executes the stale set in dependency order.
package pipeline

import (
	"github.com/composable-science/cli/pkg/artifact"
)

// StepDeclaration is one named unit of work as declared in the manifest.
// Declarations are immutable for the duration of a build.
type StepDeclaration struct {
	// Name uniquely identifies the step ([A-Za-z0-9_-]{1,32}).
	Name string

	// Command is the opaque shell command handed to the command runner.
	Command string

	// InputPatterns are the declared input globs, in manifest order.
	InputPatterns []artifact.Pattern

	// OutputPatterns are the declared output globs, in manifest order.
	OutputPatterns []artifact.Pattern

	// Env is merged over the process environment when the step runs.
	Env map[string]string
}

// StepStatus is the derived freshness of a step. Recomputed every build and
// never persisted.
type StepStatus string

const (
	// StatusUpToDate means every output is newer than every input and no
	// upstream step needs rebuilding.
	StatusUpToDate StepStatus = "up-to-date"

	// StatusStale means an input is newer than an output, or an upstream
	// dependency is stale or missing.
	StatusStale StepStatus = "stale"

	// StatusMissing means a declared output pattern resolves to zero files.
	StatusMissing StepStatus = "missing"

	// StatusFailed means the step's command exited non-zero this build.
	StatusFailed StepStatus = "failed"
)

// NeedsRun reports whether a step with this status must be executed.
func (s StepStatus) NeedsRun() bool {
	return s == StatusStale || s == StatusMissing || s == StatusFailed
}
