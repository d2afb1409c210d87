package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ProvenanceEnvVar tells step commands where to write their optional
// fine-grained provenance record.
const ProvenanceEnvVar = "CS_PROVENANCE_OUTPUT"

// RunResult is the captured outcome of one command invocation.
type RunResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// CommandRunner invokes a step's command. The reproducible-environment
// provider sits behind this interface; the engine only sees exit status and
// streamed output. A non-nil error means the process could not be started
// or was torn down abnormally, not that the command exited non-zero.
type CommandRunner interface {
	Run(ctx context.Context, step StepDeclaration) (*RunResult, error)
}

// ShellRunner executes step commands through the shell in a fixed working
// directory, merging the step's env over the process environment.
type ShellRunner struct {
	// Dir is the working directory for every command (the project root).
	Dir string

	// BaseEnv is merged under each step's env, after the process
	// environment. The manifest's [build.env] table lands here.
	BaseEnv map[string]string

	// ProvenanceDir, when set, is exported to each command as the directory
	// for its CS_PROVENANCE_OUTPUT file.
	ProvenanceDir string
}

// Run executes the step's command via `sh -c`. Context cancellation kills
// the subprocess.
func (r *ShellRunner) Run(ctx context.Context, step StepDeclaration) (*RunResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", step.Command)
	cmd.Dir = r.Dir

	env := os.Environ()
	for k, v := range r.BaseEnv {
		env = append(env, k+"="+v)
	}
	for k, v := range step.Env {
		env = append(env, k+"="+v)
	}
	if r.ProvenanceDir != "" {
		env = append(env, fmt.Sprintf("%s=%s", ProvenanceEnvVar, ProvenancePath(r.ProvenanceDir, step.Name)))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := &RunResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: elapsed,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("running step %q: %w", step.Name, err)
	}

	return result, nil
}

// ProvenancePath returns the conventional provenance file path for a step.
func ProvenancePath(outputsDir, stepName string) string {
	return filepath.Join(outputsDir, stepName+"_provenance.json")
}
