package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

var stepNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// ValidationError aggregates every problem found in a manifest so users can
// fix them in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest: %s", strings.Join(e.Problems, "; "))
}

// Validate checks the manifest against the schema rules:
//   - [package] must be present
//   - at least one [[pipeline]] step must exist
//   - every step needs name, cmd, inputs, and outputs
//   - step names are unique (case-insensitive) and match [A-Za-z0-9_-]{1,32}
//   - no output glob may be declared by more than one step
//
// Returns nil or a *ValidationError listing every violation.
func (m *Manifest) Validate() error {
	var problems []string

	if m.Package.Name == "" {
		problems = append(problems, "missing required [package] section")
	}

	if len(m.Pipeline) == 0 {
		problems = append(problems, "at least one [[pipeline]] step must exist")
		return &ValidationError{Problems: problems}
	}

	names := make(map[string]struct{}, len(m.Pipeline))
	outputs := make(map[string]string)

	for i, step := range m.Pipeline {
		if step.Name == "" {
			problems = append(problems, fmt.Sprintf("pipeline step %d: missing required field 'name'", i))
		}
		if step.Cmd == "" {
			problems = append(problems, fmt.Sprintf("pipeline step %d: missing required field 'cmd'", i))
		}
		if len(step.Inputs) == 0 {
			problems = append(problems, fmt.Sprintf("pipeline step %d: missing required field 'inputs'", i))
		}
		if len(step.Outputs) == 0 {
			problems = append(problems, fmt.Sprintf("pipeline step %d: missing required field 'outputs'", i))
		}

		if step.Name != "" {
			lower := strings.ToLower(step.Name)
			if _, dup := names[lower]; dup {
				problems = append(problems, fmt.Sprintf("duplicate step name: %s", step.Name))
			}
			names[lower] = struct{}{}

			if !stepNamePattern.MatchString(step.Name) {
				problems = append(problems, fmt.Sprintf("invalid step name %q: must be 1-32 chars matching [A-Za-z0-9_-]", step.Name))
			}
		}

		for _, out := range step.Outputs {
			if prev, dup := outputs[out]; dup {
				problems = append(problems, fmt.Sprintf("duplicate output declaration %q (steps %q and %q)", out, prev, step.Name))
				continue
			}
			outputs[out] = step.Name
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
