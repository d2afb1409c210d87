package pipeline

import (
	"github.com/composable-science/cli/pkg/artifact"
)

// Evaluator decides per-step freshness by resolving declared patterns
// through an artifact.Resolver.
type Evaluator struct {
	resolver *artifact.Resolver
}

// NewEvaluator creates an Evaluator over the given resolver.
func NewEvaluator(resolver *artifact.Resolver) *Evaluator {
	return &Evaluator{resolver: resolver}
}

// EvaluateStep computes the step's own status from its files alone, without
// graph propagation:
//
//  1. any output pattern resolving to zero files -> missing
//  2. any output strictly older than any input  -> stale
//  3. otherwise                                 -> up-to-date
//
// An input pattern matching nothing also yields stale: the step must run,
// and execution will fail hard if the inputs still do not exist then.
func (e *Evaluator) EvaluateStep(step StepDeclaration) (StepStatus, error) {
	for _, out := range step.OutputPatterns {
		matches, err := out.Expand(e.resolver.FS())
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			return StatusMissing, nil
		}
	}

	for _, in := range step.InputPatterns {
		matches, err := in.Expand(e.resolver.FS())
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			return StatusStale, nil
		}
	}

	inputs, err := e.resolver.ResolveInputs(step.InputPatterns)
	if err != nil {
		return "", err
	}

	outputs, err := e.resolver.ResolveOutputs(step.OutputPatterns)
	if err != nil {
		return "", err
	}

	for _, out := range outputs {
		for _, in := range inputs {
			if out.ModTime.Before(in.ModTime) {
				return StatusStale, nil
			}
		}
	}

	return StatusUpToDate, nil
}

// Evaluate computes the effective status of every step in the graph,
// propagating staleness forward: a step whose upstream dependency is stale
// or missing is itself stale regardless of its own file timestamps.
func (e *Evaluator) Evaluate(g *Graph) (map[string]StepStatus, error) {
	statuses := make(map[string]StepStatus, len(g.Steps()))

	for _, name := range g.Order() {
		step, _ := g.Step(name)

		own, err := e.EvaluateStep(step)
		if err != nil {
			return nil, err
		}

		effective := own
		if effective == StatusUpToDate {
			for _, parent := range g.Parents(name) {
				if statuses[parent].NeedsRun() {
					effective = StatusStale
					break
				}
			}
		}

		statuses[name] = effective
	}

	return statuses, nil
}
