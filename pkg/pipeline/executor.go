package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/composable-science/cli/pkg/artifact"
	"github.com/composable-science/cli/pkg/logger"
)

const defaultWorkers uint = 4

// ExecutorConfig wires an Executor.
type ExecutorConfig struct {
	Graph     *Graph
	Runner    CommandRunner
	Resolver  *artifact.Resolver
	Evaluator *Evaluator

	// Workers bounds the number of steps executing concurrently.
	// Defaults to 4.
	Workers uint

	// Logger receives per-step progress. Defaults to a nop logger.
	Logger *slog.Logger
}

// Executor walks the dependency graph in topological order, running the
// minimal stale set for a requested target on a bounded worker pool.
// Steps joined by an edge are strictly serialized: a consumer becomes
// eligible only once every selected upstream step has completed successfully.
type Executor struct {
	graph     *Graph
	runner    CommandRunner
	resolver  *artifact.Resolver
	evaluator *Evaluator
	workers   uint
	log       *slog.Logger
}

// NewExecutor validates the config and creates an Executor.
func NewExecutor(c *ExecutorConfig) (*Executor, error) {
	if c.Graph == nil {
		return nil, fmt.Errorf("nil graph")
	}
	if c.Runner == nil {
		return nil, fmt.Errorf("nil command runner")
	}
	if c.Resolver == nil {
		return nil, fmt.Errorf("nil resolver")
	}

	workers := c.Workers
	if workers == 0 {
		workers = defaultWorkers
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	evaluator := c.Evaluator
	if evaluator == nil {
		evaluator = NewEvaluator(c.Resolver)
	}

	return &Executor{
		graph:     c.Graph,
		runner:    c.Runner,
		resolver:  c.Resolver,
		evaluator: evaluator,
		workers:   workers,
		log:       log,
	}, nil
}

// Plan computes the target closure and the effective status of every step in
// it, without side effects. The returned selection is the subset that would
// run: statuses other than up-to-date, or the full closure under force.
func (e *Executor) Plan(target string, force bool) (selected []string, statuses map[string]StepStatus, err error) {
	statuses, err = e.evaluator.Evaluate(e.graph)
	if err != nil {
		return nil, nil, err
	}

	closure, err := e.graph.Closure(target)
	if err != nil {
		return nil, nil, err
	}

	for _, name := range closure {
		if force || statuses[name].NeedsRun() {
			selected = append(selected, name)
		}
	}
	return selected, statuses, nil
}

// Run executes the plan for target. A failing step halts the build: its
// downstream steps are never started and in-flight independent steps are
// cancelled. Outcomes cover the full closure in topological order, including
// up-to-date steps that did not run.
func (e *Executor) Run(ctx context.Context, target string, force bool) (*BuildResult, error) {
	selected, statuses, err := e.Plan(target, force)
	if err != nil {
		return nil, err
	}

	closure, err := e.graph.Closure(target)
	if err != nil {
		return nil, err
	}

	outcomes := make(map[string]StepOutcome, len(closure))
	for _, name := range closure {
		outcomes[name] = StepOutcome{Step: name, Status: statuses[name]}
	}

	result := &BuildResult{Selected: len(selected)}
	if len(selected) > 0 {
		result.Failed = e.execute(ctx, selected, outcomes)
	}

	for _, name := range closure {
		result.Outcomes = append(result.Outcomes, outcomes[name])
	}

	return result, nil
}

// stepJob carries a step into the worker pool with the status it was
// selected under, so workers never touch the shared outcomes map.
type stepJob struct {
	name   string
	status StepStatus
}

type dispatchState struct {
	mu         sync.Mutex
	waiting    map[string]int // selected step -> unfinished selected parents
	started    map[string]bool
	failed     bool
	failedStep string // the step whose failure triggered the halt
	remaining  int
}

// execute runs the selected steps on the worker pool, honoring the graph's
// partial order and fail-fast semantics. Returns the name of the step whose
// failure halted the build, or "" when every selected step succeeded.
func (e *Executor) execute(ctx context.Context, selected []string, outcomes map[string]StepOutcome) string {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inSelection := make(map[string]bool, len(selected))
	for _, name := range selected {
		inSelection[name] = true
	}

	st := &dispatchState{
		waiting:   make(map[string]int, len(selected)),
		started:   make(map[string]bool, len(selected)),
		remaining: len(selected),
	}
	for _, name := range selected {
		n := 0
		for _, parent := range e.graph.Parents(name) {
			if inSelection[parent] {
				n++
			}
		}
		st.waiting[name] = n
	}

	jobs := make(chan stepJob, len(selected))
	results := make(chan StepOutcome, len(selected))

	var wg sync.WaitGroup
	wg.Add(int(e.workers))
	for i := uint(0); i < e.workers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- e.runStep(ctx, job.name, job.status)
			}
		}()
	}

	dispatchReady := func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.failed {
			return
		}
		// Selected steps are scanned in topological order so ties between
		// independent steps keep declaration order. The evaluated status is
		// read here, under the lock, and travels with the job.
		for _, name := range selected {
			if !st.started[name] && st.waiting[name] == 0 {
				st.started[name] = true
				jobs <- stepJob{name: name, status: outcomes[name].Status}
			}
		}
	}

	dispatchReady()

	for done := 0; done < len(selected); {
		outcome := <-results
		done++

		st.mu.Lock()
		st.remaining--
		outcomes[outcome.Step] = outcome

		if outcome.Status == StatusFailed {
			if !st.failed {
				st.failed = true
				st.failedStep = outcome.Step
				cancel()
			}
			st.mu.Unlock()

			// Steps that never started are skipped, keeping their
			// evaluated status for the next run.
			e.markSkipped(selected, st, outcomes)

			// Let in-flight steps drain. These may also come back failed
			// after the cancel, but the halt is attributed to the step
			// observed first.
			remaining := e.inFlight(st)
			for i := 0; i < remaining; i++ {
				o := <-results
				done++
				st.mu.Lock()
				outcomes[o.Step] = o
				st.mu.Unlock()
			}
			break
		}

		for _, child := range e.graph.Children(outcome.Step) {
			if inSelection[child] {
				st.waiting[child]--
			}
		}
		st.mu.Unlock()

		dispatchReady()
	}

	close(jobs)
	wg.Wait()

	return st.failedStep
}

func (e *Executor) markSkipped(selected []string, st *dispatchState, outcomes map[string]StepOutcome) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, name := range selected {
		if !st.started[name] {
			st.started[name] = true
			o := outcomes[name]
			o.Skipped = true
			outcomes[name] = o
			st.remaining--
		}
	}
}

func (e *Executor) inFlight(st *dispatchState) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.remaining
}

// runStep validates inputs, invokes the command runner, and validates that
// the declared outputs now exist.
func (e *Executor) runStep(ctx context.Context, name string, evaluated StepStatus) StepOutcome {
	step, _ := e.graph.Step(name)
	outcome := StepOutcome{Step: name, Status: evaluated, Ran: true}

	// Inputs must resolve at execution time; a soft graph-build warning
	// hardens into a failure here.
	if _, err := e.resolver.ResolveInputs(step.InputPatterns); err != nil {
		e.log.Error("step inputs unresolved", "step", name, "error", err)
		outcome.Status = StatusFailed
		outcome.ExitCode = ExitOrderViolation
		outcome.Err = err.Error()
		return outcome
	}

	e.log.Info("building step", "step", name, "command", step.Command)

	result, err := e.runner.Run(ctx, step)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.ExitCode = ExitCommandFailed
		outcome.Err = err.Error()
		return outcome
	}

	outcome.ExitCode = result.ExitCode
	outcome.Duration = result.Duration
	outcome.Stdout = string(result.Stdout)
	outcome.Stderr = string(result.Stderr)

	if result.ExitCode != 0 {
		e.log.Error("step failed", "step", name, "exit_code", result.ExitCode)
		outcome.Status = StatusFailed
		return outcome
	}

	for _, out := range step.OutputPatterns {
		matches, err := out.Expand(e.resolver.FS())
		if err != nil || len(matches) == 0 {
			e.log.Error("step did not create declared output", "step", name, "pattern", out)
			outcome.Status = StatusFailed
			outcome.ExitCode = ExitCommandFailed
			outcome.Err = fmt.Sprintf("step %q did not create expected outputs: %s", name, out)
			return outcome
		}
	}

	e.log.Info("step completed", "step", name, "duration", result.Duration)
	outcome.Status = StatusUpToDate
	return outcome
}
