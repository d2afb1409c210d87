package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"testing/fstest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/composable-science/cli/pkg/artifact"
	"github.com/composable-science/cli/pkg/pipeline"
)

// fakeRunner records invocations and returns scripted exit codes
// instead of shelling out.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	exits map[string]int
	errs  map[string]error
}

func (f *fakeRunner) Run(_ context.Context, step pipeline.StepDeclaration) (*pipeline.RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, step.Name)
	f.mu.Unlock()
	if err := f.errs[step.Name]; err != nil {
		return nil, err
	}
	return &pipeline.RunResult{ExitCode: f.exits[step.Name]}, nil
}

func (f *fakeRunner) ran() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// sequencedRunner holds "slow" until cancellation and fails "bad" only
// after "slow" is in flight, forcing the halt to race a cancelled step.
type sequencedRunner struct {
	slowStarted chan struct{}
}

func (r *sequencedRunner) Run(ctx context.Context, step pipeline.StepDeclaration) (*pipeline.RunResult, error) {
	switch step.Name {
	case "slow":
		close(r.slowStarted)
		<-ctx.Done()
		return nil, ctx.Err()
	case "bad":
		<-r.slowStarted
		return &pipeline.RunResult{ExitCode: 1}, nil
	default:
		return &pipeline.RunResult{}, nil
	}
}

// staleTree is freshTree with every output older than every input, so
// each step needs a run while its outputs still satisfy the post-run
// existence check.
func staleTree() fstest.MapFS {
	fsys := freshTree()
	for _, out := range []string{"data/sample.csv", "figures/plot1.png", "figures/plot2.png", "paper.pdf"} {
		fsys[out] = mapFile(24 * time.Hour)
	}
	return fsys
}

func newExecutor(fsys fstest.MapFS, steps []pipeline.StepDeclaration, runner pipeline.CommandRunner) *pipeline.Executor {
	return newExecutorWorkers(fsys, steps, runner, 0)
}

func newExecutorWorkers(fsys fstest.MapFS, steps []pipeline.StepDeclaration, runner pipeline.CommandRunner, workers uint) *pipeline.Executor {
	g, err := pipeline.BuildGraph(steps)
	Expect(err).NotTo(HaveOccurred())

	exec, err := pipeline.NewExecutor(&pipeline.ExecutorConfig{
		Graph:    g,
		Runner:   runner,
		Resolver: artifact.NewResolver(fsys),
		Workers:  workers,
	})
	Expect(err).NotTo(HaveOccurred())
	return exec
}

var _ = Describe("Executor", func() {
	It("runs stale steps in dependency order", func() {
		runner := &fakeRunner{}
		exec := newExecutor(staleTree(), paperSteps(), runner)

		result, err := exec.Run(context.Background(), "", false)
		Expect(err).NotTo(HaveOccurred())

		Expect(runner.ran()).To(Equal([]string{"data", "figures", "paper"}))
		Expect(result.Ok()).To(BeTrue())
		Expect(result.ExitCode()).To(Equal(pipeline.ExitOK))

		for _, name := range []string{"data", "figures", "paper"} {
			outcome, ok := result.Outcome(name)
			Expect(ok).To(BeTrue())
			Expect(outcome.Ran).To(BeTrue())
			Expect(outcome.Status).To(Equal(pipeline.StatusUpToDate))
		}
	})

	It("runs nothing when everything is up-to-date", func() {
		runner := &fakeRunner{}
		exec := newExecutor(freshTree(), paperSteps(), runner)

		result, err := exec.Run(context.Background(), "", false)
		Expect(err).NotTo(HaveOccurred())

		Expect(runner.ran()).To(BeEmpty())
		Expect(result.Ok()).To(BeTrue())
		Expect(result.Selected).To(BeZero())
	})

	It("rebuilds only the stale suffix of the pipeline", func() {
		fsys := freshTree()
		// figures outputs predate their inputs; data stays fresh.
		fsys["figures/plot1.png"] = mapFile(24 * time.Hour)
		fsys["figures/plot2.png"] = mapFile(24 * time.Hour)
		fsys["paper.pdf"] = mapFile(24 * time.Hour)

		runner := &fakeRunner{}
		exec := newExecutor(fsys, paperSteps(), runner)

		result, err := exec.Run(context.Background(), "", false)
		Expect(err).NotTo(HaveOccurred())

		Expect(runner.ran()).To(Equal([]string{"figures", "paper"}))

		outcome, _ := result.Outcome("data")
		Expect(outcome.Ran).To(BeFalse())
		Expect(outcome.Status).To(Equal(pipeline.StatusUpToDate))
	})

	It("runs everything when forced", func() {
		runner := &fakeRunner{}
		exec := newExecutor(freshTree(), paperSteps(), runner)

		result, err := exec.Run(context.Background(), "", true)
		Expect(err).NotTo(HaveOccurred())

		Expect(runner.ran()).To(Equal([]string{"data", "figures", "paper"}))
		Expect(result.Ok()).To(BeTrue())
	})

	It("limits execution to the target's closure", func() {
		runner := &fakeRunner{}
		exec := newExecutor(staleTree(), paperSteps(), runner)

		result, err := exec.Run(context.Background(), "figures", false)
		Expect(err).NotTo(HaveOccurred())

		Expect(runner.ran()).To(Equal([]string{"data", "figures"}))
		outcome, _ := result.Outcome("paper")
		Expect(outcome.Ran).To(BeFalse())
	})

	It("fails fast and skips downstream steps", func() {
		runner := &fakeRunner{exits: map[string]int{"figures": 1}}
		exec := newExecutor(staleTree(), paperSteps(), runner)

		result, err := exec.Run(context.Background(), "", false)
		Expect(err).NotTo(HaveOccurred())

		Expect(runner.ran()).To(Equal([]string{"data", "figures"}))
		Expect(result.Failed).To(Equal("figures"))
		Expect(result.ExitCode()).To(Equal(pipeline.ExitCommandFailed))

		figures, _ := result.Outcome("figures")
		Expect(figures.Status).To(Equal(pipeline.StatusFailed))
		Expect(figures.ExitCode).To(Equal(1))

		paper, _ := result.Outcome("paper")
		Expect(paper.Skipped).To(BeTrue())
		Expect(paper.Ran).To(BeFalse())
	})

	It("fails a step whose inputs resolve to nothing at execution time", func() {
		fsys := fstest.MapFS{
			"data/out.csv": mapFile(24 * time.Hour),
		}
		steps := []pipeline.StepDeclaration{
			declare("data", "true", []string{"missing/*.csv"}, []string{"data/out.csv"}),
		}
		runner := &fakeRunner{}
		exec := newExecutor(fsys, steps, runner)

		result, err := exec.Run(context.Background(), "", false)
		Expect(err).NotTo(HaveOccurred())

		Expect(runner.ran()).To(BeEmpty())
		Expect(result.Failed).To(Equal("data"))
		Expect(result.ExitCode()).To(Equal(pipeline.ExitOrderViolation))
	})

	It("runs many independent steps on parallel workers without corruption", func() {
		fsys := fstest.MapFS{}
		var steps []pipeline.StepDeclaration
		for i := 0; i < 16; i++ {
			in := fmt.Sprintf("in%02d.txt", i)
			out := fmt.Sprintf("out%02d.txt", i)
			fsys[in] = mapFile(0)
			fsys[out] = mapFile(24 * time.Hour)
			steps = append(steps, declare(fmt.Sprintf("step%02d", i), "true", []string{in}, []string{out}))
		}

		// Repeated runs so worker/dispatcher interleavings vary.
		for run := 0; run < 20; run++ {
			runner := &fakeRunner{}
			exec := newExecutorWorkers(fsys, steps, runner, 8)

			result, err := exec.Run(context.Background(), "", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Ok()).To(BeTrue())
			Expect(runner.ran()).To(HaveLen(16))
			for _, outcome := range result.Outcomes {
				Expect(outcome.Ran).To(BeTrue())
				Expect(outcome.Status).To(Equal(pipeline.StatusUpToDate))
			}
		}
	})

	It("attributes the halt to the step that failed, not a cancelled one", func() {
		// "slow" is declared first, so it precedes "bad" in build order,
		// but "bad" is the one that actually fails; "slow" is only torn
		// down by the fail-fast cancel.
		fsys := fstest.MapFS{
			"slow.in":  mapFile(0),
			"slow.out": mapFile(24 * time.Hour),
			"bad.in":   mapFile(0),
			"bad.out":  mapFile(24 * time.Hour),
		}
		steps := []pipeline.StepDeclaration{
			declare("slow", "sleep", []string{"slow.in"}, []string{"slow.out"}),
			declare("bad", "false", []string{"bad.in"}, []string{"bad.out"}),
		}

		runner := &sequencedRunner{slowStarted: make(chan struct{})}
		exec := newExecutorWorkers(fsys, steps, runner, 2)

		result, err := exec.Run(context.Background(), "", false)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Failed).To(Equal("bad"))
		Expect(result.ExitCode()).To(Equal(pipeline.ExitCommandFailed))

		slow, _ := result.Outcome("slow")
		Expect(slow.Status).To(Equal(pipeline.StatusFailed))
	})

	It("fails a step that does not create its declared outputs", func() {
		fsys := fstest.MapFS{
			"src.txt": mapFile(time.Hour),
		}
		steps := []pipeline.StepDeclaration{
			declare("gen", "true", []string{"src.txt"}, []string{"out/*.csv"}),
		}
		runner := &fakeRunner{}
		exec := newExecutor(fsys, steps, runner)

		result, err := exec.Run(context.Background(), "", false)
		Expect(err).NotTo(HaveOccurred())

		Expect(runner.ran()).To(Equal([]string{"gen"}))
		Expect(result.Failed).To(Equal("gen"))
		Expect(result.ExitCode()).To(Equal(pipeline.ExitCommandFailed))

		outcome, _ := result.Outcome("gen")
		Expect(outcome.Err).To(ContainSubstring("did not create expected outputs"))
	})
})

var _ = Describe("Plan", func() {
	It("reports statuses without running anything", func() {
		runner := &fakeRunner{}
		exec := newExecutor(staleTree(), paperSteps(), runner)

		selected, statuses, err := exec.Plan("", false)
		Expect(err).NotTo(HaveOccurred())

		Expect(selected).To(Equal([]string{"data", "figures", "paper"}))
		Expect(statuses["data"]).To(Equal(pipeline.StatusStale))
		Expect(runner.ran()).To(BeEmpty())
	})
})
