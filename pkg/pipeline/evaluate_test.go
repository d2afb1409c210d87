package pipeline_test

import (
	"testing/fstest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/composable-science/cli/pkg/artifact"
	"github.com/composable-science/cli/pkg/pipeline"
)

func mapFile(age time.Duration) *fstest.MapFile {
	return &fstest.MapFile{
		Data:    []byte("content"),
		ModTime: time.Now().Add(-age),
	}
}

// freshTree lays out the paper pipeline with every output newer than
// its inputs.
func freshTree() fstest.MapFS {
	return fstest.MapFS{
		"scripts/gen.py":    mapFile(10 * time.Hour),
		"scripts/figs.py":   mapFile(10 * time.Hour),
		"paper.tex":         mapFile(10 * time.Hour),
		"data/sample.csv":   mapFile(3 * time.Hour),
		"figures/plot1.png": mapFile(2 * time.Hour),
		"figures/plot2.png": mapFile(2 * time.Hour),
		"paper.pdf":         mapFile(1 * time.Hour),
	}
}

var _ = Describe("EvaluateStep", func() {
	var fsys fstest.MapFS

	eval := func() *pipeline.Evaluator {
		return pipeline.NewEvaluator(artifact.NewResolver(fsys))
	}

	BeforeEach(func() {
		fsys = freshTree()
	})

	It("reports up-to-date when outputs are newer than inputs", func() {
		status, err := eval().EvaluateStep(paperSteps()[1])
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(pipeline.StatusUpToDate))
	})

	It("reports missing when an output pattern matches nothing", func() {
		delete(fsys, "figures/plot1.png")
		delete(fsys, "figures/plot2.png")

		status, err := eval().EvaluateStep(paperSteps()[1])
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(pipeline.StatusMissing))
	})

	It("reports stale when any input is newer than any output", func() {
		fsys["scripts/figs.py"] = mapFile(time.Minute)

		status, err := eval().EvaluateStep(paperSteps()[1])
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(pipeline.StatusStale))
	})

	It("reports stale when an input pattern matches nothing", func() {
		delete(fsys, "scripts/figs.py")

		status, err := eval().EvaluateStep(paperSteps()[1])
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(pipeline.StatusStale))
	})

	It("prefers missing over stale", func() {
		delete(fsys, "paper.pdf")
		fsys["figures/plot1.png"] = mapFile(time.Minute)

		status, err := eval().EvaluateStep(paperSteps()[2])
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(pipeline.StatusMissing))
	})
})

var _ = Describe("Evaluate", func() {
	It("leaves a fresh pipeline fully up-to-date", func() {
		g, err := pipeline.BuildGraph(paperSteps())
		Expect(err).NotTo(HaveOccurred())

		eval := pipeline.NewEvaluator(artifact.NewResolver(freshTree()))
		statuses, err := eval.Evaluate(g)
		Expect(err).NotTo(HaveOccurred())

		Expect(statuses).To(Equal(map[string]pipeline.StepStatus{
			"data":    pipeline.StatusUpToDate,
			"figures": pipeline.StatusUpToDate,
			"paper":   pipeline.StatusUpToDate,
		}))
	})

	It("propagates staleness to downstream steps", func() {
		fsys := freshTree()
		delete(fsys, "figures/plot1.png")
		delete(fsys, "figures/plot2.png")

		g, err := pipeline.BuildGraph(paperSteps())
		Expect(err).NotTo(HaveOccurred())

		eval := pipeline.NewEvaluator(artifact.NewResolver(fsys))
		statuses, err := eval.Evaluate(g)
		Expect(err).NotTo(HaveOccurred())

		Expect(statuses["data"]).To(Equal(pipeline.StatusUpToDate))
		Expect(statuses["figures"]).To(Equal(pipeline.StatusMissing))
		// paper's own outputs look fresh but its parent needs a run.
		Expect(statuses["paper"]).To(Equal(pipeline.StatusStale))
	})

	It("does not propagate upstream", func() {
		fsys := freshTree()
		delete(fsys, "paper.pdf")

		g, err := pipeline.BuildGraph(paperSteps())
		Expect(err).NotTo(HaveOccurred())

		eval := pipeline.NewEvaluator(artifact.NewResolver(fsys))
		statuses, err := eval.Evaluate(g)
		Expect(err).NotTo(HaveOccurred())

		Expect(statuses["data"]).To(Equal(pipeline.StatusUpToDate))
		Expect(statuses["figures"]).To(Equal(pipeline.StatusUpToDate))
		Expect(statuses["paper"]).To(Equal(pipeline.StatusMissing))
	})
})
