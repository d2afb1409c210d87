package diagram_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/composable-science/cli/pkg/artifact"
	"github.com/composable-science/cli/pkg/diagram"
	"github.com/composable-science/cli/pkg/pipeline"
)

func TestDiagram(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Diagram Suite")
}

var _ = Describe("Mermaid", func() {
	It("renders steps and artifact patterns with producer edges", func() {
		steps := []pipeline.StepDeclaration{
			{
				Name:           "data",
				Command:        "python gen.py",
				InputPatterns:  []artifact.Pattern{"scripts/gen.py"},
				OutputPatterns: []artifact.Pattern{"data/*.csv"},
			},
			{
				Name:           "figures",
				Command:        "python figs.py",
				InputPatterns:  []artifact.Pattern{"data/*.csv"},
				OutputPatterns: []artifact.Pattern{"figures/*.png"},
			},
		}
		g, err := pipeline.BuildGraph(steps)
		Expect(err).NotTo(HaveOccurred())

		out := diagram.Mermaid(g)

		Expect(out).To(HavePrefix("flowchart TD\n"))
		Expect(out).To(ContainSubstring(`s_data["data"]`))
		Expect(out).To(ContainSubstring(`s_figures["figures"]`))
		Expect(out).To(ContainSubstring(`[/"data/*.csv"/]`))

		// data produces data/*.csv which feeds figures, through one
		// shared artifact node.
		Expect(strings.Count(out, `[/"data/*.csv"/]`)).To(Equal(1))

		dataBeforeFigures := strings.Index(out, `s_data[`) < strings.Index(out, `s_figures[`)
		Expect(dataBeforeFigures).To(BeTrue())
	})

	It("sanitizes step names into node ids", func() {
		steps := []pipeline.StepDeclaration{
			{
				Name:           "train-model",
				Command:        "true",
				InputPatterns:  []artifact.Pattern{"in.txt"},
				OutputPatterns: []artifact.Pattern{"out.txt"},
			},
		}
		g, err := pipeline.BuildGraph(steps)
		Expect(err).NotTo(HaveOccurred())

		Expect(diagram.Mermaid(g)).To(ContainSubstring(`s_train_model["train-model"]`))
	})
})
