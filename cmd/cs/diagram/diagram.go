// Package diagramcmder provides the diagram command: render the
// pipeline as a Mermaid flowchart.
package diagramcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/diagram"
	"github.com/composable-science/cli/pkg/pipeline"
	"github.com/composable-science/cli/pkg/project"
)

const diagramLongDesc string = `Render the pipeline as a Mermaid flowchart.

Writes pipeline.mmd at the project root: steps as process nodes and
artifact patterns as data nodes, in build order. Paste the output into
any Mermaid renderer, or use --stdout to print it instead.

Examples:
  cs diagram
  cs diagram --stdout`

const diagramShortDesc string = "Render the pipeline as a Mermaid flowchart"

func NewDiagramCmd() *cobra.Command {
	var stdout bool

	cmd := &cobra.Command{
		Use:   "diagram",
		Short: diagramShortDesc,
		Long:  diagramLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDiagram(stdout)
		},
	}

	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the diagram instead of writing pipeline.mmd")

	return cmd
}

func runDiagram(stdout bool) error {
	proj, err := project.Load("")
	if err != nil {
		return pipeline.Exit(pipeline.ExitUsage, err)
	}

	source := diagram.Mermaid(proj.Graph)

	if stdout {
		fmt.Print(source)
		return nil
	}

	path := filepath.Join(proj.Root, diagram.DefaultFileName)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return fmt.Errorf("writing diagram: %w", err)
	}

	fmt.Printf("  %s wrote %s\n", cliui.SuccessMark, path)
	return nil
}
