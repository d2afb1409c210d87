// Package statuscmder provides the status command for displaying the
// staleness of every pipeline step.
package statuscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/pipeline"
	"github.com/composable-science/cli/pkg/project"
	"github.com/composable-science/cli/pkg/utils"
)

const statusLongDesc string = `Show the pipeline's current state.

Evaluates every step against the working tree and prints a tree of
step names with their freshness: up-to-date, stale, or missing.
Nothing is executed.

Examples:
  cs status`

const statusShortDesc string = "Show per-step pipeline staleness"

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	proj, err := project.Load("")
	if err != nil {
		return pipeline.Exit(pipeline.ExitUsage, err)
	}

	evaluator := pipeline.NewEvaluator(proj.Resolver)
	statuses, err := evaluator.Evaluate(proj.Graph)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n\n", cliui.KeyStyle.Render("pipeline:"),
		cliui.NameStyle.Render(proj.Manifest.Package.Name))

	stale := 0
	for _, name := range proj.Graph.Order() {
		status := statuses[name]
		if status.NeedsRun() {
			stale++
		}

		step, _ := proj.Graph.Step(name)
		fmt.Printf("  %s %s %s\n", mark(status),
			cliui.NameStyle.Render(name),
			cliui.DimStyle.Render(utils.Truncate(step.Command, 60)))
	}

	if stale == 0 {
		fmt.Printf("\n  %s everything up to date\n\n", cliui.SuccessMark)
	} else {
		fmt.Printf("\n  %d step(s) need a build; run 'cs build'\n\n", stale)
	}
	return nil
}

func mark(status pipeline.StepStatus) string {
	switch status {
	case pipeline.StatusUpToDate:
		return cliui.FreshStyle.Render("●")
	case pipeline.StatusStale:
		return cliui.StaleStyle.Render("●")
	default:
		return cliui.MissingStyle.Render("●")
	}
}
