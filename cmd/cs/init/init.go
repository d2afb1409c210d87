// Package initcmder provides the init command for scaffolding a new
// composable-science project in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/dotdir"
)

const initLongDesc string = `Initialize a new composable-science project.

Writes a csf.toml manifest from the named template and creates the
.csf/ state directory. Templates:

  paper   data -> figures -> paper pipeline for a LaTeX article
  data    a single data-processing step

Examples:
  cs init paper
  cs init data`

const initShortDesc string = "Initialize a new project from a template"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <template>",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInit(args[0])
		},
	}

	return cmd
}

func runInit(template string) error {
	manifest, ok := templates[template]
	if !ok {
		return fmt.Errorf("unknown template %q (available: %s)", template, templateNames())
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	manifestPath := filepath.Join(cwd, dotdir.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("%s already exists; refusing to overwrite", dotdir.ManifestName)
	}

	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(cwd, ".csf"), 0o755); err != nil {
		return fmt.Errorf("creating .csf directory: %w", err)
	}

	fmt.Printf("  %s initialized %s project\n", cliui.SuccessMark, cliui.NameStyle.Render(template))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("manifest:"), manifestPath)
	fmt.Printf("\n  next: edit %s, then run 'cs build'\n", dotdir.ManifestName)
	return nil
}

func templateNames() string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}
