// Package doctorcmder provides the doctor command: diagnose project,
// identity, and index problems with remedy hints.
package doctorcmder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/config"
	"github.com/composable-science/cli/pkg/dotdir"
	"github.com/composable-science/cli/pkg/identity"
	"github.com/composable-science/cli/pkg/project"
	"github.com/composable-science/cli/pkg/store"
)

const doctorLongDesc string = `Diagnose the project environment.

Checks, in order: the csf.toml manifest exists and validates, the
dependency graph builds, declared inputs are satisfiable, a signing
identity exists, and the attestation index is readable. Each finding
comes with a remedy hint.

Examples:
  cs doctor`

const doctorShortDesc string = "Diagnose project and identity problems"

func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: doctorShortDesc,
		Long:  doctorLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runDoctor(cmd.Context(), configDir)
		},
	}

	return cmd
}

func runDoctor(ctx context.Context, configDir string) error {
	problems := 0
	report := func(ok bool, what, remedy string) {
		if ok {
			fmt.Printf("  %s %s\n", cliui.SuccessMark, what)
			return
		}
		problems++
		fmt.Printf("  %s %s\n", cliui.FailMark, what)
		if remedy != "" {
			fmt.Printf("    %s\n", cliui.DimStyle.Render("hint: "+remedy))
		}
	}

	fmt.Println()

	proj, err := project.Load("")
	switch {
	case errors.Is(err, dotdir.ErrNoProject):
		report(false, "no csf.toml manifest found", "run 'cs init paper' to scaffold one")
	case err != nil:
		report(false, fmt.Sprintf("manifest invalid: %v", err), "fix csf.toml and rerun")
	default:
		report(true, "manifest parses and validates", "")
		report(true, fmt.Sprintf("dependency graph builds (%d steps)", len(proj.Graph.Order())), "")

		warnings := proj.InputWarnings()
		if len(warnings) == 0 {
			report(true, "every declared input is produced or on disk", "")
		}
		for _, w := range warnings {
			report(false, fmt.Sprintf("step %q input %q matches nothing", w.Step, string(w.Pattern)),
				"create the file, fix the pattern, or add a producing step")
		}
	}

	v, err := config.InitViper(configDir)
	if err != nil {
		return err
	}

	ddm := dotdir.NewManager()
	idDir, err := ddm.IdentityDir(v.GetString("identity.dir"))
	if err != nil {
		return err
	}
	if m, err := identity.Load(idDir); err != nil {
		report(false, "no signing identity", "run 'cs id create'")
	} else {
		report(true, "signing identity "+m.DID(), "")
	}

	if proj != nil {
		if target, err := proj.Target(); err == nil {
			dbPath := v.GetString("storage.sqlite_path")
			if !filepath.IsAbs(dbPath) {
				dbPath = filepath.Join(target, dbPath)
			}
			if idx, err := store.Open(dbPath); err != nil {
				report(false, "attestation index unreadable", "delete "+dbPath+" to rebuild it")
			} else {
				n, countErr := idx.Count(ctx)
				idx.Close()
				if countErr != nil {
					report(false, "attestation index unreadable", "delete "+dbPath+" to rebuild it")
				} else {
					report(true, fmt.Sprintf("attestation index holds %d record(s)", n), "")
				}
			}
		}
	}

	fmt.Println()
	if problems > 0 {
		return fmt.Errorf("%d problem(s) found", problems)
	}
	fmt.Printf("  %s no problems found\n\n", cliui.SuccessMark)
	return nil
}
