// Package cscmder
package cscmder

import (
	"github.com/spf13/cobra"

	attestcmder "github.com/composable-science/cli/cmd/cs/attest"
	buildcmder "github.com/composable-science/cli/cmd/cs/build"
	configcmder "github.com/composable-science/cli/cmd/cs/config"
	dashboardcmder "github.com/composable-science/cli/cmd/cs/dashboard"
	diagramcmder "github.com/composable-science/cli/cmd/cs/diagram"
	doctorcmder "github.com/composable-science/cli/cmd/cs/doctor"
	idcmder "github.com/composable-science/cli/cmd/cs/id"
	initcmder "github.com/composable-science/cli/cmd/cs/init"
	statuscmder "github.com/composable-science/cli/cmd/cs/status"
	verifycmder "github.com/composable-science/cli/cmd/cs/verify"
	versioncmder "github.com/composable-science/cli/cmd/version"
)

const csLongDesc string = `cs is the composable science toolkit: declare your
pipeline once in csf.toml, then build it reproducibly and attest the results.

Common workflows:
  cs init paper        Scaffold a paper project
  cs build             Run the stale steps of the pipeline
  cs attest figures    Sign an attestation for a step's artifacts
  cs verify <file>     Check an attestation against the working tree`

const csShortDesc string = "cs - reproducible builds and signed attestations"

func NewCSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cs",
		Short:         csShortDesc,
		Long:          csLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("json", false, "Log as JSON instead of styled output")
	cmd.PersistentFlags().String("config-dir", "", "Override the .csf/ directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(buildcmder.NewBuildCmd())
	cmd.AddCommand(attestcmder.NewAttestCmd())
	cmd.AddCommand(verifycmder.NewVerifyCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(diagramcmder.NewDiagramCmd())
	cmd.AddCommand(dashboardcmder.NewDashboardCmd())
	cmd.AddCommand(doctorcmder.NewDoctorCmd())
	cmd.AddCommand(idcmder.NewIDCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
