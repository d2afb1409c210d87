package idcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/identity"
)

const statusLongDesc string = `Show the current signing identity.

Prints the did:key identifier, when it was created, and the revocation
chain left behind by previous rotations.

Examples:
  cs id status`

const statusShortDesc string = "Show the current signing identity"

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runStatus(configDir)
		},
	}

	return cmd
}

func runStatus(configDir string) error {
	dir, err := identityDir(configDir)
	if err != nil {
		return err
	}

	m, err := identity.Load(dir)
	if err != nil {
		if errors.Is(err, identity.ErrNoIdentity) {
			fmt.Printf("  %s no identity yet; run 'cs id create'\n", cliui.DimStyle.Render("●"))
			return nil
		}
		return err
	}

	doc := m.Document()
	fmt.Printf("\n  %s %s\n", cliui.KeyStyle.Render("did:    "), cliui.HashStyle.Render(doc.DID))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("created:"), doc.Created.Format("2006-01-02 15:04:05 MST"))
	if doc.RotatedFrom != "" {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("rotated:"), cliui.DimStyle.Render("from "+doc.RotatedFrom))
	}

	revs, err := m.Revocations()
	if err != nil {
		return err
	}
	if len(revs) > 0 {
		fmt.Printf("\n  %s\n", cliui.KeyStyle.Render("revocation chain:"))
		for _, rev := range revs {
			mark := cliui.Mark(identity.VerifyRevocation(&rev))
			fmt.Printf("  %s %s %s %s\n", mark,
				cliui.DimStyle.Render(rev.RevokedDID),
				cliui.DimStyle.Render("→"),
				cliui.DimStyle.Render(rev.SupersededBy))
		}
	}
	fmt.Println()
	return nil
}
