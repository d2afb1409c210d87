package idcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/identity"
)

const rotateLongDesc string = `Rotate the signing identity.

Generates a successor keypair and signs a revocation notice for the
current key with the current key, so verifiers can follow the chain
from old attestations to the new DID. The old private key is replaced.

Examples:
  cs id rotate`

const rotateShortDesc string = "Rotate the signing identity"

func newRotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: rotateShortDesc,
		Long:  rotateLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runRotate(configDir)
		},
	}

	return cmd
}

func runRotate(configDir string) error {
	dir, err := identityDir(configDir)
	if err != nil {
		return err
	}

	current, err := identity.Load(dir)
	if err != nil {
		if errors.Is(err, identity.ErrNoIdentity) {
			return fmt.Errorf("%w; nothing to rotate", err)
		}
		return err
	}

	successor, rev, err := current.Rotate()
	if err != nil {
		return err
	}

	fmt.Printf("  %s identity rotated\n", cliui.SuccessMark)
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("revoked:"), cliui.DimStyle.Render(rev.RevokedDID))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("new did:"), cliui.HashStyle.Render(successor.DID()))
	return nil
}
