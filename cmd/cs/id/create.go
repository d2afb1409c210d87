package idcmder

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/identity"
)

const createLongDesc string = `Generate a new did:key signing identity.

Creates an Ed25519 keypair, stores the private key with owner-only
permissions, and prints the did:key identifier. Refuses to overwrite
an existing identity; use 'cs id rotate' to replace one.

Examples:
  cs id create`

const createShortDesc string = "Generate a new signing identity"

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: createShortDesc,
		Long:  createLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runCreate(configDir)
		},
	}

	return cmd
}

func runCreate(configDir string) error {
	dir, err := identityDir(configDir)
	if err != nil {
		return err
	}

	var m *identity.Manager
	err = cliui.Step(os.Stdout, "generating Ed25519 keypair", func() error {
		var cerr error
		m, cerr = identity.Create(dir)
		return cerr
	})
	if err != nil {
		if errors.Is(err, identity.ErrExists) {
			return fmt.Errorf("%w under %s; use 'cs id rotate' to replace it", err, dir)
		}
		return err
	}

	fmt.Printf("  %s identity created\n", cliui.SuccessMark)
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("did:"), cliui.HashStyle.Render(m.DID()))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("dir:"), dir)
	return nil
}
