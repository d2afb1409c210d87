// Package idcmder provides the id command for managing the did:key
// signing identity used to attest artifacts.
package idcmder

import (
	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/config"
	"github.com/composable-science/cli/pkg/dotdir"
)

const idLongDesc string = `Manage your did:key signing identity.

The identity is an Ed25519 keypair stored under
~/.config/composable-science/ (override with identity.dir). Its public
half is encoded as a did:key identifier that appears in every
attestation you sign.

Use subcommands to create, inspect, or rotate the identity:
  cs id create    Generate a new identity
  cs id status    Show the current DID and revocation chain
  cs id rotate    Retire the current key with a signed revocation

Examples:
  cs id create
  cs id status
  cs id rotate`

const idShortDesc string = "Manage the did:key signing identity"

func NewIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "id",
		Short: idShortDesc,
		Long:  idLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newRotateCmd())

	return cmd
}

// identityDir resolves the identity directory from config-dir-aware
// configuration, falling back to the default user location.
func identityDir(configDir string) (string, error) {
	v, err := config.InitViper(configDir)
	if err != nil {
		return "", err
	}

	ddm := dotdir.NewManager()
	return ddm.IdentityDir(v.GetString("identity.dir"))
}
