// Package verifycmder provides the verify command: check an
// attestation's signature and recompute its artifact hashes.
package verifycmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/attestation"
	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/pipeline"
	"github.com/composable-science/cli/pkg/project"
)

// ExitHashMismatch is returned when a recorded artifact hash no longer
// matches the file on disk.
const ExitHashMismatch = 3

const verifyLongDesc string = `Verify an attestation document.

Checks that the detached Ed25519 signature matches the document's
canonical bytes and the attester's did:key, then recomputes the SHA-256
digest of every recorded artifact against the working tree.

Exit codes:
  0  signature valid and every artifact hash matches
  1  signature invalid or document malformed
  3  an artifact's content no longer matches its recorded hash

Examples:
  cs verify .csf/attestations/figures_attestation.json`

const verifyShortDesc string = "Verify an attestation's signature and hashes"

func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: verifyShortDesc,
		Long:  verifyLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runVerify(args[0])
		},
	}

	return cmd
}

func runVerify(path string) error {
	doc, err := attestation.Load(path)
	if err != nil {
		return err
	}

	if err := doc.VerifySignature(); err != nil {
		return fmt.Errorf("signature check failed: %w", err)
	}
	fmt.Printf("  %s signature valid (%s)\n", cliui.SuccessMark,
		cliui.HashStyle.Render(doc.AttesterDID))

	proj, err := project.Load("")
	if err != nil {
		return pipeline.Exit(pipeline.ExitUsage, err)
	}

	if err := attestation.VerifyArtifacts(doc, proj.Resolver); err != nil {
		var mismatch *attestation.HashMismatchError
		if errors.As(err, &mismatch) {
			fmt.Printf("  %s %s\n", cliui.FailMark, mismatch.Error())
			return pipeline.Exit(ExitHashMismatch, mismatch)
		}
		return err
	}

	artifacts := 0
	for _, step := range doc.Body.PipelineSteps {
		artifacts += len(step.ArtifactHashes)
	}
	fmt.Printf("  %s %d artifact hash(es) match the working tree\n", cliui.SuccessMark, artifacts)
	return nil
}
