// Package attestcmder provides the attest command: hash a step's (or
// the whole pipeline's) artifacts, build the attestation document,
// sign it, and record it in the local index.
package attestcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/composable-science/cli/pkg/attestation"
	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/config"
	"github.com/composable-science/cli/pkg/dotdir"
	"github.com/composable-science/cli/pkg/git"
	"github.com/composable-science/cli/pkg/identity"
	"github.com/composable-science/cli/pkg/ledger"
	kafkaledger "github.com/composable-science/cli/pkg/ledger/kafka"
	"github.com/composable-science/cli/pkg/ledger/nop"
	"github.com/composable-science/cli/pkg/logger"
	"github.com/composable-science/cli/pkg/pipeline"
	"github.com/composable-science/cli/pkg/project"
	"github.com/composable-science/cli/pkg/store"
)

const attestLongDesc string = `Create a signed attestation for a pipeline step.

Resolves the step's declared inputs and outputs, hashes every artifact
inside the [attestation] scope, and signs the resulting document with
your did:key identity. The document is written under .csf/attestations/
and recorded in the local index.

With --pipeline the attestation covers every step, plus the project
metadata, an artifact summary, and build context (manifest hash, git
revision, pipeline order).

An attestation that fails validation (for example, one artifact
produced by two steps) is still written, but signing is refused unless
--sign-invalid is given.

Examples:
  cs attest figures
  cs attest --pipeline
  cs attest figures -o figures-attestation.json`

const attestShortDesc string = "Create a signed attestation for step artifacts"

type attestOptions struct {
	step        string
	pipeline    bool
	signInvalid bool
	output      string
	debug       bool
	json        bool
}

func NewAttestCmd() *cobra.Command {
	opts := &attestOptions{}

	cmd := &cobra.Command{
		Use:   "attest [<step>]",
		Short: attestShortDesc,
		Long:  attestLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.step = args[0]
			}
			if opts.step == "" && !opts.pipeline {
				return pipeline.Exit(pipeline.ExitUsage,
					errors.New("attest needs a step name or --pipeline"))
			}
			opts.debug, _ = cmd.Flags().GetBool("debug")
			opts.json, _ = cmd.Flags().GetBool("json")
			configDir, _ := cmd.Flags().GetString("config-dir")

			return runAttest(cmd.Context(), opts, configDir)
		},
	}

	cmd.Flags().BoolVarP(&opts.pipeline, "pipeline", "p", false, "Attest every step with full build context")
	cmd.Flags().BoolVar(&opts.signInvalid, "sign-invalid", false, "Sign even when validation fails")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the document to this path")

	return cmd
}

func runAttest(ctx context.Context, opts *attestOptions, configDir string) error {
	log := logger.New(
		logger.WithDebug(opts.debug),
		logger.WithJSON(opts.json),
		logger.WithPretty(!opts.json),
	)

	proj, err := project.Load("")
	if err != nil {
		return pipeline.Exit(pipeline.ExitUsage, err)
	}

	v, err := config.InitViper(configDir)
	if err != nil {
		return err
	}

	signer, err := loadIdentity(v)
	if err != nil {
		if errors.Is(err, identity.ErrNoIdentity) {
			return pipeline.Exit(pipeline.ExitNoIdentity, err)
		}
		return err
	}

	var doc *attestation.Document
	err = cliui.Step(os.Stdout, "hashing artifacts", func() error {
		var berr error
		doc, berr = buildDocument(proj, signer.DID(), opts)
		return berr
	})
	if err != nil {
		return err
	}

	outPath, err := documentPath(proj, opts)
	if err != nil {
		return err
	}

	if err := doc.Sign(signer, opts.signInvalid); err != nil {
		// Emit the unsigned document so the conflict can be inspected,
		// then fail.
		_ = attestation.Save(doc, outPath)
		if errors.Is(err, attestation.ErrInvalid) {
			for _, problem := range doc.Body.Validation.Errors {
				log.Error("validation error", "problem", problem)
			}
			return pipeline.Exit(pipeline.ExitSigningError,
				fmt.Errorf("%w (wrote unsigned document to %s; use --sign-invalid to override)", err, outPath))
		}
		return pipeline.Exit(pipeline.ExitSigningError, err)
	}

	if err := attestation.Save(doc, outPath); err != nil {
		return err
	}

	if err := index(ctx, v, proj, doc, outPath, opts.step); err != nil {
		log.Warn("attestation written but not indexed", "error", err)
	}

	if err := publish(ctx, v, proj, doc); err != nil {
		log.Warn("attestation written but not published to ledger", "error", err)
	}

	fmt.Printf("  %s attested %s\n", cliui.SuccessMark, cliui.NameStyle.Render(subject(opts)))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("id: "), cliui.HashStyle.Render(doc.ID))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("file:"), outPath)
	return nil
}

func subject(opts *attestOptions) string {
	if opts.pipeline {
		return "pipeline"
	}
	return opts.step
}

func loadIdentity(v *viper.Viper) (*identity.Manager, error) {
	ddm := dotdir.NewManager()
	dir, err := ddm.IdentityDir(v.GetString("identity.dir"))
	if err != nil {
		return nil, err
	}
	return identity.Load(dir)
}

func buildDocument(proj *project.Project, did string, opts *attestOptions) (*attestation.Document, error) {
	outputsDir, err := proj.OutputsDir()
	if err != nil {
		return nil, err
	}

	cfg := attestation.BuilderConfig{
		Graph:         proj.Graph,
		Resolver:      proj.Resolver,
		Scope:         attestation.NewScope(proj.Manifest.Attestation.Include, proj.Manifest.Attestation.Exclude),
		ProvenanceDir: outputsDir,
	}

	if opts.pipeline {
		cfg.Project = &attestation.Project{
			Name:    proj.Manifest.Package.Name,
			Version: proj.Manifest.Package.Version,
			Authors: proj.Manifest.Package.Authors,
			License: proj.Manifest.Package.License,
		}
		if hash, err := proj.ManifestHash(); err == nil {
			cfg.ManifestHash = hash
		}
		if info := git.Detect(proj.Root); info.Commit != "" {
			cfg.Git = &attestation.GitContext{
				Commit: info.Commit,
				Branch: info.Branch,
				Remote: info.Remote,
				Clean:  info.Clean,
			}
		}
	}

	builder, err := attestation.NewBuilder(cfg)
	if err != nil {
		return nil, err
	}

	if opts.pipeline {
		return builder.AttestPipeline(did)
	}
	return builder.AttestStep(did, opts.step)
}

func documentPath(proj *project.Project, opts *attestOptions) (string, error) {
	if opts.output != "" {
		return opts.output, nil
	}

	target, err := proj.Target()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, "attestations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating attestations directory: %w", err)
	}

	return filepath.Join(dir, subject(opts)+"_attestation.json"), nil
}

func index(ctx context.Context, v *viper.Viper, proj *project.Project, doc *attestation.Document, path, step string) error {
	target, err := proj.Target()
	if err != nil {
		return err
	}

	dbPath := v.GetString("storage.sqlite_path")
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(target, dbPath)
	}

	idx, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	return idx.Put(ctx, &store.Record{
		ID:          doc.ID,
		Project:     proj.Manifest.Package.Name,
		Step:        step,
		Path:        path,
		Status:      doc.Body.Validation.Status,
		AttesterDID: doc.AttesterDID,
		CreatedAt:   time.Now().UTC(),
	})
}

func publish(ctx context.Context, v *viper.Viper, proj *project.Project, doc *attestation.Document) error {
	var publisher ledger.Publisher
	if v.GetBool("ledger.enabled") {
		p, err := kafkaledger.NewPublisher(kafkaledger.Config{
			Brokers: v.GetStringSlice("ledger.brokers"),
			Topic:   v.GetString("ledger.topic"),
		})
		if err != nil {
			return err
		}
		publisher = p
	} else {
		publisher = nop.NewPublisher()
	}
	defer publisher.Close()

	event := ledger.NewAttestationRecordedEvent(doc, proj.Manifest.Package.Name)
	return publisher.PublishAttestation(ctx, event)
}
