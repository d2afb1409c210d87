package attestation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/composable-science/cli/pkg/artifact"
	"github.com/composable-science/cli/pkg/logger"
	"github.com/composable-science/cli/pkg/pipeline"
)

// BuilderConfig wires a Builder.
type BuilderConfig struct {
	Graph    *pipeline.Graph
	Resolver *artifact.Resolver
	Scope    Scope

	// ProvenanceDir is the .csf/outputs directory. When set, a step's
	// provenance file is attached to its record if present.
	ProvenanceDir string

	// Project, Git, and ManifestHash enrich pipeline attestations.
	Project      *Project
	Git          *GitContext
	ManifestHash string

	Logger *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

// Builder assembles attestation documents from the pipeline graph and
// resolved artifacts.
type Builder struct {
	cfg BuilderConfig
	log *slog.Logger
	now func() time.Time
}

// NewBuilder validates the config and returns a Builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Graph == nil {
		return nil, fmt.Errorf("builder requires a graph")
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("builder requires a resolver")
	}

	b := &Builder{cfg: cfg, log: cfg.Logger, now: cfg.now}
	if b.log == nil {
		b.log = logger.Nop()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b, nil
}

// AttestStep builds an unsigned attestation covering a single step.
func (b *Builder) AttestStep(did, step string) (*Document, error) {
	if _, ok := b.cfg.Graph.Step(step); !ok {
		return nil, &pipeline.UnknownStepError{Name: step}
	}
	return b.build(did, []string{step}, false)
}

// AttestPipeline builds an unsigned attestation covering every step,
// enriched with the artifact summary and build context.
func (b *Builder) AttestPipeline(did string) (*Document, error) {
	return b.build(did, b.cfg.Graph.Order(), true)
}

func (b *Builder) build(did string, steps []string, pipelineWide bool) (*Document, error) {
	now := b.now().UTC()

	doc := &Document{
		ID:            uuid.NewString(),
		SchemaVersion: SchemaVersion,
		AttesterDID:   did,
		Timestamp:     now.Format(time.RFC3339),
	}

	producers := map[string][]string{}
	var attested []artifact.Artifact

	for _, name := range steps {
		decl, _ := b.cfg.Graph.Step(name)
		record, outputs, err := b.attestStep(decl, now)
		if err != nil {
			return nil, err
		}
		doc.Body.PipelineSteps = append(doc.Body.PipelineSteps, *record)

		for _, out := range outputs {
			producers[out.Path] = append(producers[out.Path], name)
			attested = append(attested, out)
		}
	}

	doc.Body.Validation = b.validate(producers)
	if pipelineWide {
		doc.Body.Project = b.cfg.Project
		doc.Body.Summary = summarize(attested)
		doc.Body.BuildContext = b.buildContext()
	}

	b.log.Debug("attestation assembled",
		"id", doc.ID,
		"steps", len(doc.Body.PipelineSteps),
		"status", doc.Body.Validation.Status)

	return doc, nil
}

// attestStep resolves one step's artifacts and hashes the in-scope
// outputs. Returned outputs are the in-scope output artifacts only.
func (b *Builder) attestStep(decl pipeline.StepDeclaration, now time.Time) (*StepRecord, []artifact.Artifact, error) {
	record := &StepRecord{
		StepName:             decl.Name,
		Command:              decl.Command,
		InputPatterns:        patternStrings(decl.InputPatterns),
		OutputPatterns:       patternStrings(decl.OutputPatterns),
		ArtifactHashes:       map[string]string{},
		AttestationTimestamp: now.Format(time.RFC3339),
	}

	inputs, err := b.cfg.Resolver.ResolveInputs(decl.InputPatterns)
	if err != nil {
		return nil, nil, fmt.Errorf("attesting %q: %w", decl.Name, err)
	}
	outputs, err := b.cfg.Resolver.ResolveOutputs(decl.OutputPatterns)
	if err != nil {
		return nil, nil, fmt.Errorf("attesting %q: %w", decl.Name, err)
	}

	var scoped []artifact.Artifact
	for _, a := range append(inputs, outputs...) {
		if !b.cfg.Scope.Admits(a.Path) {
			continue
		}
		record.ResolvedArtifacts = append(record.ResolvedArtifacts, a.Path)

		digest, err := b.cfg.Resolver.Digest(a.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("attesting %q: %w", decl.Name, err)
		}
		record.ArtifactHashes[a.Path] = digest
	}
	for _, a := range outputs {
		if b.cfg.Scope.Admits(a.Path) {
			scoped = append(scoped, a)
		}
	}

	b.attachProvenance(record)

	return record, scoped, nil
}

// attachProvenance picks up the JSON file the step's command may have
// written to its CS_PROVENANCE_OUTPUT path.
func (b *Builder) attachProvenance(record *StepRecord) {
	if b.cfg.ProvenanceDir == "" {
		return
	}

	path := pipeline.ProvenancePath(b.cfg.ProvenanceDir, record.StepName)
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if !json.Valid(data) {
		b.log.Warn("ignoring malformed provenance file", "step", record.StepName, "path", path)
		return
	}
	record.Provenance = json.RawMessage(data)
}

// validate turns the producer map into the validation block. An
// artifact with more than one producer is a consistency error.
func (b *Builder) validate(producers map[string][]string) Validation {
	v := Validation{Status: StatusValid, Errors: []string{}, Warnings: []string{}}

	paths := make([]string, 0, len(producers))
	for path := range producers {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		steps := producers[path]
		if len(steps) < 2 {
			continue
		}
		sort.Strings(steps)
		if len(steps) == 2 {
			v.Errors = append(v.Errors,
				fmt.Sprintf("Artifact '%s' produced by both '%s' and '%s'", path, steps[0], steps[1]))
		} else {
			v.Errors = append(v.Errors,
				fmt.Sprintf("Artifact '%s' produced by steps '%s'", path, strings.Join(steps, "', '")))
		}
	}

	if len(v.Errors) > 0 {
		v.Status = StatusInvalid
	}
	return v
}

func (b *Builder) buildContext() *BuildContext {
	return &BuildContext{
		ManifestHash:  b.cfg.ManifestHash,
		Git:           b.cfg.Git,
		PipelineOrder: b.cfg.Graph.Order(),
		Environment: map[string]string{
			"os":   runtime.GOOS,
			"arch": runtime.GOARCH,
		},
	}
}

func summarize(artifacts []artifact.Artifact) *Summary {
	s := &Summary{Extensions: map[string]int{}}
	seen := map[string]bool{}
	for _, a := range artifacts {
		if seen[a.Path] {
			continue
		}
		seen[a.Path] = true

		s.Count++
		s.TotalSize += a.Size

		ext := filepath.Ext(a.Path)
		if ext == "" {
			ext = "(none)"
		}
		s.Extensions[ext]++
	}
	return s
}

func patternStrings(patterns []artifact.Pattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = string(p)
	}
	return out
}
