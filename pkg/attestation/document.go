// Package attestation builds, signs, and verifies attestation
// documents: immutable records of which commands produced which
// artifacts, with content hashes and a researcher signature.
package attestation

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/composable-science/cli/pkg/signature"
)

// SchemaVersion is bumped when the document shape changes.
const SchemaVersion = 1

// Validation statuses.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
)

// ErrInvalid is returned when signing is attempted on a document whose
// validation block is invalid and the caller did not opt in.
var ErrInvalid = errors.New("attestation failed validation; refusing to sign")

// Document is the versioned attestation record. It is never mutated
// after signing.
type Document struct {
	ID            string           `json:"id"`
	SchemaVersion int              `json:"schema_version"`
	AttesterDID   string           `json:"attester_did"`
	Timestamp     string           `json:"timestamp"`
	Body          Body             `json:"body"`
	Signature     *signature.Block `json:"signature,omitempty"`
}

// Body carries the attested content. The signature covers the whole
// document minus the signature block itself.
type Body struct {
	PipelineSteps []StepRecord  `json:"pipeline_steps"`
	Validation    Validation    `json:"validation"`
	Project       *Project      `json:"project,omitempty"`
	Summary       *Summary      `json:"artifact_summary,omitempty"`
	BuildContext  *BuildContext `json:"build_context,omitempty"`
}

// StepRecord attests a single pipeline step.
type StepRecord struct {
	StepName             string            `json:"step_name"`
	Command              string            `json:"command"`
	InputPatterns        []string          `json:"input_patterns"`
	OutputPatterns       []string          `json:"output_patterns"`
	ResolvedArtifacts    []string          `json:"resolved_artifacts"`
	ArtifactHashes       map[string]string `json:"artifact_hashes"`
	AttestationTimestamp string            `json:"attestation_timestamp"`

	// Provenance is the raw JSON the step's command wrote to its
	// CS_PROVENANCE_OUTPUT path, if any.
	Provenance json.RawMessage `json:"provenance,omitempty"`
}

// Validation records consistency problems found while building the
// document. Errors make the whole attestation invalid; warnings do not.
type Validation struct {
	Status   string   `json:"status"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Project is the package metadata carried into pipeline attestations.
type Project struct {
	Name    string   `json:"name"`
	Version string   `json:"version,omitempty"`
	Authors []string `json:"authors,omitempty"`
	License string   `json:"license,omitempty"`
}

// Summary aggregates the attested artifacts.
type Summary struct {
	Count      int            `json:"artifact_count"`
	TotalSize  int64          `json:"total_size_bytes"`
	Extensions map[string]int `json:"extension_histogram"`
}

// BuildContext describes the environment the attestation was made in.
type BuildContext struct {
	ManifestHash  string            `json:"manifest_hash,omitempty"`
	Git           *GitContext       `json:"git,omitempty"`
	PipelineOrder []string          `json:"pipeline_order,omitempty"`
	Environment   map[string]string `json:"environment,omitempty"`
}

// GitContext is the source-control revision at attestation time.
type GitContext struct {
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
	Remote string `json:"remote,omitempty"`
	Clean  bool   `json:"clean"`
}

// Valid reports whether the validation block carries no errors.
func (d *Document) Valid() bool {
	return d.Body.Validation.Status == StatusValid
}

// unsigned returns a copy of the document without its signature block,
// which is the payload the signature covers.
func (d *Document) unsigned() Document {
	u := *d
	u.Signature = nil
	return u
}

// Sign attaches a detached signature to the document. Invalid
// documents are refused unless force is set.
func (d *Document) Sign(signer signature.Signer, force bool) error {
	if !d.Valid() && !force {
		return fmt.Errorf("%w: %d validation error(s)", ErrInvalid, len(d.Body.Validation.Errors))
	}
	if d.AttesterDID != signer.DID() {
		return fmt.Errorf("attester DID %s does not match signing key %s", d.AttesterDID, signer.DID())
	}

	block, err := signature.Sign(signer, d.unsigned(), time.Now())
	if err != nil {
		return err
	}
	d.Signature = block
	return nil
}

// VerifySignature checks the document's detached signature.
func (d *Document) VerifySignature() error {
	return signature.Verify(d.Signature, d.unsigned())
}
