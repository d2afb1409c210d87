// Package ledger defines the event published toward the public
// attestation ledger and the publisher seam backends implement.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/composable-science/cli/pkg/attestation"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeAttestationRecorded is emitted after an attestation is
	// signed and written.
	EventTypeAttestationRecorded = "csf.attestation.recorded"
)

// AttestationRecordedEvent is a transport-neutral record of a signed
// attestation. It carries the document's identity and digest context,
// never the private key material.
type AttestationRecordedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	Project       string   `json:"project,omitempty"`
	AttestationID string   `json:"attestation_id"`
	AttesterDID   string   `json:"attester_did"`
	Steps         []string `json:"steps"`
	Status        string   `json:"status"`
	ArtifactCount int      `json:"artifact_count"`
}

// NewAttestationRecordedEvent derives the ledger event from a signed
// document.
func NewAttestationRecordedEvent(doc *attestation.Document, project string) *AttestationRecordedEvent {
	event := &AttestationRecordedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeAttestationRecorded,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Project:       project,
		AttestationID: doc.ID,
		AttesterDID:   doc.AttesterDID,
		Status:        doc.Body.Validation.Status,
	}

	seen := map[string]bool{}
	for _, step := range doc.Body.PipelineSteps {
		event.Steps = append(event.Steps, step.StepName)
		for _, path := range step.ResolvedArtifacts {
			if !seen[path] {
				seen[path] = true
				event.ArtifactCount++
			}
		}
	}

	return event
}
