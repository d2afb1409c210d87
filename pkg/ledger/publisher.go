package ledger

import "context"

// Publisher publishes attestation events to a ledger backend.
type Publisher interface {
	PublishAttestation(ctx context.Context, event *AttestationRecordedEvent) error
	Close() error
}
