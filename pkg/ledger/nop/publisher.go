package nop

import (
	"context"

	"github.com/composable-science/cli/pkg/ledger"
)

// Publisher is a no-op ledger publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op ledger publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishAttestation validates input and otherwise does nothing.
func (p *Publisher) PublishAttestation(_ context.Context, event *ledger.AttestationRecordedEvent) error {
	if event == nil {
		return ledger.ErrNilEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
