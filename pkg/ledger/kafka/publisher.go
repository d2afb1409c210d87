// Package kafka publishes ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/composable-science/cli/pkg/ledger"
)

// Config holds the Kafka connection settings.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher writes attestation events to Kafka, keyed by attestation
// ID so re-publications of the same document land in one partition.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Kafka-backed ledger publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafkago.Hash{},
		},
	}, nil
}

// PublishAttestation serializes the event and writes it to the topic.
func (p *Publisher) PublishAttestation(ctx context.Context, event *ledger.AttestationRecordedEvent) error {
	if event == nil {
		return ledger.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding ledger event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.AttestationID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing ledger event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
