package ledger_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/composable-science/cli/pkg/attestation"
	"github.com/composable-science/cli/pkg/ledger"
	"github.com/composable-science/cli/pkg/ledger/nop"
)

func TestLedger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ledger Suite")
}

var _ = Describe("NewAttestationRecordedEvent", func() {
	It("derives the event from a document", func() {
		doc := &attestation.Document{
			ID:          "att-123",
			AttesterDID: "did:key:zabc",
			Body: attestation.Body{
				PipelineSteps: []attestation.StepRecord{
					{StepName: "data", ResolvedArtifacts: []string{"data/a.csv", "scripts/gen.py"}},
					{StepName: "figures", ResolvedArtifacts: []string{"data/a.csv", "figures/p.png"}},
				},
				Validation: attestation.Validation{Status: attestation.StatusValid},
			},
		}

		event := ledger.NewAttestationRecordedEvent(doc, "quantum-paper")

		Expect(event.SchemaVersion).To(Equal(ledger.SchemaVersionV1))
		Expect(event.EventType).To(Equal(ledger.EventTypeAttestationRecorded))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.Project).To(Equal("quantum-paper"))
		Expect(event.AttestationID).To(Equal("att-123"))
		Expect(event.AttesterDID).To(Equal("did:key:zabc"))
		Expect(event.Steps).To(Equal([]string{"data", "figures"}))
		Expect(event.Status).To(Equal(attestation.StatusValid))
		// data/a.csv is counted once even though two steps touch it.
		Expect(event.ArtifactCount).To(Equal(3))
	})
})

var _ = Describe("nop Publisher", func() {
	It("accepts events and rejects nil", func() {
		p := nop.NewPublisher()

		err := p.PublishAttestation(context.Background(), &ledger.AttestationRecordedEvent{})
		Expect(err).NotTo(HaveOccurred())

		Expect(p.PublishAttestation(context.Background(), nil)).To(MatchError(ledger.ErrNilEvent))
		Expect(p.Close()).To(Succeed())
	})
})
