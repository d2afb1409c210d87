package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/composable-science/cli/pkg/signature"
)

const revocationsFile = "revocations.json"

// Revocation is a notice, signed by the retiring key, that transfers
// authority to the successor DID. Verifiers can use the chain to
// accept attestations made before the rotation.
type Revocation struct {
	RevokedDID   string           `json:"revoked_did"`
	SupersededBy string           `json:"superseded_by"`
	Created      time.Time        `json:"created"`
	Signature    *signature.Block `json:"signature"`
}

// revocationBody is the signed portion of a Revocation.
type revocationBody struct {
	RevokedDID   string    `json:"revoked_did"`
	SupersededBy string    `json:"superseded_by"`
	Created      time.Time `json:"created"`
}

// Rotate generates a successor key, signs a revocation notice for the
// current key with the current key, and replaces the stored identity.
// The returned Manager signs with the new key.
func (m *Manager) Rotate() (*Manager, *Revocation, error) {
	now := time.Now().UTC()

	successor, err := newManager(m.dir, now)
	if err != nil {
		return nil, nil, err
	}
	successor.doc.RotatedFrom = m.doc.DID

	body := revocationBody{
		RevokedDID:   m.doc.DID,
		SupersededBy: successor.doc.DID,
		Created:      now,
	}
	block, err := signature.Sign(m, body, now)
	if err != nil {
		return nil, nil, fmt.Errorf("signing revocation: %w", err)
	}

	rev := &Revocation{
		RevokedDID:   body.RevokedDID,
		SupersededBy: body.SupersededBy,
		Created:      body.Created,
		Signature:    block,
	}

	if err := m.appendRevocation(rev); err != nil {
		return nil, nil, err
	}
	if err := successor.save(); err != nil {
		return nil, nil, err
	}

	return successor, rev, nil
}

// Revocations returns the recorded revocation chain, oldest first.
func (m *Manager) Revocations() ([]Revocation, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, revocationsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading revocations: %w", err)
	}

	var revs []Revocation
	if err := json.Unmarshal(data, &revs); err != nil {
		return nil, fmt.Errorf("parsing revocations: %w", err)
	}
	return revs, nil
}

// VerifyRevocation checks that a revocation notice was signed by the
// key it revokes.
func VerifyRevocation(rev *Revocation) error {
	body := revocationBody{
		RevokedDID:   rev.RevokedDID,
		SupersededBy: rev.SupersededBy,
		Created:      rev.Created,
	}
	if rev.Signature == nil || rev.Signature.VerificationMethod != rev.RevokedDID {
		return fmt.Errorf("%w: revocation not signed by revoked key", signature.ErrInvalid)
	}
	return signature.Verify(rev.Signature, body)
}

func (m *Manager) appendRevocation(rev *Revocation) error {
	revs, err := m.Revocations()
	if err != nil {
		return err
	}
	revs = append(revs, *rev)

	data, err := json.MarshalIndent(revs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding revocations: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, revocationsFile), data, 0o644); err != nil {
		return fmt.Errorf("writing revocations: %w", err)
	}
	return nil
}
