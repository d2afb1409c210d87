package signature

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// SignatureType identifies the signature suite used on attestations.
const SignatureType = "Ed25519Signature2020"

// ErrInvalid is returned when a signature does not verify against the
// payload and the claimed verification method.
var ErrInvalid = errors.New("signature verification failed")

// Block is the detached signature attached to a signed document. The
// block itself is never part of the signed bytes.
type Block struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	VerificationMethod string `json:"verification_method"`
	SignatureValue     string `json:"signature_value"`
}

// Signer produces signatures under a DID-addressable key.
type Signer interface {
	DID() string
	Sign(message []byte) ([]byte, error)
}

// Sign canonicalizes payload and signs it, returning the detached
// signature block.
func Sign(signer Signer, payload any, now time.Time) (*Block, error) {
	message, err := Canonical(payload)
	if err != nil {
		return nil, err
	}

	sig, err := signer.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("signing payload: %w", err)
	}

	return &Block{
		Type:               SignatureType,
		Created:            now.UTC().Format(time.RFC3339),
		VerificationMethod: signer.DID(),
		SignatureValue:     base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// Verify checks a detached signature block against payload. It fails
// closed: any malformed field is a verification failure, not a skip.
func Verify(block *Block, payload any) error {
	if block == nil {
		return fmt.Errorf("%w: no signature block", ErrInvalid)
	}
	if block.Type != SignatureType {
		return fmt.Errorf("%w: unsupported signature type %q", ErrInvalid, block.Type)
	}

	pub, err := DecodeDID(block.VerificationMethod)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	sig, err := base64.StdEncoding.DecodeString(block.SignatureValue)
	if err != nil {
		return fmt.Errorf("%w: invalid base64 signature value", ErrInvalid)
	}

	message, err := Canonical(payload)
	if err != nil {
		return err
	}

	if !ed25519.Verify(pub, message, sig) {
		return ErrInvalid
	}
	return nil
}
