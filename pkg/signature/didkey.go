package signature

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"
)

// didKeyPrefix introduces a did:key identifier with a multibase 'z'
// marker. The payload is the two-byte Ed25519 multicodec header
// followed by the raw public key, base64url-encoded without padding.
const didKeyPrefix = "did:key:z"

// ed25519Multicodec is the multicodec varint for Ed25519 public keys.
var ed25519Multicodec = []byte{0xed, 0x01}

// MalformedDIDError reports a verification method that is not a
// well-formed Ed25519 did:key.
type MalformedDIDError struct {
	DID    string
	Reason string
}

func (e *MalformedDIDError) Error() string {
	return fmt.Sprintf("malformed did:key %q: %s", e.DID, e.Reason)
}

// EncodeDID derives the did:key identifier for an Ed25519 public key.
func EncodeDID(pub ed25519.PublicKey) string {
	payload := make([]byte, 0, len(ed25519Multicodec)+len(pub))
	payload = append(payload, ed25519Multicodec...)
	payload = append(payload, pub...)
	return didKeyPrefix + base64.RawURLEncoding.EncodeToString(payload)
}

// DecodeDID recovers the Ed25519 public key from a did:key identifier.
func DecodeDID(did string) (ed25519.PublicKey, error) {
	encoded, ok := strings.CutPrefix(did, didKeyPrefix)
	if !ok {
		return nil, &MalformedDIDError{DID: did, Reason: "missing did:key:z prefix"}
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &MalformedDIDError{DID: did, Reason: "invalid base64url payload"}
	}

	if len(payload) != len(ed25519Multicodec)+ed25519.PublicKeySize {
		return nil, &MalformedDIDError{DID: did, Reason: "unexpected payload length"}
	}
	if payload[0] != ed25519Multicodec[0] || payload[1] != ed25519Multicodec[1] {
		return nil, &MalformedDIDError{DID: did, Reason: "not an Ed25519 multicodec key"}
	}

	return ed25519.PublicKey(payload[2:]), nil
}
