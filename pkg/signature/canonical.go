// Package signature implements detached Ed25519 signatures over
// canonical JSON payloads, with did:key verification methods.
package signature

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
)

// Canonical marshals v and canonicalizes the result according to
// RFC 8785, so the same logical document always produces the same
// bytes regardless of field ordering or whitespace.
// This, as of Go 1.25.x, requires "GOEXPERIMENT=jsonv2" for the new
// json v2 and jsontext packages.
func Canonical(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	j := jsontext.Value(data)
	if err := j.Canonicalize(); err != nil {
		return nil, fmt.Errorf("canonicalizing payload: %w", err)
	}

	return j, nil
}
