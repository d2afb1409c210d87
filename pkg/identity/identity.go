// Package identity manages the researcher's Ed25519 signing identity:
// key generation, storage under the config directory, and rotation
// with signed revocation notices.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/composable-science/cli/pkg/signature"
)

const (
	keyFile = "key.pem"
	docFile = "did.json"

	pemKeyType = "PRIVATE KEY"
)

// ErrNoIdentity indicates no identity has been created yet.
var ErrNoIdentity = errors.New("no signing identity found; run 'cs id create'")

// ErrExists indicates an identity is already present.
var ErrExists = errors.New("a signing identity already exists")

// Document is the public identity record stored alongside the key.
type Document struct {
	DID         string    `json:"did"`
	Created     time.Time `json:"created"`
	RotatedFrom string    `json:"rotated_from,omitempty"`
}

// Manager holds a loaded identity and signs on its behalf.
// It satisfies signature.Signer.
type Manager struct {
	dir  string
	priv ed25519.PrivateKey
	doc  Document
}

// Create generates a fresh Ed25519 identity under dir. It refuses to
// overwrite an existing key.
func Create(dir string) (*Manager, error) {
	if _, err := os.Stat(filepath.Join(dir, keyFile)); err == nil {
		return nil, ErrExists
	}

	m, err := newManager(dir, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

func newManager(dir string, now time.Time) (*Manager, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	doc := Document{
		DID:     signature.EncodeDID(priv.Public().(ed25519.PublicKey)),
		Created: now,
	}

	return &Manager{dir: dir, priv: priv, doc: doc}, nil
}

// Load reads the identity stored under dir. Returns ErrNoIdentity when
// no key has been created.
func Load(dir string) (*Manager, error) {
	data, err := os.ReadFile(filepath.Join(dir, keyFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoIdentity
		}
		return nil, fmt.Errorf("reading key: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemKeyType {
		return nil, fmt.Errorf("parsing %s: no %s block", keyFile, pemKeyType)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing key: %w", err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("parsing key: not an Ed25519 key")
	}

	m := &Manager{dir: dir, priv: priv}
	if err := m.loadDocument(); err != nil {
		return nil, err
	}
	return m, nil
}

// DID returns the identity's did:key identifier.
func (m *Manager) DID() string {
	return m.doc.DID
}

// Sign signs message with the identity's private key.
func (m *Manager) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(m.priv, message), nil
}

// Document returns the public identity record.
func (m *Manager) Document() Document {
	return m.doc
}

func (m *Manager) save() error {
	der, err := x509.MarshalPKCS8PrivateKey(m.priv)
	if err != nil {
		return fmt.Errorf("encoding key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: pemKeyType, Bytes: der})

	if err := os.WriteFile(filepath.Join(m.dir, keyFile), keyPEM, 0o600); err != nil {
		return fmt.Errorf("writing key: %w", err)
	}

	docJSON, err := json.MarshalIndent(m.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding identity document: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, docFile), docJSON, 0o644); err != nil {
		return fmt.Errorf("writing identity document: %w", err)
	}

	return nil
}

func (m *Manager) loadDocument() error {
	data, err := os.ReadFile(filepath.Join(m.dir, docFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Key exists but the record was lost. Rebuild it from
			// the key so the identity stays usable.
			m.doc = Document{
				DID:     signature.EncodeDID(m.priv.Public().(ed25519.PublicKey)),
				Created: time.Now().UTC(),
			}
			return m.save()
		}
		return fmt.Errorf("reading identity document: %w", err)
	}

	if err := json.Unmarshal(data, &m.doc); err != nil {
		return fmt.Errorf("parsing identity document: %w", err)
	}
	return nil
}
