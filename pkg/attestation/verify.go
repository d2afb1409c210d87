package attestation

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/composable-science/cli/pkg/artifact"
)

// HashMismatchError reports an artifact whose content no longer
// matches the digest recorded at attestation time.
type HashMismatchError struct {
	Path     string
	Recorded string
	Actual   string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("artifact %q hash mismatch: recorded %s, found %s", e.Path, e.Recorded, e.Actual)
}

// Load reads an attestation document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attestation: %w", err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing attestation: %w", err)
	}
	return doc, nil
}

// Save writes the document as indented JSON.
func Save(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding attestation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing attestation: %w", err)
	}
	return nil
}

// VerifyArtifacts recomputes the digest of every recorded artifact and
// compares it with the attested value. The first mismatch is returned
// as a HashMismatchError.
func VerifyArtifacts(doc *Document, resolver *artifact.Resolver) error {
	for _, step := range doc.Body.PipelineSteps {
		paths := make([]string, 0, len(step.ArtifactHashes))
		for path := range step.ArtifactHashes {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			actual, err := resolver.Digest(path)
			if err != nil {
				return fmt.Errorf("verifying %q: %w", step.StepName, err)
			}
			if recorded := step.ArtifactHashes[path]; actual != recorded {
				return &HashMismatchError{Path: path, Recorded: recorded, Actual: actual}
			}
		}
	}
	return nil
}
