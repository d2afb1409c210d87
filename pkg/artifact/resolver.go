package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"
)

// Artifact is a concrete file matched by a pattern, with its modification
// time recorded at resolution time. Content digests are computed lazily via
// Resolver.Digest and cached for the lifetime of the Resolver.
type Artifact struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Resolver expands patterns against a filesystem and caches content digests
// for one build invocation. It is safe for concurrent use.
type Resolver struct {
	fsys fs.FS

	mu      sync.Mutex
	digests map[string]string
}

// NewResolver creates a Resolver over the given filesystem.
func NewResolver(fsys fs.FS) *Resolver {
	return &Resolver{
		fsys:    fsys,
		digests: make(map[string]string),
	}
}

// NewDirResolver creates a Resolver rooted at an OS directory.
func NewDirResolver(root string) *Resolver {
	return NewResolver(os.DirFS(root))
}

// FS exposes the underlying filesystem for direct pattern expansion.
func (r *Resolver) FS() fs.FS {
	return r.fsys
}

// Resolve expands all patterns and stats each match. The result is sorted
// lexicographically by path and deduplicated. When require is true a pattern
// matching zero files yields PatternUnmatchedError; when false it simply
// contributes nothing ("missing", not an error).
func (r *Resolver) Resolve(patterns []Pattern, require bool) ([]Artifact, error) {
	seen := make(map[string]struct{})
	var out []Artifact

	for _, p := range patterns {
		matches, err := p.Expand(r.fsys)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 && require {
			return nil, &PatternUnmatchedError{Pattern: p}
		}

		for _, path := range matches {
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}

			info, err := fs.Stat(r.fsys, path)
			if err != nil {
				return nil, &UnreadableError{Path: path, Err: err}
			}

			out = append(out, Artifact{
				Path:    path,
				ModTime: info.ModTime(),
				Size:    info.Size(),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// ResolveInputs expands input patterns, requiring every pattern to match at
// least one file.
func (r *Resolver) ResolveInputs(patterns []Pattern) ([]Artifact, error) {
	return r.Resolve(patterns, true)
}

// ResolveOutputs expands output patterns; zero matches means "missing" and
// is reported by returning an empty slice.
func (r *Resolver) ResolveOutputs(patterns []Pattern) ([]Artifact, error) {
	return r.Resolve(patterns, false)
}

// Digest returns the lower-case hex SHA-256 of the file's contents, prefixed
// with "sha256:". Digests are streamed and cached per Resolver, so repeated
// requests for the same path during one build read the file once.
func (r *Resolver) Digest(path string) (string, error) {
	r.mu.Lock()
	if d, ok := r.digests[path]; ok {
		r.mu.Unlock()
		return d, nil
	}
	r.mu.Unlock()

	f, err := r.fsys.Open(path)
	if err != nil {
		return "", &UnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &UnreadableError{Path: path, Err: err}
	}

	digest := "sha256:" + hex.EncodeToString(h.Sum(nil))

	r.mu.Lock()
	r.digests[path] = digest
	r.mu.Unlock()

	return digest, nil
}
