// Package artifact resolves glob patterns to concrete files and computes
// their modification times and content digests.
//
// Patterns are a dedicated value type expanded against an io/fs.FS so the
// staleness evaluator and attestation builder can be tested against an
// in-memory filesystem.
package artifact

import (
	"io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern is a glob pattern as declared in the manifest, using doublestar
// syntax (`data/*.csv`, `figures/**/*.png`).
type Pattern string

// Valid reports whether the pattern is syntactically well formed.
func (p Pattern) Valid() bool {
	return doublestar.ValidatePattern(string(p))
}

// Expand returns the lexicographically sorted list of regular files matching
// the pattern in fsys.
func (p Pattern) Expand(fsys fs.FS) ([]string, error) {
	matches, err := doublestar.Glob(fsys, string(p), doublestar.WithFilesOnly())
	if err != nil {
		return nil, &PatternError{Pattern: p, Err: err}
	}

	sort.Strings(matches)
	return matches, nil
}

// Match reports whether the pattern matches the given literal path.
func (p Pattern) Match(path string) bool {
	ok, err := doublestar.Match(string(p), path)
	return err == nil && ok
}

// Overlaps reports whether two patterns can plausibly name the same files,
// judged at pattern level without touching the filesystem: either the
// patterns are identical strings, or one pattern matches the other's literal
// text. Used by the graph builder to derive edges before any file I/O.
func (p Pattern) Overlaps(other Pattern) bool {
	if p == other {
		return true
	}
	return p.Match(string(other)) || other.Match(string(p))
}
