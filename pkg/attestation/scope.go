package attestation

import "github.com/composable-science/cli/pkg/artifact"

// Scope restricts which resolved artifacts an attestation includes.
// An empty include list admits everything. Exclude wins on conflict.
type Scope struct {
	Include []artifact.Pattern
	Exclude []artifact.Pattern
}

// NewScope builds a Scope from raw glob strings.
func NewScope(include, exclude []string) Scope {
	s := Scope{}
	for _, g := range include {
		s.Include = append(s.Include, artifact.Pattern(g))
	}
	for _, g := range exclude {
		s.Exclude = append(s.Exclude, artifact.Pattern(g))
	}
	return s
}

// Admits reports whether path falls inside the scope.
func (s Scope) Admits(path string) bool {
	for _, p := range s.Exclude {
		if p.Match(path) {
			return false
		}
	}
	if len(s.Include) == 0 {
		return true
	}
	for _, p := range s.Include {
		if p.Match(path) {
			return true
		}
	}
	return false
}
