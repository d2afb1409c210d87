// Package manifest loads and validates csf.toml project manifests, producing
// the typed step declarations the pipeline core consumes.
//
// The manifest format is deliberately loose TOML; this loader is the boundary
// that rejects unknown-shape input before it reaches the graph builder.
package manifest

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/composable-science/cli/pkg/artifact"
	"github.com/composable-science/cli/pkg/pipeline"
)

// Manifest is the parsed csf.toml document.
type Manifest struct {
	Package     Package `toml:"package"`
	Pipeline    []Step  `toml:"pipeline"`
	Attestation Scope   `toml:"attestation"`
	Build       Build   `toml:"build"`
}

// Package holds project metadata carried into pipeline attestations.
type Package struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Authors []string `toml:"authors"`
	License string   `toml:"license"`
}

// Step is one [[pipeline]] table.
type Step struct {
	Name    string            `toml:"name"`
	Cmd     string            `toml:"cmd"`
	Inputs  []string          `toml:"inputs"`
	Outputs []string          `toml:"outputs"`
	Env     map[string]string `toml:"env"`
}

// Scope is the [attestation] include/exclude configuration. Exclude wins on
// conflict.
type Scope struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// Build is the [build] table describing the external environment provider.
type Build struct {
	Env map[string]string `toml:"env"`
}

// Load reads and parses the manifest at path. Parsing rejects keys the
// schema does not define.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw TOML bytes into a Manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest TOML: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown manifest key %q", undecoded[0].String())
	}

	return &m, nil
}

// Steps converts the manifest's pipeline tables into the typed declarations
// the graph builder consumes, in declaration order.
func (m *Manifest) Steps() []pipeline.StepDeclaration {
	steps := make([]pipeline.StepDeclaration, 0, len(m.Pipeline))
	for _, s := range m.Pipeline {
		steps = append(steps, pipeline.StepDeclaration{
			Name:           s.Name,
			Command:        s.Cmd,
			InputPatterns:  toPatterns(s.Inputs),
			OutputPatterns: toPatterns(s.Outputs),
			Env:            s.Env,
		})
	}
	return steps
}

// Step returns the declaration with the given name, or false.
func (m *Manifest) Step(name string) (pipeline.StepDeclaration, bool) {
	for _, s := range m.Steps() {
		if s.Name == name {
			return s, true
		}
	}
	return pipeline.StepDeclaration{}, false
}

func toPatterns(globs []string) []artifact.Pattern {
	patterns := make([]artifact.Pattern, 0, len(globs))
	for _, g := range globs {
		patterns = append(patterns, artifact.Pattern(g))
	}
	return patterns
}
