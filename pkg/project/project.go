// Package project loads a composable-science project: manifest,
// dependency graph, and artifact resolver rooted at the csf.toml
// directory.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/composable-science/cli/pkg/artifact"
	"github.com/composable-science/cli/pkg/dotdir"
	"github.com/composable-science/cli/pkg/manifest"
	"github.com/composable-science/cli/pkg/pipeline"
)

// Project bundles everything a command needs to operate on a pipeline.
type Project struct {
	Root     string
	Manifest *manifest.Manifest
	Graph    *pipeline.Graph
	Resolver *artifact.Resolver

	ddm          *dotdir.Manager
	manifestPath string
}

// Load resolves the project rooted at dir (or the working directory
// when dir is empty), parses and validates the manifest, and builds
// the dependency graph. Configuration errors in the manifest or graph
// are fatal here, before any execution.
func Load(dir string) (*Project, error) {
	ddm := dotdir.NewManager()

	root, err := ddm.ProjectRoot(dir)
	if err != nil {
		return nil, err
	}

	manifestPath := ddm.ManifestPath(root)
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	g, err := pipeline.BuildGraph(m.Steps())
	if err != nil {
		return nil, err
	}

	return &Project{
		Root:         root,
		Manifest:     m,
		Graph:        g,
		Resolver:     artifact.NewDirResolver(root),
		ddm:          ddm,
		manifestPath: manifestPath,
	}, nil
}

// ManifestHash returns the sha256 digest of the manifest file.
func (p *Project) ManifestHash() (string, error) {
	data, err := os.ReadFile(p.manifestPath)
	if err != nil {
		return "", fmt.Errorf("hashing manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// Target returns the project's .csf/ directory, creating it if needed.
func (p *Project) Target() (string, error) {
	return p.ddm.Target("")
}

// OutputsDir returns the .csf/outputs directory, creating it if needed.
func (p *Project) OutputsDir() (string, error) {
	return p.ddm.OutputsDir(p.Root)
}

// InputWarnings reports manifest inputs that nothing produces and no
// file on disk satisfies. These are soft at load time; execution fails
// hard when a pattern still matches nothing.
func (p *Project) InputWarnings() []pipeline.InputWarning {
	return p.Graph.UnsatisfiedInputs(p.Resolver.FS())
}
