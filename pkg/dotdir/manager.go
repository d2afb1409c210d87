// Package dotdir manages the .csf/ project directory and the user-level
// identity directory.
//
// A project is any directory tree rooted at a csf.toml manifest. The .csf/
// directory next to the manifest holds build outputs, the attestation index,
// and project-local configuration.
package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the project state directory.
	dirName = ".csf"

	// ManifestName is the project manifest file searched for when resolving
	// the project root.
	ManifestName = "csf.toml"
)

// ErrNoProject indicates no csf.toml was found in the current directory or
// any of its parents.
var ErrNoProject = errors.New("no csf.toml found in this directory or any parent")

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// ProjectRoot walks upward from start (or the working directory when start
// is empty) looking for a csf.toml manifest. Returns ErrNoProject when the
// search reaches the filesystem root without finding one.
func (m *Manager) ProjectRoot(start string) (string, error) {
	dir := start
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = cwd
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for {
		info, err := os.Stat(filepath.Join(dir, ManifestName))
		if err == nil && info.Mode().IsRegular() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// ManifestPath returns the absolute path of the manifest for the project
// rooted at root.
func (m *Manager) ManifestPath(root string) string {
	return filepath.Join(root, ManifestName)
}

// Target returns the absolute path to the project's .csf/ directory,
// creating it if needed. Order of precedence:
//  1. Provided override
//  2. <project root>/.csf/ resolved from the working directory
func (m *Manager) Target(overrideDir string) (string, error) {
	dir := overrideDir

	if dir == "" {
		root, err := m.ProjectRoot("")
		if err != nil {
			return "", err
		}
		dir = filepath.Join(root, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s directory %s: %w", dirName, dir, err)
	}

	return filepath.Abs(dir)
}

// OutputsDir returns the .csf/outputs/ directory for the project rooted at
// root, creating it if needed. Step provenance records are written here.
func (m *Manager) OutputsDir(root string) (string, error) {
	dir := filepath.Join(root, dirName, "outputs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating outputs directory: %w", err)
	}
	return dir, nil
}

// IdentityDir returns the user-level directory holding DID key material,
// creating it if needed. Defaults to ~/.config/composable-science.
func (m *Manager) IdentityDir(override string) (string, error) {
	dir := override
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "composable-science")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating identity directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}
