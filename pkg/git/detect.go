// Package git provides utilities for detecting git repository information
// used in attestation build contexts.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const commandTimeout = 5 * time.Second

// Info describes the source-control state of a project at attestation time.
// Zero values mean the project is not a git repository or git is unavailable.
type Info struct {
	Commit string `json:"git_commit,omitempty"`
	Branch string `json:"git_branch,omitempty"`
	Remote string `json:"git_remote,omitempty"`
	Clean  bool   `json:"working_tree_clean"`
}

// Detect gathers git information for the repository at dir. Each probe is
// best-effort; fields stay zero when the underlying git command fails.
func Detect(dir string) Info {
	var info Info

	if out, ok := run(dir, "rev-parse", "HEAD"); ok {
		info.Commit = out
	}
	if out, ok := run(dir, "rev-parse", "--abbrev-ref", "HEAD"); ok {
		info.Branch = out
	}
	if out, ok := run(dir, "remote", "get-url", "origin"); ok {
		info.Remote = out
	}
	if _, ok := run(dir, "diff-index", "--quiet", "HEAD", "--"); ok {
		info.Clean = true
	}

	return info
}

// RepoName returns the name of the current git repository.
// It runs "git rev-parse --show-toplevel" and returns the base directory name.
// If not inside a git repo, it falls back to the base name of the working directory.
func RepoName() string {
	if out, ok := run("", "rev-parse", "--show-toplevel"); ok && out != "" {
		return filepath.Base(out)
	}

	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}

func run(dir string, args ...string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}
