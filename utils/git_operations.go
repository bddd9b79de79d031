package utils

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// GitOperations handles git-related operations
type GitOperations struct {
	workingDir string
}

// NewGitOperations creates a new GitOperations instance
func NewGitOperations(workingDir string) *GitOperations {
	return &GitOperations{workingDir: workingDir}
}

func (g *GitOperations) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workingDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// CheckGitRepo checks if the working directory is inside a git repository
func (g *GitOperations) CheckGitRepo(ctx context.Context) error {
	if _, err := g.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return fmt.Errorf("not a git repository")
	}
	return nil
}

// ListChangedFiles returns modified, staged and untracked files relative to
// the working directory, sorted. Deleted files and paths outside the working
// directory are left out.
func (g *GitOperations) ListChangedFiles(ctx context.Context) ([]string, error) {
	prefixOut, err := g.run(ctx, "rev-parse", "--show-prefix")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository prefix: %w", err)
	}
	prefix := strings.TrimSpace(string(prefixOut))

	status, err := g.run(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, fmt.Errorf("failed to get git status: %w", err)
	}

	var files []string
	for _, path := range ParsePorcelainStatus(status) {
		if prefix != "" {
			if !strings.HasPrefix(path, prefix) {
				continue
			}
			path = strings.TrimPrefix(path, prefix)
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// ParsePorcelainStatus extracts the current path of every non-deleted entry of
// `git status --porcelain=v1 -z` output.
func ParsePorcelainStatus(output []byte) []string {
	entries := strings.Split(string(output), "\x00")
	seen := make(map[string]bool)
	var paths []string

	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if len(entry) < 4 {
			continue
		}
		code, path := entry[:2], entry[3:]

		// renames and copies carry the original path as the next entry
		if code[0] == 'R' || code[0] == 'C' {
			i++
		}
		if strings.Contains(code, "D") || strings.HasSuffix(path, "/") {
			continue
		}
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}
	return paths
}

// GetBranchName returns the current branch name
func (g *GitOperations) GetBranchName(ctx context.Context) (string, error) {
	output, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get branch name: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
