// Package git narrows a scan to the files a change touches.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNotRepository means the scan target is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository (or git not installed)")

// RepoRoot returns the work tree root containing path.
func RepoRoot(ctx context.Context, path string) (string, error) {
	out, err := run(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotRepository, err)
	}
	return strings.TrimSpace(out), nil
}

// ChangedFiles returns files changed between ref and the working tree plus
// untracked files not ignored by .gitignore, relative to the repository root
// and sorted. ref defaults to HEAD. Deleted files are left out since there is
// nothing left to scan.
func ChangedFiles(ctx context.Context, repoRoot, ref string) ([]string, error) {
	if ref == "" {
		ref = "HEAD"
	}
	out, err := run(ctx, repoRoot, "diff", "--name-only", "-z", "--diff-filter=d", ref)
	if err != nil {
		return nil, fmt.Errorf("git diff --name-only %s: %w", ref, err)
	}
	untracked, err := run(ctx, repoRoot, "ls-files", "--others", "--exclude-standard", "-z")
	if err != nil {
		return nil, fmt.Errorf("git ls-files --others: %w", err)
	}
	files := append(splitPaths(out), splitPaths(untracked)...)
	slices.Sort(files)
	return slices.Compact(files), nil
}

// StagedFiles returns files staged in the index, relative to the repository
// root, deletions excluded.
func StagedFiles(ctx context.Context, repoRoot string) ([]string, error) {
	out, err := run(ctx, repoRoot, "diff", "--cached", "--name-only", "-z", "--diff-filter=d")
	if err != nil {
		return nil, fmt.Errorf("git diff --cached --name-only: %w", err)
	}
	return splitPaths(out), nil
}

// FilesUnder rebases repository-relative paths onto dir and drops those
// outside it. The result uses forward slashes.
func FilesUnder(repoRoot, dir string, files []string) ([]string, error) {
	root, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", repoRoot, err)
	}
	base, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(base, filepath.Join(root, filepath.FromSlash(f)))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return string(out), nil
}

// splitPaths parses NUL-terminated -z output. Paths are taken verbatim, so
// names with spaces or non-ASCII characters survive unquoted.
func splitPaths(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, "\x00") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
