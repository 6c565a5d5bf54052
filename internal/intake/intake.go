// Package intake finds the files a scan should look at and loads their text.
package intake

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

var skipDirNames = map[string]struct{}{
	".git": {}, ".hg": {}, ".svn": {}, "node_modules": {}, "vendor": {}, "dist": {}, "build": {}, ".next": {},
	"target": {}, "coverage": {}, ".venv": {}, "venv": {}, "__pycache__": {}, ".tox": {}, ".mypy_cache": {},
	".pytest_cache": {}, ".idea": {}, ".vscode": {},
}

var skipFileExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".ico": {}, ".webp": {}, ".pdf": {}, ".zip": {}, ".gz": {},
	".tar": {}, ".tgz": {}, ".bz2": {}, ".xz": {}, ".7z": {}, ".mp3": {}, ".wav": {}, ".mp4": {}, ".mov": {},
	".avi": {}, ".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {}, ".exe": {}, ".dll": {}, ".so": {}, ".dylib": {},
	".class": {}, ".jar": {}, ".pyc": {}, ".pyo": {}, ".o": {}, ".a": {}, ".wasm": {}, ".db": {}, ".sqlite": {},
}

var skipFileNames = map[string]struct{}{
	".DS_Store": {}, "Thumbs.db": {},
	// The scanner's own control files quote the constructs they silence.
	DefaultIgnoreFile: {}, ".sentinel-suppressions.yaml": {}, ".mcp-sentinel.yaml": {},
}

// Discover walks root and returns every regular file a scan should read,
// sorted by path. Each returned path is root joined with the file's
// relative path.
//
// Exclusion globs use the ignore-file syntax (`*`, `?`, `**`, trailing `/`
// for directories, `!` to re-include); a glob without a slash matches a name
// at any depth. ignore may be nil. Symlinks, well-known dependency and build
// directories, and binary file extensions are never returned.
//
// An error is returned only when root itself cannot be walked; unreadable
// subdirectories are skipped.
func Discover(root string, excludes []string, ignore *IgnoreRules) ([]string, error) {
	exclude := ParseIgnorePatterns(excludes)
	files := make([]string, 0, 256)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			if _, skip := skipDirNames[name]; skip {
				return filepath.SkipDir
			}
			if exclude.ShouldIgnore(rel, true) || ignore.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if skipFile(name) {
			return nil
		}
		if exclude.ShouldIgnore(rel, false) || ignore.ShouldIgnore(rel, false) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func skipFile(name string) bool {
	if _, ok := skipFileNames[name]; ok {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := skipFileExts[ext]
	return ok
}
