package fswalk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// TemplateFile stores absolute and root-relative paths for one template.
type TemplateFile struct {
	AbsPath string
	RelPath string
}

// normalizePattern returns a usable glob and defaults to **/*.alt.
func normalizePattern(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return "**/*.alt"
	}
	return filepath.ToSlash(pattern)
}

// DiscoverTemplates finds files under root matching the glob pattern.
func DiscoverTemplates(root string, pattern string) ([]TemplateFile, error) {
	root = filepath.Clean(root)
	matcher := normalizePattern(pattern)

	var files []TemplateFile
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("compute relative path for %q: %w", path, err)
		}

		matched, err := doublestar.PathMatch(matcher, filepath.ToSlash(relPath))
		if err != nil {
			return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if !matched {
			return nil
		}

		files = append(files, TemplateFile{
			AbsPath: path,
			RelPath: relPath,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})

	return files, nil
}

// ExpandGlobs resolves a list of glob patterns relative to a base directory.
func ExpandGlobs(base string, patterns []string) ([]string, error) {
	var out []string
	seen := map[string]struct{}{}
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(base, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// MirrorOutputPath maps a relative input path to an output path and extension.
func MirrorOutputPath(outRoot string, relPath string, ext string) string {
	cleanRel := filepath.Clean(relPath)
	if ext != "" {
		oldExt := filepath.Ext(cleanRel)
		cleanRel = strings.TrimSuffix(cleanRel, oldExt) + ext
	}
	return filepath.Join(outRoot, cleanRel)
}

// EnsureParentDir creates the parent directory tree for a target file path.
func EnsureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
