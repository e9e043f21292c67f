// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

// Discover returns the slash-separated paths, relative to cfg.InputDir, of
// files matching any include pattern and no exclude pattern, sorted. Files
// under cfg.OutputDir are never sources, even when it lies inside InputDir.
func Discover(cfg types.NormalizeConfig) ([]string, error) {
	cfg = cfg.WithDefaults()
	info, err := os.Stat(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input directory: %s is not a directory", cfg.InputDir)
	}

	for _, p := range append(append([]string(nil), cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
	}

	outPrefix, err := outputPrefix(cfg)
	if err != nil {
		return nil, err
	}

	fsys := os.DirFS(cfg.InputDir)
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range cfg.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || excluded(m, cfg.Exclude) || (outPrefix != "" && strings.HasPrefix(m, outPrefix)) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// outputPrefix returns the slash-separated prefix of OutputDir relative to
// InputDir, or "" when the output lies outside the input tree.
func outputPrefix(cfg types.NormalizeConfig) (string, error) {
	in, err := filepath.Abs(cfg.InputDir)
	if err != nil {
		return "", fmt.Errorf("input directory: %w", err)
	}
	out, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return "", fmt.Errorf("output directory: %w", err)
	}
	rel, err := filepath.Rel(in, out)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", nil
	}
	if rel == "." {
		return "", fmt.Errorf("output directory %s must differ from the input directory", cfg.OutputDir)
	}
	return filepath.ToSlash(rel) + "/", nil
}

func excluded(path string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// Watched returns InputDir and every directory beneath it.
func Watched(cfg types.NormalizeConfig) ([]string, error) {
	cfg = cfg.WithDefaults()
	var dirs []string
	err := fs.WalkDir(os.DirFS(cfg.InputDir), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == "." {
				dirs = append(dirs, cfg.InputDir)
			} else {
				dirs = append(dirs, cfg.InputDir+"/"+path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", cfg.InputDir, err)
	}
	return dirs, nil
}
