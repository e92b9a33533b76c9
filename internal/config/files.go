// Package config resolves ghtraf settings from three layers, highest
// precedence first:
//
//  1. command-line flags
//  2. the project file (.ghtraf.json, found by walking up from the cwd)
//  3. the global file (~/.ghtraf/config.json), entry repos["owner/repo"]
//
// Both files are plain JSON owned by this package. Keys are written in
// snake_case; the hyphenated spelling of a key is accepted on read.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ghtraf/ghtraf/internal/errors"
)

const (
	// ProjectFileName is the per-repository settings file.
	ProjectFileName = ".ghtraf.json"
	// GlobalDirName is the per-user settings directory under $HOME.
	GlobalDirName = ".ghtraf"
	// GlobalFileName is the file inside GlobalDirName.
	GlobalFileName = "config.json"

	// SchemaVersion is written into every file this package creates.
	SchemaVersion = 1

	// maxWalkDepth bounds upward directory searches.
	maxWalkDepth = 20
)

// FindProjectFile walks up from startDir looking for ProjectFileName and
// returns the first path found.
func FindProjectFile(startDir string) (string, bool) {
	return walkUp(startDir, func(dir string) bool {
		info, err := os.Stat(filepath.Join(dir, ProjectFileName))
		return err == nil && !info.IsDir()
	}, ProjectFileName)
}

// FindGitRoot walks up from startDir looking for a .git entry (directory or
// worktree file) and returns the directory containing it.
func FindGitRoot(startDir string) (string, bool) {
	p, ok := walkUp(startDir, func(dir string) bool {
		_, err := os.Stat(filepath.Join(dir, ".git"))
		return err == nil
	}, "")
	return p, ok
}

// walkUp calls match on startDir and up to maxWalkDepth-1 ancestors. On a
// hit it returns dir joined with name.
func walkUp(startDir string, match func(dir string) bool, name string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}

	for i := 0; i < maxWalkDepth; i++ {
		if match(dir) {
			if name == "" {
				return dir, true
			}
			return filepath.Join(dir, name), true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// LoadJSON reads a JSON object from path. A missing, unreadable, or
// malformed file yields an empty map.
func LoadJSON(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]any{}
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// writeJSON replaces path with v as indented JSON plus a trailing newline.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewConfigError("failed to encode settings", path, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewConfigError("failed to create settings directory", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewConfigError("failed to write settings", path, err)
	}
	return nil
}
