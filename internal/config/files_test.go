package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFindProjectFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFileName), `{"owner":"acme"}`)
	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("found from nested dir", func(t *testing.T) {
		got, ok := FindProjectFile(deep)
		if !ok {
			t.Fatal("expected project file to be found")
		}
		if want := filepath.Join(root, ProjectFileName); got != want {
			t.Errorf("FindProjectFile() = %q, want %q", got, want)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if got, ok := FindProjectFile(t.TempDir()); ok {
			t.Errorf("expected no project file, got %q", got)
		}
	})

	t.Run("walk is bounded", func(t *testing.T) {
		parts := make([]string, maxWalkDepth+1)
		for i := range parts {
			parts[i] = "d"
		}
		tooDeep := filepath.Join(append([]string{root}, parts...)...)
		if err := os.MkdirAll(tooDeep, 0755); err != nil {
			t.Fatal(err)
		}
		if got, ok := FindProjectFile(tooDeep); ok {
			t.Errorf("walk should stop after %d hops, found %q", maxWalkDepth, got)
		}
	})

	t.Run("directory with the same name is ignored", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, ProjectFileName), 0755); err != nil {
			t.Fatal(err)
		}
		if _, ok := FindProjectFile(dir); ok {
			t.Error("a directory named .ghtraf.json must not match")
		}
	})
}

func TestFindGitRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "src")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	got, ok := FindGitRoot(sub)
	if !ok || got != root {
		t.Errorf("FindGitRoot() = %q, %v; want %q, true", got, ok, root)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content *string
		wantLen int
	}{
		{name: "missing file", content: nil, wantLen: 0},
		{name: "malformed", content: ptr(`{"owner": `), wantLen: 0},
		{name: "not an object", content: ptr(`[1, 2]`), wantLen: 0},
		{name: "null", content: ptr(`null`), wantLen: 0},
		{name: "valid", content: ptr(`{"owner": "acme", "repo": "widget"}`), wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".json")
			if tt.content != nil {
				writeFile(t, path, *tt.content)
			}

			got := LoadJSON(path)
			if got == nil {
				t.Fatal("LoadJSON() returned nil map")
			}
			if len(got) != tt.wantLen {
				t.Errorf("len(LoadJSON()) = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func ptr(s string) *string { return &s }
