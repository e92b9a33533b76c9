package templates

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/ghtraf/ghtraf/internal/output"
)

func newTestOutput(t *testing.T) (*output.Manager, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	m, err := output.NewManager(output.Options{Out: &out, Err: &out, NoColor: true})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, &out
}

func testSource() fstest.MapFS {
	return fstest.MapFS{
		"a.txt":     {Data: []byte("template a"), Mode: 0644},
		"sub/b.txt": {Data: []byte("template b"), Mode: 0644},
		"run.sh":    {Data: []byte("#!/bin/sh\n"), Mode: 0755},
	}
}

func writeExisting(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func content(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", rel, err)
	}
	return string(data)
}

func TestFS_ShipsEveryFile(t *testing.T) {
	for _, rel := range Files {
		data, err := fs.ReadFile(FS(), rel)
		if err != nil {
			t.Errorf("ReadFile(%s) error = %v", rel, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", rel)
		}
	}
}

func TestDeploy_FreshDirectory(t *testing.T) {
	dest := t.TempDir()
	out, buf := newTestOutput(t)
	d := &Deployer{Source: testSource(), Out: out}

	counts, err := d.Deploy(dest, []string{"a.txt", "sub/b.txt", "run.sh"}, PolicyDefault, false)
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if counts != (Counts{Copied: 3}) {
		t.Errorf("counts = %+v, want 3 copied", counts)
	}
	if got := content(t, dest, "sub/b.txt"); got != "template b" {
		t.Errorf("sub/b.txt = %q", got)
	}

	info, err := os.Stat(filepath.Join(dest, "run.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("run.sh mode = %v, want 0755", info.Mode().Perm())
	}
	if !strings.Contains(buf.String(), "[OK] sub/b.txt") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestDeploy_EmbeddedFilesAreWritable(t *testing.T) {
	dest := t.TempDir()
	out, _ := newTestOutput(t)

	counts, err := NewDeployer(out, nil).Deploy(dest, Files, PolicyDefault, false)
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if counts.Copied != len(Files) {
		t.Errorf("Copied = %d, want %d", counts.Copied, len(Files))
	}

	info, err := os.Stat(filepath.Join(dest, filepath.FromSlash(WorkflowFile)))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0200 == 0 {
		t.Errorf("workflow mode = %v, want owner-writable", info.Mode().Perm())
	}
}

func TestDeploy_Policies(t *testing.T) {
	tests := []struct {
		name        string
		policy      Policy
		confirm     OverwriteFunc
		dryRun      bool
		wantCounts  Counts
		wantContent string
		wantOutput  string
	}{
		{
			name:        "skip existing",
			policy:      PolicySkipExisting,
			wantCounts:  Counts{Copied: 2, Skipped: 1},
			wantContent: "custom",
			wantOutput:  "[SKIP] a.txt (already exists)",
		},
		{
			name:        "force",
			policy:      PolicyForce,
			wantCounts:  Counts{Copied: 3},
			wantContent: "template a",
		},
		{
			name:        "non-interactive keeps existing",
			policy:      PolicyDefault,
			wantCounts:  Counts{Copied: 2, Skipped: 1},
			wantContent: "custom",
			wantOutput:  "[SKIP] a.txt (already exists, non-interactive)",
		},
		{
			name:        "prompt yes",
			policy:      PolicyDefault,
			confirm:     func(string) (Choice, error) { return ChoiceYes, nil },
			wantCounts:  Counts{Copied: 3},
			wantContent: "template a",
		},
		{
			name:        "prompt no",
			policy:      PolicyDefault,
			confirm:     func(string) (Choice, error) { return ChoiceNo, nil },
			wantCounts:  Counts{Copied: 2, Skipped: 1},
			wantContent: "custom",
			wantOutput:  "[SKIP] a.txt (kept existing)",
		},
		{
			name:        "dry run reports prompt",
			policy:      PolicyDefault,
			confirm:     func(string) (Choice, error) { return ChoiceYes, nil },
			dryRun:      true,
			wantCounts:  Counts{Copied: 2, Skipped: 1},
			wantContent: "custom",
			wantOutput:  "[DRY RUN] Would prompt: a.txt already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := t.TempDir()
			writeExisting(t, dest, "a.txt", "custom")
			out, buf := newTestOutput(t)
			d := &Deployer{Source: testSource(), Confirm: tt.confirm, Out: out}

			counts, err := d.Deploy(dest, []string{"a.txt", "sub/b.txt", "run.sh"}, tt.policy, tt.dryRun)
			if err != nil {
				t.Fatalf("Deploy() error = %v", err)
			}
			if counts != tt.wantCounts {
				t.Errorf("counts = %+v, want %+v", counts, tt.wantCounts)
			}
			if got := content(t, dest, "a.txt"); got != tt.wantContent {
				t.Errorf("a.txt = %q, want %q", got, tt.wantContent)
			}
			if tt.wantOutput != "" && !strings.Contains(buf.String(), tt.wantOutput) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.wantOutput)
			}
		})
	}
}

func TestDeploy_OverwriteAllStopsPrompting(t *testing.T) {
	dest := t.TempDir()
	writeExisting(t, dest, "a.txt", "custom a")
	writeExisting(t, dest, "sub/b.txt", "custom b")
	out, _ := newTestOutput(t)

	var asked []string
	d := &Deployer{
		Source: testSource(),
		Confirm: func(rel string) (Choice, error) {
			asked = append(asked, rel)
			return ChoiceAll, nil
		},
		Out: out,
	}

	counts, err := d.Deploy(dest, []string{"a.txt", "sub/b.txt"}, PolicyDefault, false)
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if len(asked) != 1 || asked[0] != "a.txt" {
		t.Errorf("asked = %v, want only a.txt", asked)
	}
	if counts.Copied != 2 {
		t.Errorf("Copied = %d, want 2", counts.Copied)
	}
	if got := content(t, dest, "sub/b.txt"); got != "template b" {
		t.Errorf("sub/b.txt = %q, want overwritten", got)
	}
}

func TestDeploy_PromptError(t *testing.T) {
	dest := t.TempDir()
	writeExisting(t, dest, "a.txt", "custom")
	out, _ := newTestOutput(t)
	interrupted := errors.New("interrupted")

	d := &Deployer{
		Source:  testSource(),
		Confirm: func(string) (Choice, error) { return ChoiceNo, interrupted },
		Out:     out,
	}
	if _, err := d.Deploy(dest, []string{"a.txt"}, PolicyDefault, false); !errors.Is(err, interrupted) {
		t.Errorf("Deploy() error = %v, want %v", err, interrupted)
	}
}

func TestDeploy_MissingSourceIsWarning(t *testing.T) {
	dest := t.TempDir()
	out, buf := newTestOutput(t)
	d := &Deployer{Source: testSource(), Out: out}

	counts, err := d.Deploy(dest, []string{"gone.txt", "a.txt"}, PolicyDefault, false)
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if counts != (Counts{Copied: 1}) {
		t.Errorf("counts = %+v, want 1 copied", counts)
	}
	if !strings.Contains(buf.String(), "[WARN] Template not found: gone.txt") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestDeploy_DryRunWritesNothing(t *testing.T) {
	dest := t.TempDir()
	out, buf := newTestOutput(t)
	d := &Deployer{Source: testSource(), Out: out}

	counts, err := d.Deploy(dest, []string{"a.txt", "sub/b.txt"}, PolicyDefault, true)
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if counts.Copied != 2 {
		t.Errorf("Copied = %d, want 2", counts.Copied)
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("dry run created %d entries", len(entries))
	}
	if !strings.Contains(buf.String(), "[DRY RUN] Would copy: sub/b.txt") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestFS_Unknown(t *testing.T) {
	if _, err := fs.Stat(FS(), "docs/stats/nope.html"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat() error = %v, want fs.ErrNotExist", err)
	}
}
