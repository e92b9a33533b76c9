package templates

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ghtraf/ghtraf/internal/output"
)

// Policy decides what happens when a destination file already exists.
type Policy int

const (
	// PolicyDefault asks before overwriting, or skips when non-interactive.
	PolicyDefault Policy = iota
	// PolicyForce overwrites without asking.
	PolicyForce
	// PolicySkipExisting never overwrites.
	PolicySkipExisting
)

// Choice is an answer to an overwrite prompt.
type Choice int

const (
	ChoiceNo Choice = iota
	ChoiceYes
	// ChoiceAll overwrites this file and every later conflict.
	ChoiceAll
)

// OverwriteFunc asks whether to overwrite the existing file rel.
type OverwriteFunc func(rel string) (Choice, error)

// Counts tallies a deployment.
type Counts struct {
	Copied  int
	Skipped int
}

// Deployer copies shipped files into a target directory.
type Deployer struct {
	// Source holds the files to copy. Defaults to FS().
	Source fs.FS
	// Confirm is asked about existing files under PolicyDefault. Nil means
	// non-interactive: existing files are kept.
	Confirm OverwriteFunc
	Out     *output.Manager
}

// NewDeployer returns a Deployer over the shipped files.
func NewDeployer(out *output.Manager, confirm OverwriteFunc) *Deployer {
	return &Deployer{Source: FS(), Confirm: confirm, Out: out}
}

// Deploy copies files (slash-separated, relative to the source root) into
// dest. A source file that does not exist is reported and skipped without
// being counted. In dry-run mode nothing is written.
func (d *Deployer) Deploy(dest string, files []string, policy Policy, dryRun bool) (Counts, error) {
	var counts Counts
	overwriteAll := policy == PolicyForce

	for _, rel := range files {
		d.Out.Emit(output.LevelConfig, output.ChannelSetup, "Processing: {file}", "file", rel)

		info, err := fs.Stat(d.Source, rel)
		if err != nil {
			d.Out.Warnf("Template not found: %s", rel)
			continue
		}

		target := filepath.Join(dest, filepath.FromSlash(rel))
		if _, err := os.Stat(target); err == nil && !overwriteAll {
			write, err := d.resolveConflict(rel, policy, dryRun, &overwriteAll)
			if err != nil {
				return counts, err
			}
			if !write {
				counts.Skipped++
				continue
			}
		}

		if dryRun {
			d.Out.Dry(fmt.Sprintf("Would copy: %s", rel))
			counts.Copied++
			continue
		}

		if err := d.copyFile(rel, target, info.Mode().Perm()); err != nil {
			return counts, err
		}
		d.Out.OK(rel)
		d.Out.Emit(output.LevelConfig, output.ChannelSetup, "Copied {rel} -> {target}", "rel", rel, "target", target)
		counts.Copied++
	}

	return counts, nil
}

// resolveConflict reports whether an existing file should be overwritten,
// printing the skip reason when it should not.
func (d *Deployer) resolveConflict(rel string, policy Policy, dryRun bool, overwriteAll *bool) (bool, error) {
	switch {
	case policy == PolicySkipExisting:
		d.Out.Skip(fmt.Sprintf("%s (already exists)", rel))
		return false, nil
	case dryRun:
		d.Out.Dry(fmt.Sprintf("Would prompt: %s already exists", rel))
		return false, nil
	case d.Confirm == nil:
		d.Out.Skip(fmt.Sprintf("%s (already exists, non-interactive)", rel))
		return false, nil
	}

	choice, err := d.Confirm(rel)
	if err != nil {
		return false, err
	}
	switch choice {
	case ChoiceAll:
		*overwriteAll = true
		return true, nil
	case ChoiceYes:
		return true, nil
	default:
		d.Out.Skip(fmt.Sprintf("%s (kept existing)", rel))
		return false, nil
	}
}

// copyFile writes rel from the source to target, creating parent
// directories. The source mode is kept, made owner-writable so the file
// can be configured afterwards.
func (d *Deployer) copyFile(rel, target string, perm fs.FileMode) error {
	data, err := fs.ReadFile(d.Source, rel)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", rel, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}

	perm |= 0200
	if err := os.WriteFile(target, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	// WriteFile leaves the mode of an existing file alone.
	if err := os.Chmod(target, perm); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", target, err)
	}
	return nil
}
