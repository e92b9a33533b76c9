package templates

import (
	"path/filepath"

	"github.com/ghtraf/ghtraf/internal/config"
	"github.com/ghtraf/ghtraf/internal/output"
)

// ConfirmParentFunc asks whether to deploy into a git root found above the
// working directory.
type ConfirmParentFunc func(gitRoot string) (bool, error)

// DiscoverTargetDir picks the directory to deploy into, in order:
//  1. explicit, when set
//  2. the directory holding the nearest .ghtraf.json above cwd
//  3. the nearest git root above cwd; a root other than cwd itself needs
//     confirmation, and a nil confirm accepts it with a warning
//  4. cwd
func DiscoverTargetDir(explicit, cwd string, confirm ConfirmParentFunc, out *output.Manager) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}

	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return "", err
	}

	if path, ok := config.FindProjectFile(cwd); ok {
		return filepath.Dir(path), nil
	}

	root, ok := config.FindGitRoot(cwd)
	if !ok || root == cwd {
		return cwd, nil
	}

	if confirm == nil {
		out.Warnf("Using parent git repo: %s (no .ghtraf.json in current directory)", root)
		return root, nil
	}

	useRoot, err := confirm(root)
	if err != nil {
		return "", err
	}
	if !useRoot {
		out.Infof("  Using current directory instead: %s", cwd)
		return cwd, nil
	}
	return root, nil
}
