package skills

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tianmingyun/huggingface-openclaw/pkg/pathutil"
)

// Install copies the bundle at bundleDir into installRoot under the
// skill's manifest name, replacing any previous install of the same skill.
// The fresh bundle always wins; this is why the install area is excluded
// from snapshots.
func Install(bundleDir, installRoot string) (Skill, error) {
	skill, err := LoadManifest(bundleDir)
	if err != nil {
		return Skill{}, err
	}

	dest := filepath.Join(installRoot, skill.Name)
	if pathutil.PathOverlaps(bundleDir, dest) {
		return Skill{}, fmt.Errorf("bundle %s overlaps install target %s", bundleDir, dest)
	}
	if err := os.RemoveAll(dest); err != nil {
		return Skill{}, fmt.Errorf("failed to clear previous install of %s: %w", skill.Name, err)
	}
	if err := copyTree(bundleDir, dest); err != nil {
		return Skill{}, fmt.Errorf("failed to install skill %s: %w", skill.Name, err)
	}

	skill.Dir = dest
	return skill, nil
}

// Wire makes an installed skill visible inside a workspace skills
// directory, preferring a symlink and degrading to a copy on filesystems
// without symlink support. Re-wiring an already wired skill is a no-op
// for links and a refresh for copies.
func Wire(skill Skill, workspaceSkillsDir string) error {
	if err := os.MkdirAll(workspaceSkillsDir, 0755); err != nil {
		return fmt.Errorf("failed to create skills directory %s: %w", workspaceSkillsDir, err)
	}

	target := filepath.Join(workspaceSkillsDir, skill.Name)
	if existing, err := os.Readlink(target); err == nil && existing == skill.Dir {
		return nil
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to clear %s: %w", target, err)
	}

	if err := os.Symlink(skill.Dir, target); err == nil {
		return nil
	}
	if err := copyTree(skill.Dir, target); err != nil {
		return fmt.Errorf("failed to copy skill %s into workspace: %w", skill.Name, err)
	}
	return nil
}

// WireAll wires every skill into every workspace skills directory.
func WireAll(installed []Skill, workspaceSkillsDirs []string) error {
	for _, dir := range workspaceSkillsDirs {
		for _, skill := range installed {
			if err := Wire(skill, dir); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyTree copies a directory tree, preserving file modes and symlinks.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			in, err := os.Open(path)
			if err != nil {
				return err
			}
			defer in.Close()
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, in); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		}
	})
}
