package skills

import (
	"os"
	"path/filepath"
	"testing"
)

const bananaManifest = `---
name: nano-banana-pro
description: Generate and edit images with the Nano Banana Pro API.
version: "1.2.0"
---

# Nano Banana Pro

Run scripts/generate_image.py with a prompt and an output path.
`

func writeBundle(t *testing.T, dir, manifest string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "scripts"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scripts", "generate_image.py"), []byte("#!/usr/bin/env python3\n"), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nano-banana-pro")
	writeBundle(t, dir, bananaManifest)

	skill, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if skill.Name != "nano-banana-pro" {
		t.Fatalf("name = %q", skill.Name)
	}
	if skill.Version != "1.2.0" {
		t.Fatalf("version = %q", skill.Version)
	}
	if skill.Dir != dir {
		t.Fatalf("dir = %q", skill.Dir)
	}
}

func TestLoadManifestWithoutFrontmatter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plain-skill")
	writeBundle(t, dir, "# Plain Skill\n\nNo frontmatter here.\n")

	skill, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if skill.Name != "plain-skill" {
		t.Fatalf("fallback name = %q, want directory name", skill.Name)
	}
}

func TestLoadManifestUnterminatedFrontmatter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "broken")
	writeBundle(t, dir, "---\nname: broken\n")
	if _, err := LoadManifest(dir); err == nil {
		t.Fatal("expected error for unterminated frontmatter")
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, filepath.Join(root, "nano-banana-pro"), bananaManifest)
	writeBundle(t, filepath.Join(root, "other"), "---\nname: other\ndescription: x\n---\n")
	// A directory without a manifest is not a skill.
	if err := os.MkdirAll(filepath.Join(root, "not-a-skill"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	found, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 skills, got %d", len(found))
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	found, err := Discover(filepath.Join(t.TempDir(), "nope"))
	if err != nil || found != nil {
		t.Fatalf("missing root should discover nothing: %v, %v", found, err)
	}
}

func TestInstallReplacesPreviousVersion(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "nano-banana-pro")
	writeBundle(t, bundle, bananaManifest)

	installRoot := t.TempDir()
	skill, err := Install(bundle, installRoot)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if skill.Dir != filepath.Join(installRoot, "nano-banana-pro") {
		t.Fatalf("installed dir = %q", skill.Dir)
	}

	// A stale file from a previous install must not survive a reinstall.
	stale := filepath.Join(skill.Dir, "stale.txt")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatalf("write stale: %v", err)
	}
	if _, err := Install(bundle, installRoot); err != nil {
		t.Fatalf("reinstall: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale file survived reinstall")
	}
	if _, err := os.Stat(filepath.Join(skill.Dir, "scripts", "generate_image.py")); err != nil {
		t.Fatalf("script missing after reinstall: %v", err)
	}
}

func TestInstallRejectsOverlappingBundle(t *testing.T) {
	installRoot := t.TempDir()
	bundle := filepath.Join(installRoot, "nano-banana-pro")
	writeBundle(t, bundle, bananaManifest)

	if _, err := Install(bundle, installRoot); err == nil {
		t.Fatal("expected error installing a bundle onto itself")
	}
}

func TestWireSymlinksIntoWorkspace(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "nano-banana-pro")
	writeBundle(t, bundle, bananaManifest)
	skill, err := Install(bundle, t.TempDir())
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	wsSkills := filepath.Join(t.TempDir(), "agent", "skills")
	if err := Wire(skill, wsSkills); err != nil {
		t.Fatalf("Wire: %v", err)
	}

	linked := filepath.Join(wsSkills, "nano-banana-pro")
	if _, err := os.Stat(filepath.Join(linked, ManifestName)); err != nil {
		t.Fatalf("manifest not reachable through wiring: %v", err)
	}

	// Wiring twice is a no-op, not an error.
	if err := Wire(skill, wsSkills); err != nil {
		t.Fatalf("re-wire: %v", err)
	}
}

func TestWireAll(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "nano-banana-pro")
	writeBundle(t, bundle, bananaManifest)
	skill, err := Install(bundle, t.TempDir())
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	dirs := []string{
		filepath.Join(t.TempDir(), "claw", "skills"),
		filepath.Join(t.TempDir(), "pixel", "skills"),
	}
	if err := WireAll([]Skill{skill}, dirs); err != nil {
		t.Fatalf("WireAll: %v", err)
	}
	for _, dir := range dirs {
		if _, err := os.Stat(filepath.Join(dir, "nano-banana-pro", ManifestName)); err != nil {
			t.Fatalf("skill not wired into %s: %v", dir, err)
		}
	}
}

func TestCopyTreeFallback(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	writeBundle(t, src, bananaManifest)

	dst := filepath.Join(t.TempDir(), "dst")
	if err := copyTree(src, dst); err != nil {
		t.Fatalf("copyTree: %v", err)
	}
	info, err := os.Stat(filepath.Join(dst, "scripts", "generate_image.py"))
	if err != nil {
		t.Fatalf("copied script missing: %v", err)
	}
	if info.Mode().Perm()&0100 == 0 {
		t.Fatal("execute bit lost in copy")
	}
}
