// Package personas materializes the agent workspaces the gateway serves.
// The deployment ships three fixed personas; each gets a workspace
// directory under the state root with its instruction documents. Documents
// are written only when absent, so a restored snapshot always wins over
// the shipped defaults.
package personas

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Persona describes one agent: its identity and the instruction documents
// seeded into its workspace.
type Persona struct {
	ID        string
	Name      string
	Heartbeat string
	// Documents maps file names (e.g. AGENTS.md) to seed content.
	Documents map[string]string
}

// ValidateID rejects persona ids that cannot safely name a directory.
func ValidateID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("persona id cannot be empty")
	}
	if !idPattern.MatchString(trimmed) {
		return fmt.Errorf("invalid persona id %q: only [a-zA-Z0-9_-] is allowed", trimmed)
	}
	return nil
}

// Defaults returns the three personas this deployment ships.
func Defaults() []Persona {
	return []Persona{
		{
			ID:        "claw",
			Name:      "Claw",
			Heartbeat: "30m",
			Documents: map[string]string{
				"AGENTS.md": "# Claw\n\nYou are Claw, the coordinator of this deployment.\n" +
					"Triage incoming chat messages, answer what you can directly, and\n" +
					"hand design work to Pixel and research or recall work to Archie.\n" +
					"Keep replies short; long output belongs in the workspace.\n",
				"SOUL.md": "# Soul\n\nBe direct and dependable. When unsure, say so and say\n" +
					"what you would need to become sure. Never invent delivery status.\n",
				"IDENTITY.md": "# Identity\n\nName: Claw\nRole: coordinator\n",
			},
		},
		{
			ID:        "pixel",
			Name:      "Pixel",
			Heartbeat: "1h",
			Documents: map[string]string{
				"AGENTS.md": "# Pixel\n\nYou are Pixel, the resident image artist. Use the\n" +
					"image-generation skill in your skills directory for every render\n" +
					"request. Save outputs under workspace/renders and report the file\n" +
					"path back, never inline image data.\n",
				"SOUL.md": "# Soul\n\nTaste over speed. Ask for the missing detail (subject,\n" +
					"mood, format) before burning a render on a vague prompt.\n",
				"IDENTITY.md": "# Identity\n\nName: Pixel\nRole: image artist\n",
			},
		},
		{
			ID:        "archie",
			Name:      "Archie",
			Heartbeat: "2h",
			Documents: map[string]string{
				"AGENTS.md": "# Archie\n\nYou are Archie, the librarian. Keep the shared memory\n" +
					"directory organized: one topic per file, dated entries, no\n" +
					"duplicates. When another agent asks what we know, answer from\n" +
					"memory files and cite the file you used.\n",
				"SOUL.md": "# Soul\n\nAccuracy beats completeness. A short correct answer with\n" +
					"a source is worth more than a long reconstruction from guesswork.\n",
				"IDENTITY.md": "# Identity\n\nName: Archie\nRole: librarian\n",
			},
		},
	}
}

// WorkspaceDir returns the workspace directory for a persona. It lives
// inside the agents partition so agent state rides along in snapshots.
func WorkspaceDir(stateRoot, id string) string {
	return filepath.Join(stateRoot, "agents", id, "agent")
}

// SkillsDir returns where a persona's skill links live.
func SkillsDir(stateRoot, id string) string {
	return filepath.Join(WorkspaceDir(stateRoot, id), "skills")
}

// EnsureWorkspace creates the persona's workspace tree and seeds its
// instruction documents. Existing documents are left untouched.
func EnsureWorkspace(stateRoot string, p Persona) error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}

	ws := WorkspaceDir(stateRoot, p.ID)
	for _, dir := range []string{
		ws,
		filepath.Join(ws, "memory"),
		filepath.Join(ws, "skills"),
		filepath.Join(stateRoot, "workspace"),
		filepath.Join(stateRoot, "sessions"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	for name, content := range p.Documents {
		if err := ensureFile(filepath.Join(ws, name), content); err != nil {
			return err
		}
	}
	return nil
}

// EnsureAll materializes every persona workspace. Call after restore so
// restored documents are preserved.
func EnsureAll(stateRoot string, personas []Persona) error {
	for _, p := range personas {
		if err := EnsureWorkspace(stateRoot, p); err != nil {
			return fmt.Errorf("failed to provision persona %s: %w", p.ID, err)
		}
	}
	return nil
}

// ensureFile writes content to path only when nothing is there yet.
func ensureFile(path, content string) error {
	if info, err := os.Stat(path); err == nil {
		if !info.Mode().IsRegular() {
			return fmt.Errorf("path exists but is not a regular file: %s", path)
		}
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
