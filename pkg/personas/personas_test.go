package personas

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	valid := []string{"claw", "pixel", "archie", "agent_2", "dev-1"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Fatalf("expected valid id %q, got error: %v", id, err)
		}
	}

	invalid := []string{"", "a b", "a/b", "a.b", "../escape"}
	for _, id := range invalid {
		if err := ValidateID(id); err == nil {
			t.Fatalf("expected invalid id %q", id)
		}
	}
}

func TestDefaultsAreThreeValidPersonas(t *testing.T) {
	defaults := Defaults()
	if len(defaults) != 3 {
		t.Fatalf("expected 3 personas, got %d", len(defaults))
	}
	for _, p := range defaults {
		if err := ValidateID(p.ID); err != nil {
			t.Fatalf("persona %q: %v", p.ID, err)
		}
		for _, doc := range []string{"AGENTS.md", "SOUL.md", "IDENTITY.md"} {
			if _, ok := p.Documents[doc]; !ok {
				t.Fatalf("persona %s missing %s", p.ID, doc)
			}
		}
	}
}

func TestEnsureAllCreatesLayout(t *testing.T) {
	root := t.TempDir()
	if err := EnsureAll(root, Defaults()); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	for _, p := range Defaults() {
		ws := WorkspaceDir(root, p.ID)
		for _, path := range []string{
			ws,
			filepath.Join(ws, "memory"),
			filepath.Join(ws, "skills"),
			filepath.Join(ws, "AGENTS.md"),
			filepath.Join(ws, "SOUL.md"),
			filepath.Join(ws, "IDENTITY.md"),
		} {
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("expected %s to exist: %v", path, err)
			}
		}
	}

	// Shared partitions exist too.
	for _, dir := range []string{"workspace", "sessions"} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Fatalf("expected shared %s dir: %v", dir, err)
		}
	}
}

func TestEnsureWorkspacePreservesRestoredDocuments(t *testing.T) {
	root := t.TempDir()
	p := Defaults()[0]

	// Simulate a restored snapshot carrying an edited document.
	ws := WorkspaceDir(root, p.ID)
	if err := os.MkdirAll(ws, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	edited := "# Claw\n\nEdited by the agent last week.\n"
	if err := os.WriteFile(filepath.Join(ws, "AGENTS.md"), []byte(edited), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := EnsureWorkspace(root, p); err != nil {
		t.Fatalf("EnsureWorkspace: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(ws, "AGENTS.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != edited {
		t.Fatal("restored document was overwritten by the seed")
	}

	// Missing documents are still seeded.
	soul, err := os.ReadFile(filepath.Join(ws, "SOUL.md"))
	if err != nil {
		t.Fatalf("SOUL.md should be seeded: %v", err)
	}
	if !strings.Contains(string(soul), "Soul") {
		t.Fatalf("unexpected seed content: %q", soul)
	}
}

func TestEnsureWorkspaceRejectsBadID(t *testing.T) {
	p := Persona{ID: "../evil"}
	if err := EnsureWorkspace(t.TempDir(), p); err == nil {
		t.Fatal("expected invalid id to be rejected")
	}
}
