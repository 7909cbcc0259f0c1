// Package skills provisions agent skills: discovering bundles by their
// SKILL.md manifest, installing them into the shared install area, and
// wiring them into persona workspaces. The install area lives outside the
// backed-up partitions so a restored snapshot can never replace a freshly
// installed skill with a stale copy.
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file that marks a directory as a skill bundle.
const ManifestName = "SKILL.md"

// Skill is one installed or discoverable skill bundle.
type Skill struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version,omitempty"`
	// Dir is where the bundle lives on disk. Not part of the manifest.
	Dir string `yaml:"-"`
}

// LoadManifest reads the SKILL.md frontmatter of a bundle directory.
func LoadManifest(dir string) (Skill, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	front, err := frontmatter(string(data))
	if err != nil {
		return Skill{}, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	var skill Skill
	if err := yaml.Unmarshal([]byte(front), &skill); err != nil {
		return Skill{}, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if strings.TrimSpace(skill.Name) == "" {
		// Bundles without frontmatter fall back to their directory name.
		skill.Name = filepath.Base(dir)
	}
	skill.Dir = dir
	return skill, nil
}

// frontmatter extracts the YAML block between leading --- markers. A
// manifest without frontmatter yields an empty document, not an error.
func frontmatter(content string) (string, error) {
	lines := strings.SplitAfter(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", nil
	}
	var b strings.Builder
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "---" {
			return b.String(), nil
		}
		b.WriteString(line)
	}
	return "", fmt.Errorf("unterminated frontmatter")
}

// Discover returns every skill bundle directly under root. Directories
// without a manifest are skipped; they are not an error.
func Discover(root string) ([]Skill, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read skills directory %s: %w", root, err)
	}

	var found []Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestName)); err != nil {
			continue
		}
		skill, err := LoadManifest(dir)
		if err != nil {
			return nil, err
		}
		found = append(found, skill)
	}
	return found, nil
}
