package skills

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tianmingyun/huggingface-openclaw/pkg/log"
)

const (
	// SkillsShCatalogURL is the default skills.sh catalog endpoint.
	SkillsShCatalogURL = "https://catalog.skills.sh"
	// catalogRequestTimeout bounds catalog and archive requests.
	catalogRequestTimeout = 30 * time.Second
)

// CatalogEntry is a resolvable skill: where to fetch it and how to verify
// the download.
type CatalogEntry struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	SHA256      string `json:"sha256,omitempty"`
	Version     string `json:"version,omitempty"`
}

// Adapter resolves a skill reference to a downloadable entry.
type Adapter interface {
	Resolve(ref string) (*CatalogEntry, error)
	Name() string
}

// SkillsShAdapter resolves skills:<package> references against the
// skills.sh catalog.
type SkillsShAdapter struct {
	client     *http.Client
	catalogURL string
}

// NewSkillsShAdapter creates an adapter for the public skills.sh catalog.
func NewSkillsShAdapter() *SkillsShAdapter {
	return &SkillsShAdapter{
		client:     &http.Client{Timeout: catalogRequestTimeout},
		catalogURL: SkillsShCatalogURL,
	}
}

// Resolve looks up a skills:<package> reference.
func (a *SkillsShAdapter) Resolve(ref string) (*CatalogEntry, error) {
	if !strings.HasPrefix(ref, "skills:") {
		return nil, fmt.Errorf("invalid skills.sh reference: %s (must start with 'skills:')", ref)
	}
	pkg := strings.TrimPrefix(ref, "skills:")
	if pkg == "" {
		return nil, fmt.Errorf("empty package name in skills.sh reference")
	}

	entryURL := fmt.Sprintf("%s/skill/%s", a.catalogURL, pkg)
	resp, err := a.client.Get(entryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog entry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("package not found in skills.sh catalog: %s", pkg)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("skills.sh catalog returned HTTP %d: %s", resp.StatusCode, body)
	}

	var entry CatalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to parse catalog response: %w", err)
	}
	if entry.URL == "" {
		return nil, fmt.Errorf("catalog entry missing URL for package: %s", pkg)
	}
	return &entry, nil
}

func (a *SkillsShAdapter) Name() string { return "skills.sh" }

// DirectAdapter treats an https zip URL as its own catalog entry.
type DirectAdapter struct{}

// Resolve accepts any https URL ending in .zip.
func (a *DirectAdapter) Resolve(ref string) (*CatalogEntry, error) {
	if !strings.HasPrefix(ref, "https://") || !strings.HasSuffix(ref, ".zip") {
		return nil, fmt.Errorf("not a direct archive reference: %s", ref)
	}
	name := strings.TrimSuffix(filepath.Base(ref), ".zip")
	return &CatalogEntry{Name: name, URL: ref, Description: "direct archive"}, nil
}

func (a *DirectAdapter) Name() string { return "direct" }

// Registry tries adapters in registration order and returns the first
// successful resolution.
type Registry struct {
	adapters []Adapter
}

// NewRegistry returns a registry with the default adapters.
func NewRegistry() *Registry {
	return &Registry{adapters: []Adapter{&DirectAdapter{}, NewSkillsShAdapter()}}
}

// Register appends an adapter.
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// Resolve resolves ref via the registered adapters.
func (r *Registry) Resolve(ref string) (*CatalogEntry, error) {
	var lastErr error
	for _, adapter := range r.adapters {
		entry, err := adapter.Resolve(ref)
		if err == nil {
			return entry, nil
		}
		lastErr = err
		log.Debug("catalog adapter failed to resolve", "adapter", adapter.Name(), "ref", ref, "error", err)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all catalog adapters failed: %w", lastErr)
	}
	return nil, fmt.Errorf("no catalog adapters registered")
}

// Fetch downloads the entry's zip archive, verifies its checksum when the
// entry carries one, and extracts it into destDir. It returns the bundle
// directory containing the skill manifest.
func Fetch(entry *CatalogEntry, destDir string) (string, error) {
	client := &http.Client{Timeout: catalogRequestTimeout}
	resp, err := client.Get(entry.URL)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", entry.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %s returned HTTP %d", entry.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read archive: %w", err)
	}

	if entry.SHA256 != "" {
		sum := sha256.Sum256(data)
		if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, entry.SHA256) {
			return "", fmt.Errorf("checksum mismatch for %s: got %s, want %s", entry.Name, got, entry.SHA256)
		}
	}

	if err := extractZip(data, destDir); err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}

	return findBundleDir(destDir)
}

// extractZip unpacks archive bytes into destDir, refusing entries that
// escape it.
func extractZip(data []byte, destDir string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	for _, file := range reader.File {
		clean := filepath.Clean(filepath.FromSlash(file.Name))
		if filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
			return fmt.Errorf("archive entry escapes destination: %s", file.Name)
		}
		target := filepath.Join(destDir, clean)

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		in, err := file.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode().Perm())
		if err != nil {
			in.Close()
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			in.Close()
			out.Close()
			return err
		}
		in.Close()
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}

// findBundleDir locates the directory holding the skill manifest inside
// an extracted archive: either the root itself or a single wrapping
// directory, the layout GitHub archives use.
func findBundleDir(root string) (string, error) {
	if _, err := os.Stat(filepath.Join(root, ManifestName)); err == nil {
		return root, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", err
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	if len(dirs) == 1 {
		nested := filepath.Join(root, dirs[0])
		if _, err := os.Stat(filepath.Join(nested, ManifestName)); err == nil {
			return nested, nil
		}
	}
	return "", fmt.Errorf("no %s found in extracted archive", ManifestName)
}
