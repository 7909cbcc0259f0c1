package skills

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func zipBundle(t *testing.T, prefix string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		prefix + "SKILL.md":                  bananaManifest,
		prefix + "scripts/generate_image.py": "#!/usr/bin/env python3\n",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestDirectAdapterResolve(t *testing.T) {
	entry, err := (&DirectAdapter{}).Resolve("https://example.com/bundles/nano-banana-pro.zip")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.Name != "nano-banana-pro" {
		t.Fatalf("name = %q", entry.Name)
	}

	if _, err := (&DirectAdapter{}).Resolve("skills:whatever"); err == nil {
		t.Fatal("non-URL reference should not resolve directly")
	}
}

func TestSkillsShAdapterResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/skill/nano-banana-pro" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(CatalogEntry{
			Name: "nano-banana-pro",
			URL:  "https://example.com/nano-banana-pro.zip",
		})
	}))
	defer srv.Close()

	adapter := NewSkillsShAdapter()
	adapter.catalogURL = srv.URL

	entry, err := adapter.Resolve("skills:nano-banana-pro")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.URL != "https://example.com/nano-banana-pro.zip" {
		t.Fatalf("url = %q", entry.URL)
	}

	if _, err := adapter.Resolve("skills:missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestRegistryFallsThroughAdapters(t *testing.T) {
	reg := &Registry{}
	reg.Register(&DirectAdapter{})

	if _, err := reg.Resolve("skills:nope"); err == nil {
		t.Fatal("expected resolution failure")
	}
	entry, err := reg.Resolve("https://example.com/x.zip")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.Name != "x" {
		t.Fatalf("name = %q", entry.Name)
	}
}

func TestFetchExtractsAndVerifies(t *testing.T) {
	archive := zipBundle(t, "")
	sum := sha256.Sum256(archive)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	entry := &CatalogEntry{
		Name:   "nano-banana-pro",
		URL:    srv.URL + "/nano-banana-pro.zip",
		SHA256: hex.EncodeToString(sum[:]),
	}

	dest := t.TempDir()
	bundleDir, err := Fetch(entry, dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	skill, err := LoadManifest(bundleDir)
	if err != nil {
		t.Fatalf("LoadManifest on fetched bundle: %v", err)
	}
	if skill.Name != "nano-banana-pro" {
		t.Fatalf("name = %q", skill.Name)
	}
}

func TestFetchHandlesWrappedArchives(t *testing.T) {
	// GitHub archives wrap content in a repo-ref directory.
	archive := zipBundle(t, "repo-main/")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	bundleDir, err := Fetch(&CatalogEntry{Name: "wrapped", URL: srv.URL + "/repo.zip"}, t.TempDir())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Base(bundleDir) != "repo-main" {
		t.Fatalf("bundle dir = %q", bundleDir)
	}
}

func TestFetchChecksumMismatch(t *testing.T) {
	archive := zipBundle(t, "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	entry := &CatalogEntry{
		Name:   "nano-banana-pro",
		URL:    srv.URL + "/x.zip",
		SHA256: "deadbeef",
	}
	if _, err := Fetch(entry, t.TempDir()); err == nil {
		t.Fatal("expected checksum mismatch")
	}
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("../escape.txt")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	fmt.Fprint(w, "oops")
	zw.Close()

	if err := extractZip(buf.Bytes(), t.TempDir()); err == nil {
		t.Fatal("expected traversal entry to be rejected")
	}
}
