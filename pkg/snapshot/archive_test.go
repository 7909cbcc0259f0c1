package snapshot

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readEntries(t *testing.T, archivePath string) map[string]string {
	t.Helper()
	f, err := os.Open(archivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer gz.Close()

	entries := map[string]string{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		content := ""
		if hdr.Typeflag == tar.TypeReg {
			data, err := io.ReadAll(tr)
			if err != nil {
				t.Fatalf("read %s: %v", hdr.Name, err)
			}
			content = string(data)
		}
		entries[hdr.Name] = content
	}
	return entries
}

func TestArchiveName(t *testing.T) {
	day := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)
	if got := ArchiveName(day); got != "backup_2024-06-01.tar.gz" {
		t.Fatalf("ArchiveName() = %q", got)
	}
}

func TestBuildAndExtractRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "workspace", "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "memory", "b.txt"), "beta")
	writeFile(t, filepath.Join(root, "memory", "notes", "c.txt"), "gamma")

	archive := filepath.Join(t.TempDir(), "backup_2024-06-01.tar.gz")
	if err := BuildArchive(root, DefaultPartitions, archive); err != nil {
		t.Fatalf("build: %v", err)
	}

	fresh := t.TempDir()
	if err := ExtractArchive(archive, fresh); err != nil {
		t.Fatalf("extract: %v", err)
	}

	for path, want := range map[string]string{
		filepath.Join(fresh, "workspace", "a.txt"):       "alpha",
		filepath.Join(fresh, "memory", "b.txt"):          "beta",
		filepath.Join(fresh, "memory", "notes", "c.txt"): "gamma",
	} {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected %s after restore: %v", path, err)
		}
		if string(got) != want {
			t.Fatalf("%s = %q, want %q", path, got, want)
		}
	}

	// Partitions that were absent at backup time must not materialize.
	for _, part := range []string{"sessions", "plugins", "agents"} {
		if _, err := os.Stat(filepath.Join(fresh, part)); !os.IsNotExist(err) {
			t.Fatalf("partition %s should not exist after restore", part)
		}
	}
}

func TestBuildSkipsNonPartitionContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "workspace", "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "skill-install", "SKILL.md"), "provisioned separately")

	archive := filepath.Join(t.TempDir(), "snap.tar.gz")
	if err := BuildArchive(root, DefaultPartitions, archive); err != nil {
		t.Fatalf("build: %v", err)
	}

	entries := readEntries(t, archive)
	for name := range entries {
		if name == "skill-install/" || name == "skill-install/SKILL.md" {
			t.Fatalf("skill install area leaked into archive: %s", name)
		}
	}
	if _, ok := entries["workspace/a.txt"]; !ok {
		t.Fatalf("expected workspace/a.txt in archive, have %v", entries)
	}
}

func TestBuildEmptyRootYieldsValidArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "empty.tar.gz")
	if err := BuildArchive(t.TempDir(), DefaultPartitions, archive); err != nil {
		t.Fatalf("build on empty root: %v", err)
	}
	if entries := readEntries(t, archive); len(entries) != 0 {
		t.Fatalf("expected zero entries, got %v", entries)
	}
	if err := ExtractArchive(archive, t.TempDir()); err != nil {
		t.Fatalf("extract of empty archive should succeed: %v", err)
	}
}

func TestEntryNamesAreRootRelative(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sessions", "s1.json"), "{}")

	archive := filepath.Join(t.TempDir(), "snap.tar.gz")
	if err := BuildArchive(root, []string{"sessions"}, archive); err != nil {
		t.Fatalf("build: %v", err)
	}
	entries := readEntries(t, archive)
	if _, ok := entries["sessions/s1.json"]; !ok {
		t.Fatalf("entry should be named sessions/s1.json, have %v", entries)
	}
	for name := range entries {
		if filepath.IsAbs(name) {
			t.Fatalf("absolute entry name leaked: %s", name)
		}
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.tar.gz")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	if err := tw.WriteHeader(&tar.Header{
		Name:     "../escape.txt",
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     4,
	}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write([]byte("oops")); err != nil {
		t.Fatalf("write body: %v", err)
	}
	tw.Close()
	gz.Close()
	f.Close()

	if err := ExtractArchive(archive, t.TempDir()); err == nil {
		t.Fatal("expected traversal entry to be rejected")
	}
}

func TestBuildPreservesSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "plugins", "real.txt"), "data")
	if err := os.Symlink("real.txt", filepath.Join(root, "plugins", "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	archive := filepath.Join(t.TempDir(), "snap.tar.gz")
	if err := BuildArchive(root, []string{"plugins"}, archive); err != nil {
		t.Fatalf("build: %v", err)
	}
	fresh := t.TempDir()
	if err := ExtractArchive(archive, fresh); err != nil {
		t.Fatalf("extract: %v", err)
	}
	target, err := os.Readlink(filepath.Join(fresh, "plugins", "link.txt"))
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != "real.txt" {
		t.Fatalf("symlink target = %q, want real.txt", target)
	}
}
