package atomicfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWrite_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := Write(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q", data)
	}
}

func TestWrite_ReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	if err := Write(path, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Write(path, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "two" {
		t.Errorf("got %q, want two", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWrite_FailureKeepsPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	if err := Write(path, []byte("committed"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A directory in place of the target makes the rename fail.
	bad := filepath.Join(dir, "isdir")
	if err := os.MkdirAll(filepath.Join(bad, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Write(bad, []byte("x"), 0o644); err == nil {
		t.Fatal("expected rename over a non-empty directory to fail")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "committed" {
		t.Errorf("previous file changed: %q", data)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteJSON_NoSlashOrHTMLEscaping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	v := map[string]string{"url": "https://example.com/a?b=1&c=<d>"}
	if err := WriteJSON(path, v); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	s := string(data)
	if !strings.Contains(s, "https://example.com/a?b=1&c=<d>") {
		t.Errorf("value was escaped: %s", s)
	}
	if !strings.Contains(s, "\n    \"url\"") {
		t.Errorf("expected 4-space indentation: %s", s)
	}
}
