package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "out.csv")

	if err := WriteFileAtomic(target, []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "a,b\n" {
		t.Fatalf("content mismatch: got %q", got)
	}

	if err := WriteFileAtomic(target, []byte("c,d\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "c,d\n" {
		t.Fatalf("overwrite mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temporary file left behind: %s", entry.Name())
		}
	}
}

func TestWriteTempIsInvisibleUntilPublished(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	tmpName, err := WriteTemp(target, []byte("x\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("expected target to be absent before publish, got %v", err)
	}
	if filepath.Dir(tmpName) != dir {
		t.Fatalf("temp file should live next to target, got %s", tmpName)
	}
	if err := Publish(tmpName, target); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(tmpName); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone after publish, got %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected target after publish: %v", err)
	}
}
