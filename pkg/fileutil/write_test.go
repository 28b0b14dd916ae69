package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lyrics.lrc")

	if err := WriteFileOverwrite(path, []byte("first version"), 0644); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := WriteFileOverwrite(path, []byte("second"), 0644); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("expected file to be overwritten, got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(`a/b:c*d?"e"<f>|g\h`); got != "a-b-c-d--e--f--g-h" {
		t.Errorf("unexpected sanitized name %q", got)
	}
}
