package musiccache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCachePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lyrics", "selections.list")

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := c.Get("dQw4w9WgXcQ"); ok {
		t.Fatal("expected empty cache")
	}

	if err := c.Add("dQw4w9WgXcQ", "42"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := c.Add("dQw4w9WgXcQ", "43"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := c.Add("other", "7"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if v, _ := reopened.Get("dQw4w9WgXcQ"); v != "43" {
		t.Errorf("expected latest value 43, got %q", v)
	}
	if v, _ := reopened.Get("other"); v != "7" {
		t.Errorf("expected 7, got %q", v)
	}
}

func TestCacheSkipsUnchangedAndInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selections.list")
	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	c.Add("k", "v")
	c.Add("k", "v")
	if err := c.Add("bad\nkey", "v"); err == nil {
		t.Error("expected error for key with newline")
	}

	data, _ := os.ReadFile(path)
	if n := strings.Count(string(data), "\n"); n != 1 {
		t.Errorf("expected one line on disk, got %d", n)
	}
}
