// SPDX-License-Identifier: MPL-2.0

package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestCache_StoreOpen(t *testing.T) {
	t.Parallel()

	c := NewCache(filepath.Join(t.TempDir(), "nested", "cache"))
	name := "cef_binary_1.2.3+gabc+chromium-1.0.0.0_linux64.tar.bz2"

	if f, ok, err := c.Open(name); err != nil || ok || f != nil {
		t.Fatalf("Open() on empty cache = %v, %v, %v", f, ok, err)
	}

	if err := c.Store(name, []byte("data")); err != nil {
		t.Fatalf("Store() unexpected error: %v", err)
	}
	f, ok, err := c.Open(name)
	if err != nil || !ok {
		t.Fatalf("Open() = %v, %v; want hit", ok, err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "data" {
		t.Errorf("Open() contents = %q", data)
	}
	if err := c.Verify(name); err != nil {
		t.Errorf("Verify() unexpected error: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(c.Dir(), "*.tmp-*"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestCache_VerifyDetectsTampering(t *testing.T) {
	t.Parallel()

	c := NewCache(t.TempDir())
	name := "cef_binary_1_linux64.tar.bz2"
	if err := c.Store(name, []byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.Path(name), []byte("DATA"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Verify(name); !errors.Is(err, ErrDigestMismatch) {
		t.Errorf("Verify() error = %v, want ErrDigestMismatch", err)
	}
	if _, ok, _ := c.Open(name); ok {
		t.Error("Open() returned a tampered archive")
	}
}

func TestCache_StoreFailure(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewCache(blocker).Store("x.tar.bz2", []byte("data"))
	if !errors.Is(err, ErrCacheWrite) {
		t.Errorf("Store() error = %v, want ErrCacheWrite", err)
	}
	var cwErr *CacheWriteError
	if !errors.As(err, &cwErr) || cwErr.Path == "" {
		t.Errorf("Store() error = %#v, want *CacheWriteError with path", err)
	}
}

func TestCache_ListAndRemove(t *testing.T) {
	t.Parallel()

	c := NewCache(t.TempDir())
	names := []string{
		"cef_binary_90.6.7+g19ba721+chromium-90.0.4430.212_windows64.tar.bz2",
		"cef_binary_84.3.10+ga46056b+chromium-84.0.4147.105_linux64.tar.bz2",
		"cef_binary_100.0.1+gabc+chromium-100.0.4896.60_macosx64.tar.bz2",
	}
	for _, n := range names {
		if err := c.Store(n, []byte(n)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(c.Path("notes.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := c.List()
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	want := []string{names[1], names[0], names[2]}
	if len(entries) != len(want) {
		t.Fatalf("List() returned %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Name != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, e.Name, want[i])
		}
	}
	if entries[0].Identity.Version != "84.3.10+ga46056b+chromium-84.0.4147.105" {
		t.Errorf("List()[0].Identity = %+v", entries[0].Identity)
	}

	if err := c.Remove(names[1]); err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if _, err := os.Stat(c.Path(names[1]) + DigestSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("sidecar still present after Remove(): %v", err)
	}
	if err := c.Remove(names[1]); err != nil {
		t.Errorf("second Remove() error = %v, want nil", err)
	}
}

func TestCache_ListMissingDir(t *testing.T) {
	t.Parallel()

	entries, err := NewCache(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(entries) != 0 {
		t.Errorf("List() = %v, %v; want empty", entries, err)
	}
}
