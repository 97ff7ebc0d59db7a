// SPDX-License-Identifier: MPL-2.0

package source

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/cefkit/cefkit/pkg/cefdist"
)

// DigestSuffix is appended to an archive name to form its digest sidecar.
const DigestSuffix = ".b3"

type (
	// Cache is a flat directory of archives keyed by archive file name.
	Cache struct {
		dir string
	}

	// Entry describes one cached archive.
	Entry struct {
		Name     string
		Identity cefdist.Identity // OptLevel is always empty
		Size     int64
		ModTime  time.Time
	}
)

// NewCache returns a cache rooted at dir. The directory is created on the
// first Store.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns where an archive with the given name is cached.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// Open returns the cached archive. ok is false when the file is missing or
// when a digest sidecar exists and the contents do not match it. A file
// without a sidecar is trusted.
func (c *Cache) Open(name string) (f *os.File, ok bool, err error) {
	path := c.Path(name)
	f, err = os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	want, err := readDigest(path + DigestSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return f, true, nil
	}
	if err != nil {
		f.Close()
		return nil, false, err
	}

	h := blake3.New()
	if _, err = io.Copy(h, f); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("hashing %s: %w", path, err)
	}
	if hex.EncodeToString(h.Sum(nil)) != want {
		f.Close()
		return nil, false, nil
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, false, err
	}
	return f, true, nil
}

// Verify reports whether the cached archive matches its digest sidecar.
// Archives without a sidecar verify trivially.
func (c *Cache) Verify(name string) error {
	f, ok, err := c.Open(name)
	if err != nil {
		return err
	}
	if !ok {
		if _, statErr := os.Stat(c.Path(name)); statErr != nil {
			return statErr
		}
		return ErrDigestMismatch
	}
	return f.Close()
}

// Store writes data and its digest sidecar. Both files are written to a
// temporary name first and renamed into place. The returned error, if any,
// is a *CacheWriteError.
func (c *Cache) Store(name string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return &CacheWriteError{Path: c.dir, Err: err}
	}

	path := c.Path(name)
	if err := writeAtomic(path, data); err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}

	sum := blake3.Sum256(data)
	sidecar := fmt.Sprintf("%s  %s\n", hex.EncodeToString(sum[:]), name)
	if err := writeAtomic(path+DigestSuffix, []byte(sidecar)); err != nil {
		return &CacheWriteError{Path: path + DigestSuffix, Err: err}
	}
	return nil
}

// List returns the cached archives ordered by CEF version, oldest first.
// Files that are not CEF archive names are ignored.
func (c *Cache) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		id, ok := cefdist.ParseArchiveName(de.Name())
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:     de.Name(),
			Identity: id,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cefdist.CompareVersions(a.Identity.Version, b.Identity.Version); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// Remove deletes a cached archive and its digest sidecar.
func (c *Cache) Remove(name string) error {
	path := c.Path(name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	if err := os.Remove(path + DigestSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path+DigestSuffix, err)
	}
	return nil
}

// readDigest returns the hex digest from a b3sum-style sidecar line.
func readDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty digest file %s", path)
	}
	return strings.ToLower(fields[0]), nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err = os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
