// SPDX-License-Identifier: MPL-2.0

package source

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const (
	testBucket = "cef-mirror"
	testPrefix = "builds"
)

// s3Server is a path-style S3 endpoint serving objects from memory and
// recording the decoded keys it was asked for.
type s3Server struct {
	*httptest.Server

	mu      sync.Mutex
	objects map[string][]byte
	keys    []string
}

func newS3Server(t *testing.T, objects map[string][]byte) *s3Server {
	t.Helper()

	s := &s3Server{objects: objects}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		key, ok := strings.CutPrefix(r.URL.Path, "/"+testBucket+"/")
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
			return
		}

		s.mu.Lock()
		s.keys = append(s.keys, key)
		data, found := s.objects[key]
		s.mu.Unlock()

		if !found {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *s3Server) requestedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

func (s *s3Server) config() S3Config {
	return S3Config{
		Region:       "us-east-1",
		Endpoint:     s.URL,
		AccessKey:    "test",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>` + code +
		`</Code><Message>not found</Message><RequestId>test</RequestId></Error>`))
}

func TestS3Fetcher_Fetch(t *testing.T) {
	t.Parallel()

	key := testPrefix + "/" + testIdentity.ArchiveName()
	srv := newS3Server(t, map[string][]byte{key: []byte("s3 archive")})

	f, err := NewS3Fetcher(t.Context(), srv.config())
	if err != nil {
		t.Fatalf("NewS3Fetcher() error = %v", err)
	}

	locator := testIdentity.Locator("s3://" + testBucket + "/" + testPrefix)
	if !strings.Contains(locator, "%2B") {
		t.Fatalf("locator %q is not percent-encoded", locator)
	}
	data, err := f.Fetch(t.Context(), locator)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "s3 archive" {
		t.Errorf("Fetch() = %q, want %q", data, "s3 archive")
	}

	keys := srv.requestedKeys()
	if len(keys) != 1 || keys[0] != key {
		t.Fatalf("requested keys = %q, want [%q]", keys, key)
	}
	if !strings.Contains(keys[0], "+") {
		t.Errorf("key %q lost its '+' separators", keys[0])
	}
}

func TestS3Fetcher_MissingKey(t *testing.T) {
	t.Parallel()

	srv := newS3Server(t, map[string][]byte{})
	f, err := NewS3Fetcher(t.Context(), srv.config())
	if err != nil {
		t.Fatalf("NewS3Fetcher() error = %v", err)
	}

	locator := testIdentity.Locator("s3://" + testBucket + "/" + testPrefix)
	_, err = f.Fetch(t.Context(), locator)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Fetch() error = %v, want *TransportError", err)
	}
	if transportErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", transportErr.StatusCode)
	}
	if transportErr.Locator != locator {
		t.Errorf("Locator = %q, want %q", transportErr.Locator, locator)
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Fetch() error = %v, want ErrTransport", err)
	}
}

func TestS3Fetcher_BadLocator(t *testing.T) {
	t.Parallel()

	srv := newS3Server(t, map[string][]byte{})
	f, err := NewS3Fetcher(t.Context(), srv.config())
	if err != nil {
		t.Fatalf("NewS3Fetcher() error = %v", err)
	}

	_, err = f.Fetch(t.Context(), "s3://"+testBucket)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Fetch() error = %v, want ErrTransport", err)
	}
	if keys := srv.requestedKeys(); len(keys) != 0 {
		t.Errorf("bad locator reached the endpoint: %q", keys)
	}
}

func TestResolve_S3Mirror(t *testing.T) {
	t.Parallel()

	key := testPrefix + "/" + testIdentity.ArchiveName()
	srv := newS3Server(t, map[string][]byte{key: []byte("s3 archive")})
	cacheDir := t.TempDir()

	r := New(
		WithCacheDir(cacheDir),
		WithBaseURL("s3://"+testBucket+"/"+testPrefix+"/"),
		WithS3Config(srv.config()),
	)

	a, err := r.Resolve(t.Context(), testIdentity)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if a.Cached {
		t.Error("first Resolve() reported a cache hit")
	}
	if got := readAll(t, a); string(got) != "s3 archive" {
		t.Errorf("Resolve() bytes = %q", got)
	}

	again, err := r.Resolve(t.Context(), testIdentity)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	readAll(t, again)
	if !again.Cached {
		t.Error("second Resolve() did not use the cache")
	}
	if n := len(srv.requestedKeys()); n != 1 {
		t.Errorf("endpoint requests = %d, want 1", n)
	}
}
