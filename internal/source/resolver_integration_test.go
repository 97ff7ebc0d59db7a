// SPDX-License-Identifier: MPL-2.0

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// checkTestcontainersAvailable reports whether a container provider can be
// reached. Provider detection may panic when no engine is installed.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// TestResolve_Integration fetches an archive from a static nginx mirror,
// exercising the real percent-encoded locator against a real web server.
func TestResolve_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping integration test: testcontainers provider not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	payload := []byte("mirrored archive")
	staged := filepath.Join(t.TempDir(), testIdentity.ArchiveName())
	if err := os.WriteFile(staged, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	nginx, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nginx:1.27-alpine",
			ExposedPorts: []string{"80/tcp"},
			Files: []testcontainers.ContainerFile{{
				HostFilePath:      staged,
				ContainerFilePath: "/usr/share/nginx/html/" + testIdentity.ArchiveName(),
				FileMode:          0o644,
			}},
			WaitingFor: wait.ForHTTP("/").WithPort("80/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, nginx)
	if err != nil {
		t.Fatalf("starting nginx: %v", err)
	}

	host, err := nginx.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := nginx.MappedPort(ctx, "80/tcp")
	if err != nil {
		t.Fatal(err)
	}
	baseURL := fmt.Sprintf("http://%s:%s/", host, port.Port())

	cacheDir := t.TempDir()
	r := New(WithCacheDir(cacheDir), WithBaseURL(baseURL))

	a, err := r.Resolve(ctx, testIdentity)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got := readAll(t, a); string(got) != string(payload) {
		t.Errorf("Resolve() bytes = %q, want %q", got, payload)
	}
	if err := r.Cache().Verify(testIdentity.ArchiveName()); err != nil {
		t.Errorf("cached archive does not verify: %v", err)
	}

	missing := testIdentity
	missing.Version = "0.0.1"
	if _, err := r.Resolve(ctx, missing); err == nil {
		t.Error("Resolve() of a missing archive succeeded")
	}
}

// TestResolve_S3Integration fetches an archive from a MinIO bucket through an
// s3:// base URL, with the object stored under its literal '+' key.
func TestResolve_S3Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping integration test: testcontainers provider not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	const (
		user     = "cefkit"
		password = "cefkit-secret"
	)
	minio, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:RELEASE.2024-10-13T13-34-11Z",
			Cmd:          []string{"server", "/data"},
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     user,
				"MINIO_ROOT_PASSWORD": password,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, minio)
	if err != nil {
		t.Fatalf("starting minio: %v", err)
	}

	host, err := minio.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := minio.MappedPort(ctx, "9000/tcp")
	if err != nil {
		t.Fatal(err)
	}
	cfg := S3Config{
		Region:       "us-east-1",
		Endpoint:     fmt.Sprintf("http://%s:%s", host, port.Port()),
		AccessKey:    user,
		SecretKey:    password,
		UsePathStyle: true,
	}

	seed, err := NewS3Fetcher(ctx, cfg)
	if err != nil {
		t.Fatalf("NewS3Fetcher() error = %v", err)
	}
	if _, err := seed.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(testBucket)}); err != nil {
		t.Fatalf("creating bucket: %v", err)
	}
	payload := []byte("mirrored archive")
	if _, err := seed.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(testBucket),
		Key:    aws.String(testPrefix + "/" + testIdentity.ArchiveName()),
		Body:   bytes.NewReader(payload),
	}); err != nil {
		t.Fatalf("uploading archive: %v", err)
	}

	r := New(WithCacheDir(t.TempDir()), WithBaseURL("s3://"+testBucket+"/"+testPrefix), WithS3Config(cfg))
	a, err := r.Resolve(ctx, testIdentity)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got := readAll(t, a); string(got) != string(payload) {
		t.Errorf("Resolve() bytes = %q, want %q", got, payload)
	}

	missing := testIdentity
	missing.Version = "0.0.1"
	_, err = r.Resolve(ctx, missing)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || transportErr.StatusCode != 404 {
		t.Errorf("Resolve() of a missing object error = %v, want a 404 *TransportError", err)
	}
}
