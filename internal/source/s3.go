// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type (
	// S3Config selects the bucket endpoint and credentials for an S3 mirror.
	// Empty fields fall back to the default AWS credential chain and region.
	S3Config struct {
		Region       string
		Endpoint     string // custom endpoint, e.g. MinIO
		AccessKey    string
		SecretKey    string
		UsePathStyle bool
	}

	// S3Fetcher fetches s3://bucket/key locators from an S3-compatible store.
	S3Fetcher struct {
		client *s3.Client
	}
)

// NewS3Fetcher loads AWS configuration and creates an S3Fetcher.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Fetcher{client: client}, nil
}

// Fetch downloads the object addressed by an s3://bucket/key locator. The
// key is the percent-decoded URL path, so %2B in a locator names a '+' key.
func (f *S3Fetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	bucket, key, err := parseS3Locator(locator)
	if err != nil {
		return nil, &TransportError{Locator: locator, Err: err}
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		transportErr := &TransportError{Locator: locator, Err: err}
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			transportErr.StatusCode = respErr.HTTPStatusCode()
		}
		return nil, transportErr
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &TransportError{Locator: locator, Err: fmt.Errorf("reading object: %w", err)}
	}
	return data, nil
}

// parseS3Locator splits s3://bucket/key into its bucket and key.
func parseS3Locator(locator string) (bucket, key string, err error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", err
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("not an s3 locator: %q", locator)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 locator needs bucket and key: %q", locator)
	}
	return u.Host, key, nil
}
