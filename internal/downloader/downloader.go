package downloader

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/inovacc/stanup/internal/releases"
)

const (
	defaultRetries    = 5
	defaultRetryDelay = 2 * time.Second
)

// RetrieveError is returned when the requested version has no published
// archive on the release host.
type RetrieveError struct {
	Version    string
	URL        string
	StatusCode int
}

func (e *RetrieveError) Error() string {
	return fmt.Sprintf("version %s not available from github.com (status code: %d)", e.Version, e.StatusCode)
}

type OptsFunc func(*Downloader)

type Downloader struct {
	client     *releases.Client
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
}

// WithRetries sets how many times a transient download failure is retried.
func WithRetries(retries int) OptsFunc {
	return func(d *Downloader) {
		d.retries = retries
	}
}

func WithRetryDelay(delay time.Duration) OptsFunc {
	return func(d *Downloader) {
		d.retryDelay = delay
	}
}

func WithHTTPClient(httpClient *http.Client) OptsFunc {
	return func(d *Downloader) {
		d.httpClient = httpClient
	}
}

// NewDownloader creates a Downloader that fetches release archives located by
// the given release-host client.
func NewDownloader(client *releases.Client, opts ...OptsFunc) *Downloader {
	d := &Downloader{
		client:     client,
		httpClient: http.DefaultClient,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}

	for _, fn := range opts {
		fn(d)
	}
	return d
}

// RetrieveVersion downloads the release archive for a version into dest and
// returns the archive path and its sha256 digest. A version with no published
// archive fails with *RetrieveError; transient failures are retried.
func (d *Downloader) RetrieveVersion(ctx context.Context, version, dest string) (string, string, error) {
	if version == "" {
		return "", "", errors.New("version is empty")
	}

	downloadUrl := d.client.ArchiveURL(version)
	if _, err := url.Parse(downloadUrl); err != nil {
		return "", "", fmt.Errorf("error parsing url: %w", err)
	}

	destPath := filepath.Join(dest, releases.ArchiveName(version))

	var lastErr error
	for attempt := 1; attempt <= d.retries; attempt++ {
		digest, err := d.fetch(ctx, version, downloadUrl, destPath)
		if err == nil {
			return destPath, digest, nil
		}

		var retrieveErr *RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", "", err
		}

		lastErr = err
		slog.Warn("download attempt failed", "url", downloadUrl, "attempt", attempt, "error", err.Error())

		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(d.retryDelay):
		}
	}
	return "", "", fmt.Errorf("failed to download %s after %d attempts: %w", downloadUrl, d.retries, lastErr)
}

func (d *Downloader) fetch(ctx context.Context, version, downloadUrl, destPath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadUrl, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return "", &RetrieveError{Version: version, URL: downloadUrl, StatusCode: resp.StatusCode}
	default:
		return "", fmt.Errorf("failed to download file: %s, status code: %d", downloadUrl, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	h := sha256.New()

	teeReader := io.TeeReader(resp.Body, h)

	if _, err = io.Copy(out, teeReader); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Verify checks a downloaded archive against a known sha256 digest.
func Verify(path, wantSha256 string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err = io.Copy(h, f); err != nil {
		return err
	}

	if got := fmt.Sprintf("%x", h.Sum(nil)); got != wantSha256 {
		return fmt.Errorf("hash mismatch: expected %s, got %s", wantSha256, got)
	}
	return nil
}
