// ABOUTME: Recording downloader for analyzing files served over HTTP
// ABOUTME: Downloads to a temp cache keyed by URL hash, honoring the upload size limit
package client

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Fetcher downloads remote recordings
type Fetcher struct {
	cacheDir string
	client   *http.Client
	logger   *slog.Logger
}

// NewFetcher creates a fetcher caching under the OS temp dir
func NewFetcher(logger *slog.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cacheDir := filepath.Join(os.TempDir(), "stek-minutes-downloads")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Fetcher{
		cacheDir: cacheDir,
		client:   &http.Client{},
		logger:   logger,
	}, nil
}

// IsURL reports whether s should be fetched rather than read from disk
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads rawURL to the cache and returns the cached path. A
// previous download of the same URL is reused.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, limit int64, lang string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	hash := sha256.Sum256([]byte(rawURL))
	name := fmt.Sprintf("%x-%s", hash[:8], fileName(u))
	cachePath := filepath.Join(f.cacheDir, name)

	if info, err := os.Stat(cachePath); err == nil {
		if limit > 0 && info.Size() > limit {
			return "", &FileTooLargeError{Size: info.Size(), Limit: limit, Lang: lang}
		}
		f.logger.Debug("recording cache hit", "path", cachePath)
		return cachePath, nil
	}

	f.logger.Info("downloading recording", "url", rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("recording download failed: HTTP %d", resp.StatusCode)
	}
	if limit > 0 && resp.ContentLength > limit {
		return "", &FileTooLargeError{Size: resp.ContentLength, Limit: limit, Lang: lang}
	}

	tmp, err := os.CreateTemp(f.cacheDir, "partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var body io.Reader = resp.Body
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}
	n, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to save recording: %w", err)
	}
	if limit > 0 && n > limit {
		return "", &FileTooLargeError{Size: n, Limit: limit, Lang: lang}
	}

	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		return "", fmt.Errorf("failed to save recording: %w", err)
	}
	f.logger.Info("recording saved", "path", cachePath, "bytes", n)
	return cachePath, nil
}

// FetchJob downloads rawURL and loads it like ReadJob, naming the job after
// the URL's last path element
func (f *Fetcher) FetchJob(ctx context.Context, rawURL string, limit int64, lang string) (Job, error) {
	cached, err := f.Fetch(ctx, rawURL, limit, lang)
	if err != nil {
		return Job{}, err
	}
	job, err := ReadJob(cached, limit, lang)
	if err != nil {
		return Job{}, err
	}
	if u, err := url.Parse(rawURL); err == nil {
		job.FileName = fileName(u)
		job.MIMEType = MIMEType(job.FileName, job.Data)
	}
	return job, nil
}

// Cleanup removes every cached download
func (f *Fetcher) Cleanup() error {
	return os.RemoveAll(f.cacheDir)
}

// fileName keeps the URL's base name so the extension still hints the type
func fileName(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "recording"
	}
	return base
}
