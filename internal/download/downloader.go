package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"renderlane/internal/logging"
)

// ErrDownload tags any transport or I/O failure while fetching an artifact.
var ErrDownload = errors.New("download failed")

const (
	defaultTimeout   = 10 * time.Minute
	defaultExtension = ".mp4"
)

// Downloader streams remote artifacts to disk.
type Downloader struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the default HTTP client (useful for proxies and tests).
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// NewDownloader constructs a Downloader.
func NewDownloader(logger *slog.Logger, opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewComponentLogger(logger, "downloader"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads resultURL into destDir under a name derived from baseName
// (sanitized; fallback used when sanitization leaves nothing). It returns the
// final path written. Existing files are never overwritten.
func (d *Downloader) Fetch(ctx context.Context, resultURL, destDir, baseName, fallback string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output directory: %w", ErrDownload, err)
	}

	name := SanitizeBaseName(baseName)
	if name == "" {
		name = SanitizeBaseName(fallback)
	}
	if name == "" {
		name = "video"
	}
	dest := UniquePath(destDir, name, extensionFor(resultURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", ErrDownload, err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: http %d", ErrDownload, resp.StatusCode)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrDownload, dest, err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// Best effort: a partial file may remain, but it is never reported
		// as a successful download.
		_ = os.Remove(dest)
		return "", fmt.Errorf("%w: write %s: %w", ErrDownload, dest, err)
	}

	d.logger.Info("artifact downloaded",
		logging.String("path", dest),
		logging.Int64("size_bytes", written),
	)
	return dest, nil
}

// SanitizeBaseName reduces a candidate file name to a safe character set:
// letters, digits, dot, dash, and underscore; spaces become underscores and
// anything else is dropped.
func SanitizeBaseName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// UniquePath returns destDir/name+ext, appending _1, _2, ... until the name
// does not collide with an existing file.
func UniquePath(destDir, name, ext string) string {
	candidate := filepath.Join(destDir, name+ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
		candidate = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", name, i, ext))
	}
}

func extensionFor(resultURL string) string {
	parsed, err := url.Parse(resultURL)
	if err != nil {
		return defaultExtension
	}
	if ext := path.Ext(parsed.Path); ext != "" && len(ext) <= 5 {
		return ext
	}
	return defaultExtension
}
