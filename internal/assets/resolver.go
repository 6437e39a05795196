package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"renderlane/internal/heygen"
	"renderlane/internal/logging"
)

var (
	// ErrNotFound indicates a local audio path that does not exist.
	ErrNotFound = errors.New("audio file not found")
	// ErrUnsupportedFormat indicates an extension outside the allow-list.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrUpload indicates the asset upload failed; callers may retry the
	// whole job at their own discretion.
	ErrUpload = errors.New("asset upload failed")
)

// contentTypes is the fixed extension allow-list. The remote service only
// documents audio/mpeg; the remaining types are known to work.
var contentTypes = map[string]string{
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".m4a": "audio/mp4",
	".aac": "audio/aac",
}

// Uploader is the slice of the remote client the resolver needs.
type Uploader interface {
	UploadAsset(ctx context.Context, contentType string, payload io.Reader) (string, error)
}

// Resolver converts AudioRefs into heygen.AudioSources.
type Resolver struct {
	uploader Uploader
	logger   *slog.Logger
}

// NewResolver constructs a Resolver backed by the given uploader.
func NewResolver(uploader Uploader, logger *slog.Logger) *Resolver {
	return &Resolver{
		uploader: uploader,
		logger:   logging.NewComponentLogger(logger, "asset-resolver"),
	}
}

// ContentTypeFor returns the upload content type for a local audio path.
func ContentTypeFor(path string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]
	return ct, ok
}

// Resolve produces the audio source the generate call will carry. Remote
// URLs pass through without any network call; local paths are validated and
// uploaded exactly once.
func (r *Resolver) Resolve(ctx context.Context, ref AudioRef) (heygen.AudioSource, error) {
	switch ref := ref.(type) {
	case RemoteURL:
		return heygen.AudioURL(string(ref)), nil
	case LocalPath:
		return r.resolveLocal(ctx, string(ref))
	default:
		return nil, fmt.Errorf("unknown audio reference %T", ref)
	}
}

func (r *Resolver) resolveLocal(ctx context.Context, path string) (heygen.AudioSource, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	contentType, ok := ContentTypeFor(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrNotFound, path, err)
	}
	defer file.Close()

	r.logger.Info("uploading audio asset",
		logging.String("path", path),
		logging.String("content_type", contentType),
		logging.Int64("size_bytes", info.Size()),
	)
	assetID, err := r.uploader.UploadAsset(ctx, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	r.logger.Info("audio asset uploaded", logging.String("asset_id", assetID))
	return heygen.AudioAssetID(assetID), nil
}
