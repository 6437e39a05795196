package assets

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// AudioRef is the user-supplied audio input: a local file path or a remote
// URL. The two constructors are the only way to build one.
type AudioRef interface {
	isAudioRef()
	// Basename returns the reference's file name without extension, for
	// deriving artifact names. May be empty for opaque URLs.
	Basename() string
	// Describe returns a short human-readable form for logs and journals.
	Describe() string
}

// LocalPath references an audio file on the local filesystem.
type LocalPath string

func (LocalPath) isAudioRef() {}

func (p LocalPath) Basename() string {
	base := filepath.Base(string(p))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p LocalPath) Describe() string { return "file:" + string(p) }

// RemoteURL references a publicly reachable audio file.
type RemoteURL string

func (RemoteURL) isAudioRef() {}

func (u RemoteURL) Basename() string {
	parsed, err := url.Parse(string(u))
	if err != nil {
		return ""
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func (u RemoteURL) Describe() string { return "url:" + string(u) }

// ParseAudioRef disambiguates a raw input string. Scheme-prefixed inputs are
// URLs; everything else is treated as a local path, with filesystem existence
// checked later by the resolver rather than here.
func ParseAudioRef(input string) AudioRef {
	trimmed := strings.TrimSpace(input)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return RemoteURL(trimmed)
	}
	return LocalPath(trimmed)
}
