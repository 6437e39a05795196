// Package download fetches finished video artifacts to collision-free local
// paths.
//
// Destination names derive from the original audio reference's basename,
// sanitized to a safe character set with the remote job id as fallback. An
// existing file is never overwritten; a numeric suffix is appended until a
// free name is found. Failures surface as ErrDownload and never leave a
// partial file reported as success.
package download
