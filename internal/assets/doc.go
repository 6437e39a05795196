// Package assets turns user-supplied audio references into inputs the remote
// generate call accepts.
//
// An AudioRef is what the user handed us: a local file path or a remote URL.
// The Resolver converts it into a heygen.AudioSource: URLs pass through
// untouched, local files are content-type checked against a fixed extension
// allow-list and uploaded once to obtain a server-issued asset id.
//
// Resolution failures are final from this package's point of view; retry by
// resubmission is the lane scheduler's call.
package assets
