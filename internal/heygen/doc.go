// Package heygen wraps the remote avatar-video service API.
//
// The client covers the five endpoints the orchestration core needs: asset
// upload, video generation, status lookup, avatar listing, and remaining
// quota, plus the video list the account views use. Responses arrive in two
// envelope dialects (v1 endpoints signal success with code 100, v2 endpoints
// carry an error object); both are decoded here so callers only see typed
// results.
//
// The service is known to transiently return 5xx statuses and non-JSON bodies
// from the status endpoint. Those failures surface as *ServerError and
// *MalformedError respectively so the poller can budget them separately from
// generic transport errors.
package heygen
