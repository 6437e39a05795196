package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// StatusReply is one scripted answer from the fake status endpoint. The last
// reply repeats for any further polls.
type StatusReply struct {
	Status string
	Error  string
	// HTTPStatus, when nonzero, overrides the response with a bare status
	// code and RawBody (for exercising 5xx and non-JSON handling).
	HTTPStatus int
	RawBody    string
}

// FakeRemote is an httptest-backed stand-in for the generation service. Set
// the exported fields before the first request; counters and captured values
// are safe to read after requests complete.
type FakeRemote struct {
	UploadID string
	JobID    string
	Statuses []StatusReply
	Avatars  []string
	Photos   []string
	Quota    float64
	Videos   []map[string]any
	Artifact []byte

	server *httptest.Server

	mu            sync.Mutex
	uploadCalls   int
	generateCalls int
	statusCalls   int
	lastAPIKey    string
	lastUploadCT  string
	uploadedBytes int64
}

// NewFakeRemote starts a fake service with a typical happy-path script: one
// asset id, one job id, two "processing" polls then "completed" pointing at a
// small served artifact.
func NewFakeRemote(t testing.TB) *FakeRemote {
	t.Helper()

	f := &FakeRemote{
		UploadID: "ast_1",
		JobID:    "job_1",
		Statuses: []StatusReply{
			{Status: "processing"},
			{Status: "processing"},
			{Status: "completed"},
		},
		Avatars:  []string{"anna_public_3"},
		Quota:    120,
		Artifact: []byte("fake video bytes"),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the fake service's base URL.
func (f *FakeRemote) URL() string { return f.server.URL }

// ArtifactURL returns where the finished video is served.
func (f *FakeRemote) ArtifactURL() string { return f.server.URL + "/artifact/render.mp4" }

// UploadCalls returns how many asset uploads were received.
func (f *FakeRemote) UploadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadCalls
}

// StatusCalls returns how many status polls were received.
func (f *FakeRemote) StatusCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

// GenerateCalls returns how many generate requests were received.
func (f *FakeRemote) GenerateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateCalls
}

// LastAPIKey returns the X-Api-Key header from the most recent request.
func (f *FakeRemote) LastAPIKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAPIKey
}

// LastUploadContentType returns the Content-Type of the most recent upload.
func (f *FakeRemote) LastUploadContentType() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUploadCT
}

func (f *FakeRemote) handle(w http.ResponseWriter, r *http.Request) {
	// Artifact downloads are unauthenticated and must not clobber the
	// credential recorded from the API calls.
	if !strings.HasPrefix(r.URL.Path, "/artifact/") {
		f.mu.Lock()
		f.lastAPIKey = r.Header.Get("X-Api-Key")
		f.mu.Unlock()
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/asset":
		f.handleUpload(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/v2/video/generate":
		f.handleGenerate(w)
	case r.URL.Path == "/v1/video_status.get":
		f.handleStatus(w)
	case r.URL.Path == "/v2/avatars":
		f.handleAvatars(w)
	case r.URL.Path == "/v2/user/remaining_quota":
		writeJSON(w, map[string]any{"data": map[string]any{"remaining_quota": f.Quota}})
	case r.URL.Path == "/v1/video.list":
		writeJSON(w, map[string]any{"code": 100, "data": map[string]any{"videos": f.Videos, "token": ""}})
	case r.URL.Path == "/artifact/render.mp4":
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write(f.Artifact)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeRemote) handleUpload(w http.ResponseWriter, r *http.Request) {
	n, _ := io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.uploadCalls++
	f.lastUploadCT = r.Header.Get("Content-Type")
	f.uploadedBytes = n
	f.mu.Unlock()
	writeJSON(w, map[string]any{"code": 100, "data": map[string]any{"id": f.UploadID}})
}

func (f *FakeRemote) handleGenerate(w http.ResponseWriter) {
	f.mu.Lock()
	f.generateCalls++
	f.mu.Unlock()
	writeJSON(w, map[string]any{"data": map[string]any{"video_id": f.JobID}})
}

func (f *FakeRemote) handleStatus(w http.ResponseWriter) {
	f.mu.Lock()
	idx := f.statusCalls
	f.statusCalls++
	f.mu.Unlock()

	reply := StatusReply{Status: "processing"}
	if len(f.Statuses) > 0 {
		if idx >= len(f.Statuses) {
			idx = len(f.Statuses) - 1
		}
		reply = f.Statuses[idx]
	}
	if reply.HTTPStatus != 0 {
		w.WriteHeader(reply.HTTPStatus)
		_, _ = fmt.Fprint(w, reply.RawBody)
		return
	}

	data := map[string]any{"status": reply.Status}
	if reply.Status == "completed" {
		data["video_url"] = f.ArtifactURL()
	}
	if reply.Error != "" {
		data["error"] = reply.Error
	}
	writeJSON(w, map[string]any{"code": 100, "data": data})
}

func (f *FakeRemote) handleAvatars(w http.ResponseWriter) {
	avatars := make([]map[string]any, 0, len(f.Avatars))
	for _, id := range f.Avatars {
		avatars = append(avatars, map[string]any{"avatar_id": id})
	}
	photos := make([]map[string]any, 0, len(f.Photos))
	for _, id := range f.Photos {
		photos = append(photos, map[string]any{"talking_photo_id": id})
	}
	writeJSON(w, map[string]any{"data": map[string]any{
		"avatars":        avatars,
		"talking_photos": photos,
	}})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
