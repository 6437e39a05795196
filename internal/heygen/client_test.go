package heygen_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"renderlane/internal/heygen"
)

func newClient(t *testing.T, handler http.HandlerFunc) *heygen.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return heygen.NewClient("test-key",
		heygen.WithBaseURL(server.URL),
		heygen.WithUploadBaseURL(server.URL),
	)
}

func TestUploadAssetReturnsServerIssuedID(t *testing.T) {
	t.Parallel()

	var gotContentType, gotKey, gotBody string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/asset" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotContentType = r.Header.Get("Content-Type")
		gotKey = r.Header.Get("X-Api-Key")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, `{"code":100,"data":{"id":"ast_1"}}`)
	})

	id, err := client.UploadAsset(context.Background(), "audio/mpeg", strings.NewReader("raw-bytes"))
	if err != nil {
		t.Fatalf("UploadAsset: %v", err)
	}
	if id != "ast_1" {
		t.Fatalf("expected ast_1, got %q", id)
	}
	if gotContentType != "audio/mpeg" {
		t.Fatalf("expected raw content type, got %q", gotContentType)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotBody != "raw-bytes" {
		t.Fatalf("expected raw body passthrough, got %q", gotBody)
	}
}

func TestUploadAssetRejectsEnvelopeError(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"code":40001,"message":"invalid audio"}`)
	})

	_, err := client.UploadAsset(context.Background(), "audio/wav", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected envelope error")
	}
	if !heygen.IsAPIError(err) {
		t.Fatalf("expected APIError classification, got %v", err)
	}
}

func TestUploadAssetMissingIDFails(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"code":100,"data":{}}`)
	})

	if _, err := client.UploadAsset(context.Background(), "audio/mp4", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for missing asset id")
	}
}

func TestGenerateVideoEncodesExactlyOneAudioVariant(t *testing.T) {
	t.Parallel()

	var gotBody string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/video/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, `{"data":{"video_id":"job_1"}}`)
	})

	jobID, err := client.GenerateVideo(context.Background(), "A1", heygen.AudioAssetID("ast_1"), heygen.RenderOptions{})
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if jobID != "job_1" {
		t.Fatalf("expected job_1, got %q", jobID)
	}
	if !strings.Contains(gotBody, `"audio_asset_id":"ast_1"`) {
		t.Fatalf("expected asset variant in payload: %s", gotBody)
	}
	if strings.Contains(gotBody, "audio_url") {
		t.Fatalf("url variant must be absent when asset id is used: %s", gotBody)
	}
	if !strings.Contains(gotBody, `"width":1280`) || !strings.Contains(gotBody, `"height":720`) {
		t.Fatalf("expected default dimension in payload: %s", gotBody)
	}
	if !strings.Contains(gotBody, `"avatar_style":"normal"`) {
		t.Fatalf("expected default avatar style: %s", gotBody)
	}
}

func TestGenerateVideoURLVariant(t *testing.T) {
	t.Parallel()

	var gotBody string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, `{"data":{"video_id":"job_2"}}`)
	})

	if _, err := client.GenerateVideo(context.Background(), "A1", heygen.AudioURL("https://x/a.mp3"), heygen.RenderOptions{}); err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if !strings.Contains(gotBody, `"audio_url":"https://x/a.mp3"`) {
		t.Fatalf("expected url variant in payload: %s", gotBody)
	}
	if strings.Contains(gotBody, "audio_asset_id") {
		t.Fatalf("asset variant must be absent when url is used: %s", gotBody)
	}
}

func TestGenerateVideoSurfacesEnvelopeError(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":{"code":"quota_exceeded","message":"not enough credit"}}`)
	})

	_, err := client.GenerateVideo(context.Background(), "A1", heygen.AudioAssetID("ast"), heygen.RenderOptions{})
	if err == nil || !strings.Contains(err.Error(), "not enough credit") {
		t.Fatalf("expected envelope error with message, got %v", err)
	}
}

func TestJobStatusDecodesCompleted(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("video_id"); got != "job_1" {
			t.Errorf("expected video_id query, got %q", got)
		}
		io.WriteString(w, `{"code":100,"data":{"status":"completed","video_url":"https://x/video.mp4"}}`)
	})

	status, err := client.JobStatus(context.Background(), "job_1")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if status.Status != heygen.StatusCompleted || status.VideoURL != "https://x/video.mp4" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestJobStatusClassifiesNonJSONBody(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>bad gateway-ish</html>")
	})

	_, err := client.JobStatus(context.Background(), "job_1")
	if !heygen.IsMalformed(err) {
		t.Fatalf("expected malformed classification, got %v", err)
	}
	if heygen.IsServerError(err) {
		t.Fatalf("must not classify as server error: %v", err)
	}
}

func TestJobStatusClassifiesServerError(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream blew up")
	})

	_, err := client.JobStatus(context.Background(), "job_1")
	if !heygen.IsServerError(err) {
		t.Fatalf("expected server error classification, got %v", err)
	}
}

func TestListAvatarIDsMergesAndSorts(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{
			"avatars":[{"avatar_id":"zeta"},{"avatar_id":"alpha"},{"avatar_id":"alpha"}],
			"talking_photos":[{"talking_photo_id":"mid"}]
		}}`)
	})

	ids, err := client.ListAvatarIDs(context.Background())
	if err != nil {
		t.Fatalf("ListAvatarIDs: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestRemainingQuota(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"remaining_quota":120}}`)
	})

	quota, err := client.RemainingQuota(context.Background())
	if err != nil {
		t.Fatalf("RemainingQuota: %v", err)
	}
	if quota != 120 {
		t.Fatalf("expected 120, got %v", quota)
	}
}

func TestListVideosReturnsPageAndToken(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("expected limit=25, got %q", got)
		}
		io.WriteString(w, `{"code":100,"data":{"videos":[{"video_id":"v1","status":"completed"}],"token":"next"}}`)
	})

	page, err := client.ListVideos(context.Background(), 25)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(page.Videos) != 1 || page.Videos[0].VideoID != "v1" || page.Token != "next" {
		t.Fatalf("unexpected page: %+v", page)
	}
}
