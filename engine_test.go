package renderlane_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"renderlane"
	"renderlane/internal/config"
	"renderlane/internal/jobs"
	"renderlane/internal/testsupport"
)

func openEngine(t *testing.T, remote *testsupport.FakeRemote) *renderlane.Engine {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithRemote(remote.URL()))
	path := filepath.Join(t.TempDir(), "renderlane.toml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save config: %v", err)
	}

	engine, err := renderlane.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func waitEngineIdle(t *testing.T, engine *renderlane.Engine) {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for engine.HasActiveJobs() {
		if time.Now().After(deadline) {
			t.Fatal("engine still busy after 30s")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEngineEndToEnd(t *testing.T) {
	t.Parallel()

	remote := testsupport.NewFakeRemote(t)
	// Complete on the first poll so the test never sits in a real backoff.
	remote.Statuses = []testsupport.StatusReply{{Status: "completed"}}
	engine := openEngine(t, remote)

	if lanes := engine.Lanes(); len(lanes) != 1 || lanes[0] != "lane-1" {
		t.Fatalf("unexpected lanes %v", lanes)
	}

	token, err := engine.CreateJob("lane-1", "https://audio.example/narration.mp3", "anna_public_3", renderlane.RenderOptions{})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	waitEngineIdle(t, engine)

	out, err := engine.Outcome(context.Background(), token)
	if err != nil {
		t.Fatalf("Outcome: %v", err)
	}
	if out.State != jobs.StateCompleted {
		t.Fatalf("expected Completed, got %s (%s)", out.State, out.Error)
	}
	if out.ArtifactPath == "" {
		t.Fatal("expected a downloaded artifact")
	}
	if _, err := os.Stat(out.ArtifactPath); err != nil {
		t.Fatalf("artifact missing on disk: %v", err)
	}

	evts, _, err := engine.Events(context.Background(), 0, 100, false)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(evts) == 0 {
		t.Fatal("expected lifecycle events")
	}
}

func TestEngineAvatarsAndQuota(t *testing.T) {
	t.Parallel()

	remote := testsupport.NewFakeRemote(t)
	remote.Avatars = []string{"anna_public_3", "josh_lite"}
	remote.Photos = []string{"tp_9"}
	remote.Quota = 120
	engine := openEngine(t, remote)

	ids, err := engine.RefreshAvatars(context.Background())
	if err != nil {
		t.Fatalf("RefreshAvatars: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("avatars and talking photos should merge, got %v", ids)
	}
	if got := engine.Avatars(); len(got) != 3 {
		t.Fatalf("snapshot should hold the refresh, got %v", got)
	}

	display, err := engine.Quota(context.Background(), "lane-1")
	if err != nil {
		t.Fatalf("Quota: %v", err)
	}
	if display != "120.00 (2.0 credits / 4:00)" {
		t.Fatalf("unexpected quota display %q", display)
	}
}

func TestEngineRejectsUnknownLane(t *testing.T) {
	t.Parallel()

	remote := testsupport.NewFakeRemote(t)
	engine := openEngine(t, remote)

	if _, err := engine.CreateJob("nope", "x.mp3", "anna_public_3", renderlane.RenderOptions{}); !errors.Is(err, renderlane.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := engine.Outcome(context.Background(), "missing"); !errors.Is(err, renderlane.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestOpenRejectsConfigWithoutLanes(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "videos")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	path := filepath.Join(base, "renderlane.toml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save config: %v", err)
	}

	engine, err := renderlane.Open(path)
	if err == nil {
		_ = engine.Close()
		t.Fatal("expected an error for a config without lanes")
	}
	if !strings.Contains(err.Error(), "no lanes") {
		t.Fatalf("unexpected error: %v", err)
	}

	// The refusal must come before any state is touched, so nothing holds
	// a lock on the state directory.
	if _, statErr := os.Stat(cfg.Paths.StateDir); !os.IsNotExist(statErr) {
		t.Fatalf("state dir should be untouched, stat err = %v", statErr)
	}
}

func TestEngineShutdown(t *testing.T) {
	t.Parallel()

	remote := testsupport.NewFakeRemote(t)
	remote.Statuses = []testsupport.StatusReply{{Status: "completed"}}
	engine := openEngine(t, remote)

	if _, err := engine.CreateJob("lane-1", "https://audio.example/n.mp3", "anna_public_3", renderlane.RenderOptions{}); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := engine.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := engine.CreateJob("lane-1", "x.mp3", "anna_public_3", renderlane.RenderOptions{}); !errors.Is(err, renderlane.ErrCancelled) {
		t.Fatalf("expected ErrCancelled after shutdown, got %v", err)
	}
}
