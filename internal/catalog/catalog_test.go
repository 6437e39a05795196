package catalog_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"renderlane/internal/catalog"
	"renderlane/internal/store"
)

type fakeLister struct {
	ids   []string
	err   error
	calls atomic.Int64
	gate  chan struct{}
}

func (f *fakeLister) ListAvatarIDs(context.Context) ([]string, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

type fakePersister struct {
	mu          sync.Mutex
	ids         []string
	refreshedAt time.Time
	saved       int
	loadErr     error
}

func (f *fakePersister) SaveAvatarSnapshot(_ context.Context, ids []string, refreshedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = ids
	f.refreshedAt = refreshedAt
	f.saved++
	return nil
}

func (f *fakePersister) LoadAvatarSnapshot(context.Context) ([]string, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, time.Time{}, f.loadErr
	}
	if f.ids == nil {
		return nil, time.Time{}, store.ErrNoSnapshot
	}
	return f.ids, f.refreshedAt, nil
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ids: []string{"anna_public_3", "josh_lite"}}
	cat := catalog.New(lister)

	ids, err := cat.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
	if got := cat.IDs(); len(got) != 2 || got[0] != "anna_public_3" {
		t.Fatalf("snapshot not replaced: %v", got)
	}
	if cat.RefreshedAt().IsZero() {
		t.Fatal("refresh must stamp the snapshot time")
	}
}

func TestRefreshCollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ids: []string{"anna_public_3"}, gate: make(chan struct{})}
	cat := catalog.New(lister)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cat.Refresh(context.Background())
		}()
	}
	// Let the goroutines pile up behind the in-flight call, then release it.
	time.Sleep(50 * time.Millisecond)
	close(lister.gate)
	wg.Wait()

	if calls := lister.calls.Load(); calls != 1 {
		t.Fatalf("concurrent refreshes must share one upstream call, got %d", calls)
	}
}

func TestRefreshPersistsSnapshot(t *testing.T) {
	t.Parallel()

	persister := &fakePersister{}
	lister := &fakeLister{ids: []string{"anna_public_3"}}
	cat := catalog.New(lister, catalog.WithPersister(persister))

	if _, err := cat.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	persister.mu.Lock()
	defer persister.mu.Unlock()
	if persister.saved != 1 || len(persister.ids) != 1 {
		t.Fatalf("snapshot should persist once, got %d saves of %v", persister.saved, persister.ids)
	}
}

func TestSeedFromPersistedSnapshot(t *testing.T) {
	t.Parallel()

	persister := &fakePersister{
		ids:         []string{"anna_public_3", "tp_9"},
		refreshedAt: time.Now().UTC().Add(-time.Hour),
	}
	cat := catalog.New(&fakeLister{}, catalog.WithPersister(persister))

	if err := cat.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if got := cat.IDs(); len(got) != 2 {
		t.Fatalf("seed should populate the snapshot, got %v", got)
	}
	if err := cat.Validate("tp_9"); err != nil {
		t.Fatalf("seeded id must validate: %v", err)
	}
}

func TestSeedToleratesMissingSnapshot(t *testing.T) {
	t.Parallel()

	cat := catalog.New(&fakeLister{}, catalog.WithPersister(&fakePersister{}))
	if err := cat.Seed(context.Background()); err != nil {
		t.Fatalf("missing snapshot is not an error: %v", err)
	}
	if got := cat.IDs(); len(got) != 0 {
		t.Fatalf("expected empty catalog, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ids: []string{"anna_public_3"}}
	cat := catalog.New(lister)

	// Empty catalog cannot reject anything.
	if err := cat.Validate("whatever"); err != nil {
		t.Fatalf("empty catalog must pass validation: %v", err)
	}

	if _, err := cat.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := cat.Validate("anna_public_3"); err != nil {
		t.Fatalf("known id must validate: %v", err)
	}
	if err := cat.Validate("ghost"); !errors.Is(err, catalog.ErrUnknownAvatar) {
		t.Fatalf("expected ErrUnknownAvatar, got %v", err)
	}
}

func TestRefreshErrorLeavesSnapshot(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ids: []string{"anna_public_3"}}
	cat := catalog.New(lister)
	if _, err := cat.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	lister.err = errors.New("upstream down")
	if _, err := cat.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := cat.IDs(); len(got) != 1 {
		t.Fatalf("failed refresh must keep the old snapshot, got %v", got)
	}
}

// blockingLister parks inside the fetch until released, honoring ctx.
type blockingLister struct {
	entered chan struct{}
	release chan struct{}
	ids     []string
	once    sync.Once
}

func (b *blockingLister) ListAvatarIDs(ctx context.Context) ([]string, error) {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
		return b.ids, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefreshSurvivesFirstCallerCancelling(t *testing.T) {
	t.Parallel()

	lister := &blockingLister{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		ids:     []string{"anna_public_3"},
	}
	cat := catalog.New(lister)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cat.Refresh(firstCtx)
		firstErr <- err
	}()
	<-lister.entered
	cancelFirst()

	type result struct {
		ids []string
		err error
	}
	second := make(chan result, 1)
	go func() {
		ids, err := cat.Refresh(context.Background())
		second <- result{ids, err}
	}()

	time.Sleep(20 * time.Millisecond)
	close(lister.release)

	got := <-second
	if got.err != nil {
		t.Fatalf("live caller must not inherit the cancellation: %v", got.err)
	}
	if len(got.ids) != 1 || got.ids[0] != "anna_public_3" {
		t.Fatalf("unexpected ids %v", got.ids)
	}
	if err := <-firstErr; err != nil {
		t.Fatalf("detached fetch should still deliver to the first caller, got %v", err)
	}
}

func TestStartAutoRefreshRejectsBadSpec(t *testing.T) {
	t.Parallel()

	cat := catalog.New(&fakeLister{})
	if err := cat.StartAutoRefresh("not a cron spec"); err == nil {
		t.Fatal("expected schedule error")
	}
	cat.Stop()
}
