package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"renderlane/internal/logging"
	"renderlane/internal/store"
)

// Lister fetches the current avatar ids from the remote account.
type Lister interface {
	ListAvatarIDs(ctx context.Context) ([]string, error)
}

// Persister stores snapshots across restarts. Both methods are optional
// conveniences; the catalog works without one.
type Persister interface {
	SaveAvatarSnapshot(ctx context.Context, ids []string, refreshedAt time.Time) error
	LoadAvatarSnapshot(ctx context.Context) ([]string, time.Time, error)
}

// ErrUnknownAvatar indicates an avatar id absent from the current snapshot.
var ErrUnknownAvatar = errors.New("unknown avatar id")

// Catalog holds the avatar snapshot.
type Catalog struct {
	lister    Lister
	persister Persister
	logger    *slog.Logger

	group singleflight.Group
	cron  *cron.Cron

	mu          sync.RWMutex
	ids         []string
	idSet       map[string]struct{}
	refreshedAt time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPersister seeds the snapshot from storage and writes refreshes back.
func WithPersister(p Persister) Option {
	return func(c *Catalog) { c.persister = p }
}

// WithLogger sets the catalog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) { c.logger = logger }
}

// New constructs an empty catalog.
func New(lister Lister, opts ...Option) *Catalog {
	c := &Catalog{lister: lister}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "catalog")
	return c
}

// Seed loads the persisted snapshot, if any. A missing snapshot is not an
// error; the catalog simply starts empty.
func (c *Catalog) Seed(ctx context.Context) error {
	if c.persister == nil {
		return nil
	}
	ids, refreshedAt, err := c.persister.LoadAvatarSnapshot(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshot) {
			return nil
		}
		return fmt.Errorf("seed avatar catalog: %w", err)
	}
	c.replace(ids, refreshedAt)
	c.logger.Info("avatar catalog seeded from storage",
		logging.Int("avatars", len(ids)),
	)
	return nil
}

// refreshTimeout bounds one upstream fetch inside the shared flight.
const refreshTimeout = time.Minute

// Refresh fetches the avatar list and replaces the snapshot. Concurrent
// callers share one upstream request. The flight runs on its own detached
// context so one caller cancelling does not fail the others.
func (c *Catalog) Refresh(ctx context.Context) ([]string, error) {
	result, err, _ := c.group.Do("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		ids, err := c.lister.ListAvatarIDs(ctx)
		if err != nil {
			return nil, err
		}
		refreshedAt := time.Now().UTC()
		c.replace(ids, refreshedAt)
		if c.persister != nil {
			if err := c.persister.SaveAvatarSnapshot(ctx, ids, refreshedAt); err != nil {
				c.logger.Warn("failed to persist avatar snapshot",
					logging.Error(err),
				)
			}
		}
		c.logger.Info("avatar catalog refreshed",
			logging.Int("avatars", len(ids)),
		)
		return ids, nil
	})
	if err != nil {
		return nil, fmt.Errorf("refresh avatar catalog: %w", err)
	}
	return result.([]string), nil
}

// IDs returns the current snapshot.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := make([]string, len(c.ids))
	copy(cp, c.ids)
	return cp
}

// RefreshedAt returns when the snapshot was last replaced, zero when never.
func (c *Catalog) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

// Validate checks an avatar id against the snapshot. An empty catalog cannot
// distinguish unknown ids from its own staleness, so validation passes until
// the first refresh or seed lands.
func (c *Catalog) Validate(avatarID string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.idSet) == 0 {
		return nil
	}
	if _, ok := c.idSet[avatarID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAvatar, avatarID)
	}
	return nil
}

// StartAutoRefresh schedules background refreshes with a cron expression.
// Refresh errors are logged and the schedule keeps running.
func (c *Catalog) StartAutoRefresh(spec string) error {
	if c.cron != nil {
		return errors.New("auto refresh already started")
	}
	runner := cron.New()
	_, err := runner.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := c.Refresh(ctx); err != nil {
			c.logger.Warn("scheduled avatar refresh failed",
				logging.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule avatar refresh %q: %w", spec, err)
	}
	c.cron = runner
	runner.Start()
	return nil
}

// Stop halts the background refresh schedule, if started.
func (c *Catalog) Stop() {
	if c.cron != nil {
		c.cron.Stop()
		c.cron = nil
	}
}

func (c *Catalog) replace(ids []string, refreshedAt time.Time) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	cp := make([]string, len(ids))
	copy(cp, ids)

	c.mu.Lock()
	c.ids = cp
	c.idSet = set
	c.refreshedAt = refreshedAt
	c.mu.Unlock()
}
