package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoSnapshot indicates no avatar snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no avatar snapshot")

// SaveAvatarSnapshot replaces the cached avatar id list.
func (s *Store) SaveAvatarSnapshot(ctx context.Context, ids []string, refreshedAt time.Time) error {
	payload, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode avatar ids: %w", err)
	}
	const query = `
INSERT INTO avatar_snapshot (id, refreshed_at, avatar_ids) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    refreshed_at = excluded.refreshed_at,
    avatar_ids = excluded.avatar_ids`
	if err := s.execWithRetry(ctx, query, formatTime(refreshedAt), string(payload)); err != nil {
		return fmt.Errorf("save avatar snapshot: %w", err)
	}
	return nil
}

// LoadAvatarSnapshot returns the cached avatar id list and when it was taken.
func (s *Store) LoadAvatarSnapshot(ctx context.Context) ([]string, time.Time, error) {
	ctx = ensureContext(ctx)
	var (
		refreshed string
		payload   string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT refreshed_at, avatar_ids FROM avatar_snapshot WHERE id = 1",
	).Scan(&refreshed, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load avatar snapshot: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(payload), &ids); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode avatar ids: %w", err)
	}
	return ids, parseTime(refreshed), nil
}
