package heygen

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// ListAvatarIDs fetches every usable avatar identifier for the credential:
// regular avatars and talking photos, merged, deduplicated, and sorted.
func (c *Client) ListAvatarIDs(ctx context.Context) ([]string, error) {
	endpoint, err := url.JoinPath(c.baseURL, "/v2/avatars")
	if err != nil {
		return nil, fmt.Errorf("list avatars: build url: %w", err)
	}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Data *struct {
			Avatars []struct {
				AvatarID string `json:"avatar_id"`
			} `json:"avatars"`
			TalkingPhotos []struct {
				TalkingPhotoID string `json:"talking_photo_id"`
			} `json:"talking_photos"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return nil, fmt.Errorf("list avatars: %w", err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("list avatars: %w", &APIError{Message: envelope.Error.Message})
	}
	if envelope.Data == nil {
		return nil, &MalformedError{Err: fmt.Errorf("avatar envelope missing data")}
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(envelope.Data.Avatars)+len(envelope.Data.TalkingPhotos))
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, avatar := range envelope.Data.Avatars {
		add(avatar.AvatarID)
	}
	for _, photo := range envelope.Data.TalkingPhotos {
		add(photo.TalkingPhotoID)
	}
	sort.Strings(ids)
	return ids, nil
}
