package heygen

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// VideoSummary is one entry from the account's video list.
type VideoSummary struct {
	VideoID   string `json:"video_id"`
	Status    string `json:"status"`
	Title     string `json:"video_title"`
	CreatedAt int64  `json:"created_at"`
}

// VideoList is one page of the account's videos plus the pagination token
// for the next page (empty when exhausted).
type VideoList struct {
	Videos []VideoSummary
	Token  string
}

const defaultVideoListLimit = 100

// ListVideos fetches one page of the account's videos, newest first.
func (c *Client) ListVideos(ctx context.Context, limit int) (VideoList, error) {
	var empty VideoList
	if limit <= 0 {
		limit = defaultVideoListLimit
	}
	endpoint, err := url.JoinPath(c.baseURL, "/v1/video.list")
	if err != nil {
		return empty, fmt.Errorf("list videos: build url: %w", err)
	}
	endpoint += "?limit=" + strconv.Itoa(limit)

	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    *struct {
			Videos []VideoSummary `json:"videos"`
			Token  string         `json:"token"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return empty, fmt.Errorf("list videos: %w", err)
	}
	if envelope.Code != successCode {
		return empty, fmt.Errorf("list videos: %w", &APIError{Code: envelope.Code, Message: envelope.Message})
	}
	if envelope.Data == nil {
		return empty, &MalformedError{Err: fmt.Errorf("video list envelope missing data")}
	}
	return VideoList{Videos: envelope.Data.Videos, Token: envelope.Data.Token}, nil
}
