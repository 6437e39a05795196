package heygen

import (
	"context"
	"fmt"
	"net/url"
)

// VideoStatus is the decoded status payload for one remote job.
type VideoStatus struct {
	Status   string
	VideoURL string
	Error    string
}

// Remote status strings with defined meaning. Anything else is treated as
// still in progress.
const (
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusProcessing = "processing"
	StatusPending    = "pending"
	StatusWaiting    = "waiting"
)

// JobStatus queries the status endpoint for one remote job id.
func (c *Client) JobStatus(ctx context.Context, jobID string) (VideoStatus, error) {
	var empty VideoStatus
	if jobID == "" {
		return empty, fmt.Errorf("job status: job id required")
	}
	endpoint, err := url.JoinPath(c.baseURL, "/v1/video_status.get")
	if err != nil {
		return empty, fmt.Errorf("job status: build url: %w", err)
	}
	endpoint += "?video_id=" + url.QueryEscape(jobID)

	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    *struct {
			Status   string `json:"status"`
			VideoURL string `json:"video_url"`
			Error    any    `json:"error"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return empty, fmt.Errorf("job status: %w", err)
	}
	if envelope.Code != successCode {
		return empty, fmt.Errorf("job status: %w", &APIError{Code: envelope.Code, Message: envelope.Message})
	}
	if envelope.Data == nil {
		return empty, &MalformedError{Err: fmt.Errorf("status envelope missing data")}
	}
	status := VideoStatus{
		Status:   envelope.Data.Status,
		VideoURL: envelope.Data.VideoURL,
	}
	if envelope.Data.Error != nil {
		status.Error = fmt.Sprintf("%v", envelope.Data.Error)
	}
	return status, nil
}
