package heygen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// UploadAsset streams raw audio bytes to the asset endpoint and returns the
// server-issued asset identifier. The payload is sent as a single request
// with the given content type; the caller decides the type from the file
// extension.
func (c *Client) UploadAsset(ctx context.Context, contentType string, payload io.Reader) (string, error) {
	if contentType == "" {
		return "", errors.New("upload asset: content type required")
	}
	endpoint, err := url.JoinPath(c.uploadBaseURL, "/v1/asset")
	if err != nil {
		return "", fmt.Errorf("upload asset: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", fmt.Errorf("upload asset: request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload asset: request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    *struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := decodeEnvelope(resp, &envelope); err != nil {
		return "", fmt.Errorf("upload asset: %w", err)
	}
	if envelope.Code != successCode {
		return "", fmt.Errorf("upload asset: %w", &APIError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Code,
			Message:    envelope.Message,
		})
	}
	if envelope.Data == nil || envelope.Data.ID == "" {
		return "", errors.New("upload asset: response missing asset id")
	}
	return envelope.Data.ID, nil
}
