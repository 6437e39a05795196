package heygen

import (
	"context"
	"fmt"
	"net/url"
)

// RemainingQuota fetches the raw remaining-quota value for the credential.
// The unit is the service's own (historically seconds of generation); the
// quota package converts it into credits and usable minutes.
func (c *Client) RemainingQuota(ctx context.Context) (float64, error) {
	endpoint, err := url.JoinPath(c.baseURL, "/v2/user/remaining_quota")
	if err != nil {
		return 0, fmt.Errorf("remaining quota: build url: %w", err)
	}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Data *struct {
			RemainingQuota *float64 `json:"remaining_quota"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return 0, fmt.Errorf("remaining quota: %w", err)
	}
	if envelope.Error != nil {
		return 0, fmt.Errorf("remaining quota: %w", &APIError{Message: envelope.Error.Message})
	}
	if envelope.Data == nil || envelope.Data.RemainingQuota == nil {
		return 0, &MalformedError{Err: fmt.Errorf("quota envelope missing remaining_quota")}
	}
	return *envelope.Data.RemainingQuota, nil
}
