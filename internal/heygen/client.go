package heygen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL       = "https://api.heygen.com"
	defaultUploadBaseURL = "https://upload.heygen.com"
	defaultHTTPTimeout   = 60 * time.Second
	defaultUploadTimeout = 180 * time.Second

	// successCode is the v1 envelope's success marker.
	successCode = 100
)

// Client wraps the avatar-video service API for one credential.
type Client struct {
	apiKey        string
	baseURL       string
	uploadBaseURL string
	httpClient    *http.Client
	uploadClient  *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithUploadBaseURL overrides the asset upload base URL.
func WithUploadBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.uploadBaseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient overrides the default HTTP client for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUploadHTTPClient overrides the HTTP client used for asset uploads.
func WithUploadHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.uploadClient = client
		}
	}
}

// WithProxy routes all requests through the given proxy URL. A nil proxy
// leaves the default (environment) behavior in place. Timeouts already set
// on the clients carry over.
func WithProxy(proxy *url.URL) Option {
	return func(c *Client) {
		if proxy == nil {
			return
		}
		transport := &http.Transport{Proxy: http.ProxyURL(proxy)}
		requestTimeout := defaultHTTPTimeout
		if c.httpClient != nil && c.httpClient.Timeout > 0 {
			requestTimeout = c.httpClient.Timeout
		}
		uploadTimeout := defaultUploadTimeout
		if c.uploadClient != nil && c.uploadClient.Timeout > 0 {
			uploadTimeout = c.uploadClient.Timeout
		}
		c.httpClient = &http.Client{Timeout: requestTimeout, Transport: transport}
		c.uploadClient = &http.Client{Timeout: uploadTimeout, Transport: transport}
	}
}

// WithTimeouts overrides request and upload timeouts on the default clients.
func WithTimeouts(request, upload time.Duration) Option {
	return func(c *Client) {
		if request > 0 && c.httpClient != nil {
			c.httpClient.Timeout = request
		}
		if upload > 0 && c.uploadClient != nil {
			c.uploadClient.Timeout = upload
		}
	}
}

// NewClient constructs an API client bound to one API key.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:        strings.TrimSpace(apiKey),
		baseURL:       defaultBaseURL,
		uploadBaseURL: defaultUploadBaseURL,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
		uploadClient:  &http.Client{Timeout: defaultUploadTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if client.uploadClient == nil {
		client.uploadClient = &http.Client{Timeout: defaultUploadTimeout}
	}
	return client
}

// ServerError reports a 5xx response from the service.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: http %d: %s", e.StatusCode, snippet(e.Body))
}

// MalformedError reports a response body that could not be decoded as the
// expected JSON envelope.
type MalformedError struct {
	Body string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response: %v: %s", e.Err, snippet(e.Body))
}

func (e *MalformedError) Unwrap() error { return e.Err }

// APIError reports an error the service encoded in its JSON envelope, or a
// non-success client status.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: %s (code %d)", e.Message, e.Code)
	}
	return fmt.Sprintf("api error: http %d (code %d)", e.StatusCode, e.Code)
}

// IsServerError reports whether err stems from a 5xx response.
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

// IsMalformed reports whether err stems from an undecodable response body.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

// IsAPIError reports whether the service itself rejected the request.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// getJSON issues an authenticated GET and decodes the response body into out,
// classifying 5xx and undecodable bodies along the way.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// postJSON issues an authenticated POST with a JSON payload.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(encoded)))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

func decodeEnvelope(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return &ServerError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedError{Body: string(body), Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Error   *struct {
				Code    any    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Message
			if envelope.Error != nil && envelope.Error.Message != "" {
				apiErr.Message = envelope.Error.Message
			}
		}
		return apiErr
	}
	return nil
}

func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		return body[:200] + "..."
	}
	return body
}
