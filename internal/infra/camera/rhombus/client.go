package rhombus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/stop-survey/internal/domain/frame"
)

const (
	// DefaultFrameURL resolves an exact-timestamp frame for a camera.
	DefaultFrameURL = "https://api2.rhombussystems.com/api/video/getExactFrameUri"
	defaultTimeout  = 30 * time.Second
	maxFrameBytes   = 20 << 20
)

// ErrMissingAPIKey is returned before any network I/O when no credential is configured.
var ErrMissingAPIKey = fmt.Errorf("rhombus api key not set: %w", frame.ErrNoCredential)

// APIError is an error message reported inside a camera service response body.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return "rhombus api error: " + e.Message
}

// Client talks to the camera service.
type Client struct {
	apiKey        string
	frameURL      string
	httpClient    *http.Client
	maxFrameBytes int64
}

// NewClient builds a camera service client. An empty apiKey is allowed; every
// call then fails fast with ErrMissingAPIKey.
func NewClient(apiKey, frameURL string, timeout time.Duration) *Client {
	url := strings.TrimSpace(frameURL)
	if url == "" {
		url = DefaultFrameURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:   strings.TrimSpace(apiKey),
		frameURL: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxFrameBytes: maxFrameBytes,
	}
}

type frameURIResponse struct {
	FrameURI string          `json:"frameUri"`
	Error    json.RawMessage `json:"error"`
	Message  string          `json:"errorMsg"`
}

// FrameURI asks the camera service for a short-lived URI of the frame described by req.
func (c *Client) FrameURI(ctx context.Context, req frame.FrameRequest) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode frame request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.frameURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build frame request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("frame request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read frame response: %w", err)
	}

	var raw frameURIResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode frame response: status=%d: %w", resp.StatusCode, err)
	}
	if msg := errorMessage(raw); msg != "" {
		return "", &APIError{Message: msg}
	}
	if strings.TrimSpace(raw.FrameURI) == "" {
		return "", errors.New("rhombus response missing frameUri")
	}
	return raw.FrameURI, nil
}

// Download fetches the raw JPEG bytes behind a frame URI.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build frame download: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("frame download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("frame download failed: status=%d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFrameBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if int64(len(data)) > c.maxFrameBytes {
		return nil, fmt.Errorf("frame exceeds %d bytes", c.maxFrameBytes)
	}
	return data, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-auth-scheme", "api-token")
	req.Header.Set("x-auth-apikey", c.apiKey)
}

// errorMessage flattens the error field, which is sometimes a string and
// sometimes a boolean flag paired with errorMsg.
func errorMessage(raw frameURIResponse) string {
	if len(raw.Error) == 0 || string(raw.Error) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw.Error, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var flag bool
	if err := json.Unmarshal(raw.Error, &flag); err == nil {
		if !flag {
			return ""
		}
		if raw.Message != "" {
			return raw.Message
		}
		return "unknown error"
	}
	return string(raw.Error)
}

var _ frame.CameraClient = (*Client)(nil)
