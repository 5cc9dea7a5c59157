package fmdeploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rizome-dev/fmdeploygo/pkg/errors"
)

const (
	// DefaultBaseURL is the default base URL for the platform control plane
	DefaultBaseURL = "https://api.fmdeploy.dev/v1"

	// DefaultTimeout is the default timeout for HTTP requests. Invocations
	// against cold endpoints can take minutes while assets load.
	DefaultTimeout = 5 * time.Minute

	// DefaultPollInterval is how often WaitForInService polls the control
	// plane. Provisioning typically takes 7-8 minutes.
	DefaultPollInterval = 30 * time.Second
)

// Client is the main client for the managed inference platform. It talks to
// the control plane (endpoint lifecycle) and the data plane (invocations)
// through the same base URL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	userAgent    string
	pollInterval time.Duration

	stager ArtifactStager
	logger Logger
}

// Option is a function that configures the client
type Option func(*Client)

// NewClient creates a new platform client with the given API key
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		apiKey:       apiKey,
		userAgent:    "fmdeploygo/1.0.0",
		pollInterval: DefaultPollInterval,
		logger:       NopLogger{},
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithBaseURL sets a custom base URL for the platform API
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets a custom timeout for HTTP requests
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets a custom user agent for requests
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithPollInterval sets how often WaitForInService polls endpoint status
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// WithArtifactStager sets the stager used to upload local inference-code
// archives before deployment
func WithArtifactStager(stager ArtifactStager) Option {
	return func(c *Client) {
		c.stager = stager
	}
}

// WithLogger sets the logger used by the client
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// doRequest performs an HTTP request with the given context
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	url := c.baseURL + endpoint

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, c.parseError(resp)
	}

	return resp, nil
}

// parseError parses an error response from the platform API
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	var errResp errors.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Code == 0 {
		// Not the structured shape; keep the status code and raw body
		return &errors.APIError{
			Code:    errors.ErrorCode(resp.StatusCode),
			Message: string(bytes.TrimSpace(body)),
		}
	}

	return errResp.ToError()
}
