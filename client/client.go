// Package client implements the HTTP transport for the image service: direct
// runs, queued subscriptions with polling, and storage uploads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	imagegen "github.com/zcordelier/imagegen"
)

const (
	defaultBaseURL  = "https://fal.run"
	defaultQueueURL = "https://queue.fal.run"
	defaultRestURL  = "https://rest.alpha.fal.ai"

	defaultPollInterval = 500 * time.Millisecond
)

// Config holds client configuration. The zero value of every field except
// APIKey has a usable default.
type Config struct {
	// APIKey authenticates every request.
	APIKey string

	// BaseURL serves synchronous runs.
	BaseURL string
	// QueueURL serves queued submissions and status polling.
	QueueURL string
	// RestURL serves storage uploads.
	RestURL string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// PollInterval is the delay between queue status checks.
	PollInterval time.Duration

	Logger zerolog.Logger
}

// Client talks to the image service.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// Option configures a Client.
type Option func(*Config)

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(cfg *Config) { cfg.HTTPClient = httpClient }
}

// WithBaseURLs overrides the service endpoints. Empty strings keep the
// defaults.
func WithBaseURLs(base, queue, rest string) Option {
	return func(cfg *Config) {
		if base != "" {
			cfg.BaseURL = base
		}
		if queue != "" {
			cfg.QueueURL = queue
		}
		if rest != "" {
			cfg.RestURL = rest
		}
	}
}

// WithPollInterval sets the queue polling delay.
func WithPollInterval(interval time.Duration) Option {
	return func(cfg *Config) { cfg.PollInterval = interval }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(cfg *Config) { cfg.Logger = log }
}

// New creates a Client authenticated with the given API key.
func New(apiKey string, opts ...Option) *Client {
	cfg := Config{
		APIKey:       apiKey,
		BaseURL:      defaultBaseURL,
		QueueURL:     defaultQueueURL,
		RestURL:      defaultRestURL,
		PollInterval: defaultPollInterval,
		Logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient, log: cfg.Logger}
}

// Response is one completed invocation. The raw body is kept verbatim so
// callers can traverse whatever shape the endpoint produced.
type Response struct {
	raw json.RawMessage
}

// JSON returns the raw response body.
func (r *Response) JSON() []byte { return r.raw }

// Result decodes the body into a generic value.
func (r *Response) Result() (any, error) {
	var v any
	if err := json.Unmarshal(r.raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Run invokes the endpoint synchronously and returns its response.
func (c *Client) Run(ctx context.Context, endpoint string, args map[string]any) (imagegen.Invocation, error) {
	c.log.Debug().Str("endpoint", endpoint).Msg("run")

	body, err := c.postJSON(ctx, c.cfg.BaseURL+"/"+endpoint, args)
	if err != nil {
		return nil, err
	}
	return &Response{raw: body}, nil
}

// queueStatus is the poll response for a queued request.
type queueStatus struct {
	Status      string `json:"status"`
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

// Subscribe submits the request to the queue and polls until it completes,
// then fetches the result.
func (c *Client) Subscribe(ctx context.Context, endpoint string, args map[string]any) (imagegen.Invocation, error) {
	c.log.Debug().Str("endpoint", endpoint).Msg("subscribe")

	body, err := c.postJSON(ctx, c.cfg.QueueURL+"/"+endpoint, args)
	if err != nil {
		return nil, err
	}

	var submitted queueStatus
	if err := json.Unmarshal(body, &submitted); err != nil {
		return nil, &imagegen.RemoteCallError{Endpoint: endpoint, Err: err}
	}
	if submitted.StatusURL == "" || submitted.ResponseURL == "" {
		return nil, &imagegen.RemoteCallError{
			Endpoint: endpoint,
			Err:      fmt.Errorf("queue submission missing status or response url"),
		}
	}

	for {
		status, err := c.getStatus(ctx, submitted.StatusURL)
		if err != nil {
			return nil, err
		}
		if status.Status == "COMPLETED" {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}

	result, err := c.getJSON(ctx, submitted.ResponseURL)
	if err != nil {
		return nil, err
	}
	return &Response{raw: result}, nil
}

func (c *Client) getStatus(ctx context.Context, statusURL string) (*queueStatus, error) {
	body, err := c.getJSON(ctx, statusURL)
	if err != nil {
		return nil, err
	}
	var status queueStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &imagegen.RemoteCallError{Endpoint: statusURL, Err: err}
	}
	return &status, nil
}

// uploadGrant is the storage service's reply to an upload initiation.
type uploadGrant struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

// Upload stores a file in the service's storage and returns its public URL.
func (c *Client) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	initiateURL := c.cfg.RestURL + "/storage/upload/initiate"
	body, err := c.postJSON(ctx, initiateURL, map[string]any{
		"file_name":    name,
		"content_type": contentType,
	})
	if err != nil {
		return "", err
	}

	var grant uploadGrant
	if err := json.Unmarshal(body, &grant); err != nil {
		return "", &imagegen.RemoteCallError{Endpoint: initiateURL, Err: err}
	}
	if grant.UploadURL == "" || grant.FileURL == "" {
		return "", &imagegen.RemoteCallError{
			Endpoint: initiateURL,
			Err:      fmt.Errorf("upload grant missing urls"),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, grant.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &imagegen.RemoteCallError{Endpoint: grant.UploadURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &imagegen.RemoteCallError{Endpoint: grant.UploadURL, Status: resp.StatusCode}
	}

	c.log.Debug().Str("url", grant.FileURL).Msg("uploaded")
	return grant.FileURL, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) (json.RawMessage, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	return c.do(req)
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Key "+c.cfg.APIKey)
	}
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &imagegen.RemoteCallError{Endpoint: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &imagegen.RemoteCallError{Endpoint: req.URL.String(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &imagegen.RemoteCallError{
			Endpoint: req.URL.String(),
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", bytes.TrimSpace(body)),
		}
	}
	return body, nil
}
