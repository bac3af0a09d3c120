package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultDiscoveryURL is the Philips Hue cloud discovery endpoint (NUPNP)
const DefaultDiscoveryURL = "https://discovery.meethue.com"

// HTTPClient is the part of *http.Client the transports need
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportFactory builds transports for the discovery service and for bridges.
// It only holds configuration and may be shared between goroutines.
type TransportFactory struct {
	client       HTTPClient
	discoveryURL string
	logger       *slog.Logger
}

// Option configures a TransportFactory
type Option func(*TransportFactory)

// WithHTTPClient sets the client used for every request
func WithHTTPClient(client HTTPClient) Option {
	return func(f *TransportFactory) {
		f.client = client
	}
}

// WithTimeout sets the request timeout on a copy of the configured
// *http.Client. Other HTTPClient implementations are kept as they are and
// only bounded by the request context.
func WithTimeout(timeout time.Duration) Option {
	return func(f *TransportFactory) {
		if c, ok := f.client.(*http.Client); ok {
			clone := *c
			clone.Timeout = timeout
			f.client = &clone
		}
	}
}

// WithDiscoveryURL overrides the discovery endpoint
func WithDiscoveryURL(url string) Option {
	return func(f *TransportFactory) {
		f.discoveryURL = url
	}
}

// WithLogger sets the logger requests are reported to at debug level
func WithLogger(logger *slog.Logger) Option {
	return func(f *TransportFactory) {
		f.logger = logger
	}
}

// NewTransportFactory creates a factory; without options it talks to the
// public discovery endpoint with a 10 second timeout
func NewTransportFactory(opts ...Option) *TransportFactory {
	f := &TransportFactory{
		client:       &http.Client{Timeout: 10 * time.Second},
		discoveryURL: DefaultDiscoveryURL,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DiscoveryURL returns the configured discovery endpoint
func (f *TransportFactory) DiscoveryURL() string {
	return f.discoveryURL
}

// Discovery returns a bare transport for the discovery endpoint
func (f *TransportFactory) Discovery() *Transport {
	return &Transport{baseURL: f.discoveryURL, client: f.client, logger: f.logger}
}

// ForBridge returns a transport authenticated as user against the bridge at ip
func (f *TransportFactory) ForBridge(ip, user string) *Transport {
	return &Transport{
		baseURL: fmt.Sprintf("http://%s/api/%s", ip, user),
		client:  f.client,
		logger:  f.logger,
	}
}

// Transport issues JSON requests relative to a base URL
type Transport struct {
	baseURL string
	client  HTTPClient
	logger  *slog.Logger
}

// Response is a completed HTTP exchange
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports a 2xx status
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request
func (t *Transport) Get(ctx context.Context, path string) (*Response, error) {
	return t.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request; a nil body sends no body at all
func (t *Transport) Post(ctx context.Context, path string, body any) (*Response, error) {
	return t.do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with body encoded as JSON
func (t *Transport) Put(ctx context.Context, path string, body any) (*Response, error) {
	return t.do(ctx, http.MethodPut, path, body)
}

func (t *Transport) url(path string) string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return t.baseURL
	}
	return strings.TrimSuffix(t.baseURL, "/") + "/" + path
}

// do performs a request and reads the whole response body
func (t *Transport) do(ctx context.Context, method, path string, body any) (result *Response, err error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	url := t.url(path)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	t.logger.Debug("hue request", "method", method, "url", url, "status", resp.StatusCode)

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// hueError is one element of the v1 API error array
type hueError struct {
	Error *struct {
		Type        int    `json:"type"`
		Address     string `json:"address"`
		Description string `json:"description"`
	} `json:"error"`
}

// checkResponse turns a non-2xx status, or a 2xx carrying a Hue error array,
// into a *RemoteError
func checkResponse(op string, resp *Response) error {
	if !resp.IsSuccess() {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Description: firstHueError(resp.Body)}
	}
	if desc := firstHueError(resp.Body); desc != "" {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Description: desc}
	}
	return nil
}

func firstHueError(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ""
	}
	var items []hueError
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return ""
	}
	for _, item := range items {
		if item.Error != nil {
			if item.Error.Description == "" {
				return fmt.Sprintf("error type %d", item.Error.Type)
			}
			return item.Error.Description
		}
	}
	return ""
}
