// Package api is the typed client for the donorlink REST backend. Every call
// is context-aware, carries the bearer token when one exists, and reports
// failures as *Error values classified by Kind.
package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds every call so a hung request cannot leave a view loading forever.
	DefaultTimeout = 15 * time.Second

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerRequestID     = "X-Request-ID"
	headerUserAgent     = "User-Agent"
	contentTypeJSON     = "application/json"
	userAgent           = "donorlink-client/1.0"
)

// TokenSource provides the current session token, if any.
type TokenSource interface {
	Get() (string, bool)
}

type noTokens struct{}

func (noTokens) Get() (string, bool) { return "", false }

// Client talks to the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	tokens     TokenSource
	log        *zap.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, e.g. one trusting a private CA.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-call deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTokenSource sets where the bearer token is read from before each call.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a client for the API rooted at baseURL.
//
//	store := storage.NewMemoryStore()
//	client := api.NewClient("https://api.example.org", api.WithTokenSource(store))
//	profile, err := client.Profile(ctx)
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		tokens:     noTokens{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}
