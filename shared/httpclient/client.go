// Package httpclient provides a shared HTTP client factory with common configurations.
package httpclient

import (
	"net/http"
	"time"
)

const (
	TimeoutShort    = 10 * time.Second
	TimeoutProvider = 20 * time.Second
	TimeoutLong     = 60 * time.Second
)

type Config struct {
	Timeout   time.Duration
	Transport http.RoundTripper
}

type Option func(*Config)

func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithTransport sets a custom transport (e.g., for OTel tracing).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Config) {
		c.Transport = rt
	}
}

func New(opts ...Option) *http.Client {
	cfg := &Config{
		Timeout:   TimeoutProvider,
		Transport: http.DefaultTransport,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: cfg.Transport,
	}
}

// NewProvider returns a client with the timeout used for search-provider calls.
func NewProvider(opts ...Option) *http.Client {
	return New(append([]Option{WithTimeout(TimeoutProvider)}, opts...)...)
}

func NewLong(opts ...Option) *http.Client {
	return New(append([]Option{WithTimeout(TimeoutLong)}, opts...)...)
}
