package llm

import (
	"net/http"
	"time"
)

const defaultHTTPTimeout = 60 * time.Second

type options struct {
	baseURL    string
	apiKey     string
	seed       int
	httpClient *http.Client
}

// Option configures a provider.
type Option func(*options)

// WithBaseURL points the provider at a specific endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithAPIKey sets the credential sent to hosted providers.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithSeed fixes the sampling seed on providers that accept one.
func WithSeed(seed int) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithHTTPClient replaces the HTTP client used to reach the provider.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

func newOptions(opts []Option) options {
	o := options{httpClient: &http.Client{Timeout: defaultHTTPTimeout}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
