package graphin

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// WithCache sets the default response TTL; zero disables caching
func WithCache(ttl time.Duration) Option {
	return func(c *Client) {
		c.options.Cache = ttl
	}
}

// WithFetchOptions sets the default transport options
func WithFetchOptions(opts FetchOptions) Option {
	return func(c *Client) {
		c.options.Fetch = opts.clone()
	}
}

// WithVerbose toggles timing and query logging for every call
func WithVerbose(verbose bool) Option {
	return func(c *Client) {
		c.options.Verbose = verbose
	}
}

// WithTransport sets the transport used for every call
func WithTransport(transport Transport) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithHTTPClient makes the default transport use client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.transport = NewHTTPTransport(client)
	}
}

// WithLogger sets the logger for verbose output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus metrics on the default registerer. Every
// client built with it shares one collector; use WithMetricsCollector with
// NewMetricsCollectorWithRegistry for per-client metrics.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = defaultMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithTracerProvider sets where per-call spans are created; nil keeps the global provider
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		if provider != nil {
			c.tracer = provider.Tracer(tracerName)
		}
	}
}

// WithCacheStore replaces the default in-memory cache store
func WithCacheStore(store CacheStore) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithDeduplication shares one transport call between concurrent identical
// GET, HEAD or OPTIONS calls. Calls differing in headers, credentials or body
// are never merged, and mutations sent with POST always run on their own.
func WithDeduplication() Option {
	return func(c *Client) {
		c.dedup = true
	}
}

// CacheTTL overrides the response TTL for one call.
func CacheTTL(ttl time.Duration) CallOption {
	return func(o *Options) {
		o.Cache = ttl
	}
}

// NoCache disables caching for one call.
func NoCache() CallOption {
	return CacheTTL(0)
}

// Verbose overrides verbose output for one call.
func Verbose(verbose bool) CallOption {
	return func(o *Options) {
		o.Verbose = verbose
	}
}

// Fetch merges opts over the configured transport options; set fields win.
func Fetch(opts FetchOptions) CallOption {
	return func(o *Options) {
		o.Fetch = o.Fetch.merge(opts)
	}
}

// Method sets the HTTP method for one call.
func Method(method string) CallOption {
	return func(o *Options) {
		o.Fetch.Method = method
	}
}

// Header sets a request header for one call.
func Header(key, value string) CallOption {
	return func(o *Options) {
		if o.Fetch.Header == nil {
			o.Fetch.Header = make(http.Header)
		}
		o.Fetch.Header.Set(key, value)
	}
}

// SendCredentials sets the cookie policy for one call.
func SendCredentials(policy Credentials) CallOption {
	return func(o *Options) {
		o.Fetch.Credentials = policy
	}
}

// clone returns a copy that shares no maps or slices with o.
func (o FetchOptions) clone() FetchOptions {
	out := o
	if o.Header != nil {
		out.Header = o.Header.Clone()
	}
	if o.Body != nil {
		out.Body = append([]byte(nil), o.Body...)
	}
	return out
}

// merge returns o overlaid with the set fields of override. Headers are
// merged key by key.
func (o FetchOptions) merge(override FetchOptions) FetchOptions {
	out := o.clone()
	if override.Method != "" {
		out.Method = override.Method
	}
	if override.Credentials != "" {
		out.Credentials = override.Credentials
	}
	if override.Body != nil {
		out.Body = append([]byte(nil), override.Body...)
	}
	for key, values := range override.Header {
		if out.Header == nil {
			out.Header = make(http.Header)
		}
		out.Header[key] = append([]string(nil), values...)
	}
	return out
}

// withDefaults fills in the method and credentials policy for kind.
func (o FetchOptions) withDefaults(kind OperationKind) FetchOptions {
	if o.Method == "" {
		o.Method = kind.defaultMethod()
	}
	o.Method = strings.ToUpper(o.Method)
	if o.Credentials == "" {
		o.Credentials = CredentialsOmit
	}
	return o
}

// clone returns a deep copy of o.
func (o Options) clone() Options {
	out := o
	out.Fetch = o.Fetch.clone()
	return out
}

// mergeOptions applies call options to a fresh copy of the global options.
func (c *Client) mergeOptions(kind OperationKind, callOpts []CallOption) Options {
	merged := c.options.clone()
	for _, opt := range callOpts {
		if opt != nil {
			opt(&merged)
		}
	}
	merged.Fetch = merged.Fetch.withDefaults(kind)
	return merged
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var problems []string
	var cause error

	if endpointProblems := validateEndpoint(c.endpoint); len(endpointProblems) > 0 {
		problems = append(problems, endpointProblems...)
		cause = ErrInvalidEndpoint
	}
	problems = append(problems, c.validateCacheConfig()...)
	problems = append(problems, c.validateFetchConfig()...)

	if c.transport == nil {
		problems = append(problems, "transport cannot be nil")
	}
	if c.logger == nil {
		problems = append(problems, "logger cannot be nil")
	}

	if len(problems) > 0 {
		return configurationError("configuration validation failed: "+strings.Join(problems, "; "), cause)
	}
	return nil
}

func validateEndpoint(endpoint string) []string {
	if endpoint == "" {
		return []string{"endpoint must be a non-empty GraphQL endpoint URL"}
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return []string{fmt.Sprintf("endpoint %q is not a valid URL: %v", endpoint, err)}
	}
	if u.Scheme == "" || u.Host == "" {
		return []string{fmt.Sprintf("endpoint %q must include a scheme and host", endpoint)}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return []string{fmt.Sprintf("endpoint %q must not carry a query string or fragment", endpoint)}
	}
	return nil
}

func (c *Client) validateCacheConfig() []string {
	var problems []string

	if c.cache == nil {
		problems = append(problems, "cache store cannot be nil")
	}
	if c.options.Cache < 0 {
		problems = append(problems, "cache TTL cannot be negative")
	}

	return problems
}

func (c *Client) validateFetchConfig() []string {
	var problems []string

	switch c.options.Fetch.Credentials {
	case "", CredentialsOmit, CredentialsSameOrigin, CredentialsInclude:
	default:
		problems = append(problems, fmt.Sprintf("unknown credentials policy %q", c.options.Fetch.Credentials))
	}

	return problems
}
