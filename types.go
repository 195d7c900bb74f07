package graphin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Transport performs the network call for a single GraphQL operation.
type Transport interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*Response, error)
}

// TransportFunc is a helper type for plain functions used as a Transport
type TransportFunc func(ctx context.Context, url string, opts FetchOptions) (*Response, error)

// Fetch calls f.
func (f TransportFunc) Fetch(ctx context.Context, url string, opts FetchOptions) (*Response, error) {
	return f(ctx, url, opts)
}

// Response is what a Transport hands back: the status line and the raw body.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusText returns the reason phrase, falling back to the standard text for
// the status code.
func (r *Response) StatusText() string {
	if r == nil {
		return ""
	}
	if r.Status != "" {
		return r.Status
	}
	return http.StatusText(r.StatusCode)
}

// JSON decodes the body into v.
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// Credentials controls whether cookies are sent with a request.
type Credentials string

const (
	CredentialsOmit       Credentials = "omit"
	CredentialsSameOrigin Credentials = "same-origin"
	CredentialsInclude    Credentials = "include"
)

// FetchOptions holds the per-request transport settings.
type FetchOptions struct {
	Method      string
	Header      http.Header
	Credentials Credentials
	// Body is sent verbatim when set; otherwise the default transport sends
	// the query as a JSON body for non-GET methods.
	Body []byte
}

// Options holds every recognized client setting. The zero value disables
// caching and verbose output.
type Options struct {
	// Cache is the response time-to-live; zero or negative disables caching.
	Cache   time.Duration
	Fetch   FetchOptions
	Verbose bool
}

// OperationKind tells queries and mutations apart.
type OperationKind string

const (
	OperationQuery    OperationKind = "query"
	OperationMutation OperationKind = "mutation"
)

// defaultMethod returns the HTTP method used when none is configured.
func (k OperationKind) defaultMethod() string {
	if k == OperationMutation {
		return http.MethodPost
	}
	return http.MethodGet
}

// GraphQLError is a single entry of a response's "errors" list.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Locations  []Location             `json:"locations,omitempty"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// envelope is the standard GraphQL response body.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Option configures a Client at construction
type Option func(*Client)

// CallOption adjusts the options of a single call.
type CallOption func(*Options)
