package graphin

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/frux/graphin/internal/querytext"
)

const tracerName = "github.com/frux/graphin"

// Client issues GraphQL queries and mutations against one endpoint, caching
// responses by request URL when a TTL is configured. It is safe for
// concurrent use.
type Client struct {
	endpoint  string
	options   Options
	transport Transport
	cache     CacheStore
	logger    Logger
	metrics   *MetricsCollector
	tracer    trace.Tracer
	dedup     bool
	inflight  singleflight.Group
}

// New constructs a Client for endpoint. Every call uses the options given
// here unless a call option overrides them. An invalid configuration returns
// a ClientError of type ErrorTypeConfiguration.
func New(endpoint string, options ...Option) (*Client, error) {
	client := &Client{
		endpoint:  endpoint,
		transport: NewHTTPTransport(nil),
		cache:     NewInMemoryStore(),
		logger:    NewSimpleLogger(),
		metrics:   nil,
		tracer:    otel.Tracer(tracerName),
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		return nil, err
	}
	return client, nil
}

// Endpoint returns the GraphQL endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Options returns a copy of the global options.
func (c *Client) Options() Options {
	return c.options.clone()
}

// QueryURL returns the request URL for query: the endpoint with the
// percent-encoded query text as its "query" parameter. It is also the cache key.
func (c *Client) QueryURL(query string) string {
	return querytext.BuildURL(c.endpoint, query)
}

// Query runs a GraphQL query (GET by default) and returns the "data" member
// of the response.
func (c *Client) Query(ctx context.Context, query string, opts ...CallOption) (json.RawMessage, error) {
	return c.execute(ctx, OperationQuery, query, opts)
}

// Mutation runs a GraphQL mutation (POST by default) and returns the "data"
// member of the response.
func (c *Client) Mutation(ctx context.Context, query string, opts ...CallOption) (json.RawMessage, error) {
	return c.execute(ctx, OperationMutation, query, opts)
}

// QueryJSON runs Query and unmarshals the data into v.
func (c *Client) QueryJSON(ctx context.Context, query string, v interface{}, opts ...CallOption) error {
	data, err := c.Query(ctx, query, opts...)
	if err != nil {
		return err
	}
	return c.decodeData(data, v)
}

// MutationJSON runs Mutation and unmarshals the data into v.
func (c *Client) MutationJSON(ctx context.Context, query string, v interface{}, opts ...CallOption) error {
	data, err := c.Mutation(ctx, query, opts...)
	if err != nil {
		return err
	}
	return c.decodeData(data, v)
}

// Invalidate drops the cached response for query.
func (c *Client) Invalidate(query string) {
	c.cache.Delete(c.QueryURL(query))
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	c.cache.Clear()
	c.metrics.RecordCacheSize(0)
}

func (c *Client) decodeData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ClientError{
			Type:      ErrorTypeDecode,
			Message:   "failed to unmarshal response data",
			Cause:     err,
			Timestamp: time.Now(),
		}
	}
	return nil
}

func (c *Client) execute(ctx context.Context, kind OperationKind, query string, callOpts []CallOption) (json.RawMessage, error) {
	if !utf8.ValidString(query) {
		c.metrics.RecordError(ErrorTypeConfiguration, kind)
		return nil, configurationError("query must be valid UTF-8 text", ErrInvalidQuery)
	}

	queryURL := c.QueryURL(query)
	opts := c.mergeOptions(kind, callOpts)
	cacheEnabled := opts.Cache > 0

	if cacheEnabled {
		if data, found := c.lookupCache(queryURL, opts.Cache); found {
			c.metrics.RecordCacheHit(kind)
			if opts.Verbose {
				c.logger.Debug("Cache hit", "operation", kind, "url", queryURL, "ttl", opts.Cache)
			}
			return data, nil
		}
		c.metrics.RecordCacheMiss(kind)
	}

	var data json.RawMessage
	var err error
	if c.dedup && canDeduplicate(opts.Fetch.Method) {
		data, err = c.fetchShared(ctx, kind, queryURL, query, opts)
	} else {
		data, err = c.fetch(ctx, kind, queryURL, query, opts)
	}
	if err != nil {
		return nil, err
	}

	if cacheEnabled {
		c.storeCache(queryURL, data)
	}
	return data, nil
}

// fetchShared runs fetch once for all concurrent callers making an identical
// request. The shared call is detached from any single caller's
// cancellation; each caller stops waiting when its own ctx is done.
func (c *Client) fetchShared(ctx context.Context, kind OperationKind, queryURL, query string, opts Options) (json.RawMessage, error) {
	key := deduplicationKey(queryURL, opts.Fetch)
	ch := c.inflight.DoChan(key, func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), kind, queryURL, query, opts)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.RecordDeduplicationHit(kind)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		data := res.Val.(json.RawMessage)
		if res.Shared {
			data = cloneData(data)
		}
		return data, nil
	case <-ctx.Done():
		c.metrics.RecordError(ErrorTypeTransport, kind)
		return nil, &ClientError{
			Type:      ErrorTypeTransport,
			Message:   "gave up waiting for shared call",
			Cause:     ctx.Err(),
			Method:    opts.Fetch.Method,
			URL:       queryURL,
			Timestamp: time.Now(),
		}
	}
}

// fetch performs one transport call and interprets the GraphQL envelope.
func (c *Client) fetch(ctx context.Context, kind OperationKind, queryURL, query string, opts Options) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "graphin."+string(kind), trace.WithAttributes(
		attribute.String("graphql.operation.type", string(kind)),
		attribute.String("http.request.method", opts.Fetch.Method),
		attribute.Int64("graphin.cache_ttl_ms", opts.Cache.Milliseconds()),
	))
	defer span.End()

	queryLog := querytext.Normalize(query)
	if opts.Verbose {
		c.logger.Debug("Graphin request", "operation", kind, "method", opts.Fetch.Method, "query", queryLog)
	}

	start := time.Now()
	c.metrics.RecordStart(kind)
	resp, err := c.transport.Fetch(ctx, queryURL, opts.Fetch)
	if err == nil {
		var data json.RawMessage
		data, err = c.interpret(resp, queryURL, opts.Fetch.Method)
		if err == nil {
			elapsed := time.Since(start)
			c.metrics.RecordEnd(kind)
			c.metrics.RecordOperation(kind, "success", elapsed)
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			if opts.Verbose {
				c.logger.Info("✔ Graphin", "query", queryLog, "elapsed", elapsed,
					"size", humanize.Bytes(uint64(len(resp.Body))))
			}
			return data, nil
		}
	} else {
		err = &ClientError{
			Type:      ErrorTypeTransport,
			Message:   "transport call failed",
			Cause:     err,
			Method:    opts.Fetch.Method,
			URL:       queryURL,
			Timestamp: time.Now(),
		}
	}

	elapsed := time.Since(start)
	c.metrics.RecordEnd(kind)
	c.metrics.RecordOperation(kind, "failure", elapsed)
	c.metrics.RecordError(errorType(err), kind)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if opts.Verbose {
		c.logger.Error("✖ Graphin", "query", queryLog, "elapsed", elapsed, "error", err)
	}
	return nil, err
}

// interpret turns a transport response into data or an error.
func (c *Client) interpret(resp *Response, queryURL, method string) (json.RawMessage, error) {
	if resp == nil {
		return nil, &ClientError{
			Type:      ErrorTypeTransport,
			Message:   "transport returned no response",
			Method:    method,
			URL:       queryURL,
			Timestamp: time.Now(),
		}
	}

	var body envelope
	decodeErr := resp.JSON(&body)

	if decodeErr == nil && body.Errors != nil && (len(body.Errors) > 0 || !resp.OK()) {
		queryErr := NewQueryError(body.Errors, queryURL)
		queryErr.StatusCode = resp.StatusCode
		queryErr.Data = body.Data
		return nil, queryErr
	}

	if !resp.OK() {
		return nil, &ClientError{
			Type:       ErrorTypeTransport,
			Message:    "request error: " + resp.StatusText(),
			Method:     method,
			URL:        queryURL,
			StatusCode: resp.StatusCode,
			Timestamp:  time.Now(),
		}
	}

	if decodeErr != nil {
		return nil, &ClientError{
			Type:       ErrorTypeDecode,
			Message:    "response body is not a GraphQL JSON document",
			Cause:      decodeErr,
			Method:     method,
			URL:        queryURL,
			StatusCode: resp.StatusCode,
			Timestamp:  time.Now(),
		}
	}

	return body.Data, nil
}

// cloneData copies data so callers never share a backing array.
func cloneData(data json.RawMessage) json.RawMessage {
	if data == nil {
		return nil
	}
	return append(json.RawMessage(nil), data...)
}

func errorType(err error) string {
	switch e := err.(type) {
	case *QueryError:
		return ErrorTypeGraphQL
	case *ClientError:
		return e.Type
	default:
		return "Unknown"
	}
}
