package graphin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/frux/graphin/internal/querytext"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 10 * 1024 * 1024

// HTTPTransport is the default Transport, backed by *http.Client.
type HTTPTransport struct {
	client *http.Client
	// anonymous shares client's transport but never carries cookies.
	anonymous *http.Client
	// maxBodySize is the largest response body accepted, in bytes.
	maxBodySize int64
}

// NewHTTPTransport wraps client; nil selects a client with a 30s timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	anonymous := *client
	anonymous.Jar = nil
	return &HTTPTransport{client: client, anonymous: &anonymous, maxBodySize: maxResponseSize}
}

// Fetch issues the request. GET requests carry the query only in the URL;
// other methods also send it as a JSON body unless opts.Body is set.
func (t *HTTPTransport) Fetch(ctx context.Context, url string, opts FetchOptions) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method != http.MethodGet && method != http.MethodHead {
		payload := opts.Body
		if payload == nil {
			var err error
			payload, err = json.Marshal(map[string]string{"query": querytext.FromURL(url)})
			if err != nil {
				return nil, errors.Wrap(err, "encoding request body")
			}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent())
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	client := t.client
	if opts.Credentials == CredentialsOmit || opts.Credentials == "" {
		client = t.anonymous
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	if int64(len(data)) > t.maxBodySize {
		return nil, errors.Wrapf(ErrResponseTooLarge, "body exceeds %d bytes", t.maxBodySize)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

// statusText strips the numeric code from resp.Status ("404 Not Found" → "Not Found").
func statusText(resp *http.Response) string {
	if len(resp.Status) > 4 && resp.Status[3] == ' ' {
		return resp.Status[4:]
	}
	if resp.Status != "" {
		return resp.Status
	}
	return http.StatusText(resp.StatusCode)
}
