package graphin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Query  string
	Header http.Header
	Body   string
	Cookie string
}

func newCapturingServer(t *testing.T, status int, body string) (*httptest.Server, chan capturedRequest) {
	t.Helper()
	requests := make(chan capturedRequest, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		requests <- capturedRequest{
			Method: r.Method,
			Query:  r.URL.Query().Get("query"),
			Header: r.Header.Clone(),
			Body:   string(raw),
			Cookie: r.Header.Get("Cookie"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func TestHTTPTransportGet(t *testing.T) {
	server, requests := newCapturingServer(t, 200, `{"data":{"a":1}}`)

	client, err := New(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	data, err := client.Query(context.Background(), "{ a }", Header("X-Trace", "abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	req := <-requests
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "{ a }", req.Query)
	assert.Empty(t, req.Body)
	assert.Equal(t, "abc", req.Header.Get("X-Trace"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "graphin/"+Version, req.Header.Get("User-Agent"))
}

func TestHTTPTransportPost(t *testing.T) {
	server, requests := newCapturingServer(t, 200, `{"data":{"ok":true}}`)

	client, err := New(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	mutation := "mutation { like(id: 1) }"
	_, err = client.Mutation(context.Background(), mutation)
	require.NoError(t, err)

	req := <-requests
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, mutation, req.Query)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(req.Body), &payload))
	assert.Equal(t, mutation, payload["query"])
}

func TestHTTPTransportExplicitBody(t *testing.T) {
	server, requests := newCapturingServer(t, 200, `{"data":null}`)
	transport := NewHTTPTransport(server.Client())

	_, err := transport.Fetch(context.Background(), server.URL+"?query=x", FetchOptions{
		Method: http.MethodPut,
		Body:   []byte(`{"custom":true}`),
	})
	require.NoError(t, err)

	req := <-requests
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, `{"custom":true}`, req.Body)
}

func TestHTTPTransportCredentials(t *testing.T) {
	server, requests := newCapturingServer(t, 200, `{"data":null}`)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	jar.SetCookies(serverURL, []*http.Cookie{{Name: "session", Value: "s3cret"}})

	httpClient := server.Client()
	httpClient.Jar = jar
	client, err := New(server.URL, WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, err = client.Query(context.Background(), "{a}")
	require.NoError(t, err)
	assert.Empty(t, (<-requests).Cookie, "cookies must be omitted by default")

	_, err = client.Query(context.Background(), "{a}", SendCredentials(CredentialsInclude))
	require.NoError(t, err)
	assert.Contains(t, (<-requests).Cookie, "session=s3cret")
}

func TestHTTPTransportStatusText(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	client, err := New(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = client.Query(context.Background(), "{a}")
	require.Error(t, err)

	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrorTypeTransport, clientErr.Type)
	assert.Equal(t, "request error: Bad Gateway", clientErr.Message)
	assert.Equal(t, http.StatusBadGateway, clientErr.StatusCode)
}

func TestHTTPTransportCanceledContext(t *testing.T) {
	server, _ := newCapturingServer(t, 200, `{"data":null}`)

	client, err := New(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Query(ctx, "{a}")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, &ClientError{Type: ErrorTypeTransport})
}

func TestHTTPTransportBodyLimit(t *testing.T) {
	server, _ := newCapturingServer(t, 200, `{"data":{"padding":"0123456789abcdef"}}`)

	transport := NewHTTPTransport(server.Client())
	transport.maxBodySize = 16
	client, err := New(server.URL, WithTransport(transport))
	require.NoError(t, err)

	_, err = client.Query(context.Background(), "{a}")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	assert.ErrorIs(t, err, &ClientError{Type: ErrorTypeTransport})
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestHTTPTransportBodyAtLimit(t *testing.T) {
	body := `{"data":1}`
	server, _ := newCapturingServer(t, 200, body)

	transport := NewHTTPTransport(server.Client())
	transport.maxBodySize = int64(len(body))
	client, err := New(server.URL, WithTransport(transport))
	require.NoError(t, err)

	data, err := client.Query(context.Background(), "{a}")
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}
