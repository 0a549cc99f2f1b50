package hitbtc

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

// recordedRequest is what the mock transport saw of one request.
type recordedRequest struct {
	Method string
	URI    string
	Header http.Header
	Body   string
}

// mockTransport answers registered method+path pairs and records every request.
type mockTransport struct {
	mu       sync.Mutex
	handlers map[string]roundTripFunc
	requests []recordedRequest
}

func (m *mockTransport) handle(method, path string, f roundTripFunc) {
	if m.handlers == nil {
		m.handlers = make(map[string]roundTripFunc)
	}
	m.handlers[method+" "+path] = f
}

func (m *mockTransport) reply(method, path string, status int, body string) {
	m.handle(method, path, func(*http.Request) (*http.Response, error) {
		return buildResponse(status, body), nil
	})
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = string(b)
	}

	m.mu.Lock()
	m.requests = append(m.requests, recordedRequest{
		Method: req.Method,
		URI:    req.URL.RequestURI(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	f, ok := m.handlers[req.Method+" "+req.URL.Path]
	m.mu.Unlock()

	if !ok {
		return nil, errors.Errorf("roundtrip mock to %s %s is not defined", req.Method, req.URL.Path)
	}
	return f(req)
}

func (m *mockTransport) last(t *testing.T) recordedRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.requests, "no request was sent")
	return m.requests[len(m.requests)-1]
}

func buildResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// fixedNonce always returns the same value, which makes v1 signatures reproducible.
type fixedNonce string

func (n fixedNonce) GetString() string { return string(n) }

const testNonce = fixedNonce("1500000000000000")

func newTestRestClient(t *testing.T, version Version, transport http.RoundTripper, options ...Option) *RestClient {
	t.Helper()
	options = append([]Option{
		WithCredentials("key", "secret"),
		WithHTTPClient(&http.Client{Transport: transport}),
		WithThrottle(0),
		WithNonceGenerator(testNonce),
	}, options...)

	client, err := NewRestClient(version, Live, options...)
	require.NoError(t, err)
	return client
}

func pathOf(uri string) string {
	if i := strings.Index(uri, "?"); i >= 0 {
		return uri[:i]
	}
	return uri
}
