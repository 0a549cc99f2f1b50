package hitbtc

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	UserAgent = "hitbtc-go/1.0"

	// SignatureHeader carries the hex encoded HMAC-SHA512 request signature.
	SignatureHeader = "X-Signature"

	defaultConnectTimeout = 10 * time.Second
	defaultThrottle       = 100 * time.Millisecond
)

var logger = log.WithField("exchange", "hitbtc")

// RestClient signs and dispatches requests for one API version and environment. It owns
// its http.Client; a RestClient is safe for concurrent use.
type RestClient struct {
	httpClient *http.Client
	strategy   versionStrategy
	env        Environment
	baseURL    string

	key, secret string

	nonce    NonceGenerator
	throttle time.Duration
	logger   log.FieldLogger
}

// Option configures a RestClient.
type Option func(*RestClient)

// WithCredentials sets the API key and secret used by authenticated calls.
func WithCredentials(key, secret string) Option {
	return func(c *RestClient) {
		c.key = key
		c.secret = secret
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *RestClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithThrottle sets the delay issued before every call. Zero disables it.
func WithThrottle(d time.Duration) Option {
	return func(c *RestClient) {
		if d >= 0 {
			c.throttle = d
		}
	}
}

// WithNonceGenerator replaces the microsecond nonce generator of v1 calls.
func WithNonceGenerator(ng NonceGenerator) Option {
	return func(c *RestClient) {
		if ng != nil {
			c.nonce = ng
		}
	}
}

// WithLogger replaces the package logger.
func WithLogger(l log.FieldLogger) Option {
	return func(c *RestClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBaseURL points the client to another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *RestClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func newDefaultHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   defaultConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &http.Client{Transport: transport}
}

// NewRestClient builds a client for the given version and environment. An unknown
// version fails here, never at call time.
func NewRestClient(version Version, env Environment, options ...Option) (*RestClient, error) {
	strategy, err := strategyFor(version)
	if err != nil {
		return nil, err
	}

	if env != Live && env != Demo {
		return nil, &ConfigurationError{Field: "environment", Value: strconv.Itoa(int(env))}
	}

	c := &RestClient{
		httpClient: newDefaultHTTPClient(),
		strategy:   strategy,
		env:        env,
		baseURL:    strategy.baseURL(env),
		nonce:      NewMicrosecondNonce(),
		throttle:   defaultThrottle,
		logger:     logger,
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

func (c *RestClient) Version() Version {
	return c.strategy.version()
}

func (c *RestClient) Environment() Environment {
	return c.env
}

// HasCredentials reports whether both the key and the secret are set.
func (c *RestClient) HasCredentials() bool {
	return c.key != "" && c.secret != ""
}

// Sign returns the lower-case hex HMAC-SHA512 of payload keyed by secret.
func Sign(payload, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	_, _ = mac.Write([]byte(payload))
	return strings.ToLower(hex.EncodeToString(mac.Sum(nil)))
}

// signedRequest is the material of one authenticated call. URI is the path and query
// exactly as transmitted, Body is the form body of v2 POST calls.
type signedRequest struct {
	Method    string
	URI       string
	Body      string
	Signature string
}

func appendQuery(uri, query string) string {
	if query == "" {
		return uri
	}
	if strings.Contains(uri, "?") {
		return uri + "&" + query
	}
	return uri + "?" + query
}

// buildSignedRequest lays out the request URI and body for the client's version and
// signs them. The signed string is uri + body, and body is only ever set on POST.
func (c *RestClient) buildSignedRequest(path string, params url.Values, method string) signedRequest {
	method = strings.ToUpper(method)
	uri := c.strategy.pathPrefix(SegmentTrading) + strings.TrimLeft(path, "/")

	if c.strategy.requiresNonce() {
		uri = appendQuery(uri, "nonce="+c.nonce.GetString()+"&apikey="+c.key)
	}

	encoded := params.Encode()

	var body string
	if method == http.MethodPost && c.strategy.version() == V2 {
		body = encoded
	} else {
		uri = appendQuery(uri, encoded)
	}

	return signedRequest{
		Method:    method,
		URI:       uri,
		Body:      body,
		Signature: Sign(uri+body, c.secret),
	}
}

func (c *RestClient) newHTTPRequest(ctx context.Context, sr signedRequest) (*http.Request, error) {
	var body io.Reader
	if sr.Body != "" {
		body = strings.NewReader(sr.Body)
	}

	req, err := http.NewRequestWithContext(ctx, sr.Method, c.baseURL+sr.URI, body)
	if err != nil {
		return nil, errors.Wrapf(err, "hitbtc: unable to build request %s %s", sr.Method, sr.URI)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if sr.Body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return req, nil
}

// Exec sends an authenticated request to the trading segment and returns the decoded
// payload unchanged. Params go to the query string on GET and on every v1 call, and to
// the form body on v2 POST.
func (c *RestClient) Exec(ctx context.Context, path string, params url.Values, method string) (json.RawMessage, error) {
	if !c.HasCredentials() {
		return nil, ErrNoCredentials
	}

	if method == "" {
		method = http.MethodGet
	}

	sr := c.buildSignedRequest(path, params, method)
	req, err := c.newHTTPRequest(ctx, sr)
	if err != nil {
		return nil, err
	}

	if c.strategy.authPlacement() == AuthBasic {
		req.SetBasicAuth(c.key, c.secret)
	}
	req.Header.Set(SignatureHeader, sr.Signature)

	return c.do(ctx, SegmentTrading, req)
}

// PublicGet sends an unauthenticated GET to the public segment. The plain-text
// "Not implemented" body is turned into an APIError instead of a decode failure.
func (c *RestClient) PublicGet(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	uri := c.strategy.pathPrefix(SegmentPublic) + strings.TrimLeft(path, "/")
	uri = appendQuery(uri, query.Encode())

	req, err := c.newHTTPRequest(ctx, signedRequest{Method: http.MethodGet, URI: uri})
	if err != nil {
		return nil, err
	}

	return c.do(ctx, SegmentPublic, req)
}

// wait blocks the calling goroutine for the throttle delay, or until ctx is done.
func (c *RestClient) wait(ctx context.Context) error {
	if c.throttle <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.throttle)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *RestClient) debugEnabled() bool {
	if c.logger == nil {
		return false
	}
	entry, ok := c.logger.(*log.Entry)
	return !ok || entry.Logger.IsLevelEnabled(log.DebugLevel)
}

func (c *RestClient) do(ctx context.Context, segment Segment, req *http.Request) (json.RawMessage, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	debug := c.debugEnabled()
	if debug {
		c.logger.Debug(DebugRequest(req))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordRequestMetrics(segment, req.Method, "error", time.Since(start))
		return nil, &TransportError{Op: req.Method, URL: req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	if debug {
		dump, err := DebugResponse(resp)
		if err != nil {
			recordRequestMetrics(segment, req.Method, "error", time.Since(start))
			return nil, &TransportError{Op: "read " + req.Method, URL: req.URL.Path, Err: err}
		}
		c.logger.WithFields(log.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
		}).Debug(dump)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		recordRequestMetrics(segment, req.Method, "error", time.Since(start))
		return nil, &TransportError{Op: "read " + req.Method, URL: req.URL.Path, Err: err}
	}

	recordRequestMetrics(segment, req.Method, strconv.Itoa(resp.StatusCode), time.Since(start))

	if segment == SegmentPublic && string(bytes.TrimSpace(body)) == notImplementedBody {
		return nil, &APIError{Message: notImplementedBody, StatusCode: resp.StatusCode}
	}

	return decodeResponse(resp.StatusCode, body)
}

// decodeResponse validates the payload and returns it as is, unless it is an object
// carrying an error, which is returned as *APIError whatever the HTTP status.
func decodeResponse(statusCode int, body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, errors.Errorf("hitbtc: unable to decode response (status %d): %s", statusCode, truncate(trimmed, 256))
	}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, errors.Wrapf(err, "hitbtc: unable to decode error envelope (status %d)", statusCode)
		}

		if envelope.Error != nil {
			envelope.Error.StatusCode = statusCode
			return nil, envelope.Error
		}
	}

	return json.RawMessage(trimmed), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
