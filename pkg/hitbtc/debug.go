package hitbtc

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

var maskedHeaders = map[string]bool{
	"Authorization":       true,
	SignatureHeader:       true,
	"X-Api-Key":           true,
	"Proxy-Authorization": true,
}

// DebugRequest renders a request for debug logs. Credential headers are cut to their
// first characters and the apikey query parameter is masked.
func DebugRequest(req *http.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Method: %s\n", req.Method)
	fmt.Fprintf(&b, "URL: %s\n", maskQuery(req.URL.String()))
	b.WriteString("Headers:\n")

	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := req.Header[k]
		if maskedHeaders[k] && len(v) > 0 {
			fmt.Fprintf(&b, "  %s: %s\n", k, mask(v[0]))
			continue
		}
		fmt.Fprintf(&b, "  %s: %v\n", k, v)
	}

	if req.Body != nil && req.GetBody != nil {
		if rc, err := req.GetBody(); err == nil {
			bodyBytes, _ := io.ReadAll(rc)
			_ = rc.Close()
			if len(bodyBytes) > 0 {
				fmt.Fprintf(&b, "Body: %s\n", string(bodyBytes))
			}
		}
	}
	return b.String()
}

// DebugResponse renders a response for debug logs and leaves its body readable.
func DebugResponse(resp *http.Response) (string, error) {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	b.WriteString("Response Headers:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %v\n", k, resp.Header[k])
	}
	fmt.Fprintf(&b, "Body: %s\n", truncate(bytes.TrimSpace(bodyBytes), 512))
	return b.String(), nil
}

func mask(s string) string {
	if len(s) > 10 {
		return s[:10] + "..."
	}
	return "***"
}

func maskQuery(u string) string {
	i := strings.Index(u, "apikey=")
	if i < 0 {
		return u
	}

	start := i + len("apikey=")
	end := strings.IndexByte(u[start:], '&')
	if end < 0 {
		return u[:start] + "***"
	}
	return u[:start] + "***" + u[start+end:]
}
