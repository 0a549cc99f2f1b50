package hitbtc

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ErrNoCredentials is returned by authenticated calls on a client built without an API
// key and secret.
var ErrNoCredentials = errors.New("hitbtc: api key and secret are required for trading calls")

// ErrNotImplemented matches the APIError synthesized when a public endpoint answers with
// the plain "Not implemented" body.
var ErrNotImplemented = errors.New("hitbtc: not implemented")

// ErrInvalidOrderSide is returned when an order side is neither buy nor sell.
var ErrInvalidOrderSide = errors.New("hitbtc: order side must be buy or sell")

const notImplementedBody = "Not implemented"

// APIError is an error reported by the exchange inside the response payload.
type APIError struct {
	Code        int    `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description"`

	// StatusCode is the HTTP status of the response that carried the error.
	StatusCode int `json:"-"`
}

// UnmarshalJSON accepts the code as a number or a numeric string. Any other code is
// left as zero so the message still reaches the caller.
func (e *APIError) UnmarshalJSON(data []byte) error {
	var aux struct {
		Code        json.RawMessage `json:"code"`
		Message     string          `json:"message"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.Message = aux.Message
	e.Description = aux.Description
	e.Code = 0
	if code, err := strconv.Atoi(strings.TrimSpace(rawString(aux.Code))); err == nil {
		e.Code = code
	}
	return nil
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "hitbtc api error (%d): %s", e.Code, e.Message)
	if e.Description != "" {
		b.WriteString(". ")
		b.WriteString(e.Description)
	}
	return b.String()
}

// Is lets errors.Is(err, ErrNotImplemented) match the synthesized error.
func (e *APIError) Is(target error) bool {
	return target == ErrNotImplemented && e.Message == notImplementedBody
}

// TransportError wraps a failure to reach the API or to read its response.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hitbtc transport error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a version, segment or environment outside the known set.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("hitbtc: invalid %s %q", e.Field, e.Value)
}
