package hitbtc

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Version selects the wire protocol of the HitBTC API.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	}
	return "v?"
}

// Environment selects the API host.
type Environment int

const (
	Live Environment = iota
	Demo
)

func (e Environment) String() string {
	if e == Demo {
		return "demo"
	}
	return "live"
}

// ParseEnvironment maps "live"/"demo" (case-insensitive) to an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "live", "production", "prod":
		return Live, nil
	case "demo", "sandbox", "testnet":
		return Demo, nil
	}
	return Live, &ConfigurationError{Field: "environment", Value: s}
}

// Segment is the part of the API a request targets.
type Segment string

const (
	SegmentPublic  Segment = "public"
	SegmentTrading Segment = "trading"
)

// AuthPlacement tells where the API key travels on authenticated calls.
type AuthPlacement int

const (
	// AuthQueryKey sends the key as the apikey query parameter.
	AuthQueryKey AuthPlacement = iota
	// AuthBasic sends key and secret as HTTP basic auth credentials.
	AuthBasic
)

const (
	urlV1     = "http://api.hitbtc.com"
	urlV1Demo = "http://demo-api.hitbtc.com"
	urlV2     = "https://api.hitbtc.com"
	urlV2Demo = "https://demo-api.hitbtc.com"
)

// BaseURL returns the API host for the given version and environment.
func BaseURL(v Version, env Environment) (string, error) {
	s, err := strategyFor(v)
	if err != nil {
		return "", err
	}
	return s.baseURL(env), nil
}

// PathPrefix returns the URL path prefix of a segment. V2 trading routes carry no
// segment word: /api/2/ instead of /api/2/trading/.
func PathPrefix(seg Segment, v Version) (string, error) {
	s, err := strategyFor(v)
	if err != nil {
		return "", err
	}
	if seg != SegmentPublic && seg != SegmentTrading {
		return "", &ConfigurationError{Field: "segment", Value: string(seg)}
	}
	return s.pathPrefix(seg), nil
}

// versionStrategy holds everything that differs between the two protocol versions.
type versionStrategy interface {
	version() Version
	baseURL(env Environment) string
	pathPrefix(seg Segment) string
	authPlacement() AuthPlacement
	requiresNonce() bool

	// endpoint paths relative to the trading prefix
	balancePath() string
	activeOrdersPath() string
	newOrderPath() string
	tradeHistoryPath() string

	// freeBalance picks the amount available for trading: cash in v1, available in v2.
	freeBalance(b Balance) decimal.Decimal
}

func strategyFor(v Version) (versionStrategy, error) {
	switch v {
	case V1:
		return v1Strategy{}, nil
	case V2:
		return v2Strategy{}, nil
	}
	return nil, &ConfigurationError{Field: "version", Value: v.String()}
}

type v1Strategy struct{}

func (v1Strategy) version() Version { return V1 }

func (v1Strategy) baseURL(env Environment) string {
	if env == Demo {
		return urlV1Demo
	}
	return urlV1
}

func (v1Strategy) pathPrefix(seg Segment) string {
	return "/api/1/" + string(seg) + "/"
}

func (v1Strategy) authPlacement() AuthPlacement          { return AuthQueryKey }
func (v1Strategy) requiresNonce() bool                   { return true }
func (v1Strategy) balancePath() string                   { return "balance" }
func (v1Strategy) activeOrdersPath() string              { return "orders/active" }
func (v1Strategy) tradeHistoryPath() string              { return "trades" }
func (v1Strategy) freeBalance(b Balance) decimal.Decimal { return b.Cash }

// v1 has no path form for client order ids, the id goes out as a parameter.
func (v1Strategy) newOrderPath() string { return "new_order" }

type v2Strategy struct{}

func (v2Strategy) version() Version { return V2 }

func (v2Strategy) baseURL(env Environment) string {
	if env == Demo {
		return urlV2Demo
	}
	return urlV2
}

func (v2Strategy) pathPrefix(seg Segment) string {
	if seg == SegmentPublic {
		return "/api/2/public/"
	}
	return "/api/2/"
}

func (v2Strategy) authPlacement() AuthPlacement          { return AuthBasic }
func (v2Strategy) requiresNonce() bool                   { return false }
func (v2Strategy) balancePath() string                   { return "trading/balance" }
func (v2Strategy) activeOrdersPath() string              { return "order" }
func (v2Strategy) tradeHistoryPath() string              { return "history/trades" }
func (v2Strategy) freeBalance(b Balance) decimal.Decimal { return b.Available }

func (v2Strategy) newOrderPath() string { return "order" }
