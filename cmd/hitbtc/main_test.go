package main

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/signalalpha/hitbtc-go/internal/portfolio"
	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func TestNewClientOrderID(t *testing.T) {
	a, b := newClientOrderID(), newClientOrderID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}

func TestPrintJSON_RawMessageIsIndented(t *testing.T) {
	buf := captureStdout(t)
	printJSON(json.RawMessage(`{"timestamp":1}`))
	assert.Equal(t, "{\n  \"timestamp\": 1\n}\n", buf.String())
}

func TestRenderValuation(t *testing.T) {
	buf := captureStdout(t)
	renderValuation(portfolio.Value([]hitbtc.Balance{
		{Currency: "BTC", Available: decimal.RequireFromString("0.5")},
	}, nil, hitbtc.V2))

	out := buf.String()
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "0.50000000")
}
