package hitbtc

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_UnmarshalJSON(t *testing.T) {
	var ts Time
	require.NoError(t, json.Unmarshal([]byte(`1522756800000`), &ts))
	assert.Equal(t, time.Date(2018, 4, 3, 12, 0, 0, 0, time.UTC), ts.Time().UTC())

	require.NoError(t, json.Unmarshal([]byte(`"2018-04-03T12:00:00.000Z"`), &ts))
	assert.Equal(t, time.Date(2018, 4, 3, 12, 0, 0, 0, time.UTC), ts.Time().UTC())

	var empty Time
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.True(t, empty.Time().IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestBalance_Total(t *testing.T) {
	var b Balance
	require.NoError(t, json.Unmarshal([]byte(`{"currency_code":"BTC","cash":"1.25","reserved":"0.75"}`), &b))
	assert.Equal(t, "BTC", b.Currency)
	assert.Equal(t, "2", b.Total().String())

	require.NoError(t, json.Unmarshal([]byte(`{"currency":"ETH","available":"3","reserved":"1"}`), &b))
	assert.Equal(t, "ETH", b.Currency)
	assert.Equal(t, "4", b.Total().String())
}

func TestOrder_NumericIDs(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":840450210,"clientOrderId":"c1","status":"filled","cumQuantity":"1"}`), &o))
	assert.Equal(t, "840450210", o.ID)
	assert.Equal(t, "filled", o.Status)
}
