package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

// Holding is the BTC value of one currency balance.
type Holding struct {
	Currency string
	Amount   decimal.Decimal
	BTCValue decimal.Decimal
	// Route tells how the value was found: "btc", "direct", "via-eth" or "unpriced".
	Route string
}

// Valuation is the BTC value of a whole account.
type Valuation struct {
	Holdings []Holding
	Total    decimal.Decimal
}

// Value prices every balance in BTC with the last prices of tickers. A currency is
// priced through its XBTC market, else through XETH and ETHBTC, else it counts as zero.
// Amounts are free plus reserved.
func Value(balances []hitbtc.Balance, tickers map[string]hitbtc.Ticker, version hitbtc.Version) Valuation {
	ethBTC := decimal.Zero
	if t, ok := tickers["ETHBTC"]; ok {
		ethBTC = t.Last
	}

	v := Valuation{Total: decimal.Zero}
	for _, b := range balances {
		amount := b.Free(version).Add(b.Reserved)
		h := Holding{Currency: b.Currency, Amount: amount}

		switch {
		case b.Currency == "BTC":
			h.BTCValue, h.Route = amount, "btc"
		case b.Currency == "ETH":
			h.BTCValue, h.Route = amount.Mul(ethBTC), "via-eth"
		default:
			if t, ok := tickers[b.Currency+"BTC"]; ok {
				h.BTCValue, h.Route = amount.Mul(t.Last), "direct"
			} else if t, ok := tickers[b.Currency+"ETH"]; ok {
				h.BTCValue, h.Route = amount.Mul(t.Last).Mul(ethBTC), "via-eth"
			} else {
				h.BTCValue, h.Route = decimal.Zero, "unpriced"
			}
		}

		v.Holdings = append(v.Holdings, h)
		v.Total = v.Total.Add(h.BTCValue)
	}

	sort.SliceStable(v.Holdings, func(i, j int) bool {
		return v.Holdings[i].BTCValue.GreaterThan(v.Holdings[j].BTCValue)
	})
	return v
}
