package portfolio

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// SymbolPrecision is the price and quantity granularity of a symbol.
type SymbolPrecision struct {
	PriceStep decimal.Decimal // tickSize
	SizeStep  decimal.Decimal // quantityIncrement
}

// ParseSymbols reads the symbol list payload into a precision table keyed by symbol. It
// understands both the v1 (symbol, step, lot) and the v2 (id, tickSize,
// quantityIncrement) field names.
func ParseSymbols(payload []byte) (map[string]SymbolPrecision, error) {
	var symbols []struct {
		ID                string          `json:"id"`
		Symbol            string          `json:"symbol"`
		TickSize          decimal.Decimal `json:"tickSize"`
		QuantityIncrement decimal.Decimal `json:"quantityIncrement"`
		Step              decimal.Decimal `json:"step"`
		Lot               decimal.Decimal `json:"lot"`
	}
	if err := json.Unmarshal(payload, &symbols); err != nil {
		return nil, err
	}

	table := make(map[string]SymbolPrecision, len(symbols))
	for _, s := range symbols {
		name := s.ID
		if name == "" {
			name = s.Symbol
		}
		if name == "" {
			continue
		}

		p := SymbolPrecision{PriceStep: s.TickSize, SizeStep: s.QuantityIncrement}
		if p.PriceStep.IsZero() {
			p.PriceStep = s.Step
		}
		if p.SizeStep.IsZero() {
			p.SizeStep = s.Lot
		}
		table[strings.ToUpper(name)] = p
	}
	return table, nil
}

// RoundToStep rounds value to the nearest multiple of step. A zero step leaves value as is.
func RoundToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	return value.Div(step).Round(0).Mul(step)
}

// FloorToStep rounds value down to a multiple of step, so a quantity never exceeds
// what is available.
func FloorToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	return value.Div(step).Floor().Mul(step)
}

// AdjustPrice rounds price to the symbol's tick size.
func (p SymbolPrecision) AdjustPrice(price decimal.Decimal) decimal.Decimal {
	return RoundToStep(price, p.PriceStep)
}

// AdjustQuantity floors quantity to the symbol's quantity increment. The result is never
// below one increment.
func (p SymbolPrecision) AdjustQuantity(quantity decimal.Decimal) decimal.Decimal {
	adjusted := FloorToStep(quantity, p.SizeStep)
	if p.SizeStep.Sign() > 0 && adjusted.LessThan(p.SizeStep) {
		return p.SizeStep
	}
	return adjusted
}

// FormatPrice renders price with as many decimals as the tick size has.
func (p SymbolPrecision) FormatPrice(price decimal.Decimal) string {
	return formatStep(p.AdjustPrice(price), p.PriceStep)
}

func formatStep(value, step decimal.Decimal) string {
	decimals := int32(0)
	if exp := step.Exponent(); exp < 0 && !step.IsZero() {
		decimals = -exp
	}
	return value.StringFixed(decimals)
}
