package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/signalalpha/hitbtc-go/internal/portfolio"
	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

var stdout io.Writer = os.Stdout

func printJSON(data interface{}) {
	if raw, ok := data.(json.RawMessage); ok {
		var v interface{}
		if err := json.Unmarshal(raw, &v); err == nil {
			data = v
		}
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(stdout, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Fprintln(stdout, string(jsonData))
}

func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	return t
}

func alignRight(columns ...int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	return configs
}

func renderTickers(tickers map[string]hitbtc.Ticker) {
	symbols := make([]string, 0, len(tickers))
	for s := range tickers {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	t := newTable(table.Row{"Symbol", "Last", "Bid", "Ask", "Low", "High", "Volume"})
	t.SetColumnConfigs(alignRight(2, 3, 4, 5, 6, 7))
	for _, s := range symbols {
		tk := tickers[s]
		t.AppendRow(table.Row{s, tk.Last, tk.Bid, tk.Ask, tk.Low, tk.High, tk.Volume})
	}
	t.Render()
}

func renderBalances(balances []hitbtc.Balance, version hitbtc.Version) {
	t := newTable(table.Row{"Currency", "Available", "Reserved", "Total"})
	t.SetColumnConfigs(alignRight(2, 3, 4))
	for _, b := range balances {
		free := b.Free(version)
		t.AppendRow(table.Row{b.Currency, free, b.Reserved, free.Add(b.Reserved)})
	}
	t.Render()
}

func renderOrders(orders []hitbtc.Order) {
	t := newTable(table.Row{"Client Order ID", "Symbol", "Side", "Type", "Status", "Price", "Quantity", "Filled"})
	t.SetColumnConfigs(alignRight(6, 7, 8))
	for _, o := range orders {
		t.AppendRow(table.Row{o.ClientOrderID, o.Symbol, o.Side, o.Type, o.Status, o.Price, o.Quantity, o.CumQuantity})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Orders", len(orders)})
	t.Render()
}

func renderTrades(trades []hitbtc.Trade) {
	t := newTable(table.Row{"Time", "Trade ID", "Symbol", "Side", "Price", "Quantity", "Fee"})
	t.SetColumnConfigs(alignRight(5, 6, 7))
	for _, tr := range trades {
		t.AppendRow(table.Row{
			tr.Timestamp.Time().UTC().Format("2006-01-02 15:04:05"),
			tr.ID, tr.Symbol, tr.Side, tr.Price, tr.Quantity, tr.Fee,
		})
	}
	t.Render()
}

func renderValuation(v portfolio.Valuation) {
	t := newTable(table.Row{"Currency", "Amount", "BTC Value", "Route"})
	t.SetColumnConfigs(alignRight(2, 3))
	for _, h := range v.Holdings {
		t.AppendRow(table.Row{h.Currency, h.Amount, h.BTCValue.StringFixed(8), h.Route})
	}
	t.AppendFooter(table.Row{"Total", "", v.Total.StringFixed(8), ""})
	t.Render()
}
