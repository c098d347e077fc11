// Package yahoo implements market data sources on Yahoo Finance daily
// chart data via github.com/piquette/finance-go.
package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

// Client derives quotes and FX rates from recent daily bars. It needs no
// API key, which makes it the default provider. Fundamentals (sector,
// market cap, 52-week range) are not available on this feed; quotes carry
// price and day change only.
type Client struct {
	logger *common.Logger
	// window of history fetched per quote; two bars are enough for a
	// change calculation, the margin covers market holidays
	lookback time.Duration
}

var (
	_ interfaces.QuoteSource = (*Client)(nil)
	_ interfaces.FxSource    = (*Client)(nil)
)

// New creates a Yahoo chart client.
func New(logger *common.Logger) *Client {
	return &Client{logger: logger, lookback: 10 * 24 * time.Hour}
}

// currency by Yahoo exchange suffix; bare symbols trade in USD
var suffixCurrencies = map[string]string{
	"DE": "EUR",
	"F":  "EUR",
	"AS": "EUR",
	"PA": "EUR",
	"MI": "EUR",
	"BR": "EUR",
	"MC": "EUR",
	"L":  "GBP",
	"SW": "CHF",
	"TO": "CAD",
	"AX": "AUD",
	"HK": "HKD",
	"T":  "JPY",
}

func currencyForSymbol(symbol string) string {
	idx := strings.LastIndex(symbol, ".")
	if idx < 0 {
		return "USD"
	}
	if currency, ok := suffixCurrencies[symbol[idx+1:]]; ok {
		return currency
	}
	return "USD"
}

// dailyBars fetches recent daily bars for a symbol, oldest first.
func (c *Client) dailyBars(symbol string) ([]finance.ChartBar, error) {
	end := time.Now()
	start := end.Add(-c.lookback)
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	var bars []finance.ChartBar
	for iter.Next() {
		bars = append(bars, *iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("chart for %s: %w", symbol, err)
	}
	return bars, nil
}

// GetQuote prices a symbol from its two most recent daily closes.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", interfaces.ErrQuoteUnavailable)
	}

	bars, err := c.dailyBars(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", interfaces.ErrQuoteUnavailable, symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no chart data for %s", interfaces.ErrQuoteUnavailable, symbol)
	}

	last := bars[len(bars)-1]
	price := last.Close.InexactFloat64()
	if price <= 0 {
		return nil, fmt.Errorf("%w: no price for %s", interfaces.ErrQuoteUnavailable, symbol)
	}

	prevClose := price
	if len(bars) >= 2 {
		prevClose = bars[len(bars)-2].Close.InexactFloat64()
	}
	change := price - prevClose
	var changePct float64
	if prevClose > 0 {
		changePct = change / prevClose * 100
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Currency:      currencyForSymbol(symbol),
		Change:        change,
		ChangePercent: changePct,
		Volume:        int64(last.Volume),
		CompanyName:   symbol,
	}, nil
}

// fxPairSymbol builds the Yahoo ticker for a currency pair.
func fxPairSymbol(from, to string) string {
	return from + to + "=X"
}

// GetFxRate reads the pair's most recent daily close.
func (c *Client) GetFxRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))
	if from == to {
		return 1.0, nil
	}

	bars, err := c.dailyBars(fxPairSymbol(from, to))
	if err != nil {
		return 0, fmt.Errorf("fx rate %s/%s: %w", from, to, err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("fx rate %s/%s: no chart data", from, to)
	}
	rate := bars[len(bars)-1].Close.InexactFloat64()
	if rate <= 0 {
		return 0, fmt.Errorf("fx rate %s/%s: no usable rate", from, to)
	}
	return rate, nil
}
