// Package eodhd implements market data sources against the EODHD REST API.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

// Client talks to eodhd.com. It serves quotes, FX rates and news. Symbols
// arrive in Yahoo-style notation (AAPL, SAP.DE, ^GSPC, EURUSD=X) and are
// normalized to EODHD notation internally.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
}

var (
	_ interfaces.QuoteSource = (*Client)(nil)
	_ interfaces.FxSource    = (*Client)(nil)
	_ interfaces.NewsSource  = (*Client)(nil)
)

// New creates an EODHD client from config.
func New(cfg *common.EODHDConfig, logger *common.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
		logger:     logger,
	}
}

// normalizeSymbol maps Yahoo-style symbols onto EODHD tickers. ^GSPC
// becomes GSPC.INDX, EURUSD=X becomes EURUSD.FOREX, bare US tickers get
// the .US suffix, suffixed tickers pass through.
func normalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case strings.HasPrefix(symbol, "^"):
		return strings.TrimPrefix(symbol, "^") + ".INDX"
	case strings.HasSuffix(symbol, "=X"):
		return strings.TrimSuffix(symbol, "=X") + ".FOREX"
	case strings.Contains(symbol, "."):
		return symbol
	default:
		return symbol + ".US"
	}
}

// exchange suffix fallbacks used when fundamentals give no currency
var suffixCurrencies = map[string]string{
	"US":    "USD",
	"DE":    "EUR",
	"F":     "EUR",
	"AS":    "EUR",
	"PA":    "EUR",
	"MI":    "EUR",
	"BR":    "EUR",
	"MC":    "EUR",
	"LSE":   "GBP",
	"SW":    "CHF",
	"TO":    "CAD",
	"AU":    "AUD",
	"HK":    "HKD",
	"T":     "JPY",
	"INDX":  "USD",
	"FOREX": "USD",
}

func currencyForSuffix(ticker string) string {
	idx := strings.LastIndex(ticker, ".")
	if idx < 0 {
		return "USD"
	}
	if currency, ok := suffixCurrencies[ticker[idx+1:]]; ok {
		return currency
	}
	return "USD"
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("eodhd api key not configured")
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.apiKey)
	query.Set("fmt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach eodhd: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<22))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("eodhd returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// naNumber decodes EODHD numeric fields, which arrive as the string "NA"
// when the feed has no value. NA and unparseable strings decode to zero so
// a missing volume or change never sinks an otherwise good quote.
type naNumber float64

func (n *naNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = naNumber(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = naNumber(f)
	return nil
}

// realTimeQuote is the /real-time payload.
type realTimeQuote struct {
	Code          string   `json:"code"`
	Close         naNumber `json:"close"`
	PreviousClose naNumber `json:"previousClose"`
	Change        naNumber `json:"change"`
	ChangePercent naNumber `json:"change_p"`
	Volume        naNumber `json:"volume"`
}

type fundamentals struct {
	General struct {
		Name         string `json:"Name"`
		Exchange     string `json:"Exchange"`
		CurrencyCode string `json:"CurrencyCode"`
		Sector       string `json:"Sector"`
	} `json:"General"`
	Highlights struct {
		MarketCapitalization float64 `json:"MarketCapitalization"`
		PERatio              float64 `json:"PERatio"`
	} `json:"Highlights"`
	Technicals struct {
		FiftyTwoWeekHigh float64 `json:"52WeekHigh"`
		FiftyTwoWeekLow  float64 `json:"52WeekLow"`
	} `json:"Technicals"`
}

// GetQuote fetches a real-time price and enriches it with fundamentals
// where available. Fundamentals failures degrade to a bare price quote.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	ticker := normalizeSymbol(symbol)

	var rt realTimeQuote
	if err := c.getJSON(ctx, "/real-time/"+url.PathEscape(ticker), nil, &rt); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", interfaces.ErrQuoteUnavailable, symbol, err)
	}
	price := float64(rt.Close)
	if price <= 0 {
		return nil, fmt.Errorf("%w: no price for %s", interfaces.ErrQuoteUnavailable, symbol)
	}

	quote := &models.Quote{
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		Price:         price,
		Currency:      currencyForSuffix(ticker),
		Change:        float64(rt.Change),
		ChangePercent: float64(rt.ChangePercent),
		Volume:        int64(rt.Volume),
		CompanyName:   strings.ToUpper(strings.TrimSpace(symbol)),
	}

	// Indices and FX pairs carry no fundamentals.
	if strings.HasSuffix(ticker, ".INDX") || strings.HasSuffix(ticker, ".FOREX") {
		return quote, nil
	}

	var f fundamentals
	query := url.Values{"filter": []string{"General,Highlights,Technicals"}}
	if err := c.getJSON(ctx, "/fundamentals/"+url.PathEscape(ticker), query, &f); err != nil {
		c.logger.Debug().Err(err).Str("symbol", symbol).Msg("Fundamentals unavailable")
		return quote, nil
	}
	if f.General.Name != "" {
		quote.CompanyName = f.General.Name
	}
	if f.General.CurrencyCode != "" {
		quote.Currency = strings.ToUpper(f.General.CurrencyCode)
	}
	quote.Sector = f.General.Sector
	quote.Exchange = f.General.Exchange
	quote.MarketCap = f.Highlights.MarketCapitalization
	quote.PERatio = f.Highlights.PERatio
	quote.FiftyTwoWeekHigh = f.Technicals.FiftyTwoWeekHigh
	quote.FiftyTwoWeekLow = f.Technicals.FiftyTwoWeekLow
	return quote, nil
}

// GetFxRate fetches the spot rate for a currency pair via the FOREX feed.
func (c *Client) GetFxRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))
	if from == to {
		return 1.0, nil
	}

	var rt realTimeQuote
	pair := from + to + ".FOREX"
	if err := c.getJSON(ctx, "/real-time/"+url.PathEscape(pair), nil, &rt); err != nil {
		return 0, fmt.Errorf("fx rate %s/%s: %w", from, to, err)
	}
	rate := float64(rt.Close)
	if rate <= 0 {
		return 0, fmt.Errorf("fx rate %s/%s: no usable rate", from, to)
	}
	return rate, nil
}

type newsItem struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Link    string `json:"link"`
}

// GetNews fetches recent articles tagged with the symbol.
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	if limit <= 0 {
		limit = 10
	}
	ticker := normalizeSymbol(symbol)

	var items []newsItem
	query := url.Values{
		"s":     []string{ticker},
		"limit": []string{fmt.Sprintf("%d", limit)},
	}
	if err := c.getJSON(ctx, "/news", query, &items); err != nil {
		return nil, fmt.Errorf("news for %s: %w", symbol, err)
	}

	articles := make([]models.NewsArticle, 0, len(items))
	for _, item := range items {
		articles = append(articles, models.NewsArticle{
			Title:         item.Title,
			Description:   summarize(item.Content),
			URL:           item.Link,
			Source:        linkHost(item.Link),
			PublishedAt:   item.Date,
			RelatedSymbol: strings.ToUpper(strings.TrimSpace(symbol)),
		})
	}
	return articles, nil
}

// summarize trims article bodies to a description-sized excerpt.
func summarize(content string) string {
	content = strings.TrimSpace(content)
	const maxLen = 280
	if len(content) <= maxLen {
		return content
	}
	cut := content[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func linkHost(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "EODHD"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
