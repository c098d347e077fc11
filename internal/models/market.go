package models

// Quote is a normalized equity or ETF quote from a market data provider.
type Quote struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Currency         string  `json:"currency"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"change_percent"`
	Volume           int64   `json:"volume,omitempty"`
	MarketCap        float64 `json:"market_cap,omitempty"`
	PERatio          float64 `json:"pe_ratio,omitempty"`
	FiftyTwoWeekHigh float64 `json:"52_week_high,omitempty"`
	FiftyTwoWeekLow  float64 `json:"52_week_low,omitempty"`
	CompanyName      string  `json:"company_name,omitempty"`
	Sector           string  `json:"sector,omitempty"`
	Exchange         string  `json:"exchange,omitempty"`
}

// FxRate is a conversion rate between two currencies.
type FxRate struct {
	FromCurrency string  `json:"from_currency"`
	ToCurrency   string  `json:"to_currency"`
	Rate         float64 `json:"rate"`
	InverseRate  float64 `json:"inverse_rate"`
	Example      string  `json:"example"`
	Cached       bool    `json:"cached"`
}

// CurrencyConversion is the result of converting an amount between
// two currencies at the current rate.
type CurrencyConversion struct {
	OriginalAmount  float64 `json:"original_amount"`
	FromCurrency    string  `json:"from_currency"`
	ToCurrency      string  `json:"to_currency"`
	Rate            float64 `json:"rate"`
	ConvertedAmount float64 `json:"converted_amount"`
	Formatted       string  `json:"formatted"`
}

// FxRateTable holds rates from one base currency to the other majors.
// Currencies whose rate could not be fetched are listed in Errors.
type FxRateTable struct {
	BaseCurrency string             `json:"base_currency"`
	Timestamp    string             `json:"timestamp"`
	Rates        map[string]float64 `json:"rates"`
	Errors       []string           `json:"errors,omitempty"`
}

// IndexQuote is a market index level with day change.
type IndexQuote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price,omitempty"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Status        string  `json:"status,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// VixReading is the volatility index level with a classification band.
type VixReading struct {
	Value         float64 `json:"value,omitempty"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Level         string  `json:"level,omitempty"`
	Description   string  `json:"description,omitempty"`
	Trend         string  `json:"trend,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// MarketSentiment combines the VIX band with index breadth into an
// overall reading. Score runs 0-100, higher is more bullish.
type MarketSentiment struct {
	Overall          string `json:"overall"`
	Score            int    `json:"score"`
	VixSentiment     string `json:"vix_sentiment"`
	BreadthSentiment string `json:"breadth_sentiment"`
}

// MarketBreadth counts advancing versus declining indices.
type MarketBreadth struct {
	Advancing int `json:"advancing"`
	Declining int `json:"declining"`
	Unchanged int `json:"unchanged"`
}

// MarketOverview is the combined index, VIX and sentiment view.
type MarketOverview struct {
	Timestamp    string          `json:"timestamp"`
	MarketStatus string          `json:"market_status"`
	Indices      []IndexQuote    `json:"indices"`
	Vix          VixReading      `json:"vix"`
	Sentiment    MarketSentiment `json:"sentiment"`
	Breadth      MarketBreadth   `json:"breadth"`
}

// NewsArticle is a normalized news item. RelevanceScore is only set when
// articles are ranked against portfolio holdings.
type NewsArticle struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	URL            string `json:"url,omitempty"`
	Source         string `json:"source,omitempty"`
	PublishedAt    string `json:"published_at,omitempty"`
	RelatedSymbol  string `json:"related_symbol,omitempty"`
	RelevanceScore int    `json:"relevance_score,omitempty"`
}

// EconomicObservation is the latest value of a FRED data series.
type EconomicObservation struct {
	SeriesID string  `json:"series_id"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Date     string  `json:"date"`
	Previous float64 `json:"previous,omitempty"`
	Change   float64 `json:"change,omitempty"`
}

// PositionValuation is a single position priced at current market levels,
// in both its trading currency and the owner's base currency.
type PositionValuation struct {
	Symbol         string  `json:"symbol"`
	CompanyName    string  `json:"company_name,omitempty"`
	Shares         float64 `json:"shares"`
	AvgCost        float64 `json:"avg_cost"`
	CurrentPrice   float64 `json:"current_price,omitempty"`
	Currency       string  `json:"currency"`
	CurrencySymbol string  `json:"currency_symbol"`
	CostBasis      float64 `json:"cost_basis"`
	CurrentValue   float64 `json:"current_value"`
	GainLoss       float64 `json:"gain_loss"`

	CurrentValueBase float64 `json:"current_value_base"`
	CostBasisBase    float64 `json:"cost_basis_base"`
	GainLossBase     float64 `json:"gain_loss_base"`
	FxRate           float64 `json:"fx_rate,omitempty"`

	GainLossPct float64 `json:"gain_loss_pct"`
	Sector      string  `json:"sector,omitempty"`
	AssetType   string  `json:"asset_type,omitempty"`
	Weight      float64 `json:"weight"`
	Error       string  `json:"error,omitempty"`
}

// CurrencyExposure is the base-currency value held in one trading currency.
type CurrencyExposure struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// ValuationError records a position that could not be priced.
type ValuationError struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// Concentration risk bands, keyed off the largest position weight.
const (
	ConcentrationLow      = "LOW"
	ConcentrationModerate = "MODERATE"
	ConcentrationHigh     = "HIGH"
)

// PortfolioValuation is the full portfolio priced in the owner's base
// currency. Positions that failed to price carry their cost basis and an
// entry in Errors.
type PortfolioValuation struct {
	ValuationDate      string                      `json:"valuation_date"`
	Owner              string                      `json:"owner,omitempty"`
	BaseCurrency       string                      `json:"base_currency"`
	BaseCurrencySymbol string                      `json:"base_currency_symbol"`
	TotalValue         float64                     `json:"total_value"`
	TotalCostBasis     float64                     `json:"total_cost_basis"`
	TotalGainLoss      float64                     `json:"total_gain_loss"`
	TotalGainLossPct   float64                     `json:"total_gain_loss_pct"`
	Cash               float64                     `json:"cash"`
	TotalWithCash      float64                     `json:"total_with_cash"`
	Positions          []PositionValuation         `json:"positions"`
	PositionCount      int                         `json:"position_count"`
	SectorAllocation   map[string]float64          `json:"sector_allocation"`
	AssetAllocation    map[string]float64          `json:"asset_allocation"`
	CurrencyAllocation map[string]CurrencyExposure `json:"currency_allocation"`
	ConcentrationRisk  string                      `json:"concentration_risk"`
	MaxPositionWeight  float64                     `json:"max_position_weight"`
	Errors             []ValuationError            `json:"errors,omitempty"`
}
