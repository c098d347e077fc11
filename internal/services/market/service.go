// Package market serves quotes, FX rates, news and macro data from the
// configured providers, with TTL caching in front of every upstream call.
package market

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/nestegg/internal/cache"
	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

// defaultIndices are the benchmarks shown in the market overview.
var defaultIndices = []string{"^GSPC", "^DJI", "^IXIC", "^STOXX50E", "^FTSE"}

var indexNames = map[string]string{
	"^GSPC":     "S&P 500",
	"^DJI":      "Dow Jones Industrial Average",
	"^IXIC":     "NASDAQ Composite",
	"^STOXX50E": "Euro Stoxx 50",
	"^FTSE":     "FTSE 100",
	"^VIX":      "VIX (Volatility Index)",
	"^RUT":      "Russell 2000",
	"^GDAXI":    "DAX",
	"^FCHI":     "CAC 40",
}

// majorCurrencies are the pairs reported by GetMajorFxRates.
var majorCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD"}

// fredSeries maps indicator keys to FRED series IDs.
var fredSeries = map[string]string{
	"gdp":                "GDP",
	"inflation":          "CPIAUCSL",
	"core_inflation":     "CPILFESL",
	"unemployment":       "UNRATE",
	"fed_funds":          "FEDFUNDS",
	"treasury_10y":       "DGS10",
	"treasury_2y":        "DGS2",
	"mortgage_30y":       "MORTGAGE30US",
	"consumer_sentiment": "UMCSENT",
	"retail_sales":       "RSXFS",
}

// defaultIndicators is the fetch order when no indicators are requested.
var defaultIndicators = []string{
	"gdp", "inflation", "core_inflation", "unemployment", "fed_funds",
	"treasury_10y", "treasury_2y", "mortgage_30y", "consumer_sentiment",
	"retail_sales",
}

var seriesNames = map[string]string{
	"GDP":          "Gross Domestic Product",
	"CPIAUCSL":     "Consumer Price Index",
	"CPILFESL":     "Core CPI (ex Food & Energy)",
	"UNRATE":       "Unemployment Rate",
	"FEDFUNDS":     "Federal Funds Rate",
	"DGS10":        "10-Year Treasury Yield",
	"DGS2":         "2-Year Treasury Yield",
	"MORTGAGE30US": "30-Year Fixed Mortgage Rate",
	"UMCSENT":      "Consumer Sentiment Index",
	"RSXFS":        "Retail Sales (ex Food Services)",
}

// newsKeywords raise an article's relevance when they appear in the
// title or description.
var newsKeywords = []string{
	"earnings", "revenue", "guidance", "upgrade", "downgrade",
	"acquisition", "merger", "lawsuit", "recall", "dividend",
}

// newsFetchLimit is how many articles are pulled from the provider before
// relevance ranking; callers see at most their requested limit.
const newsFetchLimit = 20

// Service is the read-only market data layer. News and macro sources are
// optional; operations needing an absent source fail with ErrNotSupported.
type Service struct {
	quotes interfaces.QuoteSource
	fx     interfaces.FxSource
	news   interfaces.NewsSource
	macro  interfaces.MacroSource
	cache  *cache.TTLCache
	logger *common.Logger
}

// NewService creates the market service. news and macro may be nil when the
// configured provider does not supply them.
func NewService(quotes interfaces.QuoteSource, fx interfaces.FxSource, news interfaces.NewsSource, macro interfaces.MacroSource, c *cache.TTLCache, logger *common.Logger) *Service {
	return &Service{quotes: quotes, fx: fx, news: news, macro: macro, cache: c, logger: logger}
}

// GetQuote satisfies interfaces.QuoteSource, so other services can share
// this service's cache instead of hitting providers directly.
var _ interfaces.QuoteSource = (*Service)(nil)

type fxAdapter struct {
	svc *Service
}

func (a fxAdapter) GetFxRate(ctx context.Context, from, to string) (float64, error) {
	rate, err := a.svc.GetFxRate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return rate.Rate, nil
}

// FxSource returns an interfaces.FxSource view backed by the cached rate
// lookup, including the inverse-pair fallback.
func (s *Service) FxSource() interfaces.FxSource {
	return fxAdapter{svc: s}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// GetQuote returns the current quote for a symbol, served from cache while
// fresh.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	key := cache.Key("quote", symbol)
	if cached, ok := s.cache.Get(key); ok {
		if quote, ok := cached.(*models.Quote); ok {
			return quote, nil
		}
	}

	quote, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.cache.SetWithTTL(key, quote, common.FreshnessQuote)
	return quote, nil
}

// GetFxRate returns the conversion rate between two currencies. A failed
// direct lookup falls back to the inverse pair before giving up. Rates are
// cached; identity pairs never hit the provider.
func (s *Service) GetFxRate(ctx context.Context, from, to string) (*models.FxRate, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return nil, fmt.Errorf("both currencies are required")
	}

	if from == to {
		return &models.FxRate{
			FromCurrency: from,
			ToCurrency:   to,
			Rate:         1.0,
			InverseRate:  1.0,
			Example:      fmt.Sprintf("1 %s = 1 %s", from, to),
			Cached:       true,
		}, nil
	}

	key := cache.Key("fx", from+to)
	if cached, ok := s.cache.Get(key); ok {
		if rate, ok := cached.(float64); ok {
			return fxRate(from, to, rate, true), nil
		}
	}

	rate, err := s.fx.GetFxRate(ctx, from, to)
	if err != nil || rate <= 0 {
		if err == nil {
			err = fmt.Errorf("provider returned rate %v", rate)
		}
		// try the inverse pair and take the reciprocal
		inverse, ierr := s.fx.GetFxRate(ctx, to, from)
		if ierr != nil || inverse <= 0 {
			return nil, fmt.Errorf("could not fetch exchange rate %s/%s: %w", from, to, err)
		}
		s.logger.Debug().Str("from", from).Str("to", to).Msg("Direct FX pair unavailable, using inverse")
		rate = 1 / inverse
	}

	s.cache.SetWithTTL(key, rate, common.FreshnessFXRate)
	return fxRate(from, to, rate, false), nil
}

func fxRate(from, to string, rate float64, cached bool) *models.FxRate {
	return &models.FxRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         round6(rate),
		InverseRate:  round6(1 / rate),
		Example:      fmt.Sprintf("1 %s = %.4f %s", from, rate, to),
		Cached:       cached,
	}
}

// ConvertCurrency converts an amount at the current exchange rate.
func (s *Service) ConvertCurrency(ctx context.Context, amount float64, from, to string) (*models.CurrencyConversion, error) {
	rate, err := s.GetFxRate(ctx, from, to)
	if err != nil {
		return nil, err
	}
	converted := round2(amount * rate.Rate)
	return &models.CurrencyConversion{
		OriginalAmount:  amount,
		FromCurrency:    rate.FromCurrency,
		ToCurrency:      rate.ToCurrency,
		Rate:            rate.Rate,
		ConvertedAmount: converted,
		Formatted: fmt.Sprintf("%s = %s",
			common.FormatMoneyWithCurrency(amount, rate.FromCurrency),
			common.FormatMoneyWithCurrency(converted, rate.ToCurrency)),
	}, nil
}

// GetMajorFxRates returns rates from a base currency to the other majors.
// Pairs that fail to fetch are reported in Errors rather than failing the
// whole table.
func (s *Service) GetMajorFxRates(ctx context.Context, baseCurrency string) (*models.FxRateTable, error) {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	if base == "" {
		base = "USD"
	}

	table := &models.FxRateTable{
		BaseCurrency: base,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Rates:        make(map[string]float64),
	}
	for _, currency := range majorCurrencies {
		if currency == base {
			continue
		}
		rate, err := s.GetFxRate(ctx, base, currency)
		if err != nil {
			s.logger.Warn().Err(err).Str("pair", base+currency).Msg("Major FX rate unavailable")
			table.Errors = append(table.Errors, currency)
			continue
		}
		table.Rates[currency] = rate.Rate
	}
	return table, nil
}

// GetMarketOverview reports the major indices, the VIX reading and a
// sentiment assessment derived from volatility and breadth. Indices that
// fail to quote are kept in the list with an error and excluded from
// breadth counts.
func (s *Service) GetMarketOverview(ctx context.Context) (*models.MarketOverview, error) {
	now := time.Now().UTC()
	overview := &models.MarketOverview{
		Timestamp:    now.Format(time.RFC3339),
		MarketStatus: marketStatus(now),
		Indices:      make([]models.IndexQuote, 0, len(defaultIndices)),
	}

	for _, symbol := range defaultIndices {
		name := indexName(symbol)
		quote, err := s.GetQuote(ctx, symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Index quote unavailable")
			overview.Indices = append(overview.Indices, models.IndexQuote{Symbol: symbol, Name: name, Error: err.Error()})
			continue
		}
		status := "flat"
		switch {
		case quote.Change > 0:
			status = "up"
			overview.Breadth.Advancing++
		case quote.Change < 0:
			status = "down"
			overview.Breadth.Declining++
		default:
			overview.Breadth.Unchanged++
		}
		overview.Indices = append(overview.Indices, models.IndexQuote{
			Symbol:        symbol,
			Name:          name,
			Price:         round2(quote.Price),
			Change:        round2(quote.Change),
			ChangePercent: round2(quote.ChangePercent),
			Status:        status,
		})
	}

	overview.Vix = s.vixReading(ctx)
	overview.Sentiment = calculateSentiment(overview.Vix, overview.Breadth)
	return overview, nil
}

func indexName(symbol string) string {
	if name, ok := indexNames[symbol]; ok {
		return name
	}
	return symbol
}

// marketStatus reports whether the US session is open: weekdays between
// 14:00 and 21:00 UTC.
func marketStatus(now time.Time) string {
	weekday := now.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return "CLOSED"
	}
	if now.Hour() >= 14 && now.Hour() < 21 {
		return "OPEN"
	}
	return "CLOSED"
}

func (s *Service) vixReading(ctx context.Context) models.VixReading {
	quote, err := s.GetQuote(ctx, "^VIX")
	if err != nil {
		s.logger.Warn().Err(err).Msg("VIX quote unavailable")
		return models.VixReading{Error: err.Error()}
	}

	value := quote.Price
	level, description := vixLevel(value)
	trend := "stable"
	switch {
	case quote.Change > 0.5:
		trend = "rising"
	case quote.Change < -0.5:
		trend = "falling"
	}
	return models.VixReading{
		Value:         round2(value),
		Change:        round2(quote.Change),
		ChangePercent: round2(quote.ChangePercent),
		Level:         level,
		Description:   description,
		Trend:         trend,
	}
}

func vixLevel(value float64) (string, string) {
	switch {
	case value < 15:
		return "LOW", "Low volatility - market complacent"
	case value < 20:
		return "NORMAL", "Normal volatility levels"
	case value < 25:
		return "ELEVATED", "Elevated volatility - some caution"
	case value < 30:
		return "HIGH", "High volatility - market fearful"
	default:
		return "EXTREME", "Extreme volatility - panic conditions"
	}
}

// calculateSentiment blends the VIX band (60%) with index breadth (40%)
// into a 0-100 score and an overall label.
func calculateSentiment(vix models.VixReading, breadth models.MarketBreadth) models.MarketSentiment {
	vixScore, vixSentiment := 50.0, "UNKNOWN"
	if vix.Error == "" && vix.Value > 0 {
		switch {
		case vix.Value < 15:
			vixScore, vixSentiment = 80, "BULLISH"
		case vix.Value < 20:
			vixScore, vixSentiment = 60, "NEUTRAL"
		case vix.Value < 25:
			vixScore, vixSentiment = 45, "CAUTIOUS"
		case vix.Value < 30:
			vixScore, vixSentiment = 30, "FEARFUL"
		default:
			vixScore, vixSentiment = 15, "PANIC"
		}
	}

	breadthScore, breadthSentiment := 50.0, "UNKNOWN"
	if total := breadth.Advancing + breadth.Declining; total > 0 {
		ratio := float64(breadth.Advancing) / float64(total)
		switch {
		case ratio > 0.7:
			breadthScore, breadthSentiment = 80, "BULLISH"
		case ratio > 0.5:
			breadthScore, breadthSentiment = 60, "POSITIVE"
		case ratio > 0.3:
			breadthScore, breadthSentiment = 40, "NEGATIVE"
		default:
			breadthScore, breadthSentiment = 20, "BEARISH"
		}
	}

	score := vixScore*0.6 + breadthScore*0.4
	overall := "BEARISH"
	switch {
	case score >= 70:
		overall = "BULLISH"
	case score >= 55:
		overall = "POSITIVE"
	case score >= 45:
		overall = "NEUTRAL"
	case score >= 30:
		overall = "CAUTIOUS"
	}
	return models.MarketSentiment{
		Overall:          overall,
		Score:            int(math.Round(score)),
		VixSentiment:     vixSentiment,
		BreadthSentiment: breadthSentiment,
	}
}

// GetStockNews returns recent articles for a symbol ranked by relevance.
// The full fetched window is cached so different limits share one upstream
// call.
func (s *Service) GetStockNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	if s.news == nil {
		return nil, fmt.Errorf("news: %w", interfaces.ErrNotSupported)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if limit <= 0 {
		limit = 10
	}

	key := cache.Key("news", symbol)
	if cached, ok := s.cache.Get(key); ok {
		if articles, ok := cached.([]models.NewsArticle); ok {
			return clipArticles(articles, limit), nil
		}
	}

	articles, err := s.news.GetNews(ctx, symbol, newsFetchLimit)
	if err != nil {
		return nil, err
	}
	rankArticles(articles, symbol)
	s.cache.SetWithTTL(key, articles, common.FreshnessNews)
	return clipArticles(articles, limit), nil
}

// rankArticles scores each article for relevance to the symbol and sorts
// highest first, newest first within equal scores. Symbol mentions in the
// title weigh most, then known market-moving keywords.
func rankArticles(articles []models.NewsArticle, symbol string) {
	needle := strings.ToLower(symbol)
	for i := range articles {
		title := strings.ToLower(articles[i].Title)
		description := strings.ToLower(articles[i].Description)

		score := 0
		if strings.Contains(title, needle) {
			score += 3
		} else if strings.Contains(description, needle) {
			score++
		}
		for _, keyword := range newsKeywords {
			if strings.Contains(title, keyword) {
				score += 2
			} else if strings.Contains(description, keyword) {
				score++
			}
		}
		articles[i].RelevanceScore = score
	}

	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].RelevanceScore != articles[j].RelevanceScore {
			return articles[i].RelevanceScore > articles[j].RelevanceScore
		}
		return articles[i].PublishedAt > articles[j].PublishedAt
	})
}

func clipArticles(articles []models.NewsArticle, limit int) []models.NewsArticle {
	if len(articles) > limit {
		articles = articles[:limit]
	}
	out := make([]models.NewsArticle, len(articles))
	copy(out, articles)
	return out
}

// GetEconomicIndicators fetches the latest FRED observations for the given
// indicator keys (all known indicators when none are given). Individual
// series failures are skipped; only a fully empty result is an error.
func (s *Service) GetEconomicIndicators(ctx context.Context, indicators []string) ([]models.EconomicObservation, error) {
	if s.macro == nil {
		return nil, fmt.Errorf("economic data: %w", interfaces.ErrNotSupported)
	}
	if len(indicators) == 0 {
		indicators = defaultIndicators
	}

	results := make([]models.EconomicObservation, 0, len(indicators))
	for _, indicator := range indicators {
		indicatorKey := strings.ToLower(strings.TrimSpace(indicator))
		seriesID, ok := fredSeries[indicatorKey]
		if !ok {
			return nil, fmt.Errorf("unknown indicator %q (valid: %s)", indicator, strings.Join(defaultIndicators, ", "))
		}

		cacheKey := cache.Key("macro", seriesID)
		if cached, ok := s.cache.Get(cacheKey); ok {
			if obs, ok := cached.(models.EconomicObservation); ok {
				results = append(results, obs)
				continue
			}
		}

		obs, err := s.macro.GetLatestObservation(ctx, seriesID, 5)
		if err != nil {
			s.logger.Warn().Err(err).Str("series", seriesID).Msg("FRED series unavailable")
			continue
		}
		obs.Name = seriesName(seriesID)
		s.cache.SetWithTTL(cacheKey, *obs, common.FreshnessMacro)
		results = append(results, *obs)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no economic data available")
	}
	return results, nil
}

func seriesName(seriesID string) string {
	if name, ok := seriesNames[seriesID]; ok {
		return name
	}
	return seriesID
}
