// Package interfaces defines service and client contracts for nestegg
package interfaces

import (
	"context"
	"errors"

	"github.com/bobmcallan/nestegg/internal/models"
)

// ErrQuoteUnavailable indicates the provider returned no usable price for a
// symbol. Valuation treats it as a soft failure and falls back to cost basis.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// ErrNotSupported indicates the configured provider does not implement the
// requested data type.
var ErrNotSupported = errors.New("not supported by provider")

// QuoteSource fetches current prices for equities, ETFs and indices.
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// FxSource fetches spot conversion rates between currencies.
type FxSource interface {
	GetFxRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error)
}

// NewsSource fetches recent news for a symbol.
type NewsSource interface {
	GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)
}

// MacroSource fetches macroeconomic series observations.
type MacroSource interface {
	GetLatestObservation(ctx context.Context, seriesID string, observations int) (*models.EconomicObservation, error)
}
