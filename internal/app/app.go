// Package app wires configuration, storage, market data clients and
// services into a session ready for the tool layer.
package app

import (
	"fmt"

	"github.com/bobmcallan/nestegg/internal/cache"
	"github.com/bobmcallan/nestegg/internal/clients/eodhd"
	"github.com/bobmcallan/nestegg/internal/clients/fred"
	"github.com/bobmcallan/nestegg/internal/clients/yahoo"
	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/registry"
	"github.com/bobmcallan/nestegg/internal/services/market"
	"github.com/bobmcallan/nestegg/internal/services/memory"
	"github.com/bobmcallan/nestegg/internal/services/portfolio"
	"github.com/bobmcallan/nestegg/internal/session"
	"github.com/bobmcallan/nestegg/internal/storage"
)

// responseCacheSize bounds the shared market data cache.
const responseCacheSize = 512

// App holds all application components and dependencies.
type App struct {
	Config  *common.Config
	Logger  *common.Logger
	Store   *storage.FileStore
	Session *session.Session
}

// New initializes the application with all dependencies. The market data
// provider is chosen by config; news is EODHD-only and macro data needs a
// FRED API key, so either may be absent.
func New(cfg *common.Config, logger *common.Logger) (*App, error) {
	store, err := storage.NewFileStore(logger, &cfg.Storage.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to open data store: %w", err)
	}

	reg := registry.New(store, logger)

	var (
		quotes interfaces.QuoteSource
		fx     interfaces.FxSource
		news   interfaces.NewsSource
	)
	switch cfg.Clients.Provider {
	case "eodhd":
		c := eodhd.New(&cfg.Clients.EODHD, logger)
		quotes, fx, news = c, c, c
	default:
		c := yahoo.New(logger)
		quotes, fx = c, c
	}

	var macro interfaces.MacroSource
	if cfg.Clients.FRED.APIKey != "" {
		macro = fred.New(&cfg.Clients.FRED, logger)
	}

	responseCache := cache.New(common.FreshnessQuote, responseCacheSize)
	marketSvc := market.NewService(quotes, fx, news, macro, responseCache, logger)
	memorySvc := memory.NewService(reg, store, logger)

	// valuation reads quotes and rates through the market service so it
	// shares the TTL cache
	portfolioSvc := portfolio.NewService(reg, store, marketSvc, marketSvc.FxSource(), memorySvc, logger)

	sess := session.New(reg, portfolioSvc, memorySvc, marketSvc, logger)

	logger.Info().
		Str("provider", cfg.Clients.Provider).
		Str("data_path", cfg.Storage.Data.Path).
		Bool("news", news != nil).
		Bool("fred", macro != nil).
		Msg("application initialization complete")

	return &App{Config: cfg, Logger: logger, Store: store, Session: sess}, nil
}

// Close closes all application resources.
func (a *App) Close() error {
	return nil
}
