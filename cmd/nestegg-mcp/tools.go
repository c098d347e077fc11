package main

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/nestegg/internal/session"
)

// registerTools registers all MCP tools on the server, wiring each to a
// handler backed by the shared session.
func registerTools(s *mcpserver.MCPServer, sess *session.Session) {
	// Owner management
	s.AddTool(createSetupOwnerTool(), handleSetupOwner(sess))
	s.AddTool(createSwitchOwnerTool(), handleSwitchOwner(sess))
	s.AddTool(createListOwnersTool(), handleListOwners(sess))
	s.AddTool(createDeleteOwnerTool(), handleDeleteOwner(sess))
	s.AddTool(createUpdateOwnerSettingsTool(), handleUpdateOwnerSettings(sess))
	s.AddTool(createGetOwnerSettingsTool(), handleGetOwnerSettings(sess))

	// Portfolio
	s.AddTool(createGetPortfolioTool(), handleGetPortfolio(sess))
	s.AddTool(createAddPositionTool(), handleAddPosition(sess))
	s.AddTool(createUpdatePositionTool(), handleUpdatePosition(sess))
	s.AddTool(createConsolidatePositionTool(), handleConsolidatePosition(sess))
	s.AddTool(createRemovePositionTool(), handleRemovePosition(sess))
	s.AddTool(createUpdateCashTool(), handleUpdateCash(sess))
	s.AddTool(createGetPortfolioValuationTool(), handleGetPortfolioValuation(sess))
	s.AddTool(createGetPortfolioHistoryTool(), handleGetPortfolioHistory(sess))

	// Memory
	s.AddTool(createSaveInsightTool(), handleSaveInsight(sess))
	s.AddTool(createGetInsightsTool(), handleGetInsights(sess))
	s.AddTool(createCleanupExpiredInsightsTool(), handleCleanupExpiredInsights(sess))
	s.AddTool(createTrackDecisionTool(), handleTrackDecision(sess))
	s.AddTool(createGetPendingReviewsTool(), handleGetPendingReviews(sess))
	s.AddTool(createUpdateDecisionOutcomeTool(), handleUpdateDecisionOutcome(sess))
	s.AddTool(createGetDecisionsTool(), handleGetDecisions(sess))

	// Market data
	s.AddTool(createGetQuoteTool(), handleGetQuote(sess))
	s.AddTool(createGetFxRateTool(), handleGetFxRate(sess))
	s.AddTool(createConvertCurrencyTool(), handleConvertCurrency(sess))
	s.AddTool(createGetMajorFxRatesTool(), handleGetMajorFxRates(sess))
	s.AddTool(createGetMarketOverviewTool(), handleGetMarketOverview(sess))
	s.AddTool(createGetStockNewsTool(), handleGetStockNews(sess))
	s.AddTool(createGetEconomicIndicatorsTool(), handleGetEconomicIndicators(sess))

	// Diagnostics
	s.AddTool(createGetVersionTool(), handleGetVersion(sess))
}

// --- Owner tools ---

func createSetupOwnerTool() mcp.Tool {
	return mcp.NewTool("setup_owner",
		mcp.WithDescription("Create a portfolio owner with a base currency. Run this once per person before adding positions. The owner name becomes a slug (e.g., 'Jane Smith' -> 'jane-smith') used to address them later."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name for the owner (e.g., 'Jane Smith')")),
		mcp.WithString("base_currency", mcp.Required(), mcp.Description("ISO 4217 currency code all valuations are reported in (e.g., 'EUR', 'USD')")),
		mcp.WithBoolean("set_as_current", mcp.Description("Make this owner the current one (default: true)")),
	)
}

func createSwitchOwnerTool() mcp.Tool {
	return mcp.NewTool("switch_owner",
		mcp.WithDescription("Switch the current owner. Subsequent portfolio and memory tools operate on this owner's data."),
		mcp.WithString("owner", mcp.Required(), mcp.Description("Owner name or slug to switch to")),
	)
}

func createListOwnersTool() mcp.Tool {
	return mcp.NewTool("list_owners",
		mcp.WithDescription("List all configured owners with their base currency and which one is current."),
	)
}

func createDeleteOwnerTool() mcp.Tool {
	return mcp.NewTool("delete_owner",
		mcp.WithDescription("Delete an owner and ALL their data (portfolio, insights, decisions, snapshots). Irreversible. The last remaining owner cannot be deleted."),
		mcp.WithString("owner", mcp.Required(), mcp.Description("Owner name or slug to delete")),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to confirm the deletion")),
	)
}

func createUpdateOwnerSettingsTool() mcp.Tool {
	return mcp.NewTool("update_owner_settings",
		mcp.WithDescription("Change an owner's display name or base currency. The slug stays stable so existing references keep working. Changing the base currency does not convert stored lot prices."),
		mcp.WithString("owner", mcp.Description("Owner name or slug to update (default: current owner)")),
		mcp.WithString("name", mcp.Description("New display name")),
		mcp.WithString("base_currency", mcp.Description("New base currency code (e.g., 'USD')")),
	)
}

func createGetOwnerSettingsTool() mcp.Tool {
	return mcp.NewTool("get_owner_settings",
		mcp.WithDescription("Show the current owner's settings: name, slug, and base currency."),
	)
}

// --- Portfolio tools ---

func createGetPortfolioTool() mcp.Tool {
	return mcp.NewTool("get_portfolio",
		mcp.WithDescription("FAST: Get the current owner's holdings (symbols, shares, average cost, cost basis, cash). No live prices. Use get_portfolio_valuation for market values."),
	)
}

func createAddPositionTool() mcp.Tool {
	return mcp.NewTool("add_position",
		mcp.WithDescription("Record a stock purchase. Buying a symbol already held adds a new lot to the position; cost basis is tracked per lot. Also records a 'buy' decision for later review."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol (e.g., 'AAPL', 'ASML.AS')")),
		mcp.WithNumber("shares", mcp.Required(), mcp.Description("Number of shares bought (must be positive)")),
		mcp.WithNumber("price", mcp.Required(), mcp.Description("Purchase price per share in the position currency")),
		mcp.WithString("currency", mcp.Description("Currency of the purchase price (default: owner's base currency)")),
		mcp.WithString("date", mcp.Description("Purchase date as YYYY-MM-DD (default: today)")),
		mcp.WithString("sector", mcp.Description("Sector label (e.g., 'Technology')")),
		mcp.WithString("asset_type", mcp.Description("Asset type (e.g., 'stock', 'etf', 'bond')")),
		mcp.WithString("exchange", mcp.Description("Exchange where purchased (e.g., 'NASDAQ', 'AMS')")),
		mcp.WithString("notes", mcp.Description("Free-form notes about the purchase")),
	)
}

func createUpdatePositionTool() mcp.Tool {
	return mcp.NewTool("update_position",
		mcp.WithDescription("Update a position's metadata without touching its lots: sector, asset type, company name, identifiers, or notes. Use add_position or consolidate_position to change shares."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol of the position to update")),
		mcp.WithString("sector", mcp.Description("Sector label")),
		mcp.WithString("asset_type", mcp.Description("Asset type (e.g., 'stock', 'etf', 'bond')")),
		mcp.WithString("company_name", mcp.Description("Company or fund name")),
		mcp.WithString("isin", mcp.Description("ISIN identifier")),
		mcp.WithString("exchange", mcp.Description("Exchange the position trades on (e.g., 'NASDAQ', 'AMS')")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
	)
}

func createConsolidatePositionTool() mcp.Tool {
	return mcp.NewTool("consolidate_position",
		mcp.WithDescription("Replace a position's lot history with a single lot at the given share count and average cost. Use after partial sales or to correct imported data. Metadata is preserved."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol of the position")),
		mcp.WithNumber("shares", mcp.Required(), mcp.Description("Total shares held after consolidation")),
		mcp.WithNumber("avg_cost", mcp.Required(), mcp.Description("Average cost per share for the consolidated lot")),
	)
}

func createRemovePositionTool() mcp.Tool {
	return mcp.NewTool("remove_position",
		mcp.WithDescription("Remove a position entirely, as after selling all shares. Also records a 'sell' decision for later review."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol of the position to remove")),
		mcp.WithString("reason", mcp.Description("Why the position was sold; stored on the tracked decision")),
	)
}

func createUpdateCashTool() mcp.Tool {
	return mcp.NewTool("update_cash",
		mcp.WithDescription("Set the portfolio's cash balance in the owner's base currency. This replaces the stored amount rather than adding to it."),
		mcp.WithNumber("amount", mcp.Required(), mcp.Description("New cash balance; negative values are allowed (e.g., margin debt)")),
	)
}

func createGetPortfolioValuationTool() mcp.Tool {
	return mcp.NewTool("get_portfolio_valuation",
		mcp.WithDescription("Value the portfolio at live market prices, converted to the owner's base currency. Shows gain/loss per position, sector and currency allocation, and concentration warnings. Saves a daily snapshot for history."),
	)
}

func createGetPortfolioHistoryTool() mcp.Tool {
	return mcp.NewTool("get_portfolio_history",
		mcp.WithDescription("Show saved portfolio value snapshots over a period plus performance metrics (change, high, low). Snapshots are saved by get_portfolio_valuation, one per day."),
		mcp.WithNumber("days", mcp.Description("Period to cover in days (default: 30)")),
		mcp.WithNumber("limit", mcp.Description("Maximum snapshots to list (default: all in period)")),
	)
}

// --- Memory tools ---

func createSaveInsightTool() mcp.Tool {
	return mcp.NewTool("save_insight",
		mcp.WithDescription("Save a market or portfolio insight for later recall. Insights expire after 180 days unless expiry_days says otherwise."),
		mcp.WithString("category", mcp.Required(), mcp.Description("One of: market, portfolio, stock, sector, economic, earnings. Unknown values are stored as 'market'.")),
		mcp.WithString("content", mcp.Required(), mcp.Description("The insight text")),
		mcp.WithString("symbol", mcp.Description("Ticker symbol the insight relates to")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Tags for filtering (e.g., ['fed', 'rates'])")),
		mcp.WithNumber("expiry_days", mcp.Description("Days until the insight expires; 0 means never")),
	)
}

func createGetInsightsTool() mcp.Tool {
	return mcp.NewTool("get_insights",
		mcp.WithDescription("Recall saved insights, newest first. All filters are optional and combine; tags match when any overlap."),
		mcp.WithString("category", mcp.Description("Filter by category (market, portfolio, stock, sector, economic, earnings)")),
		mcp.WithString("symbol", mcp.Description("Filter by ticker symbol")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Filter by tags (any match)")),
		mcp.WithBoolean("include_expired", mcp.Description("Include expired insights (default: false)")),
		mcp.WithNumber("limit", mcp.Description("Maximum insights to return (default: 20)")),
	)
}

func createCleanupExpiredInsightsTool() mcp.Tool {
	return mcp.NewTool("cleanup_expired_insights",
		mcp.WithDescription("Permanently delete insights whose relevance has expired. Returns the number removed."),
	)
}

func createTrackDecisionTool() mcp.Tool {
	return mcp.NewTool("track_decision",
		mcp.WithDescription("Record an investment decision with its rationale and schedule a review. add_position and remove_position track buys and sells automatically; use this for holds, watches, or decisions made elsewhere."),
		mcp.WithString("action", mcp.Required(), mcp.Description("What was decided (e.g., 'buy', 'sell', 'hold', 'watch')")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why the decision was made")),
		mcp.WithString("symbol", mcp.Description("Ticker symbol the decision concerns")),
		mcp.WithNumber("shares", mcp.Description("Shares involved, if any")),
		mcp.WithNumber("price", mcp.Description("Price per share at decision time")),
		mcp.WithNumber("review_days", mcp.Description("Days until the decision should be reviewed (default: 30)")),
	)
}

func createGetPendingReviewsTool() mcp.Tool {
	return mcp.NewTool("get_pending_reviews",
		mcp.WithDescription("List pending decisions whose review date has arrived. Use update_decision_outcome to record how they turned out."),
	)
}

func createUpdateDecisionOutcomeTool() mcp.Tool {
	return mcp.NewTool("update_decision_outcome",
		mcp.WithDescription("Record the outcome of a tracked decision and optionally close it."),
		mcp.WithString("decision_id", mcp.Required(), mcp.Description("ID of the decision, as shown by get_pending_reviews or get_decisions")),
		mcp.WithString("outcome", mcp.Required(), mcp.Description("How the decision turned out")),
		mcp.WithString("status", mcp.Description("New status: 'reviewed' (default) or 'closed'")),
	)
}

func createGetDecisionsTool() mcp.Tool {
	return mcp.NewTool("get_decisions",
		mcp.WithDescription("List tracked decisions, newest first. All filters are optional and combine."),
		mcp.WithString("symbol", mcp.Description("Filter by ticker symbol")),
		mcp.WithString("action", mcp.Description("Filter by action (e.g., 'buy', 'sell')")),
		mcp.WithString("status", mcp.Description("Filter by status: pending, reviewed, or closed")),
		mcp.WithNumber("limit", mcp.Description("Maximum decisions to return (default: 20)")),
	)
}

// --- Market data tools ---

func createGetQuoteTool() mcp.Tool {
	return mcp.NewTool("get_quote",
		mcp.WithDescription("Get a live quote for a symbol: price, day change, volume, market cap, P/E, and 52-week range. Quotes are cached for a few minutes."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol (e.g., 'AAPL', '^GSPC', 'ASML.AS')")),
	)
}

func createGetFxRateTool() mcp.Tool {
	return mcp.NewTool("get_fx_rate",
		mcp.WithDescription("Get the exchange rate between two currencies, with the inverse rate for reference."),
		mcp.WithString("from_currency", mcp.Required(), mcp.Description("Source currency code (e.g., 'EUR')")),
		mcp.WithString("to_currency", mcp.Required(), mcp.Description("Target currency code (e.g., 'USD')")),
	)
}

func createConvertCurrencyTool() mcp.Tool {
	return mcp.NewTool("convert_currency",
		mcp.WithDescription("Convert an amount between currencies at the current exchange rate."),
		mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount to convert")),
		mcp.WithString("from_currency", mcp.Required(), mcp.Description("Source currency code (e.g., 'EUR')")),
		mcp.WithString("to_currency", mcp.Required(), mcp.Description("Target currency code (e.g., 'USD')")),
	)
}

func createGetMajorFxRatesTool() mcp.Tool {
	return mcp.NewTool("get_major_fx_rates",
		mcp.WithDescription("Get exchange rates from a base currency to the major currencies (USD, EUR, GBP, JPY, CHF, CAD, AUD)."),
		mcp.WithString("base_currency", mcp.Description("Base currency code (default: 'USD')")),
	)
}

func createGetMarketOverviewTool() mcp.Tool {
	return mcp.NewTool("get_market_overview",
		mcp.WithDescription("Get a snapshot of the major indices (S&P 500, Dow, NASDAQ, Euro Stoxx 50, FTSE 100), the VIX volatility reading, market breadth, and an overall sentiment score."),
	)
}

func createGetStockNewsTool() mcp.Tool {
	return mcp.NewTool("get_stock_news",
		mcp.WithDescription("Get recent news for a symbol, ranked by relevance (symbol mentions and market-moving keywords score higher). Requires the EODHD provider."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol (e.g., 'AAPL')")),
		mcp.WithNumber("limit", mcp.Description("Maximum articles to return (default: 10)")),
	)
}

func createGetEconomicIndicatorsTool() mcp.Tool {
	return mcp.NewTool("get_economic_indicators",
		mcp.WithDescription("Get the latest US economic indicators from FRED: GDP, inflation, unemployment, fed funds rate, treasury yields, mortgage rates, consumer sentiment, and retail sales. Requires a FRED API key."),
		mcp.WithArray("indicators", mcp.WithStringItems(), mcp.Description("Indicators to fetch: gdp, inflation, core_inflation, unemployment, fed_funds, treasury_10y, treasury_2y, mortgage_30y, consumer_sentiment, retail_sales (default: all)")),
	)
}

// --- Diagnostics ---

func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the Nestegg server version and build info. Use this to verify connectivity."),
	)
}
