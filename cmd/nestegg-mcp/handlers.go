package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/models"
	"github.com/bobmcallan/nestegg/internal/services/portfolio"
	"github.com/bobmcallan/nestegg/internal/session"
)

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func getString(request mcp.CallToolRequest, key, defaultVal string) string {
	return request.GetString(key, defaultVal)
}

func getInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

func getFloat(request mcp.CallToolRequest, key string, defaultVal float64) float64 {
	return request.GetFloat(key, defaultVal)
}

func getBool(request mcp.CallToolRequest, key string, defaultVal bool) bool {
	return request.GetBool(key, defaultVal)
}

func getStringSlice(request mcp.CallToolRequest, key string) []string {
	return request.GetStringSlice(key, nil)
}

func requireString(request mcp.CallToolRequest, key string) (string, error) {
	return request.RequireString(key)
}

func requireFloat(request mcp.CallToolRequest, key string) (float64, error) {
	return request.RequireFloat(key)
}

// --- Owner handlers ---

func handleSetupOwner(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := requireString(request, "name")
		if err != nil || strings.TrimSpace(name) == "" {
			return errorResult("Error: name parameter is required"), nil
		}
		baseCurrency, err := requireString(request, "base_currency")
		if err != nil || strings.TrimSpace(baseCurrency) == "" {
			return errorResult("Error: base_currency parameter is required"), nil
		}
		setCurrent := getBool(request, "set_as_current", true)

		var slug string
		var settings *models.OwnerSettings
		if err := sess.Do(func() error {
			var err error
			slug, settings, err = sess.Registry.CreateOwner(name, baseCurrency, setCurrent)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatOwnerCreated(slug, settings, setCurrent)), nil
	}
}

func handleSwitchOwner(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, err := requireString(request, "owner")
		if err != nil || strings.TrimSpace(owner) == "" {
			return errorResult("Error: owner parameter is required"), nil
		}

		var slug string
		var settings *models.OwnerSettings
		if err := sess.Do(func() error {
			var err error
			slug, settings, err = sess.Registry.SwitchOwner(owner)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Switched to owner **%s** (`%s`). Base currency: %s.",
			settings.Name, slug, settings.BaseCurrency)), nil
	}
}

func handleListOwners(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var owners []models.OwnerInfo
		if err := sess.Do(func() error {
			var err error
			owners, err = sess.Registry.ListOwners()
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatOwnerList(owners)), nil
	}
}

func handleDeleteOwner(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, err := requireString(request, "owner")
		if err != nil || strings.TrimSpace(owner) == "" {
			return errorResult("Error: owner parameter is required"), nil
		}
		confirm := getBool(request, "confirm", false)

		var slug string
		if err := sess.Do(func() error {
			var err error
			slug, err = sess.Registry.DeleteOwner(owner, confirm)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Deleted owner `%s` and all their data.", slug)), nil
	}
}

func handleUpdateOwnerSettings(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner := getString(request, "owner", "")
		newName := getString(request, "name", "")
		baseCurrency := getString(request, "base_currency", "")
		if newName == "" && baseCurrency == "" {
			return errorResult("Error: nothing to update; provide name or base_currency"), nil
		}

		var slug string
		var settings *models.OwnerSettings
		if err := sess.Do(func() error {
			var err error
			slug, settings, err = sess.Registry.UpdateOwnerSettings(owner, newName, baseCurrency)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatOwnerSettings(slug, settings)), nil
	}
}

func handleGetOwnerSettings(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var slug string
		var settings *models.OwnerSettings
		if err := sess.Do(func() error {
			var err error
			slug, settings, err = sess.Registry.CurrentOwner()
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatOwnerSettings(slug, settings)), nil
	}
}

// --- Portfolio handlers ---

func handleGetPortfolio(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var summary *models.PortfolioSummary
		if err := sess.Do(func() error {
			var err error
			summary, err = sess.Portfolio.GetSummary("")
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatPortfolioSummary(summary)), nil
	}
}

func handleAddPosition(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := requireString(request, "symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		shares, err := requireFloat(request, "shares")
		if err != nil {
			return errorResult("Error: shares parameter is required"), nil
		}
		price, err := requireFloat(request, "price")
		if err != nil {
			return errorResult("Error: price parameter is required"), nil
		}

		input := portfolio.AddPositionInput{
			Symbol:       symbol,
			Shares:       shares,
			Price:        price,
			Currency:     getString(request, "currency", ""),
			Sector:       getString(request, "sector", ""),
			AssetType:    getString(request, "asset_type", ""),
			Exchange:     getString(request, "exchange", ""),
			Notes:        getString(request, "notes", ""),
			PurchaseDate: getString(request, "date", ""),
		}

		var position *models.Position
		if err := sess.Do(func() error {
			var err error
			position, err = sess.Portfolio.AddPosition("", input)
			if err != nil {
				return err
			}
			rationale := input.Notes
			if rationale == "" {
				rationale = fmt.Sprintf("Added %g shares of %s at %s%.2f",
					shares, position.Symbol, common.CurrencySymbol(position.Currency), price)
			}
			if _, terr := sess.Memory.TrackDecision("", "buy", rationale, position.Symbol, shares, price, 0); terr != nil {
				sess.Logger().Warn().Err(terr).Str("symbol", position.Symbol).Msg("Failed to track buy decision")
			}
			return nil
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatPosition("Position Added", position)), nil
	}
}

func handleUpdatePosition(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := requireString(request, "symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		input := portfolio.UpdatePositionInput{
			Sector:      getString(request, "sector", ""),
			AssetType:   getString(request, "asset_type", ""),
			CompanyName: getString(request, "company_name", ""),
			ISIN:        getString(request, "isin", ""),
			Exchange:    getString(request, "exchange", ""),
			Notes:       getString(request, "notes", ""),
		}
		if input == (portfolio.UpdatePositionInput{}) {
			return errorResult("Error: nothing to update; provide at least one of sector, asset_type, company_name, isin, exchange, or notes"), nil
		}

		var position *models.Position
		if err := sess.Do(func() error {
			var err error
			position, err = sess.Portfolio.UpdatePosition("", symbol, input)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatPosition("Position Updated", position)), nil
	}
}

func handleConsolidatePosition(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := requireString(request, "symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		shares, err := requireFloat(request, "shares")
		if err != nil {
			return errorResult("Error: shares parameter is required"), nil
		}
		avgCost, err := requireFloat(request, "avg_cost")
		if err != nil {
			return errorResult("Error: avg_cost parameter is required"), nil
		}

		var position *models.Position
		if err := sess.Do(func() error {
			var err error
			position, err = sess.Portfolio.ConsolidatePosition("", symbol, shares, avgCost)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatPosition("Position Consolidated", position)), nil
	}
}

func handleRemovePosition(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := requireString(request, "symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		reason := getString(request, "reason", "")

		var removed models.Position
		var found bool
		if err := sess.Do(func() error {
			p, err := sess.Portfolio.GetPortfolio("")
			if err != nil {
				return err
			}
			if pos := p.Position(symbol); pos != nil {
				removed = *pos
			}
			found, err = sess.Portfolio.RemovePosition("", symbol)
			if err != nil || !found {
				return err
			}
			rationale := reason
			if rationale == "" {
				rationale = fmt.Sprintf("Sold all %g shares of %s", removed.Shares(), removed.Symbol)
			}
			if _, terr := sess.Memory.TrackDecision("", "sell", rationale, removed.Symbol, removed.Shares(), removed.AvgCost(), 0); terr != nil {
				sess.Logger().Warn().Err(terr).Str("symbol", removed.Symbol).Msg("Failed to track sell decision")
			}
			return nil
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		if !found {
			return errorResult(fmt.Sprintf("Error: position %s not found", strings.ToUpper(strings.TrimSpace(symbol)))), nil
		}

		return textResult(fmt.Sprintf("Removed %g shares of %s from the portfolio.",
			removed.Shares(), removed.Symbol)), nil
	}
}

func handleUpdateCash(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		amount, err := requireFloat(request, "amount")
		if err != nil {
			return errorResult("Error: amount parameter is required"), nil
		}

		var balance float64
		var settings *models.OwnerSettings
		if err := sess.Do(func() error {
			var err error
			balance, err = sess.Portfolio.UpdateCash("", amount)
			if err != nil {
				return err
			}
			_, settings, err = sess.Registry.CurrentOwner()
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Cash balance set to %s.",
			common.FormatMoneyWithCurrency(balance, settings.BaseCurrency))), nil
	}
}

func handleGetPortfolioValuation(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var valuation *models.PortfolioValuation
		if err := sess.Do(func() error {
			var err error
			valuation, err = sess.Portfolio.Valuation(ctx, "")
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatValuation(valuation)), nil
	}
}

func handleGetPortfolioHistory(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		days := getInt(request, "days", 30)
		limit := getInt(request, "limit", 0)

		var snapshots []models.PortfolioSnapshot
		var metrics *models.PerformanceMetrics
		var settings *models.OwnerSettings
		if err := sess.Do(func() error {
			var err error
			if _, settings, err = sess.Registry.CurrentOwner(); err != nil {
				return err
			}
			snapshots, err = sess.Memory.GetPortfolioHistory("", days, limit)
			if err != nil {
				return err
			}
			metrics, err = sess.Memory.GetPerformanceMetrics("", days)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatPortfolioHistory(snapshots, metrics, days, settings.BaseCurrency)), nil
	}
}

// --- Memory handlers ---

func handleSaveInsight(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		category, err := requireString(request, "category")
		if err != nil || strings.TrimSpace(category) == "" {
			return errorResult("Error: category parameter is required"), nil
		}
		content, err := requireString(request, "content")
		if err != nil || strings.TrimSpace(content) == "" {
			return errorResult("Error: content parameter is required"), nil
		}

		symbol := getString(request, "symbol", "")
		tags := getStringSlice(request, "tags")
		expiryDays := getInt(request, "expiry_days", -1)

		var insight *models.Insight
		if err := sess.Do(func() error {
			var err error
			insight, err = sess.Memory.SaveInsight("", category, content, symbol, tags, expiryDays)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatInsightSaved(insight)), nil
	}
}

func handleGetInsights(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		category := getString(request, "category", "")
		symbol := getString(request, "symbol", "")
		tags := getStringSlice(request, "tags")
		includeExpired := getBool(request, "include_expired", false)
		limit := getInt(request, "limit", 0)

		var insights []models.Insight
		if err := sess.Do(func() error {
			var err error
			insights, err = sess.Memory.GetInsights("", category, symbol, tags, includeExpired, limit)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatInsights(insights)), nil
	}
}

func handleCleanupExpiredInsights(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var removed int
		if err := sess.Do(func() error {
			var err error
			removed, err = sess.Memory.CleanupExpiredInsights("")
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Removed %d expired insights.", removed)), nil
	}
}

func handleTrackDecision(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		action, err := requireString(request, "action")
		if err != nil || strings.TrimSpace(action) == "" {
			return errorResult("Error: action parameter is required"), nil
		}
		rationale, err := requireString(request, "rationale")
		if err != nil || strings.TrimSpace(rationale) == "" {
			return errorResult("Error: rationale parameter is required"), nil
		}

		symbol := getString(request, "symbol", "")
		shares := getFloat(request, "shares", 0)
		price := getFloat(request, "price", 0)
		reviewDays := getInt(request, "review_days", 0)

		var decision *models.Decision
		if err := sess.Do(func() error {
			var err error
			decision, err = sess.Memory.TrackDecision("", action, rationale, symbol, shares, price, reviewDays)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatDecisionTracked(decision)), nil
	}
}

func handleGetPendingReviews(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var pending []models.Decision
		if err := sess.Do(func() error {
			var err error
			pending, err = sess.Memory.GetPendingReviews("")
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatPendingReviews(pending)), nil
	}
}

func handleUpdateDecisionOutcome(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decisionID, err := requireString(request, "decision_id")
		if err != nil || strings.TrimSpace(decisionID) == "" {
			return errorResult("Error: decision_id parameter is required"), nil
		}
		outcome, err := requireString(request, "outcome")
		if err != nil || strings.TrimSpace(outcome) == "" {
			return errorResult("Error: outcome parameter is required"), nil
		}
		status := getString(request, "status", "")

		var decision *models.Decision
		if err := sess.Do(func() error {
			var err error
			decision, err = sess.Memory.UpdateDecisionOutcome("", decisionID, outcome, status)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Decision `%s` (%s %s) marked %s.\nOutcome: %s",
			decision.ID, decision.Action, decision.Symbol, decision.Status, decision.Outcome)), nil
	}
}

func handleGetDecisions(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol := getString(request, "symbol", "")
		action := getString(request, "action", "")
		status := getString(request, "status", "")
		limit := getInt(request, "limit", 0)

		var decisions []models.Decision
		if err := sess.Do(func() error {
			var err error
			decisions, err = sess.Memory.GetDecisions("", symbol, action, status, limit)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatDecisions(decisions)), nil
	}
}

// --- Market data handlers ---

func handleGetQuote(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := requireString(request, "symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		var quote *models.Quote
		if err := sess.Do(func() error {
			var err error
			quote, err = sess.Market.GetQuote(ctx, symbol)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatQuote(quote)), nil
	}
}

func handleGetFxRate(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		from, err := requireString(request, "from_currency")
		if err != nil || strings.TrimSpace(from) == "" {
			return errorResult("Error: from_currency parameter is required"), nil
		}
		to, err := requireString(request, "to_currency")
		if err != nil || strings.TrimSpace(to) == "" {
			return errorResult("Error: to_currency parameter is required"), nil
		}

		var rate *models.FxRate
		if err := sess.Do(func() error {
			var err error
			rate, err = sess.Market.GetFxRate(ctx, from, to)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatFxRate(rate)), nil
	}
}

func handleConvertCurrency(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		amount, err := requireFloat(request, "amount")
		if err != nil {
			return errorResult("Error: amount parameter is required"), nil
		}
		from, err := requireString(request, "from_currency")
		if err != nil || strings.TrimSpace(from) == "" {
			return errorResult("Error: from_currency parameter is required"), nil
		}
		to, err := requireString(request, "to_currency")
		if err != nil || strings.TrimSpace(to) == "" {
			return errorResult("Error: to_currency parameter is required"), nil
		}

		var conversion *models.CurrencyConversion
		if err := sess.Do(func() error {
			var err error
			conversion, err = sess.Market.ConvertCurrency(ctx, amount, from, to)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatConversion(conversion)), nil
	}
}

func handleGetMajorFxRates(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		base := getString(request, "base_currency", "")

		var table *models.FxRateTable
		if err := sess.Do(func() error {
			var err error
			table, err = sess.Market.GetMajorFxRates(ctx, base)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatFxRateTable(table)), nil
	}
}

func handleGetMarketOverview(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var overview *models.MarketOverview
		if err := sess.Do(func() error {
			var err error
			overview, err = sess.Market.GetMarketOverview(ctx)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatMarketOverview(overview)), nil
	}
}

func handleGetStockNews(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := requireString(request, "symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		limit := getInt(request, "limit", 10)

		var articles []models.NewsArticle
		if err := sess.Do(func() error {
			var err error
			articles, err = sess.Market.GetStockNews(ctx, symbol, limit)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatNews(strings.ToUpper(strings.TrimSpace(symbol)), articles)), nil
	}
}

func handleGetEconomicIndicators(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		indicators := getStringSlice(request, "indicators")

		var observations []models.EconomicObservation
		if err := sess.Do(func() error {
			var err error
			observations, err = sess.Market.GetEconomicIndicators(ctx, indicators)
			return err
		}); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatEconomicIndicators(observations)), nil
	}
}

// --- Diagnostics ---

func handleGetVersion(sess *session.Session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("Nestegg MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}
