package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/models"
)

// Delegate to common format helpers
func formatMoney(v float64) string       { return common.FormatMoney(v) }
func formatSignedMoney(v float64) string { return common.FormatSignedMoney(v) }
func formatSignedPct(v float64) string   { return common.FormatSignedPct(v) }
func formatMarketCap(v float64) string   { return common.FormatMarketCap(v) }

func formatMoneyWithCcy(v float64, ccy string) string { return common.FormatMoneyWithCurrency(v, ccy) }
func formatSignedMoneyWithCcy(v float64, ccy string) string {
	return common.FormatSignedMoneyWithCurrency(v, ccy)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// dateOnly trims an RFC 3339 timestamp down to its date part.
func dateOnly(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// --- Owners ---

func formatOwnerCreated(slug string, settings *models.OwnerSettings, setCurrent bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Created owner **%s** (`%s`) with base currency %s.\n",
		settings.Name, slug, settings.BaseCurrency))
	if setCurrent {
		sb.WriteString("This owner is now current; portfolio and memory tools operate on their data.\n")
	} else {
		sb.WriteString(fmt.Sprintf("Use `switch_owner` with `%s` to make them current.\n", slug))
	}

	return sb.String()
}

func formatOwnerList(owners []models.OwnerInfo) string {
	var sb strings.Builder

	sb.WriteString("# Owners\n\n")
	if len(owners) == 0 {
		sb.WriteString("No owners configured. Use `setup_owner` to create one.\n")
		return sb.String()
	}

	sb.WriteString("| Owner | Slug | Base Currency | Current | Created |\n")
	sb.WriteString("|-------|------|---------------|---------|--------|\n")
	for _, o := range owners {
		current := ""
		if o.IsCurrent {
			current = "yes"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			o.Name, o.Slug, o.BaseCurrency, current, dateOnly(o.CreatedAt)))
	}

	return sb.String()
}

func formatOwnerSettings(slug string, settings *models.OwnerSettings) string {
	var sb strings.Builder

	sb.WriteString("# Owner Settings\n\n")
	sb.WriteString(fmt.Sprintf("**Name:** %s\n", settings.Name))
	sb.WriteString(fmt.Sprintf("**Slug:** `%s`\n", slug))
	sb.WriteString(fmt.Sprintf("**Base Currency:** %s\n", settings.BaseCurrency))
	if settings.CreatedAt != "" {
		sb.WriteString(fmt.Sprintf("**Created:** %s\n", dateOnly(settings.CreatedAt)))
	}
	if settings.UpdatedAt != "" {
		sb.WriteString(fmt.Sprintf("**Updated:** %s\n", dateOnly(settings.UpdatedAt)))
	}

	return sb.String()
}

// --- Portfolio ---

func formatPortfolioSummary(s *models.PortfolioSummary) string {
	var sb strings.Builder

	if s.Owner != "" {
		sb.WriteString(fmt.Sprintf("# Portfolio: %s\n\n", s.Owner))
	} else {
		sb.WriteString("# Portfolio\n\n")
	}
	sb.WriteString(fmt.Sprintf("**Base Currency:** %s\n", s.BaseCurrency))
	sb.WriteString(fmt.Sprintf("**Positions:** %d\n", s.TotalPositions))
	sb.WriteString(fmt.Sprintf("**Cash:** %s\n", formatMoneyWithCcy(s.Cash, s.BaseCurrency)))
	sb.WriteString(fmt.Sprintf("**Total Cost Basis:** %s\n", formatMoneyWithCcy(s.TotalCostBasis, s.BaseCurrency)))
	if s.LastUpdated != "" {
		sb.WriteString(fmt.Sprintf("**Last Updated:** %s\n", dateOnly(s.LastUpdated)))
	}
	sb.WriteString("\n")

	if len(s.Positions) == 0 {
		sb.WriteString("No positions yet. Use `add_position` to record a purchase.\n")
		return sb.String()
	}

	sb.WriteString("| Symbol | Shares | Avg Cost | Cost Basis | Sector | Type |\n")
	sb.WriteString("|--------|--------|----------|------------|--------|------|\n")
	for _, p := range s.Positions {
		sb.WriteString(fmt.Sprintf("| %s | %g | %.2f | %.2f | %s | %s |\n",
			p.Symbol, p.Shares, p.AvgCost, p.CostBasis, p.Sector, p.AssetType))
	}
	sb.WriteString("\nCost figures are in each position's own trading currency. Use `get_portfolio_valuation` for market values in the base currency.\n")

	return sb.String()
}

func formatPosition(title string, p *models.Position) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s: %s\n\n", title, p.Symbol))
	if p.CompanyName != "" {
		sb.WriteString(fmt.Sprintf("**Company:** %s\n", p.CompanyName))
	}
	sb.WriteString(fmt.Sprintf("**Shares:** %g\n", p.Shares()))
	sb.WriteString(fmt.Sprintf("**Avg Cost:** %s\n", formatMoneyWithCcy(p.AvgCost(), p.Currency)))
	sb.WriteString(fmt.Sprintf("**Cost Basis:** %s\n", formatMoneyWithCcy(p.CostBasis(), p.Currency)))
	if p.Sector != "" {
		sb.WriteString(fmt.Sprintf("**Sector:** %s\n", p.Sector))
	}
	if p.AssetType != "" {
		sb.WriteString(fmt.Sprintf("**Asset Type:** %s\n", p.AssetType))
	}
	if p.Exchange != "" {
		sb.WriteString(fmt.Sprintf("**Exchange:** %s\n", p.Exchange))
	}
	if p.ISIN != "" {
		sb.WriteString(fmt.Sprintf("**ISIN:** %s\n", p.ISIN))
	}
	if p.Notes != "" {
		sb.WriteString(fmt.Sprintf("**Notes:** %s\n", p.Notes))
	}

	if len(p.Lots) > 1 {
		sb.WriteString("\n## Lots\n\n")
		sb.WriteString("| Date | Shares | Price |\n")
		sb.WriteString("|------|--------|-------|\n")
		for _, lot := range p.Lots {
			sb.WriteString(fmt.Sprintf("| %s | %g | %.2f |\n", lot.Date, lot.Shares, lot.Price))
		}
	}

	return sb.String()
}

func formatValuation(v *models.PortfolioValuation) string {
	var sb strings.Builder

	sb.WriteString("# Portfolio Valuation\n\n")
	sb.WriteString(fmt.Sprintf("**Date:** %s\n", v.ValuationDate))
	if v.Owner != "" {
		sb.WriteString(fmt.Sprintf("**Owner:** %s\n", v.Owner))
	}
	sb.WriteString(fmt.Sprintf("**Total Value:** %s\n", formatMoneyWithCcy(v.TotalValue, v.BaseCurrency)))
	sb.WriteString(fmt.Sprintf("**Cost Basis:** %s\n", formatMoneyWithCcy(v.TotalCostBasis, v.BaseCurrency)))
	sb.WriteString(fmt.Sprintf("**Gain/Loss:** %s (%s)\n",
		formatSignedMoneyWithCcy(v.TotalGainLoss, v.BaseCurrency), formatSignedPct(v.TotalGainLossPct)))
	sb.WriteString(fmt.Sprintf("**Cash:** %s\n", formatMoneyWithCcy(v.Cash, v.BaseCurrency)))
	sb.WriteString(fmt.Sprintf("**Total With Cash:** %s\n", formatMoneyWithCcy(v.TotalWithCash, v.BaseCurrency)))
	sb.WriteString("\n")

	if len(v.Positions) == 0 {
		sb.WriteString("No positions to value. Use `add_position` to record a purchase.\n")
		return sb.String()
	}

	positions := make([]models.PositionValuation, len(v.Positions))
	copy(positions, v.Positions)
	sort.SliceStable(positions, func(i, j int) bool { return positions[i].Weight > positions[j].Weight })

	sb.WriteString("## Positions\n\n")
	sb.WriteString(fmt.Sprintf("| Symbol | Shares | Avg Cost | Price | Value | Value (%s) | Gain/Loss | Weight |\n", v.BaseCurrency))
	sb.WriteString("|--------|--------|----------|-------|-------|-----------|-----------|--------|\n")
	for _, p := range positions {
		if p.Error != "" {
			sb.WriteString(fmt.Sprintf("| %s | %g | %.2f | n/a | n/a | %s | n/a | %.1f%% |\n",
				p.Symbol, p.Shares, p.AvgCost, formatMoneyWithCcy(p.CurrentValueBase, v.BaseCurrency), p.Weight))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %g | %.2f | %.2f | %s | %s | %s (%s) | %.1f%% |\n",
			p.Symbol, p.Shares, p.AvgCost, p.CurrentPrice,
			formatMoneyWithCcy(p.CurrentValue, p.Currency),
			formatMoneyWithCcy(p.CurrentValueBase, v.BaseCurrency),
			formatSignedMoneyWithCcy(p.GainLossBase, v.BaseCurrency), formatSignedPct(p.GainLossPct),
			p.Weight))
	}
	sb.WriteString("\n")

	if len(v.SectorAllocation) > 0 {
		sb.WriteString("## Sector Allocation\n\n")
		writeAllocationTable(&sb, v.SectorAllocation, v.BaseCurrency, v.TotalValue)
	}
	if len(v.AssetAllocation) > 0 {
		sb.WriteString("## Asset Allocation\n\n")
		writeAllocationTable(&sb, v.AssetAllocation, v.BaseCurrency, v.TotalValue)
	}
	if len(v.CurrencyAllocation) > 0 {
		sb.WriteString("## Currency Exposure\n\n")
		sb.WriteString(fmt.Sprintf("| Currency | Value (%s) | Share |\n", v.BaseCurrency))
		sb.WriteString("|----------|-----------|-------|\n")
		currencies := make([]string, 0, len(v.CurrencyAllocation))
		for ccy := range v.CurrencyAllocation {
			currencies = append(currencies, ccy)
		}
		sort.Slice(currencies, func(i, j int) bool {
			return v.CurrencyAllocation[currencies[i]].Value > v.CurrencyAllocation[currencies[j]].Value
		})
		for _, ccy := range currencies {
			exp := v.CurrencyAllocation[ccy]
			sb.WriteString(fmt.Sprintf("| %s | %s | %.1f%% |\n",
				ccy, formatMoneyWithCcy(exp.Value, v.BaseCurrency), exp.Percentage))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("**Concentration Risk:** %s (largest position %.1f%%)\n",
		v.ConcentrationRisk, v.MaxPositionWeight))

	if len(v.Errors) > 0 {
		sb.WriteString("\n## Pricing Errors\n\n")
		for _, e := range v.Errors {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", e.Symbol, e.Error))
		}
		sb.WriteString("\nPositions that failed to price are carried at cost basis.\n")
	}

	return sb.String()
}

// writeAllocationTable renders a value-per-segment map, largest first, with
// each segment's share of the portfolio total.
func writeAllocationTable(sb *strings.Builder, allocation map[string]float64, baseCurrency string, total float64) {
	keys := make([]string, 0, len(allocation))
	for k := range allocation {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if allocation[keys[i]] != allocation[keys[j]] {
			return allocation[keys[i]] > allocation[keys[j]]
		}
		return keys[i] < keys[j]
	})

	sb.WriteString(fmt.Sprintf("| Segment | Value (%s) | Share |\n", baseCurrency))
	sb.WriteString("|---------|-----------|-------|\n")
	for _, k := range keys {
		var share float64
		if total > 0 {
			share = allocation[k] / total * 100
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %.1f%% |\n",
			k, formatMoneyWithCcy(allocation[k], baseCurrency), share))
	}
	sb.WriteString("\n")
}

func formatPortfolioHistory(snapshots []models.PortfolioSnapshot, metrics *models.PerformanceMetrics, days int, baseCurrency string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Portfolio History (Last %d Days)\n\n", days))

	if len(snapshots) == 0 {
		sb.WriteString("No snapshots in this period. Run `get_portfolio_valuation` to record one; one snapshot is kept per day.\n")
		return sb.String()
	}

	sb.WriteString("| Date | Total Value | Cost Basis | Cash | Positions |\n")
	sb.WriteString("|------|-------------|------------|------|-----------|\n")
	for _, snap := range snapshots {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d |\n",
			snap.Date,
			formatMoneyWithCcy(snap.TotalValue, baseCurrency),
			formatMoneyWithCcy(snap.TotalCostBasis, baseCurrency),
			formatMoneyWithCcy(snap.Cash, baseCurrency),
			len(snap.Positions)))
	}
	sb.WriteString("\n")

	if metrics == nil {
		return sb.String()
	}

	sb.WriteString("## Performance\n\n")
	if metrics.Error != "" {
		sb.WriteString(metrics.Error + "\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("**Period:** %s to %s (%d snapshots)\n",
		metrics.StartDate, metrics.EndDate, metrics.SnapshotsAvailable))
	sb.WriteString(fmt.Sprintf("**Start Value:** %s\n", formatMoneyWithCcy(metrics.StartValue, baseCurrency)))
	sb.WriteString(fmt.Sprintf("**End Value:** %s\n", formatMoneyWithCcy(metrics.EndValue, baseCurrency)))
	sb.WriteString(fmt.Sprintf("**Change:** %s (%s)\n",
		formatSignedMoneyWithCcy(metrics.ValueChange, baseCurrency), formatSignedPct(metrics.ValueChangePercent)))
	sb.WriteString(fmt.Sprintf("**Period High:** %s\n", formatMoneyWithCcy(metrics.PeriodHigh, baseCurrency)))
	sb.WriteString(fmt.Sprintf("**Period Low:** %s\n", formatMoneyWithCcy(metrics.PeriodLow, baseCurrency)))

	return sb.String()
}

// --- Memory ---

func formatInsightSaved(insight *models.Insight) string {
	var sb strings.Builder

	sb.WriteString("Insight saved.\n\n")
	sb.WriteString(fmt.Sprintf("**ID:** `%s`\n", insight.ID))
	sb.WriteString(fmt.Sprintf("**Category:** %s\n", insight.Category))
	if insight.Symbol != "" {
		sb.WriteString(fmt.Sprintf("**Symbol:** %s\n", insight.Symbol))
	}
	if len(insight.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("**Tags:** %s\n", strings.Join(insight.Tags, ", ")))
	}
	if insight.RelevanceExpires != "" {
		sb.WriteString(fmt.Sprintf("**Expires:** %s\n", insight.RelevanceExpires))
	} else {
		sb.WriteString("**Expires:** never\n")
	}

	return sb.String()
}

func formatInsights(insights []models.Insight) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Insights (%d)\n\n", len(insights)))
	if len(insights) == 0 {
		sb.WriteString("No insights found. Use `save_insight` to record one.\n")
		return sb.String()
	}

	for i, insight := range insights {
		header := fmt.Sprintf("%d. **[%s]** %s", i+1, insight.Category, insight.Date)
		if insight.Symbol != "" {
			header += " " + insight.Symbol
		}
		if insight.IsExpired() {
			header += " (expired)"
		}
		sb.WriteString(header + "\n")
		sb.WriteString(fmt.Sprintf("   %s\n", insight.Content))
		if len(insight.Tags) > 0 {
			sb.WriteString(fmt.Sprintf("   Tags: %s\n", strings.Join(insight.Tags, ", ")))
		}
	}

	return sb.String()
}

func formatDecisionTracked(d *models.Decision) string {
	var sb strings.Builder

	sb.WriteString("Decision tracked.\n\n")
	sb.WriteString(fmt.Sprintf("**ID:** `%s`\n", d.ID))
	action := d.Action
	if d.Symbol != "" {
		action += " " + d.Symbol
	}
	sb.WriteString(fmt.Sprintf("**Action:** %s\n", action))
	if d.Shares != 0 {
		sb.WriteString(fmt.Sprintf("**Shares:** %g\n", d.Shares))
	}
	if d.Price != 0 {
		sb.WriteString(fmt.Sprintf("**Price:** %.2f\n", d.Price))
	}
	sb.WriteString(fmt.Sprintf("**Rationale:** %s\n", d.Rationale))
	sb.WriteString(fmt.Sprintf("**Review Date:** %s\n", d.ReviewDate))

	return sb.String()
}

func formatPendingReviews(pending []models.Decision) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Pending Decision Reviews (%d)\n\n", len(pending)))
	if len(pending) == 0 {
		sb.WriteString("No decisions due for review.\n")
		return sb.String()
	}

	sb.WriteString("| ID | Date | Action | Symbol | Review Date | Rationale |\n")
	sb.WriteString("|----|------|--------|--------|-------------|----------|\n")
	for _, d := range pending {
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s | %s | %s |\n",
			d.ID, d.Date, d.Action, d.Symbol, d.ReviewDate, truncate(d.Rationale, 60)))
	}
	sb.WriteString("\nUse `update_decision_outcome` with the decision ID to record how it turned out.\n")

	return sb.String()
}

func formatDecisions(decisions []models.Decision) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Decisions (%d)\n\n", len(decisions)))
	if len(decisions) == 0 {
		sb.WriteString("No decisions found. Buys and sells are tracked automatically; use `track_decision` for everything else.\n")
		return sb.String()
	}

	for i, d := range decisions {
		header := fmt.Sprintf("%d. **%s", i+1, strings.ToUpper(d.Action))
		if d.Symbol != "" {
			header += " " + d.Symbol
		}
		header += "**"
		if d.Shares != 0 {
			header += fmt.Sprintf(" %g @ %.2f", d.Shares, d.Price)
		}
		header += fmt.Sprintf(" (%s, %s)", d.Date, d.Status)
		sb.WriteString(header + "\n")
		sb.WriteString(fmt.Sprintf("   Rationale: %s\n", d.Rationale))
		if d.Outcome != "" {
			sb.WriteString(fmt.Sprintf("   Outcome (%s): %s\n", d.OutcomeDate, d.Outcome))
		}
		sb.WriteString(fmt.Sprintf("   ID: `%s`\n", d.ID))
	}

	return sb.String()
}

// --- Market data ---

func formatQuote(q *models.Quote) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Quote: %s\n\n", q.Symbol))
	if q.CompanyName != "" {
		sb.WriteString(fmt.Sprintf("**Company:** %s\n", q.CompanyName))
	}
	if q.Sector != "" {
		sb.WriteString(fmt.Sprintf("**Sector:** %s\n", q.Sector))
	}
	if q.Exchange != "" {
		sb.WriteString(fmt.Sprintf("**Exchange:** %s\n", q.Exchange))
	}
	if q.CompanyName != "" || q.Sector != "" || q.Exchange != "" {
		sb.WriteString("\n")
	}

	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Price | %s |\n", formatMoneyWithCcy(q.Price, q.Currency)))
	sb.WriteString(fmt.Sprintf("| Change | %s (%s) |\n",
		formatSignedMoneyWithCcy(q.Change, q.Currency), formatSignedPct(q.ChangePercent)))
	if q.Volume > 0 {
		sb.WriteString(fmt.Sprintf("| Volume | %d |\n", q.Volume))
	}
	if q.MarketCap > 0 {
		sb.WriteString(fmt.Sprintf("| Market Cap | %s |\n", formatMarketCap(q.MarketCap)))
	}
	if q.PERatio > 0 {
		sb.WriteString(fmt.Sprintf("| P/E Ratio | %.2f |\n", q.PERatio))
	}
	if q.FiftyTwoWeekLow > 0 && q.FiftyTwoWeekHigh > 0 {
		sb.WriteString(fmt.Sprintf("| 52-Week Range | %.2f - %.2f |\n", q.FiftyTwoWeekLow, q.FiftyTwoWeekHigh))
	}

	return sb.String()
}

func formatFxRate(r *models.FxRate) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# FX Rate: %s/%s\n\n", r.FromCurrency, r.ToCurrency))
	sb.WriteString(fmt.Sprintf("**Rate:** %.6f\n", r.Rate))
	sb.WriteString(fmt.Sprintf("**Inverse:** %.6f\n", r.InverseRate))
	sb.WriteString(fmt.Sprintf("**Example:** %s\n", r.Example))
	if r.Cached {
		sb.WriteString("**Cached:** yes\n")
	}

	return sb.String()
}

func formatConversion(c *models.CurrencyConversion) string {
	var sb strings.Builder

	sb.WriteString(c.Formatted + "\n\n")
	sb.WriteString(fmt.Sprintf("**Rate:** 1 %s = %.4f %s\n", c.FromCurrency, c.Rate, c.ToCurrency))

	return sb.String()
}

func formatFxRateTable(t *models.FxRateTable) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# FX Rates: %s\n\n", t.BaseCurrency))

	currencies := make([]string, 0, len(t.Rates))
	for ccy := range t.Rates {
		currencies = append(currencies, ccy)
	}
	sort.Strings(currencies)

	if len(currencies) > 0 {
		sb.WriteString("| Pair | Rate |\n")
		sb.WriteString("|------|------|\n")
		for _, ccy := range currencies {
			sb.WriteString(fmt.Sprintf("| %s/%s | %.4f |\n", t.BaseCurrency, ccy, t.Rates[ccy]))
		}
		sb.WriteString("\n")
	}

	if len(t.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("Unavailable: %s\n\n", strings.Join(t.Errors, ", ")))
	}
	sb.WriteString(fmt.Sprintf("**As Of:** %s\n", t.Timestamp))

	return sb.String()
}

func formatMarketOverview(o *models.MarketOverview) string {
	var sb strings.Builder

	sb.WriteString("# Market Overview\n\n")
	sb.WriteString(fmt.Sprintf("**Time:** %s\n", o.Timestamp))
	sb.WriteString(fmt.Sprintf("**US Market:** %s\n", o.MarketStatus))
	sb.WriteString(fmt.Sprintf("**Sentiment:** %s (score %d/100)\n\n", o.Sentiment.Overall, o.Sentiment.Score))

	sb.WriteString("## Indices\n\n")
	sb.WriteString("| Index | Price | Change | Status |\n")
	sb.WriteString("|-------|-------|--------|--------|\n")
	for _, idx := range o.Indices {
		if idx.Error != "" {
			sb.WriteString(fmt.Sprintf("| %s | unavailable | | |\n", idx.Name))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %+.2f (%s) | %s |\n",
			idx.Name, idx.Price, idx.Change, formatSignedPct(idx.ChangePercent), idx.Status))
	}
	sb.WriteString("\n")

	sb.WriteString("## Volatility\n\n")
	if o.Vix.Error != "" {
		sb.WriteString(fmt.Sprintf("VIX reading unavailable: %s\n\n", o.Vix.Error))
	} else {
		sb.WriteString(fmt.Sprintf("**VIX:** %.2f (%s, %s)\n", o.Vix.Value, o.Vix.Level, o.Vix.Trend))
		sb.WriteString(o.Vix.Description + "\n\n")
	}

	sb.WriteString(fmt.Sprintf("**Breadth:** %d advancing, %d declining, %d unchanged\n",
		o.Breadth.Advancing, o.Breadth.Declining, o.Breadth.Unchanged))
	sb.WriteString(fmt.Sprintf("**VIX Sentiment:** %s | **Breadth Sentiment:** %s\n",
		o.Sentiment.VixSentiment, o.Sentiment.BreadthSentiment))

	return sb.String()
}

func formatNews(symbol string, articles []models.NewsArticle) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# News: %s\n\n", symbol))
	if len(articles) == 0 {
		sb.WriteString(fmt.Sprintf("No recent news found for %s.\n", symbol))
		return sb.String()
	}

	for i, a := range articles {
		sb.WriteString(fmt.Sprintf("%d. **%s**\n", i+1, a.Title))
		meta := dateOnly(a.PublishedAt)
		if a.Source != "" {
			meta += " | " + a.Source
		}
		sb.WriteString(fmt.Sprintf("   %s\n", meta))
		if a.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", truncate(a.Description, 200)))
		}
		if a.URL != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", a.URL))
		}
	}

	return sb.String()
}

func formatEconomicIndicators(observations []models.EconomicObservation) string {
	var sb strings.Builder

	sb.WriteString("# Economic Indicators\n\n")
	sb.WriteString("| Indicator | Value | Previous | Change | Date |\n")
	sb.WriteString("|-----------|-------|----------|--------|------|\n")
	for _, obs := range observations {
		previous := ""
		change := ""
		if obs.Previous != 0 {
			previous = fmt.Sprintf("%.2f", obs.Previous)
			change = fmt.Sprintf("%+.2f", obs.Change)
		}
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %s | %s | %s |\n",
			obs.Name, obs.Value, previous, change, obs.Date))
	}

	return sb.String()
}
