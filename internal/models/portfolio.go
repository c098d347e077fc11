// Package models defines data structures for Nestegg
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// upperSymbol normalizes a ticker for case-insensitive comparison.
func upperSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// lotDateUnknown marks lots migrated from legacy documents that carried no
// purchase date. FirstPurchase skips it when finding the earliest lot.
const lotDateUnknown = "unknown"

// Lot represents a single purchase batch within a position.
type Lot struct {
	Date     string  `json:"date"`
	Shares   float64 `json:"shares"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Notes    string  `json:"notes,omitempty"`
}

// Position represents a holding in one symbol, composed of one or more lots.
// Share count, average cost, and cost basis are always derived from the lot
// history, never stored.
type Position struct {
	Symbol      string `json:"symbol"`
	Currency    string `json:"currency"`
	Lots        []Lot  `json:"lots"`
	Sector      string `json:"sector,omitempty"`
	AssetType   string `json:"asset_type,omitempty"`
	ISIN        string `json:"isin,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Shares returns the total share count across all lots.
func (p *Position) Shares() float64 {
	var total float64
	for _, lot := range p.Lots {
		total += lot.Shares
	}
	return total
}

// AvgCost returns the shares-weighted average purchase price.
// Zero total shares yields 0, never an error.
func (p *Position) AvgCost() float64 {
	var totalCost, totalShares float64
	for _, lot := range p.Lots {
		totalCost += lot.Shares * lot.Price
		totalShares += lot.Shares
	}
	if totalShares <= 0 {
		return 0
	}
	return totalCost / totalShares
}

// CostBasis returns the total purchase cost across all lots.
func (p *Position) CostBasis() float64 {
	var total float64
	for _, lot := range p.Lots {
		total += lot.Shares * lot.Price
	}
	return total
}

// FirstPurchase returns the earliest dated lot, or empty when no lot carries
// a usable date. ISO dates compare correctly as strings.
func (p *Position) FirstPurchase() string {
	earliest := ""
	for _, lot := range p.Lots {
		if lot.Date == "" || lot.Date == lotDateUnknown {
			continue
		}
		if earliest == "" || lot.Date < earliest {
			earliest = lot.Date
		}
	}
	return earliest
}

// Portfolio is one owner's position ledger.
type Portfolio struct {
	Version      string     `json:"version"`
	BaseCurrency string     `json:"base_currency"`
	Owner        string     `json:"owner,omitempty"`
	LastUpdated  string     `json:"last_updated,omitempty"`
	Cash         float64    `json:"cash"`
	Positions    []Position `json:"positions"`
}

// NewPortfolio returns an empty portfolio in the given base currency.
func NewPortfolio(baseCurrency string) *Portfolio {
	if baseCurrency == "" {
		baseCurrency = "EUR"
	}
	return &Portfolio{
		Version:      PortfolioSchemaVersion,
		BaseCurrency: baseCurrency,
		Positions:    []Position{},
	}
}

// Position returns the position for a symbol (case-insensitive), or nil.
func (p *Portfolio) Position(symbol string) *Position {
	upper := upperSymbol(symbol)
	for i := range p.Positions {
		if upperSymbol(p.Positions[i].Symbol) == upper {
			return &p.Positions[i]
		}
	}
	return nil
}

// TotalCostBasis sums the cost basis of all positions.
func (p *Portfolio) TotalCostBasis() float64 {
	var total float64
	for i := range p.Positions {
		total += p.Positions[i].CostBasis()
	}
	return total
}

// PortfolioSchemaVersion is the current portfolio document version. Documents
// without it pass through the legacy upgrade chain on load.
const PortfolioSchemaVersion = "2.0"

// SummaryPosition is the cost-basis view of one position, no market data.
type SummaryPosition struct {
	Symbol    string  `json:"symbol"`
	Shares    float64 `json:"shares"`
	AvgCost   float64 `json:"avg_cost"`
	CostBasis float64 `json:"cost_basis"`
	Sector    string  `json:"sector,omitempty"`
	AssetType string  `json:"asset_type,omitempty"`
}

// PortfolioSummary is the read-only aggregate view of a portfolio.
type PortfolioSummary struct {
	Owner          string            `json:"owner,omitempty"`
	BaseCurrency   string            `json:"base_currency"`
	LastUpdated    string            `json:"last_updated,omitempty"`
	TotalPositions int               `json:"total_positions"`
	Cash           float64           `json:"cash"`
	TotalCostBasis float64           `json:"total_cost_basis"`
	Positions      []SummaryPosition `json:"positions"`
}

// Summary builds the aggregate view from the lot history.
func (p *Portfolio) Summary() *PortfolioSummary {
	positions := make([]SummaryPosition, 0, len(p.Positions))
	for i := range p.Positions {
		pos := &p.Positions[i]
		positions = append(positions, SummaryPosition{
			Symbol:    pos.Symbol,
			Shares:    pos.Shares(),
			AvgCost:   pos.AvgCost(),
			CostBasis: pos.CostBasis(),
			Sector:    pos.Sector,
			AssetType: pos.AssetType,
		})
	}
	return &PortfolioSummary{
		Owner:          p.Owner,
		BaseCurrency:   p.BaseCurrency,
		LastUpdated:    p.LastUpdated,
		TotalPositions: len(p.Positions),
		Cash:           p.Cash,
		TotalCostBasis: p.TotalCostBasis(),
		Positions:      positions,
	}
}

// rawPosition accepts both the current lot-based shape and the legacy flat
// shape (shares/avg_cost/purchase_price/first_purchase).
type rawPosition struct {
	Symbol           string  `json:"symbol"`
	Currency         string  `json:"currency"`
	PurchaseCurrency string  `json:"purchase_currency"`
	Lots             []Lot   `json:"lots"`
	Shares           float64 `json:"shares"`
	AvgCost          float64 `json:"avg_cost"`
	PurchasePrice    float64 `json:"purchase_price"`
	FirstPurchase    string  `json:"first_purchase"`
	Sector           string  `json:"sector"`
	AssetType        string  `json:"asset_type"`
	ISIN             string  `json:"isin"`
	Exchange         string  `json:"exchange"`
	CompanyName      string  `json:"company_name"`
	Notes            string  `json:"notes"`
}

// rawPortfolio is the permissive top-level shape: either the current flat
// document or a legacy document nesting everything under "portfolio".
type rawPortfolio struct {
	Version      string          `json:"version"`
	BaseCurrency string          `json:"base_currency"`
	Owner        string          `json:"owner"`
	LastUpdated  string          `json:"last_updated"`
	Cash         float64         `json:"cash"`
	Positions    []rawPosition   `json:"positions"`
	Portfolio    json.RawMessage `json:"portfolio"`
}

// legacyPortfolioBody is the v0 nested payload: holdings instead of positions.
type legacyPortfolioBody struct {
	Holdings     []rawPosition `json:"holdings"`
	Cash         float64       `json:"cash"`
	BaseCurrency string        `json:"base_currency"`
	Owner        string        `json:"owner"`
	LastUpdated  string        `json:"last_updated"`
}

// DecodePortfolio parses portfolio JSON, running legacy documents through the
// upgrade chain: v0 (nested "portfolio" with "holdings") -> v1 (flat document,
// positions may still use flat share fields) -> v2 (lot-based positions).
func DecodePortfolio(data []byte) (*Portfolio, error) {
	var raw rawPortfolio
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse portfolio document: %w", err)
	}

	if len(raw.Portfolio) > 0 {
		upgraded, err := upgradePortfolioV0(raw.Portfolio)
		if err != nil {
			return nil, err
		}
		raw = *upgraded
	}

	return upgradePortfolioV1(&raw), nil
}

// upgradePortfolioV0 lifts the nested legacy body into the flat v1 shape.
func upgradePortfolioV0(body json.RawMessage) (*rawPortfolio, error) {
	var legacy legacyPortfolioBody
	if err := json.Unmarshal(body, &legacy); err != nil {
		return nil, fmt.Errorf("parse legacy portfolio document: %w", err)
	}
	return &rawPortfolio{
		BaseCurrency: legacy.BaseCurrency,
		Owner:        legacy.Owner,
		LastUpdated:  legacy.LastUpdated,
		Cash:         legacy.Cash,
		Positions:    legacy.Holdings,
	}, nil
}

// upgradePortfolioV1 converts flat-field positions into lot-based positions
// and stamps the current schema version.
func upgradePortfolioV1(raw *rawPortfolio) *Portfolio {
	base := raw.BaseCurrency
	if base == "" {
		base = "EUR"
	}

	positions := make([]Position, 0, len(raw.Positions))
	for _, rp := range raw.Positions {
		positions = append(positions, upgradePosition(rp))
	}

	return &Portfolio{
		Version:      PortfolioSchemaVersion,
		BaseCurrency: base,
		Owner:        raw.Owner,
		LastUpdated:  raw.LastUpdated,
		Cash:         raw.Cash,
		Positions:    positions,
	}
}

// upgradePosition synthesizes a single lot for legacy flat positions.
// Price falls back from avg_cost to purchase_price; a missing first purchase
// date is recorded as unknown.
func upgradePosition(raw rawPosition) Position {
	currency := raw.Currency
	if currency == "" {
		currency = raw.PurchaseCurrency
	}
	if currency == "" {
		currency = "EUR"
	}

	assetType := raw.AssetType
	if assetType == "" {
		assetType = "stock"
	}

	lots := raw.Lots
	if len(lots) == 0 && raw.Shares > 0 {
		price := raw.AvgCost
		if price == 0 {
			price = raw.PurchasePrice
		}
		date := raw.FirstPurchase
		if date == "" {
			date = lotDateUnknown
		}
		lots = []Lot{{
			Date:     date,
			Shares:   raw.Shares,
			Price:    price,
			Currency: currency,
		}}
	}
	if lots == nil {
		lots = []Lot{}
	}

	return Position{
		Symbol:      raw.Symbol,
		Currency:    currency,
		Lots:        lots,
		Sector:      raw.Sector,
		AssetType:   assetType,
		ISIN:        raw.ISIN,
		Exchange:    raw.Exchange,
		CompanyName: raw.CompanyName,
		Notes:       raw.Notes,
	}
}
