package models

import (
	"encoding/json"
	"time"
)

// Insight categories. Unknown categories are normalized to "market" on save.
const (
	CategoryMarket    = "market"
	CategoryPortfolio = "portfolio"
	CategoryStock     = "stock"
	CategorySector    = "sector"
	CategoryEconomic  = "economic"
	CategoryEarnings  = "earnings"
)

// InsightCategories lists the accepted insight categories.
var InsightCategories = []string{
	CategoryMarket,
	CategoryPortfolio,
	CategoryStock,
	CategorySector,
	CategoryEconomic,
	CategoryEarnings,
}

// IsInsightCategory reports whether c is one of the accepted categories.
func IsInsightCategory(c string) bool {
	for _, known := range InsightCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Retention defaults in days. Snapshots and decisions are kept forever.
const (
	RetentionGeneralInsights = 180
	RetentionPriceAlerts     = 30
	RetentionEarningsNotes   = 365
	RetentionMarketEvents    = 730
)

// Decision statuses.
const (
	DecisionPending  = "pending"
	DecisionReviewed = "reviewed"
	DecisionClosed   = "closed"
)

// DefaultReviewDays is how far out a new decision's review date is set.
const DefaultReviewDays = 30

// Insight is a stored market or portfolio observation.
type Insight struct {
	ID               string   `json:"id"`
	Date             string   `json:"date"`
	Category         string   `json:"category"`
	Content          string   `json:"content"`
	Symbol           string   `json:"symbol,omitempty"`
	Tags             []string `json:"tags"`
	RelevanceExpires string   `json:"relevance_expires,omitempty"`
	Source           string   `json:"source"`
}

// IsExpired reports whether the insight's relevance window has passed.
// Insights without an expiry date, or with an unparseable one, never expire.
func (i *Insight) IsExpired() bool {
	if i.RelevanceExpires == "" {
		return false
	}
	expiry, err := time.Parse(time.DateOnly, i.RelevanceExpires)
	if err != nil {
		return false
	}
	return time.Now().UTC().After(expiry)
}

// Decision is an investment decision tracked for later review.
type Decision struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Action      string  `json:"action"`
	Symbol      string  `json:"symbol,omitempty"`
	Shares      float64 `json:"shares,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Rationale   string  `json:"rationale"`
	Outcome     string  `json:"outcome,omitempty"`
	OutcomeDate string  `json:"outcome_date,omitempty"`
	ReviewDate  string  `json:"review_date,omitempty"`
	Status      string  `json:"status"`
}

// SnapshotPosition is the condensed per-position entry stored in a snapshot.
type SnapshotPosition struct {
	Symbol       string  `json:"symbol"`
	Shares       float64 `json:"shares"`
	CurrentValue float64 `json:"current_value"`
	GainLossPct  float64 `json:"gain_loss_pct"`
}

// PortfolioSnapshot is a point-in-time record of portfolio value. One
// snapshot is kept per UTC calendar date; a later write replaces it.
type PortfolioSnapshot struct {
	Date string `json:"date"`
	// The key predates multi-currency support and holds the base
	// currency value, whatever that currency is.
	TotalValue     float64            `json:"total_value_eur"`
	TotalCostBasis float64            `json:"total_cost_basis"`
	Cash           float64            `json:"cash"`
	Positions      []SnapshotPosition `json:"positions"`
}

// MemoryDocument is the on-disk shape of memory.json.
type MemoryDocument struct {
	Insights    []Insight           `json:"insights"`
	Decisions   []Decision          `json:"decisions"`
	Snapshots   []PortfolioSnapshot `json:"snapshots"`
	LastUpdated string              `json:"last_updated,omitempty"`
}

// NewMemoryDocument returns an empty memory document with non-nil sections.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{
		Insights:  []Insight{},
		Decisions: []Decision{},
		Snapshots: []PortfolioSnapshot{},
	}
}

// DecodeMemory parses a memory.json payload, normalizing absent sections to
// empty slices.
func DecodeMemory(data []byte) (*MemoryDocument, error) {
	var doc MemoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Insights == nil {
		doc.Insights = []Insight{}
	}
	if doc.Decisions == nil {
		doc.Decisions = []Decision{}
	}
	if doc.Snapshots == nil {
		doc.Snapshots = []PortfolioSnapshot{}
	}
	return &doc, nil
}

// PerformanceMetrics summarizes portfolio value movement across snapshots.
// When fewer than two snapshots fall inside the period only PeriodDays,
// SnapshotsAvailable and Error are populated.
type PerformanceMetrics struct {
	PeriodDays         int     `json:"period_days"`
	SnapshotsAvailable int     `json:"snapshots_available"`
	StartDate          string  `json:"start_date,omitempty"`
	EndDate            string  `json:"end_date,omitempty"`
	StartValue         float64 `json:"start_value,omitempty"`
	EndValue           float64 `json:"end_value,omitempty"`
	ValueChange        float64 `json:"value_change"`
	ValueChangePercent float64 `json:"value_change_percent"`
	PeriodHigh         float64 `json:"period_high,omitempty"`
	PeriodLow          float64 `json:"period_low,omitempty"`
	Error              string  `json:"error,omitempty"`
}
