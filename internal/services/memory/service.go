// Package memory persists per-owner insights, decisions and snapshots
package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
	"github.com/bobmcallan/nestegg/internal/registry"
	"github.com/bobmcallan/nestegg/internal/storage"
)

const memoryKey = "memory"

// ErrDecisionNotFound indicates no decision matches the given id.
var ErrDecisionNotFound = errors.New("decision not found")

// Service manages one memory.json per owner. Documents are read fresh on
// every operation so an owner switch can never serve another owner's data.
type Service struct {
	registry *registry.Registry
	store    *storage.FileStore
	logger   *common.Logger
}

// NewService creates the memory service.
func NewService(reg *registry.Registry, store *storage.FileStore, logger *common.Logger) *Service {
	return &Service{registry: reg, store: store, logger: logger}
}

var _ interfaces.SnapshotWriter = (*Service)(nil)

func (s *Service) load(slug string) (*models.MemoryDocument, error) {
	raw, err := s.store.ReadRaw(s.store.OwnerDir(slug), memoryKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.NewMemoryDocument(), nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("memory for %s: %w", slug, storage.ErrCorruptDocument)
	}

	doc, err := models.DecodeMemory(raw)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", slug).Msg("Unparseable memory document")
		return nil, fmt.Errorf("memory for %s: %w", slug, storage.ErrCorruptDocument)
	}
	return doc, nil
}

func (s *Service) save(slug string, doc *models.MemoryDocument) error {
	doc.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return s.store.WriteJSON(s.store.OwnerDir(slug), memoryKey, doc, true)
}

func (s *Service) resolve(ownerRef string) (string, error) {
	slug, _, err := s.registry.ResolveOwner(ownerRef)
	return slug, err
}

// SaveInsight appends a new insight and persists. An unknown category falls
// back to "market". expiryDays below zero applies the category default;
// zero means the insight never expires.
func (s *Service) SaveInsight(ownerRef, category, content, symbol string, tags []string, expiryDays int) (*models.Insight, error) {
	slug, err := s.resolve(ownerRef)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("insight content is required")
	}
	if !models.IsInsightCategory(category) {
		category = models.CategoryMarket
	}
	if expiryDays < 0 {
		expiryDays = models.RetentionGeneralInsights
	}

	now := time.Now().UTC()
	insight := models.Insight{
		ID:       uuid.New().String(),
		Date:     now.Format(time.DateOnly),
		Category: category,
		Content:  content,
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Tags:     tags,
		Source:   "analysis",
	}
	if insight.Tags == nil {
		insight.Tags = []string{}
	}
	if expiryDays > 0 {
		insight.RelevanceExpires = now.AddDate(0, 0, expiryDays).Format(time.DateOnly)
	}

	doc, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	doc.Insights = append(doc.Insights, insight)
	if err := s.save(slug, doc); err != nil {
		return nil, err
	}

	s.logger.Info().Str("category", category).Str("owner", slug).Msg("Saved insight")
	return &insight, nil
}

// GetInsights filters stored insights. Tags match when any overlap exists.
// Results sort newest first and truncate to limit (default 20).
func (s *Service) GetInsights(ownerRef, category, symbol string, tags []string, includeExpired bool, limit int) ([]models.Insight, error) {
	slug, err := s.resolve(ownerRef)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	filtered := make([]models.Insight, 0, len(doc.Insights))
	for _, insight := range doc.Insights {
		if !includeExpired && insight.IsExpired() {
			continue
		}
		if category != "" && insight.Category != category {
			continue
		}
		if symbol != "" && insight.Symbol != symbol {
			continue
		}
		if len(tags) > 0 && !anyTagOverlap(insight.Tags, tags) {
			continue
		}
		filtered = append(filtered, insight)
	}

	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Date > filtered[j].Date })
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func anyTagOverlap(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// CleanupExpiredInsights drops expired insights and returns how many were
// removed.
func (s *Service) CleanupExpiredInsights(ownerRef string) (int, error) {
	slug, err := s.resolve(ownerRef)
	if err != nil {
		return 0, err
	}
	doc, err := s.load(slug)
	if err != nil {
		return 0, err
	}

	kept := make([]models.Insight, 0, len(doc.Insights))
	for _, insight := range doc.Insights {
		if !insight.IsExpired() {
			kept = append(kept, insight)
		}
	}
	removed := len(doc.Insights) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	doc.Insights = kept
	if err := s.save(slug, doc); err != nil {
		return 0, err
	}
	s.logger.Info().Int("removed", removed).Str("owner", slug).Msg("Cleaned up expired insights")
	return removed, nil
}

// TrackDecision records an investment decision with a scheduled review.
// reviewDays at or below zero applies the 30 day default.
func (s *Service) TrackDecision(ownerRef, action, rationale, symbol string, shares, price float64, reviewDays int) (*models.Decision, error) {
	slug, err := s.resolve(ownerRef)
	if err != nil {
		return nil, err
	}
	if action == "" {
		return nil, fmt.Errorf("decision action is required")
	}
	if reviewDays <= 0 {
		reviewDays = models.DefaultReviewDays
	}

	now := time.Now().UTC()
	decision := models.Decision{
		ID:         uuid.New().String(),
		Date:       now.Format(time.DateOnly),
		Action:     action,
		Symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		Shares:     shares,
		Price:      price,
		Rationale:  rationale,
		ReviewDate: now.AddDate(0, 0, reviewDays).Format(time.DateOnly),
		Status:     models.DecisionPending,
	}

	doc, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	doc.Decisions = append(doc.Decisions, decision)
	if err := s.save(slug, doc); err != nil {
		return nil, err
	}

	s.logger.Info().Str("action", action).Str("symbol", decision.Symbol).Str("owner", slug).Msg("Tracked decision")
	return &decision, nil
}

// GetPendingReviews returns pending decisions whose review date has
// arrived.
func (s *Service) GetPendingReviews(ownerRef string) ([]models.Decision, error) {
	slug, err := s.resolve(ownerRef)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(slug)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Format(time.DateOnly)
	pending := make([]models.Decision, 0)
	for _, d := range doc.Decisions {
		if d.Status == models.DecisionPending && d.ReviewDate != "" && d.ReviewDate <= today {
			pending = append(pending, d)
		}
	}
	return pending, nil
}

// UpdateDecisionOutcome records the outcome of a tracked decision. An empty
// status defaults to "reviewed".
func (s *Service) UpdateDecisionOutcome(ownerRef, decisionID, outcome, status string) (*models.Decision, error) {
	slug, err := s.resolve(ownerRef)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = models.DecisionReviewed
	}

	doc, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	for i := range doc.Decisions {
		if doc.Decisions[i].ID != decisionID {
			continue
		}
		doc.Decisions[i].Outcome = outcome
		doc.Decisions[i].OutcomeDate = time.Now().UTC().Format(time.DateOnly)
		doc.Decisions[i].Status = status
		if err := s.save(slug, doc); err != nil {
			return nil, err
		}
		decision := doc.Decisions[i]
		return &decision, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrDecisionNotFound, decisionID)
}

// GetDecisions filters tracked decisions, newest first, truncated to limit
// (default 20).
func (s *Service) GetDecisions(ownerRef, symbol, action, status string, limit int) ([]models.Decision, error) {
	slug, err := s.resolve(ownerRef)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	filtered := make([]models.Decision, 0, len(doc.Decisions))
	for _, d := range doc.Decisions {
		if symbol != "" && d.Symbol != symbol {
			continue
		}
		if action != "" && d.Action != action {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		filtered = append(filtered, d)
	}

	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Date > filtered[j].Date })
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// SavePortfolioSnapshot upserts today's snapshot: at most one snapshot per
// UTC calendar date, last write wins.
func (s *Service) SavePortfolioSnapshot(ownerRef string, totalValue, totalCostBasis, cash float64, positions []models.SnapshotPosition) (*models.PortfolioSnapshot, error) {
	slug, err := s.resolve(ownerRef)
	if err != nil {
		return nil, err
	}

	if positions == nil {
		positions = []models.SnapshotPosition{}
	}
	snapshot := models.PortfolioSnapshot{
		Date:           time.Now().UTC().Format(time.DateOnly),
		TotalValue:     totalValue,
		TotalCostBasis: totalCostBasis,
		Cash:           cash,
		Positions:      positions,
	}

	doc, err := s.load(slug)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range doc.Snapshots {
		if doc.Snapshots[i].Date == snapshot.Date {
			doc.Snapshots[i] = snapshot
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Snapshots = append(doc.Snapshots, snapshot)
	}

	if err := s.save(slug, doc); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetPortfolioHistory returns snapshots sorted oldest first. days limits
// the window, limit keeps only the most recent entries.
func (s *Service) GetPortfolioHistory(ownerRef string, days, limit int) ([]models.PortfolioSnapshot, error) {
	slug, err := s.resolve(ownerRef)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(slug)
	if err != nil {
		return nil, err
	}

	snapshots := doc.Snapshots
	if days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.DateOnly)
		inWindow := make([]models.PortfolioSnapshot, 0, len(snapshots))
		for _, snap := range snapshots {
			if snap.Date >= cutoff {
				inWindow = append(inWindow, snap)
			}
		}
		snapshots = inWindow
	} else {
		snapshots = append([]models.PortfolioSnapshot(nil), snapshots...)
	}

	sort.SliceStable(snapshots, func(i, j int) bool { return snapshots[i].Date < snapshots[j].Date })
	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[len(snapshots)-limit:]
	}
	return snapshots, nil
}

// GetPerformanceMetrics summarizes value movement across the snapshot
// window (default 30 days). Fewer than two snapshots yields an explicit
// insufficient-data result, not an error.
func (s *Service) GetPerformanceMetrics(ownerRef string, days int) (*models.PerformanceMetrics, error) {
	if days <= 0 {
		days = 30
	}
	snapshots, err := s.GetPortfolioHistory(ownerRef, days, 0)
	if err != nil {
		return nil, err
	}

	if len(snapshots) < 2 {
		return &models.PerformanceMetrics{
			PeriodDays:         days,
			SnapshotsAvailable: len(snapshots),
			Error:              "Insufficient data for performance calculation",
		}, nil
	}

	first := snapshots[0]
	last := snapshots[len(snapshots)-1]
	valueChange := last.TotalValue - first.TotalValue
	var valueChangePct float64
	if first.TotalValue > 0 {
		valueChangePct = valueChange / first.TotalValue * 100
	}

	high := first.TotalValue
	low := first.TotalValue
	for _, snap := range snapshots[1:] {
		high = math.Max(high, snap.TotalValue)
		low = math.Min(low, snap.TotalValue)
	}

	return &models.PerformanceMetrics{
		PeriodDays:         days,
		SnapshotsAvailable: len(snapshots),
		StartDate:          first.Date,
		EndDate:            last.Date,
		StartValue:         first.TotalValue,
		EndValue:           last.TotalValue,
		ValueChange:        round2(valueChange),
		ValueChangePercent: round2(valueChangePct),
		PeriodHigh:         high,
		PeriodLow:          low,
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
