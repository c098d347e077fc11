package memory

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/models"
	"github.com/bobmcallan/nestegg/internal/registry"
	"github.com/bobmcallan/nestegg/internal/storage"
)

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func daysFromNow(n int) string {
	return time.Now().UTC().AddDate(0, 0, n).Format(time.DateOnly)
}

func newTestService(t *testing.T) (*Service, *storage.FileStore) {
	t.Helper()
	logger := common.NewLogger("error")
	store, err := storage.NewFileStore(logger, &common.FileConfig{Path: t.TempDir(), Versions: 2})
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	reg := registry.New(store, logger)
	if _, _, err := reg.CreateOwner("Alice", "USD", true); err != nil {
		t.Fatalf("CreateOwner failed: %v", err)
	}
	return NewService(reg, store, logger), store
}

func seedDocument(t *testing.T, store *storage.FileStore, doc *models.MemoryDocument) {
	t.Helper()
	if err := store.WriteJSON(store.OwnerDir("alice"), "memory", doc, false); err != nil {
		t.Fatalf("seeding memory document failed: %v", err)
	}
}

func TestSaveInsight_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	insight, err := svc.SaveInsight("", "not-a-category", "Fed held rates", "  aapl ", nil, -1)
	if err != nil {
		t.Fatalf("SaveInsight failed: %v", err)
	}
	if insight.Category != models.CategoryMarket {
		t.Errorf("Category = %q, want market fallback", insight.Category)
	}
	if insight.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", insight.Symbol)
	}
	if insight.Tags == nil {
		t.Error("Tags = nil, want empty slice")
	}
	if insight.Source != "analysis" {
		t.Errorf("Source = %q", insight.Source)
	}
	if insight.ID == "" {
		t.Error("ID not assigned")
	}
	// default retention = 180 days out
	if insight.RelevanceExpires != daysFromNow(models.RetentionGeneralInsights) {
		t.Errorf("RelevanceExpires = %q, want %q", insight.RelevanceExpires, daysFromNow(models.RetentionGeneralInsights))
	}

	// persisted
	got, err := svc.GetInsights("", "", "", nil, false, 0)
	if err != nil {
		t.Fatalf("GetInsights failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != insight.ID {
		t.Errorf("GetInsights = %+v, want the saved insight", got)
	}
}

func TestSaveInsight_ZeroExpiryNeverExpires(t *testing.T) {
	svc, _ := newTestService(t)

	insight, err := svc.SaveInsight("", models.CategoryStock, "NVDA margins expanding", "NVDA", []string{"earnings"}, 0)
	if err != nil {
		t.Fatalf("SaveInsight failed: %v", err)
	}
	if insight.RelevanceExpires != "" {
		t.Errorf("RelevanceExpires = %q, want empty for non-expiring insight", insight.RelevanceExpires)
	}
	if insight.IsExpired() {
		t.Error("IsExpired() = true for non-expiring insight")
	}
}

func TestSaveInsight_RequiresContent(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.SaveInsight("", models.CategoryMarket, "", "", nil, 0); err == nil {
		t.Error("empty content accepted")
	}
}

func TestGetInsights_Filters(t *testing.T) {
	svc, store := newTestService(t)

	doc := models.NewMemoryDocument()
	doc.Insights = []models.Insight{
		{ID: "i1", Date: daysFromNow(-3), Category: models.CategoryMarket, Content: "old market note", Tags: []string{"fed"}},
		{ID: "i2", Date: daysFromNow(-1), Category: models.CategoryStock, Content: "AAPL note", Symbol: "AAPL", Tags: []string{"earnings"}},
		{ID: "i3", Date: daysFromNow(0), Category: models.CategoryStock, Content: "MSFT note", Symbol: "MSFT", Tags: []string{"earnings", "cloud"}},
		{ID: "i4", Date: daysFromNow(-2), Category: models.CategoryEconomic, Content: "stale CPI read", RelevanceExpires: daysFromNow(-1)},
	}
	seedDocument(t, store, doc)

	// expired insights excluded by default
	got, err := svc.GetInsights("", "", "", nil, false, 0)
	if err != nil {
		t.Fatalf("GetInsights failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 with expired excluded", len(got))
	}
	// newest first: i3 (today), i2 (-1d), i1 (-3d)
	if got[0].ID != "i3" || got[1].ID != "i2" || got[2].ID != "i1" {
		t.Errorf("order = %s,%s,%s want i3,i2,i1", got[0].ID, got[1].ID, got[2].ID)
	}

	got, err = svc.GetInsights("", "", "", nil, true, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("len = %d, want 4 with includeExpired", len(got))
	}

	got, err = svc.GetInsights("", models.CategoryStock, "", nil, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("category filter: len = %d, want 2", len(got))
	}

	got, err = svc.GetInsights("", "", "aapl", nil, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "i2" {
		t.Errorf("symbol filter = %+v, want only i2", got)
	}

	got, err = svc.GetInsights("", "", "", []string{"cloud", "nope"}, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "i3" {
		t.Errorf("tag filter = %+v, want only i3", got)
	}

	got, err = svc.GetInsights("", "", "", nil, false, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("limit: len = %d, want 2", len(got))
	}
}

func TestCleanupExpiredInsights(t *testing.T) {
	svc, store := newTestService(t)

	doc := models.NewMemoryDocument()
	doc.Insights = []models.Insight{
		{ID: "keep", Date: daysFromNow(-1), Category: models.CategoryMarket, Content: "fresh"},
		{ID: "gone1", Date: daysFromNow(-60), Category: models.CategoryMarket, Content: "stale", RelevanceExpires: daysFromNow(-30)},
		{ID: "gone2", Date: daysFromNow(-90), Category: models.CategoryEconomic, Content: "stale", RelevanceExpires: daysFromNow(-1)},
	}
	seedDocument(t, store, doc)

	removed, err := svc.CleanupExpiredInsights("")
	if err != nil {
		t.Fatalf("CleanupExpiredInsights failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	got, err := svc.GetInsights("", "", "", nil, true, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("remaining = %+v, want only keep", got)
	}

	// nothing left to remove
	removed, err = svc.CleanupExpiredInsights("")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed = %d on clean document, want 0", removed)
	}
}

func TestTrackDecision_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	decision, err := svc.TrackDecision("", "buy", "ai capex cycle", "nvda", 5, 800, 0)
	if err != nil {
		t.Fatalf("TrackDecision failed: %v", err)
	}
	if decision.Status != models.DecisionPending {
		t.Errorf("Status = %q, want pending", decision.Status)
	}
	if decision.Symbol != "NVDA" {
		t.Errorf("Symbol = %q, want NVDA", decision.Symbol)
	}
	// default review window = 30 days
	if decision.ReviewDate != daysFromNow(models.DefaultReviewDays) {
		t.Errorf("ReviewDate = %q, want %q", decision.ReviewDate, daysFromNow(models.DefaultReviewDays))
	}
	if decision.Date != daysFromNow(0) {
		t.Errorf("Date = %q, want today", decision.Date)
	}
}

func TestTrackDecision_RequiresAction(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.TrackDecision("", "", "no action", "", 0, 0, 0); err == nil {
		t.Error("empty action accepted")
	}
}

func TestPendingReviews_Lifecycle(t *testing.T) {
	svc, store := newTestService(t)

	doc := models.NewMemoryDocument()
	doc.Decisions = []models.Decision{
		{ID: "due", Date: daysFromNow(-40), Action: "buy", Symbol: "AAPL", ReviewDate: daysFromNow(-1), Status: models.DecisionPending},
		{ID: "today", Date: daysFromNow(-30), Action: "sell", Symbol: "MSFT", ReviewDate: daysFromNow(0), Status: models.DecisionPending},
		{ID: "future", Date: daysFromNow(-5), Action: "buy", Symbol: "NVDA", ReviewDate: daysFromNow(25), Status: models.DecisionPending},
		{ID: "done", Date: daysFromNow(-50), Action: "hold", Symbol: "VTI", ReviewDate: daysFromNow(-20), Status: models.DecisionReviewed},
	}
	seedDocument(t, store, doc)

	pending, err := svc.GetPendingReviews("")
	if err != nil {
		t.Fatalf("GetPendingReviews failed: %v", err)
	}
	// due today or earlier, still pending: "due" and "today"
	if len(pending) != 2 {
		t.Fatalf("len(pending) = %d, want 2", len(pending))
	}

	updated, err := svc.UpdateDecisionOutcome("", "due", "sold at +12%", "")
	if err != nil {
		t.Fatalf("UpdateDecisionOutcome failed: %v", err)
	}
	if updated.Status != models.DecisionReviewed {
		t.Errorf("Status = %q, want reviewed default", updated.Status)
	}
	if updated.Outcome != "sold at +12%" {
		t.Errorf("Outcome = %q", updated.Outcome)
	}
	if updated.OutcomeDate != daysFromNow(0) {
		t.Errorf("OutcomeDate = %q, want today", updated.OutcomeDate)
	}

	pending, err = svc.GetPendingReviews("")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != "today" {
		t.Errorf("pending after review = %+v, want only today", pending)
	}
}

func TestUpdateDecisionOutcome_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateDecisionOutcome("", "no-such-id", "n/a", "")
	if !errors.Is(err, ErrDecisionNotFound) {
		t.Errorf("error = %v, want ErrDecisionNotFound", err)
	}
}

func TestGetDecisions_Filters(t *testing.T) {
	svc, store := newTestService(t)

	doc := models.NewMemoryDocument()
	doc.Decisions = []models.Decision{
		{ID: "d1", Date: daysFromNow(-3), Action: "buy", Symbol: "AAPL", Status: models.DecisionPending},
		{ID: "d2", Date: daysFromNow(-2), Action: "sell", Symbol: "AAPL", Status: models.DecisionReviewed},
		{ID: "d3", Date: daysFromNow(-1), Action: "buy", Symbol: "MSFT", Status: models.DecisionPending},
	}
	seedDocument(t, store, doc)

	got, err := svc.GetDecisions("", "AAPL", "", "", 0)
	if err != nil {
		t.Fatalf("GetDecisions failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("symbol filter: len = %d, want 2", len(got))
	}
	// newest first
	if got[0].ID != "d2" || got[1].ID != "d1" {
		t.Errorf("order = %s,%s want d2,d1", got[0].ID, got[1].ID)
	}

	got, err = svc.GetDecisions("", "", "buy", models.DecisionPending, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "d3" {
		t.Errorf("action+status filter = %+v, want d3,d1", got)
	}

	got, err = svc.GetDecisions("", "", "", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "d3" {
		t.Errorf("limit = %+v, want only newest d3", got)
	}
}

func TestSavePortfolioSnapshot_UpsertsSameDay(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.SavePortfolioSnapshot("", 1000, 900, 50, nil); err != nil {
		t.Fatalf("SavePortfolioSnapshot failed: %v", err)
	}
	snap, err := svc.SavePortfolioSnapshot("", 1100, 900, 75, []models.SnapshotPosition{
		{Symbol: "AAPL", Shares: 10, CurrentValue: 1100, GainLossPct: 22.2},
	})
	if err != nil {
		t.Fatalf("SavePortfolioSnapshot failed: %v", err)
	}
	if snap.Date != daysFromNow(0) {
		t.Errorf("Date = %q, want today", snap.Date)
	}

	history, err := svc.GetPortfolioHistory("", 0, 0)
	if err != nil {
		t.Fatalf("GetPortfolioHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1 snapshot per calendar day", len(history))
	}
	// last write wins
	if !approxEqual(history[0].TotalValue, 1100, 0.01) {
		t.Errorf("TotalValue = %.2f, want 1100", history[0].TotalValue)
	}
	if !approxEqual(history[0].Cash, 75, 0.01) {
		t.Errorf("Cash = %.2f, want 75", history[0].Cash)
	}
	if len(history[0].Positions) != 1 {
		t.Errorf("Positions = %+v, want AAPL entry", history[0].Positions)
	}
}

func TestGetPortfolioHistory_WindowAndLimit(t *testing.T) {
	svc, store := newTestService(t)

	// stored out of order to prove sorting
	doc := models.NewMemoryDocument()
	doc.Snapshots = []models.PortfolioSnapshot{
		{Date: daysFromNow(-5), TotalValue: 1200},
		{Date: daysFromNow(-40), TotalValue: 900},
		{Date: daysFromNow(0), TotalValue: 1300},
		{Date: daysFromNow(-10), TotalValue: 1000},
	}
	seedDocument(t, store, doc)

	history, err := svc.GetPortfolioHistory("", 30, 0)
	if err != nil {
		t.Fatalf("GetPortfolioHistory failed: %v", err)
	}
	// the -40d snapshot falls outside the 30 day window
	if len(history) != 3 {
		t.Fatalf("len = %d, want 3", len(history))
	}
	if history[0].Date != daysFromNow(-10) || history[2].Date != daysFromNow(0) {
		t.Errorf("order = %s..%s, want oldest..newest", history[0].Date, history[2].Date)
	}

	history, err = svc.GetPortfolioHistory("", 30, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].Date != daysFromNow(-5) {
		t.Errorf("limit keeps most recent: got %+v", history)
	}

	history, err = svc.GetPortfolioHistory("", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 4 {
		t.Errorf("len = %d, want all 4 without window", len(history))
	}
}

func TestGetPerformanceMetrics(t *testing.T) {
	svc, store := newTestService(t)

	metrics, err := svc.GetPerformanceMetrics("", 30)
	if err != nil {
		t.Fatalf("GetPerformanceMetrics failed: %v", err)
	}
	if metrics.Error == "" {
		t.Error("Error empty, want insufficient data message")
	}
	if metrics.SnapshotsAvailable != 0 {
		t.Errorf("SnapshotsAvailable = %d, want 0", metrics.SnapshotsAvailable)
	}

	doc := models.NewMemoryDocument()
	doc.Snapshots = []models.PortfolioSnapshot{
		{Date: daysFromNow(-10), TotalValue: 1000},
		{Date: daysFromNow(-5), TotalValue: 1250},
		{Date: daysFromNow(0), TotalValue: 1100},
	}
	seedDocument(t, store, doc)

	metrics, err = svc.GetPerformanceMetrics("", 30)
	if err != nil {
		t.Fatalf("GetPerformanceMetrics failed: %v", err)
	}
	if metrics.Error != "" {
		t.Fatalf("Error = %q, want none", metrics.Error)
	}
	if metrics.SnapshotsAvailable != 3 {
		t.Errorf("SnapshotsAvailable = %d, want 3", metrics.SnapshotsAvailable)
	}
	// change = 1100 - 1000 = 100, pct = 100/1000 = 10%
	if !approxEqual(metrics.ValueChange, 100, 0.01) {
		t.Errorf("ValueChange = %.2f, want 100", metrics.ValueChange)
	}
	if !approxEqual(metrics.ValueChangePercent, 10, 0.01) {
		t.Errorf("ValueChangePercent = %.2f, want 10", metrics.ValueChangePercent)
	}
	if !approxEqual(metrics.PeriodHigh, 1250, 0.01) {
		t.Errorf("PeriodHigh = %.2f, want 1250", metrics.PeriodHigh)
	}
	if !approxEqual(metrics.PeriodLow, 1000, 0.01) {
		t.Errorf("PeriodLow = %.2f, want 1000", metrics.PeriodLow)
	}
	if metrics.StartDate != daysFromNow(-10) || metrics.EndDate != daysFromNow(0) {
		t.Errorf("window = %s..%s", metrics.StartDate, metrics.EndDate)
	}
}

func TestLoad_CorruptDocumentIsHardError(t *testing.T) {
	svc, store := newTestService(t)

	path := filepath.Join(store.OwnerDir("alice"), "memory.json")
	if err := os.WriteFile(path, []byte(`{"insights": [`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := svc.GetInsights("", "", "", nil, false, 0)
	if !errors.Is(err, storage.ErrCorruptDocument) {
		t.Errorf("error = %v, want ErrCorruptDocument", err)
	}
}
