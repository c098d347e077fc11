package portfolio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/registry"
	"github.com/bobmcallan/nestegg/internal/storage"
)

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func newTestService(t *testing.T) (*Service, *registry.Registry, *storage.FileStore) {
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
	return NewService(reg, store, nil, nil, nil, logger), reg, store
}

func TestAddPosition_NewThenAppendLot(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "AAPL", Shares: 10, Price: 150, Currency: "USD"}); err != nil {
		t.Fatalf("AddPosition failed: %v", err)
	}
	pos, err := svc.AddPosition("", AddPositionInput{Symbol: "aapl", Shares: 5, Price: 180, Currency: "USD"})
	if err != nil {
		t.Fatalf("AddPosition failed: %v", err)
	}

	// shares = 10 + 5 = 15
	if !approxEqual(pos.Shares(), 15, 0.0001) {
		t.Errorf("Shares() = %.2f, want 15", pos.Shares())
	}
	// avg cost = (10*150 + 5*180) / 15 = 2400 / 15 = 160
	if !approxEqual(pos.AvgCost(), 160.00, 0.01) {
		t.Errorf("AvgCost() = %.2f, want 160.00", pos.AvgCost())
	}
	if len(pos.Lots) != 2 {
		t.Errorf("len(Lots) = %d, want 2", len(pos.Lots))
	}

	// persisted across a fresh read
	reloaded, err := svc.GetPortfolio("")
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	got := reloaded.Position("AAPL")
	if got == nil || len(got.Lots) != 2 {
		t.Fatalf("persisted position = %+v, want 2 lots", got)
	}
}

func TestAddPosition_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "", Shares: 1, Price: 1}); err == nil {
		t.Error("empty symbol accepted")
	}
	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "AAPL", Shares: 0, Price: 1}); err == nil {
		t.Error("zero shares accepted")
	}
	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "AAPL", Shares: -5, Price: 1}); err == nil {
		t.Error("negative shares accepted")
	}
	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "AAPL", Shares: 1, Price: -1}); err == nil {
		t.Error("negative price accepted")
	}
}

func TestAddPosition_DefaultsToOwnerCurrency(t *testing.T) {
	svc, _, _ := newTestService(t)

	pos, err := svc.AddPosition("", AddPositionInput{Symbol: "VTI", Shares: 3, Price: 220})
	if err != nil {
		t.Fatalf("AddPosition failed: %v", err)
	}
	if pos.Currency != "USD" {
		t.Errorf("Currency = %q, want owner base USD", pos.Currency)
	}
	if pos.Lots[0].Date == "" {
		t.Error("lot date not defaulted")
	}
	if pos.AssetType != "stock" {
		t.Errorf("AssetType = %q, want stock", pos.AssetType)
	}
}

func TestConsolidatePosition(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "MSFT", Shares: 10, Price: 300, PurchaseDate: "2023-02-01"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "MSFT", Shares: 10, Price: 350, PurchaseDate: "2024-06-01"}); err != nil {
		t.Fatal(err)
	}

	pos, err := svc.ConsolidatePosition("", "MSFT", 18, 320)
	if err != nil {
		t.Fatalf("ConsolidatePosition failed: %v", err)
	}
	if len(pos.Lots) != 1 {
		t.Fatalf("len(Lots) = %d, want 1", len(pos.Lots))
	}
	lot := pos.Lots[0]
	// consolidated lot keeps the earliest purchase date
	if lot.Date != "2023-02-01" {
		t.Errorf("lot.Date = %q, want 2023-02-01", lot.Date)
	}
	if !approxEqual(lot.Shares, 18, 0.0001) || !approxEqual(lot.Price, 320, 0.01) {
		t.Errorf("lot = %+v, want 18 @ 320", lot)
	}

	// zero keeps the current derived value
	pos, err = svc.ConsolidatePosition("", "MSFT", 0, 310)
	if err != nil {
		t.Fatalf("ConsolidatePosition failed: %v", err)
	}
	if !approxEqual(pos.Shares(), 18, 0.0001) {
		t.Errorf("Shares() = %.2f, want 18 retained", pos.Shares())
	}
	if !approxEqual(pos.AvgCost(), 310, 0.01) {
		t.Errorf("AvgCost() = %.2f, want 310", pos.AvgCost())
	}

	if _, err := svc.ConsolidatePosition("", "NOPE", 1, 1); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("error = %v, want ErrPositionNotFound", err)
	}
}

func TestUpdatePosition_MetadataOnly(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "NVDA", Shares: 2, Price: 800, PurchaseDate: "2024-01-05", Sector: "Technology"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "NVDA", Shares: 1, Price: 900, PurchaseDate: "2024-03-05"}); err != nil {
		t.Fatal(err)
	}

	pos, err := svc.UpdatePosition("", "NVDA", UpdatePositionInput{
		CompanyName: "NVIDIA Corp",
		AssetType:   "stock",
		Notes:       "hold through earnings",
	})
	if err != nil {
		t.Fatalf("UpdatePosition failed: %v", err)
	}
	if pos.Notes != "hold through earnings" {
		t.Errorf("Notes = %q", pos.Notes)
	}
	if pos.CompanyName != "NVIDIA Corp" {
		t.Errorf("CompanyName = %q", pos.CompanyName)
	}
	// empty fields stay untouched
	if pos.Sector != "Technology" {
		t.Errorf("Sector = %q, want Technology preserved", pos.Sector)
	}
	if len(pos.Lots) != 2 {
		t.Errorf("len(Lots) = %d, want 2 untouched lots", len(pos.Lots))
	}

	if _, err := svc.UpdatePosition("", "NOPE", UpdatePositionInput{Notes: "x"}); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("error = %v, want ErrPositionNotFound", err)
	}
}

func TestRemovePosition(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "AAPL", Shares: 1, Price: 100}); err != nil {
		t.Fatal(err)
	}

	found, err := svc.RemovePosition("", "aapl")
	if err != nil {
		t.Fatalf("RemovePosition failed: %v", err)
	}
	if !found {
		t.Error("found = false, want true")
	}

	p, err := svc.GetPortfolio("")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Positions) != 0 {
		t.Errorf("len(Positions) = %d, want 0", len(p.Positions))
	}

	found, err = svc.RemovePosition("", "AAPL")
	if err != nil {
		t.Fatalf("RemovePosition failed: %v", err)
	}
	if found {
		t.Error("found = true for missing position")
	}
}

func TestUpdateCash_IsSetter(t *testing.T) {
	svc, _, _ := newTestService(t)

	cash, err := svc.UpdateCash("", 1500.75)
	if err != nil {
		t.Fatalf("UpdateCash failed: %v", err)
	}
	if !approxEqual(cash, 1500.75, 0.01) {
		t.Errorf("cash = %.2f, want 1500.75", cash)
	}

	// a second call replaces, never adds
	cash, err = svc.UpdateCash("", 200)
	if err != nil {
		t.Fatalf("UpdateCash failed: %v", err)
	}
	if !approxEqual(cash, 200, 0.01) {
		t.Errorf("cash = %.2f, want 200", cash)
	}
}

func TestGetPortfolio_MissingFileYieldsEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)

	p, err := svc.GetPortfolio("")
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if len(p.Positions) != 0 {
		t.Errorf("len(Positions) = %d, want 0", len(p.Positions))
	}
	if p.BaseCurrency != "USD" {
		t.Errorf("BaseCurrency = %q, want owner base USD", p.BaseCurrency)
	}
	if p.Owner != "Alice" {
		t.Errorf("Owner = %q, want Alice", p.Owner)
	}
}

func TestGetPortfolio_CorruptFileIsHardError(t *testing.T) {
	svc, _, store := newTestService(t)

	path := filepath.Join(store.OwnerDir("alice"), "portfolio.json")
	if err := os.WriteFile(path, []byte(`{"positions": [`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := svc.GetPortfolio("")
	if !errors.Is(err, storage.ErrCorruptDocument) {
		t.Errorf("error = %v, want ErrCorruptDocument", err)
	}
	// corrupt file untouched
	raw, rerr := os.ReadFile(path)
	if rerr != nil || string(raw) != `{"positions": [` {
		t.Errorf("corrupt file modified: %q %v", raw, rerr)
	}
}

func TestGetPortfolio_UnknownOwner(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetPortfolio("nobody")
	if !errors.Is(err, registry.ErrOwnerNotFound) {
		t.Errorf("error = %v, want ErrOwnerNotFound", err)
	}
}

func TestGetSummary(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.AddPosition("", AddPositionInput{Symbol: "AAPL", Shares: 10, Price: 150, Sector: "Technology"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateCash("", 500); err != nil {
		t.Fatal(err)
	}

	summary, err := svc.GetSummary("")
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary.TotalPositions != 1 {
		t.Errorf("TotalPositions = %d, want 1", summary.TotalPositions)
	}
	// cost basis = 10 * 150 = 1500
	if !approxEqual(summary.TotalCostBasis, 1500, 0.01) {
		t.Errorf("TotalCostBasis = %.2f, want 1500", summary.TotalCostBasis)
	}
	if !approxEqual(summary.Cash, 500, 0.01) {
		t.Errorf("Cash = %.2f, want 500", summary.Cash)
	}
	if summary.Positions[0].Sector != "Technology" {
		t.Errorf("Sector = %q", summary.Positions[0].Sector)
	}
}

func TestOwnerIsolation_NoStaleReadsAcrossSwitch(t *testing.T) {
	svc, reg, _ := newTestService(t)
	if _, _, err := reg.CreateOwner("Bob", "EUR", false); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AddPosition("alice", AddPositionInput{Symbol: "AAPL", Shares: 1, Price: 100}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddPosition("bob", AddPositionInput{Symbol: "SAP", Shares: 2, Price: 120}); err != nil {
		t.Fatal(err)
	}

	// switch to bob, write to alice by explicit ref, switch back
	if _, _, err := reg.SwitchOwner("bob"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddPosition("alice", AddPositionInput{Symbol: "AAPL", Shares: 1, Price: 110}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := reg.SwitchOwner("alice"); err != nil {
		t.Fatal(err)
	}

	p, err := svc.GetPortfolio("")
	if err != nil {
		t.Fatal(err)
	}
	pos := p.Position("AAPL")
	if pos == nil {
		t.Fatal("AAPL missing for alice")
	}
	// both lots visible, no stale cache: shares = 1 + 1 = 2
	if !approxEqual(pos.Shares(), 2, 0.0001) {
		t.Errorf("Shares() = %.2f, want 2", pos.Shares())
	}
	if p.Position("SAP") != nil {
		t.Error("bob's position leaked into alice's portfolio")
	}
}
