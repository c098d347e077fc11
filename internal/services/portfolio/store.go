// Package portfolio manages per-owner position ledgers
package portfolio

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
	"github.com/bobmcallan/nestegg/internal/registry"
	"github.com/bobmcallan/nestegg/internal/storage"
)

const portfolioKey = "portfolio"

// ErrPositionNotFound indicates the symbol is not held in the portfolio.
var ErrPositionNotFound = errors.New("position not found")

// Service implements lot-tracked portfolio CRUD. Every operation resolves
// the owner through the registry and works on that owner's portfolio.json,
// so documents are always read fresh and owner switches can never serve
// stale data.
type Service struct {
	registry  *registry.Registry
	store     *storage.FileStore
	quotes    interfaces.QuoteSource
	fx        interfaces.FxSource
	snapshots interfaces.SnapshotWriter
	logger    *common.Logger
}

// NewService creates the portfolio service. quotes, fx and snapshots are
// only used by Valuation and may be nil in ledgers-only deployments.
func NewService(
	reg *registry.Registry,
	store *storage.FileStore,
	quotes interfaces.QuoteSource,
	fx interfaces.FxSource,
	snapshots interfaces.SnapshotWriter,
	logger *common.Logger,
) *Service {
	return &Service{
		registry:  reg,
		store:     store,
		quotes:    quotes,
		fx:        fx,
		snapshots: snapshots,
		logger:    logger,
	}
}

// loadForOwner reads an owner's portfolio, upgrading legacy documents. A
// missing file yields an empty portfolio in the owner's base currency.
func (s *Service) loadForOwner(slug string, owner *models.OwnerSettings) (*models.Portfolio, error) {
	dir := s.store.OwnerDir(slug)
	raw, err := s.store.ReadRaw(dir, portfolioKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p := models.NewPortfolio(owner.BaseCurrency)
			p.Owner = owner.Name
			return p, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("portfolio for %s: %w", slug, storage.ErrCorruptDocument)
	}

	p, err := models.DecodePortfolio(raw)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", slug).Msg("Unparseable portfolio document")
		return nil, fmt.Errorf("portfolio for %s: %w", slug, storage.ErrCorruptDocument)
	}
	return p, nil
}

// save stamps last_updated, backfills the owner display name and writes the
// document with version rotation.
func (s *Service) save(slug string, owner *models.OwnerSettings, p *models.Portfolio) error {
	p.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if p.Owner == "" {
		p.Owner = owner.Name
	}
	return s.store.WriteJSON(s.store.OwnerDir(slug), portfolioKey, p, true)
}

// GetPortfolio returns an owner's portfolio. An empty ownerRef targets the
// current owner.
func (s *Service) GetPortfolio(ownerRef string) (*models.Portfolio, error) {
	slug, owner, err := s.registry.ResolveOwner(ownerRef)
	if err != nil {
		return nil, err
	}
	return s.loadForOwner(slug, owner)
}

// GetSummary returns the read-only aggregate view of an owner's portfolio.
func (s *Service) GetSummary(ownerRef string) (*models.PortfolioSummary, error) {
	p, err := s.GetPortfolio(ownerRef)
	if err != nil {
		return nil, err
	}
	return p.Summary(), nil
}

// AddPositionInput carries the parameters for one purchase lot.
type AddPositionInput struct {
	Symbol       string
	Shares       float64
	Price        float64
	Currency     string
	Sector       string
	AssetType    string
	ISIN         string
	Exchange     string
	CompanyName  string
	Notes        string
	PurchaseDate string
}

// AddPosition records a purchase. An existing position (case-insensitive
// symbol match) gains a new lot; average cost is always derived from the
// full lot history, never stored. A new symbol creates a position with a
// single lot. The change is persisted immediately.
func (s *Service) AddPosition(ownerRef string, input AddPositionInput) (*models.Position, error) {
	slug, owner, err := s.registry.ResolveOwner(ownerRef)
	if err != nil {
		return nil, err
	}

	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if input.Shares <= 0 {
		return nil, fmt.Errorf("shares must be positive, got %v", input.Shares)
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("price must not be negative, got %v", input.Price)
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = owner.BaseCurrency
	}

	p, err := s.loadForOwner(slug, owner)
	if err != nil {
		return nil, err
	}

	lotDate := input.PurchaseDate
	if lotDate == "" {
		lotDate = time.Now().UTC().Format(time.DateOnly)
	}
	lot := models.Lot{
		Date:     lotDate,
		Shares:   input.Shares,
		Price:    input.Price,
		Currency: currency,
		Notes:    input.Notes,
	}

	if existing := p.Position(symbol); existing != nil {
		existing.Lots = append(existing.Lots, lot)
		if input.Sector != "" {
			existing.Sector = input.Sector
		}
		if input.CompanyName != "" {
			existing.CompanyName = input.CompanyName
		}
		if err := s.save(slug, owner, p); err != nil {
			return nil, err
		}
		s.logger.Info().Str("symbol", symbol).Float64("shares", input.Shares).
			Float64("total_shares", existing.Shares()).Msg("Added lot to position")
		return existing, nil
	}

	assetType := input.AssetType
	if assetType == "" {
		assetType = "stock"
	}
	position := models.Position{
		Symbol:      symbol,
		Currency:    currency,
		Lots:        []models.Lot{lot},
		Sector:      input.Sector,
		AssetType:   assetType,
		ISIN:        input.ISIN,
		Exchange:    input.Exchange,
		CompanyName: input.CompanyName,
	}
	p.Positions = append(p.Positions, position)
	if err := s.save(slug, owner, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("symbol", symbol).Float64("shares", input.Shares).Msg("Added new position")
	return p.Position(symbol), nil
}

// UpdatePositionInput carries metadata changes. Empty fields are left
// unchanged.
type UpdatePositionInput struct {
	Sector      string
	AssetType   string
	CompanyName string
	ISIN        string
	Exchange    string
	Notes       string
}

// UpdatePosition changes position metadata. Lot history is untouched; use
// ConsolidatePosition for share or cost corrections.
func (s *Service) UpdatePosition(ownerRef, symbol string, input UpdatePositionInput) (*models.Position, error) {
	slug, owner, err := s.registry.ResolveOwner(ownerRef)
	if err != nil {
		return nil, err
	}
	p, err := s.loadForOwner(slug, owner)
	if err != nil {
		return nil, err
	}

	position := p.Position(symbol)
	if position == nil {
		return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, symbol)
	}
	if input.Sector != "" {
		position.Sector = input.Sector
	}
	if input.AssetType != "" {
		position.AssetType = input.AssetType
	}
	if input.CompanyName != "" {
		position.CompanyName = input.CompanyName
	}
	if input.ISIN != "" {
		position.ISIN = input.ISIN
	}
	if input.Exchange != "" {
		position.Exchange = input.Exchange
	}
	if input.Notes != "" {
		position.Notes = input.Notes
	}
	if err := s.save(slug, owner, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("symbol", position.Symbol).Msg("Updated position metadata")
	return position, nil
}

// ConsolidatePosition DESTROYS a position's lot history, replacing every
// lot with one synthetic lot dated at the earliest original purchase. It
// exists as a manual correction escape hatch; pass zero for shares or
// avgCost to keep the current derived value for that field.
func (s *Service) ConsolidatePosition(ownerRef, symbol string, shares, avgCost float64) (*models.Position, error) {
	slug, owner, err := s.registry.ResolveOwner(ownerRef)
	if err != nil {
		return nil, err
	}
	p, err := s.loadForOwner(slug, owner)
	if err != nil {
		return nil, err
	}

	position := p.Position(symbol)
	if position == nil {
		return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, symbol)
	}
	if shares < 0 || avgCost < 0 {
		return nil, fmt.Errorf("shares and avg_cost must not be negative")
	}

	newShares := shares
	if newShares == 0 {
		newShares = position.Shares()
	}
	newAvgCost := avgCost
	if newAvgCost == 0 {
		newAvgCost = position.AvgCost()
	}
	earliest := position.FirstPurchase()
	if earliest == "" {
		earliest = time.Now().UTC().Format(time.DateOnly)
	}

	position.Lots = []models.Lot{{
		Date:     earliest,
		Shares:   newShares,
		Price:    newAvgCost,
		Currency: position.Currency,
		Notes:    "Consolidated from manual adjustment",
	}}
	if err := s.save(slug, owner, p); err != nil {
		return nil, err
	}
	s.logger.Warn().Str("symbol", position.Symbol).Float64("shares", newShares).
		Float64("avg_cost", newAvgCost).Msg("Consolidated position, lot history discarded")
	return position, nil
}

// RemovePosition deletes a position in full. The returned bool reports
// whether a match existed; the document is only rewritten on a match.
func (s *Service) RemovePosition(ownerRef, symbol string) (bool, error) {
	slug, owner, err := s.registry.ResolveOwner(ownerRef)
	if err != nil {
		return false, err
	}
	p, err := s.loadForOwner(slug, owner)
	if err != nil {
		return false, err
	}

	upper := strings.ToUpper(strings.TrimSpace(symbol))
	for i := range p.Positions {
		if strings.ToUpper(p.Positions[i].Symbol) == upper {
			p.Positions = append(p.Positions[:i], p.Positions[i+1:]...)
			if err := s.save(slug, owner, p); err != nil {
				return false, err
			}
			s.logger.Info().Str("symbol", upper).Msg("Removed position")
			return true, nil
		}
	}
	return false, nil
}

// UpdateCash replaces the cash balance outright and persists.
func (s *Service) UpdateCash(ownerRef string, amount float64) (float64, error) {
	slug, owner, err := s.registry.ResolveOwner(ownerRef)
	if err != nil {
		return 0, err
	}
	p, err := s.loadForOwner(slug, owner)
	if err != nil {
		return 0, err
	}

	p.Cash = amount
	if err := s.save(slug, owner, p); err != nil {
		return 0, err
	}
	return p.Cash, nil
}
