package portfolio

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/models"
)

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// convertToBase converts an amount into the base currency, returning the
// converted amount and the rate used. Identity conversion costs no lookup.
// An unavailable rate falls back to parity so the valuation stays usable.
func (s *Service) convertToBase(ctx context.Context, amount float64, from, to string) (float64, float64) {
	if strings.EqualFold(from, to) {
		return amount, 1.0
	}
	rate, err := s.fx.GetFxRate(ctx, from, to)
	if err != nil || rate <= 0 {
		s.logger.Warn().Err(err).Str("from", from).Str("to", to).Msg("FX rate unavailable, assuming parity")
		return amount, 1.0
	}
	return amount * rate, rate
}

// Valuation prices the portfolio at current market levels in the owner's
// base currency. Positions whose quote fails are carried at cost basis and
// reported in Errors rather than aborting the whole valuation. On success
// a daily snapshot is recorded best-effort.
func (s *Service) Valuation(ctx context.Context, ownerRef string) (*models.PortfolioValuation, error) {
	slug, owner, err := s.registry.ResolveOwner(ownerRef)
	if err != nil {
		return nil, err
	}
	p, err := s.loadForOwner(slug, owner)
	if err != nil {
		return nil, err
	}

	baseCurrency := owner.BaseCurrency
	positions := make([]models.PositionValuation, 0, len(p.Positions))
	currencyExposure := make(map[string]float64)
	var valuationErrors []models.ValuationError
	var totalValueBase, totalCostBasisBase float64

	for i := range p.Positions {
		pos := &p.Positions[i]
		shares := pos.Shares()
		avgCost := pos.AvgCost()
		costBasisOrig := shares * avgCost

		quote, qerr := s.quotes.GetQuote(ctx, pos.Symbol)
		if qerr != nil {
			s.logger.Warn().Err(qerr).Str("symbol", pos.Symbol).Msg("Quote failed, carrying position at cost basis")
			valuationErrors = append(valuationErrors, models.ValuationError{Symbol: pos.Symbol, Error: qerr.Error()})

			currency := pos.Currency
			if currency == "" {
				currency = "USD"
			}
			positions = append(positions, models.PositionValuation{
				Symbol:           pos.Symbol,
				Shares:           shares,
				AvgCost:          round2(avgCost),
				Currency:         currency,
				CurrencySymbol:   common.CurrencySymbol(currency),
				CostBasis:        round2(costBasisOrig),
				CurrentValue:     round2(costBasisOrig),
				CurrentValueBase: round2(costBasisOrig),
				CostBasisBase:    round2(costBasisOrig),
				Sector:           pos.Sector,
				AssetType:        pos.AssetType,
				Error:            qerr.Error(),
			})
			totalValueBase += costBasisOrig
			totalCostBasisBase += costBasisOrig
			continue
		}

		currency := quote.Currency
		if currency == "" {
			currency = pos.Currency
		}
		if currency == "" {
			currency = "USD"
		}

		currentValueOrig := shares * quote.Price
		gainLossOrig := currentValueOrig - costBasisOrig
		var gainLossPct float64
		if costBasisOrig > 0 {
			gainLossPct = gainLossOrig / costBasisOrig * 100
		}

		currentValueBase, fxRate := s.convertToBase(ctx, currentValueOrig, currency, baseCurrency)
		costBasisBase, _ := s.convertToBase(ctx, costBasisOrig, currency, baseCurrency)
		gainLossBase := currentValueBase - costBasisBase
		currencyExposure[currency] += currentValueBase

		companyName := quote.CompanyName
		if companyName == "" {
			companyName = pos.CompanyName
		}
		if companyName == "" {
			companyName = pos.Symbol
		}
		sector := pos.Sector
		if sector == "" {
			sector = quote.Sector
		}

		pv := models.PositionValuation{
			Symbol:           pos.Symbol,
			CompanyName:      companyName,
			Shares:           shares,
			AvgCost:          round2(avgCost),
			CurrentPrice:     quote.Price,
			Currency:         currency,
			CurrencySymbol:   common.CurrencySymbol(currency),
			CostBasis:        round2(costBasisOrig),
			CurrentValue:     round2(currentValueOrig),
			GainLoss:         round2(gainLossOrig),
			CurrentValueBase: round2(currentValueBase),
			CostBasisBase:    round2(costBasisBase),
			GainLossBase:     round2(gainLossBase),
			GainLossPct:      round2(gainLossPct),
			Sector:           sector,
			AssetType:        pos.AssetType,
		}
		if !strings.EqualFold(currency, baseCurrency) {
			pv.FxRate = round6(fxRate)
		}
		positions = append(positions, pv)
		totalValueBase += currentValueBase
		totalCostBasisBase += costBasisBase
	}

	var maxWeight float64
	for i := range positions {
		if totalValueBase > 0 {
			positions[i].Weight = round2(positions[i].CurrentValueBase / totalValueBase * 100)
		}
		if positions[i].Weight > maxWeight {
			maxWeight = positions[i].Weight
		}
	}

	totalGainLoss := totalValueBase - totalCostBasisBase
	var totalGainLossPct float64
	if totalCostBasisBase > 0 {
		totalGainLossPct = totalGainLoss / totalCostBasisBase * 100
	}

	sectorAllocation := make(map[string]float64)
	assetAllocation := make(map[string]float64)
	for _, pv := range positions {
		sector := pv.Sector
		if sector == "" {
			sector = "Other"
		}
		sectorAllocation[sector] = round2(sectorAllocation[sector] + pv.CurrentValueBase)

		assetType := pv.AssetType
		if assetType == "" {
			assetType = "stock"
		}
		assetAllocation[assetType] = round2(assetAllocation[assetType] + pv.CurrentValueBase)
	}

	currencyAllocation := make(map[string]models.CurrencyExposure, len(currencyExposure))
	for currency, value := range currencyExposure {
		var pct float64
		if totalValueBase > 0 {
			pct = value / totalValueBase * 100
		}
		currencyAllocation[currency] = models.CurrencyExposure{
			Value:      round2(value),
			Percentage: round2(pct),
		}
	}

	concentration := models.ConcentrationLow
	switch {
	case maxWeight > 40:
		concentration = models.ConcentrationHigh
	case maxWeight > 25:
		concentration = models.ConcentrationModerate
	}

	valuation := &models.PortfolioValuation{
		ValuationDate:      time.Now().UTC().Format(time.RFC3339),
		Owner:              owner.Name,
		BaseCurrency:       baseCurrency,
		BaseCurrencySymbol: common.CurrencySymbol(baseCurrency),
		TotalValue:         round2(totalValueBase),
		TotalCostBasis:     round2(totalCostBasisBase),
		TotalGainLoss:      round2(totalGainLoss),
		TotalGainLossPct:   round2(totalGainLossPct),
		Cash:               p.Cash,
		TotalWithCash:      round2(totalValueBase + p.Cash),
		Positions:          positions,
		PositionCount:      len(positions),
		SectorAllocation:   sectorAllocation,
		AssetAllocation:    assetAllocation,
		CurrencyAllocation: currencyAllocation,
		ConcentrationRisk:  concentration,
		MaxPositionWeight:  round2(maxWeight),
		Errors:             valuationErrors,
	}

	if s.snapshots != nil {
		snapPositions := make([]models.SnapshotPosition, 0, len(positions))
		for _, pv := range positions {
			snapPositions = append(snapPositions, models.SnapshotPosition{
				Symbol:       pv.Symbol,
				Shares:       pv.Shares,
				CurrentValue: pv.CurrentValueBase,
				GainLossPct:  pv.GainLossPct,
			})
		}
		if _, serr := s.snapshots.SavePortfolioSnapshot(slug, totalValueBase, totalCostBasisBase, p.Cash, snapPositions); serr != nil {
			s.logger.Warn().Err(serr).Str("owner", slug).Msg("Failed to record portfolio snapshot")
		}
	}

	return valuation, nil
}
