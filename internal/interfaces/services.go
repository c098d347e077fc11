package interfaces

import "github.com/bobmcallan/nestegg/internal/models"

// SnapshotWriter records daily portfolio value snapshots. Implemented by
// the memory service; valuation writes through it so the two services stay
// decoupled.
type SnapshotWriter interface {
	SavePortfolioSnapshot(ownerRef string, totalValue, totalCostBasis, cash float64, positions []models.SnapshotPosition) (*models.PortfolioSnapshot, error)
}
