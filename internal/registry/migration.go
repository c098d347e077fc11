package registry

import (
	"encoding/json"
	"errors"
	"io/fs"
	"time"

	"github.com/bobmcallan/nestegg/internal/models"
)

const (
	portfolioKey = "portfolio"
	memoryKey    = "memory"
)

// legacyOwnerProbe pulls the owner name and currency out of a pre-owner
// flat portfolio.json, whichever of the two historical layouts it uses.
type legacyOwnerProbe struct {
	Owner        string `json:"owner"`
	BaseCurrency string `json:"base_currency"`
	Portfolio    struct {
		Owner        string `json:"owner"`
		BaseCurrency string `json:"base_currency"`
	} `json:"portfolio"`
}

// migrateLegacyLocked relocates flat data files from a pre-owner install
// into an owner directory. It runs once per registry lifetime and only when
// no owner is registered yet. A flat portfolio that names its owner is
// migrated immediately; one that does not is left in place until the first
// owner is created. Callers must hold r.mu.
func (r *Registry) migrateLegacyLocked() error {
	doc := r.settings
	if doc.IsConfigured() {
		return nil
	}

	base := r.store.BasePath()
	raw, err := r.store.ReadRaw(base, portfolioKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var probe legacyOwnerProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return err
	}

	name := probe.Owner
	currency := probe.BaseCurrency
	if name == "" {
		name = probe.Portfolio.Owner
		currency = probe.Portfolio.BaseCurrency
	}
	if name == "" {
		r.logger.Info().Msg("Flat portfolio names no owner, deferring migration until an owner is created")
		return nil
	}

	slug := Slugify(name)
	ownerDir := r.store.OwnerDir(slug)
	if err := r.store.EnsureDir(ownerDir); err != nil {
		return err
	}
	if err := r.store.MoveJSON(base, ownerDir, portfolioKey); err != nil {
		return err
	}
	if err := r.store.MoveJSON(base, ownerDir, memoryKey); err != nil {
		return err
	}

	if doc.LegacyCurrency != "" {
		currency = doc.LegacyCurrency
	}
	if normalized, err := normalizeCurrency(currency); err == nil {
		currency = normalized
	} else {
		currency = "EUR"
	}

	now := time.Now().UTC().Format(time.RFC3339)
	doc.Owners[slug] = models.OwnerSettings{
		Name:         name,
		BaseCurrency: currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	doc.CurrentOwner = slug
	doc.LegacyCurrency = ""

	if err := r.saveLocked(); err != nil {
		return err
	}

	r.logger.Info().Str("owner", name).Str("slug", slug).Msg("Migrated flat data files to owner directory")
	return nil
}

// adoptDeferredFilesLocked moves flat data files into a newly created
// owner's directory. Used when migration was deferred because the flat
// portfolio named no owner. Callers must hold r.mu.
func (r *Registry) adoptDeferredFilesLocked(slug string) {
	base := r.store.BasePath()
	ownerDir := r.store.OwnerDir(slug)
	if err := r.store.MoveJSON(base, ownerDir, portfolioKey); err != nil {
		r.logger.Warn().Err(err).Msg("Could not adopt flat portfolio file")
	}
	if err := r.store.MoveJSON(base, ownerDir, memoryKey); err != nil {
		r.logger.Warn().Err(err).Msg("Could not adopt flat memory file")
	}
}
