// Package registry manages the owner roster stored in settings.json
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/models"
	"github.com/bobmcallan/nestegg/internal/storage"
)

const settingsKey = "settings"

var (
	ErrOwnerExists          = errors.New("owner already exists")
	ErrOwnerNotFound        = errors.New("owner not found")
	ErrInvalidCurrency      = errors.New("invalid currency code")
	ErrInvalidOwnerName     = errors.New("owner name required")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrLastOwner            = errors.New("cannot delete the only owner")
	ErrNoOwnerConfigured    = errors.New("no owner configured")
)

// Slugify derives the directory-safe identifier for an owner name.
// "Jane Doe" and "jane-doe" both map to "jane_doe".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// Registry owns settings.json: the owner roster, the current owner pointer
// and the one-time migration of pre-owner flat data files.
type Registry struct {
	store  *storage.FileStore
	logger *common.Logger

	mu               sync.Mutex
	settings         *models.SettingsDocument
	migrationChecked bool
}

// New creates a registry backed by the given store. Settings are loaded
// lazily on first access.
func New(store *storage.FileStore, logger *common.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// loadLocked returns the cached settings document, reading and migrating on
// first access. Callers must hold r.mu.
func (r *Registry) loadLocked() (*models.SettingsDocument, error) {
	if r.settings == nil {
		raw, err := r.store.ReadRaw(r.store.BasePath(), settingsKey)
		switch {
		case err == nil:
			doc, derr := models.DecodeSettings(raw)
			if derr != nil {
				r.logger.Error().Err(derr).Msg("Unparseable settings.json")
				return nil, fmt.Errorf("parse settings.json: %w", storage.ErrCorruptDocument)
			}
			r.settings = doc
		case errors.Is(err, fs.ErrNotExist):
			r.settings = models.NewSettingsDocument()
		default:
			return nil, err
		}
	}

	if !r.migrationChecked {
		r.migrationChecked = true
		if err := r.migrateLegacyLocked(); err != nil {
			r.logger.Warn().Err(err).Msg("Legacy data migration failed, leaving files in place")
		}
	}
	return r.settings, nil
}

// saveLocked persists the settings document, stamping created_at once and
// updated_at on every write. Callers must hold r.mu.
func (r *Registry) saveLocked() error {
	now := time.Now().UTC().Format(time.RFC3339)
	if r.settings.CreatedAt == "" {
		r.settings.CreatedAt = now
	}
	r.settings.UpdatedAt = now
	return r.store.WriteJSON(r.store.BasePath(), settingsKey, r.settings, true)
}

// resolveLocked maps an owner name or slug to its registered slug. Matching
// tries the slugified input first, then each owner's slugified display name,
// then a case-insensitive name comparison.
func (r *Registry) resolveLocked(nameOrSlug string) (string, error) {
	doc := r.settings
	slug := Slugify(nameOrSlug)
	if _, ok := doc.Owners[slug]; ok {
		return slug, nil
	}
	for s, owner := range doc.Owners {
		if Slugify(owner.Name) == slug || strings.EqualFold(owner.Name, nameOrSlug) {
			return s, nil
		}
	}

	available := make([]string, 0, len(doc.Owners))
	for _, owner := range doc.Owners {
		available = append(available, owner.Name)
	}
	sort.Strings(available)
	return "", fmt.Errorf("%w: %q (available: %s)", ErrOwnerNotFound, nameOrSlug, strings.Join(available, ", "))
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return code, nil
}

// CreateOwner registers a new owner and creates their data directory. An
// empty baseCurrency falls back to the carried legacy currency, then USD.
// The first owner created also adopts any deferred pre-owner data files.
func (r *Registry) CreateOwner(name, baseCurrency string, setCurrent bool) (string, *models.OwnerSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadLocked()
	if err != nil {
		return "", nil, err
	}

	name = strings.TrimSpace(name)
	slug := Slugify(name)
	if name == "" || slug == "" {
		return "", nil, ErrInvalidOwnerName
	}
	if _, exists := doc.Owners[slug]; exists {
		return "", nil, fmt.Errorf("%w: %q", ErrOwnerExists, name)
	}

	if baseCurrency == "" {
		baseCurrency = doc.LegacyCurrency
		if baseCurrency == "" {
			baseCurrency = "USD"
		}
	}
	currency, err := normalizeCurrency(baseCurrency)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	owner := models.OwnerSettings{
		Name:         name,
		BaseCurrency: currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	doc.Owners[slug] = owner

	if setCurrent || doc.CurrentOwner == "" {
		doc.CurrentOwner = slug
	}

	ownerDir := r.store.OwnerDir(slug)
	if err := r.store.EnsureDir(ownerDir); err != nil {
		return "", nil, err
	}

	// The first owner inherits flat data files left behind by a pre-owner
	// install whose portfolio never named its owner.
	if len(doc.Owners) == 1 {
		r.adoptDeferredFilesLocked(slug)
		doc.LegacyCurrency = ""
	}

	if err := r.saveLocked(); err != nil {
		return "", nil, err
	}

	r.logger.Info().Str("owner", name).Str("slug", slug).Msg("Created owner")
	return slug, &owner, nil
}

// SwitchOwner makes the named owner current and persists the change.
func (r *Registry) SwitchOwner(nameOrSlug string) (string, *models.OwnerSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadLocked()
	if err != nil {
		return "", nil, err
	}
	slug, err := r.resolveLocked(nameOrSlug)
	if err != nil {
		return "", nil, err
	}

	doc.CurrentOwner = slug
	if err := r.saveLocked(); err != nil {
		return "", nil, err
	}

	owner := doc.Owners[slug]
	r.logger.Info().Str("slug", slug).Msg("Switched owner")
	return slug, &owner, nil
}

// ResolveOwner maps a name or slug to its slug without switching.
// An empty reference resolves to the current owner.
func (r *Registry) ResolveOwner(nameOrSlug string) (string, *models.OwnerSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadLocked()
	if err != nil {
		return "", nil, err
	}

	var slug string
	if nameOrSlug == "" {
		slug = doc.CurrentOwner
		if slug == "" {
			return "", nil, ErrNoOwnerConfigured
		}
		if _, ok := doc.Owners[slug]; !ok {
			return "", nil, fmt.Errorf("%w: current owner %q is not registered", ErrOwnerNotFound, slug)
		}
	} else {
		slug, err = r.resolveLocked(nameOrSlug)
		if err != nil {
			return "", nil, err
		}
	}

	owner := doc.Owners[slug]
	return slug, &owner, nil
}

// CurrentOwner returns the active owner. ErrNoOwnerConfigured is returned
// when no owner has been created yet.
func (r *Registry) CurrentOwner() (string, *models.OwnerSettings, error) {
	return r.ResolveOwner("")
}

// ListOwners returns all owners sorted by slug.
func (r *Registry) ListOwners() ([]models.OwnerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadLocked()
	if err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(doc.Owners))
	for slug := range doc.Owners {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	owners := make([]models.OwnerInfo, 0, len(slugs))
	for _, slug := range slugs {
		owner := doc.Owners[slug]
		owners = append(owners, models.OwnerInfo{
			Slug:         slug,
			Name:         owner.Name,
			BaseCurrency: owner.BaseCurrency,
			IsCurrent:    slug == doc.CurrentOwner,
			CreatedAt:    owner.CreatedAt,
		})
	}
	return owners, nil
}

// DeleteOwner removes an owner and their data directory. The caller must
// pass confirm and at least one owner must remain. When the deleted owner
// was current, the first remaining owner by slug becomes current.
func (r *Registry) DeleteOwner(nameOrSlug string, confirm bool) (string, error) {
	if !confirm {
		return "", fmt.Errorf("%w: pass confirm to delete owner data", ErrConfirmationRequired)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadLocked()
	if err != nil {
		return "", err
	}
	slug, err := r.resolveLocked(nameOrSlug)
	if err != nil {
		return "", err
	}
	if len(doc.Owners) <= 1 {
		return "", ErrLastOwner
	}

	if err := r.store.RemoveDir(r.store.OwnerDir(slug)); err != nil {
		return "", err
	}
	delete(doc.Owners, slug)

	if doc.CurrentOwner == slug {
		remaining := make([]string, 0, len(doc.Owners))
		for s := range doc.Owners {
			remaining = append(remaining, s)
		}
		sort.Strings(remaining)
		doc.CurrentOwner = remaining[0]
	}

	if err := r.saveLocked(); err != nil {
		return "", err
	}

	r.logger.Info().Str("slug", slug).Msg("Deleted owner")
	return slug, nil
}

// UpdateOwnerSettings changes an owner's display name or base currency.
// The slug never changes. An empty ownerRef targets the current owner.
func (r *Registry) UpdateOwnerSettings(ownerRef, newName, baseCurrency string) (string, *models.OwnerSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadLocked()
	if err != nil {
		return "", nil, err
	}

	var slug string
	if ownerRef == "" {
		slug = doc.CurrentOwner
		if slug == "" {
			return "", nil, ErrNoOwnerConfigured
		}
	} else {
		slug, err = r.resolveLocked(ownerRef)
		if err != nil {
			return "", nil, err
		}
	}

	owner, ok := doc.Owners[slug]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrOwnerNotFound, slug)
	}

	if newName != "" {
		owner.Name = strings.TrimSpace(newName)
	}
	if baseCurrency != "" {
		currency, err := normalizeCurrency(baseCurrency)
		if err != nil {
			return "", nil, err
		}
		owner.BaseCurrency = currency
	}
	owner.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	doc.Owners[slug] = owner

	if err := r.saveLocked(); err != nil {
		return "", nil, err
	}
	return slug, &owner, nil
}

// IsConfigured reports whether at least one owner exists.
func (r *Registry) IsConfigured() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadLocked()
	if err != nil {
		return false, err
	}
	return doc.IsConfigured(), nil
}

// Settings returns a snapshot of the settings document.
func (r *Registry) Settings() (*models.SettingsDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadLocked()
	if err != nil {
		return nil, err
	}
	snapshot := *doc
	snapshot.Owners = make(map[string]models.OwnerSettings, len(doc.Owners))
	for slug, owner := range doc.Owners {
		snapshot.Owners[slug] = owner
	}
	return &snapshot, nil
}

// OwnerDir returns the data directory for an owner slug.
func (r *Registry) OwnerDir(slug string) string {
	return r.store.OwnerDir(slug)
}

// Reload drops the cached settings so the next access rereads the file.
func (r *Registry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = nil
	r.migrationChecked = false
}
