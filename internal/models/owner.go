package models

import "encoding/json"

// SettingsSchemaVersion is the current settings.json document version.
const SettingsSchemaVersion = "2.0"

// DefaultDateFormat is the display format recorded in settings.json.
const DefaultDateFormat = "YYYY-MM-DD"

// OwnerSettings holds the per-owner profile stored in settings.json.
type OwnerSettings struct {
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// OwnerInfo is the listing view of an owner, annotated with its slug and
// whether it is the active owner.
type OwnerInfo struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
	IsCurrent    bool   `json:"is_current"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// SettingsDocument is the on-disk shape of settings.json. Owners are keyed
// by slug and CurrentOwner, when set, names one of those keys.
type SettingsDocument struct {
	Version      string                   `json:"version"`
	CurrentOwner string                   `json:"current_owner,omitempty"`
	DateFormat   string                   `json:"date_format"`
	Owners       map[string]OwnerSettings `json:"owners"`
	CreatedAt    string                   `json:"created_at,omitempty"`
	UpdatedAt    string                   `json:"updated_at,omitempty"`

	// LegacyCurrency carries the base_currency of a pre-owner settings file
	// until the first owner is created. Never serialized.
	LegacyCurrency string `json:"-"`
}

// NewSettingsDocument returns an empty current-version settings document.
func NewSettingsDocument() *SettingsDocument {
	return &SettingsDocument{
		Version:    SettingsSchemaVersion,
		DateFormat: DefaultDateFormat,
		Owners:     make(map[string]OwnerSettings),
	}
}

// IsConfigured reports whether at least one owner exists.
func (s *SettingsDocument) IsConfigured() bool {
	return len(s.Owners) > 0
}

type rawSettings struct {
	Version      string                   `json:"version"`
	CurrentOwner string                   `json:"current_owner"`
	DateFormat   string                   `json:"date_format"`
	Owners       map[string]OwnerSettings `json:"owners"`
	CreatedAt    string                   `json:"created_at"`
	UpdatedAt    string                   `json:"updated_at"`

	// Pre-owner settings files carried a single top-level currency.
	BaseCurrency string `json:"base_currency"`
}

// DecodeSettings parses a settings.json payload, upgrading the pre-owner
// single-currency shape to the current multi-owner document. A legacy file
// contributes its base_currency as the default for the first created owner.
func DecodeSettings(data []byte) (*SettingsDocument, error) {
	var raw rawSettings
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if raw.Owners == nil && raw.BaseCurrency != "" {
		doc := NewSettingsDocument()
		doc.LegacyCurrency = raw.BaseCurrency
		if raw.DateFormat != "" {
			doc.DateFormat = raw.DateFormat
		}
		return doc, nil
	}

	doc := &SettingsDocument{
		Version:      raw.Version,
		CurrentOwner: raw.CurrentOwner,
		DateFormat:   raw.DateFormat,
		Owners:       raw.Owners,
		CreatedAt:    raw.CreatedAt,
		UpdatedAt:    raw.UpdatedAt,
	}
	if doc.Version == "" {
		doc.Version = SettingsSchemaVersion
	}
	if doc.DateFormat == "" {
		doc.DateFormat = DefaultDateFormat
	}
	if doc.Owners == nil {
		doc.Owners = make(map[string]OwnerSettings)
	}
	return doc, nil
}
