// Package savedsearch defines stored search filter configurations.
package savedsearch

import (
	"fmt"
	"time"

	"github.com/rolodex-hq/rolodex/internal/domain"
)

// Config is the persisted filter configuration of a saved search.
// It mirrors the query parameters of the items listing endpoint.
type Config struct {
	Query     string
	Category  string
	Vendor    string
	ColourHex string
	PriceMax  *float64
}

// SavedSearch is a named, owner-scoped search configuration.
type SavedSearch struct {
	id        string
	ownerID   string
	name      string
	config    Config
	createdAt time.Time
}

// New validates and creates a SavedSearch.
func New(id, ownerID, name string, cfg Config, createdAt time.Time) (SavedSearch, error) {
	if id == "" {
		return SavedSearch{}, fmt.Errorf("saved search id is required: %w", domain.ErrInvalidQuery)
	}
	if ownerID == "" {
		return SavedSearch{}, fmt.Errorf("owner id is required: %w", domain.ErrInvalidQuery)
	}
	if name == "" {
		return SavedSearch{}, fmt.Errorf("saved search name is required: %w", domain.ErrInvalidQuery)
	}
	if len(name) > 255 {
		return SavedSearch{}, fmt.Errorf("saved search name too long (max 255): %w", domain.ErrInvalidQuery)
	}
	return SavedSearch{
		id:        id,
		ownerID:   ownerID,
		name:      name,
		config:    cfg,
		createdAt: createdAt.UTC(),
	}, nil
}

// Reconstruct creates a SavedSearch without validation (storage hydration).
func Reconstruct(id, ownerID, name string, cfg Config, createdAt time.Time) SavedSearch {
	return SavedSearch{id: id, ownerID: ownerID, name: name, config: cfg, createdAt: createdAt}
}

// ID returns the saved search identifier.
func (s *SavedSearch) ID() string { return s.id }

// OwnerID returns the owning principal.
func (s *SavedSearch) OwnerID() string { return s.ownerID }

// Name returns the user-chosen name.
func (s *SavedSearch) Name() string { return s.name }

// Config returns the stored filter configuration.
func (s *SavedSearch) Config() Config { return s.config }

// CreatedAt returns the creation timestamp.
func (s *SavedSearch) CreatedAt() time.Time { return s.createdAt }
