// Package savedsearch persists saved search configurations.
package savedsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rolodex-hq/rolodex/internal/db"
	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/savedsearch"
)

type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repository stores saved searches under rolodex:search:<owner>:<id>.
type Repository struct {
	store store
}

// NewRepository creates a saved search repository.
func NewRepository(s store) *Repository {
	return &Repository{store: s}
}

type dto struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Query     string    `json:"query,omitempty"`
	Category  string    `json:"category,omitempty"`
	Vendor    string    `json:"vendor,omitempty"`
	ColourHex string    `json:"colour_hex,omitempty"`
	PriceMax  *float64  `json:"price_max,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func searchKey(ownerID, id string) string {
	return fmt.Sprintf("%ssearch:%s:%s", domain.KeyPrefix, ownerID, id)
}

// Put stores a saved search.
func (r *Repository) Put(ctx context.Context, s *savedsearch.SavedSearch) error {
	cfg := s.Config()
	data, err := json.Marshal(dto{
		ID:        s.ID(),
		OwnerID:   s.OwnerID(),
		Name:      s.Name(),
		Query:     cfg.Query,
		Category:  cfg.Category,
		Vendor:    cfg.Vendor,
		ColourHex: cfg.ColourHex,
		PriceMax:  cfg.PriceMax,
		CreatedAt: s.CreatedAt(),
	})
	if err != nil {
		return fmt.Errorf("marshal saved search %s: %w", s.ID(), err)
	}
	if err := r.store.JSONSet(ctx, searchKey(s.OwnerID(), s.ID()), "$", data); err != nil {
		return fmt.Errorf("store saved search %s: %w", s.ID(), err)
	}
	return nil
}

// Get retrieves one saved search scoped to its owner.
func (r *Repository) Get(ctx context.Context, ownerID, id string) (savedsearch.SavedSearch, error) {
	data, err := r.store.JSONGet(ctx, searchKey(ownerID, id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return savedsearch.SavedSearch{}, domain.ErrSearchNotFound
		}
		return savedsearch.SavedSearch{}, fmt.Errorf("get saved search %s: %w", id, err)
	}
	return unmarshalDoc(data)
}

// Delete removes a saved search. Deleting an absent one is an error.
func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	key := searchKey(ownerID, id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check saved search %s: %w", id, err)
	}
	if !exists {
		return domain.ErrSearchNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete saved search %s: %w", id, err)
	}
	return nil
}

// List returns all of the owner's saved searches, newest first.
func (r *Repository) List(ctx context.Context, ownerID string) ([]savedsearch.SavedSearch, error) {
	pattern := fmt.Sprintf("%ssearch:%s:*", domain.KeyPrefix, ownerID)
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan saved searches for %s: %w", ownerID, err)
	}

	searches := make([]savedsearch.SavedSearch, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.JSONGet(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get saved search at %s: %w", key, err)
		}
		s, err := unmarshalDoc(data)
		if err != nil {
			return nil, err
		}
		searches = append(searches, s)
	}

	sort.SliceStable(searches, func(a, b int) bool {
		ta, tb := searches[a].CreatedAt(), searches[b].CreatedAt()
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return searches[a].ID() > searches[b].ID()
	})
	return searches, nil
}

func unmarshalDoc(data []byte) (savedsearch.SavedSearch, error) {
	var d dto
	if err := json.Unmarshal(data, &d); err != nil {
		return savedsearch.SavedSearch{}, fmt.Errorf("unmarshal saved search document: %w", err)
	}
	return savedsearch.Reconstruct(d.ID, d.OwnerID, d.Name, savedsearch.Config{
		Query:     d.Query,
		Category:  d.Category,
		Vendor:    d.Vendor,
		ColourHex: d.ColourHex,
		PriceMax:  d.PriceMax,
	}, d.CreatedAt), nil
}
