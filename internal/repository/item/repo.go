// Package item persists catalog items as JSON documents.
package item

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rolodex-hq/rolodex/internal/db"
	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/item"
	"github.com/rolodex-hq/rolodex/internal/domain/search/filter"
)

type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repository stores items under rolodex:item:<owner>:<id>.
type Repository struct {
	store      store
	dimensions int
}

// NewRepository creates an item repository. dimensions is the expected
// embedding width; writes of any other width are rejected.
func NewRepository(s store, dimensions int) *Repository {
	return &Repository{store: s, dimensions: dimensions}
}

func itemKey(ownerID, id string) string {
	return fmt.Sprintf("%sitem:%s:%s", domain.KeyPrefix, ownerID, id)
}

func ownerPattern(ownerID string) string {
	return fmt.Sprintf("%sitem:%s:*", domain.KeyPrefix, ownerID)
}

// Put stores the full item document.
func (r *Repository) Put(ctx context.Context, it *item.Item) error {
	data, err := json.Marshal(toDTO(it))
	if err != nil {
		return fmt.Errorf("marshal item %s: %w", it.ID(), err)
	}
	if err := r.store.JSONSet(ctx, itemKey(it.OwnerID(), it.ID()), "$", data); err != nil {
		return fmt.Errorf("store item %s: %w", it.ID(), err)
	}
	return nil
}

// Get retrieves one item scoped to its owner.
func (r *Repository) Get(ctx context.Context, ownerID, id string) (item.Item, error) {
	data, err := r.store.JSONGet(ctx, itemKey(ownerID, id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return item.Item{}, domain.ErrItemNotFound
		}
		return item.Item{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return unmarshalDoc(data)
}

// Delete removes an item. Deleting an absent item is an error.
func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	key := itemKey(ownerID, id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check item %s: %w", id, err)
	}
	if !exists {
		return domain.ErrItemNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

// List returns one page of the owner's items in (created_at desc, id desc)
// order, optionally narrowed by a text query and attribute filters. The
// second return value is the token for the next page, empty on the last one.
func (r *Repository) List(
	ctx context.Context, ownerID, text string, f filter.Filters, pageToken string, limit int,
) ([]item.Item, string, error) {
	var after cursor
	hasCursor := pageToken != ""
	if hasCursor {
		var err error
		if after, err = decodeCursor(pageToken); err != nil {
			return nil, "", err
		}
	}

	items, err := r.loadAll(ctx, ownerID)
	if err != nil {
		return nil, "", err
	}

	matched := items[:0]
	for i := range items {
		it := &items[i]
		if text != "" && !it.MatchesText(text) {
			continue
		}
		if !f.IsEmpty() && !f.Match(it) {
			continue
		}
		matched = append(matched, *it)
	}

	sortNewestFirst(matched)

	if hasCursor {
		start := sort.Search(len(matched), func(i int) bool {
			return after.before(matched[i].CreatedAt(), matched[i].ID())
		})
		matched = matched[start:]
	}

	if len(matched) <= limit {
		return matched, "", nil
	}

	page := matched[:limit]
	last := &page[len(page)-1]
	next := encodeCursor(cursor{createdAt: last.CreatedAt(), id: last.ID()})
	return page, next, nil
}

// ListEmbedded returns every enriched item of the owner matching the
// filters. Used as the candidate set for similarity ranking.
func (r *Repository) ListEmbedded(
	ctx context.Context, ownerID string, f filter.Filters,
) ([]item.Item, error) {
	items, err := r.loadAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	embedded := items[:0]
	for i := range items {
		it := &items[i]
		if !it.HasEmbedding() {
			continue
		}
		if !f.IsEmpty() && !f.Match(it) {
			continue
		}
		embedded = append(embedded, *it)
	}
	return embedded, nil
}

// UpdateEmbedding writes only the embedding path of the document, leaving
// every other field untouched. Concurrent attribute edits are not lost.
func (r *Repository) UpdateEmbedding(ctx context.Context, ownerID, id string, vec []float32) error {
	if len(vec) != r.dimensions {
		return fmt.Errorf("embedding has %d dimensions, want %d: %w",
			len(vec), r.dimensions, domain.ErrDimensionMismatch)
	}

	key := itemKey(ownerID, id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check item %s: %w", id, err)
	}
	if !exists {
		return domain.ErrItemNotFound
	}

	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal embedding for %s: %w", id, err)
	}
	if err := r.store.JSONSet(ctx, key, "$.embedding", data); err != nil {
		return fmt.Errorf("update embedding for %s: %w", id, err)
	}
	return nil
}

// loadAll hydrates every item of the owner. Documents that vanish between
// the scan and the read are skipped.
func (r *Repository) loadAll(ctx context.Context, ownerID string) ([]item.Item, error) {
	keys, err := r.store.Scan(ctx, ownerPattern(ownerID))
	if err != nil {
		return nil, fmt.Errorf("scan items for %s: %w", ownerID, err)
	}

	items := make([]item.Item, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.JSONGet(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get item at %s: %w", key, err)
		}
		it, err := unmarshalDoc(data)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func sortNewestFirst(items []item.Item) {
	sort.SliceStable(items, func(a, b int) bool {
		ta, tb := items[a].CreatedAt(), items[b].CreatedAt()
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return items[a].ID() > items[b].ID()
	})
}
