// Package item implements catalog item CRUD with background enrichment.
package item

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rolodex-hq/rolodex/internal/domain/item"
	"github.com/rolodex-hq/rolodex/internal/logger"
)

// Service owns the item write path. Every write that changes the text an
// embedding is derived from schedules re-enrichment; reads never touch
// the embedding provider.
type Service struct {
	repo     repository
	enqueuer enqueuer
	now      func() time.Time
}

// NewService creates an item service.
func NewService(repo repository, enq enqueuer) *Service {
	return &Service{repo: repo, enqueuer: enq, now: time.Now}
}

// Create validates and stores a new item, then schedules enrichment.
// The item is immediately visible and keyword-searchable; the embedding
// arrives asynchronously.
func (s *Service) Create(ctx context.Context, ownerID string, f item.Fields) (item.Item, error) {
	it, err := item.New(uuid.NewString(), ownerID, f, s.now())
	if err != nil {
		return item.Item{}, err
	}
	if err := s.repo.Put(ctx, &it); err != nil {
		return item.Item{}, fmt.Errorf("create item: %w", err)
	}

	s.enqueuer.Enqueue(it.OwnerID(), it.ID())
	logger.FromContext(ctx).Info("item created",
		zap.String("item_id", it.ID()),
		zap.String("owner_id", it.OwnerID()))
	return it, nil
}

// Get retrieves one item scoped to its owner.
func (s *Service) Get(ctx context.Context, ownerID, id string) (item.Item, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// Update applies a partial update. Edits that change the embedding text
// clear the stored vector before the write so a stale embedding is never
// ranked, then schedule re-enrichment.
func (s *Service) Update(ctx context.Context, ownerID, id string, p *item.Patch) (item.Item, error) {
	current, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return item.Item{}, err
	}
	if p.IsEmpty() {
		return current, nil
	}

	patched := p.Apply(current)
	if _, err := item.New(patched.ID(), patched.OwnerID(), patched.Fields(), patched.CreatedAt()); err != nil {
		return item.Item{}, err
	}

	updated := patched.Touched(s.now())
	stale := p.TouchesEmbeddingText()
	if stale {
		updated = updated.WithoutEmbedding()
	}
	if err := s.repo.Put(ctx, &updated); err != nil {
		return item.Item{}, fmt.Errorf("update item %s: %w", id, err)
	}

	// The whole-document write may have overwritten an embedding that
	// landed between the read and the Put. Re-enqueue whenever the
	// stored document is un-enriched, not only on textual edits.
	if stale || !updated.HasEmbedding() {
		s.enqueuer.Enqueue(ownerID, id)
	}
	logger.FromContext(ctx).Info("item updated",
		zap.String("item_id", id),
		zap.String("owner_id", ownerID),
		zap.Bool("embedding_invalidated", stale))
	return updated, nil
}

// Delete removes an item permanently.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("item deleted",
		zap.String("item_id", id),
		zap.String("owner_id", ownerID))
	return nil
}
