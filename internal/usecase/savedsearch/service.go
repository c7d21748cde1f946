// Package savedsearch implements CRUD for stored search configurations.
package savedsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rolodex-hq/rolodex/internal/domain/savedsearch"
	"github.com/rolodex-hq/rolodex/internal/logger"
)

type repository interface {
	Put(ctx context.Context, s *savedsearch.SavedSearch) error
	Get(ctx context.Context, ownerID, id string) (savedsearch.SavedSearch, error)
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string) ([]savedsearch.SavedSearch, error)
}

// Service owns saved search CRUD. Saved searches are plain stored filter
// configurations; executing one goes through the regular search path.
type Service struct {
	repo repository
	now  func() time.Time
}

// NewService creates a saved search service.
func NewService(repo repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create validates and stores a new saved search.
func (s *Service) Create(
	ctx context.Context, ownerID, name string, cfg savedsearch.Config,
) (savedsearch.SavedSearch, error) {
	search, err := savedsearch.New(uuid.NewString(), ownerID, name, cfg, s.now())
	if err != nil {
		return savedsearch.SavedSearch{}, err
	}
	if err := s.repo.Put(ctx, &search); err != nil {
		return savedsearch.SavedSearch{}, fmt.Errorf("create saved search: %w", err)
	}

	logger.FromContext(ctx).Info("saved search created",
		zap.String("search_id", search.ID()),
		zap.String("owner_id", ownerID))
	return search, nil
}

// Get retrieves one saved search scoped to its owner.
func (s *Service) Get(ctx context.Context, ownerID, id string) (savedsearch.SavedSearch, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns all of the owner's saved searches, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]savedsearch.SavedSearch, error) {
	return s.repo.List(ctx, ownerID)
}

// Delete removes a saved search permanently.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("saved search deleted",
		zap.String("search_id", id),
		zap.String("owner_id", ownerID))
	return nil
}
