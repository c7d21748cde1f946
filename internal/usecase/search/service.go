// Package search orchestrates item retrieval over the semantic and
// keyword paths.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/search/query"
	"github.com/rolodex-hq/rolodex/internal/domain/search/result"
	"github.com/rolodex-hq/rolodex/internal/logger"
	"github.com/rolodex-hq/rolodex/internal/metrics"
)

// Config holds the orchestrator tuning knobs.
type Config struct {
	// Threshold is the exclusive similarity cutoff for semantic matches.
	Threshold float64
	// Dimensions is the embedding width every vector must have.
	Dimensions int
	// QueryTimeout bounds the embedding call for a search request.
	QueryTimeout time.Duration
}

// Service routes each query to the semantic or keyword path. The semantic
// path is best effort: any provider failure, dimension mismatch or empty
// ranking degrades to keyword matching instead of failing the request.
type Service struct {
	repo     repository
	embedder domain.Embedder
	cfg      Config
}

// NewService creates a search orchestrator.
func NewService(repo repository, embedder domain.Embedder, cfg Config) *Service {
	return &Service{repo: repo, embedder: embedder, cfg: cfg}
}

// Search executes one query and returns a single page of results tagged
// with the path that produced it.
func (s *Service) Search(ctx context.Context, q *query.Query) (result.Page, error) {
	if q.IsBrowse() || q.ForceKeyword() {
		return s.keyword(ctx, q)
	}

	page, ok, err := s.semantic(ctx, q)
	if err != nil {
		return result.Page{}, err
	}
	if !ok {
		return s.keyword(ctx, q)
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(result.Semantic)).Inc()
	return page, nil
}

// semantic attempts the embedding path. The boolean reports whether the
// page should be used; false means fall back to keyword.
func (s *Service) semantic(ctx context.Context, q *query.Query) (result.Page, bool, error) {
	log := logger.FromContext(ctx)

	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	embedded, err := s.embedder.Embed(embedCtx, q.Text())
	if err != nil {
		// Caller cancellation is not a provider failure.
		if ctx.Err() != nil {
			return result.Page{}, false, fmt.Errorf("embed query: %w", ctx.Err())
		}
		metrics.SearchFallbacksTotal.WithLabelValues("provider_error").Inc()
		log.Warn("semantic path unavailable, falling back to keyword", zap.Error(err))
		return result.Page{}, false, nil
	}

	items, err := s.repo.ListEmbedded(ctx, q.OwnerID(), q.Filters())
	if err != nil {
		return result.Page{}, false, fmt.Errorf("list candidates: %w", err)
	}

	cands := make([]Candidate, len(items))
	for i := range items {
		cands[i] = Candidate{
			ID:        items[i].ID(),
			Vector:    items[i].Embedding(),
			CreatedAt: items[i].CreatedAt(),
		}
	}

	matches, skipped, err := Rank(embedded.Embedding, s.cfg.Dimensions, cands, s.cfg.Threshold, q.Limit())
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			metrics.SearchFallbacksTotal.WithLabelValues("dimension_mismatch").Inc()
			log.Warn("query vector rejected, falling back to keyword", zap.Error(err))
			return result.Page{}, false, nil
		}
		return result.Page{}, false, fmt.Errorf("rank candidates: %w", err)
	}
	if skipped > 0 {
		log.Warn("skipped corrupt candidate vectors",
			zap.Int("skipped", skipped),
			zap.String("owner_id", q.OwnerID()))
	}
	if len(matches) == 0 {
		metrics.SearchFallbacksTotal.WithLabelValues("below_threshold").Inc()
		return result.Page{}, false, nil
	}

	byID := make(map[string]int, len(items))
	for i := range items {
		byID[items[i].ID()] = i
	}

	results := make([]result.Result, 0, len(matches))
	for _, m := range matches {
		if i, ok := byID[m.ID]; ok {
			results = append(results, result.New(items[i], m.Score))
		}
	}

	// Semantic pages are not paginated: the ranking is already capped at
	// the page size and scores shift as embeddings change.
	return result.Page{Results: results, Type: result.Semantic}, true, nil
}

func (s *Service) keyword(ctx context.Context, q *query.Query) (result.Page, error) {
	items, next, err := s.repo.List(ctx, q.OwnerID(), q.Text(), q.Filters(), q.Cursor(), q.Limit())
	if err != nil {
		return result.Page{}, fmt.Errorf("list items: %w", err)
	}

	results := make([]result.Result, len(items))
	for i := range items {
		results[i] = result.New(items[i], 0)
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(result.Keyword)).Inc()
	return result.Page{Results: results, NextCursor: next, Type: result.Keyword}, nil
}
