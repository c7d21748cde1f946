// Package enrich computes embeddings for catalog items in the background.
package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/item"
	"github.com/rolodex-hq/rolodex/internal/metrics"
)

type repository interface {
	Get(ctx context.Context, ownerID, id string) (item.Item, error)
	UpdateEmbedding(ctx context.Context, ownerID, id string, vec []float32) error
}

// Config holds the enricher tuning knobs.
type Config struct {
	Workers      int
	QueueSize    int
	EmbedTimeout time.Duration
}

type job struct {
	ownerID string
	id      string
}

// Enricher runs a fixed worker pool that embeds items after writes.
// Jobs for the same item are coalesced: at most one worker processes a
// given item at a time, and an edit arriving mid-flight causes one more
// pass instead of a second concurrent one.
type Enricher struct {
	repo     repository
	embedder domain.Embedder
	cfg      Config
	log      *zap.Logger

	jobs chan job

	mu       sync.Mutex
	seq      map[job]uint64
	inflight map[job]bool
}

// New creates an Enricher. Run must be called before Enqueue has any effect.
func New(repo repository, embedder domain.Embedder, cfg Config, log *zap.Logger) *Enricher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 30 * time.Second
	}
	return &Enricher{
		repo:     repo,
		embedder: embedder,
		cfg:      cfg,
		log:      log,
		jobs:     make(chan job, cfg.QueueSize),
		seq:      map[job]uint64{},
		inflight: map[job]bool{},
	}
}

// Run blocks until ctx is cancelled, processing queued jobs with the
// configured number of workers. Jobs still queued at cancellation are
// dropped; a restart re-enriches on the next write.
func (e *Enricher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.cfg.Workers; i++ {
		g.Go(func() error {
			e.worker(ctx)
			return nil
		})
	}
	return g.Wait() //nolint:wrapcheck // workers only return nil
}

// Enqueue schedules an item for enrichment. Never blocks: when the queue
// is full the job is dropped and counted, the item stays un-enriched
// until its next write.
func (e *Enricher) Enqueue(ownerID, id string) {
	j := job{ownerID: ownerID, id: id}

	e.mu.Lock()
	e.seq[j]++
	if e.inflight[j] {
		// The in-flight worker re-reads the sequence and runs another pass.
		e.mu.Unlock()
		return
	}
	e.inflight[j] = true
	e.mu.Unlock()

	select {
	case e.jobs <- j:
		metrics.EnrichmentQueueDepth.Inc()
	default:
		e.mu.Lock()
		delete(e.inflight, j)
		delete(e.seq, j)
		e.mu.Unlock()
		metrics.EnrichmentJobsTotal.WithLabelValues("dropped").Inc()
		e.log.Warn("enrichment queue full, dropping job",
			zap.String("owner_id", ownerID),
			zap.String("item_id", id))
	}
}

func (e *Enricher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-e.jobs:
			metrics.EnrichmentQueueDepth.Dec()
			e.drain(ctx, j)
		}
	}
}

// drain processes the item repeatedly until no edit arrived during the
// pass, then releases the in-flight slot.
func (e *Enricher) drain(ctx context.Context, j job) {
	for {
		e.mu.Lock()
		seen := e.seq[j]
		e.mu.Unlock()

		e.process(ctx, j)

		e.mu.Lock()
		if e.seq[j] == seen {
			delete(e.seq, j)
			delete(e.inflight, j)
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()
	}
}

func (e *Enricher) process(ctx context.Context, j job) {
	log := e.log.With(zap.String("owner_id", j.ownerID), zap.String("item_id", j.id))

	it, err := e.repo.Get(ctx, j.ownerID, j.id)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			// Deleted before the worker got to it.
			metrics.EnrichmentJobsTotal.WithLabelValues("skipped").Inc()
			return
		}
		metrics.EnrichmentJobsTotal.WithLabelValues("storage_error").Inc()
		log.Error("enrichment read failed", zap.Error(err))
		return
	}

	if it.HasEmbedding() {
		metrics.EnrichmentJobsTotal.WithLabelValues("skipped").Inc()
		return
	}

	text := it.EmbeddingText()
	if text == "" {
		metrics.EnrichmentJobsTotal.WithLabelValues("skipped").Inc()
		log.Debug("item has no embeddable text")
		return
	}

	embedCtx, cancel := context.WithTimeout(ctx, e.cfg.EmbedTimeout)
	result, err := e.embedder.Embed(embedCtx, text)
	cancel()
	if err != nil {
		metrics.EnrichmentJobsTotal.WithLabelValues("provider_error").Inc()
		log.Warn("enrichment embedding failed, item stays searchable by keyword", zap.Error(err))
		return
	}

	if err := e.repo.UpdateEmbedding(ctx, j.ownerID, j.id, result.Embedding); err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			metrics.EnrichmentJobsTotal.WithLabelValues("skipped").Inc()
			return
		}
		metrics.EnrichmentJobsTotal.WithLabelValues("storage_error").Inc()
		log.Error("enrichment write failed", zap.Error(err))
		return
	}

	metrics.EnrichmentJobsTotal.WithLabelValues("ok").Inc()
	log.Info("item enriched",
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens))
}

// QueueDepth reports the number of queued jobs (diagnostics only).
func (e *Enricher) QueueDepth() int {
	return len(e.jobs)
}
