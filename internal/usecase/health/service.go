// Package health aggregates dependency health checks.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rolodex-hq/rolodex/internal/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type embedderChecker interface {
	HealthCheck(ctx context.Context) error
}

// Status is the aggregated health report.
type Status struct {
	Healthy  bool
	Storage  string
	Embedder string
}

// Service checks the storage and embedding provider dependencies.
// The embedder check is advisory: search degrades to keyword matching
// when the provider is down, so only storage gates overall health.
type Service struct {
	db       pinger
	embedder embedderChecker
	timeout  time.Duration
}

// NewService creates a health service.
func NewService(db pinger, embedder embedderChecker, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{db: db, embedder: embedder, timeout: timeout}
}

// Check probes all dependencies and returns the aggregate status.
func (s *Service) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := logger.FromContext(ctx)
	status := Status{Healthy: true, Storage: "ok", Embedder: "ok"}

	if err := s.db.Ping(ctx); err != nil {
		log.Error("storage health check failed", zap.Error(err))
		status.Healthy = false
		status.Storage = "unavailable"
	}

	if s.embedder != nil {
		if err := s.embedder.HealthCheck(ctx); err != nil {
			log.Warn("embedding provider health check failed", zap.Error(err))
			status.Embedder = "degraded"
		}
	}

	return status
}
