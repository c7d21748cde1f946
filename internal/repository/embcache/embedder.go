// Package embcache caches embedding vectors in the key-value store.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/logger"
	"github.com/rolodex-hq/rolodex/internal/metrics"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Embedder wraps another embedder with a store-backed cache.
// Cache failures are logged and never fail the embedding request.
type Embedder struct {
	inner domain.Embedder
	store store
	model string
	ttl   time.Duration
}

// NewEmbedder creates a caching embedder decorator.
func NewEmbedder(inner domain.Embedder, s store, model string, ttl time.Duration) *Embedder {
	return &Embedder{
		inner: inner,
		store: s,
		model: model,
		ttl:   ttl,
	}
}

// Embed returns a cached vector when available, otherwise delegates to the
// inner embedder and stores the result. Cached hits report zero token usage.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := e.cacheKey(text)
	log := logger.FromContext(ctx)

	if data, err := e.store.Get(ctx, key); err == nil {
		if vec, decErr := decodeVector(data); decErr == nil {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
		log.Warn("embedding cache entry corrupt, refetching", zap.String("key", key))
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	if setErr := e.store.SetWithTTL(ctx, key, encodeVector(result.Embedding), e.ttl); setErr != nil {
		log.Warn("embedding cache write failed", zap.Error(setErr))
	}

	return result, nil
}

// cacheKey derives a stable key from the model and text.
func (e *Embedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(e.model + "\x00" + text))
	return fmt.Sprintf("%semb:%s", domain.KeyPrefix, hex.EncodeToString(sum[:]))
}

// encodeVector packs a vector as little-endian float32 bits.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector payload of %d bytes", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
