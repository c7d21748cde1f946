package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rolodex-hq/rolodex/internal/db"
	"github.com/rolodex-hq/rolodex/internal/domain"
)

type mockStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	setKeys []string
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.setKeys = append(m.setKeys, key)
	return nil
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

func TestEmbedder_MissThenHit(t *testing.T) {
	store := newMockStore()
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, -0.5, 2.25},
		TotalTokens: 7,
	}}
	e := NewEmbedder(inner, store, "test-model", time.Hour)

	first, err := e.Embed(context.Background(), "red leather sofa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if len(store.setKeys) != 1 {
		t.Fatalf("expected cache write, got %d", len(store.setKeys))
	}

	second, err := e.Embed(context.Background(), "red leather sofa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected cache hit to skip inner embedder, got %d calls", inner.calls)
	}
	if len(second.Embedding) != len(first.Embedding) {
		t.Fatalf("expected %d dims, got %d", len(first.Embedding), len(second.Embedding))
	}
	for i := range first.Embedding {
		if second.Embedding[i] != first.Embedding[i] {
			t.Errorf("dim %d: got %f, want %f", i, second.Embedding[i], first.Embedding[i])
		}
	}
	if second.TotalTokens != 0 {
		t.Errorf("expected zero token usage on cache hit, got %d", second.TotalTokens)
	}
}

func TestEmbedder_DifferentTextsDifferentKeys(t *testing.T) {
	store := newMockStore()
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	e := NewEmbedder(inner, store, "test-model", time.Hour)

	_, _ = e.Embed(context.Background(), "alpha")
	_, _ = e.Embed(context.Background(), "beta")

	if len(store.setKeys) != 2 {
		t.Fatalf("expected 2 cache writes, got %d", len(store.setKeys))
	}
	if store.setKeys[0] == store.setKeys[1] {
		t.Error("expected distinct cache keys for distinct texts")
	}
}

func TestEmbedder_CacheWriteFailureIsNotFatal(t *testing.T) {
	store := newMockStore()
	store.setErr = errors.New("redis down")
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	e := NewEmbedder(inner, store, "test-model", time.Hour)

	result, err := e.Embed(context.Background(), "query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 2 {
		t.Errorf("expected embedding despite cache failure, got %v", result.Embedding)
	}
}

func TestEmbedder_InnerErrorPropagates(t *testing.T) {
	store := newMockStore()
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	e := NewEmbedder(inner, store, "test-model", time.Hour)

	_, err := e.Embed(context.Background(), "query")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(store.setKeys) != 0 {
		t.Error("expected no cache write on provider error")
	}
}

func TestEmbedder_CorruptEntryRefetches(t *testing.T) {
	store := newMockStore()
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{3}}}
	e := NewEmbedder(inner, store, "test-model", time.Hour)

	// Seed a payload that is not a multiple of 4 bytes.
	key := e.cacheKey("query")
	store.data[key] = []byte{0x01, 0x02, 0x03}

	result, err := e.Embed(context.Background(), "query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected refetch on corrupt entry, got %d inner calls", inner.calls)
	}
	if len(result.Embedding) != 1 || result.Embedding[0] != 3 {
		t.Errorf("unexpected embedding %v", result.Embedding)
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, 1e-7}
	got, err := decodeVector(encodeVector(vec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("expected %d dims, got %d", len(vec), len(got))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("dim %d: got %f, want %f", i, got[i], vec[i])
		}
	}
}
