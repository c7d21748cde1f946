package enrich

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/item"
)

type mockRepo struct {
	mu          sync.Mutex
	items       map[string]item.Item
	getErr      error
	updateErr   error
	updateCalls int
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: map[string]item.Item{}}
}

func (m *mockRepo) put(it item.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[it.OwnerID()+"/"+it.ID()] = it
}

func (m *mockRepo) Get(_ context.Context, ownerID, id string) (item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return item.Item{}, m.getErr
	}
	it, ok := m.items[ownerID+"/"+id]
	if !ok {
		return item.Item{}, domain.ErrItemNotFound
	}
	return it, nil
}

func (m *mockRepo) UpdateEmbedding(_ context.Context, ownerID, id string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updateCalls++
	it, ok := m.items[ownerID+"/"+id]
	if !ok {
		return domain.ErrItemNotFound
	}
	m.items[ownerID+"/"+id] = it.WithEmbedding(vec)
	return nil
}

func (m *mockRepo) updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCalls
}

func (m *mockRepo) embedding(ownerID, id string) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.items[ownerID+"/"+id]
	return it.Embedding()
}

type mockEmbedder struct {
	mu     sync.Mutex
	vector []float32
	err    error
	calls  int
	gate   chan struct{} // when set, Embed blocks until closed
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector}, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testItem(t *testing.T, id string) item.Item {
	t.Helper()
	it, err := item.New(id, "owner-1", item.Fields{
		ImgURL: "https://img.example/" + id + ".jpg",
		Title:  "Walnut Desk",
	}, time.Now())
	if err != nil {
		t.Fatalf("build item: %v", err)
	}
	return it
}

func startEnricher(t *testing.T, e *Enricher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = e.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEnricher_EmbedsQueuedItem(t *testing.T) {
	repo := newMockRepo()
	repo.put(testItem(t, "item-1"))
	embedder := &mockEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	e := New(repo, embedder, Config{Workers: 1, QueueSize: 8}, zap.NewNop())
	startEnricher(t, e)

	e.Enqueue("owner-1", "item-1")

	waitFor(t, "embedding written", func() bool {
		return len(repo.embedding("owner-1", "item-1")) == 3
	})
	if got := repo.updates(); got != 1 {
		t.Errorf("expected 1 embedding write, got %d", got)
	}
}

func TestEnricher_SkipsAlreadyEnriched(t *testing.T) {
	repo := newMockRepo()
	enriched := testItem(t, "item-1")
	repo.put(enriched.WithEmbedding([]float32{1, 2, 3}))
	embedder := &mockEmbedder{vector: []float32{9, 9, 9}}
	e := New(repo, embedder, Config{Workers: 1, QueueSize: 8}, zap.NewNop())
	startEnricher(t, e)

	e.Enqueue("owner-1", "item-1")

	// Let the worker drain the job.
	waitFor(t, "job drained", func() bool { return e.QueueDepth() == 0 })
	time.Sleep(20 * time.Millisecond)
	if embedder.callCount() != 0 {
		t.Errorf("expected no embedder calls for enriched item, got %d", embedder.callCount())
	}
}

func TestEnricher_CoalescesConcurrentEnqueues(t *testing.T) {
	repo := newMockRepo()
	repo.put(testItem(t, "item-1"))
	gate := make(chan struct{})
	embedder := &mockEmbedder{vector: []float32{1, 2, 3}, gate: gate}
	e := New(repo, embedder, Config{Workers: 2, QueueSize: 8}, zap.NewNop())
	startEnricher(t, e)

	e.Enqueue("owner-1", "item-1")
	waitFor(t, "first pass started", func() bool { return embedder.callCount() == 1 })

	// Edits landing mid-flight must not spawn a second concurrent worker.
	e.Enqueue("owner-1", "item-1")
	e.Enqueue("owner-1", "item-1")
	close(gate)

	waitFor(t, "embedding written", func() bool {
		return len(repo.embedding("owner-1", "item-1")) == 3
	})
	waitFor(t, "coalesced passes settled", func() bool { return repo.updates() == 1 })
	time.Sleep(20 * time.Millisecond)
	if got := embedder.callCount(); got != 1 {
		t.Errorf("expected 1 embedding call after coalescing, got %d", got)
	}
}

func TestEnricher_ProviderFailureLeavesItemKeywordSearchable(t *testing.T) {
	repo := newMockRepo()
	repo.put(testItem(t, "item-1"))
	embedder := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	e := New(repo, embedder, Config{Workers: 1, QueueSize: 8}, zap.NewNop())
	startEnricher(t, e)

	e.Enqueue("owner-1", "item-1")

	waitFor(t, "embed attempted", func() bool { return embedder.callCount() == 1 })
	time.Sleep(20 * time.Millisecond)
	if got := repo.embedding("owner-1", "item-1"); got != nil {
		t.Errorf("expected no embedding after provider failure, got %v", got)
	}
}

func TestEnricher_DeletedItemIsSkipped(t *testing.T) {
	repo := newMockRepo()
	embedder := &mockEmbedder{vector: []float32{1}}
	e := New(repo, embedder, Config{Workers: 1, QueueSize: 8}, zap.NewNop())
	startEnricher(t, e)

	e.Enqueue("owner-1", "gone")

	waitFor(t, "job drained", func() bool { return e.QueueDepth() == 0 })
	time.Sleep(20 * time.Millisecond)
	if embedder.callCount() != 0 {
		t.Errorf("expected no embedder call for missing item, got %d", embedder.callCount())
	}
}

func TestEnricher_DropsWhenQueueFull(t *testing.T) {
	repo := newMockRepo()
	for _, id := range []string{"a", "b", "c"} {
		repo.put(testItem(t, id))
	}
	gate := make(chan struct{})
	embedder := &mockEmbedder{vector: []float32{1}, gate: gate}
	e := New(repo, embedder, Config{Workers: 1, QueueSize: 1}, zap.NewNop())
	startEnricher(t, e)

	e.Enqueue("owner-1", "a")
	waitFor(t, "worker busy", func() bool { return embedder.callCount() == 1 })
	e.Enqueue("owner-1", "b") // fills the queue
	e.Enqueue("owner-1", "c") // dropped, must not block

	close(gate)
	waitFor(t, "queued work finished", func() bool { return repo.updates() >= 2 })
}
