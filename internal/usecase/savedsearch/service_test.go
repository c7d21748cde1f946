package savedsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/savedsearch"
)

type mockRepo struct {
	searches map[string]savedsearch.SavedSearch
	putErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{searches: map[string]savedsearch.SavedSearch{}}
}

func (m *mockRepo) Put(_ context.Context, s *savedsearch.SavedSearch) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.searches[s.OwnerID()+"/"+s.ID()] = *s
	return nil
}

func (m *mockRepo) Get(_ context.Context, ownerID, id string) (savedsearch.SavedSearch, error) {
	s, ok := m.searches[ownerID+"/"+id]
	if !ok {
		return savedsearch.SavedSearch{}, domain.ErrSearchNotFound
	}
	return s, nil
}

func (m *mockRepo) Delete(_ context.Context, ownerID, id string) error {
	key := ownerID + "/" + id
	if _, ok := m.searches[key]; !ok {
		return domain.ErrSearchNotFound
	}
	delete(m.searches, key)
	return nil
}

func (m *mockRepo) List(_ context.Context, ownerID string) ([]savedsearch.SavedSearch, error) {
	var out []savedsearch.SavedSearch
	for _, s := range m.searches {
		if s.OwnerID() == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestCreate_GeneratesIDAndStores(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	s, err := svc.Create(context.Background(), "owner-1", "Green sofas", savedsearch.Config{
		Query:    "green sofa",
		Category: "sofas",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID() == "" {
		t.Fatal("expected generated id")
	}
	if _, ok := repo.searches["owner-1/"+s.ID()]; !ok {
		t.Error("expected saved search persisted")
	}
}

func TestCreate_EmptyNameRejected(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Create(context.Background(), "owner-1", "", savedsearch.Config{})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestGetAndDelete_OwnerScoped(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	s, err := svc.Create(context.Background(), "owner-1", "Mine", savedsearch.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(context.Background(), "owner-2", s.ID()); !errors.Is(err, domain.ErrSearchNotFound) {
		t.Fatalf("expected ErrSearchNotFound for foreign owner, got %v", err)
	}
	if err := svc.Delete(context.Background(), "owner-2", s.ID()); !errors.Is(err, domain.ErrSearchNotFound) {
		t.Fatalf("expected ErrSearchNotFound for foreign owner delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), "owner-1", s.ID()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestList(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	for _, name := range []string{"A", "B"} {
		if _, err := svc.Create(context.Background(), "owner-1", name, savedsearch.Config{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Create(context.Background(), "owner-2", "C", savedsearch.Config{}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.List(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 saved searches, got %d", len(got))
	}
}
