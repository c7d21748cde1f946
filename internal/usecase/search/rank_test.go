package search

import (
	"errors"
	"testing"
	"time"

	"github.com/rolodex-hq/rolodex/internal/domain"
)

func TestRank_OrdersByScoreDescending(t *testing.T) {
	query := []float32{1, 0, 0}
	cands := []Candidate{
		{ID: "far", Vector: []float32{0, 1, 0}},
		{ID: "exact", Vector: []float32{2, 0, 0}},
		{ID: "close", Vector: []float32{1, 0.2, 0}},
	}

	matches, skipped, err := Rank(query, 3, cands, 0.5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 0 {
		t.Errorf("expected no skips, got %d", skipped)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches above threshold, got %d", len(matches))
	}
	if matches[0].ID != "exact" || matches[1].ID != "close" {
		t.Errorf("expected [exact close], got [%s %s]", matches[0].ID, matches[1].ID)
	}
	if matches[0].Score != 1 {
		t.Errorf("expected identical direction to score 1, got %f", matches[0].Score)
	}
}

func TestRank_ThresholdIsExclusive(t *testing.T) {
	query := []float32{1, 0}
	// Identical direction scores exactly 1.
	cands := []Candidate{{ID: "exact", Vector: []float32{2, 0}}}

	matches, _, err := Rank(query, 2, cands, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected similarity equal to threshold to be excluded, got %d matches", len(matches))
	}

	matches, _, err = Rank(query, 2, cands, 0.9999, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected similarity above threshold to be included, got %d matches", len(matches))
	}
}

func TestRank_ThresholdComparesRawSimilarity(t *testing.T) {
	query := []float32{1, 0}
	// Raw similarity is about 0.70004: above 0.7, though rounding to
	// 4 decimal places would hide that.
	cands := []Candidate{{ID: "edge", Vector: []float32{0.70004, 0.71410}}}

	matches, _, err := Rank(query, 2, cands, 0.7, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected raw similarity above the threshold to match, got %d matches", len(matches))
	}
	if matches[0].Score != 0.7 {
		t.Errorf("expected returned score rounded to 0.7, got %v", matches[0].Score)
	}
}

func TestRank_TiesBrokenByRecency(t *testing.T) {
	now := time.Now()
	query := []float32{1, 0}
	cands := []Candidate{
		{ID: "old", Vector: []float32{3, 0}, CreatedAt: now.Add(-time.Hour)},
		{ID: "new", Vector: []float32{2, 0}, CreatedAt: now},
	}

	matches, _, err := Rank(query, 2, cands, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "new" {
		t.Errorf("expected newer item first on equal score, got %s", matches[0].ID)
	}
}

func TestRank_SkipsCorruptCandidates(t *testing.T) {
	query := []float32{1, 0, 0}
	cands := []Candidate{
		{ID: "short", Vector: []float32{1, 0}},
		{ID: "zero", Vector: []float32{0, 0, 0}},
		{ID: "ok", Vector: []float32{1, 0, 0}},
	}

	matches, skipped, err := Rank(query, 3, cands, 0.5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 2 {
		t.Errorf("expected 2 skipped candidates, got %d", skipped)
	}
	if len(matches) != 1 || matches[0].ID != "ok" {
		t.Fatalf("expected only the valid candidate, got %v", matches)
	}
}

func TestRank_TruncatesToMaxResults(t *testing.T) {
	query := []float32{1, 0}
	cands := make([]Candidate, 5)
	for i := range cands {
		cands[i] = Candidate{ID: string(rune('a' + i)), Vector: []float32{1, float32(i) * 0.01}}
	}

	matches, _, err := Rank(query, 2, cands, 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("expected 3 matches after truncation, got %d", len(matches))
	}
}

func TestRank_InvalidQueryVector(t *testing.T) {
	if _, _, err := Rank(nil, 3, nil, 0.7, 10); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for nil vector, got %v", err)
	}
	if _, _, err := Rank([]float32{0, 0, 0}, 3, nil, 0.7, 10); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for zero vector, got %v", err)
	}
	if _, _, err := Rank([]float32{1, 0}, 3, nil, 0.7, 10); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for short vector, got %v", err)
	}
}

func TestRank_ScoreRounding(t *testing.T) {
	query := []float32{1, 0}
	cands := []Candidate{{ID: "diag", Vector: []float32{1, 1}}}

	matches, _, err := Rank(query, 2, cands, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches[0].Score != 0.7071 {
		t.Errorf("expected score rounded to 0.7071, got %v", matches[0].Score)
	}
}
