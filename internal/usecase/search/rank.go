package search

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rolodex-hq/rolodex/internal/domain"
)

// Candidate is one enriched item offered to the ranker.
type Candidate struct {
	ID        string
	Vector    []float32
	CreatedAt time.Time
}

// Match is a ranked candidate with its similarity score.
type Match struct {
	ID        string
	Score     float64
	CreatedAt time.Time
}

// Rank scores candidates by cosine similarity against the query vector and
// returns those strictly above the threshold, best first, capped at
// maxResults. Ties are broken by recency. Candidates whose vector does not
// match dims, or whose norm is zero, are skipped rather than failing the
// whole request; the second return value counts them.
func Rank(query []float32, dims int, cands []Candidate, threshold float64, maxResults int) ([]Match, int, error) {
	if len(query) == 0 {
		return nil, 0, fmt.Errorf("query vector is empty: %w", domain.ErrInvalidQuery)
	}
	if len(query) != dims {
		return nil, 0, fmt.Errorf("query vector has %d dimensions, want %d: %w",
			len(query), dims, domain.ErrDimensionMismatch)
	}

	queryNorm := norm(query)
	if queryNorm == 0 {
		return nil, 0, fmt.Errorf("query vector has zero norm: %w", domain.ErrInvalidQuery)
	}

	matches := make([]Match, 0, len(cands))
	skipped := 0

	for _, c := range cands {
		if len(c.Vector) != dims {
			skipped++
			continue
		}
		candNorm := norm(c.Vector)
		if candNorm == 0 {
			skipped++
			continue
		}

		// The threshold filters on the raw similarity; rounding is for
		// the returned score only.
		raw := dot(query, c.Vector) / (queryNorm * candNorm)
		if raw <= threshold {
			continue
		}
		matches = append(matches, Match{ID: c.ID, Score: roundScore(raw), CreatedAt: c.CreatedAt})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].CreatedAt.After(matches[b].CreatedAt)
	})

	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, skipped, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// roundScore rounds to 4 decimal places so equal-enough scores compare
// equal and the recency tie-break applies.
func roundScore(s float64) float64 {
	return math.Round(s*10000) / 10000
}
