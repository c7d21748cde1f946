// Package result defines search result value objects.
package result

import "github.com/rolodex-hq/rolodex/internal/domain/item"

// Type tags which retrieval path produced a page.
type Type string

const (
	// Semantic indicates embedding-similarity ranking.
	Semantic Type = "semantic"
	// Keyword indicates substring matching (and plain browse).
	Keyword Type = "keyword"
)

// Result is a single search hit. Score is meaningful only on the
// semantic path; the keyword path leaves it at zero.
type Result struct {
	item  item.Item
	score float64
}

// New creates a search result.
func New(it item.Item, score float64) Result {
	return Result{item: it, score: score}
}

// Item returns the matched item.
func (r *Result) Item() item.Item { return r.item }

// Score returns the similarity score in (0,1], rounded to 4 decimal places.
func (r *Result) Score() float64 { return r.score }

// Page is one page of search results with a uniform shape across paths.
type Page struct {
	Results    []Result
	NextCursor string
	Type       Type
}
