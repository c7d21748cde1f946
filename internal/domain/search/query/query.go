// Package query defines the validated search query value object.
package query

import (
	"fmt"
	"strings"

	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/search/filter"
)

// Pagination limits.
const (
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Limits overrides the page-size clamps. Zero fields fall back to
// DefaultLimit and MaxLimit.
type Limits struct {
	Default int
	Max     int
}

// Query is a validated search query. Not persisted.
type Query struct {
	text         string
	ownerID      string
	filters      filter.Filters
	limit        int
	cursor       string
	forceKeyword bool
}

// New validates and normalizes search parameters.
// An unset limit takes lim.Default and is clamped to lim.Max.
// Whitespace-only text is treated as empty (browse). ownerID is
// mandatory: every query is tenant-scoped.
func New(
	text, ownerID string,
	filters filter.Filters,
	limit int,
	cursor string,
	forceKeyword bool,
	lim Limits,
) (Query, error) {
	if ownerID == "" {
		return Query{}, fmt.Errorf("owner id is required: %w", domain.ErrInvalidQuery)
	}
	text = strings.TrimSpace(text)
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidQuery)
	}
	defLimit, maxLimit := lim.Default, lim.Max
	if defLimit <= 0 {
		defLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if limit <= 0 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Query{
		text:         text,
		ownerID:      ownerID,
		filters:      filters,
		limit:        limit,
		cursor:       cursor,
		forceKeyword: forceKeyword,
	}, nil
}

// Text returns the trimmed query text ("" = browse).
func (q *Query) Text() string { return q.text }

// IsBrowse reports whether the query has no text to match.
func (q *Query) IsBrowse() bool { return q.text == "" }

// OwnerID returns the tenancy scope.
func (q *Query) OwnerID() string { return q.ownerID }

// Filters returns the structured constraints.
func (q *Query) Filters() filter.Filters { return q.filters }

// Limit returns the page size.
func (q *Query) Limit() int { return q.limit }

// Cursor returns the opaque pagination cursor ("" = first page).
func (q *Query) Cursor() string { return q.cursor }

// ForceKeyword reports whether the semantic path is disabled for this query.
func (q *Query) ForceKeyword() bool { return q.forceKeyword }
