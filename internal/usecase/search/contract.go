package search

import (
	"context"

	"github.com/rolodex-hq/rolodex/internal/domain/item"
	"github.com/rolodex-hq/rolodex/internal/domain/search/filter"
)

// repository is the slice of the item store the orchestrator needs.
type repository interface {
	List(ctx context.Context, ownerID, text string, f filter.Filters, pageToken string, limit int) ([]item.Item, string, error)
	ListEmbedded(ctx context.Context, ownerID string, f filter.Filters) ([]item.Item, error)
}
