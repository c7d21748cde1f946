package item

import (
	"context"

	"github.com/rolodex-hq/rolodex/internal/domain/item"
)

// repository is the slice of the item store the CRUD service needs.
type repository interface {
	Put(ctx context.Context, it *item.Item) error
	Get(ctx context.Context, ownerID, id string) (item.Item, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// enqueuer schedules background enrichment. Enqueue never blocks.
type enqueuer interface {
	Enqueue(ownerID, id string)
}
