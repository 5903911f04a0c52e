package catalog

import (
	"context"

	domcat "github.com/kailas-cloud/snapfind/internal/domain/catalog"
)

// Repository persists catalog products and their search index.
type Repository interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, p domcat.Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (domcat.Product, error)
	FindByTitle(ctx context.Context, title string) (domcat.Product, error)
}
