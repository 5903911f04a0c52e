package retrieval

import (
	"context"

	"github.com/kailas-cloud/snapfind/internal/domain/catalog"
	"github.com/kailas-cloud/snapfind/internal/domain/search/criteria"
)

// Repository defines the storage contract for ladder tier queries.
type Repository interface {
	FindByFilter(ctx context.Context, f criteria.Filter, limit int) ([]catalog.Product, error)
	GetByID(ctx context.Context, id string) (catalog.Product, error)
	FindByTitle(ctx context.Context, title string) (catalog.Product, error)
}
