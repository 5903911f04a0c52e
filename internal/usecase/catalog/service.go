// Package catalog manages the product records the search pipeline
// retrieves against.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/snapfind/internal/domain"
	domcat "github.com/kailas-cloud/snapfind/internal/domain/catalog"
)

// Service coordinates catalog product operations.
type Service struct {
	repo Repository
}

// New creates a Service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureIndex creates the product search index if it does not exist.
func (s *Service) EnsureIndex(ctx context.Context) error {
	return s.repo.EnsureIndex(ctx)
}

// Upsert validates and stores a product.
func (s *Service) Upsert(ctx context.Context, p domcat.Product) error {
	if strings.TrimSpace(p.ID()) == "" {
		return fmt.Errorf("%w: product id is required", domain.ErrInvalidProduct)
	}
	if strings.TrimSpace(p.Title()) == "" {
		return fmt.Errorf("%w: product title is required", domain.ErrInvalidProduct)
	}
	return s.repo.Upsert(ctx, p)
}

// Delete removes a product by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, id string) (domcat.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByTitle returns the product whose title matches exactly.
func (s *Service) GetByTitle(ctx context.Context, title string) (domcat.Product, error) {
	return s.repo.FindByTitle(ctx, title)
}
