// Package catalog translates between the product domain and the FT
// index in the document store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/snapfind/internal/db"
	"github.com/kailas-cloud/snapfind/internal/domain"
	domcat "github.com/kailas-cloud/snapfind/internal/domain/catalog"
	"github.com/kailas-cloud/snapfind/internal/domain/search/criteria"
)

// store is the consumer interface for catalog operations.
type store interface {
	SearchProducts(ctx context.Context, q *db.ProductQuery) (*db.SearchResult, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo provides product lookup and tier queries over the store.
type Repo struct {
	store      store
	keyPrefix  string
	maxDescLen int
}

// New creates a catalog repository. maxDescLen bounds the description
// text returned from retrieval (0 disables truncation).
func New(s store, keyPrefix string, maxDescLen int) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, maxDescLen: maxDescLen}
}

func (r *Repo) indexName() string { return r.keyPrefix + "products:idx" }
func (r *Repo) key(id string) string {
	return fmt.Sprintf("%sproducts:%s", r.keyPrefix, id)
}

// EnsureIndex creates the product FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.keyPrefix + "products:"},
		Fields: []db.IndexField{
			{Name: fieldTitle, Type: db.IndexFieldText},
			{Name: fieldDescription, Type: db.IndexFieldText},
			{Name: fieldCategory, Type: db.IndexFieldTag},
			{Name: fieldType, Type: db.IndexFieldTag},
			{Name: fieldPrice, Type: db.IndexFieldNumeric},
			{Name: fieldWidth, Type: db.IndexFieldNumeric},
			{Name: fieldHeight, Type: db.IndexFieldNumeric},
			{Name: fieldDepth, Type: db.IndexFieldNumeric},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create product index: %w", err)
	}
	return nil
}

// Upsert writes a product record.
func (r *Repo) Upsert(ctx context.Context, p domcat.Product) error {
	if p.ID() == "" {
		return fmt.Errorf("product id is required")
	}
	if err := r.store.HSet(ctx, r.key(p.ID()), fieldsFromProduct(&p)); err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID(), err)
	}
	return nil
}

// Delete removes a product record.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

// GetByID reads one product by catalog identifier.
func (r *Repo) GetByID(ctx context.Context, id string) (domcat.Product, error) {
	fields, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcat.Product{}, domain.ErrProductNotFound
		}
		return domcat.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return productFromFields(id, fields, r.maxDescLen), nil
}

// FindByTitle looks up a product by exact title phrase.
func (r *Repo) FindByTitle(ctx context.Context, title string) (domcat.Product, error) {
	q := &db.ProductQuery{
		Index:        r.indexName(),
		Filter:       db.ProductFilter{TitleExact: title},
		Limit:        1,
		ReturnFields: projectedFields,
	}
	sr, err := r.store.SearchProducts(ctx, q)
	if err != nil {
		return domcat.Product{}, fmt.Errorf("find by title: %w", err)
	}
	if len(sr.Entries) == 0 {
		return domcat.Product{}, domain.ErrProductNotFound
	}
	entry := sr.Entries[0]
	id := strings.TrimPrefix(entry.Key, r.keyPrefix+"products:")
	return productFromFields(id, entry.Fields, r.maxDescLen), nil
}

// FindByFilter runs one ladder tier query, capped at limit.
func (r *Repo) FindByFilter(ctx context.Context, f criteria.Filter, limit int) ([]domcat.Product, error) {
	q := &db.ProductQuery{
		Index: r.indexName(),
		Filter: db.ProductFilter{
			Category:       f.Category,
			Type:           f.Type,
			CategoryOrType: f.CategoryOrType,
			Keywords:       f.Keywords,
			Price:          toNumRange(f.Price),
			Width:          toNumRange(f.Width),
			Height:         toNumRange(f.Height),
			Depth:          toNumRange(f.Depth),
		},
		Limit:        limit,
		ReturnFields: projectedFields,
	}

	sr, err := r.store.SearchProducts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	prefix := r.keyPrefix + "products:"
	products := make([]domcat.Product, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)
		products = append(products, productFromFields(id, entry.Fields, r.maxDescLen))
	}
	return products, nil
}

func toNumRange(r criteria.Range) db.NumRange {
	return db.NumRange{Min: r.Min, Max: r.Max}
}
