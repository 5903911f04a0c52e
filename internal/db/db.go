// Package db defines the storage facade for the product catalog.
// Consumers depend on the narrow sub-interfaces, not on Store.
package db

import (
	"context"
	"time"
)

// Store is the database facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based product record operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs FT.SEARCH queries compiled from product filters.
type Searcher interface {
	SearchProducts(ctx context.Context, q *ProductQuery) (*SearchResult, error)
}

// IndexFieldType enumerates supported FT field types.
type IndexFieldType string

// FT field types.
const (
	IndexFieldText    IndexFieldType = "TEXT"
	IndexFieldTag     IndexFieldType = "TAG"
	IndexFieldNumeric IndexFieldType = "NUMERIC"
)

// IndexField describes one field of an FT index.
type IndexField struct {
	Name string
	Type IndexFieldType
}

// IndexDefinition describes an FT index over hash keys.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// NumRange is an optional numeric pre-filter. Nil ends are open.
type NumRange struct {
	Min *float64
	Max *float64
}

// IsOpen reports whether the range constrains nothing.
func (r NumRange) IsOpen() bool { return r.Min == nil && r.Max == nil }

// ProductFilter is the structured predicate one ladder tier compiles to.
// Category and Type are exact tag matches; Keywords are substring terms
// OR-matched across title and description. CategoryOrType switches the
// category/type pair from AND to OR (the last-resort tier).
type ProductFilter struct {
	Category       string
	Type           string
	CategoryOrType bool
	TitleExact     string
	Keywords       []string
	Price          NumRange
	Width          NumRange
	Height         NumRange
	Depth          NumRange
}

// ProductQuery is a compiled-to-be catalog search.
type ProductQuery struct {
	Index        string
	Filter       ProductFilter
	Limit        int
	ReturnFields []string
}

// SearchEntry is one FT.SEARCH hit.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// SearchResult is the outcome of one FT.SEARCH call.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
