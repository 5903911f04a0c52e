// Package catalog defines the product summary that flows through the
// search pipeline.
package catalog

// Product is the projection of a catalog item used for matching.
// Dimensions are optional (nil when the catalog record lacks them).
type Product struct {
	id          string
	title       string
	category    string
	productType string
	price       float64
	width       *float64
	height      *float64
	depth       *float64
	description string
}

// New creates a product summary.
func New(
	id, title, category, productType string, price float64,
	width, height, depth *float64, description string,
) Product {
	return Product{
		id: id, title: title, category: category, productType: productType,
		price: price, width: width, height: height, depth: depth,
		description: description,
	}
}

// ID returns the catalog identifier.
func (p *Product) ID() string { return p.id }

// Title returns the product title.
func (p *Product) Title() string { return p.title }

// Category returns the catalog category.
func (p *Product) Category() string { return p.category }

// Type returns the product type within the category.
func (p *Product) Type() string { return p.productType }

// Price returns the listed price.
func (p *Product) Price() float64 { return p.price }

// Width returns the width in centimeters, nil if unknown.
func (p *Product) Width() *float64 { return p.width }

// Height returns the height in centimeters, nil if unknown.
func (p *Product) Height() *float64 { return p.height }

// Depth returns the depth in centimeters, nil if unknown.
func (p *Product) Depth() *float64 { return p.depth }

// Description returns the (already truncated) description text.
func (p *Product) Description() string { return p.description }
