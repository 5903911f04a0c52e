package criteria

// Filter is the concrete predicate a single ladder tier issues against
// the catalog. Criteria describe what is available; a Filter describes
// what one tier actually uses.
type Filter struct {
	Category       string
	Type           string
	CategoryOrType bool
	Keywords       []string
	Price          Range
	Width          Range
	Height         Range
	Depth          Range
}
