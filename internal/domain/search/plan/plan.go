// Package plan defines the retrieval plan tags reported by the
// relaxation ladder.
package plan

// Plan identifies which ladder tier produced a candidate set.
type Plan string

const (
	// A is the strictest tier: category AND type AND keyword match.
	A Plan = "A"
	// B drops the type constraint.
	B Plan = "B"
	// C matches on keywords only.
	C Plan = "C"
	// D is the last-resort tier: category OR type, no keywords.
	D Plan = "D"
	// Text marks the broad unscoped query used when no tier had inputs.
	Text Plan = "TEXT"
)

// IsValid reports whether p is a known plan tag.
func (p Plan) IsValid() bool {
	switch p {
	case A, B, C, D, Text:
		return true
	}
	return false
}
