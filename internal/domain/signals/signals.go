// Package signals defines the structured output of the vision model:
// category/type guesses, visual attributes, keywords, and quality flags
// extracted from a single product photo. A Signals value is produced
// once per request and never mutated afterwards.
package signals

// MaxKeywords caps the keyword list coming back from the model.
const MaxKeywords = 10

// Guess is a labeled prediction with model confidence in [0,1].
type Guess struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Attributes holds visual attribute terms grouped by kind.
type Attributes struct {
	Style    []string `json:"style,omitempty"`
	Material []string `json:"material,omitempty"`
	Color    []string `json:"color,omitempty"`
	Shape    []string `json:"shape,omitempty"`
}

// QualityFlags marks conditions that degrade signal reliability.
type QualityFlags struct {
	IsFurnitureLikely bool `json:"is_furniture_likely"`
	MultipleObjects   bool `json:"multiple_objects"`
	LowImageQuality   bool `json:"low_image_quality"`
	OccludedOrPartial bool `json:"occluded_or_partial"`
	LowConfidence     bool `json:"low_confidence"`
}

// Intent carries optional purchase constraints inferred from the
// prompt or image (price range, preferred dimensions in centimeters).
type Intent struct {
	PriceMin        *float64 `json:"price_min,omitempty"`
	PriceMax        *float64 `json:"price_max,omitempty"`
	PreferredWidth  *float64 `json:"preferred_width,omitempty"`
	PreferredHeight *float64 `json:"preferred_height,omitempty"`
	PreferredDepth  *float64 `json:"preferred_depth,omitempty"`
}

// Signals is the full structured extraction for one image.
type Signals struct {
	CategoryGuess Guess        `json:"category_guess"`
	TypeGuess     Guess        `json:"type_guess"`
	Attributes    Attributes   `json:"attributes"`
	Keywords      []string     `json:"keywords,omitempty"`
	QualityFlags  QualityFlags `json:"quality_flags"`
	Intent        *Intent      `json:"intent,omitempty"`
}

// Normalize clamps confidences into [0,1], caps the keyword list, and
// repairs an inverted intent price range. Called once after decoding
// model output.
func (s *Signals) Normalize() {
	s.CategoryGuess.Confidence = clamp01(s.CategoryGuess.Confidence)
	s.TypeGuess.Confidence = clamp01(s.TypeGuess.Confidence)
	if len(s.Keywords) > MaxKeywords {
		s.Keywords = s.Keywords[:MaxKeywords]
	}
	// The model occasionally swaps the price bounds; an inverted range
	// must not fail the request downstream.
	if in := s.Intent; in != nil && in.PriceMin != nil && in.PriceMax != nil && *in.PriceMin > *in.PriceMax {
		in.PriceMin, in.PriceMax = in.PriceMax, in.PriceMin
	}
}

// AttributeTerms returns the style, material, and color terms used by
// the heuristic scorer, in that order. Shape is excluded: shape words
// rarely appear verbatim in catalog copy.
func (s *Signals) AttributeTerms() []string {
	terms := make([]string, 0, len(s.Attributes.Style)+len(s.Attributes.Material)+len(s.Attributes.Color))
	terms = append(terms, s.Attributes.Style...)
	terms = append(terms, s.Attributes.Material...)
	terms = append(terms, s.Attributes.Color...)
	return terms
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
