package catalog

import (
	"strconv"
	"unicode/utf8"

	domcat "github.com/kailas-cloud/snapfind/internal/domain/catalog"
)

// Hash field names of a product record. The FT index schema in
// EnsureIndex must stay in sync with these.
const (
	fieldTitle       = "title"
	fieldCategory    = "category"
	fieldType        = "type"
	fieldPrice       = "price"
	fieldWidth       = "width"
	fieldHeight      = "height"
	fieldDepth       = "depth"
	fieldDescription = "description"
)

// projectedFields are the fields retrieval queries return.
var projectedFields = []string{
	fieldTitle, fieldCategory, fieldType, fieldPrice,
	fieldWidth, fieldHeight, fieldDepth, fieldDescription,
}

func fieldsFromProduct(p *domcat.Product) map[string]string {
	fields := map[string]string{
		fieldTitle:       p.Title(),
		fieldCategory:    p.Category(),
		fieldType:        p.Type(),
		fieldPrice:       strconv.FormatFloat(p.Price(), 'f', -1, 64),
		fieldDescription: p.Description(),
	}
	for name, v := range map[string]*float64{
		fieldWidth:  p.Width(),
		fieldHeight: p.Height(),
		fieldDepth:  p.Depth(),
	} {
		if v != nil {
			fields[name] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	return fields
}

func productFromFields(id string, fields map[string]string, maxDescLen int) domcat.Product {
	price, _ := strconv.ParseFloat(fields[fieldPrice], 64)

	desc := fields[fieldDescription]
	if maxDescLen > 0 && len(desc) > maxDescLen {
		// Back up to a rune boundary so the cut never splits a
		// multi-byte sequence.
		cut := maxDescLen
		for cut > 0 && !utf8.RuneStart(desc[cut]) {
			cut--
		}
		desc = desc[:cut]
	}

	return domcat.New(
		id,
		fields[fieldTitle],
		fields[fieldCategory],
		fields[fieldType],
		price,
		parseOptFloat(fields, fieldWidth),
		parseOptFloat(fields, fieldHeight),
		parseOptFloat(fields, fieldDepth),
		desc,
	)
}

func parseOptFloat(fields map[string]string, name string) *float64 {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
