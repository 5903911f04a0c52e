package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/snapfind/internal/db"
)

// SearchProducts compiles a product filter into FT.SEARCH and runs it.
func (s *Store) SearchProducts(ctx context.Context, q *db.ProductQuery) (*db.SearchResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	queryStr := buildProductQuery(q.Filter)

	args := []string{q.Index, queryStr}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args, "LIMIT", "0", strconv.Itoa(q.Limit), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseSearchResult(raw)
}

// buildProductQuery translates a ProductFilter into an FT.SEARCH query string.
// An empty filter compiles to the broad "*" query.
func buildProductQuery(f db.ProductFilter) string {
	var parts []string

	switch {
	case f.CategoryOrType && f.Category != "" && f.Type != "":
		parts = append(parts, fmt.Sprintf("(%s | %s)",
			buildTagFilter("category", f.Category),
			buildTagFilter("type", f.Type)))
	case f.CategoryOrType && f.Category != "":
		parts = append(parts, buildTagFilter("category", f.Category))
	case f.CategoryOrType && f.Type != "":
		parts = append(parts, buildTagFilter("type", f.Type))
	default:
		if f.Category != "" {
			parts = append(parts, buildTagFilter("category", f.Category))
		}
		if f.Type != "" {
			parts = append(parts, buildTagFilter("type", f.Type))
		}
	}

	if f.TitleExact != "" {
		// Phrase query; embedded quotes would terminate the phrase early.
		phrase := strings.ReplaceAll(f.TitleExact, `"`, ``)
		parts = append(parts, fmt.Sprintf(`@title:("%s")`, phrase))
	}

	if len(f.Keywords) > 0 {
		terms := make([]string, 0, len(f.Keywords))
		for _, kw := range f.Keywords {
			if kw == "" {
				continue
			}
			// Infix wildcard gives substring semantics under dialect 2.
			terms = append(terms, "*"+escapeQuery(strings.ToLower(kw))+"*")
		}
		if len(terms) > 0 {
			parts = append(parts, fmt.Sprintf("@title|description:(%s)", strings.Join(terms, "|")))
		}
	}

	for _, nf := range []struct {
		field string
		r     db.NumRange
	}{
		{"price", f.Price},
		{"width", f.Width},
		{"height", f.Height},
		{"depth", f.Depth},
	} {
		if !nf.r.IsOpen() {
			parts = append(parts, buildNumericFilter(nf.field, nf.r))
		}
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

func buildNumericFilter(key string, r db.NumRange) string {
	minBound := "-inf"
	maxBound := "+inf"
	if r.Min != nil {
		minBound = fmt.Sprintf("%g", *r.Min)
	}
	if r.Max != nil {
		maxBound = fmt.Sprintf("%g", *r.Max)
	}
	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

// --- Result parsing ---

func parseSearchResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query escaping ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	` `, `\ `,
)
