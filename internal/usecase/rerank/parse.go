package rerank

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/snapfind/internal/domain"
	domrerank "github.com/kailas-cloud/snapfind/internal/domain/rerank"
)

// parseResponse decodes raw model text into a rerank response.
// "Valid JSON" and "matches the expected shape" are distinct checks;
// both failures map to the invalid-response sentinel so the state
// machine can route them into repair.
func parseResponse(raw string) (domrerank.Response, error) {
	var resp domrerank.Response
	if err := json.Unmarshal([]byte(repairJSON(raw)), &resp); err != nil {
		return domrerank.Response{}, fmt.Errorf("%w: %s", domain.ErrProviderInvalidResponse, err.Error())
	}
	if len(resp.RankedIDs) == 0 {
		return domrerank.Response{}, fmt.Errorf("%w: ranked_ids missing or empty", domain.ErrProviderInvalidResponse)
	}
	for i, id := range resp.RankedIDs {
		if id == "" {
			return domrerank.Response{}, fmt.Errorf("%w: empty id at position %d", domain.ErrProviderInvalidResponse, i)
		}
	}
	return resp, nil
}

// postProcess filters the model's ranking to the input id set and
// appends any omitted input ids at the end in original order. The
// returned RankedIDs is always an exact permutation of inputIDs.
func postProcess(resp *domrerank.Response, inputIDs []string) domrerank.Result {
	known := make(map[string]bool, len(inputIDs))
	for _, id := range inputIDs {
		known[id] = true
	}

	ranked := make([]string, 0, len(inputIDs))
	seen := make(map[string]bool, len(inputIDs))
	for _, id := range resp.RankedIDs {
		// Hallucinated and duplicate ids are dropped.
		if !known[id] || seen[id] {
			continue
		}
		seen[id] = true
		ranked = append(ranked, id)
	}
	for _, id := range inputIDs {
		if !seen[id] {
			ranked = append(ranked, id)
		}
	}

	reasons := make(map[string][]string, len(resp.Reasons))
	for id, rs := range resp.Reasons {
		if known[id] {
			reasons[id] = rs
		}
	}
	bands := make(map[string]string, len(resp.MatchBands))
	for id, b := range resp.MatchBands {
		if known[id] {
			bands[id] = b
		}
	}

	return domrerank.Result{RankedIDs: ranked, Reasons: reasons, MatchBands: bands}
}

// repairJSON fixes the most common mechanical defect in model JSON:
// keys missing their opening quote after '{' or ','. Heavier damage
// goes through the model-side repair call instead.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	i := 0
	for i < len(in) {
		ch := in[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t') {
			out = append(out, in[i])
			i++
		}

		if i >= len(in) || in[i] == '"' || !isKeyRune(in[i]) {
			continue
		}

		keyStart := i
		for i < len(in) && (isKeyRune(in[i]) || in[i] == '_') {
			i++
		}

		// `key":` with the opening quote missing.
		if i+1 < len(in) && in[i] == '"' && in[i+1] == ':' {
			out = append(out, '"')
		}
		out = append(out, in[keyStart:i]...)
	}

	return string(out)
}

func isKeyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
