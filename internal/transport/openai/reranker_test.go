package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain/rerank"
)

// captureServer records every chat completion request body and replies
// with a minimal valid completion.
func captureServer(t *testing.T, bodies *[]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request body: %v", err)
		}
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		*bodies = append(*bodies, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ranked_ids\":[]}"}}]}`))
	}))
}

func newTestReranker(baseURL string, temperature float32) *Reranker {
	return NewReranker(&RerankerConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "gpt-4o-mini",
		Provider:    "test",
		Temperature: temperature,
		Logger:      zap.NewNop(),
	})
}

func bodyTemperature(t *testing.T, body map[string]any) float64 {
	t.Helper()
	raw, ok := body["temperature"]
	if !ok {
		t.Fatalf("temperature absent from request body (keys: %v)", keysOf(body))
	}
	temp, ok := raw.(float64)
	if !ok {
		t.Fatalf("temperature is %T, want number", raw)
	}
	return temp
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestRepair_RequestCarriesZeroTemperature(t *testing.T) {
	var bodies []map[string]any
	srv := captureServer(t, &bodies)
	defer srv.Close()

	r := newTestReranker(srv.URL, 0.7)
	if _, err := r.Repair(context.Background(), `{"ranked_ids":`, "req-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bodies) != 1 {
		t.Fatalf("requests: got %d, want 1", len(bodies))
	}
	temp := bodyTemperature(t, bodies[0])
	if temp <= 0 || temp > 1e-30 {
		t.Errorf("repair temperature: got %v, want explicit near-zero", temp)
	}
}

func TestComplete_ZeroConfigTemperatureOnWire(t *testing.T) {
	var bodies []map[string]any
	srv := captureServer(t, &bodies)
	defer srv.Close()

	r := newTestReranker(srv.URL, 0)
	payload := &rerank.Request{SchemaVersion: rerank.SchemaVersion}
	if _, err := r.Complete(context.Background(), payload, "req-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bodies) != 1 {
		t.Fatalf("requests: got %d, want 1", len(bodies))
	}
	temp := bodyTemperature(t, bodies[0])
	if temp <= 0 || temp > 1e-30 {
		t.Errorf("complete temperature: got %v, want explicit near-zero", temp)
	}
}

func TestComplete_ConfiguredTemperatureOnWire(t *testing.T) {
	var bodies []map[string]any
	srv := captureServer(t, &bodies)
	defer srv.Close()

	r := newTestReranker(srv.URL, 0.7)
	payload := &rerank.Request{SchemaVersion: rerank.SchemaVersion}
	if _, err := r.Complete(context.Background(), payload, "req-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	temp := bodyTemperature(t, bodies[0])
	if temp < 0.69 || temp > 0.71 {
		t.Errorf("complete temperature: got %v, want 0.7", temp)
	}
}

func TestExtractSignals_ZeroConfigTemperatureOnWire(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		bodies = append(bodies, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"category_guess\":{\"value\":\"sofa\",\"confidence\":0.9}}"}}]}`))
	}))
	defer srv.Close()

	v := NewVision(&VisionConfig{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Model:    "gpt-4o-mini",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	if _, err := v.ExtractSignals(context.Background(), []byte("img"), "image/jpeg", "", "req-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bodies) != 1 {
		t.Fatalf("requests: got %d, want 1", len(bodies))
	}
	temp := bodyTemperature(t, bodies[0])
	if temp <= 0 || temp > 1e-30 {
		t.Errorf("extract temperature: got %v, want explicit near-zero", temp)
	}
}
