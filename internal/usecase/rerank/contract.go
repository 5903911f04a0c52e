package rerank

import (
	"context"

	domrerank "github.com/kailas-cloud/snapfind/internal/domain/rerank"
)

// Client is the rerank model port. Complete sends the versioned
// payload; Repair re-asks the model to fix malformed output under
// stricter settings. Both return raw model text.
type Client interface {
	Complete(ctx context.Context, payload *domrerank.Request, requestID string) (string, error)
	Repair(ctx context.Context, malformed, requestID string) (string, error)
}
