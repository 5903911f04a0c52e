package vision

import (
	"context"

	"github.com/kailas-cloud/snapfind/internal/domain/signals"
)

// Extractor is the vision model port.
type Extractor interface {
	ExtractSignals(
		ctx context.Context, imageBytes []byte, mimeType, prompt, requestID string,
	) (signals.Signals, error)
}
