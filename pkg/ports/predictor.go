package ports

import (
	"context"
	"encoding/json"
)

// Predictor is the external AI model service. JSON payloads are passed through
// as raw messages since their shape is owned by the model service.
type Predictor interface {
	// Predict returns the price prediction for a quotation item.
	Predict(ctx context.Context, itemID string) (json.RawMessage, error)
	// Summarize returns a plain text summary of a quotation.
	Summarize(ctx context.Context, quotationID string) (string, error)
	// Cluster returns the customer clustering used by analytics.
	Cluster(ctx context.Context) (json.RawMessage, error)
}
