// Package display implements the display-side half of the pipeline:
// fetch the latest blob, decompress it, and render the fields in order.
package display

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cardbeam/cardbeam/internal/apperr"
	"github.com/cardbeam/cardbeam/internal/codec"
	"github.com/cardbeam/cardbeam/internal/payload"
	"github.com/cardbeam/cardbeam/internal/pusher"
)

// Fetch GETs url, expects the webhook envelope shape, and decompresses
// the blob inside. A corrupt or missing blob surfaces as
// apperr.ErrCorruptPayload so the caller shows an error state instead of
// partial fields.
func Fetch(ctx context.Context, client *http.Client, url string) (payload.Payload, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("display: build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("display: %w: get %s: %v", apperr.ErrWebhook, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("display: %w: %s returned %d", apperr.ErrWebhook, url, resp.StatusCode)
	}

	var env pusher.Envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env); err != nil {
		return nil, fmt.Errorf("display: %w: envelope json: %v", apperr.ErrCorruptPayload, err)
	}
	if env.MergeVariables.Notes == "" {
		return nil, fmt.Errorf("display: %w: envelope has no blob", apperr.ErrCorruptPayload)
	}

	return codec.Decompress(env.MergeVariables.Notes)
}

// Render writes each field value to w in payload order, one per line.
// Field content is the user's own note data and is trusted as
// pre-formatted markup: nothing is escaped or sanitized here. Do not point
// this at payloads from sources you do not control.
func Render(w io.Writer, p payload.Payload) error {
	for _, v := range p {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return fmt.Errorf("display: render: %w", err)
		}
	}
	return nil
}
