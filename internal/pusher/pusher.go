// Package pusher delivers compressed blobs to webhook endpoints.
package pusher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cardbeam/cardbeam/internal/apperr"
)

// Envelope is the JSON body posted to (and served back by) a webhook:
// the blob rides under merge_variables.notes, the shape the display
// template dereferences.
type Envelope struct {
	MergeVariables MergeVariables `json:"merge_variables"`
}

// MergeVariables carries the compressed payload.
type MergeVariables struct {
	Notes string `json:"notes"`
}

// NewEnvelope wraps a blob in the webhook body shape.
func NewEnvelope(blob string) Envelope {
	return Envelope{MergeVariables: MergeVariables{Notes: blob}}
}

// Pusher posts blobs over HTTP. It performs no retries: the scheduler
// already re-runs the whole pipeline every tick, so the next tick is the
// retry.
type Pusher struct {
	client *http.Client
}

// New creates a Pusher with the given request timeout.
func New(timeout time.Duration) *Pusher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pusher{client: &http.Client{Timeout: timeout}}
}

// Push POSTs the blob to url as a JSON envelope. A transport failure or a
// non-2xx response wraps apperr.ErrWebhook; the caller logs it and moves
// on to the next plugin.
func (p *Pusher) Push(ctx context.Context, url, blob string) error {
	body, err := json.Marshal(NewEnvelope(blob))
	if err != nil {
		return fmt.Errorf("pusher: marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pusher: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pusher: %w: post %s: %v", apperr.ErrWebhook, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pusher: %w: %s returned %d: %s",
			apperr.ErrWebhook, url, resp.StatusCode, bytes.TrimSpace(excerpt))
	}
	return nil
}
