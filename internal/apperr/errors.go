// Package apperr defines the sentinel errors of the push pipeline.
//
// Every failure a cycle can hit maps to exactly one of these:
// config problems stop only the affected run, query and webhook
// problems skip only the affected plugin, and a corrupt payload is
// a display-side condition that must never render partial output.
package apperr

import "errors"

var (
	// ErrConfig marks a malformed or missing configuration. It halts
	// the run that tried to load it, never the watcher loop itself.
	ErrConfig = errors.New("config error")

	// ErrQuery marks a bad search expression or an unavailable note
	// store. The affected plugin skips the cycle; others proceed.
	ErrQuery = errors.New("query error")

	// ErrCorruptPayload marks a blob that failed to decode. Callers
	// must show an error state rather than partial fields.
	ErrCorruptPayload = errors.New("corrupt payload")

	// ErrWebhook marks a failed push or fetch (non-2xx or transport
	// failure). There is no in-cycle retry; the next tick recovers.
	ErrWebhook = errors.New("webhook error")

	// ErrNotFound marks a missing note or an unknown plugin index.
	ErrNotFound = errors.New("not found")
)
