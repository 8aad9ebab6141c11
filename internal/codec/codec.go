// Package codec converts field payloads to and from the compact blob sent
// over the webhook: a JSON string array, zlib-compressed at best
// compression, base64-encoded. Webhook endpoints cap body sizes, so the
// blob is kept as small as a general-purpose compressor allows.
package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cardbeam/cardbeam/internal/apperr"
	"github.com/cardbeam/cardbeam/internal/payload"
)

// Compress encodes a payload into a transport blob. Round-trip with
// Decompress is exact for any number of fields, including zero.
func Compress(p payload.Payload) (string, error) {
	if p == nil {
		p = payload.Payload{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("codec: marshal payload: %w", err)
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("codec: init compressor: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("codec: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("codec: flush compressor: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress decodes a transport blob back into a payload. Any malformed
// input (bad base64, truncated or garbled zlib stream, invalid JSON)
// surfaces as apperr.ErrCorruptPayload; no partial payload is returned.
func Decompress(blob string) (payload.Payload, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("codec: %w: base64: %v", apperr.ErrCorruptPayload, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("codec: %w: zlib header: %v", apperr.ErrCorruptPayload, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("codec: %w: zlib stream: %v", apperr.ErrCorruptPayload, err)
	}

	var p payload.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("codec: %w: payload json: %v", apperr.ErrCorruptPayload, err)
	}
	if p == nil {
		p = payload.Payload{}
	}
	return p, nil
}
