package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cardbeam/cardbeam/internal/apperr"
	"github.com/cardbeam/cardbeam/internal/payload"
)

func roundTrip(t *testing.T, p payload.Payload) payload.Payload {
	t.Helper()
	blob, err := Compress(p)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(blob)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	return got
}

func equal(a, b payload.Payload) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   payload.Payload
	}{
		{"empty", payload.Payload{}},
		{"nil", nil},
		{"single field", payload.Payload{"hello"}},
		{"empty string field", payload.Payload{""}},
		{"mixed empties", payload.Payload{"", "a", "", "b"}},
		{"unicode", payload.Payload{"食べる", "to eat", "ご飯を食べる。"}},
		{"html markup", payload.Payload{"<b>Word</b>", "<ruby>漢字<rt>かんじ</rt></ruby>"}},
		{"large field", payload.Payload{strings.Repeat("sentence content ", 2000)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := roundTrip(t, tc.in)
			want := tc.in
			if want == nil {
				want = payload.Payload{}
			}
			if !equal(got, want) {
				t.Errorf("round trip = %q, want %q", got, want)
			}
		})
	}
}

func TestRoundTrip_ManyFieldCounts(t *testing.T) {
	for n := 0; n <= 20; n++ {
		p := make(payload.Payload, 0, n)
		for i := 0; i < n; i++ {
			p = append(p, fmt.Sprintf("field-%d-日本語-%s", i, strings.Repeat("x", i)))
		}
		got := roundTrip(t, p)
		if !equal(got, p) {
			t.Fatalf("n=%d: round trip mismatch", n)
		}
	}
}

func TestCompress_Shrinks(t *testing.T) {
	p := payload.Payload{strings.Repeat("the same sentence over and over. ", 200)}
	blob, err := Compress(p)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(blob) >= len(p[0]) {
		t.Errorf("blob (%d bytes) not smaller than input (%d bytes)", len(blob), len(p[0]))
	}
}

func TestDecompress_CorruptInputs(t *testing.T) {
	valid, err := Compress(payload.Payload{"Word", "Meaning"})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	cases := []struct {
		name string
		blob string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"base64 but not zlib", "aGVsbG8gd29ybGQ="},
		{"truncated stream", valid[:len(valid)/2]},
		{"garbled middle", valid[:4] + "AAAA" + valid[8:]},
		{"empty", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Decompress(tc.blob)
			if !errors.Is(err, apperr.ErrCorruptPayload) {
				t.Fatalf("err = %v, want ErrCorruptPayload", err)
			}
			if p != nil {
				t.Errorf("corrupt blob produced partial payload %q", p)
			}
		})
	}
}

func TestDecompress_WrongJSONShape(t *testing.T) {
	// A well-formed zlib+base64 stream whose content is not a string array.
	objBlob := compressRaw(t, []byte(`{"not":"an array"}`))
	if _, err := Decompress(objBlob); !errors.Is(err, apperr.ErrCorruptPayload) {
		t.Fatalf("err = %v, want ErrCorruptPayload", err)
	}
}

// compressRaw builds a blob from arbitrary bytes, bypassing Compress.
func compressRaw(t *testing.T, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
