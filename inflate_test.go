package tinypng

import (
	"bytes"
	"compress/zlib"
	"testing"
)

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("%+v", err)
	}
	return buf.Bytes()
}

func TestInflateExactSize(t *testing.T) {
	original := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200)
	compressed := zlibCompress(t, original)

	got, st := inflate(compressed, len(original))
	if st != statusDone {
		t.Fatalf("status = %v, want statusDone", st)
	}
	if !bytes.Equal(got, original) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(original))
	}
}

func TestInflateToHeapUnknownSize(t *testing.T) {
	original := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0xFF, 0x00}, 3000)
	compressed := zlibCompress(t, original)

	got, st := inflateToHeap(compressed)
	if st != statusDone {
		t.Fatalf("status = %v, want statusDone", st)
	}
	if !bytes.Equal(got, original) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(original))
	}
}

func TestInflateEmptyInput(t *testing.T) {
	original := []byte{}
	compressed := zlibCompress(t, original)
	got, st := inflate(compressed, 0)
	if st != statusDone {
		t.Fatalf("status = %v, want statusDone", st)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(got))
	}
}

func TestInflateTruncatedNeverPanics(t *testing.T) {
	original := bytes.Repeat([]byte("abcdefgh"), 500)
	compressed := zlibCompress(t, original)
	for n := 0; n <= len(compressed); n += 7 {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("panic at truncation %d: %v", n, r)
				}
			}()
			inflate(compressed[:n], len(original))
		}()
	}
}

func TestInflateBadZlibHeader(t *testing.T) {
	bad := []byte{0xFF, 0xFF, 0, 0, 0, 0}
	_, st := inflate(bad, 4)
	if st == statusDone {
		t.Fatalf("expected a non-done status for a corrupt zlib header")
	}
}
