package tinypng

import (
	"encoding/binary"
	"testing"
)

// buildIHDR encodes a minimal IHDR payload, optionally with a
// non-standard compression method byte.
func buildIHDR(width, height uint32, bitDepth, colorType, compression byte) []byte {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], width)
	binary.BigEndian.PutUint32(data[4:8], height)
	data[8] = bitDepth
	data[9] = colorType
	data[10] = compression
	data[11] = 0 // filter method
	data[12] = 0 // interlace method
	return data
}

func buildPNG(chunks ...[]byte) []byte {
	out := append([]byte{}, pngSignature[:]...)
	for _, ch := range chunks {
		out = append(out, ch...)
	}
	return out
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// TestDecodeUnsupportedCompressionMethodStaysBlank covers spec.md §4.4/§7:
// a non-zero IHDR compression method must abort reconstruction entirely,
// leaving Pix at its zero-initialized (transparent black) value even
// though well-formed IDAT/IEND chunks follow.
func TestDecodeUnsupportedCompressionMethodStaysBlank(t *testing.T) {
	ihdr := buildIHDR(4, 4, 8, ColorGrayscale, 1) // compression method 1: invalid
	png := buildPNG(
		encodeChunk("IHDR", ihdr),
		encodeChunk("IDAT", []byte{0xFF, 0xFF, 0xFF, 0xFF}),
		encodeChunk("IEND", nil),
	)

	img, err := Decode(png)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if img.Width != 4 || img.Height != 4 {
		t.Fatalf("unexpected dimensions: %dx%d", img.Width, img.Height)
	}
	if !allZero(img.Pix) {
		t.Fatalf("expected transparent-black Pix for unsupported compression method, got %v", img.Pix)
	}
}

// TestDecodeCorruptIDATStaysBlank covers spec.md §7's "inflator failure ->
// Pix stays zero-initialized" property for a grayscale image, whose zero
// raw sample would otherwise expand to opaque black rather than staying
// transparent.
func TestDecodeCorruptIDATStaysBlank(t *testing.T) {
	ihdr := buildIHDR(3, 3, 8, ColorGrayscale, 0)
	png := buildPNG(
		encodeChunk("IHDR", ihdr),
		// Not a valid zlib stream: CMF/FLG fail the header check.
		encodeChunk("IDAT", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}),
		encodeChunk("IEND", nil),
	)

	img, err := Decode(png)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if img.Width != 3 || img.Height != 3 {
		t.Fatalf("unexpected dimensions: %dx%d", img.Width, img.Height)
	}
	if !allZero(img.Pix) {
		t.Fatalf("expected transparent-black Pix for a corrupt inflate, got %v", img.Pix)
	}
}

func TestDecodeWithTraceUnsupportedCompressionMethodStaysBlank(t *testing.T) {
	ihdr := buildIHDR(2, 2, 8, ColorGrayscale, 7)
	png := buildPNG(
		encodeChunk("IHDR", ihdr),
		encodeChunk("IDAT", []byte{0xFF, 0xFF, 0xFF, 0xFF}),
		encodeChunk("IEND", nil),
	)

	img, _, err := DecodeWithTrace(png, Options{})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !allZero(img.Pix) {
		t.Fatalf("expected transparent-black Pix for unsupported compression method, got %v", img.Pix)
	}
}
