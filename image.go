package tinypng

import (
	"encoding/binary"
	"image"
)

// Color types legal per the PNG 1.2 spec.
const (
	ColorGrayscale      = 0
	ColorTrueColor      = 2
	ColorPalette        = 3
	ColorGrayscaleAlpha = 4
	ColorTrueColorAlpha = 6
)

// paletteEntry is one PLTE/tRNS-derived palette slot. Indices beyond the
// number of entries PLTE actually declared read back as the zero value's
// defaults: opaque black.
type paletteEntry struct {
	r, g, b, a uint8
}

// Image is the decoded result: a packed top-to-bottom, left-to-right
// 8-bit RGBA buffer plus the dimensions and header fields that produced
// it.
type Image struct {
	Width, Height int

	// BitDepth and ColorType are IHDR's as declared; Pix's layout never
	// varies with them -- it is always 8-bit RGBA regardless of the
	// source sample depth or color type.
	BitDepth  int
	ColorType int

	// Interlaced is true when IHDR declared Adam7 interlacing. Pix is
	// still produced by walking the inflated stream linearly -- see the
	// package doc comment.
	Interlaced bool

	// Pix is exactly Width*Height*4 bytes, row-major, 8 bits per
	// channel, unassociated alpha.
	Pix []byte
}

// AsNRGBA exposes the decoded buffer as a standard image.NRGBA without
// copying, so callers already working in terms of the image package don't
// need to know this decoder exists.
//
// image.go does not import image/png or any other codec package: this is
// the only point of contact with the standard image type system, and it
// is read-only plumbing, not a decode dependency.
func (im *Image) AsNRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    im.Pix,
		Stride: im.Width * 4,
		Rect:   image.Rect(0, 0, im.Width, im.Height),
	}
}

// state is the in-progress image as chunks are folded in. It mirrors
// tpng_image_t: header fields, palette, chroma-key values, the IDAT
// accumulator, and the output buffer (allocated only once IHDR has been
// seen).
type state struct {
	img *Image

	compression  int
	filterMethod int

	palette  [256]paletteEntry
	nPalette int

	transparentGray            int32 // -1 if unset
	transparentRed             int32
	transparentGreen           int32
	transparentBlue            int32
	haveTrueColorTransparency  bool

	idat []byte

	verifyCRC bool
	crcFailed bool

	alloc Allocator
}

func newState(rawLen int, verifyCRC bool, alloc Allocator) *state {
	s := &state{
		transparentGray:  -1,
		transparentRed:   -1,
		transparentGreen: -1,
		transparentBlue:  -1,
		idat:             alloc.AllocateUninitialized(rawLen)[:0],
		verifyCRC:        verifyCRC,
		alloc:            alloc,
	}
	for i := range s.palette {
		s.palette[i].a = 255
	}
	return s
}

// apply folds one chunk into the decoder's running state, per spec.md
// §4.4's ordering rules. It returns true when the IEND chunk has been
// processed and the caller should stop reading chunks.
func (s *state) apply(ch chunk) (done bool) {
	if s.verifyCRC && !ch.verifyCRC() {
		s.crcFailed = true
	}

	switch ch.typ {
	case "IHDR":
		s.applyIHDR(ch.data)
	case "PLTE":
		s.applyPLTE(ch.data)
	case "tRNS":
		s.applyTRNS(ch.data)
	case "IDAT":
		s.idat = append(s.idat, ch.data...)
	case "IEND":
		return true
	default:
		// Unknown chunk types are read (the cursor already consumed
		// their declared length) and discarded.
	}
	return false
}

func (s *state) applyIHDR(data []byte) {
	if len(data) < 13 {
		return
	}
	w := int(binary.BigEndian.Uint32(data[0:4]))
	h := int(binary.BigEndian.Uint32(data[4:8]))
	if w <= 0 || h <= 0 {
		return
	}

	img := &Image{
		Width:      w,
		Height:     h,
		BitDepth:   int(data[8]),
		ColorType:  int(data[9]),
		Interlaced: data[12] != 0,
	}
	s.compression = int(data[10])
	s.filterMethod = int(data[11])
	s.img = img
	s.img.Pix = s.alloc.AllocateZeroed(w * h * 4)
}

func (s *state) applyPLTE(data []byte) {
	n := len(data) / 3
	if n > 256 {
		n = 256
	}
	for i := 0; i < n; i++ {
		s.palette[i].r = data[i*3]
		s.palette[i].g = data[i*3+1]
		s.palette[i].b = data[i*3+2]
	}
	if n > s.nPalette {
		s.nPalette = n
	}
}

func (s *state) applyTRNS(data []byte) {
	if s.img == nil {
		return
	}
	switch s.img.ColorType {
	case ColorPalette:
		n := len(data)
		if n > 256 {
			n = 256
		}
		for i := 0; i < n; i++ {
			s.palette[i].a = data[i]
		}
	case ColorGrayscale:
		if len(data) >= 2 {
			s.transparentGray = int32(data[0])*0xff + int32(data[1])
		}
	case ColorTrueColor:
		if len(data) >= 6 {
			s.transparentRed = int32(data[0])*0xff + int32(data[1])
			s.transparentGreen = int32(data[2])*0xff + int32(data[3])
			s.transparentBlue = int32(data[4])*0xff + int32(data[5])
			s.haveTrueColorTransparency = true
		}
	}
}

func (s *state) paletteAt(idx int) paletteEntry {
	idx %= 256
	if idx < 0 {
		idx += 256
	}
	return s.palette[idx]
}
