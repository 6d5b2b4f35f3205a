package tinypng

import (
	"github.com/pkg/errors"
)

// Endianness mirrors tpng.c's TPNG_ENDIANNESS compile-time knob. The
// decoder already reads every multi-byte field with encoding/binary's
// explicit BigEndian accessors, so this is accepted for parity only: no
// code path reads Options.Endianness or branches on host byte order.
type Endianness int

const (
	EndianAuto Endianness = iota
	EndianLittle
	EndianBig
)

// Allocator models tpng.c's three allocation hooks
// (allocate-uninitialized, allocate-zeroed, release) as func fields so an
// embedder can plug in an arena or pool. The defaults are backed by the
// ordinary Go runtime allocator and GC: AllocateZeroed and
// AllocateUninitialized both return freshly made, already-zeroed slices
// (Go gives no cheaper uninitialized option), and Release is a no-op.
type Allocator struct {
	AllocateUninitialized func(n int) []byte
	AllocateZeroed        func(n int) []byte
	Release               func([]byte)
}

func defaultAllocator() Allocator {
	return Allocator{
		AllocateUninitialized: func(n int) []byte { return make([]byte, n) },
		AllocateZeroed:        func(n int) []byte { return make([]byte, n) },
		Release:               func([]byte) {},
	}
}

// Options configures a Decode call. The zero value is a valid Options:
// Decode fills in defaults for any unset Allocator field and treats a
// zero Endianness as EndianAuto.
type Options struct {
	Allocator  Allocator
	Endianness Endianness
	VerifyCRC  bool
}

func (o *Options) normalize() {
	def := defaultAllocator()
	if o.Allocator.AllocateUninitialized == nil {
		o.Allocator.AllocateUninitialized = def.AllocateUninitialized
	}
	if o.Allocator.AllocateZeroed == nil {
		o.Allocator.AllocateZeroed = def.AllocateZeroed
	}
	if o.Allocator.Release == nil {
		o.Allocator.Release = def.Release
	}
}

// Decode parses a PNG byte stream into an Image. It returns (nil,
// ErrNotPNG) only when the 8-byte signature doesn't match; every other
// malformed-input condition recovers locally per the never-crash policy
// and comes back as a best-effort (possibly blank, possibly partially
// decoded) Image with a nil error.
func Decode(data []byte) (*Image, error) {
	return DecodeOptions(data, Options{})
}

// DecodeOptions is Decode with explicit Options.
func DecodeOptions(data []byte, opts Options) (*Image, error) {
	opts.normalize()

	c := newCursor(data)
	sig, ok := c.advance(8)
	if !ok || !signatureMatches(sig) {
		return nil, ErrNotPNG
	}

	st := newState(c.remaining(), opts.VerifyCRC, opts.Allocator)
	for c.remaining() > 0 {
		ch := readChunk(c)
		if st.apply(ch) {
			break
		}
	}

	if st.img == nil {
		// No IHDR was ever seen: nothing to reconstruct. Return a
		// zero-sized image rather than nil, keeping Decode's contract
		// that only a bad signature produces a nil *Image.
		return &Image{}, nil
	}

	if st.compression != 0 {
		// spec.md §4.4/§7, tpng_process_chunk's IEND handler: an
		// unrecognized compression method aborts reconstruction entirely.
		// img.Pix is already zero-initialized, so returning now leaves it
		// transparent black at the correct dimensions.
		return st.img, nil
	}

	inflated, ist := inflate(st.idat, inflatedSize(st.img))
	if ist != statusDone {
		// Inflate failed: leave img.Pix untouched (zero-initialized,
		// transparent black) rather than expanding an all-zero buffer,
		// which would read back as opaque black for alpha-less color types.
		return st.img, nil
	}
	reconstructAndExpand(st, inflated)

	return st.img, nil
}

func signatureMatches(sig []byte) bool {
	for i, b := range pngSignature {
		if sig[i] != b {
			return false
		}
	}
	return true
}

// inflatedSize is the exact decompressed length an IHDR with no
// interlacing implies: one filter-type byte plus bytesPerRow for every
// scanline. Interlaced input is sized by the same formula (spec.md §9
// decision (b): the Adam7 pass structure isn't reproduced, so the stream
// is walked as this many flat scanlines, and any inflated bytes beyond
// this size are not decoded).
func inflatedSize(img *Image) int {
	row := bytesPerRow(img.ColorType, img.BitDepth, img.Width)
	return img.Height * (1 + row)
}

// reconstructAndExpand walks inflated as Height scanlines of (filter byte
// + bytesPerRow), undoes each row's filter in place, and expands the
// result into img.Pix. Rows missing from a truncated inflate (inflated
// shorter than expected) are treated as an all-None-filtered zero row, so
// a short stream still yields a correctly-sized image.
func reconstructAndExpand(s *state, inflated []byte) {
	img := s.img
	row := bytesPerRow(img.ColorType, img.BitDepth, img.Width)
	bpp := bytesPerPixel(img.ColorType, img.BitDepth)

	prev := make([]byte, row)
	cur := make([]byte, row)
	pos := 0

	for y := 0; y < img.Height; y++ {
		filterType := 0
		if pos < len(inflated) {
			filterType = int(inflated[pos])
			pos++
		}

		for i := range cur {
			cur[i] = 0
		}
		if pos < len(inflated) {
			n := copy(cur, inflated[pos:])
			pos += n
		}

		reconstructRow(filterType, cur, prev, bpp)
		s.expandRow(cur, img.Pix[y*img.Width*4:(y+1)*img.Width*4])

		prev, cur = cur, prev
	}
}

// Trace is the diagnostic record DecodeWithTrace returns alongside the
// best-effort Image: what the orchestrator actually observed, for
// embedders that want to log why an image came back degraded rather than
// just silently accept it.
type Trace struct {
	SawValidSignature bool
	ChunkTypes        []string
	CRCFailures       int
	InflateStatus     status
	IDATBytes         int
}

// DecodeWithTrace behaves like Decode but also returns a Trace describing
// what was seen along the way, wrapped with github.com/pkg/errors stack
// traces on the two internal conditions worth one: a bad signature and an
// inflator badParam. It never changes Decode's own contract -- this is an
// additive diagnostic entry point, not a stricter decoder.
func DecodeWithTrace(data []byte, opts Options) (*Image, Trace, error) {
	opts.normalize()
	var tr Trace

	c := newCursor(data)
	sig, ok := c.advance(8)
	if !ok || !signatureMatches(sig) {
		return nil, tr, errors.WithStack(ErrNotPNG)
	}
	tr.SawValidSignature = true

	st := newState(c.remaining(), true, opts.Allocator)
	for c.remaining() > 0 {
		ch := readChunk(c)
		tr.ChunkTypes = append(tr.ChunkTypes, ch.typ)
		done := st.apply(ch)
		if st.crcFailed {
			tr.CRCFailures++
			st.crcFailed = false
		}
		if done {
			break
		}
	}

	if st.img == nil {
		return &Image{}, tr, nil
	}

	if st.compression != 0 {
		// See the matching check in DecodeOptions: an unrecognized
		// compression method aborts reconstruction, leaving img.Pix
		// zero-initialized.
		return st.img, tr, nil
	}

	tr.IDATBytes = len(st.idat)
	inflated, ist := inflate(st.idat, inflatedSize(st.img))
	tr.InflateStatus = ist
	if ist == statusBadParam {
		return st.img, tr, errors.WithStack(FormatError("inflate: bad parameters"))
	}
	if ist != statusDone {
		// Any other non-success status (failed, adler mismatch, cannot
		// progress) also means the inflated buffer can't be trusted --
		// leave img.Pix untouched rather than expanding zeros into it.
		return st.img, tr, nil
	}

	reconstructAndExpand(st, inflated)
	return st.img, tr, nil
}
