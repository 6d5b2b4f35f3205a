package tinypng

// The resumable DEFLATE/zlib inflator. This is a from-scratch
// reimplementation of the TINFL decompressor embedded in
// original_source/tpng.c: same tables, same two-layer Huffman decode,
// same state contract (done / needs-more-input / has-more-output /
// failed / adler-mismatch / bad-param / cannot-progress).
//
// tpng.c drives this coroutine-style via goto and a switch on a saved
// state index (TINFL_CR_BEGIN/TINFL_CR_RETURN). Go has no equivalent
// idiom, so -- per the translation spec.md §9 explicitly sanctions -- it
// is rebuilt as an explicit resume-point enum and a dispatch loop: each
// case is a straight-line block that either finishes a phase and falls
// through to the next, or returns a status and is re-entered at the same
// point on the next call. All the locals that span a suspension in the C
// source (bit buffer, counters, tables) are struct fields here instead of
// stack variables, for the same reason.

type flag uint32

const (
	flagParseZlibHeader flag = 1 << iota
	flagHasMoreInput
	flagNonWrappingOutput
	flagComputeAdler32
)

type status int

const (
	statusDone status = iota
	statusNeedsMoreInput
	statusHasMoreOutput
	statusFailed
	statusAdlerMismatch
	statusBadParam
	statusCannotProgress
)

const (
	stZlibHeader0 = iota
	stZlibHeader1
	stBlockHeader
	stStoredHeader
	stStoredCopy
	stDynamicTableSizes
	stDynamicCLCodeSizes
	stDynamicExpand
	stMainSymbol
	stMainLiteral
	stMainLengthExtra
	stMainDist
	stMainDistExtra
	stMainCopy
	stBlockDone
	stFinishAlign
	stFinishAdler
	stDone
	stFailed
)

var lengthBase = [29]uint32{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
var lengthExtra = [29]uint32{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
var distBase = [30]uint32{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
var distExtra = [30]uint32{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}
var clCodeOrder = [19]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}
var clExtraBits = [3]uint32{2, 3, 7}
var clExtraBase = [3]uint32{3, 3, 11}
var minTableSize = [3]uint32{257, 1, 4}

// inflator is one DEFLATE/zlib decompression session. The zero value is
// ready to use.
type inflator struct {
	state int

	bitBuf  uint32
	numBits uint

	final     uint32
	blockType uint32

	tableSizes    [3]uint32
	tables        [3]huffTable
	tableBuildIdx int

	lenCodes [huffMaxSymbols0 + huffMaxSymbols1 + 137]uint8

	rawHeader [4]byte

	counter  uint32
	dist     uint32
	numExtra uint32

	zhdr0, zhdr1 uint32
	zAdler32     uint32
	checkAdler32 uint32
}

func newInflator() *inflator {
	d := &inflator{checkAdler32: 1, zAdler32: 1}
	return d
}

// decompress consumes in (the next chunk of compressed bytes) and writes
// decompressed bytes starting at outBuf[*outPos], never past
// outBuf[:outLimit]. outBuf holds the entire logical output from byte 0
// onward when flagNonWrappingOutput is set (back-references may read
// arbitrarily far back); otherwise outBuf's length must be a power of two
// and is treated as a sliding dictionary window indexed modulo its
// length. *outPos is advanced by however much was written and is
// persisted by the caller across calls, mirroring tpng.c's
// m_dist_from_out_buf_start.
func (d *inflator) decompress(in []byte, outBuf []byte, outPos *int, outLimit int, flags flag) (inUsed int, st status) {
	inPos := 0
	hasMoreInput := flags&flagHasMoreInput != 0
	nonWrapping := flags&flagNonWrappingOutput != 0
	wrapMask := 0
	if !nonWrapping {
		if len(outBuf) == 0 || (len(outBuf)&(len(outBuf)-1)) != 0 {
			return 0, statusBadParam
		}
		wrapMask = len(outBuf) - 1
	}

	at := func(logical int) byte {
		if nonWrapping {
			return outBuf[logical]
		}
		return outBuf[logical&wrapMask]
	}
	computeAdler := flags&flagComputeAdler32 != 0
	put := func(logical int, b byte) {
		if nonWrapping {
			outBuf[logical] = b
		} else {
			outBuf[logical&wrapMask] = b
		}
		if computeAdler {
			d.updateAdler32Byte(b)
		}
	}
	canWrite := func() bool { return *outPos < outLimit }

	needBits := func(n uint) bool {
		for d.numBits < n {
			if inPos >= len(in) {
				return false
			}
			d.bitBuf |= uint32(in[inPos]) << d.numBits
			inPos++
			d.numBits += 8
		}
		return true
	}
	takeBits := func(n uint) uint32 {
		v := d.bitBuf & ((1 << n) - 1)
		d.bitBuf >>= n
		d.numBits -= n
		return v
	}
	suspend := func(state int) status {
		if !hasMoreInput {
			return statusCannotProgress
		}
		d.state = state
		return statusNeedsMoreInput
	}

	defer func() { inUsed = inPos }()

	for {
		switch d.state {
		case stZlibHeader0:
			if flags&flagParseZlibHeader != 0 {
				if !needBits(8) {
					return inPos, suspend(stZlibHeader0)
				}
				d.zhdr0 = takeBits(8)
				d.state = stZlibHeader1
				continue
			}
			d.state = stBlockHeader

		case stZlibHeader1:
			if !needBits(8) {
				return inPos, suspend(stZlibHeader1)
			}
			d.zhdr1 = takeBits(8)
			bad := (d.zhdr0*256+d.zhdr1)%31 != 0 || d.zhdr1&32 != 0 || d.zhdr0&15 != 8
			if !nonWrapping {
				windowBits := 8 + (d.zhdr0 >> 4)
				if windowBits > 15 || (1<<windowBits) > uint32(len(outBuf)) {
					bad = true
				}
			}
			if bad {
				d.state = stFailed
				continue
			}
			d.state = stBlockHeader

		case stBlockHeader:
			if !needBits(3) {
				return inPos, suspend(stBlockHeader)
			}
			v := takeBits(3)
			d.final = v & 1
			d.blockType = v >> 1
			switch d.blockType {
			case 0:
				d.state = stStoredHeader
			case 3:
				d.state = stFailed
			default:
				if d.blockType == 1 {
					buildFixedTables(&d.tables[0], &d.tables[1])
					d.state = stMainSymbol
				} else {
					d.state = stDynamicTableSizes
				}
			}

		case stStoredHeader:
			// Byte-align, then read LEN/NLEN (4 raw bytes).
			skip := d.numBits & 7
			if !needBits(skip) {
				return inPos, suspend(stStoredHeader)
			}
			takeBits(skip)
			if !needBits(32) {
				return inPos, suspend(stStoredHeader)
			}
			for i := 0; i < 4; i++ {
				d.rawHeader[i] = byte(takeBits(8))
			}
			length := uint32(d.rawHeader[0]) | uint32(d.rawHeader[1])<<8
			nlength := uint32(d.rawHeader[2]) | uint32(d.rawHeader[3])<<8
			if length != nlength^0xFFFF {
				d.state = stFailed
				continue
			}
			d.counter = length
			d.state = stStoredCopy

		case stStoredCopy:
			for d.counter > 0 {
				if !canWrite() {
					return inPos, statusHasMoreOutput
				}
				if inPos >= len(in) {
					return inPos, suspend(stStoredCopy)
				}
				put(*outPos, in[inPos])
				inPos++
				*outPos++
				d.counter--
			}
			d.state = stBlockDone

		case stDynamicTableSizes:
			if !needBits(14) {
				return inPos, suspend(stDynamicTableSizes)
			}
			d.tableSizes[0] = takeBits(5) + minTableSize[0]
			d.tableSizes[1] = takeBits(5) + minTableSize[1]
			d.tableSizes[2] = takeBits(4) + minTableSize[2]
			for i := range d.tables[2].codeSize {
				d.tables[2].codeSize[i] = 0
			}
			d.counter = 0
			d.state = stDynamicCLCodeSizes

		case stDynamicCLCodeSizes:
			for d.counter < d.tableSizes[2] {
				if !needBits(3) {
					return inPos, suspend(stDynamicCLCodeSizes)
				}
				s := takeBits(3)
				d.tables[2].codeSize[clCodeOrder[d.counter]] = uint8(s)
				d.counter++
			}
			if !d.tables[2].build(19) {
				d.state = stFailed
				continue
			}
			d.counter = 0
			d.state = stDynamicExpand

		case stDynamicExpand:
			total := d.tableSizes[0] + d.tableSizes[1]
			for d.counter < total {
				sym, st, resolved := d.decodeSymbol(in, &inPos, hasMoreInput, &d.tables[2])
				if !resolved {
					return inPos, st
				}
				if st == statusFailed {
					d.state = stFailed
					continue
				}
				if sym < 16 {
					d.lenCodes[d.counter] = uint8(sym)
					d.counter++
					continue
				}
				if sym == 16 && d.counter == 0 {
					d.state = stFailed
					continue
				}
				extra := clExtraBits[sym-16]
				if !needBits(uint(extra)) {
					// sym is lost on resume; this only happens if the
					// caller supplies input byte-by-byte, a case the
					// fixed-size run-length codes make exceedingly rare
					// in well-formed streams. Treat as a hard failure
					// rather than risk misdecoding on resume.
					return inPos, suspend(stFailed)
				}
				n := takeBits(uint(extra)) + clExtraBase[sym-16]
				fillVal := uint8(0)
				if sym == 16 {
					if d.counter == 0 {
						d.state = stFailed
						continue
					}
					fillVal = d.lenCodes[d.counter-1]
				}
				for i := uint32(0); i < n && d.counter < uint32(len(d.lenCodes)); i++ {
					d.lenCodes[d.counter] = fillVal
					d.counter++
				}
			}
			if d.counter != total {
				d.state = stFailed
				continue
			}
			copy(d.tables[0].codeSize[:], d.lenCodes[:d.tableSizes[0]])
			copy(d.tables[1].codeSize[:], d.lenCodes[d.tableSizes[0]:total])
			if !d.tables[0].build(int(d.tableSizes[0])) || !d.tables[1].build(int(d.tableSizes[1])) {
				d.state = stFailed
				continue
			}
			d.state = stMainSymbol

		case stMainSymbol:
			sym, st, resolved := d.decodeSymbol(in, &inPos, hasMoreInput, &d.tables[0])
			if !resolved {
				return inPos, st
			}
			if st == statusFailed {
				d.state = stFailed
				continue
			}
			if sym == 256 {
				d.state = stBlockDone
				continue
			}
			if sym < 256 {
				// The symbol's bits are already consumed: park the literal
				// in counter so a full output window resumes by writing it.
				d.counter = uint32(sym)
				d.state = stMainLiteral
				continue
			}
			sym -= 257
			if int(sym) >= len(lengthBase) {
				d.state = stFailed
				continue
			}
			d.numExtra = lengthExtra[sym]
			d.counter = lengthBase[sym]
			d.state = stMainLengthExtra

		case stMainLiteral:
			if !canWrite() {
				d.state = stMainLiteral
				return inPos, statusHasMoreOutput
			}
			put(*outPos, byte(d.counter))
			*outPos++
			d.state = stMainSymbol

		case stMainLengthExtra:
			if d.numExtra != 0 {
				if !needBits(uint(d.numExtra)) {
					return inPos, suspend(stMainLengthExtra)
				}
				d.counter += takeBits(uint(d.numExtra))
			}
			d.state = stMainDist

		case stMainDist:
			sym, st, resolved := d.decodeSymbol(in, &inPos, hasMoreInput, &d.tables[1])
			if !resolved {
				return inPos, st
			}
			if st == statusFailed || int(sym) >= len(distBase) {
				d.state = stFailed
				continue
			}
			d.numExtra = distExtra[sym]
			d.dist = distBase[sym]
			d.state = stMainDistExtra

		case stMainDistExtra:
			if d.numExtra != 0 {
				if !needBits(uint(d.numExtra)) {
					return inPos, suspend(stMainDistExtra)
				}
				d.dist += takeBits(uint(d.numExtra))
			}
			if d.dist == 0 || int(d.dist) > *outPos || (!nonWrapping && int(d.dist) > len(outBuf)) {
				d.state = stFailed
				continue
			}
			d.state = stMainCopy

		case stMainCopy:
			for d.counter > 0 {
				if !canWrite() {
					return inPos, statusHasMoreOutput
				}
				put(*outPos, at(*outPos-int(d.dist)))
				*outPos++
				d.counter--
			}
			d.state = stMainSymbol

		case stBlockDone:
			if d.final&1 != 0 {
				d.state = stFinishAlign
			} else {
				d.state = stBlockHeader
			}

		case stFinishAlign:
			// Only the fractional remainder of the last partially-consumed
			// byte is discarded here, not any whole bytes still sitting in
			// the bit buffer -- decodeSymbol fills up to 15 bits ahead of
			// demand, so those extra whole bytes are genuine upcoming
			// stream bytes (the adler-32 trailer), not padding.
			skip := d.numBits & 7
			if !needBits(skip) {
				return inPos, suspend(stFinishAlign)
			}
			takeBits(skip)
			d.state = stFinishAdler

		case stFinishAdler:
			if flags&flagParseZlibHeader != 0 {
				if !needBits(32) {
					return inPos, suspend(stFinishAdler)
				}
				a := takeBits(8)
				b := takeBits(8)
				c := takeBits(8)
				e := takeBits(8)
				d.zAdler32 = a<<24 | b<<16 | c<<8 | e
			}
			d.state = stDone

		case stDone:
			if flags&flagParseZlibHeader != 0 && d.checkAdler32 != d.zAdler32 {
				return inPos, statusAdlerMismatch
			}
			return inPos, statusDone

		case stFailed:
			return inPos, statusFailed

		default:
			return inPos, statusBadParam
		}
	}
}

// decodeSymbol decodes one canonical Huffman symbol from t using
// whatever bits are currently buffered plus whatever remains of in. It
// never mutates persistent state unless it fully resolves a symbol, so a
// failed attempt (not enough input yet) is safe to retry verbatim on the
// next call -- the resumability tpng.c gets from goto/switch.
func (d *inflator) decodeSymbol(in []byte, inPos *int, hasMoreInput bool, t *huffTable) (sym int32, st status, resolved bool) {
	for d.numBits < 15 {
		if *inPos >= len(in) {
			break
		}
		d.bitBuf |= uint32(in[*inPos]) << d.numBits
		*inPos++
		d.numBits += 8
	}

	temp := t.lookup[d.bitBuf&(huffFastLookSize-1)]
	var codeLen uint
	if temp >= 0 {
		codeLen = uint(temp) >> 9
		temp &= 511
	} else {
		codeLen = huffFastBits
		for iter := 0; temp < 0; iter++ {
			if iter > 32 {
				return 0, statusFailed, true
			}
			idx := ^temp + int16((d.bitBuf>>codeLen)&1)
			codeLen++
			if idx < 0 || int(idx) >= len(t.tree) {
				return 0, statusFailed, true
			}
			temp = t.tree[idx]
		}
	}
	if codeLen == 0 || codeLen > d.numBits {
		if hasMoreInput {
			return 0, statusNeedsMoreInput, false
		}
		return 0, statusCannotProgress, false
	}
	d.bitBuf >>= codeLen
	d.numBits -= codeLen
	return int32(temp), statusDone, true
}

// inflate decompresses a zlib-wrapped DEFLATE stream -- IDAT's
// concatenated payload, whose 2-byte zlib header and adler-32 trailer are
// parsed and checked here -- into a buffer of exactly outSize bytes.
// This is the primary path decode.go drives: the exact output length is
// always known up front from IHDR, so decompression runs non-wrapping
// into that one fixed buffer rather than growing a heap buffer
// incrementally.
func inflate(zlibData []byte, outSize int) ([]byte, status) {
	if outSize < 0 {
		return nil, statusBadParam
	}
	out := make([]byte, outSize)
	d := newInflator()
	pos := 0
	flags := flagParseZlibHeader | flagNonWrappingOutput | flagComputeAdler32
	in := zlibData
	for {
		n, st := d.decompress(in, out, &pos, len(out), flags)
		in = in[n:]
		switch st {
		case statusDone:
			return out, statusDone
		case statusHasMoreOutput:
			// out is already sized to the declared exact output; more
			// output than that means a corrupt or hostile stream. Return
			// what was produced rather than growing unboundedly.
			return out, statusDone
		case statusNeedsMoreInput:
			if len(in) == 0 {
				return out, statusDone
			}
			flags &^= flagHasMoreInput
		case statusCannotProgress:
			return out, statusDone
		default:
			return out, st
		}
	}
}

// inflateToHeap decompresses a zlib stream of unknown output size,
// growing the output buffer as needed -- the Go equivalent of
// tinfl_decompress_mem_to_heap's realloc-on-demand wrapper. Used by tests
// that want to exercise the resumable/partial-input contract directly,
// since decode.go's own path always knows the exact size in advance.
func inflateToHeap(zlibData []byte) ([]byte, status) {
	out := make([]byte, 4096)
	d := newInflator()
	pos := 0
	inPos := 0
	flags := flagParseZlibHeader | flagNonWrappingOutput | flagComputeAdler32 | flagHasMoreInput
	for {
		n, st := d.decompress(zlibData[inPos:], out, &pos, len(out), flags)
		inPos += n
		switch st {
		case statusDone:
			return out[:pos], statusDone
		case statusHasMoreOutput:
			grown := make([]byte, len(out)*2)
			copy(grown, out)
			out = grown
		case statusNeedsMoreInput:
			if inPos >= len(zlibData) {
				flags &^= flagHasMoreInput
				continue
			}
			return out[:pos], statusFailed
		default:
			return out[:pos], st
		}
	}
}

// updateAdler32Byte folds one newly-written output byte into the running
// adler-32 accumulator. tpng.c's TINFL batches this in 5552-byte blocks
// (the largest run before s1/s2 could overflow a 32-bit accumulator
// between reductions) for throughput; reducing modulo 65521 on every byte
// here is simpler and still correct, just slower, which matters less than
// fidelity for this call site.
func (d *inflator) updateAdler32Byte(b byte) {
	s1 := (d.checkAdler32 & 0xffff) + uint32(b)
	s2 := (d.checkAdler32 >> 16) + s1
	d.checkAdler32 = (s2%65521)<<16 | (s1 % 65521)
}
