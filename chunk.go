package tinypng

import (
	"encoding/binary"
	"hash/crc32"
)

var pngSignature = [8]byte{137, 80, 78, 71, 13, 10, 26, 10}

// chunk is one PNG container record: a 4-byte type tag, its payload, and
// the (usually unchecked) trailing CRC.
type chunk struct {
	typ  string
	data []byte
	crc  uint32
}

// readChunk reads one chunk from c. If the declared length overruns what
// remains, the payload is clamped to empty rather than read out of
// bounds. If the type tag comes back as all zero bytes -- truncation or
// corruption landing exactly on a chunk boundary -- it is rewritten to
// "IEND" so the caller's chunk loop terminates cleanly instead of
// spinning on garbage.
func readChunk(c *cursor) chunk {
	lengthBytes := c.advanceGuaranteed(4)
	length := binary.BigEndian.Uint32(lengthBytes)

	typeBytes := c.advanceGuaranteed(4)

	var data []byte
	if length > uint32(c.remaining()) {
		data = nil
	} else if b, ok := c.advance(int(length)); ok {
		data = b
	}

	crcBytes := c.advanceGuaranteed(4)
	crcVal := binary.BigEndian.Uint32(crcBytes)

	if typeBytes[0] == 0 && typeBytes[1] == 0 && typeBytes[2] == 0 && typeBytes[3] == 0 {
		return chunk{typ: "IEND", data: nil, crc: crcVal}
	}
	return chunk{typ: string(typeBytes), data: data, crc: crcVal}
}

// verifyCRC reports whether chunk's trailing CRC matches its type and
// data. Decode calls it only when Options.VerifyCRC is set, and
// DecodeWithTrace calls it for every chunk to fill Trace.CRCFailures;
// spec-level robustness never depends on the result.
func (ch chunk) verifyCRC() bool {
	h := crc32.NewIEEE()
	h.Write([]byte(ch.typ))
	h.Write(ch.data)
	return h.Sum32() == ch.crc
}
