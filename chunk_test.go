package tinypng

import (
	"encoding/binary"
	"hash/crc32"
	"testing"
)

func encodeChunk(typ string, data []byte) []byte {
	buf := make([]byte, 4+4+len(data)+4)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(data)))
	copy(buf[4:8], typ)
	copy(buf[8:], data)
	h := crc32.NewIEEE()
	h.Write([]byte(typ))
	h.Write(data)
	binary.BigEndian.PutUint32(buf[8+len(data):], h.Sum32())
	return buf
}

func TestReadChunkRoundTrip(t *testing.T) {
	raw := encodeChunk("tEXt", []byte("hello"))
	c := newCursor(raw)
	ch := readChunk(c)
	if ch.typ != "tEXt" {
		t.Fatalf("typ = %q", ch.typ)
	}
	if string(ch.data) != "hello" {
		t.Fatalf("data = %q", ch.data)
	}
	if !ch.verifyCRC() {
		t.Fatalf("expected valid CRC")
	}
}

func TestReadChunkBadCRC(t *testing.T) {
	raw := encodeChunk("IDAT", []byte{1, 2, 3})
	raw[len(raw)-1] ^= 0xFF
	c := newCursor(raw)
	ch := readChunk(c)
	if ch.verifyCRC() {
		t.Fatalf("expected CRC mismatch to be detected")
	}
}

func TestReadChunkOverrunLength(t *testing.T) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], 1000)
	copy(buf[4:8], "IDAT")
	c := newCursor(buf)
	ch := readChunk(c)
	if ch.data != nil {
		t.Fatalf("expected nil data on overrun length, got %v", ch.data)
	}
}

func TestReadChunkZeroTypeBecomesIEND(t *testing.T) {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint32(buf[0:4], 0)
	c := newCursor(buf)
	ch := readChunk(c)
	if ch.typ != "IEND" {
		t.Fatalf("typ = %q, want IEND", ch.typ)
	}
}
