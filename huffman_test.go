package tinypng

import "testing"

func TestBuildFixedTables(t *testing.T) {
	var lit, dist huffTable
	buildFixedTables(&lit, &dist)
	// Spot-check a couple of fixed code lengths from RFC 1951 §3.2.6.
	if lit.codeSize[0] != 8 {
		t.Errorf("lit.codeSize[0] = %d, want 8", lit.codeSize[0])
	}
	if lit.codeSize[144] != 9 {
		t.Errorf("lit.codeSize[144] = %d, want 9", lit.codeSize[144])
	}
	if lit.codeSize[256] != 7 {
		t.Errorf("lit.codeSize[256] = %d, want 7", lit.codeSize[256])
	}
	if dist.codeSize[0] != 5 {
		t.Errorf("dist.codeSize[0] = %d, want 5", dist.codeSize[0])
	}
}

func TestHuffTableBuildSingleSymbol(t *testing.T) {
	var tbl huffTable
	tbl.codeSize[0] = 1
	if !tbl.build(1) {
		t.Fatalf("build with one symbol should succeed")
	}
}

func TestHuffTableBuildOversubscribedFails(t *testing.T) {
	var tbl huffTable
	for i := range tbl.codeSize {
		tbl.codeSize[i] = 0
	}
	// Every symbol given a 1-bit code: an oversubscribed code space.
	tbl.codeSize[0] = 1
	tbl.codeSize[1] = 1
	tbl.codeSize[2] = 1
	if tbl.build(3) {
		t.Fatalf("oversubscribed code table should fail to build")
	}
}

func TestHuffTableBuildEmpty(t *testing.T) {
	var tbl huffTable
	for i := range tbl.codeSize {
		tbl.codeSize[i] = 0
	}
	if !tbl.build(19) {
		t.Fatalf("an all-zero code-length table (no codes used) should still build")
	}
}
