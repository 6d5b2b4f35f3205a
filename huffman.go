package tinypng

// Canonical Huffman table construction and decoding, translated from the
// TINFL decompressor embedded in original_source/tpng.c (itself derived
// from miniz/RAD Game Tools' public-domain tinfl.c). Spec.md §4.2
// describes this as "a two-layer decoder: a 1024-entry direct lookup for
// codes <= 10 bits ... plus a binary tree for longer codes, indexed by
// negative offsets from the lookup slots" -- that is exactly tpng.c's
// m_look_up/m_tree scheme, kept intact here.
const (
	huffMaxSymbols0  = 288 // literal/length alphabet
	huffMaxSymbols1  = 32  // distance alphabet
	huffMaxSymbols2  = 19  // code-length alphabet
	huffFastBits     = 10
	huffFastLookSize = 1 << huffFastBits
)

type huffTable struct {
	codeSize [huffMaxSymbols0]uint8
	lookup   [huffFastLookSize]int16
	tree     [huffMaxSymbols0 * 2]int16
}

func (t *huffTable) reset() {
	for i := range t.lookup {
		t.lookup[i] = 0
	}
	for i := range t.tree {
		t.tree[i] = 0
	}
}

// build turns t.codeSize[:size] into the lookup/tree decode structure. It
// returns false (and leaves the table unusable) when the code-length
// multiset doesn't form a valid canonical Huffman code -- over- or
// under-subscribed code spaces, or a tree deep enough to overrun the
// fixed-size tree array on adversarial input. A table with at most one
// used code is accepted even though it under-subscribes the code space.
func (t *huffTable) build(size int) bool {
	t.reset()

	var totalSyms [16]uint32
	for i := 0; i < size; i++ {
		totalSyms[t.codeSize[i]]++
	}

	var usedSyms, total uint32
	var nextCode [17]uint32
	for i := 1; i <= 15; i++ {
		usedSyms += totalSyms[i]
		total = (total + totalSyms[i]) << 1
		nextCode[i+1] = total
	}
	if total != 65536 && usedSyms > 1 {
		return false
	}

	treeNext := -1
	for symIndex := 0; symIndex < size; symIndex++ {
		codeSize := t.codeSize[symIndex]
		if codeSize == 0 {
			continue
		}
		curCode := nextCode[codeSize]
		nextCode[codeSize]++

		var revCode uint32
		for l := codeSize; l > 0; l-- {
			revCode = (revCode << 1) | (curCode & 1)
			curCode >>= 1
		}

		if codeSize <= huffFastBits {
			k := int16(uint32(codeSize)<<9 | uint32(symIndex))
			for revCode < huffFastLookSize {
				t.lookup[revCode] = k
				revCode += 1 << codeSize
			}
			continue
		}

		idx := revCode & (huffFastLookSize - 1)
		treeCur := t.lookup[idx]
		if treeCur == 0 {
			if !validTreeSlot(treeNext, len(t.tree)) {
				return false
			}
			t.lookup[idx] = int16(treeNext)
			treeCur = int16(treeNext)
			treeNext -= 2
		}

		revCode >>= huffFastBits - 1
		for j := codeSize; j > huffFastBits+1; j-- {
			revCode >>= 1
			treeCur -= int16(revCode & 1)
			if !validTreeIndex(treeCur, len(t.tree)) {
				return false
			}
			if t.tree[-treeCur-1] == 0 {
				if !validTreeSlot(treeNext, len(t.tree)) {
					return false
				}
				t.tree[-treeCur-1] = int16(treeNext)
				treeCur = int16(treeNext)
				treeNext -= 2
			} else {
				treeCur = t.tree[-treeCur-1]
			}
		}
		revCode >>= 1
		treeCur -= int16(revCode & 1)
		if !validTreeIndex(treeCur, len(t.tree)) {
			return false
		}
		t.tree[-treeCur-1] = int16(symIndex)
	}
	return true
}

func validTreeSlot(treeNext, treeLen int) bool {
	return validTreeIndex(int16(treeNext), treeLen)
}

func validTreeIndex(cur int16, treeLen int) bool {
	i := -int(cur) - 1
	return i >= 0 && i < treeLen
}

// buildFixedTables installs the fixed Huffman tables defined by RFC 1951
// §3.2.6 for DEFLATE block type 1.
func buildFixedTables(lit, dist *huffTable) {
	i := 0
	for ; i <= 143; i++ {
		lit.codeSize[i] = 8
	}
	for ; i <= 255; i++ {
		lit.codeSize[i] = 9
	}
	for ; i <= 279; i++ {
		lit.codeSize[i] = 7
	}
	for ; i <= 287; i++ {
		lit.codeSize[i] = 8
	}
	for i := range dist.codeSize {
		dist.codeSize[i] = 5
	}
	lit.build(288)
	dist.build(32)
}
