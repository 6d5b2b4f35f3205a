package tinypng

// bytesPerPixel computes Bpp, the reconstruction stride filters Sub/
// Average/Paeth look back by: samplesPerPixel*bitDepth bits, rounded up
// to a byte, minimum 1.
func bytesPerPixel(colorType, bitDepth int) int {
	bpp := bitDepth
	switch colorType {
	case ColorTrueColor, ColorTrueColorAlpha:
		bpp *= 3
	}
	if colorType&4 != 0 { // types 4 and 6 carry an alpha channel
		bpp += bitDepth
	}
	if bpp < 8 {
		return 1
	}
	return bpp / 8
}

// bytesPerRow computes the raw (pre-filter-byte) length of one scanline.
func bytesPerRow(colorType, bitDepth, width int) int {
	bits := bitDepth
	switch colorType {
	case ColorTrueColor, ColorTrueColorAlpha:
		bits *= 3
	}
	if colorType&4 != 0 {
		bits += bitDepth
	}
	bits *= width
	if bits < 8 {
		return 1
	}
	if bits%8 != 0 {
		return bits/8 + 1
	}
	return bits / 8
}

// paethPredictor picks whichever of a, b, c is closest to a+b-c,
// preferring a, then b, then c on ties.
func paethPredictor(a, b, c int) int {
	p := a + b - c
	pa := abs(p - a)
	pb := abs(p - b)
	pc := abs(p - c)
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// reconstructRow undoes one of the five PNG filters in place over cur,
// using prev (the already-reconstructed previous row, all zero for the
// first row) and bpp (bytesPerPixel). An unrecognized filter byte is
// treated as None for that row rather than failing the whole decode.
func reconstructRow(filterType int, cur, prev []byte, bpp int) {
	switch filterType {
	case 0: // None
	case 1: // Sub
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case 2: // Up
		for i := range cur {
			cur[i] += prev[i]
		}
	case 3: // Average
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += uint8(int(prev[i]) / 2)
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += uint8((int(cur[i-bpp]) + int(prev[i])) / 2)
		}
	case 4: // Paeth
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += uint8(paethPredictor(0, int(prev[i]), 0))
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += uint8(paethPredictor(int(cur[i-bpp]), int(prev[i]), int(prev[i-bpp])))
		}
	default:
		// Unknown filter byte: leave cur unmodified, as if None.
	}
}
