package tinypng

// expandRow converts one reconstructed raw row into RGBA8 pixels, written
// into out (exactly width*4 bytes). Unknown color-type/bit-depth
// combinations leave out untouched, so the caller's pre-zeroed buffer
// stays fully transparent black for that row -- the same "do nothing
// rather than fail" policy spec.md applies everywhere else.
//
// The bit-unpacking arithmetic below follows tpng_expand_row byte for
// byte, including the grayscale scaling formulas (255, v*255/3, v*17) and
// the 16-bit "0xff*high+low" chroma-key comparison, which spec.md §9
// calls out as worth re-deriving rather than guessing at.
func (s *state) expandRow(row []byte, out []byte) {
	img := s.img
	width := img.Width

	switch img.ColorType {
	case ColorGrayscale:
		s.expandGrayscale(row, out, width)
	case ColorTrueColor:
		s.expandTrueColor(row, out, width)
	case ColorPalette:
		s.expandPalette(row, out, width)
	case ColorGrayscaleAlpha:
		s.expandGrayscaleAlpha(row, out, width)
	case ColorTrueColorAlpha:
		s.expandTrueColorAlpha(row, out, width)
	default:
		// Unrecognized color type: row stays pre-zeroed.
	}
}

func (s *state) expandGrayscale(row, out []byte, width int) {
	img := s.img
	bitCount := img.BitDepth * width

	switch img.BitDepth {
	case 1:
		for i, o := 0, 0; i < bitCount; i, o = i+1, o+4 {
			raw := int((row[i/8] >> (7 - uint(i%8))) & 1)
			v := uint8(raw * 255)
			out[o], out[o+1], out[o+2], out[o+3] = v, v, v, 255
			if s.transparentGray == int32(raw) {
				out[o+3] = 0
			}
		}
	case 2:
		for i, o := 0, 0; i < bitCount; i, o = i+2, o+4 {
			raw := int((row[i/8] >> (6 - uint(i%8))) & 3)
			v := uint8(float64(raw) / 3.0 * 255)
			out[o], out[o+1], out[o+2], out[o+3] = v, v, v, 255
			if s.transparentGray == int32(raw) {
				out[o+3] = 0
			}
		}
	case 4:
		for i, o := 0, 0; i < bitCount; i, o = i+4, o+4 {
			raw := int((row[i/8] >> (4 - uint(i%8))) & 15)
			v := uint8(float64(raw) / 15.0 * 255)
			out[o], out[o+1], out[o+2], out[o+3] = v, v, v, 255
			if s.transparentGray == int32(raw) {
				out[o+3] = 0
			}
		}
	case 8:
		for i, o := 0, 0; i < bitCount; i, o = i+8, o+4 {
			v := row[i/8]
			out[o], out[o+1], out[o+2], out[o+3] = v, v, v, 255
			if s.transparentGray == int32(v) {
				out[o+3] = 0
			}
		}
	case 16:
		for i, o := 0, 0; i < bitCount; i, o = i+16, o+4 {
			hi, lo := row[i/8], row[i/8+1]
			raw := int32(hi)*0xff + int32(lo)
			v := hi
			out[o], out[o+1], out[o+2], out[o+3] = v, v, v, 255
			if s.transparentGray == raw {
				out[o+3] = 0
			}
		}
	}
}

func (s *state) expandTrueColor(row, out []byte, width int) {
	img := s.img
	switch img.BitDepth {
	case 8:
		for i, o := 0, 0; i < width; i, o = i+1, o+4 {
			r, g, b := row[i*3], row[i*3+1], row[i*3+2]
			out[o], out[o+1], out[o+2], out[o+3] = r, g, b, 255
			if s.haveTrueColorTransparency &&
				s.transparentRed == int32(r) &&
				s.transparentGreen == int32(g) &&
				s.transparentBlue == int32(b) {
				out[o+3] = 0
			}
		}
	case 16:
		for i, o := 0, 0; i < width; i, o = i+1, o+4 {
			rawR := int32(row[i*6])*0xff + int32(row[i*6+1])
			rawG := int32(row[i*6+2])*0xff + int32(row[i*6+3])
			rawB := int32(row[i*6+4])*0xff + int32(row[i*6+5])
			out[o], out[o+1], out[o+2], out[o+3] = row[i*6], row[i*6+2], row[i*6+4], 255
			if s.haveTrueColorTransparency &&
				s.transparentRed == rawR &&
				s.transparentGreen == rawG &&
				s.transparentBlue == rawB {
				out[o+3] = 0
			}
		}
	}
}

func (s *state) expandPalette(row, out []byte, width int) {
	img := s.img
	bitCount := img.BitDepth * width

	readIndex := func(i int) int {
		switch img.BitDepth {
		case 1:
			return int((row[i/8] >> (7 - uint(i%8))) & 1)
		case 2:
			return int((row[i/8] >> (6 - uint(i%8))) & 3)
		case 4:
			return int((row[i/8] >> (4 - uint(i%8))) & 15)
		default: // 8
			return int(row[i/8])
		}
	}

	step := img.BitDepth
	for i, o := 0, 0; i < bitCount; i, o = i+step, o+4 {
		p := s.paletteAt(readIndex(i))
		out[o], out[o+1], out[o+2], out[o+3] = p.r, p.g, p.b, p.a
	}
}

func (s *state) expandGrayscaleAlpha(row, out []byte, width int) {
	img := s.img
	switch img.BitDepth {
	case 8:
		for i, o := 0, 0; i < width; i, o = i+1, o+4 {
			v, a := row[i*2], row[i*2+1]
			out[o], out[o+1], out[o+2], out[o+3] = v, v, v, a
		}
	case 16:
		// spec.md §4.6/§9: average the two bytes of each sample rather
		// than taking the high byte, unlike every other 16-bit path.
		for i, o := 0, 0; i < width; i, o = i+1, o+4 {
			v := uint8((int(row[i*4]) + int(row[i*4+1])) / 2)
			a := uint8((int(row[i*4+2]) + int(row[i*4+3])) / 2)
			out[o], out[o+1], out[o+2], out[o+3] = v, v, v, a
		}
	}
}

func (s *state) expandTrueColorAlpha(row, out []byte, width int) {
	switch s.img.BitDepth {
	case 8:
		copy(out[:width*4], row[:width*4])
	case 16:
		for i, o := 0, 0; i < width; i, o = i+1, o+4 {
			out[o], out[o+1], out[o+2], out[o+3] = row[i*8], row[i*8+2], row[i*8+4], row[i*8+6]
		}
	}
}
