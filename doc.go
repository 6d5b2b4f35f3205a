// Package tinypng decodes PNG (v1.2) byte streams into a packed 32-bit
// RGBA pixel buffer.
//
// It is built to be embedded in larger programs that need image ingestion
// without taking on a general image-processing dependency: the decoder is
// a pure function of its input bytes, never touches a filesystem or
// network, and recovers from truncated or adversarial input by returning
// the best image it can rather than an error. Interlaced (Adam7) PNGs are
// read through the same linear row walk as non-interlaced ones and come
// back geometrically scrambled but crash-free; see Image.Interlaced.
package tinypng
