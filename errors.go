package tinypng

import "errors"

// ErrNotPNG is returned by Decode when the input does not start with the
// 8-byte PNG signature. It is the only error an ordinary caller needs to
// check for: every other recognized malformed-input condition recovers
// locally and comes back as a (possibly blank) image instead of an error.
var ErrNotPNG = errors.New("tinypng: not a PNG file")

// A FormatError reports that the input violates the PNG container format
// in a way DecodeWithTrace chose to record. It never escapes plain Decode.
type FormatError string

func (e FormatError) Error() string { return "tinypng: invalid format: " + string(e) }

// An UnsupportedError reports a structurally valid but unimplemented PNG
// feature. It never escapes plain Decode.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "tinypng: unsupported feature: " + string(e) }
