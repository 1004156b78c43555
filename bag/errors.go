package bag

import "errors"

var (
	// ErrNotFound signals an unknown cache key or a missing source file/URL.
	ErrNotFound = errors.New("not found")
	// ErrIO signals a failure while reading from a file or URL.
	ErrIO = errors.New("read error")
	// ErrDecode signals bytes that do not parse as a known raster format.
	ErrDecode = errors.New("decode error")
	// ErrEncode signals that the target encoder rejected its parameters.
	ErrEncode = errors.New("encode error")
)
