package classfile

import "errors"

// ErrMalformedClassFile marks a structural defect in the class file: a
// bad magic number, an unknown constant-pool tag, or a truncated
// attribute. It is wrapped (via %w) with the detail of what went wrong,
// so callers can both match on it with errors.Is and print the detail.
var ErrMalformedClassFile = errors.New("malformed class file")
