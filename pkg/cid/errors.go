package cid

import "errors"

// ErrUnparsable is returned by Parse when the input is neither an absolute URL
// nor a reference that resolves against the origin hint.
var ErrUnparsable = errors.New("cid: url cannot be parsed")
