package index

import "errors"

// ErrNotFound is returned when no metadata row exists for a hash.
var ErrNotFound = errors.New("file not found in index")

// ErrUnknownTag is returned when a tag has never been used: it has no
// membership entry in the registry, as opposed to a known tag that
// currently has zero members.
var ErrUnknownTag = errors.New("tag not known to index")
