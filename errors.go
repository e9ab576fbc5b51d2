package chainmap

import "errors"

var (
	// ErrInvalidArgument is returned when a required reference (the table
	// handle, a mandatory callback, a predicate) is absent.
	ErrInvalidArgument = errors.New("chainmap: invalid argument")

	// ErrAlreadyExists is returned by Insert when an entry with an equal key
	// is already present. The existing entry is left untouched.
	ErrAlreadyExists = errors.New("chainmap: key already exists")

	// ErrNotFound is returned by Find and Remove when no entry matches the
	// key. It is the "absent value" signal, distinct from ErrInvalidArgument.
	ErrNotFound = errors.New("chainmap: not found")

	// ErrOutOfMemory is returned when a pooled node cannot be acquired.
	// The underlying slab error can be accessed via errors.Unwrap.
	ErrOutOfMemory = errors.New("chainmap: out of memory")

	// ErrClosed is returned by operations on a closed table.
	ErrClosed = errors.New("chainmap: table closed")
)
