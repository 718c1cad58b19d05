package vector

import "errors"

var (
	// ErrCorruptStore indicates the store directory exists but its layout is
	// unreadable or inconsistent.
	ErrCorruptStore = errors.New("vector: corrupt store")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// dimension established by the store.
	ErrDimensionMismatch = errors.New("vector: dimension mismatch")

	// ErrInvalidArgument indicates a malformed request such as k <= 0.
	ErrInvalidArgument = errors.New("vector: invalid argument")

	// ErrStoreUnavailable indicates the store could not be read or written in
	// time.
	ErrStoreUnavailable = errors.New("vector: store unavailable")
)
