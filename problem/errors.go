package problem

import "errors"

var (
	// ErrInvalidConfiguration is returned at construction when the search
	// cannot proceed meaningfully.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrIndexOutOfRange reports a site index outside the catalog. It means a
	// move generator bug and must not be retried.
	ErrIndexOutOfRange = errors.New("site index out of range")
)
