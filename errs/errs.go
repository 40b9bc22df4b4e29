// Package errs defines the sentinel errors callers above the engine
// match on: OutOfSpace, MediaWrite, NotFound, and blank-key rejection.
// kvsctl returns them as-is, so errors.Is and plain equality both match.
package errs

import "github.com/pkg/errors"

var (
	// ErrOutOfSpace means there was insufficient data or log room left
	// even after a compaction attempt.
	ErrOutOfSpace = errors.New("kvs: out of space")

	// ErrMediaWrite means a bank Write/Erase call failed, or a
	// read-after-write verification mismatched.
	ErrMediaWrite = errors.New("kvs: media write failed")

	// ErrNotFound means Find/Read located no valid version of a key.
	ErrNotFound = errors.New("kvs: key not found")

	// ErrKeyBlank means the caller tried to use the reserved all-0xFF
	// sentinel key, which can never name a real object.
	ErrKeyBlank = errors.New("kvs: blank key is reserved")
)
