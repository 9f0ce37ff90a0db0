package ownedread

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrKeyRequired is returned by ReaderCache for an empty key.
var ErrKeyRequired = errors.New("key is required")

// ErrBackingRequired is returned when a nil Backing is handed to ReaderCache.
var ErrBackingRequired = errors.New("backing is required")

// ErrCacheClosed is returned by ReaderCache after Close.
var ErrCacheClosed = errors.New("reader cache closed")

// BoundsError is the panic value raised when an offset or length reaches
// past the current view. It signals a caller bug and is never returned.
type BoundsError struct {
	Op  string // "clip", "advance", "get", "slice"
	N   int    // offending argument
	Len int    // view length at the time of the call
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("ownedread: %s %d out of range for view of length %d", e.Op, e.N, e.Len)
}

// outOfRange logs and panics with a *BoundsError.
func outOfRange(op string, n, length int) {
	err := &BoundsError{Op: op, N: n, Len: length}
	logger.WithFields(logrus.Fields{"op": op, "n": n, "len": length}).Error("view bounds violated")
	panic(err)
}
