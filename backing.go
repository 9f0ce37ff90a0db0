package ownedread

import (
	"fmt"
	"io"
	"os"
)

// Backing is an owned byte container whose contents never move or change
// once handed to New. Bytes must return the same slice for the container's
// whole life. Types that may reallocate on mutation, or that the caller
// keeps writing to, do not qualify.
type Backing interface {
	Bytes() []byte
}

// Bytes adapts a plain slice. Converting a slice to Bytes hands its
// ownership over: the caller must not write to it afterwards.
type Bytes []byte

func (b Bytes) Bytes() []byte { return b }

// Copy returns a Bytes holding a private copy of p, for callers that
// cannot give up p itself.
func Copy(p []byte) Bytes {
	return Bytes(cloneBytes(p))
}

func cloneBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// FromBytes is New(Bytes(p)).
func FromBytes(p []byte) *OwnedRead {
	return New(Bytes(p))
}

// ReadFile reads the named file into memory and returns a reader over it.
func ReadFile(name string) (*OwnedRead, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read backing file: %w", err)
	}
	return FromBytes(b), nil
}

// ReadFrom drains r and returns a reader over everything it produced.
func ReadFrom(r io.Reader) (*OwnedRead, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("drain backing reader: %w", err)
	}
	return FromBytes(b), nil
}
