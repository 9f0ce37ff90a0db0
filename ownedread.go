// Package ownedread provides OwnedRead, a cloneable cursor over bytes it
// owns. The reader keeps the backing container alive and exposes a window
// [start, end) into it; reads and seeks only narrow the window, and clones
// share the container but move independently.
//
// OwnedRead is not safe for concurrent use. Clones may be handed to
// different goroutines, since the shared backing bytes are never written.
package ownedread

import (
	"errors"
	"io"
)

var (
	_ io.Reader     = (*OwnedRead)(nil)
	_ io.ByteReader = (*OwnedRead)(nil)
	_ io.ReaderAt   = (*OwnedRead)(nil)
	_ io.WriterTo   = (*OwnedRead)(nil)
)

// shared is the allocation every clone points at. data is resolved from
// the backing once; the backing field keeps the container reachable for as
// long as any reader is.
type shared struct {
	backing Backing
	data    []byte
}

// OwnedRead reads from a view over an owned Backing. The zero value is an
// empty reader.
type OwnedRead struct {
	buf        *shared
	start, end int
}

// New takes ownership of b and returns a reader whose view is all of it.
func New(b Backing) *OwnedRead {
	data := b.Bytes()
	return &OwnedRead{
		buf: &shared{backing: b, data: data},
		end: len(data),
	}
}

// Clone returns a reader over the same backing with the same view. The two
// readers advance and clip independently.
func (r *OwnedRead) Clone() *OwnedRead {
	c := *r
	return &c
}

func (r *OwnedRead) view() []byte {
	if r.buf == nil {
		return nil
	}
	return r.buf.data[r.start:r.end:r.end]
}

// Len returns the number of unread bytes in the view.
func (r *OwnedRead) Len() int {
	return r.end - r.start
}

// Size returns the length of the whole backing store.
func (r *OwnedRead) Size() int {
	if r.buf == nil {
		return 0
	}
	return len(r.buf.data)
}

func (r *OwnedRead) IsEmpty() bool {
	return r.end == r.start
}

// Clip keeps only the first n bytes of the view. It panics with a
// *BoundsError if n exceeds Len.
func (r *OwnedRead) Clip(n int) {
	if n < 0 || n > r.Len() {
		outOfRange("clip", n, r.Len())
	}
	r.end = r.start + n
}

// Advance drops the first n bytes of the view. It panics with a
// *BoundsError if n exceeds Len.
func (r *OwnedRead) Advance(n int) {
	if n < 0 || n > r.Len() {
		outOfRange("advance", n, r.Len())
	}
	r.start += n
}

// SliceFrom returns the view from offset off to its end, without copying.
// The slice aliases the backing store and must not be written to; its
// capacity stops at the view end.
func (r *OwnedRead) SliceFrom(off int) []byte {
	if off < 0 || off > r.Len() {
		outOfRange("slice", off, r.Len())
	}
	return r.view()[off:]
}

// Get returns the byte at view offset idx.
func (r *OwnedRead) Get(idx int) byte {
	if idx < 0 || idx >= r.Len() {
		outOfRange("get", idx, r.Len())
	}
	return r.buf.data[r.start+idx]
}

// Bytes returns the current view without copying. Same aliasing rules as
// SliceFrom.
func (r *OwnedRead) Bytes() []byte {
	return r.view()
}

// String returns a copy of the view as a string.
func (r *OwnedRead) String() string {
	return string(r.view())
}

// Read copies up to len(p) bytes from the front of the view and advances
// past them. It returns io.EOF once the view is empty.
func (r *OwnedRead) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.IsEmpty() {
		return 0, io.EOF
	}
	n := copy(p, r.view())
	r.start += n
	return n, nil
}

func (r *OwnedRead) ReadByte() (byte, error) {
	if r.IsEmpty() {
		return 0, io.EOF
	}
	b := r.buf.data[r.start]
	r.start++
	return b, nil
}

// ReadExact fills p from the view. If fewer than len(p) bytes remain it
// still consumes them, leaving them in p, and returns io.ErrUnexpectedEOF.
func (r *OwnedRead) ReadExact(p []byte) error {
	n := copy(p, r.view())
	r.start += n
	if n < len(p) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// ReadToEnd appends the rest of the view to dst and empties the view.
// It returns the extended slice and the number of bytes appended.
func (r *OwnedRead) ReadToEnd(dst []byte) ([]byte, int) {
	v := r.view()
	r.start = r.end
	return append(dst, v...), len(v)
}

// WriteTo writes the view to w and advances past whatever w accepted.
func (r *OwnedRead) WriteTo(w io.Writer) (int64, error) {
	v := r.view()
	if len(v) == 0 {
		return 0, nil
	}
	n, err := w.Write(v)
	if n < 0 || n > len(v) {
		panic("ownedread: invalid Write count")
	}
	r.start += n
	if err == nil && n != len(v) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// ReadAt reads from view offset off without moving the cursor.
func (r *OwnedRead) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("ownedread: negative offset")
	}
	if off >= int64(r.Len()) {
		return 0, io.EOF
	}
	n := copy(p, r.view()[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
