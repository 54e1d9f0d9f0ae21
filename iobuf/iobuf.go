// Package iobuf implements a reference-counted contiguous byte region
// with zero-copy views, the buffer half of the binding bridge.
//
// An IOBuf is a view (offset and length) over shared storage. Cloning an
// IOBuf shares the storage and bumps its reference count instead of
// copying bytes; the storage is recycled only when the last view releases
// it. Mutation is only permitted while the storage has exactly one view,
// so a caller holding a zero-copy view can never observe writes made
// through another handle.
//
// Buffers chain: a chain is a circular doubly-linked list of IOBufs
// representing one logical byte stream without requiring the bytes to be
// contiguous. Coalesce flattens a chain when contiguity is needed.
package iobuf

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrShared is returned by mutating operations on a buffer whose
	// storage is visible through more than one view.
	ErrShared = errors.New("iobuf: storage is shared")

	// ErrReleased is returned when operating on a released buffer.
	ErrReleased = errors.New("iobuf: buffer already released")
)

// storage is the shared, reference-counted byte region.
type storage struct {
	buf  []byte
	refs atomic.Int64
}

func newStorage(buf []byte) *storage {
	s := &storage{buf: buf}
	s.refs.Store(1)
	return s
}

// IOBuf is a view over reference-counted storage, optionally linked into
// a chain. The zero value is not usable; construct with New, CopyBuffer
// or TakeOwnership.
type IOBuf struct {
	store  *storage
	off    int
	length int

	next *IOBuf
	prev *IOBuf
}

// New creates an empty writable buffer with the given capacity.
func New(capacity int) *IOBuf {
	if capacity < 0 {
		capacity = 0
	}
	b := &IOBuf{store: newStorage(make([]byte, 0, capacity))}
	b.next = b
	b.prev = b
	return b
}

// CopyBuffer creates a buffer holding a copy of data. The caller keeps
// ownership of the input slice.
func CopyBuffer(data []byte) *IOBuf {
	buf := make([]byte, len(data))
	copy(buf, data)
	b := &IOBuf{store: newStorage(buf), length: len(buf)}
	b.next = b
	b.prev = b
	return b
}

// TakeOwnership wraps data without copying. The caller must not touch
// the slice afterwards; the buffer owns it from here on.
func TakeOwnership(data []byte) *IOBuf {
	b := &IOBuf{store: newStorage(data), length: len(data)}
	b.next = b
	b.prev = b
	return b
}

// Len returns the number of bytes visible through this view.
func (b *IOBuf) Len() int {
	return b.length
}

// Bytes returns the view's bytes without copying. The slice aliases the
// shared storage: it is valid until the buffer is released and must be
// treated as read-only while IsShared reports true.
func (b *IOBuf) Bytes() []byte {
	if b.store == nil {
		return nil
	}
	return b.store.buf[b.off : b.off+b.length]
}

// IsShared reports whether another view references the same storage.
func (b *IOBuf) IsShared() bool {
	return b.store != nil && b.store.refs.Load() > 1
}

// Clone returns a new view of the same storage, bumping its reference
// count. No bytes are copied.
func (b *IOBuf) Clone() (*IOBuf, error) {
	if b.store == nil {
		return nil, ErrReleased
	}
	b.store.refs.Add(1)
	c := &IOBuf{store: b.store, off: b.off, length: b.length}
	c.next = c
	c.prev = c
	return c, nil
}

// Unshare copies the view's bytes into fresh storage if the current
// storage is shared, making the buffer writable again. A no-op on a
// uniquely-owned buffer.
func (b *IOBuf) Unshare() error {
	if b.store == nil {
		return ErrReleased
	}
	if !b.IsShared() {
		return nil
	}

	buf := make([]byte, b.length)
	copy(buf, b.Bytes())

	b.store.refs.Add(-1)
	b.store = newStorage(buf)
	b.off = 0
	return nil
}

// Append writes data at the end of the view, growing the storage as
// needed. Fails with ErrShared when the storage is visible through
// another view; call Unshare first.
func (b *IOBuf) Append(data []byte) error {
	if b.store == nil {
		return ErrReleased
	}
	if b.IsShared() {
		return ErrShared
	}

	end := b.off + b.length
	if end+len(data) <= cap(b.store.buf) {
		b.store.buf = b.store.buf[:end+len(data)]
	} else {
		grown := make([]byte, end+len(data), (end+len(data))*2)
		copy(grown, b.store.buf[:end])
		b.store.buf = grown
	}

	copy(b.store.buf[end:], data)
	b.length += len(data)
	return nil
}

// TrimStart advances the view past the first n bytes without touching
// the storage. n is clamped to [0, Len()].
func (b *IOBuf) TrimStart(n int) {
	if n < 0 {
		n = 0
	}
	if n > b.length {
		n = b.length
	}
	b.off += n
	b.length -= n
}

// Release drops this view's reference. The storage is recycled once the
// last view of it is released. Releasing twice returns ErrReleased.
func (b *IOBuf) Release() error {
	if b.store == nil {
		return ErrReleased
	}
	if b.store.refs.Add(-1) == 0 {
		b.store.buf = nil
	}
	b.store = nil
	b.length = 0
	b.off = 0
	return nil
}
