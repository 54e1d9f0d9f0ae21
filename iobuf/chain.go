package iobuf

// Chain operations. A chain is a circular doubly-linked list of views
// representing one logical byte stream. Every IOBuf starts as a chain of
// one; AppendToChain splices another chain in before this element.

// AppendToChain splices other's chain at the end of b's chain. After the
// call, iterating from b visits b's elements followed by other's.
func (b *IOBuf) AppendToChain(other *IOBuf) {
	if other == nil || other == b {
		return
	}

	bTail := b.prev
	oTail := other.prev

	bTail.next = other
	other.prev = bTail
	oTail.next = b
	b.prev = oTail
}

// ChainLength returns the number of elements in the chain.
func (b *IOBuf) ChainLength() int {
	n := 1
	for cur := b.next; cur != b; cur = cur.next {
		n++
	}
	return n
}

// ChainByteLength returns the total number of bytes across the chain.
func (b *IOBuf) ChainByteLength() int {
	total := b.length
	for cur := b.next; cur != b; cur = cur.next {
		total += cur.length
	}
	return total
}

// ForEach calls fn with each element's bytes in chain order. The slices
// alias shared storage and must not be retained past the call.
func (b *IOBuf) ForEach(fn func([]byte)) {
	fn(b.Bytes())
	for cur := b.next; cur != b; cur = cur.next {
		fn(cur.Bytes())
	}
}

// Coalesce flattens the chain into a single contiguous buffer. The
// returned buffer owns fresh storage; the original chain is left intact.
// A chain of one that is uniquely owned is returned as-is, since it is
// already contiguous.
func (b *IOBuf) Coalesce() (*IOBuf, error) {
	if b.store == nil {
		return nil, ErrReleased
	}

	if b.next == b && !b.IsShared() {
		return b, nil
	}

	buf := make([]byte, 0, b.ChainByteLength())
	b.ForEach(func(p []byte) {
		buf = append(buf, p...)
	})

	return TakeOwnership(buf), nil
}
