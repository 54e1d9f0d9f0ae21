package iobuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyBufferOwnsBytes(t *testing.T) {
	data := []byte("hello")
	b := CopyBuffer(data)

	data[0] = 'X'
	assert.Equal(t, []byte("hello"), b.Bytes(), "CopyBuffer must not alias the input")
	assert.Equal(t, 5, b.Len())
}

func TestTakeOwnershipZeroCopy(t *testing.T) {
	data := []byte("hello")
	b := TakeOwnership(data)

	// Same backing array, no copy
	require.Equal(t, 5, b.Len())
	assert.Same(t, &data[0], &b.Bytes()[0])
}

func TestCloneSharesStorage(t *testing.T) {
	b := CopyBuffer([]byte("shared bytes"))
	require.False(t, b.IsShared())

	c, err := b.Clone()
	require.NoError(t, err)

	assert.True(t, b.IsShared())
	assert.True(t, c.IsShared())
	assert.Equal(t, b.Bytes(), c.Bytes())
	assert.Same(t, &b.Bytes()[0], &c.Bytes()[0], "clone must share storage")
}

func TestAppendRefusedWhileShared(t *testing.T) {
	b := CopyBuffer([]byte("abc"))
	c, err := b.Clone()
	require.NoError(t, err)

	// Mutation through either view is impossible while shared
	assert.ErrorIs(t, b.Append([]byte("x")), ErrShared)
	assert.ErrorIs(t, c.Append([]byte("x")), ErrShared)

	require.NoError(t, c.Release())
	assert.NoError(t, b.Append([]byte("x")))
	assert.Equal(t, []byte("abcx"), b.Bytes())
}

func TestUnshare(t *testing.T) {
	b := CopyBuffer([]byte("abc"))
	c, err := b.Clone()
	require.NoError(t, err)

	require.NoError(t, b.Unshare())
	assert.False(t, b.IsShared())

	// After unsharing, writes through b are invisible through c
	require.NoError(t, b.Append([]byte("def")))
	assert.Equal(t, []byte("abcdef"), b.Bytes())
	assert.Equal(t, []byte("abc"), c.Bytes())
}

func TestUnshareUniqueIsNoop(t *testing.T) {
	b := CopyBuffer([]byte("abc"))
	before := &b.Bytes()[0]

	require.NoError(t, b.Unshare())
	assert.Same(t, before, &b.Bytes()[0], "unique buffer must keep its storage")
}

func TestReleaseLifecycle(t *testing.T) {
	b := CopyBuffer([]byte("abc"))
	c, err := b.Clone()
	require.NoError(t, err)

	require.NoError(t, b.Release())
	assert.ErrorIs(t, b.Release(), ErrReleased)
	assert.ErrorIs(t, b.Append(nil), ErrReleased)
	_, err = b.Clone()
	assert.ErrorIs(t, err, ErrReleased)

	// Survivor still sees the bytes
	assert.Equal(t, []byte("abc"), c.Bytes())
	require.NoError(t, c.Release())
}

func TestTrimStart(t *testing.T) {
	b := CopyBuffer([]byte("hello world"))
	b.TrimStart(6)
	assert.Equal(t, []byte("world"), b.Bytes())

	b.TrimStart(100)
	assert.Equal(t, 0, b.Len())
}

func TestTrimStartNegative(t *testing.T) {
	b := CopyBuffer([]byte("hello"))
	b.TrimStart(-3)

	// A negative trim is a no-op, and the view stays valid
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, []byte("hello"), b.Bytes())
}

func TestAppendGrowsStorage(t *testing.T) {
	b := New(2)
	require.NoError(t, b.Append([]byte("abcdefgh")))
	require.NoError(t, b.Append([]byte("ij")))
	assert.Equal(t, []byte("abcdefghij"), b.Bytes())
}

func TestChainAppendAndIterate(t *testing.T) {
	a := CopyBuffer([]byte("one"))
	b := CopyBuffer([]byte("two"))
	c := CopyBuffer([]byte("three"))

	a.AppendToChain(b)
	a.AppendToChain(c)

	assert.Equal(t, 3, a.ChainLength())
	assert.Equal(t, len("onetwothree"), a.ChainByteLength())

	var parts []string
	a.ForEach(func(p []byte) {
		parts = append(parts, string(p))
	})
	assert.Equal(t, []string{"one", "two", "three"}, parts)
}

func TestCoalesce(t *testing.T) {
	a := CopyBuffer([]byte("one"))
	a.AppendToChain(CopyBuffer([]byte("two")))

	flat, err := a.Coalesce()
	require.NoError(t, err)

	assert.Equal(t, []byte("onetwo"), flat.Bytes())
	assert.Equal(t, 1, flat.ChainLength())

	// Original chain untouched
	assert.Equal(t, 2, a.ChainLength())
	assert.Equal(t, []byte("one"), a.Bytes())
}

func TestCoalesceSingleUniqueReturnsSelf(t *testing.T) {
	a := CopyBuffer([]byte("solo"))
	flat, err := a.Coalesce()
	require.NoError(t, err)
	assert.Same(t, a, flat)
}
