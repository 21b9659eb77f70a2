package cdr

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrBufferFull is returned when a write would exceed the buffer capacity.
// The buffer is left unchanged when this error is returned.
var ErrBufferFull = errors.New("cdr: buffer full")

// ErrShortBuffer is returned when a read runs past the written length.
var ErrShortBuffer = errors.New("cdr: short buffer")

// Buffer is fixed-capacity scratch storage with a write cursor (Length) and
// a read cursor (Pos). It never grows.
type Buffer struct {
	data   []byte
	length int
	pos    int
}

// New allocates a buffer holding at most capacity bytes.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Capacity returns the fixed size of the buffer.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// Length returns the number of bytes written.
func (b *Buffer) Length() int {
	return b.length
}

// Free returns the number of bytes that can still be written.
func (b *Buffer) Free() int {
	return len(b.data) - b.length
}

// Pos returns the read cursor.
func (b *Buffer) Pos() int {
	return b.pos
}

// Bytes returns the written portion. The slice aliases the buffer and is
// only valid until the next write or reset.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.length]
}

// Reset truncates the buffer to zero length and rewinds the read cursor.
func (b *Buffer) Reset() {
	b.length = 0
	b.pos = 0
}

// Truncate shrinks the written length to n. It is used to drop everything
// after a fixed prefix such as a message header.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.length {
		panic(fmt.Sprintf("cdr: truncate %d out of range [0,%d]", n, b.length))
	}
	b.length = n
	if b.pos > n {
		b.pos = n
	}
}

// Seek moves the read cursor.
func (b *Buffer) Seek(pos int) error {
	if pos < 0 || pos > b.length {
		return ErrShortBuffer
	}
	b.pos = pos
	return nil
}

func (b *Buffer) reserve(n int) ([]byte, error) {
	if n > b.Free() {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrBufferFull, n, b.Free())
	}
	p := b.data[b.length : b.length+n]
	b.length += n
	return p, nil
}

// Write appends p in full or not at all.
func (b *Buffer) Write(p []byte) (int, error) {
	dst, err := b.reserve(len(p))
	if err != nil {
		return 0, err
	}
	return copy(dst, p), nil
}

// WriteByte appends one byte.
func (b *Buffer) WriteByte(c byte) error {
	dst, err := b.reserve(1)
	if err != nil {
		return err
	}
	dst[0] = c
	return nil
}

// WriteUint16 appends v in little-endian order.
func (b *Buffer) WriteUint16(v uint16) error {
	dst, err := b.reserve(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(dst, v)
	return nil
}

// WriteUint32 appends v in little-endian order.
func (b *Buffer) WriteUint32(v uint32) error {
	dst, err := b.reserve(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst, v)
	return nil
}

// WriteInt32 appends v in little-endian order.
func (b *Buffer) WriteInt32(v int32) error {
	return b.WriteUint32(uint32(v))
}

// WriteZeros appends n zero bytes, used for alignment padding.
func (b *Buffer) WriteZeros(n int) error {
	dst, err := b.reserve(n)
	if err != nil {
		return err
	}
	clear(dst)
	return nil
}

// PutUint16At overwrites two already-written bytes at off. It is used to
// patch length fields once the size of what follows is known.
func (b *Buffer) PutUint16At(off int, v uint16) error {
	if off < 0 || off+2 > b.length {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(b.data[off:], v)
	return nil
}

// Next reads n bytes from the read cursor.
func (b *Buffer) Next(n int) ([]byte, error) {
	if n < 0 || b.pos+n > b.length {
		return nil, ErrShortBuffer
	}
	p := b.data[b.pos : b.pos+n]
	b.pos += n
	return p, nil
}

// ReadUint16 reads a little-endian uint16 at the read cursor.
func (b *Buffer) ReadUint16() (uint16, error) {
	p, err := b.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

// ReadUint32 reads a little-endian uint32 at the read cursor.
func (b *Buffer) ReadUint32() (uint32, error) {
	p, err := b.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}
