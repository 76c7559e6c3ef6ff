// Package buffer implements the growable dual-cursor byte store used by msgbuf
// for both encoding (write cursor) and streaming decoding (read cursor).
//
// Layout and access rules:
//   - One backing array, two independent cursors: r (next read) and w (next
//     write), with 0 <= r <= w <= cap at all times.
//   - Writes grow the backing array geometrically (at least doubling, rounded
//     up to 64-byte alignment) and never fail; allocation failure panics.
//   - Reads and peeks fail with ErrNeedMore when fewer than the requested
//     bytes sit between r and w. ErrNeedMore is the recoverable "feed me more
//     bytes and retry" signal the streaming decoder is built on.
//   - All multi-byte integers are big-endian (network byte order).
//   - PutUint*At write at an absolute offset strictly inside the already
//     written region [0, w). They exist for length back-patching; an offset
//     outside that region is a programmer error and panics.
//   - Unread returns a subslice of the backing array (zero-copy). Any write
//     that grows the buffer may invalidate outstanding views; callers that
//     retain bytes across writes must copy.
//
// A Buffer is single-owner. Concurrent use without external synchronization
// is undefined.
package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrNeedMore is returned by read and peek operations when the unread region
// holds fewer bytes than requested. Callers append more input and retry.
var ErrNeedMore = errors.New("msgbuf: need more bytes")

const (
	// DefaultCapacity is the initial capacity used when none is given.
	DefaultCapacity = 64

	// align rounds grown capacities; keeps small appends from fragmenting.
	align = 64
)

// Buffer is a resizable byte store with independent read and write cursors.
// The zero value is usable and starts empty.
type Buffer struct {
	buf []byte
	r   int // next byte to read
	w   int // next byte to write
}

// New returns a Buffer with the given initial capacity.
// Capacities <= 0 fall back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{buf: make([]byte, capacity)}
}

// From returns a Buffer whose unread region is exactly b. The backing array
// is shared with b; the caller hands over ownership.
func From(b []byte) *Buffer {
	return &Buffer{buf: b, w: len(b)}
}

// Cap returns the current capacity of the backing array.
func (b *Buffer) Cap() int { return len(b.buf) }

// ReadPos returns the read cursor.
func (b *Buffer) ReadPos() int { return b.r }

// WritePos returns the write cursor.
func (b *Buffer) WritePos() int { return b.w }

// Remaining returns the number of unread bytes (w - r).
func (b *Buffer) Remaining() int { return b.w - b.r }

// Unread returns the unread region [r, w) without copying.
// The view is invalidated by any subsequent write that grows the buffer.
func (b *Buffer) Unread() []byte { return b.buf[b.r:b.w] }

// Bytes returns the written region [0, w) without copying.
func (b *Buffer) Bytes() []byte { return b.buf[:b.w] }

// Reset rewinds both cursors to zero. Capacity is retained.
func (b *Buffer) Reset() { b.r, b.w = 0, 0 }

// SeekRead moves the read cursor to pos. Used by the decoder to roll back to
// the start of an incomplete value. pos must lie in [0, w].
func (b *Buffer) SeekRead(pos int) {
	if pos < 0 || pos > b.w {
		panic(fmt.Sprintf("msgbuf: SeekRead(%d) outside [0, %d]", pos, b.w))
	}
	b.r = pos
}

// TruncateTo moves the write cursor back to pos, discarding bytes written
// after it. Used by the encoder to rewind a partially emitted value.
// pos must lie in [r, w].
func (b *Buffer) TruncateTo(pos int) {
	if pos < b.r || pos > b.w {
		panic(fmt.Sprintf("msgbuf: TruncateTo(%d) outside [%d, %d]", pos, b.r, b.w))
	}
	b.w = pos
}

// Compact shifts the unread region to the start of the backing array and sets
// r = 0. Call after draining a streaming buffer to reclaim space.
func (b *Buffer) Compact() {
	if b.r == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.r:b.w])
	b.r, b.w = 0, n
}

// grow ensures room for n more bytes at w.
// New capacity is max(2*cap, cap+n) rounded up to the alignment.
func (b *Buffer) grow(n int) {
	if b.w+n <= len(b.buf) {
		return
	}
	c := 2 * len(b.buf)
	if min := len(b.buf) + n; c < min {
		c = min
	}
	c = (c + align - 1) &^ (align - 1)
	nb := make([]byte, c)
	copy(nb, b.buf[:b.w])
	b.buf = nb
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(v byte) {
	b.grow(1)
	b.buf[b.w] = v
	b.w++
}

// WriteUint8 appends v as one byte.
func (b *Buffer) WriteUint8(v uint8) { b.WriteByte(v) }

// WriteUint16 appends v big-endian.
func (b *Buffer) WriteUint16(v uint16) {
	b.grow(2)
	binary.BigEndian.PutUint16(b.buf[b.w:], v)
	b.w += 2
}

// WriteUint32 appends v big-endian.
func (b *Buffer) WriteUint32(v uint32) {
	b.grow(4)
	binary.BigEndian.PutUint32(b.buf[b.w:], v)
	b.w += 4
}

// WriteUint64 appends v big-endian.
func (b *Buffer) WriteUint64(v uint64) {
	b.grow(8)
	binary.BigEndian.PutUint64(b.buf[b.w:], v)
	b.w += 8
}

// WriteFloat32 appends the IEEE 754 bits of v big-endian.
func (b *Buffer) WriteFloat32(v float32) { b.WriteUint32(math.Float32bits(v)) }

// WriteFloat64 appends the IEEE 754 bits of v big-endian.
func (b *Buffer) WriteFloat64(v float64) { b.WriteUint64(math.Float64bits(v)) }

// WriteBytes appends p.
func (b *Buffer) WriteBytes(p []byte) {
	if len(p) == 0 {
		return
	}
	b.grow(len(p))
	copy(b.buf[b.w:], p)
	b.w += len(p)
}

// WriteString appends the raw bytes of s without copying through a []byte.
func (b *Buffer) WriteString(s string) {
	if len(s) == 0 {
		return
	}
	b.grow(len(s))
	copy(b.buf[b.w:], s)
	b.w += len(s)
}

// ReadByte consumes and returns one byte.
func (b *Buffer) ReadByte() (byte, error) {
	if b.r+1 > b.w {
		return 0, ErrNeedMore
	}
	v := b.buf[b.r]
	b.r++
	return v, nil
}

// ReadUint8 consumes one byte.
func (b *Buffer) ReadUint8() (uint8, error) { return b.ReadByte() }

// ReadUint16 consumes two bytes big-endian.
func (b *Buffer) ReadUint16() (uint16, error) {
	if b.r+2 > b.w {
		return 0, ErrNeedMore
	}
	v := binary.BigEndian.Uint16(b.buf[b.r:])
	b.r += 2
	return v, nil
}

// ReadUint32 consumes four bytes big-endian.
func (b *Buffer) ReadUint32() (uint32, error) {
	if b.r+4 > b.w {
		return 0, ErrNeedMore
	}
	v := binary.BigEndian.Uint32(b.buf[b.r:])
	b.r += 4
	return v, nil
}

// ReadUint64 consumes eight bytes big-endian.
func (b *Buffer) ReadUint64() (uint64, error) {
	if b.r+8 > b.w {
		return 0, ErrNeedMore
	}
	v := binary.BigEndian.Uint64(b.buf[b.r:])
	b.r += 8
	return v, nil
}

// ReadFloat32 consumes four bytes and returns the IEEE 754 value.
func (b *Buffer) ReadFloat32() (float32, error) {
	u, err := b.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// ReadFloat64 consumes eight bytes and returns the IEEE 754 value.
func (b *Buffer) ReadFloat64() (float64, error) {
	u, err := b.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// ReadBytes consumes n bytes and returns them as a zero-copy subslice.
// The slice must be treated as read-only and is invalidated by buffer growth.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		panic(fmt.Sprintf("msgbuf: ReadBytes(%d)", n))
	}
	if b.r+n > b.w {
		return nil, ErrNeedMore
	}
	p := b.buf[b.r : b.r+n : b.r+n]
	b.r += n
	return p, nil
}

// Skip advances the read cursor by n bytes.
func (b *Buffer) Skip(n int) error {
	if n < 0 {
		panic(fmt.Sprintf("msgbuf: Skip(%d)", n))
	}
	if b.r+n > b.w {
		return ErrNeedMore
	}
	b.r += n
	return nil
}

// PeekByte returns the byte at r without consuming it.
func (b *Buffer) PeekByte() (byte, error) {
	if b.r+1 > b.w {
		return 0, ErrNeedMore
	}
	return b.buf[b.r], nil
}

// PeekAt returns the byte at r+off without consuming anything.
func (b *Buffer) PeekAt(off int) (byte, error) {
	if off < 0 || b.r+off+1 > b.w {
		return 0, ErrNeedMore
	}
	return b.buf[b.r+off], nil
}

// PutUint8At overwrites one byte at the absolute offset off.
// off must lie inside the written region [0, w).
func (b *Buffer) PutUint8At(off int, v uint8) {
	b.checkPatch(off, 1)
	b.buf[off] = v
}

// PutUint16At overwrites two bytes big-endian at the absolute offset off.
func (b *Buffer) PutUint16At(off int, v uint16) {
	b.checkPatch(off, 2)
	binary.BigEndian.PutUint16(b.buf[off:], v)
}

// PutUint32At overwrites four bytes big-endian at the absolute offset off.
func (b *Buffer) PutUint32At(off int, v uint32) {
	b.checkPatch(off, 4)
	binary.BigEndian.PutUint32(b.buf[off:], v)
}

// checkPatch asserts an absolute write stays inside [0, w).
// Violations are programmer errors, not recoverable I/O conditions.
func (b *Buffer) checkPatch(off, n int) {
	if off < 0 || off+n > b.w {
		panic(fmt.Sprintf("msgbuf: absolute write [%d, %d) outside written region [0, %d)", off, off+n, b.w))
	}
}
