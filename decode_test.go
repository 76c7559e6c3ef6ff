package msgbuf

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/unkn0wn-root/msgbuf/buffer"
)

func mustDecode(t *testing.T, c *Codec, b []byte) any {
	t.Helper()
	v, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode(% x): %v", b, err)
	}
	return v
}

// ==============================
// Wire form acceptance
// ==============================

func TestDecodeScalars(t *testing.T) {
	c := New(Options{})
	cases := []struct {
		in   []byte
		want any
	}{
		{[]byte{0xc0}, nil},
		{[]byte{0xc2}, false},
		{[]byte{0xc3}, true},
		{[]byte{0x7f}, int64(127)},
		{[]byte{0xff}, int64(-1)},
		{[]byte{0xe0}, int64(-32)},
		{[]byte{0xcc, 0x80}, int64(128)},
		{[]byte{0xd0, 0xdf}, int64(-33)},
		{[]byte{0xca, 0x3f, 0xc0, 0x00, 0x00}, float32(1.5)},
		{[]byte{0xcb, 0x3f, 0xf8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, float64(1.5)},
		{[]byte{0xa3, 0x61, 0x62, 0x63}, "abc"},
	}
	for _, tc := range cases {
		got := mustDecode(t, c, tc.in)
		if got != tc.want {
			t.Fatalf("Decode(% x): got %v (%T) want %v (%T)", tc.in, got, got, tc.want, tc.want)
		}
	}
}

// TestDecodeIntNormalization: every int family lands in int64; only uint64
// values above MaxInt64 stay uint64.
func TestDecodeIntNormalization(t *testing.T) {
	c := New(Options{})

	v := mustDecode(t, c, []byte{0xcf, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x2a})
	if got, ok := v.(int64); !ok || got != 42 {
		t.Fatalf("small uint64: %v (%T)", v, v)
	}

	v = mustDecode(t, c, []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	if got, ok := v.(uint64); !ok || got != math.MaxUint64 {
		t.Fatalf("big uint64: %v (%T)", v, v)
	}
}

func TestDecodeArrayAndMap(t *testing.T) {
	c := New(Options{})

	v := mustDecode(t, c, []byte{0x93, 0x01, 0x02, 0x03})
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 || arr[0] != int64(1) || arr[2] != int64(3) {
		t.Fatalf("array: %#v", v)
	}

	v = mustDecode(t, c, []byte{0x82, 0xa1, 'a', 0x01, 0xa1, 'b', 0x02})
	m, ok := v.(*Map)
	if !ok || m.Len() != 2 {
		t.Fatalf("map: %#v", v)
	}
	es := m.Entries()
	if es[0].Key != "a" || es[0].Value != int64(1) || es[1].Key != "b" {
		t.Fatalf("map order: %#v", es)
	}
}

// TestDecodeMapKeepsDuplicates: duplicates come back verbatim; Get sees the
// first occurrence.
func TestDecodeMapKeepsDuplicates(t *testing.T) {
	c := New(Options{})
	v := mustDecode(t, c, []byte{0x82, 0xa1, 'k', 0x01, 0xa1, 'k', 0x02})
	m := v.(*Map)
	if m.Len() != 2 {
		t.Fatalf("dup collapsed: %#v", m.Entries())
	}
	if got, _ := m.Get("k"); got != int64(1) {
		t.Fatalf("Get: %v", got)
	}
}

func TestDecodeBinCopies(t *testing.T) {
	c := New(Options{})
	in := []byte{0xc4, 0x03, 1, 2, 3}
	v := mustDecode(t, c, in)
	b := v.([]byte)
	in[2] = 9
	if !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Fatalf("bin payload aliases input: %v", b)
	}
}

// ==============================
// Try-decode cursor discipline
// ==============================

// corpus returns encodings of representative values spanning every format
// family the encoder emits.
func corpus(t *testing.T, c *Codec) [][]byte {
	t.Helper()
	vals := []any{
		nil,
		true,
		int64(5),
		int64(-5000),
		uint64(math.MaxUint64),
		float64(3.14159),
		"short",
		strings.Repeat("s", 300),
		[]byte{1, 2, 3},
		[]any{int64(1), "two", []any{true, nil}},
		NewMap().Put("k", []any{int64(1)}).Put("n", NewMap().Put("x", nil)),
		NewSet(int64(1), "a"),
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		out = append(out, mustEncode(t, c, v))
	}
	return out
}

// TestTryDecodeEveryPrefixNeedsMore: for every strict prefix of a valid
// encoding, TryDecode is NeedMore and the read cursor does not move.
func TestTryDecodeEveryPrefixNeedsMore(t *testing.T) {
	c := New(Options{})
	for _, enc := range corpus(t, c) {
		for k := 0; k < len(enc); k++ {
			buf := buffer.From(enc[:k])
			_, n, err := c.TryDecode(buf)
			if !errors.Is(err, ErrNeedMore) {
				t.Fatalf("prefix %d/%d of % x: err=%v", k, len(enc), enc, err)
			}
			if n != 0 || buf.ReadPos() != 0 {
				t.Fatalf("prefix %d/%d of % x: cursor moved to %d", k, len(enc), enc, buf.ReadPos())
			}
		}
	}
}

// TestTryDecodeCompleteConsumesExactly: bytes_consumed matches the encoding
// length even with trailing garbage present.
func TestTryDecodeCompleteConsumesExactly(t *testing.T) {
	c := New(Options{})
	for _, enc := range corpus(t, c) {
		withTrailer := append(append([]byte(nil), enc...), 0xc3)
		buf := buffer.From(withTrailer)
		_, n, err := c.TryDecode(buf)
		if err != nil {
			t.Fatalf("TryDecode(% x): %v", enc, err)
		}
		if n != len(enc) {
			t.Fatalf("consumed %d want %d for % x", n, len(enc), enc)
		}
		if buf.ReadPos() != len(enc) {
			t.Fatalf("cursor %d want %d", buf.ReadPos(), len(enc))
		}
	}
}

// TestStreamingConcatenation: values written back to back come out one by one
// with correct consumption accounting.
func TestStreamingConcatenation(t *testing.T) {
	c := New(Options{})
	vals := []any{int64(1), "two", []any{true}, nil, int64(-9)}

	buf := buffer.New(64)
	sizes := make([]int, len(vals))
	for i, v := range vals {
		w := buf.WritePos()
		if err := c.EncodeTo(v, buf); err != nil {
			t.Fatalf("EncodeTo: %v", err)
		}
		sizes[i] = buf.WritePos() - w
	}

	for i, want := range vals {
		v, n, err := c.TryDecode(buf)
		if err != nil {
			t.Fatalf("value %d: %v", i, err)
		}
		if n != sizes[i] {
			t.Fatalf("value %d: consumed %d want %d", i, n, sizes[i])
		}
		if !valueEqual(v, want) {
			t.Fatalf("value %d: got %#v want %#v", i, v, want)
		}
	}
	if _, _, err := c.TryDecode(buf); !errors.Is(err, ErrNeedMore) {
		t.Fatalf("drained buffer: %v", err)
	}
}

// TestStreamingIncrementalFeed drips one byte at a time into the buffer and
// compacts between values.
func TestStreamingIncrementalFeed(t *testing.T) {
	c := New(Options{})
	vals := []any{"hello", int64(300), []any{int64(1), int64(2)}}

	var wire []byte
	for _, v := range vals {
		wire = append(wire, mustEncode(t, c, v)...)
	}

	buf := buffer.New(8)
	var got []any
	for _, by := range wire {
		buf.WriteByte(by)
		for {
			v, _, err := c.TryDecode(buf)
			if errors.Is(err, ErrNeedMore) {
				break
			}
			if err != nil {
				t.Fatalf("TryDecode: %v", err)
			}
			got = append(got, v)
			buf.Compact()
		}
	}
	if len(got) != len(vals) {
		t.Fatalf("decoded %d values want %d", len(got), len(vals))
	}
	for i := range vals {
		if !valueEqual(got[i], vals[i]) {
			t.Fatalf("value %d: got %#v want %#v", i, got[i], vals[i])
		}
	}
}

func TestDecodeAll(t *testing.T) {
	c := New(Options{})
	buf := buffer.New(64)
	for _, v := range []any{int64(1), int64(2), int64(3)} {
		if err := c.EncodeTo(v, buf); err != nil {
			t.Fatalf("EncodeTo: %v", err)
		}
	}
	// trailing partial value: str8 header announcing 5 bytes, only 2 present
	buf.WriteBytes([]byte{0xd9, 0x05, 'a', 'b'})

	vs, err := c.DecodeAll(buf)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(vs) != 3 || vs[2] != int64(3) {
		t.Fatalf("got %#v", vs)
	}
	if buf.Remaining() != 4 {
		t.Fatalf("partial tail consumed; remaining=%d", buf.Remaining())
	}
}

// ==============================
// Invalid input
// ==============================

func TestDecodeInvalid(t *testing.T) {
	c := New(Options{})
	cases := []struct {
		name   string
		in     []byte
		reason InvalidReason
	}{
		{"0xc1", []byte{0xc1}, ReasonUnknownFormat},
		{"unknown ext tag", []byte{0xd4, 0x63, 0x2a}, ReasonUnknownExtensionTag},
		{"unknown builtin tag", []byte{0xd4, 0x80, 0x2a}, ReasonUnknownExtensionTag},
		{"str32 overflow", []byte{0xdb, 0xff, 0xff, 0xff, 0xff}, ReasonLengthOverflow},
		{"bin32 overflow", []byte{0xc6, 0x80, 0x00, 0x00, 0x00}, ReasonLengthOverflow},
		{"array32 overflow", []byte{0xdd, 0xff, 0xff, 0xff, 0xff}, ReasonLengthOverflow},
		{"truncated regexp payload", []byte{0xc7, 0x02, 0xfd, 0x00, 0x01}, ReasonPayloadTruncated},
		{"error payload bad inner len", []byte{0xc7, 0x06, 0xfa, 0x01, 0x00, 0x00, 0x00, 0x09, 0x78}, ReasonPayloadTruncated},
	}
	for _, tc := range cases {
		buf := buffer.From(tc.in)
		_, _, err := c.TryDecode(buf)
		var inv *InvalidError
		if !errors.As(err, &inv) {
			t.Fatalf("%s: want InvalidError, got %v", tc.name, err)
		}
		if inv.Reason != tc.reason {
			t.Fatalf("%s: reason %v want %v", tc.name, inv.Reason, tc.reason)
		}
		if buf.ReadPos() != 0 {
			t.Fatalf("%s: cursor moved to %d", tc.name, buf.ReadPos())
		}
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	c := New(Options{})
	if _, err := c.Decode([]byte{0x01, 0x02}); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestDecodeTruncatedIsError(t *testing.T) {
	c := New(Options{})
	_, err := c.Decode([]byte{0x93, 0x01})
	if !errors.Is(err, ErrNeedMore) {
		t.Fatalf("want wrapped ErrNeedMore, got %v", err)
	}
}
