package msgbuf

// Cross-checks against vmihailenco/msgpack: bytes this codec emits must be
// readable by an independent MessagePack implementation, and vice versa, for
// the value shapes both sides support.

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestInteropOurBytesTheirDecoder(t *testing.T) {
	c := New(Options{})

	t.Run("scalars", func(t *testing.T) {
		var i int64
		if err := msgpack.Unmarshal(mustEncode(t, c, int64(-70000)), &i); err != nil || i != -70000 {
			t.Fatalf("int: %v %v", i, err)
		}
		var s string
		if err := msgpack.Unmarshal(mustEncode(t, c, "héllo"), &s); err != nil || s != "héllo" {
			t.Fatalf("str: %v %v", s, err)
		}
		var f float64
		if err := msgpack.Unmarshal(mustEncode(t, c, 3.5), &f); err != nil || f != 3.5 {
			t.Fatalf("float: %v %v", f, err)
		}
		var b bool
		if err := msgpack.Unmarshal(mustEncode(t, c, true), &b); err != nil || !b {
			t.Fatalf("bool: %v %v", b, err)
		}
		var u uint64
		if err := msgpack.Unmarshal(mustEncode(t, c, uint64(1<<63)), &u); err != nil || u != 1<<63 {
			t.Fatalf("uint: %v %v", u, err)
		}
	})

	t.Run("bin", func(t *testing.T) {
		var b []byte
		if err := msgpack.Unmarshal(mustEncode(t, c, []byte{1, 2, 3}), &b); err != nil || !bytes.Equal(b, []byte{1, 2, 3}) {
			t.Fatalf("bin: %v %v", b, err)
		}
	})

	t.Run("array", func(t *testing.T) {
		var xs []string
		if err := msgpack.Unmarshal(mustEncode(t, c, []string{"a", "b"}), &xs); err != nil || !reflect.DeepEqual(xs, []string{"a", "b"}) {
			t.Fatalf("array: %v %v", xs, err)
		}
	})

	t.Run("map", func(t *testing.T) {
		var m map[string]int64
		enc := mustEncode(t, c, NewMap().Put("a", int64(1)).Put("b", int64(2)))
		if err := msgpack.Unmarshal(enc, &m); err != nil || m["a"] != 1 || m["b"] != 2 {
			t.Fatalf("map: %v %v", m, err)
		}
	})

	t.Run("timestamp", func(t *testing.T) {
		want := time.Unix(1700000000, 500).UTC()
		var ts time.Time
		if err := msgpack.Unmarshal(mustEncode(t, c, want), &ts); err != nil || !ts.Equal(want) {
			t.Fatalf("time: %v %v", ts, err)
		}
	})
}

func TestInteropTheirBytesOurDecoder(t *testing.T) {
	c := New(Options{})

	mustMarshal := func(v any) []byte {
		t.Helper()
		b, err := msgpack.Marshal(v)
		if err != nil {
			t.Fatalf("msgpack.Marshal(%v): %v", v, err)
		}
		return b
	}

	if v := mustDecode(t, c, mustMarshal(nil)); v != nil {
		t.Fatalf("nil: %v", v)
	}
	if v := mustDecode(t, c, mustMarshal(int64(-9000))); v != int64(-9000) {
		t.Fatalf("int: %v", v)
	}
	if v := mustDecode(t, c, mustMarshal("msgpack")); v != "msgpack" {
		t.Fatalf("str: %v", v)
	}
	if v := mustDecode(t, c, mustMarshal(2.25)); v != 2.25 {
		t.Fatalf("float: %v", v)
	}
	if v := mustDecode(t, c, mustMarshal([]byte{9, 8})); !bytes.Equal(v.([]byte), []byte{9, 8}) {
		t.Fatalf("bin: %v", v)
	}

	v := mustDecode(t, c, mustMarshal([]any{int8(1), "x", false}))
	arr := v.([]any)
	if len(arr) != 3 || arr[0] != int64(1) || arr[1] != "x" || arr[2] != false {
		t.Fatalf("array: %#v", arr)
	}

	v = mustDecode(t, c, mustMarshal(map[string]string{"k": "v"}))
	m := v.(*Map)
	if got, ok := m.Get("k"); !ok || got != "v" {
		t.Fatalf("map: %#v", m.Entries())
	}

	want := time.Unix(1700000000, 42).UTC()
	v = mustDecode(t, c, mustMarshal(want))
	if ts := v.(time.Time); !ts.Equal(want) {
		t.Fatalf("time: %v", ts)
	}
}
