// Package typed offers a small generic facade over the dynamic msgbuf codec
// for callers that move a single Go type through the wire.
package typed

import (
	"fmt"

	"github.com/unkn0wn-root/msgbuf"
)

// Codec encodes and decodes a value of type V to and from a byte slice.
// Implementations should return an error on malformed input. Encode/Decode
// should be pure (no side effects).
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Msgbuf adapts a *msgbuf.Codec to Codec[V]. Decode fails when the wire
// value is not a V.
type Msgbuf[V any] struct {
	C *msgbuf.Codec
}

var _ Codec[int64] = Msgbuf[int64]{}

// Of wraps c for values of type V.
func Of[V any](c *msgbuf.Codec) Msgbuf[V] {
	return Msgbuf[V]{C: c}
}

func (m Msgbuf[V]) Encode(v V) ([]byte, error) {
	return m.C.Encode(v)
}

func (m Msgbuf[V]) Decode(b []byte) (V, error) {
	var zero V
	x, err := m.C.Decode(b)
	if err != nil {
		return zero, err
	}
	v, ok := x.(V)
	if !ok {
		return zero, fmt.Errorf("msgbuf: decoded %T, want %T", x, zero)
	}
	return v, nil
}
