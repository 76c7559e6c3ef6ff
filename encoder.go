package msgbuf

import (
	"math"
	"math/big"
	"sort"
	"time"

	"github.com/unkn0wn-root/msgbuf/buffer"
)

// EncodeTo appends the MessagePack form of v to buf.
//
// Dispatch order: registered extensions first (ascending tag), then built-in
// native types, then the primitive families. On failure the write cursor is
// rewound to where it was at entry, so a failed encode never leaves a partial
// value in the buffer.
func (c *Codec) EncodeTo(v any, buf *buffer.Buffer) error {
	mark := buf.WritePos()
	if err := c.encodeValue(buf, v); err != nil {
		buf.TruncateTo(mark)
		return err
	}
	return nil
}

// Encode returns the MessagePack form of v in a fresh byte slice.
func (c *Codec) Encode(v any) ([]byte, error) {
	buf := buffer.New(c.initCap)
	if err := c.EncodeTo(v, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) encodeValue(buf *buffer.Buffer, v any) error {
	// User extensions shadow everything, including built-ins.
	for tag := 0; tag < len(c.exts); tag++ {
		ext := c.exts[tag]
		if ext == nil || !ext.Match(v) {
			continue
		}
		return c.encodeRegistered(buf, int8(tag), ext, v)
	}

	switch x := v.(type) {
	case nil:
		buf.WriteByte(prefixNil)
	case bool:
		if x {
			buf.WriteByte(prefixTrue)
		} else {
			buf.WriteByte(prefixFalse)
		}
	case int:
		encodeInt(buf, int64(x))
	case int8:
		encodeInt(buf, int64(x))
	case int16:
		encodeInt(buf, int64(x))
	case int32:
		encodeInt(buf, int64(x))
	case int64:
		encodeInt(buf, x)
	case uint:
		encodeUint(buf, uint64(x))
	case uint8:
		encodeUint(buf, uint64(x))
	case uint16:
		encodeUint(buf, uint64(x))
	case uint32:
		encodeUint(buf, uint64(x))
	case uint64:
		encodeUint(buf, x)
	case float32:
		buf.WriteByte(prefixFloat32)
		buf.WriteFloat32(x)
	case float64:
		buf.WriteByte(prefixFloat64)
		buf.WriteFloat64(x)
	case string:
		encodeString(buf, x)
	case []byte:
		encodeBin(buf, x)
	case []any:
		return c.encodeArray(buf, x)
	case []string:
		encodeArrayHeader(buf, len(x))
		for _, s := range x {
			encodeString(buf, s)
		}
	case []int:
		encodeArrayHeader(buf, len(x))
		for _, i := range x {
			encodeInt(buf, int64(i))
		}
	case []int64:
		encodeArrayHeader(buf, len(x))
		for _, i := range x {
			encodeInt(buf, i)
		}
	case []float64:
		encodeArrayHeader(buf, len(x))
		for _, f := range x {
			buf.WriteByte(prefixFloat64)
			buf.WriteFloat64(f)
		}
	case *Map:
		return c.encodeMap(buf, x)
	case map[string]any:
		return c.encodeStringMap(buf, x)
	case time.Time:
		encodeTimestamp(buf, x)
	case *big.Int:
		encodeBigInt(buf, x)
	case RegExp:
		encodeRegExp(buf, x)
	case *RegExp:
		encodeRegExp(buf, *x)
	case *Set:
		return c.encodeSet(buf, x)
	case *ErrorValue:
		encodeError(buf, x)
	case error:
		encodeError(buf, &ErrorValue{Kind: KindError, Message: x.Error()})
	case Ext:
		encodeExtHeader(buf, x.Type, len(x.Data))
		buf.WriteBytes(x.Data)
	default:
		return &UnsupportedTypeError{Value: v}
	}
	return nil
}

// encodeRegistered runs a user handler against a fresh payload buffer and
// splices the result under an ext header. The isolation lets handlers call
// back into EncodeTo for nested values without touching the outer cursor.
func (c *Codec) encodeRegistered(buf *buffer.Buffer, tag int8, ext *Extension, v any) error {
	p := c.acquire()
	defer c.release(p)

	if err := ext.Encode(c, p, v); err != nil {
		c.hooks.HandlerError(tag, ext.Name, err)
		return &HandlerError{Tag: tag, Name: ext.Name, Err: err}
	}
	encodeExtHeader(buf, tag, p.WritePos())
	buf.WriteBytes(p.Bytes())
	return nil
}

func encodeInt(buf *buffer.Buffer, i int64) {
	if i >= 0 {
		encodeUint(buf, uint64(i))
		return
	}
	switch {
	case i >= negFixMin:
		buf.WriteByte(byte(i))
	case i >= math.MinInt8:
		buf.WriteByte(prefixInt8)
		buf.WriteByte(byte(i))
	case i >= math.MinInt16:
		buf.WriteByte(prefixInt16)
		buf.WriteUint16(uint16(i))
	case i >= math.MinInt32:
		buf.WriteByte(prefixInt32)
		buf.WriteUint32(uint32(i))
	default:
		buf.WriteByte(prefixInt64)
		buf.WriteUint64(uint64(i))
	}
}

func encodeUint(buf *buffer.Buffer, u uint64) {
	switch {
	case u <= posFixMax:
		buf.WriteByte(byte(u))
	case u <= math.MaxUint8:
		buf.WriteByte(prefixUint8)
		buf.WriteByte(byte(u))
	case u <= math.MaxUint16:
		buf.WriteByte(prefixUint16)
		buf.WriteUint16(uint16(u))
	case u <= math.MaxUint32:
		buf.WriteByte(prefixUint32)
		buf.WriteUint32(uint32(u))
	default:
		buf.WriteByte(prefixUint64)
		buf.WriteUint64(u)
	}
}

// encodeString emits the smallest str form. The bytes are carried opaquely;
// UTF-8 validity is the producer's business.
func encodeString(buf *buffer.Buffer, s string) {
	n := len(s)
	switch {
	case n <= fixStrMax:
		buf.WriteByte(0xa0 | byte(n))
	case n <= math.MaxUint8:
		buf.WriteByte(prefixStr8)
		buf.WriteByte(byte(n))
	case n <= math.MaxUint16:
		buf.WriteByte(prefixStr16)
		buf.WriteUint16(uint16(n))
	default:
		buf.WriteByte(prefixStr32)
		buf.WriteUint32(uint32(n))
	}
	buf.WriteString(s)
}

func encodeBin(buf *buffer.Buffer, b []byte) {
	n := len(b)
	switch {
	case n <= math.MaxUint8:
		buf.WriteByte(prefixBin8)
		buf.WriteByte(byte(n))
	case n <= math.MaxUint16:
		buf.WriteByte(prefixBin16)
		buf.WriteUint16(uint16(n))
	default:
		buf.WriteByte(prefixBin32)
		buf.WriteUint32(uint32(n))
	}
	buf.WriteBytes(b)
}

func encodeArrayHeader(buf *buffer.Buffer, n int) {
	switch {
	case n <= fixArrayMax:
		buf.WriteByte(0x90 | byte(n))
	case n <= math.MaxUint16:
		buf.WriteByte(prefixArray16)
		buf.WriteUint16(uint16(n))
	default:
		buf.WriteByte(prefixArray32)
		buf.WriteUint32(uint32(n))
	}
}

func encodeMapHeader(buf *buffer.Buffer, n int) {
	switch {
	case n <= fixMapMax:
		buf.WriteByte(0x80 | byte(n))
	case n <= math.MaxUint16:
		buf.WriteByte(prefixMap16)
		buf.WriteUint16(uint16(n))
	default:
		buf.WriteByte(prefixMap32)
		buf.WriteUint32(uint32(n))
	}
}

// encodeExtHeader picks fixext when the payload length matches one of the
// fixed sizes, the narrowest ext form otherwise.
func encodeExtHeader(buf *buffer.Buffer, tag int8, n int) {
	switch n {
	case 1:
		buf.WriteByte(prefixFixExt1)
	case 2:
		buf.WriteByte(prefixFixExt2)
	case 4:
		buf.WriteByte(prefixFixExt4)
	case 8:
		buf.WriteByte(prefixFixExt8)
	case 16:
		buf.WriteByte(prefixFixExt16)
	default:
		switch {
		case n <= math.MaxUint8:
			buf.WriteByte(prefixExt8)
			buf.WriteByte(byte(n))
		case n <= math.MaxUint16:
			buf.WriteByte(prefixExt16)
			buf.WriteUint16(uint16(n))
		default:
			buf.WriteByte(prefixExt32)
			buf.WriteUint32(uint32(n))
		}
	}
	buf.WriteByte(byte(tag))
}

func (c *Codec) encodeArray(buf *buffer.Buffer, vs []any) error {
	encodeArrayHeader(buf, len(vs))
	for _, v := range vs {
		if err := c.encodeValue(buf, v); err != nil {
			return err
		}
	}
	return nil
}

// encodeMap emits the native map family, pairs in insertion order,
// duplicates included.
func (c *Codec) encodeMap(buf *buffer.Buffer, m *Map) error {
	encodeMapHeader(buf, m.Len())
	for _, e := range m.Entries() {
		if err := c.encodeValue(buf, e.Key); err != nil {
			return err
		}
		if err := c.encodeValue(buf, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// encodeStringMap is the convenience path for Go maps. Keys are sorted so the
// output is deterministic despite Go's randomized iteration order; callers
// who care about pair order use *Map.
func (c *Codec) encodeStringMap(buf *buffer.Buffer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	encodeMapHeader(buf, len(m))
	for _, k := range keys {
		encodeString(buf, k)
		if err := c.encodeValue(buf, m[k]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) encodeSet(buf *buffer.Buffer, s *Set) error {
	p := c.acquire()
	defer c.release(p)

	if err := c.encodeArray(p, s.Values()); err != nil {
		return err
	}
	encodeExtHeader(buf, TagSet, p.WritePos())
	buf.WriteBytes(p.Bytes())
	return nil
}

// encodeTimestamp emits the official MessagePack timestamp extension,
// choosing the smallest exact representation (ts32 / ts64 / ts96).
func encodeTimestamp(buf *buffer.Buffer, t time.Time) {
	sec := t.Unix()
	nsec := int64(t.Nanosecond())

	if sec>>34 == 0 && sec >= 0 {
		if nsec == 0 && sec <= math.MaxUint32 {
			encodeExtHeader(buf, TagDate, 4)
			buf.WriteUint32(uint32(sec))
			return
		}
		encodeExtHeader(buf, TagDate, 8)
		buf.WriteUint64(uint64(nsec)<<34 | uint64(sec))
		return
	}
	encodeExtHeader(buf, TagDate, 12)
	buf.WriteUint32(uint32(nsec))
	buf.WriteUint64(uint64(sec))
}

// encodeBigInt payload: one sign byte (0 positive, 1 negative) followed by
// the big-endian magnitude. Zero is a lone sign byte.
func encodeBigInt(buf *buffer.Buffer, i *big.Int) {
	mag := i.Bytes()
	encodeExtHeader(buf, TagBigInt, 1+len(mag))
	if i.Sign() < 0 {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.WriteBytes(mag)
}

func encodeRegExp(buf *buffer.Buffer, re RegExp) {
	encodeExtHeader(buf, TagRegExp, 4+len(re.Pattern)+4+len(re.Flags))
	buf.WriteUint32(uint32(len(re.Pattern)))
	buf.WriteString(re.Pattern)
	buf.WriteUint32(uint32(len(re.Flags)))
	buf.WriteString(re.Flags)
}

// encodeError payload: kind byte, then length-prefixed message and stack.
func encodeError(buf *buffer.Buffer, e *ErrorValue) {
	encodeExtHeader(buf, TagError, 1+4+len(e.Message)+4+len(e.Stack))
	buf.WriteByte(byte(e.Kind))
	buf.WriteUint32(uint32(len(e.Message)))
	buf.WriteString(e.Message)
	buf.WriteUint32(uint32(len(e.Stack)))
	buf.WriteString(e.Stack)
}
