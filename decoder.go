package msgbuf

import (
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/unkn0wn-root/msgbuf/buffer"
)

// decodeValue reads one value at the current read cursor. On any error the
// cursor is left wherever reading stopped; TryDecode owns rolling it back to
// the start of the top-level value. InvalidError.Off is absolute here and is
// rebased by TryDecode.
func (c *Codec) decodeValue(buf *buffer.Buffer) (any, error) {
	off := buf.ReadPos()
	p, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}

	// fix families carry their parameter in the prefix byte
	switch {
	case p <= 0x7f:
		return int64(p), nil
	case p >= 0xe0:
		return int64(int8(p)), nil
	case p >= 0x80 && p <= 0x8f:
		return c.decodeMapBody(buf, int(p&0x0f))
	case p >= 0x90 && p <= 0x9f:
		return c.decodeArrayBody(buf, int(p&0x0f))
	case p >= 0xa0 && p <= 0xbf:
		return decodeStringBody(buf, int(p&0x1f))
	}

	switch p {
	case prefixNil:
		return nil, nil
	case prefixFalse:
		return false, nil
	case prefixTrue:
		return true, nil

	case prefixFloat32:
		v, err := buf.ReadFloat32()
		if err != nil {
			return nil, err
		}
		return v, nil
	case prefixFloat64:
		v, err := buf.ReadFloat64()
		if err != nil {
			return nil, err
		}
		return v, nil

	case prefixUint8:
		v, err := buf.ReadUint8()
		return int64(v), err
	case prefixUint16:
		v, err := buf.ReadUint16()
		return int64(v), err
	case prefixUint32:
		v, err := buf.ReadUint32()
		return int64(v), err
	case prefixUint64:
		v, err := buf.ReadUint64()
		if err != nil {
			return nil, err
		}
		// stay in int64 when the value fits; uint64 only above MaxInt64
		if v > math.MaxInt64 {
			return v, nil
		}
		return int64(v), nil

	case prefixInt8:
		v, err := buf.ReadUint8()
		return int64(int8(v)), err
	case prefixInt16:
		v, err := buf.ReadUint16()
		return int64(int16(v)), err
	case prefixInt32:
		v, err := buf.ReadUint32()
		return int64(int32(v)), err
	case prefixInt64:
		v, err := buf.ReadUint64()
		return int64(v), err

	case prefixStr8:
		n, err := readLen8(buf)
		if err != nil {
			return nil, err
		}
		return decodeStringBody(buf, n)
	case prefixStr16:
		n, err := readLen16(buf)
		if err != nil {
			return nil, err
		}
		return decodeStringBody(buf, n)
	case prefixStr32:
		n, err := readLen32(buf, off)
		if err != nil {
			return nil, err
		}
		return decodeStringBody(buf, n)

	case prefixBin8:
		n, err := readLen8(buf)
		if err != nil {
			return nil, err
		}
		return decodeBinBody(buf, n)
	case prefixBin16:
		n, err := readLen16(buf)
		if err != nil {
			return nil, err
		}
		return decodeBinBody(buf, n)
	case prefixBin32:
		n, err := readLen32(buf, off)
		if err != nil {
			return nil, err
		}
		return decodeBinBody(buf, n)

	case prefixArray16:
		n, err := readLen16(buf)
		if err != nil {
			return nil, err
		}
		return c.decodeArrayBody(buf, n)
	case prefixArray32:
		n, err := readLen32(buf, off)
		if err != nil {
			return nil, err
		}
		return c.decodeArrayBody(buf, n)

	case prefixMap16:
		n, err := readLen16(buf)
		if err != nil {
			return nil, err
		}
		return c.decodeMapBody(buf, n)
	case prefixMap32:
		n, err := readLen32(buf, off)
		if err != nil {
			return nil, err
		}
		return c.decodeMapBody(buf, n)

	case prefixFixExt1:
		return c.decodeExtBody(buf, 1, off)
	case prefixFixExt2:
		return c.decodeExtBody(buf, 2, off)
	case prefixFixExt4:
		return c.decodeExtBody(buf, 4, off)
	case prefixFixExt8:
		return c.decodeExtBody(buf, 8, off)
	case prefixFixExt16:
		return c.decodeExtBody(buf, 16, off)
	case prefixExt8:
		n, err := readLen8(buf)
		if err != nil {
			return nil, err
		}
		return c.decodeExtBody(buf, n, off)
	case prefixExt16:
		n, err := readLen16(buf)
		if err != nil {
			return nil, err
		}
		return c.decodeExtBody(buf, n, off)
	case prefixExt32:
		n, err := readLen32(buf, off)
		if err != nil {
			return nil, err
		}
		return c.decodeExtBody(buf, n, off)
	}

	// 0xc1
	return nil, &InvalidError{Reason: ReasonUnknownFormat, Off: off}
}

func readLen8(buf *buffer.Buffer) (int, error) {
	v, err := buf.ReadUint8()
	return int(v), err
}

func readLen16(buf *buffer.Buffer) (int, error) {
	v, err := buf.ReadUint16()
	return int(v), err
}

func readLen32(buf *buffer.Buffer, off int) (int, error) {
	v, err := buf.ReadUint32()
	if err != nil {
		return 0, err
	}
	if v > maxLen {
		return 0, &InvalidError{Reason: ReasonLengthOverflow, Off: off}
	}
	return int(v), nil
}

// decodeStringBody copies the payload out of the buffer; the string must
// survive later writes. Bytes are carried opaquely, no UTF-8 validation.
func decodeStringBody(buf *buffer.Buffer, n int) (any, error) {
	p, err := buf.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return string(p), nil
}

func decodeBinBody(buf *buffer.Buffer, n int) (any, error) {
	p, err := buf.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), p...), nil
}

func (c *Codec) decodeArrayBody(buf *buffer.Buffer, n int) (any, error) {
	// cap preallocation by what the unread region could plausibly hold
	// (one byte per element minimum) so bogus headers cannot force OOM.
	capHint := n
	if rem := buf.Remaining(); capHint > rem {
		capHint = rem
	}
	vs := make([]any, 0, capHint)
	for i := 0; i < n; i++ {
		v, err := c.decodeValue(buf)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func (c *Codec) decodeMapBody(buf *buffer.Buffer, n int) (any, error) {
	capHint := n
	if rem := buf.Remaining() / 2; capHint > rem {
		capHint = rem
	}
	m := newMapCap(capHint)
	for i := 0; i < n; i++ {
		k, err := c.decodeValue(buf)
		if err != nil {
			return nil, err
		}
		v, err := c.decodeValue(buf)
		if err != nil {
			return nil, err
		}
		m.Put(k, v)
	}
	return m, nil
}

// decodeExtBody reads the tag and payload, then dispatches: negative tags to
// the built-in table, 0..127 to the registry, anything else is invalid input.
func (c *Codec) decodeExtBody(buf *buffer.Buffer, size, off int) (any, error) {
	tb, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}
	payload, err := buf.ReadBytes(size)
	if err != nil {
		return nil, err
	}

	tag := int8(tb)
	if tag < 0 {
		return c.decodeBuiltin(tag, payload, off)
	}
	ext := c.exts[tag]
	if ext == nil {
		c.hooks.UnknownExtensionTag(tag)
		return nil, &InvalidError{Reason: ReasonUnknownExtensionTag, Tag: tag, Off: off}
	}
	v, err := ext.Decode(c, payload)
	if err != nil {
		herr := &HandlerError{Tag: tag, Name: ext.Name, Err: err}
		c.hooks.HandlerError(tag, ext.Name, err)
		return nil, herr
	}
	return v, nil
}

func (c *Codec) decodeBuiltin(tag int8, payload []byte, off int) (any, error) {
	switch tag {
	case TagDate:
		return decodeTimestamp(payload, off)
	case TagBigInt:
		return decodeBigInt(payload, off)
	case TagRegExp:
		return decodeRegExp(payload, off)
	case TagSet:
		return c.decodeSetPayload(payload, off)
	case TagMap:
		return c.decodeMapPayload(payload, off)
	case TagError:
		return decodeError(payload, off)
	}
	c.hooks.UnknownExtensionTag(tag)
	return nil, &InvalidError{Reason: ReasonUnknownExtensionTag, Tag: tag, Off: off}
}

func decodeTimestamp(payload []byte, off int) (any, error) {
	sub := buffer.From(payload)
	switch len(payload) {
	case 4:
		sec, _ := sub.ReadUint32()
		return time.Unix(int64(sec), 0).UTC(), nil
	case 8:
		v, _ := sub.ReadUint64()
		return time.Unix(int64(v&0x3ffffffff), int64(v>>34)).UTC(), nil
	case 12:
		nsec, _ := sub.ReadUint32()
		sec, _ := sub.ReadUint64()
		return time.Unix(int64(sec), int64(nsec)).UTC(), nil
	}
	return nil, &InvalidError{Reason: ReasonPayloadTruncated, Tag: TagDate, Off: off}
}

func decodeBigInt(payload []byte, off int) (any, error) {
	if len(payload) < 1 {
		return nil, &InvalidError{Reason: ReasonPayloadTruncated, Tag: TagBigInt, Off: off}
	}
	i := new(big.Int).SetBytes(payload[1:])
	if payload[0] != 0 {
		i.Neg(i)
	}
	return i, nil
}

func decodeRegExp(payload []byte, off int) (any, error) {
	sub := buffer.From(payload)
	pattern, err := readPrefixed(sub)
	if err != nil {
		return nil, &InvalidError{Reason: ReasonPayloadTruncated, Tag: TagRegExp, Off: off}
	}
	flags, err := readPrefixed(sub)
	if err != nil || sub.Remaining() != 0 {
		return nil, &InvalidError{Reason: ReasonPayloadTruncated, Tag: TagRegExp, Off: off}
	}
	return RegExp{Pattern: pattern, Flags: flags}, nil
}

func (c *Codec) decodeSetPayload(payload []byte, off int) (any, error) {
	sub := buffer.From(payload)
	v, err := c.decodeValue(sub)
	if err != nil {
		return nil, extPayloadErr(err, TagSet, off)
	}
	elems, ok := v.([]any)
	if !ok || sub.Remaining() != 0 {
		return nil, &InvalidError{Reason: ReasonPayloadTruncated, Tag: TagSet, Off: off}
	}
	return &Set{elems: elems}, nil
}

// decodeMapPayload accepts the reserved Map tag for wire compatibility with
// writers that emit ordered maps as an extension; this codec itself emits the
// native map family for *Map.
func (c *Codec) decodeMapPayload(payload []byte, off int) (any, error) {
	sub := buffer.From(payload)
	v, err := c.decodeValue(sub)
	if err != nil {
		return nil, extPayloadErr(err, TagMap, off)
	}
	m, ok := v.(*Map)
	if !ok || sub.Remaining() != 0 {
		return nil, &InvalidError{Reason: ReasonPayloadTruncated, Tag: TagMap, Off: off}
	}
	return m, nil
}

func decodeError(payload []byte, off int) (any, error) {
	sub := buffer.From(payload)
	kind, err := sub.ReadByte()
	if err != nil {
		return nil, &InvalidError{Reason: ReasonPayloadTruncated, Tag: TagError, Off: off}
	}
	msg, err := readPrefixed(sub)
	if err != nil {
		return nil, &InvalidError{Reason: ReasonPayloadTruncated, Tag: TagError, Off: off}
	}
	stack, err := readPrefixed(sub)
	if err != nil || sub.Remaining() != 0 {
		return nil, &InvalidError{Reason: ReasonPayloadTruncated, Tag: TagError, Off: off}
	}
	return &ErrorValue{Kind: kindFromTag(kind), Message: msg, Stack: stack}, nil
}

// readPrefixed reads a u32-length-prefixed string from sub.
func readPrefixed(sub *buffer.Buffer) (string, error) {
	n, err := sub.ReadUint32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(sub.Remaining()) {
		return "", buffer.ErrNeedMore
	}
	p, _ := sub.ReadBytes(int(n))
	return string(p), nil
}

// extPayloadErr rebases errors from decoding inside an extension payload.
// The payload's size was already announced and fully read from the outer
// buffer, so an inner underflow is a protocol error, never a retry state.
func extPayloadErr(err error, tag int8, off int) error {
	if errors.Is(err, buffer.ErrNeedMore) {
		return &InvalidError{Reason: ReasonPayloadTruncated, Tag: tag, Off: off}
	}
	return err
}
