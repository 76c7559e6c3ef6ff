package msgbuf

import (
	"fmt"

	"github.com/unkn0wn-root/msgbuf/buffer"
)

// ErrNeedMore signals that the buffer does not yet hold a complete value.
// It is recoverable: append more input and retry. Aliased from the buffer
// package so callers can errors.Is against either.
var ErrNeedMore = buffer.ErrNeedMore

// InvalidReason classifies malformed input the decoder cannot interpret.
type InvalidReason uint8

const (
	// ReasonUnknownFormat - the first byte is not a MessagePack prefix (0xc1).
	ReasonUnknownFormat InvalidReason = iota + 1
	// ReasonUnknownExtensionTag - an extension tag with no registered handler
	// and no built-in meaning.
	ReasonUnknownExtensionTag
	// ReasonLengthOverflow - a 32-bit length field announces a size beyond
	// what this implementation supports (2^31 - 1).
	ReasonLengthOverflow
	// ReasonPayloadTruncated - a fully read length header inside an
	// already-announced payload describes more bytes than the payload holds,
	// or a built-in extension payload is otherwise malformed (bad size, wrong
	// inner kind, trailing bytes).
	// Unlike ErrNeedMore this is a protocol error, not a retry state.
	ReasonPayloadTruncated
)

func (r InvalidReason) String() string {
	switch r {
	case ReasonUnknownFormat:
		return "unknown format"
	case ReasonUnknownExtensionTag:
		return "unknown extension tag"
	case ReasonLengthOverflow:
		return "length overflow"
	case ReasonPayloadTruncated:
		return "payload truncated"
	default:
		return "invalid"
	}
}

// InvalidError reports malformed input. It is non-recoverable at the current
// decode scope; the read cursor is left where the failed top-level decode
// started.
type InvalidError struct {
	Reason InvalidReason
	Tag    int8 // set for ReasonUnknownExtensionTag
	Off    int  // byte offset of the offending prefix, relative to decode start
}

func (e *InvalidError) Error() string {
	if e.Reason == ReasonUnknownExtensionTag {
		return fmt.Sprintf("msgbuf: invalid input at offset %d: unknown extension tag %d", e.Off, e.Tag)
	}
	return fmt.Sprintf("msgbuf: invalid input at offset %d: %s", e.Off, e.Reason)
}

// UnsupportedTypeError reports a value kind with no wire representation and
// no registered handler. Encoder-only.
type UnsupportedTypeError struct {
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("msgbuf: unsupported type %T", e.Value)
}

// InvalidTagError reports an extension registration outside the user range
// 0..127.
type InvalidTagError struct {
	Tag int
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("msgbuf: extension tag %d outside 0..127", e.Tag)
}

// HandlerError wraps a failure from a user-registered extension handler,
// carrying the tag and registered name for diagnosis.
type HandlerError struct {
	Tag  int8
	Name string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("msgbuf: extension %q (tag %d): %v", e.Name, e.Tag, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
