package msgbuf

import (
	"errors"
	"fmt"
	"sync"

	"github.com/unkn0wn-root/msgbuf/buffer"
)

const defaultBufferSize = 256

// Codec owns the extension registry and exposes the encode/decode surface.
//
// The registry is a fixed 128-slot table indexed by tag; built-in native
// types live on the disjoint negative tag range, so user registrations can
// never collide with them.
//
// A Codec holds no mutable scratch state across operations - buffers are
// threaded explicitly - so a registered handler may call back into the codec
// mid-encode. Sharing a Codec across goroutines is safe once registration is
// finished and each goroutine uses its own buffers.
type Codec struct {
	exts    [128]*Extension
	log     Logger
	hooks   Hooks
	initCap int

	// pool recycles payload buffers for extension encoding. Each payload gets
	// its own buffer (never a shared per-codec scratch), which is what makes
	// recursive handler encodes safe.
	pool sync.Pool
}

func newCodec(opts Options) *Codec {
	c := &Codec{
		log:     coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:   coalesce[Hooks](opts.Hooks, NopHooks{}),
		initCap: opts.InitialBufferSize,
	}
	if c.initCap <= 0 {
		c.initCap = defaultBufferSize
	}
	c.pool.New = func() any { return buffer.New(c.initCap) }
	return c
}

// Register installs ext under tag, replacing any prior entry for the same
// tag. Tags outside 0..127 fail with InvalidTagError; the reserved built-in
// tags are negative and therefore unreachable here.
func (c *Codec) Register(tag int, ext Extension) error {
	if tag < 0 || tag > 127 {
		return &InvalidTagError{Tag: tag}
	}
	if ext.Match == nil || ext.Encode == nil || ext.Decode == nil {
		return fmt.Errorf("msgbuf: extension %q (tag %d): Match, Encode and Decode are required", ext.Name, tag)
	}
	if prev := c.exts[tag]; prev != nil {
		c.log.Debug("extension replaced", Fields{"tag": tag, "old": prev.Name, "new": ext.Name})
		c.hooks.ExtensionReplaced(int8(tag), ext.Name)
	}
	c.exts[tag] = &ext
	return nil
}

// Decode reads exactly one value from b. Truncated input and trailing bytes
// are both errors; use TryDecode for streaming input.
func (c *Codec) Decode(b []byte) (any, error) {
	buf := buffer.From(b)
	v, n, err := c.TryDecode(buf)
	if err != nil {
		if errors.Is(err, ErrNeedMore) {
			return nil, fmt.Errorf("msgbuf: truncated input: %w", err)
		}
		return nil, err
	}
	if n != len(b) {
		return nil, fmt.Errorf("msgbuf: %d trailing bytes after value", len(b)-n)
	}
	return v, nil
}

// TryDecode attempts to read one value from buf's unread region.
//
// Outcomes:
//   - (v, n, nil): a complete value; the read cursor advanced by exactly n.
//   - (nil, 0, ErrNeedMore): the buffer holds a prefix of a value; the read
//     cursor is unchanged. Append more bytes and retry.
//   - (nil, 0, *InvalidError or *HandlerError): malformed input or a failed
//     handler; the read cursor is back where this call started.
func (c *Codec) TryDecode(buf *buffer.Buffer) (any, int, error) {
	start := buf.ReadPos()
	v, err := c.decodeValue(buf)
	if err != nil {
		buf.SeekRead(start)
		var inv *InvalidError
		if errors.As(err, &inv) {
			inv.Off -= start
			c.log.Debug("rejected input", Fields{"reason": inv.Reason.String(), "off": inv.Off})
			c.hooks.InvalidInput(inv.Reason, inv.Off)
		}
		if errors.Is(err, buffer.ErrNeedMore) {
			return nil, 0, ErrNeedMore
		}
		return nil, 0, err
	}
	return v, buf.ReadPos() - start, nil
}

// DecodeAll drains every complete value currently in buf, stopping cleanly at
// a trailing partial value. The error is non-nil only for invalid input.
func (c *Codec) DecodeAll(buf *buffer.Buffer) ([]any, error) {
	var vs []any
	for buf.Remaining() > 0 {
		v, _, err := c.TryDecode(buf)
		if err != nil {
			if errors.Is(err, ErrNeedMore) {
				return vs, nil
			}
			return vs, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

// acquire hands out a clean pooled buffer for one extension payload.
func (c *Codec) acquire() *buffer.Buffer {
	b := c.pool.Get().(*buffer.Buffer)
	b.Reset()
	return b
}

func (c *Codec) release(b *buffer.Buffer) {
	c.pool.Put(b)
}
