package msgbuf

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; do not perform I/O.
// If work may block, buffer it and drop on backpressure (best effort).
type Hooks interface {
	// UnknownExtensionTag fires when the decoder meets a tag with no
	// registered handler and no built-in meaning.
	UnknownExtensionTag(tag int8)
	// InvalidInput fires once per rejected top-level decode.
	InvalidInput(reason InvalidReason, off int)
	// ExtensionReplaced fires when Register overwrites an existing tag.
	ExtensionReplaced(tag int8, name string)
	// HandlerError fires when a user handler fails mid-encode or mid-decode.
	HandlerError(tag int8, name string, err error)
}

// NopHooks is a default no-op.
type NopHooks struct{}

func (NopHooks) UnknownExtensionTag(int8)         {}
func (NopHooks) InvalidInput(InvalidReason, int)  {}
func (NopHooks) ExtensionReplaced(int8, string)   {}
func (NopHooks) HandlerError(int8, string, error) {}

// Multi returns a Hooks that fan-outs to all provided hooks, in order.
// Nil entries are ignored.
// Panics from a hook will propagate to the caller.
//
// example usage:
//
// logH := sloghooks.New(slog.Default(), sloghooks.Options{UnknownTagEvery: 10})
// metH := mymetrics.Hook{...}
//
// // fan-out
// mh := msgbuf.Multi(logH, metH)
//
// // Or wrap in an async queue so slow sinks cannot stall decoding:
//
//	hooks := asynchook.New(mh, 1, 1000)
func Multi(hs ...Hooks) Hooks {
	nn := make([]Hooks, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			nn = append(nn, h)
		}
	}
	return multiHooks(nn)
}

type multiHooks []Hooks

func (m multiHooks) UnknownExtensionTag(t int8) {
	for _, h := range m {
		h.UnknownExtensionTag(t)
	}
}
func (m multiHooks) InvalidInput(r InvalidReason, off int) {
	for _, h := range m {
		h.InvalidInput(r, off)
	}
}
func (m multiHooks) ExtensionReplaced(t int8, name string) {
	for _, h := range m {
		h.ExtensionReplaced(t, name)
	}
}
func (m multiHooks) HandlerError(t int8, name string, err error) {
	for _, h := range m {
		h.HandlerError(t, name, err)
	}
}
