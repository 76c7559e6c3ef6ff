package msgbuf

import (
	"github.com/unkn0wn-root/msgbuf/buffer"
)

// Extension defines a user type carried through the wire as an extension
// record. Match identifies values belonging to the type, Encode appends the
// payload bytes for a matching value, Decode reconstructs the value from a
// payload slice.
//
// Encode receives a fresh buffer that becomes the extension payload; it is
// free to call codec.EncodeTo on sub-values (nested user types included)
// without disturbing the outer encode. Decode may likewise call codec.Decode
// on slices of its payload.
type Extension struct {
	// Name labels the extension in errors and logs. Optional.
	Name string

	// Match reports whether v belongs to this extension.
	Match func(v any) bool

	// Encode appends the payload for a matched value to buf.
	Encode func(codec *Codec, buf *buffer.Buffer, v any) error

	// Decode rebuilds a value from the payload.
	Decode func(codec *Codec, payload []byte) (any, error)
}

// Options tune a Codec. The zero value is usable.
type Options struct {
	// Logger receives debug-level codec events (registration replacements,
	// rejected input). Nil disables logging.
	Logger Logger

	// Hooks receives high-signal event callbacks. Nil disables hooks.
	Hooks Hooks

	// InitialBufferSize is the capacity of buffers the codec allocates for
	// Encode and for extension payloads. 0 => 256.
	InitialBufferSize int
}

// New returns a Codec with the built-in native types installed and no user
// extensions registered.
func New(opts Options) *Codec {
	return newCodec(opts)
}
