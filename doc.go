// Package msgbuf implements a MessagePack codec with an extension-type
// registry and a growable dual-cursor buffer. Values encode to the smallest
// valid wire form; decoding is streaming-friendly via a try-decode mode that
// reports whether more bytes are needed without consuming anything.
//
// Components:
//   - buffer.Buffer: byte store with independent read/write cursors, geometric
//     growth, big-endian primitives and absolute writes for length
//     back-patching.
//   - Codec: owns the extension registry (tags 0..127) and the built-in
//     native types (dates, big integers, regexps, sets, ordered maps, errors)
//     on the reserved negative tag range.
//   - Extension: (Match, Encode, Decode) triple carrying an application type
//     through the wire. Handlers may call back into the codec for nested
//     values.
//
// Streaming pattern:
//
//	buf := buffer.New(4096)
//	buf.WriteBytes(chunk) // as input arrives
//	for {
//	    v, _, err := codec.TryDecode(buf)
//	    if errors.Is(err, msgbuf.ErrNeedMore) {
//	        break // cursor unchanged; feed more bytes and retry
//	    }
//	    // handle v or a malformed-input error
//	}
//	buf.Compact()
package msgbuf
