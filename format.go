package msgbuf

// MessagePack first-byte prefixes. All multi-byte fields are big-endian.
const (
	prefixNil    = 0xc0
	prefixUnused = 0xc1 // never valid on the wire
	prefixFalse  = 0xc2
	prefixTrue   = 0xc3

	prefixBin8  = 0xc4
	prefixBin16 = 0xc5
	prefixBin32 = 0xc6

	prefixExt8  = 0xc7
	prefixExt16 = 0xc8
	prefixExt32 = 0xc9

	prefixFloat32 = 0xca
	prefixFloat64 = 0xcb

	prefixUint8  = 0xcc
	prefixUint16 = 0xcd
	prefixUint32 = 0xce
	prefixUint64 = 0xcf

	prefixInt8  = 0xd0
	prefixInt16 = 0xd1
	prefixInt32 = 0xd2
	prefixInt64 = 0xd3

	prefixFixExt1  = 0xd4
	prefixFixExt2  = 0xd5
	prefixFixExt4  = 0xd6
	prefixFixExt8  = 0xd7
	prefixFixExt16 = 0xd8

	prefixStr8  = 0xd9
	prefixStr16 = 0xda
	prefixStr32 = 0xdb

	prefixArray16 = 0xdc
	prefixArray32 = 0xdd

	prefixMap16 = 0xde
	prefixMap32 = 0xdf
)

// Fix-form bounds.
const (
	fixStrMax   = 31
	fixArrayMax = 15
	fixMapMax   = 15
	posFixMax   = 0x7f
	negFixMin   = -32
)

// Reserved built-in extension tags. Negative tags are closed to user
// registration; these values are part of the wire contract and must never be
// reordered. TagDate matches the official MessagePack timestamp extension so
// foreign decoders round-trip dates.
const (
	TagDate   int8 = -1
	TagBigInt int8 = -2
	TagRegExp int8 = -3
	TagSet    int8 = -4
	TagMap    int8 = -5
	TagError  int8 = -6
)

// maxLen caps every decoded length field (str/bin/array/map/ext) at 2^31-1 so
// sizes stay addressable on 32-bit hosts.
const maxLen = 1<<31 - 1
