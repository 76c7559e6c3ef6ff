package msgbuf

import "reflect"

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   any
	Value any
}

// Map is an insertion-ordered key/value sequence. It is the codec's mapping
// type: the decoder materializes every wire map as a *Map so that pair order
// survives a round trip and duplicate keys are preserved, never reconciled.
// Callers who need last-write-wins semantics collapse the pairs themselves.
type Map struct {
	entries []MapEntry
}

// NewMap returns an empty Map.
func NewMap() *Map { return &Map{} }

// newMapCap preallocates for n pairs.
func newMapCap(n int) *Map { return &Map{entries: make([]MapEntry, 0, n)} }

// Put appends a pair. It never replaces an existing key.
func (m *Map) Put(key, value any) *Map {
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
	return m
}

// Get returns the value of the first pair whose key is structurally equal to
// key, and whether one was found.
func (m *Map) Get(key any) (any, bool) {
	for _, e := range m.entries {
		if valueEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Len returns the number of pairs, duplicates included.
func (m *Map) Len() int { return len(m.entries) }

// Entries returns the pairs in insertion order. The slice is shared; treat it
// as read-only.
func (m *Map) Entries() []MapEntry { return m.entries }

// Equal reports pairwise structural equality in order.
func (m *Map) Equal(o *Map) bool {
	if m == nil || o == nil {
		return m == o
	}
	if len(m.entries) != len(o.entries) {
		return false
	}
	for i, e := range m.entries {
		if !valueEqual(e.Key, o.entries[i].Key) || !valueEqual(e.Value, o.entries[i].Value) {
			return false
		}
	}
	return true
}

// Set is an insertion-ordered collection of distinct values.
type Set struct {
	elems []any
}

// NewSet returns a Set of the given values, first occurrence winning.
func NewSet(vs ...any) *Set {
	s := &Set{}
	for _, v := range vs {
		s.Add(v)
	}
	return s
}

// Add appends v unless a structurally equal element is already present.
func (s *Set) Add(v any) *Set {
	if !s.Has(v) {
		s.elems = append(s.elems, v)
	}
	return s
}

// Has reports whether a structurally equal element is present.
func (s *Set) Has(v any) bool {
	for _, e := range s.elems {
		if valueEqual(e, v) {
			return true
		}
	}
	return false
}

// Len returns the element count.
func (s *Set) Len() int { return len(s.elems) }

// Values returns the elements in insertion order. The slice is shared; treat
// it as read-only.
func (s *Set) Values() []any { return s.elems }

// Equal reports elementwise structural equality in order.
func (s *Set) Equal(o *Set) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.elems) != len(o.elems) {
		return false
	}
	for i, e := range s.elems {
		if !valueEqual(e, o.elems[i]) {
			return false
		}
	}
	return true
}

// RegExp carries a regular expression as source text plus flags, exactly as
// it travels on the wire. The codec does not compile or validate the pattern.
type RegExp struct {
	Pattern string
	Flags   string
}

// Ext is a raw extension record: an application tag and an opaque payload.
// It is the encode-side escape hatch for payloads the codec has no handler
// for; decoding a tag with no registered handler is an input error instead.
type Ext struct {
	Type int8
	Data []byte
}

// valueEqual is the structural equality used by Map.Get, Set membership and
// the Equal methods. A *Map or *Set operand compares through its Equal method;
// everything else, including a *Map or *Set nested inside a slice, goes
// through reflect.DeepEqual.
func valueEqual(a, b any) bool {
	am, aok := a.(*Map)
	bm, bok := b.(*Map)
	if aok || bok {
		return aok && bok && am.Equal(bm)
	}
	as, sok := a.(*Set)
	bs, tok := b.(*Set)
	if sok || tok {
		return sok && tok && as.Equal(bs)
	}
	return reflect.DeepEqual(a, b)
}
