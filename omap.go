package noproto

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OMap is the insertion-ordered map described in spec.md §4.5: struct
// fields and enum variants both need stable declaration order (it determines
// byte offsets and discriminants) while still supporting lookup by key.
// Backed by wk8/go-ordered-map/v2, the same ordered-map family the
// 23233-jsonschema example wires in for its own Properties field.
type OMap[V any] struct {
	m *orderedmap.OrderedMap[string, V]
}

// NewOMap returns an empty, ready-to-use ordered map.
func NewOMap[V any]() *OMap[V] {
	return &OMap[V]{m: orderedmap.New[string, V]()}
}

// Set inserts key with value v, updating in place if key already exists,
// else appending it at the end of the iteration order.
func (o *OMap[V]) Set(key string, v V) {
	o.m.Set(key, v)
}

// Get returns the value stored under key and whether it was present.
func (o *OMap[V]) Get(key string) (V, bool) {
	return o.m.Get(key)
}

// GetMut returns a pointer-friendly lookup when V is itself a pointer type;
// callers needing to mutate a stored value in place should store pointers.
func (o *OMap[V]) GetMut(key string) (V, bool) {
	return o.m.Get(key)
}

// Has reports whether key is present.
func (o *OMap[V]) Has(key string) bool {
	_, ok := o.m.Get(key)
	return ok
}

// Delete removes key, returning whether it was present.
func (o *OMap[V]) Delete(key string) bool {
	return o.m.Delete(key)
}

// Len returns the number of entries.
func (o *OMap[V]) Len() int {
	if o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Pair mirrors orderedmap.Pair for iteration without leaking the backing
// library's type into every call site.
type Pair[V any] struct {
	Key   string
	Value V
}

// Iter returns the entries in insertion order.
func (o *OMap[V]) Iter() []Pair[V] {
	out := make([]Pair[V], 0, o.Len())
	if o.m == nil {
		return out
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Pair[V]{Key: pair.Key, Value: pair.Value})
	}
	return out
}

// IterKeys returns the keys in insertion order.
func (o *OMap[V]) IterKeys() []string {
	keys := make([]string, 0, o.Len())
	if o.m == nil {
		return keys
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// IndexOf returns the zero-based insertion-order position of key, or -1.
func (o *OMap[V]) IndexOf(key string) int {
	i := 0
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == key {
			return i
		}
		i++
	}
	return -1
}
