package cim

import "strings"

// OrderedMap is a name-keyed container that preserves insertion order while
// offering case-insensitive lookup with case-preservation of the original
// key, as CIM name semantics require.
//
// It is implemented as an ordered slice of entries paired with a
// case-folded index, rather than a plain map, since a hash map alone
// cannot preserve insertion order. It is used for CIMInstance properties,
// CIMInstanceName keybindings, qualifier sets, and CIMClass methods and
// parameters.
//
// OrderedMap is not safe for concurrent use; callers needing concurrent
// access must synchronize externally (consistent with Connection's
// single-operation-at-a-time contract).
type OrderedMap[V any] struct {
	order []string       // original-case keys, insertion order
	index map[string]int // case-folded key -> position in order/values
	value map[string]V   // case-folded key -> value
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{
		index: make(map[string]int),
		value: make(map[string]V),
	}
}

func fold(key string) string { return strings.ToLower(key) }

// Set inserts or replaces the value for key. The original case of key is
// preserved for a first insertion; replacing an existing key keeps the
// original case it was first inserted with (CIM name identity is
// case-insensitive).
func (m *OrderedMap[V]) Set(key string, v V) {
	k := fold(key)
	if _, exists := m.index[k]; !exists {
		m.index[k] = len(m.order)
		m.order = append(m.order, key)
	}
	m.value[k] = v
}

// Get returns the value for key (case-insensitive) and whether it exists.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.value[fold(key)]
	return v, ok
}

// Delete removes key (case-insensitive) if present.
func (m *OrderedMap[V]) Delete(key string) {
	k := fold(key)
	pos, ok := m.index[k]
	if !ok {
		return
	}
	delete(m.index, k)
	delete(m.value, k)
	m.order = append(m.order[:pos], m.order[pos+1:]...)
	for i := pos; i < len(m.order); i++ {
		m.index[fold(m.order[i])] = i
	}
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int { return len(m.order) }

// Keys returns the original-case keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Each calls fn for every entry in insertion order. fn must not mutate the
// map.
func (m *OrderedMap[V]) Each(fn func(key string, v V)) {
	for _, key := range m.order {
		v := m.value[fold(key)]
		fn(key, v)
	}
}

// Clone returns a shallow copy of m.
func (m *OrderedMap[V]) Clone() *OrderedMap[V] {
	out := NewOrderedMap[V]()
	m.Each(func(key string, v V) {
		out.Set(key, v)
	})
	return out
}
