package cim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("Zebra", 1)
	m.Set("apple", 2)
	m.Set("Mango", 3)
	require.Equal(t, []string{"Zebra", "apple", "Mango"}, m.Keys())
}

func TestOrderedMapCaseInsensitiveLookup(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("Name", 42)

	v, ok := m.Get("name")
	require.True(t, ok)
	require.Equal(t, 42, v)

	v, ok = m.Get("NAME")
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestOrderedMapPreservesOriginalCaseOnReplace(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("Name", 1)
	m.Set("name", 2)
	require.Equal(t, []string{"Name"}, m.Keys())
	v, _ := m.Get("NAME")
	require.Equal(t, 2, v)
}

func TestOrderedMapDelete(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("A", 1)
	m.Set("B", 2)
	m.Set("C", 3)
	m.Delete("b")
	require.Equal(t, []string{"A", "C"}, m.Keys())
	_, ok := m.Get("B")
	require.False(t, ok)
}

func TestOrderedMapClone(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("A", 1)
	clone := m.Clone()
	clone.Set("B", 2)
	require.Equal(t, 1, m.Len())
	require.Equal(t, 2, clone.Len())
}
