package cim

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// HashInstanceName computes a hash of n consistent with Equal: case-folded
// names and canonical value text form, so two equal InstanceName values
// always hash identically.
func HashInstanceName(n *InstanceName) uint64 {
	h := fnv.New64a()
	writeFold(h, n.ClassName)
	writeFold(h, n.Host)
	writeFold(h, n.Namespace)
	keys := n.Keybindings.Keys()
	sort.Slice(keys, func(i, j int) bool { return strings.ToLower(keys[i]) < strings.ToLower(keys[j]) })
	for _, key := range keys {
		v, _ := n.Keybindings.Get(key)
		writeFold(h, key)
		writeValue(h, v)
	}
	return h.Sum64()
}

func writeFold(h interface{ Write([]byte) (int, error) }, s string) {
	_, _ = h.Write([]byte(strings.ToLower(s)))
	_, _ = h.Write([]byte{0})
}

func writeValue(h interface{ Write([]byte) (int, error) }, v TypedValue) {
	if v == nil {
		_, _ = h.Write([]byte{0xff})
		return
	}
	_, _ = h.Write([]byte(string(v.CIMType())))
	switch t := v.(type) {
	case *InstanceName:
		_, _ = h.Write([]byte(strconv.FormatUint(HashInstanceName(t), 16)))
	case Array:
		for _, e := range t.Elements {
			writeValue(h, e)
		}
	default:
		_, _ = h.Write([]byte(v.XMLText()))
	}
	_, _ = h.Write([]byte{0})
}
