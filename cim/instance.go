package cim

import "strings"

// InstanceName is a CIM object path: a class name, optional host, a
// normalized namespace, and an ordered case-insensitive set of keybindings.
// Equality is case-insensitive on classname/host and value-equal on
// keybindings.
type InstanceName struct {
	ClassName   string
	Host        string // authority (host[:port]); empty if local
	Namespace   string // already normalized; see NormalizeNamespace
	Keybindings *OrderedMap[TypedValue]
}

// NewInstanceName constructs an InstanceName with normalized namespace.
// An empty namespace is permitted here (resolved later by the operation
// engine); normalization only rejects a namespace that becomes empty after
// stripping slashes when one was actually supplied.
func NewInstanceName(className, namespace string) (*InstanceName, error) {
	ns := namespace
	if ns != "" {
		normalized, err := NormalizeNamespace(ns)
		if err != nil {
			return nil, err
		}
		ns = normalized
	}
	return &InstanceName{
		ClassName:   className,
		Namespace:   ns,
		Keybindings: NewOrderedMap[TypedValue](),
	}, nil
}

// CIMType implements TypedValue so an InstanceName can be used directly as
// a reference-typed keybinding value.
func (n *InstanceName) CIMType() Type { return TypeReference }

// XMLText is not used directly for references; references are encoded via
// <VALUE.REFERENCE> / <INSTANCENAME>, never as bare text. Provided to
// satisfy TypedValue.
func (n *InstanceName) XMLText() string { return "" }

// Equal compares two InstanceName values: class name and host
// case-insensitively, namespace exactly (already normalized), and
// keybindings by name (case-insensitive) and value.
func (n *InstanceName) Equal(o TypedValue) bool {
	b, ok := o.(*InstanceName)
	if !ok || b == nil {
		return false
	}
	if !strings.EqualFold(n.ClassName, b.ClassName) {
		return false
	}
	if !strings.EqualFold(n.Host, b.Host) {
		return false
	}
	if n.Namespace != b.Namespace {
		return false
	}
	if n.Keybindings.Len() != b.Keybindings.Len() {
		return false
	}
	equal := true
	n.Keybindings.Each(func(key string, v TypedValue) {
		ov, exists := b.Keybindings.Get(key)
		if !exists || !valueEqual(v, ov) {
			equal = false
		}
	})
	return equal
}

// WithKeybinding sets a keybinding and returns the receiver for chaining.
func (n *InstanceName) WithKeybinding(name string, v TypedValue) *InstanceName {
	n.Keybindings.Set(name, v)
	return n
}

// Instance is a CIM instance: class name, ordered properties, optional
// path, and ordered qualifiers. Invariant: when Path is non-nil its
// ClassName must equal ClassName case-insensitively.
type Instance struct {
	ClassName  string
	Properties *OrderedMap[*Property]
	Path       *InstanceName
	Qualifiers *OrderedMap[*Qualifier]
}

// NewInstance constructs an empty Instance for className.
func NewInstance(className string) *Instance {
	return &Instance{
		ClassName:  className,
		Properties: NewOrderedMap[*Property](),
		Qualifiers: NewOrderedMap[*Qualifier](),
	}
}

// SetPath attaches path to the instance, validating that the path's
// classname matches the instance's.
func (inst *Instance) SetPath(path *InstanceName) error {
	if path != nil && !strings.EqualFold(path.ClassName, inst.ClassName) {
		return &ModelInvariantError{
			Msg: "instance path classname " + path.ClassName + " does not match instance classname " + inst.ClassName,
		}
	}
	inst.Path = path
	return nil
}

// ModelInvariantError reports a violated local data-model invariant,
// raised before any bytes go on the wire.
type ModelInvariantError struct {
	Msg string
}

func (e *ModelInvariantError) Error() string { return "cim: " + e.Msg }

// Equal compares two instances structurally: classname case-insensitively,
// properties and qualifiers by name (case-insensitive) and value, and path
// by InstanceName.Equal (nil-path mismatches are unequal).
func (inst *Instance) Equal(o *Instance) bool {
	if o == nil {
		return false
	}
	if !strings.EqualFold(inst.ClassName, o.ClassName) {
		return false
	}
	if (inst.Path == nil) != (o.Path == nil) {
		return false
	}
	if inst.Path != nil && !inst.Path.Equal(o.Path) {
		return false
	}
	if inst.Properties.Len() != o.Properties.Len() {
		return false
	}
	equal := true
	inst.Properties.Each(func(name string, p *Property) {
		op, ok := o.Properties.Get(name)
		if !ok || !p.Equal(op) {
			equal = false
		}
	})
	return equal && qualifiersEqual(inst.Qualifiers, o.Qualifiers)
}
