package cim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstanceNameEqualityIsCaseInsensitive(t *testing.T) {
	a, err := NewInstanceName("PyWBEM_Person", "root/cimv2")
	require.NoError(t, err)
	a.WithKeybinding("Name", String("Fritz"))

	b, err := NewInstanceName("pywbem_person", "root/cimv2")
	require.NoError(t, err)
	b.WithKeybinding("name", String("Fritz"))

	require.True(t, a.Equal(b))
}

func TestInstanceNameKeybindingOrderIrrelevantToEquality(t *testing.T) {
	a, _ := NewInstanceName("C", "root/cimv2")
	a.WithKeybinding("A", String("1")).WithKeybinding("B", String("2"))

	b, _ := NewInstanceName("C", "root/cimv2")
	b.WithKeybinding("B", String("2")).WithKeybinding("A", String("1"))

	require.True(t, a.Equal(b))
}

func TestReferenceTypedKeybinding(t *testing.T) {
	inner, _ := NewInstanceName("CIM_Disk", "root/cimv2")
	inner.WithKeybinding("DeviceID", String("disk0"))

	outer, _ := NewInstanceName("CIM_Partition", "root/cimv2")
	outer.WithKeybinding("Disk", inner)

	v, ok := outer.Keybindings.Get("Disk")
	require.True(t, ok)
	require.Equal(t, TypeReference, v.CIMType())
}

func TestInstancePathClassnameInvariant(t *testing.T) {
	inst := NewInstance("PyWBEM_Person")
	path, _ := NewInstanceName("Other_Class", "root/cimv2")
	err := inst.SetPath(path)
	require.Error(t, err)
	var modelErr *ModelInvariantError
	require.ErrorAs(t, err, &modelErr)
}

func TestInstanceEqual(t *testing.T) {
	mk := func() *Instance {
		inst := NewInstance("PyWBEM_Person")
		p, err := NewProperty("Name", TypeString, String("Fritz"))
		require.NoError(t, err)
		inst.Properties.Set("Name", p)
		return inst
	}
	require.True(t, mk().Equal(mk()))
}

func TestPropertyArrayInvariant(t *testing.T) {
	_, err := NewProperty("Foo", TypeUint8, nil)
	require.NoError(t, err)

	bad := &Property{Name: "Bad", Type: TypeUint8, IsArray: false, Value: Array{ElementType: TypeUint8}}
	require.Error(t, bad.validate())
}

func TestPropertyReferenceInvariant(t *testing.T) {
	bad := &Property{Name: "Ref", Type: TypeReference}
	require.Error(t, bad.validate())

	ok := &Property{Name: "Ref", Type: TypeReference, ReferenceClass: "CIM_Disk"}
	require.NoError(t, ok.validate())
}

func TestEqualityIsSensitiveToQualifiers(t *testing.T) {
	mk := func(key bool) *Instance {
		inst := NewInstance("PyWBEM_Person")
		p, err := NewProperty("Name", TypeString, String("Fritz"))
		require.NoError(t, err)
		if key {
			p.Qualifiers.Set("Key", NewQualifier("Key", TypeBoolean, Boolean(true)))
		}
		inst.Properties.Set("Name", p)
		return inst
	}
	require.True(t, mk(true).Equal(mk(true)))
	require.False(t, mk(true).Equal(mk(false)))

	a := mk(false)
	a.Qualifiers.Set("Version", NewQualifier("Version", TypeString, String("2.0")))
	require.False(t, a.Equal(mk(false)))
}

func TestClassEqualityIsSensitiveToQualifiers(t *testing.T) {
	mk := func(assoc bool) *Class {
		cls := NewClass("CIM_Dependency")
		if assoc {
			cls.Qualifiers.Set("Association", NewQualifier("Association", TypeBoolean, Boolean(true)))
		}
		return cls
	}
	require.True(t, mk(true).Equal(mk(true)))
	require.False(t, mk(true).Equal(mk(false)))
}
