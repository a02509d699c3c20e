package cim

import "strings"

// Parameter is a CIM method input/output parameter definition.
type Parameter struct {
	Name           string
	Type           Type
	ReferenceClass string // required iff Type == TypeReference
	IsArray        bool
	ArraySize      *int
	Qualifiers     *OrderedMap[*Qualifier]
}

func (p *Parameter) Equal(o *Parameter) bool {
	if o == nil {
		return false
	}
	if !strings.EqualFold(p.Name, o.Name) || p.Type != o.Type ||
		p.ReferenceClass != o.ReferenceClass || p.IsArray != o.IsArray {
		return false
	}
	if (p.ArraySize == nil) != (o.ArraySize == nil) {
		return false
	}
	if p.ArraySize != nil && *p.ArraySize != *o.ArraySize {
		return false
	}
	return qualifiersEqual(p.Qualifiers, o.Qualifiers)
}

// Method is a CIM method definition on a class.
type Method struct {
	Name       string
	ReturnType Type
	Parameters *OrderedMap[*Parameter]
	Qualifiers *OrderedMap[*Qualifier]
	Propagated bool
}

func NewMethod(name string, returnType Type) *Method {
	return &Method{
		Name:       name,
		ReturnType: returnType,
		Parameters: NewOrderedMap[*Parameter](),
		Qualifiers: NewOrderedMap[*Qualifier](),
	}
}

func (m *Method) Equal(o *Method) bool {
	if o == nil {
		return false
	}
	if !strings.EqualFold(m.Name, o.Name) || m.ReturnType != o.ReturnType || m.Propagated != o.Propagated {
		return false
	}
	if m.Parameters.Len() != o.Parameters.Len() {
		return false
	}
	equal := true
	m.Parameters.Each(func(name string, p *Parameter) {
		op, ok := o.Parameters.Get(name)
		if !ok || !p.Equal(op) {
			equal = false
		}
	})
	return equal && qualifiersEqual(m.Qualifiers, o.Qualifiers)
}

// Class is a CIM class definition: ordered properties, methods,
// qualifiers, and an optional superclass.
type Class struct {
	ClassName  string
	SuperClass string // empty if none
	Properties *OrderedMap[*Property]
	Methods    *OrderedMap[*Method]
	Qualifiers *OrderedMap[*Qualifier]
}

// NewClass constructs an empty Class named className.
func NewClass(className string) *Class {
	return &Class{
		ClassName:  className,
		Properties: NewOrderedMap[*Property](),
		Methods:    NewOrderedMap[*Method](),
		Qualifiers: NewOrderedMap[*Qualifier](),
	}
}

// ClassName is a reference to a class by name plus optional
// namespace/host, the class-level analogue of InstanceName.
type ClassName struct {
	Name      string
	Host      string
	Namespace string
}

func (c *ClassName) Equal(o *ClassName) bool {
	if o == nil {
		return false
	}
	return strings.EqualFold(c.Name, o.Name) &&
		strings.EqualFold(c.Host, o.Host) &&
		c.Namespace == o.Namespace
}

func (cl *Class) Equal(o *Class) bool {
	if o == nil {
		return false
	}
	if !strings.EqualFold(cl.ClassName, o.ClassName) || !strings.EqualFold(cl.SuperClass, o.SuperClass) {
		return false
	}
	if cl.Properties.Len() != o.Properties.Len() || cl.Methods.Len() != o.Methods.Len() {
		return false
	}
	equal := true
	cl.Properties.Each(func(name string, p *Property) {
		op, ok := o.Properties.Get(name)
		if !ok || !p.Equal(op) {
			equal = false
		}
	})
	cl.Methods.Each(func(name string, m *Method) {
		om, ok := o.Methods.Get(name)
		if !ok || !m.Equal(om) {
			equal = false
		}
	})
	return equal && qualifiersEqual(cl.Qualifiers, o.Qualifiers)
}
