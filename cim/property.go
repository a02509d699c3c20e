package cim

import "strings"

// Property is a CIM property value/definition, carried on both CIMInstance
// and CIMClass.
type Property struct {
	Name           string
	Value          TypedValue // nil means NULL; an Array value means IsArray
	Type           Type
	ReferenceClass string // required iff Type == TypeReference
	Embedded       EmbeddedObjectKind
	IsArray        bool
	ArraySize      *int // only meaningful when IsArray
	Propagated     bool
	Qualifiers     *OrderedMap[*Qualifier]
}

// NewProperty constructs a property (an Array value makes it an array
// property), validating the IsArray/ArraySize and ReferenceClass
// invariants.
func NewProperty(name string, t Type, value TypedValue) (*Property, error) {
	p := &Property{
		Name:       name,
		Type:       t,
		Value:      value,
		Qualifiers: NewOrderedMap[*Qualifier](),
	}
	if arr, ok := value.(Array); ok {
		p.IsArray = true
		_ = arr
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Property) validate() error {
	if p.Type == TypeReference && p.ReferenceClass == "" {
		return &ModelInvariantError{Msg: "property " + p.Name + " has type reference but no reference_class"}
	}
	if p.Type != TypeReference && p.ReferenceClass != "" {
		return &ModelInvariantError{Msg: "property " + p.Name + " sets reference_class but type is not reference"}
	}
	_, isArrayShape := p.Value.(Array)
	if p.Value != nil && isArrayShape != p.IsArray {
		return &ModelInvariantError{Msg: "property " + p.Name + ": is_array must match the value's array shape"}
	}
	if p.ArraySize != nil && !p.IsArray {
		return &ModelInvariantError{Msg: "property " + p.Name + ": array_size may only be set when is_array"}
	}
	return nil
}

// Equal compares two properties: name case-insensitively, everything else
// structurally.
func (p *Property) Equal(o *Property) bool {
	if o == nil {
		return false
	}
	if !strings.EqualFold(p.Name, o.Name) {
		return false
	}
	if p.Type != o.Type || p.ReferenceClass != o.ReferenceClass ||
		p.Embedded != o.Embedded || p.IsArray != o.IsArray || p.Propagated != o.Propagated {
		return false
	}
	if (p.ArraySize == nil) != (o.ArraySize == nil) {
		return false
	}
	if p.ArraySize != nil && *p.ArraySize != *o.ArraySize {
		return false
	}
	return valueEqual(p.Value, o.Value) && qualifiersEqual(p.Qualifiers, o.Qualifiers)
}

// Qualifier is a CIM qualifier value attached to a class, property,
// method, or parameter. Flavor defaults per DSP0201 Annex: overridable and
// tosubclass default true; toinstance and translatable default false.
type Qualifier struct {
	Name         string
	Value        TypedValue
	Type         Type
	Overridable  bool
	ToSubclass   bool
	ToInstance   bool
	Translatable bool
}

// NewQualifier constructs a Qualifier with the DSP0201 default flavors.
func NewQualifier(name string, t Type, value TypedValue) *Qualifier {
	return &Qualifier{
		Name:        name,
		Type:        t,
		Value:       value,
		Overridable: true,
		ToSubclass:  true,
	}
}

func (q *Qualifier) Equal(o *Qualifier) bool {
	if o == nil {
		return false
	}
	return strings.EqualFold(q.Name, o.Name) && q.Type == o.Type &&
		q.Overridable == o.Overridable && q.ToSubclass == o.ToSubclass &&
		q.ToInstance == o.ToInstance && q.Translatable == o.Translatable &&
		valueEqual(q.Value, o.Value)
}

// qualifiersEqual compares two qualifier sets by case-insensitive name and
// value. A nil set and an empty set are equal.
func qualifiersEqual(a, b *OrderedMap[*Qualifier]) bool {
	la, lb := 0, 0
	if a != nil {
		la = a.Len()
	}
	if b != nil {
		lb = b.Len()
	}
	if la != lb {
		return false
	}
	if la == 0 {
		return true
	}
	equal := true
	a.Each(func(name string, q *Qualifier) {
		oq, ok := b.Get(name)
		if !ok || !q.Equal(oq) {
			equal = false
		}
	})
	return equal
}

// QualifierDeclaration is a CIM qualifier declaration (the schema-level
// definition of a qualifier, e.g. its default flavors and applicable
// scopes).
type QualifierDeclaration struct {
	Name         string
	Type         Type
	Value        TypedValue
	IsArray      bool
	Scopes       []string // e.g. "CLASS", "PROPERTY", "METHOD"
	Overridable  bool
	ToSubclass   bool
	ToInstance   bool
	Translatable bool
}

func (d *QualifierDeclaration) Equal(o *QualifierDeclaration) bool {
	if o == nil {
		return false
	}
	if !strings.EqualFold(d.Name, o.Name) || d.Type != o.Type || d.IsArray != o.IsArray {
		return false
	}
	if len(d.Scopes) != len(o.Scopes) {
		return false
	}
	for i := range d.Scopes {
		if !strings.EqualFold(d.Scopes[i], o.Scopes[i]) {
			return false
		}
	}
	return valueEqual(d.Value, o.Value)
}
