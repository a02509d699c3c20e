package xmlcodec

import "github.com/tony23/pywbem/cim"

// Request is the typed request tree the operation engine builds for a
// single CIM-XML message, encoded by Encode.
type Request struct {
	MessageID string

	// Intrinsic selects <IMETHODCALL> (true) vs <METHODCALL> (false).
	Intrinsic bool

	MethodName string
	Namespace  string // LOCALNAMESPACEPATH, for intrinsic operations

	// Extrinsic target: exactly one of InstancePath/ClassPath is set.
	InstancePath *cim.InstanceName
	ClassPath    *cim.ClassName

	// Params are emitted in this exact order; the encoder never reorders
	// them.
	Params []Param
}

// Param is a single named request parameter. Exactly one of the ParamValue
// fields is populated, matching the element the DTD dictates for the
// parameter's CIM type/shape.
type Param struct {
	Name  string
	Value ParamValue
}

// ParamValue is the sum type for request-parameter payload shapes: a
// scalar <VALUE>, an array <VALUE.ARRAY>, an <INSTANCENAME>, a <CLASSNAME>,
// a <VALUE.REFERENCE>, an <INSTANCE>, a <CLASS>, or a
// <VALUE.NAMEDINSTANCE>. A ParamValue with Absent set means the parameter
// is entirely absent and is omitted from the request (never emitted as an
// empty element); a ParamValue with Absent unset and no payload field
// populated is an encoding error.
type ParamValue struct {
	Absent bool

	Scalar        cim.TypedValue
	Array         *cim.Array
	InstanceName  *cim.InstanceName
	ClassName     string
	Instance      *cim.Instance
	Class         *cim.Class
	NamedInstance *NamedInstanceParam
}

// NamedInstanceParam pairs a path with an instance for
// <VALUE.NAMEDINSTANCE>.
type NamedInstanceParam struct {
	Name     *cim.InstanceName
	Instance *cim.Instance
}

// ScalarParam builds a ParamValue carrying a single typed scalar.
func ScalarParam(v cim.TypedValue) ParamValue { return ParamValue{Scalar: v} }

// ArrayParam builds a ParamValue carrying an array.
func ArrayParam(a cim.Array) ParamValue { return ParamValue{Array: &a} }

// InstanceNameParam builds a ParamValue carrying an object path.
func InstanceNameParam(n *cim.InstanceName) ParamValue { return ParamValue{InstanceName: n} }

// ClassNameParam builds a ParamValue carrying a bare class name.
func ClassNameParam(name string) ParamValue { return ParamValue{ClassName: name} }

// InstanceParam builds a ParamValue carrying a full instance.
func InstanceParam(i *cim.Instance) ParamValue { return ParamValue{Instance: i} }

// ClassParam builds a ParamValue carrying a full class.
func ClassParam(c *cim.Class) ParamValue { return ParamValue{Class: c} }

// AbsentParam marks a parameter that must be omitted entirely.
func AbsentParam() ParamValue { return ParamValue{Absent: true} }
