package xmlcodec

import (
	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/wbemerrors"
)

// Response is the decoded shape of a <SIMPLERSP>: either an Error or a
// ReturnValue, never both.
type Response struct {
	MessageID string
	Error     *wbemerrors.CIMError
	Return    *ReturnValue
}

// NamedInstance pairs an object path with its instance, the shape
// returned by operations that deliver path information alongside each
// instance (Associators, References, the Open*/Pull* family).
type NamedInstance struct {
	Name     *cim.InstanceName
	Instance *cim.Instance
}

// ReturnValue is the generic decoded payload of an <IRETURNVALUE> or
// <RETURNVALUE>/<PARAMVALUE> set; the operation engine (client package)
// picks the field(s) appropriate to the operation that was called, since
// the codec itself does not interpret CIM semantics.
type ReturnValue struct {
	Instances      []*cim.Instance
	InstanceNames  []*cim.InstanceName
	Classes        []*cim.Class
	ClassNames     []*cim.ClassName
	NamedInstances []NamedInstance
	Values         []cim.TypedValue

	// Pull-enumeration fields.
	EnumerationContext string
	EndOfSequence      bool

	// Extrinsic method results.
	MethodReturnValue cim.TypedValue
	OutputParams      map[string]cim.TypedValue
}
