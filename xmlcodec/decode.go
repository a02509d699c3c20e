package xmlcodec

import (
	"strconv"
	"strings"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/wbemerrors"
)

// Decode parses a CIM-XML response document into a Response. It requires
// DTDVERSION to start with "2.", locates the single
// <SIMPLERSP>, and returns either an Error (from a CIM-XML <ERROR>
// element) or a ReturnValue. An unknown child element of CIM, MESSAGE,
// SIMPLERSP, the method response, IRETURNVALUE, ERROR, INSTANCENAME,
// KEYBINDING, VALUE.NAMEDINSTANCE, INSTANCE, CLASS or METHOD causes a
// ParseError; the contents of properties, qualifiers, parameters,
// VALUE.ARRAY, VALUE.REFERENCE and (I)PARAMVALUE/RETURNVALUE elements are
// not checked for unknown elements. Reordered <IPARAMVALUE> children are
// tolerated since this decoder reads them by NAME rather than position.
func Decode(data []byte) (*Response, error) {
	root, err := parseTree(data)
	if err != nil {
		return nil, err
	}
	if root.Name != "CIM" {
		return nil, unexpectedElement(root, "document root")
	}
	dtd, _ := root.attr("DTDVERSION")
	if !strings.HasPrefix(dtd, "2.") {
		return nil, &wbemerrors.VersionError{Got: dtd}
	}
	if err := checkAllowedChildren(root, "CIM", "MESSAGE", "DECLARATION"); err != nil {
		return nil, err
	}
	message := root.child("MESSAGE")
	if message == nil {
		return nil, missingElement(root, "MESSAGE", "CIM")
	}
	messageID, _ := message.attr("ID")

	if err := checkAllowedChildren(message, "MESSAGE", "SIMPLERSP", "MULTIRSP", "SIMPLEREQ", "MULTIREQ"); err != nil {
		return nil, err
	}
	simple := message.child("SIMPLERSP")
	if simple == nil {
		return nil, missingElement(message, "SIMPLERSP", "MESSAGE")
	}
	if err := checkAllowedChildren(simple, "SIMPLERSP", "IMETHODRESPONSE", "METHODRESPONSE"); err != nil {
		return nil, err
	}

	resp := &Response{MessageID: messageID}
	if im := simple.child("IMETHODRESPONSE"); im != nil {
		ret, cimErr, err := decodeMethodResponseBody(im, "IMETHODRESPONSE")
		if err != nil {
			return nil, err
		}
		resp.Error = cimErr
		resp.Return = ret
		return resp, nil
	}
	if m := simple.child("METHODRESPONSE"); m != nil {
		ret, cimErr, err := decodeMethodResponseBody(m, "METHODRESPONSE")
		if err != nil {
			return nil, err
		}
		resp.Error = cimErr
		resp.Return = ret
		return resp, nil
	}
	return nil, missingElement(simple, "IMETHODRESPONSE or METHODRESPONSE", "SIMPLERSP")
}

func decodeMethodResponseBody(n *node, context string) (*ReturnValue, *wbemerrors.CIMError, error) {
	if err := checkAllowedChildren(n, context, "ERROR", "IRETURNVALUE", "RETURNVALUE", "PARAMVALUE", "IPARAMVALUE"); err != nil {
		return nil, nil, err
	}
	if errNode := n.child("ERROR"); errNode != nil {
		cimErr, err := decodeError(errNode)
		if err != nil {
			return nil, nil, err
		}
		return nil, cimErr, nil
	}
	ret := &ReturnValue{}
	if rv := n.child("IRETURNVALUE"); rv != nil {
		if err := decodeIReturnValue(rv, ret); err != nil {
			return nil, nil, err
		}
	}
	if rv := n.child("RETURNVALUE"); rv != nil {
		v, err := decodeValueChild(rv)
		if err != nil {
			return nil, nil, err
		}
		ret.MethodReturnValue = v
	}
	// Pull responses carry EnumerationContext/EndOfSequence as IPARAMVALUE
	// siblings of the IRETURNVALUE. The context string is preserved exactly
	// as the server sent it, treated as opaque.
	for _, pv := range n.children("IPARAMVALUE") {
		name, _ := pv.attr("NAME")
		v := pv.child("VALUE")
		switch {
		case strings.EqualFold(name, "EnumerationContext"):
			if v != nil {
				ret.EnumerationContext = v.Text
			}
		case strings.EqualFold(name, "EndOfSequence"):
			if v != nil {
				ret.EndOfSequence = strings.EqualFold(strings.TrimSpace(v.Text), "TRUE")
			}
		default:
			return nil, nil, unexpectedElement(pv, context)
		}
	}
	outParams := map[string]cim.TypedValue{}
	for _, pv := range n.children("PARAMVALUE") {
		name, _ := pv.attr("NAME")
		v, err := decodeValueChild(pv)
		if err != nil {
			return nil, nil, err
		}
		outParams[name] = v
	}
	if len(outParams) > 0 {
		ret.OutputParams = outParams
	}
	return ret, nil, nil
}

func decodeError(n *node) (*wbemerrors.CIMError, error) {
	codeStr, ok := n.attr("CODE")
	if !ok {
		return nil, missingElement(n, "CODE attribute", "ERROR")
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, newParseErrorAt(n.Line, n.Col, "ERROR CODE attribute is not an integer: "+codeStr)
	}
	desc, _ := n.attr("DESCRIPTION")
	cimErr := &wbemerrors.CIMError{Code: code, Description: desc}
	if err := checkAllowedChildren(n, "ERROR", "INSTANCE"); err != nil {
		return nil, err
	}
	for _, inst := range n.children("INSTANCE") {
		decoded, err := decodeInstance(inst)
		if err != nil {
			return nil, err
		}
		cimErr.Instances = append(cimErr.Instances, decoded)
	}
	return cimErr, nil
}

// decodeIReturnValue dispatches on the shape of <IRETURNVALUE>'s children,
// since the codec does not know the calling operation: the codec
// transports, the engine interprets.
func decodeIReturnValue(n *node, ret *ReturnValue) error {
	if err := checkAllowedChildren(n, "IRETURNVALUE",
		"INSTANCE", "INSTANCENAME", "CLASS", "CLASSNAME",
		"VALUE.NAMEDINSTANCE", "VALUE", "VALUE.ARRAY",
		"ENUMERATIONCONTEXT", "ENDOFSEQUENCE", "IRETURNVALUE"); err != nil {
		return err
	}
	for _, c := range n.Children {
		switch c.Name {
		case "INSTANCE":
			inst, err := decodeInstance(c)
			if err != nil {
				return err
			}
			ret.Instances = append(ret.Instances, inst)
		case "INSTANCENAME":
			name, err := decodeInstanceName(c)
			if err != nil {
				return err
			}
			ret.InstanceNames = append(ret.InstanceNames, name)
		case "CLASS":
			cls, err := decodeClass(c)
			if err != nil {
				return err
			}
			ret.Classes = append(ret.Classes, cls)
		case "CLASSNAME":
			cn, err := decodeClassName(c)
			if err != nil {
				return err
			}
			ret.ClassNames = append(ret.ClassNames, cn)
		case "VALUE.NAMEDINSTANCE":
			ni, err := decodeNamedInstance(c)
			if err != nil {
				return err
			}
			ret.NamedInstances = append(ret.NamedInstances, ni)
		case "VALUE":
			// Bare scalar IRETURNVALUE (e.g. a boolean intrinsic result)
			// carries no TYPE attribute of its own; the operation engine
			// knows the expected type from the method that was called, so
			// the raw text is handed up as a string and reinterpreted
			// there.
			ret.Values = append(ret.Values, cim.String(c.Text))
		case "VALUE.ARRAY":
			for _, v := range c.children("VALUE") {
				ret.Values = append(ret.Values, cim.String(v.Text))
			}
		}
	}
	// Pull-enumeration fields live as siblings alongside the IRETURNVALUE
	// under IMETHODRESPONSE in real CIM-XML; tolerated here as children too
	// since callers may wrap them either way.
	if ec := n.child("ENUMERATIONCONTEXT"); ec != nil {
		ret.EnumerationContext = ec.Text
	}
	if n.child("ENDOFSEQUENCE") != nil {
		ret.EndOfSequence = true
	}
	return nil
}

// decodeValueChild decodes a single <VALUE> or <VALUE.ARRAY> child of n
// using the PARAMTYPE/TYPE attribute present on n itself (the containing
// element carries the type, not the VALUE element).
func decodeValueChild(n *node) (cim.TypedValue, error) {
	t, _ := n.attr("PARAMTYPE")
	if t == "" {
		t, _ = n.attr("TYPE")
	}
	if arr := n.child("VALUE.ARRAY"); arr != nil {
		return decodeValueArray(arr, cim.Type(t))
	}
	if v := n.child("VALUE"); v != nil {
		return cim.ParseScalar(cim.Type(t), v.Text)
	}
	if ref := n.child("VALUE.REFERENCE"); ref != nil {
		in := ref.child("INSTANCENAME")
		if in == nil {
			return nil, missingElement(ref, "INSTANCENAME", "VALUE.REFERENCE")
		}
		return decodeInstanceName(in)
	}
	return nil, nil
}

func decodeValueArray(n *node, elemType cim.Type) (cim.TypedValue, error) {
	arr := cim.Array{ElementType: elemType}
	for _, v := range n.children("VALUE") {
		elem, err := cim.ParseScalar(elemType, v.Text)
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, elem)
	}
	return arr, nil
}

func decodeInstanceName(n *node) (*cim.InstanceName, error) {
	className, ok := n.attr("CLASSNAME")
	if !ok {
		return nil, missingElement(n, "CLASSNAME attribute", "INSTANCENAME")
	}
	if err := checkAllowedChildren(n, "INSTANCENAME", "KEYBINDING", "KEYVALUE", "VALUE.REFERENCE"); err != nil {
		return nil, err
	}
	out := &cim.InstanceName{ClassName: className, Keybindings: cim.NewOrderedMap[cim.TypedValue]()}
	for _, kb := range n.children("KEYBINDING") {
		name, ok := kb.attr("NAME")
		if !ok {
			return nil, missingElement(kb, "NAME attribute", "KEYBINDING")
		}
		if err := checkAllowedChildren(kb, "KEYBINDING", "KEYVALUE", "VALUE.REFERENCE"); err != nil {
			return nil, err
		}
		if ref := kb.child("VALUE.REFERENCE"); ref != nil {
			inNode := ref.child("INSTANCENAME")
			if inNode == nil {
				return nil, missingElement(ref, "INSTANCENAME", "VALUE.REFERENCE")
			}
			refName, err := decodeInstanceName(inNode)
			if err != nil {
				return nil, err
			}
			out.Keybindings.Set(name, refName)
			continue
		}
		kv := kb.child("KEYVALUE")
		if kv == nil {
			return nil, missingElement(kb, "KEYVALUE or VALUE.REFERENCE", "KEYBINDING")
		}
		t, _ := kv.attr("TYPE")
		if t == "" {
			t = keyValueDefaultType(kv)
		}
		v, err := cim.ParseScalar(cim.Type(t), kv.Text)
		if err != nil {
			return nil, err
		}
		out.Keybindings.Set(name, v)
	}
	return out, nil
}

func keyValueDefaultType(kv *node) string {
	vt, _ := kv.attr("VALUETYPE")
	switch vt {
	case "boolean":
		return string(cim.TypeBoolean)
	case "numeric":
		return string(cim.TypeSint64)
	default:
		return string(cim.TypeString)
	}
}

func decodeClassName(n *node) (*cim.ClassName, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, missingElement(n, "NAME attribute", "CLASSNAME")
	}
	return &cim.ClassName{Name: name}, nil
}

func decodeNamedInstance(n *node) (NamedInstance, error) {
	if err := checkAllowedChildren(n, "VALUE.NAMEDINSTANCE", "INSTANCENAME", "INSTANCE"); err != nil {
		return NamedInstance{}, err
	}
	inNode := n.child("INSTANCENAME")
	instNode := n.child("INSTANCE")
	if inNode == nil || instNode == nil {
		return NamedInstance{}, missingElement(n, "INSTANCENAME and INSTANCE", "VALUE.NAMEDINSTANCE")
	}
	name, err := decodeInstanceName(inNode)
	if err != nil {
		return NamedInstance{}, err
	}
	inst, err := decodeInstance(instNode)
	if err != nil {
		return NamedInstance{}, err
	}
	return NamedInstance{Name: name, Instance: inst}, nil
}

func decodeInstance(n *node) (*cim.Instance, error) {
	className, ok := n.attr("CLASSNAME")
	if !ok {
		return nil, missingElement(n, "CLASSNAME attribute", "INSTANCE")
	}
	if err := checkAllowedChildren(n, "INSTANCE",
		"QUALIFIER", "PROPERTY", "PROPERTY.ARRAY", "PROPERTY.REFERENCE"); err != nil {
		return nil, err
	}
	inst := cim.NewInstance(className)
	for _, q := range n.children("QUALIFIER") {
		decoded, err := decodeQualifier(q)
		if err != nil {
			return nil, err
		}
		inst.Qualifiers.Set(decoded.Name, decoded)
	}
	for _, c := range n.Children {
		switch c.Name {
		case "PROPERTY":
			p, err := decodeProperty(c)
			if err != nil {
				return nil, err
			}
			inst.Properties.Set(p.Name, p)
		case "PROPERTY.ARRAY":
			p, err := decodePropertyArray(c)
			if err != nil {
				return nil, err
			}
			inst.Properties.Set(p.Name, p)
		case "PROPERTY.REFERENCE":
			p, err := decodePropertyReference(c)
			if err != nil {
				return nil, err
			}
			inst.Properties.Set(p.Name, p)
		}
	}
	return inst, nil
}

func decodeQualifier(n *node) (*cim.Qualifier, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, missingElement(n, "NAME attribute", "QUALIFIER")
	}
	t, _ := n.attr("TYPE")
	q := cim.NewQualifier(name, cim.Type(t), nil)
	if v := n.child("VALUE"); v != nil {
		val, err := cim.ParseScalar(cim.Type(t), v.Text)
		if err != nil {
			return nil, err
		}
		q.Value = val
	}
	if propagated, ok := n.attr("OVERRIDABLE"); ok {
		q.Overridable = propagated == "true"
	}
	if s, ok := n.attr("TOSUBCLASS"); ok {
		q.ToSubclass = s == "true"
	}
	if s, ok := n.attr("TOINSTANCE"); ok {
		q.ToInstance = s == "true"
	}
	if s, ok := n.attr("TRANSLATABLE"); ok {
		q.Translatable = s == "true"
	}
	return q, nil
}

func decodeProperty(n *node) (*cim.Property, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, missingElement(n, "NAME attribute", "PROPERTY")
	}
	t, _ := n.attr("TYPE")
	p := &cim.Property{Name: name, Type: cim.Type(t), Qualifiers: cim.NewOrderedMap[*cim.Qualifier]()}
	if v := n.child("VALUE"); v != nil {
		val, err := cim.ParseScalar(cim.Type(t), v.Text)
		if err != nil {
			return nil, err
		}
		p.Value = val
	}
	if prop, ok := n.attr("PROPAGATED"); ok {
		p.Propagated = prop == "true"
	}
	for _, q := range n.children("QUALIFIER") {
		decoded, err := decodeQualifier(q)
		if err != nil {
			return nil, err
		}
		p.Qualifiers.Set(decoded.Name, decoded)
	}
	return p, nil
}

func decodePropertyArray(n *node) (*cim.Property, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, missingElement(n, "NAME attribute", "PROPERTY.ARRAY")
	}
	t, _ := n.attr("TYPE")
	p := &cim.Property{Name: name, Type: cim.Type(t), IsArray: true, Qualifiers: cim.NewOrderedMap[*cim.Qualifier]()}
	if arr := n.child("VALUE.ARRAY"); arr != nil {
		val, err := decodeValueArray(arr, cim.Type(t))
		if err != nil {
			return nil, err
		}
		p.Value = val
	}
	if prop, ok := n.attr("PROPAGATED"); ok {
		p.Propagated = prop == "true"
	}
	return p, nil
}

func decodePropertyReference(n *node) (*cim.Property, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, missingElement(n, "NAME attribute", "PROPERTY.REFERENCE")
	}
	refClass, _ := n.attr("REFERENCECLASS")
	p := &cim.Property{
		Name: name, Type: cim.TypeReference, ReferenceClass: refClass,
		Qualifiers: cim.NewOrderedMap[*cim.Qualifier](),
	}
	if ref := n.child("VALUE.REFERENCE"); ref != nil {
		inNode := ref.child("INSTANCENAME")
		if inNode != nil {
			v, err := decodeInstanceName(inNode)
			if err != nil {
				return nil, err
			}
			p.Value = v
		}
	}
	if prop, ok := n.attr("PROPAGATED"); ok {
		p.Propagated = prop == "true"
	}
	return p, nil
}

func decodeClass(n *node) (*cim.Class, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, missingElement(n, "NAME attribute", "CLASS")
	}
	super, _ := n.attr("SUPERCLASS")
	cls := cim.NewClass(name)
	cls.SuperClass = super
	if err := checkAllowedChildren(n, "CLASS",
		"QUALIFIER", "PROPERTY", "PROPERTY.ARRAY", "PROPERTY.REFERENCE", "METHOD"); err != nil {
		return nil, err
	}
	for _, q := range n.children("QUALIFIER") {
		decoded, err := decodeQualifier(q)
		if err != nil {
			return nil, err
		}
		cls.Qualifiers.Set(decoded.Name, decoded)
	}
	for _, c := range n.Children {
		switch c.Name {
		case "PROPERTY":
			p, err := decodeProperty(c)
			if err != nil {
				return nil, err
			}
			cls.Properties.Set(p.Name, p)
		case "PROPERTY.ARRAY":
			p, err := decodePropertyArray(c)
			if err != nil {
				return nil, err
			}
			cls.Properties.Set(p.Name, p)
		case "PROPERTY.REFERENCE":
			p, err := decodePropertyReference(c)
			if err != nil {
				return nil, err
			}
			cls.Properties.Set(p.Name, p)
		case "METHOD":
			m, err := decodeMethod(c)
			if err != nil {
				return nil, err
			}
			cls.Methods.Set(m.Name, m)
		}
	}
	return cls, nil
}

func decodeMethod(n *node) (*cim.Method, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, missingElement(n, "NAME attribute", "METHOD")
	}
	t, _ := n.attr("TYPE")
	m := cim.NewMethod(name, cim.Type(t))
	if prop, ok := n.attr("PROPAGATED"); ok {
		m.Propagated = prop == "true"
	}
	if err := checkAllowedChildren(n, "METHOD",
		"QUALIFIER", "PARAMETER", "PARAMETER.ARRAY", "PARAMETER.REFERENCE"); err != nil {
		return nil, err
	}
	for _, q := range n.children("QUALIFIER") {
		decoded, err := decodeQualifier(q)
		if err != nil {
			return nil, err
		}
		m.Qualifiers.Set(decoded.Name, decoded)
	}
	for _, c := range n.Children {
		switch c.Name {
		case "PARAMETER":
			pname, _ := c.attr("NAME")
			pt, _ := c.attr("TYPE")
			m.Parameters.Set(pname, &cim.Parameter{Name: pname, Type: cim.Type(pt), Qualifiers: cim.NewOrderedMap[*cim.Qualifier]()})
		case "PARAMETER.ARRAY":
			pname, _ := c.attr("NAME")
			pt, _ := c.attr("TYPE")
			m.Parameters.Set(pname, &cim.Parameter{Name: pname, Type: cim.Type(pt), IsArray: true, Qualifiers: cim.NewOrderedMap[*cim.Qualifier]()})
		case "PARAMETER.REFERENCE":
			pname, _ := c.attr("NAME")
			refClass, _ := c.attr("REFERENCECLASS")
			m.Parameters.Set(pname, &cim.Parameter{Name: pname, Type: cim.TypeReference, ReferenceClass: refClass, Qualifiers: cim.NewOrderedMap[*cim.Qualifier]()})
		}
	}
	return m, nil
}
