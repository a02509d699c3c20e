package xmlcodec

import (
	"bytes"
	"fmt"

	"github.com/tony23/pywbem/cim"
)

// enc accumulates CIM-XML output, recording the first error encountered so
// call sites can chain writes without per-call error checks.
type enc struct {
	buf bytes.Buffer
	err error
}

func (e *enc) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *enc) raw(s string) {
	if e.err != nil {
		return
	}
	e.buf.WriteString(s)
}

func (e *enc) attr(name, value string) {
	if e.err != nil {
		return
	}
	escaped, err := escapeAttr(value)
	if err != nil {
		e.fail(fmt.Errorf("xmlcodec: attribute %s: %w", name, err))
		return
	}
	fmt.Fprintf(&e.buf, ` %s="%s"`, name, escaped)
}

func (e *enc) text(s string) {
	if e.err != nil {
		return
	}
	escaped, err := escapeText(s)
	if err != nil {
		e.fail(fmt.Errorf("xmlcodec: text: %w", err))
		return
	}
	e.buf.WriteString(escaped)
}

// Encode renders req as a complete CIM-XML request document: the
// <CIM>/<MESSAGE>/<SIMPLEREQ> envelope wrapping either an <IMETHODCALL> or
// a <METHODCALL>, per DSP0201.
func Encode(req *Request) ([]byte, error) {
	e := &enc{}
	e.raw(`<?xml version="1.0" encoding="utf-8"?>`)
	e.raw(`<CIM CIMVERSION="2.0" DTDVERSION="2.0">`)
	e.raw(`<MESSAGE ID="`)
	e.text(req.MessageID)
	e.raw(`" PROTOCOLVERSION="1.0">`)
	e.raw(`<SIMPLEREQ>`)

	if req.Intrinsic {
		e.encodeIMethodCall(req)
	} else {
		e.encodeMethodCall(req)
	}

	e.raw(`</SIMPLEREQ></MESSAGE></CIM>`)
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

func (e *enc) encodeIMethodCall(req *Request) {
	e.raw(`<IMETHODCALL NAME="`)
	e.text(req.MethodName)
	e.raw(`">`)
	e.encodeLocalNamespacePath(req.Namespace)
	for _, p := range req.Params {
		e.encodeIParamValue(p)
	}
	e.raw(`</IMETHODCALL>`)
}

func (e *enc) encodeMethodCall(req *Request) {
	e.raw(`<METHODCALL NAME="`)
	e.text(req.MethodName)
	e.raw(`">`)
	switch {
	case req.InstancePath != nil:
		e.raw(`<LOCALINSTANCEPATH>`)
		e.encodeLocalNamespacePathRaw(req.InstancePath.Namespace)
		e.encodeInstanceNameBody(req.InstancePath)
		e.raw(`</LOCALINSTANCEPATH>`)
	case req.ClassPath != nil:
		e.raw(`<LOCALCLASSPATH>`)
		e.encodeLocalNamespacePathRaw(req.ClassPath.Namespace)
		e.raw(`<CLASSNAME NAME="`)
		e.text(req.ClassPath.Name)
		e.raw(`"/>`)
		e.raw(`</LOCALCLASSPATH>`)
	default:
		e.fail(fmt.Errorf("xmlcodec: extrinsic method call requires an instance or class path"))
	}
	for _, p := range req.Params {
		e.encodeParamValue(p)
	}
	e.raw(`</METHODCALL>`)
}

func (e *enc) encodeLocalNamespacePath(ns string) {
	e.raw(`<LOCALNAMESPACEPATH>`)
	e.encodeLocalNamespacePathRaw(ns)
	e.raw(`</LOCALNAMESPACEPATH>`)
}

// encodeLocalNamespacePathRaw writes the <NAMESPACE NAME="..."/> chain for
// each normalized path segment (e.g. "root/mycim" -> <NAMESPACE
// NAME="root"/><NAMESPACE NAME="mycim"/>).
func (e *enc) encodeLocalNamespacePathRaw(ns string) {
	normalized, err := cim.NormalizeNamespace(ns)
	if err != nil {
		e.fail(fmt.Errorf("xmlcodec: %w", err))
		return
	}
	for _, seg := range splitNamespace(normalized) {
		e.raw(`<NAMESPACE NAME="`)
		e.text(seg)
		e.raw(`"/>`)
	}
}

func splitNamespace(ns string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(ns); i++ {
		if ns[i] == '/' {
			segs = append(segs, ns[start:i])
			start = i + 1
		}
	}
	segs = append(segs, ns[start:])
	return segs
}

func (e *enc) encodeIParamValue(p Param) {
	if p.Value.Absent {
		return
	}
	e.raw(`<IPARAMVALUE NAME="`)
	e.text(p.Name)
	e.raw(`">`)
	e.encodeParamBody(p.Value)
	e.raw(`</IPARAMVALUE>`)
}

func (e *enc) encodeParamValue(p Param) {
	if p.Value.Absent {
		return
	}
	e.raw(`<PARAMVALUE NAME="`)
	e.text(p.Name)
	e.raw(`"`)
	if p.Value.Scalar != nil {
		e.raw(` PARAMTYPE="`)
		e.text(string(p.Value.Scalar.CIMType()))
		e.raw(`"`)
	}
	e.raw(`>`)
	e.encodeParamBody(p.Value)
	e.raw(`</PARAMVALUE>`)
}

func (e *enc) encodeParamBody(v ParamValue) {
	switch {
	case v.Scalar != nil:
		e.encodeValue(v.Scalar)
	case v.Array != nil:
		e.encodeValueArray(*v.Array)
	case v.InstanceName != nil:
		e.encodeInstanceName(v.InstanceName)
	case v.ClassName != "":
		e.raw(`<CLASSNAME NAME="`)
		e.text(v.ClassName)
		e.raw(`"/>`)
	case v.Instance != nil:
		e.encodeInstance(v.Instance)
	case v.Class != nil:
		e.encodeClass(v.Class)
	case v.NamedInstance != nil:
		e.raw(`<VALUE.NAMEDINSTANCE>`)
		e.encodeInstanceName(v.NamedInstance.Name)
		e.encodeInstance(v.NamedInstance.Instance)
		e.raw(`</VALUE.NAMEDINSTANCE>`)
	default:
		e.fail(fmt.Errorf("xmlcodec: parameter value has no populated shape"))
	}
}

func (e *enc) encodeValue(v cim.TypedValue) {
	if v == nil {
		e.raw(`<VALUE.NULL/>`)
		return
	}
	if ref, ok := v.(*cim.InstanceName); ok {
		e.raw(`<VALUE.REFERENCE>`)
		e.encodeInstanceName(ref)
		e.raw(`</VALUE.REFERENCE>`)
		return
	}
	e.raw(`<VALUE>`)
	e.text(v.XMLText())
	e.raw(`</VALUE>`)
}

func (e *enc) encodeValueArray(a cim.Array) {
	e.raw(`<VALUE.ARRAY>`)
	for _, elem := range a.Elements {
		e.encodeValue(elem)
	}
	e.raw(`</VALUE.ARRAY>`)
}

func (e *enc) encodeInstanceName(n *cim.InstanceName) {
	e.raw(`<INSTANCENAME CLASSNAME="`)
	e.text(n.ClassName)
	e.raw(`">`)
	e.encodeInstanceNameBody(n)
	e.raw(`</INSTANCENAME>`)
}

func (e *enc) encodeInstanceNameBody(n *cim.InstanceName) {
	for _, key := range n.Keybindings.Keys() {
		v, _ := n.Keybindings.Get(key)
		e.raw(`<KEYBINDING NAME="`)
		e.text(key)
		e.raw(`">`)
		if ref, ok := v.(*cim.InstanceName); ok {
			e.raw(`<VALUE.REFERENCE>`)
			e.encodeInstanceName(ref)
			e.raw(`</VALUE.REFERENCE>`)
		} else {
			e.raw(`<KEYVALUE VALUETYPE="`)
			e.text(keyValueType(v.CIMType()))
			e.raw(`" TYPE="`)
			e.text(string(v.CIMType()))
			e.raw(`">`)
			e.text(v.XMLText())
			e.raw(`</KEYVALUE>`)
		}
		e.raw(`</KEYBINDING>`)
	}
}

// keyValueType maps a CIM type to the KEYVALUE VALUETYPE attribute's three
// DSP0201 buckets.
func keyValueType(t cim.Type) string {
	switch t {
	case cim.TypeBoolean:
		return "boolean"
	case cim.TypeString, cim.TypeChar16, cim.TypeDateTime:
		return "string"
	default:
		return "numeric"
	}
}

func (e *enc) encodeInstance(inst *cim.Instance) {
	e.raw(`<INSTANCE CLASSNAME="`)
	e.text(inst.ClassName)
	e.raw(`">`)
	inst.Qualifiers.Each(func(name string, q *cim.Qualifier) {
		e.encodeQualifier(q)
	})
	inst.Properties.Each(func(name string, p *cim.Property) {
		e.encodeProperty(p)
	})
	e.raw(`</INSTANCE>`)
}

func (e *enc) encodeProperty(p *cim.Property) {
	switch {
	case p.Type == cim.TypeReference && !p.IsArray:
		e.raw(`<PROPERTY.REFERENCE NAME="`)
		e.text(p.Name)
		e.raw(`" REFERENCECLASS="`)
		e.text(p.ReferenceClass)
		e.raw(`">`)
		if ref, ok := p.Value.(*cim.InstanceName); ok {
			e.raw(`<VALUE.REFERENCE>`)
			e.encodeInstanceName(ref)
			e.raw(`</VALUE.REFERENCE>`)
		}
		e.raw(`</PROPERTY.REFERENCE>`)
	case p.IsArray:
		e.raw(`<PROPERTY.ARRAY NAME="`)
		e.text(p.Name)
		e.raw(`" TYPE="`)
		e.text(string(p.Type))
		e.raw(`">`)
		if arr, ok := p.Value.(cim.Array); ok {
			e.encodeValueArray(arr)
		}
		e.raw(`</PROPERTY.ARRAY>`)
	default:
		e.raw(`<PROPERTY NAME="`)
		e.text(p.Name)
		e.raw(`" TYPE="`)
		e.text(string(p.Type))
		e.raw(`">`)
		if p.Value != nil {
			e.encodeValue(p.Value)
		}
		e.raw(`</PROPERTY>`)
	}
}

func (e *enc) encodeQualifier(q *cim.Qualifier) {
	e.raw(`<QUALIFIER NAME="`)
	e.text(q.Name)
	e.raw(`" TYPE="`)
	e.text(string(q.Type))
	e.raw(`">`)
	if q.Value != nil {
		e.encodeValue(q.Value)
	}
	e.raw(`</QUALIFIER>`)
}

func (e *enc) encodeClass(cls *cim.Class) {
	e.raw(`<CLASS NAME="`)
	e.text(cls.ClassName)
	if cls.SuperClass != "" {
		e.raw(`" SUPERCLASS="`)
		e.text(cls.SuperClass)
	}
	e.raw(`">`)
	cls.Qualifiers.Each(func(name string, q *cim.Qualifier) {
		e.encodeQualifier(q)
	})
	cls.Properties.Each(func(name string, p *cim.Property) {
		e.encodeProperty(p)
	})
	cls.Methods.Each(func(name string, m *cim.Method) {
		e.encodeMethod(m)
	})
	e.raw(`</CLASS>`)
}

func (e *enc) encodeMethod(m *cim.Method) {
	e.raw(`<METHOD NAME="`)
	e.text(m.Name)
	e.raw(`" TYPE="`)
	e.text(string(m.ReturnType))
	e.raw(`">`)
	m.Qualifiers.Each(func(name string, q *cim.Qualifier) {
		e.encodeQualifier(q)
	})
	m.Parameters.Each(func(name string, p *cim.Parameter) {
		e.encodeParameter(p)
	})
	e.raw(`</METHOD>`)
}

func (e *enc) encodeParameter(p *cim.Parameter) {
	if p.Type == cim.TypeReference {
		e.raw(`<PARAMETER.REFERENCE NAME="`)
		e.text(p.Name)
		e.raw(`" REFERENCECLASS="`)
		e.text(p.ReferenceClass)
		e.raw(`"/>`)
		return
	}
	if p.IsArray {
		e.raw(`<PARAMETER.ARRAY NAME="`)
		e.text(p.Name)
		e.raw(`" TYPE="`)
		e.text(string(p.Type))
		e.raw(`"/>`)
		return
	}
	e.raw(`<PARAMETER NAME="`)
	e.text(p.Name)
	e.raw(`" TYPE="`)
	e.text(string(p.Type))
	e.raw(`"/>`)
}
