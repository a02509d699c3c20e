package cim

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type identifies a CIM type code as used in the TYPE attribute of CIM-XML
// PARAMVALUE/PROPERTY/QUALIFIER elements.
type Type string

// CIM type codes per DSP0201 (TYPE attribute values).
const (
	TypeString    Type = "string"
	TypeBoolean   Type = "boolean"
	TypeChar16    Type = "char16"
	TypeUint8     Type = "uint8"
	TypeUint16    Type = "uint16"
	TypeUint32    Type = "uint32"
	TypeUint64    Type = "uint64"
	TypeSint8     Type = "sint8"
	TypeSint16    Type = "sint16"
	TypeSint32    Type = "sint32"
	TypeSint64    Type = "sint64"
	TypeReal32    Type = "real32"
	TypeReal64    Type = "real64"
	TypeDateTime  Type = "datetime"
	TypeReference Type = "reference"
)

// EmbeddedObjectKind describes whether a property/parameter carries an
// embedded CIM object and, if so, which kind.
type EmbeddedObjectKind string

const (
	EmbeddedNone     EmbeddedObjectKind = ""
	EmbeddedInstance EmbeddedObjectKind = "instance"
	EmbeddedObject   EmbeddedObjectKind = "object"
)

// TypedValue is the sum type for every scalar CIM value. Concrete
// implementations are the exported scalar wrapper types in this file plus
// DateTime (datetime.go), *InstanceName (instance.go, used for reference
// values) and Array (array.go).
type TypedValue interface {
	// CIMType returns the CIM type code of the value.
	CIMType() Type
	// XMLText returns the wire text form used inside a <VALUE> element.
	XMLText() string
	// Equal reports value equality (not identity).
	Equal(other TypedValue) bool
}

// String is a CIM string value.
type String string

func (v String) CIMType() Type { return TypeString }
func (v String) XMLText() string { return string(v) }
func (v String) Equal(o TypedValue) bool      { b, ok := o.(String); return ok && v == b }

// Boolean is a CIM boolean value, emitted on the wire as TRUE/FALSE.
type Boolean bool

func (v Boolean) CIMType() Type { return TypeBoolean }
func (v Boolean) XMLText() string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
func (v Boolean) Equal(o TypedValue) bool { b, ok := o.(Boolean); return ok && v == b }

// Char16 is a single CIM UCS-2 character.
type Char16 rune

func (v Char16) CIMType() Type { return TypeChar16 }
func (v Char16) XMLText() string { return string(rune(v)) }
func (v Char16) Equal(o TypedValue) bool { b, ok := o.(Char16); return ok && v == b }

// The eight integer widths each enforce their range on decode:
// out-of-range values are rejected.

type Uint8 uint8
type Uint16 uint16
type Uint32 uint32
type Uint64 uint64
type Sint8 int8
type Sint16 int16
type Sint32 int32
type Sint64 int64

func (v Uint8) CIMType() Type { return TypeUint8 }
func (v Uint8) XMLText() string { return strconv.FormatUint(uint64(v), 10) }
func (v Uint8) Equal(o TypedValue) bool   { b, ok := o.(Uint8); return ok && v == b }
func (v Uint16) CIMType() Type { return TypeUint16 }
func (v Uint16) XMLText() string { return strconv.FormatUint(uint64(v), 10) }
func (v Uint16) Equal(o TypedValue) bool  { b, ok := o.(Uint16); return ok && v == b }
func (v Uint32) CIMType() Type { return TypeUint32 }
func (v Uint32) XMLText() string { return strconv.FormatUint(uint64(v), 10) }
func (v Uint32) Equal(o TypedValue) bool  { b, ok := o.(Uint32); return ok && v == b }
func (v Uint64) CIMType() Type { return TypeUint64 }
func (v Uint64) XMLText() string { return strconv.FormatUint(uint64(v), 10) }
func (v Uint64) Equal(o TypedValue) bool  { b, ok := o.(Uint64); return ok && v == b }
func (v Sint8) CIMType() Type { return TypeSint8 }
func (v Sint8) XMLText() string { return strconv.FormatInt(int64(v), 10) }
func (v Sint8) Equal(o TypedValue) bool   { b, ok := o.(Sint8); return ok && v == b }
func (v Sint16) CIMType() Type { return TypeSint16 }
func (v Sint16) XMLText() string { return strconv.FormatInt(int64(v), 10) }
func (v Sint16) Equal(o TypedValue) bool  { b, ok := o.(Sint16); return ok && v == b }
func (v Sint32) CIMType() Type { return TypeSint32 }
func (v Sint32) XMLText() string { return strconv.FormatInt(int64(v), 10) }
func (v Sint32) Equal(o TypedValue) bool  { b, ok := o.(Sint32); return ok && v == b }
func (v Sint64) CIMType() Type { return TypeSint64 }
func (v Sint64) XMLText() string { return strconv.FormatInt(int64(v), 10) }
func (v Sint64) Equal(o TypedValue) bool  { b, ok := o.(Sint64); return ok && v == b }

// Real32 and Real64 preserve the DSP0201 NaN/INF text forms.
type Real32 float32
type Real64 float64

func (v Real32) CIMType() Type { return TypeReal32 }
func (v Real32) XMLText() string {
	return formatReal(float64(v), 32)
}
func (v Real32) Equal(o TypedValue) bool {
	b, ok := o.(Real32)
	if !ok {
		return false
	}
	if math.IsNaN(float64(v)) && math.IsNaN(float64(b)) {
		return true
	}
	return v == b
}

func (v Real64) CIMType() Type { return TypeReal64 }
func (v Real64) XMLText() string {
	return formatReal(float64(v), 64)
}
func (v Real64) Equal(o TypedValue) bool {
	b, ok := o.(Real64)
	if !ok {
		return false
	}
	if math.IsNaN(float64(v)) && math.IsNaN(float64(b)) {
		return true
	}
	return v == b
}

func formatReal(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	default:
		return strconv.FormatFloat(f, 'G', -1, bitSize)
	}
}

// ParseReal parses the DSP0201 real text form, including the NaN/INF/-INF
// spellings, into a float64.
func ParseReal(s string) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	default:
		return strconv.ParseFloat(s, 64)
	}
}

// parseUint parses s as an unsigned integer of the given bit width,
// rejecting values outside the representable range.
func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("cim: value %q out of range for uint%d: %w", s, bits, err)
	}
	return v, nil
}

// parseInt parses s as a signed integer of the given bit width, rejecting
// values outside the representable range.
func parseInt(s string, bits int) (int64, error) {
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("cim: value %q out of range for sint%d: %w", s, bits, err)
	}
	return v, nil
}

// ParseScalar decodes the text content of a <VALUE> element into a
// TypedValue of the given CIM type. TypeReference is not handled here and
// yields an error; reference values are decoded from <VALUE.REFERENCE>
// elements by the xmlcodec package.
func ParseScalar(t Type, text string) (TypedValue, error) {
	switch t {
	case TypeString:
		return String(text), nil
	case TypeBoolean:
		switch {
		case strings.EqualFold(text, "TRUE"):
			return Boolean(true), nil
		case strings.EqualFold(text, "FALSE"):
			return Boolean(false), nil
		default:
			return nil, fmt.Errorf("cim: invalid boolean literal %q", text)
		}
	case TypeChar16:
		r := []rune(text)
		if len(r) != 1 {
			return nil, fmt.Errorf("cim: char16 value must be exactly one character, got %q", text)
		}
		return Char16(r[0]), nil
	case TypeUint8:
		v, err := parseUint(text, 8)
		if err != nil {
			return nil, err
		}
		return Uint8(v), nil
	case TypeUint16:
		v, err := parseUint(text, 16)
		if err != nil {
			return nil, err
		}
		return Uint16(v), nil
	case TypeUint32:
		v, err := parseUint(text, 32)
		if err != nil {
			return nil, err
		}
		return Uint32(v), nil
	case TypeUint64:
		v, err := parseUint(text, 64)
		if err != nil {
			return nil, err
		}
		return Uint64(v), nil
	case TypeSint8:
		v, err := parseInt(text, 8)
		if err != nil {
			return nil, err
		}
		return Sint8(v), nil
	case TypeSint16:
		v, err := parseInt(text, 16)
		if err != nil {
			return nil, err
		}
		return Sint16(v), nil
	case TypeSint32:
		v, err := parseInt(text, 32)
		if err != nil {
			return nil, err
		}
		return Sint32(v), nil
	case TypeSint64:
		v, err := parseInt(text, 64)
		if err != nil {
			return nil, err
		}
		return Sint64(v), nil
	case TypeReal32:
		f, err := ParseReal(text)
		if err != nil {
			return nil, fmt.Errorf("cim: invalid real32 literal %q: %w", text, err)
		}
		return Real32(f), nil
	case TypeReal64:
		f, err := ParseReal(text)
		if err != nil {
			return nil, fmt.Errorf("cim: invalid real64 literal %q: %w", text, err)
		}
		return Real64(f), nil
	case TypeDateTime:
		dt, err := ParseDateTime(text)
		if err != nil {
			return nil, err
		}
		return dt, nil
	default:
		return nil, fmt.Errorf("cim: unsupported scalar type %q", t)
	}
}
