package bytecode

import "fmt"

// ValueType tags a runtime Value's kind.
type ValueType byte

const (
	ValueEmpty ValueType = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueString
	ValueURL
	ValueFunction // an Action/Interaction reference, pushed by LOAD_GLOBAL ahead of a CALL
)

var valueTypeNames = [...]string{
	ValueEmpty:    "Empty",
	ValueBool:     "Bool",
	ValueInt:      "Int",
	ValueFloat:    "Float",
	ValueString:   "String",
	ValueURL:      "Url",
	ValueFunction: "Function",
}

func (vt ValueType) String() string {
	if int(vt) < len(valueTypeNames) {
		return valueTypeNames[vt]
	}
	return "Unknown"
}

// StringObj is a reference-counted string: reads literally honour §3's
// wording that strings are reference-counted, even though Go's GC would
// collect an unreachable string on its own. Retain/Release give codegen
// and the VM an explicit hook matching that contract.
type StringObj struct {
	Data string
	refs int
}

func NewStringObj(s string) *StringObj { return &StringObj{Data: s, refs: 1} }

func (s *StringObj) Retain() *StringObj {
	if s != nil {
		s.refs++
	}
	return s
}

func (s *StringObj) Release() {
	if s == nil {
		return
	}
	s.refs--
}

// Value is a tagged runtime value. Exactly one payload field is live,
// selected by Type.
type Value struct {
	Type ValueType
	I    int64
	F    float64
	B    bool
	Str  *StringObj // String and URL both carry their text here
}

func EmptyValue() Value           { return Value{Type: ValueEmpty} }
func BoolValue(b bool) Value      { return Value{Type: ValueBool, B: b} }
func IntValue(i int64) Value      { return Value{Type: ValueInt, I: i} }
func FloatValue(f float64) Value  { return Value{Type: ValueFloat, F: f} }
func StringValue(s string) Value  { return Value{Type: ValueString, Str: NewStringObj(s)} }
func URLValue(s string) Value     { return Value{Type: ValueURL, Str: NewStringObj(s)} }
func FunctionValue(idx uint16) Value { return Value{Type: ValueFunction, I: int64(idx)} }

func (v Value) IsEmpty() bool  { return v.Type == ValueEmpty }
func (v Value) IsBool() bool   { return v.Type == ValueBool }
func (v Value) IsInt() bool    { return v.Type == ValueInt }
func (v Value) IsFloat() bool  { return v.Type == ValueFloat }
func (v Value) IsString() bool { return v.Type == ValueString || v.Type == ValueURL }
func (v Value) IsNumber() bool { return v.Type == ValueInt || v.Type == ValueFloat }

func (v Value) AsString() string {
	if v.Str == nil {
		return ""
	}
	return v.Str.Data
}

// AsFloat widens an Int to Float; callers should check IsNumber first.
func (v Value) AsFloat() float64 {
	if v.Type == ValueFloat {
		return v.F
	}
	return float64(v.I)
}

// Truthy implements §3's truthiness table: Empty, false, 0, 0.0, and ""
// are false; everything else is true.
func (v Value) Truthy() bool {
	switch v.Type {
	case ValueEmpty:
		return false
	case ValueBool:
		return v.B
	case ValueInt:
		return v.I != 0
	case ValueFloat:
		return v.F != 0
	case ValueString, ValueURL:
		return v.AsString() != ""
	default:
		return false
	}
}

// Equal implements value equality (not strict): Empty equals only
// Empty; numbers compare across Int/Float; everything else compares by
// type and payload.
func (v Value) Equal(other Value) bool {
	if v.Type == ValueEmpty || other.Type == ValueEmpty {
		return v.Type == other.Type
	}
	if v.IsNumber() && other.IsNumber() {
		return v.AsFloat() == other.AsFloat()
	}
	if v.IsString() && other.IsString() {
		return v.AsString() == other.AsString()
	}
	if v.Type == ValueBool && other.Type == ValueBool {
		return v.B == other.B
	}
	return false
}

// StrictEqual additionally requires the same concrete type (an Int
// never strictly equals a Float holding the same magnitude).
func (v Value) StrictEqual(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	return v.Equal(other)
}

func (v Value) String() string {
	switch v.Type {
	case ValueEmpty:
		return "empty"
	case ValueBool:
		if v.B {
			return "Yes"
		}
		return "No"
	case ValueInt:
		return fmt.Sprintf("%d", v.I)
	case ValueFloat:
		return fmt.Sprintf("%g", v.F)
	case ValueString, ValueURL:
		return v.AsString()
	default:
		return "?"
	}
}
