package bytecode

import "testing"

func TestTruthyTable(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"empty", EmptyValue(), false},
		{"false", BoolValue(false), false},
		{"true", BoolValue(true), true},
		{"zero int", IntValue(0), false},
		{"nonzero int", IntValue(1), true},
		{"zero float", FloatValue(0), false},
		{"nonzero float", FloatValue(0.1), true},
		{"empty string", StringValue(""), false},
		{"nonempty string", StringValue("x"), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.Truthy(); got != c.want {
				t.Errorf("Truthy() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestEqualWidensNumbersAcrossIntFloat(t *testing.T) {
	if !IntValue(3).Equal(FloatValue(3.0)) {
		t.Error("Int(3) should equal Float(3.0) under Equal")
	}
}

func TestStrictEqualRejectsIntFloatMix(t *testing.T) {
	if IntValue(3).StrictEqual(FloatValue(3.0)) {
		t.Error("Int(3) should not strictly equal Float(3.0)")
	}
}

func TestEqualEmptyOnlyEqualsEmpty(t *testing.T) {
	if IntValue(0).Equal(EmptyValue()) {
		t.Error("Int(0) should not equal Empty")
	}
	if !EmptyValue().Equal(EmptyValue()) {
		t.Error("Empty should equal Empty")
	}
}

func TestStringObjRetainRelease(t *testing.T) {
	s := NewStringObj("hi")
	if s.refs != 1 {
		t.Fatalf("new StringObj refs = %d, want 1", s.refs)
	}
	s.Retain()
	if s.refs != 2 {
		t.Fatalf("after Retain refs = %d, want 2", s.refs)
	}
	s.Release()
	if s.refs != 1 {
		t.Fatalf("after Release refs = %d, want 1", s.refs)
	}
}
