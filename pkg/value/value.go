// Package value represents the compile-time constant values the type
// checker's constant-folding annotation attaches to expression
// nodes: literal-derived values, and the results of folding operators over
// them. Field, Group, and Scalar magnitudes are arbitrary precision
// (math/big) — range and overflow checks for the fixed-width integer
// kinds are explicit operations here, never implicit wraparound.
package value

import (
	"fmt"
	"math/big"
)

// Kind tags which primitive class a Value holds.
type Kind int

const (
	KindBool Kind = iota
	KindField
	KindGroup
	KindScalar
	KindAddress
	KindInt
	KindTuple
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindField:
		return "field"
	case KindGroup:
		return "group"
	case KindScalar:
		return "scalar"
	case KindAddress:
		return "address"
	case KindInt:
		return "int"
	case KindTuple:
		return "tuple"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// IntWidth identifies one of the ten signed/unsigned integer types.
type IntWidth int

const (
	I8 IntWidth = iota
	I16
	I32
	I64
	I128
	U8
	U16
	U32
	U64
	U128
)

var intWidthNames = map[IntWidth]string{
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", U128: "u128",
}

func (w IntWidth) String() string { return intWidthNames[w] }

// Signed reports whether w is one of the signed integer widths.
func (w IntWidth) Signed() bool { return w <= I128 }

// Bits returns the bit width of w.
func (w IntWidth) Bits() int {
	switch w {
	case I8, U8:
		return 8
	case I16, U16:
		return 16
	case I32, U32:
		return 32
	case I64, U64:
		return 64
	case I128, U128:
		return 128
	}
	return 0
}

// IsMagnitude reports whether w is one of the unsigned "magnitude" types
// (U8, U16, U32) permitted as Pow exponents / shift amounts.
func (w IntWidth) IsMagnitude() bool {
	return w == U8 || w == U16 || w == U32
}

// Bounds returns the inclusive [min, max] range representable by w.
func (w IntWidth) Bounds() (min, max *big.Int) {
	bits := big.NewInt(int64(w.Bits()))
	one := big.NewInt(1)
	if w.Signed() {
		// max = 2^(bits-1) - 1, min = -2^(bits-1)
		half := new(big.Int).Lsh(one, uint(w.Bits()-1))
		max = new(big.Int).Sub(half, one)
		min = new(big.Int).Neg(half)
		return min, max
	}
	max = new(big.Int).Sub(new(big.Int).Lsh(one, uint(bits.Int64())), one)
	min = big.NewInt(0)
	return min, max
}

// Value is a compile-time constant. Exactly one of the fields matching
// Kind is meaningful; the rest are zero.
type Value struct {
	Kind Kind

	Bool    bool
	Big     *big.Int // Field, Group, Scalar, Int
	IntKind IntWidth  // meaningful when Kind == KindInt
	Address string    // bech32m-ish textual form; middle-end treats it opaquely

	Elems  []Value          // Tuple
	Fields map[string]Value // Record (by member name)

	// RecordType names the nominal record this value was built from, when
	// Kind == KindRecord. Equality on record values is by this name plus
	// Fields.
	RecordType string
}

func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func Field(v *big.Int) Value { return Value{Kind: KindField, Big: v} }

func Group(v *big.Int) Value { return Value{Kind: KindGroup, Big: v} }

func Scalar(v *big.Int) Value { return Value{Kind: KindScalar, Big: v} }

func Address(addr string) Value { return Value{Kind: KindAddress, Address: addr} }

func Int(w IntWidth, v *big.Int) Value { return Value{Kind: KindInt, IntKind: w, Big: v} }

func Tuple(elems ...Value) Value { return Value{Kind: KindTuple, Elems: elems} }

func Record(typeName string, fields map[string]Value) Value {
	return Value{Kind: KindRecord, RecordType: typeName, Fields: fields}
}

// InRange reports whether v (KindInt) lies within its IntKind's bounds.
func (v Value) InRange() bool {
	if v.Kind != KindInt {
		return true
	}
	min, max := v.IntKind.Bounds()
	return v.Big.Cmp(min) >= 0 && v.Big.Cmp(max) <= 0
}

// Equal reports structural equality between two constant values. Tuple and
// Record values compare element-wise / field-wise; Record additionally
// requires RecordType to match (nominal identity).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBool:
		return a.Bool == b.Bool
	case KindField, KindGroup, KindScalar:
		return a.Big.Cmp(b.Big) == 0
	case KindInt:
		return a.IntKind == b.IntKind && a.Big.Cmp(b.Big) == 0
	case KindAddress:
		return a.Address == b.Address
	case KindTuple:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		if a.RecordType != b.RecordType || len(a.Fields) != len(b.Fields) {
			return false
		}
		for k, av := range a.Fields {
			bv, ok := b.Fields[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindField:
		return v.Big.String() + "field"
	case KindGroup:
		return v.Big.String() + "group"
	case KindScalar:
		return v.Big.String() + "scalar"
	case KindAddress:
		return v.Address
	case KindInt:
		return v.Big.String() + v.IntKind.String()
	case KindTuple:
		return fmt.Sprintf("%v", v.Elems)
	case KindRecord:
		return fmt.Sprintf("%s%v", v.RecordType, v.Fields)
	default:
		return "<invalid>"
	}
}
