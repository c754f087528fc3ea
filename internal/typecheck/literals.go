package typecheck

import (
	"math/big"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/types"
	"github.com/circuitlang/midend/pkg/value"
)

// checkUnary handles UnaryExpr. Negate is special: it toggles c.negate
// before descending into Operand and restores the prior value on the way
// back out, so literal parsing (checkLiteral) sees the cumulative parity
// of every enclosing negation rather than just "am I directly under one
// negate". Two negations cancel back to the original sign, which is what
// lets `-(-128i8)` correctly overflow i8 (the literal parses as positive
// "128", not "-128") instead of round-tripping to a valid -128. A single
// "set negate = true" flag (with no toggle) would make the double
// negation round-trip silently — that isn't the behavior the Pow/negate
// property table calls for, so this function XORs rather than sets.
func (c *Checker) checkUnary(e *ast.UnaryExpr, hint types.Type) (types.Type, *value.Value) {
	if e.Op == ast.OpNegate {
		prior := c.negate
		c.negate = !c.negate
		operandType, operandVal := c.checkExpr(e.Operand, hint)
		c.negate = prior

		if operandType == nil {
			return c.annotate(e, nil, nil)
		}
		if !isNegatable(operandType) {
			c.errorf(diagnostics.ErrTypeIsNotNegatable, e, "type %s cannot be negated", operandType)
			return c.annotate(e, nil, nil)
		}
		return c.annotate(e, operandType, operandVal)
	}

	operandType, operandVal := c.checkExpr(e.Operand, hint)
	if operandType == nil {
		return c.annotate(e, nil, nil)
	}

	cls, ok := unaryClasses[e.Op]
	if !ok || !cls(operandType) {
		c.errorf(diagnostics.ErrExpectedOneTypeOf, e, "operator %s is not defined for type %s", e.Op, operandType)
		return c.annotate(e, nil, nil)
	}

	switch e.Op {
	case ast.OpNot:
		return c.annotate(e, operandType, foldNot(operandVal))
	default:
		// abs, abs_wrapped, double, inverse, square, square_root: type is
		// unchanged by all six, and none of them is constant-folded.
		return c.annotate(e, operandType, nil)
	}
}

func isNegatable(t types.Type) bool {
	pt, ok := t.(types.PrimitiveType)
	if !ok {
		return false
	}
	return pt.Kind.IsSigned() || pt.Kind == types.Field || pt.Kind == types.Group
}

func foldNot(v *value.Value) *value.Value {
	if v == nil || v.Kind != value.KindBool {
		return nil
	}
	out := value.Bool(!v.Bool)
	return &out
}

var unaryClasses = map[ast.UnaryOp]func(types.Type) bool{
	ast.OpNot:        func(t types.Type) bool { return primIs(t, types.Boolean) || primIsInt(t) },
	ast.OpAbs:        func(t types.Type) bool { return primIsSignedInt(t) },
	ast.OpAbsWrapped: func(t types.Type) bool { return primIsSignedInt(t) },
	ast.OpDouble:     func(t types.Type) bool { return primIs(t, types.Field, types.Group) },
	ast.OpInverse:    func(t types.Type) bool { return primIs(t, types.Field) },
	ast.OpSquare:     func(t types.Type) bool { return primIs(t, types.Field) },
	ast.OpSquareRoot: func(t types.Type) bool { return primIs(t, types.Field, types.Scalar) },
}

func primIs(t types.Type, prims ...types.Primitive) bool {
	pt, ok := t.(types.PrimitiveType)
	if !ok {
		return false
	}
	for _, p := range prims {
		if pt.Kind == p {
			return true
		}
	}
	return false
}

func primIsSignedInt(t types.Type) bool {
	pt, ok := t.(types.PrimitiveType)
	return ok && pt.Kind.IsSigned()
}

func primIsInt(t types.Type) bool {
	pt, ok := t.(types.PrimitiveType)
	return ok && pt.Kind.IsInteger()
}

// checkLiteral resolves a Literal's Tag/Text/Prim into a concrete Type and,
// when foldable, a Value — reading c.negate to decide whether an integer's
// textual magnitude should be parsed with a leading sign.
func (c *Checker) checkLiteral(e *ast.Literal, hint types.Type) (types.Type, *value.Value) {
	switch e.Tag {
	case ast.TagBool:
		b := e.Text == "true"
		v := value.Bool(b)
		return c.annotate(e, types.P(types.Boolean), &v)

	case ast.TagAddress:
		v := value.Address(e.Text)
		return c.annotate(e, types.P(types.Address), &v)

	case ast.TagGroupTuple:
		return c.checkGroupTuple(e)

	case ast.TagPrimitive:
		return c.checkPrimitiveLiteral(e)

	case ast.TagNone:
		if hint == nil {
			c.errorf(diagnostics.ErrImplicitValuesNotAllowed, e, "literal %q needs an explicit type suffix or a type hint from context", e.Text)
			return c.annotate(e, nil, nil)
		}
		return c.checkLiteralAs(e, hint)

	default:
		c.errorf(diagnostics.ErrInternal, e, "unrecognized literal tag")
		return c.annotate(e, nil, nil)
	}
}

// checkLiteralAs parses e.Text against an externally supplied type (used
// for TagNone literals resolved from an expected-type hint, e.g. a bare
// integer in a context that demands u32).
func (c *Checker) checkLiteralAs(e *ast.Literal, hint types.Type) (types.Type, *value.Value) {
	pt, ok := hint.(types.PrimitiveType)
	if !ok {
		c.errorf(diagnostics.ErrTypeShouldBe, e, "literal %q cannot take on non-primitive type %s", e.Text, hint)
		return c.annotate(e, nil, nil)
	}
	return c.parseAndAnnotate(e, pt.Kind)
}

func (c *Checker) checkPrimitiveLiteral(e *ast.Literal) (types.Type, *value.Value) {
	return c.parseAndAnnotate(e, e.Prim)
}

func (c *Checker) parseAndAnnotate(e *ast.Literal, prim types.Primitive) (types.Type, *value.Value) {
	switch {
	case prim.IsInteger():
		return c.parseIntLiteral(e, prim)
	case prim == types.Field:
		return c.parseBigLiteral(e, prim, value.Field)
	case prim == types.Group:
		return c.parseBigLiteral(e, prim, value.Group)
	case prim == types.Scalar:
		return c.parseBigLiteral(e, prim, value.Scalar)
	case prim == types.Boolean:
		b := e.Text == "true"
		v := value.Bool(b)
		return c.annotate(e, types.P(types.Boolean), &v)
	case prim == types.Address:
		v := value.Address(e.Text)
		return c.annotate(e, types.P(types.Address), &v)
	case prim == types.StringPrim:
		// Strings are not folded: no Value is attached.
		return c.annotate(e, types.P(types.StringPrim), nil)
	default:
		c.errorf(diagnostics.ErrInternal, e, "unhandled literal primitive %s", prim)
		return c.annotate(e, nil, nil)
	}
}

// parseIntLiteral applies c.negate's sign to e.Text, parses it as a
// big.Int, and range-checks it against prim's bit width. This is the one
// place the negate-fold state machine actually changes behavior: every
// other expression kind ignores c.negate entirely.
func (c *Checker) parseIntLiteral(e *ast.Literal, prim types.Primitive) (types.Type, *value.Value) {
	text := e.Text
	if c.negate {
		text = "-" + text
	}

	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		c.errorf(diagnostics.ErrUnexpectedStr, e, "%q is not a valid integer literal", e.Text)
		return c.annotate(e, nil, nil)
	}

	w := intWidthOf(prim)
	min, max := w.Bounds()
	if n.Cmp(min) < 0 || n.Cmp(max) > 0 {
		c.errorf(diagnostics.ErrInvalidIntValue, e, "value %s out of range for %s", n.String(), prim)
		return c.annotate(e, nil, nil)
	}

	v := value.Int(w, n)
	return c.annotate(e, types.P(prim), &v)
}

func intWidthOf(prim types.Primitive) value.IntWidth {
	switch prim {
	case types.I8:
		return value.I8
	case types.I16:
		return value.I16
	case types.I32:
		return value.I32
	case types.I64:
		return value.I64
	case types.I128:
		return value.I128
	case types.U8:
		return value.U8
	case types.U16:
		return value.U16
	case types.U32:
		return value.U32
	case types.U64:
		return value.U64
	default:
		return value.U128
	}
}

// parseBigLiteral handles Field/Group/Scalar: unbounded magnitude, sign
// from c.negate, no range check (the curve modulus is outside this
// middle-end's concern — see DESIGN.md).
func (c *Checker) parseBigLiteral(e *ast.Literal, prim types.Primitive, ctor func(*big.Int) value.Value) (types.Type, *value.Value) {
	text := e.Text
	if c.negate {
		text = "-" + text
	}
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		c.errorf(diagnostics.ErrUnexpectedStr, e, "%q is not a valid %s literal", e.Text, prim)
		return c.annotate(e, nil, nil)
	}
	v := ctor(n)
	return c.annotate(e, types.P(prim), &v)
}

// checkGroupTuple handles `(x, y)group`, where each coordinate is `+`
// (generator), `-` (negated generator), `_` (zero), or a signed integer.
// Group-tuple coordinates are exempt from the negate-fold state machine:
// their own literal grammar already carries an explicit sign character.
func (c *Checker) checkGroupTuple(e *ast.Literal) (types.Type, *value.Value) {
	for _, coord := range []string{e.GroupX, e.GroupY} {
		switch coord {
		case "+", "-", "_":
		default:
			if _, ok := new(big.Int).SetString(coord, 10); !ok {
				c.errorf(diagnostics.ErrUnexpectedStr, e, "invalid group coordinate %q", coord)
				return c.annotate(e, nil, nil)
			}
		}
	}
	// The concrete curve point isn't resolved here (no modulus/curve is
	// wired into this middle-end); the type is all downstream passes need.
	return c.annotate(e, types.P(types.Group), nil)
}
