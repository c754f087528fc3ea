package typecheck

import (
	"math/big"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/types"
	"github.com/circuitlang/midend/pkg/value"
)

// opClass describes one binary operator's admissible operand/result shape.
// accepts reports whether (left, right) is a legal operand pair; result
// computes the expression's type from the (already-validated) operands.
type opClass struct {
	accepts func(left, right types.Type) bool
	result  func(left, right types.Type) types.Type
}

func sameIntegerClass(left, right types.Type) bool {
	lp, lok := left.(types.PrimitiveType)
	rp, rok := right.(types.PrimitiveType)
	return lok && rok && lp.Kind.IsInteger() && lp.Kind == rp.Kind
}

func sameOf(prims ...types.Primitive) func(types.Type, types.Type) bool {
	return func(left, right types.Type) bool {
		lp, lok := left.(types.PrimitiveType)
		rp, rok := right.(types.PrimitiveType)
		if !lok || !rok || lp.Kind != rp.Kind {
			return false
		}
		for _, p := range prims {
			if lp.Kind == p {
				return true
			}
		}
		return false
	}
}

func identity(left, right types.Type) types.Type { return left }
func asBool(left, right types.Type) types.Type    { return types.P(types.Boolean) }

// binaryClasses implements the operator-class constraint table: Logical,
// Bitwise, Add, Sub/Div, Mul (including mixed group*scalar), Pow,
// Equality, Relational, Wrapping arithmetic, Shift.
var binaryClasses = map[ast.BinaryOp]opClass{
	ast.OpAnd: {accepts: sameOf(types.Boolean), result: identity},
	ast.OpOr:  {accepts: sameOf(types.Boolean), result: identity},
	ast.OpNand: {accepts: sameOf(types.Boolean), result: identity},
	ast.OpNor:  {accepts: sameOf(types.Boolean), result: identity},

	ast.OpBitAnd: {accepts: bitwiseOperands, result: identity},
	ast.OpBitOr:  {accepts: bitwiseOperands, result: identity},
	ast.OpBitXor: {accepts: bitwiseOperands, result: identity},

	ast.OpAdd: {accepts: addOperands, result: identity},
	ast.OpSub: {accepts: subOperands, result: identity},
	ast.OpDiv: {accepts: subDivOperands, result: identity},
	ast.OpMul: {accepts: mulOperands, result: mulResult},

	ast.OpPow: {accepts: powOperands, result: identity},

	ast.OpEq:  {accepts: equalityOperands, result: asBool},
	ast.OpNeq: {accepts: equalityOperands, result: asBool},

	ast.OpLt:  {accepts: relationalOperands, result: asBool},
	ast.OpLte: {accepts: relationalOperands, result: asBool},
	ast.OpGt:  {accepts: relationalOperands, result: asBool},
	ast.OpGte: {accepts: relationalOperands, result: asBool},

	ast.OpAddWrapped: {accepts: sameIntegerClass, result: identity},
	ast.OpSubWrapped: {accepts: sameIntegerClass, result: identity},
	ast.OpMulWrapped: {accepts: sameIntegerClass, result: identity},
	ast.OpDivWrapped: {accepts: sameIntegerClass, result: identity},
	ast.OpPowWrapped:  {accepts: powOperands, result: identity},

	ast.OpShl:        {accepts: shiftOperands, result: shiftResult},
	ast.OpShr:        {accepts: shiftOperands, result: shiftResult},
	ast.OpShlWrapped: {accepts: shiftOperands, result: shiftResult},
	ast.OpShrWrapped: {accepts: shiftOperands, result: shiftResult},
}

func bitwiseOperands(left, right types.Type) bool {
	lp, lok := left.(types.PrimitiveType)
	rp, rok := right.(types.PrimitiveType)
	if !lok || !rok || lp.Kind != rp.Kind {
		return false
	}
	return lp.Kind == types.Boolean || lp.Kind.IsInteger()
}

func addOperands(left, right types.Type) bool {
	lp, lok := left.(types.PrimitiveType)
	rp, rok := right.(types.PrimitiveType)
	if !lok || !rok || lp.Kind != rp.Kind {
		return false
	}
	return lp.Kind.IsInteger() || lp.Kind == types.Field || lp.Kind == types.Group || lp.Kind == types.Scalar
}

func subOperands(left, right types.Type) bool {
	lp, lok := left.(types.PrimitiveType)
	rp, rok := right.(types.PrimitiveType)
	if !lok || !rok || lp.Kind != rp.Kind {
		return false
	}
	return lp.Kind.IsInteger() || lp.Kind == types.Field || lp.Kind == types.Group
}

func subDivOperands(left, right types.Type) bool {
	lp, lok := left.(types.PrimitiveType)
	rp, rok := right.(types.PrimitiveType)
	if !lok || !rok || lp.Kind != rp.Kind {
		return false
	}
	return lp.Kind.IsInteger() || lp.Kind == types.Field
}

// mulOperands admits same-class integer/field multiplication plus the
// mixed group*scalar and scalar*group forms.
func mulOperands(left, right types.Type) bool {
	lp, lok := left.(types.PrimitiveType)
	rp, rok := right.(types.PrimitiveType)
	if !lok || !rok {
		return false
	}
	if lp.Kind == rp.Kind && (lp.Kind.IsInteger() || lp.Kind == types.Field) {
		return true
	}
	if lp.Kind == types.Group && rp.Kind == types.Scalar {
		return true
	}
	if lp.Kind == types.Scalar && rp.Kind == types.Group {
		return true
	}
	return false
}

func mulResult(left, right types.Type) types.Type {
	lp := left.(types.PrimitiveType)
	if lp.Kind == types.Scalar {
		return right
	}
	return left
}

// powOperands: base is integer or field. A field base accepts any integer
// exponent; an integer base accepts only a magnitude (u8/u16/u32) exponent.
// A field exponent is never valid, for either base class.
func powOperands(left, right types.Type) bool {
	lp, lok := left.(types.PrimitiveType)
	rp, rok := right.(types.PrimitiveType)
	if !lok || !rok {
		return false
	}
	if lp.Kind == types.Field {
		return rp.Kind.IsInteger()
	}
	if lp.Kind.IsInteger() {
		return rp.Kind.IsMagnitude()
	}
	return false
}

func equalityOperands(left, right types.Type) bool {
	return types.Equal(left, right)
}

func relationalOperands(left, right types.Type) bool {
	lp, lok := left.(types.PrimitiveType)
	rp, rok := right.(types.PrimitiveType)
	if !lok || !rok || lp.Kind != rp.Kind {
		return false
	}
	return lp.Kind.IsInteger() || lp.Kind == types.Field || lp.Kind == types.Scalar || lp.Kind == types.Address
}

func shiftOperands(left, right types.Type) bool {
	lp, lok := left.(types.PrimitiveType)
	rp, rok := right.(types.PrimitiveType)
	if !lok || !rok || !lp.Kind.IsInteger() {
		return false
	}
	return rp.Kind.IsMagnitude()
}

func shiftResult(left, right types.Type) types.Type { return left }

// checkBinary type-checks a BinaryExpr, reporting the operator-class
// violation with the code the checker's diagnostics table reserves for it
//, then folds the result when both operands are constant.
func (c *Checker) checkBinary(e *ast.BinaryExpr, hint types.Type) (types.Type, *value.Value) {
	leftHint, rightHint := operandHints(e.Op, hint)
	leftType, leftVal := c.checkExpr(e.Left, leftHint)
	rightType, rightVal := c.checkExpr(e.Right, rightHint)
	if leftType == nil || rightType == nil {
		return c.annotate(e, nil, nil)
	}

	if e.Op == ast.OpPow || e.Op == ast.OpPowWrapped {
		return c.checkPow(e, leftType, rightType, leftVal, rightVal)
	}

	cls, ok := binaryClasses[e.Op]
	if !ok || !cls.accepts(leftType, rightType) {
		c.errorf(diagnostics.ErrExpectedOneTypeOf, e, "operator %s is not defined for %s and %s", e.Op, leftType, rightType)
		return c.annotate(e, nil, nil)
	}

	resultType := cls.result(leftType, rightType)
	folded, overflowed := foldBinary(e.Op, leftType, resultType, leftVal, rightVal)
	if overflowed {
		c.errorf(diagnostics.ErrInvalidIntValue, e, "result of %s overflows %s", e.Op, resultType)
		return c.annotate(e, nil, nil)
	}
	return c.annotate(e, resultType, folded)
}

func (c *Checker) checkPow(e *ast.BinaryExpr, leftType, rightType types.Type, leftVal, rightVal *value.Value) (types.Type, *value.Value) {
	lp, lok := leftType.(types.PrimitiveType)
	if !lok || !(lp.Kind == types.Field || lp.Kind.IsInteger()) {
		c.errorf(diagnostics.ErrIncorrectPowBaseType, e, "base of %s must be field or integer, got %s", e.Op, leftType)
		return c.annotate(e, nil, nil)
	}
	rp, rok := rightType.(types.PrimitiveType)
	validExp := rok && ((lp.Kind.IsInteger() && rp.Kind.IsMagnitude()) || (lp.Kind == types.Field && rp.Kind.IsInteger()))
	if !validExp {
		c.errorf(diagnostics.ErrIncorrectPowExponentType, e, "exponent of %s must be a magnitude (u8/u16/u32)%s, got %s", e.Op, fieldExpAllowance(lp.Kind), rightType)
		return c.annotate(e, nil, nil)
	}
	folded, overflowed := foldBinary(e.Op, leftType, leftType, leftVal, rightVal)
	if overflowed {
		c.errorf(diagnostics.ErrInvalidIntValue, e, "result of %s overflows %s", e.Op, leftType)
		return c.annotate(e, nil, nil)
	}
	return c.annotate(e, leftType, folded)
}

func fieldExpAllowance(base types.Primitive) string {
	if base == types.Field {
		return " (a field base permits any integer exponent)"
	}
	return ""
}

// operandHints propagates the expected-type hint to same-typed operand
// pairs (relational/arithmetic ops expect identical operand types), and
// withholds a hint for operators whose two sides may legitimately differ
// (Pow, mixed group*scalar Mul).
func operandHints(op ast.BinaryOp, hint types.Type) (left, right types.Type) {
	switch op {
	case ast.OpPow, ast.OpPowWrapped, ast.OpMul:
		return nil, nil
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte,
		ast.OpAnd, ast.OpOr, ast.OpNand, ast.OpNor:
		return nil, nil
	default:
		return hint, hint
	}
}

// foldBinary constant-folds arithmetic when both operands carry a Value.
// The bool return is true only when a non-wrapped integer op overflowed —
// the caller turns that into an invalid_int_value diagnostic; wrapped
// variants reduce modulo 2^bits instead and never report overflow. Shift
// and the relational/equality/logical operators are left unfolded.
func foldBinary(op ast.BinaryOp, operandType, resultType types.Type, l, r *value.Value) (*value.Value, bool) {
	if l == nil || r == nil {
		return nil, false
	}
	pt, ok := operandType.(types.PrimitiveType)
	if !ok || l.Kind != value.KindInt || r.Kind != value.KindInt {
		return nil, false
	}
	if !pt.Kind.IsInteger() {
		return nil, false
	}
	w := l.IntKind
	var raw *big.Int
	switch op {
	case ast.OpAdd, ast.OpAddWrapped:
		raw = new(big.Int).Add(l.Big, r.Big)
	case ast.OpSub, ast.OpSubWrapped:
		raw = new(big.Int).Sub(l.Big, r.Big)
	case ast.OpMul, ast.OpMulWrapped:
		raw = new(big.Int).Mul(l.Big, r.Big)
	case ast.OpDiv, ast.OpDivWrapped:
		if r.Big.Sign() == 0 {
			return nil, false
		}
		raw = new(big.Int).Quo(l.Big, r.Big)
	case ast.OpPow, ast.OpPowWrapped:
		if !r.IntKind.IsMagnitude() || r.Big.Sign() < 0 || !r.Big.IsUint64() {
			return nil, false
		}
		raw = new(big.Int).Exp(l.Big, r.Big, nil)
	case ast.OpBitAnd:
		raw = new(big.Int).And(l.Big, r.Big)
	case ast.OpBitOr:
		raw = new(big.Int).Or(l.Big, r.Big)
	case ast.OpBitXor:
		raw = new(big.Int).Xor(l.Big, r.Big)
	default:
		return nil, false
	}

	isWrapped := op == ast.OpAddWrapped || op == ast.OpSubWrapped || op == ast.OpMulWrapped || op == ast.OpDivWrapped || op == ast.OpPowWrapped
	if isWrapped {
		raw = wrapToWidth(raw, w)
		v := value.Int(w, raw)
		return &v, false
	}

	min, max := w.Bounds()
	if raw.Cmp(min) < 0 || raw.Cmp(max) > 0 {
		return nil, true
	}
	v := value.Int(w, raw)
	return &v, false
}

func wrapToWidth(n *big.Int, w value.IntWidth) *big.Int {
	bits := uint(w.Bits())
	mod := new(big.Int).Lsh(big.NewInt(1), bits)
	r := new(big.Int).Mod(n, mod)
	if w.Signed() {
		half := new(big.Int).Lsh(big.NewInt(1), bits-1)
		if r.Cmp(half) >= 0 {
			r.Sub(r, mod)
		}
	}
	return r
}
