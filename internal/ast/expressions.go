package ast

import (
	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/types"
)

// LiteralTag identifies the concrete-type tag carried by a Literal's
// textual payload ("literal (with concrete-type tag and textual
// payload)"). TagNone means the literal has no suffix and needs an
// expected type from context.
type LiteralTag int

const (
	TagNone LiteralTag = iota
	TagBool
	TagAddress
	TagGroupTuple // (x, y)group
	TagPrimitive  // carries a types.Primitive in Literal.Prim
)

// Literal is an unparsed, typed-by-suffix constant. The checker parses Text according to Tag/Prim.
type Literal struct {
	base
	Tag  LiteralTag
	Prim types.Primitive // meaningful when Tag == TagPrimitive
	Text string          // e.g. "42", "true", "aleo1...", "+_group"

	// GroupX/GroupY hold the two coordinate texts of a group-tuple literal
	// (each "+", "-", "_", or a signed-integer text), meaningful only when
	// Tag == TagGroupTuple.
	GroupX, GroupY string
}

func (*Literal) expressionNode() {}

func NewLiteral(span srcspan.Span, tag LiteralTag, prim types.Primitive, text string) *Literal {
	return &Literal{base: newBase(span), Tag: tag, Prim: prim, Text: text}
}

// Identifier references a variable, function, or type name in scope.
type Identifier struct {
	base
	Name string
}

func (*Identifier) expressionNode() {}

func NewIdentifier(span srcspan.Span, name string) *Identifier {
	return &Identifier{base: newBase(span), Name: name}
}

// UnaryOp enumerates the unary operator classes.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
	OpAbs
	OpAbsWrapped
	OpDouble
	OpInverse
	OpSquare
	OpSquareRoot
)

var unaryOpNames = map[UnaryOp]string{
	OpNot: "!", OpNegate: "-", OpAbs: "abs", OpAbsWrapped: "abs_wrapped",
	OpDouble: "double", OpInverse: "inverse", OpSquare: "square", OpSquareRoot: "square_root",
}

func (op UnaryOp) String() string { return unaryOpNames[op] }

// UnaryExpr is a prefix unary operator application, stackable per the
// language's precedence ladder.
type UnaryExpr struct {
	base
	Op      UnaryOp
	Operand Expression
}

func (*UnaryExpr) expressionNode() {}

func NewUnaryExpr(span srcspan.Span, op UnaryOp, operand Expression) *UnaryExpr {
	return &UnaryExpr{base: newBase(span), Op: op, Operand: operand}
}

// BinaryOp enumerates every operator named in the operator-class table.
type BinaryOp int

const (
	OpAnd BinaryOp = iota // &&
	OpOr                  // ||
	OpNand
	OpNor
	OpBitAnd
	OpBitOr
	OpBitXor
	OpAdd
	OpSub
	OpDiv
	OpMul
	OpPow
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAddWrapped
	OpSubWrapped
	OpMulWrapped
	OpDivWrapped
	OpPowWrapped
	OpShl
	OpShr
	OpShlWrapped
	OpShrWrapped
)

var binaryOpNames = map[BinaryOp]string{
	OpAnd: "&&", OpOr: "||", OpNand: "nand", OpNor: "nor",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^",
	OpAdd: "+", OpSub: "-", OpDiv: "/", OpMul: "*", OpPow: "**",
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpLte: "<=", OpGt: ">", OpGte: ">=",
	OpAddWrapped: "add_wrapped", OpSubWrapped: "sub_wrapped",
	OpMulWrapped: "mul_wrapped", OpDivWrapped: "div_wrapped", OpPowWrapped: "pow_wrapped",
	OpShl: "<<", OpShr: ">>", OpShlWrapped: "shl_wrapped", OpShrWrapped: "shr_wrapped",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	base
	Op          BinaryOp
	Left, Right Expression
}

func (*BinaryExpr) expressionNode() {}

func NewBinaryExpr(span srcspan.Span, op BinaryOp, left, right Expression) *BinaryExpr {
	return &BinaryExpr{base: newBase(span), Op: op, Left: left, Right: right}
}

// TernaryExpr is `cond ? then : else`.
type TernaryExpr struct {
	base
	Cond, Then, Else Expression
}

func (*TernaryExpr) expressionNode() {}

func NewTernaryExpr(span srcspan.Span, cond, then, els Expression) *TernaryExpr {
	return &TernaryExpr{base: newBase(span), Cond: cond, Then: then, Else: els}
}

// CallExpr invokes a named function.
type CallExpr struct {
	base
	Callee *Identifier
	Args   []Expression
}

func (*CallExpr) expressionNode() {}

func NewCallExpr(span srcspan.Span, callee *Identifier, args []Expression) *CallExpr {
	return &CallExpr{base: newBase(span), Callee: callee, Args: args}
}

// ArrayIndexExpr is `arr[index]`.
type ArrayIndexExpr struct {
	base
	Array Expression
	Index Expression
}

func (*ArrayIndexExpr) expressionNode() {}

func NewArrayIndexExpr(span srcspan.Span, arr, index Expression) *ArrayIndexExpr {
	return &ArrayIndexExpr{base: newBase(span), Array: arr, Index: index}
}

// MemberExpr is `base.member`, resolved against either a record value or
// (for associated-constant access) a record type.
type MemberExpr struct {
	base
	Target Expression
	Member string
}

func (*MemberExpr) expressionNode() {}

func NewMemberExpr(span srcspan.Span, target Expression, member string) *MemberExpr {
	return &MemberExpr{base: newBase(span), Target: target, Member: member}
}

// TupleIndexExpr is `t.0`, `t.1`, ... Once t is known to alias a
// TupleExpr, the flattener substitutes this node away entirely.
type TupleIndexExpr struct {
	base
	Target Expression
	Index  int
}

func (*TupleIndexExpr) expressionNode() {}

func NewTupleIndexExpr(span srcspan.Span, target Expression, index int) *TupleIndexExpr {
	return &TupleIndexExpr{base: newBase(span), Target: target, Index: index}
}

// AssociatedFunctionExpr is `TypeName::func(args...)`, recognized only for
// the fixed set of core record/function pairs.
type AssociatedFunctionExpr struct {
	base
	TypeName string
	Func     string
	Args     []Expression
}

func (*AssociatedFunctionExpr) expressionNode() {}

func NewAssociatedFunctionExpr(span srcspan.Span, typeName, fn string, args []Expression) *AssociatedFunctionExpr {
	return &AssociatedFunctionExpr{base: newBase(span), TypeName: typeName, Func: fn, Args: args}
}

// AssociatedConstantExpr is `TypeName::CONST`.
type AssociatedConstantExpr struct {
	base
	TypeName string
	Const    string
}

func (*AssociatedConstantExpr) expressionNode() {}

func NewAssociatedConstantExpr(span srcspan.Span, typeName, constName string) *AssociatedConstantExpr {
	return &AssociatedConstantExpr{base: newBase(span), TypeName: typeName, Const: constName}
}

// RecordInitField is one `field: expr` entry of a RecordInitExpr. Value may
// be nil to request shorthand lookup of a same-named variable in scope
type RecordInitField struct {
	Name  string
	Value Expression
}

// RecordInitExpr builds a nominal record value: `Name { field: expr, ... }`.
type RecordInitExpr struct {
	base
	TypeName string
	Fields   []RecordInitField
}

func (*RecordInitExpr) expressionNode() {}

func NewRecordInitExpr(span srcspan.Span, typeName string, fields []RecordInitField) *RecordInitExpr {
	return &RecordInitExpr{base: newBase(span), TypeName: typeName, Fields: fields}
}

// TupleExpr is a tuple value expression `(a, b, c)`. These never survive
// flattening as materialized runtime values; the flattener
// replaces every use of a tuple-bound variable with scalar aliases.
type TupleExpr struct {
	base
	Elems []Expression
}

func (*TupleExpr) expressionNode() {}

func NewTupleExpr(span srcspan.Span, elems []Expression) *TupleExpr {
	return &TupleExpr{base: newBase(span), Elems: elems}
}

// ErrorExpr is a placeholder for an expression the (external) parser could
// not build; the checker annotates it with an errored type and continues.
type ErrorExpr struct {
	base
}

func (*ErrorExpr) expressionNode() {}

func NewErrorExpr(span srcspan.Span) *ErrorExpr {
	return &ErrorExpr{base: newBase(span)}
}
