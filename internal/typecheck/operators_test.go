package typecheck

import (
	"testing"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/types"
)

func binExpr(op ast.BinaryOp, left, right ast.Expression) *ast.BinaryExpr {
	return ast.NewBinaryExpr(srcspan.Zero, op, left, right)
}

func TestBinaryOperatorClasses(t *testing.T) {
	cases := []struct {
		name    string
		op      ast.BinaryOp
		left    ast.Expression
		right   ast.Expression
		wantErr bool
	}{
		{"add_same_u32", ast.OpAdd, intLit("1", types.U32), intLit("2", types.U32), false},
		{"add_mismatched_width", ast.OpAdd, intLit("1", types.U32), intLit("2", types.U64), true},
		{"and_bools", ast.OpAnd, boolLit(true), boolLit(false), false},
		{"and_ints_rejected", ast.OpAnd, intLit("1", types.U8), intLit("2", types.U8), true},
		{"mul_group_scalar", ast.OpMul, groupLit(), scalarLit(), false},
		{"mul_scalar_group", ast.OpMul, scalarLit(), groupLit(), false},
		{"mul_group_group_rejected", ast.OpMul, groupLit(), groupLit(), true},
		{"shift_magnitude_amount", ast.OpShl, intLit("1", types.U32), intLit("3", types.U8), false},
		{"shift_non_magnitude_amount_rejected", ast.OpShl, intLit("1", types.U32), intLit("3", types.U64), true},
		{"lt_fields", ast.OpLt, fieldLit("1"), fieldLit("2"), false},
		{"eq_mismatched_types_rejected", ast.OpEq, intLit("1", types.U8), boolLit(true), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newChecker()
			e := binExpr(tc.op, tc.left, tc.right)
			typ, _ := c.checkExpr(e, nil)
			if tc.wantErr && typ != nil {
				t.Fatalf("expected error, got type %v", typ)
			}
			if !tc.wantErr && typ == nil {
				t.Fatalf("expected success, got diagnostics %v", c.Diags.Diagnostics())
			}
		})
	}
}

func TestPowBaseAndExponentClasses(t *testing.T) {
	c := newChecker()
	ok := binExpr(ast.OpPow, intLit("2", types.U32), intLit("3", types.U8))
	typ, val := c.checkExpr(ok, nil)
	if typ == nil || val == nil || val.Big.String() != "8" {
		t.Fatalf("expected 2**3 = 8, got %v / %v (diags %v)", typ, val, c.Diags.Diagnostics())
	}

	c2 := newChecker()
	badExp := binExpr(ast.OpPow, intLit("2", types.U32), intLit("3", types.U64))
	typ2, _ := c2.checkExpr(badExp, nil)
	if typ2 != nil {
		t.Fatalf("expected incorrect_pow_exponent_type, got %v", typ2)
	}
	diags := c2.Diags.Diagnostics()
	if len(diags) != 1 || diags[0].Code != diagnostics.ErrIncorrectPowExponentType {
		t.Fatalf("expected incorrect_pow_exponent_type, got %v", diags)
	}

	c3 := newChecker()
	fieldWideExp := binExpr(ast.OpPow, fieldLit("2"), intLit("3", types.I64))
	typ3, _ := c3.checkExpr(fieldWideExp, nil)
	if typ3 == nil {
		t.Fatalf("expected field ** i64 to be accepted, got diags %v", c3.Diags.Diagnostics())
	}

	c4 := newChecker()
	fieldFieldExp := binExpr(ast.OpPow, fieldLit("2"), fieldLit("3"))
	typ4, _ := c4.checkExpr(fieldFieldExp, nil)
	if typ4 != nil {
		t.Fatalf("expected field ** field to be rejected, got %v", typ4)
	}
	diags4 := c4.Diags.Diagnostics()
	if len(diags4) != 1 || diags4[0].Code != diagnostics.ErrIncorrectPowExponentType {
		t.Fatalf("expected incorrect_pow_exponent_type for field ** field, got %v", diags4)
	}
}

func TestTernaryArmsMustMatch(t *testing.T) {
	c := newChecker()
	tern := ast.NewTernaryExpr(srcspan.Zero, boolLit(true), intLit("1", types.U8), intLit("1", types.U32))
	typ, _ := c.checkExpr(tern, nil)
	if typ != nil {
		t.Fatalf("expected mismatched-arm error, got %v", typ)
	}
	diags := c.Diags.Diagnostics()
	if len(diags) != 1 || diags[0].Code != diagnostics.ErrTypeShouldBe {
		t.Fatalf("expected type_should_be, got %v", diags)
	}
}

func TestTernaryFoldsConstantCondition(t *testing.T) {
	c := newChecker()
	tern := ast.NewTernaryExpr(srcspan.Zero, boolLit(true), intLit("7", types.U8), intLit("9", types.U8))
	typ, val := c.checkExpr(tern, nil)
	if typ == nil || val == nil || val.Big.String() != "7" {
		t.Fatalf("expected folded value 7, got %v / %v", typ, val)
	}
}

func boolLit(b bool) *ast.Literal {
	text := "false"
	if b {
		text = "true"
	}
	return ast.NewLiteral(srcspan.Zero, ast.TagBool, 0, text)
}

func fieldLit(n string) *ast.Literal {
	return ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.Field, n)
}

func groupLit() *ast.Literal {
	return ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.Group, "1")
}

func scalarLit() *ast.Literal {
	return ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.Scalar, "1")
}
