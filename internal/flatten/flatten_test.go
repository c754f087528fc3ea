package flatten

import (
	"testing"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/symbols"
	"github.com/circuitlang/midend/internal/types"
)

func ident(name string) *ast.Identifier { return ast.NewIdentifier(srcspan.Zero, name) }

func newFlattener() *Flattener {
	return New(diagnostics.NewHandler(diagnostics.ModeAccumulate), symbols.New())
}

// E4: `if c { return 1u8; } return 2u8;` flattens to a single trailing
// return folding both values under the if's guard.
func TestFlattenFunction_EarlyReturnFoldsToOneTrailingReturn(t *testing.T) {
	u8Lit := func(text string) *ast.Literal { return ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.U8, text) }

	then := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewReturnStatement(srcspan.Zero, u8Lit("1")),
	})
	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewConditionalStatement(srcspan.Zero, ident("c"), then, nil),
		ast.NewReturnStatement(srcspan.Zero, u8Lit("2")),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f",
		[]ast.Param{{Name: "c", Type: types.P(types.Boolean)}}, types.P(types.U8), body)

	out := newFlattener().FlattenFunction(fn)

	if len(out.Body.Stmts) != 1 {
		t.Fatalf("expected exactly one statement after flattening, got %d", len(out.Body.Stmts))
	}
	ret, ok := out.Body.Stmts[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected a trailing ReturnStatement, got %T", out.Body.Stmts[0])
	}
	tern, ok := ret.Value.(*ast.TernaryExpr)
	if !ok {
		t.Fatalf("expected the folded return value to be a ternary, got %T", ret.Value)
	}
	if cond, ok := tern.Cond.(*ast.Identifier); !ok || cond.Name != "c" {
		t.Fatalf("expected the ternary's guard to be the if's own condition, got %#v", tern.Cond)
	}
}

// E2: `return c ? a : b;` over tuple-typed parameters flattens to one
// scalar ternary per element followed by a tuple return.
func TestFlattenFunction_TupleTernaryReturnExpandsElementwise(t *testing.T) {
	tupleType := types.TupleType{Elems: []types.Type{types.P(types.U8), types.P(types.U8)}}
	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewReturnStatement(srcspan.Zero, ast.NewTernaryExpr(srcspan.Zero, ident("c"), ident("a"), ident("b"))),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f", []ast.Param{
		{Name: "c", Type: types.P(types.Boolean)},
		{Name: "a", Type: tupleType},
		{Name: "b", Type: tupleType},
	}, tupleType, body)

	out := newFlattener().FlattenFunction(fn)

	if len(out.Body.Stmts) != 3 {
		t.Fatalf("expected 2 scalar ternary bindings plus 1 return, got %d statements", len(out.Body.Stmts))
	}
	for i := 0; i < 2; i++ {
		assign, ok := out.Body.Stmts[i].(*ast.AssignmentStatement)
		if !ok {
			t.Fatalf("statement %d: expected an AssignmentStatement, got %T", i, out.Body.Stmts[i])
		}
		tern, ok := assign.Value.(*ast.TernaryExpr)
		if !ok {
			t.Fatalf("statement %d: expected a ternary RHS, got %T", i, assign.Value)
		}
		if idx, ok := tern.Then.(*ast.TupleIndexExpr); !ok || idx.Index != i {
			t.Fatalf("statement %d: expected the then-arm to read element %d of the aliased tuple, got %#v", i, i, tern.Then)
		}
	}
	ret, ok := out.Body.Stmts[2].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected a trailing return, got %T", out.Body.Stmts[2])
	}
	retTuple, ok := ret.Value.(*ast.TupleExpr)
	if !ok || len(retTuple.Elems) != 2 {
		t.Fatalf("expected the return value to be a 2-tuple of the fresh bindings, got %#v", ret.Value)
	}
}

// E3: a ternary whose arms are identifiers aliasing the same record type
// expands to one scalar ternary per member plus a record-init binding
func TestFlattenFunction_RecordTernaryExpandsPerMember(t *testing.T) {
	members := types.NewOrderedMembers()
	members.Insert(types.Member{Name: "x", Type: types.P(types.U8)})
	members.Insert(types.Member{Name: "y", Type: types.P(types.U8)})
	fooType := types.RecordType{Name: "Foo", Members: members}

	tbl := symbols.New()
	if err := tbl.DefineRecord(&fooType); err != nil {
		t.Fatalf("DefineRecord: %v", err)
	}

	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewAssignmentStatement(srcspan.Zero, ident("a"), ast.NewRecordInitExpr(srcspan.Zero, "Foo", []ast.RecordInitField{
			{Name: "x", Value: ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.U8, "1")},
			{Name: "y", Value: ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.U8, "2")},
		})),
		ast.NewAssignmentStatement(srcspan.Zero, ident("b"), ast.NewRecordInitExpr(srcspan.Zero, "Foo", []ast.RecordInitField{
			{Name: "x", Value: ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.U8, "3")},
			{Name: "y", Value: ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.U8, "4")},
		})),
		ast.NewAssignmentStatement(srcspan.Zero, ident("r"), ast.NewTernaryExpr(srcspan.Zero, ident("c"), ident("a"), ident("b"))),
		ast.NewReturnStatement(srcspan.Zero, ident("r")),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f",
		[]ast.Param{{Name: "c", Type: types.P(types.Boolean)}}, fooType, body)

	out := New(diagnostics.NewHandler(diagnostics.ModeAccumulate), tbl).FlattenFunction(fn)

	// a, b, then tmp_x, tmp_y, tmp_record, then `r = tmp_record` (a plain
	// copy of the record binding), then the return.
	var sawMemberTernary, sawRecordInit int
	for _, s := range out.Body.Stmts {
		assign, ok := s.(*ast.AssignmentStatement)
		if !ok {
			continue
		}
		switch v := assign.Value.(type) {
		case *ast.TernaryExpr:
			if _, ok := v.Then.(*ast.MemberExpr); ok {
				sawMemberTernary++
			}
		case *ast.RecordInitExpr:
			if v.TypeName == "Foo" {
				sawRecordInit++
			}
		}
	}
	if sawMemberTernary != 2 {
		t.Fatalf("expected 2 per-member ternary bindings (x and y), got %d", sawMemberTernary)
	}
	if sawRecordInit != 3 {
		t.Fatalf("expected 3 record-init bindings (a, b, merged r), got %d", sawRecordInit)
	}
}

func TestFlattenFunction_PostconditionNoConditionalsRemain(t *testing.T) {
	then := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewAssignmentStatement(srcspan.Zero, ident("x"), ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.U8, "1")),
	})
	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewConditionalStatement(srcspan.Zero, ident("c"), then, nil),
		ast.NewReturnStatement(srcspan.Zero, ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.U8, "0")),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f",
		[]ast.Param{{Name: "c", Type: types.P(types.Boolean)}}, types.P(types.U8), body)

	out := newFlattener().FlattenFunction(fn)

	returns := 0
	for _, s := range out.Body.Stmts {
		switch s.(type) {
		case *ast.ConditionalStatement, *ast.IterationStatement, *ast.DefinitionStatement, *ast.FinalizeStatement:
			t.Fatalf("flattened body still contains a %T", s)
		case *ast.ReturnStatement:
			returns++
		}
	}
	if returns != 1 {
		t.Fatalf("expected exactly one trailing return, got %d", returns)
	}
	if _, ok := out.Body.Stmts[len(out.Body.Stmts)-1].(*ast.ReturnStatement); !ok {
		t.Fatalf("expected the return to be the last statement")
	}
}
