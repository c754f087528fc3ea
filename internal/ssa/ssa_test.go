package ssa

import (
	"testing"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/types"
)

func ident(name string) *ast.Identifier { return ast.NewIdentifier(srcspan.Zero, name) }

func u32Lit(text string) *ast.Literal {
	return ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.U32, text)
}

// Two definitions of the same source name must produce two distinct fresh
// names, and a read after the second definition must see the second
// definition's name, not the first.
func TestRenameFunction_SequentialDefinitionsGetFreshNames(t *testing.T) {
	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewDefinitionStatement(srcspan.Zero, ident("x"), types.P(types.U32), u32Lit("1")),
		ast.NewDefinitionStatement(srcspan.Zero, ident("x"), types.P(types.U32), u32Lit("2")),
		ast.NewReturnStatement(srcspan.Zero, ident("x")),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f", nil, types.P(types.U32), body)

	r := New()
	out := r.RenameFunction(fn)

	first := out.Body.Stmts[0].(*ast.AssignmentStatement)
	second := out.Body.Stmts[1].(*ast.AssignmentStatement)
	ret := out.Body.Stmts[2].(*ast.ReturnStatement)

	firstName := first.Place.(*ast.Identifier).Name
	secondName := second.Place.(*ast.Identifier).Name
	retName := ret.Value.(*ast.Identifier).Name

	if firstName == secondName {
		t.Fatalf("expected distinct fresh names, got %q twice", firstName)
	}
	if retName != secondName {
		t.Fatalf("expected return to read the latest definition %q, got %q", secondName, retName)
	}
	if OriginalName(firstName) != "x" || OriginalName(secondName) != "x" {
		t.Fatalf("expected both fresh names to trace back to \"x\", got %q and %q", firstName, secondName)
	}
}

func TestRenameFunction_ConditionalBranchesDoNotLeakIntoParentScope(t *testing.T) {
	then := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewAssignmentStatement(srcspan.Zero, ident("x"), u32Lit("9")),
	})
	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewDefinitionStatement(srcspan.Zero, ident("x"), types.P(types.U32), u32Lit("1")),
		ast.NewConditionalStatement(srcspan.Zero, ident("cond"), then, nil),
		ast.NewReturnStatement(srcspan.Zero, ident("x")),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f", []ast.Param{{Name: "cond", Type: types.P(types.Boolean)}}, types.P(types.U32), body)

	r := New()
	out := r.RenameFunction(fn)

	def := out.Body.Stmts[0].(*ast.AssignmentStatement)
	defName := def.Place.(*ast.Identifier).Name

	ret := out.Body.Stmts[2].(*ast.ReturnStatement)
	retName := ret.Value.(*ast.Identifier).Name

	if retName != defName {
		t.Fatalf("expected post-conditional read to see the pre-conditional definition %q, got %q", defName, retName)
	}
}

func TestOriginalName_NoSuffixIsIdentity(t *testing.T) {
	if OriginalName("cond") != "cond" {
		t.Fatalf("expected unchanged name for a parameter with no fresh suffix")
	}
}
