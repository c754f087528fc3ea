package typecheck

import (
	"testing"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/modules"
	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/symbols"
	"github.com/circuitlang/midend/internal/types"
)

func newChecker() *Checker {
	return New(symbols.New(), diagnostics.NewHandler(diagnostics.ModeAccumulate), modules.NewCoreFirstResolver(nil))
}

func intLit(text string, prim types.Primitive) *ast.Literal {
	return ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, prim, text)
}

// A single negation parses -128i8 directly (within i8's range), the
// literal-folding behavior this is meant to produce.
func TestNegateFold_SingleNegation(t *testing.T) {
	c := newChecker()
	lit := intLit("128", types.I8)
	neg := ast.NewUnaryExpr(srcspan.Zero, ast.OpNegate, lit)

	typ, val := c.checkExpr(neg, nil)
	if c.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Diagnostics())
	}
	if typ == nil || !types.Equal(typ, types.P(types.I8)) {
		t.Fatalf("expected i8, got %v", typ)
	}
	if val == nil || val.Big.String() != "-128" {
		t.Fatalf("expected folded value -128, got %v", val)
	}
}

// Double negation must NOT round-trip back to -128: the negate flag
// toggles per nesting level, so the inner literal is parsed positive
// ("128"), which overflows i8's max of 127.
func TestNegateFold_DoubleNegationOverflows(t *testing.T) {
	c := newChecker()
	lit := intLit("128", types.I8)
	inner := ast.NewUnaryExpr(srcspan.Zero, ast.OpNegate, lit)
	outer := ast.NewUnaryExpr(srcspan.Zero, ast.OpNegate, inner)

	typ, _ := c.checkExpr(outer, nil)
	if typ != nil {
		t.Fatalf("expected errored type, got %v", typ)
	}
	diags := c.Diags.Diagnostics()
	if len(diags) != 1 || diags[0].Code != diagnostics.ErrInvalidIntValue {
		t.Fatalf("expected one invalid_int_value diagnostic, got %v", diags)
	}
}

func TestNegateFold_TripleNegationMatchesSingle(t *testing.T) {
	c := newChecker()
	lit := intLit("100", types.I8)
	e := ast.Expression(lit)
	for i := 0; i < 3; i++ {
		e = ast.NewUnaryExpr(srcspan.Zero, ast.OpNegate, e)
	}
	typ, val := c.checkExpr(e, nil)
	if c.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Diagnostics())
	}
	if typ == nil || val == nil || val.Big.String() != "-100" {
		t.Fatalf("expected -100, got %v / %v", typ, val)
	}
}

func TestNegateFold_NonNegatableType(t *testing.T) {
	c := newChecker()
	lit := ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.Scalar, "5")
	neg := ast.NewUnaryExpr(srcspan.Zero, ast.OpNegate, lit)

	typ, _ := c.checkExpr(neg, nil)
	if typ != nil {
		t.Fatalf("expected errored type, got %v", typ)
	}
	diags := c.Diags.Diagnostics()
	if len(diags) != 1 || diags[0].Code != diagnostics.ErrTypeIsNotNegatable {
		t.Fatalf("expected type_is_not_negatable, got %v", diags)
	}
}

func TestImplicitLiteralNeedsHint(t *testing.T) {
	c := newChecker()
	lit := ast.NewLiteral(srcspan.Zero, ast.TagNone, 0, "5")
	typ, _ := c.checkExpr(lit, nil)
	if typ != nil {
		t.Fatalf("expected errored type for hintless literal, got %v", typ)
	}
	diags := c.Diags.Diagnostics()
	if len(diags) != 1 || diags[0].Code != diagnostics.ErrImplicitValuesNotAllowed {
		t.Fatalf("expected implicit_values_not_allowed, got %v", diags)
	}
}

func TestImplicitLiteralResolvesFromHint(t *testing.T) {
	c := newChecker()
	lit := ast.NewLiteral(srcspan.Zero, ast.TagNone, 0, "5")
	typ, val := c.checkExpr(lit, types.P(types.U32))
	if c.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Diagnostics())
	}
	if !types.Equal(typ, types.P(types.U32)) || val.Big.String() != "5" {
		t.Fatalf("expected u32(5), got %v / %v", typ, val)
	}
}
