package pipeline

import (
	"os"
	"strings"
	"testing"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/modules"
	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/types"
)

func u8Lit(text string) *ast.Literal {
	return ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.U8, text)
}

// E1: `function f(x: u8) -> u8 { return x + 1u8; }` type-checks and
// flattens to an unchanged body, just folding the single return.
func TestRun_E1_StraightLineFunctionPassesThroughUnchanged(t *testing.T) {
	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewReturnStatement(srcspan.Zero, ast.NewBinaryExpr(srcspan.Zero, ast.OpAdd, ast.NewIdentifier(srcspan.Zero, "x"), u8Lit("1"))),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f",
		[]ast.Param{{Name: "x", Type: types.P(types.U8)}}, types.P(types.U8), body)
	prog := &ast.Program{File: "e1", Functions: []*ast.FunctionDecl{fn}}

	result, diags := Run(prog, Config{Mode: diagnostics.ModeAccumulate})
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	out := result.Program.Functions[0]
	if len(out.Body.Stmts) != 1 {
		t.Fatalf("expected a single return statement, got %d statements", len(out.Body.Stmts))
	}
	if _, ok := out.Body.Stmts[0].(*ast.ReturnStatement); !ok {
		t.Fatalf("expected a ReturnStatement, got %T", out.Body.Stmts[0])
	}
}

// E5: `let z = -128i8;` type-checks; `let z = -(-128i8);` emits
// invalid_int_value and the driver halts before SSA/flattening.
func TestRun_E5_NegateFoldingRejectsOutOfRangeLiteral(t *testing.T) {
	neg128 := ast.NewUnaryExpr(srcspan.Zero, ast.OpNegate, ast.NewLiteral(srcspan.Zero, ast.TagPrimitive, types.I8, "128"))
	doubleNeg := ast.NewUnaryExpr(srcspan.Zero, ast.OpNegate, neg128)

	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewDefinitionStatement(srcspan.Zero, ast.NewIdentifier(srcspan.Zero, "z"), types.P(types.I8), doubleNeg),
		ast.NewReturnStatement(srcspan.Zero, ast.NewIdentifier(srcspan.Zero, "z")),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f", nil, types.P(types.I8), body)
	prog := &ast.Program{File: "e5", Functions: []*ast.FunctionDecl{fn}}

	result, diags := Run(prog, Config{Mode: diagnostics.ModeAccumulate})
	if result != nil {
		t.Fatalf("expected the driver to halt after type-checking, got a result")
	}
	if !diags.HasErrors() {
		t.Fatalf("expected invalid_int_value, got no diagnostics")
	}
	found := false
	for _, d := range diags.Diagnostics() {
		if d.Code == diagnostics.ErrInvalidIntValue {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an invalid_int_value diagnostic, got %v", diags.Diagnostics())
	}
}

// Core-module resolution: `import core.unstable.blake2s;`
// followed by a call to its synthesized `hash` member type-checks.
func TestRun_ResolvesCoreBlake2sImport(t *testing.T) {
	bytes32 := types.ArrayType{Elem: types.P(types.U8), Length: 32}
	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewReturnStatement(srcspan.Zero, ast.NewAssociatedFunctionExpr(srcspan.Zero, "blake2s", "hash", []ast.Expression{
			ast.NewIdentifier(srcspan.Zero, "seed"),
			ast.NewIdentifier(srcspan.Zero, "message"),
		})),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f", []ast.Param{
		{Name: "seed", Type: bytes32},
		{Name: "message", Type: bytes32},
	}, bytes32, body)
	prog := &ast.Program{
		File:      "e8",
		Imports:   []*ast.ImportDecl{ast.NewImportDecl(srcspan.Zero, []string{"core", "unstable", "blake2s"})},
		Functions: []*ast.FunctionDecl{fn},
	}

	_, diags := Run(prog, Config{Mode: diagnostics.ModeAccumulate})
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics resolving core.unstable.blake2s: %v", diags.Diagnostics())
	}
}

// Duplicate top-level function names halt the driver with duplicate_sym
// before any later phase runs.
func TestRun_DuplicateFunctionNameHalts(t *testing.T) {
	mkFn := func() *ast.FunctionDecl {
		body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
			ast.NewReturnStatement(srcspan.Zero, u8Lit("0")),
		})
		return ast.NewFunctionDecl(srcspan.Zero, "dup", nil, types.P(types.U8), body)
	}
	prog := &ast.Program{File: "dup", Functions: []*ast.FunctionDecl{mkFn(), mkFn()}}

	result, diags := Run(prog, Config{Mode: diagnostics.ModeAccumulate})
	if result != nil {
		t.Fatalf("expected the driver to halt on duplicate_sym")
	}
	found := false
	for _, d := range diags.Diagnostics() {
		if d.Code == diagnostics.ErrDuplicateSym {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a duplicate_sym diagnostic, got %v", diags.Diagnostics())
	}
}

// Setting Config.Render renders the halting phase's diagnostics to the
// given writer. A real *os.File (never a terminal in a test run) exercises
// the same isatty.IsTerminal check a CLI's stdout/stderr would hit, and
// confirms color is correctly left off against a non-tty destination.
func TestRun_RendersDiagnosticsWhenConfigured(t *testing.T) {
	mkFn := func() *ast.FunctionDecl {
		body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
			ast.NewReturnStatement(srcspan.Zero, u8Lit("0")),
		})
		return ast.NewFunctionDecl(srcspan.Zero, "dup", nil, types.P(types.U8), body)
	}
	prog := &ast.Program{File: "dup", Functions: []*ast.FunctionDecl{mkFn(), mkFn()}}

	f, err := os.CreateTemp(t.TempDir(), "diagnostics")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	result, diags := Run(prog, Config{Mode: diagnostics.ModeAccumulate, Render: f})
	if result != nil {
		t.Fatalf("expected the driver to halt on duplicate_sym")
	}
	if !diags.HasErrors() {
		t.Fatalf("expected duplicate_sym diagnostics")
	}

	rendered, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(rendered), "duplicate_sym") {
		t.Fatalf("expected rendered output to mention duplicate_sym, got %q", rendered)
	}
	if strings.Contains(string(rendered), "\x1b[") {
		t.Fatalf("expected no ANSI escapes against a non-tty file, got %q", rendered)
	}
}

// RunFile parses mode and resolve_imports from a YAML document and wires
// them into the driver: resolve_imports: false discards the passed-in
// core-module resolver, so an otherwise-resolvable core.* import now fails.
func TestRunFile_ResolveImportsFalseDisablesCoreResolution(t *testing.T) {
	bytes32 := types.ArrayType{Elem: types.P(types.U8), Length: 32}
	body := ast.NewBlockStatement(srcspan.Zero, []ast.Statement{
		ast.NewReturnStatement(srcspan.Zero, ast.NewAssociatedFunctionExpr(srcspan.Zero, "blake2s", "hash", []ast.Expression{
			ast.NewIdentifier(srcspan.Zero, "seed"),
			ast.NewIdentifier(srcspan.Zero, "message"),
		})),
	})
	fn := ast.NewFunctionDecl(srcspan.Zero, "f", []ast.Param{
		{Name: "seed", Type: bytes32},
		{Name: "message", Type: bytes32},
	}, bytes32, body)
	prog := &ast.Program{
		File:      "e8",
		Imports:   []*ast.ImportDecl{ast.NewImportDecl(srcspan.Zero, []string{"core", "unstable", "blake2s"})},
		Functions: []*ast.FunctionDecl{fn},
	}

	yaml := []byte("mode: fail_fast\nresolve_imports: false\n")
	_, diags, err := RunFile(prog, yaml, modules.NewCoreFirstResolver(nil), nil)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	found := false
	for _, d := range diags.Diagnostics() {
		if d.Code == diagnostics.ErrUnknownSym {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unknown_sym for the disabled core import, got %v", diags.Diagnostics())
	}
}
