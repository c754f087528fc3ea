// Package pipeline is the pass driver: it sequences import resolution,
// symbol registration, type checking, SSA, loop unrolling, and flattening
// over a Program, halting before the next phase runs if the current one
// accumulated any diagnostic. Run calls each phase directly, in order, and
// stops at the first phase to report trouble, rather than running every
// phase speculatively and sorting out which diagnostics are real afterward.
package pipeline

import (
	"io"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/flatten"
	"github.com/circuitlang/midend/internal/modules"
	"github.com/circuitlang/midend/internal/ssa"
	"github.com/circuitlang/midend/internal/symbols"
	"github.com/circuitlang/midend/internal/typecheck"
	"github.com/circuitlang/midend/internal/unroll"
)

// Result is everything a successful pipeline run produced: the flattened
// program plus the symbol table and checker annotations the diagnostics
// renderer (or a future back-end) needs downstream.
type Result struct {
	Program *ast.Program
	Symbols *symbols.Table
	Checker *typecheck.Checker
}

// Config controls how the driver runs. Mode is the diagnostic
// accumulation mode every phase's Handler is constructed with.
type Config struct {
	Mode     diagnostics.Mode
	Resolver modules.Resolver

	// Render, when non-nil, receives a human-readable rendering of whatever
	// diagnostics made Run halt. Left nil, Run is silent and callers read
	// the returned Handler themselves (an LSP, a test).
	Render io.Writer
}

// Run executes every phase in order over prog, stopping at the first
// phase whose Handler reports diagnostics. It always returns the
// diagnostics accumulated by whichever phase it stopped at (or the last
// phase, on success), so a caller prints exactly one phase's worth of
// trouble at a time.
func Run(prog *ast.Program, cfg Config) (*Result, *diagnostics.Handler) {
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = modules.NewCoreFirstResolver(nil)
	}

	diags := diagnostics.NewHandler(cfg.Mode)
	tbl := symbols.New()
	checker := typecheck.New(tbl, diags, resolver)
	checker.CheckProgram(prog)
	if diags.HasErrors() {
		renderDiagnostics(cfg, diags)
		return nil, diags
	}

	flattened := make([]*ast.FunctionDecl, 0, len(prog.Functions))
	for _, fn := range prog.Functions {
		renamer := ssa.New()
		ssaFn := renamer.RenameFunction(fn)

		unroller := unroll.New(diags, renamer)
		unrolledFn := unroller.UnrollFunction(ssaFn)
		if diags.HasErrors() {
			renderDiagnostics(cfg, diags)
			return nil, diags
		}

		flattener := flatten.New(diags, tbl)
		flatFn := flattener.FlattenFunction(unrolledFn)
		flattened = append(flattened, flatFn)
	}
	if diags.HasErrors() {
		renderDiagnostics(cfg, diags)
		return nil, diags
	}

	out := &ast.Program{
		File:      prog.File,
		Imports:   prog.Imports,
		Records:   prog.Records,
		Functions: flattened,
	}
	return &Result{Program: out, Symbols: tbl, Checker: checker}, diags
}

// renderDiagnostics writes diags through cfg.Render, if the caller asked
// for rendering by setting it.
func renderDiagnostics(cfg Config, diags *diagnostics.Handler) {
	if cfg.Render == nil {
		return
	}
	diagnostics.NewRenderer(cfg.Render).Render(diags.Diagnostics())
}
