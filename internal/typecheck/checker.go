// Package typecheck implements the type checker: a bottom-up walk over
// expressions with a top-down expected-type hint, enforcing the
// operator-class table, annotating each expression with an inferred type
// and (when foldable) a compile-time value, and emitting diagnostics while
// continuing with a best-effort type so later expressions still produce
// useful messages.
//
// A single Checker struct threads expected-type hints and a diagnostic
// handler through recursive checkExpr/checkStmt calls, never panicking out
// of a bad expression (see DESIGN.md). There are no unification variables here —
// every expression resolves to exactly one of the closed set of types in
// internal/types, or is marked errored (nil Type), which is why the walk
// is a plain recursive type switch rather than a constraint solver.
package typecheck

import (
	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/modules"
	"github.com/circuitlang/midend/internal/symbols"
	"github.com/circuitlang/midend/internal/types"
	"github.com/circuitlang/midend/pkg/value"
)

// Annotation is the out-of-band result the checker attaches to every
// expression node, keyed by NodeID rather than stored on the node itself
type Annotation struct {
	Type    types.Type // nil if the expression is errored
	Value   *value.Value
	Errored bool
}

// Checker runs over an entire program; its mutable fields (negate flag,
// current function context) are reset around each function body, the
// same per-function-state lifecycle the flattener uses.
type Checker struct {
	Symbols     *symbols.Table
	Diags       *diagnostics.Handler
	Resolver    modules.Resolver
	Annotations map[ast.NodeID]Annotation

	negate bool // single-bit negate-fold state, toggled across nested unary negations

	currentReturn types.Type
}

// New constructs a Checker over an already-populated symbol table.
func New(tbl *symbols.Table, diags *diagnostics.Handler, resolver modules.Resolver) *Checker {
	return &Checker{
		Symbols:     tbl,
		Diags:       diags,
		Resolver:    resolver,
		Annotations: make(map[ast.NodeID]Annotation),
	}
}

func (c *Checker) annotate(e ast.Expression, t types.Type, v *value.Value) (types.Type, *value.Value) {
	c.Annotations[e.GetID()] = Annotation{Type: t, Value: v, Errored: t == nil}
	return t, v
}

func (c *Checker) errorf(code diagnostics.ErrorCode, e ast.Node, format string, args ...interface{}) {
	c.Diags.Emit(diagnostics.NewError(code, e.GetSpan(), format, args...))
}

// Lookup returns the annotation recorded for e, if any.
func (c *Checker) Lookup(id ast.NodeID) (Annotation, bool) {
	a, ok := c.Annotations[id]
	return a, ok
}

// CheckProgram resolves imports, registers every record and function
// declaration, then checks every function body.
func (c *Checker) CheckProgram(prog *ast.Program) {
	c.resolveImports(prog)
	c.registerRecords(prog)
	c.registerFunctions(prog)

	for _, fn := range prog.Functions {
		c.CheckFunction(fn)
	}
}

func (c *Checker) resolveImports(prog *ast.Program) {
	if c.Resolver == nil {
		return
	}
	for _, imp := range prog.Imports {
		resolved, err := c.Resolver.Resolve(imp.Segments, imp.GetSpan())
		if err != nil {
			c.errorf(diagnostics.ErrUnknownSym, imp, "failed to resolve import %q: %v", joinSegments(imp.Segments), err)
			continue
		}
		if resolved == nil {
			c.errorf(diagnostics.ErrUnknownSym, imp, "unknown import %q", joinSegments(imp.Segments))
			continue
		}
		// Merge the resolved sub-program's declarations into this one so
		// its records/functions are visible exactly as if they'd been
		// declared locally.
		c.registerRecords(resolved)
		c.registerFunctions(resolved)
	}
}

func joinSegments(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}

func (c *Checker) registerRecords(prog *ast.Program) {
	for _, rd := range prog.Records {
		if isReservedTypeName(rd.Name) {
			c.errorf(diagnostics.ErrCoreTypeNameConflict, rd, "type %q conflicts with a built-in account/algorithm type", rd.Name)
			continue
		}
		rt := &types.RecordType{Name: rd.Name, Members: rd.Members}
		if err := c.Symbols.DefineRecord(rt); err != nil {
			c.errorf(diagnostics.ErrDuplicateSym, rd, "%v", err)
		}
	}
}

func (c *Checker) registerFunctions(prog *ast.Program) {
	for _, fn := range prog.Functions {
		params := make([]types.Type, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Type
		}
		sig := &symbols.FnSig{Name: fn.Name, Params: fn.Params, Return: fn.ReturnType}
		if err := c.Symbols.DefineFunction(fn.Name, sig); err != nil {
			c.errorf(diagnostics.ErrDuplicateSym, fn, "%v", err)
		}
	}
}

func isReservedTypeName(name string) bool {
	for _, reserved := range reservedTypeNames() {
		if name == reserved {
			return true
		}
	}
	return false
}

// CheckFunction checks one function body (and its optional finalize
// block) against its declared signature.
func (c *Checker) CheckFunction(fn *ast.FunctionDecl) {
	c.negate = false
	c.currentReturn = fn.ReturnType

	c.Symbols.EnterScope()
	for _, p := range fn.Params {
		_ = c.Symbols.InsertVariable(p.Name, p.Type, false, p.Span, nil)
	}
	c.checkBlock(fn.Body)
	c.Symbols.ExitScope()

	if fn.HasFinalize {
		c.Symbols.EnterScope()
		for _, p := range fn.FinalizeParams {
			_ = c.Symbols.InsertVariable(p.Name, p.Type, false, p.Span, nil)
		}
		c.checkBlock(fn.FinalizeBody)
		c.Symbols.ExitScope()
	}
}
