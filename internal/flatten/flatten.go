// Package flatten implements the flattening pass: it turns an
// SSA'd, loop-free function body into straight-line code by eliminating
// every ConditionalStatement, composite (tuple/record) ternary, tuple
// value, and all but one trailing return/finalize.
//
// Two erasure mechanisms coexist:
//
//   - Early return/finalize collection: each ReturnStatement/
//     FinalizeStatement encountered is recorded as a (guard, value) pair
//     under the condition stack active at that point, then replaced by the
//     dummy sentinel; once the whole body is walked, the collected list is
//     right-to-left folded into one trailing ternary chain.
//   - Ternary lowering: any TernaryExpr reachable from an assignment,
//     return, or finalize's expression tree is expanded in place. When
//     both arms are identifiers already known (from this function's own
//     earlier assignments) to alias the same record type or a
//     same-arity tuple, the ternary is expanded member-wise or
//     element-wise into fresh scalar bindings; otherwise it collapses to one fresh scalar binding.
//     Tuple index accesses against a tracked tuple alias are substituted
//     with the aliased element directly, so no tuple value is ever
//     materialized.
//
// The bundled-maps shape (returns list, finalizes matrix, tuples map,
// structs map) follows the convention of bundling several parallel
// accumulators as plain fields on one struct walked once per function
// body (see DESIGN.md).
package flatten

import (
	"fmt"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/symbols"
	"github.com/circuitlang/midend/internal/types"
)

// guardedValue pairs an accumulated AND-of-conditions guard with the
// expression it guards — one entry of the returns list / one column of
// the finalizes matrix.
type guardedValue struct {
	Guard ast.Expression // nil means unconditional (always taken if reached)
	Value ast.Expression
}

type guardedArgs struct {
	Guard ast.Expression
	Args  []ast.Expression
}

// Flattener holds the per-function accumulators: a running returns list
// and finalizes matrix, the tuples map (alias name ->
// underlying element expressions) and the structs map (alias name ->
// resolved record type name) that let composite ternaries and tuple-index
// accesses be lowered without ever materializing a tuple value at
// runtime, plus the fresh-name counter ternary lowering mints tmp_i/tmp_n
// bindings from.
type Flattener struct {
	Diags   *diagnostics.Handler
	Records *symbols.Table // for record member enumeration during ternary lowering; may be nil

	returns   []guardedValue
	finalizes []guardedArgs
	tuples    map[string][]ast.Expression
	structs   map[string]string
	tmpCount  int
}

// New constructs a Flattener. records may be nil if the program defines no
// record types (ternary lowering's record branch is then simply never
// taken).
func New(diags *diagnostics.Handler, records *symbols.Table) *Flattener {
	return &Flattener{Diags: diags, Records: records}
}

func (f *Flattener) fresh(prefix string) string {
	f.tmpCount++
	return fmt.Sprintf("%s%d", prefix, f.tmpCount)
}

// FlattenFunction returns a new FunctionDecl whose Body (and FinalizeBody)
// is straight-line: no ConditionalStatement, no tuple or record ternary,
// no TupleIndexExpr over a tracked tuple alias, and at most one trailing
// ReturnStatement / FinalizeStatement.
func (f *Flattener) FlattenFunction(fn *ast.FunctionDecl) *ast.FunctionDecl {
	out := &ast.FunctionDecl{
		Name:        fn.Name,
		Params:      fn.Params,
		ReturnType:  fn.ReturnType,
		HasFinalize: fn.HasFinalize,
	}

	f.resetState()
	f.seedParams(fn.Params)
	stmts := f.flattenStmts(fn.Body.Stmts, nil)
	if fin := f.foldFinalizes(fn.Body.GetSpan()); fin != nil {
		stmts = append(stmts, fin)
	}
	if ret := f.foldReturns(fn.Body.GetSpan()); ret != nil {
		stmts = append(stmts, ret)
	}
	out.Body = ast.NewBlockStatement(fn.Body.GetSpan(), stmts)

	if fn.HasFinalize {
		f.resetState()
		f.seedParams(fn.FinalizeParams)
		finStmts := f.flattenStmts(fn.FinalizeBody.Stmts, nil)
		if fin := f.foldFinalizes(fn.FinalizeBody.GetSpan()); fin != nil {
			finStmts = append(finStmts, fin)
		}
		if ret := f.foldReturns(fn.FinalizeBody.GetSpan()); ret != nil {
			finStmts = append(finStmts, ret)
		}
		out.FinalizeParams = fn.FinalizeParams
		out.FinalizeBody = ast.NewBlockStatement(fn.FinalizeBody.GetSpan(), finStmts)
	}
	return out
}

func (f *Flattener) resetState() {
	f.returns = nil
	f.finalizes = nil
	f.tuples = make(map[string][]ast.Expression)
	f.structs = make(map[string]string)
}

// seedParams registers tuple- and record-typed parameters in the tuples/
// structs maps before the body is walked. Parameters are never SSA-renamed
// and never bound by a local assignment the ordinary tracking
// in flattenAssignment would see, so a ternary directly over two tuple- or
// record-typed parameters would otherwise be invisible to ternary
// lowering. A tuple parameter's "elements" are its
// own TupleIndexExpr accesses — the back-end already lowers a tuple
// parameter to multiple scalar parameters, so indexing into it here is
// exactly the representation flattening is supposed to produce.
func (f *Flattener) seedParams(params []ast.Param) {
	for _, p := range params {
		switch t := p.Type.(type) {
		case types.TupleType:
			id := ast.NewIdentifier(p.Span, p.Name)
			elems := make([]ast.Expression, len(t.Elems))
			for i := range t.Elems {
				elems[i] = ast.NewTupleIndexExpr(p.Span, id, i)
			}
			f.tuples[p.Name] = elems
		case types.RecordType:
			f.structs[p.Name] = t.Name
		}
	}
}

// flattenStmts walks stmts under guard (nil meaning unconditional),
// returning the straight-line statements they lower to. Conditionals
// recurse with an extended guard and splice their branches' results
// directly into the output instead of remaining nested.
func (f *Flattener) flattenStmts(stmts []ast.Statement, guard ast.Expression) []ast.Statement {
	var out []ast.Statement
	for _, s := range stmts {
		out = append(out, f.flattenStmt(s, guard)...)
	}
	return out
}

func (f *Flattener) flattenStmt(s ast.Statement, guard ast.Expression) []ast.Statement {
	switch st := s.(type) {
	case *ast.AssignmentStatement:
		return f.flattenAssignment(st, guard)

	case *ast.DefinitionStatement:
		// SSA eliminates every DefinitionStatement before this pass runs
		//; if one still reaches here the pipeline
		// ran passes out of order. Treat it like an unconditional
		// assignment rather than losing the statement outright.
		return f.flattenAssignment(ast.NewAssignmentStatement(st.GetSpan(), st.Place, st.Value), guard)

	case *ast.ConditionalStatement:
		thenGuard := and(guard, st.Cond)
		thenStmts := f.flattenStmts(st.Then.Stmts, thenGuard)
		var elseStmts []ast.Statement
		if st.Else != nil {
			elseGuard := and(guard, notExpr(st.Cond))
			elseStmts = f.flattenStmts(st.Else.Stmts, elseGuard)
		}
		out := make([]ast.Statement, 0, len(thenStmts)+len(elseStmts))
		out = append(out, thenStmts...)
		out = append(out, elseStmts...)
		return out

	case *ast.BlockStatement:
		return f.flattenStmts(st.Stmts, guard)

	case *ast.ReturnStatement:
		extra, val := f.reduceExpr(st.Value)
		f.returns = append(f.returns, guardedValue{Guard: guard, Value: val})
		return extra

	case *ast.FinalizeStatement:
		var extra []ast.Statement
		args := make([]ast.Expression, len(st.Args))
		for i, a := range st.Args {
			e, v := f.reduceExpr(a)
			extra = append(extra, e...)
			args[i] = v
		}
		f.finalizes = append(f.finalizes, guardedArgs{Guard: guard, Args: args})
		return extra

	case *ast.IterationStatement:
		f.Diags.Emit(diagnostics.NewInternal(st.GetSpan(), "unrolling must remove every loop before flattening"))
		return nil

	case *ast.DummyStatement:
		return nil

	default:
		// ConsoleStatement, ExpressionStatement: effectful statements with
		// no assignable place to ternary-merge against. They are kept as-is
		// and are not guarded by the enclosing conditions.
		return []ast.Statement{s}
	}
}

// flattenAssignment lowers one write. A tuple-valued RHS is tracked as an
// alias and never emitted.
// A ternary RHS is expanded via ternary lowering; when that expansion
// itself collapses to a tuple, the assignment falls through to the same
// alias-tracking behavior instead of binding a name to a tuple value.
// Everything else is emitted as-is after reducing nested tuple-index
// accesses and ternaries, regardless
// of whether this write sits under an open conditional guard: SSA gives
// every write a fresh place no other branch's write or post-conditional
// read ever reuses, so there is nothing to merge it against.
func (f *Flattener) flattenAssignment(s *ast.AssignmentStatement, _ ast.Expression) []ast.Statement {
	name, hasName := placeName(s.Place)

	if tup, ok := s.Value.(*ast.TupleExpr); ok {
		if hasName {
			f.tuples[name] = tup.Elems
		}
		return nil // tuple values are never materialized
	}

	if rhsID, ok := s.Value.(*ast.Identifier); ok {
		if tup, ok := f.tuples[rhsID.Name]; ok {
			if hasName {
				f.tuples[name] = tup
			}
			return nil
		}
	}

	if tern, ok := s.Value.(*ast.TernaryExpr); ok {
		extra, result := f.lowerTernary(tern)
		if tup, ok := result.(*ast.TupleExpr); ok {
			if hasName {
				f.tuples[name] = tup.Elems
			}
			return extra
		}
		if resultID, ok := result.(*ast.Identifier); ok {
			if rt, ok := f.structs[resultID.Name]; ok && hasName {
				f.structs[name] = rt
			}
		}
		assign := ast.NewAssignmentStatement(s.GetSpan(), s.Place, result)
		return append(extra, assign)
	}

	extra, value := f.reduceExpr(s.Value)

	if ri, ok := value.(*ast.RecordInitExpr); ok && hasName {
		f.structs[name] = ri.TypeName
	}

	// Emitted as-is regardless of guard: the write's SSA-fresh
	// place is, by construction, never read under any other name, so
	// there is nothing meaningful to ternary-merge it against — guarding
	// the write itself would read `place` on its own right-hand side
	// before its first (and only) definition.
	assign := ast.NewAssignmentStatement(s.GetSpan(), s.Place, value)
	return append(extra, assign)
}

func placeName(e ast.Expression) (string, bool) {
	id, ok := e.(*ast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// reduceExpr recursively substitutes away tracked tuple aliases and lowers
// any nested ternary, returning the statements that must be spliced in
// before whatever consumes the reduced expression.
func (f *Flattener) reduceExpr(e ast.Expression) ([]ast.Statement, ast.Expression) {
	switch ex := e.(type) {
	case nil:
		return nil, nil

	case *ast.Identifier:
		if tup, ok := f.tuples[ex.Name]; ok {
			return nil, ast.NewTupleExpr(ex.GetSpan(), tup)
		}
		return nil, ex

	case *ast.TernaryExpr:
		return f.lowerTernary(ex)

	case *ast.TupleIndexExpr:
		extra, target := f.reduceExpr(ex.Target)
		if tup, ok := target.(*ast.TupleExpr); ok && ex.Index < len(tup.Elems) {
			return extra, tup.Elems[ex.Index]
		}
		return extra, ast.NewTupleIndexExpr(ex.GetSpan(), target, ex.Index)

	case *ast.UnaryExpr:
		extra, operand := f.reduceExpr(ex.Operand)
		return extra, ast.NewUnaryExpr(ex.GetSpan(), ex.Op, operand)

	case *ast.BinaryExpr:
		lExtra, left := f.reduceExpr(ex.Left)
		rExtra, right := f.reduceExpr(ex.Right)
		return append(lExtra, rExtra...), ast.NewBinaryExpr(ex.GetSpan(), ex.Op, left, right)

	case *ast.CallExpr:
		var extra []ast.Statement
		args := make([]ast.Expression, len(ex.Args))
		for i, a := range ex.Args {
			e2, v := f.reduceExpr(a)
			extra = append(extra, e2...)
			args[i] = v
		}
		return extra, ast.NewCallExpr(ex.GetSpan(), ex.Callee, args)

	case *ast.ArrayIndexExpr:
		aExtra, arr := f.reduceExpr(ex.Array)
		iExtra, idx := f.reduceExpr(ex.Index)
		return append(aExtra, iExtra...), ast.NewArrayIndexExpr(ex.GetSpan(), arr, idx)

	case *ast.MemberExpr:
		extra, target := f.reduceExpr(ex.Target)
		return extra, ast.NewMemberExpr(ex.GetSpan(), target, ex.Member)

	case *ast.AssociatedFunctionExpr:
		var extra []ast.Statement
		args := make([]ast.Expression, len(ex.Args))
		for i, a := range ex.Args {
			e2, v := f.reduceExpr(a)
			extra = append(extra, e2...)
			args[i] = v
		}
		return extra, ast.NewAssociatedFunctionExpr(ex.GetSpan(), ex.TypeName, ex.Func, args)

	case *ast.RecordInitExpr:
		var extra []ast.Statement
		fields := make([]ast.RecordInitField, len(ex.Fields))
		for i, fld := range ex.Fields {
			e2, v := f.reduceExpr(fld.Value)
			extra = append(extra, e2...)
			fields[i] = ast.RecordInitField{Name: fld.Name, Value: v}
		}
		return extra, ast.NewRecordInitExpr(ex.GetSpan(), ex.TypeName, fields)

	case *ast.TupleExpr:
		var extra []ast.Statement
		elems := make([]ast.Expression, len(ex.Elems))
		for i, el := range ex.Elems {
			e2, v := f.reduceExpr(el)
			extra = append(extra, e2...)
			elems[i] = v
		}
		return extra, ast.NewTupleExpr(ex.GetSpan(), elems)

	default:
		// Literal, AssociatedConstantExpr, ErrorExpr: no sub-expressions to
		// reduce.
		return nil, e
	}
}

// lowerTernary expands one TernaryExpr according to its arms' shape:
//
//   - both arms are identifiers known to alias the same record type: one
//     fresh scalar binding per member, then one record-init binding over
//     the fresh members (the result is that binding's name);
//   - both arms are identifiers known to alias same-arity tuples: the
//     result is a TupleExpr built from one fresh scalar binding per
//     element (no trailing alias is registered — tuple values are never
//     materialized);
//   - otherwise: recurse into each arm, then one fresh scalar binding over
//     `cond ? then : else`.
func (f *Flattener) lowerTernary(t *ast.TernaryExpr) ([]ast.Statement, ast.Expression) {
	condExtra, cond := f.reduceExpr(t.Cond)

	if thenID, ok := t.Then.(*ast.Identifier); ok {
		if elseID, ok2 := t.Else.(*ast.Identifier); ok2 {
			if rtName, ok3 := f.structs[thenID.Name]; ok3 {
				if rtName2, ok4 := f.structs[elseID.Name]; ok4 && rtName == rtName2 {
					extra, result := f.lowerRecordTernary(t.GetSpan(), rtName, thenID, elseID, cond)
					return append(condExtra, extra...), result
				}
			}
			if thenTup, ok3 := f.tuples[thenID.Name]; ok3 {
				if elseTup, ok4 := f.tuples[elseID.Name]; ok4 && len(thenTup) == len(elseTup) {
					extra, result := f.lowerTupleTernary(t.GetSpan(), thenTup, elseTup, cond)
					return append(condExtra, extra...), result
				}
			}
		}
	}

	thenExtra, thenE := f.reduceExpr(t.Then)
	elseExtra, elseE := f.reduceExpr(t.Else)
	tmp := f.fresh("tmp")
	assign := ast.NewAssignmentStatement(t.GetSpan(), ast.NewIdentifier(t.GetSpan(), tmp), ast.NewTernaryExpr(t.GetSpan(), cond, thenE, elseE))

	extra := make([]ast.Statement, 0, len(condExtra)+len(thenExtra)+len(elseExtra)+1)
	extra = append(extra, condExtra...)
	extra = append(extra, thenExtra...)
	extra = append(extra, elseExtra...)
	extra = append(extra, assign)
	return extra, ast.NewIdentifier(t.GetSpan(), tmp)
}

func (f *Flattener) lowerRecordTernary(span srcspan.Span, recordName string, thenID, elseID *ast.Identifier, cond ast.Expression) ([]ast.Statement, ast.Expression) {
	var members []string
	if f.Records != nil {
		if record, ok := f.Records.LookupStruct(recordName); ok {
			for _, name := range record.Members.Names() {
				if m, ok := record.Members.Get(name); ok && m.Func == nil {
					members = append(members, name)
				}
			}
		}
	}

	var extra []ast.Statement
	fields := make([]ast.RecordInitField, 0, len(members))
	for _, name := range members {
		memberTernary := ast.NewTernaryExpr(span, cond,
			ast.NewMemberExpr(span, thenID, name),
			ast.NewMemberExpr(span, elseID, name))
		tmp := f.fresh("tmp")
		extra = append(extra, ast.NewAssignmentStatement(span, ast.NewIdentifier(span, tmp), memberTernary))
		fields = append(fields, ast.RecordInitField{Name: name, Value: ast.NewIdentifier(span, tmp)})
	}

	resultName := f.fresh("tmp")
	extra = append(extra, ast.NewAssignmentStatement(span, ast.NewIdentifier(span, resultName), ast.NewRecordInitExpr(span, recordName, fields)))
	f.structs[resultName] = recordName
	return extra, ast.NewIdentifier(span, resultName)
}

func (f *Flattener) lowerTupleTernary(span srcspan.Span, thenTup, elseTup []ast.Expression, cond ast.Expression) ([]ast.Statement, ast.Expression) {
	var extra []ast.Statement
	elems := make([]ast.Expression, len(thenTup))
	for i := range thenTup {
		elemTernary := ast.NewTernaryExpr(span, cond, thenTup[i], elseTup[i])
		tmp := f.fresh("tmp")
		extra = append(extra, ast.NewAssignmentStatement(span, ast.NewIdentifier(span, tmp), elemTernary))
		elems[i] = ast.NewIdentifier(span, tmp)
	}
	return extra, ast.NewTupleExpr(span, elems)
}

// and builds the running AND-of-conditions guard: nil (unconditional) combined with anything is just that thing.
func and(outer, inner ast.Expression) ast.Expression {
	if outer == nil {
		return inner
	}
	return ast.NewBinaryExpr(inner.GetSpan(), ast.OpAnd, outer, inner)
}

func notExpr(cond ast.Expression) ast.Expression {
	return ast.NewUnaryExpr(cond.GetSpan(), ast.OpNot, cond)
}

// foldReturns builds the single trailing ReturnStatement from the
// accumulated returns list: a right-to-left ternary chain where the last
// collected return (the one with the weakest, or no, guard — the
// function's fallthrough) seeds the chain and each earlier, more
// specifically guarded return wraps it.
func (f *Flattener) foldReturns(span srcspan.Span) *ast.ReturnStatement {
	if len(f.returns) == 0 {
		return nil
	}
	last := f.returns[len(f.returns)-1]
	acc := last.Value
	for i := len(f.returns) - 2; i >= 0; i-- {
		r := f.returns[i]
		if r.Guard == nil || acc == nil || r.Value == nil {
			acc = chooseNonNil(r.Value, acc)
			continue
		}
		acc = ast.NewTernaryExpr(r.Value.GetSpan(), r.Guard, r.Value, acc)
	}
	return ast.NewReturnStatement(span, acc)
}

func chooseNonNil(a, b ast.Expression) ast.Expression {
	if a != nil {
		return a
	}
	return b
}

// foldFinalizes folds the finalizes matrix column-by-column: argument
// position k across every collected finalize call becomes its own
// right-to-left ternary chain, the same algorithm as foldReturns applied
// once per argument index.
func (f *Flattener) foldFinalizes(span srcspan.Span) *ast.FinalizeStatement {
	if len(f.finalizes) == 0 {
		return nil
	}
	arity := len(f.finalizes[len(f.finalizes)-1].Args)
	args := make([]ast.Expression, arity)
	for k := 0; k < arity; k++ {
		last := f.finalizes[len(f.finalizes)-1]
		acc := argAt(last, k)
		for i := len(f.finalizes) - 2; i >= 0; i-- {
			entry := f.finalizes[i]
			v := argAt(entry, k)
			if entry.Guard == nil || v == nil || acc == nil {
				acc = chooseNonNil(v, acc)
				continue
			}
			acc = ast.NewTernaryExpr(v.GetSpan(), entry.Guard, v, acc)
		}
		args[k] = acc
	}
	return ast.NewFinalizeStatement(span, args)
}

func argAt(e guardedArgs, k int) ast.Expression {
	if k < len(e.Args) {
		return e.Args[k]
	}
	return nil
}
