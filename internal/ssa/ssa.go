// Package ssa implements the SSA renaming pass: every variable write
// becomes a fresh name, and every read is rewritten to the nearest
// enclosing write's fresh name. There are no phi nodes — merging the two
// arms of a conditional is left to the flattener's ternary lowering, so
// this pass never needs to reconcile two branches' renames against each
// other. It only needs a name a later pass can trace back to its original
// variable, which is why fresh names are "<original>$<n>" rather than
// opaque counters (see OriginalName).
//
// Pass state (counters, scope stack) is threaded as plain struct fields,
// never as a package-global or a closure over a mutable cell.
package ssa

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/circuitlang/midend/internal/ast"
)

// Renamer owns the monotone fresh-name counter for one function body. A
// new Renamer is used per function, the same per-function-state lifecycle
// the checker resets around each FunctionDecl.
type Renamer struct {
	counter int
}

// New constructs a Renamer with its counter at zero.
func New() *Renamer {
	return &Renamer{}
}

// Fresh mints the next "<base>$<n>" name for base.
func (r *Renamer) Fresh(base string) string {
	r.counter++
	return fmt.Sprintf("%s$%d", base, r.counter)
}

// OriginalName strips a Fresh-minted suffix, recovering the source name
// several SSA'd writes of one logical variable share. Names with no
// "$<digits>" suffix are returned as-is — function parameters are never
// renamed (see RenameFunction), so a parameter maps to itself.
func OriginalName(ssaName string) string {
	i := strings.LastIndexByte(ssaName, '$')
	if i < 0 {
		return ssaName
	}
	if _, err := strconv.Atoi(ssaName[i+1:]); err != nil {
		return ssaName
	}
	return ssaName[:i]
}

// Env is the per-scope original-name -> latest-fresh-name mapping. It is
// copied (never shared by pointer) when entering a nested block, so writes
// inside an if/else arm or a loop body can never leak their rename back
// into the parent scope's view — exactly the scoping discipline
// symbols.Table enforces at check time, mirrored here for the renamed tree.
//
// Exported so internal/unroll can thread one Env across several unrolled
// copies of a loop body: an accumulator reassigned every iteration must
// have each copy read the previous copy's fresh name, not the pre-loop
// one, and Env's map-reference semantics make that threading a matter of
// reusing the same value rather than copying it between copies.
type Env map[string]string

type env = Env

func (e env) copy() env {
	out := make(env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// NewEnv returns an empty Env.
func NewEnv() Env { return Env{} }

// RenameBlockWithEnv renames b using e as the starting (and, because Env
// is a map, continuously mutated) scope. Unlike RenameFunction's internal
// use of renameBlock, this is the entry point internal/unroll calls once
// per unrolled loop-body copy, passing the same Env forward so later
// copies see earlier copies' writes.
func (r *Renamer) RenameBlockWithEnv(b *ast.BlockStatement, e Env) *ast.BlockStatement {
	return r.renameBlock(b, e)
}

// RenameFunction returns a new FunctionDecl whose body (and finalize body,
// if present) has every DefinitionStatement folded into an
// AssignmentStatement over a fresh name, and every AssignmentStatement's
// right-hand side (and every Place) renamed to read the latest fresh name
// in scope. Parameters keep their declared names unchanged — they are
// already the unique binding occurrence for their scope.
func (r *Renamer) RenameFunction(fn *ast.FunctionDecl) *ast.FunctionDecl {
	base := env{}
	for _, p := range fn.Params {
		base[p.Name] = p.Name
	}

	out := &ast.FunctionDecl{
		Name:        fn.Name,
		Params:      fn.Params,
		ReturnType:  fn.ReturnType,
		HasFinalize: fn.HasFinalize,
	}
	bodyEnv := base.copy()
	out.Body = r.renameBlock(fn.Body, bodyEnv)

	if fn.HasFinalize {
		finEnv := base.copy()
		for _, p := range fn.FinalizeParams {
			finEnv[p.Name] = p.Name
		}
		out.FinalizeParams = fn.FinalizeParams
		out.FinalizeBody = r.renameBlock(fn.FinalizeBody, finEnv)
	}
	return out
}

func (r *Renamer) renameBlock(b *ast.BlockStatement, e env) *ast.BlockStatement {
	stmts := make([]ast.Statement, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		stmts = append(stmts, r.renameStmt(s, e))
	}
	return ast.NewBlockStatement(b.GetSpan(), stmts)
}

func (r *Renamer) renameStmt(s ast.Statement, e env) ast.Statement {
	switch st := s.(type) {
	case *ast.DefinitionStatement:
		return r.renameDefinition(st, e)
	case *ast.AssignmentStatement:
		return r.renameAssignment(st, e)
	case *ast.ConditionalStatement:
		cond := r.renameExpr(st.Cond, e)
		then := r.renameBlock(st.Then, e.copy())
		var els *ast.BlockStatement
		if st.Else != nil {
			els = r.renameBlock(st.Else, e.copy())
		}
		return ast.NewConditionalStatement(st.GetSpan(), cond, then, els)
	case *ast.BlockStatement:
		return r.renameBlock(st, e.copy())
	case *ast.IterationStatement:
		// Carried through unrenamed: internal/unroll runs after this pass
		// and renames each unrolled copy of the body via
		// RenameBlockWithEnv.
		return st
	case *ast.ReturnStatement:
		var v ast.Expression
		if st.Value != nil {
			v = r.renameExpr(st.Value, e)
		}
		return ast.NewReturnStatement(st.GetSpan(), v)
	case *ast.FinalizeStatement:
		args := make([]ast.Expression, len(st.Args))
		for i, a := range st.Args {
			args[i] = r.renameExpr(a, e)
		}
		return ast.NewFinalizeStatement(st.GetSpan(), args)
	case *ast.ConsoleStatement:
		args := make([]ast.Expression, len(st.Args))
		for i, a := range st.Args {
			args[i] = r.renameExpr(a, e)
		}
		return ast.NewConsoleStatement(st.GetSpan(), st.Kind, args)
	case *ast.ExpressionStatement:
		return ast.NewExpressionStatement(st.GetSpan(), r.renameExpr(st.Expr, e))
	case *ast.DummyStatement:
		return st
	default:
		return st
	}
}

// renameDefinition folds `let place = value;` into an assignment over a
// freshly minted name, the SSA pass's one rewrite rule that changes a
// statement's kind rather than just its contents.
func (r *Renamer) renameDefinition(s *ast.DefinitionStatement, e env) ast.Statement {
	value := r.renameExpr(s.Value, e)

	if tup, ok := s.Place.(*ast.TupleExpr); ok {
		elems := make([]ast.Expression, len(tup.Elems))
		for i, el := range tup.Elems {
			id, ok := el.(*ast.Identifier)
			if !ok {
				elems[i] = el
				continue
			}
			fresh := r.Fresh(id.Name)
			e[id.Name] = fresh
			elems[i] = ast.NewIdentifier(id.GetSpan(), fresh)
		}
		place := ast.NewTupleExpr(tup.GetSpan(), elems)
		return ast.NewAssignmentStatement(s.GetSpan(), place, value)
	}

	id, ok := s.Place.(*ast.Identifier)
	if !ok {
		return ast.NewAssignmentStatement(s.GetSpan(), s.Place, value)
	}
	fresh := r.Fresh(id.Name)
	e[id.Name] = fresh
	place := ast.NewIdentifier(id.GetSpan(), fresh)
	return ast.NewAssignmentStatement(s.GetSpan(), place, value)
}

// renameAssignment handles `place = value;` for a place that was already
// bound (by a parameter or an earlier definition): the write still mints a
// fresh name — SSA means every write gets a new name, not just the first.
func (r *Renamer) renameAssignment(s *ast.AssignmentStatement, e env) ast.Statement {
	value := r.renameExpr(s.Value, e)

	id, ok := s.Place.(*ast.Identifier)
	if !ok {
		// Indexed/member assignment targets (arr[i] = ...) keep their
		// structure; only the base identifier they read needs renaming,
		// which renameExpr already does for the Place expression itself.
		return ast.NewAssignmentStatement(s.GetSpan(), r.renameExpr(s.Place, e), value)
	}
	fresh := r.Fresh(id.Name)
	e[id.Name] = fresh
	place := ast.NewIdentifier(id.GetSpan(), fresh)
	return ast.NewAssignmentStatement(s.GetSpan(), place, value)
}

// renameExpr rebuilds e with every Identifier read rewritten to its
// latest fresh name in scope (or left as-is if e never names a local
// binding, e.g. it's a function or type name).
func (r *Renamer) renameExpr(e ast.Expression, scope env) ast.Expression {
	switch ex := e.(type) {
	case *ast.Literal:
		return ex
	case *ast.Identifier:
		if fresh, ok := scope[ex.Name]; ok {
			return ast.NewIdentifier(ex.GetSpan(), fresh)
		}
		return ex
	case *ast.UnaryExpr:
		return ast.NewUnaryExpr(ex.GetSpan(), ex.Op, r.renameExpr(ex.Operand, scope))
	case *ast.BinaryExpr:
		return ast.NewBinaryExpr(ex.GetSpan(), ex.Op, r.renameExpr(ex.Left, scope), r.renameExpr(ex.Right, scope))
	case *ast.TernaryExpr:
		return ast.NewTernaryExpr(ex.GetSpan(), r.renameExpr(ex.Cond, scope), r.renameExpr(ex.Then, scope), r.renameExpr(ex.Else, scope))
	case *ast.CallExpr:
		args := make([]ast.Expression, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = r.renameExpr(a, scope)
		}
		return ast.NewCallExpr(ex.GetSpan(), ex.Callee, args)
	case *ast.ArrayIndexExpr:
		return ast.NewArrayIndexExpr(ex.GetSpan(), r.renameExpr(ex.Array, scope), r.renameExpr(ex.Index, scope))
	case *ast.MemberExpr:
		return ast.NewMemberExpr(ex.GetSpan(), r.renameExpr(ex.Target, scope), ex.Member)
	case *ast.TupleIndexExpr:
		return ast.NewTupleIndexExpr(ex.GetSpan(), r.renameExpr(ex.Target, scope), ex.Index)
	case *ast.AssociatedFunctionExpr:
		args := make([]ast.Expression, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = r.renameExpr(a, scope)
		}
		return ast.NewAssociatedFunctionExpr(ex.GetSpan(), ex.TypeName, ex.Func, args)
	case *ast.AssociatedConstantExpr:
		return ex
	case *ast.RecordInitExpr:
		fields := make([]ast.RecordInitField, len(ex.Fields))
		for i, f := range ex.Fields {
			v := f.Value
			if v != nil {
				v = r.renameExpr(v, scope)
			}
			fields[i] = ast.RecordInitField{Name: f.Name, Value: v}
		}
		return ast.NewRecordInitExpr(ex.GetSpan(), ex.TypeName, fields)
	case *ast.TupleExpr:
		elems := make([]ast.Expression, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = r.renameExpr(el, scope)
		}
		return ast.NewTupleExpr(ex.GetSpan(), elems)
	case *ast.ErrorExpr:
		return ex
	default:
		return e
	}
}
