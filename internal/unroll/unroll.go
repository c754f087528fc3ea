// Package unroll implements the loop-unrolling pass that sits between SSA
// and flattening: every IterationStatement must be gone before the
// flattener runs, since the flattener's condition-stack/returns-list
// machinery has no loop-back-edge concept. A
// bounded `for i in start..stop` becomes stop-start copies of its body,
// each with the index substituted by a literal and every write re-minted
// through the same ssa.Renamer so the unrolled copies stay single-
// assignment relative to each other.
//
// This pass folds Start/Stop itself rather than consulting the checker's
// per-node Value annotations: internal/ssa reconstructs every non-leaf
// expression node (fresh NodeIDs included) when it renames a function
// body, so a NodeID minted during type-checking no longer identifies
// anything in the SSA'd tree this pass receives. A small local constant
// folder avoids needing NodeID-stable reconstruction just for this one
// pass.
package unroll

import (
	"math/big"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/ssa"
)

// Unroller carries the diagnostic sink and the function's live SSA
// renamer (so names minted for unrolled copies keep counting up from
// wherever the SSA pass left off, never colliding with an already-used
// fresh name).
type Unroller struct {
	Diags   *diagnostics.Handler
	Renamer *ssa.Renamer
}

// New constructs an Unroller sharing renamer's counter.
func New(diags *diagnostics.Handler, renamer *ssa.Renamer) *Unroller {
	return &Unroller{Diags: diags, Renamer: renamer}
}

// UnrollFunction returns a new FunctionDecl with every IterationStatement
// expanded, recursively, in its body and finalize body.
func (u *Unroller) UnrollFunction(fn *ast.FunctionDecl) *ast.FunctionDecl {
	out := &ast.FunctionDecl{
		Name:        fn.Name,
		Params:      fn.Params,
		ReturnType:  fn.ReturnType,
		HasFinalize: fn.HasFinalize,
		Body:        u.unrollBlock(fn.Body),
	}
	if fn.HasFinalize {
		out.FinalizeParams = fn.FinalizeParams
		out.FinalizeBody = u.unrollBlock(fn.FinalizeBody)
	}
	return out
}

func (u *Unroller) unrollBlock(b *ast.BlockStatement) *ast.BlockStatement {
	var out []ast.Statement
	for _, s := range b.Stmts {
		out = append(out, u.unrollStmt(s)...)
	}
	return ast.NewBlockStatement(b.GetSpan(), out)
}

func (u *Unroller) unrollStmt(s ast.Statement) []ast.Statement {
	switch st := s.(type) {
	case *ast.IterationStatement:
		return u.unrollLoop(st)
	case *ast.ConditionalStatement:
		then := u.unrollBlock(st.Then)
		var els *ast.BlockStatement
		if st.Else != nil {
			els = u.unrollBlock(st.Else)
		}
		return []ast.Statement{ast.NewConditionalStatement(st.GetSpan(), st.Cond, then, els)}
	case *ast.BlockStatement:
		return []ast.Statement{u.unrollBlock(st)}
	default:
		return []ast.Statement{s}
	}
}

// unrollLoop expands one bounded for-loop into literal-substituted copies
// of its body, one per index value in [start, stop).
func (u *Unroller) unrollLoop(s *ast.IterationStatement) []ast.Statement {
	start, ok1 := foldConstInt(s.Start)
	stop, ok2 := foldConstInt(s.Stop)
	if !ok1 || !ok2 {
		u.Diags.Emit(diagnostics.NewInternal(s.GetSpan(), "loop bounds must be constant-foldable integers to unroll"))
		return nil
	}

	var out []ast.Statement
	env := ssa.NewEnv()
	i := new(big.Int).Set(start)
	one := big.NewInt(1)
	for i.Cmp(stop) < 0 {
		iterBody := substituteIndex(s.Body, s.Index, i.String())
		// env carries forward between copies: a variable reassigned in
		// copy N must be read by copy N+1 under copy N's fresh name, not
		// copy N+1 starting over from the pre-loop binding.
		renamed := u.Renamer.RenameBlockWithEnv(iterBody, env)
		out = append(out, renamed.Stmts...)
		i = new(big.Int).Add(i, one)
	}
	return out
}

// substituteIndex rebuilds body with every read of name replaced by a
// literal integer text. The index variable is never assigned to inside
// a well-typed loop body, so only Identifier reads need rewriting.
func substituteIndex(b *ast.BlockStatement, name, literalText string) *ast.BlockStatement {
	stmts := make([]ast.Statement, len(b.Stmts))
	for i, st := range b.Stmts {
		stmts[i] = substituteStmt(st, name, literalText)
	}
	return ast.NewBlockStatement(b.GetSpan(), stmts)
}

func substituteStmt(s ast.Statement, name, lit string) ast.Statement {
	switch st := s.(type) {
	case *ast.AssignmentStatement:
		return ast.NewAssignmentStatement(st.GetSpan(), substituteExpr(st.Place, name, lit), substituteExpr(st.Value, name, lit))
	case *ast.DefinitionStatement:
		return ast.NewDefinitionStatement(st.GetSpan(), substituteExpr(st.Place, name, lit), st.Type, substituteExpr(st.Value, name, lit))
	case *ast.ConditionalStatement:
		then := substituteIndex(st.Then, name, lit)
		var els *ast.BlockStatement
		if st.Else != nil {
			els = substituteIndex(st.Else, name, lit)
		}
		return ast.NewConditionalStatement(st.GetSpan(), substituteExpr(st.Cond, name, lit), then, els)
	case *ast.BlockStatement:
		return substituteIndex(st, name, lit)
	case *ast.ReturnStatement:
		var v ast.Expression
		if st.Value != nil {
			v = substituteExpr(st.Value, name, lit)
		}
		return ast.NewReturnStatement(st.GetSpan(), v)
	case *ast.FinalizeStatement:
		args := make([]ast.Expression, len(st.Args))
		for i, a := range st.Args {
			args[i] = substituteExpr(a, name, lit)
		}
		return ast.NewFinalizeStatement(st.GetSpan(), args)
	case *ast.ConsoleStatement:
		args := make([]ast.Expression, len(st.Args))
		for i, a := range st.Args {
			args[i] = substituteExpr(a, name, lit)
		}
		return ast.NewConsoleStatement(st.GetSpan(), st.Kind, args)
	case *ast.ExpressionStatement:
		return ast.NewExpressionStatement(st.GetSpan(), substituteExpr(st.Expr, name, lit))
	default:
		return s
	}
}

func substituteExpr(e ast.Expression, name, lit string) ast.Expression {
	switch ex := e.(type) {
	case *ast.Identifier:
		if ex.Name == name {
			return ast.NewLiteral(ex.GetSpan(), ast.TagNone, 0, lit)
		}
		return ex
	case *ast.UnaryExpr:
		return ast.NewUnaryExpr(ex.GetSpan(), ex.Op, substituteExpr(ex.Operand, name, lit))
	case *ast.BinaryExpr:
		return ast.NewBinaryExpr(ex.GetSpan(), ex.Op, substituteExpr(ex.Left, name, lit), substituteExpr(ex.Right, name, lit))
	case *ast.TernaryExpr:
		return ast.NewTernaryExpr(ex.GetSpan(), substituteExpr(ex.Cond, name, lit), substituteExpr(ex.Then, name, lit), substituteExpr(ex.Else, name, lit))
	case *ast.CallExpr:
		args := make([]ast.Expression, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = substituteExpr(a, name, lit)
		}
		return ast.NewCallExpr(ex.GetSpan(), ex.Callee, args)
	case *ast.ArrayIndexExpr:
		return ast.NewArrayIndexExpr(ex.GetSpan(), substituteExpr(ex.Array, name, lit), substituteExpr(ex.Index, name, lit))
	case *ast.MemberExpr:
		return ast.NewMemberExpr(ex.GetSpan(), substituteExpr(ex.Target, name, lit), ex.Member)
	case *ast.TupleIndexExpr:
		return ast.NewTupleIndexExpr(ex.GetSpan(), substituteExpr(ex.Target, name, lit), ex.Index)
	case *ast.TupleExpr:
		elems := make([]ast.Expression, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = substituteExpr(el, name, lit)
		}
		return ast.NewTupleExpr(ex.GetSpan(), elems)
	default:
		return e
	}
}

// foldConstInt is a minimal constant evaluator over the literal/negate/
// add/sub/mul shapes loop bounds are realistically written with. It does
// not consult the checker's fold results (see package comment).
func foldConstInt(e ast.Expression) (*big.Int, bool) {
	switch ex := e.(type) {
	case *ast.Literal:
		if ex.Tag != ast.TagPrimitive && ex.Tag != ast.TagNone {
			return nil, false
		}
		n, ok := new(big.Int).SetString(ex.Text, 10)
		return n, ok
	case *ast.UnaryExpr:
		if ex.Op != ast.OpNegate {
			return nil, false
		}
		n, ok := foldConstInt(ex.Operand)
		if !ok {
			return nil, false
		}
		return new(big.Int).Neg(n), true
	case *ast.BinaryExpr:
		l, ok1 := foldConstInt(ex.Left)
		r, ok2 := foldConstInt(ex.Right)
		if !ok1 || !ok2 {
			return nil, false
		}
		switch ex.Op {
		case ast.OpAdd, ast.OpAddWrapped:
			return new(big.Int).Add(l, r), true
		case ast.OpSub, ast.OpSubWrapped:
			return new(big.Int).Sub(l, r), true
		case ast.OpMul, ast.OpMulWrapped:
			return new(big.Int).Mul(l, r), true
		default:
			return nil, false
		}
	default:
		return nil, false
	}
}
