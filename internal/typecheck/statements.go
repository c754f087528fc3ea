package typecheck

import (
	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/types"
)

func (c *Checker) checkBlock(b *ast.BlockStatement) {
	c.Symbols.EnterScope()
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
	c.Symbols.ExitScope()
}

func (c *Checker) checkStmt(s ast.Statement) {
	switch st := s.(type) {
	case *ast.DefinitionStatement:
		c.checkDefinition(st)
	case *ast.AssignmentStatement:
		c.checkAssignment(st)
	case *ast.ConditionalStatement:
		c.checkConditional(st)
	case *ast.BlockStatement:
		c.checkBlock(st)
	case *ast.IterationStatement:
		c.checkIteration(st)
	case *ast.ReturnStatement:
		c.checkReturn(st)
	case *ast.FinalizeStatement:
		c.checkFinalizeCall(st)
	case *ast.ConsoleStatement:
		c.checkConsole(st)
	case *ast.ExpressionStatement:
		c.checkExpr(st.Expr, nil)
	case *ast.DummyStatement:
		// nothing to check; a dummy marks work already done by a prior pass.
	default:
		c.errorf(diagnostics.ErrInternal, s, "unrecognized statement node %T", s)
	}
}

func (c *Checker) checkDefinition(s *ast.DefinitionStatement) {
	declaredType, _ := c.checkExpr(s.Value, s.Type)
	if declaredType == nil {
		return
	}
	if s.Type != nil && !types.Equal(declaredType, s.Type) {
		c.errorf(diagnostics.ErrTypeShouldBe, s, "declared type %s does not match value type %s", s.Type, declaredType)
		return
	}

	ids := bindingIdentifiers(s.Place)
	if tt, isTuple := declaredType.(types.TupleType); isTuple {
		if len(ids) != len(tt.Elems) {
			c.errorf(diagnostics.ErrInvalidAccessExpression, s, "tuple pattern has %d name(s), value has %d element(s)", len(ids), len(tt.Elems))
			return
		}
		for i, id := range ids {
			_ = c.Symbols.InsertVariable(id.Name, tt.Elems[i], true, id.GetSpan(), s)
		}
		return
	}
	if len(ids) != 1 {
		c.errorf(diagnostics.ErrInvalidAccessExpression, s, "cannot bind non-tuple value to a tuple pattern")
		return
	}
	_ = c.Symbols.InsertVariable(ids[0].Name, declaredType, true, ids[0].GetSpan(), s)
}

// bindingIdentifiers flattens a definition's Place into its bound names:
// either a single Identifier, or a TupleExpr of Identifiers.
func bindingIdentifiers(place ast.Expression) []*ast.Identifier {
	switch p := place.(type) {
	case *ast.Identifier:
		return []*ast.Identifier{p}
	case *ast.TupleExpr:
		out := make([]*ast.Identifier, 0, len(p.Elems))
		for _, el := range p.Elems {
			if id, ok := el.(*ast.Identifier); ok {
				out = append(out, id)
			}
		}
		return out
	default:
		return nil
	}
}

func (c *Checker) checkAssignment(s *ast.AssignmentStatement) {
	placeType, _ := c.checkExpr(s.Place, nil)
	if placeType == nil {
		return
	}
	if id, ok := s.Place.(*ast.Identifier); ok {
		if vb, _ := c.Symbols.LookupVariable(id.Name); vb != nil && !vb.Mutable {
			c.errorf(diagnostics.ErrInvalidAccessExpression, s, "cannot assign to immutable binding %q", id.Name)
			return
		}
	}
	valueType, _ := c.checkExpr(s.Value, placeType)
	if valueType == nil {
		return
	}
	if !types.Equal(placeType, valueType) {
		c.errorf(diagnostics.ErrTypeShouldBe, s, "cannot assign %s to %s", valueType, placeType)
	}
}

func (c *Checker) checkConditional(s *ast.ConditionalStatement) {
	condType, _ := c.checkExpr(s.Cond, types.P(types.Boolean))
	if condType != nil && !primIs(condType, types.Boolean) {
		c.errorf(diagnostics.ErrTypeShouldBe, s.Cond, "if condition must be bool, got %s", condType)
	}
	c.checkBlock(s.Then)
	if s.Else != nil {
		c.checkBlock(s.Else)
	}
}

// checkIteration type-checks a for-loop's bounds and body. internal/unroll
// does not read the bounds' annotations; it folds Start/Stop itself.
func (c *Checker) checkIteration(s *ast.IterationStatement) {
	startType, _ := c.checkExpr(s.Start, nil)
	stopType, _ := c.checkExpr(s.Stop, startType)
	if startType == nil || stopType == nil {
		return
	}
	if sp, ok := startType.(types.PrimitiveType); !ok || !sp.Kind.IsInteger() {
		c.errorf(diagnostics.ErrTypeShouldBe, s, "loop bounds must be integer, got %s", startType)
		return
	}
	if !types.Equal(startType, stopType) {
		c.errorf(diagnostics.ErrTypeShouldBe, s, "loop start type %s does not match stop type %s", startType, stopType)
		return
	}

	c.Symbols.EnterScope()
	_ = c.Symbols.InsertVariable(s.Index, startType, false, s.GetSpan(), s)
	c.checkBlock(s.Body)
	c.Symbols.ExitScope()
}

func (c *Checker) checkReturn(s *ast.ReturnStatement) {
	if c.currentReturn == nil {
		if s.Value != nil {
			c.errorf(diagnostics.ErrTypeShouldBe, s, "function has no return type but a value was returned")
		}
		return
	}
	valType, _ := c.checkExpr(s.Value, c.currentReturn)
	if valType == nil {
		return
	}
	if !types.Equal(valType, c.currentReturn) {
		c.errorf(diagnostics.ErrTypeShouldBe, s, "return type should be %s, got %s", c.currentReturn, valType)
	}
}

func (c *Checker) checkFinalizeCall(s *ast.FinalizeStatement) {
	for _, arg := range s.Args {
		c.checkExpr(arg, nil)
	}
}

func (c *Checker) checkConsole(s *ast.ConsoleStatement) {
	for _, arg := range s.Args {
		c.checkExpr(arg, nil)
	}
}
