package typecheck

import (
	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/types"
	"github.com/circuitlang/midend/pkg/value"
)

// checkExpr is the checker's single recursive entry point. hint carries
// the type context demands (e.g. a declared variable type, a function's
// declared parameter type); it's nil when nothing in context constrains
// the expression. A plain type switch dispatches on the concrete node
// type so the function can return values directly, rather than threading
// them through a visitor's fields (see checker.go's package comment).
func (c *Checker) checkExpr(e ast.Expression, hint types.Type) (types.Type, *value.Value) {
	switch ex := e.(type) {
	case *ast.Literal:
		return c.checkLiteral(ex, hint)
	case *ast.Identifier:
		return c.checkIdentifier(ex)
	case *ast.UnaryExpr:
		return c.checkUnary(ex, hint)
	case *ast.BinaryExpr:
		return c.checkBinary(ex, hint)
	case *ast.TernaryExpr:
		return c.checkTernary(ex, hint)
	case *ast.CallExpr:
		return c.checkCall(ex)
	case *ast.ArrayIndexExpr:
		return c.checkArrayIndex(ex)
	case *ast.MemberExpr:
		return c.checkMember(ex)
	case *ast.TupleIndexExpr:
		return c.checkTupleIndex(ex)
	case *ast.AssociatedFunctionExpr:
		return c.checkAssociatedFunction(ex)
	case *ast.AssociatedConstantExpr:
		return c.checkAssociatedConstant(ex)
	case *ast.RecordInitExpr:
		return c.checkRecordInit(ex)
	case *ast.TupleExpr:
		return c.checkTupleExpr(ex, hint)
	case *ast.ErrorExpr:
		return c.annotate(ex, nil, nil)
	default:
		c.errorf(diagnostics.ErrInternal, e, "unrecognized expression node %T", e)
		return nil, nil
	}
}

func (c *Checker) checkIdentifier(e *ast.Identifier) (types.Type, *value.Value) {
	vb, ok := c.Symbols.LookupVariable(e.Name)
	if !ok {
		c.errorf(diagnostics.ErrUnknownSym, e, "unknown identifier %q", e.Name)
		return c.annotate(e, nil, nil)
	}
	return c.annotate(e, vb.Type, nil)
}

// checkTernary requires Then and Else to check to the same type; the
// ternary's own type is that common type.
func (c *Checker) checkTernary(e *ast.TernaryExpr, hint types.Type) (types.Type, *value.Value) {
	condType, condVal := c.checkExpr(e.Cond, types.P(types.Boolean))
	if condType != nil && !primIs(condType, types.Boolean) {
		c.errorf(diagnostics.ErrTypeShouldBe, e.Cond, "ternary condition must be bool, got %s", condType)
	}

	thenType, thenVal := c.checkExpr(e.Then, hint)
	elseType, elseVal := c.checkExpr(e.Else, hint)
	if thenType == nil || elseType == nil {
		return c.annotate(e, nil, nil)
	}
	if !types.Equal(thenType, elseType) {
		c.errorf(diagnostics.ErrTypeShouldBe, e, "ternary arms must have the same type, got %s and %s", thenType, elseType)
		return c.annotate(e, nil, nil)
	}

	if condVal != nil && condVal.Kind == value.KindBool {
		if condVal.Bool {
			return c.annotate(e, thenType, thenVal)
		}
		return c.annotate(e, thenType, elseVal)
	}
	return c.annotate(e, thenType, nil)
}

func (c *Checker) checkCall(e *ast.CallExpr) (types.Type, *value.Value) {
	sig, ok := c.Symbols.LookupFn(e.Callee.Name)
	if !ok {
		c.errorf(diagnostics.ErrUnknownSym, e, "unknown function %q", e.Callee.Name)
		return c.annotate(e, nil, nil)
	}
	if len(e.Args) != len(sig.Params) {
		c.errorf(diagnostics.ErrIncorrectNumArgsToCall, e, "%s expects %d argument(s), got %d", e.Callee.Name, len(sig.Params), len(e.Args))
		return c.annotate(e, nil, nil)
	}
	ok2 := true
	for i, arg := range e.Args {
		argType, _ := c.checkExpr(arg, sig.Params[i].Type)
		if argType == nil {
			ok2 = false
			continue
		}
		if !types.Equal(argType, sig.Params[i].Type) {
			c.errorf(diagnostics.ErrTypeShouldBe, arg, "argument %d of %s should be %s, got %s", i, e.Callee.Name, sig.Params[i].Type, argType)
			ok2 = false
		}
	}
	if !ok2 {
		return c.annotate(e, nil, nil)
	}
	return c.annotate(e, sig.Return, nil)
}

func (c *Checker) checkArrayIndex(e *ast.ArrayIndexExpr) (types.Type, *value.Value) {
	arrType, _ := c.checkExpr(e.Array, nil)
	idxType, _ := c.checkExpr(e.Index, nil)
	if arrType == nil || idxType == nil {
		return c.annotate(e, nil, nil)
	}
	at, ok := arrType.(types.ArrayType)
	if !ok {
		c.errorf(diagnostics.ErrInvalidAccessExpression, e, "cannot index into non-array type %s", arrType)
		return c.annotate(e, nil, nil)
	}
	if ip, ok := idxType.(types.PrimitiveType); !ok || !ip.Kind.IsInteger() {
		c.errorf(diagnostics.ErrTypeShouldBe, e.Index, "array index must be an integer type, got %s", idxType)
		return c.annotate(e, nil, nil)
	}
	return c.annotate(e, at.Elem, nil)
}

// checkMember resolves `target.member` against a record value's field
// list. It never panics on an unknown member or a non-record
// target — both are reported as ordinary diagnostics.
func (c *Checker) checkMember(e *ast.MemberExpr) (types.Type, *value.Value) {
	targetType, targetVal := c.checkExpr(e.Target, nil)
	if targetType == nil {
		return c.annotate(e, nil, nil)
	}
	rt, ok := targetType.(types.RecordType)
	if !ok {
		c.errorf(diagnostics.ErrTypeShouldBe, e, "cannot access member %q on non-record type %s", e.Member, targetType)
		return c.annotate(e, nil, nil)
	}
	m, found := rt.Members.Get(e.Member)
	if !found {
		c.errorf(diagnostics.ErrUnknownSym, e, "type %s has no member %q", rt.Name, e.Member)
		return c.annotate(e, nil, nil)
	}
	if m.Func != nil {
		c.errorf(diagnostics.ErrInvalidAccessExpression, e, "member %q of %s is a function, not a field", e.Member, rt.Name)
		return c.annotate(e, nil, nil)
	}
	if targetVal != nil && targetVal.Kind == value.KindRecord {
		if fv, ok := targetVal.Fields[e.Member]; ok {
			return c.annotate(e, m.Type, &fv)
		}
	}
	return c.annotate(e, m.Type, nil)
}

func (c *Checker) checkTupleIndex(e *ast.TupleIndexExpr) (types.Type, *value.Value) {
	targetType, targetVal := c.checkExpr(e.Target, nil)
	if targetType == nil {
		return c.annotate(e, nil, nil)
	}
	tt, ok := targetType.(types.TupleType)
	if !ok {
		c.errorf(diagnostics.ErrInvalidAccessExpression, e, "cannot tuple-index non-tuple type %s", targetType)
		return c.annotate(e, nil, nil)
	}
	if e.Index < 0 || e.Index >= len(tt.Elems) {
		c.errorf(diagnostics.ErrInvalidAccessExpression, e, "tuple index %d out of range for %s", e.Index, targetType)
		return c.annotate(e, nil, nil)
	}
	if targetVal != nil && targetVal.Kind == value.KindTuple && e.Index < len(targetVal.Elems) {
		v := targetVal.Elems[e.Index]
		return c.annotate(e, tt.Elems[e.Index], &v)
	}
	return c.annotate(e, tt.Elems[e.Index], nil)
}

// checkAssociatedFunction validates `TypeName::func(args...)` against the
// core-module registry, the only source of associated functions: an
// unrecognized TypeName or Func is invalid_core_instruction.
func (c *Checker) checkAssociatedFunction(e *ast.AssociatedFunctionExpr) (types.Type, *value.Value) {
	rt, ok := c.Symbols.LookupStruct(e.TypeName)
	if !ok {
		c.errorf(diagnostics.ErrInvalidCoreInstruction, e, "unknown associated-function type %q", e.TypeName)
		return c.annotate(e, nil, nil)
	}
	m, found := rt.Members.Get(e.Func)
	if !found || m.Func == nil {
		c.errorf(diagnostics.ErrInvalidCoreInstruction, e, "%s has no associated function %q", e.TypeName, e.Func)
		return c.annotate(e, nil, nil)
	}
	if len(e.Args) != len(m.Func.Params) {
		c.errorf(diagnostics.ErrIncorrectNumArgsToCall, e, "%s::%s expects %d argument(s), got %d", e.TypeName, e.Func, len(m.Func.Params), len(e.Args))
		return c.annotate(e, nil, nil)
	}
	ok2 := true
	for i, arg := range e.Args {
		argType, _ := c.checkExpr(arg, m.Func.Params[i])
		if argType == nil || !types.Equal(argType, m.Func.Params[i]) {
			c.errorf(diagnostics.ErrTypeShouldBe, arg, "argument %d of %s::%s should be %s", i, e.TypeName, e.Func, m.Func.Params[i])
			ok2 = false
		}
	}
	if !ok2 {
		return c.annotate(e, nil, nil)
	}
	return c.annotate(e, m.Func.Return, nil)
}

func (c *Checker) checkAssociatedConstant(e *ast.AssociatedConstantExpr) (types.Type, *value.Value) {
	rt, ok := c.Symbols.LookupStruct(e.TypeName)
	if !ok {
		c.errorf(diagnostics.ErrInvalidBuiltInType, e, "unknown type %q", e.TypeName)
		return c.annotate(e, nil, nil)
	}
	m, found := rt.Members.Get(e.Const)
	if !found || m.Func != nil {
		c.errorf(diagnostics.ErrUnknownSym, e, "%s has no associated constant %q", e.TypeName, e.Const)
		return c.annotate(e, nil, nil)
	}
	return c.annotate(e, m.Type, nil)
}

// checkRecordInit validates `Name { field: expr, ... }` member-for-member
// against the record's declared, insertion-ordered member list: every
// field present, none missing, none extra, shorthand (nil Value) resolved
// by same-named variable lookup.
func (c *Checker) checkRecordInit(e *ast.RecordInitExpr) (types.Type, *value.Value) {
	rt, ok := c.Symbols.LookupStruct(e.TypeName)
	if !ok {
		c.errorf(diagnostics.ErrUnknownSym, e, "unknown record type %q", e.TypeName)
		return c.annotate(e, nil, nil)
	}

	declaredCount := 0
	rt.Members.InOrder(func(m types.Member) {
		if m.Func == nil {
			declaredCount++
		}
	})
	if len(e.Fields) != declaredCount {
		c.errorf(diagnostics.ErrIncorrectNumCircuitMembers, e, "%s has %d field(s), got %d", e.TypeName, declaredCount, len(e.Fields))
		return c.annotate(e, nil, nil)
	}

	fields := make(map[string]value.Value)
	ok2 := true
	seen := make(map[string]bool)
	for _, f := range e.Fields {
		if seen[f.Name] {
			c.errorf(diagnostics.ErrDuplicateSym, e, "duplicate field %q in %s initializer", f.Name, e.TypeName)
			ok2 = false
			continue
		}
		seen[f.Name] = true

		m, found := rt.Members.Get(f.Name)
		if !found || m.Func != nil {
			c.errorf(diagnostics.ErrUnknownSym, e, "%s has no field %q", e.TypeName, f.Name)
			ok2 = false
			continue
		}

		var fieldExpr ast.Expression = f.Value
		if fieldExpr == nil {
			// Shorthand `{ field }`: resolve a same-named variable in scope.
			fieldExpr = ast.NewIdentifier(e.GetSpan(), f.Name)
		}
		fType, fVal := c.checkExpr(fieldExpr, m.Type)
		if fType == nil {
			ok2 = false
			continue
		}
		if !types.Equal(fType, m.Type) {
			c.errorf(diagnostics.ErrTypeShouldBe, e, "field %q of %s should be %s, got %s", f.Name, e.TypeName, m.Type, fType)
			ok2 = false
			continue
		}
		if fVal != nil {
			fields[f.Name] = *fVal
		}
	}
	if !ok2 {
		return c.annotate(e, nil, nil)
	}

	recType := types.RecordType{Name: rt.Name, Members: rt.Members}
	if len(fields) == len(e.Fields) {
		v := value.Record(rt.Name, fields)
		return c.annotate(e, recType, &v)
	}
	return c.annotate(e, recType, nil)
}

func (c *Checker) checkTupleExpr(e *ast.TupleExpr, hint types.Type) (types.Type, *value.Value) {
	var elemHints []types.Type
	if ht, ok := hint.(types.TupleType); ok && len(ht.Elems) == len(e.Elems) {
		elemHints = ht.Elems
	}

	elemTypes := make([]types.Type, len(e.Elems))
	elemVals := make([]value.Value, len(e.Elems))
	allFolded := true
	ok := true
	for i, el := range e.Elems {
		var h types.Type
		if elemHints != nil {
			h = elemHints[i]
		}
		t, v := c.checkExpr(el, h)
		if t == nil {
			ok = false
			continue
		}
		elemTypes[i] = t
		if v != nil {
			elemVals[i] = *v
		} else {
			allFolded = false
		}
	}
	if !ok {
		return c.annotate(e, nil, nil)
	}
	tt := types.TupleType{Elems: elemTypes}
	if allFolded {
		v := value.Tuple(elemVals...)
		return c.annotate(e, tt, &v)
	}
	return c.annotate(e, tt, nil)
}
