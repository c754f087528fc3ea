// Package symbols is the scoped name table every pass reads. A
// Symbol{Name,Kind,Var/Fn/Record,DefinitionNode} per entry (scopes carry no
// kind tag), trimmed to this language's three symbol kinds — there are no traits or
// modules-as-symbols here (see DESIGN.md).
package symbols

import (
	"fmt"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/types"
)

// Kind tags what a Symbol names.
type Kind int

const (
	VariableSymbol Kind = iota
	FunctionSymbol
	RecordSymbol
)

// VarBinding is what lookup_variable returns.
type VarBinding struct {
	Name    string
	Type    types.Type
	Mutable bool
	Span    srcspan.Span
}

// FnSig is what lookup_fn returns.
type FnSig struct {
	Name   string
	Params []ast.Param
	Return types.Type
}

// Symbol is one scope entry. Exactly one of Var/Fn/Record is meaningful,
// selected by Kind.
type Symbol struct {
	Name           string
	Kind           Kind
	Var            *VarBinding
	Fn             *FnSig
	Record         *types.RecordType
	DefinitionNode ast.Node
}

// DuplicateSymbol is returned by insert_variable when name already exists
// in a scope where redefinition isn't allowed.
type DuplicateSymbol struct {
	Name string
	Span srcspan.Span
}

func (e *DuplicateSymbol) Error() string {
	return fmt.Sprintf("duplicate symbol %q", e.Name)
}

// scope is one lexical level: function scope, or a nested block scope.
// At every level, an insertion is rejected with DuplicateSymbol if the
// name already exists anywhere visible — a new, SSA-fresh name is always
// accepted since that name cannot already exist.
type scope struct {
	symbols map[string]Symbol
}

func newScope() *scope {
	return &scope{symbols: make(map[string]Symbol)}
}

// Table is the scoped symbol table. It also holds the top-level,
// program-wide registries for functions and record types, which live
// outside the lexical scope stack since they're visible everywhere.
type Table struct {
	functions map[string]*FnSig
	records   map[string]*types.RecordType
	scopes    []*scope
}

// New constructs an empty Table with one (function-level) scope pushed.
func New() *Table {
	t := &Table{
		functions: make(map[string]*FnSig),
		records:   make(map[string]*types.RecordType),
	}
	t.EnterScope()
	return t
}

// EnterScope pushes a new lexical scope.
func (t *Table) EnterScope() {
	t.scopes = append(t.scopes, newScope())
}

// ExitScope pops the innermost lexical scope.
func (t *Table) ExitScope() {
	if len(t.scopes) == 0 {
		return
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Depth reports how many scopes are currently pushed, for tests that want
// to assert balanced enter/exit pairs.
func (t *Table) Depth() int {
	return len(t.scopes)
}

// InsertVariable binds name in the innermost scope. Redefining a name
// visible in any enclosing scope is rejected with DuplicateSymbol at every
// depth, the top scope included; SSA-fresh names never collide because
// they are, by construction, never already present.
func (t *Table) InsertVariable(name string, typ types.Type, mutable bool, span srcspan.Span, def ast.Node) error {
	if _, ok := t.LookupVariable(name); ok {
		return &DuplicateSymbol{Name: name, Span: span}
	}
	top := t.scopes[len(t.scopes)-1]
	top.symbols[name] = Symbol{
		Name: name, Kind: VariableSymbol,
		Var:            &VarBinding{Name: name, Type: typ, Mutable: mutable, Span: span},
		DefinitionNode: def,
	}
	return nil
}

// LookupVariable searches scopes innermost-first.
func (t *Table) LookupVariable(name string) (*VarBinding, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i].symbols[name]; ok && sym.Kind == VariableSymbol {
			return sym.Var, true
		}
	}
	return nil, false
}

// DefineFunction registers a function signature at program scope.
func (t *Table) DefineFunction(name string, sig *FnSig) error {
	if _, ok := t.functions[name]; ok {
		return &DuplicateSymbol{Name: name}
	}
	t.functions[name] = sig
	return nil
}

// LookupFn looks up a function signature.
func (t *Table) LookupFn(name string) (*FnSig, bool) {
	sig, ok := t.functions[name]
	return sig, ok
}

// DefineRecord registers a record type at program scope.
func (t *Table) DefineRecord(rt *types.RecordType) error {
	if _, ok := t.records[rt.Name]; ok {
		return &DuplicateSymbol{Name: rt.Name}
	}
	t.records[rt.Name] = rt
	return nil
}

// LookupStruct looks up a record type.
func (t *Table) LookupStruct(name string) (*types.RecordType, bool) {
	rt, ok := t.records[name]
	return rt, ok
}
