// Package ast is the immutable tree the middle-end operates on. Every
// expression and statement node is value-typed: a closed set of concrete
// structs implementing shared marker interfaces (Node, Expression,
// Statement). The type checker walks it with ordinary recursive
// checkExpr/checkStmt dispatch, threading an expected-type hint down and a
// resolved type/value back up; SSA, unrolling, and flattening build
// brand-new trees bottom-up instead of walking the input tree in place.
package ast

import (
	"github.com/google/uuid"

	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/types"
)

// NodeID is a stable identifier minted once per node at construction time.
// It is never recomputed or reused, so an out-of-band annotation map keyed
// by NodeID survives being copied into a fresh tree by a later pass, as
// long as that pass preserves the ID on nodes it doesn't rewrite.
type NodeID uuid.UUID

// NewNodeID mints a fresh, globally unique node identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.New())
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// Node is the root interface of every AST node.
type Node interface {
	GetID() NodeID
	GetSpan() srcspan.Span
}

// Expression is any Node that yields a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any Node that appears in a block's statement list.
type Statement interface {
	Node
	statementNode()
}

// base is embedded by every concrete node to supply ID/Span storage and
// satisfy the common half of the Node interface without repeating the two
// accessor methods on every type.
type base struct {
	ID   NodeID
	Span srcspan.Span
}

func (b base) GetID() NodeID        { return b.ID }
func (b base) GetSpan() srcspan.Span { return b.Span }

func newBase(span srcspan.Span) base {
	return base{ID: NewNodeID(), Span: span}
}

// Param is a function or finalize-block parameter.
type Param struct {
	Name string
	Type types.Type
	Span srcspan.Span
}

// RecordDecl is a user-defined or core-synthesized nominal record type.
// Members is insertion-ordered; duplicate names are rejected at load by
// the symbol table, not here.
type RecordDecl struct {
	base
	Name    string
	Members *types.OrderedMembers

	// CoreMapping is non-empty when this record was synthesized by the
	// core-module resolver rather than declared in user source, e.g. "blake2s".
	CoreMapping string
}

func NewRecordDecl(span srcspan.Span, name string, members *types.OrderedMembers) *RecordDecl {
	return &RecordDecl{base: newBase(span), Name: name, Members: members}
}

// ImportDecl names a `segments.joined` package path to resolve.
type ImportDecl struct {
	base
	Segments []string
}

func NewImportDecl(span srcspan.Span, segments []string) *ImportDecl {
	return &ImportDecl{base: newBase(span), Segments: segments}
}

// FunctionDecl is a top-level function, with an optional trailing finalize
// block, invoked after the main body and taking arguments computed inside
// the body.
type FunctionDecl struct {
	base
	Name       string
	Params     []Param
	ReturnType types.Type
	Body       *BlockStatement

	HasFinalize    bool
	FinalizeParams []Param
	FinalizeBody   *BlockStatement
}

func NewFunctionDecl(span srcspan.Span, name string, params []Param, ret types.Type, body *BlockStatement) *FunctionDecl {
	return &FunctionDecl{base: newBase(span), Name: name, Params: params, ReturnType: ret, Body: body}
}

// Program is the root of a parsed (or import-resolved, or core-synthesized)
// compilation unit.
type Program struct {
	File      string
	Imports   []*ImportDecl
	Records   []*RecordDecl
	Functions []*FunctionDecl
}
