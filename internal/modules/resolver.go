// Package modules implements the import resolver: given a dotted package
// path, produce the parsed (or synthesized) sub-program it names. A chain
// of loaders checks the built-in core registry before delegating to an
// inner resolver, since core.* must always win over a user-provided
// resolver.
package modules

import (
	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/srcspan"
)

// Resolver resolves a dotted import path to a parsed sub-program. Contract:
// a found program, nil if unknown, an error on an unrecoverable failure
// (e.g. a malformed on-disk file — never returned by the in-process
// resolvers this package provides, but part of the interface any future
// on-disk resolver must also honor).
type Resolver interface {
	Resolve(segments []string, span srcspan.Span) (*ast.Program, error)
}

// NullResolver never finds anything. It's the innermost link of any
// resolver chain in a context with no real package loader wired up yet
// (e.g. a checker unit test that only cares about core.* resolution).
type NullResolver struct{}

func (NullResolver) Resolve(segments []string, span srcspan.Span) (*ast.Program, error) {
	return nil, nil
}

// MockResolver is a preloaded dotted-path -> Program map, for use from
// tests that need a stand-in for a real package loader.
type MockResolver struct {
	Programs map[string]*ast.Program
}

// NewMockResolver builds an empty MockResolver ready for Register calls.
func NewMockResolver() *MockResolver {
	return &MockResolver{Programs: make(map[string]*ast.Program)}
}

// Register preloads segments (joined with ".") to resolve to program.
func (m *MockResolver) Register(segments []string, program *ast.Program) {
	m.Programs[joinDotted(segments)] = program
}

func (m *MockResolver) Resolve(segments []string, span srcspan.Span) (*ast.Program, error) {
	prog, ok := m.Programs[joinDotted(segments)]
	if !ok {
		return nil, nil
	}
	return prog, nil
}

func joinDotted(segments []string) string {
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}
