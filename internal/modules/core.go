package modules

import (
	"sync"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/config"
	"github.com/circuitlang/midend/internal/srcspan"
	"github.com/circuitlang/midend/internal/types"
)

// CoreFirstResolver serves the fixed, built-in `core.*` module registry and
// falls through to Inner for everything else. Resolved core programs are
// memoized in a sync.Map keyed by dotted path, since the result is
// immutable. The cache is owned per-resolver instance and built lazily on
// first use rather than a process-global, sync.Once-initialized registry,
// since a middle-end library has no equivalent of a single process-wide
// interpreter startup to hook an eager Once into.
type CoreFirstResolver struct {
	Inner Resolver
	cache sync.Map // dotted path -> *ast.Program
}

// NewCoreFirstResolver wraps inner, serving core.* ahead of it.
func NewCoreFirstResolver(inner Resolver) *CoreFirstResolver {
	if inner == nil {
		inner = NullResolver{}
	}
	return &CoreFirstResolver{Inner: inner}
}

func (r *CoreFirstResolver) Resolve(segments []string, span srcspan.Span) (*ast.Program, error) {
	if len(segments) == 0 {
		return r.Inner.Resolve(segments, span)
	}
	if segments[0] != config.CorePathPrefix {
		return r.Inner.Resolve(segments, span)
	}

	key := joinDotted(segments)
	if cached, ok := r.cache.Load(key); ok {
		return cached.(*ast.Program), nil
	}

	prog := synthesizeCoreProgram(segments, span)
	if prog == nil {
		return nil, nil
	}
	r.cache.Store(key, prog)
	return prog, nil
}

// synthesizeCoreProgram builds the AST fragment for a core.* module. Only
// "core.unstable.blake2s" is registered today; additional entries
// are added here by dotted-path suffix without touching resolver logic.
func synthesizeCoreProgram(segments []string, span srcspan.Span) *ast.Program {
	switch joinDotted(segments) {
	case "core.unstable.blake2s":
		return blake2sProgram(span)
	default:
		return nil
	}
}

func blake2sProgram(span srcspan.Span) *ast.Program {
	bytes32 := types.ArrayType{Elem: types.P(types.U8), Length: 32}

	members := types.NewOrderedMembers()
	members.Insert(types.Member{
		Name: config.CoreHashMember,
		Func: &types.FuncSig{
			Params: []types.Type{bytes32, bytes32},
			Return: bytes32,
		},
	})

	decl := ast.NewRecordDecl(span, config.CoreBlake2sRecord, members)
	decl.CoreMapping = config.CoreMappingBlake2s

	return &ast.Program{
		File:    "core/unstable/blake2s",
		Records: []*ast.RecordDecl{decl},
	}
}

// CoreRecordType returns the resolved types.RecordType for a synthesized
// core RecordDecl, used by the checker's associated-function table.
func CoreRecordType(decl *ast.RecordDecl) types.RecordType {
	return types.RecordType{Name: decl.Name, Members: decl.Members}
}
