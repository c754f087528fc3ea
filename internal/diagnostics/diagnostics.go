// Package diagnostics is the compiler's single taxonomy of user-facing
// errors. Every pass reports problems through a *Handler*, never
// by returning a bare Go error from deep inside a visitor — that keeps the
// "emit and keep going" discipline (a checker that bails on the first bad
// expression produces far less useful output than one that degrades and
// keeps walking) uniform across every component.
package diagnostics

import (
	"fmt"

	"github.com/circuitlang/midend/internal/srcspan"
)

// ErrorCode is a stable, documentation-linkable identifier for a kind of
// diagnostic. Each code is a snake_case kind name; the constants below are
// grouped by kind (parse-adjacent, symbol, type, internal). ErrInternal is
// the one code the Handler treats as always fatal (see IsInternal).
type ErrorCode string

const (
	// Parse-adjacent (raised here only when a pass must re-validate
	// something the external parser already shaped, e.g. a literal suffix).
	ErrUnexpectedStr           ErrorCode = "unexpected_str"
	ErrUnexpected              ErrorCode = "unexpected"
	ErrUnexpectedWhitespace    ErrorCode = "unexpected_whitespace"
	ErrImplicitValuesNotAllowed ErrorCode = "implicit_values_not_allowed"

	// Symbol.
	ErrUnknownSym           ErrorCode = "unknown_sym"
	ErrDuplicateSym         ErrorCode = "duplicate_sym"
	ErrCoreTypeNameConflict ErrorCode = "core_type_name_conflict"

	// Type.
	ErrTypeShouldBe              ErrorCode = "type_should_be"
	ErrExpectedOneTypeOf         ErrorCode = "expected_one_type_of"
	ErrTypeIsNotNegatable        ErrorCode = "type_is_not_negatable"
	ErrIncorrectPowBaseType      ErrorCode = "incorrect_pow_base_type"
	ErrIncorrectPowExponentType  ErrorCode = "incorrect_pow_exponent_type"
	ErrInvalidIntValue           ErrorCode = "invalid_int_value"
	ErrIncorrectNumArgsToCall    ErrorCode = "incorrect_num_args_to_call"
	ErrIncorrectNumCircuitMembers ErrorCode = "incorrect_num_circuit_members"
	ErrInvalidAccessExpression   ErrorCode = "invalid_access_expression"
	ErrInvalidCoreInstruction    ErrorCode = "invalid_core_instruction"
	ErrInvalidBuiltInType        ErrorCode = "invalid_built_in_type"

	// Internal (assertion failures; always fatal, never expected on a
	// program that type-checked and passed SSA cleanly).
	ErrInternal ErrorCode = "internal_error"
)

// DiagnosticError is the concrete diagnostic value every pass constructs.
// It implements error so it composes with ordinary Go error handling at
// package boundaries, while still exposing Code/Span for callers (tests,
// the driver, an LSP) that want to act on the kind rather than the text.
type DiagnosticError struct {
	Code    ErrorCode
	Span    srcspan.Span
	Message string
}

func (e *DiagnosticError) Error() string {
	if e.Span.IsZero() {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Span, e.Code, e.Message)
}

// NewError builds a DiagnosticError, formatting Message from format/args
// the way every call site in the checker/SSA/flattener phrases its errors.
func NewError(code ErrorCode, span srcspan.Span, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInternal builds a fatal internal-invariant-violation diagnostic. Only
// the SSA and flattening passes should ever construct one, and only when
// an AST invariant the type checker was supposed to guarantee doesn't hold.
func NewInternal(span srcspan.Span, format string, args ...interface{}) *DiagnosticError {
	return NewError(ErrInternal, span, format, args...)
}

// IsInternal reports whether code belongs to the always-fatal family.
func IsInternal(code ErrorCode) bool {
	return code == ErrInternal
}

// Mode controls how a Handler reacts to an emitted diagnostic.
type Mode int

const (
	// ModeAccumulate collects every diagnostic a phase produces before the
	// driver halts.
	ModeAccumulate Mode = iota
	// ModeFailFast returns control to the caller on the first diagnostic.
	ModeFailFast
)

// Handler is the append-only diagnostic sink threaded by reference through
// a single pass invocation. It is not
// safe for concurrent use — the pipeline is single-threaded by design.
type Handler struct {
	mode  Mode
	diags []*DiagnosticError
}

// NewHandler constructs a Handler in the given mode.
func NewHandler(mode Mode) *Handler {
	return &Handler{mode: mode}
}

// Emit records a diagnostic. It returns true if the handler wants the
// caller to stop immediately (fail-fast mode, or an internal diagnostic,
// which is always fail-fast regardless of configured mode).
func (h *Handler) Emit(d *DiagnosticError) bool {
	h.diags = append(h.diags, d)
	if IsInternal(d.Code) {
		return true
	}
	return h.mode == ModeFailFast
}

// Diagnostics returns every diagnostic emitted so far, in emission order.
func (h *Handler) Diagnostics() []*DiagnosticError {
	return h.diags
}

// HasErrors reports whether any diagnostic has been emitted.
func (h *Handler) HasErrors() bool {
	return len(h.diags) > 0
}

// HasInternal reports whether any emitted diagnostic is an internal
// (assertion-failure) error.
func (h *Handler) HasInternal() bool {
	for _, d := range h.diags {
		if IsInternal(d.Code) {
			return true
		}
	}
	return false
}

// Reset clears all recorded diagnostics; the mode is kept. pipeline.Run
// does not call it: every phase of one run shares a single Handler, and the
// run halts at the first phase that records a diagnostic.
func (h *Handler) Reset() {
	h.diags = nil
}
