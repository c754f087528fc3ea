package diagnostics

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/circuitlang/midend/internal/srcspan"
)

func TestHandler_AccumulateCollectsEveryDiagnostic(t *testing.T) {
	h := NewHandler(ModeAccumulate)
	h.Emit(NewError(ErrUnknownSym, srcspan.Span{File: "a", Start: 0, End: 1}, "unknown %q", "x"))
	h.Emit(NewError(ErrTypeShouldBe, srcspan.Span{File: "a", Start: 2, End: 3}, "bad type"))

	want := []*DiagnosticError{
		{Code: ErrUnknownSym, Span: srcspan.Span{File: "a", Start: 0, End: 1}, Message: `unknown "x"`},
		{Code: ErrTypeShouldBe, Span: srcspan.Span{File: "a", Start: 2, End: 3}, Message: "bad type"},
	}
	if diff := cmp.Diff(want, h.Diagnostics()); diff != "" {
		t.Fatalf("accumulated diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_ResetClearsWithoutAffectingMode(t *testing.T) {
	h := NewHandler(ModeFailFast)
	h.Emit(NewInternal(srcspan.Zero, "invariant violated"))
	if !h.HasInternal() {
		t.Fatalf("expected HasInternal after emitting an internal diagnostic")
	}
	h.Reset()
	if h.HasErrors() {
		t.Fatalf("expected no diagnostics after Reset")
	}
	if !h.Emit(NewError(ErrUnknownSym, srcspan.Zero, "x")) {
		t.Fatalf("expected fail-fast mode to survive Reset")
	}
	if len(h.Diagnostics()) != 1 {
		t.Fatalf("expected the post-reset emit to still be recorded")
	}
}
