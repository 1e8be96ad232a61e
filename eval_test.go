package main

import "testing"

// fakeEvalContext is a minimal evalContext for testing Evaluate in
// isolation from Model's storage/propagation machinery.
type fakeEvalContext struct {
	symbols map[CasedName]int32
	dollarV int32
}

func (f *fakeEvalContext) lookupSymbol(name CasedName) (int32, bool) {
	v, ok := f.symbols[name]
	return v, ok
}
func (f *fakeEvalContext) dollar() int32 { return f.dollarV }

func TestEvaluateArithmetic(t *testing.T) {
	ctx := &fakeEvalContext{symbols: map[CasedName]int32{}}
	expr := &Binary{Op: Add, Left: &Number{Value: 2}, Right: &Binary{Op: Mult, Left: &Number{Value: 3}, Right: &Number{Value: 4}}}
	res, err := Evaluate(expr, ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Resolved || res.Value != 14 {
		t.Errorf("got %d, resolved=%v, want 14, resolved=true", res.Value, res.Resolved)
	}
}

func TestEvaluateMissingSymbol(t *testing.T) {
	ctx := &fakeEvalContext{symbols: map[CasedName]int32{}}
	expr := &SymbolRef{Name: NewCasedName("UNKNOWN")}
	res, err := Evaluate(expr, ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Resolved {
		t.Error("expected an unresolved result for a missing symbol")
	}
	if len(res.Missing) != 1 || res.Missing[0] != NewCasedName("UNKNOWN") {
		t.Errorf("Missing = %v, want [UNKNOWN]", res.Missing)
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	ctx := &fakeEvalContext{symbols: map[CasedName]int32{}}
	expr := &Binary{Op: Div, Left: &Number{Value: 1}, Right: &Number{Value: 0}}
	_, err := Evaluate(expr, ctx)
	if err == nil {
		t.Fatal("expected division by zero to produce an error")
	}
}

func TestEvaluateDollarReference(t *testing.T) {
	ctx := &fakeEvalContext{symbols: map[CasedName]int32{}, dollarV: 0x200}
	res, err := Evaluate(&SymbolRef{Name: "$"}, ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Value != 0x200 {
		t.Errorf("$ = %X, want 0x200", res.Value)
	}
}

func TestEvaluateOffsetFrom(t *testing.T) {
	ctx := &fakeEvalContext{symbols: map[CasedName]int32{}}
	expr := &Binary{Op: OffsetFrom, Left: &Number{Value: 100}, Right: &Number{Value: 108}}
	res, err := Evaluate(expr, ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Value != 8 {
		t.Errorf("offset = %d, want 8", res.Value)
	}
}

func TestCollectDeps(t *testing.T) {
	expr := &Binary{Op: Add, Left: &SymbolRef{Name: NewCasedName("A")}, Right: &Unary{Op: Negate, Operand: &SymbolRef{Name: NewCasedName("B")}}}
	deps := collectDeps(expr)
	if len(deps) != 2 || deps[0] != NewCasedName("A") || deps[1] != NewCasedName("B") {
		t.Errorf("collectDeps = %v, want [A B]", deps)
	}
}

func TestCollectDepsExcludesDollar(t *testing.T) {
	deps := collectDeps(&SymbolRef{Name: "$"})
	if len(deps) != 0 {
		t.Errorf("collectDeps($) = %v, want empty", deps)
	}
}
