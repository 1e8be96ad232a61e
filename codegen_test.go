package main

import "testing"

// parseProgram parses every line of src through a fresh Parser/MacroManager,
// flattening INCLUDE handling (not exercised here) since these tests only
// cover single-file convergence behavior.
func parseProgram(t *testing.T, src []string) []*Line {
	t.Helper()
	parser := NewParser(NewMacroManager())
	var lines []*Line
	for i, text := range src {
		parsed, err := parser.ParseLines(Location{Line: i + 1}, text)
		if err != nil {
			t.Fatalf("parsing %q: %v", text, err)
		}
		lines = append(lines, parsed...)
	}
	return lines
}

func TestCodeGeneratorConvergesOnForwardBranchGrowth(t *testing.T) {
	src := []string{".TRANSPUTER", "ORG 0", "J TARGET"}
	for i := 0; i < 16; i++ {
		src = append(src, "DB 0")
	}
	src = append(src, "TARGET:", "END")
	lines := parseProgram(t, src)

	cg := NewCodeGenerator()
	if err := cg.Run(lines); err != nil {
		t.Fatalf("Run: %v", err)
	}

	storages := cg.Model().Storages()
	if len(storages) == 0 {
		t.Fatal("expected at least one storage")
	}
	branch := storages[0]
	if branch.byteLen() != 2 {
		t.Errorf("branch byte length = %d, want 2 once its target sits past one nibble's reach", branch.byteLen())
	}
}

func TestCodeGeneratorIf1SuppressesElseBranch(t *testing.T) {
	src := []string{"IF1", "A EQU 1", "ELSE", "A EQU 2", "ENDIF", "DB A", "END"}
	lines := parseProgram(t, src)

	cg := NewCodeGenerator()
	if err := cg.Run(lines); err != nil {
		t.Fatalf("Run: %v", err)
	}
	img := BinaryImage(cg.Model())
	if len(img) != 1 || img[0] != 1 {
		t.Errorf("image = %v, want [1] (IF1 branch taken, ELSE branch suppressed)", img)
	}
}

func TestCodeGeneratorMissingEndFails(t *testing.T) {
	lines := parseProgram(t, []string{"DB 1"})
	cg := NewCodeGenerator()
	if err := cg.Run(lines); err == nil {
		t.Fatal("expected a program with no END statement to fail")
	}
}

func TestCodeGeneratorElseWithoutIf1Fails(t *testing.T) {
	lines := parseProgram(t, []string{"ELSE", "END"})
	cg := NewCodeGenerator()
	if err := cg.Run(lines); err == nil {
		t.Fatal("expected a bare ELSE to fail")
	}
}

func TestCodeGeneratorRejectsStatementAfterEnd(t *testing.T) {
	lines := parseProgram(t, []string{"ORG 0", "END", "DB 1"})
	cg := NewCodeGenerator()
	if err := cg.Run(lines); err == nil {
		t.Fatal("expected a statement after END to fail")
	}
}

func TestCodeGeneratorAllowsBlankOrCommentAfterEnd(t *testing.T) {
	lines := parseProgram(t, []string{"ORG 0", "DB 1", "END", "", "; trailing comment"})
	cg := NewCodeGenerator()
	if err := cg.Run(lines); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestCodeGeneratorFailsOnNeverDefinedSymbol(t *testing.T) {
	lines := parseProgram(t, []string{"DB UNDEFINED", "END"})
	cg := NewCodeGenerator()
	if err := cg.Run(lines); err == nil {
		t.Fatal("expected a reference to a never-defined symbol to fail")
	}
}

func TestCodeGeneratorFailsOnNeverResolvedDirectOperand(t *testing.T) {
	lines := parseProgram(t, []string{".TRANSPUTER", "ORG 0", "LDC UNDEFINED", "END"})
	cg := NewCodeGenerator()
	if err := cg.Run(lines); err == nil {
		t.Fatal("expected a direct instruction operand that never resolves to fail")
	}
}
