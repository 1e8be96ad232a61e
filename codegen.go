package main

// maxConvergenceMultiplier and maxConvergenceConstant bound the
// convergence loop's iteration count as a safety net; real programs
// stabilize in far fewer passes since instruction length only grows
// with operand magnitude, which only grows as labels move later.
const (
	maxConvergenceMultiplier = 5
	maxConvergenceConstant   = 10
)

// CodeGenerator drives the code-generation convergence loop (C6): it
// re-walks the fully expanded line list, rederiving the model from
// scratch each time, until every direct instruction's encoded length
// matches what its resolved operand actually needs.
type CodeGenerator struct {
	model *Model
	trace bool
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{model: NewModel()}
}

func (cg *CodeGenerator) Model() *Model { return cg.model }

// Run executes walks until stable or the iteration cap is hit.
func (cg *CodeGenerator) Run(lines []*Line) *AssemblerError {
	lengths := make([]int, len(lines))
	for i := range lengths {
		lengths[i] = 1 // pessimistic minimum: grow only as evidence demands
	}

	limit := len(lines)*maxConvergenceMultiplier + maxConvergenceConstant
	for iter := 0; ; iter++ {
		if iter > limit {
			return convergenceErrorf(Location{}, "assembly did not converge after %d iterations", iter)
		}
		changed, err := cg.walk(lines, lengths, iter == 0)
		if err != nil {
			return err
		}
		if cg.trace {
			logTrace("codegen", "iteration %d: changed=%v", iter, changed)
		}
		if !changed {
			if names := cg.model.unresolvedReferences(); len(names) > 0 {
				return convergenceErrorf(Location{}, "symbol forward references remain unresolved at end of pass 1: %s", joinCasedNames(names))
			}
			return nil
		}
	}
}

// ifFrame tracks one open IF1 block: active reports whether lines
// under the current branch (before or after ELSE) should be processed
// on this walk.
type ifFrame struct {
	active bool
}

func (cg *CodeGenerator) walk(lines []*Line, lengths []int, firstWalk bool) (bool, *AssemblerError) {
	m := cg.model
	m.BeginIteration()

	var stack []ifFrame
	suppressed := func() bool {
		for _, f := range stack {
			if !f.active {
				return true
			}
		}
		return false
	}

	changed := false
	ended := false

	for idx, line := range lines {
		switch line.Statement.(type) {
		case *If1Stmt:
			stack = append(stack, ifFrame{active: firstWalk})
			continue
		case *ElseStmt:
			if len(stack) == 0 {
				return false, modelErrorf(line.Loc, "ELSE without matching IF1")
			}
			stack[len(stack)-1].active = !firstWalk
			continue
		case *EndifStmt:
			if len(stack) == 0 {
				return false, modelErrorf(line.Loc, "ENDIF without matching IF1")
			}
			stack = stack[:len(stack)-1]
			continue
		}

		if suppressed() {
			continue
		}

		if ended {
			if _, ok := line.Statement.(*IgnoredStmt); !ok || line.HasLabel {
				return false, modelErrorf(line.Loc, "statement after END")
			}
			continue
		}

		if line.HasLabel {
			if err := m.SetLabel(line.Label, m.dollar(), line.Loc); err != nil {
				return false, err
			}
		}

		newLen, err := cg.execute(line, idx, lengths)
		if err != nil {
			return false, err
		}
		if newLen >= 0 && newLen != lengths[idx] {
			lengths[idx] = newLen
			changed = true
		}
		if _, ok := line.Statement.(*EndStmt); ok {
			ended = true
		}
	}

	// A storage can change length after its own line ran, when a later
	// label resolves its operand; that change also counts.
	lineIdx := make(map[*Line]int, len(lines))
	for idx, line := range lines {
		lineIdx[line] = idx
	}
	for _, st := range m.Storages() {
		if idx, ok := lineIdx[st.Line]; ok && st.byteLen() != lengths[idx] {
			lengths[idx] = st.byteLen()
			changed = true
		}
	}

	if len(stack) != 0 {
		return false, modelErrorf(Location{}, "IF1 without matching ENDIF")
	}
	if !m.EndSeen() {
		return false, modelErrorf(Location{}, "program has no END statement")
	}
	return changed, nil
}

// execute applies one line's statement effect to the model. It returns
// the line's current encoded byte length if it produced an
// instruction/data storage, or -1 if the statement has no byte length
// of its own (so the caller should not treat it as a convergence
// signal).
func (cg *CodeGenerator) execute(line *Line, idx int, lengths []int) (int, *AssemblerError) {
	m := cg.model

	switch stmt := line.Statement.(type) {
	case *IgnoredStmt, *MacroStart, *MacroBody, *MacroEnd, *IncludeStmt:
		return -1, nil

	case *TitleStmt:
		m.SetTitle(stmt.Text)
		return -1, nil

	case *PageStmt:
		return -1, nil

	case *ProcessorStmt:
		target := TargetFor(stmt.Name)
		if target == nil {
			return -1, modelErrorf(line.Loc, "unknown processor selector %s", stmt.Name)
		}
		kind := Processor386
		if stmt.Name == ".TRANSPUTER" {
			kind = ProcessorTransputer
		}
		m.SetTarget(kind, target)
		return -1, nil

	case *OrgStmt:
		res, err := Evaluate(stmt.Addr, m)
		if err != nil {
			return -1, err
		}
		if !res.Resolved {
			return -1, modelErrorf(line.Loc, "ORG target must not contain a forward reference")
		}
		m.SetDollar(res.Value)
		return -1, nil

	case *AlignStmt:
		res, err := Evaluate(stmt.N, m)
		if err != nil {
			return -1, err
		}
		if !res.Resolved {
			return -1, modelErrorf(line.Loc, "ALIGN boundary must not contain a forward reference")
		}
		n := res.Value
		if n <= 0 {
			return -1, modelErrorf(line.Loc, "ALIGN boundary must be positive")
		}
		cur := m.dollar()
		m.SetDollar(((cur + n - 1) / n) * n)
		return -1, nil

	case *EndStmt:
		return -1, m.SetEnd(stmt.Entry, line.Loc)

	case *ConstantAssignment:
		return -1, m.SetConstant(stmt.Name, stmt.Expr, line.Loc)

	case *VariableAssignment:
		return -1, m.SetVariable(stmt.Name, stmt.Expr, line.Loc)

	case *DataStmt:
		st, err := m.AllocateStorage(line, stmt.Width, stmt.Exprs)
		if err != nil {
			return -1, err
		}
		return st.byteLen(), nil

	case *DupStmt:
		st, err := m.AllocateDup(line, stmt.Width, stmt.Count, stmt.Repeated)
		if err != nil {
			return -1, err
		}
		return st.byteLen(), nil

	case *IndirectInstruction:
		st := m.AllocateBytes(line, stmt.Bytes)
		return st.byteLen(), nil

	case *DirectEncodedInstruction:
		st := m.AllocateBytes(line, stmt.Bytes)
		return st.byteLen(), nil

	case *DirectInstruction:
		return cg.executeDirect(line, idx, stmt, lengths)

	default:
		return -1, modelErrorf(line.Loc, "statement %T has no code-generation handling", stmt)
	}
}

// executeDirect resolves a direct instruction's operand and encodes
// it. Branch mnemonics (J, CJ, CALL) carry their operand wrapped in a
// bare Offset marker from the parser; the wrapper is replaced here with
// an OffsetFrom anchored to this instruction's predicted end address,
// using the previous walk's committed length as the prediction.
func (cg *CodeGenerator) executeDirect(line *Line, idx int, di *DirectInstruction, lengths []int) (int, *AssemblerError) {
	m := cg.model
	opcodeNibble := di.OpByte >> 4
	expr := di.Expr
	placeholder := lengths[idx]

	if u, ok := expr.(*Unary); ok && u.Op == Offset {
		after := m.dollar() + int32(placeholder)
		expr = &Binary{Op: OffsetFrom, Left: &Number{Value: after}, Right: u.Operand}
	}

	st, err := m.AllocateInstruction(line, opcodeNibble, expr, placeholder)
	if err != nil {
		return -1, err
	}
	return st.byteLen(), nil
}
