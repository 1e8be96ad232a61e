package main

import (
	"sort"
	"strings"
)

// symbolKind distinguishes the three disjoint symbol-table kinds.
type symbolKind int

const (
	constantSym symbolKind = iota
	variableSym
	labelSym
)

// symbolEntry is one row of a symbol table: its current value, the
// expression it was defined by (for re-evaluation), and the line it was
// defined on (for dependency re-evaluation ordering).
type symbolEntry struct {
	kind     symbolKind
	value    int32
	resolved bool
	missing  []CasedName // unresolved root symbols behind expr, if !resolved
	expr     Expression  // nil for labels, whose value is just the address
	line     int
	name     CasedName
}

// Storage is one line's emitted cells. A storage with Width > 0 carries
// per-cell integer values written at the model's endianness; a storage
// with Width == 0 carries already-encoded raw bytes (used for Transputer
// instructions, whose encoding the code generator computes directly).
// Encoded marks a Width == 0 storage whose single Exprs[0] operand must
// be re-run through Encode (the pfix/nfix encoder) on re-evaluation,
// rather than written cell-by-cell.
type Storage struct {
	Addr         int32
	Width        CellWidth
	Data         []int32
	Bytes        []byte
	Exprs        []Expression
	Line         *Line
	Encoded      bool
	OpcodeNibble byte

	// Resolved reports whether every operand expression resolved on the
	// most recent (re-)evaluation. Missing names the root symbols that
	// did not, for the end-of-convergence unresolved-reference check.
	Resolved bool
	Missing  []CasedName
}

func (s *Storage) byteLen() int {
	if s.Width == 0 {
		return len(s.Bytes)
	}
	return int(s.Width) * len(s.Data)
}

// dependent is a reverse edge recorded against a symbol: something whose
// value depends on that symbol and must be re-evaluated when it changes.
type dependent struct {
	storage *Storage // non-nil for a storage dependent
	symbol  CasedName // non-empty for a symbol dependent
	line    int
	seq     int
}

// Model is the canonical assembly state (C5): symbol tables, storages,
// the location counter, endianness, processor, and title, plus the
// dependency graph that drives re-evaluation on change.
type Model struct {
	symbols    map[CasedName]*symbolEntry
	storages   []*Storage
	dependents map[CasedName][]dependent
	seq        int

	dollarValue int32
	bigEndian   bool
	processor   ProcessorKind
	title       string

	endSeen  bool
	entryExp Expression
}

func NewModel() *Model {
	return &Model{
		symbols:    make(map[CasedName]*symbolEntry),
		dependents: make(map[CasedName][]dependent),
		bigEndian:  true,
	}
}

func (m *Model) dollar() int32 { return m.dollarValue }

func (m *Model) SetDollar(addr int32) { m.dollarValue = addr }

func (m *Model) SetProcessor(kind ProcessorKind) {
	m.processor = kind
	if kind == Processor386 || kind == ProcessorTransputer {
		m.bigEndian = false
	}
}

// SetTarget records the selected processor and adopts its Target's
// endianness, so a Target is the single source of truth for byte order
// once a `.386`/`.TRANSPUTER` line has been seen.
func (m *Model) SetTarget(kind ProcessorKind, target Target) {
	m.processor = kind
	m.bigEndian = target.BigEndian()
}

func (m *Model) Processor() ProcessorKind { return m.processor }
func (m *Model) BigEndian() bool          { return m.bigEndian }

func (m *Model) SetTitle(t string) { m.title = t }
func (m *Model) Title() string     { return m.title }

func (m *Model) lookupSymbol(name CasedName) (int32, bool) {
	e, ok := m.symbols[name]
	if !ok || !e.resolved {
		return 0, false
	}
	return e.value, true
}

func (m *Model) addDependents(expr Expression, dep dependent) {
	for _, name := range collectDeps(expr) {
		m.dependents[name] = append(m.dependents[name], dep)
	}
}

// SetConstant evaluates expr and binds name permanently. Fails if name
// is already a constant, or if expr has unresolved references (forward
// reference in a constant is always an error).
func (m *Model) SetConstant(name CasedName, expr Expression, loc Location) *AssemblerError {
	if existing, ok := m.symbols[name]; ok && existing.kind == constantSym {
		return modelErrorf(loc, "constant %s redefined", name)
	}
	res, err := Evaluate(expr, m)
	if err != nil {
		return err
	}
	if !res.Resolved {
		return modelErrorf(loc, "forward reference in constant %s", name)
	}
	m.symbols[name] = &symbolEntry{kind: constantSym, value: res.Value, resolved: true, expr: expr, line: loc.Line, name: name}
	return m.propagate(name)
}

// SetVariable stores expr's dependency even when unresolved; the value
// is (re-)computed opportunistically and re-evaluated whenever a
// referenced symbol becomes known or changes.
func (m *Model) SetVariable(name CasedName, expr Expression, loc Location) *AssemblerError {
	if existing, ok := m.symbols[name]; ok && existing.kind == constantSym {
		return modelErrorf(loc, "%s is already a constant", name)
	}
	res, err := Evaluate(expr, m)
	if err != nil {
		return err
	}
	entry := &symbolEntry{kind: variableSym, value: res.Value, resolved: res.Resolved, missing: res.Missing, expr: expr, line: loc.Line, name: name}
	m.symbols[name] = entry
	m.seq++
	m.addDependents(expr, dependent{symbol: name, line: loc.Line, seq: m.seq})
	return m.propagate(name)
}

// SetLabel binds name to addr for the current iteration. Collision with
// an existing constant is fatal; collision with a label from the same
// iteration (redefinition within one pass) is also fatal.
func (m *Model) SetLabel(name CasedName, addr int32, loc Location) *AssemblerError {
	if existing, ok := m.symbols[name]; ok && existing.kind == constantSym {
		return modelErrorf(loc, "label %s collides with constant", name)
	} else if ok && existing.kind == labelSym {
		return modelErrorf(loc, "label %s redefined", name)
	}
	m.symbols[name] = &symbolEntry{kind: labelSym, value: addr, resolved: true, line: loc.Line, name: name}
	return m.propagate(name)
}

// AllocateStorage allocates a storage at the current $ for a DB/DW/DD
// statement, advancing $ by its byte length. Characters expand to one
// cell per character (only meaningful for Width == CellByte).
func (m *Model) AllocateStorage(line *Line, width CellWidth, exprs []Expression) (*Storage, *AssemblerError) {
	var data []int32
	resolved := true
	var missing []CasedName
	for _, e := range exprs {
		if chars, ok := e.(*Characters); ok {
			for _, r := range chars.Text {
				data = append(data, int32(r))
			}
			continue
		}
		res, err := Evaluate(e, m)
		if err != nil {
			return nil, err
		}
		data = append(data, res.Value)
		if !res.Resolved {
			resolved = false
			missing = append(missing, res.Missing...)
		}
	}
	st := &Storage{Addr: m.dollarValue, Width: width, Data: data, Exprs: exprs, Line: line, Resolved: resolved, Missing: missing}
	m.storages = append(m.storages, st)
	m.seq++
	for _, e := range exprs {
		m.addDependents(e, dependent{storage: st, line: line.Loc.Line, seq: m.seq})
	}
	m.dollarValue += int32(st.byteLen())
	return st, nil
}

// AllocateInstruction allocates storage for a single-operand encoded
// Transputer instruction. placeholderLen sizes the storage while expr
// is still unresolved (a forward reference); once expr resolves,
// reevaluateStorage re-encodes it to its true length.
func (m *Model) AllocateInstruction(line *Line, opcodeNibble byte, expr Expression, placeholderLen int) (*Storage, *AssemblerError) {
	res, err := Evaluate(expr, m)
	if err != nil {
		return nil, err
	}
	var data []byte
	if res.Resolved {
		data = encodeDirectOperand(opcodeNibble, res.Value)
	} else {
		data = make([]byte, placeholderLen)
	}
	st := &Storage{Addr: m.dollarValue, Width: 0, Bytes: data, Exprs: []Expression{expr}, Line: line, Encoded: true, OpcodeNibble: opcodeNibble, Resolved: res.Resolved, Missing: res.Missing}
	m.storages = append(m.storages, st)
	m.seq++
	m.addDependents(expr, dependent{storage: st, line: line.Loc.Line, seq: m.seq})
	m.dollarValue += int32(st.byteLen())
	return st, nil
}

// AllocateBytes allocates a fixed, already-encoded byte sequence (an
// indirect instruction, whose function code is a compile-time constant
// and therefore never varies in length).
func (m *Model) AllocateBytes(line *Line, data []byte) *Storage {
	st := &Storage{Addr: m.dollarValue, Width: 0, Bytes: append([]byte(nil), data...), Line: line, Resolved: true}
	m.storages = append(m.storages, st)
	m.dollarValue += int32(len(data))
	return st
}

// AllocateDup allocates countExpr (evaluated immediately; forward
// references are not permitted) repetitions of repeatedExpr.
func (m *Model) AllocateDup(line *Line, width CellWidth, countExpr, repeatedExpr Expression) (*Storage, *AssemblerError) {
	countRes, err := Evaluate(countExpr, m)
	if err != nil {
		return nil, err
	}
	if !countRes.Resolved {
		return nil, modelErrorf(line.Loc, "DUP count must not contain a forward reference")
	}
	if countRes.Value < 0 {
		return nil, modelErrorf(line.Loc, "DUP count must be non-negative")
	}
	repeatedRes, err := Evaluate(repeatedExpr, m)
	if err != nil {
		return nil, err
	}
	data := make([]int32, countRes.Value)
	for i := range data {
		data[i] = repeatedRes.Value
	}
	st := &Storage{Addr: m.dollarValue, Width: width, Data: data, Exprs: []Expression{repeatedExpr}, Line: line, Resolved: repeatedRes.Resolved, Missing: repeatedRes.Missing}
	m.storages = append(m.storages, st)
	m.seq++
	m.addDependents(repeatedExpr, dependent{storage: st, line: line.Loc.Line, seq: m.seq})
	m.dollarValue += int32(st.byteLen())
	return st, nil
}

// propagate re-evaluates every transitive dependent of a changed
// symbol, in source order of their defining line (ties broken by
// insertion order), enqueuing further changes.
func (m *Model) propagate(changed CasedName) *AssemblerError {
	queue := []CasedName{changed}
	visited := map[CasedName]bool{}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		deps := append([]dependent(nil), m.dependents[name]...)
		sort.SliceStable(deps, func(i, j int) bool {
			if deps[i].line != deps[j].line {
				return deps[i].line < deps[j].line
			}
			return deps[i].seq < deps[j].seq
		})
		for _, d := range deps {
			if d.storage != nil {
				changedLen, err := m.reevaluateStorage(d.storage)
				if err != nil {
					return err
				}
				if changedLen {
					// Storages don't have symbolic names; byte-length
					// changes are handled by the code generator's
					// convergence loop, not the symbol propagation
					// queue.
				}
				continue
			}
			if d.symbol == "" || visited[d.symbol] {
				continue
			}
			entry, ok := m.symbols[d.symbol]
			if !ok || entry.kind != variableSym {
				continue
			}
			res, err := Evaluate(entry.expr, m)
			if err != nil {
				return err
			}
			old, oldResolved := entry.value, entry.resolved
			entry.value, entry.resolved = res.Value, res.Resolved
			entry.missing = res.Missing
			if res.Resolved && (!oldResolved || old != res.Value) {
				visited[d.symbol] = true
				queue = append(queue, d.symbol)
			}
		}
	}
	return nil
}

func (m *Model) reevaluateStorage(st *Storage) (bool, *AssemblerError) {
	oldLen := st.byteLen()
	if st.Encoded {
		res, err := Evaluate(st.Exprs[0], m)
		if err != nil {
			return false, err
		}
		st.Resolved = res.Resolved
		st.Missing = res.Missing
		if res.Resolved {
			st.Bytes = encodeDirectOperand(st.OpcodeNibble, res.Value)
		}
		return st.byteLen() != oldLen, nil
	}
	resolved := true
	var missing []CasedName
	cell := 0
	for _, e := range st.Exprs {
		if chars, ok := e.(*Characters); ok {
			cell += len([]rune(chars.Text))
			continue
		}
		res, err := Evaluate(e, m)
		if err != nil {
			return false, err
		}
		if len(st.Exprs) == 1 {
			// A single expression fills every cell (DUP repeats it).
			for i := range st.Data {
				st.Data[i] = res.Value
			}
		} else if cell < len(st.Data) {
			st.Data[cell] = res.Value
		}
		cell++
		if !res.Resolved {
			resolved = false
			missing = append(missing, res.Missing...)
		}
	}
	st.Resolved = resolved
	st.Missing = missing
	return st.byteLen() != oldLen, nil
}

// unresolvedReferences collects the root symbol names that remain
// undefined across every storage and variable in the model, for the
// end-of-convergence check that catches a symbol nothing in the program
// ever defines. Order follows Storages()/symbol-table iteration, which
// is sufficient since the caller only needs names to report.
func (m *Model) unresolvedReferences() []CasedName {
	seen := map[CasedName]bool{}
	var out []CasedName
	add := func(names []CasedName) {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	for _, st := range m.storages {
		if !st.Resolved {
			add(st.Missing)
		}
	}
	for _, e := range m.symbols {
		if e.kind == variableSym && !e.resolved {
			add(e.missing)
		}
	}
	return out
}

func joinCasedNames(names []CasedName) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// BeginIteration resets the model to rederive it from scratch: each
// convergence walk reinterprets the full line list independently, using
// only the code generator's externally tracked instruction-length
// guesses to carry state from one walk to the next.
func (m *Model) BeginIteration() {
	m.symbols = make(map[CasedName]*symbolEntry)
	m.dependents = make(map[CasedName][]dependent)
	m.storages = nil
	m.seq = 0
	m.dollarValue = 0
	m.endSeen = false
	m.entryExp = nil
}

// Storages returns all allocated storages in source (allocation) order.
func (m *Model) Storages() []*Storage { return m.storages }

// SetEnd marks the single permitted END statement, with its optional
// entry-point expression.
func (m *Model) SetEnd(entry Expression, loc Location) *AssemblerError {
	if m.endSeen {
		return modelErrorf(loc, "END appears more than once")
	}
	m.endSeen = true
	m.entryExp = entry
	return nil
}

func (m *Model) EndSeen() bool { return m.endSeen }

// SourcedValue describes one symbol (label, constant, or variable) for
// the listing, in source-line order.
type SourcedValue struct {
	Line    int
	Name    CasedName
	IsLabel bool
	Addr    int32
	Value   int32
}

// ForeachSourcedValue enumerates labels, constants, and variables in
// source-line order for the listing's symbol-table page.
func (m *Model) ForeachSourcedValue(visit func(SourcedValue)) {
	entries := make([]*symbolEntry, 0, len(m.symbols))
	for _, e := range m.symbols {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].line < entries[j].line })
	for _, e := range entries {
		visit(SourcedValue{Line: e.line, Name: e.name, IsLabel: e.kind == labelSym, Addr: e.value, Value: e.value})
	}
}
