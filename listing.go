package main

import (
	"fmt"
	"sort"
	"strings"
)

// listingRows and listingCols are the page dimensions NewListingWriter
// uses. Neither the tmasm.toml [listing] section nor a PAGE statement
// changes them.
const (
	listingRows = 60
	listingCols = 132
)

// bytesPerLine caps the left-gutter encoded-byte dump per source line
// before wrapping to a continuation line, per spec.md §4.7: up to 5
// bytes, 3 words, or 1 dword rendered per line depending on cell width.
func bytesPerLine(width CellWidth) int {
	switch width {
	case CellWord:
		return 3 * 2
	case CellDword:
		return 1 * 4
	default:
		return 5
	}
}

// ListingWriter paginates the assembled program into the page
// header/gutter/symbol-table report described in spec.md §4.7 and
// SPEC_FULL.md §3.1, in the `center()`-justified section-header style
// rncernic-asm4PIC's GenerateReport uses for its own text report.
type ListingWriter struct {
	Rows, Cols int
}

func NewListingWriter() *ListingWriter {
	return &ListingWriter{Rows: listingRows, Cols: listingCols}
}

// Render produces the full listing text for one assembled program.
func (w *ListingWriter) Render(m *Model, lines []*Line) string {
	rows, cols := w.Rows, w.Cols
	if rows <= 0 {
		rows = listingRows
	}
	if cols <= 0 {
		cols = listingCols
	}

	storageByLine := make(map[*Line]*Storage, len(m.Storages()))
	for _, st := range m.Storages() {
		storageByLine[st.Line] = st
	}

	var out strings.Builder
	page := 1
	lineOnPage := 0

	emitHeader := func() {
		header := centerText(fmt.Sprintf("%s -- %s -- page %d", m.Title(), sourceFileOf(lines), page), cols)
		out.WriteString(header)
		out.WriteString("\n\n")
		lineOnPage = 2
	}
	emitHeader()

	for _, ln := range lines {
		rendered := renderLineGutter(ln, storageByLine[ln])
		for _, r := range rendered {
			if lineOnPage >= rows-3 {
				page++
				emitHeader()
			}
			out.WriteString(r)
			out.WriteString("\n")
			lineOnPage++
		}
	}

	out.WriteString("\n")
	out.WriteString(w.renderSymbolTable(m, cols))
	return out.String()
}

// renderLineGutter formats one source line as "[address] [bytes] [text]",
// wrapping the encoded-byte dump across continuation lines when it
// overflows the per-line cap for the storage's cell width.
func renderLineGutter(ln *Line, st *Storage) []string {
	if st == nil {
		return []string{fmt.Sprintf("%24s  %s", "", ln.Original)}
	}

	raw := storageRawBytes(st)
	per := bytesPerLine(st.Width)
	var out []string
	for i := 0; i < len(raw) || i == 0; i += per {
		end := i + per
		if end > len(raw) {
			end = len(raw)
		}
		chunk := raw[i:end]
		hexDump := hexBytes(chunk)
		if i == 0 {
			out = append(out, fmt.Sprintf("%08X  %-24s  %s", st.Addr, hexDump, ln.Original))
		} else {
			out = append(out, fmt.Sprintf("%08X  %-24s", st.Addr+int32(i), hexDump))
		}
		if len(raw) == 0 {
			break
		}
	}
	return out
}

func storageRawBytes(st *Storage) []byte {
	if st.Width == 0 {
		return st.Bytes
	}
	buf := make([]byte, st.byteLen())
	writeStorage(buf, st, byteOrder(false))
	return buf
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}

// renderSymbolTable renders the terminal page: the symbol table sorted
// by name, then the same entries sorted by address.
func (w *ListingWriter) renderSymbolTable(m *Model, cols int) string {
	var entries []SourcedValue
	m.ForeachSourcedValue(func(v SourcedValue) { entries = append(entries, v) })

	var out strings.Builder
	out.WriteString(centerText("SYMBOL TABLE (BY NAME)", cols))
	out.WriteString("\n")
	byName := append([]SourcedValue(nil), entries...)
	sort.Slice(byName, func(i, j int) bool { return byName[i].Name < byName[j].Name })
	for _, e := range byName {
		out.WriteString(formatSymbolRow(e))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(centerText("SYMBOL TABLE (BY ADDRESS)", cols))
	out.WriteString("\n")
	byAddr := append([]SourcedValue(nil), entries...)
	sort.Slice(byAddr, func(i, j int) bool { return byAddr[i].Addr < byAddr[j].Addr })
	for _, e := range byAddr {
		out.WriteString(formatSymbolRow(e))
		out.WriteString("\n")
	}
	return out.String()
}

func formatSymbolRow(e SourcedValue) string {
	kind := "CONST"
	if e.IsLabel {
		kind = "LABEL"
	}
	return fmt.Sprintf("%-32s %-5s %08X  (line %d)", e.Name, kind, uint32(e.Value), e.Line)
}

func centerText(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func sourceFileOf(lines []*Line) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0].Loc.File
}
