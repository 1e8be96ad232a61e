package main

import (
	"fmt"
	"sort"
)

// Location identifies one line of input, including the include stack that
// was active when it was read.
type Location struct {
	File   string
	Line   int
	Nested []string // enclosing INCLUDE call stack, outermost first
}

func (l Location) String() string {
	if len(l.Nested) == 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	s := fmt.Sprintf("%s:%d", l.File, l.Line)
	for i := len(l.Nested) - 1; i >= 0; i-- {
		s += fmt.Sprintf(" (included from %s)", l.Nested[i])
	}
	return s
}

// ErrorKind distinguishes the five error categories an assembly run can
// produce.
type ErrorKind int

const (
	ParseErrorKind ErrorKind = iota
	MacroErrorKind
	ModelErrorKind
	ConvergenceErrorKind
	IOErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case ParseErrorKind:
		return "parse error"
	case MacroErrorKind:
		return "macro error"
	case ModelErrorKind:
		return "model error"
	case ConvergenceErrorKind:
		return "convergence error"
	case IOErrorKind:
		return "I/O error"
	default:
		return "error"
	}
}

// AssemblerError is a located, typed error. All non-fatal errors produced by
// the parser and code generator are of this type so they can be sorted and
// reported together under an accumulate-then-abort policy.
type AssemblerError struct {
	Kind    ErrorKind
	Loc     Location
	Message string
}

func (e *AssemblerError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Loc, e.Kind, e.Message)
}

func newError(kind ErrorKind, loc Location, format string, args ...any) *AssemblerError {
	return &AssemblerError{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func parseErrorf(loc Location, format string, args ...any) *AssemblerError {
	return newError(ParseErrorKind, loc, format, args...)
}

func macroErrorf(loc Location, format string, args ...any) *AssemblerError {
	return newError(MacroErrorKind, loc, format, args...)
}

func modelErrorf(loc Location, format string, args ...any) *AssemblerError {
	return newError(ModelErrorKind, loc, format, args...)
}

func convergenceErrorf(loc Location, format string, args ...any) *AssemblerError {
	return newError(ConvergenceErrorKind, loc, format, args...)
}

// ErrorList accumulates AssemblerErrors across a phase and reports them
// together in source order.
type ErrorList struct {
	errs []*AssemblerError
}

func (l *ErrorList) Add(err *AssemblerError) {
	if err == nil {
		return
	}
	l.errs = append(l.errs, err)
}

func (l *ErrorList) HasErrors() bool {
	return len(l.errs) > 0
}

func (l *ErrorList) Len() int {
	return len(l.errs)
}

// Sorted returns the accumulated errors ordered by (file, line), the
// source order required for the final report.
func (l *ErrorList) Sorted() []*AssemblerError {
	out := make([]*AssemblerError, len(l.errs))
	copy(out, l.errs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Loc, out[j].Loc
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return out
}

// Error implements the error interface so an *ErrorList can be returned
// directly from a phase function.
func (l *ErrorList) Error() string {
	if len(l.errs) == 0 {
		return "no errors"
	}
	s := ""
	for i, e := range l.Sorted() {
		if i > 0 {
			s += "\n"
		}
		s += e.Error()
	}
	return s
}
