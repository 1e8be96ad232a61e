package main

import (
	"os"
	"path/filepath"
	"strings"
)

// SourceItem is one line handed to the parser: its nested include call
// stack, its own location, and the raw text.
type SourceItem struct {
	Loc  Location
	Text string
}

// sourceContext is one open file in the include stack.
type sourceContext struct {
	file  string
	lines []string
	next  int // index of the next unread line
}

// SourceStream walks a root file and its INCLUDE chain as a single flat
// sequence of lines, maintaining a stack of open contexts so an include
// can resume its parent exactly where it left off.
type SourceStream struct {
	stack        []*sourceContext
	includePaths []string
}

func NewSourceStream() *SourceStream {
	return &SourceStream{}
}

// AddIncludePath registers a directory to search for INCLUDE targets
// that are not found relative to the current working directory. Fails
// if dir does not exist or is not a directory.
func (s *SourceStream) AddIncludePath(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &AssemblerError{Kind: IOErrorKind, Message: dir + " is not a directory"}
	}
	s.includePaths = append(s.includePaths, dir)
	return nil
}

// Open pushes rootFile as the outermost context. Call Next repeatedly
// to drain the stream.
func (s *SourceStream) Open(rootFile string) error {
	ctx, err := loadContext(rootFile)
	if err != nil {
		return err
	}
	s.stack = []*sourceContext{ctx}
	return nil
}

// PushInclude resolves path per the search order (absolute, then
// working directory, then configured include paths in the order added)
// and pushes it as a new innermost context.
func (s *SourceStream) PushInclude(path string) error {
	resolved, err := s.resolveInclude(path)
	if err != nil {
		return err
	}
	ctx, err := loadContext(resolved)
	if err != nil {
		return err
	}
	s.stack = append(s.stack, ctx)
	return nil
}

func (s *SourceStream) resolveInclude(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", newError(IOErrorKind, Location{}, "include not found: %s", path)
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	for _, dir := range s.includePaths {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", newError(IOErrorKind, Location{}, "include not found: %s", path)
}

func loadContext(path string) (*sourceContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(IOErrorKind, Location{}, "%v", err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return &sourceContext{file: path, lines: lines}, nil
}

// nestedLocations returns the call stack of enclosing files, outermost
// first, excluding the innermost (current) context.
func (s *SourceStream) nestedLocations() []string {
	if len(s.stack) <= 1 {
		return nil
	}
	out := make([]string, 0, len(s.stack)-1)
	for _, ctx := range s.stack[:len(s.stack)-1] {
		out = append(out, ctx.file)
	}
	return out
}

// Next returns the next line in the flattened stream, popping finished
// include contexts and resuming their parents. ok is false once the
// outermost context is exhausted.
func (s *SourceStream) Next() (SourceItem, bool) {
	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		if top.next >= len(top.lines) {
			s.stack = s.stack[:len(s.stack)-1]
			continue
		}
		lineNo := top.next + 1
		text := top.lines[top.next]
		top.next++
		loc := Location{File: top.file, Line: lineNo, Nested: s.nestedLocations()}
		return SourceItem{Loc: loc, Text: text}, true
	}
	return SourceItem{}, false
}
