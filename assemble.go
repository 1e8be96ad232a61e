package main

// Options configures one assembly run: source file, include search path,
// and the case-sensitivity policy (which must be fixed before the first
// token is lexed, since CasedName folding is a process-wide setting).
type Options struct {
	SourceFile       string
	IncludePaths     []string
	CaseSensitive    bool
	TraceParse       bool
	TraceExpand      bool
	TraceAST         bool
	TraceCodegen     bool
}

// Result is everything the output writers need after a successful run.
type Result struct {
	Model *Model
	Lines []*Line
}

// Assemble runs the full pipeline: source stream (with INCLUDE expansion)
// -> statement parser (with macro expansion) -> flattened line list ->
// code generator convergence loop. All parse-phase errors are
// accumulated and reported together; a parse error aborts code
// generation, per the accumulate-then-abort policy.
func Assemble(opts Options) (*Result, *ErrorList) {
	caseSensitive = opts.CaseSensitive
	traceExpand = opts.TraceExpand

	errs := &ErrorList{}

	stream := NewSourceStream()
	for _, dir := range opts.IncludePaths {
		if err := stream.AddIncludePath(dir); err != nil {
			errs.Add(newError(IOErrorKind, Location{}, "%v", err))
			return nil, errs
		}
	}
	if err := stream.Open(opts.SourceFile); err != nil {
		errs.Add(newError(IOErrorKind, Location{}, "%v", err))
		return nil, errs
	}

	macros := NewMacroManager()
	parser := NewParser(macros)

	var lines []*Line
	for {
		item, ok := stream.Next()
		if !ok {
			break
		}
		parsed, perr := parser.ParseLines(item.Loc, item.Text)
		if perr != nil {
			errs.Add(perr)
			continue
		}
		if opts.TraceParse {
			for _, ln := range parsed {
				logTrace("parse", "%s: %s", ln.Loc, ln.Statement)
			}
		}
		for _, ln := range parsed {
			if inc, ok := ln.Statement.(*IncludeStmt); ok {
				if err := stream.PushInclude(inc.Path); err != nil {
					errs.Add(newError(IOErrorKind, ln.Loc, "%v", err))
				}
				continue
			}
			lines = append(lines, ln)
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}

	if opts.TraceAST {
		for _, ln := range lines {
			logTrace("ast", "%s: %s", ln.Loc, ln.Statement)
		}
	}

	cg := NewCodeGenerator()
	cg.trace = opts.TraceCodegen
	if err := cg.Run(lines); err != nil {
		errs.Add(err)
		return nil, errs
	}

	return &Result{Model: cg.Model(), Lines: lines}, errs
}
