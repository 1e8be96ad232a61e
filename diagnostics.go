package main

import (
	"fmt"
	"log"
	"os"
)

// VerboseMode gates informational progress messages, exactly as flapc's
// main.go/mov.go/dependencies.go gate theirs on the same-named global.
var VerboseMode bool

// DebugMode and WarnOnly implement the --debug/--warn logging flags:
// DebugMode prints every trace category regardless of its individual -p
// -e -P -c flag; WarnOnly suppresses informational VerboseMode output
// and prints only warnings and errors.
var DebugMode bool
var WarnOnly bool

// logTrace prints one diagnostic line for a parser/expansion/AST/codegen
// trace category (-p -e -P -c), always visible when its flag (or
// --debug) is set, regardless of --warn.
func logTrace(category, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "["+category+"] "+format+"\n", args...)
}

// logInfo prints a VerboseMode progress message, suppressed by --warn.
func logInfo(format string, args ...any) {
	if WarnOnly {
		return
	}
	if VerboseMode || DebugMode {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// logWarn prints a warning; never suppressed.
func logWarn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// fatalf reports a fatal CLI error and exits, following flapc's
// log.Fatalf convention for unrecoverable command-line failures.
func fatalf(format string, args ...any) {
	log.Fatalf(format, args...)
}
