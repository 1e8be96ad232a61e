package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const versionString = "tmasm 1.0.0"

// includePathFlag accumulates repeated -I/--includepath occurrences,
// following flag.Value's standard implementation pattern for a
// multi-valued flag.
type includePathFlag []string

func (f *includePathFlag) String() string { return strings.Join(*f, ":") }
func (f *includePathFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var help, helpLong bool
	var version bool
	var output string
	var binary string
	var listing string
	var includePaths includePathFlag
	var caseSensitiveFlag, caseSensitiveLong bool
	var showIncludePaths bool
	var traceParse, traceExpand, traceAST, traceCodegen bool
	var debug, warn bool
	var level string
	var classes string
	var threads int
	var times bool
	var tomlPath string

	flag.BoolVar(&help, "?", false, "show help and exit")
	flag.BoolVar(&helpLong, "help", false, "show help and exit")
	flag.BoolVar(&version, "version", false, "show version and exit")
	flag.StringVar(&output, "o", "", "Intel HEX secondary output file (reserved)")
	flag.StringVar(&output, "output", "", "Intel HEX secondary output file (reserved)")
	flag.StringVar(&binary, "b", "", "binary output file")
	flag.StringVar(&binary, "binary", "", "binary output file")
	flag.StringVar(&listing, "l", "", "listing output file")
	flag.StringVar(&listing, "listing", "", "listing output file")
	flag.Var(&includePaths, "I", "add an include search directory (repeatable)")
	flag.Var(&includePaths, "includepath", "add an include search directory (repeatable)")
	flag.BoolVar(&caseSensitiveFlag, "x", false, "disable identifier case folding")
	flag.BoolVar(&caseSensitiveLong, "caseSensitive", false, "disable identifier case folding")
	flag.BoolVar(&showIncludePaths, "s", false, "print the resolved include search path and exit")
	flag.BoolVar(&showIncludePaths, "showIncludePaths", false, "print the resolved include search path and exit")
	flag.BoolVar(&traceParse, "p", false, "trace the statement parser")
	flag.BoolVar(&traceExpand, "e", false, "trace macro expansion")
	flag.BoolVar(&traceAST, "P", false, "trace the resolved AST before code generation")
	flag.BoolVar(&traceCodegen, "c", false, "trace the code-generation convergence loop")
	flag.BoolVar(&debug, "debug", false, "enable all trace categories")
	flag.BoolVar(&warn, "warn", false, "suppress informational output, keep warnings")
	flag.StringVar(&level, "level", "", "log level (accepted for compatibility, informational only)")
	flag.StringVar(&classes, "classes", "", "comma-separated diagnostic classes (accepted for compatibility)")
	flag.IntVar(&threads, "threads", 1, "accepted for compatibility; the pipeline is single-threaded regardless")
	flag.BoolVar(&times, "times", false, "accepted for compatibility; per-phase timing is not instrumented")
	flag.StringVar(&tomlPath, "T", "", "load a tmasm.toml project file")
	flag.StringVar(&tomlPath, "toml", "", "load a tmasm.toml project file")

	flag.Parse()

	if help || helpLong {
		cmdHelp()
		os.Exit(0)
	}
	if version {
		fmt.Println(versionString)
		os.Exit(0)
	}

	DebugMode = debug
	WarnOnly = warn
	VerboseMode = envVerbose(debug)

	if threads > 1 {
		logWarn("--threads=%d ignored: the pipeline is single-threaded by design", threads)
	}
	if times {
		logInfo("--times is accepted but per-phase timing is not separately instrumented")
	}
	if level != "" || classes != "" {
		logInfo("--level/--classes accepted (level=%q classes=%q)", level, classes)
	}

	tomlFile := tomlPath
	if tomlFile == "" {
		if _, err := os.Stat("tmasm.toml"); err == nil {
			tomlFile = "tmasm.toml"
		}
	}
	cfg, err := LoadConfig(tomlFile)
	if err != nil {
		fatalf("%v", err)
	}

	caseSensitiveResolved := caseSensitiveFlag || caseSensitiveLong
	if !caseSensitiveResolved {
		caseSensitiveResolved = envCaseSensitive(cfg.Build.CaseSensitive)
	}

	paths := append([]string{}, includePaths...)
	if len(paths) == 0 {
		paths = append(paths, cfg.Build.IncludePaths...)
	}
	paths = append(paths, envIncludePaths()...)
	paths = append(paths, defaultSystemIncludeDir())

	if showIncludePaths {
		fmt.Println(".")
		for _, p := range paths {
			fmt.Println(p)
		}
		os.Exit(0)
	}

	opts := Options{
		IncludePaths:  existingDirs(paths),
		CaseSensitive: caseSensitiveResolved,
		TraceParse:    traceParse || debug || cfg.Diagnostics.TraceParse,
		TraceExpand:   traceExpand || debug || cfg.Diagnostics.TraceExpand,
		TraceAST:      traceAST || debug || cfg.Diagnostics.TraceAST,
		TraceCodegen:  traceCodegen || debug || cfg.Diagnostics.TraceCodegen,
	}

	ctx := &CommandContext{
		Opts:        opts,
		BinaryPath:  binary,
		ListingPath: listing,
		HexPath:     output,
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "tmasm: no input file")
		cmdHelp()
		os.Exit(1)
	}

	if err := RunCLI(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "tmasm: %v\n", err)
		os.Exit(1)
	}
}

// defaultSystemIncludeDir is the platform system include directory named
// in spec.md §6, checked last in the search order.
func defaultSystemIncludeDir() string {
	if dir := os.Getenv("TMASM_SYSTEM_INCLUDE"); dir != "" {
		return dir
	}
	return filepath.Join(string(filepath.Separator), "opt", "parachute", "include", "tmasm")
}

// existingDirs filters out search path entries that do not exist, so a
// missing system include directory never turns into an I/O error.
func existingDirs(paths []string) []string {
	var out []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}
