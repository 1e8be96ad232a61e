// cli.go - user-facing command layer for tmasm
//
// Mirrors flapc's cli.go subcommand dispatch (RunCLI / cmdBuild / cmdRun
// / cmdHelp), adapted from "compile an executable" to "assemble a flat
// binary + listing": tmasm has no run-in-place semantics of its own, so
// `tmasm run` assembles then, if $TRANSPUTER_SIM is set, hands the
// resulting image to it. The selected processor is not checked.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandContext holds the options shared across build/run: everything
// parsed from flags, the TOML project file, and the environment before a
// subcommand runs.
type CommandContext struct {
	Opts        Options
	BinaryPath  string
	ListingPath string
	HexPath     string
}

// RunCLI is the entry point once main.go has parsed global flags. args
// is flag.Args(): the subcommand (build/run) plus its own positional
// file, or a bare file for the build shorthand.
func RunCLI(ctx *CommandContext, args []string) error {
	if len(args) == 0 {
		return cmdHelp()
	}

	if isShebangScript(args[0]) {
		return cmdRunShebang(ctx, args[0], args[1:])
	}

	switch args[0] {
	case "build":
		if len(args) < 2 {
			return fmt.Errorf("usage: tmasm build <file> [flags]")
		}
		return cmdBuild(ctx, args[1])
	case "run":
		if len(args) < 2 {
			return fmt.Errorf("usage: tmasm run <file> [flags]")
		}
		return cmdRun(ctx, args[1])
	case "help":
		return cmdHelp()
	case "version":
		fmt.Println(versionString)
		return nil
	default:
		// Shorthand: "tmasm source.tms" behaves like "tmasm build source.tms".
		return cmdBuild(ctx, args[0])
	}
}

func isShebangScript(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return len(content) > 2 && content[0] == '#' && content[1] == '!'
}

// cmdBuild assembles source and writes the requested output files.
func cmdBuild(ctx *CommandContext, source string) error {
	ctx.Opts.SourceFile = source

	if ctx.Opts.CaseSensitive {
		logInfo("case-sensitive mode enabled")
	}
	if ctx.Opts.IncludePaths != nil {
		logInfo("include path: %v", ctx.Opts.IncludePaths)
	}

	result, errs := Assemble(ctx.Opts)
	if errs.HasErrors() {
		for _, e := range errs.Sorted() {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return fmt.Errorf("assembly failed with %d error(s)", errs.Len())
	}

	image := BinaryImage(result.Model)

	binPath := ctx.BinaryPath
	if binPath == "" {
		binPath = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".bin"
	}
	if err := os.WriteFile(binPath, image, 0o644); err != nil {
		return fmt.Errorf("writing binary output: %w", err)
	}
	logInfo("wrote binary: %s (%d bytes)", binPath, len(image))

	if ctx.ListingPath != "" {
		listing := NewListingWriter().Render(result.Model, result.Lines)
		if err := os.WriteFile(ctx.ListingPath, []byte(listing), 0o644); err != nil {
			return fmt.Errorf("writing listing output: %w", err)
		}
		logInfo("wrote listing: %s", ctx.ListingPath)
	}

	if ctx.HexPath != "" {
		hex := IntelHex(image, LowestAddress(result.Model))
		if err := os.WriteFile(ctx.HexPath, []byte(hex), 0o644); err != nil {
			return fmt.Errorf("writing hex output: %w", err)
		}
		logInfo("wrote Intel HEX: %s", ctx.HexPath)
	}

	ctx.BinaryPath = binPath
	return nil
}

// cmdRun assembles, then feeds the resulting binary to $TRANSPUTER_SIM
// when that variable is set, whatever processor the program selected,
// since tmasm itself has no means of executing Transputer code.
func cmdRun(ctx *CommandContext, source string) error {
	if err := cmdBuild(ctx, source); err != nil {
		return err
	}

	sim := os.Getenv("TRANSPUTER_SIM")
	if sim == "" {
		fmt.Printf("assembled %s (set $TRANSPUTER_SIM to run it)\n", ctx.BinaryPath)
		return nil
	}

	cmd := exec.Command(sim, ctx.BinaryPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("running %s: %w", sim, err)
	}
	return nil
}

// cmdRunShebang handles `#!/usr/bin/tmasm run` style scripts: assemble
// then immediately hand off to $TRANSPUTER_SIM exactly as cmdRun does.
func cmdRunShebang(ctx *CommandContext, scriptPath string, _ []string) error {
	return cmdRun(ctx, scriptPath)
}

func cmdHelp() error {
	fmt.Print(`tmasm - Transputer Macro Assembler

USAGE:
    tmasm [flags] <file>
    tmasm build <file> [flags]
    tmasm run <file> [flags]

COMMANDS:
    build <file>    Assemble a source file to a flat binary (+ optional listing)
    run <file>      Assemble, then hand the binary to $TRANSPUTER_SIM if set
    help            Show this help message
    version         Show version information

FLAGS:
    -?, --help                  Show this help message
    --version                   Show version information
    -o, --output <file>         Intel HEX secondary output (reserved in the base spec)
    -b, --binary <file>         Flat binary output path (default: <source>.bin)
    -l, --listing <file>        Listing output path
    -I, --includepath <dir>     Add an include search directory (repeatable)
    -x, --caseSensitive         Disable case folding of identifiers
    -s, --showIncludePaths      Print the resolved include search path and exit
    -p                          Trace the statement parser
    -e                          Trace macro expansion
    -P                          Trace the resolved AST before code generation
    -c                          Trace the code-generation convergence loop
    --debug                     Enable all trace categories
    --warn                      Suppress informational output, keep warnings
    -T, --toml <file>           Load a tmasm.toml project file (default: ./tmasm.toml)

EXAMPLES:
    tmasm hello.tms -b hello.bin -l hello.lst
    tmasm build hello.tms -x -I ./lib
    tmasm run hello.tms

`)
	return nil
}
