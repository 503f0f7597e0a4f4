// Command mica is the compiler driver: it builds native executables
// through the LLVM backend, interprets programs directly, and hosts an
// interactive session.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
	"golang.org/x/term"

	"mica/internal/ast"
	"mica/internal/codegen"
	"mica/internal/diag"
	"mica/internal/evaluator"
	"mica/internal/lexer"
	"mica/internal/parser"
	"mica/internal/sema"
)

const version = "0.1.0"

const usage = `usage: mica <command> [arguments]

commands:
  build [-o output] file.mica   compile to a native executable
  run file.mica                 interpret the program
  repl                          interactive session
  version                       print the version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = cmdBuild(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "repl":
		err = cmdRepl()
	case "version":
		fmt.Printf("mica %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "mica: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mica: %v\n", err)
		os.Exit(1)
	}
}

// colorizer paints diagnostic codes red when stderr is a terminal and
// MICA_NO_COLOR is unset.
func colorizer() func(string) string {
	if env.Bool("MICA_NO_COLOR") || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return func(s string) string {
		return "\x1b[31m" + s + "\x1b[0m"
	}
}

// compileFile runs the front half of the pipeline. Diagnostics go to
// stderr; a non-nil error means the program never checked cleanly.
func compileFile(path string) (*ast.Program, *sema.Info, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	program, info, bag := analyze(string(src))
	if !bag.Empty() {
		fmt.Fprintln(os.Stderr, bag.Render(path, colorizer()))
		return nil, nil, fmt.Errorf("%d error(s)", bag.Len())
	}
	return program, info, nil
}

// analyze parses and checks source, merging both phases' diagnostics
// into one bag so a single run reports everything.
func analyze(src string) (*ast.Program, *sema.Info, *diag.Bag) {
	p := parser.New(lexer.New(src))
	program := p.ParseProgram()
	if !p.Bag().Empty() {
		return program, nil, p.Bag()
	}
	info, bag := sema.Analyze(program)
	return program, info, bag
}

func cmdBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "output executable path")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("build expects exactly one source file")
	}
	src := fs.Arg(0)

	out := *output
	if out == "" {
		out = outputName(src)
	}

	program, info, err := compileFile(src)
	if err != nil {
		return err
	}
	module := codegen.New(info).Compile(program)
	return codegen.Build(module, out)
}

// outputName strips the source extension: prog.mica builds prog.
func outputName(src string) string {
	base := strings.TrimSuffix(src, filepath.Ext(src))
	if base == "" || base == src {
		return src + ".out"
	}
	return base
}

func cmdRun(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("run expects exactly one source file")
	}
	program, info, err := compileFile(args[0])
	if err != nil {
		return err
	}
	return evaluator.New(info, os.Stdout).Run(program)
}
