package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/xyproto/env/v2"

	"mica/internal/ast"
	"mica/internal/evaluator"
	"mica/internal/lexer"
	"mica/internal/parser"
)

// The session keeps declarations and bindings by replaying them in
// front of each new entry. Expression statements (and loops) are not
// replayed, so their output happens once.
type session struct {
	kept []string
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return env.Str("MICA_HISTFILE", filepath.Join(home, ".mica_history"))
}

func cmdRepl() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histfile := historyPath()
	if f, err := os.Open(histfile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histfile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("mica %s (exit with ctrl-d)\n", version)
	s := &session{}
	for {
		input, err := line.Prompt("mica> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)
		s.eval(input)
	}
}

// eval runs one entry against the accumulated session. Any diagnostic
// or runtime panic drops the entry; clean declarations are kept.
func (s *session) eval(input string) {
	src := strings.Join(append(append([]string{}, s.kept...), input), "\n")
	program, info, bag := analyze(src)
	if !bag.Empty() {
		fmt.Fprintln(os.Stderr, bag.Render("", colorizer()))
		return
	}
	if err := evaluator.New(info, os.Stdout).Run(program); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if replayable(input) {
		s.kept = append(s.kept, input)
	}
}

// replayable reports whether an entry can safely run again as the
// prelude of the next one: definitions and bindings yes, anything that
// prints or loops no.
func replayable(input string) bool {
	p := parser.New(lexer.New(input))
	program := p.ParseProgram()
	if !p.Bag().Empty() || len(program.Statements) == 0 {
		return false
	}
	for _, stmt := range program.Statements {
		switch stmt.(type) {
		case *ast.LetStatement, *ast.AssignStatement,
			*ast.FunctionStatement, *ast.EnumStatement, *ast.StructStatement:
		default:
			return false
		}
	}
	return true
}
