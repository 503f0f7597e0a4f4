// Package evaluator executes analyzed programs directly over the tagged
// value representation. It is the reference for the semantics the native
// backend compiles to: the same boxing, the same tag checks, the same
// scope-exit destruction driven by the analysis side table.
package evaluator

import (
	"io"

	"mica/internal/ast"
	"mica/internal/sema"
	"mica/internal/value"
)

// control tells a statement's caller how execution left it.
type control int

const (
	ctrlNone control = iota
	ctrlReturn
)

type Evaluator struct {
	heap   *value.Heap
	info   *sema.Info
	out    io.Writer
	global *environment
	funcs  map[string]*ast.FunctionStatement
}

// New prepares an evaluator for one analyzed program. out receives
// print output.
func New(info *sema.Info, out io.Writer) *Evaluator {
	return &Evaluator{
		heap:   value.NewHeap(),
		info:   info,
		out:    out,
		global: newEnvironment(nil),
		funcs:  make(map[string]*ast.FunctionStatement),
	}
}

// Heap exposes the live-allocation view; tests use it to prove that
// programs free everything they create.
func (e *Evaluator) Heap() *value.Heap { return e.heap }

// Run executes the program's top-level statements in order. A runtime
// panic (tag mismatch, out-of-bounds index, division by zero) aborts
// execution and is returned as the error.
func (e *Evaluator) Run(program *ast.Program) error {
	for _, stmt := range program.Statements {
		if fn, ok := stmt.(*ast.FunctionStatement); ok {
			e.funcs[fn.Name.Value] = fn
		}
	}

	for _, stmt := range program.Statements {
		ctrl, _, p := e.execStatement(stmt, e.global)
		if p != nil {
			return p
		}
		if ctrl == ctrlReturn {
			break
		}
	}

	if p := e.freeObligations(e.info.TopFrees, e.global); p != nil {
		return p
	}
	return nil
}

// freeObligations destroys what a closing scope still owns, most
// recently declared first.
func (e *Evaluator) freeObligations(obligations []sema.Obligation, env *environment) *value.Panic {
	for _, ob := range obligations {
		v, ok := env.get(ob.Name)
		if !ok {
			continue // declaration itself failed at runtime; nothing to free
		}
		if p := e.heap.Free(v); p != nil {
			return p
		}
	}
	return nil
}
