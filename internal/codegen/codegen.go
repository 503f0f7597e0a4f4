// Package codegen lowers analyzed programs to LLVM IR. Every value is
// the same two-word box the interpreter uses; unboxing sites emit a tag
// check that dies loudly on mismatch, and the ownership side table from
// analysis turns into explicit destructor calls on scope exits.
package codegen

import (
	"fmt"
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"mica/internal/ast"
	"mica/internal/sema"
	"mica/internal/value"
)

type Generator struct {
	module *ir.Module
	rt     *runtime
	info   *sema.Info

	funcs map[string]*ir.Func

	// scopes mirrors the analyzer's scope stack: variable slots plus
	// what each scope must destroy on the way out.
	scopes []*genScope

	// interned string literals, one global per distinct content, so
	// equal literals compare equal by payload.
	strings map[string]*ir.Global

	ifCount        int
	whileCount     int
	matchCount     int
	boolCount      int
	divCount       int
	stringCount    int
	listPrintCount int
	enumPrintCount int
}

// genScope is one live brace scope during lowering.
type genScope struct {
	vars        map[string]*ir.InstAlloca
	obligations []sema.Obligation

	// temps are unowned intermediate boxes (a match on a call result)
	// that this scope frees alongside its obligations.
	temps []irValue
}

func New(info *sema.Info) *Generator {
	m := ir.NewModule()
	return &Generator{
		module:  m,
		rt:      emitRuntime(m),
		info:    info,
		funcs:   make(map[string]*ir.Func),
		strings: make(map[string]*ir.Global),
	}
}

// Compile lowers a checked program into a self-contained module with a
// C main. Call it only when analysis reported no diagnostics.
func (g *Generator) Compile(program *ast.Program) *ir.Module {
	// Declare every function first so bodies can call forward.
	for _, stmt := range program.Statements {
		if fn, ok := stmt.(*ast.FunctionStatement); ok {
			g.declareFunction(fn)
		}
	}
	for _, stmt := range program.Statements {
		if fn, ok := stmt.(*ast.FunctionStatement); ok {
			g.genFunction(fn)
		}
	}

	mainFn := g.module.NewFunc("main", types.I32)
	bb := mainFn.NewBlock("entry")

	g.pushScope(g.info.TopFrees)
	for _, stmt := range program.Statements {
		if _, ok := stmt.(*ast.FunctionStatement); ok {
			continue
		}
		bb = g.genStmt(bb, stmt)
		if bb.Term != nil {
			break
		}
	}
	if bb.Term == nil {
		g.freeScope(bb, g.scopes[len(g.scopes)-1])
		bb.NewRet(i32(0))
	}
	g.popScope()

	return g.module
}

// mangle keeps user functions clear of the runtime's mica_* namespace
// and of libc.
func mangle(name string) string {
	return "mica.user." + name
}

func (g *Generator) declareFunction(s *ast.FunctionStatement) {
	sig := g.info.Functions[s.Name.Value]
	params := make([]*ir.Param, 0, len(sig.Params))
	for _, p := range sig.Params {
		params = append(params, ir.NewParam(p.Name, g.rt.valueType))
	}
	f := g.module.NewFunc(mangle(s.Name.Value), g.rt.valueType, params...)
	g.funcs[s.Name.Value] = f
}

func (g *Generator) genFunction(s *ast.FunctionStatement) {
	f := g.funcs[s.Name.Value]
	bb := f.NewBlock("entry")

	// Parameters arrive owned; they live in the body scope and its
	// obligation list already covers the ones the body keeps.
	g.pushScope(g.info.BlockFrees[s.Function.Body])
	for _, param := range f.Params {
		slot := bb.NewAlloca(g.rt.valueType)
		bb.NewStore(param, slot)
		g.scopes[len(g.scopes)-1].vars[param.LocalName] = slot
	}

	for _, stmt := range s.Function.Body.Statements {
		bb = g.genStmt(bb, stmt)
		if bb.Term != nil {
			break
		}
	}
	if bb.Term == nil {
		g.freeScope(bb, g.scopes[len(g.scopes)-1])
		bb.NewRet(g.nullValue())
	}
	g.popScope()
}

func (g *Generator) pushScope(obligations []sema.Obligation) {
	g.scopes = append(g.scopes, &genScope{
		vars:        make(map[string]*ir.InstAlloca),
		obligations: obligations,
	})
}

func (g *Generator) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

func (g *Generator) defineVar(bb *ir.Block, name string, v irValue) {
	s := g.scopes[len(g.scopes)-1]
	slot, ok := s.vars[name]
	if !ok {
		slot = bb.NewAlloca(g.rt.valueType)
		s.vars[name] = slot
	}
	bb.NewStore(v, slot)
}

func (g *Generator) lookupVar(name string) *ir.InstAlloca {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if slot, ok := g.scopes[i].vars[name]; ok {
			return slot
		}
	}
	panic("codegen: unbound variable " + name)
}

// freeScope emits the destructor calls one scope owes, most recently
// declared first, plus any unowned temporaries it adopted.
func (g *Generator) freeScope(bb *ir.Block, s *genScope) {
	for _, ob := range s.obligations {
		slot, ok := s.vars[ob.Name]
		if !ok {
			continue
		}
		v := bb.NewLoad(g.rt.valueType, slot)
		bb.NewCall(g.rt.valueFree, v)
	}
	for i := len(s.temps) - 1; i >= 0; i-- {
		bb.NewCall(g.rt.valueFree, s.temps[i])
	}
}

// freeAllScopes unwinds the whole stack for an early return; the moved
// return value is never in any obligation list.
func (g *Generator) freeAllScopes(bb *ir.Block) {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		g.freeScope(bb, g.scopes[i])
	}
}

// constValue builds a boxed constant in place, no runtime call needed.
func (g *Generator) constValue(tag value.Tag, payload uint64) constant.Constant {
	return constant.NewStruct(g.rt.valueType,
		tagConst(tag), constant.NewInt(types.I64, int64(payload)))
}

func (g *Generator) nullValue() constant.Constant {
	return g.constValue(value.TagNull, 0)
}

func (g *Generator) intValue(n int64) constant.Constant {
	return g.constValue(value.TagInt, uint64(n))
}

func (g *Generator) floatValue(f float64) constant.Constant {
	return g.constValue(value.TagFloat, math.Float64bits(f))
}

func (g *Generator) boolValue(b bool) constant.Constant {
	if b {
		return g.constValue(value.TagBool, 1)
	}
	return g.constValue(value.TagBool, 0)
}

// stringPtr interns a literal and returns the i8* to its first byte.
func (g *Generator) stringPtr(s string) constant.Constant {
	global, ok := g.strings[s]
	if !ok {
		g.stringCount++
		global = cstr(g.module, fmt.Sprintf("mica.str.%d", g.stringCount), s)
		g.strings[s] = global
	}
	return strGEP(global)
}
