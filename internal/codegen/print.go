package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"

	"mica/internal/types"
	"mica/internal/value"
)

// genPrint lowers one print call. The static type drives the format:
// the boxed representation alone cannot name a struct or pick an enum
// variant's spelling, the type tables can.
func (g *Generator) genPrint(bb *ir.Block, v irValue, t types.Type, newline bool) *ir.Block {
	bb = g.genPrintValue(bb, v, t)
	if newline {
		g.printLit(bb, "\n")
	}
	return bb
}

// printLit emits a printf of fixed text. Only compiler-chosen separators
// go through here, never user data.
func (g *Generator) printLit(bb *ir.Block, s string) {
	bb.NewCall(g.rt.printf, g.stringPtr(s))
}

func (g *Generator) genPrintValue(bb *ir.Block, v irValue, t types.Type) *ir.Block {
	switch ty := t.(type) {
	case types.Basic:
		switch ty {
		case types.Int:
			n := bb.NewCall(g.rt.asInt, v)
			bb.NewCall(g.rt.printf, g.stringPtr("%lld"), n)
		case types.Float:
			f := bb.NewCall(g.rt.asFloat, v)
			bb.NewCall(g.rt.printf, g.stringPtr("%g"), f)
		case types.Bool:
			b := bb.NewCall(g.rt.asBool, v)
			sel := bb.NewSelect(b, g.stringPtr("true"), g.stringPtr("false"))
			bb.NewCall(g.rt.printf, g.stringPtr("%s"), sel)
		case types.String:
			s := bb.NewCall(g.rt.asString, v)
			bb.NewCall(g.rt.printf, g.stringPtr("%s"), s)
		case types.Null:
			g.printLit(bb, "null")
		}
		return bb

	case types.List:
		return g.genPrintList(bb, v, ty)

	case types.Tuple:
		g.printLit(bb, "(")
		for i, elem := range ty.Elems {
			if i > 0 {
				g.printLit(bb, ", ")
			}
			f := bb.NewCall(g.rt.recordGet, v, tagConst(value.TagTuple), i64(int64(i)))
			bb = g.genPrintValue(bb, f, elem)
		}
		g.printLit(bb, ")")
		return bb

	case types.Struct:
		decl, ok := g.info.Registry.Struct(ty.Name)
		if !ok {
			panic("codegen: unknown struct " + ty.Name)
		}
		g.printLit(bb, decl.Name+" { ")
		for i, field := range decl.Fields {
			if i > 0 {
				g.printLit(bb, ", ")
			}
			g.printLit(bb, field.Name+": ")
			f := bb.NewCall(g.rt.recordGet, v, tagConst(value.TagStruct), i64(int64(i)))
			bb = g.genPrintValue(bb, f, field.Type)
		}
		g.printLit(bb, " }")
		return bb

	case types.Enum:
		return g.genPrintEnum(bb, v, ty)
	}
	panic(fmt.Sprintf("codegen: cannot print %s", t))
}

// genPrintList walks the elements at runtime, separator before every
// element but the first.
func (g *Generator) genPrintList(bb *ir.Block, v irValue, ty types.List) *ir.Block {
	g.listPrintCount++
	id := g.listPrintCount

	g.printLit(bb, "[")
	length := bb.NewCall(g.rt.listLen, v)

	condBB := bb.Parent.NewBlock(fmt.Sprintf("print.list.cond.%d", id))
	bodyBB := bb.Parent.NewBlock(fmt.Sprintf("print.list.body.%d", id))
	sepBB := bb.Parent.NewBlock(fmt.Sprintf("print.list.sep.%d", id))
	elemBB := bb.Parent.NewBlock(fmt.Sprintf("print.list.elem.%d", id))
	afterBB := bb.Parent.NewBlock(fmt.Sprintf("print.list.after.%d", id))

	bb.NewBr(condBB)

	i := condBB.NewPhi(ir.NewIncoming(i64(0), bb))
	more := condBB.NewICmp(enum.IPredSLT, i, length)
	condBB.NewCondBr(more, bodyBB, afterBB)

	first := bodyBB.NewICmp(enum.IPredEQ, i, i64(0))
	bodyBB.NewCondBr(first, elemBB, sepBB)

	g.printLit(sepBB, ", ")
	sepBB.NewBr(elemBB)

	elem := elemBB.NewCall(g.rt.listGet, v, i)
	elemEnd := g.genPrintValue(elemBB, elem, ty.Elem)
	next := elemEnd.NewAdd(i, i64(1))
	elemEnd.NewBr(condBB)
	i.Incs = append(i.Incs, ir.NewIncoming(next, elemEnd))

	g.printLit(afterBB, "]")
	return afterBB
}

// genPrintEnum branches on the discriminant to spell the right variant.
func (g *Generator) genPrintEnum(bb *ir.Block, v irValue, ty types.Enum) *ir.Block {
	decl, ok := g.info.Registry.Enum(ty.Name)
	if !ok {
		panic("codegen: unknown enum " + ty.Name)
	}
	g.enumPrintCount++
	id := g.enumPrintCount

	discr := bb.NewCall(g.rt.enumDiscr, v)
	mergeBB := bb.Parent.NewBlock(fmt.Sprintf("print.enum.merge.%d", id))
	trapBB := bb.Parent.NewBlock(fmt.Sprintf("print.enum.trap.%d", id))

	cases := make([]*ir.Case, 0, len(decl.Variants))
	for vi, variant := range decl.Variants {
		caseBB := bb.Parent.NewBlock(fmt.Sprintf("print.enum.case.%d.%d", id, vi))
		cases = append(cases, ir.NewCase(i64(int64(variant.Discriminant)), caseBB))

		cur := caseBB
		g.printLit(cur, decl.Name+"::"+variant.Name)
		if len(variant.Fields) > 0 {
			g.printLit(cur, "(")
			for fi, ft := range variant.Fields {
				if fi > 0 {
					g.printLit(cur, ", ")
				}
				f := cur.NewCall(g.rt.recordGet, v, tagConst(value.TagEnum), i64(int64(fi)))
				cur = g.genPrintValue(cur, f, ft)
			}
			g.printLit(cur, ")")
		}
		cur.NewBr(mergeBB)
	}
	bb.NewSwitch(discr, trapBB, cases...)

	trapBB.NewCall(g.rt.panicFn, g.stringPtr("no variant for enum discriminant"))
	trapBB.NewUnreachable()

	return mergeBB
}
