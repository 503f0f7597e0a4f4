package codegen

import (
	"fmt"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"

	"mica/internal/ast"
	"mica/internal/types"
	"mica/internal/value"
)

func (g *Generator) genExpr(bb *ir.Block, expr ast.Expression) (irValue, *ir.Block) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return g.intValue(e.Value), bb
	case *ast.FloatLiteral:
		return g.floatValue(e.Value), bb
	case *ast.Boolean:
		return g.boolValue(e.Value), bb
	case *ast.NullLiteral:
		return g.nullValue(), bb

	case *ast.StringLiteral:
		// Interned static data; the payload is the address itself.
		addr := constant.NewPtrToInt(g.stringPtr(e.Value), irtypes.I64)
		return constant.NewStruct(g.rt.valueType, tagConst(value.TagString), addr), bb

	case *ast.Identifier:
		slot := g.lookupVar(e.Value)
		return bb.NewLoad(g.rt.valueType, slot), bb

	case *ast.PrefixExpression:
		return g.genPrefix(bb, e)
	case *ast.InfixExpression:
		return g.genInfix(bb, e)

	case *ast.IndexExpression:
		list, bb := g.genExpr(bb, e.Left)
		idxBox, bb := g.genExpr(bb, e.Index)
		idx := bb.NewCall(g.rt.asInt, idxBox)
		return bb.NewCall(g.rt.listGet, list, idx), bb

	case *ast.MemberAccessExpression:
		return g.genMemberAccess(bb, e)

	case *ast.CallExpression:
		return g.genCall(bb, e)

	case *ast.ListLiteral:
		list := bb.NewCall(g.rt.listNew)
		cur := bb
		for _, el := range e.Elements {
			var v irValue
			v, cur = g.genExpr(cur, el)
			cur.NewCall(g.rt.listPush, list, v)
		}
		return list, cur

	case *ast.TupleLiteral:
		rec := bb.NewCall(g.rt.recordNew, tagConst(value.TagTuple), i64(0), i64(int64(len(e.Elements))))
		cur := bb
		for i, el := range e.Elements {
			var v irValue
			v, cur = g.genExpr(cur, el)
			cur.NewCall(g.rt.recordSet, rec, i64(int64(i)), v)
		}
		return rec, cur

	case *ast.StructLiteral:
		return g.genStructLiteral(bb, e)

	case *ast.EnumVariantExpression:
		return g.genEnumVariant(bb, e)

	default:
		panic(fmt.Sprintf("codegen: unknown expression %T", expr))
	}
}

func (g *Generator) genPrefix(bb *ir.Block, e *ast.PrefixExpression) (irValue, *ir.Block) {
	operand, bb := g.genExpr(bb, e.Right)
	switch e.Operator {
	case "-":
		if types.Float.Equal(g.info.TypeOf(e)) {
			f := bb.NewCall(g.rt.asFloat, operand)
			return bb.NewCall(g.rt.boxFloat, bb.NewFNeg(f)), bb
		}
		n := bb.NewCall(g.rt.asInt, operand)
		return bb.NewCall(g.rt.boxInt, bb.NewSub(i64(0), n)), bb
	case "!":
		b := bb.NewCall(g.rt.asBool, operand)
		return bb.NewCall(g.rt.boxBool, bb.NewXor(b, constant.True)), bb
	}
	panic("codegen: unknown prefix operator " + e.Operator)
}

func (g *Generator) genInfix(bb *ir.Block, e *ast.InfixExpression) (irValue, *ir.Block) {
	if e.Operator == "&&" || e.Operator == "||" {
		return g.genShortCircuit(bb, e)
	}

	left, bb := g.genExpr(bb, e.Left)
	right, bb := g.genExpr(bb, e.Right)
	operandType := g.info.TypeOf(e.Left)

	switch {
	case types.Int.Equal(operandType):
		l := bb.NewCall(g.rt.asInt, left)
		r := bb.NewCall(g.rt.asInt, right)
		return g.genIntOp(bb, e.Operator, l, r)
	case types.Float.Equal(operandType):
		l := bb.NewCall(g.rt.asFloat, left)
		r := bb.NewCall(g.rt.asFloat, right)
		return g.genFloatOp(bb, e.Operator, l, r)
	default:
		// bool, string and null: equality over raw payloads. Strings are
		// interned, so identical content means identical address.
		lp := bb.NewExtractValue(left, 1)
		rp := bb.NewExtractValue(right, 1)
		pred := enum.IPredEQ
		if e.Operator == "!=" {
			pred = enum.IPredNE
		}
		return bb.NewCall(g.rt.boxBool, bb.NewICmp(pred, lp, rp)), bb
	}
}

func (g *Generator) genIntOp(bb *ir.Block, op string, l, r irValue) (irValue, *ir.Block) {
	switch op {
	case "+":
		return bb.NewCall(g.rt.boxInt, bb.NewAdd(l, r)), bb
	case "-":
		return bb.NewCall(g.rt.boxInt, bb.NewSub(l, r)), bb
	case "*":
		return bb.NewCall(g.rt.boxInt, bb.NewMul(l, r)), bb
	case "/":
		bb = g.genDivGuard(bb, r)
		return bb.NewCall(g.rt.boxInt, bb.NewSDiv(l, r)), bb
	case "%":
		bb = g.genDivGuard(bb, r)
		return bb.NewCall(g.rt.boxInt, bb.NewSRem(l, r)), bb
	}
	var pred enum.IPred
	switch op {
	case "<":
		pred = enum.IPredSLT
	case ">":
		pred = enum.IPredSGT
	case "<=":
		pred = enum.IPredSLE
	case ">=":
		pred = enum.IPredSGE
	case "==":
		pred = enum.IPredEQ
	case "!=":
		pred = enum.IPredNE
	default:
		panic("codegen: unknown integer operator " + op)
	}
	return bb.NewCall(g.rt.boxBool, bb.NewICmp(pred, l, r)), bb
}

func (g *Generator) genFloatOp(bb *ir.Block, op string, l, r irValue) (irValue, *ir.Block) {
	switch op {
	case "+":
		return bb.NewCall(g.rt.boxFloat, bb.NewFAdd(l, r)), bb
	case "-":
		return bb.NewCall(g.rt.boxFloat, bb.NewFSub(l, r)), bb
	case "*":
		return bb.NewCall(g.rt.boxFloat, bb.NewFMul(l, r)), bb
	case "/":
		return bb.NewCall(g.rt.boxFloat, bb.NewFDiv(l, r)), bb
	}
	var pred enum.FPred
	switch op {
	case "<":
		pred = enum.FPredOLT
	case ">":
		pred = enum.FPredOGT
	case "<=":
		pred = enum.FPredOLE
	case ">=":
		pred = enum.FPredOGE
	case "==":
		pred = enum.FPredOEQ
	case "!=":
		pred = enum.FPredONE
	default:
		panic("codegen: unknown float operator " + op)
	}
	return bb.NewCall(g.rt.boxBool, bb.NewFCmp(pred, l, r)), bb
}

// genDivGuard traps a zero divisor before the division instruction, the
// same failure channel the interpreter uses.
func (g *Generator) genDivGuard(bb *ir.Block, divisor irValue) *ir.Block {
	g.divCount++
	id := g.divCount
	failBB := bb.Parent.NewBlock(fmt.Sprintf("div.fail.%d", id))
	okBB := bb.Parent.NewBlock(fmt.Sprintf("div.ok.%d", id))

	isZero := bb.NewICmp(enum.IPredEQ, divisor, i64(0))
	bb.NewCondBr(isZero, failBB, okBB)

	failBB.NewCall(g.rt.panicFn, g.stringPtr("integer division by zero"))
	failBB.NewUnreachable()
	return okBB
}

// genShortCircuit lowers && and || so the right operand only evaluates
// when it can still change the outcome.
func (g *Generator) genShortCircuit(bb *ir.Block, e *ast.InfixExpression) (irValue, *ir.Block) {
	g.boolCount++
	id := g.boolCount
	rhsBB := bb.Parent.NewBlock(fmt.Sprintf("bool.rhs.%d", id))
	mergeBB := bb.Parent.NewBlock(fmt.Sprintf("bool.merge.%d", id))

	left, bb := g.genExpr(bb, e.Left)
	lb := bb.NewCall(g.rt.asBool, left)
	if e.Operator == "&&" {
		bb.NewCondBr(lb, rhsBB, mergeBB)
	} else {
		bb.NewCondBr(lb, mergeBB, rhsBB)
	}

	right, rhsEnd := g.genExpr(rhsBB, e.Right)
	rb := rhsEnd.NewCall(g.rt.asBool, right)
	rhsEnd.NewBr(mergeBB)

	short := constant.False
	if e.Operator == "||" {
		short = constant.True
	}
	merged := mergeBB.NewPhi(
		ir.NewIncoming(short, bb),
		ir.NewIncoming(rb, rhsEnd),
	)
	return mergeBB.NewCall(g.rt.boxBool, merged), mergeBB
}

func (g *Generator) genMemberAccess(bb *ir.Block, e *ast.MemberAccessExpression) (irValue, *ir.Block) {
	obj, bb := g.genExpr(bb, e.Object)
	switch ot := g.info.TypeOf(e.Object).(type) {
	case types.Struct:
		decl, ok := g.info.Registry.Struct(ot.Name)
		if !ok {
			panic("codegen: unknown struct " + ot.Name)
		}
		_, idx, ok := decl.FieldNamed(e.Property.Value)
		if !ok {
			panic("codegen: unknown field " + e.Property.Value)
		}
		return bb.NewCall(g.rt.recordGet, obj, tagConst(value.TagStruct), i64(int64(idx))), bb
	case types.Tuple:
		idx, err := strconv.Atoi(e.Property.Value)
		if err != nil {
			panic("codegen: bad tuple index " + e.Property.Value)
		}
		return bb.NewCall(g.rt.recordGet, obj, tagConst(value.TagTuple), i64(int64(idx))), bb
	}
	panic(fmt.Sprintf("codegen: member access on %s", g.info.TypeOf(e.Object)))
}

func (g *Generator) genCall(bb *ir.Block, e *ast.CallExpression) (irValue, *ir.Block) {
	name := e.Function.(*ast.Identifier).Value

	if f, ok := g.funcs[name]; ok {
		args := make([]irValue, 0, len(e.Arguments))
		cur := bb
		for _, arg := range e.Arguments {
			var v irValue
			v, cur = g.genExpr(cur, arg)
			args = append(args, v)
		}
		return cur.NewCall(f, args...), cur
	}

	switch name {
	case "print":
		v, bb := g.genExpr(bb, e.Arguments[0])
		bb = g.genPrint(bb, v, g.info.TypeOf(e.Arguments[0]), true)
		g.freeUnownedArg(bb, e.Arguments[0], v)
		return g.nullValue(), bb
	case "len":
		v, bb := g.genExpr(bb, e.Arguments[0])
		n := bb.NewCall(g.rt.listLen, v)
		g.freeUnownedArg(bb, e.Arguments[0], v)
		return bb.NewCall(g.rt.boxInt, n), bb
	case "is_empty":
		v, bb := g.genExpr(bb, e.Arguments[0])
		n := bb.NewCall(g.rt.listLen, v)
		g.freeUnownedArg(bb, e.Arguments[0], v)
		return bb.NewCall(g.rt.boxBool, bb.NewICmp(enum.IPredEQ, n, i64(0))), bb
	case "push":
		list, bb := g.genExpr(bb, e.Arguments[0])
		elem, bb := g.genExpr(bb, e.Arguments[1])
		bb.NewCall(g.rt.listPush, list, elem)
		g.freeUnownedArg(bb, e.Arguments[0], list)
		return g.nullValue(), bb
	}
	panic("codegen: unknown function " + name)
}

// freeUnownedArg releases a builtin argument the analysis marked as
// ownerless, once the builtin is done with it.
func (g *Generator) freeUnownedArg(bb *ir.Block, arg ast.Expression, v irValue) {
	if g.info.ArgFrees[arg] {
		bb.NewCall(g.rt.valueFree, v)
	}
}

func (g *Generator) genStructLiteral(bb *ir.Block, e *ast.StructLiteral) (irValue, *ir.Block) {
	decl, ok := g.info.Registry.Struct(e.TypeName.Value)
	if !ok {
		panic("codegen: unknown struct " + e.TypeName.Value)
	}
	rec := bb.NewCall(g.rt.recordNew, tagConst(value.TagStruct), i64(0), i64(int64(len(decl.Fields))))
	cur := bb
	// Field values land at their declaration index, whatever order the
	// literal wrote them in.
	for _, init := range e.Fields {
		_, idx, ok := decl.FieldNamed(init.Name.Value)
		if !ok {
			continue
		}
		var v irValue
		v, cur = g.genExpr(cur, init.Value)
		cur.NewCall(g.rt.recordSet, rec, i64(int64(idx)), v)
	}
	return rec, cur
}

func (g *Generator) genEnumVariant(bb *ir.Block, e *ast.EnumVariantExpression) (irValue, *ir.Block) {
	decl, ok := g.info.Registry.Enum(e.EnumName.Value)
	if !ok {
		panic("codegen: unknown enum " + e.EnumName.Value)
	}
	variant, ok := decl.VariantNamed(e.Variant.Value)
	if !ok {
		panic("codegen: unknown variant " + e.Variant.Value)
	}
	rec := bb.NewCall(g.rt.recordNew, tagConst(value.TagEnum),
		i64(int64(variant.Discriminant)), i64(int64(len(e.Arguments))))
	cur := bb
	for i, arg := range e.Arguments {
		var v irValue
		v, cur = g.genExpr(cur, arg)
		cur.NewCall(g.rt.recordSet, rec, i64(int64(i)), v)
	}
	return rec, cur
}
