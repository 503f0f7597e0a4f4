package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"

	"mica/internal/ast"
	"mica/internal/value"
)

func (g *Generator) genStmt(bb *ir.Block, stmt ast.Statement) *ir.Block {
	switch s := stmt.(type) {
	case *ast.LetStatement:
		v, bb := g.genExpr(bb, s.Value)
		g.defineVar(bb, s.Name.Value, v)
		return bb

	case *ast.AssignStatement:
		slot := g.lookupVar(s.Name.Value)
		v, bb := g.genExpr(bb, s.Value)
		// The old value stays readable while the right side runs; it is
		// released only once the replacement exists.
		if g.info.AssignFrees[s] {
			old := bb.NewLoad(g.rt.valueType, slot)
			bb.NewCall(g.rt.valueFree, old)
		}
		bb.NewStore(v, slot)
		return bb

	case *ast.ReturnStatement:
		var v irValue = g.nullValue()
		if s.ReturnValue != nil {
			v, bb = g.genExpr(bb, s.ReturnValue)
		}
		g.freeAllScopes(bb)
		bb.NewRet(v)
		return bb

	case *ast.WhileStatement:
		return g.genWhile(bb, s)

	case *ast.ExpressionStatement:
		switch branch := s.Expression.(type) {
		case *ast.IfExpression:
			return g.genIf(bb, branch)
		case *ast.MatchExpression:
			return g.genMatch(bb, branch)
		}
		v, bb := g.genExpr(bb, s.Expression)
		if g.info.DiscardFrees[s] {
			bb.NewCall(g.rt.valueFree, v)
		}
		return bb

	case *ast.FunctionStatement, *ast.EnumStatement, *ast.StructStatement:
		return bb

	case *ast.BlockStatement:
		return g.genBlock(bb, s)

	default:
		panic(fmt.Sprintf("codegen: unknown statement %T", stmt))
	}
}

// genBlock lowers a brace scope. Paths that fall out the bottom run the
// scope's destructor list; paths that return ran it via freeAllScopes.
func (g *Generator) genBlock(bb *ir.Block, block *ast.BlockStatement) *ir.Block {
	g.pushScope(g.info.BlockFrees[block])
	for _, stmt := range block.Statements {
		bb = g.genStmt(bb, stmt)
		if bb.Term != nil {
			break
		}
	}
	if bb.Term == nil {
		g.freeScope(bb, g.scopes[len(g.scopes)-1])
	}
	g.popScope()
	return bb
}

func (g *Generator) genWhile(bb *ir.Block, s *ast.WhileStatement) *ir.Block {
	g.whileCount++
	id := g.whileCount
	condBB := bb.Parent.NewBlock(fmt.Sprintf("while.cond.%d", id))
	bodyBB := bb.Parent.NewBlock(fmt.Sprintf("while.body.%d", id))
	exitBB := bb.Parent.NewBlock(fmt.Sprintf("while.exit.%d", id))

	bb.NewBr(condBB)

	condVal, condEnd := g.genExpr(condBB, s.Condition)
	cond := condEnd.NewCall(g.rt.asBool, condVal)
	condEnd.NewCondBr(cond, bodyBB, exitBB)

	bodyEnd := g.genBlock(bodyBB, s.Body)
	if bodyEnd.Term == nil {
		bodyEnd.NewBr(condBB)
	}
	return exitBB
}

func (g *Generator) genIf(bb *ir.Block, s *ast.IfExpression) *ir.Block {
	g.ifCount++
	id := g.ifCount

	condVal, bb := g.genExpr(bb, s.Condition)
	cond := bb.NewCall(g.rt.asBool, condVal)

	thenBB := bb.Parent.NewBlock(fmt.Sprintf("if.then.%d", id))
	elseBB := bb.Parent.NewBlock(fmt.Sprintf("if.else.%d", id))
	mergeBB := bb.Parent.NewBlock(fmt.Sprintf("if.merge.%d", id))
	bb.NewCondBr(cond, thenBB, elseBB)

	thenEnd := g.genBlock(thenBB, s.Consequence)
	if thenEnd.Term == nil {
		thenEnd.NewBr(mergeBB)
	}

	if s.Alternative != nil {
		elseEnd := g.genBlock(elseBB, s.Alternative)
		if elseEnd.Term == nil {
			elseEnd.NewBr(mergeBB)
		}
	} else {
		elseBB.NewBr(mergeBB)
	}
	return mergeBB
}

// genMatch lowers a match to a discriminant comparison chain. Analysis
// guarantees exhaustiveness, so the fallthrough block is a corruption
// trap, never reachable from well-formed data.
func (g *Generator) genMatch(bb *ir.Block, s *ast.MatchExpression) *ir.Block {
	g.matchCount++
	id := g.matchCount

	subject, bb := g.genExpr(bb, s.Subject)
	et := g.info.TypeOf(s.Subject)
	decl, _ := g.info.Registry.Enum(et.String())

	// A subject with no binding is freed by the match itself; the scope
	// adoption covers arm bodies that return.
	temp := true
	switch s.Subject.(type) {
	case *ast.Identifier, *ast.MemberAccessExpression, *ast.IndexExpression:
		temp = false
	}
	if temp {
		g.pushScope(nil)
		top := g.scopes[len(g.scopes)-1]
		top.temps = append(top.temps, subject)
	}

	discr := bb.NewCall(g.rt.enumDiscr, subject)
	mergeBB := bb.Parent.NewBlock(fmt.Sprintf("match.merge.%d", id))
	trapBB := bb.Parent.NewBlock(fmt.Sprintf("match.trap.%d", id))

	current := bb
	for i, arm := range s.Arms {
		variant, _ := decl.VariantNamed(arm.Variant.Value)
		armBB := bb.Parent.NewBlock(fmt.Sprintf("match.arm.%d.%d", id, i))
		var next *ir.Block
		if i+1 < len(s.Arms) {
			next = bb.Parent.NewBlock(fmt.Sprintf("match.next.%d.%d", id, i+1))
		} else {
			next = trapBB
		}
		hit := current.NewICmp(enum.IPredEQ, discr, i64(int64(variant.Discriminant)))
		current.NewCondBr(hit, armBB, next)

		// Bindings are views over the subject's fields; they are not
		// owned and never appear in an obligation list.
		g.pushScope(nil)
		armCur := armBB
		for j, b := range arm.Bindings {
			field := armCur.NewCall(g.rt.recordGet, subject, tagConst(value.TagEnum), i64(int64(j)))
			g.defineVar(armCur, b.Value, field)
		}
		armEnd := g.genBlock(armCur, arm.Body)
		g.popScope()
		if armEnd.Term == nil {
			armEnd.NewBr(mergeBB)
		}
		current = next
	}

	if len(s.Arms) == 0 {
		current.NewBr(trapBB)
	}

	msg := g.stringPtr("no arm matches enum discriminant")
	trapBB.NewCall(g.rt.panicFn, msg)
	trapBB.NewUnreachable()

	if temp {
		g.freeScope(mergeBB, g.scopes[len(g.scopes)-1])
		g.popScope()
	}
	return mergeBB
}
