package sema

import (
	"mica/internal/ast"
	"mica/internal/diag"
	"mica/internal/types"
)

func (a *analyzer) checkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.LetStatement:
		a.checkLetStatement(s)
	case *ast.AssignStatement:
		a.checkAssignStatement(s)
	case *ast.ReturnStatement:
		a.checkReturnStatement(s)
	case *ast.WhileStatement:
		a.checkWhileStatement(s)
	case *ast.FunctionStatement:
		a.checkFunctionBody(s)
	case *ast.EnumStatement, *ast.StructStatement:
		// handled by the declaration pass
	case *ast.ExpressionStatement:
		a.checkExpressionStatement(s)
	case *ast.BlockStatement:
		a.checkBlock(s)
	}
}

// checkBlock walks a brace scope and records what it must destroy on the
// way out.
func (a *analyzer) checkBlock(block *ast.BlockStatement) {
	a.pushScope()
	for _, stmt := range block.Statements {
		a.checkStatement(stmt)
	}
	a.info.BlockFrees[block] = a.popScopeObligations()
}

func (a *analyzer) checkLetStatement(s *ast.LetStatement) {
	var declared types.Type
	if s.TypeName != "" {
		t, err := types.Parse(s.TypeName, a.info.Registry)
		if err != nil {
			a.errorAt(s.Name.Token, diag.UndefinedType, "in declaration of %s: %v", s.Name.Value, err)
		} else {
			declared = t
		}
	}

	valType := a.checkExpr(s.Value, declared)
	if declared != nil && valType != nil && !declared.Equal(valType) {
		a.errorNode(s.Value, diag.TypeMismatch,
			"cannot initialize %s: declared %s, got %s", s.Name.Value, declared, valType)
	}
	a.moveOperand(s.Value)

	bindType := valType
	if declared != nil {
		bindType = declared
	}
	if bindType == nil {
		bindType = types.Null // error already reported, keep going
	}
	a.declare(s.Name.Value, bindType, s.Name.Token, true)
}

func (a *analyzer) checkAssignStatement(s *ast.AssignStatement) {
	v, ok := a.lookup(s.Name.Value)
	if !ok {
		a.errorAt(s.Name.Token, diag.UndefinedName, "undefined variable: %s", s.Name.Value)
		a.checkExpr(s.Value, nil)
		return
	}
	if !v.owned {
		a.errorAt(s.Name.Token, diag.TypeMismatch,
			"cannot assign to %s: match bindings are read-only views", s.Name.Value)
		a.checkExpr(s.Value, nil)
		return
	}

	valType := a.checkExpr(s.Value, v.typ)
	if valType != nil && !v.typ.Equal(valType) {
		a.errorNode(s.Value, diag.TypeMismatch,
			"cannot assign %s to %s (declared %s)", valType, s.Name.Value, v.typ)
	}
	a.moveOperand(s.Value)

	// Overwriting a still-owned heap value destroys it first; a moved
	// variable holds nothing, the assignment just re-initializes it.
	if types.IsHeapOwning(v.typ) && !v.moved {
		a.info.AssignFrees[s] = true
	}
	v.moved = false
}

func (a *analyzer) checkReturnStatement(s *ast.ReturnStatement) {
	if a.curFunc == nil {
		a.errorAt(s.Token, diag.SyntaxError, "return outside of a function")
		if s.ReturnValue != nil {
			a.checkExpr(s.ReturnValue, nil)
		}
		return
	}

	if s.ReturnValue == nil {
		if !a.curFunc.Result.Equal(types.Null) {
			a.errorAt(s.Token, diag.TypeMismatch,
				"%s declares return type %s, bare return returns null", a.curFunc.Name, a.curFunc.Result)
		}
		return
	}

	valType := a.checkExpr(s.ReturnValue, a.curFunc.Result)
	if valType != nil && !a.curFunc.Result.Equal(valType) {
		a.errorNode(s.ReturnValue, diag.TypeMismatch,
			"%s returns %s, got %s", a.curFunc.Name, a.curFunc.Result, valType)
	}
	// Ownership of the returned value transfers to the caller.
	a.moveOperand(s.ReturnValue)
}

func (a *analyzer) checkWhileStatement(s *ast.WhileStatement) {
	condType := a.checkExpr(s.Condition, types.Bool)
	if condType != nil && !condType.Equal(types.Bool) {
		a.errorNode(s.Condition, diag.TypeMismatch, "while condition must be bool, got %s", condType)
	}

	a.loopBounds = append(a.loopBounds, len(a.scopes))
	a.checkBlock(s.Body)
	a.loopBounds = a.loopBounds[:len(a.loopBounds)-1]
}

// checkFunctionBody analyzes one function with its parameters bound in
// the body scope. Parameters are owned: the caller moved their values in,
// so the function destroys what it doesn't pass along.
func (a *analyzer) checkFunctionBody(s *ast.FunctionStatement) {
	sig, ok := a.info.Functions[s.Name.Value]
	if !ok {
		return // declaration failed, already reported
	}

	prevFunc := a.curFunc
	a.curFunc = sig
	prevLoops := a.loopBounds
	a.loopBounds = nil

	a.pushScope()
	for i, p := range s.Function.Parameters {
		a.declare(p.Name.Value, sig.Params[i].Type, p.Name.Token, true)
	}
	for _, stmt := range s.Function.Body.Statements {
		a.checkStatement(stmt)
	}
	a.info.BlockFrees[s.Function.Body] = a.popScopeObligations()

	a.loopBounds = prevLoops
	a.curFunc = prevFunc
}

func (a *analyzer) checkExpressionStatement(s *ast.ExpressionStatement) {
	a.branchStmt = s.Expression
	t := a.checkExpr(s.Expression, nil)
	a.branchStmt = nil
	if t == nil || !types.IsHeapOwning(t) {
		return
	}
	// A discarded heap-owning temporary has no owner; the statement
	// frees it. Bare reads of existing bindings keep their owner.
	switch s.Expression.(type) {
	case *ast.Identifier, *ast.MemberAccessExpression, *ast.IndexExpression:
		return
	}
	a.info.DiscardFrees[s] = true
}
