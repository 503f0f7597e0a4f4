package evaluator

import (
	"mica/internal/ast"
	"mica/internal/value"
)

func (e *Evaluator) execStatement(stmt ast.Statement, env *environment) (control, value.Value, *value.Panic) {
	switch s := stmt.(type) {
	case *ast.LetStatement:
		v, p := e.evalExpr(s.Value, env)
		if p != nil {
			return ctrlNone, value.Value{}, p
		}
		env.define(s.Name.Value, v)
		return ctrlNone, value.Value{}, nil

	case *ast.AssignStatement:
		v, p := e.evalExpr(s.Value, env)
		if p != nil {
			return ctrlNone, value.Value{}, p
		}
		// The analysis marks assignments that bury a live heap value.
		// The old value stays readable while the right side runs; it is
		// released only once the replacement exists.
		if e.info.AssignFrees[s] {
			if old, ok := env.get(s.Name.Value); ok {
				if p := e.heap.Free(old); p != nil {
					return ctrlNone, value.Value{}, p
				}
			}
		}
		env.set(s.Name.Value, v)
		return ctrlNone, value.Value{}, nil

	case *ast.ReturnStatement:
		if s.ReturnValue == nil {
			return ctrlReturn, value.NewNull(), nil
		}
		v, p := e.evalExpr(s.ReturnValue, env)
		if p != nil {
			return ctrlNone, value.Value{}, p
		}
		return ctrlReturn, v, nil

	case *ast.WhileStatement:
		return e.execWhile(s, env)

	case *ast.ExpressionStatement:
		// if and match are control flow; a return inside their bodies must
		// reach the enclosing function.
		switch branch := s.Expression.(type) {
		case *ast.IfExpression:
			return e.execIf(branch, env)
		case *ast.MatchExpression:
			return e.execMatch(branch, env)
		}
		v, p := e.evalExpr(s.Expression, env)
		if p != nil {
			return ctrlNone, value.Value{}, p
		}
		if e.info.DiscardFrees[s] {
			if p := e.heap.Free(v); p != nil {
				return ctrlNone, value.Value{}, p
			}
		}
		return ctrlNone, value.Value{}, nil

	case *ast.FunctionStatement, *ast.EnumStatement, *ast.StructStatement:
		// Declarations were collected up front; nothing to run.
		return ctrlNone, value.Value{}, nil

	case *ast.BlockStatement:
		return e.execBlock(s, env)

	default:
		return ctrlNone, value.Value{}, nil
	}
}

// execBlock runs a brace scope and performs its destruction obligations
// on every exit path.
func (e *Evaluator) execBlock(block *ast.BlockStatement, env *environment) (control, value.Value, *value.Panic) {
	inner := newEnvironment(env)
	return e.execBlockIn(block, inner)
}

// execBlockIn is execBlock with a caller-prepared scope; function calls
// use it to pre-bind parameters.
func (e *Evaluator) execBlockIn(block *ast.BlockStatement, inner *environment) (control, value.Value, *value.Panic) {
	for _, stmt := range block.Statements {
		ctrl, v, p := e.execStatement(stmt, inner)
		if p != nil {
			return ctrlNone, value.Value{}, p
		}
		if ctrl == ctrlReturn {
			if p := e.freeObligations(e.info.BlockFrees[block], inner); p != nil {
				return ctrlNone, value.Value{}, p
			}
			return ctrlReturn, v, nil
		}
	}
	if p := e.freeObligations(e.info.BlockFrees[block], inner); p != nil {
		return ctrlNone, value.Value{}, p
	}
	return ctrlNone, value.Value{}, nil
}

func (e *Evaluator) execWhile(s *ast.WhileStatement, env *environment) (control, value.Value, *value.Panic) {
	for {
		cond, p := e.evalExpr(s.Condition, env)
		if p != nil {
			return ctrlNone, value.Value{}, p
		}
		b, p := value.AsBool(cond)
		if p != nil {
			return ctrlNone, value.Value{}, p
		}
		if !b {
			return ctrlNone, value.Value{}, nil
		}
		ctrl, v, p := e.execBlock(s.Body, env)
		if p != nil {
			return ctrlNone, value.Value{}, p
		}
		if ctrl == ctrlReturn {
			return ctrlReturn, v, nil
		}
	}
}

// callFunction runs a declared function with already-evaluated
// arguments. Ownership of heap-owning arguments moved in the caller;
// the body's obligation list covers them on exit.
func (e *Evaluator) callFunction(fn *ast.FunctionStatement, args []value.Value) (value.Value, *value.Panic) {
	fenv := newEnvironment(e.global)
	for i, p := range fn.Function.Parameters {
		fenv.define(p.Name.Value, args[i])
	}
	ctrl, v, p := e.execBlockIn(fn.Function.Body, fenv)
	if p != nil {
		return value.Value{}, p
	}
	if ctrl == ctrlReturn {
		return v, nil
	}
	return value.NewNull(), nil
}
