package evaluator

import (
	"fmt"
	"strconv"

	"mica/internal/ast"
	"mica/internal/types"
	"mica/internal/value"
)

func (e *Evaluator) evalExpr(expr ast.Expression, env *environment) (value.Value, *value.Panic) {
	switch n := expr.(type) {
	case *ast.IntegerLiteral:
		return value.NewInt(n.Value), nil
	case *ast.FloatLiteral:
		return value.NewFloat(n.Value), nil
	case *ast.Boolean:
		return value.NewBool(n.Value), nil
	case *ast.StringLiteral:
		return e.heap.NewString(n.Value), nil
	case *ast.NullLiteral:
		return value.NewNull(), nil

	case *ast.Identifier:
		v, ok := env.get(n.Value)
		if !ok {
			return value.Value{}, &value.Panic{Message: fmt.Sprintf("unbound name at runtime: %s", n.Value)}
		}
		return v, nil

	case *ast.ListLiteral:
		return e.evalListLiteral(n, env)
	case *ast.TupleLiteral:
		return e.evalTupleLiteral(n, env)
	case *ast.StructLiteral:
		return e.evalStructLiteral(n, env)
	case *ast.EnumVariantExpression:
		return e.evalEnumVariant(n, env)

	case *ast.PrefixExpression:
		return e.evalPrefix(n, env)
	case *ast.InfixExpression:
		return e.evalInfix(n, env)
	case *ast.IndexExpression:
		return e.evalIndex(n, env)
	case *ast.MemberAccessExpression:
		return e.evalMemberAccess(n, env)
	case *ast.CallExpression:
		return e.evalCall(n, env)

	case *ast.IfExpression, *ast.MatchExpression:
		// Rejected in value position by analysis; statement position goes
		// through execStatement.
		return value.Value{}, &value.Panic{Message: "internal: branch in value position"}

	default:
		return value.Value{}, &value.Panic{Message: fmt.Sprintf("cannot evaluate %T", expr)}
	}
}

func (e *Evaluator) evalListLiteral(n *ast.ListLiteral, env *environment) (value.Value, *value.Panic) {
	list := e.heap.NewList()
	for _, el := range n.Elements {
		v, p := e.evalExpr(el, env)
		if p != nil {
			return value.Value{}, p
		}
		if p := e.heap.ListPush(list, v); p != nil {
			return value.Value{}, p
		}
	}
	return list, nil
}

func (e *Evaluator) evalTupleLiteral(n *ast.TupleLiteral, env *environment) (value.Value, *value.Panic) {
	fields := make([]value.Value, 0, len(n.Elements))
	for _, el := range n.Elements {
		v, p := e.evalExpr(el, env)
		if p != nil {
			return value.Value{}, p
		}
		fields = append(fields, v)
	}
	return e.heap.NewRecord(value.TagTuple, 0, fields), nil
}

func (e *Evaluator) evalStructLiteral(n *ast.StructLiteral, env *environment) (value.Value, *value.Panic) {
	decl, ok := e.info.Registry.Struct(n.TypeName.Value)
	if !ok {
		return value.Value{}, &value.Panic{Message: "unknown struct at runtime: " + n.TypeName.Value}
	}
	// Field values are stored in declaration order, whatever order the
	// literal wrote them in.
	fields := make([]value.Value, len(decl.Fields))
	for _, init := range n.Fields {
		_, idx, ok := decl.FieldNamed(init.Name.Value)
		if !ok {
			continue
		}
		v, p := e.evalExpr(init.Value, env)
		if p != nil {
			return value.Value{}, p
		}
		fields[idx] = v
	}
	return e.heap.NewRecord(value.TagStruct, 0, fields), nil
}

func (e *Evaluator) evalEnumVariant(n *ast.EnumVariantExpression, env *environment) (value.Value, *value.Panic) {
	decl, ok := e.info.Registry.Enum(n.EnumName.Value)
	if !ok {
		return value.Value{}, &value.Panic{Message: "unknown enum at runtime: " + n.EnumName.Value}
	}
	variant, ok := decl.VariantNamed(n.Variant.Value)
	if !ok {
		return value.Value{}, &value.Panic{Message: "unknown variant at runtime: " + n.Variant.Value}
	}
	fields := make([]value.Value, 0, len(n.Arguments))
	for _, arg := range n.Arguments {
		v, p := e.evalExpr(arg, env)
		if p != nil {
			return value.Value{}, p
		}
		fields = append(fields, v)
	}
	return e.heap.NewRecord(value.TagEnum, int64(variant.Discriminant), fields), nil
}

func (e *Evaluator) evalPrefix(n *ast.PrefixExpression, env *environment) (value.Value, *value.Panic) {
	v, p := e.evalExpr(n.Right, env)
	if p != nil {
		return value.Value{}, p
	}
	switch n.Operator {
	case "-":
		if v.Tag == value.TagFloat {
			f, p := value.AsFloat(v)
			if p != nil {
				return value.Value{}, p
			}
			return value.NewFloat(-f), nil
		}
		i, p := value.AsInt(v)
		if p != nil {
			return value.Value{}, p
		}
		return value.NewInt(-i), nil
	case "!":
		b, p := value.AsBool(v)
		if p != nil {
			return value.Value{}, p
		}
		return value.NewBool(!b), nil
	}
	return value.Value{}, &value.Panic{Message: "unknown prefix operator: " + n.Operator}
}

func (e *Evaluator) evalInfix(n *ast.InfixExpression, env *environment) (value.Value, *value.Panic) {
	// && and || evaluate their right side only when needed.
	if n.Operator == "&&" || n.Operator == "||" {
		left, p := e.evalExpr(n.Left, env)
		if p != nil {
			return value.Value{}, p
		}
		lb, p := value.AsBool(left)
		if p != nil {
			return value.Value{}, p
		}
		if n.Operator == "&&" && !lb {
			return value.NewBool(false), nil
		}
		if n.Operator == "||" && lb {
			return value.NewBool(true), nil
		}
		right, p := e.evalExpr(n.Right, env)
		if p != nil {
			return value.Value{}, p
		}
		rb, p := value.AsBool(right)
		if p != nil {
			return value.Value{}, p
		}
		return value.NewBool(rb), nil
	}

	left, p := e.evalExpr(n.Left, env)
	if p != nil {
		return value.Value{}, p
	}
	right, p := e.evalExpr(n.Right, env)
	if p != nil {
		return value.Value{}, p
	}

	switch left.Tag {
	case value.TagInt:
		return evalIntInfix(n.Operator, left, right)
	case value.TagFloat:
		return evalFloatInfix(n.Operator, left, right)
	case value.TagBool, value.TagString:
		// Interned strings compare by handle.
		if p := value.CheckTag(right, left.Tag); p != nil {
			return value.Value{}, p
		}
		switch n.Operator {
		case "==":
			return value.NewBool(left.Payload == right.Payload), nil
		case "!=":
			return value.NewBool(left.Payload != right.Payload), nil
		}
	}
	return value.Value{}, &value.Panic{Message: fmt.Sprintf("operator %s is not defined on %s", n.Operator, left.Tag)}
}

func evalIntInfix(op string, left, right value.Value) (value.Value, *value.Panic) {
	l, p := value.AsInt(left)
	if p != nil {
		return value.Value{}, p
	}
	r, p := value.AsInt(right)
	if p != nil {
		return value.Value{}, p
	}
	switch op {
	case "+":
		return value.NewInt(l + r), nil
	case "-":
		return value.NewInt(l - r), nil
	case "*":
		return value.NewInt(l * r), nil
	case "/":
		if r == 0 {
			return value.Value{}, &value.Panic{Message: "integer division by zero"}
		}
		return value.NewInt(l / r), nil
	case "%":
		if r == 0 {
			return value.Value{}, &value.Panic{Message: "integer division by zero"}
		}
		return value.NewInt(l % r), nil
	case "<":
		return value.NewBool(l < r), nil
	case ">":
		return value.NewBool(l > r), nil
	case "<=":
		return value.NewBool(l <= r), nil
	case ">=":
		return value.NewBool(l >= r), nil
	case "==":
		return value.NewBool(l == r), nil
	case "!=":
		return value.NewBool(l != r), nil
	}
	return value.Value{}, &value.Panic{Message: "operator " + op + " is not defined on Integer"}
}

func evalFloatInfix(op string, left, right value.Value) (value.Value, *value.Panic) {
	l, p := value.AsFloat(left)
	if p != nil {
		return value.Value{}, p
	}
	r, p := value.AsFloat(right)
	if p != nil {
		return value.Value{}, p
	}
	switch op {
	case "+":
		return value.NewFloat(l + r), nil
	case "-":
		return value.NewFloat(l - r), nil
	case "*":
		return value.NewFloat(l * r), nil
	case "/":
		return value.NewFloat(l / r), nil
	case "<":
		return value.NewBool(l < r), nil
	case ">":
		return value.NewBool(l > r), nil
	case "<=":
		return value.NewBool(l <= r), nil
	case ">=":
		return value.NewBool(l >= r), nil
	case "==":
		return value.NewBool(l == r), nil
	case "!=":
		return value.NewBool(l != r), nil
	}
	return value.Value{}, &value.Panic{Message: "operator " + op + " is not defined on Float"}
}

func (e *Evaluator) evalIndex(n *ast.IndexExpression, env *environment) (value.Value, *value.Panic) {
	list, p := e.evalExpr(n.Left, env)
	if p != nil {
		return value.Value{}, p
	}
	idx, p := e.evalExpr(n.Index, env)
	if p != nil {
		return value.Value{}, p
	}
	i, p := value.AsInt(idx)
	if p != nil {
		return value.Value{}, p
	}
	return e.heap.ListGet(list, i)
}

func (e *Evaluator) evalMemberAccess(n *ast.MemberAccessExpression, env *environment) (value.Value, *value.Panic) {
	obj, p := e.evalExpr(n.Object, env)
	if p != nil {
		return value.Value{}, p
	}

	switch obj.Tag {
	case value.TagTuple:
		idx, err := strconv.Atoi(n.Property.Value)
		if err != nil {
			return value.Value{}, &value.Panic{Message: "bad tuple index: " + n.Property.Value}
		}
		rec, p := e.heap.RecordOf(obj, value.TagTuple)
		if p != nil {
			return value.Value{}, p
		}
		if idx < 0 || idx >= len(rec.Fields) {
			return value.Value{}, &value.Panic{Message: fmt.Sprintf("tuple index out of range: %d", idx)}
		}
		return rec.Fields[idx], nil

	case value.TagStruct:
		st, ok := e.info.TypeOf(n.Object).(types.Struct)
		if !ok {
			return value.Value{}, &value.Panic{Message: "struct type lost at runtime"}
		}
		decl, ok := e.info.Registry.Struct(st.Name)
		if !ok {
			return value.Value{}, &value.Panic{Message: "unknown struct at runtime: " + st.Name}
		}
		_, idx, ok := decl.FieldNamed(n.Property.Value)
		if !ok {
			return value.Value{}, &value.Panic{Message: "unknown field at runtime: " + n.Property.Value}
		}
		rec, p := e.heap.RecordOf(obj, value.TagStruct)
		if p != nil {
			return value.Value{}, p
		}
		return rec.Fields[idx], nil
	}
	return value.Value{}, &value.Panic{Message: fmt.Sprintf("%s has no members", obj.Tag)}
}

func (e *Evaluator) execIf(n *ast.IfExpression, env *environment) (control, value.Value, *value.Panic) {
	cond, p := e.evalExpr(n.Condition, env)
	if p != nil {
		return ctrlNone, value.Value{}, p
	}
	b, p := value.AsBool(cond)
	if p != nil {
		return ctrlNone, value.Value{}, p
	}
	if b {
		return e.execBlock(n.Consequence, env)
	}
	if n.Alternative != nil {
		return e.execBlock(n.Alternative, env)
	}
	return ctrlNone, value.Value{}, nil
}

func (e *Evaluator) execMatch(n *ast.MatchExpression, env *environment) (control, value.Value, *value.Panic) {
	subject, p := e.evalExpr(n.Subject, env)
	if p != nil {
		return ctrlNone, value.Value{}, p
	}
	rec, p := e.heap.RecordOf(subject, value.TagEnum)
	if p != nil {
		return ctrlNone, value.Value{}, p
	}

	et, ok := e.info.TypeOf(n.Subject).(types.Enum)
	if !ok {
		return ctrlNone, value.Value{}, &value.Panic{Message: "enum type lost at runtime"}
	}
	decl, ok := e.info.Registry.Enum(et.Name)
	if !ok {
		return ctrlNone, value.Value{}, &value.Panic{Message: "unknown enum at runtime: " + et.Name}
	}

	// A subject with no binding (a call result, a fresh literal) has no
	// owner; the match frees it once the arm is done. Bindings are views
	// and cannot outlive it.
	temp := true
	switch n.Subject.(type) {
	case *ast.Identifier, *ast.MemberAccessExpression, *ast.IndexExpression:
		temp = false
	}

	for _, arm := range n.Arms {
		variant, ok := decl.VariantNamed(arm.Variant.Value)
		if !ok || int64(variant.Discriminant) != rec.Discriminant {
			continue
		}
		inner := newEnvironment(env)
		for i, b := range arm.Bindings {
			if i < len(rec.Fields) {
				inner.define(b.Value, rec.Fields[i])
			}
		}
		ctrl, v, p := e.execBlockIn(arm.Body, inner)
		if p != nil {
			return ctrlNone, value.Value{}, p
		}
		if temp {
			if p := e.heap.Free(subject); p != nil {
				return ctrlNone, value.Value{}, p
			}
		}
		return ctrl, v, nil
	}
	// Exhaustiveness is checked statically; reaching here means the
	// discriminant is corrupt.
	return ctrlNone, value.Value{}, &value.Panic{Message: fmt.Sprintf("no arm matches discriminant %d", rec.Discriminant)}
}
