package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"mica/internal/ast"
	"mica/internal/types"
	"mica/internal/value"
)

func (e *Evaluator) evalCall(n *ast.CallExpression, env *environment) (value.Value, *value.Panic) {
	ident, ok := n.Function.(*ast.Identifier)
	if !ok {
		return value.Value{}, &value.Panic{Message: "call target is not a named function"}
	}

	if fn, ok := e.funcs[ident.Value]; ok {
		args := make([]value.Value, 0, len(n.Arguments))
		for _, arg := range n.Arguments {
			v, p := e.evalExpr(arg, env)
			if p != nil {
				return value.Value{}, p
			}
			args = append(args, v)
		}
		return e.callFunction(fn, args)
	}

	return e.evalBuiltin(ident.Value, n, env)
}

func (e *Evaluator) evalBuiltin(name string, n *ast.CallExpression, env *environment) (value.Value, *value.Panic) {
	switch name {
	case "print":
		v, p := e.evalExpr(n.Arguments[0], env)
		if p != nil {
			return value.Value{}, p
		}
		s, p := e.formatValue(v, e.info.TypeOf(n.Arguments[0]))
		if p != nil {
			return value.Value{}, p
		}
		fmt.Fprintln(e.out, s)
		if p := e.freeUnownedArg(n.Arguments[0], v); p != nil {
			return value.Value{}, p
		}
		return value.NewNull(), nil

	case "len":
		v, p := e.evalExpr(n.Arguments[0], env)
		if p != nil {
			return value.Value{}, p
		}
		length, p := e.heap.ListLen(v)
		if p != nil {
			return value.Value{}, p
		}
		if p := e.freeUnownedArg(n.Arguments[0], v); p != nil {
			return value.Value{}, p
		}
		return value.NewInt(length), nil

	case "is_empty":
		v, p := e.evalExpr(n.Arguments[0], env)
		if p != nil {
			return value.Value{}, p
		}
		empty, p := e.heap.ListIsEmpty(v)
		if p != nil {
			return value.Value{}, p
		}
		if p := e.freeUnownedArg(n.Arguments[0], v); p != nil {
			return value.Value{}, p
		}
		return value.NewBool(empty), nil

	case "push":
		list, p := e.evalExpr(n.Arguments[0], env)
		if p != nil {
			return value.Value{}, p
		}
		elem, p := e.evalExpr(n.Arguments[1], env)
		if p != nil {
			return value.Value{}, p
		}
		if p := e.heap.ListPush(list, elem); p != nil {
			return value.Value{}, p
		}
		if p := e.freeUnownedArg(n.Arguments[0], list); p != nil {
			return value.Value{}, p
		}
		return value.NewNull(), nil
	}
	return value.Value{}, &value.Panic{Message: "unknown function at runtime: " + name}
}

// freeUnownedArg releases a builtin argument the analysis marked as
// ownerless, once the builtin is done with it.
func (e *Evaluator) freeUnownedArg(arg ast.Expression, v value.Value) *value.Panic {
	if !e.info.ArgFrees[arg] {
		return nil
	}
	return e.heap.Free(v)
}

// formatValue renders a value the way print shows it. The static type
// carries what the tagged representation does not: struct and enum names
// and their field layouts.
func (e *Evaluator) formatValue(v value.Value, t types.Type) (string, *value.Panic) {
	switch v.Tag {
	case value.TagInt:
		i, p := value.AsInt(v)
		if p != nil {
			return "", p
		}
		return strconv.FormatInt(i, 10), nil

	case value.TagFloat:
		f, p := value.AsFloat(v)
		if p != nil {
			return "", p
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil

	case value.TagBool:
		b, p := value.AsBool(v)
		if p != nil {
			return "", p
		}
		return strconv.FormatBool(b), nil

	case value.TagString:
		return e.heap.AsString(v)

	case value.TagNull:
		return "null", nil

	case value.TagList:
		var elemType types.Type
		if lt, ok := t.(types.List); ok {
			elemType = lt.Elem
		}
		n, p := e.heap.ListLen(v)
		if p != nil {
			return "", p
		}
		parts := make([]string, 0, n)
		for i := int64(0); i < n; i++ {
			el, p := e.heap.ListGet(v, i)
			if p != nil {
				return "", p
			}
			s, p := e.formatValue(el, elemType)
			if p != nil {
				return "", p
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil

	case value.TagTuple:
		rec, p := e.heap.RecordOf(v, value.TagTuple)
		if p != nil {
			return "", p
		}
		var elems []types.Type
		if tt, ok := t.(types.Tuple); ok {
			elems = tt.Elems
		}
		parts := make([]string, 0, len(rec.Fields))
		for i, f := range rec.Fields {
			var ft types.Type
			if i < len(elems) {
				ft = elems[i]
			}
			s, p := e.formatValue(f, ft)
			if p != nil {
				return "", p
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, ", ") + ")", nil

	case value.TagStruct:
		rec, p := e.heap.RecordOf(v, value.TagStruct)
		if p != nil {
			return "", p
		}
		st, ok := t.(types.Struct)
		if !ok {
			return "", &value.Panic{Message: "struct type lost at runtime"}
		}
		decl, ok := e.info.Registry.Struct(st.Name)
		if !ok {
			return "", &value.Panic{Message: "unknown struct at runtime: " + st.Name}
		}
		parts := make([]string, 0, len(decl.Fields))
		for i, f := range decl.Fields {
			s, p := e.formatValue(rec.Fields[i], f.Type)
			if p != nil {
				return "", p
			}
			parts = append(parts, f.Name+": "+s)
		}
		return decl.Name + " { " + strings.Join(parts, ", ") + " }", nil

	case value.TagEnum:
		rec, p := e.heap.RecordOf(v, value.TagEnum)
		if p != nil {
			return "", p
		}
		et, ok := t.(types.Enum)
		if !ok {
			return "", &value.Panic{Message: "enum type lost at runtime"}
		}
		decl, ok := e.info.Registry.Enum(et.Name)
		if !ok {
			return "", &value.Panic{Message: "unknown enum at runtime: " + et.Name}
		}
		var variant types.Variant
		found := false
		for _, cand := range decl.Variants {
			if int64(cand.Discriminant) == rec.Discriminant {
				variant = cand
				found = true
				break
			}
		}
		if !found {
			return "", &value.Panic{Message: fmt.Sprintf("no variant for discriminant %d", rec.Discriminant)}
		}
		if len(rec.Fields) == 0 {
			return decl.Name + "::" + variant.Name, nil
		}
		parts := make([]string, 0, len(rec.Fields))
		for i, f := range rec.Fields {
			var ft types.Type
			if i < len(variant.Fields) {
				ft = variant.Fields[i]
			}
			s, p := e.formatValue(f, ft)
			if p != nil {
				return "", p
			}
			parts = append(parts, s)
		}
		return decl.Name + "::" + variant.Name + "(" + strings.Join(parts, ", ") + ")", nil
	}
	return "", &value.Panic{Message: fmt.Sprintf("cannot format %s", v.Tag)}
}
