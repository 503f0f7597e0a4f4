package sema

import (
	"strconv"

	"mica/internal/ast"
	"mica/internal/diag"
	"mica/internal/types"
)

// builtins are resolved before user functions and cannot be shadowed.
var builtins = map[string]bool{
	"print":    true,
	"len":      true,
	"is_empty": true,
	"push":     true,
}

// checkExpr resolves and records the type of an expression. expected is
// a hint for forms that cannot infer alone (empty list literals); it
// never suppresses a mismatch diagnostic. A nil result means the
// expression failed to check and the problem is already reported.
func (a *analyzer) checkExpr(e ast.Expression, expected types.Type) types.Type {
	if e == nil {
		return nil
	}
	t := a.typeExpr(e, expected)
	if t != nil {
		a.info.Types[e] = t
	}
	return t
}

func (a *analyzer) typeExpr(e ast.Expression, expected types.Type) types.Type {
	switch n := e.(type) {
	case *ast.IntegerLiteral:
		return types.Int
	case *ast.FloatLiteral:
		return types.Float
	case *ast.Boolean:
		return types.Bool
	case *ast.StringLiteral:
		return types.String
	case *ast.NullLiteral:
		return types.Null
	case *ast.Identifier:
		return a.checkIdentifier(n)
	case *ast.ListLiteral:
		return a.checkListLiteral(n, expected)
	case *ast.TupleLiteral:
		return a.checkTupleLiteral(n, expected)
	case *ast.PrefixExpression:
		return a.checkPrefix(n)
	case *ast.InfixExpression:
		return a.checkInfix(n)
	case *ast.IndexExpression:
		return a.checkIndex(n)
	case *ast.CallExpression:
		return a.checkCall(n)
	case *ast.EnumVariantExpression:
		return a.checkEnumVariant(n)
	case *ast.StructLiteral:
		return a.checkStructLiteral(n)
	case *ast.MemberAccessExpression:
		return a.checkMemberAccess(n)
	case *ast.IfExpression:
		if a.branchStmt != e {
			a.errorAt(n.Token, diag.TypeMismatch, "if is a statement, not a value")
			return nil
		}
		return a.checkIf(n)
	case *ast.MatchExpression:
		if a.branchStmt != e {
			a.errorAt(n.Token, diag.TypeMismatch, "match is a statement, not a value")
			return nil
		}
		return a.checkMatch(n)
	case *ast.FunctionLiteral:
		a.errorAt(n.Token, diag.TypeMismatch, "functions are not values; declare them at the top level")
		return nil
	default:
		a.errorNode(e, diag.TypeMismatch, "unsupported expression")
		return nil
	}
}

func (a *analyzer) checkIdentifier(n *ast.Identifier) types.Type {
	v, ok := a.lookup(n.Value)
	if !ok {
		a.errorAt(n.Token, diag.UndefinedName, "undefined name: %s", n.Value)
		return nil
	}
	if v.moved {
		a.errorAt(n.Token, diag.UseAfterMove, "use of moved value: %s", n.Value)
		return nil
	}
	return v.typ
}

func (a *analyzer) checkListLiteral(n *ast.ListLiteral, expected types.Type) types.Type {
	var elemExpected types.Type
	if lt, ok := expected.(types.List); ok {
		elemExpected = lt.Elem
	}

	if len(n.Elements) == 0 {
		if elemExpected == nil {
			a.errorAt(n.Token, diag.TypeMismatch,
				"cannot infer the element type of an empty list literal; annotate the declaration")
			return nil
		}
		return types.List{Elem: elemExpected}
	}

	elemType := elemExpected
	for _, el := range n.Elements {
		t := a.checkExpr(el, elemType)
		if t == nil {
			continue
		}
		if elemType == nil {
			elemType = t
		} else if !elemType.Equal(t) {
			a.errorNode(el, diag.TypeMismatch, "list elements must all be %s, got %s", elemType, t)
		}
		a.moveOperand(el)
	}
	if elemType == nil {
		return nil
	}
	return types.List{Elem: elemType}
}

func (a *analyzer) checkTupleLiteral(n *ast.TupleLiteral, expected types.Type) types.Type {
	var expectedElems []types.Type
	if tt, ok := expected.(types.Tuple); ok && len(tt.Elems) == len(n.Elements) {
		expectedElems = tt.Elems
	}

	elems := make([]types.Type, 0, len(n.Elements))
	failed := false
	for i, el := range n.Elements {
		var hint types.Type
		if expectedElems != nil {
			hint = expectedElems[i]
		}
		t := a.checkExpr(el, hint)
		if t == nil {
			failed = true
			continue
		}
		elems = append(elems, t)
		a.moveOperand(el)
	}
	if failed {
		return nil
	}
	return types.Tuple{Elems: elems}
}

func (a *analyzer) checkPrefix(n *ast.PrefixExpression) types.Type {
	t := a.checkExpr(n.Right, nil)
	if t == nil {
		return nil
	}
	switch n.Operator {
	case "-":
		if t.Equal(types.Int) || t.Equal(types.Float) {
			return t
		}
		a.errorAt(n.Token, diag.TypeMismatch, "operator - expects int or float, got %s", t)
	case "!":
		if t.Equal(types.Bool) {
			return types.Bool
		}
		a.errorAt(n.Token, diag.TypeMismatch, "operator ! expects bool, got %s", t)
	}
	return nil
}

func (a *analyzer) checkInfix(n *ast.InfixExpression) types.Type {
	left := a.checkExpr(n.Left, nil)
	right := a.checkExpr(n.Right, left)
	if left == nil || right == nil {
		return nil
	}
	if !left.Equal(right) {
		a.errorAt(n.Token, diag.TypeMismatch,
			"operator %s needs matching operand types, got %s and %s", n.Operator, left, right)
		return nil
	}

	isInt := left.Equal(types.Int)
	isFloat := left.Equal(types.Float)

	switch n.Operator {
	case "+", "-", "*", "/":
		if isInt || isFloat {
			return left
		}
	case "%":
		if isInt {
			return types.Int
		}
	case "<", ">", "<=", ">=":
		if isInt || isFloat {
			return types.Bool
		}
	case "==", "!=":
		switch left.(type) {
		case types.Basic:
			return types.Bool
		}
	case "&&", "||":
		if left.Equal(types.Bool) {
			return types.Bool
		}
	}
	a.errorAt(n.Token, diag.TypeMismatch, "operator %s is not defined on %s", n.Operator, left)
	return nil
}

func (a *analyzer) checkIndex(n *ast.IndexExpression) types.Type {
	left := a.checkExpr(n.Left, nil)
	idx := a.checkExpr(n.Index, types.Int)
	if left == nil {
		return nil
	}
	lt, ok := left.(types.List)
	if !ok {
		a.errorNode(n.Left, diag.TypeMismatch, "only lists can be indexed, got %s", left)
		return nil
	}
	if idx != nil && !idx.Equal(types.Int) {
		a.errorNode(n.Index, diag.TypeMismatch, "list index must be int, got %s", idx)
	}
	return lt.Elem
}

func (a *analyzer) checkCall(n *ast.CallExpression) types.Type {
	fn, ok := n.Function.(*ast.Identifier)
	if !ok {
		a.errorNode(n.Function, diag.TypeMismatch, "only named functions can be called")
		return nil
	}
	if builtins[fn.Value] {
		return a.checkBuiltinCall(fn.Value, n)
	}

	sig, ok := a.info.Functions[fn.Value]
	if !ok {
		a.errorAt(fn.Token, diag.UndefinedName, "undefined function: %s", fn.Value)
		for _, arg := range n.Arguments {
			a.checkExpr(arg, nil)
		}
		return nil
	}
	if len(n.Arguments) != len(sig.Params) {
		a.errorAt(fn.Token, diag.ArityMismatch,
			"%s expects %d arguments, got %d", sig.Name, len(sig.Params), len(n.Arguments))
		return sig.Result
	}
	for i, arg := range n.Arguments {
		want := sig.Params[i].Type
		got := a.checkExpr(arg, want)
		if got != nil && !want.Equal(got) {
			a.errorNode(arg, diag.TypeMismatch,
				"argument %d of %s: expected %s, got %s", i+1, sig.Name, want, got)
		}
		// Heap-owning arguments are moved into the callee.
		a.moveOperand(arg)
	}
	return sig.Result
}

func (a *analyzer) checkBuiltinCall(name string, n *ast.CallExpression) types.Type {
	argc := len(n.Arguments)
	switch name {
	case "print":
		if argc != 1 {
			a.errorNode(n, diag.ArityMismatch, "print expects 1 argument, got %d", argc)
			return types.Null
		}
		t := a.checkExpr(n.Arguments[0], nil)
		a.markUnownedArg(n.Arguments[0], t)
		return types.Null
	case "len", "is_empty":
		if argc != 1 {
			a.errorNode(n, diag.ArityMismatch, "%s expects 1 argument, got %d", name, argc)
			return nil
		}
		t := a.checkExpr(n.Arguments[0], nil)
		if t != nil {
			if _, ok := t.(types.List); !ok {
				a.errorNode(n.Arguments[0], diag.TypeMismatch, "%s expects a list, got %s", name, t)
			}
		}
		a.markUnownedArg(n.Arguments[0], t)
		if name == "len" {
			return types.Int
		}
		return types.Bool
	case "push":
		if argc != 2 {
			a.errorNode(n, diag.ArityMismatch, "push expects 2 arguments, got %d", argc)
			return types.Null
		}
		listType := a.checkExpr(n.Arguments[0], nil)
		lt, isList := listType.(types.List)
		if listType != nil && !isList {
			a.errorNode(n.Arguments[0], diag.TypeMismatch, "push expects a list, got %s", listType)
		}
		var hint types.Type
		if isList {
			hint = lt.Elem
		}
		elemType := a.checkExpr(n.Arguments[1], hint)
		if isList && elemType != nil && !lt.Elem.Equal(elemType) {
			a.errorNode(n.Arguments[1], diag.TypeMismatch,
				"cannot push %s onto %s", elemType, lt)
		}
		// The list keeps its owner; the pushed element is moved in.
		a.moveOperand(n.Arguments[1])
		a.markUnownedArg(n.Arguments[0], listType)
		return types.Null
	}
	return nil
}

func (a *analyzer) checkEnumVariant(n *ast.EnumVariantExpression) types.Type {
	decl, ok := a.info.Registry.Enum(n.EnumName.Value)
	if !ok {
		a.errorAt(n.EnumName.Token, diag.UndefinedType, "undefined enum: %s", n.EnumName.Value)
		for _, arg := range n.Arguments {
			a.checkExpr(arg, nil)
		}
		return nil
	}
	variant, ok := decl.VariantNamed(n.Variant.Value)
	if !ok {
		a.errorAt(n.Variant.Token, diag.UndefinedVariant,
			"enum %s has no variant %s", decl.Name, n.Variant.Value)
		for _, arg := range n.Arguments {
			a.checkExpr(arg, nil)
		}
		return nil
	}
	if len(n.Arguments) != len(variant.Fields) {
		a.errorAt(n.Variant.Token, diag.ArityMismatch,
			"variant %s::%s expects %d arguments, got %d",
			decl.Name, variant.Name, len(variant.Fields), len(n.Arguments))
		return types.Enum{Name: decl.Name}
	}
	for i, arg := range n.Arguments {
		want := variant.Fields[i]
		got := a.checkExpr(arg, want)
		if got != nil && !want.Equal(got) {
			a.errorNode(arg, diag.TypeMismatch,
				"field %d of %s::%s: expected %s, got %s", i+1, decl.Name, variant.Name, want, got)
		}
		a.moveOperand(arg)
	}
	return types.Enum{Name: decl.Name}
}

func (a *analyzer) checkStructLiteral(n *ast.StructLiteral) types.Type {
	decl, ok := a.info.Registry.Struct(n.TypeName.Value)
	if !ok {
		a.errorAt(n.TypeName.Token, diag.UndefinedType, "undefined struct: %s", n.TypeName.Value)
		for _, f := range n.Fields {
			a.checkExpr(f.Value, nil)
		}
		return nil
	}

	given := make(map[string]bool)
	for _, f := range n.Fields {
		field, _, ok := decl.FieldNamed(f.Name.Value)
		if !ok {
			a.errorAt(f.Token, diag.UndefinedField,
				"struct %s has no field %s", decl.Name, f.Name.Value)
			a.checkExpr(f.Value, nil)
			continue
		}
		if given[f.Name.Value] {
			a.errorAt(f.Token, diag.Redefined,
				"field %s is initialized more than once", f.Name.Value)
			continue
		}
		given[f.Name.Value] = true

		got := a.checkExpr(f.Value, field.Type)
		if got != nil && !field.Type.Equal(got) {
			a.errorNode(f.Value, diag.TypeMismatch,
				"field %s.%s: expected %s, got %s", decl.Name, field.Name, field.Type, got)
		}
		a.moveOperand(f.Value)
	}
	for _, field := range decl.Fields {
		if !given[field.Name] {
			a.errorAt(n.TypeName.Token, diag.MissingField,
				"struct %s literal missing field %s", decl.Name, field.Name)
		}
	}
	return types.Struct{Name: decl.Name}
}

func (a *analyzer) checkMemberAccess(n *ast.MemberAccessExpression) types.Type {
	objType := a.checkExpr(n.Object, nil)
	if objType == nil {
		return nil
	}
	switch t := objType.(type) {
	case types.Struct:
		decl, ok := a.info.Registry.Struct(t.Name)
		if !ok {
			return nil
		}
		field, _, ok := decl.FieldNamed(n.Property.Value)
		if !ok {
			a.errorAt(n.Property.Token, diag.UndefinedField,
				"struct %s has no field %s", t.Name, n.Property.Value)
			return nil
		}
		return field.Type
	case types.Tuple:
		idx, err := strconv.Atoi(n.Property.Value)
		if err != nil {
			a.errorAt(n.Property.Token, diag.UndefinedField,
				"tuples are accessed by position, not .%s", n.Property.Value)
			return nil
		}
		if idx < 0 || idx >= len(t.Elems) {
			a.errorAt(n.Property.Token, diag.UndefinedField,
				"tuple %s has no element %d", t, idx)
			return nil
		}
		return t.Elems[idx]
	default:
		a.errorNode(n.Object, diag.TypeMismatch,
			"%s has no members to access", objType)
		return nil
	}
}

func (a *analyzer) checkIf(n *ast.IfExpression) types.Type {
	condType := a.checkExpr(n.Condition, types.Bool)
	if condType != nil && !condType.Equal(types.Bool) {
		a.errorNode(n.Condition, diag.TypeMismatch, "if condition must be bool, got %s", condType)
	}

	// Each branch is checked against the same starting state; a value
	// moved in any branch counts as moved afterwards.
	base := a.movedSnapshot()
	merged := a.movedSnapshot()

	a.checkBlock(n.Consequence)
	mergeMoved(merged, a.movedSnapshot())
	a.restoreMoved(base)

	if n.Alternative != nil {
		a.checkBlock(n.Alternative)
		mergeMoved(merged, a.movedSnapshot())
		a.restoreMoved(base)
	}
	a.restoreMoved(merged)

	return types.Null
}

func (a *analyzer) checkMatch(n *ast.MatchExpression) types.Type {
	subjectType := a.checkExpr(n.Subject, nil)
	var decl *types.EnumDecl
	if subjectType != nil {
		et, ok := subjectType.(types.Enum)
		if !ok {
			a.errorNode(n.Subject, diag.TypeMismatch, "match subject must be an enum, got %s", subjectType)
		} else if d, ok := a.info.Registry.Enum(et.Name); ok {
			decl = d
		}
	}

	base := a.movedSnapshot()
	merged := a.movedSnapshot()
	covered := make(map[string]bool)

	for _, arm := range n.Arms {
		variant := a.checkMatchArmHead(arm, decl)

		a.pushScope()
		if variant != nil {
			if len(arm.Bindings) != 0 && len(arm.Bindings) != len(variant.Fields) {
				a.errorAt(arm.Token, diag.ArityMismatch,
					"variant %s::%s has %d fields, arm binds %d",
					arm.EnumName.Value, arm.Variant.Value, len(variant.Fields), len(arm.Bindings))
			}
			for i, b := range arm.Bindings {
				if i >= len(variant.Fields) {
					break
				}
				// Bindings view the subject's fields without owning them.
				a.declare(b.Value, variant.Fields[i], b.Token, false)
			}
		}
		for _, stmt := range arm.Body.Statements {
			a.checkStatement(stmt)
		}
		a.info.BlockFrees[arm.Body] = a.popScopeObligations()

		mergeMoved(merged, a.movedSnapshot())
		a.restoreMoved(base)

		if variant != nil {
			if covered[variant.Name] {
				a.errorAt(arm.Token, diag.Redefined,
					"duplicate match arm for %s::%s", arm.EnumName.Value, variant.Name)
			}
			covered[variant.Name] = true
		}
	}
	a.restoreMoved(merged)

	if decl != nil {
		for _, v := range decl.Variants {
			if !covered[v.Name] {
				a.errorAt(n.Token, diag.TypeMismatch,
					"match on %s does not cover variant %s", decl.Name, v.Name)
			}
		}
	}
	return types.Null
}

func (a *analyzer) checkMatchArmHead(arm *ast.MatchArm, decl *types.EnumDecl) *types.Variant {
	if decl == nil {
		return nil
	}
	if arm.EnumName.Value != decl.Name {
		a.errorAt(arm.EnumName.Token, diag.TypeMismatch,
			"arm matches %s, subject is %s", arm.EnumName.Value, decl.Name)
		return nil
	}
	variant, ok := decl.VariantNamed(arm.Variant.Value)
	if !ok {
		a.errorAt(arm.Variant.Token, diag.UndefinedVariant,
			"enum %s has no variant %s", decl.Name, arm.Variant.Value)
		return nil
	}
	return &variant
}

// moveOperand applies move semantics to an expression whose value is
// being given away: a variable initializer, an assignment source, a call
// argument, a return value, or an element of a composite literal.
// Scalars copy; heap-owning temporaries hand over naturally; heap-owning
// variables transition to moved.
func (a *analyzer) moveOperand(e ast.Expression) {
	t := a.info.Types[e]
	if t == nil || !types.IsHeapOwning(t) {
		return
	}
	switch n := e.(type) {
	case *ast.Identifier:
		v, ok := a.lookup(n.Value)
		if !ok {
			return
		}
		if !v.owned {
			a.errorAt(n.Token, diag.TypeMismatch,
				"cannot move %s: match bindings do not own their value", n.Value)
			return
		}
		if len(a.loopBounds) > 0 && a.scopeDepthOf(v) < a.loopBounds[len(a.loopBounds)-1] {
			a.errorAt(n.Token, diag.UseAfterMove,
				"%s is moved inside a loop and would be gone on the next iteration", n.Value)
		}
		v.moved = true
	case *ast.MemberAccessExpression:
		a.errorAt(n.Token, diag.TypeMismatch,
			"cannot move a %s field out of its record", t)
	case *ast.IndexExpression:
		a.errorAt(n.Token, diag.TypeMismatch,
			"cannot move a %s element out of its list", t)
	}
}

// markUnownedArg records a builtin argument whose heap value nothing
// owns. Builtins borrow their arguments; a named binding keeps its
// value and a field or element read is a view into one, but a call
// result or fresh literal would otherwise outlive every reference to
// it, so the call site frees it once the builtin returns.
func (a *analyzer) markUnownedArg(arg ast.Expression, t types.Type) {
	if t == nil || !types.IsHeapOwning(t) {
		return
	}
	switch arg.(type) {
	case *ast.Identifier, *ast.MemberAccessExpression, *ast.IndexExpression:
		return
	}
	a.info.ArgFrees[arg] = true
}
