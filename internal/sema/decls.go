package sema

import (
	"mica/internal/ast"
	"mica/internal/diag"
	"mica/internal/types"
)

// collectDecls runs the declaration pass: every enum, struct and
// function is registered before any body is checked, so declarations can
// reference each other regardless of order.
func (a *analyzer) collectDecls(program *ast.Program) {
	// Type names first, so function signatures and field types resolve.
	for _, stmt := range program.Statements {
		switch s := stmt.(type) {
		case *ast.EnumStatement:
			a.declareEnumName(s)
		case *ast.StructStatement:
			a.declareStructName(s)
		}
	}
	// Now the layouts, which may reference any declared name.
	for _, stmt := range program.Statements {
		switch s := stmt.(type) {
		case *ast.EnumStatement:
			a.resolveEnumFields(s)
		case *ast.StructStatement:
			a.resolveStructFields(s)
		case *ast.FunctionStatement:
			a.declareFunction(s)
		}
	}
}

func (a *analyzer) declareEnumName(s *ast.EnumStatement) {
	decl := &types.EnumDecl{Name: s.Name.Value}
	for i, v := range s.Variants {
		decl.Variants = append(decl.Variants, types.Variant{
			Name:         v.Name.Value,
			Discriminant: i,
		})
	}
	seen := make(map[string]bool)
	for _, v := range s.Variants {
		if seen[v.Name.Value] {
			a.errorAt(v.Token, diag.Redefined, "enum %s declares variant %s more than once", s.Name.Value, v.Name.Value)
		}
		seen[v.Name.Value] = true
	}
	if !a.info.Registry.DefineEnum(decl) {
		a.errorAt(s.Token, diag.Redefined, "type %s is already declared", s.Name.Value)
		return
	}
	a.enumDecls[s] = decl
}

func (a *analyzer) declareStructName(s *ast.StructStatement) {
	decl := &types.StructDecl{Name: s.Name.Value}
	if !a.info.Registry.DefineStruct(decl) {
		a.errorAt(s.Token, diag.Redefined, "type %s is already declared", s.Name.Value)
		return
	}
	a.structDecls[s] = decl
}

func (a *analyzer) resolveEnumFields(s *ast.EnumStatement) {
	decl, ok := a.enumDecls[s]
	if !ok {
		return // redefinition already reported
	}
	for i, v := range s.Variants {
		for _, fieldType := range v.FieldTypes {
			t, err := types.Parse(fieldType, a.info.Registry)
			if err != nil {
				a.errorAt(v.Token, diag.UndefinedType, "in variant %s::%s: %v", s.Name.Value, v.Name.Value, err)
				continue
			}
			decl.Variants[i].Fields = append(decl.Variants[i].Fields, t)
		}
	}
}

func (a *analyzer) resolveStructFields(s *ast.StructStatement) {
	decl, ok := a.structDecls[s]
	if !ok {
		return
	}
	seen := make(map[string]bool)
	for _, f := range s.Fields {
		if seen[f.Name.Value] {
			a.errorAt(f.Token, diag.Redefined, "struct %s declares field %s more than once", s.Name.Value, f.Name.Value)
			continue
		}
		seen[f.Name.Value] = true
		t, err := types.Parse(f.TypeName, a.info.Registry)
		if err != nil {
			a.errorAt(f.Token, diag.UndefinedType, "in field %s.%s: %v", s.Name.Value, f.Name.Value, err)
			continue
		}
		decl.Fields = append(decl.Fields, types.Field{Name: f.Name.Value, Type: t})
	}
}

func (a *analyzer) declareFunction(s *ast.FunctionStatement) {
	name := s.Name.Value
	if _, dup := a.info.Functions[name]; dup {
		a.errorAt(s.Token, diag.Redefined, "function %s is already declared", name)
		return
	}
	if _, isBuiltin := builtins[name]; isBuiltin {
		a.errorAt(s.Token, diag.Redefined, "function %s shadows a builtin", name)
		return
	}

	sig := &FuncSig{Name: name, Result: types.Null}
	for _, p := range s.Function.Parameters {
		t, err := types.Parse(p.TypeName, a.info.Registry)
		if err != nil {
			a.errorAt(p.Name.Token, diag.UndefinedType, "in parameter %s of %s: %v", p.Name.Value, name, err)
			t = types.Null
		}
		sig.Params = append(sig.Params, Param{Name: p.Name.Value, Type: t})
	}
	if s.Function.ReturnType != "" {
		t, err := types.Parse(s.Function.ReturnType, a.info.Registry)
		if err != nil {
			a.errorAt(s.Token, diag.UndefinedType, "in return type of %s: %v", name, err)
			t = types.Null
		}
		sig.Result = t
	}
	a.info.Functions[name] = sig
}
