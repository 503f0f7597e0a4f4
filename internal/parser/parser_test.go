package parser

import (
	"testing"

	"mica/internal/ast"
	"mica/internal/diag"
	"mica/internal/lexer"
)

func TestLetRequiresSemicolon(t *testing.T) {
	p := New(lexer.New("let x = 5"))
	_ = p.ParseProgram()

	if len(p.Errors()) == 0 {
		t.Fatalf("expected parser errors, got none")
	}
	if !p.Bag().HasCode(diag.SyntaxError) {
		t.Fatalf("expected SyntaxError code, got %v", p.Errors())
	}
}

func TestLetWithTypeAnnotation(t *testing.T) {
	p := New(lexer.New("let xs: list<int> = [1, 2, 3];"))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got=%d", len(program.Statements))
	}
	stmt, ok := program.Statements[0].(*ast.LetStatement)
	if !ok {
		t.Fatalf("expected let statement, got=%T", program.Statements[0])
	}
	if stmt.TypeName != "list<int>" {
		t.Fatalf("expected type annotation list<int>, got=%q", stmt.TypeName)
	}
	lit, ok := stmt.Value.(*ast.ListLiteral)
	if !ok {
		t.Fatalf("expected list literal initializer, got=%T", stmt.Value)
	}
	if len(lit.Elements) != 3 {
		t.Fatalf("expected 3 list elements, got=%d", len(lit.Elements))
	}
}

func TestLetRequiresInitializer(t *testing.T) {
	p := New(lexer.New("let x: int;"))
	_ = p.ParseProgram()

	if len(p.Errors()) == 0 {
		t.Fatalf("expected parser errors for let without initializer")
	}
}

func TestTupleTypeAnnotation(t *testing.T) {
	p := New(lexer.New("let pair: (int, float) = (1, 2.5);"))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	stmt := program.Statements[0].(*ast.LetStatement)
	if stmt.TypeName != "(int, float)" {
		t.Fatalf("expected tuple type annotation, got=%q", stmt.TypeName)
	}
	if _, ok := stmt.Value.(*ast.TupleLiteral); !ok {
		t.Fatalf("expected tuple literal initializer, got=%T", stmt.Value)
	}
}

func TestAssignStatementParses(t *testing.T) {
	p := New(lexer.New("let x = 1; x = 2;"))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got=%d", len(program.Statements))
	}
	if _, ok := program.Statements[1].(*ast.AssignStatement); !ok {
		t.Fatalf("expected assign statement, got=%T", program.Statements[1])
	}
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"-a * b;", "((-a) * b)"},
		{"a + b * c;", "(a + (b * c))"},
		{"a + b % c;", "(a + (b % c))"},
		{"5 < 4 != 3 > 4;", "((5 < 4) != (3 > 4))"},
		{"a <= b == c >= d;", "((a <= b) == (c >= d))"},
		{"!true == false;", "((!true) == false)"},
		{"a && b || c;", "((a && b) || c)"},
		{"(a + b) * c;", "((a + b) * c)"},
		{"add(a, b) + c;", "(add(a, b) + c)"},
		{"xs[0] + xs[1];", "(xs[0] + xs[1])"},
	}

	for _, tt := range tests {
		p := New(lexer.New(tt.input))
		program := p.ParseProgram()
		checkNoParserErrors(t, p)

		stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
		if !ok {
			t.Fatalf("%q: expected expression statement, got=%T", tt.input, program.Statements[0])
		}
		if got := stmt.Expression.String(); got != tt.expected {
			t.Fatalf("%q: parsed as %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFunctionStatementParses(t *testing.T) {
	p := New(lexer.New("fn add(a: int, b: int): int { return a + b; }"))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	stmt, ok := program.Statements[0].(*ast.FunctionStatement)
	if !ok {
		t.Fatalf("expected function statement, got=%T", program.Statements[0])
	}
	if stmt.Name.Value != "add" {
		t.Fatalf("wrong function name: %q", stmt.Name.Value)
	}
	fn := stmt.Function
	if len(fn.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got=%d", len(fn.Parameters))
	}
	if fn.Parameters[0].Name.Value != "a" || fn.Parameters[0].TypeName != "int" {
		t.Fatalf("bad first parameter: %v %q", fn.Parameters[0].Name, fn.Parameters[0].TypeName)
	}
	if fn.ReturnType != "int" {
		t.Fatalf("expected return type int, got=%q", fn.ReturnType)
	}
}

func TestFunctionParameterRequiresType(t *testing.T) {
	p := New(lexer.New("fn f(a) { return a; }"))
	_ = p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected error for untyped parameter")
	}
}

func TestEnumDeclarationParses(t *testing.T) {
	input := `
enum Color {
    Red,
    Green,
    RGB(int, int, int),
}
`
	p := New(lexer.New(input))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	stmt, ok := program.Statements[0].(*ast.EnumStatement)
	if !ok {
		t.Fatalf("expected enum statement, got=%T", program.Statements[0])
	}
	if stmt.Name.Value != "Color" {
		t.Fatalf("wrong enum name: %q", stmt.Name.Value)
	}
	if len(stmt.Variants) != 3 {
		t.Fatalf("expected 3 variants, got=%d", len(stmt.Variants))
	}
	rgb := stmt.Variants[2]
	if rgb.Name.Value != "RGB" || len(rgb.FieldTypes) != 3 {
		t.Fatalf("bad RGB variant: %v", rgb)
	}
	if rgb.FieldTypes[0] != "int" {
		t.Fatalf("expected int field type, got=%q", rgb.FieldTypes[0])
	}
}

func TestEnumVariantExpressionParses(t *testing.T) {
	p := New(lexer.New("let c = Color::RGB(255, 0, 0);"))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	stmt := program.Statements[0].(*ast.LetStatement)
	exp, ok := stmt.Value.(*ast.EnumVariantExpression)
	if !ok {
		t.Fatalf("expected enum variant expression, got=%T", stmt.Value)
	}
	if exp.EnumName.Value != "Color" || exp.Variant.Value != "RGB" {
		t.Fatalf("wrong variant path: %s::%s", exp.EnumName.Value, exp.Variant.Value)
	}
	if len(exp.Arguments) != 3 {
		t.Fatalf("expected 3 arguments, got=%d", len(exp.Arguments))
	}
}

func TestUnitVariantExpressionParses(t *testing.T) {
	p := New(lexer.New("let c = Color::Red;"))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	stmt := program.Statements[0].(*ast.LetStatement)
	exp, ok := stmt.Value.(*ast.EnumVariantExpression)
	if !ok {
		t.Fatalf("expected enum variant expression, got=%T", stmt.Value)
	}
	if len(exp.Arguments) != 0 {
		t.Fatalf("unit variant should carry no arguments, got=%d", len(exp.Arguments))
	}
}

func TestMatchExpressionParses(t *testing.T) {
	input := `
match c {
    Color::RGB(r, g, b) => { print(r); },
    Color::Red => { print(0); },
}
`
	p := New(lexer.New(input))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement, got=%T", program.Statements[0])
	}
	m, ok := stmt.Expression.(*ast.MatchExpression)
	if !ok {
		t.Fatalf("expected match expression, got=%T", stmt.Expression)
	}
	if sub, ok := m.Subject.(*ast.Identifier); !ok || sub.Value != "c" {
		t.Fatalf("expected identifier subject c, got=%v", m.Subject)
	}
	if len(m.Arms) != 2 {
		t.Fatalf("expected 2 arms, got=%d", len(m.Arms))
	}
	arm := m.Arms[0]
	if arm.EnumName.Value != "Color" || arm.Variant.Value != "RGB" {
		t.Fatalf("wrong arm path: %s::%s", arm.EnumName.Value, arm.Variant.Value)
	}
	if len(arm.Bindings) != 3 || arm.Bindings[2].Value != "b" {
		t.Fatalf("bad bindings: %v", arm.Bindings)
	}
	if len(m.Arms[1].Bindings) != 0 {
		t.Fatalf("unit arm should have no bindings")
	}
}

func TestStructDeclarationAndLiteralParse(t *testing.T) {
	input := `
struct Point { x: int, y: int }
let p = Point { x: 1, y: 2 };
`
	p := New(lexer.New(input))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got=%d", len(program.Statements))
	}
	decl, ok := program.Statements[0].(*ast.StructStatement)
	if !ok {
		t.Fatalf("expected struct statement, got=%T", program.Statements[0])
	}
	if len(decl.Fields) != 2 || decl.Fields[1].Name.Value != "y" {
		t.Fatalf("bad struct fields: %v", decl.Fields)
	}

	let := program.Statements[1].(*ast.LetStatement)
	lit, ok := let.Value.(*ast.StructLiteral)
	if !ok {
		t.Fatalf("expected struct literal, got=%T", let.Value)
	}
	if lit.TypeName.Value != "Point" || len(lit.Fields) != 2 {
		t.Fatalf("bad struct literal: %v", lit)
	}
}

func TestMemberAndTupleAccessParse(t *testing.T) {
	p := New(lexer.New("p.x; t.0;"))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got=%d", len(program.Statements))
	}
	first := program.Statements[0].(*ast.ExpressionStatement)
	acc, ok := first.Expression.(*ast.MemberAccessExpression)
	if !ok || acc.Property.Value != "x" {
		t.Fatalf("expected member access .x, got=%v", first.Expression)
	}
	second := program.Statements[1].(*ast.ExpressionStatement)
	tup, ok := second.Expression.(*ast.MemberAccessExpression)
	if !ok || tup.Property.Value != "0" {
		t.Fatalf("expected tuple access .0, got=%v", second.Expression)
	}
}

func TestWhileStatementParses(t *testing.T) {
	p := New(lexer.New("while (i < 10) { i = i + 1; }"))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	stmt, ok := program.Statements[0].(*ast.WhileStatement)
	if !ok {
		t.Fatalf("expected while statement, got=%T", program.Statements[0])
	}
	if len(stmt.Body.Statements) != 1 {
		t.Fatalf("expected 1 body statement, got=%d", len(stmt.Body.Statements))
	}
}

func TestIfElseChainParses(t *testing.T) {
	p := New(lexer.New("if (a) { x = 1; } else if (b) { x = 2; } else { x = 3; }"))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	stmt := program.Statements[0].(*ast.ExpressionStatement)
	top, ok := stmt.Expression.(*ast.IfExpression)
	if !ok {
		t.Fatalf("expected if expression, got=%T", stmt.Expression)
	}
	if top.Alternative == nil || len(top.Alternative.Statements) != 1 {
		t.Fatalf("expected chained alternative")
	}
	inner, ok := top.Alternative.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected wrapped chained if, got=%T", top.Alternative.Statements[0])
	}
	chained, ok := inner.Expression.(*ast.IfExpression)
	if !ok || chained.Alternative == nil {
		t.Fatalf("expected else-if with final else, got=%v", inner.Expression)
	}
}

func TestCommentsIgnoredByParser(t *testing.T) {
	input := `
let x = 1; // inline comment
/* block
comment */
x = x + 1;
`
	p := New(lexer.New(input))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)

	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got=%d", len(program.Statements))
	}
}

func TestErrorsCarryPositions(t *testing.T) {
	p := New(lexer.New("let = 5;"))
	_ = p.ParseProgram()

	errs := p.Errors()
	if len(errs) == 0 {
		t.Fatalf("expected parser errors, got none")
	}
	if errs[0].Line != 1 {
		t.Fatalf("expected error on line 1, got %d", errs[0].Line)
	}
}

func TestRecoveryReportsMultipleErrors(t *testing.T) {
	p := New(lexer.New("let = 1;\nlet = 2;\nlet ok = 3;"))
	program := p.ParseProgram()

	if len(p.Errors()) < 2 {
		t.Fatalf("expected at least 2 errors after resync, got %v", p.Errors())
	}
	// The valid trailing statement still parses
	found := false
	for _, s := range program.Statements {
		if let, ok := s.(*ast.LetStatement); ok && let.Name.Value == "ok" {
			found = true
		}
	}
	if !found {
		t.Fatalf("parser did not recover to parse the valid statement")
	}
}

func checkNoParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	if len(p.Errors()) == 0 {
		return
	}
	t.Fatalf("parser errors: %v", p.Errors())
}
