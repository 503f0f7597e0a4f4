package parser

import (
	"testing"

	"mica/internal/lexer"
)

// FuzzParserNoPanic ensures parsing never panics for arbitrary input.
func FuzzParserNoPanic(f *testing.F) {
	seeds := []string{
		"",
		"let x = 1;",
		"let xs: list<int> = [1, 2, 3];",
		"fn add(a: int, b: int): int { return a + b; }",
		"enum Color { Red, RGB(int, int, int) }",
		"let c = Color::RGB(255, 0, 0);",
		"match c { Color::RGB(r, g, b) => { print(r); } }",
		"struct Point { x: int, y: int }",
		"let p = Point { x: 1, y: 2 }; p.x;",
		"let t: (int, string) = (1, \"x\"); t.0;",
		"while (true) { push(xs, 1); }",
		"if (a <= b) { print(a); } else { print(b); }",
		"let = ;;;",
		"match { => }",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("parser panicked for input %q: %v", input, r)
			}
		}()

		l := lexer.New(input)
		p := New(l)
		program := p.ParseProgram()
		if program != nil {
			_ = program.String()
		}
		_ = p.Errors()
	})
}
