package lexer

import (
	"testing"

	"mica/internal/token"
)

func TestNextTokenOperatorsAndDelimiters(t *testing.T) {
	input := `= + - ! * / % < > <= >= == != && || , ; : :: . => ( ) { } [ ]`

	want := []token.TokenType{
		token.ASSIGN, token.PLUS, token.MINUS, token.BANG, token.ASTERISK,
		token.SLASH, token.PERCENT, token.LT, token.GT, token.LE, token.GE,
		token.EQ, token.NOT_EQ, token.AND, token.OR, token.COMMA,
		token.SEMICOLON, token.COLON, token.SCOPE, token.DOT, token.FATARROW,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.EOF,
	}

	l := New(input)
	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("token %d: got %q (%q), want %q", i, tok.Type, tok.Literal, wt)
		}
	}
}

func TestNextTokenProgram(t *testing.T) {
	input := `
enum Color { Red, RGB(int, int, int) }

fn area(xs: list<int>): int {
	let c = Color::RGB(255, 0, 0);
	match c {
		Color::Red => { return 0; },
		Color::RGB(r, g, b) => { return r; },
	}
	return len(xs);
}
`
	tests := []struct {
		wantType    token.TokenType
		wantLiteral string
	}{
		{token.ENUM, "enum"},
		{token.IDENT, "Color"},
		{token.LBRACE, "{"},
		{token.IDENT, "Red"},
		{token.COMMA, ","},
		{token.IDENT, "RGB"},
		{token.LPAREN, "("},
		{token.IDENT, "int"},
		{token.COMMA, ","},
		{token.IDENT, "int"},
		{token.COMMA, ","},
		{token.IDENT, "int"},
		{token.RPAREN, ")"},
		{token.RBRACE, "}"},
		{token.FUNCTION, "fn"},
		{token.IDENT, "area"},
		{token.LPAREN, "("},
		{token.IDENT, "xs"},
		{token.COLON, ":"},
		{token.IDENT, "list"},
		{token.LT, "<"},
		{token.IDENT, "int"},
		{token.GT, ">"},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.IDENT, "int"},
		{token.LBRACE, "{"},
		{token.LET, "let"},
		{token.IDENT, "c"},
		{token.ASSIGN, "="},
		{token.IDENT, "Color"},
		{token.SCOPE, "::"},
		{token.IDENT, "RGB"},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.wantType {
			t.Fatalf("token %d: got type %q, want %q", i, tok.Type, tt.wantType)
		}
		if tok.Literal != tt.wantLiteral {
			t.Fatalf("token %d: got literal %q, want %q", i, tok.Literal, tt.wantLiteral)
		}
	}
}

func TestNumbersAndStrings(t *testing.T) {
	l := New(`42 3.14 "hello world" 0`)

	tok := l.NextToken()
	if tok.Type != token.INT || tok.Literal != "42" {
		t.Fatalf("got %q %q, want INT 42", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != token.FLOAT || tok.Literal != "3.14" {
		t.Fatalf("got %q %q, want FLOAT 3.14", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != token.STRING || tok.Literal != "hello world" {
		t.Fatalf("got %q %q, want STRING", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != token.INT || tok.Literal != "0" {
		t.Fatalf("got %q %q, want INT 0", tok.Type, tok.Literal)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	input := `
let x = 1; // trailing comment
/* block
   comment */ let y = 2;
`
	l := New(input)
	var kinds []token.TokenType
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		kinds = append(kinds, tok.Type)
	}
	want := []token.TokenType{
		token.LET, token.IDENT, token.ASSIGN, token.INT, token.SEMICOLON,
		token.LET, token.IDENT, token.ASSIGN, token.INT, token.SEMICOLON,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(kinds), kinds, len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: got %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestPositionsTracked(t *testing.T) {
	input := "let x = 5;\nlet y = 6;"
	l := New(input)

	tok := l.NextToken() // let
	if tok.Line != 1 || tok.Column != 1 {
		t.Fatalf("first token at %d:%d, want 1:1", tok.Line, tok.Column)
	}
	for tok.Type != token.SEMICOLON {
		tok = l.NextToken()
	}
	tok = l.NextToken() // second let
	if tok.Line != 2 || tok.Column != 1 {
		t.Fatalf("second let at %d:%d, want 2:1", tok.Line, tok.Column)
	}
	tok = l.NextToken() // y
	if tok.Line != 2 || tok.Column != 5 {
		t.Fatalf("y at %d:%d, want 2:5", tok.Line, tok.Column)
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("let x = @;")
	var sawIllegal bool
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		if tok.Type == token.ILLEGAL {
			sawIllegal = true
		}
	}
	if !sawIllegal {
		t.Fatalf("expected an ILLEGAL token for '@'")
	}
}
