package ast

import (
	"testing"

	"mica/internal/token"
)

func TestLetStatementString(t *testing.T) {
	stmt := &LetStatement{
		Token:    token.Token{Type: token.LET, Literal: "let"},
		Name:     &Identifier{Token: token.Token{Type: token.IDENT, Literal: "xs"}, Value: "xs"},
		TypeName: "list<int>",
		Value: &ListLiteral{
			Token: token.Token{Type: token.LBRACKET, Literal: "["},
			Elements: []Expression{
				&IntegerLiteral{Token: token.Token{Type: token.INT, Literal: "1"}, Value: 1},
				&IntegerLiteral{Token: token.Token{Type: token.INT, Literal: "2"}, Value: 2},
			},
		},
	}

	want := "let xs: list<int> = [1, 2];"
	if got := stmt.String(); got != want {
		t.Fatalf("String()=%q want=%q", got, want)
	}
}

func TestEnumVariantExpressionString(t *testing.T) {
	expr := &EnumVariantExpression{
		Token:    token.Token{Type: token.SCOPE, Literal: "::"},
		EnumName: &Identifier{Value: "Color"},
		Variant:  &Identifier{Value: "RGB"},
		Arguments: []Expression{
			&IntegerLiteral{Token: token.Token{Literal: "255"}, Value: 255},
			&IntegerLiteral{Token: token.Token{Literal: "0"}, Value: 0},
			&IntegerLiteral{Token: token.Token{Literal: "0"}, Value: 0},
		},
	}

	want := "Color::RGB(255, 0, 0)"
	if got := expr.String(); got != want {
		t.Fatalf("String()=%q want=%q", got, want)
	}
}

func TestMatchExpressionString(t *testing.T) {
	expr := &MatchExpression{
		Token:   token.Token{Type: token.MATCH, Literal: "match"},
		Subject: &Identifier{Value: "c"},
		Arms: []*MatchArm{
			{
				EnumName: &Identifier{Value: "Color"},
				Variant:  &Identifier{Value: "Red"},
				Body:     &BlockStatement{},
			},
			{
				EnumName: &Identifier{Value: "Color"},
				Variant:  &Identifier{Value: "RGB"},
				Bindings: []*Identifier{{Value: "r"}, {Value: "g"}, {Value: "b"}},
				Body:     &BlockStatement{},
			},
		},
	}

	want := "match c { Color::Red => {}, Color::RGB(r, g, b) => {} }"
	if got := expr.String(); got != want {
		t.Fatalf("String()=%q want=%q", got, want)
	}
}

func TestTokenOf(t *testing.T) {
	id := &Identifier{Token: token.Token{Type: token.IDENT, Literal: "x", Line: 3, Column: 7}, Value: "x"}
	tok, ok := TokenOf(id)
	if !ok || tok.Line != 3 || tok.Column != 7 {
		t.Fatalf("TokenOf=%v ok=%v, want position 3:7", tok, ok)
	}

	if _, ok := TokenOf(&Identifier{Value: "nopos"}); ok {
		t.Fatalf("TokenOf should report no position for a zero token")
	}
}
