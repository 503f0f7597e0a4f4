package parser

import (
	"strings"

	"mica/internal/token"
)

// parseTypeAnnotation parses the type after a ':'. Caller must have the
// current token on the colon; on success the current token is the last
// token of the type.
func (p *Parser) parseTypeAnnotation() (string, bool) {
	if !p.curTokenIs(token.COLON) {
		p.errorAt(p.curToken, "expected ':' before type annotation, got %s", p.curToken.Type)
		return "", false
	}
	p.nextToken()
	return p.parseTypeExpressionFromCurrent()
}

// parseTypeExpressionFromCurrent parses a type expression starting at the
// current token and renders it back to its canonical descriptor text:
//
//	int | float | bool | string | null
//	list<T>
//	(T1, T2, ...)
//	Name          (a declared struct or enum)
//
// Name resolution happens later; the parser only checks shape.
func (p *Parser) parseTypeExpressionFromCurrent() (string, bool) {
	switch p.curToken.Type {
	case token.IDENT:
		name := p.curToken.Literal
		if name == "list" {
			if !p.expectPeek(token.LT) {
				return "", false
			}
			p.nextToken()
			elem, ok := p.parseTypeExpressionFromCurrent()
			if !ok {
				return "", false
			}
			if !p.expectPeek(token.GT) {
				return "", false
			}
			return "list<" + elem + ">", true
		}
		return name, true
	case token.NULL:
		return "null", true
	case token.LPAREN:
		p.nextToken()
		first, ok := p.parseTypeExpressionFromCurrent()
		if !ok {
			return "", false
		}
		members := []string{first}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			member, ok := p.parseTypeExpressionFromCurrent()
			if !ok {
				return "", false
			}
			members = append(members, member)
		}
		if !p.expectPeek(token.RPAREN) {
			return "", false
		}
		if len(members) < 2 {
			p.errorAt(p.curToken, "tuple type needs at least two members")
			return "", false
		}
		return "(" + strings.Join(members, ", ") + ")", true
	default:
		p.errorAt(p.curToken, "expected a type, got %s", p.curToken.Type)
		return "", false
	}
}
