package parser

import (
	"strconv"

	"mica/internal/ast"
	"mica/internal/token"
)

// parseExpression is the heart of Pratt parsing
// It handles prefix operators first, then loops to handle infix operators
// based on precedence
func (p *Parser) parseExpression(precedence int) ast.Expression {
	// First, find a prefix parser for current token
	// This handles: literals, identifiers, prefix operators (!, -), grouped expressions
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	leftExp := prefix()

	// While next token is an infix operator with higher precedence than ours,
	// consume it and build the expression tree
	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()            // Advance to the operator
		leftExp = infix(leftExp) // Parse with left side already known
	}

	return leftExp
}

func (p *Parser) noPrefixParseFnError(t token.TokenType) {
	p.errorAt(p.curToken, "unexpected token %s at start of expression", t)
}

// parseIdentifier parses a variable name, or a struct literal when the
// name is immediately followed by a brace.
func (p *Parser) parseIdentifier() ast.Expression {
	ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if p.peekTokenIs(token.LBRACE) && !p.noStructLiteral {
		return p.parseStructLiteral(ident)
	}
	return ident
}

// parseIntegerLiteral parses a number
func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{Token: p.curToken}

	// Convert string to int64
	value, err := strconv.ParseInt(p.curToken.Literal, 0, 64)
	if err != nil {
		p.errorAt(p.curToken, "could not parse %q as integer", p.curToken.Literal)
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errorAt(p.curToken, "could not parse %q as float", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNullLiteral() ast.Expression {
	return &ast.NullLiteral{Token: p.curToken}
}

// parseBoolean handles true/false
func (p *Parser) parseBoolean() ast.Expression {
	return &ast.Boolean{
		Token: p.curToken,
		Value: p.curTokenIs(token.TRUE),
	}
}

// parseListLiteral handles: [ <expr>, <expr>, ... ]
func (p *Parser) parseListLiteral() ast.Expression {
	lit := &ast.ListLiteral{Token: p.curToken}
	lit.Elements = []ast.Expression{}

	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return lit
	}

	p.nextToken()
	el := p.parseExpression(LOWEST)
	if el == nil {
		return nil
	}
	lit.Elements = append(lit.Elements, el)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		el := p.parseExpression(LOWEST)
		if el == nil {
			return nil
		}
		lit.Elements = append(lit.Elements, el)
	}

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}

	return lit
}

// parsePrefixExpression handles !<expr> and -<expr>
func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken() // Advance past ! or -

	// Parse the operand with PREFIX precedence (high)
	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}

	return expression
}

// parseInfixExpression handles <left> <op> <right>
// Called with left side already parsed
func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

// parseGroupedExpression handles ( <expr> ) and tuple literals
// ( <expr>, <expr>, ... ). Parentheses let us override precedence.
func (p *Parser) parseGroupedExpression() ast.Expression {
	lparen := p.curToken

	// Parentheses reopen struct literal position inside a match subject.
	prev := p.noStructLiteral
	p.noStructLiteral = false
	defer func() { p.noStructLiteral = prev }()

	p.nextToken() // Advance past (

	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.COMMA) {
		tuple := &ast.TupleLiteral{
			Token:    lparen,
			Elements: []ast.Expression{first},
		}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken() // ,
			p.nextToken() // next element
			el := p.parseExpression(LOWEST)
			if el == nil {
				return nil
			}
			tuple.Elements = append(tuple.Elements, el)
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return tuple
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return first
}

// parseIfExpression handles: if (<condition>) { ... } else { ... }
func (p *Parser) parseIfExpression() ast.Expression {
	expression := &ast.IfExpression{Token: p.curToken}

	// Expect (
	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	p.nextToken()
	expression.Condition = p.parseExpression(LOWEST)
	if expression.Condition == nil {
		return nil
	}

	// Expect )
	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	// Expect {
	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	expression.Consequence = p.parseBlockStatement()

	// Optional else, either a block or a chained if
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()

		if p.peekTokenIs(token.IF) {
			p.nextToken()
			chained := p.parseIfExpression()
			if chained == nil {
				return nil
			}
			expression.Alternative = &ast.BlockStatement{
				Token: p.curToken,
				Statements: []ast.Statement{
					&ast.ExpressionStatement{
						Token:      p.curToken,
						Expression: chained,
					},
				},
			}
			return expression
		}

		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		expression.Alternative = p.parseBlockStatement()
	}

	return expression
}

// parseBlockStatement parses a sequence of statements inside { }
func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	block.Statements = []ast.Statement{}

	p.nextToken()

	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else {
			p.synchronize()
		}
		p.nextToken()
	}

	return block
}

// parseMatchExpression handles:
//
//	match <subject> {
//	    Enum::Variant(a, b) => { ... },
//	    Enum::Other => { ... },
//	}
func (p *Parser) parseMatchExpression() ast.Expression {
	expression := &ast.MatchExpression{Token: p.curToken}

	p.nextToken()
	prev := p.noStructLiteral
	p.noStructLiteral = true
	expression.Subject = p.parseExpression(LOWEST)
	p.noStructLiteral = prev
	if expression.Subject == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
		arm := p.parseMatchArm()
		if arm == nil {
			return nil
		}
		expression.Arms = append(expression.Arms, arm)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return expression
}

func (p *Parser) parseMatchArm() *ast.MatchArm {
	if !p.curTokenIs(token.IDENT) {
		p.errorAt(p.curToken, "match arm must start with an enum name, got %s", p.curToken.Type)
		return nil
	}
	arm := &ast.MatchArm{
		Token:    p.curToken,
		EnumName: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}
	if !p.expectPeek(token.SCOPE) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	arm.Variant = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		if p.peekTokenIs(token.RPAREN) {
			p.errorAt(p.peekToken, "match binding list cannot be empty")
			return nil
		}
		for {
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			arm.Bindings = append(arm.Bindings, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
	}

	if !p.expectPeek(token.FATARROW) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	arm.Body = p.parseBlockStatement()
	return arm
}

// parseFunctionLiteral handles anonymous functions: fn(<params>) [: <type>] { <body> }
func (p *Parser) parseFunctionLiteral() ast.Expression {
	lit := &ast.FunctionLiteral{Token: p.curToken}

	// Expect (
	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	lit.Parameters = p.parseFunctionParameters()
	if lit.Parameters == nil {
		return nil
	}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		returnType, ok := p.parseTypeAnnotation()
		if !ok {
			return nil
		}
		lit.ReturnType = returnType
	}

	// Expect {
	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	lit.Body = p.parseBlockStatement()

	return lit
}

// parseCallExpression handles: <function>(<arguments>)
// Called when we see ( after parsing a function expression
func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Function: function}
	exp.Arguments = p.parseCallArguments()
	return exp
}

// parseCallArguments parses argument list: 1, 2, 3
func (p *Parser) parseCallArguments() []ast.Expression {
	args := []ast.Expression{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}

	p.nextToken()
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return nil
	}
	args = append(args, arg)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return args
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}
	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	if exp.Index == nil {
		return nil
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return exp
}

// parseMemberAccessExpression handles <object>.<field> and the positional
// form <tuple>.<index>.
func (p *Parser) parseMemberAccessExpression(left ast.Expression) ast.Expression {
	dotTok := p.curToken

	if p.peekTokenIs(token.INT) {
		p.nextToken()
		if _, err := strconv.Atoi(p.curToken.Literal); err != nil {
			p.errorAt(p.curToken, "tuple access index must be a plain int literal, got %q", p.curToken.Literal)
			return nil
		}
		return &ast.MemberAccessExpression{
			Token:    dotTok,
			Object:   left,
			Property: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
		}
	}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.MemberAccessExpression{
		Token:    dotTok,
		Object:   left,
		Property: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}
}

// parseEnumVariantExpression handles Enum::Variant and Enum::Variant(args)
func (p *Parser) parseEnumVariantExpression(left ast.Expression) ast.Expression {
	scopeTok := p.curToken

	enumName, ok := left.(*ast.Identifier)
	if !ok {
		p.errorAt(scopeTok, "left side of '::' must be an enum name")
		return nil
	}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	exp := &ast.EnumVariantExpression{
		Token:    scopeTok,
		EnumName: enumName,
		Variant:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		exp.Arguments = p.parseCallArguments()
		if exp.Arguments == nil {
			return nil
		}
	}
	return exp
}

// parseStructLiteral handles: TypeName { field: value, ... }
// Called from parseIdentifier with the type name already consumed.
func (p *Parser) parseStructLiteral(typeName *ast.Identifier) ast.Expression {
	lit := &ast.StructLiteral{Token: typeName.Token, TypeName: typeName}

	p.nextToken() // {
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return lit
	}

	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		field := &ast.StructFieldInit{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
		}
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		field.Value = p.parseExpression(LOWEST)
		if field.Value == nil {
			return nil
		}
		lit.Fields = append(lit.Fields, field)

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RBRACE) { // trailing comma
				p.nextToken()
				return lit
			}
			continue
		}
		break
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return lit
}
