package parser

import (
	"mica/internal/ast"
	"mica/internal/token"
)

// parseStatement dispatches to specific statement parsers based on token type
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LET:
		stmt := p.parseLetStatement()
		if stmt == nil {
			return nil
		}
		return stmt
	case token.FUNCTION:
		stmt := p.parseFunctionStatement()
		if stmt == nil {
			return nil
		}
		return stmt
	case token.ENUM:
		stmt := p.parseEnumStatement()
		if stmt == nil {
			return nil
		}
		return stmt
	case token.STRUCT:
		stmt := p.parseStructStatement()
		if stmt == nil {
			return nil
		}
		return stmt
	case token.WHILE:
		return p.parseWhileStatement()
	case token.RETURN:
		stmt := p.parseReturnStatement()
		if stmt == nil {
			return nil
		}
		return stmt
	case token.IDENT:
		if p.peekTokenIs(token.ASSIGN) {
			stmt := p.parseAssignStatement()
			if stmt == nil {
				return nil
			}
			return stmt
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// parseLetStatement handles: let <name> [: <type>] = <value>;
func (p *Parser) parseLetStatement() *ast.LetStatement {
	stmt := &ast.LetStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		typeName, ok := p.parseTypeAnnotation()
		if !ok {
			return nil
		}
		stmt.TypeName = typeName
	}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

// parseAssignStatement handles: <name> = <value>;
func (p *Parser) parseAssignStatement() *ast.AssignStatement {
	stmt := &ast.AssignStatement{
		Token: p.curToken,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

// parseReturnStatement handles: return [<expression>];
func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		return stmt
	}

	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return stmt
}

// parseFunctionStatement handles: fn <name>(<params>) [: <type>] { <body> }
func (p *Parser) parseFunctionStatement() *ast.FunctionStatement {
	fnToken := p.curToken
	stmt := &ast.FunctionStatement{Token: fnToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	lit := &ast.FunctionLiteral{Token: fnToken, Name: name}

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

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	lit.Body = p.parseBlockStatement()

	stmt.Name = name
	stmt.Function = lit
	return stmt
}

// parseFunctionParameters parses the parameter list: x: int, y: float
func (p *Parser) parseFunctionParameters() []*ast.FunctionParameter {
	params := []*ast.FunctionParameter{}

	// Empty params: fn f()
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}

	p.nextToken() // Advance to first param

	param := p.parseFunctionParameter()
	if param == nil {
		return nil
	}
	params = append(params, param)

	// More params separated by commas
	for p.peekTokenIs(token.COMMA) {
		p.nextToken() // skip comma
		p.nextToken() // advance to next param
		param := p.parseFunctionParameter()
		if param == nil {
			return nil
		}
		params = append(params, param)
	}

	// Expect closing )
	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return params
}

func (p *Parser) parseFunctionParameter() *ast.FunctionParameter {
	if !p.curTokenIs(token.IDENT) {
		p.errorAt(p.curToken, "function parameter name must be an identifier, got %s", p.curToken.Type)
		return nil
	}
	param := &ast.FunctionParameter{
		Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}

	if !p.expectPeek(token.COLON) {
		return nil
	}
	typeName, ok := p.parseTypeAnnotation()
	if !ok {
		return nil
	}
	param.TypeName = typeName
	return param
}

// parseEnumStatement handles: enum Name { Variant, Variant(type, ...) }
func (p *Parser) parseEnumStatement() *ast.EnumStatement {
	stmt := &ast.EnumStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		return stmt
	}
	p.nextToken()
	for {
		variant := p.parseEnumVariant()
		if variant == nil {
			return nil
		}
		stmt.Variants = append(stmt.Variants, variant)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RBRACE) { // trailing comma
				p.nextToken()
				if p.peekTokenIs(token.SEMICOLON) {
					p.nextToken()
				}
				return stmt
			}
			p.nextToken()
			continue
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		return stmt
	}
}

func (p *Parser) parseEnumVariant() *ast.EnumVariant {
	if !p.curTokenIs(token.IDENT) {
		p.errorAt(p.curToken, "enum variant name must be an identifier, got %s", p.curToken.Type)
		return nil
	}
	variant := &ast.EnumVariant{
		Token: p.curToken,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}
	if !p.peekTokenIs(token.LPAREN) {
		return variant
	}
	p.nextToken() // (
	p.nextToken() // first field type
	for {
		fieldType, ok := p.parseTypeExpressionFromCurrent()
		if !ok {
			return nil
		}
		variant.FieldTypes = append(variant.FieldTypes, fieldType)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return variant
	}
}

// parseStructStatement handles: struct Name { field: type, ... }
func (p *Parser) parseStructStatement() *ast.StructStatement {
	stmt := &ast.StructStatement{Token: p.curToken, Fields: []*ast.StructField{}}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		return stmt
	}
	p.nextToken()
	for {
		if !p.curTokenIs(token.IDENT) {
			p.errorAt(p.curToken, "struct field name must be an identifier, got %s", p.curToken.Type)
			return nil
		}
		field := &ast.StructField{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
		}
		if !p.expectPeek(token.COLON) {
			return nil
		}
		typeName, ok := p.parseTypeAnnotation()
		if !ok {
			return nil
		}
		field.TypeName = typeName
		stmt.Fields = append(stmt.Fields, field)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RBRACE) { // trailing comma
				p.nextToken()
				if p.peekTokenIs(token.SEMICOLON) {
					p.nextToken()
				}
				return stmt
			}
			p.nextToken()
			continue
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		return stmt
	}
}

// parseExpressionStatement handles expressions used as statements.
// The trailing semicolon is optional only after brace-terminated forms
// (if and match used for their effects).
func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}

	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		return stmt
	}

	switch stmt.Expression.(type) {
	case *ast.IfExpression, *ast.MatchExpression:
		return stmt
	}

	p.peekError(token.SEMICOLON)
	return nil
}
