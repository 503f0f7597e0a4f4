package ast

import "mica/internal/token"

// TokenOf extracts the leading token of a node when it carries a usable
// source position. Diagnostics use this to point at the offending code.
func TokenOf(node Node) (token.Token, bool) {
	switch n := node.(type) {
	case *Identifier:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *IntegerLiteral:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *FloatLiteral:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *StringLiteral:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *NullLiteral:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *Boolean:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *ListLiteral:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *TupleLiteral:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *LetStatement:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *AssignStatement:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *ReturnStatement:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *ExpressionStatement:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *BlockStatement:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *WhileStatement:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *PrefixExpression:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *InfixExpression:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *IndexExpression:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *IfExpression:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *FunctionLiteral:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *FunctionStatement:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *CallExpression:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *EnumStatement:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *EnumVariantExpression:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *MatchExpression:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *StructStatement:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *StructLiteral:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	case *MemberAccessExpression:
		return n.Token, n.Token.Line > 0 && n.Token.Column > 0
	default:
		return token.Token{}, false
	}
}
