package ast

import (
	"bytes"
	"strings"

	"mica/internal/token"
)

// Node is the base interface for all AST nodes
// Every node must provide a TokenLiteral (for debugging) and String (for printing)
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement nodes don't produce values
// Examples: let x = 5; return 10;
type Statement interface {
	Node
	statementNode() // Dummy method to distinguish statements from expressions
}

// Expression nodes produce values
// Examples: 5, x, add(2, 3), 5 + 3
type Expression interface {
	Node
	expressionNode() // Dummy method to distinguish expressions from statements
}

// Program is the root node of every AST
// It contains a slice of statements (the top-level code)
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// String builds the program back into source code (useful for debugging)
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
	}
	return out.String()
}

// Identifier represents a variable name
// It's an expression because it produces a value (the variable's value)
type Identifier struct {
	Token token.Token // The IDENT token
	Value string      // The actual name: "x", "foo"
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// IntegerLiteral represents a number like 5 or 42
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

// FloatLiteral represents a floating-point number like 3.14
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

// StringLiteral represents a string like "hello"
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return "\"" + sl.Value + "\"" }

// NullLiteral represents null.
type NullLiteral struct {
	Token token.Token
}

func (nl *NullLiteral) expressionNode()      {}
func (nl *NullLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NullLiteral) String() string       { return "null" }

// Boolean represents true or false
type Boolean struct {
	Token token.Token
	Value bool
}

func (b *Boolean) expressionNode()      {}
func (b *Boolean) TokenLiteral() string { return b.Token.Literal }
func (b *Boolean) String() string       { return b.Token.Literal }

// ListLiteral represents [expr1, expr2, ...]
type ListLiteral struct {
	Token    token.Token // The '[' token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) String() string {
	var out bytes.Buffer
	parts := make([]string, 0, len(ll.Elements))
	for _, el := range ll.Elements {
		parts = append(parts, el.String())
	}
	out.WriteString("[")
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString("]")
	return out.String()
}

// TupleLiteral represents (expr1, expr2, ...)
type TupleLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (tl *TupleLiteral) expressionNode()      {}
func (tl *TupleLiteral) TokenLiteral() string { return tl.Token.Literal }
func (tl *TupleLiteral) String() string {
	var out bytes.Buffer
	parts := make([]string, 0, len(tl.Elements))
	for _, el := range tl.Elements {
		parts = append(parts, el.String())
	}
	out.WriteString("(")
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString(")")
	return out.String()
}

// LetStatement represents: let <name> = <value>;
type LetStatement struct {
	Token    token.Token // The LET token
	Name     *Identifier // Variable name
	TypeName string      // Optional explicit type annotation
	Value    Expression  // The initializer
}

func (ls *LetStatement) statementNode()       {}
func (ls *LetStatement) TokenLiteral() string { return ls.Token.Literal }

func (ls *LetStatement) String() string {
	var out bytes.Buffer
	out.WriteString(ls.TokenLiteral() + " ")
	out.WriteString(ls.Name.String())
	if ls.TypeName != "" {
		out.WriteString(": ")
		out.WriteString(ls.TypeName)
	}
	if ls.Value != nil {
		out.WriteString(" = ")
		out.WriteString(ls.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

// AssignStatement represents: <name> = <value>;
type AssignStatement struct {
	Token token.Token // The IDENT token
	Name  *Identifier
	Value Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }

func (as *AssignStatement) String() string {
	var out bytes.Buffer
	out.WriteString(as.Name.String())
	out.WriteString(" = ")
	if as.Value != nil {
		out.WriteString(as.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

// ReturnStatement represents: return <expression>;
type ReturnStatement struct {
	Token       token.Token // The RETURN token
	ReturnValue Expression
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }

func (rs *ReturnStatement) String() string {
	var out bytes.Buffer
	out.WriteString(rs.TokenLiteral())
	if rs.ReturnValue != nil {
		out.WriteString(" ")
		out.WriteString(rs.ReturnValue.String())
	}
	out.WriteString(";")
	return out.String()
}

// ExpressionStatement is a wrapper for expressions used as statements
// Example: 5 + 5; or add(2, 3);
// The expression is evaluated, then its value is discarded
type ExpressionStatement struct {
	Token      token.Token // First token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }

func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// BlockStatement is a sequence of statements inside braces
type BlockStatement struct {
	Token      token.Token // The { token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }

func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	for _, s := range bs.Statements {
		out.WriteString(s.String())
	}
	return out.String()
}

// WhileStatement represents while (<condition>) { <body> }
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	var out bytes.Buffer
	out.WriteString("while (")
	if ws.Condition != nil {
		out.WriteString(ws.Condition.String())
	}
	out.WriteString(") ")
	if ws.Body != nil {
		out.WriteString("{")
		out.WriteString(ws.Body.String())
		out.WriteString("}")
	}
	return out.String()
}

// PrefixExpression represents !<expr> or -<expr>
type PrefixExpression struct {
	Token    token.Token // The prefix token (! or -)
	Operator string      // "!" or "-"
	Right    Expression  // The operand
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }

func (pe *PrefixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(pe.Operator)
	out.WriteString(pe.Right.String())
	out.WriteString(")")
	return out.String()
}

// InfixExpression represents <left> <op> <right>
type InfixExpression struct {
	Token    token.Token // The operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }

func (ie *InfixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + ie.Operator + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")
	return out.String()
}

// IndexExpression represents: <left>[<index>]
type IndexExpression struct {
	Token token.Token // The '[' token
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) String() string {
	var out bytes.Buffer
	out.WriteString(ie.Left.String())
	out.WriteString("[")
	out.WriteString(ie.Index.String())
	out.WriteString("]")
	return out.String()
}

// IfExpression represents if (<condition>) <consequence> else <alternative>
type IfExpression struct {
	Token       token.Token // The IF token
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement
}

func (ie *IfExpression) expressionNode()      {}
func (ie *IfExpression) TokenLiteral() string { return ie.Token.Literal }

func (ie *IfExpression) String() string {
	var out bytes.Buffer
	out.WriteString("if")
	out.WriteString(ie.Condition.String())
	out.WriteString(" ")
	out.WriteString(ie.Consequence.String())
	if ie.Alternative != nil {
		out.WriteString("else ")
		out.WriteString(ie.Alternative.String())
	}
	return out.String()
}

// FunctionLiteral represents fn <name>(<params>): <type> { <body> }
type FunctionLiteral struct {
	Token      token.Token // The FN token
	Name       *Identifier // Optional function name
	Parameters []*FunctionParameter
	ReturnType string
	Body       *BlockStatement
}

type FunctionParameter struct {
	Name     *Identifier
	TypeName string
}

func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Literal }

func (fl *FunctionLiteral) String() string {
	var out bytes.Buffer
	params := []string{}
	for _, p := range fl.Parameters {
		param := p.Name.String()
		if p.TypeName != "" {
			param += ": " + p.TypeName
		}
		params = append(params, param)
	}
	out.WriteString(fl.TokenLiteral())
	if fl.Name != nil {
		out.WriteString(" ")
		out.WriteString(fl.Name.String())
	}
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") ")
	if fl.ReturnType != "" {
		out.WriteString(fl.ReturnType)
		out.WriteString(" ")
	}
	out.WriteString(fl.Body.String())
	return out.String()
}

type FunctionStatement struct {
	Token    token.Token
	Name     *Identifier
	Function *FunctionLiteral
}

func (fs *FunctionStatement) statementNode()       {}
func (fs *FunctionStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *FunctionStatement) String() string {
	if fs.Function != nil {
		return fs.Function.String()
	}
	return ""
}

// CallExpression represents <function>(<arguments>)
type CallExpression struct {
	Token     token.Token // The ( token
	Function  Expression  // Identifier or FunctionLiteral
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }

func (ce *CallExpression) String() string {
	var out bytes.Buffer
	args := []string{}
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	out.WriteString(ce.Function.String())
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")
	return out.String()
}

// EnumVariant is one alternative of an enum declaration, with optional
// positional field types: Red or RGB(int, int, int).
type EnumVariant struct {
	Token      token.Token
	Name       *Identifier
	FieldTypes []string
}

func (ev *EnumVariant) String() string {
	if len(ev.FieldTypes) == 0 {
		return ev.Name.String()
	}
	return ev.Name.String() + "(" + strings.Join(ev.FieldTypes, ", ") + ")"
}

// EnumStatement represents: enum Name { Variant, Variant(type, ...) }
type EnumStatement struct {
	Token    token.Token
	Name     *Identifier
	Variants []*EnumVariant
}

func (es *EnumStatement) statementNode()       {}
func (es *EnumStatement) TokenLiteral() string { return es.Token.Literal }
func (es *EnumStatement) String() string {
	var out bytes.Buffer
	out.WriteString("enum ")
	if es.Name != nil {
		out.WriteString(es.Name.String())
	}
	out.WriteString(" { ")
	parts := make([]string, 0, len(es.Variants))
	for _, v := range es.Variants {
		parts = append(parts, v.String())
	}
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString(" }")
	return out.String()
}

// EnumVariantExpression represents: EnumName::VariantName(args...)
type EnumVariantExpression struct {
	Token     token.Token // The :: token
	EnumName  *Identifier
	Variant   *Identifier
	Arguments []Expression
}

func (eve *EnumVariantExpression) expressionNode()      {}
func (eve *EnumVariantExpression) TokenLiteral() string { return eve.Token.Literal }
func (eve *EnumVariantExpression) String() string {
	var out bytes.Buffer
	out.WriteString(eve.EnumName.String())
	out.WriteString("::")
	out.WriteString(eve.Variant.String())
	if len(eve.Arguments) > 0 {
		args := make([]string, 0, len(eve.Arguments))
		for _, a := range eve.Arguments {
			args = append(args, a.String())
		}
		out.WriteString("(")
		out.WriteString(strings.Join(args, ", "))
		out.WriteString(")")
	}
	return out.String()
}

// MatchArm is one `Enum::Variant(bindings) => { body }` alternative.
type MatchArm struct {
	Token    token.Token
	EnumName *Identifier
	Variant  *Identifier
	Bindings []*Identifier
	Body     *BlockStatement
}

func (ma *MatchArm) String() string {
	var out bytes.Buffer
	out.WriteString(ma.EnumName.String())
	out.WriteString("::")
	out.WriteString(ma.Variant.String())
	if len(ma.Bindings) > 0 {
		names := make([]string, 0, len(ma.Bindings))
		for _, b := range ma.Bindings {
			names = append(names, b.String())
		}
		out.WriteString("(")
		out.WriteString(strings.Join(names, ", "))
		out.WriteString(")")
	}
	out.WriteString(" => {")
	if ma.Body != nil {
		out.WriteString(ma.Body.String())
	}
	out.WriteString("}")
	return out.String()
}

// MatchExpression represents: match <subject> { <arms> }
type MatchExpression struct {
	Token   token.Token // The MATCH token
	Subject Expression
	Arms    []*MatchArm
}

func (me *MatchExpression) expressionNode()      {}
func (me *MatchExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MatchExpression) String() string {
	var out bytes.Buffer
	out.WriteString("match ")
	out.WriteString(me.Subject.String())
	out.WriteString(" { ")
	parts := make([]string, 0, len(me.Arms))
	for _, a := range me.Arms {
		parts = append(parts, a.String())
	}
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString(" }")
	return out.String()
}

// StructField is one declared field of a struct type.
type StructField struct {
	Token    token.Token
	Name     *Identifier
	TypeName string
}

func (sf *StructField) String() string {
	return sf.Name.String() + ": " + sf.TypeName
}

// StructStatement represents: struct Name { field: type, ... }
type StructStatement struct {
	Token  token.Token
	Name   *Identifier
	Fields []*StructField
}

func (ss *StructStatement) statementNode()       {}
func (ss *StructStatement) TokenLiteral() string { return ss.Token.Literal }
func (ss *StructStatement) String() string {
	var out bytes.Buffer
	out.WriteString("struct ")
	if ss.Name != nil {
		out.WriteString(ss.Name.String())
	}
	out.WriteString(" { ")
	parts := make([]string, 0, len(ss.Fields))
	for _, f := range ss.Fields {
		parts = append(parts, f.String())
	}
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString(" }")
	return out.String()
}

// StructFieldInit is one `name: value` pair in a struct literal.
type StructFieldInit struct {
	Token token.Token
	Name  *Identifier
	Value Expression
}

func (sfi *StructFieldInit) String() string {
	return sfi.Name.String() + ": " + sfi.Value.String()
}

// StructLiteral represents: TypeName { field: value, ... }
type StructLiteral struct {
	Token    token.Token // The type-name token
	TypeName *Identifier
	Fields   []*StructFieldInit
}

func (sl *StructLiteral) expressionNode()      {}
func (sl *StructLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StructLiteral) String() string {
	var out bytes.Buffer
	out.WriteString(sl.TypeName.String())
	out.WriteString(" { ")
	parts := make([]string, 0, len(sl.Fields))
	for _, f := range sl.Fields {
		parts = append(parts, f.String())
	}
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString(" }")
	return out.String()
}

// MemberAccessExpression represents <object>.<property>
type MemberAccessExpression struct {
	Token    token.Token // The . token
	Object   Expression
	Property *Identifier
}

func (mae *MemberAccessExpression) expressionNode()      {}
func (mae *MemberAccessExpression) TokenLiteral() string { return mae.Token.Literal }
func (mae *MemberAccessExpression) String() string {
	var out bytes.Buffer
	if mae.Object != nil {
		out.WriteString(mae.Object.String())
	}
	out.WriteString(".")
	if mae.Property != nil {
		out.WriteString(mae.Property.String())
	}
	return out.String()
}
