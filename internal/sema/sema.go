// Package sema performs semantic analysis: name resolution, type
// checking and single-owner move tracking. It produces an Info side
// table that the interpreter and the native backend both consume; the
// AST itself is never mutated.
package sema

import (
	"mica/internal/ast"
	"mica/internal/diag"
	"mica/internal/token"
	"mica/internal/types"
)

// Param is one declared function parameter.
type Param struct {
	Name string
	Type types.Type
}

// FuncSig is the callable surface of a declared function.
type FuncSig struct {
	Name   string
	Params []Param
	Result types.Type
}

// Obligation is one destruction the owner of a scope must perform when
// the scope exits: free the named variable's heap value.
type Obligation struct {
	Name string
	Type types.Type
}

// Info carries everything later phases need that is not in the AST:
// resolved types per expression, declared type layouts, function
// signatures, and the per-scope destruction lists in reverse
// declaration order.
type Info struct {
	Registry  *types.Registry
	Functions map[string]*FuncSig

	// Types maps every checked expression to its static type.
	Types map[ast.Expression]types.Type

	// BlockFrees lists, per block, the variables whose heap values the
	// block still owns when it ends, most recently declared first.
	BlockFrees map[*ast.BlockStatement][]Obligation

	// TopFrees is the same list for the top-level program scope.
	TopFrees []Obligation

	// AssignFrees marks assignments that overwrite a live heap value;
	// the old value must be freed before the store.
	AssignFrees map[*ast.AssignStatement]bool

	// DiscardFrees marks expression statements whose discarded result
	// owns heap memory; the statement frees it immediately.
	DiscardFrees map[*ast.ExpressionStatement]bool

	// ArgFrees marks builtin arguments whose heap-owning results have no
	// owner; the call site frees them once the builtin returns.
	ArgFrees map[ast.Expression]bool
}

// TypeOf returns the resolved type of an expression, or nil when the
// expression never checked cleanly.
func (info *Info) TypeOf(e ast.Expression) types.Type {
	return info.Types[e]
}

// variable is one tracked binding. owned is false for match-arm
// bindings, which view enum fields without owning them.
type variable struct {
	name  string
	typ   types.Type
	tok   token.Token
	owned bool
	moved bool
}

type scope struct {
	vars  map[string]*variable
	order []*variable
}

func newScope() *scope {
	return &scope{vars: make(map[string]*variable)}
}

type analyzer struct {
	bag     *diag.Bag
	info    *Info
	scopes  []*scope
	curFunc *FuncSig

	// loopBounds holds the scope depth at each enclosing while entry.
	// Moving a variable declared outside the innermost loop would leave
	// it dangling for the next iteration.
	loopBounds []int

	// Declaration-pass bookkeeping: only statements that defined their
	// name get their layouts resolved in the second pass.
	enumDecls   map[*ast.EnumStatement]*types.EnumDecl
	structDecls map[*ast.StructStatement]*types.StructDecl

	// branchStmt is the expression of the statement currently being
	// checked, when it stands alone. if and match are control flow, not
	// values; they are rejected anywhere else.
	branchStmt ast.Expression
}

// Analyze checks the whole program and returns the side table plus every
// diagnostic found. The Info is complete only when the bag is empty.
func Analyze(program *ast.Program) (*Info, *diag.Bag) {
	a := &analyzer{
		bag: &diag.Bag{},
		info: &Info{
			Registry:     types.NewRegistry(),
			Functions:    make(map[string]*FuncSig),
			Types:        make(map[ast.Expression]types.Type),
			BlockFrees:   make(map[*ast.BlockStatement][]Obligation),
			AssignFrees:  make(map[*ast.AssignStatement]bool),
			DiscardFrees: make(map[*ast.ExpressionStatement]bool),
			ArgFrees:     make(map[ast.Expression]bool),
		},
		enumDecls:   make(map[*ast.EnumStatement]*types.EnumDecl),
		structDecls: make(map[*ast.StructStatement]*types.StructDecl),
	}

	a.collectDecls(program)

	a.pushScope()
	for _, stmt := range program.Statements {
		a.checkStatement(stmt)
	}
	a.info.TopFrees = a.popScopeObligations()

	return a.info, a.bag
}

func (a *analyzer) pushScope() {
	a.scopes = append(a.scopes, newScope())
}

// popScopeObligations closes the innermost scope and returns what it
// still owns, in reverse declaration order.
func (a *analyzer) popScopeObligations() []Obligation {
	s := a.scopes[len(a.scopes)-1]
	a.scopes = a.scopes[:len(a.scopes)-1]

	var obligations []Obligation
	for i := len(s.order) - 1; i >= 0; i-- {
		v := s.order[i]
		if v.owned && !v.moved && types.IsHeapOwning(v.typ) {
			obligations = append(obligations, Obligation{Name: v.name, Type: v.typ})
		}
	}
	return obligations
}

// declare introduces a binding in the innermost scope. Shadowing an
// outer scope is allowed; redeclaring within the same scope is not.
func (a *analyzer) declare(name string, typ types.Type, tok token.Token, owned bool) *variable {
	s := a.scopes[len(a.scopes)-1]
	if _, dup := s.vars[name]; dup {
		a.errorAt(tok, diag.Redefined, "%s is already declared in this scope", name)
		return nil
	}
	v := &variable{name: name, typ: typ, tok: tok, owned: owned}
	s.vars[name] = v
	s.order = append(s.order, v)
	return v
}

// lookup resolves a name against the scope stack, innermost first.
func (a *analyzer) lookup(name string) (*variable, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if v, ok := a.scopes[i].vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// scopeDepthOf returns the index of the scope that declared v, or -1.
func (a *analyzer) scopeDepthOf(v *variable) int {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if a.scopes[i].vars[v.name] == v {
			return i
		}
	}
	return -1
}

func (a *analyzer) errorAt(tok token.Token, code diag.Code, format string, args ...interface{}) {
	a.bag.Addf(code, tok.Line, tok.Column, format, args...)
}

func (a *analyzer) errorNode(node ast.Node, code diag.Code, format string, args ...interface{}) {
	if tok, ok := ast.TokenOf(node); ok {
		a.bag.Addf(code, tok.Line, tok.Column, format, args...)
		return
	}
	a.bag.Addf(code, 0, 0, format, args...)
}

// movedSnapshot captures the moved flags of every currently visible
// variable so branches can be checked independently and merged.
func (a *analyzer) movedSnapshot() map[*variable]bool {
	snap := make(map[*variable]bool)
	for _, s := range a.scopes {
		for _, v := range s.vars {
			snap[v] = v.moved
		}
	}
	return snap
}

func (a *analyzer) restoreMoved(snap map[*variable]bool) {
	for v, moved := range snap {
		v.moved = moved
	}
}

// mergeMoved folds a branch outcome in: a variable counts as moved after
// the branch point if any branch moved it.
func mergeMoved(into map[*variable]bool, branch map[*variable]bool) {
	for v, moved := range branch {
		if moved {
			into[v] = true
		}
	}
}
