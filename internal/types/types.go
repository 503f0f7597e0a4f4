package types

import (
	"fmt"
	"strings"
)

// Type is the static type of an expression. Types are immutable; compare
// them with Equal, never by pointer.
type Type interface {
	String() string
	Equal(Type) bool
}

// Basic covers the fixed scalar types: int, float, bool, string, null.
type Basic string

const (
	Int    Basic = "int"
	Float  Basic = "float"
	Bool   Basic = "bool"
	String Basic = "string"
	Null   Basic = "null"
)

func (b Basic) String() string { return string(b) }

func (b Basic) Equal(other Type) bool {
	o, ok := other.(Basic)
	return ok && o == b
}

// List is a growable homogeneous container: list<T>.
type List struct {
	Elem Type
}

func (l List) String() string { return "list<" + l.Elem.String() + ">" }

func (l List) Equal(other Type) bool {
	o, ok := other.(List)
	return ok && l.Elem.Equal(o.Elem)
}

// Tuple is a fixed-arity product type: (T1, T2, ...).
type Tuple struct {
	Elems []Type
}

func (t Tuple) String() string {
	parts := make([]string, 0, len(t.Elems))
	for _, e := range t.Elems {
		parts = append(parts, e.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t Tuple) Equal(other Type) bool {
	o, ok := other.(Tuple)
	if !ok || len(o.Elems) != len(t.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(o.Elems[i]) {
			return false
		}
	}
	return true
}

// Struct is a reference to a declared struct type, by name. The field
// layout lives in the Registry.
type Struct struct {
	Name string
}

func (s Struct) String() string { return s.Name }

func (s Struct) Equal(other Type) bool {
	o, ok := other.(Struct)
	return ok && o.Name == s.Name
}

// Enum is a reference to a declared enum type, by name. The variant table
// lives in the Registry.
type Enum struct {
	Name string
}

func (e Enum) String() string { return e.Name }

func (e Enum) Equal(other Type) bool {
	o, ok := other.(Enum)
	return ok && o.Name == e.Name
}

// IsHeapOwning reports whether a binding of this type owns a heap resource
// and therefore participates in ownership tracking. Scalars are copied
// freely; string literals live in static program data.
func IsHeapOwning(t Type) bool {
	switch t.(type) {
	case List, Tuple, Struct, Enum:
		return true
	default:
		return false
	}
}

// Parse turns a source-level type descriptor like "int", "list<list<int>>"
// or "(int, bool)" into a Type. Named types are resolved against reg; an
// unknown name is an error so the caller can report UndefinedType.
func Parse(desc string, reg *Registry) (Type, error) {
	s := strings.TrimSpace(desc)
	if s == "" {
		return nil, fmt.Errorf("empty type descriptor")
	}
	switch s {
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "bool":
		return Bool, nil
	case "string":
		return String, nil
	case "null":
		return Null, nil
	}
	if inner, ok := splitGeneric(s, "list"); ok {
		elem, err := Parse(inner, reg)
		if err != nil {
			return nil, err
		}
		return List{Elem: elem}, nil
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		parts := splitTopLevelComma(s[1 : len(s)-1])
		if len(parts) < 2 {
			return nil, fmt.Errorf("tuple type needs at least two members: %s", s)
		}
		elems := make([]Type, 0, len(parts))
		for _, p := range parts {
			e, err := Parse(p, reg)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return Tuple{Elems: elems}, nil
	}
	if !isIdent(s) {
		return nil, fmt.Errorf("malformed type descriptor: %s", s)
	}
	if reg != nil {
		if _, ok := reg.Enum(s); ok {
			return Enum{Name: s}, nil
		}
		if _, ok := reg.Struct(s); ok {
			return Struct{Name: s}, nil
		}
	}
	return nil, fmt.Errorf("unknown type: %s", s)
}

// splitGeneric matches "<head><...>" with balanced angle brackets and
// returns the inner descriptor.
func splitGeneric(s, head string) (string, bool) {
	if !strings.HasPrefix(s, head+"<") || !strings.HasSuffix(s, ">") {
		return "", false
	}
	inner := s[len(head)+1 : len(s)-1]
	depth := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return "", false
			}
		}
	}
	return inner, depth == 0
}

func splitTopLevelComma(s string) []string {
	parts := []string{}
	start := 0
	depthParen := 0
	depthAngle := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depthParen++
		case ')':
			if depthParen > 0 {
				depthParen--
			}
		case '<':
			depthAngle++
		case '>':
			if depthAngle > 0 {
				depthAngle--
			}
		case ',':
			if depthParen == 0 && depthAngle == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func isIdent(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		letter := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		digit := ch >= '0' && ch <= '9'
		if !letter && !(i > 0 && digit) {
			return false
		}
	}
	return len(s) > 0
}
