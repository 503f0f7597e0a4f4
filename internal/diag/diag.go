package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Code classifies a compile-time diagnostic. Codes are stable strings so
// tests and tools can match on them without parsing messages.
type Code string

const (
	UseAfterMove     Code = "UseAfterMove"
	UndefinedType    Code = "UndefinedType"
	UndefinedVariant Code = "UndefinedVariant"
	ArityMismatch    Code = "ArityMismatch"
	UndefinedField   Code = "UndefinedField"
	MissingField     Code = "MissingField"
	UndefinedName    Code = "UndefinedName"
	TypeMismatch     Code = "TypeMismatch"
	Redefined        Code = "Redefined"
	SyntaxError      Code = "SyntaxError"
)

// Diagnostic is one reported problem with a source position. Line and
// Column are 1-based; zero means the position is unknown.
type Diagnostic struct {
	Code    Code
	Message string
	Context string
	Line    int
	Column  int
}

func (d Diagnostic) String() string {
	var out strings.Builder
	if d.Line > 0 {
		fmt.Fprintf(&out, "%d:%d: ", d.Line, d.Column)
	}
	fmt.Fprintf(&out, "%s: %s", d.Code, d.Message)
	if d.Context != "" {
		ctx := d.Context
		if len(ctx) > 120 {
			ctx = ctx[:120] + "..."
		}
		fmt.Fprintf(&out, " (at `%s`)", ctx)
	}
	return out.String()
}

// Bag accumulates diagnostics across a whole compiler phase. Phases keep
// scanning after the first problem so one run reports as much as possible.
type Bag struct {
	diags []Diagnostic
}

func (b *Bag) Add(d Diagnostic) {
	b.diags = append(b.diags, d)
}

func (b *Bag) Addf(code Code, line, column int, format string, args ...interface{}) {
	b.Add(Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  column,
	})
}

func (b *Bag) Empty() bool { return len(b.diags) == 0 }

func (b *Bag) Len() int { return len(b.diags) }

// All returns the collected diagnostics in source order (unknown positions
// last, insertion order preserved among equals).
func (b *Bag) All() []Diagnostic {
	out := make([]Diagnostic, len(b.diags))
	copy(out, b.diags)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i], out[j]
		if (di.Line > 0) != (dj.Line > 0) {
			return di.Line > 0
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		return di.Column < dj.Column
	})
	return out
}

// HasCode reports whether any collected diagnostic carries the given code.
func (b *Bag) HasCode(code Code) bool {
	for _, d := range b.diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Render formats every diagnostic, one per line, prefixed with the file
// name. colorize is applied to the severity part when non-nil (the CLI
// passes an ANSI painter only when stderr is a terminal).
func (b *Bag) Render(file string, colorize func(string) string) string {
	var out strings.Builder
	for i, d := range b.All() {
		if i > 0 {
			out.WriteByte('\n')
		}
		code := string(d.Code)
		if colorize != nil {
			code = colorize(code)
		}
		if file != "" {
			out.WriteString(file)
			out.WriteByte(':')
		}
		if d.Line > 0 {
			fmt.Fprintf(&out, "%d:%d: ", d.Line, d.Column)
		} else if file != "" {
			out.WriteByte(' ')
		}
		fmt.Fprintf(&out, "%s: %s", code, d.Message)
	}
	return out.String()
}
