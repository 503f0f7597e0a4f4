package types

// Variant is one declared alternative of an enum. The discriminant is the
// variant's index in declaration order and is baked into generated code.
type Variant struct {
	Name         string
	Discriminant int
	Fields       []Type
}

// EnumDecl is a declared enum type.
type EnumDecl struct {
	Name     string
	Variants []Variant
}

// VariantNamed looks a variant up by name.
func (d *EnumDecl) VariantNamed(name string) (Variant, bool) {
	for _, v := range d.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// Field is one declared field of a struct type.
type Field struct {
	Name string
	Type Type
}

// StructDecl is a declared struct type.
type StructDecl struct {
	Name   string
	Fields []Field
}

// FieldNamed looks a field up by name, returning its declaration index.
func (d *StructDecl) FieldNamed(name string) (Field, int, bool) {
	for i, f := range d.Fields {
		if f.Name == name {
			return f, i, true
		}
	}
	return Field{}, -1, false
}

// Registry holds every user-declared enum and struct type of a program.
// Semantic analysis fills it during the declaration pass; later phases
// treat it as read-only.
type Registry struct {
	enums   map[string]*EnumDecl
	structs map[string]*StructDecl
}

func NewRegistry() *Registry {
	return &Registry{
		enums:   make(map[string]*EnumDecl),
		structs: make(map[string]*StructDecl),
	}
}

// DefineEnum registers an enum declaration. Redefinition is reported so
// the caller can surface a diagnostic.
func (r *Registry) DefineEnum(d *EnumDecl) bool {
	if _, dup := r.enums[d.Name]; dup {
		return false
	}
	if _, dup := r.structs[d.Name]; dup {
		return false
	}
	r.enums[d.Name] = d
	return true
}

func (r *Registry) DefineStruct(d *StructDecl) bool {
	if _, dup := r.structs[d.Name]; dup {
		return false
	}
	if _, dup := r.enums[d.Name]; dup {
		return false
	}
	r.structs[d.Name] = d
	return true
}

func (r *Registry) Enum(name string) (*EnumDecl, bool) {
	d, ok := r.enums[name]
	return d, ok
}

func (r *Registry) Struct(name string) (*StructDecl, bool) {
	d, ok := r.structs[name]
	return d, ok
}
