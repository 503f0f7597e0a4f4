package types

import "testing"

func TestParseBasicTypes(t *testing.T) {
	tests := map[string]Type{
		"int":    Int,
		"float":  Float,
		"bool":   Bool,
		"string": String,
		"null":   Null,
	}
	for desc, want := range tests {
		got, err := Parse(desc, nil)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", desc, err)
		}
		if !got.Equal(want) {
			t.Fatalf("Parse(%q)=%v want=%v", desc, got, want)
		}
	}
}

func TestParseNestedList(t *testing.T) {
	got, err := Parse("list<list<int>>", nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := List{Elem: List{Elem: Int}}
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if got.String() != "list<list<int>>" {
		t.Fatalf("String()=%q", got.String())
	}
}

func TestParseTuple(t *testing.T) {
	got, err := Parse("(int, list<bool>)", nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := Tuple{Elems: []Type{Int, List{Elem: Bool}}}
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}

	if _, err := Parse("(int)", nil); err == nil {
		t.Fatalf("single-member tuple should be rejected")
	}
}

func TestParseNamedTypes(t *testing.T) {
	reg := NewRegistry()
	reg.DefineEnum(&EnumDecl{Name: "Color", Variants: []Variant{{Name: "Red", Discriminant: 0}}})
	reg.DefineStruct(&StructDecl{Name: "Point", Fields: []Field{{Name: "x", Type: Int}}})

	got, err := Parse("Color", reg)
	if err != nil {
		t.Fatalf("Parse(Color) error: %v", err)
	}
	if !got.Equal(Enum{Name: "Color"}) {
		t.Fatalf("got %v want enum Color", got)
	}

	got, err = Parse("list<Point>", reg)
	if err != nil {
		t.Fatalf("Parse(list<Point>) error: %v", err)
	}
	if !got.Equal(List{Elem: Struct{Name: "Point"}}) {
		t.Fatalf("got %v want list<Point>", got)
	}

	if _, err := Parse("Missing", reg); err == nil {
		t.Fatalf("unknown named type should be rejected")
	}
}

func TestParseMalformed(t *testing.T) {
	for _, desc := range []string{"", "list<", "list<int", "int]", "123abc", "list<>"} {
		if _, err := Parse(desc, nil); err == nil {
			t.Fatalf("Parse(%q) should fail", desc)
		}
	}
}

func TestIsHeapOwning(t *testing.T) {
	owning := []Type{
		List{Elem: Int},
		Tuple{Elems: []Type{Int, Bool}},
		Struct{Name: "Point"},
		Enum{Name: "Color"},
	}
	for _, ty := range owning {
		if !IsHeapOwning(ty) {
			t.Fatalf("%v should be heap-owning", ty)
		}
	}
	for _, ty := range []Type{Int, Float, Bool, String, Null} {
		if IsHeapOwning(ty) {
			t.Fatalf("%v should not be heap-owning", ty)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if !reg.DefineEnum(&EnumDecl{Name: "Color"}) {
		t.Fatalf("first definition should succeed")
	}
	if reg.DefineEnum(&EnumDecl{Name: "Color"}) {
		t.Fatalf("duplicate enum should be rejected")
	}
	if reg.DefineStruct(&StructDecl{Name: "Color"}) {
		t.Fatalf("struct with the same name as an enum should be rejected")
	}
}

func TestVariantAndFieldLookup(t *testing.T) {
	enum := &EnumDecl{Name: "Color", Variants: []Variant{
		{Name: "Red", Discriminant: 0},
		{Name: "RGB", Discriminant: 1, Fields: []Type{Int, Int, Int}},
	}}
	v, ok := enum.VariantNamed("RGB")
	if !ok || v.Discriminant != 1 || len(v.Fields) != 3 {
		t.Fatalf("VariantNamed(RGB)=%v ok=%v", v, ok)
	}
	if _, ok := enum.VariantNamed("Green"); ok {
		t.Fatalf("unknown variant lookup should fail")
	}

	st := &StructDecl{Name: "Point", Fields: []Field{{Name: "x", Type: Int}, {Name: "y", Type: Int}}}
	f, idx, ok := st.FieldNamed("y")
	if !ok || idx != 1 || !f.Type.Equal(Int) {
		t.Fatalf("FieldNamed(y)=%v idx=%d ok=%v", f, idx, ok)
	}
}
