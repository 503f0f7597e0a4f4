package value

import (
	"math"
	"testing"

	"mica/internal/types"
)

func TestIntRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, math.MaxInt64, math.MinInt64} {
		got, p := AsInt(NewInt(n))
		if p != nil {
			t.Fatalf("AsInt(%d) panicked: %v", n, p)
		}
		if got != n {
			t.Fatalf("round trip %d -> %d", n, got)
		}
	}
}

func TestFloatRoundTripBitForBit(t *testing.T) {
	quietNaN := math.Float64frombits(0x7ff8000000000001)
	cases := []float64{0, 1.5, -2.25, math.Inf(1), math.Inf(-1), math.Copysign(0, -1), quietNaN}
	for _, f := range cases {
		got, p := AsFloat(NewFloat(f))
		if p != nil {
			t.Fatalf("AsFloat(%v) panicked: %v", f, p)
		}
		if math.Float64bits(got) != math.Float64bits(f) {
			t.Fatalf("round trip changed bits: %#x -> %#x", math.Float64bits(f), math.Float64bits(got))
		}
	}
}

func TestBoolAndNullRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		got, p := AsBool(NewBool(b))
		if p != nil || got != b {
			t.Fatalf("bool round trip %v -> %v (panic %v)", b, got, p)
		}
	}
	if p := AsNull(NewNull()); p != nil {
		t.Fatalf("AsNull(NewNull()) panicked: %v", p)
	}
}

// Every unbox against a wrong tag must take the panic path, for every
// pair of distinct tags.
func TestTagMismatchTotality(t *testing.T) {
	h := NewHeap()
	samples := map[Tag]Value{
		TagInt:    NewInt(7),
		TagFloat:  NewFloat(1.5),
		TagBool:   NewBool(true),
		TagNull:   NewNull(),
		TagString: h.NewString("s"),
		TagList:   h.NewList(),
		TagStruct: h.NewRecord(TagStruct, 0, nil),
		TagTuple:  h.NewRecord(TagTuple, 0, nil),
		TagEnum:   h.NewRecord(TagEnum, 1, nil),
	}
	allTags := []Tag{TagInt, TagFloat, TagBool, TagString, TagList, TagStruct, TagTuple, TagEnum, TagNull}

	for _, actual := range allTags {
		v := samples[actual]
		for _, expected := range allTags {
			p := CheckTag(v, expected)
			if expected == actual {
				if p != nil {
					t.Fatalf("CheckTag(%s, %s) should pass, got %v", actual, expected, p)
				}
				continue
			}
			if p == nil {
				t.Fatalf("CheckTag(%s value, expected %s) must panic", actual, expected)
			}
		}
	}
}

func TestMismatchMessageNamesBothTags(t *testing.T) {
	_, p := AsFloat(NewInt(42))
	if p == nil {
		t.Fatalf("unboxing Integer as Float must panic")
	}
	want := "type tag mismatch: expected Float, found Integer"
	if p.Message != want {
		t.Fatalf("panic message %q, want %q", p.Message, want)
	}
}

func TestConcreteScenarioBox42(t *testing.T) {
	v := NewInt(42)
	n, p := AsInt(v)
	if p != nil || n != 42 {
		t.Fatalf("unbox as Integer: got %d, panic %v", n, p)
	}
	if _, p := AsFloat(v); p == nil {
		t.Fatalf("unbox as Float must panic")
	}
}

func TestTagForTable(t *testing.T) {
	tests := []struct {
		ty  types.Type
		tag Tag
	}{
		{types.Int, TagInt},
		{types.Float, TagFloat},
		{types.Bool, TagBool},
		{types.String, TagString},
		{types.Null, TagNull},
		{types.List{Elem: types.Int}, TagList},
		{types.Struct{Name: "Point"}, TagStruct},
		{types.Tuple{Elems: []types.Type{types.Int, types.Int}}, TagTuple},
		{types.Enum{Name: "Color"}, TagEnum},
	}
	for _, tt := range tests {
		if got := TagFor(tt.ty); got != tt.tag {
			t.Fatalf("TagFor(%v)=%v want=%v", tt.ty, got, tt.tag)
		}
	}
}

func TestTagNumberingIsABI(t *testing.T) {
	// The discriminant numbering is shared with emitted native code and
	// must never drift.
	want := map[Tag]uint32{
		TagInt: 0, TagFloat: 1, TagBool: 2, TagString: 3, TagList: 4,
		TagStruct: 5, TagTuple: 6, TagEnum: 7, TagNull: 8,
	}
	for tag, n := range want {
		if uint32(tag) != n {
			t.Fatalf("tag %s numbered %d, want %d", tag, uint32(tag), n)
		}
	}
}
