package codegen

import (
	"strings"
	"testing"

	"mica/internal/lexer"
	"mica/internal/parser"
	"mica/internal/sema"
)

func compile(t *testing.T, src string) string {
	t.Helper()
	p := parser.New(lexer.New(src))
	program := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	info, bag := sema.Analyze(program)
	if !bag.Empty() {
		t.Fatalf("analysis errors:\n%s", bag.Render("test.mica", nil))
	}
	return New(info).Compile(program).String()
}

func wantIR(t *testing.T, got string, fragments ...string) {
	t.Helper()
	for _, frag := range fragments {
		if !strings.Contains(got, frag) {
			t.Errorf("emitted IR is missing %q", frag)
		}
	}
}

func TestEmitsCMainAndRuntime(t *testing.T) {
	ir := compile(t, `print(42);`)
	wantIR(t, ir,
		"define i32 @main()",
		"declare i32 @printf",
		"declare i8* @malloc",
		"define void @mica_check_tag",
		"define void @mica_value_free",
	)
}

func TestTagMismatchMessageNamesBothSides(t *testing.T) {
	ir := compile(t, `print(1);`)
	wantIR(t, ir,
		"type tag mismatch: expected %s, found %s",
		"@mica.tag_names",
	)
}

func TestPanicsFunnelThroughSingleExit(t *testing.T) {
	ir := compile(t, `let xs = [1]; print(xs[0]);`)
	wantIR(t, ir,
		"declare i32 @dprintf",
		"call i32 @dprintf(i32 2",
		"define void @mica_panic",
	)
	if n := strings.Count(ir, "call void @exit"); n != 1 {
		t.Errorf("exit is called %d times; mica_panic must be its only caller", n)
	}
	if n := strings.Count(ir, "call void @mica_panic"); n < 2 {
		t.Errorf("tag-check and bounds failures must route through mica_panic, got %d call(s)", n)
	}
}

func TestAssignmentFreesOldValueAfterNewIsBuilt(t *testing.T) {
	ir := compile(t, `let a = [1, 2]; a = [a[0]];`)
	main := ir[strings.Index(ir, "define i32 @main()"):]
	get := strings.Index(main, "@mica_list_get")
	free := strings.Index(main, "@mica_value_free")
	if get < 0 || free < 0 {
		t.Fatal("main is missing the element read or the free call")
	}
	if free < get {
		t.Error("old list freed before the right-hand side read it")
	}
}

func TestTemporaryBuiltinArgumentFreed(t *testing.T) {
	ir := compile(t, `
		fn make(): list<int> {
			return [7];
		}
		print(len(make()));
	`)
	main := ir[strings.Index(ir, "define i32 @main()"):]
	lenIdx := strings.Index(main, "@mica_list_len")
	freeIdx := strings.Index(main, "@mica_value_free")
	if lenIdx < 0 || freeIdx < 0 {
		t.Fatal("main is missing the len call or the free of its argument")
	}
	if freeIdx < lenIdx {
		t.Error("call-result argument freed before len read it")
	}
}

func TestBoxedValueIsTagAndPayloadPair(t *testing.T) {
	ir := compile(t, `let x = 42; print(x);`)
	wantIR(t, ir, "%mica.value = type { i32, i64 }")
}

func TestFloatCrossesByBitPattern(t *testing.T) {
	ir := compile(t, `let f = 2.5; print(f);`)
	// 2.5 boxed as its raw IEEE bits, and the unboxer uses bitcast, not
	// a numeric conversion.
	wantIR(t, ir,
		"4612811918334230528",
		"bitcast i64",
	)
}

func TestScopeExitEmitsFrees(t *testing.T) {
	ir := compile(t, `
		let xs = [1, 2, 3];
		print(len(xs));
	`)
	wantIR(t, ir, "call void @mica_value_free")
}

func TestListOperationsLowered(t *testing.T) {
	ir := compile(t, `
		let xs: list<int> = [];
		push(xs, 1);
		print(xs[0]);
		print(is_empty(xs));
	`)
	wantIR(t, ir,
		"call void @mica_list_push",
		"call %mica.value @mica_list_get",
		"call i64 @mica_list_len",
		"list index out of bounds",
	)
}

func TestListGrowthCopiesAndReleases(t *testing.T) {
	ir := compile(t, `let xs: list<int> = []; push(xs, 1);`)
	wantIR(t, ir,
		"call i8* @memcpy",
		"call void @free",
	)
}

func TestMatchComparesDiscriminants(t *testing.T) {
	ir := compile(t, `
		enum Color { Red, Green }
		let c = Color::Red;
		match c {
			Color::Red => { print("r"); },
			Color::Green => { print("g"); },
		}
	`)
	wantIR(t, ir,
		"call i64 @mica_enum_discr",
		"match.arm.",
		"match.trap.",
	)
}

func TestEnumConstructionCarriesDiscriminant(t *testing.T) {
	ir := compile(t, `
		enum Shape { Point, Circle(float) }
		let s = Shape::Circle(1.0);
		print(s);
	`)
	// Circle is the second variant, discriminant 1.
	wantIR(t, ir, "call %mica.value @mica_record_new(i32 7, i64 1, i64 1)")
}

func TestDivisionByZeroGuard(t *testing.T) {
	ir := compile(t, `
		let a = 10;
		let b = 2;
		print(a / b);
	`)
	wantIR(t, ir,
		"integer division by zero",
		"div.fail.",
	)
}

func TestShortCircuitBranches(t *testing.T) {
	ir := compile(t, `
		let a = true;
		let b = false;
		print(a && b);
	`)
	wantIR(t, ir, "bool.rhs.", "bool.merge.", "phi i1")
}

func TestUserFunctionsAreMangled(t *testing.T) {
	// A user fn named free must not collide with libc.
	ir := compile(t, `
		fn free(n: int): int {
			return n;
		}
		print(free(1));
	`)
	wantIR(t, ir, "mica.user.free")
	if !strings.Contains(ir, "declare void @free(i8*") {
		t.Error("libc free declaration clobbered by user function")
	}
}

func TestReturnPathFreesEnclosingScopes(t *testing.T) {
	ir := compile(t, `
		fn first(xs: list<int>): int {
			return xs[0];
		}
		print(first([5]));
	`)
	// The body owns xs and must free it before returning the element.
	wantIR(t, ir, "call void @mica_value_free")
}

func TestStructPrintSpellsFieldNames(t *testing.T) {
	ir := compile(t, `
		struct Point { x: int, y: int }
		let p = Point { x: 1, y: 2 };
		print(p);
	`)
	wantIR(t, ir, "Point { ", "x: ", "y: ")
}

func TestStringLiteralsInterned(t *testing.T) {
	ir := compile(t, `
		let a = "twice";
		let b = "twice";
		print(a == b);
	`)
	if strings.Count(ir, `c"twice\00"`) != 1 {
		t.Error("equal string literals should share one global")
	}
}

func TestLLPathDerivedFromOutput(t *testing.T) {
	cases := []struct{ output, want string }{
		{"out/prog", "out/prog.ll"},
		{"prog.exe", "prog.ll"},
		{"a/b/c", "a/b/c.ll"},
	}
	for _, c := range cases {
		if got := llPathFor(c.output); got != c.want {
			t.Errorf("llPathFor(%q) = %q, want %q", c.output, got, c.want)
		}
	}
}
