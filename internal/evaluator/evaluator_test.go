package evaluator

import (
	"bytes"
	"strings"
	"testing"

	"mica/internal/lexer"
	"mica/internal/parser"
	"mica/internal/sema"
)

func run(t *testing.T, src string) (string, *Evaluator, error) {
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
	var out bytes.Buffer
	e := New(info, &out)
	err := e.Run(program)
	return out.String(), e, err
}

func runOK(t *testing.T, src string) (string, *Evaluator) {
	t.Helper()
	out, e, err := run(t, src)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return out, e
}

func expectOutput(t *testing.T, src, want string) {
	t.Helper()
	out, e := runOK(t, src)
	if out != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", out, want)
	}
	if live := e.Heap().Live(); live != 0 {
		t.Errorf("%d heap objects leaked", live)
	}
}

func TestPrintScalars(t *testing.T) {
	expectOutput(t, `
		let answer = 42;
		print(answer);
		print(3.5);
		print(true);
		print("hello");
		print(null);
	`, "42\n3.5\ntrue\nhello\nnull\n")
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, `
		print(2 + 3 * 4);
		print((2 + 3) * 4);
		print(10 / 3);
		print(10 % 3);
		print(-5 + 1);
		print(1.5 + 2.25);
	`, "14\n20\n3\n1\n-4\n3.75\n")
}

func TestComparisonsAndLogic(t *testing.T) {
	expectOutput(t, `
		print(1 < 2);
		print(2 <= 1);
		print(3 == 3);
		print(3 != 3);
		print(true && false);
		print(true || false);
		print(!false);
	`, "true\nfalse\ntrue\nfalse\nfalse\ntrue\ntrue\n")
}

func TestShortCircuitSkipsRightSide(t *testing.T) {
	// The right operand would divide by zero if evaluated.
	expectOutput(t, `
		let zero = 0;
		print(false && 1 / zero == 1);
		print(true || 1 / zero == 1);
	`, "false\ntrue\n")
}

func TestListLiteralAndIndex(t *testing.T) {
	expectOutput(t, `
		let xs = [10, 20, 30];
		print(xs[0]);
		print(xs[2]);
		print(xs);
	`, "10\n30\n[10, 20, 30]\n")
}

func TestListBuiltins(t *testing.T) {
	expectOutput(t, `
		let xs: list<int> = [];
		print(is_empty(xs));
		push(xs, 1);
		push(xs, 2);
		print(len(xs));
		print(is_empty(xs));
		print(xs);
	`, "true\n0\n2\nfalse\n[1, 2]\n")
}

func TestListGrowthPreservesElements(t *testing.T) {
	expectOutput(t, `
		let xs: list<int> = [];
		let i = 0;
		while (i < 10) {
			push(xs, i * i);
			i = i + 1;
		}
		print(len(xs));
		print(xs[9]);
	`, "10\n81\n")
}

func TestWhileLoop(t *testing.T) {
	expectOutput(t, `
		let total = 0;
		let i = 1;
		while (i <= 5) {
			total = total + i;
			i = i + 1;
		}
		print(total);
	`, "15\n")
}

func TestIfElseChains(t *testing.T) {
	expectOutput(t, `
		let n = 7;
		if (n < 5) {
			print("small");
		} else if (n < 10) {
			print("medium");
		} else {
			print("large");
		}
	`, "medium\n")
}

func TestFunctionCallAndReturn(t *testing.T) {
	expectOutput(t, `
		fn add(a: int, b: int): int {
			return a + b;
		}
		print(add(2, 3));
	`, "5\n")
}

func TestReturnInsideIfPropagates(t *testing.T) {
	expectOutput(t, `
		fn classify(n: int): string {
			if (n < 0) {
				return "negative";
			}
			return "non-negative";
		}
		print(classify(-3));
		print(classify(3));
	`, "negative\nnon-negative\n")
}

func TestRecursion(t *testing.T) {
	expectOutput(t, `
		fn fib(n: int): int {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}
		print(fib(10));
	`, "55\n")
}

func TestTuples(t *testing.T) {
	expectOutput(t, `
		let pair = (1, true);
		print(pair.0);
		print(pair.1);
		print(pair);
	`, "1\ntrue\n(1, true)\n")
}

func TestStructLiteralAndFieldAccess(t *testing.T) {
	expectOutput(t, `
		struct Point { x: int, y: int }
		let p = Point { y: 2, x: 1 };
		print(p.x);
		print(p.y);
		print(p);
	`, "1\n2\nPoint { x: 1, y: 2 }\n")
}

func TestEnumMatchRecoversFields(t *testing.T) {
	expectOutput(t, `
		enum Color {
			Red,
			Green,
			RGB(int, int, int),
		}
		let c = Color::RGB(255, 0, 128);
		match c {
			Color::Red => { print("red"); },
			Color::Green => { print("green"); },
			Color::RGB(r, g, b) => {
				print(r);
				print(g);
				print(b);
			},
		}
	`, "255\n0\n128\n")
}

func TestEnumPrintFormats(t *testing.T) {
	expectOutput(t, `
		enum Shape {
			Circle(float),
			Unit,
		}
		let s = Shape::Circle(2.5);
		print(s);
		let u = Shape::Unit;
		print(u);
	`, "Shape::Circle(2.5)\nShape::Unit\n")
}

func TestMatchOnTemporarySubject(t *testing.T) {
	expectOutput(t, `
		enum Answer { Yes, No }
		fn decide(flag: bool): Answer {
			if (flag) {
				return Answer::Yes;
			}
			return Answer::No;
		}
		match decide(true) {
			Answer::Yes => { print("yes"); },
			Answer::No => { print("no"); },
		}
	`, "yes\n")
}

func TestNestedListsFreeRecursively(t *testing.T) {
	_, e := runOK(t, `
		let grid = [[1, 2], [3, 4], [5, 6]];
		print(grid[1]);
	`)
	if live := e.Heap().Live(); live != 0 {
		t.Errorf("%d heap objects leaked after nested list scope ended", live)
	}
}

func TestOwnershipTransferIntoFunction(t *testing.T) {
	// consume takes the list by move; its body scope frees it.
	expectOutput(t, `
		fn consume(xs: list<int>): int {
			return len(xs);
		}
		let xs = [1, 2, 3];
		print(consume(xs));
	`, "3\n")
}

func TestReturnedValueOwnedByCaller(t *testing.T) {
	expectOutput(t, `
		fn make(): list<int> {
			let xs = [7, 8];
			return xs;
		}
		let ys = make();
		print(ys[0]);
	`, "7\n")
}

func TestDiscardedCallResultFreed(t *testing.T) {
	_, e := runOK(t, `
		fn make(): list<int> {
			return [1, 2, 3];
		}
		make();
	`)
	if live := e.Heap().Live(); live != 0 {
		t.Errorf("%d heap objects leaked from a discarded call result", live)
	}
}

func TestAssignmentFreesOldValue(t *testing.T) {
	_, e := runOK(t, `
		let xs = [1, 2, 3];
		xs = [4, 5];
		print(xs[0]);
	`)
	if live := e.Heap().Live(); live != 0 {
		t.Errorf("%d heap objects leaked across reassignment", live)
	}
}

func TestMoveThenReassignIsClean(t *testing.T) {
	expectOutput(t, `
		fn consume(xs: list<int>): null {
			return null;
		}
		let xs = [1, 2];
		consume(xs);
		xs = [3];
		print(xs[0]);
	`, "3\n")
}

func TestStringsAreInternedNotLeaked(t *testing.T) {
	_, e := runOK(t, `
		let a = "hello";
		let b = "hello";
		print(a == b);
	`)
	if live := e.Heap().Live(); live != 0 {
		t.Errorf("string literals counted as %d live heap objects", live)
	}
}

func TestIndexOutOfBoundsPanics(t *testing.T) {
	_, _, err := run(t, `
		let xs = [1, 2];
		print(xs[5]);
	`)
	if err == nil {
		t.Fatal("expected an out-of-bounds error")
	}
	if !strings.Contains(err.Error(), "out of bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDivisionByZeroPanics(t *testing.T) {
	_, _, err := run(t, `
		let zero = 0;
		print(1 / zero);
	`)
	if err == nil {
		t.Fatal("expected a division error")
	}
	if !strings.Contains(err.Error(), "division by zero") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestModuloByZeroPanics(t *testing.T) {
	_, _, err := run(t, `
		let zero = 0;
		print(7 % zero);
	`)
	if err == nil {
		t.Fatal("expected a division error")
	}
}

func TestMainStyleProgram(t *testing.T) {
	out, e, err := run(t, `
		fn main(): null {
			print("ran");
			return null;
		}
		main();
	`)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "ran\n" {
		t.Errorf("got output %q", out)
	}
	if live := e.Heap().Live(); live != 0 {
		t.Errorf("%d heap objects leaked", live)
	}
}

func TestStructInsideListFormats(t *testing.T) {
	expectOutput(t, `
		struct Point { x: int, y: int }
		let ps = [Point { x: 1, y: 2 }, Point { x: 3, y: 4 }];
		print(ps);
	`, "[Point { x: 1, y: 2 }, Point { x: 3, y: 4 }]\n")
}

func TestAssignmentReadsOldValueBeforeFree(t *testing.T) {
	expectOutput(t, `
		let a = [1, 2];
		a = [a[0]];
		print(a);
	`, "[1]\n")
}

func TestTemporaryBuiltinArgumentsFreed(t *testing.T) {
	expectOutput(t, `
		fn make(): list<int> {
			return [7];
		}
		print(len(make()));
		print(is_empty(make()));
		print(make());
	`, "1\nfalse\n[7]\n")
}

func TestNamedBuiltinArgumentsKeepTheirOwner(t *testing.T) {
	expectOutput(t, `
		let xs = [1, 2];
		print(len(xs));
		print(xs);
	`, "2\n[1, 2]\n")
}

func TestFunctionsSeeGlobalsNotCallerLocals(t *testing.T) {
	expectOutput(t, `
		let base = 100;
		fn bump(n: int): int {
			return base + n;
		}
		fn caller(): int {
			let base = 0;
			return bump(1);
		}
		print(caller());
	`, "101\n")
}
