package main

import (
	"testing"
)

func TestOutputName(t *testing.T) {
	cases := []struct{ src, want string }{
		{"prog.mica", "prog"},
		{"dir/prog.mica", "dir/prog"},
		{"prog", "prog.out"},
		{".mica", ".mica.out"},
	}
	for _, c := range cases {
		if got := outputName(c.src); got != c.want {
			t.Errorf("outputName(%q) = %q, want %q", c.src, got, c.want)
		}
	}
}

func TestAnalyzeReportsParseErrors(t *testing.T) {
	_, _, bag := analyze("let x = ;")
	if bag.Empty() {
		t.Fatal("expected diagnostics for malformed input")
	}
}

func TestAnalyzeReportsSemaErrors(t *testing.T) {
	_, _, bag := analyze("print(missing);")
	if bag.Empty() {
		t.Fatal("expected diagnostics for an undefined name")
	}
}

func TestAnalyzeCleanProgram(t *testing.T) {
	program, info, bag := analyze("let x = 1; print(x);")
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %s", bag.Render("", nil))
	}
	if program == nil || info == nil {
		t.Fatal("clean analysis must produce a program and its info")
	}
}

func TestReplayable(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"let x = 1;", true},
		{"x = 2;", true},
		{"fn id(n: int): int { return n; }", true},
		{"enum E { A, B }", true},
		{"struct P { x: int }", true},
		{"print(1);", false},
		{"while (true) { print(1); }", false},
		{"1 + 2;", false},
		{"let x = ;", false},
		{"", false},
	}
	for _, c := range cases {
		if got := replayable(c.input); got != c.want {
			t.Errorf("replayable(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestColorizerDisabledByEnv(t *testing.T) {
	t.Setenv("MICA_NO_COLOR", "1")
	if colorizer() != nil {
		t.Error("MICA_NO_COLOR must disable coloring")
	}
}
