package codegen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/xyproto/env/v2"
)

// compilerCommand picks the C compiler that assembles and links the
// emitted IR. Anything clang-compatible works; MICA_CC overrides.
func compilerCommand() string {
	return env.Str("MICA_CC", "clang")
}

// WriteIR renders the module as textual LLVM IR.
func WriteIR(m *ir.Module, path string) error {
	if err := os.WriteFile(path, []byte(m.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Build compiles a module to a native executable at output. The IR file
// lands next to the executable and stays there for inspection.
func Build(m *ir.Module, output string) error {
	llPath := llPathFor(output)
	if err := WriteIR(m, llPath); err != nil {
		return err
	}

	cc := compilerCommand()
	cmd := exec.Command(cc, llPath, "-o", output)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\n%s", cc, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func llPathFor(output string) string {
	base := filepath.Base(output)
	if ext := filepath.Ext(base); ext != "" && ext != "." {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(filepath.Dir(output), base+".ll")
}
