package compiler

import "testing"

// opcodes extracts the opcode sequence from an instruction stream, for
// tests that care about shape rather than exact operand values.
func opcodes(instrs []Instruction) []Opcode {
	out := make([]Opcode, len(instrs))
	for i, in := range instrs {
		out[i] = in.Op
	}
	return out
}

func mustCompile(t *testing.T, src string) *Result {
	t.Helper()
	res := Compile(src, "t.c")
	if !res.OK {
		t.Fatalf("compile failed for %q: %v", src, res.Diags.Errors)
	}
	return res
}

// TestScenarioSimpleReturn: a function returning a numeric constant
// compiles to a label, PUSH of the constant, RET, and the trailing
// implicit-return epilogue.
func TestScenarioSimpleReturn(t *testing.T) {
	res := mustCompile(t, "int main() { return 42; }")
	found := false
	for i, in := range res.Code.Instrs {
		if in.Op == OpPUSH && in.Operand == 42 {
			if res.Code.Instrs[i+1].Op != OpRET {
				t.Errorf("PUSH 42 not immediately followed by RET")
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("no PUSH 42 found in %v", res.Code.Instrs)
	}
}

// TestScenarioIfElse: an if/else with no dangling unpatched jump.
func TestScenarioIfElse(t *testing.T) {
	res := mustCompile(t, "int main() { if (1) return 7; return 0; }")
	for i, in := range res.Code.Instrs {
		if in.Op == OpJZ || in.Op == OpJMP {
			if int(in.Operand) == 0 && i != 0 {
				t.Errorf("instruction %d: %s has an unpatched-looking zero operand", i, in.Op)
			}
		}
	}
}

// TestScenarioForLoop: a for loop over a local induction variable compiles
// and its lowering contains a JMP (the loop's back edge).
func TestScenarioForLoop(t *testing.T) {
	res := mustCompile(t, "int main() { int i; for (i = 0; i < 3; i = i + 1) { } return 0; }")
	ops := opcodes(res.Code.Instrs)
	hasBackEdge := false
	for _, op := range ops {
		if op == OpJMP {
			hasBackEdge = true
		}
	}
	if !hasBackEdge {
		t.Errorf("expected a back-edge JMP, got %v", ops)
	}
}

// TestScenarioWhileBreak: the break target and the JZ's false-branch
// target coincide after the loop.
func TestScenarioWhileBreak(t *testing.T) {
	res := mustCompile(t, "int main() { while (1) break; return 0; }")
	var jzTarget, breakTarget int32 = -1, -1
	for _, in := range res.Code.Instrs {
		if in.Op == OpJZ {
			jzTarget = in.Operand
		}
		if in.Op == OpJMP && breakTarget == -1 {
			breakTarget = in.Operand
		}
	}
	if jzTarget == -1 || jzTarget != breakTarget {
		t.Errorf("JZ target %d does not match break target %d", jzTarget, breakTarget)
	}
}

func TestCallUsesCalleeOffsetAsOperand(t *testing.T) {
	res := mustCompile(t, "int add(int a, int b) { return a + b; } int main() { return add(1, 2); }")
	var call *Instruction
	for i := range res.Code.Instrs {
		if res.Code.Instrs[i].Op == OpCALL {
			call = &res.Code.Instrs[i]
		}
	}
	if call == nil {
		t.Fatalf("no CALL instruction emitted")
	}
	add, ok := res.Symbols.Lookup("add")
	if !ok {
		t.Fatalf("symbol 'add' not found after compilation")
	}
	if int(call.Operand) != add.Offset {
		t.Errorf("CALL operand = %d, want callee offset %d", call.Operand, add.Offset)
	}
}

func TestBreakContinueOutsideLoopAreSilentlyDropped(t *testing.T) {
	res := Compile("int main() { break; continue; return 0; }", "t.c")
	if !res.OK {
		t.Fatalf("a stray break/continue must not fail compilation: %v", res.Diags.Errors)
	}
	for _, in := range res.Code.Instrs {
		if in.Op == OpJMP {
			t.Errorf("a dropped break/continue must not emit a JMP, got %v", res.Code.Instrs)
		}
	}
}

func TestUndefinedIdentifierLatchesCodegenError(t *testing.T) {
	res := Compile("int main() { return undefined_name; }", "t.c")
	if res.OK {
		t.Fatalf("expected codegen failure for an undefined identifier")
	}
}

func TestDuplicateTopLevelSymbolLatchesError(t *testing.T) {
	res := Compile("int x; int x;", "t.c")
	if res.OK {
		t.Fatalf("expected a duplicate-symbol error")
	}
}

func TestStringLiteralLatchesCodegenError(t *testing.T) {
	res := Compile(`int main() { char *p; p = "hi"; return 0; }`, "t.c")
	if res.OK {
		t.Fatalf("expected a codegen error: string literals have no representation")
	}
}

func TestXinuPrimitivesLowerToTheirOpcodes(t *testing.T) {
	src := `
process p() {
	create(p, 1);
	resume(1);
	suspend(1);
	kill(1);
	sleep(10);
	signal(1);
	wait(1);
	yield();
	return;
}
`
	res := mustCompile(t, src)
	want := map[Opcode]bool{
		OpCREATE: false, OpRESUME: false, OpSUSPEND: false, OpKILL: false,
		OpSLEEP: false, OpSIGNAL: false, OpWAIT: false, OpYIELD: false,
	}
	for _, in := range res.Code.Instrs {
		if _, ok := want[in.Op]; ok {
			want[in.Op] = true
		}
	}
	for op, seen := range want {
		if !seen {
			t.Errorf("expected opcode %s somewhere in generated code", op)
		}
	}
}

func TestUnusedVariableWarning(t *testing.T) {
	res := mustCompile(t, "int main() { int x; return 0; }")
	found := false
	for _, w := range res.Diags.Warnings {
		if w.Message == `unused variable "x"` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unused-variable warning, got: %v", res.Diags.Warnings)
	}
}

func TestUninitializedReadWarning(t *testing.T) {
	res := mustCompile(t, "int main() { int x; int y; y = x; return y; }")
	found := false
	for _, w := range res.Diags.Warnings {
		if w.Message == `local variable "x" read before being assigned` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an uninitialized-read warning, got: %v", res.Diags.Warnings)
	}
}
