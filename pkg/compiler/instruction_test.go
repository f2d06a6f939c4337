package compiler

import "testing"

func TestInstructionStreamPatchOperand(t *testing.T) {
	var s InstructionStream
	jz := s.emit(OpJZ, 0, "")
	s.emit(OpPUSH, 1, "")
	target := s.here()
	s.patchOperand(jz, target)

	if s.Instrs[jz].Operand != target {
		t.Errorf("got patched operand %d, want %d", s.Instrs[jz].Operand, target)
	}
}

func TestInstructionStreamPlaceLabel(t *testing.T) {
	var s InstructionStream
	s.placeLabel("loop_start")
	if len(s.Instrs) != 1 || s.Instrs[0].Label != "loop_start" {
		t.Fatalf("got %+v, want a single NOP labelled loop_start", s.Instrs)
	}
	if s.Instrs[0].Op != OpNOP {
		t.Errorf("placeLabel must pad with a NOP, got %s", s.Instrs[0].Op)
	}
}

func TestNewLabelIsMonotonicAndUnique(t *testing.T) {
	var s InstructionStream
	a := s.newLabel("L")
	b := s.newLabel("L")
	if a == b {
		t.Errorf("newLabel produced a duplicate: %s", a)
	}
}

func TestOpcodeStringRoundTrip(t *testing.T) {
	cases := map[Opcode]string{
		OpPUSH: "PUSH", OpADD: "ADD", OpCALL: "CALL", OpHALT: "HALT", OpGETPID: "GETPID",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Opcode(%d).String() = %q, want %q", op, got, want)
		}
	}
}
