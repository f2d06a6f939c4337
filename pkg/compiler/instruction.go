package compiler

import "fmt"

// Opcode is one stack-machine operation. Every opcode takes exactly one
// signed 32-bit operand, unused ones conventionally carrying 0.
type Opcode int

const (
	OpNOP Opcode = iota
	OpHALT

	// Stack
	OpPUSH
	OpPOP
	OpDUP
	OpSWAP

	// Arithmetic
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpMOD
	OpNEG

	// Bitwise
	OpAND
	OpOR
	OpXOR
	OpNOT
	OpSHL
	OpSHR

	// Logical
	OpLAND
	OpLOR
	OpLNOT

	// Comparison
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE

	// Memory
	OpLOAD
	OpSTORE
	OpLOADL
	OpSTOREL
	OpLOADG
	OpSTOREG
	OpADDR

	// Control
	OpJMP
	OpJZ
	OpJNZ
	OpCALL
	OpRET

	// Xinu process / semaphore primitives
	OpCREATE
	OpRESUME
	OpSUSPEND
	OpKILL
	OpSLEEP
	OpYIELD
	OpWAIT
	OpSIGNAL
	OpGETPID
)

var opcodeNames = map[Opcode]string{
	OpNOP: "NOP", OpHALT: "HALT",
	OpPUSH: "PUSH", OpPOP: "POP", OpDUP: "DUP", OpSWAP: "SWAP",
	OpADD: "ADD", OpSUB: "SUB", OpMUL: "MUL", OpDIV: "DIV", OpMOD: "MOD", OpNEG: "NEG",
	OpAND: "AND", OpOR: "OR", OpXOR: "XOR", OpNOT: "NOT", OpSHL: "SHL", OpSHR: "SHR",
	OpLAND: "LAND", OpLOR: "LOR", OpLNOT: "LNOT",
	OpEQ: "EQ", OpNE: "NE", OpLT: "LT", OpLE: "LE", OpGT: "GT", OpGE: "GE",
	OpLOAD: "LOAD", OpSTORE: "STORE", OpLOADL: "LOADL", OpSTOREL: "STOREL",
	OpLOADG: "LOADG", OpSTOREG: "STOREG", OpADDR: "ADDR",
	OpJMP: "JMP", OpJZ: "JZ", OpJNZ: "JNZ", OpCALL: "CALL", OpRET: "RET",
	OpCREATE: "CREATE", OpRESUME: "RESUME", OpSUSPEND: "SUSPEND", OpKILL: "KILL",
	OpSLEEP: "SLEEP", OpYIELD: "YIELD", OpWAIT: "WAIT", OpSIGNAL: "SIGNAL",
	OpGETPID: "GETPID",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Instruction is one entry in the emitted program: an opcode, a signed
// 32-bit operand, an optional label naming this position, and an optional
// human-readable comment.
type Instruction struct {
	Op      Opcode
	Operand int32
	Label   string
	Comment string
}

// InstructionStream is the growable instruction vector a CodeGen produces,
// plus the monotonic counter newLabel uses to make unique label names.
// Jump targets themselves are instruction indices set by patchOperand.
type InstructionStream struct {
	Instrs     []Instruction
	labelCount int
}

func (s *InstructionStream) newLabel(prefix string) string {
	s.labelCount++
	return fmt.Sprintf("%s%d", prefix, s.labelCount)
}

// emit appends an instruction with no label of its own and returns its
// index, which callers use later to patch a jump target.
func (s *InstructionStream) emit(op Opcode, operand int32, comment string) int {
	s.Instrs = append(s.Instrs, Instruction{Op: op, Operand: operand, Comment: comment})
	return len(s.Instrs) - 1
}

// placeLabel appends a NOP carrying name, so the label marks a real
// position directly ahead of the next instruction to be emitted.
func (s *InstructionStream) placeLabel(name string) {
	s.Instrs = append(s.Instrs, Instruction{Op: OpNOP, Label: name})
}

// patchOperand rewrites the operand of the instruction at idx — used to
// back-patch a forward jump once its target position is known.
func (s *InstructionStream) patchOperand(idx int, operand int32) {
	s.Instrs[idx].Operand = operand
}

// here reports the index the next emitted instruction will occupy.
func (s *InstructionStream) here() int32 { return int32(len(s.Instrs)) }
