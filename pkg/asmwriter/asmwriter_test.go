package asmwriter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xinuc/pkg/compiler"
)

func TestWriteHeaderAndInstructions(t *testing.T) {
	stream := &compiler.InstructionStream{}
	stream.Instrs = []compiler.Instruction{
		{Op: compiler.OpPUSH, Operand: 42},
		{Op: compiler.OpHALT, Operand: 0},
	}

	out := String(stream, "main.c")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.GreaterOrEqual(t, len(lines), 6)
	assert.True(t, strings.HasPrefix(lines[0], "; "+ProductName))
	assert.True(t, strings.HasPrefix(lines[1], "; main.c"))
	assert.True(t, strings.HasPrefix(lines[2], "; "+ProductName+" "+Version))
	assert.Equal(t, "", lines[3])
	assert.Contains(t, lines[4], "PUSH")
	assert.Contains(t, lines[4], "42")
	assert.Contains(t, lines[5], "HALT")
}

func TestWriteEmitsLabelLine(t *testing.T) {
	stream := &compiler.InstructionStream{
		Instrs: []compiler.Instruction{
			{Op: compiler.OpNOP, Label: "func_main"},
			{Op: compiler.OpRET},
		},
	}
	out := String(stream, "x.c")
	assert.Contains(t, out, "func_main:")
}
