// Package asmwriter renders a compiler.InstructionStream as a textual
// assembly listing: a line-oriented label/mnemonic/operand layout meant to
// be read back in by a downstream assembler.
package asmwriter

import (
	"fmt"
	"io"
	"strings"

	"xinuc/pkg/compiler"
)

// ProductName and Version stamp the header comment block every emitted
// file carries.
const (
	ProductName = "xinuc"
	Version     = "0.1.0"
)

// Write renders stream as text to w: a three-line `;`-prefixed header
// naming the product, the source filename, and the compiler version, a
// blank line, then one line per instruction. An instruction carrying a
// label gets that label printed as "<label>:" on its own preceding line.
func Write(w io.Writer, stream *compiler.InstructionStream, filename string) error {
	header := fmt.Sprintf("; %s\n; %s\n; %s %s\n\n", ProductName, filename, ProductName, Version)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	for _, instr := range stream.Instrs {
		if instr.Label != "" {
			if _, err := fmt.Fprintf(w, "%s:\n", instr.Label); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "  %-10s %d\n", instr.Op.String(), instr.Operand); err != nil {
			return err
		}
	}
	return nil
}

// String is a convenience wrapper around Write for callers (tests,
// -dump-code) that want the rendered text as a single value.
func String(stream *compiler.InstructionStream, filename string) string {
	var sb strings.Builder
	_ = Write(&sb, stream, filename)
	return sb.String()
}
