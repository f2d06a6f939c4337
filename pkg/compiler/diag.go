package compiler

import (
	"fmt"

	"github.com/pkg/errors"
)

// DiagKind classifies a Diagnostic: lexical, syntactic, semantic
// (duplicate symbol at insert), or code-generation (undefined
// identifier/callee).
type DiagKind int

const (
	DiagLexical DiagKind = iota
	DiagSyntactic
	DiagSemantic
	DiagCodegen
)

func (k DiagKind) String() string {
	switch k {
	case DiagLexical:
		return "lexical"
	case DiagSyntactic:
		return "syntactic"
	case DiagSemantic:
		return "semantic"
	case DiagCodegen:
		return "codegen"
	default:
		return "unknown"
	}
}

// Diagnostic is a single compiler message, formatted as
// "<file>:<line>:<col>: error: <msg>" for lexical errors, with an
// additional "at '<lexeme>'" suffix for syntactic errors.
type Diagnostic struct {
	Kind    DiagKind
	Pos     Position
	Message string
	Lexeme  string // only meaningful for DiagSyntactic
}

func (d *Diagnostic) Error() string {
	if d.Lexeme != "" {
		return fmt.Sprintf("%s: error: %s at '%s'", d.Pos, d.Message, d.Lexeme)
	}
	return fmt.Sprintf("%s: error: %s", d.Pos, d.Message)
}

// Diagnostics accumulates every error and warning latched by one
// compilation phase. Each phase historically latched a single most-recent
// error message and a boolean; Last() and HasErrors() give callers exactly
// that view, while the full Errors/Warnings slices support a richer
// "collect a list" presentation without changing observable
// success/failure.
type Diagnostics struct {
	Errors   []*Diagnostic
	Warnings []*Diagnostic
}

func (d *Diagnostics) AddError(diag *Diagnostic) {
	d.Errors = append(d.Errors, diag)
}

func (d *Diagnostics) AddWarning(diag *Diagnostic) {
	d.Warnings = append(d.Warnings, diag)
}

func (d *Diagnostics) HasErrors() bool { return len(d.Errors) > 0 }

// Last returns the most recently latched error, or nil if none.
func (d *Diagnostics) Last() *Diagnostic {
	if len(d.Errors) == 0 {
		return nil
	}
	return d.Errors[len(d.Errors)-1]
}

// First returns the first latched error, or nil if none, matching the
// "latches only the first error per phase" behavior callers may still rely
// on even though Errors keeps the full list for richer diagnostics.
func (d *Diagnostics) First() *Diagnostic {
	if len(d.Errors) == 0 {
		return nil
	}
	return d.Errors[0]
}

// WrapIO re-wraps a lower-level error (typically from os.ReadFile or
// os.WriteFile in the driver) with phase context, preserving the
// underlying cause for errors.Cause/errors.Is.
func WrapIO(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, context)
}
