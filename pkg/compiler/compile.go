package compiler

// Result is everything one compilation produced, successful or not: the
// AST (useful for -dump-ast even on failure), the symbol table, the
// emitted instructions, and every diagnostic latched by any phase.
type Result struct {
	Program *Program
	Symbols *SymbolTable
	Code    *InstructionStream

	Diags Diagnostics
	OK    bool
}

// Compile runs the lex → parse → generate pipeline over source. It always
// returns an owned Result, with OK reporting whether any phase latched an
// error. The caller is responsible for checking OK before trusting Code.
func Compile(source, filename string) *Result {
	res := &Result{}

	lex := NewLexer(source, filename)
	par := NewParser(lex) // drains lex fully; par.Diags already absorbs lex.Diags
	res.Program = par.ParseProgram()
	res.Diags.Errors = append(res.Diags.Errors, par.Diags.Errors...)

	syms := NewSymbolTable()
	res.Symbols = syms

	code, codeDiags := Generate(res.Program, syms)
	res.Code = code
	res.Diags.Errors = append(res.Diags.Errors, codeDiags.Errors...)
	res.Diags.Warnings = append(res.Diags.Warnings, codeDiags.Warnings...)

	res.OK = !res.Diags.HasErrors()
	return res
}
