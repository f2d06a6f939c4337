package compiler

import "fmt"

// CodeGen walks a parsed Program and lowers it to a flat InstructionStream.
// It owns the SymbolTable for the duration of one compilation: top-level
// declarations are inserted ahead of code emission, while function
// parameters and local declarations are inserted as their enclosing scopes
// are entered during the walk.
type CodeGen struct {
	syms   *SymbolTable
	stream InstructionStream

	// breakJumps and continueJumps point at the innermost loop's pending
	// JMP-instruction indices — placeholders emitted by `break`/`continue`
	// that get patched once the loop knows their real target. Both are nil
	// outside any loop, which is how BreakStmt/ContinueStmt tell a stray
	// break/continue apart from one inside a loop.
	breakJumps    *[]int
	continueJumps *[]int

	Diags Diagnostics
}

func NewCodeGen(syms *SymbolTable) *CodeGen {
	return &CodeGen{syms: syms}
}

func (cg *CodeGen) fail(format string, args ...any) {
	cg.Diags.AddError(&Diagnostic{Kind: DiagCodegen, Message: fmt.Sprintf(format, args...)})
}

func (cg *CodeGen) warn(format string, args ...any) {
	cg.Diags.AddWarning(&Diagnostic{Kind: DiagSemantic, Message: fmt.Sprintf(format, args...)})
}

// warnUnusedInScope surfaces an "unused variable" warning for every
// variable/parameter declared directly in sc that codegen never read or
// wrote. Functions and processes are exempt: an entry point such as main
// is never called from within the program itself.
func (cg *CodeGen) warnUnusedInScope(sc *Scope) {
	for _, head := range sc.buckets {
		for sym := head; sym != nil; sym = sym.next {
			if (sym.Kind == SymVariable || sym.Kind == SymParameter) && !sym.Used {
				cg.warn("unused variable %q", sym.Name)
			}
		}
	}
}

// Generate lowers prog to an instruction stream, returning the codegen
// phase's own Diagnostics alongside it. A caller should treat the
// compilation as failed whenever diags.HasErrors() is true: emission
// continues past an error so later declarations still get a chance to
// report their own problems, but the overall result is still a failure.
func Generate(prog *Program, syms *SymbolTable) (*InstructionStream, Diagnostics) {
	cg := NewCodeGen(syms)

	// Top-level pass: insert every function/process/global-variable symbol
	// before any code is emitted, so forward calls and globals declared
	// later in the file still resolve.
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *FunctionDecl:
			kind := SymFunction
			if d.IsProcess {
				kind = SymProcess
			}
			sym, ok := cg.syms.Insert(d.Name, kind, d.ReturnType, d)
			if !ok {
				cg.fail("%s", cg.syms.ErrorMsg)
				continue
			}
			d.Sym = sym
		case *VarDecl:
			sym, ok := cg.syms.Insert(d.Name, SymVariable, d.Type, d)
			if !ok {
				cg.fail("%s", cg.syms.ErrorMsg)
				continue
			}
			sym.Initialized = d.Init != nil
			d.Sym = sym
		case *UnsupportedStmt:
			// already diagnosed by the parser
		}
	}

	for _, decl := range prog.Decls {
		if fn, ok := decl.(*FunctionDecl); ok && fn.Body != nil {
			cg.genFunction(fn)
		}
	}

	cg.stream.emit(OpHALT, 0, "")
	cg.warnUnusedInScope(cg.syms.Global)
	return &cg.stream, cg.Diags
}

func (cg *CodeGen) genFunction(fn *FunctionDecl) {
	cg.stream.placeLabel("func_" + fn.Name)

	cg.syms.EnterScope()
	for _, p := range fn.Params {
		if _, ok := cg.syms.Insert(p.Name, SymParameter, p.Type, p); !ok {
			cg.fail("%s", cg.syms.ErrorMsg)
		}
	}
	for _, stmt := range fn.Body.Stmts {
		cg.genStmt(stmt)
	}
	cg.warnUnusedInScope(cg.syms.CurrentScope)
	cg.syms.ExitScope()

	cg.stream.emit(OpPUSH, 0, "implicit return")
	cg.stream.emit(OpRET, 0, "")
}

//  Statements

func (cg *CodeGen) genStmt(s Stmt) {
	switch n := s.(type) {
	case *ExprStmt:
		cg.genExpr(n.X)
		cg.stream.emit(OpPOP, 0, "")

	case *VarDecl:
		cg.genVarDecl(n)

	case *Block:
		cg.syms.EnterScope()
		for _, stmt := range n.Stmts {
			cg.genStmt(stmt)
		}
		cg.warnUnusedInScope(cg.syms.CurrentScope)
		cg.syms.ExitScope()

	case *IfStmt:
		cg.genExpr(n.Cond)
		jz := cg.stream.emit(OpJZ, 0, "")
		cg.genStmt(n.Then)
		if n.Else != nil {
			jmp := cg.stream.emit(OpJMP, 0, "")
			cg.stream.patchOperand(jz, cg.stream.here())
			cg.genStmt(n.Else)
			cg.stream.patchOperand(jmp, cg.stream.here())
		} else {
			cg.stream.patchOperand(jz, cg.stream.here())
		}

	case *WhileStmt:
		start := cg.stream.here()
		oldBreaks, oldContinues := cg.breakJumps, cg.continueJumps
		var breaks, continues []int
		cg.breakJumps, cg.continueJumps = &breaks, &continues

		cg.genExpr(n.Cond)
		jz := cg.stream.emit(OpJZ, 0, "")
		cg.genStmt(n.Body)
		for _, idx := range continues {
			cg.stream.patchOperand(idx, start)
		}
		cg.stream.emit(OpJMP, start, "")
		end := cg.stream.here()
		cg.stream.patchOperand(jz, end)
		for _, idx := range breaks {
			cg.stream.patchOperand(idx, end)
		}

		cg.breakJumps, cg.continueJumps = oldBreaks, oldContinues

	case *DoWhileStmt:
		start := cg.stream.here()
		oldBreaks, oldContinues := cg.breakJumps, cg.continueJumps
		var breaks, continues []int
		cg.breakJumps, cg.continueJumps = &breaks, &continues

		cg.genStmt(n.Body)
		condPos := cg.stream.here()
		for _, idx := range continues {
			cg.stream.patchOperand(idx, condPos)
		}
		cg.genExpr(n.Cond)
		cg.stream.emit(OpJNZ, start, "")
		end := cg.stream.here()
		for _, idx := range breaks {
			cg.stream.patchOperand(idx, end)
		}

		cg.breakJumps, cg.continueJumps = oldBreaks, oldContinues

	case *ForStmt:
		oldBreaks, oldContinues := cg.breakJumps, cg.continueJumps
		var breaks, continues []int
		cg.breakJumps, cg.continueJumps = &breaks, &continues

		if n.Init != nil {
			cg.genStmt(n.Init)
		}
		start := cg.stream.here()

		jz := -1
		if n.Cond != nil {
			cg.genExpr(n.Cond)
			jz = cg.stream.emit(OpJZ, 0, "")
		}

		cg.genStmt(n.Body)

		continueTarget := cg.stream.here()
		for _, idx := range continues {
			cg.stream.patchOperand(idx, continueTarget)
		}
		if n.Post != nil {
			cg.genStmt(n.Post)
		}
		cg.stream.emit(OpJMP, start, "")

		end := cg.stream.here()
		if jz >= 0 {
			cg.stream.patchOperand(jz, end)
		}
		for _, idx := range breaks {
			cg.stream.patchOperand(idx, end)
		}

		cg.breakJumps, cg.continueJumps = oldBreaks, oldContinues

	case *ReturnStmt:
		if n.X != nil {
			cg.genExpr(n.X)
		} else {
			cg.stream.emit(OpPUSH, 0, "")
		}
		cg.stream.emit(OpRET, 0, "")

	case *BreakStmt:
		if cg.breakJumps != nil {
			idx := cg.stream.emit(OpJMP, 0, "")
			*cg.breakJumps = append(*cg.breakJumps, idx)
		}

	case *ContinueStmt:
		if cg.continueJumps != nil {
			idx := cg.stream.emit(OpJMP, 0, "")
			*cg.continueJumps = append(*cg.continueJumps, idx)
		}

	case *CreateStmt:
		for _, arg := range n.Args {
			cg.genExpr(arg)
		}
		cg.stream.emit(OpCREATE, int32(len(n.Args)), "")

	case *ResumeStmt:
		cg.genExpr(n.Pid)
		cg.stream.emit(OpRESUME, 0, "")

	case *SuspendStmt:
		cg.genExpr(n.Pid)
		cg.stream.emit(OpSUSPEND, 0, "")

	case *KillStmt:
		cg.genExpr(n.Pid)
		cg.stream.emit(OpKILL, 0, "")

	case *SleepStmt:
		cg.genExpr(n.Ms)
		cg.stream.emit(OpSLEEP, 0, "")

	case *YieldStmt:
		cg.stream.emit(OpYIELD, 0, "")

	case *WaitStmt:
		cg.genExpr(n.Sem)
		cg.stream.emit(OpWAIT, 0, "")

	case *SignalStmt:
		cg.genExpr(n.Sem)
		cg.stream.emit(OpSIGNAL, 0, "")

	case *FunctionDecl:
		cg.genFunction(n)

	case *UnsupportedStmt:
		// parser already latched the diagnostic for this node

	default:
		cg.fail("codegen: unhandled statement %T", n)
	}
}

// genVarDecl inserts decl's symbol into the current scope, consuming
// offset space, and, if an initialiser is present, lowers it exactly like
// a plain assignment, discarding the DUP'd result since a declaration is
// a statement rather than an expression.
func (cg *CodeGen) genVarDecl(decl *VarDecl) {
	sym, ok := cg.syms.Insert(decl.Name, SymVariable, decl.Type, decl)
	if !ok {
		cg.fail("%s", cg.syms.ErrorMsg)
		return
	}
	decl.Sym = sym

	if decl.Init == nil {
		return
	}
	if list, isList := decl.Init.(*InitListExpr); isList {
		cg.genArrayInit(sym, list)
		return
	}

	cg.genExpr(decl.Init)
	cg.stream.emit(OpDUP, 0, "")
	sym.Initialized = true
	if sym.ScopeLevel == 0 {
		cg.stream.emit(OpSTOREG, int32(sym.Offset), "")
	} else {
		cg.stream.emit(OpSTOREL, int32(sym.Offset), "")
	}
	cg.stream.emit(OpPOP, 0, "")
}

// genArrayInit lowers `T a[n] = { e0, e1, ... };` by storing each constant
// element at base+i*elemSize in turn.
func (cg *CodeGen) genArrayInit(sym *Symbol, list *InitListExpr) {
	elemSize := sym.Type.Size()
	if len(sym.Type.ArrayDims) > 0 && sym.Type.ArrayDims[0] > 0 {
		elemSize = sym.Type.Size() / sym.Type.ArrayDims[0]
	}
	for i, elem := range list.Elems {
		cg.genIdentAddr(sym)
		cg.stream.emit(OpPUSH, int32(i*elemSize), "")
		cg.stream.emit(OpADD, 0, "")
		cg.genExpr(elem)
		cg.stream.emit(OpSTORE, 0, "")
	}
	sym.Initialized = true
}

//  Expressions

// binaryOpcodes maps a BinaryExpr's operator token to its opcode.
var binaryOpcodes = map[TokenKind]Opcode{
	PLUS: OpADD, MINUS: OpSUB, STAR: OpMUL, SLASH: OpDIV, PERCENT: OpMOD,
	AMP: OpAND, PIPE: OpOR, CARET: OpXOR, SHL: OpSHL, SHR: OpSHR,
	EQ: OpEQ, NE: OpNE, LT: OpLT, LE: OpLE, GT: OpGT, GE: OpGE,
	AND_AND: OpLAND, OR_OR: OpLOR,
}

func (cg *CodeGen) genExpr(e Expr) {
	switch n := e.(type) {
	case *NumberLit:
		cg.stream.emit(OpPUSH, int32(n.Value), "")

	case *FloatLit:
		// The target instruction set has no floating-point opcodes;
		// a float constant is truncated to its integer value.
		cg.stream.emit(OpPUSH, int32(n.Value), "")

	case *CharLit:
		cg.stream.emit(OpPUSH, int32(n.Value), "")

	case *StringLit:
		cg.fail("string literals have no representation in this instruction set")
		cg.stream.emit(OpPUSH, 0, "")

	case *Ident:
		sym, ok := cg.syms.Lookup(n.Name)
		if !ok {
			cg.fail("undefined identifier %q", n.Name)
			cg.stream.emit(OpPUSH, 0, "")
			return
		}
		n.Sym = sym
		sym.Used = true
		if sym.Kind == SymVariable && !sym.Initialized && sym.ScopeLevel > 0 && !sym.WarnedUninitRead {
			sym.WarnedUninitRead = true
			cg.warn("local variable %q read before being assigned", sym.Name)
		}
		if sym.ScopeLevel == 0 {
			cg.stream.emit(OpLOADG, int32(sym.Offset), "")
		} else {
			cg.stream.emit(OpLOADL, int32(sym.Offset), "")
		}

	case *BinaryExpr:
		cg.genExpr(n.Left)
		cg.genExpr(n.Right)
		op, ok := binaryOpcodes[n.Op]
		if !ok {
			cg.fail("codegen: unknown binary operator %s", n.Op)
			return
		}
		cg.stream.emit(op, 0, "")

	case *UnaryExpr:
		switch n.Op {
		case PLUS:
			cg.genExpr(n.X)
		case MINUS:
			cg.genExpr(n.X)
			cg.stream.emit(OpNEG, 0, "")
		case NOT:
			cg.genExpr(n.X)
			cg.stream.emit(OpLNOT, 0, "")
		case TILDE:
			cg.genExpr(n.X)
			cg.stream.emit(OpNOT, 0, "")
		case AMP:
			cg.genAddr(n.X)
		case STAR:
			cg.genExpr(n.X) // pointer value IS the address
			cg.stream.emit(OpLOAD, 0, "")
		default:
			cg.fail("codegen: unknown unary operator %s", n.Op)
		}

	case *TernaryExpr:
		cg.genExpr(n.Cond)
		elseJZ := cg.stream.emit(OpJZ, 0, "")
		cg.genExpr(n.Then)
		endJMP := cg.stream.emit(OpJMP, 0, "")
		cg.stream.patchOperand(elseJZ, cg.stream.here())
		cg.genExpr(n.Else)
		cg.stream.patchOperand(endJMP, cg.stream.here())

	case *AssignExpr:
		cg.genAssign(n.Left, n.Value)

	case *CompoundAssignExpr:
		cg.genCompoundAssign(n)

	case *CallExpr:
		for _, arg := range n.Args {
			cg.genExpr(arg)
		}
		sym, ok := cg.syms.Lookup(n.Callee)
		if !ok {
			cg.fail("undefined function %q", n.Callee)
			return
		}
		sym.Used = true
		cg.stream.emit(OpCALL, int32(sym.Offset), "")

	case *IndexExpr:
		cg.genAddr(n)
		cg.stream.emit(OpLOAD, 0, "")

	case *MemberExpr, *PtrMemberExpr:
		cg.fail("codegen: struct member access has no backing type (struct/union are unsupported)")
		cg.stream.emit(OpPUSH, 0, "")

	case *SizeofExpr:
		cg.stream.emit(OpPUSH, int32(cg.sizeofValue(n)), "")

	case *PreIncDec:
		cg.genIncDec(n.X, n.Op, true)

	case *PostIncDec:
		cg.genIncDec(n.X, n.Op, false)

	case *CommaExpr:
		cg.genExpr(n.Left)
		cg.stream.emit(OpPOP, 0, "")
		cg.genExpr(n.Right)

	case *GetpidExpr:
		cg.stream.emit(OpGETPID, 0, "")

	default:
		cg.fail("codegen: unknown expression node %T", n)
	}
}

func (cg *CodeGen) sizeofValue(n *SizeofExpr) int {
	if n.Type != nil {
		return n.Type.Size()
	}
	if ident, ok := n.X.(*Ident); ok {
		if sym, found := cg.syms.Lookup(ident.Name); found {
			return sym.Type.Size()
		}
	}
	return baseSize(KindInt)
}

// genAddr pushes the address of an lvalue expression onto the stack.
// Identifiers use the encoded ADDR form; an index expression adds a scaled
// byte offset to its base's address; a dereference uses the pointer's
// value as the address.
func (cg *CodeGen) genAddr(e Expr) {
	switch n := e.(type) {
	case *Ident:
		sym, ok := cg.syms.Lookup(n.Name)
		if !ok {
			cg.fail("undefined identifier %q", n.Name)
			cg.stream.emit(OpPUSH, 0, "")
			return
		}
		n.Sym = sym
		cg.genIdentAddr(sym)

	case *IndexExpr:
		cg.genAddr(n.Left)
		elemSize := cg.elemSizeOf(n.Left)
		cg.genExpr(n.Index)
		cg.stream.emit(OpPUSH, int32(elemSize), "")
		cg.stream.emit(OpMUL, 0, "")
		cg.stream.emit(OpADD, 0, "")

	case *UnaryExpr:
		if n.Op == STAR {
			cg.genExpr(n.X) // the pointer's value is already the address
			return
		}
		cg.fail("cannot take the address of this expression")
		cg.stream.emit(OpPUSH, 0, "")

	default:
		cg.fail("cannot take the address of expression type %T", e)
		cg.stream.emit(OpPUSH, 0, "")
	}
}

// genIdentAddr encodes sym's address with a single ADDR opcode: a
// non-negative operand names a global offset, a negative operand names a
// local offset via one's-complement (-(offset+1)), letting one opcode
// serve both LOADG/LOADL's split without a second mnemonic.
func (cg *CodeGen) genIdentAddr(sym *Symbol) {
	if sym.ScopeLevel == 0 {
		cg.stream.emit(OpADDR, int32(sym.Offset), "")
	} else {
		cg.stream.emit(OpADDR, int32(-(sym.Offset + 1)), "")
	}
}

// elemSizeOf reports the per-element byte size used when indexing base.
func (cg *CodeGen) elemSizeOf(base Expr) int {
	ident, ok := base.(*Ident)
	if !ok {
		return baseSize(KindInt)
	}
	sym, ok := cg.syms.Lookup(ident.Name)
	if !ok {
		return baseSize(KindInt)
	}
	if sym.Type.Base == KindArray && sym.Type.Elem != nil {
		return sym.Type.Elem.Size()
	}
	if sym.Type.PointerDepth > 0 {
		elem := sym.Type.Clone()
		elem.PointerDepth--
		return elem.Size()
	}
	return sym.Type.Size()
}

// genAssign lowers `left = value`. A plain identifier target uses the
// direct STOREG/STOREL form; any other lvalue (dereference, array
// element) composes an address first and stores through the generic
// STORE opcode.
func (cg *CodeGen) genAssign(left Expr, value Expr) {
	if ident, ok := left.(*Ident); ok {
		sym, found := cg.syms.Lookup(ident.Name)
		if !found {
			cg.fail("undefined identifier %q", ident.Name)
			cg.genExpr(value)
			cg.stream.emit(OpPOP, 0, "")
			return
		}
		ident.Sym = sym
		sym.Initialized = true

		cg.genExpr(value)
		cg.stream.emit(OpDUP, 0, "")
		if sym.ScopeLevel == 0 {
			cg.stream.emit(OpSTOREG, int32(sym.Offset), "")
		} else {
			cg.stream.emit(OpSTOREL, int32(sym.Offset), "")
		}
		return
	}

	cg.genAddr(left)
	cg.stream.emit(OpDUP, 0, "")
	cg.genExpr(value)
	cg.stream.emit(OpSWAP, 0, "")
	cg.stream.emit(OpSTORE, 0, "")
	cg.stream.emit(OpSWAP, 0, "")
	cg.stream.emit(OpPOP, 0, "")
}

// compoundBaseOp maps a CompoundAssignExpr's base operator to the opcode
// applied between the current value and the RHS.
var compoundBaseOp = map[TokenKind]Opcode{
	PLUS: OpADD, MINUS: OpSUB, STAR: OpMUL, SLASH: OpDIV, PERCENT: OpMOD,
	AMP: OpAND, PIPE: OpOR, CARET: OpXOR, SHL: OpSHL, SHR: OpSHR,
}

func (cg *CodeGen) genCompoundAssign(n *CompoundAssignExpr) {
	op, ok := compoundBaseOp[n.Op]
	if !ok {
		cg.fail("codegen: unknown compound-assignment operator %s", n.Op)
		return
	}

	if ident, isIdent := n.Left.(*Ident); isIdent {
		sym, found := cg.syms.Lookup(ident.Name)
		if !found {
			cg.fail("undefined identifier %q", ident.Name)
			return
		}
		ident.Sym = sym
		cg.genExpr(n.Left)
		cg.genExpr(n.Value)
		cg.stream.emit(op, 0, "")
		cg.stream.emit(OpDUP, 0, "")
		if sym.ScopeLevel == 0 {
			cg.stream.emit(OpSTOREG, int32(sym.Offset), "")
		} else {
			cg.stream.emit(OpSTOREL, int32(sym.Offset), "")
		}
		return
	}

	cg.genAddr(n.Left)
	cg.stream.emit(OpDUP, 0, "")
	cg.stream.emit(OpLOAD, 0, "")
	cg.genExpr(n.Value)
	cg.stream.emit(op, 0, "")
	cg.stream.emit(OpDUP, 0, "")
	cg.stream.emit(OpSWAP, 0, "")
	cg.stream.emit(OpSTORE, 0, "")
}

// genIncDec lowers ++x/--x/x++/x--. pre reports whether the result is the
// updated value (prefix) or the original value (postfix).
func (cg *CodeGen) genIncDec(target Expr, op TokenKind, pre bool) {
	delta := OpADD
	if op == DEC {
		delta = OpSUB
	}

	if ident, ok := target.(*Ident); ok {
		sym, found := cg.syms.Lookup(ident.Name)
		if !found {
			cg.fail("undefined identifier %q", ident.Name)
			return
		}
		ident.Sym = sym
		store := func() {
			if sym.ScopeLevel == 0 {
				cg.stream.emit(OpSTOREG, int32(sym.Offset), "")
			} else {
				cg.stream.emit(OpSTOREL, int32(sym.Offset), "")
			}
		}
		load := func() {
			if sym.ScopeLevel == 0 {
				cg.stream.emit(OpLOADG, int32(sym.Offset), "")
			} else {
				cg.stream.emit(OpLOADL, int32(sym.Offset), "")
			}
		}

		load()
		if pre {
			cg.stream.emit(OpPUSH, 1, "")
			cg.stream.emit(delta, 0, "")
			cg.stream.emit(OpDUP, 0, "")
			store()
		} else {
			cg.stream.emit(OpDUP, 0, "")
			cg.stream.emit(OpPUSH, 1, "")
			cg.stream.emit(delta, 0, "")
			store()
		}
		return
	}

	cg.genAddr(target)
	cg.stream.emit(OpDUP, 0, "")
	cg.stream.emit(OpLOAD, 0, "")
	if pre {
		cg.stream.emit(OpPUSH, 1, "")
		cg.stream.emit(delta, 0, "")
		cg.stream.emit(OpDUP, 0, "")
		cg.stream.emit(OpSWAP, 0, "")
		cg.stream.emit(OpSTORE, 0, "")
	} else {
		cg.stream.emit(OpSWAP, 0, "")
		cg.stream.emit(OpDUP, 0, "")
		cg.stream.emit(OpPUSH, 1, "")
		cg.stream.emit(delta, 0, "")
		cg.stream.emit(OpSWAP, 0, "")
		cg.stream.emit(OpSTORE, 0, "")
		cg.stream.emit(OpPOP, 0, "")
	}
}
