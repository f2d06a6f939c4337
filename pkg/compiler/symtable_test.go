package compiler

import "testing"

func TestSymbolTableScopeNesting(t *testing.T) {
	st := NewSymbolTable()
	if _, ok := st.Insert("g", SymVariable, &Type{Base: KindInt}, nil); !ok {
		t.Fatalf("global insert failed: %s", st.ErrorMsg)
	}

	st.EnterScope()
	if _, ok := st.Insert("l", SymVariable, &Type{Base: KindInt}, nil); !ok {
		t.Fatalf("local insert failed: %s", st.ErrorMsg)
	}
	if _, ok := st.Lookup("g"); !ok {
		t.Errorf("expected inner scope to see the outer 'g'")
	}
	st.ExitScope()

	if _, ok := st.LookupCurrentScope("l"); ok {
		t.Errorf("'l' should not be visible after its scope exits")
	}
	if _, ok := st.Lookup("g"); !ok {
		t.Errorf("'g' should still be visible at global scope")
	}
}

func TestSymbolTableDuplicateInsertFails(t *testing.T) {
	st := NewSymbolTable()
	st.Insert("x", SymVariable, &Type{Base: KindInt}, nil)
	if _, ok := st.Insert("x", SymVariable, &Type{Base: KindInt}, nil); ok {
		t.Fatalf("expected a duplicate insert in the same scope to fail")
	}
	if !st.HadError {
		t.Errorf("expected HadError to be set")
	}
}

func TestSymbolTableOffsetsAccumulate(t *testing.T) {
	st := NewSymbolTable()
	a, _ := st.Insert("a", SymVariable, &Type{Base: KindInt}, nil)   // 4 bytes
	b, _ := st.Insert("b", SymVariable, &Type{Base: KindChar}, nil)  // 1 byte
	if a.Offset != 0 {
		t.Errorf("a.Offset = %d, want 0", a.Offset)
	}
	if b.Offset != 4 {
		t.Errorf("b.Offset = %d, want 4", b.Offset)
	}
}

func TestSymbolTableExitGlobalScopeIsNoOp(t *testing.T) {
	st := NewSymbolTable()
	st.ExitScope()
	if st.CurrentScope != st.Global {
		t.Errorf("exiting the global scope must be a no-op")
	}
}
