package parser

import "testing"

func TestSymbolTableDefineAndFind(t *testing.T) {
	st := NewSymbolTable()
	if err := st.Define("loop", 10); err != nil {
		t.Fatal(err)
	}
	addr, ok := st.Find("loop")
	if !ok || addr != 10 {
		t.Fatalf("Find(loop) = (%d, %v), want (10, true)", addr, ok)
	}
	if _, ok := st.Find("nope"); ok {
		t.Error("expected Find to fail for an undefined label")
	}
}

func TestSymbolTableRejectsDuplicates(t *testing.T) {
	st := NewSymbolTable()
	if err := st.Define("x", 0); err != nil {
		t.Fatal(err)
	}
	if err := st.Define("x", 4); err == nil {
		t.Error("expected an error redefining a label")
	}
}

func TestSymbolTableRejectsInvalidNames(t *testing.T) {
	st := NewSymbolTable()
	if err := st.Define("bad label", 0); err == nil {
		t.Error("expected an error for a label containing a space")
	}
	if err := st.Define("", 0); err == nil {
		t.Error("expected an error for an empty label")
	}
}

func TestSymbolTableFindByAddrFirstWins(t *testing.T) {
	st := NewSymbolTable()
	if err := st.Define("first", 8); err != nil {
		t.Fatal(err)
	}
	if err := st.Define("second", 8); err != nil {
		t.Fatal(err)
	}
	name, ok := st.FindByAddr(8)
	if !ok || name != "first" {
		t.Fatalf("FindByAddr(8) = (%q, %v), want (first, true)", name, ok)
	}
}

func TestValidLabelName(t *testing.T) {
	if !ValidLabelName("loop_1") {
		t.Error("expected loop_1 to be valid")
	}
	if ValidLabelName("") {
		t.Error("expected empty name to be invalid")
	}
	long := make([]byte, MaxLabelLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if ValidLabelName(string(long)) {
		t.Error("expected a name longer than MaxLabelLength to be invalid")
	}
}
