package vm

import "testing"

func TestAddOverflow(t *testing.T) {
	a := uint32(0x7FFFFFFF)
	b := uint32(1)
	result := a + b
	if !addOverflow(a, b, result) {
		t.Error("expected overflow adding MaxInt32 + 1")
	}
	if addOverflow(1, 1, 2) {
		t.Error("did not expect overflow adding 1 + 1")
	}
}

func TestSubOverflow(t *testing.T) {
	a := uint32(0x80000000)
	b := uint32(1)
	result := a - b
	if !subOverflow(a, b, result) {
		t.Error("expected overflow subtracting 1 from MinInt32")
	}
	if subOverflow(5, 3, 2) {
		t.Error("did not expect overflow subtracting 3 from 5")
	}
}

func TestMulOverflow(t *testing.T) {
	big := int32(1 << 20)
	if !mulOverflow(big, big, big*big) {
		t.Error("expected overflow for a product that doesn't fit in 32 bits")
	}
	if mulOverflow(2, 3, 6) {
		t.Error("did not expect overflow for 2*3")
	}
}

func TestEvaluateJump(t *testing.T) {
	cases := []struct {
		mnemonic string
		flags    Flags
		want     bool
	}{
		{"je", Flags{ZF: true}, true},
		{"je", Flags{ZF: false}, false},
		{"jne", Flags{ZF: false}, true},
		{"jl", Flags{SF: true, OF: false}, true},
		{"jl", Flags{SF: false, OF: false}, false},
		{"jle", Flags{ZF: true}, true},
		{"jle", Flags{SF: true, OF: false}, true},
		{"jge", Flags{SF: true, OF: true}, true},
		{"jg", Flags{ZF: false, SF: true, OF: true}, true},
		{"jg", Flags{ZF: true, SF: true, OF: true}, false},
	}
	for _, c := range cases {
		if got := EvaluateJump(c.mnemonic, c.flags); got != c.want {
			t.Errorf("EvaluateJump(%q, %+v) = %v, want %v", c.mnemonic, c.flags, got, c.want)
		}
	}
}
