package parser

import "testing"

func TestParseIntWithMode(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantOK  bool
	}{
		{"42", 42, true},
		{"$42", 42, true},
		{"-7", -7, true},
		{"0x1F", 0x1F, true},
		{"-0x10", -0x10, true},
		{"$-5", -5, true},
		{"", 0, false},
		{"$", 0, false},
		{"abc", 0, false},
		{"0x", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseIntWithMode(c.in)
		if ok != c.wantOK {
			t.Errorf("ParseIntWithMode(%q) ok = %v, want %v", c.in, ok, c.wantOK)
			continue
		}
		if ok && got != c.want {
			t.Errorf("ParseIntWithMode(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseIntWithModeNegativeOneIsDistinguishable(t *testing.T) {
	v, ok := ParseIntWithMode("-1")
	if !ok {
		t.Fatal("expected -1 to parse successfully")
	}
	if v != -1 {
		t.Fatalf("got %d, want -1", v)
	}
	_, ok = ParseIntWithMode("not a number")
	if ok {
		t.Fatal("expected an invalid literal to fail, distinctly from a valid -1")
	}
}

func TestRoundUpToMultiple(t *testing.T) {
	cases := []struct{ n, k, want int }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{10, 1, 10},
	}
	for _, c := range cases {
		if got := RoundUpToMultiple(c.n, c.k); got != c.want {
			t.Errorf("RoundUpToMultiple(%d, %d) = %d, want %d", c.n, c.k, got, c.want)
		}
	}
}

func TestValidNumberLiteral(t *testing.T) {
	if !ValidNumberLiteral("0x10") {
		t.Error("expected 0x10 to be valid")
	}
	if ValidNumberLiteral("xyz") {
		t.Error("expected xyz to be invalid")
	}
}

func TestCharCountAndStrEndsWith(t *testing.T) {
	if CharCount("a,b,c", ',') != 2 {
		t.Error("expected 2 commas")
	}
	if !StrEndsWith("label:", ":") {
		t.Error("expected label: to end with :")
	}
	if StrEndsWith("short", "longer-than-short") {
		t.Error("did not expect a longer suffix to match")
	}
}
