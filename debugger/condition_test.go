package debugger

import (
	"testing"

	"github.com/y86sim/y86sim/vm"
)

func TestBuildConditionOperators(t *testing.T) {
	cases := []struct {
		expr    string
		wantX   string
		wantY   string
		wantOp  Op
	}{
		{"%eax < %ebx", "%eax", "%ebx", OpLT},
		{"%eax<=%ebx", "%eax", "%ebx", OpLE},
		{"%eax > 0", "%eax", "0", OpGT},
		{"%eax>=0", "%eax", "0", OpGE},
		{"%eax != 0", "%eax", "0", OpNE},
		{"%eax = 0", "%eax", "0", OpEQ},
	}
	for _, c := range cases {
		cond, err := BuildCondition(c.expr)
		if err != nil {
			t.Errorf("BuildCondition(%q) error: %v", c.expr, err)
			continue
		}
		if cond.X != c.wantX || cond.Y != c.wantY || cond.Op != c.wantOp {
			t.Errorf("BuildCondition(%q) = %+v, want X=%q Y=%q Op=%v", c.expr, cond, c.wantX, c.wantY, c.wantOp)
		}
	}
}

func TestBuildConditionRejectsBareBang(t *testing.T) {
	if _, err := BuildCondition("%eax ! %ebx"); err == nil {
		t.Error("expected an error for '!' not followed by '='")
	}
}

func TestBuildConditionRejectsNoOperator(t *testing.T) {
	if _, err := BuildCondition("%eax %ebx"); err == nil {
		t.Error("expected an error when no operator is present")
	}
}

func TestBuildConditionRejectsEmptyOperand(t *testing.T) {
	if _, err := BuildCondition("< %ebx"); err == nil {
		t.Error("expected an error for a missing left operand")
	}
	if _, err := BuildCondition("%eax <"); err == nil {
		t.Error("expected an error for a missing right operand")
	}
}

func TestConditionHoldsFalseOnEvaluationError(t *testing.T) {
	m := vm.NewVM()
	cond := &Condition{X: "%notareg", Y: "0", Op: OpEQ}
	if ConditionHolds(cond, m) {
		t.Error("expected a condition with an invalid operand to be false, not an error propagated as true")
	}
}

func TestConditionHoldsEvaluatesRegisters(t *testing.T) {
	m := vm.NewVM()
	m.CPU.SetRegister(vm.EAX, 5)
	cond := &Condition{X: "%eax", Y: "5", Op: OpEQ}
	if !ConditionHolds(cond, m) {
		t.Error("expected %eax = 5 to hold")
	}
	cond2 := &Condition{X: "%eax", Y: "5", Op: OpLT}
	if ConditionHolds(cond2, m) {
		t.Error("expected %eax < 5 to not hold")
	}
}

func TestConditionListPrependAndRemove(t *testing.T) {
	var l ConditionList
	c1 := Condition{X: "%eax", Y: "0", Op: OpEQ}
	c2 := Condition{X: "%ebx", Y: "0", Op: OpEQ}
	l.Add(c1)
	l.Add(c2)
	all := l.All()
	if len(all) != 2 || all[0] != c2 || all[1] != c1 {
		t.Fatalf("All() = %v, want [c2, c1] (most recent first)", all)
	}
	if !l.Contains(c1) {
		t.Error("expected Contains(c1) to be true")
	}
	if !l.Remove(c1) {
		t.Error("expected Remove(c1) to succeed")
	}
	if l.Contains(c1) {
		t.Error("expected c1 to be gone after Remove")
	}
	if l.Remove(c1) {
		t.Error("expected a second Remove(c1) to report false")
	}
}

func TestFindFirstTrue(t *testing.T) {
	m := vm.NewVM()
	m.CPU.SetRegister(vm.EAX, 0)
	var l ConditionList
	l.Add(Condition{X: "%eax", Y: "1", Op: OpEQ})
	l.Add(Condition{X: "%eax", Y: "0", Op: OpEQ})
	cond, ok := FindFirstTrue(&l, m)
	if !ok {
		t.Fatal("expected a holding condition")
	}
	if cond.Y != "0" {
		t.Errorf("found condition Y = %q, want 0", cond.Y)
	}
}

func TestFindFirstTrueNoneHolding(t *testing.T) {
	m := vm.NewVM()
	var l ConditionList
	l.Add(Condition{X: "%eax", Y: "99", Op: OpEQ})
	if _, ok := FindFirstTrue(&l, m); ok {
		t.Error("expected no condition to hold")
	}
}
