package debugger

import (
	"fmt"
	"strings"

	"github.com/y86sim/y86sim/vm"
)

// Op is a condition's comparison operator.
type Op int

const (
	OpLT Op = iota
	OpGT
	OpEQ
	OpGE
	OpLE
	OpNE
)

func (op Op) String() string {
	switch op {
	case OpLT:
		return "<"
	case OpGT:
		return ">"
	case OpEQ:
		return "="
	case OpGE:
		return ">="
	case OpLE:
		return "<="
	case OpNE:
		return "!="
	default:
		return "?"
	}
}

// Condition is a parsed `X OP Y` breakpoint/watch expression, where X
// and Y are value-descriptor strings (spec.md §4.5) evaluated fresh
// each time the condition is checked.
type Condition struct {
	X, Y string
	Op   Op
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.X, c.Op, c.Y)
}

// Equal reports structural equality: same operands, same operator.
func (c Condition) Equal(other Condition) bool {
	return c.X == other.X && c.Y == other.Y && c.Op == other.Op
}

// BuildCondition parses `X OP Y` using the same first-match-wins
// operator scan as the original `condition.c`'s build_condition: look
// for '<' first, then '>', then '!', then '=' last, since '=' would
// otherwise also match inside "<=" and ">=".
func BuildCondition(expr string) (*Condition, error) {
	if i := strings.IndexByte(expr, '<'); i >= 0 {
		if i+1 < len(expr) && expr[i+1] == '=' {
			return splitCondition(expr, i, 2, OpLE)
		}
		return splitCondition(expr, i, 1, OpLT)
	}
	if i := strings.IndexByte(expr, '>'); i >= 0 {
		if i+1 < len(expr) && expr[i+1] == '=' {
			return splitCondition(expr, i, 2, OpGE)
		}
		return splitCondition(expr, i, 1, OpGT)
	}
	if i := strings.IndexByte(expr, '!'); i >= 0 {
		if i+1 < len(expr) && expr[i+1] == '=' {
			return splitCondition(expr, i, 2, OpNE)
		}
		return nil, fmt.Errorf("malformed condition %q: '!' not followed by '='", expr)
	}
	if i := strings.IndexByte(expr, '='); i >= 0 {
		return splitCondition(expr, i, 1, OpEQ)
	}
	return nil, fmt.Errorf("condition %q has no recognized operator", expr)
}

func splitCondition(expr string, opAt, opLen int, op Op) (*Condition, error) {
	x := strings.TrimSpace(expr[:opAt])
	y := strings.TrimSpace(expr[opAt+opLen:])
	if x == "" || y == "" {
		return nil, fmt.Errorf("malformed condition %q", expr)
	}
	return &Condition{X: x, Y: y, Op: op}, nil
}

// ConditionHolds evaluates c against the current machine state. Any
// evaluation error (undefined register syntax, out-of-bounds memory
// descriptor) makes the condition false rather than propagating, per
// spec.md §4.6 — the original C implementation's condition_holds
// returns a truthy -1 on error, but the spec this repo follows states
// the opposite, so that is what is implemented here.
func ConditionHolds(c *Condition, m *vm.VM) bool {
	x, err := EvalValueDescriptor(c.X, m)
	if err != nil {
		return false
	}
	y, err := EvalValueDescriptor(c.Y, m)
	if err != nil {
		return false
	}

	xi, yi := int32(x), int32(y)
	switch c.Op {
	case OpLT:
		return xi < yi
	case OpGT:
		return xi > yi
	case OpEQ:
		return xi == yi
	case OpGE:
		return xi >= yi
	case OpLE:
		return xi <= yi
	case OpNE:
		return xi != yi
	default:
		return false
	}
}

// ConditionList is a prepend-ordered collection of conditions: newer
// conditions are checked before older ones, matching the original's
// linked-list-with-head-insertion structure.
type ConditionList struct {
	conditions []Condition
}

// Add prepends a condition to the list.
func (l *ConditionList) Add(c Condition) {
	l.conditions = append([]Condition{c}, l.conditions...)
}

// Remove deletes the first structurally equal condition, reporting
// whether one was found.
func (l *ConditionList) Remove(c Condition) bool {
	for i, existing := range l.conditions {
		if existing.Equal(c) {
			l.conditions = append(l.conditions[:i], l.conditions[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether c is already in the list.
func (l *ConditionList) Contains(c Condition) bool {
	for _, existing := range l.conditions {
		if existing.Equal(c) {
			return true
		}
	}
	return false
}

// All returns every condition, most-recently-added first.
func (l *ConditionList) All() []Condition {
	out := make([]Condition, len(l.conditions))
	copy(out, l.conditions)
	return out
}

// Len returns the number of conditions in the list.
func (l *ConditionList) Len() int {
	return len(l.conditions)
}

// FindFirstTrue returns the first condition (in list order) that
// currently holds against m, if any.
func FindFirstTrue(l *ConditionList, m *vm.VM) (*Condition, bool) {
	for i := range l.conditions {
		if ConditionHolds(&l.conditions[i], m) {
			return &l.conditions[i], true
		}
	}
	return nil, false
}
