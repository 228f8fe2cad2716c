package debugger

import (
	"sync"

	"github.com/y86sim/y86sim/vm"
)

// WatchList is the set of global watch conditions (spec.md §4.6/§4.8):
// unlike the teacher's WatchpointManager, which detects a monitored
// value *changing*, a watch here fires whenever its boolean condition
// *holds* — there is no address or register binding, no
// last-known-value tracking, just a condition evaluated fresh against
// the current machine state on every suspend check.
type WatchList struct {
	mu         sync.RWMutex
	conditions ConditionList
}

// NewWatchList returns an empty watch list.
func NewWatchList() *WatchList {
	return &WatchList{}
}

// Add adds a watch condition.
func (w *WatchList) Add(c Condition) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conditions.Add(c)
}

// Remove removes a structurally equal watch condition, reporting
// whether one was found.
func (w *WatchList) Remove(c Condition) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conditions.Remove(c)
}

// All returns every watch condition, most-recently-added first.
func (w *WatchList) All() []Condition {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.conditions.All()
}

// Len returns the number of watch conditions.
func (w *WatchList) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.conditions.Len()
}

// Clear removes every watch condition.
func (w *WatchList) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conditions = ConditionList{}
}

// FindFirstHolding returns the first watch condition that currently
// holds against m, if any.
func (w *WatchList) FindFirstHolding(m *vm.VM) (*Condition, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return FindFirstTrue(&w.conditions, m)
}
