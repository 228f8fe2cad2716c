package parser

// SourceLine is one line of the source file in its normalized form
// (spec.md §4.3 step 1), tagged with the address it maps to. A
// label-only line (just `name:`, no instruction or directive on it)
// shares its address with whatever follows it, so it is marked
// IsLabelOnly and FindLine skips over it.
type SourceLine struct {
	Text        string
	Addr        uint16
	IsLabelOnly bool
}

// SourceModel is the ordered, address-indexed view of a source file
// the debugger displays (`view source`) and maps breakpoints against.
type SourceModel struct {
	Lines []SourceLine
}

// NewSourceModel returns an empty source model.
func NewSourceModel() *SourceModel {
	return &SourceModel{}
}

// AddLine appends a source line at the given address.
func (s *SourceModel) AddLine(text string, addr uint16, isLabelOnly bool) {
	s.Lines = append(s.Lines, SourceLine{Text: text, Addr: addr, IsLabelOnly: isLabelOnly})
}

// FindLine returns the index of the first non-label-only line at addr.
// The debugger's PC-to-source mapping resolves through this, so at a
// label's address it reports the instruction the label names, not the
// label declaration itself.
func (s *SourceModel) FindLine(addr uint16) (int, bool) {
	for i, l := range s.Lines {
		if l.Addr == addr && !l.IsLabelOnly {
			return i, true
		}
	}
	// Fall back to any line at addr (e.g. a trailing label-only or
	// blank line with nothing after it) so the debugger always has
	// something to show.
	for i, l := range s.Lines {
		if l.Addr == addr {
			return i, true
		}
	}
	return 0, false
}

// Len returns the number of source lines.
func (s *SourceModel) Len() int {
	return len(s.Lines)
}
