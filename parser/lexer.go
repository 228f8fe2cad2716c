package parser

import (
	"strings"
)

// LineKind classifies a normalized source line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineLabelOnly
	LineDirective
	LineInstruction
)

// Line is one source line after comment-stripping and normalization:
// `# comment` truncated, leading/trailing whitespace trimmed, an
// optional leading `name:` label peeled off, and the remainder split
// into a mnemonic/directive and its comma-separated operands.
type Line struct {
	Kind      LineKind
	Label     string // "" if no label on this line
	Mnemonic  string // lowercased; set for LineInstruction
	Directive string // lowercased, without the leading '.'; set for LineDirective
	Operands  []string
	Pos       Position
	RawLine   string
}

// stripComment truncates s at the first '#', the Y86 dialect's only
// comment marker.
func stripComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i]
	}
	return s
}

// splitLabel peels a leading `name:` off s, if present and name is a
// legal label. Returns the label name (or "") and the remainder.
func splitLabel(s string) (label, rest string) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", s
	}
	candidate := s[:i]
	if !ValidLabelName(candidate) {
		return "", s
	}
	return candidate, strings.TrimSpace(s[i+1:])
}

// splitOperands splits a comma-separated operand list, trimming
// whitespace around each. The Y86 dialect never nests commas inside an
// operand (memory operands use `disp(%reg)`, never a comma), so a flat
// split suffices.
func splitOperands(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Normalized renders the line in the canonical form the assembler's
// pass 1 emits into the source model (spec.md §4.3 step 1): a blank
// line is empty, a label-only line is `NAME:`, and a directive or
// instruction line is `.DIRECTIVE ARG1,ARG2` / `MNEMONIC ARG1,ARG2`
// with exactly one space before the operand list and no space after a
// comma, prefixed with `NAME: ` when the line also carries a label.
func (l *Line) Normalized() string {
	var head string
	switch l.Kind {
	case LineBlank:
		return ""
	case LineLabelOnly:
		return l.Label + ":"
	case LineDirective:
		head = "." + l.Directive
	case LineInstruction:
		head = l.Mnemonic
	}
	if len(l.Operands) > 0 {
		head += " " + strings.Join(l.Operands, ",")
	}
	if l.Label != "" {
		head = l.Label + ": " + head
	}
	return head
}

// NormalizeLine parses one raw source line into a Line. It never
// returns an error itself: a line that does not look like a directive
// or a known shape is still returned as a best-effort LineInstruction
// or LineDirective, and it is the assembler's job (which knows the
// instruction table) to reject an unrecognized mnemonic or directive.
func NormalizeLine(raw string, filename string, lineNo int) *Line {
	pos := Position{Filename: filename, Line: lineNo, Column: 1}
	withoutComment := stripComment(raw)
	trimmed := strings.TrimSpace(withoutComment)

	if trimmed == "" {
		return &Line{Kind: LineBlank, Pos: pos, RawLine: raw}
	}

	label, rest := splitLabel(trimmed)
	if rest == "" {
		return &Line{Kind: LineLabelOnly, Label: label, Pos: pos, RawLine: raw}
	}

	fields := strings.Fields(rest)
	head := fields[0]
	tail := strings.TrimSpace(strings.TrimPrefix(rest, head))

	if strings.HasPrefix(head, ".") {
		return &Line{
			Kind:      LineDirective,
			Label:     label,
			Directive: strings.ToLower(strings.TrimPrefix(head, ".")),
			Operands:  splitOperands(tail),
			Pos:       pos,
			RawLine:   raw,
		}
	}

	return &Line{
		Kind:     LineInstruction,
		Label:    label,
		Mnemonic: strings.ToLower(head),
		Operands: splitOperands(tail),
		Pos:      pos,
		RawLine:  raw,
	}
}
