package mmdb

import "strings"

// Formula is a parsed Metamath expression: a typecode followed by a flat
// token sequence. Most of this package treats a formula as a flat symbol
// list (the representation a .mm database actually stores and the one
// unification operates on); the grammar parser in grammar.go is what
// turns a flat list fetched from worksheet text into one.
type Formula struct {
	Typecode Typecode
	Symbols  []Symbol
}

// NewFormula builds a formula from a typecode and a space-separated token
// string, e.g. NewFormula("wff", "( ph -> ps )").
func NewFormula(typecode Typecode, text string) Formula {
	fields := strings.Fields(text)
	syms := make([]Symbol, len(fields))
	for i, f := range fields {
		syms[i] = Symbol(f)
	}
	return Formula{Typecode: typecode, Symbols: syms}
}

// String renders the formula back to its worksheet text form: typecode
// followed by the space-separated symbols.
func (f Formula) String() string {
	var sb strings.Builder
	sb.WriteString(string(f.Typecode))
	for _, s := range f.Symbols {
		sb.WriteByte(' ')
		sb.WriteString(string(s))
	}
	return sb.String()
}

// Body renders just the symbol sequence, without the leading typecode,
// which is what appears in worksheet step lines.
func (f Formula) Body() string {
	parts := make([]string, len(f.Symbols))
	for i, s := range f.Symbols {
		parts[i] = string(s)
	}
	return strings.Join(parts, " ")
}

// Eq reports structural equality: same typecode, same symbols in order.
// This is what the Assumption tactic uses to find a matching known step
// (§8, "Elaborator properties": Assumption succeeds iff a prior step's
// result is syntactically identical to the goal).
func (f Formula) Eq(other Formula) bool {
	if f.Typecode != other.Typecode || len(f.Symbols) != len(other.Symbols) {
		return false
	}
	for i := range f.Symbols {
		if f.Symbols[i] != other.Symbols[i] {
			return false
		}
	}
	return true
}

// Substitute returns a copy of f with every variable symbol replaced per
// subst, leaving constants and unmapped variables untouched.
func (f Formula) Substitute(subst map[Symbol]Formula) Formula {
	out := Formula{Typecode: f.Typecode}
	for _, s := range f.Symbols {
		if repl, ok := subst[s]; ok {
			out.Symbols = append(out.Symbols, repl.Symbols...)
		} else {
			out.Symbols = append(out.Symbols, s)
		}
	}
	return out
}

// Clone returns a deep copy, so callers can hold onto a formula across
// further substitution-building without aliasing the backing slice.
func (f Formula) Clone() Formula {
	syms := make([]Symbol, len(f.Symbols))
	copy(syms, f.Symbols)
	return Formula{Typecode: f.Typecode, Symbols: syms}
}
