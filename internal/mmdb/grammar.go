package mmdb

import (
	"fmt"
	"strings"
)

// production is one syntax axiom ($a statement whose typecode is not the
// logical typecode "|-"): it rewrites its pattern symbols into an
// expression of Typecode, with variable positions recursively expanded
// per their own declared typecode.
type production struct {
	label   Label
	pattern []Symbol // pattern with the leading typecode stripped
}

// Grammar is a syntax-axiom-derived formula grammar built from a
// Database's $a statements. It resolves the simple, unambiguous
// grammars exercised by the worksheet fixtures; true ambiguity
// resolution (as a full Metamath grammar needs for set.mm) is out of
// this package's scope.
type Grammar struct {
	db          *Database
	productions map[Typecode][]production
	varType     map[Symbol]Typecode
}

// BuildGrammar derives a Grammar from every $a statement in db whose
// typecode is not "|-". logicalTypecode names the typecode treated as
// the non-syntax, judgement-carrying typecode (conventionally "|-");
// pass "" to use the default.
func BuildGrammar(db *Database, logicalTypecode Typecode) *Grammar {
	if logicalTypecode == "" {
		logicalTypecode = "|-"
	}
	g := &Grammar{
		db:          db,
		productions: make(map[Typecode][]production),
		varType:     make(map[Symbol]Typecode),
	}
	for _, st := range db.statements {
		if st.Kind == KindFloating {
			varSym := st.Formula.Symbols[0]
			g.varType[varSym] = st.Formula.Typecode
		}
	}
	for _, st := range db.statements {
		if st.Kind != KindAxiom {
			continue
		}
		if st.Formula.Typecode == logicalTypecode {
			continue
		}
		g.productions[st.Formula.Typecode] = append(g.productions[st.Formula.Typecode], production{
			label:   st.Label,
			pattern: st.Formula.Symbols,
		})
	}
	return g
}

// ParseFormula parses text as an expression of typecode, validating it
// against the derived grammar. The returned Formula's Symbols are the
// literal input tokens; parsing exists to confirm the token run is
// grammatically well-formed (matching how a worksheet step's formula is
// checked against the database's syntax, §4.B/§4.C), not to build a
// parse tree for later stages.
func (g *Grammar) ParseFormula(typecode Typecode, text string) (Formula, error) {
	tokens := tokensOf(text)
	consumed, ok := g.parseExpr(typecode, tokens, 0)
	if !ok || consumed != len(tokens) {
		return Formula{}, fmt.Errorf("mmdb: %q does not parse as a %s", text, typecode)
	}
	return Formula{Typecode: typecode, Symbols: tokens}, nil
}

func tokensOf(s string) []Symbol {
	fields := strings.Fields(s)
	out := make([]Symbol, len(fields))
	for i, f := range fields {
		out[i] = Symbol(f)
	}
	return out
}

// parseExpr attempts to consume an expression of typecode starting at
// pos, returning the number of tokens consumed and whether it succeeded.
func (g *Grammar) parseExpr(typecode Typecode, tokens []Symbol, pos int) (int, bool) {
	if pos < len(tokens) {
		if vt, ok := g.varType[tokens[pos]]; ok && vt == typecode {
			return 1, true
		}
	}
	for _, p := range g.productions[typecode] {
		if n, ok := g.matchPattern(p.pattern, tokens, pos); ok {
			return n, true
		}
	}
	return 0, false
}

// matchPattern greedily matches pattern against tokens starting at pos:
// constant symbols must match literally, variable symbols recursively
// consume a sub-expression of their declared typecode. Each
// sub-expression takes the first alternative (variable, then productions
// in declaration order) that matches; if the rest of the pattern then
// fails, no other alternative for that sub-expression is tried, which is
// sufficient for the small, LL(1)-friendly grammars this package is
// exercised against.
func (g *Grammar) matchPattern(pattern []Symbol, tokens []Symbol, pos int) (int, bool) {
	start := pos
	for _, sym := range pattern {
		if vt, isVar := g.varType[sym]; isVar {
			n, ok := g.parseExpr(vt, tokens, pos)
			if !ok {
				return 0, false
			}
			pos += n
			continue
		}
		if pos >= len(tokens) || tokens[pos] != sym {
			return 0, false
		}
		pos++
	}
	return pos - start, true
}
