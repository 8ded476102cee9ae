package mmdb

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// StatementKind classifies one top-level Metamath statement.
type StatementKind int

const (
	KindConst StatementKind = iota
	KindVar
	KindFloating  // $f
	KindEssential // $e
	KindAxiom     // $a
	KindProvable  // $p
)

// Statement is one labeled (or, for $c/$v, unlabeled) entry in database
// order. Seq is its zero-based position among all statements, the same
// position Cmp and StatementsUntil order by for the loc_after check.
type Statement struct {
	Label    Label
	Kind     StatementKind
	Formula  Formula
	Seq      int
	hypLabel bool // true for $f/$e, used to build frames
}

// Frame is the set of hypotheses in scope for a statement: every $f and
// $e statement active where it is declared (top-level ones and those of
// its enclosing ${ $} blocks), in the order they were declared, whether or
// not the statement's own formula uses their variables. Disjointness
// constraints are not modeled, per this package's narrowed scope.
type Frame struct {
	Label Label
	Hyps  []Statement
}

// Essentials returns just the $e hypotheses of the frame, in order. This
// is what a tactic unifies against when it elaborates Apply's hypothesis
// list (§4.D).
func (fr Frame) Essentials() []Statement {
	var out []Statement
	for _, h := range fr.Hyps {
		if h.Kind == KindEssential {
			out = append(out, h)
		}
	}
	return out
}

// Database holds a loaded .mm source: its statements in file order plus
// indexes for label and frame lookup.
type Database struct {
	syms       *symtab
	statements []Statement
	byLabel    map[Label]int
	frames     map[Label]Frame
}

// GetFormula returns the formula associated with label, if any ($f, $e,
// $a, or $p statements all carry one).
func (db *Database) GetFormula(label Label) (Formula, bool) {
	i, ok := db.byLabel[label]
	if !ok {
		return Formula{}, false
	}
	return db.statements[i].Formula, true
}

// GetFrame returns the mandatory-hypothesis frame for label.
func (db *Database) GetFrame(label Label) (Frame, bool) {
	fr, ok := db.frames[label]
	return fr, ok
}

// IsVariable reports whether s was declared with $v.
func (db *Database) IsVariable(s Symbol) bool { return db.syms.isVar(s) }

// IsConstant reports whether s was declared with $c.
func (db *Database) IsConstant(s Symbol) bool { return db.syms.isConst(s) }

// Cmp orders two labels by database position: negative if a precedes b,
// positive if it follows, zero if equal. Unknown labels sort after every
// known one, since an unknown statement cannot legitimately constrain
// ordering for the loc_after check (§4.D).
func (db *Database) Cmp(a, b Label) int {
	ai, aok := db.byLabel[a]
	bi, bok := db.byLabel[b]
	switch {
	case aok && bok:
		return ai - bi
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	default:
		return 0
	}
}

// StatementsUntil returns the labels of every $a/$p statement at or
// before `before` in database order, which is the candidate set a tactic
// may cite (the forbidden zone rule forbids citing anything after
// loc_after, per §4.D).
func (db *Database) StatementsUntil(before Label) []Label {
	limit := len(db.statements)
	if i, ok := db.byLabel[before]; ok {
		limit = i + 1
	}
	var out []Label
	for i := 0; i < limit; i++ {
		st := db.statements[i]
		if st.Kind == KindAxiom || st.Kind == KindProvable {
			out = append(out, st.Label)
		}
	}
	return out
}

// Load parses a .mm-subset source: $c, $v, $f, $e, $a, $p statements and
// ${ $} block scoping. $( $) comments are skipped. Proof bodies (the
// token sequence between $= and $.) are not retained, since this package
// never verifies proofs.
func Load(r io.Reader) (*Database, error) {
	toks, err := tokenize(r)
	if err != nil {
		return nil, err
	}

	db := &Database{
		syms:    newSymtab(),
		byLabel: make(map[Label]int),
		frames:  make(map[Label]Frame),
	}

	var scopeStack [][]Statement // stack of hyp lists per open ${ block
	var active []Statement       // flattened hyps currently in scope

	pushScope := func() { scopeStack = append(scopeStack, nil) }
	popScope := func() error {
		if len(scopeStack) == 0 {
			return fmt.Errorf("mmdb: unmatched $}")
		}
		n := len(scopeStack[len(scopeStack)-1])
		scopeStack = scopeStack[:len(scopeStack)-1]
		active = active[:len(active)-n]
		return nil
	}
	addHyp := func(st Statement) {
		active = append(active, st)
		if len(scopeStack) > 0 {
			top := len(scopeStack) - 1
			scopeStack[top] = append(scopeStack[top], st)
		}
	}

	i := 0
	next := func() (string, bool) {
		if i >= len(toks) {
			return "", false
		}
		t := toks[i]
		i++
		return t, true
	}

	for i < len(toks) {
		tok := toks[i]
		switch tok {
		case "${":
			i++
			pushScope()
		case "$}":
			i++
			if err := popScope(); err != nil {
				return nil, err
			}
		case "$c":
			i++
			for {
				t, ok := next()
				if !ok {
					return nil, fmt.Errorf("mmdb: unterminated $c")
				}
				if t == "$." {
					break
				}
				db.syms.consts[Symbol(t)] = true
			}
		case "$v":
			i++
			for {
				t, ok := next()
				if !ok {
					return nil, fmt.Errorf("mmdb: unterminated $v")
				}
				if t == "$." {
					break
				}
				db.syms.vars[Symbol(t)] = true
			}
		default:
			// A bare label token introduces $f/$e/$a/$p.
			label := Label(tok)
			i++
			kw, ok := next()
			if !ok {
				return nil, fmt.Errorf("mmdb: statement %q has no keyword", label)
			}
			var kind StatementKind
			switch kw {
			case "$f":
				kind = KindFloating
			case "$e":
				kind = KindEssential
			case "$a":
				kind = KindAxiom
			case "$p":
				kind = KindProvable
			default:
				return nil, fmt.Errorf("mmdb: statement %q has unexpected keyword %q", label, kw)
			}

			var body []string
			for {
				t, ok := next()
				if !ok {
					return nil, fmt.Errorf("mmdb: statement %q is unterminated", label)
				}
				if t == "$." || t == "$=" {
					if t == "$=" {
						// Skip the proof body up to $.
						for {
							pt, ok := next()
							if !ok {
								return nil, fmt.Errorf("mmdb: statement %q proof is unterminated", label)
							}
							if pt == "$." {
								break
							}
						}
					}
					break
				}
				body = append(body, t)
			}
			if len(body) == 0 {
				return nil, fmt.Errorf("mmdb: statement %q has an empty formula", label)
			}
			f := Formula{Typecode: Typecode(body[0])}
			for _, s := range body[1:] {
				f.Symbols = append(f.Symbols, Symbol(s))
			}

			st := Statement{Label: label, Kind: kind, Formula: f, Seq: len(db.statements)}
			db.statements = append(db.statements, st)
			db.byLabel[label] = len(db.statements) - 1

			if kind == KindFloating || kind == KindEssential {
				addHyp(st)
			} else {
				hyps := make([]Statement, len(active))
				copy(hyps, active)
				db.frames[label] = Frame{Label: label, Hyps: hyps}
			}
		}
	}

	if len(scopeStack) != 0 {
		return nil, fmt.Errorf("mmdb: %d unclosed ${ block(s)", len(scopeStack))
	}
	return db, nil
}

// tokenize splits Metamath source on whitespace, stripping $( ... $)
// comments. Metamath's token grammar has no quoting or escaping, so a
// scanner.Split(bufio.ScanWords)-style reader is sufficient.
func tokenize(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	var toks []string
	inComment := false
	for sc.Scan() {
		t := sc.Text()
		if inComment {
			if t == "$)" {
				inComment = false
			}
			continue
		}
		if t == "$(" {
			inComment = true
			continue
		}
		toks = append(toks, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("mmdb: scan: %w", err)
	}
	return toks, nil
}

// LoadString is a convenience wrapper around Load for in-memory sources,
// used throughout this package's tests.
func LoadString(src string) (*Database, error) {
	return Load(strings.NewReader(src))
}
