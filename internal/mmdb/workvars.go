package mmdb

import "fmt"

// WorkVariableProvider mints fresh work variables per typecode: names of
// the form "&W" + typecode-prefix + index that are not already declared
// in the database and have not already been minted this session. Names
// come from a per-typecode counter; a candidate is skipped when it is in
// the used set or is declared in the database as a variable or constant.
// The database's own $f variables are never handed out, and work
// variables retired from a discarded elaboration attempt are not reused.
type WorkVariableProvider struct {
	db      *Database
	used    map[Symbol]bool
	counter map[Typecode]int
}

// NewWorkVariableProvider returns a provider scoped to db. used, if
// non-nil, pre-seeds the set of symbols considered already taken (for
// example, work variables already present in a worksheet being
// re-elaborated).
func NewWorkVariableProvider(db *Database, used map[Symbol]bool) *WorkVariableProvider {
	seed := make(map[Symbol]bool, len(used))
	for k := range used {
		seed[k] = true
	}
	return &WorkVariableProvider{db: db, used: seed, counter: make(map[Typecode]int)}
}

// New mints a fresh work variable of the given typecode, declares it as
// used for the remainder of this provider's lifetime, and returns its
// symbol.
func (p *WorkVariableProvider) New(typecode Typecode) Symbol {
	prefix := workVarPrefix(typecode)
	for {
		p.counter[typecode]++
		candidate := Symbol(fmt.Sprintf("&%s%d", prefix, p.counter[typecode]))
		if p.used[candidate] {
			continue
		}
		if p.db.IsVariable(candidate) || p.db.IsConstant(candidate) {
			continue
		}
		p.used[candidate] = true
		return candidate
	}
}

// workVarPrefix derives a short, human-legible prefix from a typecode so
// minted names stay recognizable in worksheet text ("&W1", "&C1", ...)
// rather than opaque.
func workVarPrefix(typecode Typecode) string {
	if typecode == "" {
		return "W"
	}
	return string(typecode[0] - 'a' + 'A')
}

// IsWorkVariable reports whether sym has the syntactic shape this
// provider mints, independent of whether this particular provider
// instance minted it. The worksheet model uses this to recognize and
// preserve already-present work variables when reparsing.
func IsWorkVariable(sym Symbol) bool {
	return len(sym) > 1 && sym[0] == '&'
}
