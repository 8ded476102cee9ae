package mmdb

// Unify attempts to unify pattern (typically a syntax axiom's or a
// hypothesis's formula, containing $f-declared variables) against a
// concrete target formula, returning the variable bindings that make
// them equal. Variable spans in target are delimited using the grammar,
// since formulas here are flat token lists rather than parse trees: a
// pattern variable of typecode T consumes however many target tokens the
// grammar says a T-expression takes at that position.
func (g *Grammar) Unify(pattern, target Formula) (map[Symbol]Formula, bool) {
	if pattern.Typecode != target.Typecode {
		return nil, false
	}
	subst := make(map[Symbol]Formula)
	n, ok := g.unifyPattern(pattern.Symbols, target.Symbols, 0, subst)
	if !ok || n != len(target.Symbols) {
		return nil, false
	}
	return subst, true
}

func (g *Grammar) unifyPattern(pattern, target []Symbol, pos int, subst map[Symbol]Formula) (int, bool) {
	start := pos
	for _, sym := range pattern {
		if vt, isVar := g.varType[sym]; isVar {
			n, ok := g.parseExpr(vt, target, pos)
			if !ok {
				return 0, false
			}
			bound := Formula{Typecode: vt, Symbols: append([]Symbol(nil), target[pos:pos+n]...)}
			if existing, already := subst[sym]; already {
				if !existing.Eq(bound) {
					return 0, false
				}
			} else {
				subst[sym] = bound
			}
			pos += n
			continue
		}
		if pos >= len(target) || target[pos] != sym {
			return 0, false
		}
		pos++
	}
	return pos - start, true
}

// CheckAndExtend merges sub into acc, the accumulated substitution built
// up across a tactic's hypotheses (§4.D). Any variable bound in both must
// agree structurally; a mismatch means the hypotheses are not jointly
// satisfiable under one substitution, and the merge fails rather than
// silently preferring one side.
func CheckAndExtend(acc, sub map[Symbol]Formula) (map[Symbol]Formula, bool) {
	merged := make(map[Symbol]Formula, len(acc)+len(sub))
	for k, v := range acc {
		merged[k] = v
	}
	for k, v := range sub {
		if existing, ok := merged[k]; ok {
			if !existing.Eq(v) {
				return nil, false
			}
			continue
		}
		merged[k] = v
	}
	return merged, true
}
