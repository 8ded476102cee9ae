// Package prover implements the proof elaborator: Tactics that turn an
// unfinished worksheet step's goal into a ProofStep tree, given a
// Context carrying the goal, the steps already known, and the
// accounting (substitution, used work variables) built up across
// sibling hypotheses.
package prover

import (
	"fmt"

	"github.com/tirix/metamath-vspa/internal/mmdb"
)

// Context is the mutable state threaded through one elaboration attempt.
// It is not safe for concurrent use; each elaboration runs on its own
// Context.
type Context struct {
	db      *mmdb.Database
	grammar *mmdb.Grammar

	goal mmdb.Formula

	// knownSteps holds, in worksheet order, the steps the Assumption
	// tactic may reuse as-is.
	knownSteps []KnownStep

	// substitution accumulates variable bindings across a tactic's
	// sibling hypotheses (§4.D); CheckAndExtend is what enforces that
	// two hypotheses agree on a shared variable.
	substitution map[mmdb.Symbol]mmdb.Formula

	workVars *mmdb.WorkVariableProvider

	// locAfter is the label beyond which a citation is forbidden; ""
	// means unrestricted.
	locAfter mmdb.Label
}

// KnownStep is a previously elaborated or user-supplied step available
// for the Assumption tactic to reuse.
type KnownStep struct {
	Name   string
	Result mmdb.Formula
}

// NewContext builds a context for elaborating goal against db, with
// knownSteps available to Assumption and work variables minted fresh
// relative to usedWorkVars (symbols already present elsewhere in the
// worksheet, so elaboration never mints a name already in use).
func NewContext(db *mmdb.Database, grammar *mmdb.Grammar, goal mmdb.Formula, knownSteps []KnownStep, locAfter mmdb.Label, usedWorkVars map[mmdb.Symbol]bool) *Context {
	return &Context{
		db:           db,
		grammar:      grammar,
		goal:         goal,
		knownSteps:   knownSteps,
		substitution: make(map[mmdb.Symbol]mmdb.Formula),
		workVars:     mmdb.NewWorkVariableProvider(db, usedWorkVars),
		locAfter:     locAfter,
	}
}

// Goal returns the formula this context is trying to prove.
func (c *Context) Goal() mmdb.Formula { return c.goal }

// KnownSteps returns the steps available for reuse, in order.
func (c *Context) KnownSteps() []KnownStep { return c.knownSteps }

// WithGoal returns a child context for a sub-goal (a hypothesis of the
// theorem a tactic is trying to apply), sharing this context's
// substitution, known steps, and work-variable accounting.
func (c *Context) WithGoal(goal mmdb.Formula) *Context {
	child := *c
	child.goal = goal
	return &child
}

// Extend merges sub into the context's accumulated substitution, failing
// if sub disagrees with a variable already bound (§4.D's
// check_and_extend rule).
func (c *Context) Extend(sub map[mmdb.Symbol]mmdb.Formula) error {
	merged, ok := mmdb.CheckAndExtend(c.substitution, sub)
	if !ok {
		return fmt.Errorf("prover: substitution conflict merging %v into %v", sub, c.substitution)
	}
	c.substitution = merged
	return nil
}

// Substitution returns the context's current accumulated substitution.
func (c *Context) Substitution() map[mmdb.Symbol]mmdb.Formula { return c.substitution }

// NewWorkVariable mints a fresh work variable of typecode, recording it
// so later mintings (in this context or any of its children, since the
// provider is shared) never repeat it.
func (c *Context) NewWorkVariable(typecode mmdb.Typecode) mmdb.Symbol {
	return c.workVars.New(typecode)
}

// CheckLocAfter reports whether label may legally be cited from this
// context: it must not be located strictly after locAfter in database
// order (the forbidden-zone rule, §4.D).
func (c *Context) CheckLocAfter(label mmdb.Label) error {
	if c.locAfter == "" {
		return nil
	}
	if c.db.Cmp(label, c.locAfter) > 0 {
		return fmt.Errorf("prover: %s is located after loc_after and cannot be cited here", label)
	}
	return nil
}

// Unify unifies pattern against target using the context's grammar.
func (c *Context) Unify(pattern, target mmdb.Formula) (map[mmdb.Symbol]mmdb.Formula, bool) {
	return c.grammar.Unify(pattern, target)
}

// Database returns the database this context elaborates against.
func (c *Context) Database() *mmdb.Database { return c.db }

// Grammar returns the grammar this context unifies against.
func (c *Context) Grammar() *mmdb.Grammar { return c.grammar }
