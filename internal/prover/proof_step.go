package prover

import (
	"fmt"
	"strings"

	"github.com/tirix/metamath-vspa/internal/mmdb"
)

// ProofStep is the result of a tactic's elaboration: either a reference
// to an already-known step, an application of a labeled theorem to a
// list of sub-proofs for its hypotheses, or an unproved placeholder
// ("sorry").
type ProofStep struct {
	Kind   ProofStepKind
	Result mmdb.Formula

	// Hyp
	HypName string

	// Apply
	Label mmdb.Label
	Subs  []*ProofStep
}

// ProofStepKind distinguishes the three ProofStep shapes.
type ProofStepKind int

const (
	StepHyp ProofStepKind = iota
	StepApply
	StepSorry
)

// Hyp builds a ProofStep that reuses an already-known step verbatim.
func Hyp(name string, result mmdb.Formula) *ProofStep {
	return &ProofStep{Kind: StepHyp, HypName: name, Result: result}
}

// Apply builds a ProofStep that invokes label with sub-proofs subs, each
// corresponding to one of label's essential hypotheses in order.
func Apply(label mmdb.Label, result mmdb.Formula, subs []*ProofStep) *ProofStep {
	return &ProofStep{Kind: StepApply, Label: label, Result: result, Subs: subs}
}

// Sorry builds an unproved placeholder step for result: the elaborator's
// equivalent of "?", recorded rather than refused so an incomplete proof
// still round-trips through worksheet text.
func Sorry(result mmdb.Formula) *ProofStep {
	return &ProofStep{Kind: StepSorry, Result: result}
}

// IsComplete reports whether this step and every sub-step beneath it is
// free of Sorry placeholders.
func (p *ProofStep) IsComplete() bool {
	if p.Kind == StepSorry {
		return false
	}
	for _, s := range p.Subs {
		if !s.IsComplete() {
			return false
		}
	}
	return true
}

// Flatten renders the proof step tree into the worksheet's step lines,
// in post-order: every step comes after the sub-steps it cites, so the
// root step is the last element. Hyp steps are not emitted as lines of
// their own; their existing names appear in the citing step's hyp list.
// firstName is
// the numeric name to assign to the first freshly minted step;
// subsequent steps increment by 10, matching the spacing convention used
// when renumbering a worksheet so a later manual insertion does not
// immediately collide with an existing name.
func Flatten(p *ProofStep, firstName int) []FlattenedStep {
	var out []FlattenedStep
	next := firstName
	var walk func(p *ProofStep) string
	walk = func(p *ProofStep) string {
		if p.Kind == StepHyp {
			return p.HypName
		}
		var hypNames []string
		for _, s := range p.Subs {
			hypNames = append(hypNames, walk(s))
		}
		name := fmt.Sprintf("%d", next)
		next += 10
		label := string(p.Label)
		if p.Kind == StepSorry {
			label = "?"
		}
		out = append(out, FlattenedStep{
			Name:     name,
			HypNames: hypNames,
			Label:    label,
			Formula:  p.Result,
		})
		return name
	}
	walk(p)
	return out
}

// FlattenedStep is one elaborated step ready to be serialized back to
// worksheet text.
type FlattenedStep struct {
	Name     string
	HypNames []string
	Label    string
	Formula  mmdb.Formula
}

// String serializes a FlattenedStep to its "NAME:HYPLIST:LABEL FORMULA"
// worksheet line, matching the format internal/proof parses.
func (f FlattenedStep) String() string {
	return fmt.Sprintf("%s:%s:%s %s", f.Name, strings.Join(f.HypNames, ","), f.Label, f.Formula.String())
}
