package tactics

import (
	"github.com/tirix/metamath-vspa/internal/mmdb"
	"github.com/tirix/metamath-vspa/internal/prover"
)

// ApplyTactic invokes a labeled theorem or axiom, recursively elaborating
// one sub-tactic per essential hypothesis (in frame order). Where the
// original draft stopped after a single unification and emitted a
// Sorry placeholder for every hypothesis, ApplyTactic fully recurses:
// each hypothesis's sub-goal is elaborated by its corresponding entry in
// Subs (or SorryTactic if Subs is shorter than the hypothesis count),
// and every sub-tactic's bindings are folded back into the shared
// context via check_and_extend before the next hypothesis is attempted,
// so two hypotheses that share a variable are required to agree.
type ApplyTactic struct {
	Label mmdb.Label
	Subs  []Tactic
}

func (t ApplyTactic) Name() string { return "apply" }

func (t ApplyTactic) Elaborate(ctx *prover.Context) (*prover.ProofStep, error) {
	if err := ctx.CheckLocAfter(t.Label); err != nil {
		return nil, failAt("apply", -1, "%v", err)
	}

	db := ctx.Database()
	frame, ok := db.GetFrame(t.Label)
	if !ok {
		return nil, failAt("apply", -1, "unknown label %s", t.Label)
	}
	concl, ok := db.GetFormula(t.Label)
	if !ok {
		return nil, failAt("apply", -1, "label %s has no associated formula", t.Label)
	}

	subst, ok := ctx.Unify(concl, ctx.Goal())
	if !ok {
		return nil, failAt("apply", -1, "could not unify %s's conclusion with the goal", t.Label)
	}
	if err := ctx.Extend(subst); err != nil {
		return nil, failAt("apply", -1, "%v", err)
	}

	essentials := frame.Essentials()
	subs := make([]*prover.ProofStep, len(essentials))
	for i, hyp := range essentials {
		subGoal := hyp.Formula.Substitute(ctx.Substitution())

		var sub Tactic = SorryTactic{}
		if i < len(t.Subs) && t.Subs[i] != nil {
			sub = t.Subs[i]
		}

		childCtx := ctx.WithGoal(subGoal)
		step, err := sub.Elaborate(childCtx)
		if err != nil {
			return nil, failAt("apply", i, "%v", err)
		}
		if err := ctx.Extend(childCtx.Substitution()); err != nil {
			return nil, failAt("apply", i, "%v", err)
		}
		subs[i] = step
	}

	result := concl.Substitute(ctx.Substitution())
	return prover.Apply(t.Label, result, subs), nil
}
