package tactics

import "github.com/tirix/metamath-vspa/internal/prover"

// AssumptionTactic succeeds if some already-known step's result is
// syntactically identical to the goal, in which case it reuses that
// step rather than proving the goal again. It does not attempt
// unification against known steps: matching is by structural equality
// only, matching the original implementation's behavior and the
// decision recorded for this in DESIGN.md.
type AssumptionTactic struct{}

func (AssumptionTactic) Name() string { return "assumption" }

func (AssumptionTactic) Elaborate(ctx *prover.Context) (*prover.ProofStep, error) {
	goal := ctx.Goal()
	for _, known := range ctx.KnownSteps() {
		if known.Result.Eq(goal) {
			return prover.Hyp(known.Name, known.Result), nil
		}
	}
	return nil, failAt("assumption", -1, "no known step matches the goal %s", goal.String())
}
