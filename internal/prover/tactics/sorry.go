package tactics

import "github.com/tirix/metamath-vspa/internal/prover"

// SorryTactic always succeeds, leaving the goal as an unproved
// placeholder. It is the base case every Try fallback chain should end
// with so elaboration never fails outright on an unfinished worksheet.
type SorryTactic struct{}

func (SorryTactic) Name() string { return "sorry" }

func (SorryTactic) Elaborate(ctx *prover.Context) (*prover.ProofStep, error) {
	return prover.Sorry(ctx.Goal()), nil
}
