package tactics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tirix/metamath-vspa/internal/prover"
)

// TryTactic attempts each of Tactics in order, returning the first one
// that succeeds. If all fail, it returns a composite error listing every
// sub-tactic's failure, so the worksheet diagnostic can show why none of
// the alternatives applied.
type TryTactic struct {
	Tactics []Tactic
}

func (TryTactic) Name() string { return "try" }

func (t TryTactic) Elaborate(ctx *prover.Context) (*prover.ProofStep, error) {
	var errs []string
	for _, sub := range t.Tactics {
		step, err := sub.Elaborate(ctx)
		if err == nil {
			return step, nil
		}
		errs = append(errs, fmt.Sprintf("%s: %v", sub.Name(), err))
	}
	return nil, errors.New("try: no alternative succeeded:\n  " + strings.Join(errs, "\n  "))
}
