// Package tactics implements the composable proof tactics: Sorry,
// Assumption, Apply, and Try. Each Tactic takes a *prover.Context holding
// the current goal and returns a *prover.ProofStep, or an error
// describing why it could not make progress.
package tactics

import (
	"fmt"

	"github.com/tirix/metamath-vspa/internal/prover"
)

// Tactic is the elaboration interface every tactic implements.
type Tactic interface {
	Name() string
	Elaborate(ctx *prover.Context) (*prover.ProofStep, error)
}

// Error wraps a tactic's failure with which hypothesis index it failed
// on, when applicable (UnificationFailedForHyp in the original design);
// HypIndex is -1 when the failure isn't tied to a specific hypothesis.
type Error struct {
	Tactic   string
	HypIndex int
	Err      error
}

func (e *Error) Error() string {
	if e.HypIndex < 0 {
		return fmt.Sprintf("%s: %v", e.Tactic, e.Err)
	}
	return fmt.Sprintf("%s: hypothesis %d: %v", e.Tactic, e.HypIndex, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func failAt(tactic string, hyp int, format string, args ...any) error {
	return &Error{Tactic: tactic, HypIndex: hyp, Err: fmt.Errorf(format, args...)}
}
