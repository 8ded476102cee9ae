package lsp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tirix/metamath-vspa/internal/mmdb"
	"github.com/tirix/metamath-vspa/internal/proof"
	"github.com/tirix/metamath-vspa/internal/prover"
	"github.com/tirix/metamath-vspa/internal/prover/tactics"
)

// unifyParams is the custom request's parameters: which open document,
// and which step to elaborate. The step's own cited label (already
// present in the worksheet text) is what gets applied; unify fills in
// its hypotheses rather than choosing a label for the user.
type unifyParams struct {
	TextDocument versionedTextDocumentIdentifier `json:"textDocument"`
	StepName     string                          `json:"stepName"`
}

type textEdit struct {
	Range   lspRange `json:"range"`
	NewText string   `json:"newText"`
}

type unifyResult struct {
	Edit textEdit `json:"edit"`
}

// handleUnify runs the proof elaborator (internal/prover) against one
// worksheet step and replies with a TextEdit replacing that step's
// source with the elaborated steps, the last of which keeps the
// original step's name so citations elsewhere in the document still
// resolve. Every other hypothesis a sub-tactic could not discharge by
// reusing a known step is left as a "?" sorry placeholder, matching the
// worksheet's own convention for unfinished steps.
func (s *Server) handleUnify(msg *Message) error {
	var p unifyParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		if msg.ID != nil {
			return s.respondError(msg.ID, -32602, fmt.Sprintf("invalid params: %v", err))
		}
		return err
	}

	s.docsMu.Lock()
	w, ok := s.docs[p.TextDocument.URI]
	s.docsMu.Unlock()
	if !ok {
		return s.respondErrorIfRequest(msg, -32602, fmt.Sprintf("no open document %s", p.TextDocument.URI))
	}

	step, ok := w.StepByName(p.StepName)
	if !ok {
		return s.respondErrorIfRequest(msg, -32602, fmt.Sprintf("no step named %q", p.StepName))
	}
	if step.Label == "" || step.Label == "?" {
		return s.respondErrorIfRequest(msg, -32000, fmt.Sprintf("step %q has no label to unify", p.StepName))
	}

	db, err := s.ws.Database()
	if err != nil {
		return s.respondErrorIfRequest(msg, -32000, fmt.Sprintf("no database: %v", err))
	}
	grammar := mmdb.BuildGrammar(db, "|-")

	frame, ok := db.GetFrame(mmdb.Label(step.Label))
	if !ok {
		return s.respondErrorIfRequest(msg, -32000, fmt.Sprintf("unknown label %q", step.Label))
	}
	essentials := frame.Essentials()

	known, usedWorkVars := collectKnownSteps(w, step)
	goal := proof.StepFormula(step)
	pctx := prover.NewContext(db, grammar, goal, known, w.LocAfter, usedWorkVars)

	subs := make([]tactics.Tactic, len(essentials))
	for i := range subs {
		subs[i] = tactics.TryTactic{Tactics: []tactics.Tactic{tactics.AssumptionTactic{}, tactics.SorryTactic{}}}
	}
	tactic := tactics.ApplyTactic{Label: mmdb.Label(step.Label), Subs: subs}

	result, err := tactic.Elaborate(pctx)
	if err != nil {
		return s.respondErrorIfRequest(msg, -32000, fmt.Sprintf("unify failed: %v", err))
	}

	flattened := prover.Flatten(result, nextFreeStepName(w))
	if len(flattened) == 0 {
		return s.respondErrorIfRequest(msg, -32000, "unify produced no steps")
	}
	flattened[len(flattened)-1].Name = step.Name

	lines := make([]string, len(flattened))
	for i, fs := range flattened {
		lines[i] = fs.String()
	}
	newText := strings.Join(lines, "\n") + "\n"

	start := w.ByteToPosition(step.ByteIdx)
	end := w.ByteToPosition(step.ByteIdx + len(step.Source))
	edit := textEdit{
		Range: lspRange{
			Start: lspPosition{Line: start.Line, Character: start.Character},
			End:   lspPosition{Line: end.Line, Character: end.Character},
		},
		NewText: newText,
	}

	resultJSON, err := json.Marshal(unifyResult{Edit: edit})
	if err != nil {
		return err
	}
	if msg.ID == nil {
		return nil
	}
	return s.respond(msg.ID, resultJSON)
}

// collectKnownSteps gathers every other resolved step in the worksheet
// as a candidate for the Assumption tactic, and the set of work-variable
// symbols already in use so a fresh elaboration never mints a name that
// collides with one already on the page.
func collectKnownSteps(w *proof.Worksheet, exclude *proof.Step) ([]prover.KnownStep, map[mmdb.Symbol]bool) {
	var known []prover.KnownStep
	used := make(map[mmdb.Symbol]bool)
	for _, other := range w.Steps {
		if other == exclude || other.Label == "?" || strings.TrimSpace(other.Formula) == "" {
			continue
		}
		formula := proof.StepFormula(other)
		known = append(known, prover.KnownStep{Name: other.Name, Result: formula})
		for _, sym := range formula.Symbols {
			if mmdb.IsWorkVariable(sym) {
				used[sym] = true
			}
		}
	}
	return known, used
}

// nextFreeStepName returns the next numeric step name to mint, following
// the worksheet's "+10" spacing convention so a later manual insertion
// does not immediately collide with a freshly elaborated step.
func nextFreeStepName(w *proof.Worksheet) int {
	max := 0
	for _, s := range w.Steps {
		name := strings.TrimPrefix(s.Name, "h")
		if n, err := strconv.Atoi(name); err == nil && n > max {
			max = n
		}
	}
	return max + 10
}

// respondErrorIfRequest replies with an error only when msg was a
// request (has an ID); a failed notification has no reply channel and
// is just logged by the caller.
func (s *Server) respondErrorIfRequest(msg *Message, code int, message string) error {
	if msg.ID == nil {
		s.logger.Warn("metamath/unify notification failed", "error", message)
		return nil
	}
	return s.respondError(msg.ID, code, message)
}
