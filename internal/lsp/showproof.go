package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tirix/metamath-vspa/internal/proof"
)

// showProofParams is the custom request's parameters: which open
// document, and which step's derivation to render. Unlike the standard
// LSP requests, this one has no counterpart in the base protocol; it
// exists purely to let an editor extension render a theorem's proof
// tree inline rather than forcing the user to trace hypothesis
// references by hand.
type showProofParams struct {
	TextDocument versionedTextDocumentIdentifier `json:"textDocument"`
	StepName     string                          `json:"stepName"`
}

type showProofResult struct {
	Text string `json:"text"`
}

func (s *Server) handleShowProof(msg *Message) error {
	var p showProofParams
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
		if msg.ID != nil {
			return s.respondError(msg.ID, -32602, fmt.Sprintf("no open document %s", p.TextDocument.URI))
		}
		return nil
	}

	step, ok := w.StepByName(p.StepName)
	if !ok {
		if msg.ID != nil {
			return s.respondError(msg.ID, -32602, fmt.Sprintf("no step named %q", p.StepName))
		}
		return nil
	}

	var b strings.Builder
	renderStepTree(&b, w, step, 0, make(map[string]bool))

	result, err := json.Marshal(showProofResult{Text: b.String()})
	if err != nil {
		return err
	}
	if msg.ID == nil {
		return nil
	}
	return s.respond(msg.ID, result)
}

// renderStepTree writes step and, recursively, every step it cites as a
// hypothesis, indented one level per layer of derivation. seen guards
// against a worksheet whose citations form a cycle (itself a bug the
// validator would already have flagged, but the renderer should not
// loop forever over it).
func renderStepTree(b *strings.Builder, w *proof.Worksheet, step *proof.Step, depth int, seen map[string]bool) {
	indent := strings.Repeat("  ", depth)
	label := step.Label
	if label == "" {
		label = "?"
	}
	fmt.Fprintf(b, "%s%s (%s): %s\n", indent, step.Name, label, strings.Join(strings.Fields(step.Formula), " "))

	if seen[step.Name] {
		fmt.Fprintf(b, "%s  ...\n", indent)
		return
	}
	seen[step.Name] = true

	for _, h := range step.HypNames {
		if h == "?" {
			fmt.Fprintf(b, "%s  ?\n", indent)
			continue
		}
		sub, ok := w.StepByName(h)
		if !ok {
			fmt.Fprintf(b, "%s  <unknown step %s>\n", indent, h)
			continue
		}
		renderStepTree(b, w, sub, depth+1, seen)
	}
}
