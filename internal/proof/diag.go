// Package proof implements the proof-worksheet model: parsing a .mmp
// document into steps, keeping that parse incrementally up to date as
// edits arrive, and validating each step's citation against a database.
package proof

import "fmt"

// DiagnosticKind classifies one worksheet-level problem. Kinds split
// along the same line the LSP draws between syntax (can't even extract a
// step) and semantics (extracted fine, but doesn't check out against the
// database).
type DiagnosticKind int

const (
	KindUnparseableFirstLine DiagnosticKind = iota
	KindUnparseableProofLine
	KindParsedStatementTooShort
	KindUnknownLabel
	KindUnknownStepName
	KindWrongHypCount
	KindUnificationFailedForHyp
	KindStepFormulaMismatch
	KindForbiddenZone
	KindDatabaseDiagnostic
)

// Severity mirrors the LSP DiagnosticSeverity levels (Error=1,
// Warning=2, Information=3, Hint=4). DiagnosticKind.Severity currently
// returns SeverityError for every kind.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Severity returns the diagnostic's LSP severity level. Every kind
// currently maps to SeverityError: the baseline worksheet behavior treats
// every citation or parse problem as a hard error, the same way the
// original renderer's annotation levels collapse in the simplified
// baseline. The Warning/Information/Hint levels exist so a future kind
// (e.g. a style suggestion) has somewhere to go without widening this
// type again.
func (k DiagnosticKind) Severity() Severity {
	return SeverityError
}

// Position is a zero-based (line, UTF-16 character) position, matching
// rope.Position; duplicated here rather than imported so this package's
// diagnostic type stays independent of the rope package's internals.
type Position struct {
	Line      int
	Character int
}

// Diagnostic reports one problem found in a worksheet, anchored to a
// half-open [Start,End) range.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Start   Position
	End     Position
}

func mkdiag(kind DiagnosticKind, sl, sc, el, ec int, msg string) Diagnostic {
	return Diagnostic{
		Kind:    kind,
		Message: msg,
		Start:   Position{Line: sl, Character: sc},
		End:     Position{Line: el, Character: ec},
	}
}

func diagUnknownLabel(label string, sl, sc, el, ec int) Diagnostic {
	return mkdiag(KindUnknownLabel, sl, sc, el, ec, fmt.Sprintf("Unknown theorem %q", label))
}

func diagUnparseableProofLine(sl, sc, el, ec int) Diagnostic {
	return mkdiag(KindUnparseableProofLine, sl, sc, el, ec, "Could not parse proof line")
}

func diagParsedStatementTooShort(sl, sc, el, ec int) Diagnostic {
	return mkdiag(KindParsedStatementTooShort, sl, sc, el, ec, "Parsed statement too short")
}

func diagUnknownStepName(name string, sl, sc, el, ec int) Diagnostic {
	return mkdiag(KindUnknownStepName, sl, sc, el, ec, fmt.Sprintf("Unknown step %q", name))
}

func diagWrongHypCount(label string, want, got int, sl, sc, el, ec int) Diagnostic {
	return mkdiag(KindWrongHypCount, sl, sc, el, ec,
		fmt.Sprintf("%s expects %d hypotheses, found %d", label, want, got))
}

func diagUnificationFailed(idx int, sl, sc, el, ec int) Diagnostic {
	return mkdiag(KindUnificationFailedForHyp, sl, sc, el, ec,
		fmt.Sprintf("unification failed for hypothesis %d", idx))
}

func diagStepFormulaMismatch(sl, sc, el, ec int) Diagnostic {
	return mkdiag(KindStepFormulaMismatch, sl, sc, el, ec,
		"step formula does not match the substituted conclusion")
}

func diagForbiddenZone(label string, sl, sc, el, ec int) Diagnostic {
	return mkdiag(KindForbiddenZone, sl, sc, el, ec,
		fmt.Sprintf("%s is located after loc_after and cannot be cited here", label))
}
