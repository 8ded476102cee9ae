package proof

import (
	"strings"

	"github.com/tirix/metamath-vspa/internal/mmdb"
	"github.com/tirix/metamath-vspa/internal/rope"
)

// Worksheet is the live, edited representation of a .mmp document: its
// text (as a rope), the parsed header, the parsed steps, and the
// diagnostics produced by validating those steps against a database.
//
// A Worksheet with a nil database still parses steps and reports
// syntactic diagnostics; it just skips every diagnostic that requires
// resolving a label, since the database is consumed through mmdb's
// interface rather than owned by this package.
type Worksheet struct {
	source rope.Rope

	Theorem  mmdb.Label
	LocAfter mmdb.Label // "" means "?", i.e. no forbidden zone

	Steps []*Step

	headerDiags []Diagnostic

	db      *mmdb.Database
	grammar *mmdb.Grammar

	// midParsed is scratch storage used between reparseRangeInto and
	// ApplyChange to hand back the freshly parsed steps for the edited
	// range without an extra return-value plumbing through a shared
	// helper with reparseRange's whole-document path.
	midParsed []*Step
}

// NewWorksheet parses text into a worksheet. db may be nil (see the type
// doc comment); when non-nil, its syntax axioms are used to build the
// grammar that validation unifies against.
func NewWorksheet(db *mmdb.Database, text string) *Worksheet {
	w := &Worksheet{source: rope.New(text), db: db}
	if db != nil {
		w.grammar = mmdb.BuildGrammar(db, "|-")
	}
	w.parseHeader()
	w.reparseRange(0, w.source.Len())
	w.validate()
	return w
}

// Source returns the worksheet's current full text.
func (w *Worksheet) Source() string { return w.source.String() }

// Line returns the zero-based logical line i, without its terminator.
func (w *Worksheet) Line(i int) string { return w.source.Line(i) }

// ByteToPosition converts a byte offset into the worksheet to an LSP
// position.
func (w *Worksheet) ByteToPosition(off int) Position {
	p := w.source.ByteToPosition(off)
	return Position{Line: p.Line, Character: p.Character}
}

// PositionToByte converts an LSP position to a byte offset.
func (w *Worksheet) PositionToByte(pos Position) int {
	return w.source.PositionToByte(rope.Position{Line: pos.Line, Character: pos.Character})
}

// Diagnostics returns every diagnostic currently known about the
// worksheet: header problems followed by each step's own, in document
// order.
func (w *Worksheet) Diagnostics() []Diagnostic {
	out := append([]Diagnostic(nil), w.headerDiags...)
	for _, s := range w.Steps {
		out = append(out, s.Diags...)
	}
	return out
}

// StepAtLine returns the step whose header line is line, if any.
func (w *Worksheet) StepAtLine(line int) (*Step, bool) {
	for _, s := range w.Steps {
		if s.LineIdx == line {
			return s, true
		}
	}
	return nil, false
}

var firstLinePrefix = "$( <MM> <PROOF_ASST>"

// parseHeader extracts THEOREM= and LOC_AFTER= from the worksheet's
// first line. A first line that doesn't start with the expected prefix,
// or is missing either tag, produces KindUnparseableFirstLine and leaves
// Theorem/LocAfter empty.
func (w *Worksheet) parseHeader() {
	line := w.source.Line(0)
	if !strings.HasPrefix(line, firstLinePrefix) {
		w.headerDiags = append(w.headerDiags, mkdiag(KindUnparseableFirstLine, 0, 0, 0, len(line),
			"first line is not a valid PROOF_ASST header"))
		return
	}
	theorem, ok1 := extractTag(line, "THEOREM=")
	locAfter, ok2 := extractTag(line, "LOC_AFTER=")
	if !ok1 || !ok2 {
		w.headerDiags = append(w.headerDiags, mkdiag(KindUnparseableFirstLine, 0, 0, 0, len(line),
			"first line is missing THEOREM= or LOC_AFTER="))
		return
	}
	w.Theorem = mmdb.Label(theorem)
	if locAfter != "?" {
		w.LocAfter = mmdb.Label(locAfter)
	}
}

func extractTag(line, tag string) (string, bool) {
	idx := strings.Index(line, tag)
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len(tag):]
	end := strings.IndexAny(rest, " \t")
	if end < 0 {
		end = len(rest)
	}
	return rest[:end], true
}

// reparseRange re-derives w.Steps for the byte range [start,end) of the
// current source. It is used for the initial full parse
// (reparseRange(0, Len())).
func (w *Worksheet) reparseRange(start, end int) {
	w.reparseRangeInto(start, end)
	w.Steps = w.midParsed
	w.midParsed = nil
}

// ApplyChange applies an edit to the worksheet per the incremental
// reparse algorithm: only the steps overlapping the edited byte range
// are re-derived from scratch; steps entirely before or after it are
// kept, with trailing steps' positions shifted by the edit's net length
// change. Validation then re-runs over the whole step list, since
// semantic diagnostics (citation resolution, unification) are cheap
// relative to a full reparse and simpler to keep globally consistent
// than to patch incrementally.
//
// Edge rule: an edit that inserts text starting with '\n' exactly at an
// existing step boundary can retroactively change which lines belong to
// the *preceding* step (a blank line closes off a step's trailing
// comment lines). To stay correct across that case, the affected range
// is widened to include the step immediately before the edit whenever
// the edit starts exactly on a step boundary.
func (w *Worksheet) ApplyChange(d rope.Delta) {
	oldLen := w.source.Len()
	start, end := d.Start, d.End
	if start < 0 {
		start = 0
	}
	if end > oldLen {
		end = oldLen
	}

	rangeStart := 0
	if off, ok := w.source.PrevStepStart(start + 1); ok {
		rangeStart = off
	}
	if rangeStart == start {
		if off, ok := w.source.PrevStepStart(rangeStart); ok {
			rangeStart = off
		}
	}
	rangeEnd := oldLen
	if off, ok := w.source.NextStepStart(end); ok {
		rangeEnd = off
	}

	shift := len(d.Text) - (end - start)

	var before, after []*Step
	for _, s := range w.Steps {
		if s.ByteIdx < rangeStart {
			before = append(before, s)
		} else if s.ByteIdx >= rangeEnd {
			after = append(after, s)
		}
	}

	w.source = w.source.Apply(d)

	newRangeEnd := rangeEnd + shift
	w.reparseRangeInto(rangeStart, newRangeEnd)

	for _, s := range after {
		s.ByteIdx += shift
		p := w.source.ByteToPosition(s.ByteIdx)
		s.LineIdx = p.Line
	}

	w.Steps = append(append(append([]*Step{}, before...), w.midParsed...), after...)
	w.midParsed = nil

	w.parseHeader()
	w.validate()
}

func (w *Worksheet) reparseRangeInto(start, end int) {
	texts := w.source.StepsIter(start, end)
	// StepsIter begins at the step enclosing start, or at the first step
	// start after it when start lies in the text before the first step.
	pos := start
	if off, ok := w.source.PrevStepStart(start + 1); ok {
		pos = off
	} else if off, ok := w.source.NextStepStart(start); ok {
		pos = off
	}
	var fresh []*Step
	for _, text := range texts {
		lp := w.source.ByteToPosition(pos)
		st := parseStep(text, lp.Line, pos)
		fresh = append(fresh, st)
		pos += len(text)
		if pos < w.source.Len() {
			pos++
		}
	}
	w.midParsed = fresh
}

// validate re-checks every step's citation against the database: does
// the label exist, does its hypothesis count match, and does unifying
// each cited hypothesis formula against the frame's essential
// hypotheses succeed and agree across repeats (§4.C/§4.D). Steps are
// first classified (the step named "qed" is the Qed step, a step whose
// label is an essential hypothesis of the worksheet's own theorem frame
// is a Hyp step, everything else is Regular) before validation proceeds.
func (w *Worksheet) validate() {
	byName := make(map[string]*Step, len(w.Steps))
	for _, s := range w.Steps {
		if s.malformed {
			continue
		}
		byName[s.Name] = s
		// A hypothesis step named "hN" is cited elsewhere in the
		// worksheet by its bare number "N" (the worksheet convention:
		// the "h" prefix only marks the step's own declaration).
		if rest, ok := strings.CutPrefix(s.Name, "h"); ok && rest != "" && isAllDigits(rest) {
			byName[rest] = s
		}
	}

	var hypLabels map[string]bool
	if w.db != nil {
		if fr, ok := w.db.GetFrame(w.Theorem); ok {
			hypLabels = make(map[string]bool)
			for _, h := range fr.Essentials() {
				hypLabels[string(h.Label)] = true
			}
		}
	}

	for _, s := range w.Steps {
		if s.malformed {
			continue
		}
		s.Diags = s.Diags[:0]
		switch {
		case s.Name == "qed":
			s.Kind = StepQed
		case hypLabels != nil && hypLabels[s.Label]:
			s.Kind = StepHyp
		default:
			s.Kind = StepRegular
		}

		for _, h := range s.HypNames {
			if h == "?" {
				continue
			}
			if _, ok := byName[h]; !ok {
				endCol := len(s.Formula)
				s.Diags = append(s.Diags, diagUnknownStepName(h, s.LineIdx, 0, s.LineIdx, endCol))
			}
		}

		if w.db == nil || w.grammar == nil {
			continue
		}
		w.validateCitation(s)
	}
}

func (w *Worksheet) validateCitation(s *Step) {
	endLine, endCol := w.stepHeaderEnd(s)

	if s.Label == "?" {
		return
	}

	if s.Kind == StepHyp {
		// A hyp step restates an $e hypothesis of the worksheet's own
		// theorem verbatim; there is no frame to invoke and nothing to
		// unify, just an equality check against the hypothesis formula.
		hypFormula, ok := w.db.GetFormula(mmdb.Label(s.Label))
		if !ok {
			s.Diags = append(s.Diags, diagUnknownLabel(s.Label, s.LineIdx, 0, endLine, endCol))
			return
		}
		actual := stepFormula(s)
		if !hypFormula.Eq(actual) {
			s.Diags = append(s.Diags, diagStepFormulaMismatch(s.LineIdx, 0, endLine, endCol))
		}
		return
	}

	frame, ok := w.db.GetFrame(mmdb.Label(s.Label))
	if !ok {
		s.Diags = append(s.Diags, diagUnknownLabel(s.Label, s.LineIdx, 0, endLine, endCol))
		return
	}

	if w.LocAfter != "" && w.db.Cmp(mmdb.Label(s.Label), w.LocAfter) > 0 {
		s.Diags = append(s.Diags, diagForbiddenZone(s.Label, s.LineIdx, 0, endLine, endCol))
	}

	essentials := frame.Essentials()
	if len(s.HypNames) != len(essentials) {
		s.Diags = append(s.Diags, diagWrongHypCount(s.Label, len(essentials), len(s.HypNames), s.LineIdx, 0, endLine, endCol))
		return
	}

	concl, ok := w.db.GetFormula(mmdb.Label(s.Label))
	if !ok {
		return
	}

	subst := map[mmdb.Symbol]mmdb.Formula{}
	for i, hypName := range s.HypNames {
		if hypName == "?" {
			continue
		}
		other, ok := w.stepByName(hypName)
		if !ok || other.Label == "?" {
			continue
		}
		got, ok := w.grammar.Unify(essentials[i].Formula, stepFormula(other))
		if !ok {
			s.Diags = append(s.Diags, diagUnificationFailed(i, s.LineIdx, 0, endLine, endCol))
			continue
		}
		merged, ok := mmdb.CheckAndExtend(subst, got)
		if !ok {
			s.Diags = append(s.Diags, diagUnificationFailed(i, s.LineIdx, 0, endLine, endCol))
			continue
		}
		subst = merged
	}

	expected := concl.Substitute(subst)
	actual := stepFormula(s)
	if !expected.Eq(actual) {
		s.Diags = append(s.Diags, diagStepFormulaMismatch(s.LineIdx, 0, endLine, endCol))
	}
}

// stepFormula parses a step's formula text into an mmdb.Formula. Unlike
// mmdb.NewFormula, it treats the formula text's own leading token as the
// typecode (matching the worksheet's on-disk shape, "TYPECODE symbols...",
// e.g. "|- ( ph -> ps )") rather than requiring the typecode supplied
// separately.
func stepFormula(s *Step) mmdb.Formula {
	fields := splitFields(s.Formula)
	if len(fields) == 0 {
		return mmdb.Formula{}
	}
	f := mmdb.Formula{Typecode: mmdb.Typecode(fields[0])}
	for _, sym := range fields[1:] {
		f.Symbols = append(f.Symbols, mmdb.Symbol(sym))
	}
	return f
}

// StepFormula parses a step's formula text into an mmdb.Formula the same
// way validation does, for callers outside this package (the elaborator
// bridge) that need a step's goal formula.
func StepFormula(s *Step) mmdb.Formula {
	return stepFormula(s)
}

// StepByName looks up a step by the name it is declared or cited under,
// applying the same "hN"/"N" hypothesis-citation aliasing as validation.
func (w *Worksheet) StepByName(name string) (*Step, bool) {
	return w.stepByName(name)
}

func (w *Worksheet) stepByName(name string) (*Step, bool) {
	for _, s := range w.Steps {
		if s.Name == name {
			return s, true
		}
		if rest, ok := strings.CutPrefix(s.Name, "h"); ok && rest == name {
			return s, true
		}
	}
	return nil, false
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stepHeaderEnd reports the end position used to anchor a
// whole-step diagnostic: the end of the step's header line.
func (w *Worksheet) stepHeaderEnd(s *Step) (int, int) {
	nl := strings.IndexByte(s.Source, '\n')
	if nl < 0 {
		nl = len(s.Source)
	}
	return s.LineIdx, nl
}
