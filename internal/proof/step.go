package proof

import "strings"

// StepKind distinguishes the three shapes a proof step can take. Kind is
// assigned during validation to every step that parsed, whether or not
// its label resolves; a malformed step that could not be parsed stays
// StepUnknown.
type StepKind int

const (
	StepUnknown StepKind = iota
	StepHyp
	StepQed
	StepRegular
)

// Step is one proof-worksheet line (plus any trailing wrapped/comment
// lines that belong to it): "NAME:HYPLIST:LABEL  FORMULA", where HYPLIST
// is a comma-separated list of the step names it cites, possibly empty.
type Step struct {
	Name     string
	HypNames []string
	Label    string
	Formula  string // the formula text following the label, wrapped lines joined by a single space is NOT performed: Formula keeps the raw joined text
	Kind     StepKind

	Source  string // the source text of the step, continuation lines included, without its final line terminator
	LineIdx int
	ByteIdx int

	Diags []Diagnostic

	malformed bool
}

// parseStep parses one step's source text (as produced by
// rope.Rope.StepsIter: starts at a step start, runs to the next step
// start or end of document) into a Step. lineIdx/byteIdx locate the
// step's first line within the worksheet, used to anchor diagnostics.
func parseStep(source string, lineIdx, byteIdx int) *Step {
	st := &Step{Source: source, LineIdx: lineIdx, ByteIdx: byteIdx}

	firstNL := strings.IndexByte(source, '\n')
	firstLine := source
	if firstNL >= 0 {
		firstLine = source[:firstNL]
	}

	idx1 := strings.IndexByte(firstLine, ':')
	if idx1 < 0 {
		st.Name = strings.TrimSpace(firstLine)
		st.malformed = true
		end := len(firstLine)
		if firstNL < 0 {
			end = len(firstLine)
		}
		st.Diags = append(st.Diags, diagUnparseableProofLine(lineIdx, 0, lineIdx, end))
		return st
	}
	st.Name = firstLine[:idx1]

	rest := firstLine[idx1+1:]
	idx2 := strings.IndexByte(rest, ':')
	if idx2 < 0 {
		st.malformed = true
		st.Diags = append(st.Diags, diagUnparseableProofLine(lineIdx, 0, lineIdx, len(firstLine)))
		return st
	}
	hypPart := rest[:idx2]
	rest2 := rest[idx2+1:]

	// The remainder of the step's source (after the header line) belongs
	// to the formula, since the formula may wrap across continuation
	// lines; only the header line carries name/hyps/label.
	wsIdx := strings.IndexAny(rest2, " \t")
	if wsIdx < 0 {
		st.malformed = true
		st.Diags = append(st.Diags, diagUnparseableProofLine(lineIdx, 0, lineIdx, len(firstLine)))
		return st
	}
	st.Label = rest2[:wsIdx]

	formulaStart := idx1 + 1 + idx2 + 1 + wsIdx
	for formulaStart < len(firstLine) && (firstLine[formulaStart] == ' ' || firstLine[formulaStart] == '\t') {
		formulaStart++
	}

	var formula strings.Builder
	if formulaStart < len(firstLine) {
		formula.WriteString(firstLine[formulaStart:])
	}
	if firstNL >= 0 {
		trailer := strings.TrimSuffix(source[firstNL+1:], "\n")
		if kept := trimAtProofBody(trailer); kept != "" {
			formula.WriteByte('\n')
			formula.WriteString(kept)
		}
	}
	st.Formula = formula.String()

	if strings.TrimSpace(st.Formula) == "" {
		st.malformed = true
		st.Diags = append(st.Diags, diagParsedStatementTooShort(lineIdx, formulaStart, lineIdx, len(firstLine)))
		return st
	}

	for _, h := range strings.Split(hypPart, ",") {
		if h != "" {
			st.HypNames = append(st.HypNames, h)
		}
	}

	return st
}

// trimAtProofBody returns the prefix of s up to, but not including, the
// first line beginning with '$' or '*': the proof-body ($= ... $.) and
// comment lines a step's raw source may carry after its formula. The
// rope treats those same two bytes as continuation bytes, so such lines
// are part of this step's source chunk without being part of its
// formula; wrapped-formula continuation lines (beginning with
// whitespace) are left in place.
func trimAtProofBody(s string) string {
	lines := strings.Split(s, "\n")
	end := len(lines)
	for i, line := range lines {
		if len(line) > 0 && (line[0] == '$' || line[0] == '*') {
			end = i
			break
		}
	}
	return strings.Join(lines[:end], "\n")
}

// FlatFormula joins the (possibly wrapped) formula text into a single
// space-separated token line, which is what the database's formula
// grammar expects.
func (s *Step) FlatFormula() string {
	fields := splitFields(s.Formula)
	return joinFields(fields)
}

func splitFields(s string) []string {
	var out []string
	cur := strings.Builder{}
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func joinFields(fields []string) string {
	return strings.Join(fields, " ")
}
