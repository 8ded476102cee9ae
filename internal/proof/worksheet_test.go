package proof

import (
	"strings"
	"testing"

	"github.com/tirix/metamath-vspa/internal/mmdb"
	"github.com/tirix/metamath-vspa/internal/rope"
)

const testDB = `
	$c |- wff ( ) -> $.
	$v ph ps ch $.
	wph $f wff ph $.
	wps $f wff ps $.
	wch $f wff ch $.
	wi $a wff ( ph -> ps ) $.
	${
		min $e |- ph $.
		maj $e |- ( ph -> ps ) $.
		ax-mp $a |- ps $.
	$}
	ax-1 $a |- ( ph -> ( ps -> ph ) ) $.
	${
		a1i.1 $e |- ph $.
		a1i $p |- ( ps -> ph ) $= ? $.
	$}
`

const testProof = "$( <MM> <PROOF_ASST> THEOREM=a1i  LOC_AFTER=?\n" +
	"\n" +
	"* Inference introducing an antecedent.  (Contributed by NM, 29-Dec-1992.)\n" +
	"\n" +
	"h1::a1i.1      |- ph\n" +
	"2::ax-1        |- ( ph\n" +
	"    -> ( ps -> ph ) )\n" +
	"qed:1,2:ax-mp  |- ( ps -> ph )\n" +
	"\n" +
	"$=    ( wi ax-1 ax-mp ) ABADCABEF $.\n" +
	"\n" +
	"$)\n"

func mustDB(t *testing.T) *mmdb.Database {
	t.Helper()
	db, err := mmdb.LoadString(testDB)
	if err != nil {
		t.Fatalf("mmdb.LoadString: %v", err)
	}
	return db
}

func TestParseWorksheet(t *testing.T) {
	db := mustDB(t)
	w := NewWorksheet(db, testProof)

	if len(w.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3", len(w.Steps))
	}
	wantLines := []int{4, 5, 7}
	wantBytes := []int{122, 143, 188}
	for i, s := range w.Steps {
		if s.LineIdx != wantLines[i] {
			t.Errorf("Steps[%d].LineIdx = %d, want %d", i, s.LineIdx, wantLines[i])
		}
		if s.ByteIdx != wantBytes[i] {
			t.Errorf("Steps[%d].ByteIdx = %d, want %d", i, s.ByteIdx, wantBytes[i])
		}
	}

	if _, ok := w.StepAtLine(0); ok {
		t.Errorf("StepAtLine(0) should not resolve to a step")
	}

	if got := w.ByteToPosition(188); got != (Position{Line: 7, Character: 0}) {
		t.Errorf("ByteToPosition(188) = %+v", got)
	}
	if got := w.ByteToPosition(200); got != (Position{Line: 7, Character: 12}) {
		t.Errorf("ByteToPosition(200) = %+v", got)
	}
	if got := w.PositionToByte(Position{Line: 7, Character: 0}); got != 188 {
		t.Errorf("PositionToByte({7,0}) = %d, want 188", got)
	}
	if got := w.PositionToByte(Position{Line: 7, Character: 12}); got != 200 {
		t.Errorf("PositionToByte({7,12}) = %d, want 200", got)
	}

	if got, want := w.Line(7), "qed:1,2:ax-mp  |- ( ps -> ph )"; got != want {
		t.Errorf("Line(7) = %q, want %q", got, want)
	}
	if got, want := w.Line(6), "    -> ( ps -> ph ) )"; got != want {
		t.Errorf("Line(6) = %q, want %q", got, want)
	}

	if diags := w.Diagnostics(); len(diags) != 0 {
		t.Errorf("Diagnostics() = %v, want none", diags)
	}
}

func TestParseWorksheetDiags(t *testing.T) {
	db := mustDB(t)
	text := "$( <MM> <PROOF_ASST> THEOREM=mp2  LOC_AFTER=?\n" +
		"\n" +
		"\n" +
		"\n" +
		"h1::mp2.1 |- ph\n" +
		"h2::mp2.2 |- ( ph -> ps )\n" +
		"qed:h1,h2:mp2.3 |- ps\n" +
		"\n" +
		"5x::\n" +
		"6\n" +
		"$)\n"
	w := NewWorksheet(db, text)

	var unknownCount, unparseableCount int
	var line8Kind DiagnosticKind
	var sawLine8 bool
	for _, d := range w.Diagnostics() {
		switch d.Kind {
		case KindUnknownLabel:
			unknownCount++
		case KindUnparseableProofLine:
			unparseableCount++
		}
		if d.Start.Line == 8 {
			sawLine8 = true
			line8Kind = d.Kind
		}
	}
	if unknownCount != 3 {
		t.Errorf("expected exactly 3 unknown-label diagnostics, got %d", unknownCount)
	}
	if unparseableCount != 2 {
		t.Errorf("expected exactly 2 unparseable-proof-line diagnostics for the malformed tail lines, got %d", unparseableCount)
	}
	if !sawLine8 {
		t.Fatalf("expected a diagnostic anchored at line 8 (the %q line)", "5x::")
	}
	if line8Kind != KindUnparseableProofLine {
		t.Errorf("diagnostic at line 8 has Kind = %v, want KindUnparseableProofLine", line8Kind)
	}
}

func TestApplyChangeInsertNewStep(t *testing.T) {
	db := mustDB(t)
	w := NewWorksheet(db, testProof)

	insertion := "3::ax-1 |- ( ch -> ( ps -> ch ) )\n"
	w.ApplyChange(rope.Delta{Start: 188, End: 188, Text: insertion})

	if len(w.Steps) != 4 {
		t.Fatalf("len(Steps) after insert = %d, want 4", len(w.Steps))
	}
	if w.Steps[1].LineIdx != 5 || w.Steps[1].ByteIdx != 143 {
		t.Errorf("Steps[1] shifted unexpectedly: %+v", w.Steps[1])
	}
	if w.Steps[2].ByteIdx != 188 {
		t.Errorf("Steps[2].ByteIdx = %d, want 188", w.Steps[2].ByteIdx)
	}
	if !strings.HasPrefix(w.Steps[2].Source, "3::ax-1") {
		t.Errorf("Steps[2].Source = %q", w.Steps[2].Source)
	}
	if w.Steps[3].LineIdx != 8 {
		t.Errorf("Steps[3] (old qed) LineIdx = %d, want 8", w.Steps[3].LineIdx)
	}
}

func TestApplyChangeMidStepReplace(t *testing.T) {
	db := mustDB(t)
	w := NewWorksheet(db, testProof)

	before := w.Source()
	idx := strings.Index(before[143:188], "ps")
	if idx < 0 {
		t.Fatalf("fixture missing expected substring")
	}
	start := 143 + idx
	w.ApplyChange(rope.Delta{Start: start, End: start + 2, Text: "( ps -> ch )"})

	if len(w.Steps) != 3 {
		t.Fatalf("len(Steps) after mid-step replace = %d, want 3", len(w.Steps))
	}
	if w.Steps[2].ByteIdx == 188 {
		t.Errorf("qed step ByteIdx should shift after a net-positive edit")
	}
}

func TestApplyChangeNewlineAtStepStart(t *testing.T) {
	db := mustDB(t)
	w := NewWorksheet(db, testProof)

	w.ApplyChange(rope.Delta{Start: 143, End: 143, Text: "\n"})

	if len(w.Steps) != 3 {
		t.Fatalf("len(Steps) after newline-at-step-start = %d, want 3", len(w.Steps))
	}
	if w.Steps[0].LineIdx != 4 {
		t.Errorf("Steps[0].LineIdx = %d, want 4 (unchanged)", w.Steps[0].LineIdx)
	}
}
