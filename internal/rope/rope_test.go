package rope

import (
	"strings"
	"testing"
)

// testProof mirrors the worksheet fixture used throughout internal/proof's
// tests: a three-step proof of "a1i" with a continuation line on step 2.
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

func TestNewRoundTrip(t *testing.T) {
	r := New(testProof)
	if got := r.String(); got != testProof {
		t.Fatalf("round trip mismatch:\ngot:  %q\nwant: %q", got, testProof)
	}
	if got := r.Len(); got != len(testProof) {
		t.Fatalf("Len() = %d, want %d", got, len(testProof))
	}
}

func TestStepStarts(t *testing.T) {
	r := New(testProof)

	// Step starts: byte 122 ("h1::a1i.1..."), 143 ("2::ax-1..."),
	// 188 ("qed:1,2:ax-mp...").
	want := []int{122, 143, 188}
	var got []int
	off := 0
	for {
		next, ok := r.NextStepStart(off)
		if !ok {
			break
		}
		got = append(got, next)
		off = next
	}
	if len(got) != len(want) {
		t.Fatalf("NextStepStart walk = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step start %d = %d, want %d", i, got[i], want[i])
		}
	}

	for i, off := range want {
		prev, ok := r.PrevStepStart(off + 1)
		if !ok || prev != off {
			t.Errorf("PrevStepStart(%d+1) = (%d,%v), want (%d,true)", off, prev, ok, off)
		}
		_ = i
	}
}

func TestByteToPositionAndBack(t *testing.T) {
	r := New(testProof)

	for _, off := range []int{0, 122, 143, 188, r.Len()} {
		pos := r.ByteToPosition(off)
		back := r.PositionToByte(pos)
		if back != off {
			t.Errorf("PositionToByte(ByteToPosition(%d)) = %d, want %d (pos=%+v)", off, back, off, pos)
		}
	}
}

func TestLine(t *testing.T) {
	r := New(testProof)
	lines := strings.Split(strings.TrimSuffix(testProof, "\n"), "\n")
	for i, want := range lines {
		if got := r.Line(i); got != want {
			t.Errorf("Line(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestApplyInsertNewStep(t *testing.T) {
	r := New(testProof)
	// Insert a new step "3::ax-1 |- ( ch -> ( ps -> ch ) )\n" right before
	// the qed line (byte offset 188).
	insertion := "3::ax-1 |- ( ch -> ( ps -> ch ) )\n"
	r2 := r.Apply(Delta{Start: 188, End: 188, Text: insertion})

	if got, want := r2.StepCount(), r.StepCount()+1; got != want {
		t.Fatalf("StepCount() after insert = %d, want %d", got, want)
	}
	if got := r2.Slice(188, 188+len(insertion)); got != insertion {
		t.Errorf("inserted step text = %q, want %q", got, insertion)
	}
	// Original rope must be untouched (structural sharing, not mutation).
	if got := r.String(); got != testProof {
		t.Errorf("original rope mutated: %q", got)
	}
}

func TestApplyMidStepReplace(t *testing.T) {
	r := New(testProof)
	// "( ph" -> "( ch" inside step 2's first line, without crossing a step
	// boundary.
	before := r.Slice(0, r.Len())
	idx := strings.Index(before[143:188], "( ph")
	if idx < 0 {
		t.Fatalf("fixture did not contain expected substring")
	}
	start := 143 + idx
	r2 := r.Apply(Delta{Start: start, End: start + 4, Text: "( ch"})
	if r2.StepCount() != r.StepCount() {
		t.Errorf("StepCount() changed on a mid-step edit: got %d, want %d", r2.StepCount(), r.StepCount())
	}
}

func TestFindLeafSplitPrefersStepBoundary(t *testing.T) {
	// A document long enough to force at least one split, with a clean
	// step boundary in the middle.
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("h")
		sb.WriteString(strings.Repeat("x", 30))
		sb.WriteString("\n")
	}
	text := sb.String()
	r := New(text)
	if got := r.String(); got != text {
		t.Fatalf("round trip mismatch for long document")
	}
	if got := r.Len(); got != len(text) {
		t.Fatalf("Len() = %d, want %d", got, len(text))
	}
	if at := findLeafSplit(text, MinLeaf); at <= 0 || at >= len(text) || text[at-1] != '\n' || isContinuationByte(text[at]) {
		t.Errorf("findLeafSplit = %d, want an offset just after a newline and before a non-continuation byte", at)
	}
}

func TestStepsIter(t *testing.T) {
	r := New(testProof)
	steps := r.StepsIter(122, r.Len())
	if len(steps) != 3 {
		t.Fatalf("StepsIter returned %d steps, want 3", len(steps))
	}
	if !strings.HasPrefix(steps[0], "h1::a1i.1") {
		t.Errorf("steps[0] = %q", steps[0])
	}
	if !strings.HasPrefix(steps[1], "2::ax-1") {
		t.Errorf("steps[1] = %q", steps[1])
	}
	if !strings.HasPrefix(steps[2], "qed:1,2:ax-mp") {
		t.Errorf("steps[2] = %q", steps[2])
	}
}

func TestEmptyRope(t *testing.T) {
	r := New("")
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if r.LineCount() != 1 {
		t.Errorf("LineCount() = %d, want 1", r.LineCount())
	}
	if r.StepCount() != 0 {
		t.Errorf("StepCount() = %d, want 0", r.StepCount())
	}
	if r.String() != "" {
		t.Errorf("String() = %q, want empty", r.String())
	}
}

func TestFromReader(t *testing.T) {
	r, err := FromReader(strings.NewReader(testProof))
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if got := r.String(); got != testProof {
		t.Fatalf("FromReader round trip mismatch")
	}

	if _, err := FromReader(strings.NewReader("\xff\xfe")); err == nil {
		t.Fatal("FromReader accepted invalid UTF-8")
	}
}
