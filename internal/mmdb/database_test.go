package mmdb

import "testing"

const testDB = `
	$c |- wff ( ) -> $.
	$( $j syntax 'wff'; syntax '|-' as 'wff'; $)
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

func mustLoad(t *testing.T, src string) *Database {
	t.Helper()
	db, err := LoadString(src)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	return db
}

func TestLoadBasic(t *testing.T) {
	db := mustLoad(t, testDB)

	for _, sym := range []Symbol{"|-", "wff", "(", ")", "->"} {
		if !db.IsConstant(sym) {
			t.Errorf("%q should be a constant", sym)
		}
	}
	for _, sym := range []Symbol{"ph", "ps", "ch"} {
		if !db.IsVariable(sym) {
			t.Errorf("%q should be a variable", sym)
		}
	}

	f, ok := db.GetFormula("ax-1")
	if !ok {
		t.Fatalf("ax-1 not found")
	}
	if got, want := f.String(), "|- ( ph -> ( ps -> ph ) )"; got != want {
		t.Errorf("ax-1 formula = %q, want %q", got, want)
	}
}

func TestFrameEssentials(t *testing.T) {
	db := mustLoad(t, testDB)

	fr, ok := db.GetFrame("ax-mp")
	if !ok {
		t.Fatalf("frame for ax-mp not found")
	}
	ess := fr.Essentials()
	if len(ess) != 2 {
		t.Fatalf("ax-mp essentials = %d, want 2", len(ess))
	}
	if ess[0].Label != "min" || ess[1].Label != "maj" {
		t.Errorf("ax-mp essentials = %v, %v, want min, maj", ess[0].Label, ess[1].Label)
	}

	fr, ok = db.GetFrame("a1i")
	if !ok {
		t.Fatalf("frame for a1i not found")
	}
	ess = fr.Essentials()
	if len(ess) != 1 || ess[0].Label != "a1i.1" {
		t.Fatalf("a1i essentials = %v, want [a1i.1]", ess)
	}
}

func TestStatementOrder(t *testing.T) {
	db := mustLoad(t, testDB)

	if db.Cmp("wi", "ax-mp") >= 0 {
		t.Errorf("expected wi before ax-mp")
	}
	if db.Cmp("ax-mp", "ax-1") >= 0 {
		t.Errorf("expected ax-mp before ax-1")
	}
	if db.Cmp("ax-1", "a1i") >= 0 {
		t.Errorf("expected ax-1 before a1i")
	}

	labels := db.StatementsUntil("ax-1")
	found := map[Label]bool{}
	for _, l := range labels {
		found[l] = true
	}
	if !found["wi"] || !found["ax-mp"] || !found["ax-1"] {
		t.Errorf("StatementsUntil(ax-1) missing expected labels: %v", labels)
	}
	if found["a1i"] {
		t.Errorf("StatementsUntil(ax-1) should not include a1i")
	}
}

func TestGrammarParseFormula(t *testing.T) {
	db := mustLoad(t, testDB)
	g := BuildGrammar(db, "|-")

	f, err := g.ParseFormula("wff", "( ph -> ps )")
	if err != nil {
		t.Fatalf("ParseFormula: %v", err)
	}
	if got, want := f.Body(), "( ph -> ps )"; got != want {
		t.Errorf("Body() = %q, want %q", got, want)
	}

	if _, err := g.ParseFormula("wff", "( ph -> )"); err == nil {
		t.Fatal("expected parse failure for malformed formula")
	}

	f2, err := g.ParseFormula("wff", "( ph -> ( ps -> ph ) )")
	if err != nil {
		t.Fatalf("ParseFormula nested: %v", err)
	}
	if got := f2.Body(); got != "( ph -> ( ps -> ph ) )" {
		t.Errorf("Body() = %q", got)
	}
}

func TestUnify(t *testing.T) {
	db := mustLoad(t, testDB)
	g := BuildGrammar(db, "|-")

	axFormula, _ := db.GetFormula("ax-1")
	target := NewFormula("|-", "( ch -> ( ( ph -> ps ) -> ch ) )")

	subst, ok := g.Unify(axFormula, target)
	if !ok {
		t.Fatalf("unify failed")
	}
	if got := subst["ph"].Body(); got != "ch" {
		t.Errorf("ph bound to %q, want ch", got)
	}
	if got := subst["ps"].Body(); got != "( ph -> ps )" {
		t.Errorf("ps bound to %q, want ( ph -> ps )", got)
	}
}

func TestUnifyInconsistentFails(t *testing.T) {
	db := mustLoad(t, testDB)
	g := BuildGrammar(db, "|-")

	// wi pattern "wff ( ph -> ps )" used twice with conflicting bindings
	// for ph must fail to merge via CheckAndExtend.
	wi, _ := db.GetFormula("wi")
	s1, ok := g.Unify(wi, NewFormula("wff", "( ch -> ps )"))
	if !ok {
		t.Fatalf("first unify failed")
	}
	s2, ok := g.Unify(wi, NewFormula("wff", "( ph -> ps )"))
	if !ok {
		t.Fatalf("second unify failed")
	}
	if _, ok := CheckAndExtend(s1, s2); ok {
		t.Fatalf("expected CheckAndExtend to reject conflicting ph bindings")
	}
}

func TestWorkVariableProvider(t *testing.T) {
	db := mustLoad(t, testDB)
	p := NewWorkVariableProvider(db, nil)

	a := p.New("wff")
	b := p.New("wff")
	if a == b {
		t.Fatalf("minted duplicate work variables: %q", a)
	}
	if !IsWorkVariable(a) || !IsWorkVariable(b) {
		t.Errorf("minted variables should be recognized as work variables: %q %q", a, b)
	}
}
