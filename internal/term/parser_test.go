package term

import (
	"testing"
)

// TestParseAtoms tests the leaf productions.
func TestParseAtoms(t *testing.T) {
	cases := []struct {
		input string
		want  Term
	}{
		{"f", &Const{Name: "f"}},
		{"Nat.add", &Const{Name: "Nat.add"}},
		{"?x", &Evar{Key: "x"}},
		{"42", &IntLit{Value: 42}},
		{"1.5", &FloatLit{Value: 1.5}},
		{"Prop", &Sort{Family: Prop}},
		{"Set", &Sort{Family: Set}},
		{"Type", &Sort{Family: Type}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.input)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", tc.input, err)
			continue
		}
		if !Equal(got, tc.want) {
			t.Errorf("Parse(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

// TestParseBinderResolution tests that bound names become de Bruijn
// references and free names stay global.
func TestParseBinderResolution(t *testing.T) {
	got := MustParse("forall x : nat, f x")
	prod, ok := got.(*Prod)
	if !ok {
		t.Fatalf("expected *Prod, got %T", got)
	}
	app := prod.Body.(*App)
	if _, isConst := app.Fn.(*Const); !isConst {
		t.Error("f should resolve to a global constant")
	}
	if rel, isRel := app.Args[0].(*Rel); !isRel || rel.Index != 1 {
		t.Errorf("x should resolve to Rel 1, got %s", app.Args[0])
	}
}

// TestParseMultiBinder tests index assignment with several names sharing a
// domain.
func TestParseMultiBinder(t *testing.T) {
	got := MustParse("forall x y : nat, f x y")
	want := &Prod{
		Binder: "x",
		Domain: &Const{Name: "nat"},
		Body: &Prod{
			Binder: "y",
			Domain: &Const{Name: "nat"},
			Body:   MkApp(&Const{Name: "f"}, &Rel{Index: 2}, &Rel{Index: 1}),
		},
	}
	if !Equal(got, want) {
		t.Errorf("multi-binder parse = %s, want %s", got, want)
	}
}

// TestParseArrow tests the non-dependent product sugar.
func TestParseArrow(t *testing.T) {
	got := MustParse("nat -> bool")
	prod, ok := got.(*Prod)
	if !ok {
		t.Fatalf("expected *Prod, got %T", got)
	}
	if !Equal(prod.Domain, &Const{Name: "nat"}) || !Equal(prod.Body, &Const{Name: "bool"}) {
		t.Errorf("arrow parse = %s", got)
	}
}

// TestParseLet tests let-binding structure.
func TestParseLet(t *testing.T) {
	got := MustParse("let x := 0 : nat in f x")
	let, ok := got.(*LetIn)
	if !ok {
		t.Fatalf("expected *LetIn, got %T", got)
	}
	if !Equal(let.Value, &IntLit{Value: 0}) {
		t.Errorf("let value = %s", let.Value)
	}
	if rel := let.Body.(*App).Args[0].(*Rel); rel.Index != 1 {
		t.Errorf("let-bound reference = %d, want 1", rel.Index)
	}
}

// TestParseApplicationNesting tests juxtaposition and parentheses.
func TestParseApplicationNesting(t *testing.T) {
	flat := MustParse("f a b c").(*App)
	if len(flat.Args) != 3 {
		t.Errorf("flat spine length = %d, want 3", len(flat.Args))
	}
	nested := MustParse("f (g a) b").(*App)
	if _, ok := nested.Args[0].(*App); !ok {
		t.Errorf("parenthesized argument should stay nested, got %s", nested.Args[0])
	}
}

// TestParseErrors tests rejection of malformed input.
func TestParseErrors(t *testing.T) {
	bad := []string{
		"",
		"forall , x",
		"forall x nat, x",
		"f (g a",
		"let x := 0 in x",
		"fun x : nat -> x",
		"f )",
		"?",
	}
	for _, input := range bad {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) should fail", input)
		}
	}
}

// TestParseRoundTrip tests that printing parses back to an equal term.
func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"forall x : nat, eq nat (add x zero) x",
		"fun x y : nat => h (f x) (g y)",
		"let z := f 0 : nat in g z z",
		"forall P : nat -> Prop, P 0 -> forall n : nat, P n",
		"f ?hole 3",
	}
	for _, input := range inputs {
		first := MustParse(input)
		second, err := Parse(first.String())
		if err != nil {
			t.Errorf("reparsing %q (printed %q) failed: %v", input, first.String(), err)
			continue
		}
		if !Equal(first, second) {
			t.Errorf("round trip of %q: %s != %s", input, first, second)
		}
	}
}
