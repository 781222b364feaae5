package hints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haansn08/autorewrite/internal/term"
	"github.com/haansn08/autorewrite/internal/universe"
)

// mustRule declares a left-to-right rule from a statement type in surface
// syntax, named by its lemma.
func mustRule(t *testing.T, lemma, typ string) *Rule {
	t.Helper()
	r, err := NewRule(&term.Const{Name: lemma}, term.MustParse(typ), universe.ContextSet{}, true, nil)
	require.NoError(t, err)
	return r
}

func TestNewRuleExtractsPattern(t *testing.T) {
	r := mustRule(t, "fg", "forall x : nat, eq nat (f x) (g x)")
	assert.True(t, term.Equal(r.Pattern, term.MustParse("forall x : nat, f x")))

	rl, err := NewRule(&term.Const{Name: "fg"},
		term.MustParse("forall x : nat, eq nat (f x) (g x)"),
		universe.ContextSet{}, false, nil)
	require.NoError(t, err)
	assert.True(t, term.Equal(rl.Pattern, term.MustParse("forall x : nat, g x")),
		"right-to-left selects the other side")
}

func TestNewRuleRejectsNonRelation(t *testing.T) {
	_, err := NewRule(&term.Const{Name: "bad"}, term.MustParse("forall x : nat, f x"),
		universe.ContextSet{}, true, nil)
	require.Error(t, err)
	assert.True(t, IsUserError(err))

	_, err = NewRule(&term.Const{Name: "bad"}, term.MustParse("nat"),
		universe.ContextSet{}, true, nil)
	require.Error(t, err)
}

func TestRuleSidesShareKeys(t *testing.T) {
	r := mustRule(t, "fg", "forall x : nat, eq nat (f x) (g x)")
	src, dst, ok := r.Sides()
	require.True(t, ok)
	sapp := src.(*term.App)
	dapp := dst.(*term.App)
	se := sapp.Args[0].(*term.Evar)
	de := dapp.Args[0].(*term.Evar)
	assert.Equal(t, se.Key, de.Key, "both sides must share the opened placeholder")
}

func TestInsertIdentifierMonotonicity(t *testing.T) {
	s := NewStore()
	for batch := 0; batch < 3; batch++ {
		s.InsertRules("base", []*Rule{
			mustRule(t, "a", "eq nat x y"),
			mustRule(t, "b", "eq nat y x"),
		})
	}
	rules, err := s.AllRules("base")
	require.NoError(t, err)
	assert.Len(t, rules, 6, "three batches of two rules each")
}

func TestAllRulesOrdering(t *testing.T) {
	s := NewStore()
	r1 := mustRule(t, "r1", "eq nat a b")
	r2 := mustRule(t, "r2", "eq nat b c")
	r3 := mustRule(t, "r3", "eq nat c d")
	s.InsertRules("base", []*Rule{r1, r2})
	s.InsertRules("base", []*Rule{r3})

	rules, err := s.AllRules("base")
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Same(t, r3, rules[0], "most recently inserted first")
	assert.Same(t, r2, rules[1])
	assert.Same(t, r1, rules[2])
}

func TestFindAllAscending(t *testing.T) {
	dn := NewDN()
	p := term.MustParse("forall x : nat, f x")
	for i := 0; i < 4; i++ {
		dn.Add(p, Ident{N: i, Rule: &Rule{Pattern: p}})
	}
	ids := dn.FindAll()
	require.Len(t, ids, 4)
	for i, id := range ids {
		assert.Equal(t, i, id.N, "raw listing is ascending")
	}
}

func TestSearchSoundnessSelfMatch(t *testing.T) {
	s := NewStore()
	r := mustRule(t, "fg", "forall x : nat, eq nat (f x) (g x)")
	s.InsertRules("base", []*Rule{r})

	hits, err := s.Search("base", r.Pattern)
	require.NoError(t, err)
	require.Len(t, hits, 1, "a rule must be found by its own pattern")
	assert.Same(t, r, hits[0])
}

func TestSearchDescendingOrder(t *testing.T) {
	s := NewStore()
	r1 := mustRule(t, "r1", "forall x : nat, eq nat (f x) (g x)")
	r2 := mustRule(t, "r2", "forall x : nat, eq nat (f x) (h x)")
	s.InsertRules("base", []*Rule{r1})
	s.InsertRules("base", []*Rule{r2})

	hits, err := s.Search("base", term.MustParse("f a"))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Same(t, r2, hits[0], "later declarations shadow earlier ones")
	assert.Same(t, r1, hits[1])
}

func TestSearchQuantifierAlignment(t *testing.T) {
	s := NewStore()
	// Two quantifiers on the candidate, one on the query: the excess is
	// instantiated away.
	r := mustRule(t, "r", "forall x y : nat, eq nat (h x y) (k x y)")
	s.InsertRules("base", []*Rule{r})

	hits, err := s.Search("base", term.MustParse("forall y : nat, h a y"))
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	// The other way around the candidate is incompatible.
	s.InsertRules("narrow", []*Rule{mustRule(t, "n", "eq nat (h a b) c")})
	hits, err = s.Search("narrow", term.MustParse("forall y : nat, h a y"))
	require.NoError(t, err)
	assert.Empty(t, hits, "a candidate with fewer quantifiers than the query is dropped")
}

func TestSearchFiltersFalsePositives(t *testing.T) {
	s := NewStore()
	// Both patterns index as f · ·, so the net reports both; the repeated
	// placeholder of r2 survives only the approximate phase.
	r1 := mustRule(t, "r1", "forall x y : nat, eq nat (f x y) (g x)")
	r2 := mustRule(t, "r2", "forall x : nat, eq nat (f x x) (g x)")
	s.InsertRules("base", []*Rule{r1, r2})

	hits, err := s.Search("base", term.MustParse("f a b"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Same(t, r1, hits[0])
}

func TestUnknownBaseIsUserError(t *testing.T) {
	s := NewStore()
	_, err := s.AllRules("missing")
	require.Error(t, err)
	assert.True(t, IsUserError(err))
	assert.Contains(t, err.Error(), "missing")

	_, err = s.Search("missing", term.MustParse("f"))
	require.Error(t, err)
	assert.True(t, IsUserError(err))
}

func TestBaseIsolation(t *testing.T) {
	s := NewStore()
	s.InsertRules("b1", []*Rule{mustRule(t, "r", "forall x : nat, eq nat (f x) (g x)")})
	s.InsertRules("b2", []*Rule{mustRule(t, "other", "eq nat a b")})

	hits, err := s.Search("b2", term.MustParse("f a"))
	require.NoError(t, err)
	assert.Empty(t, hits, "rules of b1 must not answer a b2 search")
}

func TestSearchCacheInvalidation(t *testing.T) {
	s := NewStore()
	s.InsertRules("base", []*Rule{mustRule(t, "r1", "forall x : nat, eq nat (f x) (g x)")})

	q := term.MustParse("f a")
	hits, err := s.Search("base", q)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	// A second matching rule must be visible despite the cached result.
	s.InsertRules("base", []*Rule{mustRule(t, "r2", "forall x : nat, eq nat (f x) (h x)")})
	hits, err = s.Search("base", q)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestCacheKeyDistinguishesPrintAliases(t *testing.T) {
	c := &term.Const{Name: "#1"}
	r := &term.Rel{Index: 1}
	require.Equal(t, c.String(), r.String(), "the printer aliases these terms")
	assert.NotEqual(t, cacheKey(c), cacheKey(r))

	// Spines of different shape never share a key either.
	assert.NotEqual(t,
		cacheKey(term.MkApp(&term.Const{Name: "f"}, c)),
		cacheKey(term.MkApp(&term.Const{Name: "f"}, r)))
}

func TestSearchPrintAliasedQueries(t *testing.T) {
	// A rule whose pattern mentions a constant that prints like a bound
	// variable: the cached result of one query must not answer the other.
	hash := &term.Const{Name: "#1"}
	stmtType := &term.App{Fn: &term.Const{Name: "eq"}, Args: []term.Term{
		&term.Const{Name: "nat"},
		term.MkApp(&term.Const{Name: "f"}, hash),
		&term.Const{Name: "rhs"},
	}}
	r, err := NewRule(&term.Const{Name: "odd"}, stmtType, universe.ContextSet{}, true, nil)
	require.NoError(t, err)

	s := NewStore()
	s.InsertRules("base", []*Rule{r})

	hits, err := s.Search("base", term.MkApp(&term.Const{Name: "f"}, hash))
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = s.Search("base", term.MkApp(&term.Const{Name: "f"}, &term.Rel{Index: 1}))
	require.NoError(t, err)
	assert.Empty(t, hits, "the bound-variable query matches nothing")
}

func TestStoreRemap(t *testing.T) {
	s := NewStore()
	r := mustRule(t, "addz", "forall x : nat, eq nat (add x zero) x")
	untouched := mustRule(t, "idem", "eq nat a a")
	s.InsertRules("base", []*Rule{r, untouched})

	s.Remap(map[string]string{"add": "Nat.add"})

	rules, err := s.AllRules("base")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	// Most recent first: untouched then the renamed rule.
	assert.Same(t, untouched, rules[0], "an unaffected rule keeps its identity")
	assert.True(t, term.Equal(rules[1].Pattern,
		term.MustParse("forall x : nat, Nat.add x zero")))

	hits, err := s.Search("base", term.MustParse("Nat.add a zero"))
	require.NoError(t, err)
	assert.Len(t, hits, 1, "search follows the renamed constant")
}

func TestRuleRemapIdentity(t *testing.T) {
	r := mustRule(t, "r", "eq nat a b")
	assert.Same(t, r, r.Remap(map[string]string{"zzz": "yyy"}))
	renamed := r.Remap(map[string]string{"a": "a2"})
	assert.NotSame(t, r, renamed)
	assert.True(t, term.Equal(renamed.Pattern, term.MustParse("a2")))
}

func TestBasesListing(t *testing.T) {
	s := NewStore()
	s.InsertRules("zeta", nil)
	s.InsertRules("alpha", nil)
	assert.Equal(t, []string{"alpha", "zeta"}, s.Bases())
}
