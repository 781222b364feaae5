package dnet

import (
	"sort"
	"testing"
)

// tree is a minimal labeled tree for exercising the net generically.
type tree struct {
	label string
	kids  []*tree
	wild  bool
}

func mkNode(label string, kids ...*tree) *tree {
	return &tree{label: label, kids: kids}
}

func wildcard() *tree {
	return &tree{wild: true}
}

func decompose(t *tree) (string, []*tree, bool) {
	if t.wild {
		return "", nil, false
	}
	return t.label, t.kids, true
}

func newTestNet() *Net[*tree, string, int] {
	return New[*tree, string, int](decompose)
}

func sortedLookup(n *Net[*tree, string, int], t *tree) []int {
	got := n.Lookup(t)
	seen := map[int]bool{}
	var out []int
	for _, v := range got {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestExactLookup tests that a stored tree is found by itself and not by a
// tree differing at any position.
func TestExactLookup(t *testing.T) {
	n := newTestNet()
	stored := mkNode("f", mkNode("a"), mkNode("b"))
	n.Add(stored, 1)

	if got := sortedLookup(n, stored); !equalInts(got, []int{1}) {
		t.Errorf("self lookup = %v, want [1]", got)
	}
	if got := sortedLookup(n, mkNode("f", mkNode("a"), mkNode("c"))); len(got) != 0 {
		t.Errorf("lookup with differing child = %v, want empty", got)
	}
	if got := sortedLookup(n, mkNode("g", mkNode("a"), mkNode("b"))); len(got) != 0 {
		t.Errorf("lookup with differing root = %v, want empty", got)
	}
}

// TestStoredWildcard tests that a wildcard position in a stored tree
// matches any one subtree of the query.
func TestStoredWildcard(t *testing.T) {
	n := newTestNet()
	n.Add(mkNode("f", wildcard(), mkNode("b")), 7)

	matches := []*tree{
		mkNode("f", mkNode("a"), mkNode("b")),
		mkNode("f", mkNode("g", mkNode("x"), mkNode("y")), mkNode("b")),
	}
	for _, q := range matches {
		if got := sortedLookup(n, q); !equalInts(got, []int{7}) {
			t.Errorf("wildcard lookup = %v, want [7]", got)
		}
	}
	if got := sortedLookup(n, mkNode("f", mkNode("a"), mkNode("c"))); len(got) != 0 {
		t.Errorf("wildcard must not cover the sibling position: %v", got)
	}
}

// TestQueryWildcard tests that a wildcard position in the query branches
// into every stored edge, whatever its arity.
func TestQueryWildcard(t *testing.T) {
	n := newTestNet()
	n.Add(mkNode("f", mkNode("a"), mkNode("b")), 1)
	n.Add(mkNode("f", mkNode("g", mkNode("x")), mkNode("b")), 2)
	n.Add(mkNode("f", mkNode("a"), mkNode("c")), 3)
	n.Add(mkNode("h", mkNode("a"), mkNode("b")), 4)

	got := sortedLookup(n, mkNode("f", wildcard(), mkNode("b")))
	if !equalInts(got, []int{1, 2}) {
		t.Errorf("query wildcard = %v, want [1 2]", got)
	}
}

// TestBothSidesWildcard tests a stored wildcard meeting a query wildcard.
func TestBothSidesWildcard(t *testing.T) {
	n := newTestNet()
	n.Add(mkNode("f", wildcard()), 1)
	n.Add(mkNode("f", mkNode("a")), 2)

	got := sortedLookup(n, mkNode("f", wildcard()))
	if !equalInts(got, []int{1, 2}) {
		t.Errorf("wildcard vs wildcard = %v, want [1 2]", got)
	}
}

// TestSharedPrefix tests that trees sharing a prefix coexist and resolve.
func TestSharedPrefix(t *testing.T) {
	n := newTestNet()
	n.Add(mkNode("f", mkNode("a"), mkNode("b")), 1)
	n.Add(mkNode("f", mkNode("a"), mkNode("c")), 2)

	if got := sortedLookup(n, mkNode("f", mkNode("a"), mkNode("b"))); !equalInts(got, []int{1}) {
		t.Errorf("prefix sibling leaked: %v", got)
	}
	if got := sortedLookup(n, mkNode("f", mkNode("a"), mkNode("c"))); !equalInts(got, []int{2}) {
		t.Errorf("prefix sibling leaked: %v", got)
	}
}

// TestFindAll tests full enumeration.
func TestFindAll(t *testing.T) {
	n := newTestNet()
	n.Add(mkNode("f", mkNode("a")), 1)
	n.Add(mkNode("g"), 2)
	n.Add(mkNode("f", wildcard()), 3)

	got := n.FindAll()
	sort.Ints(got)
	if !equalInts(got, []int{1, 2, 3}) {
		t.Errorf("FindAll = %v, want [1 2 3]", got)
	}
}

// TestDeepWildcardSkip tests subtree skipping across nested arities.
func TestDeepWildcardSkip(t *testing.T) {
	n := newTestNet()
	deep := mkNode("f", mkNode("g", mkNode("h", mkNode("a"))), mkNode("b"))
	n.Add(deep, 9)

	if got := sortedLookup(n, mkNode("f", wildcard(), mkNode("b"))); !equalInts(got, []int{9}) {
		t.Errorf("skip over deep subtree = %v, want [9]", got)
	}
	if got := sortedLookup(n, mkNode("f", wildcard(), mkNode("c"))); len(got) != 0 {
		t.Errorf("skip must preserve the following position: %v", got)
	}
}
