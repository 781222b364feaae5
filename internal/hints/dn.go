package hints

import (
	"sort"

	"github.com/haansn08/autorewrite/internal/dnet"
	"github.com/haansn08/autorewrite/internal/term"
)

// Ident pairs a rule with its monotonically increasing number inside one
// base. Ordering is by the number: total and antisymmetric. Search results
// rank most-recently-inserted first; full listings are ascending.
type Ident struct {
	N    int
	Rule *Rule
}

// DN is the term-specific discrimination net of one rewrite base.
type DN struct {
	net *dnet.Net[term.Term, Shape, Ident]
}

// NewDN creates an empty net keyed by term shapes.
func NewDN() *DN {
	return &DN{net: dnet.New[term.Term, Shape, Ident](Decompose)}
}

// Add indexes id under its rule pattern. The pattern's leading quantifiers
// and let-bindings do not participate in indexing: they are opened into
// placeholders first, so the variables they bound index as wildcards.
func (d *DN) Add(pattern term.Term, id Ident) {
	n := term.CountBinders(pattern)
	_, body, ok := term.OpenBinders(pattern, n, freshKey)
	if !ok {
		body = pattern
	}
	d.net.Add(body, id)
}

// FindAll returns every stored identifier in ascending order.
func (d *DN) FindAll() []Ident {
	ids := d.net.FindAll()
	sort.Slice(ids, func(i, j int) bool { return ids[i].N < ids[j].N })
	return ids
}

// SearchPattern returns the identifiers whose pattern matches query,
// most-recently-inserted first. The net lookup over-approximates; every raw
// candidate is re-checked exactly: its original pattern's quantifier depth
// is aligned with the query's, then the structural filter decides. A
// candidate with fewer leading quantifiers than the query is incompatible
// and silently dropped.
func (d *DN) SearchPattern(rel Relation, query term.Term) []Ident {
	dq, qbody := stripQuery(query)
	raw := d.net.Lookup(qbody)

	seen := make(map[int]bool, len(raw))
	var out []Ident
	for _, id := range raw {
		if seen[id.N] {
			continue
		}
		seen[id.N] = true
		cand, ok := alignPattern(id.Rule.Pattern, dq)
		if !ok {
			continue
		}
		if Matches(rel, qbody, cand) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].N > out[j].N })
	return out
}

// stripQuery removes the query's leading quantifiers, leaving their
// variables as free de Bruijn references: the query is the specific side of
// the match and its variables stand only for themselves. Let-bindings are
// instantiated with their values.
func stripQuery(t term.Term) (int, term.Term) {
	n := 0
	for {
		switch x := t.(type) {
		case *term.Prod:
			t = x.Body
		case *term.LetIn:
			t = term.Subst1(x.Value, x.Body)
		default:
			return n, t
		}
		n++
	}
}

// alignPattern opens the candidate pattern's excess leading quantifiers
// into fresh placeholders so that the remaining prefix aligns positionally
// with the query's. ok is false when the candidate has fewer leading
// quantifiers than the query.
func alignPattern(pattern term.Term, queryDepth int) (term.Term, bool) {
	dc := term.CountBinders(pattern)
	if dc < queryDepth {
		return nil, false
	}
	_, opened, ok := term.OpenBinders(pattern, dc-queryDepth, freshKey)
	if !ok {
		return nil, false
	}
	_, body := stripQuery(opened)
	return body, true
}
