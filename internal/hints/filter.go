package hints

import (
	"github.com/haansn08/autorewrite/internal/term"
)

// ConvPb selects which side of the cumulativity relation a comparison uses.
type ConvPb int

const (
	// Conv requires the two terms to be interconvertible.
	Conv ConvPb = iota
	// Cumul requires the candidate to be no more general than the query.
	Cumul
)

// Relation is the conversion/cumulativity judgment the filter delegates
// leaf comparisons to. Implementations must be sound: a true result means
// the two terms are related under pb in the ambient environment.
type Relation func(pb ConvPb, a, b term.Term) bool

// ConvertibleByEquality is the default relation: structural equality, which
// ignores universe instances. It is sound and incomplete, like the filter
// built on top of it.
func ConvertibleByEquality(pb ConvPb, a, b term.Term) bool {
	return term.Equal(a, b)
}

// binding records one solved placeholder: the term it was solved with and
// the binder depth the solution was recorded at.
type binding struct {
	depth int
	value term.Term
}

// Matches reports whether some assignment of candidate's placeholders makes
// it related to query under rel. Failure is local and silent: a false
// result just means "this candidate does not match".
func Matches(rel Relation, query, candidate term.Term) bool {
	_, ok := Solve(rel, query, candidate)
	return ok
}

// Solve is Matches returning the placeholder assignment. Solutions are
// normalized to the root depth; a solution that mentions a binder crossed
// during matching cannot be normalized and is omitted from the map (the
// match itself still succeeds).
func Solve(rel Relation, query, candidate term.Term) (map[string]term.Term, bool) {
	asg := make(map[string]binding)
	if !filter(asg, rel, 0, Cumul, query, candidate) {
		return nil, false
	}
	sol := make(map[string]term.Term, len(asg))
	for key, b := range asg {
		if v, ok := term.Unlift(b.depth, b.value); ok {
			sol[key] = v
		}
	}
	return sol, true
}

// filter is the structural one-directional matcher. It maintains asg, the
// assignment of candidate placeholders solved so far, and fails locally by
// returning false. depth counts the binders crossed since the root.
func filter(asg map[string]binding, rel Relation, depth int, pb ConvPb, query, candidate term.Term) bool {
	query = stripCasts(query)
	candidate = stripCasts(candidate)

	if e, ok := candidate.(*term.Evar); ok {
		return solve(asg, rel, depth, e.Key, query)
	}
	if e, ok := query.(*term.Evar); ok {
		return solve(asg, rel, depth, e.Key, candidate)
	}

	switch c := candidate.(type) {
	case *term.App:
		q, ok := query.(*term.App)
		if !ok {
			return false
		}
		// Peel one argument at a time so spines of different arities can
		// still align on a shared prefix.
		qPre, qLast, _ := term.SplitApp(q)
		cPre, cLast, _ := term.SplitApp(c)
		if !filter(asg, rel, depth, Conv, qLast, cLast) {
			return false
		}
		return filter(asg, rel, depth, pb, qPre, cPre)
	case *term.Prod:
		q, ok := query.(*term.Prod)
		if !ok {
			return false
		}
		if !filter(asg, rel, depth, Conv, q.Domain, c.Domain) {
			return false
		}
		return filter(asg, rel, depth+1, pb, q.Body, c.Body)
	default:
		return compareGeneric(asg, rel, depth, pb, query, candidate)
	}
}

// solve records or checks one placeholder occurrence. A repeated occurrence
// must, after reconciling the binder-depth difference with the stored
// solution, be related to it; otherwise the whole match fails.
func solve(asg map[string]binding, rel Relation, depth int, key string, value term.Term) bool {
	prev, seen := asg[key]
	if !seen {
		asg[key] = binding{depth: depth, value: value}
		return true
	}
	stored := prev.value
	switch {
	case depth > prev.depth:
		stored = term.Lift(depth-prev.depth, stored)
	case depth < prev.depth:
		adjusted, ok := term.Unlift(prev.depth-depth, stored)
		if !ok {
			return false
		}
		stored = adjusted
	}
	return rel(Conv, stored, value)
}

// compareGeneric is the fallback comparator for node kinds the filter has
// no dedicated case for: a plain structural walk under the relation,
// re-entering filter for immediate subterms. It is strictly weaker than a
// relation-aware comparison for recursive and case-analysis subterms; some
// true matches are rejected here, which is the accepted trade-off.
func compareGeneric(asg map[string]binding, rel Relation, depth int, pb ConvPb, query, candidate term.Term) bool {
	switch c := candidate.(type) {
	case *term.Rel:
		q, ok := query.(*term.Rel)
		return ok && q.Index == c.Index
	case *term.Sort:
		if _, ok := query.(*term.Sort); !ok {
			return false
		}
		return rel(pb, query, candidate)
	case *term.Const:
		q, ok := query.(*term.Const)
		if !ok || q.Name != c.Name {
			return false
		}
		return rel(Conv, query, candidate)
	case *term.Lambda:
		q, ok := query.(*term.Lambda)
		if !ok {
			return false
		}
		return filter(asg, rel, depth, Conv, q.Domain, c.Domain) &&
			filter(asg, rel, depth+1, Conv, q.Body, c.Body)
	case *term.LetIn:
		q, ok := query.(*term.LetIn)
		if !ok {
			return false
		}
		return filter(asg, rel, depth, Conv, q.Value, c.Value) &&
			filter(asg, rel, depth, Conv, q.Type, c.Type) &&
			filter(asg, rel, depth+1, Conv, q.Body, c.Body)
	case *term.Proj:
		q, ok := query.(*term.Proj)
		if !ok || q.Field != c.Field {
			return false
		}
		return filter(asg, rel, depth, Conv, q.Record, c.Record)
	case *term.Case:
		q, ok := query.(*term.Case)
		if !ok || !sameCaseInfo(q.Info, c.Info) || len(q.Branches) != len(c.Branches) {
			return false
		}
		if !filter(asg, rel, depth, Conv, q.Scrutinee, c.Scrutinee) {
			return false
		}
		if !filter(asg, rel, depth, Conv, q.Return, c.Return) {
			return false
		}
		for i := range c.Branches {
			if !filter(asg, rel, depth, Conv, q.Branches[i], c.Branches[i]) {
				return false
			}
		}
		return true
	case *term.Fix:
		q, ok := query.(*term.Fix)
		if !ok || !sameFixInfo(q.Info, c.Info) || len(q.Bodies) != len(c.Bodies) || len(q.Types) != len(c.Types) {
			return false
		}
		return compareAll(asg, rel, depth, q.Types, c.Types) &&
			compareAll(asg, rel, depth+len(c.Bodies), q.Bodies, c.Bodies)
	case *term.CoFix:
		q, ok := query.(*term.CoFix)
		if !ok || q.Index != c.Index || len(q.Bodies) != len(c.Bodies) || len(q.Types) != len(c.Types) {
			return false
		}
		return compareAll(asg, rel, depth, q.Types, c.Types) &&
			compareAll(asg, rel, depth+len(c.Bodies), q.Bodies, c.Bodies)
	case *term.IntLit:
		q, ok := query.(*term.IntLit)
		return ok && q.Value == c.Value
	case *term.FloatLit:
		q, ok := query.(*term.FloatLit)
		return ok && q.Value == c.Value
	case *term.ArrayLit:
		q, ok := query.(*term.ArrayLit)
		if !ok || len(q.Elems) != len(c.Elems) {
			return false
		}
		return compareAll(asg, rel, depth, q.Elems, c.Elems) &&
			filter(asg, rel, depth, Conv, q.Default, c.Default) &&
			filter(asg, rel, depth, Conv, q.ElemType, c.ElemType)
	default:
		return false
	}
}

func compareAll(asg map[string]binding, rel Relation, depth int, qs, cs []term.Term) bool {
	if len(qs) != len(cs) {
		return false
	}
	for i := range cs {
		if !filter(asg, rel, depth, Conv, qs[i], cs[i]) {
			return false
		}
	}
	return true
}

func stripCasts(t term.Term) term.Term {
	for {
		c, ok := t.(*term.Cast)
		if !ok {
			return t
		}
		t = c.Body
	}
}

func sameCaseInfo(a, b term.CaseInfo) bool {
	if a.Inductive != b.Inductive || a.NumParams != b.NumParams || len(a.ConsArity) != len(b.ConsArity) {
		return false
	}
	for i := range a.ConsArity {
		if a.ConsArity[i] != b.ConsArity[i] {
			return false
		}
	}
	return true
}

func sameFixInfo(a, b term.FixInfo) bool {
	if a.Index != b.Index || len(a.RecArgs) != len(b.RecArgs) {
		return false
	}
	for i := range a.RecArgs {
		if a.RecArgs[i] != b.RecArgs[i] {
			return false
		}
	}
	return true
}
