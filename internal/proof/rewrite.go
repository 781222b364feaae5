package proof

import (
	"github.com/haansn08/autorewrite/internal/engine"
	"github.com/haansn08/autorewrite/internal/hints"
	"github.com/haansn08/autorewrite/internal/term"
	"github.com/haansn08/autorewrite/internal/universe"
)

// TermRewriter implements the engine's single-step rewrite primitive over
// plain term trees. Occurrence selection is outermost-leftmost: the clause
// is walked in pre-order, the node itself before its children and children
// left to right, and the first subterm the rule's source side matches is
// replaced. One call rewrites exactly one occurrence.
type TermRewriter struct {
	rel hints.Relation
}

// NewTermRewriter creates a rewriter using rel as the conversion judgment;
// nil means structural equality.
func NewTermRewriter(rel hints.Relation) *TermRewriter {
	if rel == nil {
		rel = hints.ConvertibleByEquality
	}
	return &TermRewriter{rel: rel}
}

// RewriteOnce implements engine.Rewriter.
func (w *TermRewriter) RewriteOnce(st engine.State, clause string, r *hints.Rule, usub universe.Subst) (bool, error) {
	var target term.Term
	if clause == engine.ConclClause {
		target = st.Conclusion()
	} else {
		t, ok := st.Hypothesis(clause)
		if !ok {
			return false, hints.NewUserError(hints.CodeMissingHyp, "no such hypothesis: %s", clause)
		}
		target = t
	}

	src, dst, ok := r.Sides()
	if !ok {
		return false, nil
	}
	src = term.SubstLevels(usub, src)
	dst = term.SubstLevels(usub, dst)

	out, changed := rewriteFirst(w.rel, target, src, dst)
	if !changed {
		return false, nil
	}
	if clause == engine.ConclClause {
		st.SetConclusion(out)
	} else {
		st.SetHypothesis(clause, out)
	}
	return true, nil
}

// rewriteFirst replaces the outermost-leftmost subterm of target that src
// matches with dst under the solved placeholder assignment. An occurrence
// whose assignment leaves a placeholder of dst unsolved, or whose solution
// depends on a binder crossed during matching, is skipped and the walk
// continues.
func rewriteFirst(rel hints.Relation, target, src, dst term.Term) (term.Term, bool) {
	done := false
	out := walk(target, func(t term.Term) (term.Term, bool) {
		if done {
			return t, true
		}
		sol, ok := hints.Solve(rel, t, src)
		if !ok {
			return nil, false
		}
		if term.HasEvar(sol, dst) {
			return nil, false
		}
		done = true
		return term.SubstEvars(sol, dst), true
	})
	return out, done
}

// walk rebuilds t in pre-order: f sees every node before its children,
// children left to right. Returning handled replaces the node and stops
// descending into it.
func walk(t term.Term, f func(term.Term) (term.Term, bool)) term.Term {
	return mapPre(t, f)
}

func mapPre(t term.Term, f func(term.Term) (term.Term, bool)) term.Term {
	if r, ok := f(t); ok {
		return r
	}
	switch x := t.(type) {
	case *term.Prod:
		d := mapPre(x.Domain, f)
		b := mapPre(x.Body, f)
		if d == x.Domain && b == x.Body {
			return t
		}
		return &term.Prod{Binder: x.Binder, Domain: d, Body: b}
	case *term.Lambda:
		d := mapPre(x.Domain, f)
		b := mapPre(x.Body, f)
		if d == x.Domain && b == x.Body {
			return t
		}
		return &term.Lambda{Binder: x.Binder, Domain: d, Body: b}
	case *term.LetIn:
		v := mapPre(x.Value, f)
		ty := mapPre(x.Type, f)
		b := mapPre(x.Body, f)
		if v == x.Value && ty == x.Type && b == x.Body {
			return t
		}
		return &term.LetIn{Binder: x.Binder, Value: v, Type: ty, Body: b}
	case *term.App:
		fn := mapPre(x.Fn, f)
		args := mapPreAll(x.Args, f)
		if fn == x.Fn && args == nil {
			return t
		}
		if args == nil {
			args = x.Args
		}
		return &term.App{Fn: fn, Args: args}
	case *term.Cast:
		b := mapPre(x.Body, f)
		ty := mapPre(x.Type, f)
		if b == x.Body && ty == x.Type {
			return t
		}
		return &term.Cast{Body: b, Type: ty}
	case *term.Proj:
		r := mapPre(x.Record, f)
		if r == x.Record {
			return t
		}
		return &term.Proj{Field: x.Field, Record: r}
	case *term.Case:
		s := mapPre(x.Scrutinee, f)
		ret := mapPre(x.Return, f)
		brs := mapPreAll(x.Branches, f)
		if s == x.Scrutinee && ret == x.Return && brs == nil {
			return t
		}
		if brs == nil {
			brs = x.Branches
		}
		return &term.Case{Info: x.Info, Scrutinee: s, Return: ret, Branches: brs}
	case *term.Fix:
		tys := mapPreAll(x.Types, f)
		bodies := mapPreAll(x.Bodies, f)
		if tys == nil && bodies == nil {
			return t
		}
		if tys == nil {
			tys = x.Types
		}
		if bodies == nil {
			bodies = x.Bodies
		}
		return &term.Fix{Info: x.Info, Names: x.Names, Types: tys, Bodies: bodies}
	case *term.CoFix:
		tys := mapPreAll(x.Types, f)
		bodies := mapPreAll(x.Bodies, f)
		if tys == nil && bodies == nil {
			return t
		}
		if tys == nil {
			tys = x.Types
		}
		if bodies == nil {
			bodies = x.Bodies
		}
		return &term.CoFix{Index: x.Index, Names: x.Names, Types: tys, Bodies: bodies}
	case *term.ArrayLit:
		elems := mapPreAll(x.Elems, f)
		def := mapPre(x.Default, f)
		ty := mapPre(x.ElemType, f)
		if elems == nil && def == x.Default && ty == x.ElemType {
			return t
		}
		if elems == nil {
			elems = x.Elems
		}
		return &term.ArrayLit{Elems: elems, Default: def, ElemType: ty}
	default:
		return t
	}
}

// mapPreAll maps f over ts, returning nil when nothing changed.
func mapPreAll(ts []term.Term, f func(term.Term) (term.Term, bool)) []term.Term {
	var out []term.Term
	for i, t := range ts {
		r := mapPre(t, f)
		if r != t && out == nil {
			out = make([]term.Term, len(ts))
			copy(out, ts)
		}
		if out != nil {
			out[i] = r
		}
	}
	return out
}
