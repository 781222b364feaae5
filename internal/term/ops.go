package term

import (
	"github.com/haansn08/autorewrite/internal/universe"
)

// mapTerm rebuilds t bottom-up, calling f at every node with the number of
// binders crossed so far. When f reports handled, its result replaces the
// node and recursion stops there. The original node is returned unchanged
// (same pointer) when no descendant changed, so identity is preserved for
// no-op transformations.
func mapTerm(t Term, depth int, f func(Term, int) (Term, bool)) Term {
	if r, ok := f(t, depth); ok {
		return r
	}
	switch x := t.(type) {
	case *Rel, *Sort, *Const, *Evar, *IntLit, *FloatLit:
		return t
	case *Prod:
		d := mapTerm(x.Domain, depth, f)
		b := mapTerm(x.Body, depth+1, f)
		if d == x.Domain && b == x.Body {
			return t
		}
		return &Prod{Binder: x.Binder, Domain: d, Body: b}
	case *Lambda:
		d := mapTerm(x.Domain, depth, f)
		b := mapTerm(x.Body, depth+1, f)
		if d == x.Domain && b == x.Body {
			return t
		}
		return &Lambda{Binder: x.Binder, Domain: d, Body: b}
	case *LetIn:
		v := mapTerm(x.Value, depth, f)
		ty := mapTerm(x.Type, depth, f)
		b := mapTerm(x.Body, depth+1, f)
		if v == x.Value && ty == x.Type && b == x.Body {
			return t
		}
		return &LetIn{Binder: x.Binder, Value: v, Type: ty, Body: b}
	case *App:
		fn := mapTerm(x.Fn, depth, f)
		args, changed := mapTerms(x.Args, depth, f)
		if fn == x.Fn && !changed {
			return t
		}
		return &App{Fn: fn, Args: args}
	case *Cast:
		b := mapTerm(x.Body, depth, f)
		ty := mapTerm(x.Type, depth, f)
		if b == x.Body && ty == x.Type {
			return t
		}
		return &Cast{Body: b, Type: ty}
	case *Proj:
		r := mapTerm(x.Record, depth, f)
		if r == x.Record {
			return t
		}
		return &Proj{Field: x.Field, Record: r}
	case *Case:
		s := mapTerm(x.Scrutinee, depth, f)
		ret := mapTerm(x.Return, depth, f)
		brs, changed := mapTerms(x.Branches, depth, f)
		if s == x.Scrutinee && ret == x.Return && !changed {
			return t
		}
		return &Case{Info: x.Info, Scrutinee: s, Return: ret, Branches: brs}
	case *Fix:
		// Bodies live under the block's own binders.
		tys, tc := mapTerms(x.Types, depth, f)
		bodies, bc := mapTerms(x.Bodies, depth+len(x.Names), f)
		if !tc && !bc {
			return t
		}
		return &Fix{Info: x.Info, Names: x.Names, Types: tys, Bodies: bodies}
	case *CoFix:
		tys, tc := mapTerms(x.Types, depth, f)
		bodies, bc := mapTerms(x.Bodies, depth+len(x.Names), f)
		if !tc && !bc {
			return t
		}
		return &CoFix{Index: x.Index, Names: x.Names, Types: tys, Bodies: bodies}
	case *ArrayLit:
		elems, ec := mapTerms(x.Elems, depth, f)
		def := mapTerm(x.Default, depth, f)
		ty := mapTerm(x.ElemType, depth, f)
		if !ec && def == x.Default && ty == x.ElemType {
			return t
		}
		return &ArrayLit{Elems: elems, Default: def, ElemType: ty}
	default:
		return t
	}
}

func mapTerms(ts []Term, depth int, f func(Term, int) (Term, bool)) ([]Term, bool) {
	changed := false
	out := ts
	for i, t := range ts {
		r := mapTerm(t, depth, f)
		if r != t && !changed {
			changed = true
			out = make([]Term, len(ts))
			copy(out, ts)
		}
		if changed {
			out[i] = r
		}
	}
	return out, changed
}

// Lift shifts every free de Bruijn index of t up by n.
func Lift(n int, t Term) Term {
	if n == 0 {
		return t
	}
	return mapTerm(t, 0, func(s Term, depth int) (Term, bool) {
		if r, ok := s.(*Rel); ok {
			if r.Index > depth {
				return &Rel{Index: r.Index + n}, true
			}
			return s, true
		}
		return nil, false
	})
}

// Unlift shifts every free index of t down by n. It reports false when t
// mentions one of the n innermost free indices, in which case the shift is
// impossible.
func Unlift(n int, t Term) (Term, bool) {
	if n == 0 {
		return t, true
	}
	ok := true
	out := mapTerm(t, 0, func(s Term, depth int) (Term, bool) {
		if r, isRel := s.(*Rel); isRel {
			switch {
			case r.Index <= depth:
				return s, true
			case r.Index <= depth+n:
				ok = false
				return s, true
			default:
				return &Rel{Index: r.Index - n}, true
			}
		}
		return nil, false
	})
	if !ok {
		return nil, false
	}
	return out, true
}

// Subst1 substitutes v for the outermost free index of t (Rel 1 at depth 0)
// and shifts the remaining free indices down by one.
func Subst1(v Term, t Term) Term {
	return mapTerm(t, 0, func(s Term, depth int) (Term, bool) {
		if r, ok := s.(*Rel); ok {
			switch {
			case r.Index == depth+1:
				return Lift(depth, v), true
			case r.Index > depth+1:
				return &Rel{Index: r.Index - 1}, true
			default:
				return s, true
			}
		}
		return nil, false
	})
}

// SubstEvars replaces every placeholder whose key appears in sol, lifting
// each solution by the number of binders crossed above its occurrence.
// Solutions must be expressed at t's root depth.
func SubstEvars(sol map[string]Term, t Term) Term {
	if len(sol) == 0 {
		return t
	}
	return mapTerm(t, 0, func(s Term, depth int) (Term, bool) {
		if e, ok := s.(*Evar); ok {
			if v, found := sol[e.Key]; found {
				return Lift(depth, v), true
			}
			return s, true
		}
		return nil, false
	})
}

// HasEvar reports whether t contains a placeholder not listed in sol.
func HasEvar(sol map[string]Term, t Term) bool {
	found := false
	mapTerm(t, 0, func(s Term, depth int) (Term, bool) {
		if e, ok := s.(*Evar); ok {
			if _, solved := sol[e.Key]; !solved {
				found = true
			}
			return s, true
		}
		return nil, false
	})
	return found
}

// SubstLevels applies a universe substitution to every sort level and
// global-reference instance of t, preserving identity when nothing changes.
func SubstLevels(sub universe.Subst, t Term) Term {
	if len(sub) == 0 {
		return t
	}
	return mapTerm(t, 0, func(s Term, depth int) (Term, bool) {
		switch x := s.(type) {
		case *Sort:
			if x.Family == Type {
				if l, ok := sub[x.Level]; ok {
					return &Sort{Family: Type, Level: l}, true
				}
			}
			return s, true
		case *Const:
			inst := sub.ApplyInstance(x.Inst)
			if len(inst) == len(x.Inst) {
				same := true
				for i := range inst {
					if inst[i] != x.Inst[i] {
						same = false
						break
					}
				}
				if same {
					return s, true
				}
			}
			return &Const{Name: x.Name, Inst: inst}, true
		}
		return nil, false
	})
}

// ReplaceGlobals renames global references according to m: constant names,
// inductive names in case metadata and projection fields. The input term is
// returned unchanged (same pointer) when no name of m occurs, which lets the
// persistence layer detect no-op relocations cheaply.
func ReplaceGlobals(m map[string]string, t Term) Term {
	if len(m) == 0 {
		return t
	}
	return mapTerm(t, 0, func(s Term, depth int) (Term, bool) {
		switch x := s.(type) {
		case *Const:
			if to, ok := m[x.Name]; ok {
				return &Const{Name: to, Inst: x.Inst}, true
			}
			return s, true
		case *Proj:
			if to, ok := m[x.Field]; ok {
				return &Proj{Field: to, Record: mapTermGlobals(m, x.Record)}, true
			}
			return nil, false
		case *Case:
			if to, ok := m[x.Info.Inductive]; ok {
				info := x.Info
				info.Inductive = to
				return &Case{
					Info:      info,
					Scrutinee: mapTermGlobals(m, x.Scrutinee),
					Return:    mapTermGlobals(m, x.Return),
					Branches:  mapTermsGlobals(m, x.Branches),
				}, true
			}
			return nil, false
		}
		return nil, false
	})
}

func mapTermGlobals(m map[string]string, t Term) Term {
	return ReplaceGlobals(m, t)
}

func mapTermsGlobals(m map[string]string, ts []Term) []Term {
	out := make([]Term, len(ts))
	for i, t := range ts {
		out[i] = ReplaceGlobals(m, t)
	}
	return out
}

// CountBinders returns the number of leading products and let-bindings.
func CountBinders(t Term) int {
	n := 0
	for {
		switch x := t.(type) {
		case *Prod:
			t = x.Body
		case *LetIn:
			t = x.Body
		default:
			return n
		}
		n++
	}
}

// OpenBinders opens the first k leading binders of t. Each product binder is
// replaced by a fresh placeholder drawn from freshKey; each let-binding is
// instantiated with its value. It returns the placeholder keys introduced
// (products only, outermost first) and the opened body. Opening fewer
// binders than requested returns false.
func OpenBinders(t Term, k int, freshKey func() string) ([]string, Term, bool) {
	keys := make([]string, 0, k)
	for i := 0; i < k; i++ {
		switch x := t.(type) {
		case *Prod:
			key := freshKey()
			keys = append(keys, key)
			t = Subst1(&Evar{Key: key}, x.Body)
		case *LetIn:
			t = Subst1(x.Value, x.Body)
		default:
			return nil, nil, false
		}
	}
	return keys, t, true
}

// SplitApp splits an application spine into the application of all
// arguments but the last, and the last argument. It reports false for
// non-application terms.
func SplitApp(t Term) (Term, Term, bool) {
	a, ok := t.(*App)
	if !ok || len(a.Args) == 0 {
		return nil, nil, false
	}
	last := a.Args[len(a.Args)-1]
	if len(a.Args) == 1 {
		return a.Fn, last, true
	}
	return &App{Fn: a.Fn, Args: a.Args[:len(a.Args)-1]}, last, true
}
