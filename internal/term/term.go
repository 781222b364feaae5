// Package term defines the abstract syntax trees of the underlying
// dependently typed calculus as consumed by the rewrite-hint engine.
// Every node kind the engine can index or match on is a struct implementing
// the Term interface; bound variables use de Bruijn indices (1-based, Rel 1
// is the innermost binder). Binder names are kept for printing only and are
// ignored by structural equality.
//
// The package also provides the operations the engine needs on terms:
// lifting and substitution of de Bruijn indices, quantifier decomposition,
// universe-level substitution and identity-preserving remapping of global
// references (used when an enclosing module is relocated).
package term

import (
	"fmt"
	"strings"

	"github.com/haansn08/autorewrite/internal/universe"
)

// Term is the interface implemented by all node kinds of the calculus.
type Term interface {
	// String returns a human-readable rendering of the term.
	String() string
	termNode() // marker method to close the sum
}

// SortFamily distinguishes the sort constants of the calculus.
type SortFamily int

const (
	Prop SortFamily = iota
	Set
	Type // carries a universe level
)

// String returns the surface keyword for the family.
func (f SortFamily) String() string {
	switch f {
	case Prop:
		return "Prop"
	case Set:
		return "Set"
	case Type:
		return "Type"
	default:
		return fmt.Sprintf("Sort(%d)", int(f))
	}
}

// Rel is a bound-variable reference by de Bruijn index (1-based).
type Rel struct {
	Index int
}

// Sort is a sort of the calculus; Level is meaningful only for Type.
type Sort struct {
	Family SortFamily
	Level  universe.Level
}

// Const is a reference to a global constant, possibly applied to a universe
// instance. Name is the fully qualified path of the constant.
type Const struct {
	Name string
	Inst universe.Instance
}

// Evar is an existential placeholder standing for a yet-unknown subterm.
// Keys are unique within one matching problem; the discrimination net treats
// an Evar position as a wildcard.
type Evar struct {
	Key string
}

// Prod is a dependent product "forall x : Domain, Body".
type Prod struct {
	Binder string
	Domain Term
	Body   Term
}

// Lambda is an abstraction "fun x : Domain => Body".
type Lambda struct {
	Binder string
	Domain Term
	Body   Term
}

// LetIn is a local definition "let x := Value : Type in Body".
type LetIn struct {
	Binder string
	Value  Term
	Type   Term
	Body   Term
}

// App is an n-ary application with a non-empty argument list. The spine is
// kept flat here; the shape extraction recurries it into binary nodes.
type App struct {
	Fn   Term
	Args []Term
}

// Cast annotates a term with a type. Casts are transparent to indexing and
// matching.
type Cast struct {
	Body Term
	Type Term
}

// Proj is a primitive record projection, desugared to an application of the
// underlying constant before indexing.
type Proj struct {
	Field  string
	Record Term
}

// CaseInfo is the metadata of a case analysis: the inductive being matched,
// its parameter count, and the argument count of each constructor branch.
type CaseInfo struct {
	Inductive string
	NumParams int
	ConsArity []int
}

// Case is a case analysis over Scrutinee, with the motive Return and one
// branch per constructor.
type Case struct {
	Info      CaseInfo
	Scrutinee Term
	Return    Term
	Branches  []Term
}

// FixInfo is the recursion metadata of a fixpoint block: the structurally
// decreasing argument position of each mutual function, and which function
// of the block this node denotes.
type FixInfo struct {
	RecArgs []int
	Index   int
}

// Fix is a block of mutually recursive fixpoints.
type Fix struct {
	Info   FixInfo
	Names  []string
	Types  []Term
	Bodies []Term
}

// CoFix is a block of mutually corecursive cofixpoints; Index selects the
// denoted function.
type CoFix struct {
	Index  int
	Names  []string
	Types  []Term
	Bodies []Term
}

// IntLit is a primitive machine-integer literal.
type IntLit struct {
	Value uint64
}

// FloatLit is a primitive floating-point literal.
type FloatLit struct {
	Value float64
}

// ArrayLit is a primitive persistent-array literal: the elements, the
// default value for out-of-range cells, and the element type.
type ArrayLit struct {
	Elems    []Term
	Default  Term
	ElemType Term
}

func (*Rel) termNode()      {}
func (*Sort) termNode()     {}
func (*Const) termNode()    {}
func (*Evar) termNode()     {}
func (*Prod) termNode()     {}
func (*Lambda) termNode()   {}
func (*LetIn) termNode()    {}
func (*App) termNode()      {}
func (*Cast) termNode()     {}
func (*Proj) termNode()     {}
func (*Case) termNode()     {}
func (*Fix) termNode()      {}
func (*CoFix) termNode()    {}
func (*IntLit) termNode()   {}
func (*FloatLit) termNode() {}
func (*ArrayLit) termNode() {}

// MkApp builds an application of fn to args, flattening a nested App spine
// and returning fn unchanged when args is empty.
func MkApp(fn Term, args ...Term) Term {
	if len(args) == 0 {
		return fn
	}
	if a, ok := fn.(*App); ok {
		merged := make([]Term, 0, len(a.Args)+len(args))
		merged = append(merged, a.Args...)
		merged = append(merged, args...)
		return &App{Fn: a.Fn, Args: merged}
	}
	return &App{Fn: fn, Args: args}
}

// Equal reports structural equality of two terms. Binder names are ignored;
// universe instances and sort levels are ignored as well, so two copies of a
// polymorphic constant at different instances compare equal. This is the
// default conversion used by the candidate filter.
func Equal(a, b Term) bool {
	switch x := a.(type) {
	case *Rel:
		y, ok := b.(*Rel)
		return ok && x.Index == y.Index
	case *Sort:
		y, ok := b.(*Sort)
		return ok && x.Family == y.Family
	case *Const:
		y, ok := b.(*Const)
		return ok && x.Name == y.Name
	case *Evar:
		y, ok := b.(*Evar)
		return ok && x.Key == y.Key
	case *Prod:
		y, ok := b.(*Prod)
		return ok && Equal(x.Domain, y.Domain) && Equal(x.Body, y.Body)
	case *Lambda:
		y, ok := b.(*Lambda)
		return ok && Equal(x.Domain, y.Domain) && Equal(x.Body, y.Body)
	case *LetIn:
		y, ok := b.(*LetIn)
		return ok && Equal(x.Value, y.Value) && Equal(x.Type, y.Type) && Equal(x.Body, y.Body)
	case *App:
		y, ok := b.(*App)
		if !ok || len(x.Args) != len(y.Args) || !Equal(x.Fn, y.Fn) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Cast:
		y, ok := b.(*Cast)
		return ok && Equal(x.Body, y.Body) && Equal(x.Type, y.Type)
	case *Proj:
		y, ok := b.(*Proj)
		return ok && x.Field == y.Field && Equal(x.Record, y.Record)
	case *Case:
		y, ok := b.(*Case)
		if !ok || !caseInfoEqual(x.Info, y.Info) || len(x.Branches) != len(y.Branches) {
			return false
		}
		if !Equal(x.Scrutinee, y.Scrutinee) || !Equal(x.Return, y.Return) {
			return false
		}
		for i := range x.Branches {
			if !Equal(x.Branches[i], y.Branches[i]) {
				return false
			}
		}
		return true
	case *Fix:
		y, ok := b.(*Fix)
		if !ok || !fixInfoEqual(x.Info, y.Info) || len(x.Types) != len(y.Types) || len(x.Bodies) != len(y.Bodies) {
			return false
		}
		return termsEqual(x.Types, y.Types) && termsEqual(x.Bodies, y.Bodies)
	case *CoFix:
		y, ok := b.(*CoFix)
		if !ok || x.Index != y.Index || len(x.Types) != len(y.Types) || len(x.Bodies) != len(y.Bodies) {
			return false
		}
		return termsEqual(x.Types, y.Types) && termsEqual(x.Bodies, y.Bodies)
	case *IntLit:
		y, ok := b.(*IntLit)
		return ok && x.Value == y.Value
	case *FloatLit:
		y, ok := b.(*FloatLit)
		return ok && x.Value == y.Value
	case *ArrayLit:
		y, ok := b.(*ArrayLit)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		return termsEqual(x.Elems, y.Elems) && Equal(x.Default, y.Default) && Equal(x.ElemType, y.ElemType)
	default:
		return false
	}
}

func termsEqual(xs, ys []Term) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

func caseInfoEqual(a, b CaseInfo) bool {
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

func fixInfoEqual(a, b FixInfo) bool {
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

// ===== Printing =====

func (t *Rel) String() string      { return printTerm(t, nil) }
func (t *Sort) String() string     { return printTerm(t, nil) }
func (t *Const) String() string    { return printTerm(t, nil) }
func (t *Evar) String() string     { return printTerm(t, nil) }
func (t *Prod) String() string     { return printTerm(t, nil) }
func (t *Lambda) String() string   { return printTerm(t, nil) }
func (t *LetIn) String() string    { return printTerm(t, nil) }
func (t *App) String() string      { return printTerm(t, nil) }
func (t *Cast) String() string     { return printTerm(t, nil) }
func (t *Proj) String() string     { return printTerm(t, nil) }
func (t *Case) String() string     { return printTerm(t, nil) }
func (t *Fix) String() string      { return printTerm(t, nil) }
func (t *CoFix) String() string    { return printTerm(t, nil) }
func (t *IntLit) String() string   { return printTerm(t, nil) }
func (t *FloatLit) String() string { return printTerm(t, nil) }
func (t *ArrayLit) String() string { return printTerm(t, nil) }

// printTerm renders t with ctx as the stack of enclosing binder names
// (innermost last).
func printTerm(t Term, ctx []string) string {
	switch x := t.(type) {
	case *Rel:
		if x.Index >= 1 && x.Index <= len(ctx) {
			name := ctx[len(ctx)-x.Index]
			if name != "" && name != "_" {
				return name
			}
		}
		return fmt.Sprintf("#%d", x.Index)
	case *Sort:
		if x.Family == Type && x.Level.Name != "" {
			return fmt.Sprintf("Type@{%s}", x.Level)
		}
		return x.Family.String()
	case *Const:
		return x.Name + x.Inst.String()
	case *Evar:
		return "?" + x.Key
	case *Prod:
		name := binderName(x.Binder, ctx)
		return fmt.Sprintf("forall %s : %s, %s",
			name, printTerm(x.Domain, ctx), printTerm(x.Body, append(ctx, name)))
	case *Lambda:
		name := binderName(x.Binder, ctx)
		return fmt.Sprintf("fun %s : %s => %s",
			name, printTerm(x.Domain, ctx), printTerm(x.Body, append(ctx, name)))
	case *LetIn:
		name := binderName(x.Binder, ctx)
		return fmt.Sprintf("let %s := %s : %s in %s",
			name, printTerm(x.Value, ctx), printTerm(x.Type, ctx), printTerm(x.Body, append(ctx, name)))
	case *App:
		parts := []string{printAtom(x.Fn, ctx)}
		for _, a := range x.Args {
			parts = append(parts, printAtom(a, ctx))
		}
		return strings.Join(parts, " ")
	case *Cast:
		return fmt.Sprintf("(%s : %s)", printTerm(x.Body, ctx), printTerm(x.Type, ctx))
	case *Proj:
		return fmt.Sprintf("%s.(%s)", printAtom(x.Record, ctx), x.Field)
	case *Case:
		var b strings.Builder
		fmt.Fprintf(&b, "match %s return %s with", printTerm(x.Scrutinee, ctx), printTerm(x.Return, ctx))
		for i, br := range x.Branches {
			if i > 0 {
				b.WriteString(" |")
			}
			b.WriteString(" " + printTerm(br, ctx))
		}
		b.WriteString(" end")
		return b.String()
	case *Fix:
		if x.Info.Index >= 0 && x.Info.Index < len(x.Names) {
			return fmt.Sprintf("fix %s", x.Names[x.Info.Index])
		}
		return "fix"
	case *CoFix:
		if x.Index >= 0 && x.Index < len(x.Names) {
			return fmt.Sprintf("cofix %s", x.Names[x.Index])
		}
		return "cofix"
	case *IntLit:
		return fmt.Sprintf("%d", x.Value)
	case *FloatLit:
		return fmt.Sprintf("%g", x.Value)
	case *ArrayLit:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = printTerm(e, ctx)
		}
		return fmt.Sprintf("[| %s | %s : %s |]",
			strings.Join(parts, "; "), printTerm(x.Default, ctx), printTerm(x.ElemType, ctx))
	default:
		return fmt.Sprintf("<unknown %T>", t)
	}
}

// printAtom parenthesizes t when it would not parse back as an atom.
func printAtom(t Term, ctx []string) string {
	switch t.(type) {
	case *Rel, *Sort, *Const, *Evar, *IntLit, *FloatLit, *Proj, *Cast:
		return printTerm(t, ctx)
	default:
		return "(" + printTerm(t, ctx) + ")"
	}
}

func binderName(name string, ctx []string) string {
	if name == "" {
		return "_"
	}
	for _, used := range ctx {
		if used == name {
			return binderName(name+"'", ctx)
		}
	}
	return name
}
