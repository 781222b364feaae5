// Package hints implements the rewrite-hint store: the term-specific
// instantiation of the discrimination net, the structural candidate filter
// refining its approximate hits, the rewrite-rule type and the named base
// table the tactic engine draws rules from.
package hints

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/haansn08/autorewrite/internal/term"
)

// ShapeTag enumerates the descriptor variants, one per indexable node kind.
type ShapeTag int

const (
	RelShape ShapeTag = iota
	SortShape
	GRefShape
	ProdShape
	LetShape
	LambdaShape
	AppShape
	CaseShape
	FixShape
	CoFixShape
	IntShape
	FloatShape
	ArrayShape
)

var shapeTagNames = map[ShapeTag]string{
	RelShape:    "Rel",
	SortShape:   "Sort",
	GRefShape:   "GRef",
	ProdShape:   "Prod",
	LetShape:    "Let",
	LambdaShape: "Lambda",
	AppShape:    "App",
	CaseShape:   "Case",
	FixShape:    "Fix",
	CoFixShape:  "CoFix",
	IntShape:    "Int",
	FloatShape:  "Float",
	ArrayShape:  "Array",
}

// String returns the tag's name.
func (t ShapeTag) String() string {
	if name, ok := shapeTagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(t))
}

// Shape is the binder-stripped, finite projection of one term node used to
// key a branch of the discrimination net. Subterms are never part of a
// shape; they are handed back as the node's children. Two shapes are equal
// exactly when their tag and embedded metadata are equal, which is what the
// net's map keys need: descriptor equality, not term equality.
type Shape struct {
	Tag  ShapeTag
	Name string // global name (GRef), inductive (Case)
	Meta string // canonical encoding of case/fix/array metadata
	Num  uint64 // de Bruijn index, integer value, or float bits
}

// String renders the shape for diagnostics.
func (s Shape) String() string {
	out := s.Tag.String()
	if s.Name != "" {
		out += "(" + s.Name + ")"
	}
	if s.Meta != "" {
		out += "[" + s.Meta + "]"
	}
	return out
}

func encodeInts(groups ...[]int) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		ss := make([]string, len(g))
		for i, n := range g {
			ss[i] = strconv.Itoa(n)
		}
		parts = append(parts, strings.Join(ss, ","))
	}
	return strings.Join(parts, ";")
}

// Decompose projects one term node onto its shape descriptor and its
// ordered children. ok is false only for an existential placeholder, which
// the net treats as a wildcard. Casts are stripped transparently and
// projections are desugared to an application of the underlying constant.
// Applications decompose one argument at a time: an n-argument spine yields
// nested App shapes whose children are the spine minus its last argument,
// then the last argument, so partial-application prefixes share net paths.
func Decompose(t term.Term) (Shape, []term.Term, bool) {
	switch x := t.(type) {
	case *term.Evar:
		return Shape{}, nil, false
	case *term.Cast:
		return Decompose(x.Body)
	case *term.Proj:
		return Decompose(term.MkApp(&term.Const{Name: x.Field}, x.Record))
	case *term.Rel:
		return Shape{Tag: RelShape, Num: uint64(x.Index)}, nil, true
	case *term.Sort:
		// Sort detail is deliberately dropped: all sorts share one branch.
		return Shape{Tag: SortShape}, nil, true
	case *term.Const:
		return Shape{Tag: GRefShape, Name: x.Name}, nil, true
	case *term.Prod:
		return Shape{Tag: ProdShape}, []term.Term{x.Domain, x.Body}, true
	case *term.Lambda:
		return Shape{Tag: LambdaShape}, []term.Term{x.Domain, x.Body}, true
	case *term.LetIn:
		return Shape{Tag: LetShape}, []term.Term{x.Value, x.Type, x.Body}, true
	case *term.App:
		prefix, last, _ := term.SplitApp(x)
		return Shape{Tag: AppShape}, []term.Term{prefix, last}, true
	case *term.Case:
		meta := encodeInts([]int{x.Info.NumParams}, x.Info.ConsArity)
		children := make([]term.Term, 0, 2+len(x.Branches))
		children = append(children, x.Scrutinee, x.Return)
		children = append(children, x.Branches...)
		return Shape{Tag: CaseShape, Name: x.Info.Inductive, Meta: meta}, children, true
	case *term.Fix:
		meta := encodeInts([]int{x.Info.Index}, x.Info.RecArgs)
		children := make([]term.Term, 0, len(x.Types)+len(x.Bodies))
		children = append(children, x.Types...)
		children = append(children, x.Bodies...)
		return Shape{Tag: FixShape, Meta: meta}, children, true
	case *term.CoFix:
		meta := encodeInts([]int{x.Index, len(x.Bodies)})
		children := make([]term.Term, 0, len(x.Types)+len(x.Bodies))
		children = append(children, x.Types...)
		children = append(children, x.Bodies...)
		return Shape{Tag: CoFixShape, Meta: meta}, children, true
	case *term.IntLit:
		return Shape{Tag: IntShape, Num: x.Value}, nil, true
	case *term.FloatLit:
		return Shape{Tag: FloatShape, Num: math.Float64bits(x.Value)}, nil, true
	case *term.ArrayLit:
		meta := encodeInts([]int{len(x.Elems)})
		children := make([]term.Term, 0, len(x.Elems)+2)
		children = append(children, x.Elems...)
		children = append(children, x.Default, x.ElemType)
		return Shape{Tag: ArrayShape, Meta: meta}, children, true
	default:
		// Unknown node kinds never reach the net; treat as wildcard so a
		// stray one cannot poison a branch.
		return Shape{}, nil, false
	}
}

// freshKey mints a placeholder key unique across all matching problems.
func freshKey() string {
	return uuid.NewString()
}
