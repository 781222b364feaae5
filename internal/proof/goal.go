// Package proof supplies a concrete proof state and the directed rewrite
// primitive the application engine drives. The host proof-search framework
// normally owns both; this reference implementation keeps the engine
// executable end to end.
package proof

import (
	"strings"

	"github.com/haansn08/autorewrite/internal/term"
)

// Goal is a proof state: a conclusion plus named hypotheses in context
// order.
type Goal struct {
	concl term.Term
	order []string
	hyps  map[string]term.Term
}

// NewGoal creates a goal with the given conclusion and no hypotheses.
func NewGoal(concl term.Term) *Goal {
	return &Goal{concl: concl, hyps: make(map[string]term.Term)}
}

// Conclusion returns the goal's conclusion.
func (g *Goal) Conclusion() term.Term { return g.concl }

// SetConclusion replaces the goal's conclusion.
func (g *Goal) SetConclusion(t term.Term) { g.concl = t }

// Hypothesis returns the named hypothesis, false when absent.
func (g *Goal) Hypothesis(name string) (term.Term, bool) {
	t, ok := g.hyps[name]
	return t, ok
}

// SetHypothesis replaces or introduces the named hypothesis.
func (g *Goal) SetHypothesis(name string, t term.Term) {
	if _, ok := g.hyps[name]; !ok {
		g.order = append(g.order, name)
	}
	g.hyps[name] = t
}

// HypothesisNames lists hypotheses in introduction order.
func (g *Goal) HypothesisNames() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// String renders the goal in "H1 : t1 ... |- concl" form.
func (g *Goal) String() string {
	var b strings.Builder
	for _, name := range g.order {
		b.WriteString(name)
		b.WriteString(" : ")
		b.WriteString(g.hyps[name].String())
		b.WriteString("\n")
	}
	b.WriteString("|- ")
	b.WriteString(g.concl.String())
	return b.String()
}
