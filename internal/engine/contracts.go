// Package engine drives the repeat-to-fixpoint application of rewrite-hint
// bases against a proof goal. The proof state, the single-step rewrite
// primitive and side-condition tactics are collaborator contracts: the
// engine only sequences them.
package engine

import (
	"github.com/haansn08/autorewrite/internal/hints"
	"github.com/haansn08/autorewrite/internal/term"
	"github.com/haansn08/autorewrite/internal/universe"
)

// ConclClause is the clause name designating the goal's conclusion.
const ConclClause = ""

// State is the view of the current proof state the engine rewrites.
// Hypotheses are addressed by name; the conclusion by ConclClause.
type State interface {
	// Conclusion returns the goal's conclusion.
	Conclusion() term.Term
	// SetConclusion replaces the goal's conclusion.
	SetConclusion(t term.Term)
	// Hypothesis returns the named hypothesis' statement, false when absent.
	Hypothesis(name string) (term.Term, bool)
	// SetHypothesis replaces the named hypothesis' statement.
	SetHypothesis(name string, t term.Term)
	// HypothesisNames lists the current hypotheses in context order.
	HypothesisNames() []string
}

// Rewriter is the single-step rewrite primitive. It attempts exactly one
// directed rewrite of the named clause using the rule, with usub the fresh
// universe substitution for this attempt. It reports whether the clause
// changed; inability to apply is not an error.
type Rewriter interface {
	RewriteOnce(st State, clause string, r *hints.Rule, usub universe.Subst) (bool, error)
}

// Tactic runs an opaque proof step against the current state. A non-nil
// error means the tactic failed; the engine decides whether that is
// recoverable. A rule's attached action (hints.Action) must also implement
// Tactic for the engine to run it after each step at that rule.
type Tactic interface {
	Run(st State) error
}

// TacticFunc adapts a function to the Tactic interface.
type TacticFunc func(st State) error

// Run implements Tactic.
func (f TacticFunc) Run(st State) error { return f(st) }

// Target designates what the engine rewrites: the conclusion, named
// hypotheses, or every hypothesis present when the run starts.
type Target struct {
	Conclusion bool
	Hyps       []string
	AllHyps    bool
}

// TargetConclusion is the common case: rewrite only the conclusion.
func TargetConclusion() Target { return Target{Conclusion: true} }

// TargetHyps rewrites the named hypotheses.
func TargetHyps(names ...string) Target { return Target{Hyps: names} }
