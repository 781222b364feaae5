package engine

import (
	"fmt"
	"log/slog"

	"github.com/haansn08/autorewrite/internal/hints"
)

// Engine applies rewrite-hint bases to a proof state until no rule in a
// full pass makes progress. There is no iteration cap: a rule set with a
// cyclic rewrite loops forever, exactly as the user wrote it; each pass is
// logged at debug level so a runaway run is observable.
type Engine struct {
	store *hints.Store
	rw    Rewriter
	log   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger installs a structured logger for per-pass progress.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine over the given rule store and rewrite primitive.
func New(store *hints.Store, rw Rewriter, opts ...Option) *Engine {
	e := &Engine{store: store, rw: rw, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AutoRewrite rewrites the target clauses with every rule of the named
// bases, in order, repeating the whole multi-base pass while any step makes
// progress. side, when non-nil, runs after every successful step; it is
// only accepted for a bare-conclusion target or exactly one hypothesis.
//
// Hard errors — an unknown base, a named hypothesis that does not exist, or
// an invalid side-tactic target — surface immediately and abort the whole
// invocation. A rule that fails to apply is silently no progress.
func (e *Engine) AutoRewrite(st State, bases []string, target Target, side Tactic) error {
	if side != nil && !validSideTarget(target) {
		return hints.NewUserError(hints.CodeInvalidTarget,
			"a side-effect tactic can only be combined with the conclusion or exactly one hypothesis")
	}

	clauses, err := resolveClauses(st, target)
	if err != nil {
		return err
	}

	// Rule lists are loaded up front: an unknown base errors before any
	// rewriting, and rules inserted mid-run are not seen by this run.
	lists := make([][]*hints.Rule, len(bases))
	for i, base := range bases {
		rules, err := e.store.AllRules(base)
		if err != nil {
			return err
		}
		lists[i] = rules
	}

	for _, clause := range clauses {
		if err := e.fixpoint(st, clause, bases, lists, side); err != nil {
			return err
		}
	}
	return nil
}

// fixpoint runs the repeat-while-progress envelope over all bases for one
// clause.
func (e *Engine) fixpoint(st State, clause string, bases []string, lists [][]*hints.Rule, side Tactic) error {
	pass := 0
	for {
		pass++
		progress := false
		for i, rules := range lists {
			applied, err := e.oneBase(st, clause, rules, side)
			if err != nil {
				return err
			}
			if applied > 0 {
				progress = true
			}
			e.log.Debug("rewrite base pass",
				"base", bases[i], "clause", clauseName(clause), "pass", pass, "steps", applied)
		}
		if !progress {
			return nil
		}
	}
}

// oneBase tries every rule of one base against the clause, repeating each
// rule while it makes progress and running the side tactics after every
// successful step. It returns the number of successful steps.
func (e *Engine) oneBase(st State, clause string, rules []*hints.Rule, side Tactic) (int, error) {
	applied := 0
	for _, r := range rules {
		for {
			ok, err := e.step(st, clause, r)
			if err != nil {
				return applied, err
			}
			if !ok {
				break
			}
			applied++
			if !e.runSideTactics(st, r, side) {
				break
			}
		}
	}
	return applied, nil
}

// step performs one rewrite attempt with r, drawing a fresh copy of the
// rule's universe context so attempts never share universe constraints.
func (e *Engine) step(st State, clause string, r *hints.Rule) (bool, error) {
	_, usub := r.Ctx.Fresh()
	return e.rw.RewriteOnce(st, clause, r, usub)
}

// runSideTactics runs the rule's own side tactic, then the invocation's,
// after one committed step. The rewrite stands either way; a failing tactic
// ends the current rule's repetition, reported as false. A rule action that
// does not satisfy the Tactic contract cannot be run here and is skipped
// with a warning.
func (e *Engine) runSideTactics(st State, r *hints.Rule, side Tactic) bool {
	if r.Tac != nil {
		tac, runnable := r.Tac.(Tactic)
		if !runnable {
			e.log.Warn("rule side tactic is not runnable, skipping", "type", fmt.Sprintf("%T", r.Tac))
		} else if terr := tac.Run(st); terr != nil {
			e.log.Debug("rule side tactic failed", "err", terr)
			return false
		}
	}
	if side != nil {
		if serr := side.Run(st); serr != nil {
			e.log.Debug("side tactic failed", "err", serr)
			return false
		}
	}
	return true
}

// resolveClauses fixes the clause list for the whole run. Named hypotheses
// must exist up front; an all-hypotheses target snapshots the context once,
// so hypotheses introduced mid-run by side tactics are not revisited.
func resolveClauses(st State, target Target) ([]string, error) {
	var clauses []string
	if target.AllHyps {
		clauses = append(clauses, st.HypothesisNames()...)
	} else {
		for _, name := range target.Hyps {
			if _, ok := st.Hypothesis(name); !ok {
				return nil, hints.NewUserError(hints.CodeMissingHyp,
					"no such hypothesis: %s", name)
			}
			clauses = append(clauses, name)
		}
	}
	if target.Conclusion {
		clauses = append(clauses, ConclClause)
	}
	return clauses, nil
}

func validSideTarget(target Target) bool {
	if target.AllHyps {
		return false
	}
	if target.Conclusion {
		return len(target.Hyps) == 0
	}
	return len(target.Hyps) == 1
}

func clauseName(clause string) string {
	if clause == ConclClause {
		return "<conclusion>"
	}
	return clause
}
