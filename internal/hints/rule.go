package hints

import (
	"github.com/haansn08/autorewrite/internal/term"
	"github.com/haansn08/autorewrite/internal/universe"
)

// Action is the opaque tactic value a rule may carry to discharge the side
// condition a rewrite step generates. The store never inspects it; the only
// capability required here is structural substitution when the enclosing
// module is relocated. Running the action is the application engine's
// business: the engine requires the same value to satisfy its own run
// contract (engine.Tactic), and warns and skips an action that does not.
type Action interface {
	// Remap renames internal constant paths, returning the receiver
	// unchanged when nothing applies.
	Remap(m map[string]string) Action
}

// Rule is one directed rewrite hint. Immutable after declaration except for
// Remap, which the persistence layer calls on module relocation.
type Rule struct {
	// Statement is the proof term of the equation, opaque beyond its type.
	Statement term.Term
	// StatementType is the full quantified type of the statement.
	StatementType term.Term
	// Pattern is the equation side selected by the direction, kept under
	// the statement's leading quantifiers so matching can align binder
	// depths against a query.
	Pattern term.Term
	// Ctx is the universe context local to this rule; every application
	// instantiates it freshly.
	Ctx universe.ContextSet
	// LeftToRight is the rewrite direction.
	LeftToRight bool
	// Tac optionally discharges the side condition after a successful
	// step at this rule.
	Tac Action
}

// binderFrame remembers one peeled leading binder so the pattern can be
// rebuilt under the same prefix.
type binderFrame struct {
	prod   *term.Prod
	letIn  *term.LetIn
	binder string
}

// NewRule validates a declaration and extracts its search pattern. The
// statement's type, under its leading quantifiers and let-bindings, must be
// an applied relation with at least two arguments; the last two are the
// equation's sides and l2r selects which one becomes the pattern.
func NewRule(statement, statementType term.Term, ctx universe.ContextSet, l2r bool, tac Action) (*Rule, error) {
	frames, body := peelBinders(statementType)
	lhs, rhs, ok := equationSides(body)
	if !ok {
		return nil, NewUserError(CodeNotARelation,
			"the type of this statement does not end in an applied relation: %s", statementType)
	}
	side := lhs
	if !l2r {
		side = rhs
	}
	return &Rule{
		Statement:     statement,
		StatementType: statementType,
		Pattern:       rebuildBinders(frames, side),
		Ctx:           ctx,
		LeftToRight:   l2r,
		Tac:           tac,
	}, nil
}

// Sides returns the source and destination of one application of the rule:
// the statement type's quantifiers opened as fresh placeholders shared by
// both sides, source selected by the direction.
func (r *Rule) Sides() (src, dst term.Term, ok bool) {
	n := term.CountBinders(r.StatementType)
	_, body, ok := term.OpenBinders(r.StatementType, n, freshKey)
	if !ok {
		return nil, nil, false
	}
	lhs, rhs, ok := equationSides(body)
	if !ok {
		return nil, nil, false
	}
	if r.LeftToRight {
		return lhs, rhs, true
	}
	return rhs, lhs, true
}

// Remap renames global references throughout the rule. Identity is
// preserved: the receiver itself is returned when nothing changed, so the
// persistence layer can detect no-op relocations.
func (r *Rule) Remap(m map[string]string) *Rule {
	stmt := term.ReplaceGlobals(m, r.Statement)
	typ := term.ReplaceGlobals(m, r.StatementType)
	pat := term.ReplaceGlobals(m, r.Pattern)
	tac := r.Tac
	if tac != nil {
		tac = tac.Remap(m)
	}
	if stmt == r.Statement && typ == r.StatementType && pat == r.Pattern && tac == r.Tac {
		return r
	}
	return &Rule{
		Statement:     stmt,
		StatementType: typ,
		Pattern:       pat,
		Ctx:           r.Ctx,
		LeftToRight:   r.LeftToRight,
		Tac:           tac,
	}
}

func peelBinders(t term.Term) ([]binderFrame, term.Term) {
	var frames []binderFrame
	for {
		switch x := t.(type) {
		case *term.Prod:
			frames = append(frames, binderFrame{prod: x, binder: x.Binder})
			t = x.Body
		case *term.LetIn:
			frames = append(frames, binderFrame{letIn: x, binder: x.Binder})
			t = x.Body
		default:
			return frames, t
		}
	}
}

func rebuildBinders(frames []binderFrame, body term.Term) term.Term {
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		if f.prod != nil {
			body = &term.Prod{Binder: f.binder, Domain: f.prod.Domain, Body: body}
		} else {
			body = &term.LetIn{Binder: f.binder, Value: f.letIn.Value, Type: f.letIn.Type, Body: body}
		}
	}
	return body
}

// equationSides splits an applied relation into its last two arguments.
func equationSides(t term.Term) (lhs, rhs term.Term, ok bool) {
	app, isApp := t.(*term.App)
	if !isApp || len(app.Args) < 2 {
		return nil, nil, false
	}
	return app.Args[len(app.Args)-2], app.Args[len(app.Args)-1], true
}
