// Package universe implements universe levels, instances and per-rule
// universe contexts for the rewrite-hint engine. A rewrite rule carries a
// context set of levels local to the rule; every application of the rule
// instantiates that set with fresh levels so that two uses of the same rule
// never share universe constraints.
package universe

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// Level is a universe level variable. Levels are compared by name; the
// predefined levels Prop and Set compare like any other name.
type Level struct {
	Name string
}

// String returns the level's name.
func (l Level) String() string { return l.Name }

// Predefined levels of the calculus.
var (
	PropLevel = Level{Name: "Prop"}
	SetLevel  = Level{Name: "Set"}
)

// Instance is the ordered list of levels a polymorphic global reference is
// applied to.
type Instance []Level

// String returns the instance in "@{u v}" form, or "" for the empty instance.
func (i Instance) String() string {
	if len(i) == 0 {
		return ""
	}
	parts := make([]string, len(i))
	for k, l := range i {
		parts[k] = l.Name
	}
	return "@{" + strings.Join(parts, " ") + "}"
}

// ConstraintKind distinguishes the three constraint forms between levels.
type ConstraintKind int

const (
	Lt ConstraintKind = iota // strictly smaller
	Le                       // smaller or equal
	Eq                       // equal
)

// String returns the conventional symbol for the constraint kind.
func (k ConstraintKind) String() string {
	switch k {
	case Lt:
		return "<"
	case Le:
		return "<="
	case Eq:
		return "="
	default:
		return fmt.Sprintf("?(%d)", int(k))
	}
}

// Constraint relates two levels.
type Constraint struct {
	Left  Level
	Kind  ConstraintKind
	Right Level
}

// String returns the constraint in "u < v" form.
func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Kind, c.Right)
}

// ContextSet is the set of levels and constraints local to one rewrite rule.
// It is immutable after rule declaration; uses of the rule work on fresh
// copies produced by Fresh.
type ContextSet struct {
	Levels      []Level
	Constraints []Constraint
}

// IsEmpty reports whether the context binds no levels and no constraints.
func (cs ContextSet) IsEmpty() bool {
	return len(cs.Levels) == 0 && len(cs.Constraints) == 0
}

// String renders the context as "u v |= u < v".
func (cs ContextSet) String() string {
	names := make([]string, len(cs.Levels))
	for i, l := range cs.Levels {
		names[i] = l.Name
	}
	cons := make([]string, len(cs.Constraints))
	for i, c := range cs.Constraints {
		cons[i] = c.String()
	}
	return strings.Join(names, " ") + " |= " + strings.Join(cons, ", ")
}

// Subst maps levels to levels. It is applied to sorts and to the instances
// of global references.
type Subst map[Level]Level

// Apply returns the image of l under the substitution, or l itself when the
// substitution does not mention it.
func (s Subst) Apply(l Level) Level {
	if r, ok := s[l]; ok {
		return r
	}
	return l
}

// ApplyInstance maps the substitution over an instance, returning the
// original slice when nothing changed.
func (s Subst) ApplyInstance(inst Instance) Instance {
	changed := false
	for _, l := range inst {
		if _, ok := s[l]; ok {
			changed = true
			break
		}
	}
	if !changed {
		return inst
	}
	out := make(Instance, len(inst))
	for i, l := range inst {
		out[i] = s.Apply(l)
	}
	return out
}

// Keys returns the substitution's domain in a stable order, for logging.
func (s Subst) Keys() []Level {
	keys := make([]Level, 0, len(s))
	for l := range s {
		keys = append(keys, l)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys
}

var freshCounter atomic.Uint64

// FreshLevel mints a level that has never been handed out in this process.
func FreshLevel() Level {
	n := freshCounter.Add(1)
	return Level{Name: fmt.Sprintf("autorewrite.%d", n)}
}

// Fresh instantiates the context with brand-new levels. It returns the
// renamed context together with the substitution from the declared levels to
// the fresh ones. Each call draws distinct levels, so two in-flight uses of
// the same rule can never alias a constraint.
func (cs ContextSet) Fresh() (ContextSet, Subst) {
	if cs.IsEmpty() {
		return ContextSet{}, nil
	}
	sub := make(Subst, len(cs.Levels))
	levels := make([]Level, len(cs.Levels))
	for i, l := range cs.Levels {
		fresh := FreshLevel()
		sub[l] = fresh
		levels[i] = fresh
	}
	cons := make([]Constraint, len(cs.Constraints))
	for i, c := range cs.Constraints {
		cons[i] = Constraint{Left: sub.Apply(c.Left), Kind: c.Kind, Right: sub.Apply(c.Right)}
	}
	return ContextSet{Levels: levels, Constraints: cons}, sub
}
