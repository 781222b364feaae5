// Package ruleset loads rewrite-rule declarations from YAML files into a
// hint store. The file format stands in for the host's persistence layer:
// it is the durable form rule declarations are replayed from.
package ruleset

import (
	"io"
	"os"

	semver "github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/haansn08/autorewrite/internal/hints"
	"github.com/haansn08/autorewrite/internal/term"
	"github.com/haansn08/autorewrite/internal/universe"
)

// SupportedVersions is the constraint a rule file's version field must
// satisfy.
const SupportedVersions = "^1"

// File is the decoded form of one rule file.
type File struct {
	Version string     `yaml:"version"`
	Bases   []BaseDecl `yaml:"bases"`
}

// BaseDecl declares one rewrite base and its rules, in declaration order.
type BaseDecl struct {
	Name  string     `yaml:"name"`
	Rules []RuleDecl `yaml:"rules"`
}

// RuleDecl declares one rule: the lemma's global name, its statement type
// in surface syntax, the rewrite direction ("l2r", the default, or "r2l"),
// and optional universe levels local to the rule.
type RuleDecl struct {
	Lemma     string   `yaml:"lemma"`
	Type      string   `yaml:"type"`
	Direction string   `yaml:"direction"`
	Universes []string `yaml:"universes"`
}

// Load decodes and validates a rule file.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decoding rule file")
	}
	if f.Version == "" {
		return nil, hints.NewUserError(hints.CodeInvalidRuleFile, "rule file has no version field")
	}
	v, err := semver.NewVersion(f.Version)
	if err != nil {
		return nil, hints.NewUserError(hints.CodeInvalidRuleFile,
			"rule file version %q is not a valid version", f.Version)
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return nil, errors.Wrap(err, "parsing version constraint")
	}
	if !constraint.Check(v) {
		return nil, hints.NewUserError(hints.CodeInvalidRuleFile,
			"rule file version %s is not supported (want %s)", f.Version, SupportedVersions)
	}
	return &f, nil
}

// Populate declares every rule of the file into store, in file order.
func (f *File) Populate(store *hints.Store) error {
	for _, base := range f.Bases {
		rules := make([]*hints.Rule, 0, len(base.Rules))
		for _, decl := range base.Rules {
			r, err := buildRule(decl)
			if err != nil {
				return errors.Wrapf(err, "base %s, lemma %s", base.Name, decl.Lemma)
			}
			rules = append(rules, r)
		}
		store.InsertRules(base.Name, rules)
	}
	return nil
}

// LoadFile reads, validates and populates a fresh store from path.
func LoadFile(path string) (*hints.Store, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening rule file %s", path)
	}
	defer fh.Close()
	f, err := Load(fh)
	if err != nil {
		return nil, err
	}
	store := hints.NewStore()
	if err := f.Populate(store); err != nil {
		return nil, err
	}
	return store, nil
}

func buildRule(decl RuleDecl) (*hints.Rule, error) {
	typ, err := term.Parse(decl.Type)
	if err != nil {
		return nil, errors.Wrap(err, "parsing statement type")
	}
	l2r := true
	switch decl.Direction {
	case "", "l2r", "->":
		l2r = true
	case "r2l", "<-":
		l2r = false
	default:
		return nil, hints.NewUserError(hints.CodeInvalidRuleFile,
			"unknown direction %q (want l2r or r2l)", decl.Direction)
	}
	var ctx universe.ContextSet
	for _, name := range decl.Universes {
		ctx.Levels = append(ctx.Levels, universe.Level{Name: name})
	}
	statement := &term.Const{Name: decl.Lemma}
	return hints.NewRule(statement, typ, ctx, l2r, nil)
}
