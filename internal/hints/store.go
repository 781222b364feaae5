package hints

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haansn08/autorewrite/internal/term"
)

// searchCacheSize bounds the per-base cache of pattern-search results.
const searchCacheSize = 256

// Store is the process-wide table of rewrite bases, keyed by name. Bases
// are created implicitly on first insertion and never deleted; insertion is
// append-only, so identifiers inside one base grow monotonically and are
// never reused. Reading an unknown base is a hard user-facing error.
//
// The store is an explicit handle threaded through the declaration command
// and the tactic engine, not an ambient singleton.
type Store struct {
	mu    sync.RWMutex
	rel   Relation
	bases map[string]*baseEntry
	log   *slog.Logger
}

type baseEntry struct {
	dn    *DN
	next  int
	cache *lru.Cache[string, []Ident]
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRelation installs the conversion relation used by pattern search.
func WithRelation(rel Relation) StoreOption {
	return func(s *Store) { s.rel = rel }
}

// WithLogger installs a structured logger for insertion and search events.
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// NewStore creates an empty base table.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		rel:   ConvertibleByEquality,
		bases: make(map[string]*baseEntry),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newBaseEntry() *baseEntry {
	cache, err := lru.New[string, []Ident](searchCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &baseEntry{dn: NewDN(), next: 0, cache: cache}
}

// InsertRules appends rules to the named base, creating it when absent.
// Each rule receives the next identifier past the base's current maximum
// and is indexed under its pattern.
func (s *Store) InsertRules(base string, rules []*Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.bases[base]
	if entry == nil {
		entry = newBaseEntry()
		s.bases[base] = entry
	}
	for _, r := range rules {
		id := Ident{N: entry.next, Rule: r}
		entry.next++
		entry.dn.Add(r.Pattern, id)
	}
	entry.cache.Purge()
	s.log.Debug("inserted rewrite rules",
		"base", base, "count", len(rules), "total", entry.next)
}

// AllRules returns the named base's rules most-recently-inserted first.
// An unknown base is a user error.
func (s *Store) AllRules(base string) ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry := s.bases[base]
	if entry == nil {
		return nil, NewUserError(CodeUnknownBase, "rewriting base %s does not exist", base)
	}
	ids := entry.dn.FindAll()
	rules := make([]*Rule, len(ids))
	for i, id := range ids {
		rules[len(ids)-1-i] = id.Rule
	}
	return rules, nil
}

// Search returns the named base's rules whose pattern matches query,
// most-recently-inserted first. An unknown base is a user error.
func (s *Store) Search(base string, query term.Term) ([]*Rule, error) {
	s.mu.RLock()
	entry := s.bases[base]
	s.mu.RUnlock()
	if entry == nil {
		return nil, NewUserError(CodeUnknownBase, "rewriting base %s does not exist", base)
	}

	key := cacheKey(query)
	ids, cached := entry.cache.Get(key)
	if !cached {
		ids = entry.dn.SearchPattern(s.rel, query)
		entry.cache.Add(key, ids)
	}
	s.log.Debug("pattern search", "base", base, "query", query.String(),
		"hits", len(ids), "cached", cached)

	rules := make([]*Rule, len(ids))
	for i, id := range ids {
		rules[i] = id.Rule
	}
	return rules, nil
}

// Bases returns the names of all existing bases in sorted order.
func (s *Store) Bases() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.bases))
	for name := range s.bases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cacheKey returns an injective textual encoding of t for use as a cache
// key. The printer cannot serve here: it is lossy about binding (a constant
// named "#1" renders exactly like a bound-variable reference), so two
// distinct queries could alias one cached result. Names are length-prefixed
// and every node writes a distinct tag with a fixed field layout. Binder
// names are left out, as structural equality ignores them.
func cacheKey(t term.Term) string {
	var b strings.Builder
	writeCacheKey(&b, t)
	return b.String()
}

func keyString(b *strings.Builder, s string) {
	fmt.Fprintf(b, "%d:%s", len(s), s)
}

func keyInts(b *strings.Builder, ns []int) {
	fmt.Fprintf(b, "%d;", len(ns))
	for _, n := range ns {
		fmt.Fprintf(b, "%d;", n)
	}
}

func keyTerms(b *strings.Builder, ts []term.Term) {
	fmt.Fprintf(b, "%d;", len(ts))
	for _, t := range ts {
		writeCacheKey(b, t)
	}
}

func writeCacheKey(b *strings.Builder, t term.Term) {
	switch x := t.(type) {
	case *term.Rel:
		fmt.Fprintf(b, "r%d;", x.Index)
	case *term.Sort:
		fmt.Fprintf(b, "s%d;", int(x.Family))
		keyString(b, x.Level.Name)
	case *term.Const:
		b.WriteByte('c')
		keyString(b, x.Name)
		fmt.Fprintf(b, "%d;", len(x.Inst))
		for _, l := range x.Inst {
			keyString(b, l.Name)
		}
	case *term.Evar:
		b.WriteByte('e')
		keyString(b, x.Key)
	case *term.Prod:
		b.WriteByte('P')
		writeCacheKey(b, x.Domain)
		writeCacheKey(b, x.Body)
	case *term.Lambda:
		b.WriteByte('L')
		writeCacheKey(b, x.Domain)
		writeCacheKey(b, x.Body)
	case *term.LetIn:
		b.WriteByte('l')
		writeCacheKey(b, x.Value)
		writeCacheKey(b, x.Type)
		writeCacheKey(b, x.Body)
	case *term.App:
		b.WriteByte('a')
		writeCacheKey(b, x.Fn)
		keyTerms(b, x.Args)
	case *term.Cast:
		b.WriteByte('t')
		writeCacheKey(b, x.Body)
		writeCacheKey(b, x.Type)
	case *term.Proj:
		b.WriteByte('p')
		keyString(b, x.Field)
		writeCacheKey(b, x.Record)
	case *term.Case:
		b.WriteByte('m')
		keyString(b, x.Info.Inductive)
		fmt.Fprintf(b, "%d;", x.Info.NumParams)
		keyInts(b, x.Info.ConsArity)
		writeCacheKey(b, x.Scrutinee)
		writeCacheKey(b, x.Return)
		keyTerms(b, x.Branches)
	case *term.Fix:
		fmt.Fprintf(b, "f%d;", x.Info.Index)
		keyInts(b, x.Info.RecArgs)
		keyTerms(b, x.Types)
		keyTerms(b, x.Bodies)
	case *term.CoFix:
		fmt.Fprintf(b, "F%d;", x.Index)
		keyTerms(b, x.Types)
		keyTerms(b, x.Bodies)
	case *term.IntLit:
		fmt.Fprintf(b, "i%d;", x.Value)
	case *term.FloatLit:
		fmt.Fprintf(b, "d%d;", math.Float64bits(x.Value))
	case *term.ArrayLit:
		b.WriteByte('A')
		keyTerms(b, x.Elems)
		writeCacheKey(b, x.Default)
		writeCacheKey(b, x.ElemType)
	default:
		fmt.Fprintf(b, "?%T;", t)
	}
}

// Remap applies a global-reference substitution to every rule of every
// base, preserving rule identity when a rule is unaffected. Used by the
// persistence layer on module relocation; identifiers are unchanged.
func (s *Store) Remap(m map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, entry := range s.bases {
		ids := entry.dn.FindAll()
		fresh := newBaseEntry()
		fresh.next = entry.next
		changed := false
		for _, id := range ids {
			r := id.Rule.Remap(m)
			if r != id.Rule {
				changed = true
			}
			fresh.dn.Add(r.Pattern, Ident{N: id.N, Rule: r})
		}
		if changed {
			s.bases[name] = fresh
		}
	}
}
