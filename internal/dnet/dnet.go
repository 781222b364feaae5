// Package dnet implements a generic discrimination net: an approximate
// multi-level index from trees to stored values. The net is parameterized
// over the tree type, the label type keying its branches, and the value
// type of its payloads; the instantiation supplies a decomposer that
// flattens one tree node into a label plus an ordered list of child trees,
// or reports a wildcard.
//
// Insertion writes the value at the end of the tree's label path, depth
// first with child lists interleaved. A wildcard in a stored tree is kept
// as a dedicated branch matching any one subtree; a wildcard in a query
// branches into every stored edge. Lookup therefore over-approximates: it
// returns every value whose stored tree could match the query, and callers
// refine the result with an exact pass of their own.
package dnet

// Decomposer flattens one node of a tree into its branching label and its
// ordered children. ok is false when the node is a wildcard.
type Decomposer[T any, L comparable] func(t T) (label L, children []T, ok bool)

// Net is a discrimination net over trees of type T with labels L and stored
// values V. The zero value is not usable; construct with New.
type Net[T any, L comparable, V any] struct {
	decompose Decomposer[T, L]
	root      *node[L, V]
}

type edge[L comparable, V any] struct {
	arity int
	child *node[L, V]
}

type node[L comparable, V any] struct {
	edges  map[L]*edge[L, V]
	wild   *node[L, V] // stored wildcard branch, consumes one subtree
	values []V         // payloads whose path ends here, insertion order
}

func newNode[L comparable, V any]() *node[L, V] {
	return &node[L, V]{}
}

// New creates an empty net using decompose to flatten trees.
func New[T any, L comparable, V any](decompose Decomposer[T, L]) *Net[T, L, V] {
	return &Net[T, L, V]{decompose: decompose, root: newNode[L, V]()}
}

// Add stores v under the label path of t.
func (n *Net[T, L, V]) Add(t T, v V) {
	cur := n.root
	stack := []T{t}
	for len(stack) > 0 {
		head := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		label, children, ok := n.decompose(head)
		if !ok {
			if cur.wild == nil {
				cur.wild = newNode[L, V]()
			}
			cur = cur.wild
			continue
		}
		e := cur.edges[label]
		if e == nil {
			if cur.edges == nil {
				cur.edges = make(map[L]*edge[L, V])
			}
			e = &edge[L, V]{arity: len(children), child: newNode[L, V]()}
			cur.edges[label] = e
		}
		cur = e.child
		// Children are pushed right to left so the leftmost is consumed
		// next, giving the depth-first interleaving lookup expects.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	cur.values = append(cur.values, v)
}

// Lookup returns every stored value whose label path could match t,
// branching into all edges at wildcard positions of either side. The
// result may contain duplicates when a value is reachable along several
// wildcard branches; callers dedupe as part of their exact filtering.
func (n *Net[T, L, V]) Lookup(t T) []V {
	var out []V
	n.lookup(n.root, []T{t}, &out)
	return out
}

func (n *Net[T, L, V]) lookup(cur *node[L, V], stack []T, out *[]V) {
	if cur == nil {
		return
	}
	if len(stack) == 0 {
		*out = append(*out, cur.values...)
		return
	}
	head := stack[len(stack)-1]
	rest := stack[:len(stack)-1]
	label, children, ok := n.decompose(head)
	if !ok {
		// Wildcard query position: any stored subtree here can match.
		for _, next := range skip(cur, 1) {
			n.lookup(next, rest, out)
		}
		return
	}
	if e := cur.edges[label]; e != nil {
		inner := make([]T, 0, len(rest)+len(children))
		inner = append(inner, rest...)
		for i := len(children) - 1; i >= 0; i-- {
			inner = append(inner, children[i])
		}
		n.lookup(e.child, inner, out)
	}
	// A stored wildcard consumes this whole subtree.
	n.lookup(cur.wild, rest, out)
}

// skip returns every node reachable from cur by consuming k complete
// subtrees of the net, whatever their stored shape.
func skip[L comparable, V any](cur *node[L, V], k int) []*node[L, V] {
	if cur == nil {
		return nil
	}
	if k == 0 {
		return []*node[L, V]{cur}
	}
	var out []*node[L, V]
	for _, e := range cur.edges {
		out = append(out, skip(e.child, k-1+e.arity)...)
	}
	out = append(out, skip(cur.wild, k-1)...)
	return out
}

// FindAll returns every stored value in insertion-path order: a depth-first
// walk of the net collecting payloads. The order across values stored under
// different labels is unspecified; callers needing a total order sort by
// their own value ordering.
func (n *Net[T, L, V]) FindAll() []V {
	var out []V
	findAll(n.root, &out)
	return out
}

func findAll[L comparable, V any](cur *node[L, V], out *[]V) {
	if cur == nil {
		return
	}
	*out = append(*out, cur.values...)
	for _, e := range cur.edges {
		findAll(e.child, out)
	}
	findAll(cur.wild, out)
}
