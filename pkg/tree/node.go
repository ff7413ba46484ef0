// Package tree implements the per-global ordered subscript tree: each Node
// holds an optional scalar Value and a map of Subscript to child Node.
// Grounded on the node/child-map split in iotaledger's trie.go, rewritten
// around mvalue's tagged subscript/value model instead of byte-string keys.
// The RWMutex locking discipline one level up lives in package store.
package tree

import (
	"sort"

	"github.com/cuemby/mumpsdb/pkg/mvalue"
)

// child pairs a child Node with the literal Subscript that addresses it,
// since the map key is the subscript's canonical text form and numeric
// ordering needs the typed value back.
type child struct {
	key  mvalue.Subscript
	node *Node
}

// Node is one point in a global's tree. A Node is "empty" when it has no
// data and no children; empty nodes must never be reachable from a root —
// every mutating method that can create an empty node prunes it.
type Node struct {
	data     *mvalue.Value
	children map[string]*child
}

// New returns an empty root node.
func New() *Node {
	return &Node{}
}

// IsEmpty reports whether this node carries no data and has no children.
func (n *Node) IsEmpty() bool {
	return n.data == nil && len(n.children) == 0
}

// Set walks path, creating intermediate child nodes as needed, and writes
// value at the terminal node.
func (n *Node) Set(path mvalue.Path, value mvalue.Value) {
	if len(path) == 0 {
		v := value
		n.data = &v
		return
	}
	sub := path[0]
	key := sub.Text()
	if n.children == nil {
		n.children = make(map[string]*child)
	}
	c, ok := n.children[key]
	if !ok {
		c = &child{key: sub, node: New()}
		n.children[key] = c
	}
	c.node.Set(path[1:], value)
}

// Get returns the value at the terminal node addressed by path, or nil if
// any edge along the path is missing or the terminal node carries no data.
// Memoization lives one level up, in the store's own locked query cache —
// a per-node cache here would need its own locking to be concurrency-safe,
// duplicating that cache for no benefit.
func (n *Node) Get(path mvalue.Path) *mvalue.Value {
	if len(path) == 0 {
		return n.data
	}
	c, ok := n.children[path[0].Text()]
	if !ok {
		return nil
	}
	return c.node.Get(path[1:])
}

// Remove clears data at the terminal node addressed by path and prunes any
// child edge whose subtree became empty on the way back up. It reports
// whether this node itself is now empty, so the caller can continue
// pruning upward.
func (n *Node) Remove(path mvalue.Path) (selfEmpty bool) {
	if len(path) == 0 {
		n.data = nil
		return n.IsEmpty()
	}
	key := path[0].Text()
	c, ok := n.children[key]
	if !ok {
		return n.IsEmpty()
	}
	if c.node.Remove(path[1:]) {
		delete(n.children, key)
	}
	return n.IsEmpty()
}

// ChildSubscripts returns the direct children's subscripts in canonical
// total order, strictly increasing.
func (n *Node) ChildSubscripts() []mvalue.Subscript {
	subs := make([]mvalue.Subscript, 0, len(n.children))
	for _, c := range n.children {
		subs = append(subs, c.key)
	}
	sort.Slice(subs, func(i, j int) bool {
		return mvalue.Compare(subs[i], subs[j]) < 0
	})
	return subs
}

// Child returns the direct child addressed by sub, or nil if absent.
func (n *Node) Child(sub mvalue.Subscript) *Node {
	c, ok := n.children[sub.Text()]
	if !ok {
		return nil
	}
	return c.node
}

// Walk descends along path without creating nodes, returning the terminal
// Node or nil if any edge is missing.
func (n *Node) Walk(path mvalue.Path) *Node {
	cur := n
	for _, sub := range path {
		cur = cur.Child(sub)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// PathValue pairs a relative path with the value found there.
type PathValue struct {
	Path  mvalue.Path
	Value mvalue.Value
}

// Query descends along path; if the terminal node exists it emits the
// terminal's own value (when non-null) followed by every non-null value
// found by recursing depth further levels below the query point, each
// tagged with its full subscript path relative to the query point.
func (n *Node) Query(path mvalue.Path, depth int) []PathValue {
	target := n.Walk(path)
	if target == nil {
		return nil
	}
	var out []PathValue
	if target.data != nil {
		out = append(out, PathValue{Path: nil, Value: *target.data})
	}
	if depth > 0 {
		target.collect(nil, depth, &out)
	}
	return out
}

func (n *Node) collect(prefix mvalue.Path, depth int, out *[]PathValue) {
	if depth <= 0 {
		return
	}
	for _, sub := range n.ChildSubscripts() {
		c := n.children[sub.Text()]
		childPath := append(append(mvalue.Path{}, prefix...), sub)
		if c.node.data != nil {
			*out = append(*out, PathValue{Path: childPath, Value: *c.node.data})
		}
		c.node.collect(childPath, depth-1, out)
	}
}

// DeepCopy produces a structural clone of this subtree, used by
// transactions to stage a private working copy.
func (n *Node) DeepCopy() *Node {
	cp := &Node{}
	if n.data != nil {
		v := *n.data
		cp.data = &v
	}
	if len(n.children) > 0 {
		cp.children = make(map[string]*child, len(n.children))
		for k, c := range n.children {
			cp.children[k] = &child{key: c.key, node: c.node.DeepCopy()}
		}
	}
	return cp
}

// CountNodes returns the count of nodes in this subtree carrying non-null
// data (used for the STATS totalNodes field).
func (n *Node) CountNodes() int {
	count := 0
	if n.data != nil {
		count++
	}
	for _, c := range n.children {
		count += c.node.CountNodes()
	}
	return count
}

// AllPathsWithValues returns every non-null (path, value) pair reachable
// from this node, including the node itself at the empty path.
func (n *Node) AllPathsWithValues() []PathValue {
	var out []PathValue
	n.collectAll(nil, &out)
	return out
}

func (n *Node) collectAll(prefix mvalue.Path, out *[]PathValue) {
	if n.data != nil {
		out2 := append(mvalue.Path{}, prefix...)
		*out = append(*out, PathValue{Path: out2, Value: *n.data})
	}
	for _, sub := range n.ChildSubscripts() {
		c := n.children[sub.Text()]
		c.node.collectAll(append(append(mvalue.Path{}, prefix...), sub), out)
	}
}
