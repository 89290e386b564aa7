// Package layering composes path templates from several sources, for example
// a shared base template overridden by service specific routes.
package layering

import paths "github.com/goliatone/go-paths"

// Merge composes templates ordered from strongest to weakest into a new
// tree. Containers present in several layers merge key by key, and leaves
// from stronger layers replace whatever weaker layers hold under the same
// key. Keys keep the position of their first appearance, weakest layer
// first. Nil layers are skipped and the inputs are left untouched.
func Merge(layers ...*paths.Node) *paths.Node {
	var merged *paths.Node
	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i] == nil {
			continue
		}
		if merged == nil {
			merged = Clone(layers[i])
			continue
		}
		merged = merger{}.node(layers[i], merged)
	}
	return merged
}

// merger remembers every (strong, weak) container pair it has folded, so
// layers that reach themselves merge into a cycle instead of recursing.
type merger map[[2]*paths.Node]*paths.Node

// node folds strong over weak, reusing weak, which is always a fresh clone
// owned by Merge.
func (m merger) node(strong, weak *paths.Node) *paths.Node {
	if !strong.IsContainer() || !weak.IsContainer() {
		return Clone(strong)
	}
	pair := [2]*paths.Node{strong, weak}
	if done, ok := m[pair]; ok {
		return done
	}
	m[pair] = weak
	for _, key := range strong.Keys() {
		child, _ := strong.Get(key)
		if existing, ok := weak.Get(key); ok {
			weak.Set(key, m.node(child, existing))
			continue
		}
		weak.Set(key, Clone(child))
	}
	return weak
}

// Clone deep-copies a template so the original survives a build. Sealed
// leaves are copied as plain leaves holding their computed path. Containers
// reachable twice are cloned once, so cyclic and shared shapes are kept and
// still rejected by Build.
func Clone(root *paths.Node) *paths.Node {
	return cloneNode(root, map[*paths.Node]*paths.Node{})
}

func cloneNode(n *paths.Node, memo map[*paths.Node]*paths.Node) *paths.Node {
	if n == nil {
		return nil
	}
	if !n.IsContainer() {
		return paths.Leaf(n.Value())
	}
	if existing, ok := memo[n]; ok {
		return existing
	}
	clone := paths.New()
	memo[n] = clone
	for _, key := range n.Keys() {
		child, _ := n.Get(key)
		clone.Set(key, cloneNode(child, memo))
	}
	return clone
}
