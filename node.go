package paths

import (
	"reflect"
	"sort"
	"strings"
)

// Kind distinguishes container nodes from leaf nodes.
type Kind uint8

const (
	// KindLeaf marks a terminal value that becomes a computed path.
	KindLeaf Kind = iota
	// KindContainer marks an ordered mapping of string keys to child nodes.
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	default:
		return "leaf"
	}
}

// Node is a template value. Containers keep their keys in insertion order,
// leaves hold the original value until Build seals them with a computed path.
type Node struct {
	kind     Kind
	keys     []string
	children map[string]*Node

	value  any
	path   string
	sealed bool
}

// New returns an empty container node.
func New() *Node {
	return &Node{
		kind:     KindContainer,
		children: map[string]*Node{},
	}
}

// Leaf wraps value as a leaf node.
func Leaf(value any) *Node {
	return &Node{kind: KindLeaf, value: value}
}

// FromValue classifies value into a node. Maps with string keys become
// containers (keys sorted, since Go maps carry no order), *Node values pass
// through and everything else, nil and slices included, becomes a leaf.
// A map reachable through itself yields a cyclic node graph, which Build
// rejects.
func FromValue(value any) *Node {
	return fromValue(value, map[uintptr]*Node{})
}

func fromValue(value any, memo map[uintptr]*Node) *Node {
	if typed, ok := value.(*Node); ok {
		if typed == nil {
			return Leaf(nil)
		}
		return typed
	}

	rv := reflect.ValueOf(value)
	if !isContainerMap(rv) {
		return Leaf(value)
	}
	if existing, ok := memo[rv.Pointer()]; ok {
		return existing
	}

	entries := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries[iter.Key().String()] = iter.Value().Interface()
	}
	node := New()
	memo[rv.Pointer()] = node
	for _, key := range sortedKeys(entries) {
		node.keys = append(node.keys, key)
		node.children[key] = fromValue(entries[key], memo)
	}
	return node
}

// Kind reports whether n is a container or a leaf.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindLeaf
	}
	return n.kind
}

// IsContainer reports whether n is a container node.
func (n *Node) IsContainer() bool {
	return n != nil && n.kind == KindContainer
}

// Sealed reports whether n is a leaf whose value has been replaced by a
// computed path.
func (n *Node) Sealed() bool {
	return n != nil && n.sealed
}

// Set stores value under key, keeping the key's original position when it
// already exists. Writes over a sealed leaf are ignored, mirroring a field
// that only has a getter. Set panics when n is not a container.
func (n *Node) Set(key string, value any) *Node {
	if !n.IsContainer() {
		panic("paths: Set on a non-container node")
	}
	_ = n.assign(key, value)
	return n
}

// Assign behaves like Set but reports ErrReadOnly when key holds a sealed
// leaf and ErrNotContainer when n is not a container.
func (n *Node) Assign(key string, value any) error {
	if !n.IsContainer() {
		return ErrNotContainer
	}
	return n.assign(key, value)
}

func (n *Node) assign(key string, value any) error {
	if existing, ok := n.children[key]; ok {
		if existing.Sealed() {
			return &BuildError{Key: key, Path: existing.path, Err: ErrReadOnly}
		}
		n.children[key] = FromValue(value)
		return nil
	}
	n.keys = append(n.keys, key)
	n.children[key] = FromValue(value)
	return nil
}

// Delete removes key from the container.
func (n *Node) Delete(key string) {
	if !n.IsContainer() {
		return
	}
	if _, ok := n.children[key]; !ok {
		return
	}
	delete(n.children, key)
	for i, existing := range n.keys {
		if existing == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the container keys in enumeration order.
func (n *Node) Keys() []string {
	if !n.IsContainer() || len(n.keys) == 0 {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Len returns the number of keys held by a container.
func (n *Node) Len() int {
	if !n.IsContainer() {
		return 0
	}
	return len(n.keys)
}

// Get returns the direct child stored under key.
func (n *Node) Get(key string) (*Node, bool) {
	if !n.IsContainer() {
		return nil, false
	}
	child, ok := n.children[key]
	return child, ok
}

// At walks keys from n and returns the node found at the end of the trail.
func (n *Node) At(keys ...string) (*Node, bool) {
	current := n
	for _, key := range keys {
		child, ok := current.Get(key)
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, current != nil
}

// Value returns the leaf value: the computed path once sealed, the original
// value before that. Containers return their Map form.
func (n *Node) Value() any {
	if n == nil {
		return nil
	}
	if n.kind == KindContainer {
		return n.Map()
	}
	if n.sealed {
		return n.path
	}
	return n.value
}

// Path returns the computed path of a sealed leaf, or the empty string.
func (n *Node) Path() string {
	if n == nil || !n.sealed {
		return ""
	}
	return n.path
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n == nil {
		return "null"
	}
	if n.kind == KindContainer {
		return "[object Object]"
	}
	if n.sealed {
		return n.path
	}
	return Stringify(n.value)
}

// Map renders n as nested plain maps. Sealed leaves appear as their path
// strings, unsealed leaves as their original values.
func (n *Node) Map() map[string]any {
	if !n.IsContainer() {
		return nil
	}
	out := make(map[string]any, len(n.keys))
	for _, key := range n.keys {
		child := n.children[key]
		if child.IsContainer() {
			out[key] = child.Map()
			continue
		}
		out[key] = child.Value()
	}
	return out
}

func (n *Node) seal(path string) {
	n.path = path
	n.value = nil
	n.sealed = true
}

func isContainerMap(rv reflect.Value) bool {
	return rv.IsValid() &&
		rv.Kind() == reflect.Map &&
		rv.Type().Key().Kind() == reflect.String &&
		!rv.IsNil()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func splitKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, ".")
}
