package paths

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Route pairs the dotted key of a leaf with its computed path.
type Route struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

// Routes is an ordered list of routes.
type Routes []Route

// RoutesOf lists the leaves under root depth-first in container order.
// Unsealed leaves report an empty Path.
func RoutesOf(root *Node) Routes {
	if !root.IsContainer() {
		return nil
	}
	var out Routes
	seen := map[*Node]struct{}{}
	var walk func(n *Node, prefix string)
	walk = func(n *Node, prefix string) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		for _, key := range n.keys {
			child := n.children[key]
			dotted := joinKey(prefix, key)
			if child.IsContainer() {
				walk(child, dotted)
				continue
			}
			out = append(out, Route{Key: dotted, Path: child.Path()})
		}
	}
	walk(root, "")
	return out
}

// Lookup returns the computed path of the sealed leaf under a dotted key
// such as "user.profile.name".
func Lookup(root *Node, key string) (string, bool) {
	node, ok := root.At(splitKey(key)...)
	if !ok || node.IsContainer() || !node.Sealed() {
		return "", false
	}
	return node.path, true
}

// Find returns the path stored for key.
func (r Routes) Find(key string) (string, bool) {
	for _, route := range r {
		if route.Key == key {
			return route.Path, true
		}
	}
	return "", false
}

// Paths returns the computed paths in route order.
func (r Routes) Paths() []string {
	out := make([]string, len(r))
	for i, route := range r {
		out[i] = route.Path
	}
	return out
}

// ToJSON serialises the routes.
func (r Routes) ToJSON() ([]byte, error) {
	type alias Routes
	if r == nil {
		r = Routes{}
	}
	return json.Marshal(alias(r))
}

// RoutesFromJSON decodes a payload produced by ToJSON.
func RoutesFromJSON(payload []byte) (Routes, error) {
	type alias Routes
	var routes alias
	if err := json.Unmarshal(payload, &routes); err != nil {
		return nil, err
	}
	return Routes(routes), nil
}

// MarshalJSON writes containers as objects in key order and leaves as their
// current value.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) error {
	if !n.IsContainer() {
		raw, err := json.Marshal(n.Value())
		if err != nil {
			return err
		}
		buf.Write(raw)
		return nil
	}
	buf.WriteByte('{')
	for i, key := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		raw, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(raw)
		buf.WriteByte(':')
		if err := n.children[key].writeJSON(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.Join([]string{prefix, key}, ".")
}
