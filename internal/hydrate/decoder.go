// Package hydrate decodes JSON and YAML documents into ordered path
// templates. Object keys keep their document order, which plain map
// decoding would lose.
package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	paths "github.com/goliatone/go-paths"
	"gopkg.in/yaml.v3"
)

// Format names a supported document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned when a file extension maps to no Format.
var ErrUnknownFormat = errors.New("hydrate: unknown template format")

// Context carries identifiers tied to a template document.
type Context struct {
	Source string
	Format Format
}

// PreHook lets callers rewrite the decoded template before post-hooks run.
type PreHook func(Context, *paths.Node) (*paths.Node, error)

// PostHook lets callers validate the decoded template.
type PostHook func(Context, *paths.Node) error

// CustomDecoder replaces the built-in JSON and YAML decoding when provided.
type CustomDecoder func(Context, []byte) (*paths.Node, error)

// DecoderOption configures a Decoder instance.
type DecoderOption func(*Decoder)

// Decoder converts template documents into *paths.Node trees.
type Decoder struct {
	preHooks  []PreHook
	postHooks []PostHook
	custom    CustomDecoder
}

// WithPreHook applies hook after decoding, ahead of post-hooks.
func WithPreHook(hook PreHook) DecoderOption {
	return func(d *Decoder) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook once pre-hooks have run.
func WithPostHook(hook PostHook) DecoderOption {
	return func(d *Decoder) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithCustomDecoder replaces the default decoding path.
func WithCustomDecoder(decoder CustomDecoder) DecoderOption {
	return func(d *Decoder) {
		d.custom = decoder
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// DecodeFile reads path and decodes it using the format implied by its
// extension.
func (d *Decoder) DecodeFile(path string) (*paths.Node, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hydrate: read %q: %w", path, err)
	}
	return d.Decode(Context{Source: path, Format: format}, payload)
}

// Decode converts payload into a template applying configured hooks. The
// document root must be an object.
func (d *Decoder) Decode(ctx Context, payload []byte) (*paths.Node, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("hydrate: payload is empty for source %q", ctx.Source)
	}

	var (
		current *paths.Node
		err     error
	)
	switch {
	case d.custom != nil:
		current, err = d.custom(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("hydrate: custom decoder for source %q failed: %w", ctx.Source, err)
		}
	case ctx.Format == FormatYAML:
		current, err = decodeYAML(payload)
	case ctx.Format == FormatJSON, ctx.Format == "":
		current, err = decodeJSON(payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ctx.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("hydrate: decode source %q: %w", ctx.Source, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for source %q failed: %w", ctx.Source, err)
		}
		if next != nil {
			current = next
		}
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, current); err != nil {
			return nil, fmt.Errorf("hydrate: post-hook for source %q failed: %w", ctx.Source, err)
		}
	}

	return current, nil
}

func decodeJSON(payload []byte) (*paths.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("document root must be an object")
	}
	root, err := readJSONObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after document root")
	}
	return root, nil
}

// readJSONObject reads the members of an object whose opening brace has
// already been consumed.
func readJSONObject(dec *json.Decoder) (*paths.Node, error) {
	node := paths.New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		value, err := readJSONValue(dec)
		if err != nil {
			return nil, err
		}
		node.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

func readJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return readJSONObject(dec)
	case '[':
		items := []any{}
		for dec.More() {
			item, err := readJSONValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

func decodeYAML(payload []byte) (*paths.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	w := yamlWalker{expanding: map[*yaml.Node]bool{}}
	value, err := w.value(root)
	if err != nil {
		return nil, err
	}
	node, ok := value.(*paths.Node)
	if !ok {
		return nil, fmt.Errorf("document root must be a mapping")
	}
	return node, nil
}

// yamlWalker turns a yaml.Node tree into paths nodes. expanding holds the
// collections on the current trail, so an alias back into one of them is
// reported instead of followed.
type yamlWalker struct {
	expanding map[*yaml.Node]bool
}

func (w yamlWalker) value(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if w.expanding[n.Alias] {
			return nil, fmt.Errorf("line %d: recursive alias *%s", n.Line, n.Value)
		}
		return w.value(n.Alias)
	case yaml.MappingNode:
		w.expanding[n] = true
		defer delete(w.expanding, n)
		return w.mapping(n)
	case yaml.SequenceNode:
		w.expanding[n] = true
		defer delete(w.expanding, n)
		items := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			item, err := w.value(child)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case yaml.ScalarNode:
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
	}
}

// mapping builds a container in document order. Merge keys ("<<") add the
// keys of the referenced mappings that the mapping does not set itself.
func (w yamlWalker) mapping(n *yaml.Node) (*paths.Node, error) {
	node := paths.New()
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		if keyNode.Tag == "!!merge" {
			merges = append(merges, valueNode)
			continue
		}
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping key must be a scalar", keyNode.Line)
		}
		value, err := w.value(valueNode)
		if err != nil {
			return nil, err
		}
		node.Set(keyNode.Value, value)
	}
	for _, merge := range merges {
		if err := w.merge(node, merge); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (w yamlWalker) merge(node *paths.Node, source *yaml.Node) error {
	if source.Kind == yaml.SequenceNode {
		for _, item := range source.Content {
			if err := w.merge(node, item); err != nil {
				return err
			}
		}
		return nil
	}
	value, err := w.value(source)
	if err != nil {
		return err
	}
	merged, ok := value.(*paths.Node)
	if !ok {
		return fmt.Errorf("line %d: merge value must be a mapping", source.Line)
	}
	for _, key := range merged.Keys() {
		if _, exists := node.Get(key); exists {
			continue
		}
		child, _ := merged.Get(key)
		node.Set(key, child)
	}
	return nil
}
