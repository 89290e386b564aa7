// Package codegen renders a built path tree as Go source: a nested struct
// type mirroring the template and a variable holding the computed paths.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"text/template"

	paths "github.com/goliatone/go-paths"
	"github.com/stoewer/go-strcase"
)

// ErrNotBuilt is returned for trees holding leaves without a computed path.
var ErrNotBuilt = errors.New("codegen: template has not been built")

// Config controls the generated declarations.
type Config struct {
	Package   string
	TypeName  string
	VarName   string
	Generator string
}

func (c Config) withDefaults() Config {
	if c.Package == "" {
		c.Package = "routes"
	}
	if c.TypeName == "" {
		c.TypeName = "Routes"
	}
	if c.VarName == "" {
		c.VarName = "Paths"
	}
	if c.Generator == "" {
		c.Generator = "pathgen"
	}
	return c
}

type templateData struct {
	Config
	Structs []structDef
	Value   string
}

type structDef struct {
	Name   string
	Fields []fieldDef
}

type fieldDef struct {
	Name string
	Type string
	Tag  string
}

// Generate renders Go source for root, which must be built. The output is
// gofmt'ed; when formatting fails the unformatted source is returned along
// with the error.
func Generate(root *paths.Node, cfg Config) ([]byte, error) {
	cfg = cfg.withDefaults()
	for _, name := range []string{cfg.Package, cfg.TypeName, cfg.VarName} {
		if !token.IsIdentifier(name) {
			return nil, fmt.Errorf("codegen: %q is not a valid Go identifier", name)
		}
	}
	if !root.IsContainer() {
		return nil, fmt.Errorf("codegen: root must be a container")
	}

	g := &generator{types: map[string]int{}, seen: map[*paths.Node]bool{}}
	_, value, err := g.container(root, cfg.TypeName, nil)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := sourceTemplate.Execute(&buf, templateData{
		Config:  cfg,
		Structs: g.structs,
		Value:   value,
	}); err != nil {
		return nil, fmt.Errorf("codegen: executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("codegen: formatting code: %w", err)
	}
	return formatted, nil
}

type generator struct {
	structs []structDef
	types   map[string]int
	seen    map[*paths.Node]bool
}

// container appends the struct definitions for n depth-first and returns
// the type name used along with the composite literal initialising it.
func (g *generator) container(n *paths.Node, typeName string, trail []string) (string, string, error) {
	if g.seen[n] {
		return "", "", fmt.Errorf("codegen: container %q reached twice", strings.Join(trail, "."))
	}
	g.seen[n] = true
	typeName = unique(typeName, g.types)

	index := len(g.structs)
	g.structs = append(g.structs, structDef{Name: typeName})

	var def structDef
	def.Name = typeName
	names := map[string]int{}
	var literal strings.Builder
	literal.WriteString(typeName + "{\n")

	for _, key := range n.Keys() {
		child, _ := n.Get(key)
		field := fieldName(key, names)
		keyTrail := append(append([]string(nil), trail...), key)

		if child.IsContainer() {
			nestedType, nested, err := g.container(child, typeName+field, keyTrail)
			if err != nil {
				return "", "", err
			}
			def.Fields = append(def.Fields, fieldDef{Name: field, Type: nestedType, Tag: jsonTag(key)})
			fmt.Fprintf(&literal, "%s: %s,\n", field, nested)
			continue
		}
		if !child.Sealed() {
			return "", "", fmt.Errorf("%w: key %q", ErrNotBuilt, strings.Join(keyTrail, "."))
		}
		def.Fields = append(def.Fields, fieldDef{Name: field, Type: "string", Tag: jsonTag(key)})
		fmt.Fprintf(&literal, "%s: %s,\n", field, strconv.Quote(child.Path()))
	}

	literal.WriteString("}")
	g.structs[index] = def
	return typeName, literal.String(), nil
}

// fieldName turns a template key into a unique exported identifier.
func fieldName(key string, used map[string]int) string {
	name := strcase.UpperCamelCase(key)
	if name == "" || !token.IsIdentifier(name) || !token.IsExported(name) {
		name = "K" + sanitize(name)
	}
	return unique(name, used)
}

// unique returns name, or name with the lowest free numeric suffix.
func unique(name string, used map[string]int) string {
	if used[name] == 0 {
		used[name] = 1
		return name
	}
	for n := used[name] + 1; ; n++ {
		candidate := name + strconv.Itoa(n)
		if used[candidate] == 0 {
			used[name] = n
			used[candidate] = 1
			return candidate
		}
	}
}

// jsonTag returns the struct tag naming key, or nothing when key cannot sit
// inside a raw string literal.
func jsonTag(key string) string {
	if strings.ContainsRune(key, '`') {
		return ""
	}
	return "json:" + strconv.Quote(key)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var sourceTemplate = template.Must(template.New("routes").Parse(`// Code generated by {{.Generator}}. DO NOT EDIT.

package {{.Package}}
{{range .Structs}}
type {{.Name}} struct {
{{range .Fields}}	{{.Name}} {{.Type}}{{with .Tag}} ` + "`{{.}}`" + `{{end}}
{{end}}}
{{end}}
// {{.VarName}} holds the computed paths.
var {{.VarName}} = {{.Value}}
`))
