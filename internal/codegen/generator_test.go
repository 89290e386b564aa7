package codegen

import (
	"go/parser"
	"go/token"
	"testing"

	paths "github.com/goliatone/go-paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtTemplate(t *testing.T) *paths.Node {
	t.Helper()
	root := paths.New().
		Set("user", paths.New().
			Set("id", 123).
			Set("profile", paths.New().Set("display_name", "John"))).
		Set("health", "ok")
	_, err := paths.Build(root, "/api")
	require.NoError(t, err)
	return root
}

func TestGenerate_NestedStructs(t *testing.T) {
	src, err := Generate(builtTemplate(t), Config{Package: "api"})
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, "// Code generated by pathgen. DO NOT EDIT.")
	assert.Contains(t, out, "package api")
	assert.Contains(t, out, "type Routes struct {")
	assert.Contains(t, out, "type RoutesUser struct {")
	assert.Contains(t, out, "type RoutesUserProfile struct {")
	assert.Contains(t, out, "DisplayName string `json:\"display_name\"`")
	assert.Contains(t, out, `DisplayName: "/api/user/profile/John",`)
	assert.Regexp(t, `Id:\s+"/api/user/123",`, out)
	assert.Contains(t, out, "var Paths = Routes{")

	_, err = parser.ParseFile(token.NewFileSet(), "routes.go", src, parser.AllErrors)
	require.NoError(t, err, "generated source must parse:\n%s", out)
}

func TestGenerate_CustomNames(t *testing.T) {
	src, err := Generate(builtTemplate(t), Config{
		Package:   "links",
		TypeName:  "Links",
		VarName:   "Default",
		Generator: "linkgen",
	})
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, "// Code generated by linkgen. DO NOT EDIT.")
	assert.Contains(t, out, "type LinksUserProfile struct {")
	assert.Contains(t, out, "var Default = Links{")
}

func TestGenerate_IdentifierCollisions(t *testing.T) {
	root := paths.New().
		Set("user-id", 1).
		Set("user_id", 2).
		Set("42", 3).
		Set("a`b", 4)
	_, err := paths.Build(root, "")
	require.NoError(t, err)

	src, err := Generate(root, Config{})
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, "UserId  string `json:\"user-id\"`")
	assert.Contains(t, out, "UserId2 string `json:\"user_id\"`")
	assert.Contains(t, out, "K42     string `json:\"42\"`")
	assert.Contains(t, out, `"/4"`)

	_, err = parser.ParseFile(token.NewFileSet(), "routes.go", src, parser.AllErrors)
	require.NoError(t, err, "generated source must parse:\n%s", out)
}

func TestGenerate_TypeNameCollisions(t *testing.T) {
	root := paths.New().
		Set("user", paths.New().Set("profile", paths.New().Set("id", 1))).
		Set("userProfile", paths.New().Set("id", 2))
	_, err := paths.Build(root, "")
	require.NoError(t, err)

	src, err := Generate(root, Config{})
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, "type RoutesUserProfile struct {")
	assert.Contains(t, out, "type RoutesUserProfile2 struct {")
	assert.Contains(t, out, "UserProfile RoutesUserProfile2 `json:\"userProfile\"`")

	_, err = parser.ParseFile(token.NewFileSet(), "routes.go", src, parser.AllErrors)
	require.NoError(t, err)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate(paths.New().Set("id", 1), Config{})
	assert.ErrorIs(t, err, ErrNotBuilt)

	_, err = Generate(paths.Leaf(1), Config{})
	assert.ErrorContains(t, err, "root must be a container")

	_, err = Generate(builtTemplate(t), Config{Package: "type"})
	assert.ErrorContains(t, err, "not a valid Go identifier")

	shared := paths.New().Set("id", 1)
	root := paths.New().Set("a", shared).Set("b", shared)
	_, err = Generate(root, Config{})
	assert.Error(t, err)
}
