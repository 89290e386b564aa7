package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	paths "github.com/goliatone/go-paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	exit := func(code int) {
		t.Fatalf("unexpected exit with code %d: %s", code, stderr.String())
	}
	err := Run(context.Background(), &stdout, &stderr, exit, args...)
	return stdout.String(), stderr.String(), err
}

var layeredTemplates = []string{
	filepath.Join("testdata", "override.json"),
	filepath.Join("testdata", "base.yaml"),
}

func TestRun_ListLayersTemplates(t *testing.T) {
	stdout, _, err := runCLI(t, append([]string{"--base", "/api"}, layeredTemplates...)...)
	require.NoError(t, err)

	assert.Equal(t, "/api/user/7\n/api/user/profile/John\n/api/health/ok\n", stdout)
}

func TestRun_LeafKey(t *testing.T) {
	stdout, _, err := runCLI(t, "--base", "/api", "--leaf-key", filepath.Join("testdata", "base.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/api/user/id/123\n/api/user/profile/name/John\n/api/health/ok\n", stdout)
}

func TestRun_RoutesFormat(t *testing.T) {
	stdout, _, err := runCLI(t, append([]string{"--base", "/api", "--format", "routes"}, layeredTemplates...)...)
	require.NoError(t, err)

	routes, err := paths.RoutesFromJSON([]byte(stdout))
	require.NoError(t, err)
	require.Len(t, routes, 3)
	assert.Equal(t, paths.Route{Key: "user.profile.name", Path: "/api/user/profile/John"}, routes[1])
}

func TestRun_JSONFormat(t *testing.T) {
	stdout, _, err := runCLI(t, "-f", "json", filepath.Join("testdata", "base.yaml"))
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &tree))
	assert.Equal(t, "/health/ok", tree["health"])
	assert.True(t, strings.Index(stdout, `"user"`) < strings.Index(stdout, `"health"`), "expected template key order:\n%s", stdout)
}

func TestRun_OpenAPIFormat(t *testing.T) {
	stdout, _, err := runCLI(t, "--base", "/api", "--format", "openapi", "--title", "Users", "--server", "https://example.test", filepath.Join("testdata", "base.yaml"))
	require.NoError(t, err)

	assert.Contains(t, stdout, `"operationId": "user.profile.name"`)
	assert.Contains(t, stdout, `"title": "Users"`)
	assert.Contains(t, stdout, `"url": "https://example.test"`)
}

func TestRun_GoFormatToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "routes_gen.go")
	stdout, _, err := runCLI(t, "--base", "/api", "--format", "go", "--package", "links", "--type", "Links", "--var", "All", "-o", output, filepath.Join("testdata", "base.yaml"))
	require.NoError(t, err)
	assert.Empty(t, stdout)

	src, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package links")
	assert.Contains(t, string(src), "type LinksUserProfile struct {")
	assert.Contains(t, string(src), "var All = Links{")
}

func TestRun_Eval(t *testing.T) {
	stdout, _, err := runCLI(t, append([]string{"--base", "/api", "-e", `join(user.id, "posts")`, "-e", "base"}, layeredTemplates...)...)
	require.NoError(t, err)
	assert.Equal(t, "/api/user/7/posts\n/api\n", stdout)

	stdout, _, err = runCLI(t, append([]string{"--base", "/api", "--engine", "cel", "-e", `join([user.profile.name, "avatar"])`}, layeredTemplates...)...)
	require.NoError(t, err)
	assert.Equal(t, "/api/user/profile/John/avatar\n", stdout)
}

func TestRun_EnvDefaults(t *testing.T) {
	t.Setenv("PATHGEN_BASE", "/env")
	t.Setenv("PATHGEN_FORMAT", "list")

	stdout, _, err := runCLI(t, filepath.Join("testdata", "override.json"))
	require.NoError(t, err)
	assert.Equal(t, "/env/user/7\n", stdout)
}

func TestRun_Logging(t *testing.T) {
	_, stderr, err := runCLI(t, "--log-level", "info", "--log-format", "json", filepath.Join("testdata", "base.yaml"))
	require.NoError(t, err)

	assert.Contains(t, stderr, `"msg":"paths built"`)
	assert.Contains(t, stderr, `"leaves":3`)
}

func TestRun_Errors(t *testing.T) {
	_, _, err := runCLI(t, filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	_, _, err = runCLI(t, "--format", "xml", filepath.Join("testdata", "base.yaml"))
	assert.Error(t, err)

	_, _, err = runCLI(t, "-e", "user.id +", filepath.Join("testdata", "base.yaml"))
	var evalErr *paths.EvaluationError
	assert.ErrorAs(t, err, &evalErr)
}
