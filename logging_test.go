package paths

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogLoggerReportsBuildsAndEvaluations(t *testing.T) {
	var buf bytes.Buffer
	logger := SlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	template := map[string]any{"user": map[string]any{"id": "7"}}
	if _, err := BuildMapContext(context.Background(), template, "/api", WithLogger(logger), WithBuildID("b-1")); err != nil {
		t.Fatalf("build map: %v", err)
	}
	if template["user"].(map[string]any)["id"] != "/api/user/7" {
		t.Fatalf("unexpected map: %v", template)
	}

	p, err := Load(userTemplate(), "/api", WithLogger(logger))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := p.Evaluate(`missing(`); err == nil {
		t.Fatalf("expected compile error")
	}

	out := buf.String()
	for _, want := range []string{
		"msg=\"paths built\"",
		"build_id=b-1",
		"leaves=1",
		"msg=\"paths evaluation failed\"",
		"engine=expr",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output:\n%s", want, out)
		}
	}
}

func TestSlogLoggerNil(t *testing.T) {
	if _, ok := SlogLogger(nil).(noopLogger); !ok {
		t.Fatalf("expected no-op logger for nil slog logger")
	}
}
