package activity

import (
	"context"
	"testing"
)

func TestBuildPathsBuiltEventCarriesBuildMetadata(t *testing.T) {
	meta := map[string]any{"template": "routes.yaml"}
	event := BuildPathsBuiltEvent(BuildInput{
		ActorID:  " actor ",
		BuildID:  " build-1 ",
		BasePath: "/api",
		Leaves:   3,
		Metadata: meta,
	})

	if event.Verb != VerbBuilt || event.ObjectType != ObjectTypePaths {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.ObjectID != "build-1" {
		t.Fatalf("expected build id as object id, got %q", event.ObjectID)
	}
	if event.ActorID != "actor" {
		t.Fatalf("expected trimmed actor, got %q", event.ActorID)
	}
	if event.Metadata["base_path"] != "/api" || event.Metadata["leaves"] != 3 {
		t.Fatalf("expected build metadata, got %+v", event.Metadata)
	}
	if event.Metadata["template"] != "routes.yaml" {
		t.Fatalf("expected caller metadata, got %+v", event.Metadata)
	}
	if _, ok := meta["base_path"]; ok {
		t.Fatalf("expected caller metadata untouched")
	}
}

func TestBuildPathsBuiltEventFallsBackToBasePath(t *testing.T) {
	if got := BuildPathsBuiltEvent(BuildInput{BasePath: "/v1"}).ObjectID; got != "/v1" {
		t.Fatalf("expected base path object id, got %q", got)
	}
	if got := BuildPathsBuiltEvent(BuildInput{}).ObjectID; got != ObjectTypePaths {
		t.Fatalf("expected fallback object id, got %q", got)
	}
}

func TestBuildPathsEvaluatedEventWorksWithHooks(t *testing.T) {
	capture := &CaptureHook{}
	event := BuildPathsEvaluatedEvent(EvaluateInput{
		BuildID: "b",
		Engine:  "expr",
		Expr:    "user.id",
		Result:  "/api/user/1",
	})
	if err := (Hooks{capture}).Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one captured event, got %d", len(capture.Events))
	}
	got := capture.Events[0]
	if got.Verb != VerbEvaluated || got.Metadata["result"] != "/api/user/1" {
		t.Fatalf("unexpected event: %+v", got)
	}
}
