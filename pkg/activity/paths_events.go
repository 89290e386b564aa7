package activity

import (
	"strings"
	"time"
)

const (
	// VerbBuilt is emitted after a template has been rewritten into paths.
	VerbBuilt = "paths.built"
	// VerbEvaluated is emitted after an expression ran against a path set.
	VerbEvaluated = "paths.evaluated"
	// ObjectTypePaths identifies path set events.
	ObjectTypePaths = "paths"
)

// BuildInput describes a finished build.
type BuildInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	BuildID    string
	BasePath   string
	Leaves     int
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildPathsBuiltEvent constructs the event emitted after a successful build.
func BuildPathsBuiltEvent(input BuildInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["base_path"] = input.BasePath
	metadata["leaves"] = input.Leaves

	return Event{
		Verb:       VerbBuilt,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypePaths,
		ObjectID:   objectID(input.BuildID, input.BasePath),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// EvaluateInput describes an evaluated expression.
type EvaluateInput struct {
	ActorID  string
	TenantID string
	BuildID  string
	BasePath string
	Engine   string
	Expr     string
	Result   any
}

// BuildPathsEvaluatedEvent constructs the event emitted after an expression
// has been evaluated against a path set.
func BuildPathsEvaluatedEvent(input EvaluateInput) Event {
	metadata := map[string]any{
		"engine": input.Engine,
		"expr":   input.Expr,
	}
	if input.Result != nil {
		metadata["result"] = input.Result
	}
	return Event{
		Verb:       VerbEvaluated,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypePaths,
		ObjectID:   objectID(input.BuildID, input.BasePath),
		Metadata:   metadata,
	}
}

func objectID(buildID, basePath string) string {
	if id := strings.TrimSpace(buildID); id != "" {
		return id
	}
	if base := strings.TrimSpace(basePath); base != "" {
		return base
	}
	return ObjectTypePaths
}
