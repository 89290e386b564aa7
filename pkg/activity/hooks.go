package activity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Event is one thing that happened to a path set, such as a build or an
// evaluation. Verb, ObjectType and ObjectID are required.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Missing lists the required fields event leaves blank.
func (e Event) Missing() []string {
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"verb", e.Verb},
		{"object_type", e.ObjectType},
		{"object_id", e.ObjectID},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// NormalizeEvent returns a copy of event with identifiers trimmed, its own
// metadata map and OccurredAt stamped when zero.
func NormalizeEvent(event Event) Event {
	for _, field := range []*string{
		&event.Verb, &event.ActorID, &event.UserID, &event.TenantID,
		&event.ObjectType, &event.ObjectID, &event.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	event.Metadata = cloneMap(event.Metadata)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks delivers each event to every hook in order.
type Hooks []ActivityHook

// Enabled reports whether there is anything to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event once and hands it to every non-nil hook. Events
// with missing required fields are dropped without error. Hook failures do
// not stop delivery; they come back joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if !h.Enabled() || len(event.Missing()) > 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event = NormalizeEvent(event)

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("activity: hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
