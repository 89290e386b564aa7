package paths

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-paths/pkg/activity"
	"github.com/google/uuid"
)

// Build rewrites every leaf reachable from root into a read-only computed
// path and returns root itself. A leaf under the container trail k1..kn
// becomes basePath + "/k1/.../kn/" + Stringify(value).
//
// Containers are visited in key order. Cycles, containers shared between two
// trails and leaves sealed by an earlier build stop the walk with a
// *BuildError; nodes visited before the failure stay rewritten.
func Build(root *Node, basePath string, opts ...Option) (*Node, error) {
	return BuildContext(context.Background(), root, basePath, opts...)
}

// BuildContext is Build with a context handed to activity hooks.
func BuildContext(ctx context.Context, root *Node, basePath string, opts ...Option) (*Node, error) {
	_, err := applyOptions(opts).buildNode(ctx, root, basePath)
	return root, err
}

func (c config) buildNode(ctx context.Context, root *Node, basePath string) (string, error) {
	return c.run(ctx, basePath, func(w *walker) error {
		if !root.IsContainer() {
			return nil
		}
		return w.node(root, nil, "")
	})
}

// BuildMap applies Build to plain nested maps. Leaf entries are replaced by
// their path strings in place and template itself is returned. Keys are
// visited in sorted order. Nested maps must be able to hold a string value;
// otherwise the walk fails with ErrUnassignable.
func BuildMap(template map[string]any, basePath string, opts ...Option) (map[string]any, error) {
	return BuildMapContext(context.Background(), template, basePath, opts...)
}

// BuildMapContext is BuildMap with a context handed to activity hooks.
func BuildMapContext(ctx context.Context, template map[string]any, basePath string, opts ...Option) (map[string]any, error) {
	cfg := applyOptions(opts)
	_, err := cfg.run(ctx, basePath, func(w *walker) error {
		if template == nil {
			return nil
		}
		return w.mapValue(reflect.ValueOf(template), nil, "")
	})
	return template, err
}

func (c config) run(ctx context.Context, basePath string, walk func(*walker) error) (string, error) {
	buildID := c.buildID
	if buildID == "" {
		buildID = uuid.NewString()
	}
	w := &walker{
		base:     basePath,
		leafKey:  c.leafKey,
		visiting: map[any]bool{},
	}

	start := time.Now()
	err := walk(w)
	c.buildLogger().LogBuild(BuildLogEvent{
		BuildID:  buildID,
		BasePath: basePath,
		Leaves:   w.leaves,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return buildID, err
	}

	emitter := c.emitter()
	if !emitter.Enabled() {
		return buildID, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event := activity.BuildPathsBuiltEvent(activity.BuildInput{
		ActorID:  c.actorID,
		TenantID: c.tenantID,
		BuildID:  buildID,
		BasePath: basePath,
		Leaves:   w.leaves,
	})
	if err := emitter.Emit(ctx, event); err != nil {
		return buildID, fmt.Errorf("paths: activity hooks: %w", err)
	}
	return buildID, nil
}

// walker carries the state of a single build. visiting maps a container
// identity to true while it is on the current trail and to false once done.
type walker struct {
	base     string
	leafKey  bool
	leaves   int
	visiting map[any]bool
}

func (w *walker) enter(id any, trail []string) error {
	onTrail, seen := w.visiting[id]
	switch {
	case onTrail:
		return newBuildError(trail, "", ErrCycle)
	case seen:
		return newBuildError(trail, "", ErrSharedContainer)
	}
	w.visiting[id] = true
	return nil
}

func (w *walker) leave(id any) {
	w.visiting[id] = false
}

func (w *walker) fullPath(prefix, key string, value any) string {
	var b strings.Builder
	b.WriteString(w.base)
	b.WriteString(prefix)
	if w.leafKey {
		b.WriteByte('/')
		b.WriteString(key)
	}
	b.WriteByte('/')
	b.WriteString(Stringify(value))
	return b.String()
}

func (w *walker) node(n *Node, trail []string, prefix string) error {
	if err := w.enter(n, trail); err != nil {
		return err
	}
	defer w.leave(n)

	for _, key := range n.keys {
		child := n.children[key]
		childTrail := appendTrail(trail, key)
		if child.IsContainer() {
			if err := w.node(child, childTrail, prefix+"/"+key); err != nil {
				return err
			}
			continue
		}
		if child.Sealed() {
			return newBuildError(childTrail, child.path, ErrReadOnly)
		}
		child.seal(w.fullPath(prefix, key, child.value))
		w.leaves++
	}
	return nil
}

func (w *walker) mapValue(m reflect.Value, trail []string, prefix string) error {
	id := m.Pointer()
	if err := w.enter(id, trail); err != nil {
		return err
	}
	defer w.leave(id)

	keys := make([]string, 0, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)

	keyType := m.Type().Key()
	elemType := m.Type().Elem()
	for _, key := range keys {
		mapKey := reflect.ValueOf(key).Convert(keyType)
		child := unwrapInterface(m.MapIndex(mapKey))
		childTrail := appendTrail(trail, key)
		if isContainerMap(child) {
			if err := w.mapValue(child, childTrail, prefix+"/"+key); err != nil {
				return err
			}
			continue
		}

		var original any
		if child.IsValid() && child.CanInterface() {
			original = child.Interface()
		}
		path := w.fullPath(prefix, key, original)
		stored, ok := pathValue(path, elemType)
		if !ok {
			return newBuildError(childTrail, path, fmt.Errorf("%w: element type %s", ErrUnassignable, elemType))
		}
		m.SetMapIndex(mapKey, stored)
		w.leaves++
	}
	return nil
}

func pathValue(path string, elemType reflect.Type) (reflect.Value, bool) {
	value := reflect.ValueOf(path)
	switch {
	case elemType.Kind() == reflect.String:
		return value.Convert(elemType), true
	case value.Type().AssignableTo(elemType):
		return value, true
	default:
		return reflect.Value{}, false
	}
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func appendTrail(trail []string, key string) []string {
	out := make([]string, len(trail)+1)
	copy(out, trail)
	out[len(trail)] = key
	return out
}
