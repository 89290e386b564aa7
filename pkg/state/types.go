package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	paths "github.com/goliatone/go-paths"
	"github.com/goliatone/go-paths/layering"
	"github.com/google/uuid"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Scope names the owner of a stored template. ID is required for every
// scope except ScopeSystem.
type Scope struct {
	Name string
	ID   string
}

const (
	ScopeSystem = "system"
	ScopeTenant = "tenant"
	ScopeOrg    = "org"
	ScopeTeam   = "team"
	ScopeUser   = "user"
)

// Ref identifies one stored template for one route domain.
type Ref struct {
	Domain string
	Scope  Scope
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one template for a single scope reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (template *paths.Node, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, template *paths.Node, meta Meta) (Meta, error)
}

// Resolver layers scoped templates and builds them into a path set.
type Resolver struct {
	Store   Store
	Options []paths.Option
}

// Mutator edits a template in place.
type Mutator func(*paths.Node) error

func (r Ref) Identifier() (string, error) {
	switch r.Scope.Name {
	case ScopeSystem:
		return fmt.Sprintf("system/%s", r.Domain), nil
	case ScopeTenant, ScopeOrg, ScopeTeam, ScopeUser:
		if r.Scope.ID == "" {
			return "", fmt.Errorf("missing id for scope %q", r.Scope.Name)
		}
		return fmt.Sprintf("%s/%s/%s", r.Scope.Name, r.Scope.ID, r.Domain), nil
	default:
		return "", fmt.Errorf("unsupported scope name %q", r.Scope.Name)
	}
}

// Resolve loads the template stored for each scope, ordered strongest to
// weakest, merges them and builds the result under basePath. Scopes with no
// stored template are skipped.
func (r Resolver) Resolve(ctx context.Context, domain, basePath string, scopes ...Scope) (*paths.Paths, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return nil, fmt.Errorf("state: domain is required")
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("state: at least one scope is required")
	}

	layers := make([]*paths.Node, 0, len(scopes))
	for _, scope := range scopes {
		template, _, ok, err := r.Store.Load(ctx, Ref{Domain: domain, Scope: scope})
		if err != nil {
			return nil, fmt.Errorf("state: load %q for scope %q: %w", domain, scope.Name, err)
		}
		if !ok || template == nil {
			continue
		}
		layers = append(layers, template)
	}

	if len(layers) == 0 {
		return nil, fmt.Errorf("state: no templates found for domain %q", domain)
	}

	return paths.LoadContext(ctx, layering.Merge(layers...), basePath, r.Options...)
}

// Mutate loads one template, applies fn, checks that the result builds, then
// saves it. A missing template starts out as an empty container. A non-empty
// meta.ETag must match the stored one. Each save gets a fresh SnapshotID
// and UpdatedAt unless meta sets them.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (Meta, error) {
	if r.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	if ref.Domain == "" {
		return Meta{}, fmt.Errorf("state: domain is required")
	}
	if ref.Scope.Name == "" {
		return Meta{}, fmt.Errorf("state: scope name is required")
	}
	if fn == nil {
		return Meta{}, fmt.Errorf("state: mutator is required")
	}

	template, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	if !ok || template == nil {
		template = paths.New()
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(template); err != nil {
		return loadedMeta, err
	}

	if _, err := paths.Build(layering.Clone(template), ""); err != nil {
		return loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	if meta.SnapshotID == "" {
		saveMeta.SnapshotID = uuid.NewString()
	}
	if meta.UpdatedAt.IsZero() {
		saveMeta.UpdatedAt = time.Now().UTC()
	}
	savedMeta, err := r.Store.Save(ctx, ref, template, saveMeta)
	if err != nil {
		return loadedMeta, fmt.Errorf("state: save %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	return savedMeta, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
