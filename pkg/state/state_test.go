package state_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	paths "github.com/goliatone/go-paths"
	"github.com/goliatone/go-paths/pkg/state"
)

func TestRefIdentifier(t *testing.T) {
	cases := []struct {
		name   string
		ref    state.Ref
		expect string
		err    string
	}{
		{"system", state.Ref{Domain: "api", Scope: state.Scope{Name: state.ScopeSystem}}, "system/api", ""},
		{"tenant", state.Ref{Domain: "api", Scope: state.Scope{Name: state.ScopeTenant, ID: "t1"}}, "tenant/t1/api", ""},
		{"user", state.Ref{Domain: "api", Scope: state.Scope{Name: state.ScopeUser, ID: "u42"}}, "user/u42/api", ""},
		{"missing id", state.Ref{Domain: "api", Scope: state.Scope{Name: state.ScopeTeam}}, "", `missing id for scope "team"`},
		{"unknown scope", state.Ref{Domain: "api", Scope: state.Scope{Name: "global"}}, "", `unsupported scope name "global"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.ref.Identifier()
			if tc.err != "" {
				if err == nil || err.Error() != tc.err {
					t.Fatalf("expected error %q, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}

var (
	systemScope = state.Scope{Name: state.ScopeSystem}
	tenantScope = state.Scope{Name: state.ScopeTenant, ID: "acme"}
)

func seededStore(t *testing.T) *state.MemoryStore {
	t.Helper()
	store := state.NewMemoryStore()
	ctx := context.Background()
	system := paths.New().
		Set("user", paths.New().Set("id", 1).Set("profile", "me")).
		Set("health", "ok")
	if _, err := store.Save(ctx, state.Ref{Domain: "api", Scope: systemScope}, system, state.Meta{ETag: "s1"}); err != nil {
		t.Fatalf("save system: %v", err)
	}
	tenant := paths.New().Set("user", paths.New().Set("id", 2))
	if _, err := store.Save(ctx, state.Ref{Domain: "api", Scope: tenantScope}, tenant, state.Meta{ETag: "t1"}); err != nil {
		t.Fatalf("save tenant: %v", err)
	}
	return store
}

func TestResolverLayersScopes(t *testing.T) {
	store := seededStore(t)
	resolver := state.Resolver{Store: store, Options: []paths.Option{paths.WithBuildID("resolved")}}

	resolved, err := resolver.Resolve(context.Background(), "api", "/v1", tenantScope, systemScope, state.Scope{Name: state.ScopeUser, ID: "nobody"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.BuildID != "resolved" {
		t.Fatalf("expected options applied, got build id %q", resolved.BuildID)
	}
	want := []string{"/v1/user/2", "/v1/user/me", "/v1/health/ok"}
	got := resolved.Routes().Paths()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("expected %v, got %v", want, got)
	}

	again, err := resolver.Resolve(context.Background(), "api", "/v2", systemScope)
	if err != nil {
		t.Fatalf("resolving twice must not hit sealed leaves: %v", err)
	}
	if again.Get("user.id") != "/v2/user/1" {
		t.Fatalf("unexpected system path %q", again.Get("user.id"))
	}
}

func TestResolverErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := (state.Resolver{}).Resolve(ctx, "api", "", systemScope); err == nil {
		t.Fatalf("expected missing store error")
	}
	resolver := state.Resolver{Store: state.NewMemoryStore()}
	if _, err := resolver.Resolve(ctx, "", "", systemScope); err == nil {
		t.Fatalf("expected missing domain error")
	}
	if _, err := resolver.Resolve(ctx, "api", ""); err == nil {
		t.Fatalf("expected missing scopes error")
	}
	if _, err := resolver.Resolve(ctx, "api", "", systemScope); err == nil || !strings.Contains(err.Error(), "no templates found") {
		t.Fatalf("expected no templates error, got %v", err)
	}
	if _, err := resolver.Resolve(ctx, "api", "", state.Scope{Name: "bogus"}); err == nil || !strings.Contains(err.Error(), "unsupported scope") {
		t.Fatalf("expected identifier error, got %v", err)
	}
}

func TestResolverMutate(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	resolver := state.Resolver{Store: store}
	ref := state.Ref{Domain: "api", Scope: tenantScope}

	meta, err := resolver.Mutate(ctx, ref, state.Meta{ETag: "t1"}, func(template *paths.Node) error {
		return template.Assign("posts", paths.New().Set("latest", 9))
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if meta.SnapshotID == "" || meta.UpdatedAt.IsZero() || meta.ETag != "t1" {
		t.Fatalf("unexpected saved meta %+v", meta)
	}

	template, loaded, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: %v %v", ok, err)
	}
	if loaded.SnapshotID != meta.SnapshotID {
		t.Fatalf("expected stored meta, got %+v", loaded)
	}
	if _, found := template.Get("posts"); !found {
		t.Fatalf("expected mutation saved, keys %v", template.Keys())
	}
}

func TestResolverMutateRejections(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	resolver := state.Resolver{Store: store}
	ref := state.Ref{Domain: "api", Scope: tenantScope}

	_, err := resolver.Mutate(ctx, ref, state.Meta{ETag: "stale"}, func(*paths.Node) error { return nil })
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}

	_, err = resolver.Mutate(ctx, ref, state.Meta{}, func(template *paths.Node) error {
		template.Set("self", template)
		return nil
	})
	if !errors.Is(err, paths.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	sentinel := errors.New("mutator failed")
	if _, err := resolver.Mutate(ctx, ref, state.Meta{}, func(*paths.Node) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("expected mutator error, got %v", err)
	}

	template, meta, _, _ := store.Load(ctx, ref)
	if meta.ETag != "t1" || template.Len() != 1 {
		t.Fatalf("expected rejected mutations not saved, got %+v %v", meta, template.Keys())
	}
}

func TestResolverMutateCreatesTemplate(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	resolver := state.Resolver{Store: store}
	ref := state.Ref{Domain: "api", Scope: state.Scope{Name: state.ScopeUser, ID: "u1"}}

	if _, err := resolver.Mutate(ctx, ref, state.Meta{SnapshotID: "snap-1"}, func(template *paths.Node) error {
		template.Set("me", "profile")
		return nil
	}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	_, meta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok || meta.SnapshotID != "snap-1" {
		t.Fatalf("unexpected stored meta %+v ok=%v err=%v", meta, ok, err)
	}
}

func TestMemoryStoreCopiesTemplates(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	ref := state.Ref{Domain: "api", Scope: systemScope}
	original := paths.New().Set("id", 1)
	if _, err := store.Save(ctx, ref, original, state.Meta{Extra: map[string]string{"a": "b"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	original.Set("id", 2)

	loaded, meta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: %v %v", ok, err)
	}
	if _, err := paths.Build(loaded, "/x"); err != nil {
		t.Fatalf("build: %v", err)
	}
	meta.Extra["a"] = "changed"

	reloaded, reloadedMeta, _, _ := store.Load(ctx, ref)
	id, _ := reloaded.Get("id")
	if id.Sealed() || id.Value() != 1 {
		t.Fatalf("expected stored template untouched, got %v", id.Value())
	}
	if reloadedMeta.Extra["a"] != "b" {
		t.Fatalf("expected stored meta untouched, got %v", reloadedMeta.Extra)
	}

	if _, _, ok, err := store.Load(ctx, state.Ref{Domain: "other", Scope: systemScope}); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}
