// Package state defines storage-facing contracts for loading and saving
// per-scope path templates, plus a small resolver that layers the templates
// of several scopes and builds the result.
//
// Data flow:
//
//	Store -> Resolver -> layering.Merge(...) -> paths.LoadContext(...) -> *paths.Paths
//
// Store implementations only load and save a single template for a single
// Ref. The core paths package stays storage-agnostic.
//
// Deterministic keys:
//
//	Ref.Identifier() renders "system/<domain>" for the system scope and
//	"<scope>/<id>/<domain>" for tenant, org, team and user scopes.
package state
