// Package openapi publishes built path trees as OpenAPI documents, one
// operation per computed path.
package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	paths "github.com/goliatone/go-paths"
)

// KeyExtension is the operation extension holding the dotted template key.
const KeyExtension = "x-path-key"

var (
	// ErrNotBuilt is returned for trees holding leaves without a computed path.
	ErrNotBuilt = errors.New("openapi: template has not been built")
	// ErrDuplicatePath is returned when two keys compute the same path.
	ErrDuplicatePath = errors.New("openapi: duplicate path")
)

// Document describes every route of a built tree. Each computed path gets
// one operation whose operationId is the dotted template key.
func Document(root *paths.Node, opts ...GeneratorOption) (*openapi3.T, error) {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	doc := &openapi3.T{
		OpenAPI: cfg.openAPIVersion,
		Info: &openapi3.Info{
			Title:       cfg.info.Title,
			Version:     cfg.info.Version,
			Description: cfg.info.Description,
		},
		Paths: openapi3.NewPaths(),
	}
	for _, url := range cfg.servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: url})
	}

	owners := map[string]string{}
	for _, route := range paths.RoutesOf(root) {
		if route.Path == "" {
			return nil, fmt.Errorf("%w: key %q", ErrNotBuilt, route.Key)
		}
		if owner, ok := owners[route.Path]; ok {
			return nil, fmt.Errorf("%w %q: keys %q and %q", ErrDuplicatePath, route.Path, owner, route.Key)
		}
		owners[route.Path] = route.Key

		item := &openapi3.PathItem{}
		item.SetOperation(cfg.method, operationFor(cfg, route))
		doc.Paths.Set(route.Path, item)
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("openapi: invalid document: %w", err)
	}
	return doc, nil
}

func operationFor(cfg generatorConfig, route paths.Route) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = route.Key
	if cfg.summary != nil {
		op.Summary = cfg.summary(route.Key)
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(cfg.response.Status, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription(cfg.response.Description),
		}),
	)
	op.Extensions = map[string]any{KeyExtension: route.Key}
	return op
}

// Marshal renders doc as indented JSON.
func Marshal(doc *openapi3.T) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("openapi: document is nil")
	}
	return json.MarshalIndent(doc, "", "  ")
}
