package openapi

import "strings"

type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	method         string
	response       responseConfig
	servers        []string
	summary        func(key string) string
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

type responseConfig struct {
	Status      int
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		info: openapiInfo{
			Title:   "Paths",
			Version: "1.0.0",
		},
		method: "GET",
		response: responseConfig{
			Status:      200,
			Description: "OK",
		},
	}
}

// GeneratorOption configures the OpenAPI generator behaviour.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default: 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version == "" {
			return
		}
		cfg.openAPIVersion = version
	}
}

// InfoOption configures optional fields on the OpenAPI info section.
type InfoOption func(*openapiInfo)

// WithInfoDescription sets the optional description field for the info section.
func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) {
		info.Description = description
	}
}

// WithInfo configures the OpenAPI info block. Empty strings retain the
// existing values.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.info)
			}
		}
	}
}

// WithMethod sets the HTTP method of the operation published for each route
// (default: GET).
func WithMethod(method string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if method == "" {
			return
		}
		cfg.method = strings.ToUpper(method)
	}
}

// WithResponse overrides the single response attached to every operation.
func WithResponse(status int, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if status > 0 {
			cfg.response.Status = status
		}
		if description != "" {
			cfg.response.Description = description
		}
	}
}

// WithServer appends a server URL to the document.
func WithServer(url string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if url == "" {
			return
		}
		cfg.servers = append(cfg.servers, url)
	}
}

// WithSummary derives an operation summary from the route key.
func WithSummary(summary func(key string) string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.summary = summary
	}
}
