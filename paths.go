package paths

import "context"

// Wrap pairs root, which is expected to be built already, with opts.
func Wrap(root *Node, opts ...Option) *Paths {
	cfg := applyOptions(opts)
	return &Paths{
		Root:    root,
		BuildID: cfg.buildID,
		cfg:     cfg,
	}
}

// Load builds root under basePath and wraps the result.
func Load(root *Node, basePath string, opts ...Option) (*Paths, error) {
	return LoadContext(context.Background(), root, basePath, opts...)
}

// LoadContext is Load with a context handed to activity hooks.
func LoadContext(ctx context.Context, root *Node, basePath string, opts ...Option) (*Paths, error) {
	cfg := applyOptions(opts)
	buildID, err := cfg.buildNode(ctx, root, basePath)
	if err != nil {
		return nil, err
	}
	return &Paths{
		Root:     root,
		BasePath: basePath,
		BuildID:  buildID,
		cfg:      cfg,
	}, nil
}

// LoadValue classifies template with FromValue, builds it and wraps the
// result. Plain maps are copied into nodes, so template itself is left
// untouched.
func LoadValue(template any, basePath string, opts ...Option) (*Paths, error) {
	return Load(FromValue(template), basePath, opts...)
}

// Lookup returns the computed path stored under a dotted key.
func (p *Paths) Lookup(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	return Lookup(p.Root, key)
}

// Get returns the computed path under a dotted key, or the empty string.
func (p *Paths) Get(key string) string {
	path, _ := p.Lookup(key)
	return path
}

// Routes lists every computed path in container order.
func (p *Paths) Routes() Routes {
	if p == nil {
		return nil
	}
	return RoutesOf(p.Root)
}

// Map renders the built tree as nested plain maps.
func (p *Paths) Map() map[string]any {
	if p == nil {
		return nil
	}
	return p.Root.Map()
}
