package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	paths "github.com/goliatone/go-paths"
	"github.com/goliatone/go-paths/internal/codegen"
	"github.com/goliatone/go-paths/internal/hydrate"
	"github.com/goliatone/go-paths/layering"
	"github.com/goliatone/go-paths/schema/openapi"
	"go.uber.org/zap"
)

// CLI is the pathgen command line.
type CLI struct {
	Base    string `help:"Base path prepended to every route." env:"PATHGEN_BASE"`
	Format  string `help:"Output format." enum:"list,json,routes,openapi,go" default:"list" short:"f" env:"PATHGEN_FORMAT"`
	LeafKey bool   `help:"Insert each leaf's key ahead of its value." name:"leaf-key" env:"PATHGEN_LEAF_KEY"`
	Output  string `help:"Write output to this file instead of stdout." short:"o" type:"path" env:"PATHGEN_OUTPUT"`

	Eval   []string `help:"Evaluate expressions against the built routes and print one result per line." short:"e"`
	Engine string   `help:"Expression engine used by --eval." enum:"expr,cel,js" default:"expr" env:"PATHGEN_ENGINE"`

	Package string `help:"Package name for --format=go." default:"routes" group:"go"`
	Type    string `help:"Root type name for --format=go." default:"Routes" group:"go"`
	Var     string `help:"Variable name for --format=go." default:"Paths" group:"go"`

	Title   string `help:"Document title for --format=openapi." default:"Paths" group:"openapi"`
	Version string `help:"Document version for --format=openapi." default:"1.0.0" group:"openapi"`
	Server  string `help:"Server URL for --format=openapi." group:"openapi"`

	LogLevel  string `help:"Log level." enum:"debug,info,warn,error" default:"warn" env:"PATHGEN_LOG_LEVEL"`
	LogFormat string `help:"Log format." enum:"console,json" default:"console" env:"PATHGEN_LOG_FORMAT"`

	Templates []string `arg:"" help:"Template files (.json, .yaml, .yml), strongest first." type:"existingfile"`
}

// Run parses args and executes pathgen, writing results to stdout and logs
// to stderr. exit is called by kong for --help and usage errors.
func Run(ctx context.Context, stdout, stderr io.Writer, exit func(int), args ...string) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("pathgen"),
		kong.Description("Turn nested path templates into computed routes."),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)
	if err != nil {
		return err
	}
	if _, err := parser.Parse(args); err != nil {
		return err
	}

	logger := newLogger(cli.LogLevel, cli.LogFormat, stderr)
	defer func() { _ = logger.Sync() }()

	return cli.Run(ctx, stdout, logger)
}

// Run builds the templates and renders the selected output.
func (c *CLI) Run(ctx context.Context, stdout io.Writer, logger *zap.Logger) error {
	decoder := hydrate.NewDecoder()
	layers := make([]*paths.Node, 0, len(c.Templates))
	for _, file := range c.Templates {
		layer, err := decoder.DecodeFile(file)
		if err != nil {
			return err
		}
		logger.Debug("template loaded", zap.String("file", file), zap.Int("keys", layer.Len()))
		layers = append(layers, layer)
	}
	root := layering.Merge(layers...)
	if root == nil {
		root = paths.New()
	}

	opts := []paths.Option{paths.WithLogger(zapLogger{logger: logger})}
	if c.LeafKey {
		opts = append(opts, paths.WithLeafKey())
	}
	if len(c.Eval) > 0 {
		evaluator, err := c.evaluator()
		if err != nil {
			return err
		}
		opts = append(opts, paths.WithEvaluator(evaluator))
	}

	built, err := paths.LoadContext(ctx, root, c.Base, opts...)
	if err != nil {
		return err
	}

	var out []byte
	if len(c.Eval) > 0 {
		out, err = c.evaluate(built)
	} else {
		out, err = c.render(built)
	}
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(c.Output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.Output, err)
	}
	logger.Info("output written", zap.String("file", c.Output), zap.String("format", c.Format))
	return nil
}

func (c *CLI) evaluator() (paths.Evaluator, error) {
	registry := paths.BuiltinFunctions()
	switch c.Engine {
	case "cel":
		return paths.NewCELEvaluator(paths.EngineFunctions(registry)), nil
	case "js":
		evaluator := paths.NewJSEvaluator(paths.EngineFunctions(registry))
		if evaluator == nil {
			return nil, fmt.Errorf("js engine requires a build with the js_eval tag")
		}
		return evaluator, nil
	default:
		return paths.NewExprEvaluator(paths.EngineFunctions(registry)), nil
	}
}

func (c *CLI) evaluate(built *paths.Paths) ([]byte, error) {
	var buf bytes.Buffer
	for _, expr := range c.Eval {
		resp, err := built.Evaluate(expr)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(&buf, paths.Stringify(resp.Value))
	}
	return buf.Bytes(), nil
}

func (c *CLI) render(built *paths.Paths) ([]byte, error) {
	switch c.Format {
	case "json":
		out, err := json.MarshalIndent(built.Root, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "routes":
		out, err := built.Routes().ToJSON()
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "openapi":
		opts := []openapi.GeneratorOption{openapi.WithInfo(c.Title, c.Version)}
		if c.Server != "" {
			opts = append(opts, openapi.WithServer(c.Server))
		}
		doc, err := openapi.Document(built.Root, opts...)
		if err != nil {
			return nil, err
		}
		out, err := openapi.Marshal(doc)
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "go":
		return codegen.Generate(built.Root, codegen.Config{
			Package:  c.Package,
			TypeName: c.Type,
			VarName:  c.Var,
		})
	default:
		var buf bytes.Buffer
		for _, path := range built.Routes().Paths() {
			fmt.Fprintln(&buf, path)
		}
		return buf.Bytes(), nil
	}
}
