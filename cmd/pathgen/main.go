// Command pathgen turns JSON or YAML path templates into computed routes.
//
//	pathgen --base /api --format openapi routes.yaml overrides.json
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := Run(context.Background(), os.Stdout, os.Stderr, os.Exit, os.Args[1:]...); err != nil {
		fmt.Fprintf(os.Stderr, "pathgen: %v\n", err)
		os.Exit(1)
	}
}
