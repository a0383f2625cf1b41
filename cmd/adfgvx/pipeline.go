package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/RowanDark/adfgvx/internal/cipher"
)

// paramFlag collects repeated --param name=value pairs.
type paramFlag map[string]interface{}

func (p paramFlag) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(pairs, ",")
}

func (p paramFlag) Set(value string) error {
	name, val, ok := strings.Cut(value, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", value)
	}
	p[name] = val
	return nil
}

func runPipeline(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	recipeName := fs.String("recipe", "", "saved or built-in recipe to run")
	ops := fs.String("ops", "", "comma separated operation names to run in order")
	key := fs.String("key", "", "cipher key passed to every operation")
	reverse := fs.Bool("reverse", false, "run the reversed pipeline")
	text := fs.String("text", "", "input (overrides --in)")
	in := fs.String("in", "-", "file whose first line is the input, or - for stdin")
	recipesDir := fs.String("recipes-dir", cfg.RecipesDir, "directory holding saved recipes")
	listOps := fs.Bool("list-ops", false, "list the registered operations and exit")
	params := paramFlag{}
	fs.Var(params, "param", "operation parameter as name=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "pipeline takes no positional arguments")
		return 2
	}

	if *listOps {
		for _, op := range cipher.ListOperations() {
			fmt.Fprintf(stdout, "%-16s %-10s %s\n", op.Name(), op.Type(), op.Description())
		}
		return 0
	}

	if (*recipeName == "") == (*ops == "") {
		fmt.Fprintln(stderr, "exactly one of --recipe or --ops is required")
		return 2
	}

	var pipeline *cipher.Pipeline
	if *recipeName != "" {
		manager := cipher.NewRecipeManager(*recipesDir)
		if err := manager.LoadRecipes(); err != nil {
			fmt.Fprintf(stderr, "load recipes: %v\n", err)
			return 1
		}
		recipe, found := manager.GetRecipe(*recipeName)
		if !found {
			fmt.Fprintf(stderr, "recipe %q not found\n", *recipeName)
			return 1
		}
		pipeline = &recipe.Pipeline
	} else {
		built, err := pipelineFromOps(*ops)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		pipeline = built
	}

	if *key != "" {
		params["key"] = *key
	}
	pipeline = pipeline.Bind(params)

	if *reverse {
		reversed, err := pipeline.Reverse()
		if err != nil {
			fmt.Fprintf(stderr, "reverse pipeline: %v\n", err)
			return 1
		}
		pipeline = reversed
	}

	input, err := readInput(*text, *in, 0, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read input: %v\n", err)
		return 1
	}

	output, err := pipeline.Execute(context.Background(), []byte(input))
	if err != nil {
		fmt.Fprintf(stderr, "pipeline: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(output))
	return 0
}

// pipelineFromOps builds a pipeline from a comma separated list. The result
// is reversible when every named operation has an inverse.
func pipelineFromOps(list string) (*cipher.Pipeline, error) {
	p := &cipher.Pipeline{Reversible: true}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		op, ok := cipher.GetOperation(name)
		if !ok {
			return nil, fmt.Errorf("unknown operation: %s", name)
		}
		if _, rev := op.Reverse(); !rev {
			p.Reversible = false
		}
		p.Operations = append(p.Operations, cipher.OperationConfig{Name: name})
	}
	if len(p.Operations) == 0 {
		return nil, fmt.Errorf("--ops names no operations")
	}
	return p, nil
}
