package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/match"

	"github.com/RowanDark/adfgvx/internal/cipher"
)

func openRecipes(dir string, stderr io.Writer) (*cipher.RecipeManager, bool) {
	manager := cipher.NewRecipeManager(dir)
	if err := manager.LoadRecipes(); err != nil {
		fmt.Fprintf(stderr, "load recipes: %v\n", err)
		return nil, false
	}
	return manager, true
}

func runRecipeSave(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("recipe save", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "recipe name")
	description := fs.String("description", "", "short description")
	tags := fs.String("tags", "", "comma separated tags")
	ops := fs.String("ops", "", "comma separated operation names to run in order")
	recipesDir := fs.String("recipes-dir", cfg.RecipesDir, "directory holding saved recipes")
	params := paramFlag{}
	fs.Var(params, "param", "operation parameter as name=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*name) == "" || *ops == "" {
		fmt.Fprintln(stderr, "--name and --ops are required")
		return 2
	}
	if _, ok := params["key"]; ok {
		fmt.Fprintln(stderr, "recipes never store a key; pass --key to pipeline instead")
		return 2
	}

	pipeline, err := pipelineFromOps(*ops)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if len(params) > 0 {
		pipeline = pipeline.Bind(params)
	}

	manager, ok := openRecipes(*recipesDir, stderr)
	if !ok {
		return 1
	}

	recipe := &cipher.Recipe{
		Name:        strings.TrimSpace(*name),
		Description: *description,
		Tags:        splitList(*tags),
		Pipeline:    *pipeline,
	}
	if existing, found := manager.GetRecipe(recipe.Name); found && existing.ID != "" {
		recipe.ID = existing.ID
		recipe.CreatedAt = existing.CreatedAt
	}
	if err := manager.SaveRecipe(recipe); err != nil {
		fmt.Fprintf(stderr, "save recipe: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "saved recipe %s (%s)\n", recipe.Name, recipe.ID)
	return 0
}

func runRecipeList(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("recipe list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	recipesDir := fs.String("recipes-dir", cfg.RecipesDir, "directory holding saved recipes")
	search := fs.String("search", "", "only list recipes whose name, description or tags contain this text")
	pattern := fs.String("match", "", "only list recipes whose name matches this glob (* and ?)")
	builtin := fs.Bool("builtin", true, "include the built-in recipes")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "recipe list takes no positional arguments")
		return 2
	}

	manager, ok := openRecipes(*recipesDir, stderr)
	if !ok {
		return 1
	}

	var recipes []*cipher.Recipe
	if *search != "" {
		recipes = manager.SearchRecipes(*search)
	} else {
		recipes = manager.ListRecipes()
	}
	if *builtin && *search == "" {
		seen := make(map[string]bool, len(recipes))
		for _, r := range recipes {
			seen[r.Name] = true
		}
		for _, r := range cipher.BuiltinRecipes() {
			if !seen[r.Name] {
				recipes = append(recipes, r)
			}
		}
	}

	for _, r := range recipes {
		if *pattern != "" && !match.Match(r.Name, *pattern) {
			continue
		}
		names := make([]string, 0, len(r.Pipeline.Operations))
		for _, op := range r.Pipeline.Operations {
			names = append(names, op.Name)
		}
		origin := "saved"
		if r.ID == "" {
			origin = "builtin"
		}
		fmt.Fprintf(stdout, "%-20s %-8s %s\n", r.Name, origin, strings.Join(names, " > "))
		if r.Description != "" {
			fmt.Fprintf(stdout, "  %s\n", r.Description)
		}
	}
	return 0
}

func runRecipeDelete(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("recipe delete", flag.ContinueOnError)
	fs.SetOutput(stderr)
	recipesDir := fs.String("recipes-dir", cfg.RecipesDir, "directory holding saved recipes")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: adfgvx recipe delete [--recipes-dir DIR] NAME")
		return 2
	}
	name := fs.Arg(0)

	manager, ok := openRecipes(*recipesDir, stderr)
	if !ok {
		return 1
	}
	if existing, found := manager.GetRecipe(name); !found || existing.ID == "" {
		fmt.Fprintf(stderr, "no saved recipe named %q\n", name)
		return 1
	}
	if err := manager.DeleteRecipe(name); err != nil {
		fmt.Fprintf(stderr, "delete recipe: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "deleted recipe %s\n", name)
	return 0
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
