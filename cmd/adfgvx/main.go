package main

import (
	"fmt"
	"io"
	"os"
)

const cliBanner = "adfgvx: ADFGVX field cipher toolkit"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch args[0] {
	case "decipher":
		return runDecipher(args[1:], stdout, stderr)
	case "encipher":
		return runEncipher(args[1:], stdout, stderr)
	case "selftest":
		return runSelftest(args[1:], stdout, stderr)
	case "detect":
		return runDetect(args[1:], stdout, stderr)
	case "pipeline":
		return runPipeline(args[1:], stdout, stderr)
	case "recipe":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "recipe subcommand required")
			return 2
		}
		switch args[1] {
		case "save":
			return runRecipeSave(args[2:], stdout, stderr)
		case "list":
			return runRecipeList(args[2:], stdout, stderr)
		case "delete":
			return runRecipeDelete(args[2:], stdout, stderr)
		default:
			fmt.Fprintf(stderr, "unknown recipe subcommand: %s\n", args[1])
			return 2
		}
	case "batch":
		return runBatch(args[1:], stdout, stderr)
	case "serve":
		return runServe(args[1:], stdout, stderr)
	case "self-update":
		return runSelfUpdate(args[1:], stdout, stderr)
	case "config":
		return runConfig(args[1:], stdout, stderr)
	case "version", "--version", "-version":
		return runVersion(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, cliBanner)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: adfgvx <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  decipher      decipher a message (defaults to key.txt and encrypted.txt)")
	fmt.Fprintln(w, "  encipher      encipher a message (defaults to key.txt and message.txt)")
	fmt.Fprintln(w, "  selftest      run the built-in checks")
	fmt.Fprintln(w, "  detect        guess how an input is encoded")
	fmt.Fprintln(w, "  pipeline      run a chain of operations or a saved recipe")
	fmt.Fprintln(w, "  recipe        save, list or delete recipes")
	fmt.Fprintln(w, "  batch         decipher JSON Lines jobs concurrently")
	fmt.Fprintln(w, "  serve         run the gRPC cipher service")
	fmt.Fprintln(w, "  self-update   update or roll back this binary")
	fmt.Fprintln(w, "  config        print the resolved configuration")
	fmt.Fprintln(w, "  version       print the version")
}
