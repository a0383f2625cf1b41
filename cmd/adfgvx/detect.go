package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/tidwall/pretty"

	"github.com/RowanDark/adfgvx/internal/cipher"
)

func runDetect(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	text := fs.String("text", "", "input to inspect (overrides --in)")
	in := fs.String("in", "-", "file whose first line is inspected, or - for stdin")
	asJSON := fs.Bool("json", false, "print the results as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "detect takes no positional arguments")
		return 2
	}

	input, err := readInput(*text, *in, 0, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read input: %v\n", err)
		return 1
	}

	results, err := cipher.NewSmartDetector().Detect(context.Background(), []byte(input))
	if err != nil {
		fmt.Fprintf(stderr, "detect: %v\n", err)
		return 1
	}

	if *asJSON {
		data, err := json.Marshal(results)
		if err != nil {
			fmt.Fprintf(stderr, "encode results: %v\n", err)
			return 1
		}
		_, _ = stdout.Write(pretty.Pretty(data))
		return 0
	}

	if len(results) == 0 {
		fmt.Fprintln(stdout, "no encoding recognised")
		return 0
	}
	for _, r := range results {
		fmt.Fprintf(stdout, "%-12s %.2f  %s", r.Encoding, r.Confidence, r.Reasoning)
		if r.Operation != "" {
			fmt.Fprintf(stdout, " (try %s)", r.Operation)
		}
		fmt.Fprintln(stdout)
	}
	return 0
}
