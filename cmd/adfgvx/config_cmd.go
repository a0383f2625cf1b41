package main

import (
	"fmt"
	"io"
)

func runConfig(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "print" || len(args) > 1 {
		fmt.Fprintln(stderr, "usage: adfgvx config print")
		return 2
	}
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}
	data, err := cfg.Masked().Render()
	if err != nil {
		fmt.Fprintf(stderr, "render config: %v\n", err)
		return 1
	}
	_, _ = stdout.Write(data)
	return 0
}
