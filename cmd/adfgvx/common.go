package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
	"github.com/RowanDark/adfgvx/internal/config"
	"github.com/RowanDark/adfgvx/internal/logging"
	"github.com/RowanDark/adfgvx/internal/textio"
)

func loadConfig(stderr io.Writer) (config.Config, bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return config.Config{}, false
	}
	return cfg, true
}

// openAudit returns a logger writing to path, or one that drops events when
// no audit log is configured.
func openAudit(path, component string) (*logging.AuditLogger, error) {
	if strings.TrimSpace(path) == "" {
		return logging.Discard(), nil
	}
	return logging.NewAuditLogger(component, logging.WithoutStderr(), logging.WithFile(path))
}

// resolveKey prefers an inline key over the key file.
func resolveKey(inline, path string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	key, err := textio.ReadLine(path, adfgvx.MaxKeyLength)
	if err != nil {
		return "", fmt.Errorf("read key: %w", err)
	}
	return key, nil
}

// readInput returns inline text, the first line of path, or all of stdin
// when path is "-".
func readInput(inline, path string, max int, stdin io.Reader) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	return textio.ReadLine(path, max)
}

var stdin io.Reader = os.Stdin

func capacityOptions(capacity int) []adfgvx.Option {
	if capacity <= 0 {
		return nil
	}
	return []adfgvx.Option{adfgvx.WithPlaintextCapacity(capacity)}
}
