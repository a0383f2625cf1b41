package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
	"github.com/RowanDark/adfgvx/internal/cipher"
	"github.com/RowanDark/adfgvx/internal/logging"
	"github.com/RowanDark/adfgvx/internal/textio"
)

func runEncipher(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("encipher", flag.ContinueOnError)
	fs.SetOutput(stderr)
	key := fs.String("key", "", "cipher key (overrides --key-file)")
	keyFile := fs.String("key-file", cfg.Files.Key, "file whose first line is the key")
	text := fs.String("text", "", "plaintext to encipher (overrides --in)")
	in := fs.String("in", cfg.Files.Message, "file whose first line is the plaintext, or - for stdin")
	out := fs.String("out", "", "file to write the ciphertext to (defaults to the encrypted file when reading from --in)")
	capacity := fs.Int("capacity", cfg.Capacity, "maximum plaintext characters")
	normalize := fs.Bool("normalize", false, "upper-case the plaintext before enciphering")
	group := fs.Int("group", 0, "split the ciphertext into groups of this size")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "encipher takes no positional arguments")
		return 2
	}
	if *out == "" && *text == "" && *in != "-" {
		*out = cfg.Files.Encrypted
	}

	audit, err := openAudit(cfg.AuditLog, "encipher")
	if err != nil {
		fmt.Fprintf(stderr, "open audit log: %v\n", err)
		return 1
	}
	defer audit.Close()

	k, err := resolveKey(*key, *keyFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := adfgvx.ValidateKey(k); err != nil {
		_ = audit.Emit(logging.AuditEvent{
			EventType: logging.EventKeyRejected,
			Decision:  logging.DecisionDeny,
			Reason:    err.Error(),
			Metadata:  map[string]any{"key_length": len(k)},
		})
		fmt.Fprintf(stderr, "invalid key: %v\n", err)
		return 1
	}

	plaintext, err := readInput(*text, *in, 0, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read plaintext: %v\n", err)
		return 1
	}

	ctx := context.Background()
	if *normalize {
		normalized, err := applyOperation(ctx, "normalize_text", []byte(plaintext), nil)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		plaintext = string(normalized)
	}

	res, encErr := adfgvx.Encipher(plaintext, k, capacityOptions(*capacity)...)
	event := logging.AuditEvent{
		EventType: logging.EventEncipher,
		Decision:  logging.DecisionAllow,
		Metadata: map[string]any{
			"key":       k,
			"symbols":   len(res.Ciphertext),
			"dropped":   res.Dropped,
			"truncated": res.Truncated,
		},
	}
	if encErr != nil {
		event.Decision = logging.DecisionDeny
		event.Reason = encErr.Error()
	}
	_ = audit.Emit(event)

	ciphertext := res.Ciphertext
	if *group > 0 {
		grouped, err := applyOperation(ctx, "group_blocks", []byte(ciphertext), map[string]interface{}{"size": *group})
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		ciphertext = string(grouped)
	}

	fmt.Fprintln(stdout, ciphertext)
	if *out != "" && *out != "-" {
		if err := textio.WriteText(*out, ciphertext); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if res.Dropped > 0 {
		fmt.Fprintf(stderr, "dropped %d characters not in the square\n", res.Dropped)
	}
	if encErr != nil {
		fmt.Fprintf(stderr, "encipher: %v\n", encErr)
		return 1
	}
	return 0
}

func applyOperation(ctx context.Context, name string, input []byte, params map[string]interface{}) ([]byte, error) {
	op, ok := cipher.GetOperation(name)
	if !ok {
		return nil, fmt.Errorf("operation %s is not registered", name)
	}
	out, err := op.Execute(ctx, input, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
