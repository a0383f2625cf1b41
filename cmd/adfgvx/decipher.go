package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
	"github.com/RowanDark/adfgvx/internal/cipher"
	"github.com/RowanDark/adfgvx/internal/logging"
	"github.com/RowanDark/adfgvx/internal/textio"
)

func runDecipher(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("decipher", flag.ContinueOnError)
	fs.SetOutput(stderr)
	key := fs.String("key", "", "cipher key (overrides --key-file)")
	keyFile := fs.String("key-file", cfg.Files.Key, "file whose first line is the key")
	text := fs.String("text", "", "ciphertext to decipher (overrides --in)")
	in := fs.String("in", cfg.Files.Encrypted, "file whose first line is the ciphertext, or - for stdin")
	out := fs.String("out", "", "file to write the plaintext to (defaults to the decrypted file when reading from --in)")
	capacity := fs.Int("capacity", cfg.Capacity, "maximum plaintext characters")
	allowPartial := fs.Bool("allow-partial", false, "exit 0 when only a prefix could be deciphered")
	unwrap := fs.Bool("unwrap", false, "strip Base64 armor and transmission groups first")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "decipher takes no positional arguments")
		return 2
	}
	if *out == "" && *text == "" && *in != "-" {
		*out = cfg.Files.Decrypted
	}

	audit, err := openAudit(cfg.AuditLog, "decipher")
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

	ciphertext, err := readInput(*text, *in, 0, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read ciphertext: %v\n", err)
		return 1
	}
	ciphertext = strings.TrimSpace(ciphertext)
	if *unwrap {
		prepared, applied, err := cipher.PrepareCiphertext(context.Background(), []byte(ciphertext))
		if err != nil {
			fmt.Fprintf(stderr, "unwrap: %v\n", err)
			return 1
		}
		if len(applied) > 0 {
			fmt.Fprintf(stderr, "unwrapped: %s\n", strings.Join(applied, ", "))
		}
		ciphertext = string(prepared)
	}

	res, decErr := adfgvx.Decipher(ciphertext, k, capacityOptions(*capacity)...)
	event := logging.AuditEvent{
		EventType: logging.EventDecipher,
		Decision:  logging.DecisionAllow,
		Metadata: map[string]any{
			"key":     k,
			"symbols": res.Symbols,
			"chars":   len(res.Plaintext),
		},
	}
	if decErr != nil {
		event.EventType = logging.EventDecodePartial
		event.Decision = logging.DecisionDeny
		event.Reason = decErr.Error()
		event.Metadata["expected"] = res.Expected
		event.Metadata["truncated"] = res.Truncated
	}
	_ = audit.Emit(event)

	fmt.Fprintln(stdout, res.Plaintext)
	if *out != "" && *out != "-" {
		if err := textio.WriteText(*out, res.Plaintext); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	if decErr != nil {
		fmt.Fprintf(stderr, "decipher: %v (recovered %d of %d characters)\n", decErr, len(res.Plaintext), res.Expected)
		if *allowPartial && partialError(decErr) {
			return 0
		}
		return 1
	}
	return 0
}

// partialError reports errors after which the recovered prefix is still
// meaningful.
func partialError(err error) bool {
	return errors.Is(err, adfgvx.ErrInvalidSymbol) || errors.Is(err, adfgvx.ErrCapacityExceeded)
}
