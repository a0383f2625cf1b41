// Package selftest runs the built-in health checks for the cipher: a file
// based round trip, known round-trip cases, a timing budget and the handling
// of characters outside the square.
package selftest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
	"github.com/RowanDark/adfgvx/internal/logging"
	"github.com/RowanDark/adfgvx/internal/textio"
)

const (
	DefaultTimeLimit = 500 * time.Millisecond

	timingKey      = "CHAVE123"
	invalidKey     = "UM"
	invalidInput   = "L#UC%AS@!d"
	invalidStrip   = "LUCAS"
	invalidDropped = 5
)

// Case is a named plaintext/key pair that must survive Encipher then Decipher.
type Case struct {
	Name      string
	Key       string
	Plaintext string
}

// DefaultCases are the round trips every build must pass.
var DefaultCases = []Case{
	{Name: "round-trip UM/LUCAS", Key: "UM", Plaintext: "LUCAS"},
	{
		Name:      "round-trip SEMB2025/lorem",
		Key:       "SEMB2025",
		Plaintext: "LOREM IPSUM DOLOR SIT AMET, CONSECTETUR ADIPISCING ELIT. CURABITUR NISI EROS, MAXIMUS A FACILISIS ID, ACCUMSAN NEC TORTOR.",
	},
}

// Files names the collaborators of the file round-trip check.
type Files struct {
	Key       string
	Message   string
	Encrypted string
	Decrypted string
}

// Check is the result of a single check.
type Check struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
	Elapsed time.Duration
}

// Report collects the checks of one run in execution order.
type Report struct {
	Checks []Check
}

// Passed reports whether no check failed. Skipped checks do not count as
// failures.
func (r Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed && !c.Skipped {
			return false
		}
	}
	return true
}

// WriteText renders one line per check.
func (r Report) WriteText(w io.Writer) error {
	for _, c := range r.Checks {
		status := "FAIL"
		switch {
		case c.Skipped:
			status = "SKIP"
		case c.Passed:
			status = "PASS"
		}
		line := fmt.Sprintf("%-4s  %-28s %10s", status, c.Name, c.Elapsed.Round(time.Microsecond))
		if c.Detail != "" {
			line += "  " + c.Detail
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Harness runs checks. The zero value is not usable; call New.
type Harness struct {
	files     *Files
	cases     []Case
	timeLimit time.Duration
	logger    *logging.AuditLogger
}

type Option func(*Harness)

// WithFiles enables the file round-trip check.
func WithFiles(files Files) Option {
	return func(h *Harness) {
		f := files
		h.files = &f
	}
}

// WithCases replaces DefaultCases.
func WithCases(cases ...Case) Option {
	return func(h *Harness) {
		h.cases = append([]Case(nil), cases...)
	}
}

// WithTimeLimit overrides DefaultTimeLimit for the timing check.
func WithTimeLimit(d time.Duration) Option {
	return func(h *Harness) {
		if d > 0 {
			h.timeLimit = d
		}
	}
}

func WithAuditLogger(logger *logging.AuditLogger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func New(opts ...Option) *Harness {
	h := &Harness{
		cases:     DefaultCases,
		timeLimit: DefaultTimeLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}
	return h
}

type checkFunc struct {
	name string
	run  func() Check
}

// Run executes every check. Cancelling ctx marks the remaining checks as
// skipped.
func (h *Harness) Run(ctx context.Context) Report {
	var checks []checkFunc
	if h.files != nil {
		checks = append(checks, checkFunc{name: "file round-trip", run: h.checkFiles})
	}
	for _, c := range h.cases {
		checks = append(checks, checkFunc{name: c.Name, run: func() Check { return checkRoundTrip(c) }})
	}
	checks = append(checks,
		checkFunc{name: "encipher timing", run: h.checkTiming},
		checkFunc{name: "invalid characters", run: checkInvalidCharacters},
	)

	var report Report
	for _, cf := range checks {
		var c Check
		if err := ctx.Err(); err != nil {
			c = Check{Skipped: true, Detail: err.Error()}
		} else {
			start := time.Now()
			c = cf.run()
			if c.Elapsed == 0 {
				c.Elapsed = time.Since(start)
			}
		}
		c.Name = cf.name
		h.emit(c)
		report.Checks = append(report.Checks, c)
	}
	return report
}

func (h *Harness) emit(c Check) {
	decision := logging.DecisionAllow
	if !c.Passed && !c.Skipped {
		decision = logging.DecisionDeny
	}
	_ = h.logger.Emit(logging.AuditEvent{
		EventType: logging.EventSelftestCheck,
		Decision:  decision,
		Reason:    c.Detail,
		Metadata: map[string]any{
			"check":      c.Name,
			"skipped":    c.Skipped,
			"elapsed_us": c.Elapsed.Microseconds(),
		},
	})
}

func (h *Harness) checkFiles() Check {
	f := h.files
	key, err := textio.ReadLine(f.Key, adfgvx.MaxKeyLength)
	if err != nil {
		return Check{Detail: fmt.Sprintf("read key: %v", err)}
	}
	if err := adfgvx.ValidateKey(key); err != nil {
		return Check{Detail: err.Error()}
	}

	ciphertext, err := textio.ReadLine(f.Encrypted, adfgvx.DefaultSymbolCapacity)
	if err != nil {
		return Check{Skipped: true, Detail: fmt.Sprintf("no ciphertext to check: %v", err)}
	}

	res, err := adfgvx.Decipher(ciphertext, key)
	if err != nil {
		return Check{Detail: fmt.Sprintf("decipher %s: %v", f.Encrypted, err)}
	}
	if f.Decrypted != "" {
		if err := textio.WriteText(f.Decrypted, res.Plaintext); err != nil {
			return Check{Detail: err.Error()}
		}
	}

	want, err := textio.ReadLine(f.Message, adfgvx.DefaultPlaintextCapacity)
	if err != nil {
		if errors.Is(err, textio.ErrOpen) || errors.Is(err, textio.ErrEmpty) {
			return Check{Skipped: true, Detail: fmt.Sprintf("deciphered %d characters, no message to compare: %v", len(res.Plaintext), err)}
		}
		return Check{Detail: err.Error()}
	}
	if res.Plaintext != want {
		return Check{Detail: fmt.Sprintf("deciphered %q does not match %s", preview(res.Plaintext), f.Message)}
	}
	return Check{Passed: true, Detail: fmt.Sprintf("%d characters match %s", len(want), f.Message)}
}

func checkRoundTrip(c Case) Check {
	enc, err := adfgvx.Encipher(c.Plaintext, c.Key)
	if err != nil {
		return Check{Detail: fmt.Sprintf("encipher: %v", err)}
	}
	dec, err := adfgvx.Decipher(enc.Ciphertext, c.Key)
	if err != nil {
		return Check{Detail: fmt.Sprintf("decipher: %v", err)}
	}
	if dec.Plaintext != c.Plaintext {
		return Check{Detail: fmt.Sprintf("got %q, want %q", preview(dec.Plaintext), preview(c.Plaintext))}
	}
	return Check{Passed: true, Detail: fmt.Sprintf("ciphertext %q", preview(enc.Ciphertext))}
}

func (h *Harness) checkTiming() Check {
	message := strings.Repeat("A", adfgvx.DefaultPlaintextCapacity)
	start := time.Now()
	enc, err := adfgvx.Encipher(message, timingKey)
	elapsed := time.Since(start)
	if err != nil {
		return Check{Detail: err.Error(), Elapsed: elapsed}
	}
	if elapsed > h.timeLimit {
		return Check{Detail: fmt.Sprintf("took %s, limit %s", elapsed, h.timeLimit), Elapsed: elapsed}
	}
	return Check{
		Passed:  true,
		Detail:  fmt.Sprintf("%d symbols within %s", len(enc.Ciphertext), h.timeLimit),
		Elapsed: elapsed,
	}
}

func checkInvalidCharacters() Check {
	got, err := adfgvx.Encipher(invalidInput, invalidKey)
	if err != nil {
		return Check{Detail: err.Error()}
	}
	want, err := adfgvx.Encipher(invalidStrip, invalidKey)
	if err != nil {
		return Check{Detail: err.Error()}
	}
	if got.Dropped != invalidDropped {
		return Check{Detail: fmt.Sprintf("dropped %d characters, want %d", got.Dropped, invalidDropped)}
	}
	if got.Ciphertext != want.Ciphertext {
		return Check{Detail: fmt.Sprintf("ciphertext %q, want %q", got.Ciphertext, want.Ciphertext)}
	}
	return Check{Passed: true, Detail: fmt.Sprintf("dropped %d, ciphertext %q", got.Dropped, got.Ciphertext)}
}

func preview(s string) string {
	const max = 50
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
