package selftest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RowanDark/adfgvx/internal/logging"
	"github.com/RowanDark/adfgvx/internal/textio"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixtureFiles(t *testing.T, key, ciphertext, message string) Files {
	t.Helper()
	dir := t.TempDir()
	files := Files{
		Key:       filepath.Join(dir, textio.DefaultKeyFile),
		Message:   filepath.Join(dir, textio.DefaultMessageFile),
		Encrypted: filepath.Join(dir, textio.DefaultEncryptedFile),
		Decrypted: filepath.Join(dir, textio.DefaultDecryptedFile),
	}
	if key != "" {
		writeFixture(t, dir, textio.DefaultKeyFile, key+"\n")
	}
	if ciphertext != "" {
		writeFixture(t, dir, textio.DefaultEncryptedFile, ciphertext+"\n")
	}
	if message != "" {
		writeFixture(t, dir, textio.DefaultMessageFile, message+"\n")
	}
	return files
}

func checkByName(t *testing.T, report Report, name string) Check {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not in report", name)
	return Check{}
}

func TestRunDefaultChecks(t *testing.T) {
	report := New(WithTimeLimit(5 * time.Second)).Run(context.Background())

	require.Len(t, report.Checks, 4)
	assert.True(t, report.Passed())
	for _, c := range report.Checks {
		assert.True(t, c.Passed, "%s: %s", c.Name, c.Detail)
	}

	invalid := checkByName(t, report, "invalid characters")
	assert.Contains(t, invalid.Detail, "XFFAADGAAG")
}

func TestRunFileRoundTrip(t *testing.T) {
	files := fixtureFiles(t, "UM", "XFFAADGAAG", "LUCAS")

	report := New(WithFiles(files), WithCases(), WithTimeLimit(5*time.Second)).Run(context.Background())
	c := checkByName(t, report, "file round-trip")
	assert.True(t, c.Passed, c.Detail)

	written, err := textio.ReadLine(files.Decrypted, 0)
	require.NoError(t, err)
	assert.Equal(t, "LUCAS", written)
}

func TestRunFileRoundTripMismatch(t *testing.T) {
	files := fixtureFiles(t, "UM", "XFFAADGAAG", "LUCIA")

	report := New(WithFiles(files), WithCases(), WithTimeLimit(5*time.Second)).Run(context.Background())
	c := checkByName(t, report, "file round-trip")
	assert.False(t, c.Passed)
	assert.False(t, c.Skipped)
	assert.False(t, report.Passed())
}

func TestRunFileRoundTripMissingInputs(t *testing.T) {
	t.Run("missing ciphertext is skipped", func(t *testing.T) {
		files := fixtureFiles(t, "UM", "", "LUCAS")
		c := checkByName(t, New(WithFiles(files), WithCases()).Run(context.Background()), "file round-trip")
		assert.True(t, c.Skipped)
	})
	t.Run("missing key fails", func(t *testing.T) {
		files := fixtureFiles(t, "", "XFFAADGAAG", "LUCAS")
		c := checkByName(t, New(WithFiles(files), WithCases()).Run(context.Background()), "file round-trip")
		assert.False(t, c.Passed)
		assert.False(t, c.Skipped)
		assert.Contains(t, c.Detail, "read key")
	})
	t.Run("missing message is skipped after writing output", func(t *testing.T) {
		files := fixtureFiles(t, "UM", "XFFAADGAAG", "")
		c := checkByName(t, New(WithFiles(files), WithCases()).Run(context.Background()), "file round-trip")
		assert.True(t, c.Skipped)
		written, err := textio.ReadLine(files.Decrypted, 0)
		require.NoError(t, err)
		assert.Equal(t, "LUCAS", written)
	})
}

func TestRunTimingLimit(t *testing.T) {
	report := New(WithCases(), WithTimeLimit(time.Nanosecond)).Run(context.Background())
	c := checkByName(t, report, "encipher timing")
	assert.False(t, c.Passed)
	assert.Contains(t, c.Detail, "limit")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := New().Run(ctx)
	require.NotEmpty(t, report.Checks)
	for _, c := range report.Checks {
		assert.True(t, c.Skipped, c.Name)
	}
	assert.True(t, report.Passed())
}

func TestRunEmitsAuditEvents(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewAuditLogger("selftest", logging.WithoutStderr(), logging.WithWriter(&buf))
	require.NoError(t, err)

	report := New(WithAuditLogger(logger), WithTimeLimit(5*time.Second)).Run(context.Background())
	assert.Equal(t, len(report.Checks), strings.Count(buf.String(), `"event_type":"selftest_check"`))
}

func TestReportWriteText(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "ok", Passed: true, Elapsed: time.Millisecond},
		{Name: "skipped", Skipped: true, Detail: "no input"},
		{Name: "broken", Detail: "mismatch"},
	}}
	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "PASS"))
	assert.True(t, strings.HasPrefix(lines[1], "SKIP"))
	assert.True(t, strings.HasPrefix(lines[2], "FAIL"))
	assert.Contains(t, lines[2], "mismatch")
	assert.False(t, report.Passed())
}
