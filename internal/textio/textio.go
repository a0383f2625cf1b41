// Package textio reads and writes the single-line text files used by the
// file-based cipher flows.
package textio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	DefaultKeyFile       = "key.txt"
	DefaultMessageFile   = "message.txt"
	DefaultEncryptedFile = "encrypted.txt"
	DefaultDecryptedFile = "decrypted.txt"
)

var (
	// ErrOpen is returned when the file cannot be opened.
	ErrOpen = errors.New("textio: cannot open file")
	// ErrEmpty is returned when the file holds no bytes at all.
	ErrEmpty = errors.New("textio: file is empty")
	// ErrLineTooLong is returned when the first line exceeds the limit.
	ErrLineTooLong = errors.New("textio: line exceeds maximum length")
)

// ReadLine returns the first line of path without its line terminator.
// A max of zero or less disables the length check.
func ReadLine(path string, max int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()

	line, err := readFirstLine(f, max)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return line, nil
}

func readFirstLine(r io.Reader, max int) (string, error) {
	br := bufio.NewReader(r)
	raw, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if raw == "" {
		return "", ErrEmpty
	}
	if idx := strings.IndexAny(raw, "\r\n"); idx >= 0 {
		raw = raw[:idx]
	}
	if max > 0 && len(raw) > max {
		return "", fmt.Errorf("%w: %d > %d", ErrLineTooLong, len(raw), max)
	}
	return raw, nil
}

// WriteText replaces path with text followed by a newline.
func WriteText(path, text string) error {
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
