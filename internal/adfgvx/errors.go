package adfgvx

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKeyLength is returned when a key is empty or longer than
	// MaxKeyLength. No processing takes place.
	ErrInvalidKeyLength = errors.New("adfgvx: key length must be between 1 and 8")

	// ErrOddSymbolCount signals a symbol stream that cannot be split into
	// whole pairs, usually a truncated or corrupted ciphertext.
	ErrOddSymbolCount = errors.New("adfgvx: odd number of cipher symbols")

	// ErrInvalidSymbol signals a pair containing a character outside the
	// ADFGVX alphabet. Decoding stops at that pair.
	ErrInvalidSymbol = errors.New("adfgvx: invalid cipher symbol")

	// ErrCapacityExceeded signals that a buffer bound stopped processing
	// early. The accompanying result is still well formed.
	ErrCapacityExceeded = errors.New("adfgvx: capacity exceeded")
)

// DecodeError describes the symbol pair that stopped decoding.
type DecodeError struct {
	// Offset is the index of the pair's first symbol in the linearized
	// symbol stream.
	Offset int
	Pair   [2]byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("adfgvx: invalid symbol pair %q at offset %d", string(e.Pair[:]), e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return ErrInvalidSymbol
}
