package adfgvx

import "errors"

// Result is the outcome of Decipher. On error it still carries whatever was
// decoded before processing stopped.
type Result struct {
	Plaintext string
	// Symbols is the length of the linearized symbol stream.
	Symbols int
	// Expected is the number of characters a well-formed ciphertext of the
	// same length decodes to.
	Expected int
	// Truncated is set when a capacity bound stopped processing.
	Truncated bool
}

// Partial reports whether fewer characters were decoded than the ciphertext
// length implies.
func (r Result) Partial() bool {
	return len(r.Plaintext) < r.Expected
}

// Decipher reverses the transposition of ciphertext under key and decodes
// the recovered symbol pairs.
//
// An invalid key returns ErrInvalidKeyLength without processing anything. An
// empty ciphertext returns an empty Result and no error. Odd symbol counts,
// invalid symbols and capacity limits return the documented errors alongside
// the partial Result.
func Decipher(ciphertext, key string, opts ...Option) (Result, error) {
	if err := ValidateKey(key); err != nil {
		return Result{}, err
	}
	if len(ciphertext) == 0 {
		return Result{}, nil
	}
	cfg := applyOptions(opts)

	order := ResolveOrder(key)
	counts := Partition(len(ciphertext), len(key))
	columns := ReverseTransposition(ciphertext, order, counts)
	symbols, truncated := Linearize(columns, cfg.symbolCap)

	res := Result{
		Symbols:   len(symbols),
		Expected:  len(ciphertext) / 2,
		Truncated: truncated,
	}

	plaintext, err := DecodePairs(symbols, cfg.plaintextCap)
	res.Plaintext = plaintext
	if errors.Is(err, ErrCapacityExceeded) {
		res.Truncated = true
	}
	if err != nil {
		return res, err
	}
	if res.Truncated {
		return res, ErrCapacityExceeded
	}
	return res, nil
}
