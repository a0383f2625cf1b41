package adfgvx

// EncipherResult is the outcome of Encipher.
type EncipherResult struct {
	Ciphertext string
	// Dropped counts input characters that are not in the square.
	Dropped int
	// Truncated is set when the plaintext capacity stopped the input early.
	Truncated bool
}

// Encipher substitutes plaintext through the square and applies the columnar
// transposition defined by key. Decipher is its exact left inverse.
//
// Characters missing from the square are skipped. When the plaintext
// capacity is reached the accepted prefix is enciphered and
// ErrCapacityExceeded is returned with it.
func Encipher(plaintext, key string, opts ...Option) (EncipherResult, error) {
	if err := ValidateKey(key); err != nil {
		return EncipherResult{}, err
	}
	cfg := applyOptions(opts)

	symbols, dropped, accepted := EncodePairs(plaintext, cfg.plaintextCap)
	res := EncipherResult{
		Ciphertext: string(Transpose(symbols, ResolveOrder(key))),
		Dropped:    dropped,
		Truncated:  accepted < len(plaintext),
	}
	if res.Truncated {
		return res, ErrCapacityExceeded
	}
	return res, nil
}
