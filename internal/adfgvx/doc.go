// Package adfgvx implements the ADFGVX field cipher: a substitution through a
// fixed 6x6 Polybius square followed by a columnar transposition keyed by a
// short key.
//
// # Deciphering
//
//	res, err := adfgvx.Decipher("XFFAADGAAG", "UM")
//	// res.Plaintext: "LUCAS"
//
// Decipher runs three stages in sequence: the transposition is reversed into
// per-column buffers, the buffers are read back row by row in original key
// order, and the resulting symbol pairs are mapped through the square.
//
// # Enciphering
//
//	res, err := adfgvx.Encipher("LUCAS", "UM")
//	// res.Ciphertext: "XFFAADGAAG"
//
// Characters that are not present in the square are dropped and counted in
// EncipherResult.Dropped.
//
// # Errors
//
// Failures never panic. Decoding stops at the first invalid symbol pair and
// returns the prefix decoded so far together with a *DecodeError, so callers
// can tell a partial result from a complete one with errors.Is(err,
// ErrInvalidSymbol) or Result.Partial.
//
// # Thread Safety
//
// The square and symbol alphabet are immutable package-level tables. Every
// call allocates its own buffers, so all functions are safe for concurrent
// use.
package adfgvx
