package adfgvx

const (
	// DefaultPlaintextCapacity bounds the characters a single call produces
	// or accepts.
	DefaultPlaintextCapacity = 2559

	// DefaultSymbolCapacity bounds the linearized symbol stream.
	DefaultSymbolCapacity = 2 * (DefaultPlaintextCapacity + 1)
)

// Option adjusts the buffer bounds of a single Decipher or Encipher call.
type Option func(*options)

type options struct {
	plaintextCap int
	symbolCap    int
	symbolSet    bool
}

func defaultOptions() options {
	return options{
		plaintextCap: DefaultPlaintextCapacity,
		symbolCap:    DefaultSymbolCapacity,
	}
}

func applyOptions(opts []Option) options {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.symbolSet {
		cfg.symbolCap = symbolCapFor(cfg.plaintextCap)
	}
	return cfg
}

// symbolCapFor is the symbol bound matching a plaintext bound, so a
// ciphertext produced under one capacity always deciphers under the same one.
func symbolCapFor(plaintextCap int) int {
	if plaintextCap <= 0 {
		return 0
	}
	return 2 * (plaintextCap + 1)
}

// WithPlaintextCapacity bounds the number of plaintext characters. Values
// <= 0 remove the bound. Unless WithSymbolCapacity is also given, the symbol
// bound follows it.
func WithPlaintextCapacity(n int) Option {
	return func(o *options) {
		o.plaintextCap = n
	}
}

// WithSymbolCapacity bounds the linearized symbol stream. Odd values are
// rounded down so the stream always holds whole pairs. Values <= 0 remove the
// bound.
func WithSymbolCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			n &^= 1
			if n == 0 {
				n = 2
			}
		}
		o.symbolCap = n
		o.symbolSet = true
	}
}
