package adfgvx

// DecodePairs maps consecutive symbol pairs to plaintext characters through
// the square.
//
// An odd-length stream yields "" and ErrOddSymbolCount. The first pair
// holding a character outside the alphabet stops decoding: the characters
// decoded so far are returned with a *DecodeError. Once capacity characters
// have been produced decoding stops with ErrCapacityExceeded. A capacity <= 0
// means no bound.
func DecodePairs(symbols []byte, capacity int) (string, error) {
	if len(symbols)%2 != 0 {
		return "", ErrOddSymbolCount
	}

	n := len(symbols) / 2
	if capacity > 0 && n > capacity {
		n = capacity
	}
	out := make([]byte, 0, n)
	for i := 0; i+1 < len(symbols); i += 2 {
		if capacity > 0 && len(out) == capacity {
			return string(out), ErrCapacityExceeded
		}
		ch, ok := Lookup(symbols[i], symbols[i+1])
		if !ok {
			return string(out), &DecodeError{Offset: i, Pair: [2]byte{symbols[i], symbols[i+1]}}
		}
		out = append(out, ch)
	}
	return string(out), nil
}

// EncodePairs substitutes every enciphered character of plaintext with its
// symbol pair. Characters missing from the square are skipped and counted in
// dropped. At most capacity characters are accepted; accepted reports how many
// bytes of plaintext were consumed. A capacity <= 0 means no bound.
func EncodePairs(plaintext string, capacity int) (symbols []byte, dropped, accepted int) {
	symbols = make([]byte, 0, 2*len(plaintext))
	encoded := 0
	for accepted = 0; accepted < len(plaintext); accepted++ {
		s1, s2, ok := Locate(plaintext[accepted])
		if !ok {
			dropped++
			continue
		}
		if capacity > 0 && encoded == capacity {
			break
		}
		symbols = append(symbols, s1, s2)
		encoded++
	}
	return symbols, dropped, accepted
}
