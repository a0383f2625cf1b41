package adfgvx

// Symbols is the ordered alphabet indexing rows and columns of the square.
const Symbols = "ADFGVX"

// Square is the fixed Polybius square. Square[row][col] is the plaintext
// character addressed by the symbol pair (Symbols[row], Symbols[col]).
var Square = [6][6]byte{
	{'A', 'B', 'C', 'D', 'E', 'F'},
	{'G', 'H', 'I', 'J', 'K', 'L'},
	{'M', 'N', 'O', 'P', 'Q', 'R'},
	{'S', 'T', 'U', 'V', 'W', 'X'},
	{'Y', 'Z', ' ', ',', '.', '1'},
	{'2', '3', '4', '5', '6', '7'},
}

// position is the inverse of Square, indexed by byte value. Entries for
// characters missing from the square hold ok == false.
type position struct {
	row, col int
	ok       bool
}

var positions = func() (table [256]position) {
	for r, row := range Square {
		for c, ch := range row {
			table[ch] = position{row: r, col: c, ok: true}
		}
	}
	return table
}()

// SymbolIndex returns the index of s within Symbols, or -1 when s is not a
// cipher symbol.
func SymbolIndex(s byte) int {
	switch s {
	case 'A':
		return 0
	case 'D':
		return 1
	case 'F':
		return 2
	case 'G':
		return 3
	case 'V':
		return 4
	case 'X':
		return 5
	}
	return -1
}

// IsSymbol reports whether s belongs to the cipher alphabet.
func IsSymbol(s byte) bool {
	return SymbolIndex(s) >= 0
}

// Lookup maps a symbol pair to its plaintext character.
func Lookup(s1, s2 byte) (byte, bool) {
	row, col := SymbolIndex(s1), SymbolIndex(s2)
	if row < 0 || col < 0 {
		return 0, false
	}
	return Square[row][col], true
}

// Locate returns the symbol pair addressing ch in the square.
func Locate(ch byte) (s1, s2 byte, ok bool) {
	p := positions[ch]
	if !p.ok {
		return 0, 0, false
	}
	return Symbols[p.row], Symbols[p.col], true
}

// InSquare reports whether ch can be enciphered.
func InSquare(ch byte) bool {
	return positions[ch].ok
}
