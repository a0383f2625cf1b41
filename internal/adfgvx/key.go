package adfgvx

import "sort"

// MaxKeyLength is the longest key accepted by the cipher.
const MaxKeyLength = 8

// ValidateKey rejects keys that are empty or longer than MaxKeyLength.
func ValidateKey(key string) error {
	if len(key) == 0 || len(key) > MaxKeyLength {
		return ErrInvalidKeyLength
	}
	return nil
}

// ResolveOrder returns the column permutation defined by key. order[i] is the
// original index of the column that comes i-th when the key characters are
// sorted ascending. Equal characters keep their original relative order, so
// "BAA" resolves to [1 2 0]. It returns nil for keys rejected by ValidateKey.
func ResolveOrder(key string) []int {
	if ValidateKey(key) != nil {
		return nil
	}
	order := make([]int, len(key))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return key[order[i]] < key[order[j]]
	})
	return order
}

// Partition splits total symbols across keyLength columns. counts[i] is the
// length of the i-th column in alphabetical key order: the first
// total%keyLength columns hold one symbol more than the rest.
func Partition(total, keyLength int) []int {
	if keyLength <= 0 || total < 0 {
		return nil
	}
	rows, extra := total/keyLength, total%keyLength
	counts := make([]int, keyLength)
	for i := range counts {
		counts[i] = rows
		if i < extra {
			counts[i]++
		}
	}
	return counts
}

// CountsByColumn maps alphabetical-order counts back to original column
// indices.
func CountsByColumn(order, counts []int) []int {
	byColumn := make([]int, len(order))
	for i, col := range order {
		if i < len(counts) {
			byColumn[col] = counts[i]
		}
	}
	return byColumn
}
