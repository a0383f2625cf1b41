package adfgvx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{key: "", valid: false},
		{key: "A", valid: true},
		{key: "UM", valid: true},
		{key: "CHAVE123", valid: true},
		{key: "CHAVE1234", valid: false},
	}

	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if tt.valid {
			assert.NoError(t, err, "key %q", tt.key)
		} else {
			assert.ErrorIs(t, err, ErrInvalidKeyLength, "key %q", tt.key)
		}
	}
}

func TestResolveOrder(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want []int
	}{
		{name: "single column", key: "K", want: []int{0}},
		{name: "two columns", key: "UM", want: []int{1, 0}},
		{name: "ties keep original order", key: "BAA", want: []int{1, 2, 0}},
		{name: "three distinct", key: "CAB", want: []int{1, 2, 0}},
		{name: "digits sort before letters", key: "SEMB2025", want: []int{5, 4, 6, 7, 3, 1, 2, 0}},
		{name: "all equal", key: "ZZZZ", want: []int{0, 1, 2, 3}},
		{name: "empty key", key: "", want: nil},
		{name: "too long", key: "ABCDEFGHI", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveOrder(tt.key))
		})
	}
}

func TestResolveOrderIsPermutation(t *testing.T) {
	for _, key := range []string{"A", "BA", "ADFGVX", "SEMB2025", "AAAAAAAB", "HGFEDCBA"} {
		order := ResolveOrder(key)
		require.Len(t, order, len(key))

		seen := make(map[int]bool, len(order))
		for i, col := range order {
			require.False(t, seen[col], "column %d visited twice for key %q", col, key)
			seen[col] = true
			if i > 0 {
				prev := order[i-1]
				require.LessOrEqual(t, key[prev], key[col])
				if key[prev] == key[col] {
					require.Less(t, prev, col, "ties must keep original index order")
				}
			}
		}
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		total, keyLength int
		want             []int
	}{
		{total: 13, keyLength: 4, want: []int{4, 3, 3, 3}},
		{total: 10, keyLength: 2, want: []int{5, 5}},
		{total: 7, keyLength: 3, want: []int{3, 2, 2}},
		{total: 2, keyLength: 5, want: []int{1, 1, 0, 0, 0}},
		{total: 0, keyLength: 3, want: []int{0, 0, 0}},
		{total: 5, keyLength: 0, want: nil},
	}

	for _, tt := range tests {
		got := Partition(tt.total, tt.keyLength)
		assert.Equal(t, tt.want, got, "Partition(%d, %d)", tt.total, tt.keyLength)

		sum := 0
		for _, n := range got {
			sum += n
		}
		if got != nil {
			assert.Equal(t, tt.total, sum)
		}
	}
}

func TestCountsByColumn(t *testing.T) {
	order := ResolveOrder("CAB")
	counts := Partition(4, 3)
	require.Equal(t, []int{2, 1, 1}, counts)

	// A (column 1) sorts first and receives the extra symbol.
	assert.Equal(t, []int{1, 2, 1}, CountsByColumn(order, counts))
}
