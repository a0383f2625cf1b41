package adfgvx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncipher(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
		key       string
		want      string
		dropped   int
	}{
		{name: "two column key", plaintext: "LUCAS", key: "UM", want: "XFFAADGAAG"},
		{name: "uneven columns", plaintext: "HI", key: "CAB", want: "DFDD"},
		{name: "invalid characters are dropped", plaintext: "L#UC%AS@!d", key: "UM", want: "XFFAADGAAG", dropped: 5},
		{name: "empty plaintext", plaintext: "", key: "KEY", want: ""},
		{name: "nothing encipherable", plaintext: "890abc", key: "KEY", want: "", dropped: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Encipher(tt.plaintext, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Ciphertext)
			assert.Equal(t, tt.dropped, res.Dropped)
			assert.False(t, res.Truncated)
		})
	}
}

func TestEncipherInvalidKey(t *testing.T) {
	_, err := Encipher("LUCAS", "")
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = Encipher("LUCAS", "NINECHARS")
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestEncipherCapacity(t *testing.T) {
	res, err := Encipher("LUCAS", "UM", WithPlaintextCapacity(3))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.True(t, res.Truncated)

	dec, err := Decipher(res.Ciphertext, "UM")
	require.NoError(t, err)
	assert.Equal(t, "LUC", dec.Plaintext)

	res, err = Encipher(strings.Repeat("A", DefaultPlaintextCapacity+1), "CHAVE123")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Len(t, res.Ciphertext, 2*DefaultPlaintextCapacity)
}
