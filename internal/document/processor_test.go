package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePDF(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want bool
	}{
		{"pdf header", []byte("%PDF-1.4 test content"), true},
		{"exact magic only", []byte("%PDF"), true},
		{"plain text", []byte("hello world"), false},
		{"empty", nil, false},
		{"too short", []byte("%PD"), false},
		{"magic not at start", []byte(" %PDF-1.4"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidatePDF(tc.data))
		})
	}
}

func TestHash(t *testing.T) {
	data := []byte("%PDF-1.4 test")

	t.Run("known digest", func(t *testing.T) {
		want := "0c2b7641e7978b7292d31b200c064d683a863b20869da2e3566906fd569fb93f" +
			"064768e262b44c196f0712da3826aeea1a05b7fb139bf8d8bfecbb299610294a"
		assert.Equal(t, want, Hash(data))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Hash(data), Hash([]byte("%PDF-1.4 test")))
	})

	t.Run("single byte mutation changes digest", func(t *testing.T) {
		mutated := append([]byte(nil), data...)
		mutated[len(mutated)-1] ^= 0x01
		assert.NotEqual(t, Hash(data), Hash(mutated))
	})

	t.Run("128 hex chars", func(t *testing.T) {
		digest := Hash(nil)
		require.Len(t, digest, 128)
		assert.Equal(t, strings.ToLower(digest), digest)
	})
}

func TestGenerateIdentifier(t *testing.T) {
	t.Run("deterministic for a given seed", func(t *testing.T) {
		assert.Equal(t, "johyNS5q", GenerateIdentifier(1234567890))
		assert.Equal(t, GenerateIdentifier(1700000000), GenerateIdentifier(1700000000))
	})

	t.Run("always eight characters from the alphabet", func(t *testing.T) {
		for _, seed := range []int64{0, 1, 42, 1234567890, 1<<31 - 1} {
			id := GenerateIdentifier(seed)
			require.Len(t, id, IdentifierLength)
			for _, c := range id {
				assert.Contains(t, alphabet, string(c))
			}
		}
	})

	t.Run("different seeds diverge", func(t *testing.T) {
		assert.NotEqual(t, GenerateIdentifier(1), GenerateIdentifier(2))
	})
}

func TestNewIdentifier(t *testing.T) {
	id := NewIdentifier()
	assert.Len(t, id, IdentifierLength)
}
