package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCSVBytes(t *testing.T) {
	t.Run("valid utf-8 passes through", func(t *testing.T) {
		text, err := decodeCSVBytes([]byte("URN,EstablishmentName\n100000,Test School"))
		require.NoError(t, err)
		assert.Equal(t, "URN,EstablishmentName\n100000,Test School", text)
	})

	t.Run("latin-1 bytes are decoded", func(t *testing.T) {
		// 0xE9 is é in ISO 8859-1 and invalid as a standalone UTF-8 byte.
		text, err := decodeCSVBytes([]byte{'C', 'a', 'f', 0xE9})
		require.NoError(t, err)
		assert.Equal(t, "Café", text)
	})

	t.Run("empty input", func(t *testing.T) {
		text, err := decodeCSVBytes(nil)
		require.NoError(t, err)
		assert.Equal(t, "", text)
	})
}

func TestOrUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", orUnknown(""))
	assert.Equal(t, "Leeds", orUnknown("Leeds"))
}
