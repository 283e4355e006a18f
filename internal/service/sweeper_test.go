package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadMatches(t *testing.T) {
	payload := []byte(`{"school_name":"Test School","terms":[{"events":[{"event_text":"FULL original event description exactly as written"}]}]}`)

	t.Run("case-insensitive by default", func(t *testing.T) {
		assert.True(t, payloadMatches(payload, []string{"full ORIGINAL event"}, false))
	})

	t.Run("case-sensitive mode", func(t *testing.T) {
		assert.True(t, payloadMatches(payload, []string{"FULL original event"}, true))
		assert.False(t, payloadMatches(payload, []string{"full original event"}, true))
	})

	t.Run("any pattern matches", func(t *testing.T) {
		assert.True(t, payloadMatches(payload, UnwantedTextPatterns, false))
	})

	t.Run("no match", func(t *testing.T) {
		assert.False(t, payloadMatches(payload, []string{"nothing here"}, false))
	})

	t.Run("invalid JSON never matches", func(t *testing.T) {
		assert.False(t, payloadMatches([]byte(`{broken`), []string{"broken"}, false))
	})

	t.Run("empty payload never matches", func(t *testing.T) {
		assert.False(t, payloadMatches(nil, []string{"anything"}, false))
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview([]byte("short"), 200))
	assert.Equal(t, "abcde...", preview([]byte("abcdefgh"), 5))
}
