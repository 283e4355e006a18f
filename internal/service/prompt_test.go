package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptForWebsite(t *testing.T) {
	t.Run("substitutes website URL", func(t *testing.T) {
		prompt := PromptForWebsite("https://school.example.org")
		assert.Contains(t, prompt, "School website URL: https://school.example.org")
		assert.Contains(t, prompt, `"source_url": "https://school.example.org"`)
		assert.NotContains(t, prompt, "{{SCHOOL_WEBSITE_URL}}")
	})

	t.Run("adds https prefix when protocol missing", func(t *testing.T) {
		prompt := PromptForWebsite("school.example.org")
		assert.Contains(t, prompt, "School website URL: https://school.example.org")
	})

	t.Run("keeps http prefix", func(t *testing.T) {
		prompt := PromptForWebsite("http://school.example.org")
		assert.Contains(t, prompt, "School website URL: http://school.example.org")
		assert.NotContains(t, prompt, "https://http://")
	})

	t.Run("empty website falls back to placeholder", func(t *testing.T) {
		prompt := PromptForWebsite("")
		assert.Contains(t, prompt, "School website URL: "+defaultWebsite)
	})

	t.Run("whitespace-only website falls back to placeholder", func(t *testing.T) {
		prompt := PromptForWebsite("   ")
		assert.Contains(t, prompt, "School website URL: "+defaultWebsite)
	})

	t.Run("template text survives substitution", func(t *testing.T) {
		prompt := PromptForWebsite("school.example.org")
		assert.True(t, strings.HasPrefix(prompt, "You are an automated academic calendar"))
		assert.Contains(t, prompt, "Extract 100% of ALL academic calendar")
		assert.Contains(t, prompt, "FAIL THE TASK IF DATA IS INCOMPLETE")
	})
}
