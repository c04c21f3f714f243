package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfile(t *testing.T) {
	profile, err := LoadProfile()
	require.NoError(t, err)

	assert.Equal(t, "gpt-5.2", profile.DefaultModel())
	assert.Len(t, profile.Models, 5)
	assert.Len(t, profile.Suggestions, 4)

	m, ok := profile.FindModel("o4-mini")
	require.True(t, ok)
	assert.True(t, m.IsReasoning())

	_, ok = profile.FindModel("gpt-3")
	assert.False(t, ok)
}

func TestIsReasoningModel(t *testing.T) {
	tests := map[string]bool{
		"o3-mini": true,
		"o4-mini": true,
		"gpt-5.2": false,
		"gpt-4o":  false,
	}
	for id, want := range tests {
		assert.Equal(t, want, IsReasoningModel(id), id)
	}
}

func TestLoadSystemPrompt(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, FallbackSystemPrompt, LoadSystemPrompt(filepath.Join(dir, "missing.md")))

	blank := filepath.Join(dir, "blank.md")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0600))
	assert.Equal(t, FallbackSystemPrompt, LoadSystemPrompt(blank))

	custom := filepath.Join(dir, "system_prompt.md")
	require.NoError(t, os.WriteFile(custom, []byte("You analyse segments."), 0600))
	assert.Equal(t, "You analyse segments.", LoadSystemPrompt(custom))
}
