package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPromptTemplate(t *testing.T) {
	path := writePrompt(t, `
system_prompt: You answer handbook questions.
user_prompt: "Context: {context}\nQuestion: {question}"
`)
	tmpl, err := LoadPromptTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "You answer handbook questions.", tmpl.SystemPrompt)
	assert.Contains(t, tmpl.UserPrompt, "{context}")
}

func TestLoadPromptTemplateMissingFile(t *testing.T) {
	_, err := LoadPromptTemplate(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadPromptTemplateRejectsMissingSections(t *testing.T) {
	for name, content := range map[string]string{
		"no user prompt":   "system_prompt: only this\n",
		"no system prompt": "user_prompt: only this\n",
		"empty":            "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPromptTemplate(writePrompt(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadPromptTemplateRejectsBadYAML(t *testing.T) {
	_, err := LoadPromptTemplate(writePrompt(t, "system_prompt: [unclosed"))
	assert.Error(t, err)
}

func TestRenderFillsPlaceholders(t *testing.T) {
	tmpl := &PromptTemplate{
		SystemPrompt: "Answer from the excerpts.",
		UserPrompt:   "Excerpts:\n{context}\n\nQuestion: {question}\nAnswer:",
	}
	got := tmpl.Render("Always stop for school buses.", "When must I stop?")

	assert.Equal(t, "Answer from the excerpts.\n\nExcerpts:\nAlways stop for school buses.\n\nQuestion: When must I stop?\nAnswer:", got)
}

func TestRenderRepeatedPlaceholders(t *testing.T) {
	tmpl := &PromptTemplate{
		SystemPrompt: "Q={question}",
		UserPrompt:   "Again: {question}",
	}
	got := tmpl.Render("", "why?")
	assert.Equal(t, "Q=why?\n\nAgain: why?", got)
}
