package llm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptTemplate is the two-section generation prompt loaded from the
// external template file.
type PromptTemplate struct {
	SystemPrompt string `yaml:"system_prompt"`
	UserPrompt   string `yaml:"user_prompt"`
}

func LoadPromptTemplate(path string) (*PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt template: %w", err)
	}
	var tmpl PromptTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	if tmpl.SystemPrompt == "" || tmpl.UserPrompt == "" {
		return nil, fmt.Errorf("prompt template %s must define system_prompt and user_prompt", path)
	}
	return &tmpl, nil
}

// Render concatenates the two sections and fills the {context} and
// {question} placeholders.
func (t *PromptTemplate) Render(contextText, question string) string {
	template := t.SystemPrompt + "\n\n" + t.UserPrompt
	return strings.NewReplacer(
		"{context}", contextText,
		"{question}", question,
	).Replace(template)
}
