package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"handbook-rag/internal/index"
	"handbook-rag/internal/models"
)

// QAChain answers a question from retrieved handbook chunks: it pulls
// the top-k chunks from the index and conditions the model on their
// concatenated content plus the loaded prompt template.
type QAChain struct {
	model  llms.Model
	index  *index.Index
	prompt *PromptTemplate
	topK   int
}

func NewQAChain(model llms.Model, ix *index.Index, prompt *PromptTemplate) *QAChain {
	return &QAChain{model: model, index: ix, prompt: prompt, topK: index.DefaultTopK}
}

func (c *QAChain) Answer(ctx context.Context, question string) (string, []models.SearchResult, error) {
	results, err := c.index.Search(ctx, question, c.topK)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	var contextText strings.Builder
	for _, r := range results {
		contextText.WriteString(r.Content)
		contextText.WriteString("\n\n")
	}

	answer, err := generate(ctx, c.model, c.prompt.Render(contextText.String(), question))
	if err != nil {
		// Retrieval already succeeded; hand the sources back so the
		// caller can still surface them.
		return "", results, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return strings.TrimSpace(answer), results, nil
}

const fallbackTemplate = `You are the Official MTO Driver's Handbook Assistant. While I couldn't find specific information in the handbook for your question, I'll provide helpful guidance based on general Ontario driving safety principles.
Question: %s
Please provide a comprehensive answer that includes practical advice and alternatives. If this is a follow-up question (like "what should I do then?"), interpret it in the context of safe driving practices.`

// FallbackChain answers from general instructions only, bypassing
// retrieval. Invoked when the primary chain cannot answer.
type FallbackChain struct {
	model llms.Model
}

func NewFallbackChain(model llms.Model) *FallbackChain {
	return &FallbackChain{model: model}
}

func (c *FallbackChain) Answer(ctx context.Context, question string) (string, error) {
	answer, err := generate(ctx, c.model, fmt.Sprintf(fallbackTemplate, question))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return strings.TrimSpace(answer), nil
}

const enhancementTemplate = `You are the Official MTO Driver's Handbook Assistant.

Enhance this answer to be more helpful and comprehensive:

Original Question: %s
Current Answer: %s
Context: %s

Enhanced Answer (provide actionable, complete information):`

// AnswerEnhancer rewrites an answer with supplementary framing. A
// failure degrades to the unmodified answer at the call site.
type AnswerEnhancer struct {
	model llms.Model
}

func NewAnswerEnhancer(model llms.Model) *AnswerEnhancer {
	return &AnswerEnhancer{model: model}
}

func (e *AnswerEnhancer) Enhance(ctx context.Context, question, answer, contextText string) (string, error) {
	enhanced, err := generate(ctx, e.model, fmt.Sprintf(enhancementTemplate, question, answer, contextText))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return strings.TrimSpace(enhanced), nil
}
