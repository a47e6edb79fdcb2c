// Package llm holds the language-model and embedding capabilities plus
// the answer chains built on them.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrGeneration marks a failed language-model call.
var ErrGeneration = errors.New("answer generation failed")

// NewChatModel builds the completion model used by all chains.
func NewChatModel(apiKey, model string) (*openai.LLM, error) {
	return openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
}

// NewEmbedder builds the embedding capability shared by ingestion and
// query-time retrieval.
func NewEmbedder(apiKey, model string) (*embeddings.EmbedderImpl, error) {
	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(client)
}

// EmbeddingFunc adapts the embedder to chromem's callback shape.
func EmbeddingFunc(embedder *embeddings.EmbedderImpl) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

// generate runs a single prompt through the model at temperature 0 and
// returns the first choice.
func generate(ctx context.Context, model llms.Model, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	resp, err := model.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Content, nil
}
