package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openAICompatProvider talks to any OpenAI-compatible embeddings endpoint.
// DashScope's compatible mode is the default target; a plain OpenAI key
// with its stock base URL works the same way.
type openAICompatProvider struct {
	client    *openai.Client
	model     string
	dimension int
}

func newOpenAICompatProvider(apiKey, baseURL, model string, dimension int) *openAICompatProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &openAICompatProvider{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
	}
}

func (p *openAICompatProvider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	results := make([][]float32, len(resp.Data))
	for i, datum := range resp.Data {
		if p.dimension > 0 && len(datum.Embedding) != p.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", p.dimension, len(datum.Embedding))
		}
		results[i] = datum.Embedding
	}

	return results, nil
}

var _ provider = (*openAICompatProvider)(nil)
