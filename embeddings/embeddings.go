// Package embeddings converts chunk and query text into vectors through a
// remote embedding service, batching requests under the provider's hard
// per-request ceiling.
package embeddings

import (
	"context"
	"fmt"
	"log"

	"github.com/pandadocs/rag-assistant/config"
)

// MaxBatchSize is the provider-enforced per-request item ceiling.
const MaxBatchSize = 10

// Embedder is the pipeline-facing embedding contract. Embed is
// order-preserving: output[i] corresponds to input[i].
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// provider issues one embedding request for a batch of at most
// MaxBatchSize texts.
type provider interface {
	embedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder builds the configured provider wrapped in the batching
// layer. The DashScope provider needs its API key in the environment.
func NewEmbedder(cfg config.Config, logger *log.Logger) (Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case config.ProviderDashScope, config.ProviderOpenAI:
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("%s provider selected but %s not set", e.Provider, config.APIKeyEnv)
		}
		return newBatched(newOpenAICompatProvider(key, e.BaseURL, e.Model, e.Dimension), logger), nil
	case config.ProviderOllama:
		return newBatched(newOllamaProvider(e.BaseURL, e.Model, e.Dimension), logger), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", e.Provider)
	}
}

// batched partitions input into consecutive slices of at most MaxBatchSize
// items, issues one provider request per slice strictly in slice order, and
// concatenates per-slice results. Any slice failure aborts the whole call;
// completed slices are discarded, never returned.
type batched struct {
	provider provider
	logger   *log.Logger
}

func newBatched(p provider, logger *log.Logger) *batched {
	if logger == nil {
		logger = log.Default()
	}
	return &batched{provider: p, logger: logger}
}

func (b *batched) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	total := (len(texts) + MaxBatchSize - 1) / MaxBatchSize
	results := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += MaxBatchSize {
		end := i + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]
		n := i/MaxBatchSize + 1

		vectors, err := b.provider.embedBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d/%d: %w", n, total, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed batch %d/%d: got %d vectors for %d inputs", n, total, len(vectors), len(batch))
		}

		results = append(results, vectors...)
		b.logger.Printf("embedded batch %d/%d (%d texts)", n, total, len(batch))
	}

	return results, nil
}

func (b *batched) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := b.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected one vector, got %d", len(vectors))
	}
	return vectors[0], nil
}

var _ Embedder = (*batched)(nil)
