// Package rag orchestrates the query phase: retrieve the most relevant
// chunks, format them into a context block, and ask the generation service
// to answer with that context.
package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/pandadocs/rag-assistant/config"
	"github.com/pandadocs/rag-assistant/llm"
	"github.com/pandadocs/rag-assistant/store"
)

// NoContextSentinel frames the generation prompt when retrieval comes back
// empty, so the model is told explicitly that nothing was found.
const NoContextSentinel = "No relevant documents were found in the knowledge base."

// Retriever is the query-phase subset of the vector store gateway. A nil
// retriever means the store could not be opened; the engine degrades to
// the sentinel context instead of failing.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]store.Result, error)
}

// DialFunc establishes a connection to the generation service.
type DialFunc func(llm.Options) (llm.Client, error)

// Engine holds the current generation configuration (model, endpoint,
// retrieval K) and answers queries against it. Reconfiguration with an
// unchanged triple is a no-op and does not redial the service.
type Engine struct {
	retriever Retriever
	provider  string
	dial      DialFunc
	logger    *log.Logger

	mu      sync.Mutex
	model   string
	baseURL string
	k       int
	client  llm.Client
}

func NewEngine(retriever Retriever, provider string, dial DialFunc, logger *log.Logger) *Engine {
	if provider == "" {
		provider = config.ProviderOllama
	}
	if dial == nil {
		dial = llm.NewClient
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{retriever: retriever, provider: provider, dial: dial, logger: logger}
}

// Configure applies the current generation settings. The comparison guard
// makes repeated identical calls cheap: the generation service is dialed
// only when model, endpoint, or K actually changed.
func (e *Engine) Configure(model, baseURL string, k int) error {
	k = config.ClampK(k)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil && e.model == model && e.baseURL == baseURL && e.k == k {
		return nil
	}

	client, err := e.dial(llm.Options{Provider: e.provider, Model: model, BaseURL: baseURL})
	if err != nil {
		return fmt.Errorf("connect generation service: %w", err)
	}

	e.model = model
	e.baseURL = baseURL
	e.k = k
	e.client = client
	e.logger.Printf("engine configured: model=%s url=%s k=%d", model, baseURL, k)
	return nil
}

// K reports the currently configured retrieval result count.
func (e *Engine) K() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.k
}

// ContextFor retrieves up to k chunks for the query and formats them into
// one context block. Empty retrieval yields the sentinel, never an empty
// string; a failed query embed propagates as an error.
func (e *Engine) ContextFor(ctx context.Context, query string, k int) (string, error) {
	if e.retriever == nil {
		return NoContextSentinel, nil
	}

	results, err := e.retriever.Search(ctx, query, k)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	return FormatContext(results), nil
}

// FormatContext renders retrieved chunks as labeled blocks in result order
// (most relevant first), separated by a visible divider.
func FormatContext(results []store.Result) string {
	if len(results) == 0 {
		return NoContextSentinel
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		api := r.Meta.APIName
		if api == "" {
			api = "general"
		}
		blocks = append(blocks, fmt.Sprintf("### Source: %s (API: %s)\n```text\n%s\n```", r.Meta.Source, api, r.Text))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// Answer runs the full query flow: retrieve, format, generate. Generation
// failures are returned, never swallowed; the caller surfaces them as the
// visible answer.
func (e *Engine) Answer(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query cannot be empty")
	}

	e.mu.Lock()
	client := e.client
	k := e.k
	e.mu.Unlock()

	if client == nil {
		return "", fmt.Errorf("engine not configured")
	}

	contextBlock, err := e.ContextFor(ctx, query, k)
	if err != nil {
		return "", err
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt()},
		{Role: llm.RoleUser, Content: formatUserPrompt(query, contextBlock)},
	}

	answer, err := client.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func systemPrompt() string {
	return "You are an expert programming assistant for the indexed documentation. " +
		"Use the provided context (code snippets and documentation) to answer the user's question clearly and concisely. " +
		"If the context is not sufficient to answer, say that you could not find the relevant information. " +
		"Include code examples in your answer whenever possible."
}

func formatUserPrompt(question, contextBlock string) string {
	var sb strings.Builder
	sb.WriteString("--- Context ---\n")
	sb.WriteString(contextBlock)
	sb.WriteString("\n---\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}
