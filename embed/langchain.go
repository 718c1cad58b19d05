package embed

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultOllamaModel is the Ollama tag for all-MiniLM-L6-v2.
const DefaultOllamaModel = "all-minilm"

// DefaultOpenAIModel is used when no OpenAI embedding model is configured.
const DefaultOpenAIModel = "text-embedding-3-small"

// Langchain adapts a langchaingo embeddings.Embedder. The dimension is
// discovered from the first successful call.
type Langchain struct {
	embedder embeddings.Embedder
	model    string
	dims     dimension
}

// NewLangchain wraps an existing langchaingo embedder.
func NewLangchain(model string, embedder embeddings.Embedder) *Langchain {
	return &Langchain{embedder: embedder, model: model}
}

// NewOpenAI builds an OpenAI (or OpenAI-compatible, when baseURL is set)
// embedder.
func NewOpenAI(model, token, baseURL string) (*Langchain, error) {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create OpenAI client: %w", ErrUnavailable, err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create embedder: %w", ErrUnavailable, err)
	}
	return NewLangchain(model, embedder), nil
}

// NewOllama builds an embedder served by a local Ollama instance.
func NewOllama(model, serverURL string) (*Langchain, error) {
	if model == "" {
		model = DefaultOllamaModel
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Ollama client: %w", ErrUnavailable, err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create embedder: %w", ErrUnavailable, err)
	}
	return NewLangchain(model, embedder), nil
}

// Embed embeds a single query text.
func (l *Langchain) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, unavailable(err)
	}
	if err := l.dims.observe(len(vec)); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch embeds texts as documents in a single provider call.
func (l *Langchain) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, unavailable(err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrUnavailable, len(vecs), len(texts))
	}
	for _, vec := range vecs {
		if err := l.dims.observe(len(vec)); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

// Dimensions returns the length observed on the first successful call.
func (l *Langchain) Dimensions() int { return l.dims.get() }

// Model returns the provider model name.
func (l *Langchain) Model() string { return l.model }
