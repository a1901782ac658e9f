package llm

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/smallnest/search4people/flow"
	"github.com/smallnest/search4people/log"
)

// Provider names reported by Client.Provider.
const (
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderFallback = "fallback"
)

const defaultOpenAIModel = "gpt-4o-mini"

// Client is the text-generation capability handed to the workflow engine.
// When no provider is configured, or the configured provider fails, it
// degrades to the deterministic fallback report instead of returning an
// error, so the workflow stays usable offline.
type Client struct {
	provider string
	model    string
	llm      llms.Model
}

var _ flow.Generator = (*Client)(nil)

// NewFromEnv picks a provider from the environment: OpenAI when
// OPENAI_API_KEY is set (model from OPENAI_MODEL), Ollama when OLLAMA_MODEL
// is set (server from OLLAMA_HOST), fallback otherwise.
func NewFromEnv() *Client {
	if os.Getenv("OPENAI_API_KEY") != "" {
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = defaultOpenAIModel
		}
		client, err := openai.New(openai.WithModel(model))
		if err == nil {
			return &Client{provider: ProviderOpenAI, model: model, llm: client}
		}
		log.Warn("openai client init failed, falling back: %v", err)
	}

	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		opts := []ollama.Option{ollama.WithModel(model)}
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			opts = append(opts, ollama.WithServerURL(host))
		}
		client, err := ollama.New(opts...)
		if err == nil {
			return &Client{provider: ProviderOllama, model: model, llm: client}
		}
		log.Warn("ollama client init failed, falling back: %v", err)
	}

	return &Client{provider: ProviderFallback, model: ProviderFallback}
}

// NewWithModel wraps an already-constructed langchaingo model. Used by tests
// and callers that manage provider setup themselves.
func NewWithModel(provider, model string, llm llms.Model) *Client {
	return &Client{provider: provider, model: model, llm: llm}
}

// Provider returns the active provider name.
func (c *Client) Provider() string {
	return c.provider
}

// Model returns the active model name.
func (c *Client) Model() string {
	return c.model
}

// GenerateText produces text for the prompt, bounded by maxTokens. It never
// returns an error for provider unavailability: those paths produce the
// deterministic fallback report.
func (c *Client) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.llm == nil {
		return flow.FallbackReport(prompt), nil
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithMaxTokens(maxTokens))
	if err != nil {
		log.Warn("%s generation failed, using fallback: %v", c.provider, err)
		return flow.FallbackReport(prompt), nil
	}
	return text, nil
}
