package extraction

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Inferer is the language-understanding capability. It receives the
// instruction prompt and the transcript and returns the raw model output.
// The output is untrusted.
type Inferer interface {
	Infer(ctx context.Context, prompt, transcript string) (string, error)
}

// InfererFunc adapts a function to the Inferer interface.
type InfererFunc func(ctx context.Context, prompt, transcript string) (string, error)

// Infer calls f.
func (f InfererFunc) Infer(ctx context.Context, prompt, transcript string) (string, error) {
	return f(ctx, prompt, transcript)
}

type modelInferer struct {
	llm  llms.Model
	opts []llms.CallOption
}

// NewInferer builds a langchaingo-backed Inferer for the configured provider.
func NewInferer(cfg *Config) (Inferer, error) {
	var (
		llm llms.Model
		err error
	)

	switch cfg.Provider {
	case ProviderOpenAI:
		token := cfg.Token
		if token == "" {
			// OpenAI-compatible local servers ignore the token but the client requires one.
			token = "unused"
		}
		llm, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.Model),
			openai.WithToken(token),
		)
	case ProviderOllama:
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
			ollama.WithFormat("json"),
		)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	return &modelInferer{
		llm: llm,
		opts: []llms.CallOption{
			llms.WithTemperature(cfg.Temperature),
			llms.WithMaxTokens(cfg.MaxTokens),
		},
	}, nil
}

func (m *modelInferer) Infer(ctx context.Context, prompt, transcript string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt),
		llms.TextParts(llms.ChatMessageTypeHuman, transcript),
	}

	resp, err := m.llm.GenerateContent(ctx, messages, m.opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
