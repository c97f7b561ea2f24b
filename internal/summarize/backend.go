package summarize

import (
	"context"
	"fmt"
	"strings"

	"curator/internal/config"

	"github.com/ollama/ollama/api"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Per-backend character budgets for prompt bodies. The local model has
// a smaller usable context than the hosted tier.
const (
	localCharBudget  = 6000
	hostedCharBudget = 12000
)

const (
	defaultLocalModel  = "llama3.1"
	defaultHostedModel = "gpt-4o-mini"
)

// CompletionBackend is one completion endpoint. Metered backends get
// their calls spaced by the summarizer's gate; unmetered ones do not.
type CompletionBackend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
	CharBudget() int
	Metered() bool
}

// NewBackend picks the backend for the configured environment: a local
// ollama daemon in dev, the hosted endpoint everywhere else.
func NewBackend(cfg *config.Config) (CompletionBackend, error) {
	if cfg.HostedBackend() {
		return newHostedBackend(cfg)
	}
	return newOllamaBackend(cfg)
}

// unavailableBackend fails every call. Dry runs that short-circuit
// before summarization can still construct a pipeline with it.
type unavailableBackend struct{}

// Unavailable returns a backend that rejects all completion calls.
func Unavailable() CompletionBackend { return unavailableBackend{} }

func (unavailableBackend) Name() string    { return "unavailable" }
func (unavailableBackend) CharBudget() int { return localCharBudget }
func (unavailableBackend) Metered() bool   { return false }

func (unavailableBackend) Complete(context.Context, string) (string, error) {
	return "", fmt.Errorf("no completion backend configured")
}

// ollamaBackend talks to a local ollama daemon, addressed the usual
// way through OLLAMA_HOST.
type ollamaBackend struct {
	client *api.Client
	model  string
}

func newOllamaBackend(cfg *config.Config) (*ollamaBackend, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	model := cfg.LLMModel
	if model == "" {
		model = defaultLocalModel
	}

	return &ollamaBackend{client: client, model: model}, nil
}

func (o *ollamaBackend) Name() string    { return "ollama/" + o.model }
func (o *ollamaBackend) CharBudget() int { return localCharBudget }
func (o *ollamaBackend) Metered() bool   { return false }

func (o *ollamaBackend) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var out strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}
	return out.String(), nil
}

// hostedBackend talks to an OpenAI-compatible hosted endpoint.
type hostedBackend struct {
	llm   *openai.LLM
	model string
}

func newHostedBackend(cfg *config.Config) (*hostedBackend, error) {
	model := cfg.LLMModel
	if model == "" {
		model = defaultHostedModel
	}

	opts := []openai.Option{
		openai.WithToken(cfg.LLMAPIKey),
		openai.WithModel(model),
	}
	if cfg.LLMBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.LLMBaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create hosted llm client: %w", err)
	}

	return &hostedBackend{llm: llm, model: model}, nil
}

func (h *hostedBackend) Name() string    { return "hosted/" + h.model }
func (h *hostedBackend) CharBudget() int { return hostedCharBudget }
func (h *hostedBackend) Metered() bool   { return true }

func (h *hostedBackend) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, h.llm, prompt,
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(256),
	)
	if err != nil {
		return "", fmt.Errorf("hosted completion failed: %w", err)
	}
	return out, nil
}
