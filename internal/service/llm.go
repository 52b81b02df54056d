package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/plantgram/internal/config"
)

// ErrEmptyCompletion is returned when a backend answers without text.
var ErrEmptyCompletion = errors.New("empty completion")

// ChatRequest is a single system+user completion request.
type ChatRequest struct {
	System           string
	User             string
	MaxTokens        int
	Temperature      float32
	PresencePenalty  float32
	FrequencyPenalty float32
}

// TextGenerator is a remote language model backend.
type TextGenerator interface {
	// Name identifies the backend in logs, metrics and the circuit breaker.
	Name() string
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// NewTextGenerators builds a backend for every resolved provider, in order.
// Parameters:
//   - ctx: context used to initialize SDK clients.
//   - resolved: providers that passed credential validation.
//   - cfg: shared LLM settings such as the request timeout.
//
// Returns:
//   - []TextGenerator: one backend per provider.
//   - error: non-nil if a client cannot be constructed.
func NewTextGenerators(ctx context.Context, resolved *config.ResolvedLLM, cfg *config.LLMConfig) ([]TextGenerator, error) {
	if resolved == nil || resolved.Mode == config.LLMDisabled {
		return nil, nil
	}

	out := make([]TextGenerator, 0, len(resolved.Providers))
	for _, p := range resolved.Providers {
		switch p.Name {
		case "openai":
			if p.Client == "sdk" {
				out = append(out, NewOpenAIBackend(p.ProviderConfig))
			} else {
				out = append(out, NewRestyChatBackend(p.ProviderConfig, cfg.Timeout))
			}
		case "gemini":
			g, err := NewGeminiBackend(ctx, p.ProviderConfig)
			if err != nil {
				return nil, fmt.Errorf("gemini backend: %w", err)
			}
			out = append(out, g)
		default:
			return nil, fmt.Errorf("unknown provider %q", p.Name)
		}
	}
	return out, nil
}
