package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/plantgram/internal/circuitbreaker"
	"github.com/timmy/plantgram/internal/config"
	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/metrics"
	"github.com/timmy/plantgram/internal/prompts"
)

// Generation sources.
const (
	SourceRemote   = "remote"   // a remote model answered
	SourceLocal    = "local"    // remote generation is disabled
	SourceFallback = "fallback" // every remote attempt failed
)

// GeneratorConfig holds response generation settings.
type GeneratorConfig struct {
	Mode             config.LLMMode
	Timeout          time.Duration // total remote budget across providers
	MaxChars         int
	MinChars         int
	MaxTokens        int
	Temperature      float32
	PresencePenalty  float32
	FrequencyPenalty float32
}

// NewGeneratorConfig derives generator settings from the LLM section and the
// mode resolved at startup.
func NewGeneratorConfig(cfg *config.LLMConfig, mode config.LLMMode) GeneratorConfig {
	return GeneratorConfig{
		Mode:             mode,
		Timeout:          cfg.Timeout,
		MaxChars:         cfg.MaxChars,
		MinChars:         cfg.MinChars,
		MaxTokens:        cfg.MaxTokens,
		Temperature:      cfg.Temperature,
		PresencePenalty:  cfg.PresencePenalty,
		FrequencyPenalty: cfg.FrequencyPenalty,
	}
}

// Generation is a generated comment and where it came from.
type Generation struct {
	Text     string
	Source   string
	Provider string
}

// CommentGenerator produces the fairy's comment text. It tries the remote
// backends in order and falls back to local templates.
type CommentGenerator struct {
	backends []TextGenerator
	breaker  *circuitbreaker.Breaker
	local    *TemplateGenerator
	cfg      GeneratorConfig
	logger   *logger.Logger
}

// NewCommentGenerator creates a generator.
// Parameters:
//   - backends: remote backends in priority order; may be empty.
//   - breaker: per-backend circuit breaker; nil disables it.
//   - local: template generator used as fallback.
//   - cfg: generation settings.
//   - log: base logger.
//
// Returns:
//   - *CommentGenerator: generator ready for concurrent use.
func NewCommentGenerator(
	backends []TextGenerator,
	breaker *circuitbreaker.Breaker,
	local *TemplateGenerator,
	cfg GeneratorConfig,
	log *logger.Logger,
) *CommentGenerator {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 150
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if local == nil {
		local = NewTemplateGenerator(nil, 0)
	}
	if len(backends) == 0 {
		cfg.Mode = config.LLMDisabled
	}
	return &CommentGenerator{
		backends: backends,
		breaker:  breaker,
		local:    local,
		cfg:      cfg,
		logger:   log,
	}
}

func (g *CommentGenerator) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, g.logger)
}

// Generate returns comment text for post. It never returns an empty string
// and never waits longer than the remote budget.
func (g *CommentGenerator) Generate(ctx context.Context, post *domain.PlantPost) string {
	return g.GenerateDetailed(ctx, post).Text
}

// GenerateDetailed is Generate plus the source of the text.
func (g *CommentGenerator) GenerateDetailed(ctx context.Context, post *domain.PlantPost) Generation {
	if g.cfg.Mode == config.LLMEnabled {
		if gen, ok := g.generateRemote(ctx, post); ok {
			metrics.GenerationsTotal.WithLabelValues(SourceRemote).Inc()
			return gen
		}
		metrics.GenerationsTotal.WithLabelValues(SourceFallback).Inc()
		return Generation{Text: g.local.Generate(post), Source: SourceFallback}
	}

	metrics.GenerationsTotal.WithLabelValues(SourceLocal).Inc()
	return Generation{Text: g.local.Generate(post), Source: SourceLocal}
}

func (g *CommentGenerator) generateRemote(ctx context.Context, post *domain.PlantPost) (Generation, bool) {
	budget := remoteBudget(ctx, g.cfg.Timeout)
	if budget <= 0 {
		g.log(ctx).Warn("No time left for remote generation")
		return Generation{}, false
	}
	budgetCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	req := ChatRequest{
		System: prompts.FairySystemPrompt,
		User: prompts.BuildFairyUserPrompt(prompts.PostInput{
			Title:       post.Title,
			Description: post.Description,
			PlantType:   post.PlantType,
			Location:    post.Location,
		}, g.cfg.MaxChars),
		MaxTokens:        g.cfg.MaxTokens,
		Temperature:      g.cfg.Temperature,
		PresencePenalty:  g.cfg.PresencePenalty,
		FrequencyPenalty: g.cfg.FrequencyPenalty,
	}

	for i, backend := range g.backends {
		name := backend.Name()
		log := g.log(ctx).WithField(logger.FieldProvider, name)

		if g.breaker != nil && !g.breaker.Allow(name) {
			log.Debug("Circuit open, skipping provider")
			continue
		}

		attemptCtx, attemptCancel := context.WithTimeout(budgetCtx, attemptBudget(budgetCtx, len(g.backends)-i))
		start := time.Now()
		raw, err := safeComplete(attemptCtx, backend, req)
		attemptCancel()

		text := ""
		if err == nil {
			text = FinalizeRemoteText(raw, g.cfg.MaxChars, g.cfg.MinChars)
			if text == "" {
				err = ErrEmptyCompletion
			}
		}

		elapsed := time.Since(start)
		if err != nil {
			metrics.LLMRequestDuration.WithLabelValues(name, "error").Observe(elapsed.Seconds())
			if g.breaker != nil {
				g.breaker.RecordFailure(name)
			}
			log.WithError(err).WithField(logger.FieldDurationMs, elapsed.Milliseconds()).
				Warn("Remote generation failed")
			if budgetCtx.Err() != nil {
				break
			}
			continue
		}

		metrics.LLMRequestDuration.WithLabelValues(name, "ok").Observe(elapsed.Seconds())
		if g.breaker != nil {
			g.breaker.RecordSuccess(name)
		}
		return Generation{Text: text, Source: SourceRemote, Provider: name}, true
	}
	return Generation{}, false
}

// maxStoreReserve caps the time kept back from a caller's deadline for the
// persona and comment writes that follow generation.
const maxStoreReserve = 2 * time.Second

// remoteBudget is limit, shortened so that a quarter of the caller's
// remaining time (at most maxStoreReserve) is left once it expires.
func remoteBudget(ctx context.Context, limit time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return limit
	}
	left := time.Until(deadline)
	reserve := left / 4
	if reserve > maxStoreReserve {
		reserve = maxStoreReserve
	}
	if capped := left - reserve; capped < limit {
		return capped
	}
	return limit
}

// attemptBudget splits the remaining deadline evenly over the providers left.
func attemptBudget(ctx context.Context, remaining int) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok || remaining <= 0 {
		return 0
	}
	return time.Until(deadline) / time.Duration(remaining)
}

// safeComplete runs one backend call, returning when the call finishes or
// ctx ends, whichever is first. A backend panic becomes an error.
func safeComplete(ctx context.Context, backend TextGenerator, req ChatRequest) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("backend %s panicked: %v", backend.Name(), r)}
			}
		}()
		text, err := backend.Complete(ctx, req)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
