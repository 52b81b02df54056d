package config

import (
	"fmt"
	"strings"
	"time"
)

// LLMConfig configures the remote text-generation backends used for fairy
// comments. Remote generation is optional: without a usable credential the
// fairy answers from local templates only.
type LLMConfig struct {
	Providers        []string       `mapstructure:"providers"` // tried in order: openai, gemini
	Timeout          time.Duration  `mapstructure:"timeout"`
	MaxChars         int            `mapstructure:"max_chars"`
	MinChars         int            `mapstructure:"min_chars"`
	MaxTokens        int            `mapstructure:"max_tokens"`
	Temperature      float32        `mapstructure:"temperature"`
	PresencePenalty  float32        `mapstructure:"presence_penalty"`
	FrequencyPenalty float32        `mapstructure:"frequency_penalty"`
	BreakerThreshold int            `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration  `mapstructure:"breaker_cooldown"`
	OpenAI           ProviderConfig `mapstructure:"openai"`
	Gemini           ProviderConfig `mapstructure:"gemini"`
}

// ProviderConfig holds credentials for a single backend.
type ProviderConfig struct {
	Client  string `mapstructure:"client"` // openai only: resty (raw HTTP) or sdk
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// LLMMode is resolved once at startup.
type LLMMode int

const (
	LLMDisabled LLMMode = iota
	LLMEnabled
)

func (m LLMMode) String() string {
	if m == LLMEnabled {
		return "enabled"
	}
	return "disabled"
}

// ResolvedProvider is a provider whose credential passed validation.
type ResolvedProvider struct {
	Name string
	ProviderConfig
}

// ResolvedLLM is the startup decision about remote generation.
type ResolvedLLM struct {
	Mode      LLMMode
	Providers []ResolvedProvider
}

// placeholderKeys are sample values shipped in example env files.
var placeholderKeys = map[string]bool{
	"your_openai_api_key_here":    true,
	"sk-your-openai-api-key-here": true,
	"your_gemini_api_key_here":    true,
	"changeme":                    true,
}

// IsUsableKey reports whether key looks like a real credential.
func IsUsableKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !placeholderKeys[strings.ToLower(key)]
}

// Resolve decides which providers are usable. Unknown provider names are an
// error; providers without a usable key are skipped. When none remain the
// mode is LLMDisabled.
func (c *LLMConfig) Resolve() (*ResolvedLLM, error) {
	out := &ResolvedLLM{Mode: LLMDisabled}
	for _, name := range c.Providers {
		var p ProviderConfig
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "openai":
			p = c.OpenAI
		case "gemini":
			p = c.Gemini
		default:
			return nil, fmt.Errorf("llm: unknown provider %q", name)
		}
		if !IsUsableKey(p.APIKey) {
			continue
		}
		if p.Model == "" {
			return nil, fmt.Errorf("llm %q: model is required", name)
		}
		out.Providers = append(out.Providers, ResolvedProvider{Name: strings.ToLower(name), ProviderConfig: p})
	}
	if len(out.Providers) > 0 {
		out.Mode = LLMEnabled
	}
	return out, nil
}
