// Package ai picks the assessment provider named in config.
package ai

import (
	"context"
	"fmt"

	domai "github.com/bryanwahyu/automaton-assurance/internal/domain/ai"
	"github.com/bryanwahyu/automaton-assurance/internal/config"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/ai/gemini"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/ai/offline"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/ai/openai"
)

const (
	defaultOpenAIModel = "gpt-4o"
	defaultGeminiModel = "gemini-2.5-pro"
)

// New returns the provider and the model id it will be called with.
func New(ctx context.Context, cfg *config.Config) (domai.Provider, string, error) {
	model := cfg.AI.Model
	switch cfg.AI.Provider {
	case "openai":
		if model == "" {
			model = defaultOpenAIModel
		}
		return openai.NewClient(cfg.AI.OpenAI.APIKey, model, cfg.AI.OpenAI.BaseURL), model, nil
	case "gemini":
		if model == "" {
			model = defaultGeminiModel
		}
		c, err := gemini.NewClient(ctx, cfg.AI.Gemini.APIKey, model, "")
		if err != nil {
			return nil, "", err
		}
		return c, model, nil
	case "offline":
		return offline.New(), "offline", nil
	default:
		return nil, "", fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
}
