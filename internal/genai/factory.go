package genai

import (
	"context"
	"fmt"
	"log/slog"
)

// CreatePlanner builds the planner chain from configuration. The primary
// provider's models come first, then the fallback provider's. Within a
// provider, models are tried in the order configured.
func CreatePlanner(ctx context.Context, cfg LLMConfig) (Planner, error) {
	var chain []Planner

	for _, provider := range []Provider{cfg.PrimaryProvider, cfg.FallbackProvider} {
		if provider == "" {
			continue
		}

		planners, err := createProviderPlanners(ctx, provider, cfg)
		if err != nil {
			return nil, fmt.Errorf("create %s planners: %w", provider, err)
		}
		chain = append(chain, planners...)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no LLM provider configured")
	}

	retryCfg := cfg.RetryConfig
	if retryCfg.MaxAttempts == 0 {
		retryCfg = DefaultRetryConfig()
	}

	fallback := NewFallbackPlanner(retryCfg, chain...)
	slog.InfoContext(ctx, "planner chain initialized",
		"planners", len(chain),
		"primary", fallback.Provider())
	return fallback, nil
}

// createProviderPlanners returns one planner per configured model for the
// given provider. Providers without an API key are skipped silently.
func createProviderPlanners(ctx context.Context, provider Provider, cfg LLMConfig) ([]Planner, error) {
	var (
		pc     ProviderConfig
		models []string
	)

	switch provider {
	case ProviderGemini:
		pc = cfg.Gemini
		models = pc.PlannerModels
		if len(models) == 0 {
			models = DefaultGeminiPlannerModels
		}
	case ProviderGroq:
		pc = cfg.Groq
		models = pc.PlannerModels
		if len(models) == 0 {
			models = DefaultGroqPlannerModels
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	if pc.APIKey == "" {
		return nil, nil
	}

	planners := make([]Planner, 0, len(models))
	for _, model := range models {
		var (
			p   Planner
			err error
		)
		switch provider {
		case ProviderGemini:
			p, err = newGeminiPlanner(ctx, pc.APIKey, model)
		case ProviderGroq:
			p, err = newOpenAIPlanner(provider, pc.APIKey, model)
		}
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", model, err)
		}
		if p != nil {
			planners = append(planners, p)
		}
	}
	return planners, nil
}
