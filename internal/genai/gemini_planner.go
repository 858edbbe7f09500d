// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the Gemini implementation of the agent planner.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// geminiPlanner chooses agent actions using Gemini function calling.
// It implements the Planner interface.
type geminiPlanner struct {
	client *genai.Client
	model  string
	tools  []*genai.Tool
}

// newGeminiPlanner creates a new Gemini-based planner.
// Returns nil if apiKey is empty (provider disabled).
func newGeminiPlanner(ctx context.Context, apiKey, model string) (*geminiPlanner, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	if model == "" {
		model = DefaultGeminiPlannerModels[0]
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiPlanner{
		client: client,
		model:  model,
		tools: []*genai.Tool{{
			FunctionDeclarations: BuildPlannerFunctions(),
		}},
	}, nil
}

// Plan sends the transcript to Gemini and returns the chosen action.
// ANY mode forces the model to call a function, so a turn can never stall on
// free-form text.
func (p *geminiPlanner) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	if p == nil {
		return nil, errors.New("planner is nil")
	}

	config := &genai.GenerateContentConfig{
		Tools:             p.tools,
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAny, // Force function calling
			},
		},
		Temperature:     genai.Ptr[float32](0.1), // Low temperature for consistent planning
		MaxOutputTokens: 1024,                    // Final answers carry full curriculum lists
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	start := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "planner API call failed",
			"provider", "gemini",
			"model", p.model,
			"messages", len(req.Messages),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("generate content failed: %w", err)
	}

	planResult, parseErr := p.parseResult(result)

	if parseErr == nil && result.UsageMetadata != nil {
		slog.DebugContext(ctx, "planner step completed",
			"provider", "gemini",
			"model", p.model,
			"input_tokens", result.UsageMetadata.PromptTokenCount,
			"output_tokens", result.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds(),
			"function_name", planResult.FunctionName)
	}

	return planResult, parseErr
}

// parseResult extracts the function call from the generation result.
func (p *geminiPlanner) parseResult(result *genai.GenerateContentResponse) (*PlanResult, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, errors.New("empty response from model")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, errors.New("no content in response")
	}

	for _, part := range candidate.Content.Parts {
		if part.FunctionCall != nil {
			return decodeFunctionCall(part.FunctionCall.Name, part.FunctionCall.Args)
		}
	}

	// In ANY mode the model should always return a function call.
	return nil, errors.New("no function call in response (expected with ANY mode)")
}

// decodeFunctionCall validates the call name and pulls out the declared
// parameters. Shared by both planner implementations.
func decodeFunctionCall(name string, args map[string]any) (*PlanResult, error) {
	specs, ok := paramSpecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown function: %s", name)
	}

	decoded := make(map[string]any, len(specs))
	for _, spec := range specs {
		value, exists := args[spec.key]
		if !exists {
			if spec.required {
				return nil, fmt.Errorf("missing required parameter %q for function %q", spec.key, name)
			}
			continue
		}

		if spec.isArray {
			items, err := decodeStringSlice(value)
			if err != nil {
				return nil, fmt.Errorf("parameter %q for function %q: %w", spec.key, name, err)
			}
			decoded[spec.key] = items
			continue
		}

		strVal, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q for function %q is not a string (got %T)", spec.key, name, value)
		}
		decoded[spec.key] = strVal
	}

	return &PlanResult{FunctionName: name, Args: decoded}, nil
}

// decodeStringSlice accepts []string directly or []any of strings, the shape
// JSON decoding and the Gemini SDK produce for array arguments.
func decodeStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("array element is not a string (got %T)", item)
			}
			items = append(items, s)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("not a string array (got %T)", value)
	}
}

// IsEnabled returns true if the planner is enabled.
func (p *geminiPlanner) IsEnabled() bool {
	return p != nil && p.client != nil
}

// Provider returns the provider type for this planner.
func (p *geminiPlanner) Provider() Provider {
	return ProviderGemini
}

// Close releases resources held by the planner.
// Safe to call on nil receiver.
func (p *geminiPlanner) Close() error {
	// genai.Client does not require explicit cleanup in current SDK version
	return nil
}
