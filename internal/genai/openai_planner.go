// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the OpenAI-compatible implementation of the agent
// planner, used for Groq via a custom BaseURL.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiPlanner chooses agent actions using OpenAI-compatible function calling.
// It implements the Planner interface.
type openaiPlanner struct {
	client   openai.Client
	model    string
	tools    []openai.ChatCompletionToolUnionParam
	provider Provider
}

// newOpenAIPlanner creates a new OpenAI-compatible planner.
// Returns nil if apiKey is empty (provider disabled).
func newOpenAIPlanner(provider Provider, apiKey, model string) (*openaiPlanner, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	baseURL, ok := ProviderEndpoint[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}

	if model == "" {
		switch provider {
		case ProviderGroq:
			model = DefaultGroqPlannerModels[0]
		default:
			return nil, fmt.Errorf("no default model for provider: %s", provider)
		}
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &openaiPlanner{
		client:   client,
		model:    model,
		tools:    buildOpenAITools(),
		provider: provider,
	}, nil
}

// buildOpenAITools converts the planner function declarations to OpenAI v3
// tool format. OpenAI uses lowercase JSON Schema types per Draft 2020-12.
func buildOpenAITools() []openai.ChatCompletionToolUnionParam {
	funcDecls := BuildPlannerFunctions()
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(funcDecls))

	for _, fd := range funcDecls {
		properties := make(map[string]any)
		for name, schema := range fd.Parameters.Properties {
			// genai.TypeString = "STRING" → "string"
			prop := map[string]any{
				"type":        strings.ToLower(string(schema.Type)),
				"description": schema.Description,
			}
			if schema.Items != nil {
				prop["items"] = map[string]any{
					"type": strings.ToLower(string(schema.Items.Type)),
				}
			}
			properties[name] = prop
		}

		tool := openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        fd.Name,
			Description: openai.String(fd.Description),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": properties,
				"required":   fd.Parameters.Required,
			},
		})
		result = append(result, tool)
	}

	return result
}

// Plan sends the transcript to the provider and returns the chosen action.
// required mode forces the model to call a function.
func (p *openaiPlanner) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	if p == nil {
		return nil, errors.New("planner is nil")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	messages = append(messages, openai.SystemMessage(req.System))
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: messages,
		Tools:    p.tools,
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoRequired)),
		},
		Temperature: openai.Float(0.1), // Low temperature for consistent planning
		MaxTokens:   openai.Int(1024),  // Final answers carry full curriculum lists
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "planner API call failed",
			"provider", p.provider,
			"model", p.model,
			"messages", len(req.Messages),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	planResult, parseErr := p.parseResult(resp)

	if parseErr == nil && resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "planner step completed",
			"provider", p.provider,
			"model", p.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"duration_ms", duration.Milliseconds(),
			"function_name", planResult.FunctionName)
	}

	return planResult, parseErr
}

// parseResult extracts the function call from the completion response.
func (p *openaiPlanner) parseResult(resp *openai.ChatCompletion) (*PlanResult, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("empty response from model")
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		// In required mode the model should always return a tool call.
		return nil, errors.New("no tool call in response (expected with required mode)")
	}

	tc := choice.Message.ToolCalls[0]
	if tc.Type != "function" {
		return nil, fmt.Errorf("unexpected tool type: %s", tc.Type)
	}

	var args map[string]any
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("failed to parse function arguments: %w", err)
		}
	}

	return decodeFunctionCall(tc.Function.Name, args)
}

// IsEnabled returns true if the planner is enabled.
func (p *openaiPlanner) IsEnabled() bool {
	return p != nil && p.model != ""
}

// Provider returns the provider type for this planner.
func (p *openaiPlanner) Provider() Provider {
	return p.provider
}

// Close releases resources held by the planner.
func (p *openaiPlanner) Close() error {
	return nil
}
