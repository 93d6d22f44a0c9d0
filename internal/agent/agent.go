// Package agent is a small tool-calling client for the Anthropic API. An
// Agent owns a system prompt and a registry of tools; callers either run the
// full multi-turn loop with Execute or force a single schema-constrained tool
// call with ExecuteForcedTool.
package agent

import (
	"context"
	"fmt"
)

// Agent represents an LLM-powered agent with tools.
type Agent struct {
	name         string
	apiClient    *APIClient
	registry     *ToolRegistry
	systemPrompt string
}

// Config configures an agent.
type Config struct {
	Name         string
	APIKey       string
	Model        string
	Temperature  float64
	SystemPrompt string
}

// New creates a new agent with the given configuration.
func New(cfg Config) *Agent {
	return &Agent{
		name:         cfg.Name,
		apiClient:    NewAPIClient(cfg.APIKey, cfg.Model, cfg.Temperature),
		registry:     NewToolRegistry(),
		systemPrompt: cfg.SystemPrompt,
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string {
	return a.name
}

// APIClient exposes the underlying client, mainly so tests can point the
// agent at a local server.
func (a *Agent) APIClient() *APIClient {
	return a.apiClient
}

// RegisterTool adds a tool to the agent.
func (a *Agent) RegisterTool(tool Tool, handler ToolHandler) error {
	return a.registry.Register(tool, handler)
}

// MustRegisterTool adds a tool and panics on error.
func (a *Agent) MustRegisterTool(tool Tool, handler ToolHandler) {
	a.registry.MustRegister(tool, handler)
}

// Tools returns all registered tools.
func (a *Agent) Tools() []Tool {
	return a.registry.Tools()
}

// Execute runs the agent loop with the given input.
func (a *Agent) Execute(ctx context.Context, input Input) (*Output, error) {
	maxTurns := input.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 1 // Default to single-shot
	}

	messages := make([]Message, len(input.Messages))
	copy(messages, input.Messages)

	var totalUsage UsageStats
	var allToolCalls []ToolCall

	for turn := 0; turn < maxTurns; turn++ {
		response, err := a.apiClient.Call(ctx, messages, CallOptions{
			System:     a.systemPrompt,
			Tools:      a.registry.Tools(),
			ToolChoice: input.ToolChoice,
		})
		if err != nil {
			return nil, fmt.Errorf("API call failed on turn %d: %w", turn+1, err)
		}
		totalUsage.Add(response.Usage)

		switch response.StopReason {
		case "end_turn":
			finalText := extractFinalText(response.Content)
			return &Output{
				ToolCalls:    allToolCalls,
				Conversation: messages,
				Usage:        totalUsage,
				FinalText:    finalText,
			}, nil

		case "tool_use":
			assistantMsg := Message{Role: "assistant", Content: response.Content}
			messages = append(messages, assistantMsg)

			toolResults, toolCalls := a.executeTools(ctx, response.Content)
			allToolCalls = append(allToolCalls, toolCalls...)

			userMsg := Message{Role: "user", Content: toolResults}
			messages = append(messages, userMsg)
			continue

		default:
			return nil, fmt.Errorf("unexpected stop reason: %s", response.StopReason)
		}
	}

	// Max turns exhausted. With a forced tool choice this is the expected
	// terminal state, so the collected tool calls still count as a result.
	output := &Output{
		ToolCalls:    allToolCalls,
		Conversation: messages,
		Usage:        totalUsage,
	}
	if len(allToolCalls) > 0 {
		return output, nil
	}
	return output, fmt.Errorf("max turns (%d) exceeded with no tool calls", maxTurns)
}

// ExecuteForcedTool makes exactly one API call forcing the named tool and
// returns the resulting call. The model cannot answer in free text; a
// response without the expected tool_use block is an error.
func (a *Agent) ExecuteForcedTool(ctx context.Context, userMessage, toolName string) (*ToolCall, error) {
	if !a.registry.HasTool(toolName) {
		return nil, fmt.Errorf("tool not registered: %s", toolName)
	}

	response, err := a.apiClient.Call(ctx, []Message{
		{
			Role:    "user",
			Content: []ContentBlock{TextBlock{Type: "text", Text: userMessage}},
		},
	}, CallOptions{
		System:     a.systemPrompt,
		Tools:      a.registry.Tools(),
		ToolChoice: toolName,
	})
	if err != nil {
		return nil, err
	}

	for _, block := range response.Content {
		toolUse, ok := block.(ToolUseBlock)
		if !ok || toolUse.Name != toolName {
			continue
		}
		output, execErr := a.registry.Execute(ctx, toolUse.Name, toolUse.Input)
		return &ToolCall{
			Name:   toolUse.Name,
			Input:  toolUse.Input,
			Output: output,
			Error:  execErr,
		}, nil
	}

	// Some models ignore the forced choice and answer in text. Surface that
	// text so the caller can attempt a salvage parse.
	if text := extractFinalText(response.Content); text != "" {
		return nil, &UnexpectedTextError{Text: text}
	}
	return nil, fmt.Errorf("response contained no %s tool call", toolName)
}

// UnexpectedTextError reports a forced-tool call that came back as plain text.
type UnexpectedTextError struct {
	Text string
}

func (e *UnexpectedTextError) Error() string {
	return "model replied with text instead of the forced tool call"
}

// executeTools runs all tool_use blocks and returns results.
func (a *Agent) executeTools(ctx context.Context, content []ContentBlock) ([]ContentBlock, []ToolCall) {
	var results []ContentBlock
	var calls []ToolCall

	for _, block := range content {
		toolUse, ok := block.(ToolUseBlock)
		if !ok {
			continue
		}

		output, err := a.registry.Execute(ctx, toolUse.Name, toolUse.Input)

		call := ToolCall{
			Name:   toolUse.Name,
			Input:  toolUse.Input,
			Output: output,
			Error:  err,
		}
		calls = append(calls, call)

		resultBlock := ToolResultBlock{
			Type:      "tool_result",
			ToolUseID: toolUse.ID,
			Content:   output,
			IsError:   err != nil,
		}
		if err != nil {
			resultBlock.Content = err.Error()
		}
		results = append(results, resultBlock)
	}

	return results, calls
}

// extractFinalText extracts text from the final response.
func extractFinalText(content []ContentBlock) string {
	for _, block := range content {
		if text, ok := block.(TextBlock); ok {
			return text.Text
		}
	}
	return ""
}

// IsConfigured returns true if the agent's API client is configured.
func (a *Agent) IsConfigured() bool {
	return a.apiClient != nil && a.apiClient.IsConfigured()
}
