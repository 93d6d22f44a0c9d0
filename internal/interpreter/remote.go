package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/talbenari/project_clara/internal/agent"
)

const resolveToolName = "resolve_calendar_command"

// RemoteConfig configures the Claude-backed parser.
type RemoteConfig struct {
	APIKey      string
	Model       string
	Temperature float64
}

// RemoteParser resolves commands with Claude, constrained to a single forced
// tool call whose input schema mirrors CommandResult. Every failure mode
// (transport, API error, schema violation, unparseable output) comes back as
// an error so the chain falls through to the local parser.
type RemoteParser struct {
	agent *agent.Agent
}

// NewRemoteParser creates the remote parser and registers its output schema.
func NewRemoteParser(cfg RemoteConfig) *RemoteParser {
	a := agent.New(agent.Config{
		Name:         "command-resolver",
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		SystemPrompt: resolverSystemPrompt,
	})
	a.MustRegisterTool(resolveCommandTool, handleResolveCommand)
	return &RemoteParser{agent: a}
}

// Agent exposes the underlying agent so tests can redirect its API client.
func (p *RemoteParser) Agent() *agent.Agent { return p.agent }

func (p *RemoteParser) Name() string { return "remote" }

// Parse submits the command and its context to Claude and decodes the forced
// tool call into a CommandResult.
func (p *RemoteParser) Parse(ctx context.Context, req Request) (*CommandResult, error) {
	if !p.agent.IsConfigured() {
		return nil, fmt.Errorf("remote parser not configured")
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	call, err := p.agent.ExecuteForcedTool(ctx, buildResolverPrompt(req.Command, now, req.Candidates), resolveToolName)
	if err != nil {
		var textErr *agent.UnexpectedTextError
		if errors.As(err, &textErr) {
			return salvageTextResult(textErr.Text)
		}
		return nil, err
	}
	if call.Error != nil {
		return nil, fmt.Errorf("schema validation failed: %w", call.Error)
	}

	return decodeToolInput(call.Input)
}

// decodeToolInput converts the tool's input map into a CommandResult and
// checks the structural invariants the local path guarantees by construction.
func decodeToolInput(input map[string]any) (*CommandResult, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to re-marshal tool input: %w", err)
	}

	var result CommandResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tool input: %w", err)
	}

	if err := validateResult(&result); err != nil {
		return nil, fmt.Errorf("non-conforming response: %w", err)
	}

	result.UseLocalFallback = false
	return &result, nil
}

// salvageTextResult handles a model that answered in prose instead of the
// forced tool call: pull out the first JSON object, repair it if needed, and
// hold it to the same invariants.
func salvageTextResult(text string) (*CommandResult, error) {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object in text response")
	}

	var result CommandResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(jsonStr)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to parse response JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &result); err != nil {
			return nil, fmt.Errorf("failed to parse repaired JSON: %w", err)
		}
	}

	if err := validateResult(&result); err != nil {
		return nil, fmt.Errorf("non-conforming response: %w", err)
	}

	result.UseLocalFallback = false
	return &result, nil
}

// validateResult enforces the CommandResult invariants: a valid intent, at
// most one details object matching that intent, details suppressed under a
// clarification, and strictly ordered time ranges.
func validateResult(r *CommandResult) error {
	if !r.Intent.IsValid() {
		return fmt.Errorf("missing or invalid intent %q", r.Intent)
	}

	populated := 0
	if r.EventDetails != nil {
		populated++
		if r.Intent != IntentCreateEvent {
			return fmt.Errorf("eventDetails present for intent %s", r.Intent)
		}
	}
	if r.QueryDetails != nil {
		populated++
		if r.Intent != IntentQueryEvents {
			return fmt.Errorf("queryDetails present for intent %s", r.Intent)
		}
	}
	if r.ModifyDetails != nil {
		populated++
		if r.Intent != IntentModifyEvent {
			return fmt.Errorf("modifyDetails present for intent %s", r.Intent)
		}
	}
	if r.DeleteDetails != nil {
		populated++
		if r.Intent != IntentDeleteEvents {
			return fmt.Errorf("deleteDetails present for intent %s", r.Intent)
		}
	}
	if populated > 1 {
		return fmt.Errorf("multiple details objects populated")
	}
	if r.Clarification != nil && populated > 0 {
		return fmt.Errorf("details populated alongside a clarification")
	}

	type timePair struct{ start, end string }
	var pairs []timePair
	if r.EventDetails != nil {
		pairs = append(pairs, timePair{r.EventDetails.StartTime, r.EventDetails.EndTime})
	}
	if r.ModifyDetails != nil {
		pairs = append(pairs, timePair{r.ModifyDetails.StartTime, r.ModifyDetails.EndTime})
	}
	if r.DeleteDetails != nil {
		pairs = append(pairs, timePair{r.DeleteDetails.StartTime, r.DeleteDetails.EndTime})
	}
	for _, p := range pairs {
		if p.start != "" && p.end != "" && p.start >= p.end {
			return fmt.Errorf("start time %s is not before end time %s", p.start, p.end)
		}
	}

	return nil
}

// handleResolveCommand validates the tool input shape before it is accepted
// as a result. Returning an error makes the whole remote attempt fail, which
// is exactly what a malformed response should do.
func handleResolveCommand(_ context.Context, input map[string]any) (string, error) {
	if _, ok := input["intent"].(string); !ok {
		return "", fmt.Errorf("intent is required")
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(raw), nil
}

// buildResolverPrompt assembles the user message: the raw command, the
// current moment for relative-date resolution, and any candidate events for
// disambiguation.
func buildResolverPrompt(command string, now time.Time, candidates []EventCandidate) string {
	var prompt bytes.Buffer

	prompt.WriteString("## Command\n\n")
	prompt.WriteString(command)
	prompt.WriteString("\n\n## Current Date/Time Reference\n\n")
	prompt.WriteString(fmt.Sprintf("Current time: %s\n", now.Format("2006-01-02 15:04 (Monday)")))

	if len(candidates) > 0 {
		prompt.WriteString("\n## Existing Calendar Events (for matching modify/delete targets)\n\n")
		for _, c := range candidates {
			prompt.WriteString(fmt.Sprintf("- [ID: %s] %s", c.ID, c.Title))
			if c.Date != "" {
				prompt.WriteString(" @ " + c.Date)
			}
			if c.StartTime != "" {
				prompt.WriteString(" " + c.StartTime)
			}
			prompt.WriteString("\n")
		}
	} else {
		prompt.WriteString("\n## Existing Calendar Events\n\nNo existing events provided.\n")
	}

	prompt.WriteString("\nResolve this command into a structured calendar operation using the resolve_calendar_command tool.")
	return prompt.String()
}

// extractJSON pulls the first balanced JSON object out of free text, since
// responses are sometimes wrapped in markdown fences or prose.
func extractJSON(text string) string {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}
