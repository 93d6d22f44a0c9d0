package interpreter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemoteAgainst(t *testing.T, handler http.HandlerFunc) *RemoteParser {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	parser := NewRemoteParser(RemoteConfig{APIKey: "test-key"})
	parser.Agent().APIClient().SetBaseURL(server.URL)
	return parser
}

func toolUseResponse(input map[string]any) map[string]any {
	return map[string]any{
		"id":   "msg_test",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{
				"type":  "tool_use",
				"id":    "toolu_test",
				"name":  "resolve_calendar_command",
				"input": input,
			},
		},
		"stop_reason": "tool_use",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
	}
}

func TestRemoteParse_ForcedToolCall(t *testing.T) {
	parser := newRemoteAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// The request must force the resolver tool.
		choice, ok := req["tool_choice"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "tool", choice["type"])
		assert.Equal(t, "resolve_calendar_command", choice["name"])

		json.NewEncoder(w).Encode(toolUseResponse(map[string]any{
			"intent": "CREATE_EVENT",
			"eventDetails": map[string]any{
				"title":     "Team Meeting",
				"date":      "2025-10-24",
				"startTime": "15:00:00",
			},
			"useLocalFallback": false,
		}))
	})

	result, err := parser.Parse(context.Background(), Request{Command: "schedule a meeting tomorrow at 3pm", Now: testNow})

	require.NoError(t, err)
	assert.Equal(t, IntentCreateEvent, result.Intent)
	assert.False(t, result.UseLocalFallback)
	require.NotNil(t, result.EventDetails)
	assert.Equal(t, "Team Meeting", result.EventDetails.Title)
	assert.Equal(t, "2025-10-24", result.EventDetails.Date)
}

func TestRemoteParse_ClarificationWithOptions(t *testing.T) {
	parser := newRemoteAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(toolUseResponse(map[string]any{
			"intent": "MODIFY_EVENT",
			"clarificationNeeded": map[string]any{
				"message": "Which product call did you mean?",
				"options": []map[string]any{
					{"id": "a1", "title": "Product call (design)", "startTime": "10:00:00"},
					{"id": "b2", "title": "Product call (sales)", "startTime": "14:00:00"},
				},
			},
			"useLocalFallback": false,
		}))
	})

	result, err := parser.Parse(context.Background(), Request{
		Command: "modify the product call",
		Now:     testNow,
		Candidates: []EventCandidate{
			{ID: "a1", Title: "Product call (design)"},
			{ID: "b2", Title: "Product call (sales)"},
		},
	})

	require.NoError(t, err)
	assert.Nil(t, result.ModifyDetails)
	require.NotNil(t, result.Clarification)
	require.Len(t, result.Clarification.Options, 2)
}

func TestRemoteParse_SalvagesTextResponse(t *testing.T) {
	parser := newRemoteAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{
					"type": "text",
					"text": "Here is the resolved command:\n```json\n{\"intent\": \"QUERY_EVENTS\", \"queryDetails\": {\"targetDate\": \"2025-10-24\"}}\n```",
				},
			},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	})

	result, err := parser.Parse(context.Background(), Request{Command: "what do I have tomorrow", Now: testNow})

	require.NoError(t, err)
	assert.Equal(t, IntentQueryEvents, result.Intent)
	require.NotNil(t, result.QueryDetails)
	assert.Equal(t, "2025-10-24", result.QueryDetails.TargetDate)
}

func TestRemoteParse_TransportErrorFails(t *testing.T) {
	parser := newRemoteAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"type": "overloaded_error", "message": "overloaded"}}`, http.StatusServiceUnavailable)
	})

	_, err := parser.Parse(context.Background(), Request{Command: "schedule X tomorrow", Now: testNow})
	require.Error(t, err)
}

func TestRemoteParse_Unconfigured(t *testing.T) {
	parser := NewRemoteParser(RemoteConfig{})
	_, err := parser.Parse(context.Background(), Request{Command: "schedule X tomorrow", Now: testNow})
	require.Error(t, err)
}

func TestDecodeToolInput_RejectsNonConforming(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
	}{
		{
			name:  "missing intent",
			input: map[string]any{"useLocalFallback": false},
		},
		{
			name: "details mismatch intent",
			input: map[string]any{
				"intent":       "DELETE_EVENTS",
				"eventDetails": map[string]any{"title": "x", "date": "2025-10-24", "startTime": "09:00:00"},
			},
		},
		{
			name: "invalid time range",
			input: map[string]any{
				"intent": "DELETE_EVENTS",
				"deleteDetails": map[string]any{
					"targetDate": "2025-10-23",
					"startTime":  "18:00:00",
					"endTime":    "16:00:00",
				},
			},
		},
		{
			name: "details alongside clarification",
			input: map[string]any{
				"intent":              "QUERY_EVENTS",
				"queryDetails":        map[string]any{"targetDate": "2025-10-23"},
				"clarificationNeeded": map[string]any{"message": "which day?"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeToolInput(tt.input)
			require.Error(t, err)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractJSON("prefix {\"a\": {\"b\": 1}} suffix"))
	assert.Equal(t, "", extractJSON("no json here"))
}
