package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTool() Tool {
	return Tool{
		Name:        "echo",
		Description: "Echoes its input back.",
		InputSchema: BuildJSONSchema("object", map[string]any{
			"message": PropertyString("The text to echo"),
		}, []string{"message"}),
	}
}

// fakeAPI returns a server that records the request body and replies with the
// given canned response.
func fakeAPI(t *testing.T, response string, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}))
}

const toolUseResponse = `{
	"id": "msg_1",
	"type": "message",
	"role": "assistant",
	"content": [
		{"type": "tool_use", "id": "tu_1", "name": "echo", "input": {"message": "hello"}}
	],
	"stop_reason": "tool_use",
	"usage": {"input_tokens": 10, "output_tokens": 5}
}`

const textResponse = `{
	"id": "msg_2",
	"type": "message",
	"role": "assistant",
	"content": [
		{"type": "text", "text": "I cannot call tools right now."}
	],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 10, "output_tokens": 5}
}`

func newTestAgent(t *testing.T, serverURL string) *Agent {
	t.Helper()
	a := New(Config{
		Name:   "test-agent",
		APIKey: "test-key",
		Model:  "claude-sonnet-4-20250514",
	})
	a.APIClient().SetBaseURL(serverURL)
	a.MustRegisterTool(testTool(), func(_ context.Context, input map[string]any) (string, error) {
		msg, _ := input["message"].(string)
		return msg, nil
	})
	return a
}

func TestExecuteForcedTool(t *testing.T) {
	var captured map[string]any
	srv := fakeAPI(t, toolUseResponse, &captured)
	defer srv.Close()

	a := newTestAgent(t, srv.URL)

	call, err := a.ExecuteForcedTool(context.Background(), "say hello", "echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", call.Name)
	assert.Equal(t, "hello", call.Input["message"])
	assert.Equal(t, "hello", call.Output)
	assert.NoError(t, call.Error)

	// The request must force the named tool, not leave the choice open.
	choice, ok := captured["tool_choice"].(map[string]any)
	require.True(t, ok, "request carried no tool_choice")
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "echo", choice["name"])
}

func TestExecuteForcedTool_UnregisteredTool(t *testing.T) {
	srv := fakeAPI(t, toolUseResponse, nil)
	defer srv.Close()

	a := newTestAgent(t, srv.URL)

	_, err := a.ExecuteForcedTool(context.Background(), "say hello", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool not registered")
}

func TestExecuteForcedTool_TextResponse(t *testing.T) {
	srv := fakeAPI(t, textResponse, nil)
	defer srv.Close()

	a := newTestAgent(t, srv.URL)

	_, err := a.ExecuteForcedTool(context.Background(), "say hello", "echo")
	require.Error(t, err)

	var textErr *UnexpectedTextError
	require.True(t, errors.As(err, &textErr))
	assert.Equal(t, "I cannot call tools right now.", textErr.Text)
}

func TestExecute_EndTurn(t *testing.T) {
	srv := fakeAPI(t, textResponse, nil)
	defer srv.Close()

	a := newTestAgent(t, srv.URL)

	output, err := a.Execute(context.Background(), Input{
		Messages: []Message{
			{Role: "user", Content: []ContentBlock{TextBlock{Type: "text", Text: "hi"}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "I cannot call tools right now.", output.FinalText)
	assert.Empty(t, output.ToolCalls)
	assert.Equal(t, 15, output.Usage.TotalTokens)
}

func TestExecute_ForcedChoiceMaxTurns(t *testing.T) {
	srv := fakeAPI(t, toolUseResponse, nil)
	defer srv.Close()

	a := newTestAgent(t, srv.URL)

	output, err := a.Execute(context.Background(), Input{
		Messages: []Message{
			{Role: "user", Content: []ContentBlock{TextBlock{Type: "text", Text: "say hello"}}},
		},
		ToolChoice: "echo",
		MaxTurns:   1,
	})
	require.NoError(t, err)
	require.Len(t, output.ToolCalls, 1)
	assert.Equal(t, "echo", output.ToolCalls[0].Name)
}

func TestCall_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	defer srv.Close()

	a := newTestAgent(t, srv.URL)

	_, err := a.ExecuteForcedTool(context.Background(), "say hello", "echo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
