package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talbenari/project_clara/internal/executor"
	"github.com/talbenari/project_clara/internal/gcal"
	"github.com/talbenari/project_clara/internal/interpreter"
)

// A Thursday, so relative weekday commands resolve deterministically.
const testNowRFC3339 = "2025-10-23T10:30:00Z"

type stubCalendar struct {
	events  []gcal.Event
	created []gcal.EventInput
	deleted []string
}

func (f *stubCalendar) CreateEvent(_ string, input gcal.EventInput) (string, error) {
	f.created = append(f.created, input)
	return "created-1", nil
}

func (f *stubCalendar) UpdateEvent(_ string, _ string, _ gcal.EventInput) error { return nil }

func (f *stubCalendar) DeleteEvent(_ string, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

func (f *stubCalendar) ListEventsInRange(_ string, timeMin, timeMax time.Time) ([]gcal.Event, error) {
	var result []gcal.Event
	for _, ev := range f.events {
		if !ev.StartTime.Before(timeMin) && ev.StartTime.Before(timeMax) {
			result = append(result, ev)
		}
	}
	return result, nil
}

// createTestServer builds a server with the local-only interpreter and no
// calendar wired up.
func createTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Config{
		Interpreter: interpreter.NewDefault(interpreter.RemoteConfig{}),
		Port:        0,
	})
}

func createTestServerWithCalendar(t *testing.T, cal *stubCalendar) *Server {
	t.Helper()
	return New(Config{
		Interpreter: interpreter.NewDefault(interpreter.RemoteConfig{}),
		Exec:        executor.New(cal, "primary", time.UTC),
		Port:        0,
	})
}

func postCommand(t *testing.T, s *Server, body commandRequest) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/command", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleHealthCheck(t *testing.T) {
	s := createTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "disconnected", response["gcal"])
}

func TestHandleCommand_InterpretOnly(t *testing.T) {
	s := createTestServer(t)

	w := postCommand(t, s, commandRequest{
		Command: "schedule a meeting tomorrow at 3 PM",
		Now:     testNowRFC3339,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp commandResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Equal(t, interpreter.IntentCreateEvent, resp.Result.Intent)
	assert.True(t, resp.Result.UseLocalFallback)
	require.NotNil(t, resp.Result.EventDetails)
	assert.Equal(t, "meeting", resp.Result.EventDetails.Title)
	assert.Equal(t, "2025-10-24", resp.Result.EventDetails.Date)
	assert.Equal(t, "15:00:00", resp.Result.EventDetails.StartTime)
	assert.Nil(t, resp.Outcome)
}

func TestHandleCommand_MissingCommand(t *testing.T) {
	s := createTestServer(t)

	w := postCommand(t, s, commandRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCommand_BadNow(t *testing.T) {
	s := createTestServer(t)

	w := postCommand(t, s, commandRequest{Command: "what do I have today", Now: "yesterday"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCommand_ExecuteWithoutCalendar(t *testing.T) {
	s := createTestServer(t)

	w := postCommand(t, s, commandRequest{
		Command: "schedule a meeting tomorrow at 3 PM",
		Now:     testNowRFC3339,
		Execute: true,
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleCommand_Execute(t *testing.T) {
	cal := &stubCalendar{}
	s := createTestServerWithCalendar(t, cal)

	w := postCommand(t, s, commandRequest{
		Command: "schedule a meeting tomorrow at 3 PM",
		Now:     testNowRFC3339,
		Execute: true,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp commandResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, []string{"created-1"}, resp.Outcome.EventIDs)

	require.Len(t, cal.created, 1)
	assert.Equal(t, "meeting", cal.created[0].Summary)
	assert.Equal(t, time.Date(2025, 10, 24, 15, 0, 0, 0, time.UTC), cal.created[0].StartTime)
}

func TestHandleCommand_ExecuteClarificationPassesThrough(t *testing.T) {
	cal := &stubCalendar{}
	s := createTestServerWithCalendar(t, cal)

	// No date: the interpreter asks for one instead of guessing.
	w := postCommand(t, s, commandRequest{
		Command: "cancel all my meetings",
		Now:     testNowRFC3339,
		Execute: true,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp commandResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result.Clarification)
	require.NotNil(t, resp.Outcome)
	assert.NotNil(t, resp.Outcome.Clarification)
	assert.Empty(t, cal.deleted)
}

func TestHandleGCalStatus_NotConfigured(t *testing.T) {
	s := createTestServer(t)

	req := httptest.NewRequest("GET", "/api/gcal/status", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, false, response["connected"])
}

func TestHandleListTodayEvents_NoCalendar(t *testing.T) {
	s := createTestServer(t)

	req := httptest.NewRequest("GET", "/api/events/today", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleListTodayEvents(t *testing.T) {
	today := time.Now().UTC()
	cal := &stubCalendar{events: []gcal.Event{
		{
			ID:        "e1",
			Summary:   "Standup",
			StartTime: time.Date(today.Year(), today.Month(), today.Day(), 9, 0, 0, 0, time.UTC),
			EndTime:   time.Date(today.Year(), today.Month(), today.Day(), 9, 15, 0, 0, time.UTC),
		},
	}}
	s := createTestServerWithCalendar(t, cal)

	req := httptest.NewRequest("GET", "/api/events/today", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var outcome executor.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	require.Len(t, outcome.Events, 1)
	assert.Equal(t, "Standup", outcome.Events[0].Summary)
}
