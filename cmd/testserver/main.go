// Package main provides a test server for exercising the command API without
// a real Google Calendar. Events live in memory; the interpreter uses the real
// Claude API when ANTHROPIC_API_KEY is set and the local parser otherwise.
//
// Usage:
//
//	ANTHROPIC_API_KEY=sk-... go run cmd/testserver/main.go
//
// The server exposes additional test control endpoints:
//   - POST /api/test/reset - Remove all in-memory events
//   - POST /api/test/seed-event - Add an event to the in-memory calendar
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/talbenari/project_clara/internal/config"
	"github.com/talbenari/project_clara/internal/executor"
	"github.com/talbenari/project_clara/internal/gcal"
	"github.com/talbenari/project_clara/internal/interpreter"
	"github.com/talbenari/project_clara/internal/server"
)

func main() {
	fmt.Println("Starting Clara test server...")
	fmt.Println("Events are held in memory; no Google Calendar is touched.")

	cfg := config.LoadFromEnv()

	if cfg.AnthropicAPIKey == "" {
		fmt.Println("Warning: ANTHROPIC_API_KEY not set. Commands resolve with the local parser only.")
	}

	interp := interpreter.NewDefault(interpreter.RemoteConfig{
		APIKey:      cfg.AnthropicAPIKey,
		Model:       cfg.ClaudeModel,
		Temperature: cfg.ClaudeTemperature,
	}, interpreter.WithTimeout(time.Duration(cfg.RemoteTimeoutSeconds)*time.Second))

	cal := newMemCalendar()
	exec := executor.New(cal, "primary", time.UTC)

	srv := server.New(server.Config{
		Interpreter: interp,
		Exec:        exec,
		Port:        cfg.HTTPPort,
	})

	mux := http.NewServeMux()
	mux.Handle("/", srv.Handler())
	mux.HandleFunc("POST /api/test/reset", func(w http.ResponseWriter, r *http.Request) {
		cal.reset()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/test/seed-event", func(w http.ResponseWriter, r *http.Request) {
		var input struct {
			Summary   string    `json:"summary"`
			StartTime time.Time `json:"startTime"`
			EndTime   time.Time `json:"endTime"`
		}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		id, _ := cal.CreateEvent("primary", gcal.EventInput{
			Summary:   input.Summary,
			StartTime: input.StartTime,
			EndTime:   input.EndTime,
		})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": id})
	})

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	fmt.Printf("Test server listening on http://localhost%s\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "Test server error: %v\n", err)
		os.Exit(1)
	}
}

// memCalendar is an in-memory stand-in for the Google Calendar client.
type memCalendar struct {
	mu     sync.Mutex
	nextID int
	events map[string]gcal.Event
}

func newMemCalendar() *memCalendar {
	return &memCalendar{events: make(map[string]gcal.Event)}
}

func (m *memCalendar) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string]gcal.Event)
}

func (m *memCalendar) CreateEvent(_ string, input gcal.EventInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("mem-%d", m.nextID)
	m.events[id] = gcal.Event{
		ID:          id,
		Summary:     input.Summary,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
	}
	return id, nil
}

func (m *memCalendar) UpdateEvent(_ string, eventID string, input gcal.EventInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return gcal.ErrEventNotFound
	}
	ev.Summary = input.Summary
	ev.Description = input.Description
	ev.StartTime = input.StartTime
	ev.EndTime = input.EndTime
	m.events[eventID] = ev
	return nil
}

func (m *memCalendar) DeleteEvent(_ string, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[eventID]; !ok {
		return gcal.ErrEventNotFound
	}
	delete(m.events, eventID)
	return nil
}

func (m *memCalendar) ListEventsInRange(_ string, timeMin, timeMax time.Time) ([]gcal.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []gcal.Event
	for _, ev := range m.events {
		if !ev.StartTime.Before(timeMin) && ev.StartTime.Before(timeMax) {
			result = append(result, ev)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}
