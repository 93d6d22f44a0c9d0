// Package interpreter translates free-text calendar commands into structured
// calendar operations. Two parsers are evaluated in order for every command:
// a Claude-backed parser constrained by a fixed output schema, and a
// deterministic pattern-matching parser used whenever the remote path fails.
package interpreter

import (
	"context"
	"time"
)

// Intent is the coarse category of calendar action a command requests.
type Intent string

const (
	IntentCreateEvent  Intent = "CREATE_EVENT"
	IntentQueryEvents  Intent = "QUERY_EVENTS"
	IntentModifyEvent  Intent = "MODIFY_EVENT"
	IntentDeleteEvents Intent = "DELETE_EVENTS"
)

// IsValid reports whether the intent is one of the recognized actions.
// The empty string marks unresolved input and is not a valid intent.
func (i Intent) IsValid() bool {
	switch i {
	case IntentCreateEvent, IntentQueryEvents, IntentModifyEvent, IntentDeleteEvents:
		return true
	}
	return false
}

// EventDetails describes a new event to create.
type EventDetails struct {
	Title       string `json:"title"`
	Date        string `json:"date"`              // YYYY-MM-DD
	StartTime   string `json:"startTime"`         // HH:MM:SS, 24-hour
	EndTime     string `json:"endTime,omitempty"` // HH:MM:SS, 24-hour
	Description string `json:"description,omitempty"`
}

// QueryDetails names the day whose events the user asked about.
type QueryDetails struct {
	TargetDate string `json:"targetDate"` // YYYY-MM-DD
}

// ModifyDetails describes updates to apply to an existing event. EventName is
// a fuzzy title to match against real events; every other field is an
// optional overlay.
type ModifyDetails struct {
	EventName   string `json:"eventName"`
	Date        string `json:"date,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Description string `json:"description,omitempty"`
}

// DeleteDetails defines a deletion window: a day, optionally narrowed to a
// start/end time range within it.
type DeleteDetails struct {
	TargetDate string `json:"targetDate"`
	StartTime  string `json:"startTime,omitempty"`
	EndTime    string `json:"endTime,omitempty"`
}

// ClarificationOption is one concrete choice offered to the user when a
// command matched more than one event.
type ClarificationOption struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"startTime,omitempty"`
}

// Clarification asks the user to disambiguate or correct their command. It is
// not an error: a result carrying one has no details object for its intent.
type Clarification struct {
	Message string                `json:"message"`
	Options []ClarificationOption `json:"options,omitempty"`
}

// CommandResult is the parser's sole output. At most one of the four details
// fields is populated, and it always matches Intent. A missing intent marks
// input the parser could not resolve at all.
type CommandResult struct {
	Intent           Intent         `json:"intent,omitempty"`
	EventDetails     *EventDetails  `json:"eventDetails,omitempty"`
	QueryDetails     *QueryDetails  `json:"queryDetails,omitempty"`
	ModifyDetails    *ModifyDetails `json:"modifyDetails,omitempty"`
	DeleteDetails    *DeleteDetails `json:"deleteDetails,omitempty"`
	UseLocalFallback bool           `json:"useLocalFallback"`
	Clarification    *Clarification `json:"clarificationNeeded,omitempty"`
}

// Resolved reports whether the command produced an actionable details object.
func (r *CommandResult) Resolved() bool {
	if r == nil || r.Clarification != nil {
		return false
	}
	return r.EventDetails != nil || r.QueryDetails != nil ||
		r.ModifyDetails != nil || r.DeleteDetails != nil
}

// EventCandidate is a caller-supplied existing event used only for
// disambiguation matching. The interpreter never mutates candidates.
type EventCandidate struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date,omitempty"`
	StartTime string `json:"startTime,omitempty"`
}

// Request carries one command through the parser chain. Now anchors relative
// date resolution; a zero Now means the wall clock at parse time.
type Request struct {
	Command    string
	Now        time.Time
	Candidates []EventCandidate
}

// Parser attempts to turn a command into a CommandResult. A parser that
// cannot produce a result returns an error so the chain can try the next one.
type Parser interface {
	Name() string
	Parse(ctx context.Context, req Request) (*CommandResult, error)
}
