// Package executor turns resolved calendar commands into Google Calendar
// mutations and human-readable summaries. The interpreter never calls it;
// callers decide when a CommandResult is actionable.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/talbenari/project_clara/internal/gcal"
	"github.com/talbenari/project_clara/internal/interpreter"
	"github.com/talbenari/project_clara/internal/timeutil"
)

// defaultEventDuration is used when a create command names no end time.
const defaultEventDuration = time.Hour

// modifySearchWindow bounds how far ahead we look for an event to modify
// when the command names no date.
const modifySearchWindow = 30 * 24 * time.Hour

// ErrNoMatchingEvent means a modify command named an event we cannot find.
var ErrNoMatchingEvent = errors.New("no matching calendar event")

// Calendar is the slice of the Google Calendar client the executor needs.
// *gcal.Client satisfies it.
type Calendar interface {
	CreateEvent(calendarID string, input gcal.EventInput) (string, error)
	UpdateEvent(calendarID, eventID string, input gcal.EventInput) error
	DeleteEvent(calendarID, eventID string) error
	ListEventsInRange(calendarID string, timeMin, timeMax time.Time) ([]gcal.Event, error)
}

// Outcome is the result of applying one command: either a summary of what
// happened or a clarification the caller should relay to the user.
type Outcome struct {
	Summary       string                     `json:"summary,omitempty"`
	Clarification *interpreter.Clarification `json:"clarificationNeeded,omitempty"`
	EventIDs      []string                   `json:"eventIds,omitempty"`
	Events        []gcal.Event               `json:"events,omitempty"`
}

// Executor applies CommandResults against one calendar.
type Executor struct {
	cal        Calendar
	calendarID string
	loc        *time.Location
}

// New creates an executor for the given calendar. A nil location means UTC.
func New(cal Calendar, calendarID string, loc *time.Location) *Executor {
	if loc == nil {
		loc = time.UTC
	}
	return &Executor{cal: cal, calendarID: calendarID, loc: loc}
}

// Apply performs the calendar operation a resolved command describes.
// Clarifications pass through untouched; unresolved results perform nothing.
func (e *Executor) Apply(ctx context.Context, result *interpreter.CommandResult, now time.Time) (*Outcome, error) {
	if result == nil {
		return nil, fmt.Errorf("nil command result")
	}
	if result.Clarification != nil {
		return &Outcome{Clarification: result.Clarification}, nil
	}
	if !result.Resolved() {
		return &Outcome{Summary: "Sorry, I couldn't work out a calendar action from that."}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch result.Intent {
	case interpreter.IntentCreateEvent:
		return e.applyCreate(result.EventDetails)
	case interpreter.IntentQueryEvents:
		return e.applyQuery(result.QueryDetails)
	case interpreter.IntentModifyEvent:
		return e.applyModify(result.ModifyDetails, now)
	case interpreter.IntentDeleteEvents:
		return e.applyDelete(result.DeleteDetails)
	}
	return nil, fmt.Errorf("unsupported intent: %s", result.Intent)
}

func (e *Executor) applyCreate(details *interpreter.EventDetails) (*Outcome, error) {
	start, err := timeutil.CombineDateAndTime(details.Date, details.StartTime, e.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid event start: %w", err)
	}

	end := start.Add(defaultEventDuration)
	if details.EndTime != "" {
		end, err = timeutil.CombineDateAndTime(details.Date, details.EndTime, e.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid event end: %w", err)
		}
	}

	id, err := e.cal.CreateEvent(e.calendarID, gcal.EventInput{
		Summary:     details.Title,
		Description: details.Description,
		StartTime:   start,
		EndTime:     end,
	})
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Summary:  fmt.Sprintf("Scheduled %q on %s at %s.", details.Title, details.Date, start.Format("15:04")),
		EventIDs: []string{id},
	}, nil
}

func (e *Executor) applyQuery(details *interpreter.QueryDetails) (*Outcome, error) {
	start, end, err := timeutil.DayBounds(details.TargetDate, e.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid query date: %w", err)
	}

	events, err := e.cal.ListEventsInRange(e.calendarID, start, end)
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return &Outcome{Summary: fmt.Sprintf("Nothing on the calendar for %s.", details.TargetDate)}, nil
	}

	var lines []string
	for _, ev := range events {
		if ev.AllDay {
			lines = append(lines, fmt.Sprintf("all day - %s", ev.Summary))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s - %s", ev.StartTime.In(e.loc).Format("15:04"), ev.Summary))
	}

	return &Outcome{
		Summary: fmt.Sprintf("You have %d event(s) on %s:\n%s", len(events), details.TargetDate, strings.Join(lines, "\n")),
		Events:  events,
	}, nil
}

func (e *Executor) applyModify(details *interpreter.ModifyDetails, now time.Time) (*Outcome, error) {
	searchStart, searchEnd, err := e.modifySearchRange(details, now)
	if err != nil {
		return nil, err
	}

	events, err := e.cal.ListEventsInRange(e.calendarID, searchStart, searchEnd)
	if err != nil {
		return nil, err
	}

	var matches []gcal.Event
	for _, ev := range events {
		if interpreter.MatchTitles(details.EventName, ev.Summary) {
			matches = append(matches, ev)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNoMatchingEvent, details.EventName)
	case 1:
	default:
		options := make([]interpreter.ClarificationOption, len(matches))
		for i, m := range matches {
			options[i] = interpreter.ClarificationOption{
				ID:        m.ID,
				Title:     m.Summary,
				StartTime: m.StartTime.In(e.loc).Format("15:04:05"),
			}
		}
		return &Outcome{
			Clarification: &interpreter.Clarification{
				Message: fmt.Sprintf("Multiple events match %q. Which one did you mean?", details.EventName),
				Options: options,
			},
		}, nil
	}

	target := matches[0]
	input, err := e.mergeModify(target, details)
	if err != nil {
		return nil, err
	}

	if err := e.cal.UpdateEvent(e.calendarID, target.ID, input); err != nil {
		return nil, err
	}

	return &Outcome{
		Summary:  fmt.Sprintf("Updated %q to %s at %s.", target.Summary, input.StartTime.Format("2006-01-02"), input.StartTime.Format("15:04")),
		EventIDs: []string{target.ID},
	}, nil
}

// modifySearchRange picks the window to search for the target event: the
// named day when the command carries a date, otherwise the next month.
func (e *Executor) modifySearchRange(details *interpreter.ModifyDetails, now time.Time) (time.Time, time.Time, error) {
	if details.Date != "" {
		return timeWindow(details.Date, e.loc)
	}
	start := now.In(e.loc).Truncate(time.Minute)
	return start, start.Add(modifySearchWindow), nil
}

func timeWindow(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, end, err := timeutil.DayBounds(date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date: %w", err)
	}
	return start, end, nil
}

// mergeModify overlays the command's updates onto the existing event: any
// field the user didn't mention keeps its current value, and an unchanged
// end time preserves the event's duration under a moved start.
func (e *Executor) mergeModify(existing gcal.Event, details *interpreter.ModifyDetails) (gcal.EventInput, error) {
	existingStart := existing.StartTime.In(e.loc)
	date := existingStart.Format("2006-01-02")
	if details.Date != "" {
		date = details.Date
	}

	startClock := existingStart.Format("15:04:05")
	if details.StartTime != "" {
		startClock = details.StartTime
	}

	start, err := timeutil.CombineDateAndTime(date, startClock, e.loc)
	if err != nil {
		return gcal.EventInput{}, fmt.Errorf("invalid modified start: %w", err)
	}

	var end time.Time
	if details.EndTime != "" {
		end, err = timeutil.CombineDateAndTime(date, details.EndTime, e.loc)
		if err != nil {
			return gcal.EventInput{}, fmt.Errorf("invalid modified end: %w", err)
		}
	} else {
		duration := existing.EndTime.Sub(existing.StartTime)
		if duration <= 0 {
			duration = defaultEventDuration
		}
		end = start.Add(duration)
	}

	description := existing.Description
	if details.Description != "" {
		description = details.Description
	}

	return gcal.EventInput{
		Summary:     existing.Summary,
		Description: description,
		StartTime:   start,
		EndTime:     end,
	}, nil
}

func (e *Executor) applyDelete(details *interpreter.DeleteDetails) (*Outcome, error) {
	start, end, err := timeWindow(details.TargetDate, e.loc)
	if err != nil {
		return nil, err
	}

	// Narrow the whole-day window when the command named one.
	if details.StartTime != "" {
		start, err = timeutil.CombineDateAndTime(details.TargetDate, details.StartTime, e.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid window start: %w", err)
		}
	}
	if details.EndTime != "" {
		end, err = timeutil.CombineDateAndTime(details.TargetDate, details.EndTime, e.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid window end: %w", err)
		}
	}

	events, err := e.cal.ListEventsInRange(e.calendarID, start, end)
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return &Outcome{Summary: fmt.Sprintf("No events to cancel on %s.", details.TargetDate)}, nil
	}

	var deleted []string
	for _, ev := range events {
		if err := e.cal.DeleteEvent(e.calendarID, ev.ID); err != nil {
			if gcal.IsEventNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to cancel %q: %w", ev.Summary, err)
		}
		deleted = append(deleted, ev.ID)
	}

	return &Outcome{
		Summary:  fmt.Sprintf("Cancelled %d event(s) on %s.", len(deleted), details.TargetDate),
		EventIDs: deleted,
	}, nil
}
