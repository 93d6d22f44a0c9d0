package interpreter

import "github.com/talbenari/project_clara/internal/agent"

// resolverSystemPrompt instructs the model to resolve commands absolutely and
// to clarify instead of guessing when more than one event matches.
const resolverSystemPrompt = `You resolve natural-language calendar commands into exactly one structured calendar operation.

## Your Task

Given a user command, the current date/time, and optionally a list of existing calendar events, call the resolve_calendar_command tool with the resolved operation. Determine exactly one intent:

- CREATE_EVENT: the user wants to schedule something new ("schedule a meeting tomorrow at 3pm")
- QUERY_EVENTS: the user asks what is on their calendar for a day
- MODIFY_EVENT: the user wants to change an existing event's time, date, or description
- DELETE_EVENTS: the user wants to cancel events on a date, optionally within a time window

## Rules

- Resolve ALL relative dates and times absolutely using the provided current time. "tomorrow" becomes a concrete YYYY-MM-DD date; "next monday" is the next occurrence of that weekday strictly in the future, never today.
- All times are 24-hour HH:MM:SS strings ("3pm" becomes "15:00:00"). Dates are YYYY-MM-DD.
- When a CREATE_EVENT command gives no start time, use "09:00:00".
- Match event names fuzzily against the existing events, ignoring extraneous qualifiers: "the product call with Sharan" matches an event titled "product call".
- If MORE THAN ONE existing event plausibly matches the target of a modify or delete, do NOT pick one. Set clarificationNeeded with a question and list the matching events as options (id, title, startTime), and omit the details object.
- If a start/end time pair would have start at or after end, set clarificationNeeded naming both times and omit the details object. Never emit an invalid time range.
- If a required piece is missing (no date, no event name), set clarificationNeeded asking for it.
- Populate exactly one details object, the one matching the intent, unless clarificationNeeded is set, in which case populate none.
- Always set useLocalFallback to false.`

// resolveCommandTool is the fixed output schema for the remote parser. Its
// input mirrors CommandResult field for field, so the forced tool call IS the
// structured result.
var resolveCommandTool = agent.Tool{
	Name: resolveToolName,
	Description: `Reports the single structured calendar operation a natural-language command resolves to.
Call this exactly once with the fully resolved operation: absolute dates (YYYY-MM-DD),
24-hour times (HH:MM:SS), and at most one details object matching the intent. When the
command is ambiguous, incomplete, or contains an invalid time range, supply
clarificationNeeded instead of a details object.`,
	InputSchema: agent.BuildJSONSchema("object", map[string]any{
		"intent": agent.PropertyEnum(
			"The calendar action the command requests",
			[]string{"CREATE_EVENT", "QUERY_EVENTS", "MODIFY_EVENT", "DELETE_EVENTS"},
		),
		"eventDetails": agent.PropertyObject(
			"New event to create. Only for CREATE_EVENT.",
			map[string]any{
				"title":       agent.PropertyString("Event title"),
				"date":        agent.PropertyString("Event date, YYYY-MM-DD"),
				"startTime":   agent.PropertyString("Start time, HH:MM:SS 24-hour. Default 09:00:00 when the command names none."),
				"endTime":     agent.PropertyString("End time, HH:MM:SS 24-hour. Omit if not specified."),
				"description": agent.PropertyString("Optional free-text description"),
			},
			[]string{"title", "date", "startTime"},
		),
		"queryDetails": agent.PropertyObject(
			"Day to look up. Only for QUERY_EVENTS.",
			map[string]any{
				"targetDate": agent.PropertyString("Date to query, YYYY-MM-DD"),
			},
			[]string{"targetDate"},
		),
		"modifyDetails": agent.PropertyObject(
			"Updates to an existing event. Only for MODIFY_EVENT.",
			map[string]any{
				"eventName":   agent.PropertyString("Fuzzy title of the event to modify, extraneous qualifiers stripped"),
				"date":        agent.PropertyString("New date, YYYY-MM-DD. Omit if unchanged."),
				"startTime":   agent.PropertyString("New start time, HH:MM:SS. Omit if unchanged."),
				"endTime":     agent.PropertyString("New end time, HH:MM:SS. Omit if unchanged."),
				"description": agent.PropertyString("New description. Omit if unchanged."),
			},
			[]string{"eventName"},
		),
		"deleteDetails": agent.PropertyObject(
			"Deletion window. Only for DELETE_EVENTS.",
			map[string]any{
				"targetDate": agent.PropertyString("Date to delete events on, YYYY-MM-DD"),
				"startTime":  agent.PropertyString("Window start, HH:MM:SS. Omit to cover the whole day."),
				"endTime":    agent.PropertyString("Window end, HH:MM:SS. Omit to cover the whole day."),
			},
			[]string{"targetDate"},
		),
		"useLocalFallback": agent.PropertyBool("Always false for this resolver"),
		"clarificationNeeded": agent.PropertyObject(
			"Present when the command is ambiguous, incomplete, or has an invalid time range. Supersedes all details objects.",
			map[string]any{
				"message": agent.PropertyString("Question to ask the user"),
				"options": agent.PropertyArray(
					"Candidate events the user may choose between",
					agent.BuildJSONSchema("object", map[string]any{
						"id":        agent.PropertyString("Event id"),
						"title":     agent.PropertyString("Event title"),
						"startTime": agent.PropertyString("Event start time"),
					}, []string{"id", "title"}),
				),
			},
			[]string{"message"},
		),
	}, []string{"intent", "useLocalFallback"}),
}
