package interpreter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Extraction anchors, one family per intent. Title and event-name capture
// runs over the original-case text since callers may use proper nouns.
var (
	createTitleRe = regexp.MustCompile(`(?i)\b(?:schedule|create|set\s+up)\s+(.+?)(?:\s+(?:for|at|from|between|on)\b.*)?$`)
	modifyNameRe  = regexp.MustCompile(`(?i)\b(?:modify|change|update)\s+(?:the\s+)?(.+?)(?:\s+(?:to|at|on|between)\b.*)?$`)
	withClauseRe  = regexp.MustCompile(`(?i)\s+with\s+.+$`)
	leadArticleRe = regexp.MustCompile(`(?i)^(?:a|an|the)\s+`)
	trailDateRe   = regexp.MustCompile(`(?i)\s*(?:\bon\s+)?(?:\bfor\s+)?(?:today|tomorrow|(?:next|this)\s+` + weekdayPattern + `|\d{1,2}/\d{1,2}(?:/\d{4})?)\s*$`)
	betweenRe     = regexp.MustCompile(`(?i)\bbetween\s+(` + timeExprPattern + `)\s+and\s+(` + timeExprPattern + `)`)
	fromToRe      = regexp.MustCompile(`(?i)\bfrom\s+(` + timeExprPattern + `)\s+(?:to|until)\s+(` + timeExprPattern + `)`)
	atTimeRe      = regexp.MustCompile(`(?i)\bat\s+(` + timeExprPattern + `)\b`)
	endTimeRe     = regexp.MustCompile(`(?i)\b(?:to|until)\s+(` + timeExprPattern + `)\b`)
	descriptionRe = regexp.MustCompile(`(?i)\b(?:about|regarding)\s+(.+?)[.!?]?$`)
)

// LocalParser is the deterministic fallback interpreter. It performs no I/O,
// never returns an error, and resolves every command into either a details
// object, a clarification, or a silent unresolved result.
type LocalParser struct{}

func NewLocalParser() *LocalParser {
	return &LocalParser{}
}

func (p *LocalParser) Name() string { return "local" }

// Parse classifies the command, runs the matching extractor, and flags the
// result as fallback-produced.
func (p *LocalParser) Parse(_ context.Context, req Request) (*CommandResult, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	text := strings.TrimSpace(req.Command)
	result := &CommandResult{UseLocalFallback: true}

	intent := classifyIntent(strings.ToLower(text))
	if !intent.IsValid() {
		// No recognizable intent: a silent no-match, not a clarification.
		return result, nil
	}
	result.Intent = intent

	switch intent {
	case IntentCreateEvent:
		p.extractCreate(text, now, result)
	case IntentQueryEvents:
		p.extractQuery(text, now, result)
	case IntentModifyEvent:
		p.extractModify(text, now, req.Candidates, result)
	case IntentDeleteEvents:
		p.extractDelete(text, now, result)
	}

	return result, nil
}

// classifyIntent picks exactly one intent from ordered keyword predicates,
// first match wins. Cancellation keywords are checked before the modify
// family so "cancel and change my 3pm meeting" deletes instead of modifying.
func classifyIntent(text string) Intent {
	has := func(kw string) bool { return strings.Contains(text, kw) }

	switch {
	case has("cancel") || has("delete"):
		return IntentDeleteEvents
	case has("schedule") || has("create") || has("set up"):
		return IntentCreateEvent
	case has("what") && (has("have") || has("on")) && has("calendar"):
		return IntentQueryEvents
	case has("modify") || has("change") || has("update") || has("modified"):
		return IntentModifyEvent
	}
	return ""
}

func (p *LocalParser) extractCreate(text string, now time.Time, result *CommandResult) {
	title := ""
	if m := createTitleRe.FindStringSubmatch(text); m != nil {
		title = cleanTitle(m[1])
	}
	if title == "" {
		result.Clarification = &Clarification{
			Message: "I couldn't tell what to call the event. Please restate the command with an event name.",
		}
		return
	}

	dateToken, ok := findDateToken(text)
	if !ok {
		result.Clarification = &Clarification{
			Message: "I couldn't find a date in that command. Please say which day the event is on.",
		}
		return
	}
	date, ok := resolveDate(dateToken, now)
	if !ok {
		result.Clarification = invalidDateClarification(dateToken)
		return
	}

	startTok, endTok := findTimeTokens(text)
	start := "09:00:00"
	if startTok != "" {
		if converted, ok := convertTo24Hour(startTok); ok {
			start = converted
		}
	}
	end := ""
	if endTok != "" {
		if converted, ok := convertTo24Hour(endTok); ok {
			end = converted
		}
	}

	if end != "" && start >= end {
		// With no explicit start token the defaulted start is what the
		// user needs to hear about.
		if startTok == "" {
			startTok = start
		}
		result.Clarification = invalidRangeClarification(startTok, endTok)
		return
	}

	details := &EventDetails{
		Title:     title,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}
	if m := descriptionRe.FindStringSubmatch(text); m != nil {
		details.Description = strings.TrimSpace(m[1])
	}
	result.EventDetails = details
}

func (p *LocalParser) extractQuery(text string, now time.Time, result *CommandResult) {
	dateToken, ok := findDateToken(text)
	if !ok {
		result.Clarification = &Clarification{
			Message: "Which day would you like to see? Please include a date.",
		}
		return
	}
	date, ok := resolveDate(dateToken, now)
	if !ok {
		result.Clarification = invalidDateClarification(dateToken)
		return
	}
	result.QueryDetails = &QueryDetails{TargetDate: date}
}

func (p *LocalParser) extractModify(text string, now time.Time, candidates []EventCandidate, result *CommandResult) {
	name := ""
	if m := modifyNameRe.FindStringSubmatch(text); m != nil {
		name = cleanEventName(m[1])
	}
	if name == "" {
		result.Clarification = &Clarification{
			Message: "I couldn't tell which event to modify. Please name the event.",
		}
		return
	}

	if matches := matchCandidates(name, candidates); len(matches) > 1 {
		result.Clarification = ambiguousMatchClarification(name, matches)
		return
	}

	startTok, endTok := findTimeTokens(text)
	start, end := "", ""
	if startTok != "" {
		if converted, ok := convertTo24Hour(startTok); ok {
			start = converted
		}
	}
	if endTok != "" {
		if converted, ok := convertTo24Hour(endTok); ok {
			end = converted
		}
	}
	if start != "" && end != "" && start >= end {
		result.Clarification = invalidRangeClarification(startTok, endTok)
		return
	}

	details := &ModifyDetails{
		EventName: name,
		StartTime: start,
		EndTime:   end,
	}
	if dateToken, ok := findDateToken(text); ok {
		date, ok := resolveDate(dateToken, now)
		if !ok {
			result.Clarification = invalidDateClarification(dateToken)
			return
		}
		details.Date = date
	}
	if m := descriptionRe.FindStringSubmatch(text); m != nil {
		details.Description = strings.TrimSpace(m[1])
	}
	result.ModifyDetails = details
}

func (p *LocalParser) extractDelete(text string, now time.Time, result *CommandResult) {
	dateToken, ok := findDateToken(text)
	if !ok {
		result.Clarification = &Clarification{
			Message: "Please specify which date to cancel events on.",
		}
		return
	}

	date, ok := resolveDate(dateToken, now)
	if !ok {
		result.Clarification = invalidDateClarification(dateToken)
		return
	}
	details := &DeleteDetails{TargetDate: date}

	startTok, endTok := findTimeTokens(text)
	if startTok != "" && endTok != "" {
		start, okStart := convertTo24Hour(startTok)
		end, okEnd := convertTo24Hour(endTok)
		if !okStart || !okEnd || start >= end {
			result.Clarification = invalidRangeClarification(startTok, endTok)
			return
		}
		details.StartTime = start
		details.EndTime = end
	}

	result.DeleteDetails = details
}

// findTimeTokens locates the literal start/end time expressions in the text.
// An explicit range ("between X and Y", "from X to Y") wins over independent
// "at X" / "to Y" anchors.
func findTimeTokens(text string) (start, end string) {
	if m := betweenRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := fromToRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := atTimeRe.FindStringSubmatch(text); m != nil {
		start = strings.TrimSpace(m[1])
	}
	if m := endTimeRe.FindStringSubmatch(text); m != nil {
		end = strings.TrimSpace(m[1])
	}
	return start, end
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = leadArticleRe.ReplaceAllString(title, "")
	// Drop a trailing date phrase so "a meeting tomorrow" keeps just "meeting".
	for {
		stripped := trailDateRe.ReplaceAllString(title, "")
		if stripped == title {
			break
		}
		title = strings.TrimSpace(stripped)
	}
	return strings.TrimSpace(title)
}

// cleanEventName trims a captured event-name phrase: articles, trailing date
// words, and any "with <name>" qualifier so "the product call with Sharan"
// matches an event titled "product call".
func cleanEventName(raw string) string {
	name := cleanTitle(raw)
	name = withClauseRe.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

func invalidDateClarification(token string) *Clarification {
	return &Clarification{
		Message: fmt.Sprintf("%q is not a real calendar date. Please restate the date.", token),
	}
}

func invalidRangeClarification(startTok, endTok string) *Clarification {
	return &Clarification{
		Message: fmt.Sprintf("The start time %q is not before the end time %q. Please restate the time range.", startTok, endTok),
	}
}

func ambiguousMatchClarification(name string, matches []EventCandidate) *Clarification {
	options := make([]ClarificationOption, len(matches))
	for i, m := range matches {
		options[i] = ClarificationOption{ID: m.ID, Title: m.Title, StartTime: m.StartTime}
	}
	return &Clarification{
		Message: fmt.Sprintf("Multiple events match %q. Which one did you mean?", name),
		Options: options,
	}
}
