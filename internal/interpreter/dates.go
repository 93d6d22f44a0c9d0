package interpreter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date and time token grammar shared by all of the local extractors.
var (
	weekdayPattern  = `(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)`
	dateTokenRe     = regexp.MustCompile(`(?i)\b(today|tomorrow|(?:next|this)\s+` + weekdayPattern + `|\d{1,2}/\d{1,2}(?:/\d{4})?)\b`)
	numericDateRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{4}))?$`)
	relWeekdayRe    = regexp.MustCompile(`(?i)^(?:next|this)\s+(` + weekdayPattern + `)$`)
	clockTokenRe    = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\.?\s*$`)
	timeExprPattern = `\d{1,2}(?::\d{2})?\s*(?:am|pm)?`
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// findDateToken returns the first date expression in the text, if any.
func findDateToken(text string) (string, bool) {
	m := dateTokenRe.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}

// resolveDate maps a free-form date token onto a YYYY-MM-DD string relative
// to now. "next monday" and "this monday" both mean the next occurrence of
// that weekday strictly after now: when today already is that weekday the
// resolved date is a week out, never today. A numeric M/D with no year takes
// the current year; an impossible M/D like 13/45 resolves to false so the
// caller can ask for a real date instead of emitting a non-ISO string.
// Anything unrecognized resolves to now's date.
func resolveDate(token string, now time.Time) (string, bool) {
	token = strings.ToLower(strings.TrimSpace(token))

	switch token {
	case "today":
		return now.Format("2006-01-02"), true
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02"), true
	}

	if m := relWeekdayRe.FindStringSubmatch(token); m != nil {
		target := weekdays[m[1]]
		offset := (int(target) - int(now.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		return now.AddDate(0, 0, offset).Format("2006-01-02"), true
	}

	if m := numericDateRe.FindStringSubmatch(token); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if !validCalendarDate(year, month, day) {
			return "", false
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
	}

	return now.Format("2006-01-02"), true
}

// validCalendarDate reports whether year/month/day name a real date.
// time.Date normalizes out-of-range components, so a round-trip comparison
// catches 13/45 and 2/30 alike.
func validCalendarDate(year, month, day int) bool {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && d.Month() == time.Month(month) && d.Day() == day
}

// convertTo24Hour converts a 12-hour clock expression ("3:00 pm", "11:30am")
// to an HH:MM:SS string. A bare hour gets :00 minutes. Without a meridiem the
// value is taken as already 24-hour ("15:00" stays 15:00, "3:00" is 03:00).
func convertTo24Hour(expr string) (string, bool) {
	m := clockTokenRe.FindStringSubmatch(expr)
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return "", false
		}
	}

	switch strings.ToLower(m[3]) {
	case "pm":
		if hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	}

	return fmt.Sprintf("%02d:%02d:00", hour, minute), true
}
