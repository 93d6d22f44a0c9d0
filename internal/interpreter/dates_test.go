package interpreter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-10-23 is a Thursday.
var testNow = time.Date(2025, 10, 23, 10, 30, 0, 0, time.UTC)

func TestResolveDate(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{"today", "today", "2025-10-23"},
		{"tomorrow", "tomorrow", "2025-10-24"},
		{"next monday from a thursday", "next monday", "2025-10-27"},
		{"next friday is strictly future", "next friday", "2025-10-24"},
		{"this saturday", "this saturday", "2025-10-25"},
		{"numeric date with year", "10/27/2025", "2025-10-27"},
		{"numeric date assumes current year", "10/27", "2025-10-27"},
		{"numeric date zero pads", "1/5", "2025-01-05"},
		{"mixed case", "Tomorrow", "2025-10-24"},
		{"unknown token falls back to today", "someday", "2025-10-23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolveDate(tt.token, testNow)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveDate_WeekdayNeverResolvesToToday(t *testing.T) {
	// now is a Thursday; "next thursday" must be a week out, not today.
	got, ok := resolveDate("next thursday", testNow)
	require.True(t, ok)
	assert.Equal(t, "2025-10-30", got)

	got, ok = resolveDate("this thursday", testNow)
	require.True(t, ok)
	assert.Equal(t, "2025-10-30", got)
}

func TestResolveDate_RejectsImpossibleDates(t *testing.T) {
	for _, token := range []string{"13/45", "2/30", "0/10", "6/0", "13/45/2026"} {
		_, ok := resolveDate(token, testNow)
		assert.False(t, ok, "expected %q to be rejected", token)
	}
}

func TestConvertTo24Hour(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected string
	}{
		{"afternoon", "3:00 pm", "15:00:00"},
		{"midnight", "12:00 am", "00:00:00"},
		{"noon", "12:00 pm", "12:00:00"},
		{"no space before meridiem", "11:30am", "11:30:00"},
		{"bare hour", "4 pm", "16:00:00"},
		{"uppercase", "3 PM", "15:00:00"},
		{"no meridiem is taken as 24-hour", "15:00", "15:00:00"},
		{"no meridiem single digit", "3:00", "03:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := convertTo24Hour(tt.expr)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvertTo24Hour_Rejects(t *testing.T) {
	for _, expr := range []string{"", "noon", "25:00", "13 pm", "7:75"} {
		_, ok := convertTo24Hour(expr)
		assert.False(t, ok, "expected %q to be rejected", expr)
	}
}

func TestFindDateToken(t *testing.T) {
	token, ok := findDateToken("cancel my meetings between 4 pm and 6 pm today")
	require.True(t, ok)
	assert.Equal(t, "today", token)

	token, ok = findDateToken("schedule standup next monday")
	require.True(t, ok)
	assert.Equal(t, "next monday", token)

	_, ok = findDateToken("cancel my meetings")
	assert.False(t, ok)
}
