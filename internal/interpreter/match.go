package interpreter

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxEditDistance bounds how far apart two titles may be and still count as
// the same event. Short names get no slack so "call" never matches "wall".
func maxEditDistance(name string) int {
	if len(name) < 8 {
		return 0
	}
	return 2
}

// MatchTitles reports whether an extracted event name plausibly refers to a
// candidate title: containment in either direction, or a small edit distance
// after normalization.
func MatchTitles(name, title string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	title = strings.ToLower(strings.TrimSpace(title))
	if name == "" || title == "" {
		return false
	}
	if strings.Contains(title, name) || strings.Contains(name, title) {
		return true
	}
	return levenshtein.ComputeDistance(name, title) <= maxEditDistance(name)
}

// matchCandidates returns every candidate event the name plausibly refers to.
// More than one match means the command is ambiguous and needs clarification.
func matchCandidates(name string, candidates []EventCandidate) []EventCandidate {
	var matches []EventCandidate
	for _, c := range candidates {
		if MatchTitles(name, c.Title) {
			matches = append(matches, c)
		}
	}
	return matches
}
