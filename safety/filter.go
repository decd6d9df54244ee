// Package safety validates text blobs against structural and spam heuristics
// before they can be persisted as posts or replies.
package safety

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxContentLength = 10000
	maxRepeatedRun   = 7
	maxLinks         = 3
	capsRatioLimit   = 0.7
	capsMinLetters   = 20
)

var spamPhrases = []string{
	"buy now",
	"click here",
	"limited time offer",
	"act now",
	"100% free",
	"make money fast",
	"dm me for",
	"follow for follow",
	"check out my profile",
}

// Verdict is the outcome of a content check.
type Verdict struct {
	OK     bool
	Reason string
}

func blocked(reason string) Verdict { return Verdict{OK: false, Reason: reason} }

// Check runs all heuristics against content. It is a pure function with no
// side effects; callers decide what to do with a blocked verdict.
func Check(content string) Verdict {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return blocked("empty content")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return blocked("content exceeds length limit")
	}
	if hasRepeatedRun(trimmed, maxRepeatedRun) {
		return blocked("repeated character spam")
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range spamPhrases {
		if strings.Contains(lower, phrase) {
			return blocked("spam phrase detected")
		}
	}
	if linkCount(lower) > maxLinks {
		return blocked("too many links")
	}
	if excessiveCaps(trimmed) {
		return blocked("excessive capitalization")
	}
	if repeatedWordSpam(lower) {
		return blocked("repeated word spam")
	}
	return Verdict{OK: true}
}

// hasRepeatedRun reports whether any rune repeats more than limit times in a
// row. Whitespace runs are ignored.
func hasRepeatedRun(s string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev && !unicode.IsSpace(r) {
			run++
			if run > limit {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

func linkCount(lower string) int {
	return strings.Count(lower, "http://") + strings.Count(lower, "https://")
}

func excessiveCaps(s string) bool {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < capsMinLetters {
		return false
	}
	return float64(upper)/float64(letters) > capsRatioLimit
}

// repeatedWordSpam flags texts where a single word makes up more than half
// of a reasonably long body.
func repeatedWordSpam(lower string) bool {
	words := strings.Fields(lower)
	if len(words) < 12 {
		return false
	}
	counts := make(map[string]int)
	for _, w := range words {
		counts[w]++
		if counts[w] > len(words)/2 {
			return true
		}
	}
	return false
}
