package model

import "time"

// JSON keys of the review schema, in the order the model is asked to emit
// them. The struct tags on Review repeat these literally; the prompt and the
// parser both iterate ReviewKeys so the three cannot drift apart.
const (
	KeyLanguageDetected          = "Language Detected"
	KeyCorrectedCode             = "Correct Code"
	KeyTimeComplexity            = "Time Complexity"
	KeySpaceComplexity           = "Space Complexity"
	KeySummary                   = "Summary"
	KeyPositiveFeedback          = "Positive Feedback"
	KeyCriticalIssues            = "Critical issues"
	KeySecurityVulnerabilities   = "Security Vulnerabilities"
	KeySuggestionsForImprovement = "Suggestions for improvement"
	KeyTestabilityNotes          = "Testability"
)

// ReviewKeys lists every content key of a Review in prompt order.
var ReviewKeys = []string{
	KeyLanguageDetected,
	KeyCorrectedCode,
	KeyTimeComplexity,
	KeySpaceComplexity,
	KeySummary,
	KeyPositiveFeedback,
	KeyCriticalIssues,
	KeySecurityVulnerabilities,
	KeySuggestionsForImprovement,
	KeyTestabilityNotes,
}

// IsListKey reports whether key holds a sequence of strings rather than a
// single string.
func IsListKey(key string) bool {
	switch key {
	case KeyPositiveFeedback, KeyCriticalIssues, KeySecurityVulnerabilities,
		KeySuggestionsForImprovement, KeyTestabilityNotes:
		return true
	}
	return false
}

// Review is the structured result of one code-analysis pass.
//
// The JSON shape is the same one the model produces (keys with spaces and
// all), plus reviewedAt. It is used both for API responses and for the
// history column in storage.
//
// A Review is immutable once appended to a user's history.
type Review struct {
	LanguageDetected          string    `json:"Language Detected"`
	CorrectedCode             string    `json:"Correct Code"`
	TimeComplexity            string    `json:"Time Complexity"`
	SpaceComplexity           string    `json:"Space Complexity"`
	Summary                   string    `json:"Summary"`
	PositiveFeedback          []string  `json:"Positive Feedback"`
	CriticalIssues            []string  `json:"Critical issues"`
	SecurityVulnerabilities   []string  `json:"Security Vulnerabilities"`
	SuggestionsForImprovement []string  `json:"Suggestions for improvement"`
	TestabilityNotes          []string  `json:"Testability"`
	ReviewedAt                time.Time `json:"reviewedAt"`
}
