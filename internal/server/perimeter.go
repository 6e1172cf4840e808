package server

import (
	"fmt"
	"regexp"
	"strings"
)

// injectionPatterns screens idea text for obvious attempts to steer the
// oracle. The check is a perimeter filter, not a defense in depth: anything
// suspicious is bounced with a 4xx before a session starts.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+|any\s+)?(previous|prior|above)\s+(instructions|prompts?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+|any\s+)?(previous|prior|above)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s`),
	regexp.MustCompile(`(?i)reveal\s+(your\s+)?(system\s+prompt|instructions)`),
	regexp.MustCompile(`(?i)\bsystem\s*:\s`),
	regexp.MustCompile(`(?i)<\s*/?\s*(system|assistant|tool)\s*>`),
}

// ValidationError describes a rejected idea; the message is safe to show the
// caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// validateIdea applies the request perimeter: non-empty after trimming,
// bounded length, no prompt-steering markers.
func validateIdea(idea string, maxLen int) (string, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return "", &ValidationError{Reason: "idea must not be empty"}
	}
	if len(idea) > maxLen {
		return "", &ValidationError{Reason: fmt.Sprintf("idea must be at most %d characters", maxLen)}
	}
	for _, p := range injectionPatterns {
		if p.MatchString(idea) {
			return "", &ValidationError{Reason: "idea contains disallowed instruction-like content"}
		}
	}
	return idea, nil
}
