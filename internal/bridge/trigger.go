package bridge

import "strings"

// Trigger decides which inbound texts are forwarded to the agent. Matching
// is a case-insensitive substring test, so "Robot" and "ROBOTIC" both match
// the default word "bot".
type Trigger struct {
	word string
}

func NewTrigger(word string) *Trigger {
	return &Trigger{word: strings.ToLower(strings.TrimSpace(word))}
}

// Matches reports whether text should be forwarded to the agent. An empty
// trigger word matches every non-empty text.
func (t *Trigger) Matches(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if t.word == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), t.word)
}
