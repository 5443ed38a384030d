// Package assistant implements the AI participant of a group chat: mention
// detection, transcript construction, the completion client, a responder
// that never fails, and dispatchers that run reply jobs after the
// triggering message has been stored.
package assistant

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultMention is the token that summons the assistant.
const DefaultMention = "@nate"

// ContainsMention reports whether content contains token, ignoring case.
// Matching uses Unicode case folding, so "@NATE", "@Nate" and "@nate" all
// match. An empty token never matches.
func ContainsMention(content, token string) bool {
	token = strings.TrimSpace(token)
	if token == "" || content == "" {
		return false
	}
	// A Caser is stateful; build one per call.
	fold := cases.Fold()
	return strings.Contains(fold.String(content), fold.String(token))
}
