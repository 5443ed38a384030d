package assistant

import (
	"fmt"

	"github.com/tbourn/go-classroom-backend/internal/domain"
)

// Chat roles understood by the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildTranscript turns a newest-first window of recent group messages into
// a chronological transcript. Messages authored by assistantID become
// assistant turns verbatim; everything else becomes a user turn prefixed
// with the author's name so the model can tell students apart.
func BuildTranscript(recent []domain.ContextMessage, assistantID uint) []ChatMessage {
	out := make([]ChatMessage, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		m := recent[i]
		if m.UserID == assistantID {
			out = append(out, ChatMessage{Role: RoleAssistant, Content: m.Content})
			continue
		}
		out = append(out, ChatMessage{Role: RoleUser, Content: fmt.Sprintf("%s: %s", m.Name, m.Content)})
	}
	return out
}
