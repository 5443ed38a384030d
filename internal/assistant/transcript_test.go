package assistant

import (
	"testing"

	"github.com/tbourn/go-classroom-backend/internal/domain"
)

func TestBuildTranscript_ChronologicalWithRoles(t *testing.T) {
	// newest first, as returned by the recent-window query
	recent := []domain.ContextMessage{
		{ID: 3, UserID: 7, Name: "Alice", Content: "@nate what is a claim?"},
		{ID: 2, UserID: 999, Name: "NATE", Content: "Hi!"},
		{ID: 1, UserID: 8, Name: "Bob", Content: "hello"},
	}
	got := BuildTranscript(recent, 999)
	want := []ChatMessage{
		{Role: RoleUser, Content: "Bob: hello"},
		{Role: RoleAssistant, Content: "Hi!"},
		{Role: RoleUser, Content: "Alice: @nate what is a claim?"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("turn %d = %+v; want %+v", i, got[i], want[i])
		}
	}

	if out := BuildTranscript(nil, 999); len(out) != 0 {
		t.Fatalf("expected empty transcript, got %+v", out)
	}
}
