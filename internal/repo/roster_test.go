package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbourn/go-classroom-backend/internal/domain"
)

const rosterYAML = `
groups:
  - id: 1
    name: Debate A
    members:
      - id: 12345
        name: Alice
        avatar_url: /avatars/alice.png
      - id: 23456
        name: Bob
  - id: 2
    name: Debate B
    members:
      - id: 34567
        name: Carol
`

func TestParseRoster_Validation(t *testing.T) {
	r, err := ParseRoster([]byte(rosterYAML))
	if err != nil {
		t.Fatalf("ParseRoster: %v", err)
	}
	if len(r.Groups) != 2 || len(r.Groups[0].Members) != 2 || r.Groups[0].Members[0].AvatarURL != "/avatars/alice.png" {
		t.Fatalf("unexpected roster: %+v", r)
	}

	cases := map[string]string{
		"two groups": `
groups:
  - {id: 1, name: A, members: [{id: 5, name: X}]}
  - {id: 2, name: B, members: [{id: 5, name: X}]}`,
		"dup group":   `groups: [{id: 1, name: A}, {id: 1, name: B}]`,
		"no name":     `groups: [{id: 1, name: ""}]`,
		"member id 0": `groups: [{id: 1, name: A, members: [{id: 0, name: X}]}]`,
		"bad yaml":    "groups: [",
	}
	for name, src := range cases {
		if _, err := ParseRoster([]byte(src)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadRoster_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(rosterYAML), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadRoster(path); err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if _, err := LoadRoster(path + ".missing"); err == nil || !strings.Contains(err.Error(), "read roster") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestApplyRoster_IdempotentAndMoves(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Group{}, &domain.GroupMember{})
	ctx := context.Background()

	r, err := ParseRoster([]byte(rosterYAML))
	if err != nil {
		t.Fatalf("ParseRoster: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := ApplyRoster(ctx, db, r); err != nil {
			t.Fatalf("ApplyRoster #%d: %v", i, err)
		}
	}

	var users, members int64
	db.Model(&domain.User{}).Count(&users)
	db.Model(&domain.GroupMember{}).Count(&members)
	if users != 3 || members != 3 {
		t.Fatalf("expected 3 users and 3 memberships, got %d and %d", users, members)
	}

	// Carol moves to group 1 and is renamed.
	r.Groups[1].Members = nil
	r.Groups[0].Members = append(r.Groups[0].Members, RosterMember{ID: 34567, Name: "Caroline"})
	if err := ApplyRoster(ctx, db, r); err != nil {
		t.Fatalf("ApplyRoster move: %v", err)
	}
	g, err := FirstGroupForUser(ctx, db, 34567)
	if err != nil || g.ID != 1 {
		t.Fatalf("expected Carol in group 1, got %+v err=%v", g, err)
	}
	u, _ := GetUser(ctx, db, 34567)
	if u == nil || u.Name != "Caroline" {
		t.Fatalf("expected rename applied, got %+v", u)
	}
	db.Model(&domain.GroupMember{}).Count(&members)
	if members != 3 {
		t.Fatalf("expected 3 memberships after move, got %d", members)
	}
}
