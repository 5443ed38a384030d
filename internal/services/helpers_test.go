package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbourn/go-classroom-backend/internal/assistant"
	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/repo"
)

// ---------- test helpers ----------

const (
	groupA uint = 1
	groupB uint = 2

	alice uint = 12345 // group A
	bob   uint = 23456 // group A
	carol uint = 34567 // group B
)

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	r, err := repo.ParseRoster([]byte(`
groups:
  - id: 1
    name: Debate A
    members:
      - {id: 12345, name: Alice, avatar_url: /a.png}
      - {id: 23456, name: Bob}
  - id: 2
    name: Debate B
    members:
      - {id: 34567, name: Carol}
`))
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if err := repo.ApplyRoster(context.Background(), db, r); err != nil {
		t.Fatalf("apply roster: %v", err)
	}
	if err := repo.EnsureAssistantUser(context.Background(), db, DefaultAssistantID, DefaultAssistantName); err != nil {
		t.Fatalf("assistant user: %v", err)
	}
	return db
}

// fakeCompleter answers every transcript with text (or err) and remembers
// what it was asked.
type fakeCompleter struct {
	text  string
	err   error
	calls int
	last  []assistant.ChatMessage
}

func (f *fakeCompleter) Complete(_ context.Context, tr []assistant.ChatMessage) (string, error) {
	f.calls++
	f.last = tr
	return f.text, f.err
}

func newMessageService(db *gorm.DB, fc *fakeCompleter) *MessageService {
	svc := &MessageService{
		DB:        db,
		Responder: &assistant.Responder{Completer: fc},
	}
	svc.Dispatcher = assistant.NewInline(svc.ReplyAsAssistant)
	return svc
}

func countMessages(t *testing.T, db *gorm.DB, groupID uint, userID ...uint) int64 {
	t.Helper()
	q := db.Model(&domain.Message{}).Where("group_id = ?", groupID)
	if len(userID) > 0 {
		q = q.Where("user_id = ?", userID[0])
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func countHistory(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.DocumentHistory{}).Count(&n).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	return n
}

func itoa(n uint) string { return fmt.Sprint(n) }
