package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-classroom-backend/internal/domain"
)

func seedSharedDoc(t *testing.T, svc *DocumentService, groupID uint, content string) *domain.Document {
	t.Helper()
	d := &domain.Document{GroupID: groupID, Content: content}
	if err := svc.DB.Create(d).Error; err != nil {
		t.Fatalf("seed shared doc: %v", err)
	}
	return d
}

func TestGetDocument_AbsentIsEmpty(t *testing.T) {
	svc := &DocumentService{DB: newSvcDB(t)}
	ctx := context.Background()

	got, err := svc.GetDocument(ctx, NewSession(alice), domain.UserDocument(groupA, alice))
	if err != nil || got != "" {
		t.Fatalf("expected empty content, got %q err=%v", got, err)
	}
	got, err = svc.GetDocument(ctx, NewSession(alice), domain.SharedDocument(groupA))
	if err != nil || got != "" {
		t.Fatalf("expected empty shared content, got %q err=%v", got, err)
	}
	hist, err := svc.GetDocumentHistory(ctx, NewSession(alice), domain.UserDocument(groupA, alice), 0)
	if err != nil || hist == nil || len(hist) != 0 {
		t.Fatalf("expected empty history, got %#v err=%v", hist, err)
	}

	if _, err := svc.GetDocument(ctx, Anonymous(), domain.SharedDocument(groupA)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous: %v", err)
	}
	if _, err := svc.GetDocument(ctx, NewSession(carol), domain.UserDocument(groupA, alice)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider: %v", err)
	}
}

func TestSaveDocument_SharedIdempotent(t *testing.T) {
	svc := &DocumentService{DB: newSvcDB(t)}
	ctx := context.Background()

	if _, err := svc.SaveDocument(ctx, NewSession(alice), groupA, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing shared doc: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.SaveDocument(ctx, Anonymous(), groupA, "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous: %v", err)
	}

	seedSharedDoc(t, svc, groupA, "")

	r1, err := svc.SaveDocument(ctx, NewSession(alice), groupA, "thesis")
	if err != nil || !r1.Changed || r1.HistoryID == 0 {
		t.Fatalf("first save: %+v err=%v", r1, err)
	}
	r2, err := svc.SaveDocument(ctx, NewSession(bob), groupA, "thesis")
	if err != nil || r2.Changed {
		t.Fatalf("identical save must be a no-op: %+v err=%v", r2, err)
	}
	if n := countHistory(t, svc.DB); n != 1 {
		t.Fatalf("expected 1 history row, got %d", n)
	}

	if _, err := svc.SaveDocument(ctx, NewSession(bob), groupA, "thesis v2"); err != nil {
		t.Fatalf("second distinct save: %v", err)
	}
	if n := countHistory(t, svc.DB); n != 2 {
		t.Fatalf("expected 2 history rows, got %d", n)
	}

	doc, err := svc.GetDocument(ctx, NewSession(alice), domain.SharedDocument(groupA))
	if err != nil || doc != "thesis v2" {
		t.Fatalf("shared content = %q err=%v", doc, err)
	}
	var stored domain.Document
	svc.DB.Where("group_id = ? AND user_id IS NULL", groupA).First(&stored)
	if stored.LastUpdatedBy == nil || *stored.LastUpdatedBy != bob {
		t.Fatalf("last_updated_by not stamped: %+v", stored)
	}
}

func TestSaveDocumentSnapshot_AutoCreateAndAlwaysAppend(t *testing.T) {
	svc := &DocumentService{DB: newSvcDB(t)}
	ctx := context.Background()

	var before int64
	svc.DB.Model(&domain.Document{}).Count(&before)
	if before != 0 {
		t.Fatalf("expected no documents yet")
	}

	for i := 0; i < 2; i++ {
		r, err := svc.SaveDocumentSnapshot(ctx, NewSession(alice), groupA, `{"claim":"c"}`)
		if err != nil || !r.Changed || r.HistoryID == 0 {
			t.Fatalf("snapshot #%d: %+v err=%v", i, r, err)
		}
	}
	if n := countHistory(t, svc.DB); n != 2 {
		t.Fatalf("expected 2 history rows for identical snapshots, got %d", n)
	}
	var docs int64
	svc.DB.Model(&domain.Document{}).Count(&docs)
	if docs != 1 {
		t.Fatalf("expected exactly one per-user document, got %d", docs)
	}

	got, err := svc.GetDocument(ctx, NewSession(bob), domain.UserDocument(groupA, alice))
	if err != nil || got != `{"claim":"c"}` {
		t.Fatalf("peer read = %q err=%v", got, err)
	}
	// Alice's document is not Bob's and not the shared one.
	if got, _ := svc.GetDocument(ctx, NewSession(bob), domain.UserDocument(groupA, bob)); got != "" {
		t.Fatalf("bob's document should be empty, got %q", got)
	}
	if got, _ := svc.GetDocument(ctx, NewSession(bob), domain.SharedDocument(groupA)); got != "" {
		t.Fatalf("shared document should be empty, got %q", got)
	}

	hist, err := svc.GetDocumentHistory(ctx, NewSession(alice), domain.UserDocument(groupA, alice), 1)
	if err != nil || len(hist) != 1 || hist[0].Name != "Alice" || hist[0].AvatarURL != "/a.png" {
		t.Fatalf("history = %+v err=%v", hist, err)
	}

	if _, err := svc.SaveDocumentSnapshot(ctx, NewSession(carol), groupA, "x"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider snapshot: %v", err)
	}
	if _, err := svc.SaveDocumentSnapshot(ctx, Anonymous(), groupA, "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous snapshot: %v", err)
	}
}

func TestSubmitFinalDocument_UsesLatestSnapshot(t *testing.T) {
	svc := &DocumentService{DB: newSvcDB(t)}
	ctx := context.Background()

	if _, err := svc.SubmitFinalDocument(ctx, NewSession(alice), groupA); !errors.Is(err, ErrNotFound) {
		t.Fatalf("submit without document: %v", err)
	}

	if _, err := svc.SaveDocumentSnapshot(ctx, NewSession(alice), groupA, "H1"); err != nil {
		t.Fatalf("H1: %v", err)
	}
	if _, err := svc.SaveDocumentSnapshot(ctx, NewSession(alice), groupA, "H2"); err != nil {
		t.Fatalf("H2: %v", err)
	}
	// Diverge the current content from the newest snapshot.
	svc.DB.Model(&domain.Document{}).Where("group_id = ? AND user_id = ?", groupA, alice).Update("content", "scratch")

	res, err := svc.SubmitFinalDocument(ctx, NewSession(alice), groupA)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Content != "H2" {
		t.Fatalf("submitted content = %q; want H2", res.Content)
	}
	got, _ := svc.GetDocument(ctx, NewSession(alice), domain.UserDocument(groupA, alice))
	if got != "H2" {
		t.Fatalf("document content = %q; want H2", got)
	}

	var rows []domain.DocumentHistory
	svc.DB.Order("created_at DESC, id DESC").Find(&rows)
	if len(rows) != 3 || rows[0].ID != res.HistoryID || rows[0].Content != "H2" || rows[0].UserID != alice {
		t.Fatalf("unexpected history after submit: %+v", rows)
	}
}

func TestSubmitFinalDocument_FallsBackToContent(t *testing.T) {
	svc := &DocumentService{DB: newSvcDB(t)}
	ctx := context.Background()

	uid := alice
	doc := &domain.Document{GroupID: groupA, UserID: &uid, OwnerKey: alice, Content: "draft", UpdatedAt: time.Now().UTC()}
	if err := svc.DB.Create(doc).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, err := svc.SubmitFinalDocument(ctx, NewSession(alice), groupA)
	if err != nil || res.Content != "draft" {
		t.Fatalf("submit = %+v err=%v", res, err)
	}
	if n := countHistory(t, svc.DB); n != 1 {
		t.Fatalf("expected 1 history row, got %d", n)
	}
}

func TestSaveDocumentSnapshot_RollsBackOnHistoryFailure(t *testing.T) {
	svc := &DocumentService{DB: newSvcDB(t)}
	ctx := context.Background()

	if _, err := svc.SaveDocumentSnapshot(ctx, NewSession(alice), groupA, "v1"); err != nil {
		t.Fatalf("v1: %v", err)
	}
	if err := svc.DB.Migrator().DropTable(&domain.DocumentHistory{}); err != nil {
		t.Fatalf("drop history: %v", err)
	}

	_, err := svc.SaveDocumentSnapshot(ctx, NewSession(alice), groupA, "v2")
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	got, _ := svc.GetDocument(ctx, NewSession(alice), domain.UserDocument(groupA, alice))
	if got != "v1" {
		t.Fatalf("content update must roll back with the failed history append, got %q", got)
	}
}
