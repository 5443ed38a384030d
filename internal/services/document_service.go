// Package services – DocumentService
//
// DocumentService maintains essay documents. A document is addressed by a
// domain.DocumentRef: the legacy shared document of a group, or one user's
// personal document in a group. Every write runs in a single transaction so
// a document's content and its history row are stored together or not at
// all.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/repo"
)

// SaveResult reports the effect of a save.
type SaveResult struct {
	Changed   bool `json:"changed"`
	HistoryID uint `json:"history_id,omitempty"`
}

// SubmitResult reports the finalized content and the history row marking it.
type SubmitResult struct {
	Content   string `json:"content"`
	HistoryID uint   `json:"history_id"`
}

// DocumentService provides document reads, saves and final submission.
type DocumentService struct {
	DB *gorm.DB
}

func refAttrs(ref domain.DocumentRef) trace.SpanStartOption {
	uid, perUser := ref.Owner()
	return trace.WithAttributes(
		attribute.Int64("group.id", int64(ref.GroupID())),
		attribute.Int64("document.owner", int64(uid)),
		attribute.Bool("document.per_user", perUser),
	)
}

// GetDocument returns the content of the referenced document, or "" when it
// does not exist yet. Any member of the group may read it.
func (s *DocumentService) GetDocument(ctx context.Context, sess Session, ref domain.DocumentRef) (string, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "GetDocument", refAttrs(ref))
	defer span.End()

	if _, err := requireMember(ctx, s.DB, sess, ref.GroupID()); err != nil {
		return "", err
	}
	doc, err := repo.FindDocument(ctx, s.DB, ref)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", storageErr("find document", err)
	}
	return doc.Content, nil
}

// GetDocumentHistory returns up to limit history entries of the referenced
// document, newest first. limit <= 0 returns all. A missing document yields
// an empty slice.
func (s *DocumentService) GetDocumentHistory(ctx context.Context, sess Session, ref domain.DocumentRef, limit int) ([]domain.HistoryEntry, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "GetDocumentHistory", refAttrs(ref))
	defer span.End()

	if _, err := requireMember(ctx, s.DB, sess, ref.GroupID()); err != nil {
		return nil, err
	}
	doc, err := repo.FindDocument(ctx, s.DB, ref)
	if errors.Is(err, repo.ErrNotFound) {
		return []domain.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, storageErr("find document", err)
	}
	out, err := repo.ListHistory(ctx, s.DB, doc.ID, limit)
	if err != nil {
		return nil, storageErr("list history", err)
	}
	return out, nil
}

// SaveDocument replaces the content of the group's shared document. The
// shared document is never created here: a missing row is ErrNotFound.
// Saving content identical to what is stored is a no-op and writes no
// history.
func (s *DocumentService) SaveDocument(ctx context.Context, sess Session, groupID uint, content string) (*SaveResult, error) {
	ref := domain.SharedDocument(groupID)
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "SaveDocument", refAttrs(ref))
	defer span.End()

	uid, err := requireMember(ctx, s.DB, sess, groupID)
	if err != nil {
		return nil, err
	}

	res := &SaveResult{}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := repo.FindDocument(ctx, tx, ref)
		if err != nil {
			return err
		}
		if doc.Content == content {
			return nil
		}
		if err := repo.UpdateDocumentContent(ctx, tx, doc.ID, content, uid); err != nil {
			return err
		}
		h, err := repo.AppendHistory(ctx, tx, doc.ID, uid, content)
		if err != nil {
			return err
		}
		res.Changed = true
		res.HistoryID = h.ID
		return nil
	})
	if err != nil {
		return nil, storageErr("save document", err)
	}
	if res.Changed {
		documentSaves.WithLabelValues("full").Inc()
	} else {
		documentSaves.WithLabelValues("noop").Inc()
	}
	span.SetAttributes(attribute.Bool("document.changed", res.Changed))
	return res, nil
}

// SaveDocumentSnapshot is the autosave path for the session user's own
// document. The document is created on first use. Content is always written
// and a history row always appended, even when nothing changed.
func (s *DocumentService) SaveDocumentSnapshot(ctx context.Context, sess Session, groupID uint, content string) (*SaveResult, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "SaveDocumentSnapshot",
		trace.WithAttributes(attribute.Int64("group.id", int64(groupID))),
	)
	defer span.End()

	uid, err := requireMember(ctx, s.DB, sess, groupID)
	if err != nil {
		return nil, err
	}
	ref := domain.UserDocument(groupID, uid)

	res := &SaveResult{Changed: true}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, created, err := findOrCreate(ctx, tx, ref, content, uid)
		if err != nil {
			return err
		}
		if !created {
			if err := repo.UpdateDocumentContent(ctx, tx, doc.ID, content, uid); err != nil {
				return err
			}
		}
		h, err := repo.AppendHistory(ctx, tx, doc.ID, uid, content)
		if err != nil {
			return err
		}
		res.HistoryID = h.ID
		return nil
	})
	if err != nil {
		return nil, storageErr("save snapshot", err)
	}
	documentSaves.WithLabelValues("snapshot").Inc()
	return res, nil
}

// SubmitFinalDocument freezes the latest snapshot of the session user's
// document as its current content and records one more history row by the
// submitter. Without history the current content is used. A missing
// document is ErrNotFound.
func (s *DocumentService) SubmitFinalDocument(ctx context.Context, sess Session, groupID uint) (*SubmitResult, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "SubmitFinalDocument",
		trace.WithAttributes(attribute.Int64("group.id", int64(groupID))),
	)
	defer span.End()

	uid, err := requireMember(ctx, s.DB, sess, groupID)
	if err != nil {
		return nil, err
	}
	ref := domain.UserDocument(groupID, uid)

	var res SubmitResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := repo.FindDocument(ctx, tx, ref)
		if err != nil {
			return err
		}
		final := doc.Content
		latest, err := repo.LatestHistory(ctx, tx, doc.ID)
		if err != nil {
			return err
		}
		if latest != nil {
			final = latest.Content
		}
		if err := repo.UpdateDocumentContent(ctx, tx, doc.ID, final, uid); err != nil {
			return err
		}
		h, err := repo.AppendHistory(ctx, tx, doc.ID, uid, final)
		if err != nil {
			return err
		}
		res = SubmitResult{Content: final, HistoryID: h.ID}
		return nil
	})
	if err != nil {
		return nil, storageErr("submit document", err)
	}
	documentSaves.WithLabelValues("submit").Inc()
	return &res, nil
}

func findOrCreate(ctx context.Context, tx *gorm.DB, ref domain.DocumentRef, content string, by uint) (*domain.Document, bool, error) {
	doc, err := repo.FindDocument(ctx, tx, ref)
	if err == nil {
		return doc, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}
	return repo.CreateDocument(ctx, tx, ref, content, by)
}
