// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for documents and
// their append-only history.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-classroom-backend/internal/domain"
)

// FindDocument returns the document addressed by ref, or ErrNotFound.
func FindDocument(ctx context.Context, db *gorm.DB, ref domain.DocumentRef) (*domain.Document, error) {
	var d domain.Document
	q := db.WithContext(ctx).Where("group_id = ? AND owner_key = ?", ref.GroupID(), ref.OwnerKey())
	if _, ok := ref.Owner(); !ok {
		q = q.Where("user_id IS NULL")
	}
	if err := q.First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDocument inserts the document addressed by ref with the given
// content. If a concurrent writer created it first, the existing row is
// returned unchanged and created is false.
func CreateDocument(ctx context.Context, db *gorm.DB, ref domain.DocumentRef, content string, by uint) (doc *domain.Document, created bool, err error) {
	d := &domain.Document{
		GroupID:       ref.GroupID(),
		OwnerKey:      ref.OwnerKey(),
		Content:       content,
		LastUpdatedBy: &by,
		UpdatedAt:     time.Now().UTC(),
	}
	if uid, ok := ref.Owner(); ok {
		d.UserID = &uid
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "owner_key"}},
			DoNothing: true,
		}).
		Create(d)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return d, true, nil
	}
	existing, err := FindDocument(ctx, db, ref)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// UpdateDocumentContent replaces a document's content and stamps the editor.
// It returns ErrNotFound when no row matches id.
func UpdateDocumentContent(ctx context.Context, db *gorm.DB, id uint, content string, by uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"content":         content,
			"last_updated_by": by,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendHistory records an immutable snapshot of content for documentID.
func AppendHistory(ctx context.Context, db *gorm.DB, documentID, userID uint, content string) (*domain.DocumentHistory, error) {
	h := &domain.DocumentHistory{
		DocumentID: documentID,
		UserID:     userID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(h).Error; err != nil {
		return nil, err
	}
	return h, nil
}

// LatestHistory returns the most recent history row of documentID, or nil
// when the document has no history yet.
func LatestHistory(ctx context.Context, db *gorm.DB, documentID uint) (*domain.DocumentHistory, error) {
	var h domain.DocumentHistory
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC, id DESC").
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHistory returns up to limit history entries of documentID, newest
// first, attributed to their authors. Content is not loaded.
func ListHistory(ctx context.Context, db *gorm.DB, documentID uint, limit int) ([]domain.HistoryEntry, error) {
	out := []domain.HistoryEntry{}
	q := db.WithContext(ctx).
		Table("document_history AS h").
		Select("h.id, h.user_id, u.name, u.avatar_url, h.created_at").
		Joins("JOIN users u ON u.id = h.user_id").
		Where("h.document_id = ?", documentID).
		Order("h.created_at DESC, h.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&out).Error
	return out, err
}
