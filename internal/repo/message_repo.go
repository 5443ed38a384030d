// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-classroom-backend/internal/domain"
)

// CreateMessage inserts a new message row. IsReply mirrors replyTo.
func CreateMessage(db *gorm.DB, groupID, userID uint, content string, replyTo *uint) (*domain.Message, error) {
	m := &domain.Message{
		GroupID:   groupID,
		UserID:    userID,
		Content:   content,
		ReplyTo:   replyTo,
		IsReply:   replyTo != nil,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// GetMessage fetches a message by ID.
func GetMessage(db *gorm.DB, id uint) (*domain.Message, error) {
	var m domain.Message
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

type messageRow struct {
	ID           uint
	GroupID      uint
	UserID       uint
	Content      string
	ReplyTo      *uint
	IsReply      bool
	CreatedAt    time.Time
	Name         string
	AvatarURL    string
	OrigID       *uint
	OrigContent  *string
	OrigUserName *string
}

// ListGroupMessages returns a group's messages ordered (CreatedAt ASC, ID ASC)
// with the author's name and avatar, and the replied-to message when it still
// resolves. Messages whose author row is gone are omitted.
func ListGroupMessages(db *gorm.DB, groupID uint) ([]domain.Message, error) {
	var rows []messageRow
	err := db.
		Table("messages AS m").
		Select(`m.id, m.group_id, m.user_id, m.content, m.reply_to, m.is_reply, m.created_at,
			u.name, u.avatar_url,
			orig.id AS orig_id, orig.content AS orig_content, ou.name AS orig_user_name`).
		Joins("JOIN users u ON u.id = m.user_id").
		Joins("LEFT JOIN messages orig ON orig.id = m.reply_to").
		Joins("LEFT JOIN users ou ON ou.id = orig.user_id").
		Where("m.group_id = ?", groupID).
		Order("m.created_at ASC, m.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		m := domain.Message{
			ID:        r.ID,
			GroupID:   r.GroupID,
			UserID:    r.UserID,
			Content:   r.Content,
			ReplyTo:   r.ReplyTo,
			IsReply:   r.IsReply,
			CreatedAt: r.CreatedAt,
			Name:      r.Name,
			AvatarURL: r.AvatarURL,
		}
		if r.OrigID != nil {
			om := &domain.OriginalMessage{ID: *r.OrigID}
			if r.OrigContent != nil {
				om.Content = *r.OrigContent
			}
			if r.OrigUserName != nil {
				om.UserName = *r.OrigUserName
			}
			m.OriginalMessage = om
		}
		out = append(out, m)
	}
	return out, nil
}

// RecentMessages returns up to limit messages of groupID with id <= upToID,
// newest first, each with its author's name.
func RecentMessages(db *gorm.DB, groupID, upToID uint, limit int) ([]domain.ContextMessage, error) {
	var out []domain.ContextMessage
	q := db.
		Table("messages AS m").
		Select("m.id, m.user_id, u.name, m.content").
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.group_id = ? AND m.id <= ?", groupID, upToID).
		Order("m.created_at DESC, m.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(db *gorm.DB, groupID uint) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM messages WHERE group_id = ?", groupID).Scan(&total).Error
	return total, err
}
