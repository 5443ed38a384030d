// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-classroom-backend/internal/domain"
)

// MessagesStats returns the number of messages in a group and the highest
// message id. Messages are append-only, so the pair changes whenever the
// room does. When the group has no messages both values are 0.
func MessagesStats(ctx context.Context, db *gorm.DB, groupID uint) (count int64, maxID uint, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("group_id = ?", groupID)

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct {
		ID uint
	}
	if err = q.Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}
