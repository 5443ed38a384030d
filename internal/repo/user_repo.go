// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users, groups
// and group membership.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When a row is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-classroom-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByCredentials returns the user whose id and name both match. The
// name comparison is exact and case-sensitive on every supported backend.
func FindUserByCredentials(ctx context.Context, db *gorm.DB, id uint, name string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	// SQLite's = is case-sensitive but collations elsewhere may not be.
	if u.Name != name {
		return nil, ErrNotFound
	}
	return &u, nil
}

// GetGroup fetches a group by id, or ErrNotFound.
func GetGroup(ctx context.Context, db *gorm.DB, id uint) (*domain.Group, error) {
	var g domain.Group
	if err := db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// FirstGroupForUser returns the group the user belongs to. Users are expected
// to belong to at most one group; if data says otherwise the lowest group id
// wins so the answer is stable.
func FirstGroupForUser(ctx context.Context, db *gorm.DB, userID uint) (*domain.Group, error) {
	var g domain.Group
	err := db.WithContext(ctx).
		Table("groups AS g").
		Select("g.id, g.name").
		Joins("JOIN group_members gm ON gm.group_id = g.id").
		Where("gm.user_id = ?", userID).
		Order("g.id ASC").
		Limit(1).
		Take(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// IsGroupMember reports whether userID is a member of groupID.
func IsGroupMember(ctx context.Context, db *gorm.DB, groupID, userID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&n).Error
	return n > 0, err
}
