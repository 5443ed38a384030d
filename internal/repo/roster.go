// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file loads the class roster (groups, students and
// memberships) from YAML and applies it to the database.
package repo

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-classroom-backend/internal/domain"
)

// Roster is the YAML shape of a class roster.
type Roster struct {
	Groups []RosterGroup `yaml:"groups" json:"groups"`
}

// RosterGroup is one group and its members.
type RosterGroup struct {
	ID      uint           `yaml:"id" json:"id"`
	Name    string         `yaml:"name" json:"name"`
	Members []RosterMember `yaml:"members" json:"members"`
}

// RosterMember is one student.
type RosterMember struct {
	ID        uint   `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	AvatarURL string `yaml:"avatar_url" json:"avatar_url"`
}

// LoadRoster reads and validates a roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes and validates roster YAML.
func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks ids and names are present and that no student appears in
// more than one group.
func (r *Roster) Validate() error {
	groups := map[uint]bool{}
	owner := map[uint]uint{}
	for _, g := range r.Groups {
		if g.ID == 0 || strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("roster: group needs id and name (got id=%d name=%q)", g.ID, g.Name)
		}
		if groups[g.ID] {
			return fmt.Errorf("roster: duplicate group id %d", g.ID)
		}
		groups[g.ID] = true
		for _, m := range g.Members {
			if m.ID == 0 || strings.TrimSpace(m.Name) == "" {
				return fmt.Errorf("roster: member of group %d needs id and name", g.ID)
			}
			if prev, ok := owner[m.ID]; ok {
				return fmt.Errorf("roster: user %d listed in groups %d and %d", m.ID, prev, g.ID)
			}
			owner[m.ID] = g.ID
		}
	}
	return nil
}

// ApplyRoster upserts every group, user and membership in one transaction.
// Applying the same roster twice leaves the database unchanged.
func ApplyRoster(ctx context.Context, db *gorm.DB, r *Roster) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range r.Groups {
			grp := domain.Group{ID: g.ID, Name: g.Name}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name"}),
			}).Create(&grp).Error; err != nil {
				return fmt.Errorf("upsert group %d: %w", g.ID, err)
			}
			for _, m := range g.Members {
				u := domain.User{ID: m.ID, Name: m.Name, AvatarURL: m.AvatarURL}
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "id"}},
					DoUpdates: clause.AssignmentColumns([]string{"name", "avatar_url"}),
				}).Create(&u).Error; err != nil {
					return fmt.Errorf("upsert user %d: %w", m.ID, err)
				}
				// A student moved between groups keeps only the new membership.
				if err := tx.Where("user_id = ? AND group_id <> ?", m.ID, g.ID).
					Delete(&domain.GroupMember{}).Error; err != nil {
					return fmt.Errorf("move member %d: %w", m.ID, err)
				}
				gm := domain.GroupMember{GroupID: g.ID, UserID: m.ID}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
					Omit(clause.Associations).
					Create(&gm).Error; err != nil {
					return fmt.Errorf("add member %d to group %d: %w", m.ID, g.ID, err)
				}
			}
		}
		return nil
	})
}
