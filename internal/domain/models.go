// Package domain defines the persistence models for users, groups, chat
// messages, and per-user essay documents. These types are mapped with GORM
// and form the core data layer of the classroom application.
package domain

import "time"

// User is a student (or the reserved assistant account). Users are created
// out of band, typically from the roster file, and never edited here.
//
// Fields:
//   - ID: numeric student ID; also the login identifier.
//   - Name: display name; login requires an exact, case-sensitive match.
//   - AvatarURL: optional avatar reference rendered next to messages.
type User struct {
	ID        uint   `json:"id"         gorm:"primaryKey;autoIncrement:false"`
	Name      string `json:"name"       gorm:"type:varchar(255);not null"`
	AvatarURL string `json:"avatar_url" gorm:"type:text;not null;default:''"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Group is a fixed cohort sharing one chat room.
type Group struct {
	ID   uint   `json:"id"   gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(255);not null"`
}

// TableName returns the database table name for Group.
func (Group) TableName() string { return "groups" }

// GroupMember links a user to a group. A user belongs to at most one group;
// that rule is enforced by the roster loader and by first-membership lookups,
// not by the schema.
type GroupMember struct {
	GroupID uint `json:"group_id" gorm:"primaryKey;autoIncrement:false"`
	UserID  uint `json:"user_id"  gorm:"primaryKey;autoIncrement:false;index"`

	Group Group `json:"-" gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GroupMember.
func (GroupMember) TableName() string { return "group_members" }

// Message is a single chat line in a group room. Rows are append-only.
//
// Fields:
//   - ReplyTo: optional id of the message being answered; IsReply mirrors it.
//   - Name / AvatarURL: author projection filled by list queries (not stored).
//   - OriginalMessage: replied-to projection filled by list queries; nil when
//     ReplyTo is unset or the original row no longer exists.
type Message struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	GroupID   uint      `json:"group_id"   gorm:"not null;index:idx_group_msgs,priority:1"`
	UserID    uint      `json:"user_id"    gorm:"not null;index"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	ReplyTo   *uint     `json:"reply_to"`
	IsReply   bool      `json:"is_reply"   gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_group_msgs,priority:2"`

	Name            string           `json:"name"                       gorm:"-"`
	AvatarURL       string           `json:"avatar_url"                 gorm:"-"`
	OriginalMessage *OriginalMessage `json:"original_message,omitempty" gorm:"-"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// OriginalMessage is the read-time projection of a replied-to message.
type OriginalMessage struct {
	ID       uint   `json:"id"`
	Content  string `json:"content"`
	UserName string `json:"user_name"`
}

// ContextMessage is a recent chat line with its author's name, used to build
// the assistant transcript.
type ContextMessage struct {
	ID      uint
	UserID  uint
	Name    string
	Content string
}

// Document holds the current content of an essay. OwnerKey is 0 for the
// legacy shared document of a group and equals UserID for per-user documents;
// the unique (group_id, owner_key) index gives at most one row per owner.
type Document struct {
	ID            uint      `json:"id"              gorm:"primaryKey"`
	GroupID       uint      `json:"group_id"        gorm:"not null;uniqueIndex:ux_documents_owner,priority:1"`
	UserID        *uint     `json:"user_id"         gorm:"index"`
	OwnerKey      uint      `json:"-"               gorm:"not null;default:0;uniqueIndex:ux_documents_owner,priority:2"`
	Content       string    `json:"content"         gorm:"type:text;not null;default:''"`
	LastUpdatedBy *uint     `json:"last_updated_by"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// DocumentHistory is an immutable snapshot of a document's content. One row
// is appended per save, autosave, and final submission.
type DocumentHistory struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	DocumentID uint      `json:"document_id" gorm:"not null;index:idx_doc_history,priority:1"`
	UserID     uint      `json:"user_id"     gorm:"not null;index"`
	Content    string    `json:"-"           gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_doc_history,priority:2"`

	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for DocumentHistory.
func (DocumentHistory) TableName() string { return "document_history" }

// HistoryEntry is a history row attributed to its author.
type HistoryEntry struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}
