// Package handlers implements the classroom REST API on top of the services
// layer. Handlers bind form or JSON input, resolve the caller's session from
// the Gin context, delegate to a service, and translate the result.
package handlers

import (
	"context"

	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// SessionService resolves students.
type SessionService interface {
	// Login checks a (student id, name) pair.
	Login(ctx context.Context, studentID, name string) (*domain.User, error)
	// Workspace returns the session user and their group.
	Workspace(ctx context.Context, sess services.Session) (*services.Workspace, error)
}

// MessageService serves the group chat.
type MessageService interface {
	ListMessages(ctx context.Context, sess services.Session, groupID uint) ([]domain.Message, error)
	// Stats returns (count, max id) for conditional responses.
	Stats(ctx context.Context, sess services.Session, groupID uint) (int64, uint, error)
	SendMessage(ctx context.Context, sess services.Session, in services.SendMessageInput) (*services.SendResult, error)
}

// DocumentService serves shared and per-student essays.
type DocumentService interface {
	GetDocument(ctx context.Context, sess services.Session, ref domain.DocumentRef) (string, error)
	GetDocumentHistory(ctx context.Context, sess services.Session, ref domain.DocumentRef, limit int) ([]domain.HistoryEntry, error)
	SaveDocument(ctx context.Context, sess services.Session, groupID uint, content string) (*services.SaveResult, error)
	SaveDocumentSnapshot(ctx context.Context, sess services.Session, groupID uint, content string) (*services.SaveResult, error)
	SubmitFinalDocument(ctx context.Context, sess services.Session, groupID uint) (*services.SubmitResult, error)
}

// IdempotencyStore replays message sends for a repeated Idempotency-Key.
type IdempotencyStore interface {
	Replay(ctx context.Context, sess services.Session, groupID uint, key string) (*domain.Message, error)
	Remember(ctx context.Context, sess services.Session, groupID uint, key string, messageID uint) error
}

//
// Handler wiring
//

// Handlers groups every endpoint of the API.
type Handlers struct {
	sessSvc SessionService
	msgSvc  MessageService
	docSvc  DocumentService
	idem    IdempotencyStore
}

// New constructs Handlers. idem may be nil, which disables replay.
func New(sessSvc SessionService, msgSvc MessageService, docSvc DocumentService, idem IdempotencyStore) *Handlers {
	return &Handlers{sessSvc: sessSvc, msgSvc: msgSvc, docSvc: docSvc, idem: idem}
}
