// Package services – sessions
//
// Session is the explicit identity passed into every service call. It is
// resolved once per request from the plaintext cookie by the HTTP layer and
// carries the user id, or its absence, and nothing else.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/repo"
)

// Session identifies the caller. The zero value is anonymous.
type Session struct {
	userID uint
	ok     bool
}

// NewSession returns a session for userID; 0 yields an anonymous session.
func NewSession(userID uint) Session {
	if userID == 0 {
		return Session{}
	}
	return Session{userID: userID, ok: true}
}

// Anonymous returns a session without a user.
func Anonymous() Session { return Session{} }

// UserID returns the session user and whether there is one.
func (s Session) UserID() (uint, bool) { return s.userID, s.ok }

func (s Session) require() (uint, error) {
	if !s.ok {
		return 0, ErrUnauthorized
	}
	return s.userID, nil
}

// requireMember resolves the session user and checks membership of groupID.
func requireMember(ctx context.Context, db *gorm.DB, sess Session, groupID uint) (uint, error) {
	uid, err := sess.require()
	if err != nil {
		return 0, err
	}
	if groupID == 0 {
		return 0, &ValidationError{Field: "groupId", Reason: "must be a positive integer"}
	}
	ok, err := repo.IsGroupMember(ctx, db, groupID, uid)
	if err != nil {
		return 0, storageErr("check membership", err)
	}
	if !ok {
		return 0, ErrForbidden
	}
	return uid, nil
}

// Workspace is what a logged-in student sees on arrival: who they are and
// which group they belong to. Group is nil when they have none.
type Workspace struct {
	User  domain.User   `json:"user"`
	Group *domain.Group `json:"group"`
}

// SessionService handles login and workspace resolution.
type SessionService struct {
	DB *gorm.DB
}

// Login checks the pair (studentID, name) against the users table. The name
// must match exactly, case included; surrounding whitespace is ignored.
// Any mismatch yields ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, studentID, name string) (*domain.User, error) {
	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	id, err := ParseID("studentId", studentID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}
	span.SetAttributes(attribute.Int64("user.id", int64(id)))

	u, err := repo.FindUserByCredentials(ctx, s.DB, id, name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storageErr("find user", err)
	}
	return u, nil
}

// Workspace returns the session user and their group.
func (s *SessionService) Workspace(ctx context.Context, sess Session) (*Workspace, error) {
	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "Workspace")
	defer span.End()

	uid, err := sess.require()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", int64(uid)))

	u, err := repo.GetUser(ctx, s.DB, uid)
	if errors.Is(err, repo.ErrNotFound) {
		// Cookie names a user that no longer exists.
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}

	ws := &Workspace{User: *u}
	g, err := repo.FirstGroupForUser(ctx, s.DB, uid)
	switch {
	case err == nil:
		ws.Group = g
	case errors.Is(err, repo.ErrNotFound):
	default:
		return nil, storageErr("find group", err)
	}
	span.AddEvent("workspace resolved", trace.WithAttributes(attribute.Bool("has_group", ws.Group != nil)))
	return ws, nil
}
