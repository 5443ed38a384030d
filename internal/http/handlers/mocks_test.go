package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/services"
)

type sessionSvcMock struct{ mock.Mock }

func (m *sessionSvcMock) Login(ctx context.Context, studentID, name string) (*domain.User, error) {
	args := m.Called(ctx, studentID, name)
	var u *domain.User
	if v := args.Get(0); v != nil {
		u = v.(*domain.User)
	}
	return u, args.Error(1)
}

func (m *sessionSvcMock) Workspace(ctx context.Context, sess services.Session) (*services.Workspace, error) {
	args := m.Called(ctx, sess)
	var ws *services.Workspace
	if v := args.Get(0); v != nil {
		ws = v.(*services.Workspace)
	}
	return ws, args.Error(1)
}

type messageSvcMock struct{ mock.Mock }

func (m *messageSvcMock) ListMessages(ctx context.Context, sess services.Session, groupID uint) ([]domain.Message, error) {
	args := m.Called(ctx, sess, groupID)
	var out []domain.Message
	if v := args.Get(0); v != nil {
		out = v.([]domain.Message)
	}
	return out, args.Error(1)
}

func (m *messageSvcMock) Stats(ctx context.Context, sess services.Session, groupID uint) (int64, uint, error) {
	args := m.Called(ctx, sess, groupID)
	return args.Get(0).(int64), args.Get(1).(uint), args.Error(2)
}

func (m *messageSvcMock) SendMessage(ctx context.Context, sess services.Session, in services.SendMessageInput) (*services.SendResult, error) {
	args := m.Called(ctx, sess, in)
	var res *services.SendResult
	if v := args.Get(0); v != nil {
		res = v.(*services.SendResult)
	}
	return res, args.Error(1)
}

type documentSvcMock struct{ mock.Mock }

func (m *documentSvcMock) GetDocument(ctx context.Context, sess services.Session, ref domain.DocumentRef) (string, error) {
	args := m.Called(ctx, sess, ref)
	return args.String(0), args.Error(1)
}

func (m *documentSvcMock) GetDocumentHistory(ctx context.Context, sess services.Session, ref domain.DocumentRef, limit int) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, sess, ref, limit)
	var out []domain.HistoryEntry
	if v := args.Get(0); v != nil {
		out = v.([]domain.HistoryEntry)
	}
	return out, args.Error(1)
}

func (m *documentSvcMock) SaveDocument(ctx context.Context, sess services.Session, groupID uint, content string) (*services.SaveResult, error) {
	args := m.Called(ctx, sess, groupID, content)
	var res *services.SaveResult
	if v := args.Get(0); v != nil {
		res = v.(*services.SaveResult)
	}
	return res, args.Error(1)
}

func (m *documentSvcMock) SaveDocumentSnapshot(ctx context.Context, sess services.Session, groupID uint, content string) (*services.SaveResult, error) {
	args := m.Called(ctx, sess, groupID, content)
	var res *services.SaveResult
	if v := args.Get(0); v != nil {
		res = v.(*services.SaveResult)
	}
	return res, args.Error(1)
}

func (m *documentSvcMock) SubmitFinalDocument(ctx context.Context, sess services.Session, groupID uint) (*services.SubmitResult, error) {
	args := m.Called(ctx, sess, groupID)
	var res *services.SubmitResult
	if v := args.Get(0); v != nil {
		res = v.(*services.SubmitResult)
	}
	return res, args.Error(1)
}

type idemStoreMock struct{ mock.Mock }

func (m *idemStoreMock) Replay(ctx context.Context, sess services.Session, groupID uint, key string) (*domain.Message, error) {
	args := m.Called(ctx, sess, groupID, key)
	var msg *domain.Message
	if v := args.Get(0); v != nil {
		msg = v.(*domain.Message)
	}
	return msg, args.Error(1)
}

func (m *idemStoreMock) Remember(ctx context.Context, sess services.Session, groupID uint, key string, messageID uint) error {
	return m.Called(ctx, sess, groupID, key, messageID).Error(0)
}
