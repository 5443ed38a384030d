// Package services – MessageService
//
// This file implements MessageService, which owns the lifecycle of group
// chat messages. It validates and coerces raw form input, checks group
// membership, persists messages, and hands assistant-mention follow-ups to
// an assistant.Dispatcher after the user's message has been committed.
// Assistant availability never affects whether a user's message is stored.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// group, user and message identifiers.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-classroom-backend/internal/assistant"
	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/repo"
)

const (
	// DefaultAssistantID is the reserved user id of the assistant.
	DefaultAssistantID uint = 999
	// DefaultAssistantName is the assistant's display name.
	DefaultAssistantName = "NATE"
	// DefaultContextSize is how many recent messages the assistant sees.
	DefaultContextSize = 10
)

// MessageService coordinates message persistence and assistant follow-ups.
type MessageService struct {
	DB *gorm.DB

	// Dispatcher runs assistant reply jobs. When nil, mentions are stored
	// but never answered.
	Dispatcher assistant.Dispatcher
	// Responder produces reply text for ReplyAsAssistant.
	Responder *assistant.Responder

	AssistantID uint
	Mention     string
	ContextSize int

	// Optional guard; 0 disables it.
	MaxContentRunes int
}

// SendMessageInput carries the raw form fields of a send.
type SendMessageInput struct {
	Content   string
	GroupID   string
	ReplyTo   string
	RequestID string
}

// SendResult is the stored message and whether an assistant reply was
// requested.
type SendResult struct {
	Message            *domain.Message `json:"message"`
	AssistantTriggered bool            `json:"assistant_triggered"`
}

func (s *MessageService) assistantID() uint {
	if s.AssistantID == 0 {
		return DefaultAssistantID
	}
	return s.AssistantID
}

func (s *MessageService) mention() string {
	if strings.TrimSpace(s.Mention) == "" {
		return assistant.DefaultMention
	}
	return s.Mention
}

func (s *MessageService) contextSize() int {
	if s.ContextSize <= 0 {
		return DefaultContextSize
	}
	return s.ContextSize
}

// ListMessages returns every message of the group in display order with
// authors and resolved reply originals.
func (s *MessageService) ListMessages(ctx context.Context, sess Session, groupID uint) ([]domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListMessages",
		trace.WithAttributes(attribute.Int64("group.id", int64(groupID))),
	)
	defer span.End()

	if _, err := requireMember(ctx, s.DB, sess, groupID); err != nil {
		return nil, err
	}
	out, err := repo.ListGroupMessages(s.DB.WithContext(ctx), groupID)
	if err != nil {
		return nil, storageErr("list messages", err)
	}
	span.SetAttributes(attribute.Int("messages.count", len(out)))
	return out, nil
}

// Stats returns the message count and highest id of a group, for ETags.
func (s *MessageService) Stats(ctx context.Context, sess Session, groupID uint) (int64, uint, error) {
	if _, err := requireMember(ctx, s.DB, sess, groupID); err != nil {
		return 0, 0, err
	}
	n, maxID, err := repo.MessagesStats(ctx, s.DB, groupID)
	if err != nil {
		return 0, 0, storageErr("message stats", err)
	}
	return n, maxID, nil
}

// SendMessage validates and stores one message. When the content mentions
// the assistant, a reply job is dispatched after the insert commits; a
// failing job is logged and never fails the send. Only an inline dispatcher
// has stored the reply by the time SendMessage returns.
func (s *MessageService) SendMessage(ctx context.Context, sess Session, in SendMessageInput) (*SendResult, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "SendMessage")
	defer span.End()

	uid, err := sess.require()
	if err != nil {
		return nil, err
	}
	content := in.Content
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, &ValidationError{Field: "message", Reason: "is required"}
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(trimmed) > s.MaxContentRunes {
		return nil, &ValidationError{Field: "message", Reason: "is too long"}
	}
	groupID, err := ParseID("groupId", in.GroupID)
	if err != nil {
		return nil, err
	}
	var replyTo *uint
	if strings.TrimSpace(in.ReplyTo) != "" {
		id, err := ParseID("replyTo", in.ReplyTo)
		if err != nil {
			return nil, err
		}
		replyTo = &id
	}
	span.SetAttributes(
		attribute.Int64("group.id", int64(groupID)),
		attribute.Int64("user.id", int64(uid)),
	)

	if _, err := requireMember(ctx, s.DB, sess, groupID); err != nil {
		return nil, err
	}

	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.CreateMessage(tx, groupID, uid, content, replyTo)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, storageErr("create message", err)
	}
	span.SetAttributes(attribute.Int64("message.id", int64(msg.ID)))

	res := &SendResult{Message: msg}
	if uid != s.assistantID() && assistant.ContainsMention(content, s.mention()) {
		res.AssistantTriggered = true
		if s.Dispatcher != nil {
			job := assistant.Job{GroupID: groupID, MessageID: msg.ID, Content: content, RequestID: in.RequestID}
			if err := s.Dispatcher.Dispatch(ctx, job); err != nil {
				logger(ctx).Error().Err(err).
					Uint("group_id", groupID).
					Uint("message_id", msg.ID).
					Msg("assistant dispatch failed")
			}
		}
	}
	return res, nil
}

// ReplyAsAssistant answers the message named by job. It reads the recent
// window up to and including the trigger, asks the responder, and stores
// the reply as the assistant user. Only a failure to store the reply is
// returned; upstream problems have already become a canned reply.
func (s *MessageService) ReplyAsAssistant(ctx context.Context, job assistant.Job) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ReplyAsAssistant",
		trace.WithAttributes(
			attribute.Int64("group.id", int64(job.GroupID)),
			attribute.Int64("message.id", int64(job.MessageID)),
		),
	)
	defer span.End()

	aid := s.assistantID()
	recent, err := repo.RecentMessages(s.DB.WithContext(ctx), job.GroupID, job.MessageID, s.contextSize())
	if err != nil {
		logger(ctx).Warn().Err(err).Uint("group_id", job.GroupID).Msg("assistant context unavailable, answering trigger only")
		recent = nil
	}
	transcript := assistant.BuildTranscript(recent, aid)
	if len(transcript) == 0 {
		transcript = []assistant.ChatMessage{{Role: assistant.RoleUser, Content: job.Content}}
	}

	reply, outcome := s.Responder.Reply(ctx, transcript)
	span.SetAttributes(attribute.String("assistant.outcome", string(outcome)))

	m, err := repo.CreateMessage(s.DB.WithContext(ctx), job.GroupID, aid, reply, nil)
	if err != nil {
		return storageErr("create assistant reply", err)
	}
	span.SetAttributes(attribute.Int64("reply.id", int64(m.ID)))
	return nil
}

// logger returns the logger attached to ctx, or the global logger.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
