// Message HTTP handlers.
//
// This file exposes the group chat:
//   - GET  /groups/{groupId}/messages   (full ordered list, ETag/304)
//   - POST /messages                    (append a message; may trigger the assistant)
//
// Clients poll the list, so it carries a weak ETag built from the group's
// message count and highest id; an unchanged room answers 304 without
// loading any rows.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous send with
// the same key exists for (user, group), the handler returns the recorded
// message and sets `Idempotency-Replayed: true`. A replay never triggers the
// assistant again.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/http/middleware"
	"github.com/tbourn/go-classroom-backend/internal/services"
)

//
// DTOs
//

// PostMessageRequest is the send form. replyTo is optional.
type PostMessageRequest struct {
	Message string `form:"message" json:"message" example:"@nate what is a counter-argument?"`
	GroupID textID `form:"groupId" json:"groupId" swaggertype:"string" example:"1"`
	ReplyTo textID `form:"replyTo" json:"replyTo" swaggertype:"string" example:"42"`
}

// PostMessageResponse is the stored message and whether an assistant reply
// was scheduled.
type PostMessageResponse struct {
	Message            *domain.Message `json:"message"`
	AssistantTriggered bool            `json:"assistant_triggered"`
}

// ListMessagesResponse holds a group's messages in posting order.
type ListMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

//
// Helpers
//

func messagesETag(groupID uint, count int64, maxID uint) string {
	return fmt.Sprintf(`W/"messages:%d:%d:%d"`, groupID, count, maxID)
}

// etagMatches reports whether an If-None-Match header names etag.
func etagMatches(header, etag string) bool {
	for _, v := range strings.Split(header, ",") {
		v = strings.TrimSpace(v)
		if v == "*" || v == etag {
			return true
		}
	}
	return false
}

//
// Handlers
//

// ListMessages godoc
// @ID          listMessages
// @Summary     List a group's messages
// @Description Returns every message of the group ordered by creation time
// @Description then id, each with its author and, for replies, the original
// @Description message when it still exists. Members only.
// @Tags        Messages
// @Produce     json
// @Param       groupId        path    int     true   "Group ID"  minimum(1)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  handlers.ListMessagesResponse
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad group id"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /groups/{groupId}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	sess := middleware.SessionFrom(c)

	groupID, err := services.ParseID("groupId", c.Param("groupId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	count, maxID, err := h.msgSvc.Stats(ctx, sess, groupID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	etag := messagesETag(groupID, count, maxID)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && etagMatches(inm, etag) {
		c.Status(http.StatusNotModified)
		return
	}

	items, err := h.msgSvc.ListMessages(ctx, sess, groupID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items})
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a message
// @Description Stores the message. If it mentions the assistant, a reply is
// @Description scheduled after the message is committed. With the default
// @Description async or amqp dispatch the 201 returns before the reply exists;
// @Description pollers see it in a later list call. Only ASSISTANT_DISPATCH=inline
// @Description stores the reply before responding. Supports Idempotency-Key.
// @Tags        Messages
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.PostMessageRequest  true  "Message form"
// @Success     201  {object}  handlers.PostMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to save"
// @Router      /messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	sess := middleware.SessionFrom(c)

	var req PostMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed message form")
		return
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.idem != nil {
		groupID, err := services.ParseID("groupId", req.GroupID.String())
		if err != nil {
			writeServiceError(c, err)
			return
		}
		prev, err := h.idem.Replay(ctx, sess, groupID, idemKey)
		switch {
		case err == nil:
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusCreated, PostMessageResponse{Message: prev})
			return
		case errors.Is(err, services.ErrNotFound):
		case errors.Is(err, services.ErrUnauthorized):
			writeServiceError(c, err)
			return
		default:
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency replay lookup failed")
		}
	}

	res, err := h.msgSvc.SendMessage(ctx, sess, services.SendMessageInput{
		Content:   normalizeNewlines(req.Message),
		GroupID:   req.GroupID.String(),
		ReplyTo:   req.ReplyTo.String(),
		RequestID: middleware.RequestIDFrom(c),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if idemKey != "" && h.idem != nil {
		if err := h.idem.Remember(ctx, sess, res.Message.GroupID, idemKey, res.Message.ID); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Uint("message_id", res.Message.ID).Msg("idempotency record not stored")
		}
	}

	ok(c, http.StatusCreated, PostMessageResponse{
		Message:            res.Message,
		AssistantTriggered: res.AssistantTriggered,
	})
}
