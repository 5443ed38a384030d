// Document HTTP handlers.
//
// This file exposes group essays. Each group has one shared document and
// each student has a private per-user document in their group.
//   - GET  /groups/{groupId}/document           (?userId= | ?shared=true)
//   - GET  /groups/{groupId}/document/history   (same selectors, &limit=)
//   - PUT  /documents                           (save the shared document)
//   - POST /documents/snapshot                  (save the caller's document)
//   - POST /documents/submit                    (submit the caller's latest version)
//
// Without a selector, reads address the caller's own document. A userId
// lets a group member read a peer's document.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/http/middleware"
	"github.com/tbourn/go-classroom-backend/internal/services"
	"github.com/tbourn/go-classroom-backend/internal/sysutil"
	"github.com/tbourn/go-classroom-backend/internal/utils"
)

// maxHistoryLimit caps ?limit= on the history endpoint.
const maxHistoryLimit = 500

// msgSubmitted is shown to the student after a successful submit.
const msgSubmitted = "Document submitted successfully!"

//
// DTOs
//

// SaveDocumentRequest carries document content. An absent or null content
// is rejected; an empty string is a valid document.
type SaveDocumentRequest struct {
	Content *string `form:"content" json:"content" example:"Social media does more harm than good because..."`
	GroupID textID  `form:"groupId" json:"groupId" swaggertype:"string" example:"1"`
}

// SubmitDocumentRequest names the group whose per-user document is submitted.
type SubmitDocumentRequest struct {
	GroupID textID `form:"groupId" json:"groupId" swaggertype:"string" example:"1"`
}

// DocumentResponse is a document's current content ("" when it does not exist yet).
type DocumentResponse struct {
	Content string `json:"content"`
}

// HistoryResponse lists saves newest first.
type HistoryResponse struct {
	History []domain.HistoryEntry `json:"history"`
}

// SaveDocumentResponse reports whether the shared save changed anything.
type SaveDocumentResponse struct {
	Changed bool `json:"changed"`
}

// SnapshotResponse acknowledges a per-user save.
type SnapshotResponse struct {
	Success bool `json:"success" example:"true"`
}

// SubmitResponse carries the submitted content.
type SubmitResponse struct {
	Message string `json:"message" example:"Document submitted successfully!"`
	Content string `json:"content"`
}

//
// Helpers
//

// documentRef resolves the document a read addresses.
func documentRef(c *gin.Context, sess services.Session) (domain.DocumentRef, error) {
	groupID, err := services.ParseID("groupId", c.Param("groupId"))
	if err != nil {
		return domain.DocumentRef{}, err
	}
	if sysutil.IsTruthy(c.Query("shared")) {
		return domain.SharedDocument(groupID), nil
	}
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		uid, err := services.ParseID("userId", raw)
		if err != nil {
			return domain.DocumentRef{}, err
		}
		return domain.UserDocument(groupID, uid), nil
	}
	uid, _ := sess.UserID()
	return domain.UserDocument(groupID, uid), nil
}

// bindContent binds a SaveDocumentRequest and checks content is present.
func bindContent(c *gin.Context) (groupID uint, content string, ok bool) {
	var req SaveDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed document form")
		return 0, "", false
	}
	if req.Content == nil {
		writeServiceError(c, &services.ValidationError{Field: "content", Reason: "is required"})
		return 0, "", false
	}
	gid, err := services.ParseID("groupId", req.GroupID.String())
	if err != nil {
		writeServiceError(c, err)
		return 0, "", false
	}
	return gid, *req.Content, true
}

//
// Handlers
//

// GetDocument godoc
// @ID          getDocument
// @Summary     Read a document
// @Tags        Documents
// @Produce     json
// @Param       groupId  path   int     true   "Group ID"  minimum(1)
// @Param       userId   query  int     false  "Read this member's document instead of your own"
// @Param       shared   query  bool    false  "Read the group's shared document"
// @Success     200  {object}  handlers.DocumentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /groups/{groupId}/document [get]
func (h *Handlers) GetDocument(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	ref, err := documentRef(c, sess)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	content, err := h.docSvc.GetDocument(c.Request.Context(), sess, ref)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, DocumentResponse{Content: content})
}

// GetDocumentHistory godoc
// @ID          getDocumentHistory
// @Summary     List a document's saves
// @Description Newest first, attributed to the saving student. Content is not included.
// @Tags        Documents
// @Produce     json
// @Param       groupId  path   int     true   "Group ID"  minimum(1)
// @Param       userId   query  int     false  "Member whose document to inspect"
// @Param       shared   query  bool    false  "Inspect the shared document"
// @Param       limit    query  int     false  "Maximum entries; 0 or absent returns all"  minimum(0) maximum(500)
// @Success     200  {object}  handlers.HistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /groups/{groupId}/document/history [get]
func (h *Handlers) GetDocumentHistory(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	ref, err := documentRef(c, sess)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	limit := utils.ClampInt(utils.AtoiDefault(c.Query("limit"), 0), 0, maxHistoryLimit)

	entries, err := h.docSvc.GetDocumentHistory(c.Request.Context(), sess, ref, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, HistoryResponse{History: entries})
}

// SaveDocument godoc
// @ID          saveDocument
// @Summary     Save the shared document
// @Description Saving unchanged content is a no-op and records no history.
// @Description The shared document must already exist.
// @Tags        Documents
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       body  body  handlers.SaveDocumentRequest  true  "Content and group"
// @Success     200  {object}  handlers.SaveDocumentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     404  {object}  handlers.ErrorResponse  "No shared document"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to save"
// @Router      /documents [put]
func (h *Handlers) SaveDocument(c *gin.Context) {
	groupID, content, bound := bindContent(c)
	if !bound {
		return
	}
	res, err := h.docSvc.SaveDocument(c.Request.Context(), middleware.SessionFrom(c), groupID, content)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, SaveDocumentResponse{Changed: res.Changed})
}

// SaveDocumentSnapshot godoc
// @ID          saveDocumentSnapshot
// @Summary     Save your own document
// @Description Creates the document on first save. Every call records a history entry.
// @Tags        Documents
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       body  body  handlers.SaveDocumentRequest  true  "Content and group"
// @Success     200  {object}  handlers.SnapshotResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to save"
// @Router      /documents/snapshot [post]
func (h *Handlers) SaveDocumentSnapshot(c *gin.Context) {
	groupID, content, bound := bindContent(c)
	if !bound {
		return
	}
	if _, err := h.docSvc.SaveDocumentSnapshot(c.Request.Context(), middleware.SessionFrom(c), groupID, content); err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, SnapshotResponse{Success: true})
}

// SubmitFinalDocument godoc
// @ID          submitDocument
// @Summary     Submit your document
// @Description Promotes the most recent saved version to the document's
// @Description content and records the submission in history.
// @Tags        Documents
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       body  body  handlers.SubmitDocumentRequest  true  "Group"
// @Success     200  {object}  handlers.SubmitResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     404  {object}  handlers.ErrorResponse  "Nothing saved yet"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to save"
// @Router      /documents/submit [post]
func (h *Handlers) SubmitFinalDocument(c *gin.Context) {
	var req SubmitDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed submit form")
		return
	}
	groupID, err := services.ParseID("groupId", req.GroupID.String())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	res, err := h.docSvc.SubmitFinalDocument(c.Request.Context(), middleware.SessionFrom(c), groupID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, SubmitResponse{Message: msgSubmitted, Content: res.Content})
}
