// Session HTTP handlers.
//
//   - POST /auth/login    (form or JSON: studentId, name)
//   - POST /auth/logout
//   - GET  /me
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/http/middleware"
	"github.com/tbourn/go-classroom-backend/internal/services"
)

// LoginRequest is the login form. Both fields arrive as text.
type LoginRequest struct {
	StudentID textID `form:"studentId" json:"studentId" swaggertype:"string" example:"12345"`
	Name      string `form:"name"      json:"name"      example:"Alice"`
}

// LoginResponse echoes the logged-in student.
type LoginResponse struct {
	User *domain.User `json:"user"`
}

// Login godoc
// @ID          login
// @Summary     Log in with student id and name
// @Description Matches both the numeric id and the exact name. On success the
// @Description session cookie is set; on failure the response does not say
// @Description which field was wrong.
// @Tags        Session
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed student id or missing name"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid student ID or name"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "studentId and name are required")
		return
	}

	u, err := h.sessSvc.Login(c.Request.Context(), req.StudentID.String(), req.Name)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	middleware.SetSessionCookie(c, u.ID)
	ok(c, http.StatusOK, LoginResponse{User: u})
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Tags        Session
// @Success     204  "Cookie cleared"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c)
	noContent(c)
}

// Me godoc
// @ID          me
// @Summary     Current student and group
// @Description Returns the session user and their group, or group=null when
// @Description the student has not been assigned one.
// @Tags        Session
// @Produce     json
// @Success     200  {object}  services.Workspace
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /me [get]
func (h *Handlers) Me(c *gin.Context) {
	ws, err := h.sessSvc.Workspace(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			// Stale cookie for a user that no longer exists.
			middleware.ClearSessionCookie(c)
		}
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, ws)
}
