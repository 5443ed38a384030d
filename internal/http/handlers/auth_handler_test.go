package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/services"
)

func TestLoginFormSuccessSetsCookie(t *testing.T) {
	r, d := setupRouter()
	d.sess.On("Login", mock.Anything, "12345", "Alice").
		Return(&domain.User{ID: alice, Name: "Alice"}, nil).Once()

	rec := doForm(r, http.MethodPost, "/auth/login", url.Values{"studentId": {"12345"}, "name": {"Alice"}})

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := rec.Header().Get("Set-Cookie")
	require.Contains(t, cookie, "userId=12345")
	require.Contains(t, cookie, "Path=/")
	require.Contains(t, cookie, "HttpOnly")

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Alice", resp.User.Name)
	d.assert(t)
}

func TestLoginJSONAcceptsNumericStudentID(t *testing.T) {
	r, d := setupRouter()
	d.sess.On("Login", mock.Anything, "12345", "Alice").
		Return(&domain.User{ID: alice, Name: "Alice"}, nil).Once()

	rec := doJSON(r, http.MethodPost, "/auth/login", `{"studentId":12345,"name":"Alice"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	d.assert(t)
}

func TestLoginInvalidCredentialsHidesField(t *testing.T) {
	r, d := setupRouter()
	d.sess.On("Login", mock.Anything, "12345", "alice").Return(nil, services.ErrInvalidCredentials).Once()

	rec := doForm(r, http.MethodPost, "/auth/login", url.Values{"studentId": {"12345"}, "name": {"alice"}})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Header().Get("Set-Cookie"))
	resp := decodeError(t, rec)
	require.Equal(t, ErrCodeInvalidCredentials, resp.Code)
	require.Equal(t, "Invalid student ID or name", resp.Message)
	d.assert(t)
}

func TestLoginValidationAndMalformedBody(t *testing.T) {
	r, d := setupRouter()
	d.sess.On("Login", mock.Anything, "abc", "Alice").
		Return(nil, &services.ValidationError{Field: "studentId", Reason: "must be a positive integer"}).Once()

	rec := doForm(r, http.MethodPost, "/auth/login", url.Values{"studentId": {"abc"}, "name": {"Alice"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeError(t, rec).Message, "studentId")

	rec = doJSON(r, http.MethodPost, "/auth/login", `{"studentId":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	d.assert(t)
}

func TestLogoutClearsCookie(t *testing.T) {
	r, d := setupRouter()

	rec := do(r, http.MethodPost, "/auth/logout", nil, "", asUser(alice))

	require.Equal(t, http.StatusNoContent, rec.Code)
	cookie := rec.Header().Get("Set-Cookie")
	require.True(t, strings.HasPrefix(cookie, "userId=;"), cookie)
	require.Contains(t, cookie, "Max-Age=0")
	d.assert(t)
}

func TestMe(t *testing.T) {
	r, d := setupRouter()
	ws := &services.Workspace{
		User:  domain.User{ID: alice, Name: "Alice", AvatarURL: "/a.png"},
		Group: &domain.Group{ID: 1, Name: "Debate A"},
	}
	d.sess.On("Workspace", mock.Anything, sessionOf(alice)).Return(ws, nil).Once()
	d.sess.On("Workspace", mock.Anything, services.Anonymous()).Return(nil, services.ErrUnauthorized).Once()

	rec := do(r, http.MethodGet, "/me", nil, "", asUser(alice))
	require.Equal(t, http.StatusOK, rec.Code)
	var got services.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Debate A", got.Group.Name)

	rec = do(r, http.MethodGet, "/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, ErrCodeUnauthorized, decodeError(t, rec).Code)
	d.assert(t)
}
