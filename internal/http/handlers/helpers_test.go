package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-classroom-backend/internal/http/middleware"
	"github.com/tbourn/go-classroom-backend/internal/services"
	"github.com/tbourn/go-classroom-backend/internal/utils"
)

const (
	alice uint = 12345
	bob   uint = 23456
)

type testDeps struct {
	sess *sessionSvcMock
	msgs *messageSvcMock
	docs *documentSvcMock
	idem *idemStoreMock
}

func (d testDeps) assert(t *testing.T) {
	d.sess.AssertExpectations(t)
	d.msgs.AssertExpectations(t)
	d.docs.AssertExpectations(t)
	d.idem.AssertExpectations(t)
}

func setupRouter() (*gin.Engine, testDeps) {
	gin.SetMode(gin.TestMode)
	d := testDeps{
		sess: new(sessionSvcMock),
		msgs: new(messageSvcMock),
		docs: new(documentSvcMock),
		idem: new(idemStoreMock),
	}
	h := New(d.sess, d.msgs, d.docs, d.idem)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Session(middleware.SessionOptions{}))
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/me", h.Me)
	r.GET("/groups/:groupId/messages", h.ListMessages)
	r.POST("/messages", middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil), h.PostMessage)
	r.GET("/groups/:groupId/document", h.GetDocument)
	r.GET("/groups/:groupId/document/history", h.GetDocumentHistory)
	r.PUT("/documents", h.SaveDocument)
	r.POST("/documents/snapshot", h.SaveDocumentSnapshot)
	r.POST("/documents/submit", h.SubmitFinalDocument)
	return r, d
}

type reqOpt func(*http.Request)

func asUser(id uint) reqOpt {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: middleware.DefaultSessionCookie, Value: utils.FormatID(id)})
	}
}

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func do(r *gin.Engine, method, path string, body io.Reader, contentType string, opts ...reqOpt) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", "rid-1")
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func doJSON(r *gin.Engine, method, path, body string, opts ...reqOpt) *httptest.ResponseRecorder {
	return do(r, method, path, strings.NewReader(body), "application/json", opts...)
}

func doForm(r *gin.Engine, method, path string, form url.Values, opts ...reqOpt) *httptest.ResponseRecorder {
	return do(r, method, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", opts...)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "rid-1", resp.RequestID)
	return resp
}

func sessionOf(id uint) services.Session { return services.NewSession(id) }
