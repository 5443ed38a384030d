// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity from the session cookie. The
// cookie holds the plain numeric user id; it is neither signed nor
// encrypted. Session() parses it once per request and stores an explicit
// services.Session in the Gin context, which handlers pass into every
// service call.
package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classroom-backend/internal/services"
	"github.com/tbourn/go-classroom-backend/internal/utils"
)

// DefaultSessionCookie is the cookie name used when none is configured.
const DefaultSessionCookie = "userId"

const (
	ctxKeySession     = "session"
	ctxKeyCookieName  = "session.cookie"
	ctxKeySessionOpts = "session.opts"
	ctxKeyUserID      = "userID"
)

// SessionOptions configures cookie naming and attributes.
type SessionOptions struct {
	// Name is the base cookie name. Empty means DefaultSessionCookie.
	Name string
	// PerPort suffixes the name with "_<port>" so several instances on one
	// host keep separate sessions.
	PerPort bool
	// DefaultPort is used for the suffix when the Host header has no port.
	DefaultPort string
	// Secure marks the cookie Secure.
	Secure bool
}

// CookieName returns the cookie name for a request to host.
func (o SessionOptions) CookieName(host string) string {
	name := o.Name
	if name == "" {
		name = DefaultSessionCookie
	}
	if !o.PerPort {
		return name
	}
	port := o.DefaultPort
	if _, p, err := net.SplitHostPort(host); err == nil && p != "" {
		port = p
	}
	if port == "" {
		return name
	}
	return name + "_" + port
}

// Session reads the session cookie and stores the resolved services.Session.
// A missing or malformed cookie yields an anonymous session.
func Session(opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := opts.CookieName(c.Request.Host)
		c.Set(ctxKeyCookieName, name)
		c.Set(ctxKeySessionOpts, opts)

		sess := services.Anonymous()
		if raw, err := c.Cookie(name); err == nil {
			if id, err := utils.ParseID(raw); err == nil {
				sess = services.NewSession(id)
				c.Set(ctxKeyUserID, utils.FormatID(id))
			}
		}
		c.Set(ctxKeySession, sess)
		c.Next()
	}
}

// SessionFrom returns the session resolved by Session(), or an anonymous
// session when the middleware did not run.
func SessionFrom(c *gin.Context) services.Session {
	if v, ok := c.Get(ctxKeySession); ok {
		if s, ok := v.(services.Session); ok {
			return s
		}
	}
	return services.Anonymous()
}

func sessionCookie(c *gin.Context) (string, SessionOptions) {
	opts, _ := c.Get(ctxKeySessionOpts)
	o, _ := opts.(SessionOptions)
	if v, ok := c.Get(ctxKeyCookieName); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, o
		}
	}
	return o.CookieName(c.Request.Host), o
}

// SetSessionCookie starts a session for userID on the response.
func SetSessionCookie(c *gin.Context, userID uint) {
	name, o := sessionCookie(c)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    utils.FormatID(userID),
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(ctxKeySession, services.NewSession(userID))
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context) {
	name, o := sessionCookie(c)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(ctxKeySession, services.Anonymous())
}

// userIDFromCtx returns the raw user id set by Session(), or "".
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
