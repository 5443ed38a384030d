// Package httpapi wires the HTTP transport (Gin) to the classroom services,
// middleware and route handlers. It owns the cross-cutting concerns: tracing,
// correlation ids, the session cookie, access logging, panic recovery,
// metrics, compression, CORS, security headers, idempotency and rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-classroom-backend/internal/config"
	"github.com/tbourn/go-classroom-backend/internal/http/handlers"
	"github.com/tbourn/go-classroom-backend/internal/http/middleware"
	"github.com/tbourn/go-classroom-backend/internal/services"
)

// Deps are the services behind the routes.
type Deps struct {
	Sessions    handlers.SessionService
	Messages    handlers.MessageService
	Documents   handlers.DocumentService
	Idempotency *services.IdempotencyService
}

var (
	corsMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "ETag", "Content-Length", middleware.HeaderIdempotencyReplayed}
)

// RegisterRoutes attaches middleware and endpoints to r and mounts the API
// under cfg.APIBasePath.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. Session (the access log and rate limiter key on it)
//  4. AccessLog
//  5. Recovery
//  6. Body size limit
//  7. Metrics
//  8. gzip
//  9. CORS and security headers
//
// Write routes add the idempotency validator and the rate limiter; login is
// limited per client IP.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Session(middleware.SessionOptions{
		Name:        cfg.Session.CookieName,
		PerPort:     cfg.Session.PerPort,
		DefaultPort: cfg.Port,
		Secure:      cfg.Session.Secure,
	}))
	r.Use(middleware.AccessLog(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(cfg.MaxBodyBytes))
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var idem handlers.IdempotencyStore
	var seen middleware.IdempotencyLookup
	if deps.Idempotency != nil {
		idem = deps.Idempotency
		seen = deps.Idempotency.Seen
	}
	h := handlers.New(deps.Sessions, deps.Messages, deps.Documents, idem)

	writes := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySessionOrIP()).Handler()
	logins := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP()).Handler()
	idemCheck := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, seen)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Session
		api.POST("/auth/login", logins, h.Login)
		api.POST("/auth/logout", h.Logout)
		api.GET("/me", h.Me)

		// Chat
		api.GET("/groups/:groupId/messages", h.ListMessages)
		api.POST("/messages", idemCheck, writes, h.PostMessage)

		// Documents
		api.GET("/groups/:groupId/document", h.GetDocument)
		api.GET("/groups/:groupId/document/history", h.GetDocumentHistory)
		api.PUT("/documents", writes, h.SaveDocument)
		api.POST("/documents/snapshot", writes, h.SaveDocumentSnapshot)
		api.POST("/documents/submit", writes, h.SubmitFinalDocument)
	}
}

// corsMiddleware allows any origin without credentials when no allowlist is
// configured. With an allowlist, credentials are allowed so the session
// cookie crosses origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins: true,
				AllowMethods:    corsMethods,
				AllowHeaders:    corsHeaders,
				ExposeHeaders:   corsExpose,
				MaxAge:          12 * time.Hour,
			}),
		}
	}
	return []gin.HandlerFunc{cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})}
}

// limitBody caps request bodies at maxBytes; reads past the cap fail and
// binding reports a 400.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
