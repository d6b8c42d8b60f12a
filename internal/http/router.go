// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// session authentication, CORS, security headers, idempotency, and rate
// limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/auth"
	"github.com/masterworkhq/masterwork/internal/config"
	"github.com/masterworkhq/masterwork/internal/discord"
	"github.com/masterworkhq/masterwork/internal/http/handlers"
	"github.com/masterworkhq/masterwork/internal/http/middleware"
	"github.com/masterworkhq/masterwork/internal/repo"
	"github.com/masterworkhq/masterwork/internal/services"
)

// Integrations are the process-wide collaborators built in main. Every field
// is optional; a nil integration disables the endpoints that need it.
type Integrations struct {
	Queue        services.Queue
	AI           handlers.Completer
	Notifier     services.Notifier
	Roles        services.RoleSyncer
	DiscordOAuth handlers.DiscordOAuth
	Sessions     *auth.Sessions
	Verifier     auth.Verifier
}

var corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), authentication,
// idempotency and rate limiting, CORS and security headers, health and
// metrics endpoints, and then mounts the versioned API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. AccessLog: request-scoped logger, scrubbed access line
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Authenticate: resolve the session (never rejects)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, ext Integrations) *handlers.Handlers {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{
		MaskHeaders: []string{discord.SignatureHeader},
		SkipPaths:   []string{"/health", "/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Session authentication; protected groups add RequireUser
	var sessions middleware.SessionParser
	if ext.Sessions != nil {
		sessions = ext.Sessions
	}
	r.Use(middleware.Authenticate(sessions, cfg.Session.CookieName))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, relID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, relID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter("global", cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())
	aiLimit := middleware.NewRateLimiter("ai", cfg.AIRateRPS, cfg.AIRateBurst, middleware.KeyByUserOrIP()).Handler()

	// 10) CORS posture. Cookies need an explicit allowlist, so credentials are
	// only allowed when origins are configured.
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
		HTMLPrefixes: []string{"/swagger/"},
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(buildDeps(db, cfg, ext))

	authed := middleware.RequireUser()

	// Account, AI proxy and Discord endpoints live at the root.
	r.POST("/session", h.CreateSession)
	r.DELETE("/session", h.DeleteSession)
	r.GET("/push/vapid-key", h.VAPIDKey)
	r.POST("/discord/interactions", h.DiscordInteractions)
	r.GET("/discord/link", authed, h.DiscordLink)
	r.GET("/discord/callback", authed, h.DiscordCallback)
	r.POST("/notify", authed, h.Notify)
	r.POST("/ai/chat", authed, aiLimit, h.AIChat)

	me := r.Group("/me", authed)
	{
		me.GET("/profile", h.GetMe)
		me.PUT("/profile", h.UpdateMe)
		me.POST("/push-tokens", h.RegisterPushToken)
	}

	// Domain API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(authed, gzip.Gzip(gzip.DefaultCompression))
	{
		// Invites
		api.POST("/invites", h.CreateInvite)
		api.GET("/invites", h.ListInvites)
		api.GET("/invites/:owner/:token", h.GetInvite)
		api.DELETE("/invites/:owner/:token", h.RevokeInvite)
		api.POST("/invites/:owner/:token/accept", h.AcceptInvite)

		// Relationships
		api.GET("/relationships", h.ListRelationships)
		api.GET("/relationships/:id", h.GetRelationship)
		api.PATCH("/relationships/:id/shared", h.UpdateShared)
		api.POST("/relationships/:id/read", h.MarkRead)

		// Messages
		api.GET("/relationships/:id/messages", h.ListMessages)
		api.POST("/relationships/:id/messages", h.PostMessage)
		api.POST("/relationships/:id/updates", h.PostUpdate)

		// BigGote characters
		api.GET("/relationships/:id/characters", h.ListCharacters)
		api.POST("/relationships/:id/characters", h.CreateCharacter)
		api.GET("/relationships/:id/characters/:user/profile", h.GetCharacterProfile)
		api.GET("/relationships/:id/characters/:user/state", h.GetCharacterState)
		api.GET("/relationships/:id/characters/:user/inventory", h.GetCharacterInventory)
		api.PATCH("/relationships/:id/state", h.PatchState)
		api.PATCH("/relationships/:id/inventory", h.PatchInventory)
		api.POST("/relationships/:id/turn", aiLimit, h.FinishTurn)

		// Client chats and commissions
		api.POST("/cc/unlink", h.Unlink)
		api.POST("/commissions", h.StartCommission)
	}
	return h
}

// buildDeps wires services over the store and the optional integrations.
func buildDeps(db *gorm.DB, cfg config.Config, ext Integrations) handlers.Deps {
	q := ext.Queue
	msgs := services.NewMessageService(db, q, ext.Notifier, cfg.MaxMessageRunes)
	chars := services.NewCharacterService(db)
	profiles := services.NewProfileService(db, q, ext.Roles)

	d := handlers.Deps{
		DB:            db,
		Invites:       services.NewInviteService(db, q, cfg.PublicBaseURL, cfg.InviteTTLDays),
		Links:         services.NewLinkService(db, q),
		Relationships: services.NewRelationshipService(db),
		Messages:      msgs,
		Unlinks:       services.NewUnlinkService(db, q),
		Commissions:   services.NewCommissionService(db, q, msgs),
		Characters:    chars,
		Profiles:      profiles,
		Verifier:      ext.Verifier,
		Notifier:      ext.Notifier,
		DiscordOAuth:  ext.DiscordOAuth,
		Cookie: handlers.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
			TTL:    cfg.Session.TTL,
		},
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		IdempotencyTTL:  cfg.IdempotencyTTL,
		MaxMessageRunes: cfg.MaxMessageRunes,
	}
	if ext.Sessions != nil {
		d.Sessions = ext.Sessions
	}
	if ext.AI != nil {
		d.AI = ext.AI
		d.Turns = services.NewTurnService(db, ext.AI, msgs, chars, cfg.TurnHistoryLimit)
	}
	if cfg.Discord.PublicKey != "" {
		in, err := discord.NewInteractions(cfg.Discord.PublicKey, profiles)
		if err != nil {
			log.Error().Err(err).Msg("discord interactions disabled: bad public key")
		} else {
			d.Interactions = in
		}
	}
	return d
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
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
