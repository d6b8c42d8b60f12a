// Command server runs the Masterwork HTTP API and the outbox reconciler.
//
// @title                      Masterwork API
// @version                    1.0
// @description                Invite linking, mirrored conversation lists, messages and BigGote turns.
// @BasePath                   /api/v1
// @securityDefinitions.apikey SessionCookie
// @in                         cookie
// @name                       mw_session
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/docs"
	"github.com/masterworkhq/masterwork/internal/ai"
	"github.com/masterworkhq/masterwork/internal/auth"
	"github.com/masterworkhq/masterwork/internal/config"
	"github.com/masterworkhq/masterwork/internal/discord"
	httpapi "github.com/masterworkhq/masterwork/internal/http"
	"github.com/masterworkhq/masterwork/internal/observability"
	"github.com/masterworkhq/masterwork/internal/repo"
	"github.com/masterworkhq/masterwork/internal/services"
	"github.com/masterworkhq/masterwork/internal/sysutil"
	"github.com/masterworkhq/masterwork/internal/utils"
)

var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	gin.SetMode(cfg.GinMode)

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	docs.SwaggerInfo.Version = ver
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ext, reconciler := buildIntegrations(ctx, cfg, db)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, ext)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	reconcilerDone := make(chan struct{})
	go func() {
		defer close(reconcilerDone)
		if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("reconciler stopped")
		}
	}()

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", ver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	<-reconcilerDone
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// buildIntegrations constructs the optional collaborators from cfg. Anything
// left unconfigured stays nil and its endpoints answer 503.
func buildIntegrations(ctx context.Context, cfg config.Config, db *gorm.DB) (httpapi.Integrations, *services.Reconciler) {
	reconciler := services.NewReconciler(db, services.ReconcilerOptions{
		PollInterval:  cfg.Outbox.PollInterval,
		BatchSize:     cfg.Outbox.BatchSize,
		MaxAttempts:   cfg.Outbox.MaxAttempts,
		RetryBackoff:  cfg.Outbox.RetryBackoff,
		RetryMaxDelay: cfg.Outbox.RetryMaxDelay,
		Jitter:        0.2,
		SweepEvery:    cfg.IdempotencyTTL / 4,
	})
	ext := httpapi.Integrations{Queue: reconciler}

	secret := cfg.Session.Secret
	if secret == "" {
		var err error
		if secret, err = utils.SecureRandomToken(32); err != nil {
			log.Fatal().Err(err).Msg("generate session secret")
		}
		log.Warn().Msg("SESSION_SECRET not set; sessions will not survive a restart")
	}
	sessions, err := auth.NewSessions(secret, cfg.Session.TTL)
	if err != nil {
		log.Fatal().Err(err).Msg("session signer")
	}
	ext.Sessions = sessions

	switch {
	case cfg.Identity.JWKSURL != "":
		v, err := auth.NewJWKSVerifier(ctx, cfg.Identity.JWKSURL, cfg.Identity.Issuer, cfg.Identity.Audience)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.Identity.JWKSURL).Msg("identity jwks")
		}
		ext.Verifier = v
	case cfg.Identity.JWKSJSON != "":
		v, err := auth.NewStaticJWKSVerifier(json.RawMessage(cfg.Identity.JWKSJSON), cfg.Identity.Issuer, cfg.Identity.Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("identity jwks document")
		}
		ext.Verifier = v
	case cfg.Identity.HMACSecret != "":
		v, err := auth.NewHMACVerifier(cfg.Identity.HMACSecret, cfg.Identity.Issuer, cfg.Identity.Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("identity hmac verifier")
		}
		log.Warn().Msg("identity tokens verified with a shared secret; use IDENTITY_JWKS_URL in production")
		ext.Verifier = v
	default:
		log.Warn().Msg("no identity verifier configured; POST /session is disabled")
	}

	if c := ai.NewClient(cfg.AI, nil); c.Enabled() {
		ext.AI = c
	} else {
		log.Info().Msg("AI_API_KEY not set; ai chat and narrator turns are disabled")
	}

	if o := discord.NewOAuth(cfg.Discord, nil); o.Enabled() {
		ext.DiscordOAuth = o
	}
	if w := discord.NewWebhook(cfg.Discord, nil); w.Enabled() {
		ext.Notifier = w
		reconciler.Register(services.KindNotify, services.NotifyHandler(w))
	}
	if rs := discord.NewRoles(cfg.Discord, nil); rs.Enabled() {
		ext.Roles = rs
		reconciler.Register(services.KindRoleSync, services.RoleSyncHandler(rs))
	}

	return ext, reconciler
}
