package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"timetrack-auth/internal/audit"
	auditrepo "timetrack-auth/internal/audit/repository"
	authservice "timetrack-auth/internal/auth/service"
	"timetrack-auth/internal/authctx"
	"timetrack-auth/internal/blacklist"
	"timetrack-auth/internal/config"
	"timetrack-auth/internal/db"
	"timetrack-auth/internal/device"
	devicerepo "timetrack-auth/internal/device/repository"
	deviceauthrepo "timetrack-auth/internal/deviceauth/repository"
	deviceauthservice "timetrack-auth/internal/deviceauth/service"
	authhttp "timetrack-auth/internal/http"
	"timetrack-auth/internal/http/handler"
	"timetrack-auth/internal/http/middleware"
	"timetrack-auth/internal/security"
	"timetrack-auth/internal/session"
	sessionrepo "timetrack-auth/internal/session/repository"
	superadminrepo "timetrack-auth/internal/superadmin/repository"
	"timetrack-auth/internal/telemetry/otel"
	tenantrepo "timetrack-auth/internal/tenant/repository"
	userrepo "timetrack-auth/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	tokens := security.NewTokenProvider(cfg.JWTSecret, cfg.AccessTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	bl := blacklist.New()
	bl.StartSweeper(cfg.SweepInterval())
	defer bl.Stop()

	sessions := session.NewStore(sessionrepo.NewPostgresRepository(database), hasher)
	devices := device.NewService(devicerepo.NewPostgresRepository(database))
	codes := deviceauthservice.NewService(deviceauthrepo.NewPostgresRepository(database), devices, tokens)
	auditor := audit.NewLogger(auditrepo.NewPostgresRepository(database), nil)

	auth := authservice.NewAuthService(
		userrepo.NewPostgresRepository(database),
		superadminrepo.NewPostgresRepository(database),
		tenantrepo.NewPostgresRepository(database),
		devices,
		sessions,
		tokens,
		hasher,
		bl,
		auditor,
	)

	resolve := func(c *gin.Context, payload security.Payload) (*authctx.AuthContext, error) {
		return auth.ResolveIdentity(c.Request.Context(), payload)
	}
	deviceGuard := middleware.DeviceAuth(
		middleware.NewDeviceTokenStrategy(tokens, devices),
		middleware.NewLegacyDeviceIDStrategy(devices),
	)

	router := authhttp.NewRouter(authhttp.RouterDeps{
		ServiceName: cfg.ServiceName,
		Auth:        middleware.NewAuth(tokens, bl, resolve),
		DeviceGuard: deviceGuard,
		AuthH:       handler.NewAuthHandler(auth, cfg.Env == "production"),
		DeviceAuthH: handler.NewDeviceAuthHandler(codes, tokens, resolve, auditor),
		SessionH:    handler.NewSessionHandler(sessions, auditor),
		DeviceH:     handler.NewDeviceHandler(devices, auditor),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
