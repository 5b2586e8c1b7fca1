package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paulcherng/SecretSantaPlatform/internal/config"
	"github.com/paulcherng/SecretSantaPlatform/internal/handlers"
	"github.com/paulcherng/SecretSantaPlatform/internal/mailer"
	"github.com/paulcherng/SecretSantaPlatform/internal/middleware"
	"github.com/paulcherng/SecretSantaPlatform/internal/service"
	"github.com/paulcherng/SecretSantaPlatform/internal/storage"
	"github.com/paulcherng/SecretSantaPlatform/internal/storage/sqlite"
	"github.com/paulcherng/SecretSantaPlatform/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize the SQLite-backed event store
	kv, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	store := storage.NewEventStore(kv)
	slog.Info("Storage initialized", "database", cfg.DBPath)

	smtp, err := mailer.NewSMTP(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		FromName: "交換禮物小精靈",
	})
	if err != nil {
		slog.Error("Failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	svc := service.New(store, smtp, cfg.AdminEmail)
	handler := handlers.NewHTTPHandler(svc)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS())

	handler.RegisterPublicRoutes(router)

	adminRoutes := router.Group("/")
	adminRoutes.Use(middleware.RequireAdmin(cfg.AdminSecret))
	handler.RegisterAdminRoutes(adminRoutes)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Server starting", "address", addr)
	if err := router.Run(addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
