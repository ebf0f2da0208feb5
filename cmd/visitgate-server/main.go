package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/visitgate/visitgate/internal/auth"
	"github.com/visitgate/visitgate/internal/barcode"
	"github.com/visitgate/visitgate/internal/config"
	"github.com/visitgate/visitgate/internal/db"
	"github.com/visitgate/visitgate/internal/httpapi"
	"github.com/visitgate/visitgate/internal/hub"
	"github.com/visitgate/visitgate/internal/mail"
	"github.com/visitgate/visitgate/internal/visitgate/pass"
	"github.com/visitgate/visitgate/internal/visitgate/service"
	"github.com/visitgate/visitgate/internal/visitgate/store/sqlite"
)

func main() {
	logger := log.New(os.Stdout, "visitgate-server ", log.LstdFlags|log.LUTC)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("db open: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{}); err != nil {
			logger.Fatalf("db seed: %v", err)
		}
	}

	writer := db.NewWriter(conn)
	defer writer.Close()

	visitorStore := sqlite.NewVisitorStore(conn, writer)
	notificationStore := sqlite.NewNotificationStore(conn, writer)
	staffStore := sqlite.NewStaffStore(conn)

	// Crypto
	cipherKey, err := cfg.PassSecret()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	signingKey, err := cfg.SigningSecret()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	codec, err := pass.NewCodec(cipherKey)
	if err != nil {
		logger.Fatalf("pass codec: %v", err)
	}
	signer, err := pass.NewSigner(signingKey)
	if err != nil {
		logger.Fatalf("pass signer: %v", err)
	}

	tokens, err := auth.NewTokenManager([]byte(cfg.TokenSecret), cfg.TokenTTL)
	if err != nil {
		logger.Fatalf("token manager: %v", err)
	}

	// Realtime hub
	registry := hub.NewRegistry(cfg.HubSendBuffer, logger)

	// Collaborators
	var mailer mail.Mailer = &mail.LogMailer{Logger: logger}
	if cfg.SMTPAddr != "" {
		mailer = &mail.SMTPMailer{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
	}

	// Services
	notifier := service.NewNotificationService(notificationStore, registry, logger)
	visitorSvc := service.NewVisitorService(visitorStore, staffStore, notifier, logger)
	passSvc := service.NewPassService(service.PassServiceDeps{
		Codec:          codec,
		Signer:         signer,
		Visitors:       visitorStore,
		Renderer:       barcode.NopRenderer{},
		Mailer:         mailer,
		Notifier:       notifier,
		Logger:         logger,
		VisitorPassTTL: cfg.VisitorPassTTL,
	})
	validationSvc := service.NewValidationService(service.ValidationServiceDeps{
		Codec:    codec,
		Signer:   signer,
		Visitors: visitorStore,
		Notifier: notifier,
		Logger:   logger,
	})
	authSvc := auth.NewService(staffStore, tokens)

	pruner := service.NewNotificationPruner(notificationStore, service.PrunerConfig{
		RetentionDays: cfg.NotificationRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:              logger,
		Addr:                cfg.HTTPAddr,
		VisitorService:      visitorSvc,
		PassService:         passSvc,
		ValidationService:   validationSvc,
		NotificationService: notifier,
		AuthService:         authSvc,
		Tokens:              tokens,
		HubHandler:          hub.NewHandler(registry, tokens, logger),
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	pruner.Stop()
}
