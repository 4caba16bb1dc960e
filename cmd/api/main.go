package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/paybridge/datatrans-gateway/internal/config"
	"github.com/paybridge/datatrans-gateway/internal/gateway"
	"github.com/paybridge/datatrans-gateway/internal/handler"
	"github.com/paybridge/datatrans-gateway/internal/ipn"
	"github.com/paybridge/datatrans-gateway/internal/logging"
	"github.com/paybridge/datatrans-gateway/internal/middleware"
	"github.com/paybridge/datatrans-gateway/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("datatrans-gateway", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	signer, err := gateway.NewSigner(cfg.MerchantID, cfg.HMACSecretHex)
	if err != nil {
		slog.Error("failed to initialize signer", "error", err)
		os.Exit(1)
	}

	contributions := repository.NewContributionRepository(db)
	events := repository.NewEventRepository(db)
	notificationLogs := repository.NewNotificationLogRepository(db)

	reconciler := ipn.NewReconciler(contributions, events, db, cfg.CurrencyMinorFactor, cfg.StrictStatusCheck)
	dispatcher := ipn.NewDispatcher(reconciler, notificationLogs)

	notifyHandler := handler.NewNotifyHandler(dispatcher)
	checkoutBuilder := gateway.NewCheckoutBuilder(signer, cfg.GatewayBaseURL, cfg.BaseURL, cfg.Mode)
	checkoutHandler := handler.NewCheckoutHandler(checkoutBuilder, cfg.CurrencyMinorFactor)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ipn", notifyHandler.Receive)
	mux.HandleFunc("POST /api/v1/checkout", checkoutHandler.Redirect)
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	chain := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connectDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range 30 {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
