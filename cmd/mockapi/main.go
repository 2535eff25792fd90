// Package main starts the donorlink mock API: an in-memory stand-in for the
// donation backend, serving signup, login, profile and donation endpoints
// over HTTP or HTTPS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/config"
	"github.com/atinyakov/donorlink/internal/logger"
	"github.com/atinyakov/donorlink/internal/repository"
	"github.com/atinyakov/donorlink/internal/server/handler/http"
	"github.com/atinyakov/donorlink/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, environment and file configuration.
	fs := pflag.NewFlagSet("mockapi", pflag.ExitOnError)
	config.ServerFlags(fs)
	_ = fs.Parse(os.Args[1:])
	options, err := config.LoadServer(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize in-memory repositories.
	userRepo := repository.NewMemoryUserRepository()
	otpRepo := repository.NewMemoryOTPRepository()
	avatarRepo := repository.NewMemoryAvatarRepository()

	// Drop expired codes in the background.
	repository.StartOTPCleaner(ctx, otpRepo, options.CleanupInterval, zapLogger)

	// Initialize business-logic services.
	if options.JWTSecret == "" {
		zapLogger.Warn("no jwt secret configured, sessions will not survive a restart")
	}
	otpIssuer := service.NewOTPIssuer(otpRepo, options.OTPTTL, service.RandomCode, zapLogger)
	tokens := service.NewTokens(options.JWTSecret, options.TokenTTL)
	authService := service.NewAuthService(userRepo, otpIssuer, tokens, service.WithAuthLogger(zapLogger))
	accountService := service.NewAccountService(userRepo, avatarRepo, otpIssuer, zapLogger)
	donationService := service.NewDonationService(userRepo)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}
	accountHandler := &http.AccountHandler{AccountService: accountService, Log: zapLogger}
	donationHandler := &http.DonationHandler{DonationService: donationService, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, accountHandler, donationHandler, authService, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Load server TLS certificate and key when configured.
	if options.TLS() {
		cert, err := tls.LoadX509KeyPair(options.TLSCert, options.TLSKey)
		if err != nil {
			zapLogger.Fatal("failed to load server TLS cert/key", zap.Error(err))
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting mock API", zap.String("addr", options.Addr), zap.Bool("tls", options.TLS()))
	if options.TLS() {
		err = server.ListenAndServeTLS("", "")
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
	zapLogger.Info("mock API stopped")
}
