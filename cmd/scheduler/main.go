package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/session-scheduler/internal/application"
	"github.com/example/session-scheduler/internal/config"
	httptransport "github.com/example/session-scheduler/internal/http"
	"github.com/example/session-scheduler/internal/logging"
	"github.com/example/session-scheduler/internal/notify"
	"github.com/example/session-scheduler/internal/persistence/sqlite"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	organizerRepo := sqlite.NewOrganizerRepository(pool)
	authSessionRepo := sqlite.NewAuthSessionRepository(pool)
	campaignRepo := sqlite.NewCampaignRepository(pool)
	scheduleRepo := sqlite.NewScheduleRepository(pool)
	availabilityRepo := sqlite.NewAvailabilityRepository(pool)
	sessionRepo := sqlite.NewScheduledSessionRepository(pool)

	var notifier application.SessionNotifier
	if cfg.MailEnabled() {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	hashPassword := func(password string) (string, error) {
		return application.CreatePasswordHash(password, application.DefaultArgon2idParams)
	}

	authService := application.NewAuthServiceWithLogger(organizerRepo, authSessionRepo, hashPassword, application.VerifyPassword, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)
	campaignService := application.NewCampaignService(campaignRepo, idGenerator, now)
	scheduleService := application.NewScheduleServiceWithLogger(scheduleRepo, campaignRepo, idGenerator, tokenGenerator, now, logger)
	decisionService := application.NewDecisionServiceWithLogger(scheduleRepo, availabilityRepo, sessionRepo, notifier, cfg.Location(), idGenerator, now, logger)
	availabilityService := application.NewAvailabilityServiceWithLogger(scheduleRepo, availabilityRepo, idGenerator, now, decisionService.InvalidateRanking, logger)

	authHandler := httptransport.NewAuthHandler(authService, logger)
	campaignHandler := httptransport.NewCampaignHandler(campaignService, logger)
	scheduleHandler := httptransport.NewScheduleHandler(scheduleService, decisionService, cfg.PublicBaseURL, logger)
	availabilityHandler := httptransport.NewAvailabilityHandler(availabilityService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         authHandler,
		Campaigns:    campaignHandler,
		Schedules:    scheduleHandler,
		Availability: availabilityHandler,
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPath(r) {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("session scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// publicPath reports whether a request may be served without an organizer
// session: account creation, login, and the share-token poll endpoints.
func publicPath(r *http.Request) bool {
	switch {
	case r.URL.Path == "/organizers" && r.Method == http.MethodPost:
		return true
	case r.URL.Path == "/sessions" && r.Method == http.MethodPost:
		return true
	case strings.HasPrefix(r.URL.Path, "/polls/"):
		return true
	}
	return false
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
