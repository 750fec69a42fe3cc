package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/config"
	httptransport "github.com/example/roombooking/internal/http"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", err)
	}

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
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	roomRepo := sqlite.NewRoomRepository(pool)
	bookingRepo := sqlite.NewBookingRepository(pool)
	ruleRepo := sqlite.NewRecurringRuleRepository(pool)
	blockedRepo := sqlite.NewBlockedRangeRepository(pool)
	settingsRepo := sqlite.NewSettingsRepository(pool)

	if err := settingsRepo.SeedSettings(context.Background(), persistence.Settings{
		GranularityMinutes:      cfg.DefaultGranularityMinutes,
		MaxAdvanceDays:          cfg.DefaultMaxAdvanceDays,
		MaxBookingDurationHours: cfg.DefaultMaxBookingDurationHours,
		MaxActiveBookings:       cfg.DefaultMaxActiveBookings,
		UpdatedAt:               now().UTC(),
	}); err != nil {
		logger.Error("failed to seed settings", "error", err)
		os.Exit(1)
	}

	cache := application.NewOccurrenceCache(cfg.CacheTTL, cfg.CacheMaxEntries, now)

	bookingService := application.NewBookingService(bookingRepo, ruleRepo, blockedRepo, roomRepo, settingsRepo, cache, idGenerator, now, logger)
	recurringService := application.NewRecurringService(ruleRepo, roomRepo, cache, idGenerator, now, logger)
	roomService := application.NewRoomService(roomRepo, idGenerator, now, logger)
	blockedService := application.NewBlockedRangeService(blockedRepo, roomRepo, cache, idGenerator, now, logger)
	settingsService := application.NewSettingsService(settingsRepo, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Bookings:  httptransport.NewBookingHandler(bookingService, logger),
		Recurring: httptransport.NewRecurringHandler(recurringService, logger),
		Rooms:     httptransport.NewRoomHandler(roomService, blockedService, logger),
		Settings:  httptransport.NewSettingsHandler(settingsService, logger),
	})

	handler := httptransport.RequestLogger(logger)(httptransport.RequirePrincipal(logger)(router))

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

	logger.Info("room booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
