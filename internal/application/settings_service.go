package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// SettingsService reads and updates the singleton configuration snapshot.
// The booking core only ever reads it; updates come from the admin surface.
type SettingsService struct {
	settings persistence.SettingsRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewSettingsService wires dependencies for settings operations.
func NewSettingsService(settings persistence.SettingsRepository, now func() time.Time, logger *slog.Logger) *SettingsService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{settings: settings, now: now, logger: logger}
}

// GetSettings returns the current snapshot.
func (s *SettingsService) GetSettings(ctx context.Context) (Settings, error) {
	stored, err := s.settings.LoadSettings(ctx)
	if err != nil {
		return Settings{}, s.unexpected(ctx, "load settings", err)
	}
	return toSettings(stored), nil
}

// UpdateSettings replaces the snapshot after bounds validation. Admin only.
func (s *SettingsService) UpdateSettings(ctx context.Context, principal Principal, input Settings) (Settings, error) {
	if !principal.IsAdmin() {
		return Settings{}, NewError(KindRoleNotPermitted, "only administrators can update settings")
	}

	if err := validateSettings(input); err != nil {
		return Settings{}, err
	}

	stored := persistence.Settings{
		GranularityMinutes:      input.GranularityMinutes,
		MaxAdvanceDays:          input.MaxAdvanceDays,
		MaxBookingDurationHours: input.MaxBookingDurationHours,
		MaxActiveBookings:       input.MaxActiveBookings,
		UpdatedAt:               s.now(),
	}

	if err := s.settings.SaveSettings(ctx, stored); err != nil {
		return Settings{}, s.unexpected(ctx, "save settings", err)
	}

	return input, nil
}

func (s *SettingsService) unexpected(ctx context.Context, operation string, err error) error {
	s.logger.ErrorContext(ctx, "storage operation failed", "operation", operation, "error", err)
	return WrapUnexpected(err)
}

func validateSettings(input Settings) error {
	if input.GranularityMinutes < 5 || input.GranularityMinutes > 120 {
		return NewError(KindInvalidInput, "granularity must be between 5 and 120 minutes")
	}
	if input.MaxAdvanceDays < 1 || input.MaxAdvanceDays > 365 {
		return NewError(KindInvalidInput, "advance window must be between 1 and 365 days")
	}
	if input.MaxBookingDurationHours < 1 || input.MaxBookingDurationHours > 24 {
		return NewError(KindInvalidInput, "duration cap must be between 1 and 24 hours")
	}
	if input.MaxActiveBookings < 1 || input.MaxActiveBookings > 50 {
		return NewError(KindInvalidInput, "active booking cap must be between 1 and 50")
	}
	return nil
}
