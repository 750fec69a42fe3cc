package sqlite

import (
	"context"
	"fmt"

	"github.com/example/roombooking/internal/persistence"
)

// SettingsRepository implements persistence.SettingsRepository on SQLite.
// The snapshot is a single row with a fixed id.
type SettingsRepository struct {
	pool *Pool
}

// NewSettingsRepository builds a settings repository on the shared pool.
func NewSettingsRepository(pool *Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// LoadSettings returns the singleton snapshot.
func (r *SettingsRepository) LoadSettings(ctx context.Context) (persistence.Settings, error) {
	var (
		settings  persistence.Settings
		updatedAt string
	)

	err := r.pool.db.QueryRowContext(ctx,
		`SELECT granularity_minutes, max_advance_days, max_booking_duration_hours, max_active_bookings, updated_at
		 FROM app_settings WHERE id = 'default'`).Scan(
		&settings.GranularityMinutes,
		&settings.MaxAdvanceDays,
		&settings.MaxBookingDurationHours,
		&settings.MaxActiveBookings,
		&updatedAt,
	)
	if err != nil {
		return persistence.Settings{}, mapError(err)
	}

	if settings.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Settings{}, fmt.Errorf("parse updated at: %w", err)
	}

	return settings, nil
}

// SaveSettings replaces the singleton snapshot.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings persistence.Settings) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE app_settings
		 SET granularity_minutes = ?, max_advance_days = ?, max_booking_duration_hours = ?, max_active_bookings = ?, updated_at = ?
		 WHERE id = 'default'`,
		settings.GranularityMinutes,
		settings.MaxAdvanceDays,
		settings.MaxBookingDurationHours,
		settings.MaxActiveBookings,
		formatTime(settings.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// SeedSettings inserts defaults when no snapshot exists yet.
func (r *SettingsRepository) SeedSettings(ctx context.Context, settings persistence.Settings) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO app_settings
		 (id, granularity_minutes, max_advance_days, max_booking_duration_hours, max_active_bookings, updated_at)
		 VALUES ('default', ?, ?, ?, ?, ?)`,
		settings.GranularityMinutes,
		settings.MaxAdvanceDays,
		settings.MaxBookingDurationHours,
		settings.MaxActiveBookings,
		formatTime(settings.UpdatedAt),
	)
	return mapError(err)
}
