package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository on SQLite.
type BookingRepository struct {
	pool *Pool
}

// NewBookingRepository builds a booking repository on the shared pool.
func NewBookingRepository(pool *Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, title, notes, room_id, owner_id, start_time, end_time, cancelled, created_at, updated_at`

// CreateBooking inserts a reservation. The partial unique index on
// (room_id, start_time) surfaces identical-slot races as ErrDuplicate.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.pool.db.ExecContext(ctx, query,
		booking.ID,
		booking.Title,
		nullString(booking.Notes),
		booking.RoomID,
		booking.OwnerID,
		formatTime(booking.Start),
		formatTime(booking.End),
		boolToInt(booking.Cancelled),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	return mapError(err)
}

// GetBooking retrieves one reservation by id.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// UpdateBooking rewrites a reservation's mutable fields.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE bookings
		 SET title = ?, notes = ?, cancelled = ?, updated_at = ?
		 WHERE id = ?`,
		booking.Title,
		nullString(booking.Notes),
		boolToInt(booking.Cancelled),
		formatTime(booking.UpdatedAt),
		booking.ID,
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

// ListRoomBookings returns non-cancelled bookings overlapping [from, to).
// Times are stored as RFC 3339 UTC strings, which compare lexicographically.
func (r *BookingRepository) ListRoomBookings(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Booking, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE room_id = ? AND cancelled = 0 AND start_time < ? AND end_time > ?
		 ORDER BY start_time ASC`,
		roomID, formatTime(to), formatTime(from))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListUserBookings returns every booking owned by the user, newest first.
func (r *BookingRepository) ListUserBookings(ctx context.Context, userID string) ([]persistence.Booking, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE owner_id = ?
		 ORDER BY start_time DESC`,
		userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// CountActiveBookings counts non-cancelled bookings ending after reference.
func (r *BookingRepository) CountActiveBookings(ctx context.Context, userID string, reference time.Time) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE owner_id = ? AND cancelled = 0 AND end_time > ?`,
		userID, formatTime(reference)).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking              persistence.Booking
		notes                sql.NullString
		cancelled            int
		start, end           string
		createdAt, updatedAt string
	)

	err := row.Scan(
		&booking.ID,
		&booking.Title,
		&notes,
		&booking.RoomID,
		&booking.OwnerID,
		&start,
		&end,
		&cancelled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Booking{}, mapError(err)
	}

	booking.Notes = fromNullString(notes)
	booking.Cancelled = cancelled != 0
	if booking.Start, err = parseTime(start); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse start time: %w", err)
	}
	if booking.End, err = parseTime(end); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse end time: %w", err)
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse created at: %w", err)
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse updated at: %w", err)
	}

	return booking, nil
}

func collectBookings(rows *sql.Rows) ([]persistence.Booking, error) {
	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
