package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/roombooking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository on SQLite.
type RoomRepository struct {
	pool *Pool
}

// NewRoomRepository builds a room repository on the shared pool.
func NewRoomRepository(pool *Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

const roomColumns = `id, name, description, disabled, created_at, updated_at`

// CreateRoom inserts a catalog entry.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Name,
		nullString(room.Description),
		boolToInt(room.Disabled),
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return mapError(err)
}

// UpdateRoom rewrites a catalog entry.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, description = ?, disabled = ?, updated_at = ? WHERE id = ?`,
		room.Name,
		nullString(room.Description),
		boolToInt(room.Disabled),
		formatTime(room.UpdatedAt),
		room.ID,
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

// GetRoom retrieves one room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

// ListRooms returns catalog entries ordered by creation time.
func (r *RoomRepository) ListRooms(ctx context.Context, includeDisabled bool) ([]persistence.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	if !includeDisabled {
		query += ` WHERE disabled = 0`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rooms := make([]persistence.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return rooms, nil
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		description          sql.NullString
		disabled             int
		createdAt, updatedAt string
	)

	err := row.Scan(&room.ID, &room.Name, &description, &disabled, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}

	room.Description = fromNullString(description)
	room.Disabled = disabled != 0
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, fmt.Errorf("parse created at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, fmt.Errorf("parse updated at: %w", err)
	}

	return room, nil
}
