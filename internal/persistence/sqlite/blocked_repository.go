package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// BlockedRangeRepository implements persistence.BlockedRangeRepository on
// SQLite.
type BlockedRangeRepository struct {
	pool *Pool
}

// NewBlockedRangeRepository builds a blocked range repository on the shared pool.
func NewBlockedRangeRepository(pool *Pool) *BlockedRangeRepository {
	return &BlockedRangeRepository{pool: pool}
}

// CreateBlockedRange inserts a blocked range.
func (r *BlockedRangeRepository) CreateBlockedRange(ctx context.Context, blocked persistence.BlockedRange) error {
	if blocked.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO blocked_ranges (id, room_id, start_time, end_time, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		blocked.ID,
		blocked.RoomID,
		formatTime(blocked.Start),
		formatTime(blocked.End),
		nullString(blocked.Reason),
		formatTime(blocked.CreatedAt),
	)
	return mapError(err)
}

// DeleteBlockedRange removes a blocked range.
func (r *BlockedRangeRepository) DeleteBlockedRange(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM blocked_ranges WHERE id = ?`, id)
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

// ListRoomBlockedRanges returns blocked ranges overlapping [from, to).
func (r *BlockedRangeRepository) ListRoomBlockedRanges(ctx context.Context, roomID string, from, to time.Time) ([]persistence.BlockedRange, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, room_id, start_time, end_time, reason, created_at
		 FROM blocked_ranges
		 WHERE room_id = ? AND start_time < ? AND end_time > ?
		 ORDER BY start_time ASC`,
		roomID, formatTime(to), formatTime(from))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	ranges := make([]persistence.BlockedRange, 0)
	for rows.Next() {
		var (
			blocked    persistence.BlockedRange
			reason     sql.NullString
			start, end string
			createdAt  string
		)
		if err := rows.Scan(&blocked.ID, &blocked.RoomID, &start, &end, &reason, &createdAt); err != nil {
			return nil, mapError(err)
		}
		blocked.Reason = fromNullString(reason)
		if blocked.Start, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("parse start time: %w", err)
		}
		if blocked.End, err = parseTime(end); err != nil {
			return nil, fmt.Errorf("parse end time: %w", err)
		}
		if blocked.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created at: %w", err)
		}
		ranges = append(ranges, blocked)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return ranges, nil
}
