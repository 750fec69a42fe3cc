package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// RecurringRuleRepository implements persistence.RecurringRuleRepository on
// SQLite. Exception dates live in their own table keyed by (rule_id, date)
// so recording the same exception twice is naturally a no-op.
type RecurringRuleRepository struct {
	pool *Pool
}

// NewRecurringRuleRepository builds a rule repository on the shared pool.
func NewRecurringRuleRepository(pool *Pool) *RecurringRuleRepository {
	return &RecurringRuleRepository{pool: pool}
}

const ruleColumns = `id, title, notes, room_id, owner_id, weekday, start_minute, end_minute, cancelled, created_at, updated_at`

// CreateRule inserts a rule with an empty exception list.
func (r *RecurringRuleRepository) CreateRule(ctx context.Context, rule persistence.RecurringRule) error {
	if rule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO recurring_rules (` + ruleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.pool.db.ExecContext(ctx, query,
		rule.ID,
		rule.Title,
		nullString(rule.Notes),
		rule.RoomID,
		rule.OwnerID,
		int(rule.Weekday),
		rule.StartMinute,
		rule.EndMinute,
		boolToInt(rule.Cancelled),
		formatTime(rule.CreatedAt),
		formatTime(rule.UpdatedAt),
	)
	return mapError(err)
}

// GetRule retrieves one rule with its exception dates.
func (r *RecurringRuleRepository) GetRule(ctx context.Context, id string) (persistence.RecurringRule, error) {
	if id == "" {
		return persistence.RecurringRule{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM recurring_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err != nil {
		return persistence.RecurringRule{}, err
	}

	exceptions, err := r.loadExceptions(ctx, []string{rule.ID})
	if err != nil {
		return persistence.RecurringRule{}, err
	}
	rule.ExceptionDates = exceptions[rule.ID]

	return rule, nil
}

// ListRoomRules returns the room's non-cancelled rules with exception dates
// populated in ascending order.
func (r *RecurringRuleRepository) ListRoomRules(ctx context.Context, roomID string) ([]persistence.RecurringRule, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+ruleColumns+`
		 FROM recurring_rules
		 WHERE room_id = ? AND cancelled = 0
		 ORDER BY weekday ASC, start_minute ASC`,
		roomID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rules := make([]persistence.RecurringRule, 0)
	ids := make([]string, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
		ids = append(ids, rule.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	if len(rules) == 0 {
		return rules, nil
	}

	exceptions, err := r.loadExceptions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		rules[i].ExceptionDates = exceptions[rules[i].ID]
	}

	return rules, nil
}

// AddException records an exception date. INSERT OR IGNORE keeps repeat
// cancellations of the same occurrence idempotent; the rule's updated_at only
// moves when a date was actually added.
func (r *RecurringRuleRepository) AddException(ctx context.Context, ruleID, date string, at time.Time) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO rule_exceptions (rule_id, date, created_at) VALUES (?, ?, ?)`,
			ruleID, date, formatTime(at))
		if err != nil {
			return mapError(err)
		}

		inserted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if inserted == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE recurring_rules SET updated_at = ? WHERE id = ?`,
			formatTime(at), ruleID)
		return mapError(err)
	})
}

// CancelRule tombstones a rule.
func (r *RecurringRuleRepository) CancelRule(ctx context.Context, ruleID string, at time.Time) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE recurring_rules SET cancelled = 1, updated_at = ? WHERE id = ?`,
		formatTime(at), ruleID)
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

func (r *RecurringRuleRepository) loadExceptions(ctx context.Context, ruleIDs []string) (map[string][]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ruleIDs)), ", ")
	args := make([]any, len(ruleIDs))
	for i, id := range ruleIDs {
		args[i] = id
	}

	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT rule_id, date FROM rule_exceptions
		 WHERE rule_id IN (`+placeholders+`)
		 ORDER BY date ASC`,
		args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	exceptions := make(map[string][]string, len(ruleIDs))
	for rows.Next() {
		var ruleID, date string
		if err := rows.Scan(&ruleID, &date); err != nil {
			return nil, mapError(err)
		}
		exceptions[ruleID] = append(exceptions[ruleID], date)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return exceptions, nil
}

func scanRule(row rowScanner) (persistence.RecurringRule, error) {
	var (
		rule                 persistence.RecurringRule
		notes                sql.NullString
		weekday              int
		cancelled            int
		createdAt, updatedAt string
	)

	err := row.Scan(
		&rule.ID,
		&rule.Title,
		&notes,
		&rule.RoomID,
		&rule.OwnerID,
		&weekday,
		&rule.StartMinute,
		&rule.EndMinute,
		&cancelled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.RecurringRule{}, mapError(err)
	}

	rule.Notes = fromNullString(notes)
	rule.Weekday = time.Weekday(weekday)
	rule.Cancelled = cancelled != 0
	if rule.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.RecurringRule{}, fmt.Errorf("parse created at: %w", err)
	}
	if rule.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.RecurringRule{}, fmt.Errorf("parse updated at: %w", err)
	}

	return rule, nil
}
