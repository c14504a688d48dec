package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexus-dash/apiserver/types"
)

// ActivityRepository stores the activity feed.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Record inserts the entry. Redelivered events are ignored by id. It returns
// ErrNotFound when the account no longer exists.
func (r *ActivityRepository) Record(ctx context.Context, a types.Activity) error {
	const query = `
		INSERT INTO activities (id, account_id, action, details, icon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.AccountID, a.Action, a.Details, a.Icon, a.CreatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("account %d: %w", a.AccountID, ErrNotFound)
	}
	return err
}

// ListByAccount returns one page of entries, newest first, and the total count.
func (r *ActivityRepository) ListByAccount(ctx context.Context, accountID, offset, limit int) ([]types.Activity, int, error) {
	var total int
	const countQuery = `SELECT COUNT(*) FROM activities WHERE account_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, accountID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT id, account_id, action, details, icon, created_at
		FROM activities
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]types.Activity, 0, limit)
	for rows.Next() {
		var a types.Activity
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Action, &a.Details, &a.Icon, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
