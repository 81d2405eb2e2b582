package schedule

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// Query narrows List beyond the shop filter.
type Query struct {
	TrainerID string
	MemberID  string
	From      time.Time
	To        time.Time
}

type Repository interface {
	Create(ctx context.Context, s Schedule) error
	Get(ctx context.Context, shopID, id string) (Schedule, error)
	List(ctx context.Context, f tenancy.Filter, q Query) ([]Schedule, error)
	// MarkAttended flips status and consumes one member session atomically.
	MarkAttended(ctx context.Context, shopID, id string, at time.Time) error
	// Delete removes the slot and restores the session if it was attended, atomically.
	Delete(ctx context.Context, shopID, id string) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const selectSchedule = `
SELECT id, shop_id, trainer_id, member_id, starts_at, ends_at, status, attended_at, created_at
FROM schedules`

func (r *PostgresRepo) Create(ctx context.Context, s Schedule) error {
	const q = `
INSERT INTO schedules (id, shop_id, trainer_id, member_id, starts_at, ends_at, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.ShopID, s.TrainerID, s.MemberID, s.StartsAt, s.EndsAt, string(s.Status), s.CreatedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, shopID, id string) (Schedule, error) {
	rows, err := r.db.QueryContext(ctx, selectSchedule+` WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return Schedule{}, err
	}
	out, err := scanSchedules(rows)
	if err != nil {
		return Schedule{}, err
	}
	if len(out) == 0 {
		return Schedule{}, ErrNotFound
	}
	return out[0], nil
}

func (r *PostgresRepo) List(ctx context.Context, f tenancy.Filter, sq Query) ([]Schedule, error) {
	q := selectSchedule + ` WHERE starts_at >= $1 AND starts_at < $2`
	args := []any{sq.From, sq.To}
	if sq.TrainerID != "" {
		args = append(args, sq.TrainerID)
		q += ` AND trainer_id = $` + strconv.Itoa(len(args))
	}
	if sq.MemberID != "" {
		args = append(args, sq.MemberID)
		q += ` AND member_id = $` + strconv.Itoa(len(args))
	}
	q, args = f.AppendWhere(q, "shop_id", args)

	rows, err := r.db.QueryContext(ctx, q+` ORDER BY starts_at`, args...)
	if err != nil {
		return nil, err
	}
	return scanSchedules(rows)
}

func (r *PostgresRepo) MarkAttended(ctx context.Context, shopID, id string, at time.Time) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
UPDATE schedules SET status = 'attended', attended_at = $3
WHERE shop_id = $1 AND id = $2 AND status = 'scheduled'
RETURNING member_id
`
		var memberID string
		if err := tx.QueryRowContext(ctx, q, shopID, id, at).Scan(&memberID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAlreadyAttended
			}
			return err
		}
		return account.AdjustRemainingTx(ctx, tx, shopID, memberID, -1)
	})
}

func (r *PostgresRepo) Delete(ctx context.Context, shopID, id string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `DELETE FROM schedules WHERE shop_id = $1 AND id = $2 RETURNING member_id, status`
		var memberID, status string
		if err := tx.QueryRowContext(ctx, q, shopID, id).Scan(&memberID, &status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if Status(status) != StatusAttended {
			return nil
		}
		return account.AdjustRemainingTx(ctx, tx, shopID, memberID, 1)
	})
}

func scanSchedules(rows *sql.Rows) ([]Schedule, error) {
	defer rows.Close()
	var out []Schedule
	for rows.Next() {
		var s Schedule
		var status string
		var attendedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.ShopID, &s.TrainerID, &s.MemberID, &s.StartsAt, &s.EndsAt,
			&status, &attendedAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Status = Status(status)
		if attendedAt.Valid {
			t := attendedAt.Time
			s.AttendedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
