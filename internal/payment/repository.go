package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

type Repository interface {
	// Record inserts p and credits p.SessionCount to the member atomically.
	Record(ctx context.Context, p Payment) error
	List(ctx context.Context, f tenancy.Filter, memberID string) ([]Payment, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Record(ctx context.Context, p Payment) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := account.AdjustRemainingTx(ctx, tx, p.ShopID, p.MemberID, p.SessionCount); err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		const q = `
INSERT INTO payments (id, shop_id, member_id, amount, session_count, method, memo, created_by, paid_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
		_, err := tx.ExecContext(ctx, q,
			p.ID, p.ShopID, p.MemberID, p.Amount.StringFixed(2), p.SessionCount,
			string(p.Method), p.Memo, p.CreatedBy, p.PaidAt, p.CreatedAt,
		)
		return err
	})
}

func (r *PostgresRepo) List(ctx context.Context, f tenancy.Filter, memberID string) ([]Payment, error) {
	q := `
SELECT id, shop_id, member_id, amount::text, session_count, method, memo, created_by, paid_at, created_at
FROM payments`
	var args []any
	if memberID != "" {
		q += ` WHERE member_id = $1`
		args = append(args, memberID)
	}
	q, args = f.AppendWhere(q, "shop_id", args)

	rows, err := r.db.QueryContext(ctx, q+` ORDER BY paid_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		var amount, method string
		if err := rows.Scan(&p.ID, &p.ShopID, &p.MemberID, &amount, &p.SessionCount, &method,
			&p.Memo, &p.CreatedBy, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		p.Method = Method(method)
		out = append(out, p)
	}
	return out, rows.Err()
}
