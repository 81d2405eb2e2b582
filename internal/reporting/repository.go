package reporting

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// Repository returns per-shop aggregates. Every method applies f.
type Repository interface {
	Headcounts(ctx context.Context, f tenancy.Filter) ([]Headcount, error)
	PaymentTotals(ctx context.Context, f tenancy.Filter, from, to time.Time) ([]PaymentTotal, error)
	ScheduleTotals(ctx context.Context, f tenancy.Filter, from, to time.Time) ([]ScheduleTotal, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Headcounts(ctx context.Context, f tenancy.Filter) ([]Headcount, error) {
	q := `
SELECT s.id, count(DISTINCT m.account_id), count(DISTINCT t.account_id)
FROM shops s
LEFT JOIN member_profiles m ON m.shop_id = s.id
LEFT JOIN trainer_profiles t ON t.shop_id = s.id`
	q, args := f.AppendWhere(q, "s.id", nil)
	rows, err := r.db.QueryContext(ctx, q+` GROUP BY s.id ORDER BY s.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Headcount
	for rows.Next() {
		var h Headcount
		if err := rows.Scan(&h.ShopID, &h.Members, &h.Trainers); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) PaymentTotals(ctx context.Context, f tenancy.Filter, from, to time.Time) ([]PaymentTotal, error) {
	q := `
SELECT shop_id, count(*), sum(amount)::text, sum(session_count)
FROM payments
WHERE paid_at >= $1 AND paid_at < $2`
	q, args := f.AppendWhere(q, "shop_id", []any{from, to})
	rows, err := r.db.QueryContext(ctx, q+` GROUP BY shop_id ORDER BY shop_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PaymentTotal
	for rows.Next() {
		var (
			p      PaymentTotal
			amount string
		)
		if err := rows.Scan(&p.ShopID, &p.Count, &amount, &p.SessionCount); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ScheduleTotals(ctx context.Context, f tenancy.Filter, from, to time.Time) ([]ScheduleTotal, error) {
	q := `
SELECT shop_id,
  count(*) FILTER (WHERE status = 'scheduled'),
  count(*) FILTER (WHERE status = 'attended')
FROM schedules
WHERE starts_at >= $1 AND starts_at < $2`
	q, args := f.AppendWhere(q, "shop_id", []any{from, to})
	rows, err := r.db.QueryContext(ctx, q+` GROUP BY shop_id ORDER BY shop_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScheduleTotal
	for rows.Next() {
		var s ScheduleTotal
		if err := rows.Scan(&s.ShopID, &s.Scheduled, &s.Attended); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
