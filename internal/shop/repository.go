package shop

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

type Repository interface {
	Create(ctx context.Context, s Shop) error
	Get(ctx context.Context, id string) (Shop, error)
	GetBySlug(ctx context.Context, slug string) (Shop, error)
	List(ctx context.Context, activeOnly bool) ([]Shop, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Create(ctx context.Context, s Shop) error {
	const q = `
INSERT INTO shops (id, name, slug, active, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.Name, s.Slug, s.Active, s.CreatedAt)
	if utils.IsUniqueViolation(err) {
		return ErrSlugTaken
	}
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Shop, error) {
	const q = `SELECT id, name, slug, active, created_at FROM shops WHERE id = $1`
	return scanShop(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetBySlug(ctx context.Context, slug string) (Shop, error) {
	const q = `SELECT id, name, slug, active, created_at FROM shops WHERE slug = $1`
	return scanShop(r.db.QueryRowContext(ctx, q, slug))
}

func (r *PostgresRepo) List(ctx context.Context, activeOnly bool) ([]Shop, error) {
	q := `SELECT id, name, slug, active, created_at FROM shops`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Shop
	for rows.Next() {
		var s Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Active, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanShop(row *sql.Row) (Shop, error) {
	var s Shop
	if err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Active, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return s, nil
}
