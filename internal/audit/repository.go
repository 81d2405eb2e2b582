package audit

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// Repository is the persistence contract for access log entries.
// It is append-only: there are no update or delete methods.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, f tenancy.Filter, limit int) ([]Entry, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO access_logs (id, shop_id, type, actor_id, actor_role, target_id, ip_address, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		utils.NullString(e.ShopID),
		string(e.Type),
		e.ActorID,
		e.ActorRole,
		utils.NullString(e.TargetID),
		e.IPAddress,
		e.Message,
		utils.NullString(e.Metadata),
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, f tenancy.Filter, limit int) ([]Entry, error) {
	q, args := f.AppendWhere(`
SELECT id, COALESCE(shop_id::text, ''), type, actor_id, actor_role, COALESCE(target_id::text, ''),
       ip_address, message, COALESCE(metadata::text, ''), created_at
FROM access_logs`, "shop_id", nil)
	args = append(args, limit)
	q += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var typ string
		if err := rows.Scan(&e.ID, &e.ShopID, &typ, &e.ActorID, &e.ActorRole, &e.TargetID,
			&e.IPAddress, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EntryType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
