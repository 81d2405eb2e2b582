package invite

import (
	"context"
	"database/sql"
	"time"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// Redemption is the atomic unit of consuming an invite: mark it used and
// either create NewAccount or grant TRAINER to ExistingAccountID.
type Redemption struct {
	InviteID          string
	ShopID            string
	UsedAt            time.Time
	NewAccount        *account.Account
	ExistingAccountID string
}

func (r Redemption) accountID() string {
	if r.NewAccount != nil {
		return r.NewAccount.ID
	}
	return r.ExistingAccountID
}

type Repository interface {
	Create(ctx context.Context, inv Invite) error
	GetByToken(ctx context.Context, token string) (Invite, error)
	List(ctx context.Context, f tenancy.Filter) ([]Invite, error)
	Redeem(ctx context.Context, r Redemption) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const selectInvite = `
SELECT id, shop_id, token, email, created_by, expires_at, used_at, COALESCE(used_by::text, ''), created_at
FROM trainer_invites`

func (r *PostgresRepo) Create(ctx context.Context, inv Invite) error {
	const q = `
INSERT INTO trainer_invites (id, shop_id, token, email, created_by, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.db.ExecContext(ctx, q, inv.ID, inv.ShopID, inv.Token, inv.Email, inv.CreatedBy, inv.ExpiresAt, inv.CreatedAt)
	return err
}

func (r *PostgresRepo) GetByToken(ctx context.Context, token string) (Invite, error) {
	rows, err := r.db.QueryContext(ctx, selectInvite+` WHERE token = $1`, token)
	if err != nil {
		return Invite{}, err
	}
	out, err := scanInvites(rows)
	if err != nil {
		return Invite{}, err
	}
	if len(out) == 0 {
		return Invite{}, ErrNotFound
	}
	return out[0], nil
}

func (r *PostgresRepo) List(ctx context.Context, f tenancy.Filter) ([]Invite, error) {
	q, args := f.AppendWhere(selectInvite, "shop_id", nil)
	rows, err := r.db.QueryContext(ctx, q+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	return scanInvites(rows)
}

func (r *PostgresRepo) Redeem(ctx context.Context, red Redemption) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if red.NewAccount != nil {
			if err := account.InsertAccountTx(ctx, tx, *red.NewAccount); err != nil {
				return err
			}
		} else {
			if err := account.AddRoleTx(ctx, tx, red.ExistingAccountID, red.ShopID, role.Trainer); err != nil {
				return err
			}
		}

		// Conditional update: a concurrent redemption leaves zero rows.
		const q = `UPDATE trainer_invites SET used_at = $2, used_by = $3 WHERE id = $1 AND used_at IS NULL`
		res, err := tx.ExecContext(ctx, q, red.InviteID, red.UsedAt, red.accountID())
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrUsed
		}
		return nil
	})
}

func scanInvites(rows *sql.Rows) ([]Invite, error) {
	defer rows.Close()
	var out []Invite
	for rows.Next() {
		var inv Invite
		var usedAt sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.ShopID, &inv.Token, &inv.Email, &inv.CreatedBy,
			&inv.ExpiresAt, &usedAt, &inv.UsedBy, &inv.CreatedAt); err != nil {
			return nil, err
		}
		if usedAt.Valid {
			t := usedAt.Time
			inv.UsedAt = &t
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
