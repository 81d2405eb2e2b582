package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

type Repository interface {
	// Create stores the account, its roles and the matching profile rows atomically.
	Create(ctx context.Context, a Account) error
	Get(ctx context.Context, id string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	// SetShop assigns a shop to an account that has none.
	SetShop(ctx context.Context, id, shopID string) error
	// FirstAdmin returns the earliest ADMIN of a shop.
	FirstAdmin(ctx context.Context, shopID string) (Account, error)

	GetMember(ctx context.Context, shopID, accountID string) (Member, error)
	ListMembers(ctx context.Context, f tenancy.Filter) ([]Member, error)
	ListTrainerMembers(ctx context.Context, shopID, trainerID string) ([]Member, error)
	AssignTrainer(ctx context.Context, shopID, memberID, trainerID string) error
	// IsTrainer reports whether accountID holds TRAINER with a profile in shopID.
	IsTrainer(ctx context.Context, shopID, accountID string) (bool, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const selectAccount = `
SELECT a.id, a.name, a.email, COALESCE(a.phone, ''), a.password_hash, COALESCE(a.shop_id::text, ''), a.created_at,
       COALESCE(string_agg(r.role, ',' ORDER BY r.role), '')
FROM accounts a
LEFT JOIN account_roles r ON r.account_id = a.id
`

func (r *PostgresRepo) Create(ctx context.Context, a Account) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		return insertAccount(ctx, tx, a)
	})
}

// insertAccount writes the account rows inside a caller-owned transaction.
func insertAccount(ctx context.Context, q utils.Querier, a Account) error {
	const insAccount = `
INSERT INTO accounts (id, name, email, phone, password_hash, shop_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	if _, err := q.ExecContext(ctx, insAccount,
		a.ID, a.Name, a.Email, utils.NullString(a.Phone), a.PasswordHash, utils.NullString(a.ShopID), a.CreatedAt,
	); err != nil {
		if utils.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	for _, rl := range a.Roles {
		if err := insertRole(ctx, q, a.ID, a.ShopID, rl); err != nil {
			return err
		}
	}
	return nil
}

// InsertAccountTx lets other packages create an account inside their own transaction.
func InsertAccountTx(ctx context.Context, tx *sql.Tx, a Account) error {
	return insertAccount(ctx, tx, a)
}

// AddRoleTx grants a role and its profile row inside a caller-owned transaction.
func AddRoleTx(ctx context.Context, tx *sql.Tx, accountID, shopID string, rl role.Role) error {
	return insertRole(ctx, tx, accountID, shopID, rl)
}

func insertRole(ctx context.Context, q utils.Querier, accountID, shopID string, rl role.Role) error {
	const insRole = `INSERT INTO account_roles (account_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := q.ExecContext(ctx, insRole, accountID, string(rl)); err != nil {
		return err
	}
	switch rl {
	case role.Member:
		const insMember = `
INSERT INTO member_profiles (account_id, shop_id) VALUES ($1, $2)
ON CONFLICT (account_id) DO NOTHING
`
		_, err := q.ExecContext(ctx, insMember, accountID, utils.NullString(shopID))
		return err
	case role.Trainer:
		if shopID == "" {
			return ErrInvalidArgument
		}
		const insTrainer = `
INSERT INTO trainer_profiles (account_id, shop_id) VALUES ($1, $2)
ON CONFLICT (account_id) DO NOTHING
`
		_, err := q.ExecContext(ctx, insTrainer, accountID, shopID)
		return err
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Account, error) {
	return r.getOne(ctx, selectAccount+`WHERE a.id = $1 GROUP BY a.id`, id)
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (Account, error) {
	return r.getOne(ctx, selectAccount+`WHERE a.email = $1 GROUP BY a.id`, email)
}

func (r *PostgresRepo) getOne(ctx context.Context, q string, arg string) (Account, error) {
	var a Account
	var roles string
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.ShopID, &a.CreatedAt, &roles,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.Roles = splitRoles(roles)
	return a, nil
}

func (r *PostgresRepo) SetShop(ctx context.Context, id, shopID string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE accounts SET shop_id = $2 WHERE id = $1 AND shop_id IS NULL`, id, shopID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrShopAlreadySet
		}
		_, err = tx.ExecContext(ctx, `UPDATE member_profiles SET shop_id = $2 WHERE account_id = $1`, id, shopID)
		return err
	})
}

func (r *PostgresRepo) FirstAdmin(ctx context.Context, shopID string) (Account, error) {
	const q = selectAccount + `
WHERE a.shop_id = $1 AND EXISTS (
  SELECT 1 FROM account_roles x WHERE x.account_id = a.id AND x.role = 'ADMIN'
)
GROUP BY a.id
ORDER BY a.created_at
LIMIT 1
`
	return r.getOne(ctx, q, shopID)
}

const selectMember = `
SELECT a.id, a.name, a.email, COALESCE(a.phone, ''), COALESCE(m.shop_id::text, ''),
       COALESCE(m.trainer_id::text, ''), m.remaining_sessions
FROM member_profiles m
JOIN accounts a ON a.id = m.account_id
`

func (r *PostgresRepo) GetMember(ctx context.Context, shopID, accountID string) (Member, error) {
	rows, err := r.db.QueryContext(ctx, selectMember+`WHERE m.shop_id = $1 AND m.account_id = $2`, shopID, accountID)
	if err != nil {
		return Member{}, err
	}
	out, err := scanMembers(rows)
	if err != nil {
		return Member{}, err
	}
	if len(out) == 0 {
		return Member{}, ErrNotFound
	}
	return out[0], nil
}

func (r *PostgresRepo) ListMembers(ctx context.Context, f tenancy.Filter) ([]Member, error) {
	q, args := f.AppendWhere(selectMember, "m.shop_id", nil)
	rows, err := r.db.QueryContext(ctx, q+` ORDER BY a.name`, args...)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

func (r *PostgresRepo) ListTrainerMembers(ctx context.Context, shopID, trainerID string) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx, selectMember+`WHERE m.shop_id = $1 AND m.trainer_id = $2 ORDER BY a.name`, shopID, trainerID)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

func (r *PostgresRepo) AssignTrainer(ctx context.Context, shopID, memberID, trainerID string) error {
	const q = `
UPDATE member_profiles SET trainer_id = $3
WHERE shop_id = $1 AND account_id = $2
  AND EXISTS (SELECT 1 FROM trainer_profiles t WHERE t.account_id = $3 AND t.shop_id = $1)
`
	res, err := r.db.ExecContext(ctx, q, shopID, memberID, trainerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) IsTrainer(ctx context.Context, shopID, accountID string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM trainer_profiles t
  JOIN account_roles x ON x.account_id = t.account_id AND x.role = 'TRAINER'
  WHERE t.account_id = $2 AND t.shop_id = $1
)
`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, shopID, accountID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func scanMembers(rows *sql.Rows) ([]Member, error) {
	defer rows.Close()
	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.AccountID, &m.Name, &m.Email, &m.Phone, &m.ShopID, &m.TrainerID, &m.RemainingSessions); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func splitRoles(csv string) role.Set {
	if csv == "" {
		return nil
	}
	return role.FromStrings(strings.Split(csv, ","))
}

// AdjustRemainingTx changes a member's remaining session count inside a
// caller-owned transaction. The balance never goes below zero.
func AdjustRemainingTx(ctx context.Context, tx *sql.Tx, shopID, memberID string, delta int) error {
	const q = `
UPDATE member_profiles SET remaining_sessions = remaining_sessions + $3
WHERE shop_id = $1 AND account_id = $2
RETURNING remaining_sessions
`
	var remaining int
	err := tx.QueryRowContext(ctx, q, shopID, memberID, delta).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		// remaining_sessions has CHECK (>= 0).
		if utils.IsCheckViolation(err) {
			return ErrNoSessionsLeft
		}
		return err
	}
	return nil
}
