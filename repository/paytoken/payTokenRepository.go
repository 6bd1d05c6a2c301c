// repository/paytoken/repo.go
package paytokenrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
)

var (
	ErrDuplicate = errors.New("pay token already enabled")
	ErrNotFound  = errors.New("pay token not enabled")
)

// Repo is the authorized pay-token set. The native-currency sentinel is
// always authorized and never stored here.
type Repo interface {
	IsAuthorized(ctx context.Context, token model.Address) (bool, error)
	Add(ctx context.Context, tx *sql.Tx, token model.Address) error
	Remove(ctx context.Context, tx *sql.Tx, token model.Address) error
	List(ctx context.Context) ([]model.Address, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) IsAuthorized(ctx context.Context, token model.Address) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM pay_tokens WHERE token = $1)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, token.Normalize()).Scan(&ok)
	return ok, err
}

func (r *repo) Add(ctx context.Context, tx *sql.Tx, token model.Address) error {
	const q = `INSERT INTO pay_tokens (token) VALUES ($1)`
	_, err := tx.ExecContext(ctx, q, token.Normalize())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *repo) Remove(ctx context.Context, tx *sql.Tx, token model.Address) error {
	const q = `DELETE FROM pay_tokens WHERE token = $1`
	res, err := tx.ExecContext(ctx, q, token.Normalize())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) List(ctx context.Context) ([]model.Address, error) {
	const q = `SELECT token FROM pay_tokens ORDER BY added_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Address
	for rows.Next() {
		var t model.Address
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
