package proceedsrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
)

// ErrInsufficient reports a debit larger than the current balance.
var ErrInsufficient = errors.New("insufficient balance")

type Repo interface {
	Get(ctx context.Context, payee, payToken model.Address) (*big.Int, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, payee, payToken model.Address) (*big.Int, error)
	Add(ctx context.Context, tx *sql.Tx, payee, payToken model.Address, amount *big.Int) error
	// Sub only debits when the balance covers the amount.
	Sub(ctx context.Context, tx *sql.Tx, payee, payToken model.Address, amount *big.Int) error
	Zero(ctx context.Context, tx *sql.Tx, payee, payToken model.Address) error
	// ListByPayee returns the payee's non-zero balances across pay tokens.
	ListByPayee(ctx context.Context, payee model.Address) ([]model.Proceeds, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Get(ctx context.Context, payee, payToken model.Address) (*big.Int, error) {
	const q = `SELECT balance::text FROM proceeds WHERE payee = $1 AND pay_token = $2`
	return r.scanBalance(r.db.QueryRowContext(ctx, q, payee.Normalize(), payToken.Normalize()))
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, payee, payToken model.Address) (*big.Int, error) {
	const q = `
		SELECT balance::text
		FROM proceeds
		WHERE payee = $1 AND pay_token = $2
		FOR UPDATE`
	return r.scanBalance(tx.QueryRowContext(ctx, q, payee.Normalize(), payToken.Normalize()))
}

func (r *repo) scanBalance(row *sql.Row) (*big.Int, error) {
	var s string
	err := row.Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("bad proceeds balance: %q", s)
	}
	return b, nil
}

func (r *repo) Add(ctx context.Context, tx *sql.Tx, payee, payToken model.Address, amount *big.Int) error {
	const q = `
		INSERT INTO proceeds (payee, pay_token, balance)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (payee, pay_token)
		DO UPDATE SET balance = proceeds.balance + EXCLUDED.balance,
			updated_at = NOW()`
	_, err := tx.ExecContext(ctx, q, payee.Normalize(), payToken.Normalize(), amount.String())
	return err
}

func (r *repo) Sub(ctx context.Context, tx *sql.Tx, payee, payToken model.Address, amount *big.Int) error {
	// Guard: only debit if sufficient.
	const q = `
		UPDATE proceeds
		SET balance = balance - $3::numeric,
			updated_at = NOW()
		WHERE payee = $1 AND pay_token = $2
		AND balance >= $3::numeric`
	res, err := tx.ExecContext(ctx, q, payee.Normalize(), payToken.Normalize(), amount.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficient
	}
	return nil
}

func (r *repo) ListByPayee(ctx context.Context, payee model.Address) ([]model.Proceeds, error) {
	const q = `
		SELECT payee, pay_token, balance::text, updated_at
		FROM proceeds
		WHERE payee = $1 AND balance > 0
		ORDER BY pay_token`
	rows, err := r.db.QueryContext(ctx, q, payee.Normalize())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Proceeds
	for rows.Next() {
		var p model.Proceeds
		var s string
		if err := rows.Scan(&p.Payee, &p.PayToken, &s, &p.UpdatedAt); err != nil {
			return nil, err
		}
		b, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("bad proceeds balance: %q", s)
		}
		p.Balance = b
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repo) Zero(ctx context.Context, tx *sql.Tx, payee, payToken model.Address) error {
	const q = `
		UPDATE proceeds
		SET balance = 0,
			updated_at = NOW()
		WHERE payee = $1 AND pay_token = $2`
	_, err := tx.ExecContext(ctx, q, payee.Normalize(), payToken.Normalize())
	return err
}
