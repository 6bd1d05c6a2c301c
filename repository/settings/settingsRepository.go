// repository/settings/repo.go
package settingsrepo

import (
	"context"
	"database/sql"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
)

// Repo holds the single-row fee policy: platform fee in basis points and
// the address the fee is credited to.
type Repo interface {
	FeePolicy(ctx context.Context) (bps int64, recipient model.Address, err error)
	SetPlatformFee(ctx context.Context, tx *sql.Tx, bps int64) error
	SetFeeRecipient(ctx context.Context, tx *sql.Tx, recipient model.Address) error
	// Init seeds the policy row if missing. Called once at startup.
	Init(ctx context.Context, bps int64, recipient model.Address) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) FeePolicy(ctx context.Context) (int64, model.Address, error) {
	const q = `SELECT platform_fee_bps, fee_recipient FROM marketplace_settings WHERE id = 1`
	var bps int64
	var recipient model.Address
	err := r.db.QueryRowContext(ctx, q).Scan(&bps, &recipient)
	return bps, recipient, err
}

func (r *repo) SetPlatformFee(ctx context.Context, tx *sql.Tx, bps int64) error {
	const q = `
		UPDATE marketplace_settings
		SET platform_fee_bps = $1,
			updated_at = NOW()
		WHERE id = 1`
	_, err := tx.ExecContext(ctx, q, bps)
	return err
}

func (r *repo) SetFeeRecipient(ctx context.Context, tx *sql.Tx, recipient model.Address) error {
	const q = `
		UPDATE marketplace_settings
		SET fee_recipient = $1,
			updated_at = NOW()
		WHERE id = 1`
	_, err := tx.ExecContext(ctx, q, recipient.Normalize())
	return err
}

func (r *repo) Init(ctx context.Context, bps int64, recipient model.Address) error {
	const q = `
		INSERT INTO marketplace_settings (id, platform_fee_bps, fee_recipient)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, bps, recipient.Normalize())
	return err
}
