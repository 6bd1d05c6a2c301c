package listingrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
)

// ErrDuplicate reports a second listing for the same (nft, token) key.
var ErrDuplicate = errors.New("listing already exists")

type Repo interface {
	// Get returns (nil, nil) when no listing exists for the key.
	Get(ctx context.Context, nft model.Address, tokenID string) (*model.Listing, error)
	Insert(ctx context.Context, tx *sql.Tx, l *model.Listing) error
	Update(ctx context.Context, tx *sql.Tx, l *model.Listing) error
	Delete(ctx context.Context, tx *sql.Tx, nft model.Address, tokenID string) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Get(ctx context.Context, nft model.Address, tokenID string) (*model.Listing, error) {
	const q = `
		SELECT nft_address, token_id, owner, expires, price_per_second::text, pay_token, created_at, updated_at
		FROM listings
		WHERE nft_address = $1 AND token_id = $2`
	var l model.Listing
	var price string
	err := r.db.QueryRowContext(ctx, q, nft.Normalize(), tokenID).Scan(
		&l.NftAddress, &l.TokenID, &l.Owner, &l.Expires, &price, &l.PayToken, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p, ok := new(big.Int).SetString(price, 10)
	if !ok {
		return nil, fmt.Errorf("bad price_per_second for %s/%s: %q", nft, tokenID, price)
	}
	l.PricePerSecond = p
	return &l, nil
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, l *model.Listing) error {
	const q = `
		INSERT INTO listings (nft_address, token_id, owner, expires, price_per_second, pay_token)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)`
	_, err := tx.ExecContext(ctx, q,
		l.NftAddress.Normalize(), l.TokenID, l.Owner.Normalize(),
		l.Expires, l.PricePerSecond.String(), l.PayToken.Normalize(),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *repo) Update(ctx context.Context, tx *sql.Tx, l *model.Listing) error {
	const q = `
		UPDATE listings
		SET owner = $3,
			expires = $4,
			price_per_second = $5::numeric,
			pay_token = $6,
			updated_at = NOW()
		WHERE nft_address = $1 AND token_id = $2`
	res, err := tx.ExecContext(ctx, q,
		l.NftAddress.Normalize(), l.TokenID, l.Owner.Normalize(),
		l.Expires, l.PricePerSecond.String(), l.PayToken.Normalize(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, tx *sql.Tx, nft model.Address, tokenID string) error {
	const q = `DELETE FROM listings WHERE nft_address = $1 AND token_id = $2`
	res, err := tx.ExecContext(ctx, q, nft.Normalize(), tokenID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
