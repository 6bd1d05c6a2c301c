package proceeds

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	chainrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/chain"
	eventrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/event"
	proceedsrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/proceeds"
)

type Service interface {
	// Withdraw zeroes the caller's balance for payToken and pays it out.
	// Withdrawing a zero balance is a valid, inert operation: it returns 0
	// and touches nothing.
	Withdraw(ctx context.Context, caller, payToken model.Address) (*big.Int, error)

	Proceeds(ctx context.Context, payee, payToken model.Address) (*big.Int, error)
	AllProceeds(ctx context.Context, payee model.Address) ([]model.Proceeds, error)
}

type service struct {
	db     *sql.DB
	r      proceedsrepo.Repo
	events eventrepo.Repo
	chain  chainrepo.Repo
	market model.Address
}

func New(db *sql.DB, r proceedsrepo.Repo, events eventrepo.Repo, chain chainrepo.Repo, market model.Address) Service {
	return &service{db: db, r: r, events: events, chain: chain, market: market.Normalize()}
}

func (s *service) Withdraw(ctx context.Context, caller, payToken model.Address) (_ *big.Int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	amount, err := s.r.GetForUpdate(ctx, tx, caller, payToken)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		_ = tx.Rollback()
		return big.NewInt(0), nil
	}

	// Zero the balance before any outbound transfer so a reentrant
	// withdrawal observes an already-empty entry.
	if err = s.r.Zero(ctx, tx, caller, payToken); err != nil {
		return nil, err
	}
	if err = s.events.Insert(ctx, tx, &model.Event{
		ID:   uuid.NewString(),
		Type: model.EventProceedsWithdrawn,
		Payload: map[string]any{
			"payee":     caller.Normalize(),
			"pay_token": payToken.Normalize(),
			"amount":    amount.String(),
		},
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	if payErr := s.payout(ctx, caller, payToken, amount); payErr != nil {
		// The balance was already zeroed; put it back so funds are never lost.
		if creditErr := s.recredit(ctx, caller, payToken, amount); creditErr != nil {
			return nil, fmt.Errorf("payout failed (%v) and re-credit failed: %w", payErr, creditErr)
		}
		return nil, fmt.Errorf("payout failed, proceeds re-credited: %w", payErr)
	}
	return amount, nil
}

func (s *service) payout(ctx context.Context, to, payToken model.Address, amount *big.Int) error {
	if payToken.IsZero() {
		return s.chain.SendNative(ctx, to, amount)
	}
	return s.chain.TransferToken(ctx, payToken, s.market, to, amount)
}

func (s *service) recredit(ctx context.Context, payee, payToken model.Address, amount *big.Int) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.r.Add(ctx, tx, payee, payToken, amount); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) Proceeds(ctx context.Context, payee, payToken model.Address) (*big.Int, error) {
	return s.r.Get(ctx, payee, payToken)
}

func (s *service) AllProceeds(ctx context.Context, payee model.Address) ([]model.Proceeds, error) {
	return s.r.ListByPayee(ctx, payee)
}
