package marketplace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	chainrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/chain"
	eventrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/event"
	listingrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/listing"
	paytokenrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/paytoken"
	proceedsrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/proceeds"
	settingsrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/settings"
)

// feeDenominator: platform fee is expressed in basis points.
var feeDenominator = big.NewInt(10000)

// Rented describes a completed rental.
type Rented struct {
	Lessor   model.Address `json:"lessor"`
	Renter   model.Address `json:"renter"`
	Price    *big.Int      `json:"price"`
	Fee      *big.Int      `json:"fee"`
	Expires  int64         `json:"expires"`
	PayToken model.Address `json:"pay_token"`
}

type Service interface {
	// ListItem records a standing rental offer. Only approval is required,
	// custody stays with the owner until the first rental.
	ListItem(ctx context.Context, caller, nft model.Address, tokenID string, expires int64, pricePerSecond *big.Int, payToken model.Address) (*model.Listing, error)

	// UpdateListing overwrites terms in place, re-validating ownership
	// against the ledger's current owner.
	UpdateListing(ctx context.Context, caller, nft model.Address, tokenID string, expires int64, pricePerSecond *big.Int, payToken model.Address) (*model.Listing, error)

	// RentItem escrows the asset with the marketplace, grants usage rights
	// to the caller until expires and credits the fee split.
	RentItem(ctx context.Context, caller, nft model.Address, tokenID string, expires int64, payToken model.Address, payment *big.Int) (*Rented, error)

	// RedeemItem returns custody to the listing owner once the rental
	// period has lapsed. The listing survives for future rentals.
	RedeemItem(ctx context.Context, caller, nft model.Address, tokenID string) error

	// CancelListing resets the listing to the absent state.
	CancelListing(ctx context.Context, caller, nft model.Address, tokenID string) error

	GetListing(ctx context.Context, nft model.Address, tokenID string) (*model.Listing, error)
}

// ----- Service implementation -----

type service struct {
	db        *sql.DB
	listings  listingrepo.Repo
	proceeds  proceedsrepo.Repo
	payTokens paytokenrepo.Repo
	settings  settingsrepo.Repo
	events    eventrepo.Repo
	chain     chainrepo.Repo
	market    model.Address
	now       func() time.Time
}

func New(
	db *sql.DB,
	listings listingrepo.Repo,
	proceeds proceedsrepo.Repo,
	payTokens paytokenrepo.Repo,
	settings settingsrepo.Repo,
	events eventrepo.Repo,
	chain chainrepo.Repo,
	market model.Address,
) Service {
	return &service{
		db:        db,
		listings:  listings,
		proceeds:  proceeds,
		payTokens: payTokens,
		settings:  settings,
		events:    events,
		chain:     chain,
		market:    market.Normalize(),
		now:       time.Now,
	}
}

func (s *service) newEvent(t model.EventType, payload map[string]any) *model.Event {
	return &model.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}
}

// validateTerms covers the checks shared by ListItem and UpdateListing:
// expires in the future, positive rate, authorized pay token.
func (s *service) validateTerms(ctx context.Context, expires int64, pricePerSecond *big.Int, payToken model.Address) error {
	if expires <= s.now().Unix() {
		return makeErr(ErrInvalidExpires, fmt.Sprint(expires))
	}
	if pricePerSecond == nil || pricePerSecond.Sign() <= 0 {
		return makeErr(ErrInvalidAmount, "price per second must be positive")
	}
	if !payToken.IsZero() {
		ok, err := s.payTokens.IsAuthorized(ctx, payToken)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrInvalidPayToken, string(payToken))
		}
	}
	return nil
}

func (s *service) ListItem(ctx context.Context, caller, nft model.Address, tokenID string, expires int64, pricePerSecond *big.Int, payToken model.Address) (_ *model.Listing, err error) {
	if !nft.Valid() {
		return nil, makeErr(ErrInvalidNftAddress, string(nft))
	}

	owner, err := s.chain.OwnerOf(ctx, nft, tokenID)
	if err != nil {
		return nil, err
	}
	if !owner.Equal(caller) {
		return nil, makeErr(ErrNotOwner, string(caller))
	}

	existing, err := s.listings.Get(ctx, nft, tokenID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, makeErr(ErrAlreadyListed, fmt.Sprintf("%s/%s", nft, tokenID))
	}

	if err := s.checkApproval(ctx, nft, tokenID, owner); err != nil {
		return nil, err
	}
	if err := s.validateTerms(ctx, expires, pricePerSecond, payToken); err != nil {
		return nil, err
	}

	l := &model.Listing{
		NftAddress:     nft.Normalize(),
		TokenID:        tokenID,
		Owner:          caller.Normalize(),
		Expires:        expires,
		PricePerSecond: pricePerSecond,
		PayToken:       payToken.Normalize(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.listings.Insert(ctx, tx, l); err != nil {
		if errors.Is(err, listingrepo.ErrDuplicate) {
			err = makeErr(ErrAlreadyListed, fmt.Sprintf("%s/%s", nft, tokenID))
		}
		return nil, err
	}
	if err = s.events.Insert(ctx, tx, s.newEvent(model.EventItemListed, map[string]any{
		"nft_address":      l.NftAddress,
		"token_id":         l.TokenID,
		"owner":            l.Owner,
		"expires":          l.Expires,
		"price_per_second": l.PricePerSecond.String(),
		"pay_token":        l.PayToken,
	})); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) UpdateListing(ctx context.Context, caller, nft model.Address, tokenID string, expires int64, pricePerSecond *big.Int, payToken model.Address) (_ *model.Listing, err error) {
	if !nft.Valid() {
		return nil, makeErr(ErrInvalidNftAddress, string(nft))
	}

	existing, err := s.listings.Get(ctx, nft, tokenID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, makeErr(ErrNotListed, fmt.Sprintf("%s/%s", nft, tokenID))
	}

	// Ownership is re-checked against the ledger, not the stored owner,
	// so a listing survives the asset changing hands off-marketplace.
	owner, err := s.chain.OwnerOf(ctx, nft, tokenID)
	if err != nil {
		return nil, err
	}
	if !owner.Equal(caller) {
		return nil, makeErr(ErrNotOwner, string(caller))
	}

	if err := s.checkApproval(ctx, nft, tokenID, owner); err != nil {
		return nil, err
	}
	if err := s.validateTerms(ctx, expires, pricePerSecond, payToken); err != nil {
		return nil, err
	}

	l := &model.Listing{
		NftAddress:     nft.Normalize(),
		TokenID:        tokenID,
		Owner:          owner,
		Expires:        expires,
		PricePerSecond: pricePerSecond,
		PayToken:       payToken.Normalize(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.listings.Update(ctx, tx, l); err != nil {
		return nil, err
	}
	if err = s.events.Insert(ctx, tx, s.newEvent(model.EventItemUpdated, map[string]any{
		"nft_address":      l.NftAddress,
		"token_id":         l.TokenID,
		"owner":            l.Owner,
		"expires":          l.Expires,
		"price_per_second": l.PricePerSecond.String(),
		"pay_token":        l.PayToken,
	})); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) RentItem(ctx context.Context, caller, nft model.Address, tokenID string, expires int64, payToken model.Address, payment *big.Int) (_ *Rented, err error) {
	if !nft.Valid() {
		return nil, makeErr(ErrInvalidNftAddress, string(nft))
	}

	l, err := s.listings.Get(ctx, nft, tokenID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, makeErr(ErrNotListed, fmt.Sprintf("%s/%s", nft, tokenID))
	}

	// The ledger's usage slot is the single source of truth for rental
	// state; nothing is cached marketplace-side.
	user, err := s.chain.UserOf(ctx, nft, tokenID)
	if err != nil {
		return nil, err
	}
	if !user.IsZero() {
		return nil, makeErr(ErrCurrentlyRented, fmt.Sprintf("%s/%s", nft, tokenID))
	}

	nowTs := s.now().Unix()
	if expires <= nowTs {
		return nil, makeErr(ErrInvalidExpires, fmt.Sprint(expires))
	}
	if expires > l.Expires {
		return nil, makeErr(ErrInvalidExpires, fmt.Sprint(expires))
	}
	if !payToken.Equal(l.PayToken) {
		return nil, makeErr(ErrInvalidPayToken, string(payToken))
	}

	price := new(big.Int).Mul(l.PricePerSecond, big.NewInt(expires-nowTs))
	if payment == nil || payment.Cmp(price) < 0 {
		return nil, makeErr(ErrInvalidAmount, price.String())
	}

	feeBps, feeRecipient, err := s.settings.FeePolicy(ctx)
	if err != nil {
		return nil, err
	}
	fee := new(big.Int).Mul(price, big.NewInt(feeBps))
	fee.Quo(fee, feeDenominator)
	ownerShare := new(big.Int).Sub(price, fee)
	if ownerShare.Sign() < 0 {
		return nil, fmt.Errorf("platform fee %d bps exceeds rental price", feeBps)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Native payments draw on the renter's deposited proceeds. Overpayment
	// is not refunded: the full payment is taken, only price is credited.
	if payToken.IsZero() {
		if err = s.proceeds.Sub(ctx, tx, caller, model.ZeroAddress, payment); err != nil {
			if errors.Is(err, proceedsrepo.ErrInsufficient) {
				err = makeErr(ErrInsufficientFunds, payment.String())
			}
			return nil, err
		}
	}
	if fee.Sign() > 0 {
		if err = s.proceeds.Add(ctx, tx, feeRecipient, payToken, fee); err != nil {
			return nil, err
		}
	}
	if err = s.proceeds.Add(ctx, tx, l.Owner, payToken, ownerShare); err != nil {
		return nil, err
	}
	if err = s.events.Insert(ctx, tx, s.newEvent(model.EventItemRented, map[string]any{
		"nft_address": l.NftAddress,
		"token_id":    l.TokenID,
		"lessor":      l.Owner,
		"renter":      caller.Normalize(),
		"price":       price.String(),
		"fee":         fee.String(),
		"expires":     expires,
		"pay_token":   l.PayToken,
	})); err != nil {
		return nil, err
	}

	// Interactions after effects: a ledger failure here rolls everything
	// back, a balance mutation can never be observed twice.
	if !payToken.IsZero() {
		if err = s.chain.TransferToken(ctx, payToken, caller, s.market, payment); err != nil {
			err = makeErr(ErrInsufficientFunds, payment.String())
			return nil, err
		}
	}
	holder, err := s.chain.OwnerOf(ctx, nft, tokenID)
	if err != nil {
		return nil, err
	}
	if !holder.Equal(s.market) {
		if err = s.chain.TransferFrom(ctx, nft, holder, s.market, tokenID); err != nil {
			return nil, err
		}
	}
	if err = s.chain.SetUser(ctx, nft, tokenID, caller, expires); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &Rented{
		Lessor:   l.Owner,
		Renter:   caller.Normalize(),
		Price:    price,
		Fee:      fee,
		Expires:  expires,
		PayToken: l.PayToken,
	}, nil
}

func (s *service) RedeemItem(ctx context.Context, caller, nft model.Address, tokenID string) (err error) {
	if !nft.Valid() {
		return makeErr(ErrInvalidNftAddress, string(nft))
	}

	user, err := s.chain.UserOf(ctx, nft, tokenID)
	if err != nil {
		return err
	}
	if !user.IsZero() {
		return makeErr(ErrCurrentlyRented, fmt.Sprintf("%s/%s", nft, tokenID))
	}

	l, err := s.listings.Get(ctx, nft, tokenID)
	if err != nil {
		return err
	}
	if l == nil || !l.Owner.Equal(caller) {
		return makeErr(ErrNotOwner, string(caller))
	}

	holder, err := s.chain.OwnerOf(ctx, nft, tokenID)
	if err != nil {
		return err
	}
	if !holder.Equal(s.market) {
		return makeErr(ErrNotRedeemable, fmt.Sprintf("%s/%s", nft, tokenID))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.events.Insert(ctx, tx, s.newEvent(model.EventItemRedeemed, map[string]any{
		"nft_address": l.NftAddress,
		"token_id":    l.TokenID,
		"owner":       l.Owner,
	})); err != nil {
		return err
	}
	if err = s.chain.TransferFrom(ctx, nft, s.market, l.Owner, tokenID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) CancelListing(ctx context.Context, caller, nft model.Address, tokenID string) (err error) {
	if !nft.Valid() {
		return makeErr(ErrInvalidNftAddress, string(nft))
	}

	l, err := s.listings.Get(ctx, nft, tokenID)
	if err != nil {
		return err
	}
	if l == nil {
		return makeErr(ErrNotListed, fmt.Sprintf("%s/%s", nft, tokenID))
	}

	user, err := s.chain.UserOf(ctx, nft, tokenID)
	if err != nil {
		return err
	}
	if !user.IsZero() {
		return makeErr(ErrCurrentlyRented, fmt.Sprintf("%s/%s", nft, tokenID))
	}

	// The caller must hold the asset right now. An escrowed, un-redeemed
	// asset belongs to the marketplace, so redemption has to come first.
	holder, err := s.chain.OwnerOf(ctx, nft, tokenID)
	if err != nil {
		return err
	}
	if !holder.Equal(caller) {
		return makeErr(ErrNotOwner, string(caller))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.listings.Delete(ctx, tx, nft, tokenID); err != nil {
		return err
	}
	if err = s.events.Insert(ctx, tx, s.newEvent(model.EventItemCanceled, map[string]any{
		"nft_address": l.NftAddress,
		"token_id":    l.TokenID,
		"owner":       l.Owner,
	})); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) GetListing(ctx context.Context, nft model.Address, tokenID string) (*model.Listing, error) {
	if !nft.Valid() {
		return nil, makeErr(ErrInvalidNftAddress, string(nft))
	}
	l, err := s.listings.Get(ctx, nft, tokenID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, makeErr(ErrNotListed, fmt.Sprintf("%s/%s", nft, tokenID))
	}
	return l, nil
}

func (s *service) checkApproval(ctx context.Context, nft model.Address, tokenID string, owner model.Address) error {
	approved, err := s.chain.GetApproved(ctx, nft, tokenID)
	if err != nil {
		return err
	}
	if approved.Equal(s.market) {
		return nil
	}
	all, err := s.chain.IsApprovedForAll(ctx, nft, owner, s.market)
	if err != nil {
		return err
	}
	if !all {
		return makeErr(ErrNotApproved, fmt.Sprintf("%s/%s", nft, tokenID))
	}
	return nil
}
