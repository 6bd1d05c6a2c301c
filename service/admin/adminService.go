package admin

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	eventrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/event"
	paytokenrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/paytoken"
	settingsrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/settings"
)

// errors used by controllers

type ErrCode string

const (
	ErrUnauthorized   ErrCode = "UNAUTHORIZED"
	ErrInvalidAddress ErrCode = "INVALID_ADDRESS"
	ErrInvalidAmount  ErrCode = "INVALID_AMOUNT"
	ErrTokenEnabled   ErrCode = "TOKEN_ALREADY_ENABLED"
	ErrTokenDisabled  ErrCode = "TOKEN_NOT_ENABLED"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Service is the owner-only policy surface: platform fee, fee recipient
// and the authorized pay-token set. The fee has no upper clamp; a value
// above 100% makes rentals fail rather than charge a negative lessor share.
type Service interface {
	FeePolicy(ctx context.Context) (bps int64, recipient model.Address, err error)
	SetPlatformFee(ctx context.Context, caller model.Address, bps int64) error
	SetFeeRecipient(ctx context.Context, caller, recipient model.Address) error

	PayTokens(ctx context.Context) ([]model.Address, error)
	AddPayToken(ctx context.Context, caller, token model.Address) error
	RemovePayToken(ctx context.Context, caller, token model.Address) error

	// Events reads the outbox, newest first. Owner-only.
	Events(ctx context.Context, caller model.Address, t model.EventType, limit int) ([]model.Event, error)
}

type service struct {
	db        *sql.DB
	settings  settingsrepo.Repo
	payTokens paytokenrepo.Repo
	events    eventrepo.Repo
	owner     model.Address
}

func New(db *sql.DB, settings settingsrepo.Repo, payTokens paytokenrepo.Repo, events eventrepo.Repo, owner model.Address) Service {
	return &service{db: db, settings: settings, payTokens: payTokens, events: events, owner: owner.Normalize()}
}

func (s *service) FeePolicy(ctx context.Context) (int64, model.Address, error) {
	return s.settings.FeePolicy(ctx)
}

func (s *service) SetPlatformFee(ctx context.Context, caller model.Address, bps int64) (err error) {
	if !caller.Equal(s.owner) {
		return makeErr(ErrUnauthorized)
	}
	if bps < 0 {
		return makeErr(ErrInvalidAmount)
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

	if err = s.settings.SetPlatformFee(ctx, tx, bps); err != nil {
		return err
	}
	if err = s.events.Insert(ctx, tx, s.newEvent(model.EventPlatformFeeUpdated, map[string]any{
		"platform_fee_bps": bps,
	})); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) SetFeeRecipient(ctx context.Context, caller, recipient model.Address) (err error) {
	if !caller.Equal(s.owner) {
		return makeErr(ErrUnauthorized)
	}
	if !recipient.Valid() || recipient.IsZero() {
		return makeErr(ErrInvalidAddress)
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

	if err = s.settings.SetFeeRecipient(ctx, tx, recipient); err != nil {
		return err
	}
	if err = s.events.Insert(ctx, tx, s.newEvent(model.EventFeeRecipientUpdated, map[string]any{
		"fee_recipient": recipient.Normalize(),
	})); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) PayTokens(ctx context.Context) ([]model.Address, error) {
	return s.payTokens.List(ctx)
}

func (s *service) AddPayToken(ctx context.Context, caller, token model.Address) (err error) {
	if !caller.Equal(s.owner) {
		return makeErr(ErrUnauthorized)
	}
	if !token.Valid() || token.IsZero() {
		return makeErr(ErrInvalidAddress)
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

	if err = s.payTokens.Add(ctx, tx, token); err != nil {
		if errors.Is(err, paytokenrepo.ErrDuplicate) {
			err = makeErr(ErrTokenEnabled)
		}
		return err
	}
	if err = s.events.Insert(ctx, tx, s.newEvent(model.EventPayTokenAdded, map[string]any{
		"token": token.Normalize(),
	})); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) RemovePayToken(ctx context.Context, caller, token model.Address) (err error) {
	if !caller.Equal(s.owner) {
		return makeErr(ErrUnauthorized)
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

	if err = s.payTokens.Remove(ctx, tx, token); err != nil {
		if errors.Is(err, paytokenrepo.ErrNotFound) {
			err = makeErr(ErrTokenDisabled)
		}
		return err
	}
	if err = s.events.Insert(ctx, tx, s.newEvent(model.EventPayTokenRemoved, map[string]any{
		"token": token.Normalize(),
	})); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) Events(ctx context.Context, caller model.Address, t model.EventType, limit int) ([]model.Event, error) {
	if !caller.Equal(s.owner) {
		return nil, makeErr(ErrUnauthorized)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.events.ListByType(ctx, t, limit)
}

func (s *service) newEvent(t model.EventType, payload map[string]any) *model.Event {
	return &model.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}
