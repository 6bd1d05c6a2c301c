package receipt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	chainrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/chain"
	eventrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/event"
	proceedsrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/proceeds"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidCall      ErrCode = "INVALID_CALL"
	ErrInvalidAmount    ErrCode = "INVALID_AMOUNT"
	ErrInvalidAddress   ErrCode = "INVALID_ADDRESS"
	ErrInvalidSignature ErrCode = "INVALID_SIGNATURE"
)

type codedError struct {
	code   ErrCode
	detail string
}

func (e codedError) Error() string {
	if e.detail == "" {
		return string(e.code)
	}
	return string(e.code) + ": " + e.detail
}
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode, detail string) error { return codedError{code: c, detail: detail} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// nativeTransfer is the gateway's notification of value arriving at the
// marketplace address.
type nativeTransfer struct {
	From  model.Address `json:"from"`
	Value string        `json:"value"`
	Data  string        `json:"data"`
}

type assetReceipt struct {
	NftAddress model.Address `json:"nft_address"`
	Operator   model.Address `json:"operator"`
	From       model.Address `json:"from"`
	TokenID    string        `json:"token_id"`
	Data       string        `json:"data"`
}

type Service interface {
	// HandleNativeTransfer credits an unsolicited plain transfer to the
	// sender's native-currency proceeds; transfers carrying instruction
	// data are rejected.
	HandleNativeTransfer(ctx context.Context, sigHeader string, raw []byte) error

	// HandleAssetReceipt acknowledges a safe-transfer callback with the
	// fixed ERC-721 receiver selector.
	HandleAssetReceipt(ctx context.Context, sigHeader string, raw []byte) (string, error)
}

type service struct {
	db     *sql.DB
	r      proceedsrepo.Repo
	events eventrepo.Repo
	chain  chainrepo.Repo
}

func New(db *sql.DB, r proceedsrepo.Repo, events eventrepo.Repo, chain chainrepo.Repo) Service {
	return &service{db: db, r: r, events: events, chain: chain}
}

func (s *service) HandleNativeTransfer(ctx context.Context, sigHeader string, raw []byte) (err error) {
	if err := s.chain.VerifyCallbackSignature(sigHeader, raw); err != nil {
		return makeErr(ErrInvalidSignature, err.Error())
	}

	var ev nativeTransfer
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("bad transfer hook json: %w", err)
	}
	if data := strings.TrimSpace(ev.Data); data != "" && data != "0x" {
		return makeErr(ErrInvalidCall, data)
	}
	if !ev.From.Valid() {
		return makeErr(ErrInvalidAddress, string(ev.From))
	}
	value, ok := new(big.Int).SetString(ev.Value, 10)
	if !ok || value.Sign() <= 0 {
		return makeErr(ErrInvalidAmount, ev.Value)
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

	if err = s.r.Add(ctx, tx, ev.From, model.ZeroAddress, value); err != nil {
		return err
	}
	if err = s.events.Insert(ctx, tx, &model.Event{
		ID:   uuid.NewString(),
		Type: model.EventProceedsDeposited,
		Payload: map[string]any{
			"payee":     ev.From.Normalize(),
			"pay_token": model.ZeroAddress,
			"amount":    value.String(),
		},
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) HandleAssetReceipt(ctx context.Context, sigHeader string, raw []byte) (string, error) {
	if err := s.chain.VerifyCallbackSignature(sigHeader, raw); err != nil {
		return "", makeErr(ErrInvalidSignature, err.Error())
	}
	var ev assetReceipt
	if err := json.Unmarshal(raw, &ev); err != nil {
		return "", fmt.Errorf("bad receipt hook json: %w", err)
	}
	// Receipt is passive: acknowledge so safe transfers to the escrow
	// address never revert.
	return chainrepo.OnERC721Received, nil
}
