package chainrepo

import (
	"context"
	"math/big"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
)

// OnERC721Received is the fixed acknowledgement selector the marketplace
// answers safe-transfer receipt callbacks with.
const OnERC721Received = "0x150b7a02"

// Repo is the asset-ledger gateway: ERC-721/ERC-4907 reads and writes plus
// value transfers, executed by the gateway with the marketplace's signing
// key. UserOf returns the zero address when the usage grant is unset or
// expired; the ledger, not the marketplace, owns expiry semantics.
type Repo interface {
	OwnerOf(ctx context.Context, nft model.Address, tokenID string) (model.Address, error)
	GetApproved(ctx context.Context, nft model.Address, tokenID string) (model.Address, error)
	IsApprovedForAll(ctx context.Context, nft, owner, operator model.Address) (bool, error)
	TransferFrom(ctx context.Context, nft, from, to model.Address, tokenID string) error

	UserOf(ctx context.Context, nft model.Address, tokenID string) (model.Address, error)
	SetUser(ctx context.Context, nft model.Address, tokenID string, user model.Address, expires int64) error

	TransferToken(ctx context.Context, token, from, to model.Address, amount *big.Int) error
	SendNative(ctx context.Context, to model.Address, amount *big.Int) error

	VerifyCallbackSignature(sigHeader string, rawBody []byte) error
}
