// model/listing.go
package model

import (
	"math/big"
	"time"
)

// Listing is a lessor's standing offer to rent out one NFT. At most one
// listing exists per (nft_address, token_id).
type Listing struct {
	NftAddress     Address   `json:"nft_address"`
	TokenID        string    `json:"token_id"`
	Owner          Address   `json:"owner"`
	Expires        int64     `json:"expires"` // unix seconds, rent limit
	PricePerSecond *big.Int  `json:"price_per_second"`
	PayToken       Address   `json:"pay_token"` // ZeroAddress = native currency
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
