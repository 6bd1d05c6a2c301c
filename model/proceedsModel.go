// model/proceeds.go
package model

import (
	"math/big"
	"time"
)

// Proceeds is the withdrawable balance owed to a payee in one pay token.
// Balances only grow through engine-internal credits and only shrink
// through an explicit withdrawal by the payee.
type Proceeds struct {
	Payee     Address   `json:"payee"`
	PayToken  Address   `json:"pay_token"`
	Balance   *big.Int  `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}
