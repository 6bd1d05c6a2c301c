package rental

type RentItemReq struct {
	NftAddress string `json:"nft_address" validate:"required,eth_addr"`
	TokenID    string `json:"token_id" validate:"required,number"`
	Expires    int64  `json:"expires" validate:"required,gt=0"`
	PayToken   string `json:"pay_token" validate:"required,eth_addr"`
	Payment    string `json:"payment" validate:"required,number"`
}
