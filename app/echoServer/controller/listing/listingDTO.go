package listing

type ListItemReq struct {
	NftAddress     string `json:"nft_address" validate:"required,eth_addr"`
	TokenID        string `json:"token_id" validate:"required,number"`
	Expires        int64  `json:"expires" validate:"required,gt=0"`
	PricePerSecond string `json:"price_per_second" validate:"required,number"`
	PayToken       string `json:"pay_token" validate:"required,eth_addr"`
}

type UpdateListingReq struct {
	Expires        int64  `json:"expires" validate:"required,gt=0"`
	PricePerSecond string `json:"price_per_second" validate:"required,number"`
	PayToken       string `json:"pay_token" validate:"required,eth_addr"`
}
