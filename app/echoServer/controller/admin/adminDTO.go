package admin

type SetPlatformFeeReq struct {
	PlatformFeeBps int64 `json:"platform_fee_bps" validate:"gte=0"`
}

type SetFeeRecipientReq struct {
	FeeRecipient string `json:"fee_recipient" validate:"required,eth_addr"`
}

type AddPayTokenReq struct {
	Token string `json:"token" validate:"required,eth_addr"`
}
