package proceeds

type WithdrawReq struct {
	PayToken string `json:"pay_token" validate:"required,eth_addr"`
}
