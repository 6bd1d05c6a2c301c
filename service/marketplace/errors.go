package marketplace

import "errors"

// errors used by controllers

type ErrCode string

const (
	ErrNotOwner          ErrCode = "NOT_OWNER"
	ErrAlreadyListed     ErrCode = "ALREADY_LISTED"
	ErrNotListed         ErrCode = "NOT_LISTED"
	ErrNotApproved       ErrCode = "NOT_APPROVED"
	ErrCurrentlyRented   ErrCode = "CURRENTLY_RENTED"
	ErrNotRedeemable     ErrCode = "NOT_REDEEMABLE"
	ErrInvalidExpires    ErrCode = "INVALID_EXPIRES"
	ErrInvalidAmount     ErrCode = "INVALID_AMOUNT"
	ErrInvalidPayToken   ErrCode = "INVALID_PAY_TOKEN"
	ErrInvalidNftAddress ErrCode = "INVALID_NFT_ADDRESS"
	ErrInsufficientFunds ErrCode = "INSUFFICIENT_FUNDS"
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

// Detail returns the offending argument the error carries, if any.
func Detail(err error) string {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.detail
	}
	return ""
}
