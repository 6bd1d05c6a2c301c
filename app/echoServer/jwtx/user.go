// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
)

// AddressFromContext extracts the caller's wallet address from the JWT
// `sub` claim set by the auth middleware.
func AddressFromContext(c echo.Context) (model.Address, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return "", errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid jwt claims")
	}

	s, ok := claims["sub"].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", errors.New("sub missing in claims")
	}
	addr := model.Address(s).Normalize()
	if !addr.Valid() {
		return "", errors.New("sub is not a wallet address")
	}
	return addr, nil
}
